package vectorize

import (
	"math"
	"sort"

	"github.com/hyperjump/ryori/internal/models"
)

// TermWeighter holds smoothed inverse document frequencies of a corpus:
//
//	idf(t) = ln((1+N) / (1+df(t))) + 1
//
// where N is the corpus size and df(t) the number of documents containing t.
// Tokens not seen during Fit get the maximum idf of the corpus.
type TermWeighter struct {
	weights       map[string]float64
	defaultWeight float64
	fitted        bool
}

// NewTermWeighter returns an unfitted weighter.
func NewTermWeighter() *TermWeighter {
	return &TermWeighter{}
}

// Fit computes weights for corpus, replacing any previous fit.
func (w *TermWeighter) Fit(corpus [][]string) error {
	if len(corpus) == 0 {
		return models.ErrEmptyCorpus
	}
	df := make(map[string]int)
	for _, doc := range corpus {
		seen := make(map[string]struct{}, len(doc))
		for _, token := range doc {
			if _, ok := seen[token]; ok {
				continue
			}
			seen[token] = struct{}{}
			df[token]++
		}
	}

	terms := make([]string, 0, len(df))
	for term := range df {
		terms = append(terms, term)
	}
	sort.Strings(terms)

	n := float64(len(corpus))
	weights := make(map[string]float64, len(terms))
	maxIDF := 0.0
	for _, term := range terms {
		idf := math.Log((1+n)/(1+float64(df[term]))) + 1
		weights[term] = idf
		if idf > maxIDF {
			maxIDF = idf
		}
	}
	// A corpus of empty documents has no terms; every token is then unseen with the
	// weight a term in zero documents would get.
	if len(terms) == 0 {
		maxIDF = math.Log(1+n) + 1
	}

	w.weights = weights
	w.defaultWeight = maxIDF
	w.fitted = true
	return nil
}

// Weight returns the idf of token, or the default weight for tokens unseen during Fit.
func (w *TermWeighter) Weight(token string) (float64, error) {
	if !w.fitted {
		return 0, models.ErrNotFitted
	}
	if idf, ok := w.weights[token]; ok {
		return idf, nil
	}
	return w.defaultWeight, nil
}

// DefaultWeight returns the weight of unseen tokens (the maximum idf).
func (w *TermWeighter) DefaultWeight() (float64, error) {
	if !w.fitted {
		return 0, models.ErrNotFitted
	}
	return w.defaultWeight, nil
}

// Weights returns a copy of the fitted weight table.
func (w *TermWeighter) Weights() map[string]float64 {
	out := make(map[string]float64, len(w.weights))
	for k, v := range w.weights {
		out[k] = v
	}
	return out
}

// Fitted reports whether Fit has completed.
func (w *TermWeighter) Fitted() bool {
	return w.fitted
}

// VocabularySize returns the number of distinct tokens seen during Fit.
func (w *TermWeighter) VocabularySize() int {
	return len(w.weights)
}

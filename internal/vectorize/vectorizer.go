// Package vectorize turns ingredient token lists into fixed-size vectors over an embedding table.
//
// Two strategies implement the same Vectorizer capability: an unweighted mean of the known
// token embeddings, and a mean of embeddings scaled by inverse document frequency. Both fall
// back to the zero vector when no token of a document is in the embedding vocabulary.
package vectorize

import (
	"fmt"

	"github.com/hyperjump/ryori/internal/embedding"
)

// Strategy names a vectorization strategy.
type Strategy string

const (
	// StrategyMean averages known token embeddings without weighting.
	StrategyMean Strategy = "mean"
	// StrategyTFIDF averages known token embeddings scaled by their idf weight.
	StrategyTFIDF Strategy = "tfidf"
)

// Strategies lists every supported strategy.
var Strategies = []Strategy{StrategyMean, StrategyTFIDF}

// StrategyFor maps the single configuration flag to a strategy.
func StrategyFor(useMean bool) Strategy {
	if useMean {
		return StrategyMean
	}
	return StrategyTFIDF
}

// Vectorizer converts documents (token lists) to vectors of Dimensions() entries.
type Vectorizer interface {
	// Fit prepares the vectorizer for a corpus. It is a no-op for strategies without state.
	Fit(corpus [][]string) error
	// Vectorize returns the document vector; always Dimensions() long.
	Vectorize(doc []string) ([]float32, error)
	// VectorizeBatch vectorizes docs in order; equivalent to calling Vectorize on each.
	VectorizeBatch(docs [][]string) ([][]float32, error)
	Dimensions() int
	Strategy() Strategy
}

// New creates the vectorizer for strategy over store.
func New(strategy Strategy, store embedding.Store) (Vectorizer, error) {
	switch strategy {
	case StrategyMean:
		return NewMeanVectorizer(store), nil
	case StrategyTFIDF, "":
		return NewWeightedVectorizer(store), nil
	default:
		return nil, fmt.Errorf("unknown vectorization strategy: %s (supported: mean, tfidf)", strategy)
	}
}

// averager accumulates vectors in float64 and produces their element-wise mean.
type averager struct {
	sum []float64
	n   int
}

func newAverager(dimensions int) *averager {
	return &averager{sum: make([]float64, dimensions)}
}

func (a *averager) add(vec []float32, scale float64) {
	for i, v := range vec {
		a.sum[i] += float64(v) * scale
	}
	a.n++
}

// mean returns the zero vector when nothing was added.
func (a *averager) mean() []float32 {
	out := make([]float32, len(a.sum))
	if a.n == 0 {
		return out
	}
	n := float64(a.n)
	for i, s := range a.sum {
		out[i] = float32(s / n)
	}
	return out
}

func vectorizeAll(v Vectorizer, docs [][]string) ([][]float32, error) {
	out := make([][]float32, len(docs))
	for i, doc := range docs {
		vec, err := v.Vectorize(doc)
		if err != nil {
			return nil, fmt.Errorf("document %d: %w", i, err)
		}
		out[i] = vec
	}
	return out, nil
}

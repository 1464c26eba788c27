package vectorize

import (
	"fmt"

	"github.com/hyperjump/ryori/internal/embedding"
	"github.com/hyperjump/ryori/internal/models"
)

// WeightedVectorizer averages token embeddings scaled by their idf weight.
// Fit must be called before Vectorize; queries must go through the same fitted instance
// that vectorized the catalog so catalog and query weights agree.
type WeightedVectorizer struct {
	store    embedding.Store
	weighter *TermWeighter
}

// NewWeightedVectorizer returns an unfitted weighted vectorizer over store.
func NewWeightedVectorizer(store embedding.Store) *WeightedVectorizer {
	return &WeightedVectorizer{store: store, weighter: NewTermWeighter()}
}

// Fit fits the idf weights on corpus.
func (v *WeightedVectorizer) Fit(corpus [][]string) error {
	if err := v.weighter.Fit(corpus); err != nil {
		return fmt.Errorf("fit term weights: %w", err)
	}
	return nil
}

// Vectorize returns the mean of embedding(t)*idf(t) over doc's known tokens,
// or the zero vector when none is known.
func (v *WeightedVectorizer) Vectorize(doc []string) ([]float32, error) {
	if !v.weighter.Fitted() {
		return nil, models.ErrNotFitted
	}
	avg := newAverager(v.store.Dimensions())
	for _, token := range doc {
		vec, ok := v.store.Lookup(token)
		if !ok {
			continue
		}
		weight, err := v.weighter.Weight(token)
		if err != nil {
			return nil, err
		}
		avg.add(vec, weight)
	}
	return avg.mean(), nil
}

// VectorizeBatch vectorizes docs in order.
func (v *WeightedVectorizer) VectorizeBatch(docs [][]string) ([][]float32, error) {
	if !v.weighter.Fitted() {
		return nil, models.ErrNotFitted
	}
	return vectorizeAll(v, docs)
}

// Weighter exposes the fitted term weights.
func (v *WeightedVectorizer) Weighter() *TermWeighter {
	return v.weighter
}

// Dimensions returns the embedding dimension.
func (v *WeightedVectorizer) Dimensions() int {
	return v.store.Dimensions()
}

// Strategy returns StrategyTFIDF.
func (v *WeightedVectorizer) Strategy() Strategy {
	return StrategyTFIDF
}

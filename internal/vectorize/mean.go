package vectorize

import "github.com/hyperjump/ryori/internal/embedding"

// MeanVectorizer averages the embeddings of the known tokens of a document.
// It is stateless given its store and safe for concurrent use.
type MeanVectorizer struct {
	store embedding.Store
}

// NewMeanVectorizer returns a mean vectorizer over store.
func NewMeanVectorizer(store embedding.Store) *MeanVectorizer {
	return &MeanVectorizer{store: store}
}

// Fit is a no-op.
func (m *MeanVectorizer) Fit(corpus [][]string) error {
	return nil
}

// Vectorize returns the mean embedding of doc's known tokens. Repeated tokens count once per
// occurrence. A document without known tokens yields the zero vector.
func (m *MeanVectorizer) Vectorize(doc []string) ([]float32, error) {
	avg := newAverager(m.store.Dimensions())
	for _, token := range doc {
		if vec, ok := m.store.Lookup(token); ok {
			avg.add(vec, 1)
		}
	}
	return avg.mean(), nil
}

// VectorizeBatch vectorizes docs in order.
func (m *MeanVectorizer) VectorizeBatch(docs [][]string) ([][]float32, error) {
	return vectorizeAll(m, docs)
}

// Dimensions returns the embedding dimension.
func (m *MeanVectorizer) Dimensions() int {
	return m.store.Dimensions()
}

// Strategy returns StrategyMean.
func (m *MeanVectorizer) Strategy() Strategy {
	return StrategyMean
}

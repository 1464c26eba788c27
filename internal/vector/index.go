package vector

import "context"

// VectorIndex stores document vectors by position and answers similarity queries.
type VectorIndex interface {
	Add(ctx context.Context, vectors [][]float32) error
	Search(ctx context.Context, query []float32, k int) ([]Result, error)
	Save(path, fingerprint string) error
	Load(path, fingerprint string) (bool, error)
	Size() int
	Dimensions() int
	Close() error
}

// Result is a single ranked hit: the position of the document and its cosine similarity.
type Result struct {
	Index int
	Score float64
}

// Package embedding provides the word-embedding table used to vectorize ingredient lists,
// word2vec loaders for it, and the per-snapshot query-vector memo.
package embedding

import (
	"encoding/binary"
	"fmt"
	"math"
	"sort"

	"github.com/hyperjump/ryori/internal/fingerprint"
)

// Store is a read-only lookup table from token to a fixed-dimension vector.
type Store interface {
	// Lookup returns the vector for token. The returned slice must not be modified.
	Lookup(token string) ([]float32, bool)
	Contains(token string) bool
	Dimensions() int
	Size() int
	// Fingerprint identifies the table content; equal content yields equal fingerprints.
	Fingerprint() string
}

// MemoryStore is an in-memory Store. It is immutable after construction and safe for concurrent use.
type MemoryStore struct {
	dimensions  int
	vectors     map[string][]float32
	fingerprint string
}

// NewMemoryStore copies vectors into a new store. Every vector must have exactly dimensions entries.
func NewMemoryStore(dimensions int, vectors map[string][]float32) (*MemoryStore, error) {
	if dimensions <= 0 {
		return nil, &LoadError{Source: "memory", Err: fmt.Errorf("dimensions must be positive, got %d", dimensions)}
	}
	copied := make(map[string][]float32, len(vectors))
	for token, vec := range vectors {
		if len(vec) != dimensions {
			return nil, &LoadError{
				Source: "memory",
				Err:    fmt.Errorf("token %q: vector dimension mismatch: got %d, expected %d", token, len(vec), dimensions),
			}
		}
		if err := checkFinite(vec); err != nil {
			return nil, &LoadError{Source: "memory", Err: fmt.Errorf("token %q: %w", token, err)}
		}
		copied[token] = append([]float32(nil), vec...)
	}
	return newMemoryStore(dimensions, copied, contentFingerprint(dimensions, copied)), nil
}

// checkFinite rejects NaN and infinite components; they make every cosine against the vector NaN.
func checkFinite(vec []float32) error {
	for i, v := range vec {
		f := float64(v)
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return fmt.Errorf("non-finite value %v at position %d", v, i)
		}
	}
	return nil
}

func newMemoryStore(dimensions int, vectors map[string][]float32, fp string) *MemoryStore {
	return &MemoryStore{dimensions: dimensions, vectors: vectors, fingerprint: fp}
}

// Lookup returns the embedding of token if it is in the vocabulary.
func (s *MemoryStore) Lookup(token string) ([]float32, bool) {
	v, ok := s.vectors[token]
	return v, ok
}

// Contains reports vocabulary membership.
func (s *MemoryStore) Contains(token string) bool {
	_, ok := s.vectors[token]
	return ok
}

// Dimensions returns the embedding dimension D.
func (s *MemoryStore) Dimensions() int {
	return s.dimensions
}

// Size returns the vocabulary size.
func (s *MemoryStore) Size() int {
	return len(s.vectors)
}

// Fingerprint returns the content identity of the table.
func (s *MemoryStore) Fingerprint() string {
	return s.fingerprint
}

func contentFingerprint(dimensions int, vectors map[string][]float32) string {
	tokens := make([]string, 0, len(vectors))
	for t := range vectors {
		tokens = append(tokens, t)
	}
	sort.Strings(tokens)
	h := fingerprint.New().Add(fmt.Sprintf("dim=%d", dimensions))
	buf := make([]byte, 4*dimensions)
	for _, t := range tokens {
		h.Add(t)
		for i, v := range vectors[t] {
			binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(v))
		}
		_, _ = h.Writer().Write(buf)
	}
	return h.Sum()
}

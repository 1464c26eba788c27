// Package vector provides an in-memory, position-addressed vector index.
package vector

import (
	"bufio"
	"context"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"sync"
)

// MemoryIndex holds document vectors addressed by their position, aligned with the catalog.
// Search is brute force over all vectors.
type MemoryIndex struct {
	dimensions int
	vectors    [][]float32
	mu         sync.RWMutex
}

// NewMemoryIndex creates an in-memory vector index with the given dimension.
func NewMemoryIndex(dimensions int) (*MemoryIndex, error) {
	if dimensions <= 0 {
		return nil, fmt.Errorf("dimensions must be positive")
	}
	return &MemoryIndex{
		dimensions: dimensions,
		vectors:    make([][]float32, 0),
	}, nil
}

// Add appends vectors; the first added vector gets position Size() before the call.
func (m *MemoryIndex) Add(ctx context.Context, vectors [][]float32) error {
	for i, v := range vectors {
		if len(v) != m.dimensions {
			return fmt.Errorf("vector %d: dimension mismatch: got %d, expected %d", i, len(v), m.dimensions)
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, v := range vectors {
		vec := make([]float32, m.dimensions)
		copy(vec, v)
		m.vectors = append(m.vectors, vec)
	}
	return nil
}

// Search returns the top-k positions by cosine similarity, ties broken by position.
func (m *MemoryIndex) Search(ctx context.Context, query []float32, k int) ([]Result, error) {
	if len(query) != m.dimensions {
		return nil, fmt.Errorf("query dimension mismatch: got %d, expected %d", len(query), m.dimensions)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return Rank(query, m.vectors, k), nil
}

// Vector returns the vector at position i.
func (m *MemoryIndex) Vector(i int) ([]float32, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if i < 0 || i >= len(m.vectors) {
		return nil, false
	}
	return m.vectors[i], true
}

// ZeroCount returns how many stored vectors are the zero vector (documents without known tokens).
func (m *MemoryIndex) ZeroCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	n := 0
	for _, v := range m.vectors {
		if IsZero(v) {
			n++
		}
	}
	return n
}

// Save persists the index to path, tagged with fingerprint. The file is replaced atomically.
// Format: fingerprint length (4), fingerprint bytes, dimension (4), n (4), then n*dimension float32.
func (m *MemoryIndex) Save(path, fingerprint string) error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if path == "" {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create index dir: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create index file: %w", err)
	}
	defer os.Remove(tmp.Name())

	w := bufio.NewWriter(tmp)
	if err := m.writeTo(w, fingerprint); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := w.Flush(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("flush index file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close index file: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("rename index file: %w", err)
	}
	return nil
}

func (m *MemoryIndex) writeTo(w io.Writer, fingerprint string) error {
	if err := binary.Write(w, binary.LittleEndian, uint32(len(fingerprint))); err != nil {
		return fmt.Errorf("write fingerprint len: %w", err)
	}
	if _, err := io.WriteString(w, fingerprint); err != nil {
		return fmt.Errorf("write fingerprint: %w", err)
	}
	if err := binary.Write(w, binary.LittleEndian, uint32(m.dimensions)); err != nil {
		return fmt.Errorf("write dimensions: %w", err)
	}
	if err := binary.Write(w, binary.LittleEndian, uint32(len(m.vectors))); err != nil {
		return fmt.Errorf("write count: %w", err)
	}
	for _, vec := range m.vectors {
		if _, err := w.Write(float32SliceToBytes(vec)); err != nil {
			return fmt.Errorf("write vector: %w", err)
		}
	}
	return nil
}

// Load replaces the in-memory contents with the index stored at path if the file exists and
// carries the same fingerprint. It returns false, leaving the index unchanged, when the file is
// missing or stale.
func (m *MemoryIndex) Load(path, fingerprint string) (bool, error) {
	if path == "" {
		return false, nil
	}
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("open index file: %w", err)
	}
	defer f.Close()
	r := bufio.NewReader(f)

	var fpLen uint32
	if err := binary.Read(r, binary.LittleEndian, &fpLen); err != nil {
		return false, fmt.Errorf("read fingerprint len: %w", err)
	}
	if int(fpLen) != len(fingerprint) {
		return false, nil
	}
	fpBytes := make([]byte, fpLen)
	if _, err := io.ReadFull(r, fpBytes); err != nil {
		return false, fmt.Errorf("read fingerprint: %w", err)
	}
	if string(fpBytes) != fingerprint {
		return false, nil
	}

	var dim, n uint32
	if err := binary.Read(r, binary.LittleEndian, &dim); err != nil {
		return false, fmt.Errorf("read dimensions: %w", err)
	}
	if int(dim) != m.dimensions {
		return false, fmt.Errorf("dimension mismatch: file has %d, index expects %d", dim, m.dimensions)
	}
	if err := binary.Read(r, binary.LittleEndian, &n); err != nil {
		return false, fmt.Errorf("read count: %w", err)
	}
	vectors := make([][]float32, 0, n)
	buf := make([]byte, m.dimensions*4)
	for i := uint32(0); i < n; i++ {
		if _, err := io.ReadFull(r, buf); err != nil {
			return false, fmt.Errorf("read vector %d: %w", i, err)
		}
		vectors = append(vectors, bytesToFloat32Slice(buf))
	}

	m.mu.Lock()
	m.vectors = vectors
	m.mu.Unlock()
	return true, nil
}

func float32SliceToBytes(s []float32) []byte {
	const size = 4
	out := make([]byte, len(s)*size)
	for i, v := range s {
		binary.LittleEndian.PutUint32(out[i*size:(i+1)*size], math.Float32bits(v))
	}
	return out
}

func bytesToFloat32Slice(b []byte) []float32 {
	const size = 4
	out := make([]float32, len(b)/size)
	for i := range out {
		out[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[i*size : (i+1)*size]))
	}
	return out
}

// Size returns the number of vectors in the index.
func (m *MemoryIndex) Size() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.vectors)
}

// Dimensions returns the vector dimension.
func (m *MemoryIndex) Dimensions() int {
	return m.dimensions
}

// Close is a no-op for MemoryIndex.
func (m *MemoryIndex) Close() error {
	return nil
}

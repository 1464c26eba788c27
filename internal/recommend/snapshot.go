package recommend

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/hyperjump/ryori/internal/embedding"
	"github.com/hyperjump/ryori/internal/fingerprint"
	"github.com/hyperjump/ryori/internal/metrics"
	"github.com/hyperjump/ryori/internal/vector"
	"github.com/hyperjump/ryori/internal/vectorize"
)

const (
	sourceFresh = "fresh"
	sourceDisk  = "disk"
)

// Snapshot is the fitted vectorizer and catalog vectors for one strategy over one
// (store, catalog) pair. It is immutable once built; the query cache is internally locked.
type Snapshot struct {
	ID          string
	Strategy    vectorize.Strategy
	Fingerprint string
	Source      string
	BuiltAt     time.Time

	vectorizer vectorize.Vectorizer
	index      *vector.MemoryIndex
	queries    *embedding.QueryCache
}

// SnapshotInfo describes a built snapshot.
type SnapshotInfo struct {
	ID          string    `json:"id"`
	Strategy    string    `json:"strategy"`
	Source      string    `json:"source"`
	BuiltAt     time.Time `json:"built_at"`
	Vectors     int       `json:"vectors"`
	ZeroVectors int       `json:"zero_vectors"`
	Weighted    int       `json:"weighted_tokens,omitempty"`
}

func (s *Snapshot) info() SnapshotInfo {
	info := SnapshotInfo{
		ID:          s.ID,
		Strategy:    string(s.Strategy),
		Source:      s.Source,
		BuiltAt:     s.BuiltAt,
		Vectors:     s.index.Size(),
		ZeroVectors: s.index.ZeroCount(),
	}
	if wv, ok := s.vectorizer.(*vectorize.WeightedVectorizer); ok {
		info.Weighted = wv.Weighter().VocabularySize()
	}
	return info
}

// queryVector vectorizes tokens through the snapshot's vectorizer, memoized by token sequence.
func (s *Snapshot) queryVector(tokens []string) ([]float32, error) {
	if vec, ok := s.queries.Get(tokens); ok {
		metrics.QueryCacheTotal.WithLabelValues("hit").Inc()
		return vec, nil
	}
	metrics.QueryCacheTotal.WithLabelValues("miss").Inc()
	vec, err := s.vectorizer.Vectorize(tokens)
	if err != nil {
		return nil, err
	}
	s.queries.Put(tokens, vec)
	return vec, nil
}

// buildSnapshot fits a vectorizer on the catalog corpus and vectorizes every document, or
// restores the vectors from the disk cache when a file with a matching fingerprint exists.
func (e *Engine) buildSnapshot(ctx context.Context, st *state, strategy vectorize.Strategy) (*Snapshot, error) {
	start := time.Now()
	vz, err := vectorize.New(strategy, st.store)
	if err != nil {
		return nil, err
	}
	corpus := st.catalog.Corpus()
	if err := vz.Fit(corpus); err != nil {
		return nil, fmt.Errorf("fit %s vectorizer: %w", strategy, err)
	}

	snap := &Snapshot{
		ID:          uuid.New().String(),
		Strategy:    strategy,
		Fingerprint: fingerprint.Of(st.store.Fingerprint(), st.catalog.Fingerprint(), string(strategy)),
		Source:      sourceFresh,
		vectorizer:  vz,
		queries:     embedding.NewQueryCache(e.queryCacheSize),
	}

	idx, restored := e.restoreVectors(snap, st.store.Dimensions(), len(corpus))
	if restored {
		snap.Source = sourceDisk
	} else {
		vecs, err := vz.VectorizeBatch(corpus)
		if err != nil {
			return nil, fmt.Errorf("vectorize catalog: %w", err)
		}
		if idx, err = vector.NewMemoryIndex(st.store.Dimensions()); err != nil {
			return nil, err
		}
		if err := idx.Add(ctx, vecs); err != nil {
			return nil, fmt.Errorf("index catalog vectors: %w", err)
		}
		e.persistVectors(snap, idx)
	}
	snap.index = idx
	snap.BuiltAt = time.Now()

	metrics.SnapshotBuildsTotal.WithLabelValues(string(strategy), snap.Source).Inc()
	metrics.SnapshotBuildDuration.WithLabelValues(string(strategy)).Observe(time.Since(start).Seconds())
	e.logger.Info("snapshot built",
		zap.String("id", snap.ID),
		zap.String("strategy", string(strategy)),
		zap.String("source", snap.Source),
		zap.Int("recipes", idx.Size()),
		zap.Int("zero_vectors", idx.ZeroCount()),
		zap.Duration("took", time.Since(start)),
	)
	return snap, nil
}

func (e *Engine) cachePath(strategy vectorize.Strategy) string {
	if e.cacheDir == "" {
		return ""
	}
	return filepath.Join(e.cacheDir, string(strategy)+".vec")
}

func (e *Engine) restoreVectors(snap *Snapshot, dimensions, n int) (*vector.MemoryIndex, bool) {
	path := e.cachePath(snap.Strategy)
	if path == "" {
		return nil, false
	}
	idx, err := vector.NewMemoryIndex(dimensions)
	if err != nil {
		return nil, false
	}
	ok, err := idx.Load(path, snap.Fingerprint)
	if err != nil {
		e.logger.Warn("ignoring unreadable vector cache", zap.String("path", path), zap.Error(err))
		return nil, false
	}
	if !ok || idx.Size() != n {
		return nil, false
	}
	return idx, true
}

func (e *Engine) persistVectors(snap *Snapshot, idx *vector.MemoryIndex) {
	path := e.cachePath(snap.Strategy)
	if path == "" {
		return
	}
	if err := idx.Save(path, snap.Fingerprint); err != nil {
		e.logger.Warn("failed to save vector cache", zap.String("path", path), zap.Error(err))
	}
}

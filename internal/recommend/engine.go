// Package recommend ranks catalog recipes against a set of query ingredients.
//
// The Engine owns the embedding store and catalog. For each vectorization strategy it lazily
// builds a Snapshot: a vectorizer fitted on the catalog corpus plus every catalog document's
// vector. Snapshots are shared by concurrent requests, built once per (store, catalog,
// strategy), and discarded when Replace installs new collaborators.
package recommend

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/hyperjump/ryori/internal/catalog"
	"github.com/hyperjump/ryori/internal/embedding"
	"github.com/hyperjump/ryori/internal/keyword"
	"github.com/hyperjump/ryori/internal/metrics"
	"github.com/hyperjump/ryori/internal/models"
	"github.com/hyperjump/ryori/internal/vector"
	"github.com/hyperjump/ryori/internal/vectorize"
)

// Loader fetches a fresh embedding store and catalog, e.g. from configured files.
type Loader func(ctx context.Context) (embedding.Store, *catalog.Catalog, error)

// ErrNoLoader is returned by Reload when the engine was built without WithLoader.
var ErrNoLoader = errors.New("no loader configured")

// ErrRecipeNotFound is returned by SimilarRecipes for an index outside the catalog.
var ErrRecipeNotFound = errors.New("recipe not found")

// ErrClosed is returned by SearchRecipes after Close.
var ErrClosed = errors.New("engine closed")

// Engine serves recommendations over one embedding store and catalog at a time.
type Engine struct {
	mu    sync.RWMutex
	state *state
	group singleflight.Group

	logger         *zap.Logger
	cacheDir       string
	queryCacheSize int
	suggest        bool
	spellOpts      []keyword.SpellCheckerOption
	loader         Loader
}

// state is one generation of collaborators and the snapshots built from them.
type state struct {
	generation uint64
	store      embedding.Store
	catalog    *catalog.Catalog
	loadedAt   time.Time
	snapshots  map[vectorize.Strategy]*Snapshot // guarded by Engine.mu

	keywordMu     sync.Mutex
	keywords      *keyword.BleveIndex
	keywordErr    error
	keywordClosed bool

	spellOnce sync.Once
	spell     *keyword.SpellChecker
}

// NewEngine creates an engine over store and cat. Snapshots are built on first use or by Warm.
func NewEngine(store embedding.Store, cat *catalog.Catalog, opts ...Option) (*Engine, error) {
	if err := validate(store, cat); err != nil {
		return nil, err
	}
	e := &Engine{
		logger:         zap.NewNop(),
		queryCacheSize: 1024,
	}
	for _, opt := range opts {
		opt(e)
	}
	e.state = newState(1, store, cat)
	metrics.CatalogRecipes.Set(float64(cat.Len()))
	return e, nil
}

func validate(store embedding.Store, cat *catalog.Catalog) error {
	if store == nil {
		return errors.New("embedding store is required")
	}
	if cat == nil || cat.Len() == 0 {
		return models.ErrEmptyCorpus
	}
	return nil
}

func newState(generation uint64, store embedding.Store, cat *catalog.Catalog) *state {
	return &state{
		generation: generation,
		store:      store,
		catalog:    cat,
		loadedAt:   time.Now(),
		snapshots:  make(map[vectorize.Strategy]*Snapshot, len(vectorize.Strategies)),
	}
}

func (e *Engine) current() *state {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.state
}

// Recommend returns the query.TopN catalog recipes most similar to the query ingredients.
// Ingredients are trimmed and blanks dropped; an empty list is valid and scores every recipe 0.
func (e *Engine) Recommend(ctx context.Context, query models.RecommendQuery) (*models.RecommendResponse, error) {
	start := time.Now()
	query.Normalize()
	strategy := vectorize.StrategyFor(query.UseMean)

	resp, err := e.recommend(ctx, query, strategy)

	status := "ok"
	if err != nil {
		status = "error"
	}
	metrics.RecommendationsTotal.WithLabelValues(string(strategy), status).Inc()
	metrics.RecommendationDuration.WithLabelValues(string(strategy)).Observe(time.Since(start).Seconds())
	if err != nil {
		return nil, err
	}
	resp.QueryTime = time.Since(start).Milliseconds()
	return resp, nil
}

func (e *Engine) recommend(ctx context.Context, query models.RecommendQuery, strategy vectorize.Strategy) (*models.RecommendResponse, error) {
	st := e.current()
	snap, err := e.snapshot(ctx, st, strategy)
	if err != nil {
		return nil, err
	}
	qvec, err := snap.queryVector(query.Ingredients)
	if err != nil {
		return nil, fmt.Errorf("vectorize query: %w", err)
	}
	ranked, err := snap.index.Search(ctx, qvec, query.TopN)
	if err != nil {
		return nil, fmt.Errorf("rank catalog: %w", err)
	}

	results, err := st.recommendations(ranked, query.WithScores)
	if err != nil {
		return nil, err
	}
	resp := &models.RecommendResponse{
		Results:     results,
		Total:       len(results),
		Strategy:    string(strategy),
		Ingredients: query.Ingredients,
		SnapshotID:  snap.ID,
	}

	resp.UnknownIngredients = unknownTokens(st.store, query.Ingredients)
	if n := len(resp.UnknownIngredients); n > 0 {
		metrics.UnknownIngredientsTotal.Add(float64(n))
		if e.suggest {
			if s := st.spellChecker(e.spellOpts).SuggestAll(resp.UnknownIngredients); len(s) > 0 {
				resp.Suggestions = s
			}
		}
	}
	return resp, nil
}

// SimilarRecipes ranks the catalog against the stored vector of the recipe at index, leaving
// that recipe out. A recipe without known ingredients has the zero vector and every score is 0.
func (e *Engine) SimilarRecipes(ctx context.Context, index, topN int, useMean, withScores bool) ([]*models.Recommendation, error) {
	st := e.current()
	snap, err := e.snapshot(ctx, st, vectorize.StrategyFor(useMean))
	if err != nil {
		return nil, err
	}
	vec, ok := snap.index.Vector(index)
	if !ok {
		return nil, fmt.Errorf("recipe %d: %w", index, ErrRecipeNotFound)
	}
	if topN <= 0 {
		return []*models.Recommendation{}, nil
	}
	ranked, err := snap.index.Search(ctx, vec, topN+1)
	if err != nil {
		return nil, fmt.Errorf("rank catalog: %w", err)
	}
	others := make([]vector.Result, 0, topN)
	for _, r := range ranked {
		if r.Index != index && len(others) < topN {
			others = append(others, r)
		}
	}
	return st.recommendations(others, withScores)
}

// recommendations resolves ranked positions to catalog recipes, ranked from 1.
func (st *state) recommendations(ranked []vector.Result, withScores bool) ([]*models.Recommendation, error) {
	out := make([]*models.Recommendation, 0, len(ranked))
	for i, r := range ranked {
		recipe, ok := st.catalog.Recipe(r.Index)
		if !ok {
			return nil, fmt.Errorf("ranked index %d outside catalog of %d", r.Index, st.catalog.Len())
		}
		rec := &models.Recommendation{
			Rank:        i + 1,
			Index:       recipe.Index,
			Recipe:      recipe.Name,
			Ingredients: recipe.Ingredients,
			URL:         recipe.URL,
		}
		if withScores {
			score := r.Score
			rec.Score = &score
		}
		out = append(out, rec)
	}
	return out, nil
}

// unknownTokens returns the distinct tokens absent from store, in query order.
func unknownTokens(store embedding.Store, tokens []string) []string {
	var unknown []string
	seen := make(map[string]struct{})
	for _, t := range tokens {
		if _, dup := seen[t]; dup || store.Contains(t) {
			continue
		}
		seen[t] = struct{}{}
		unknown = append(unknown, t)
	}
	return unknown
}

// snapshot returns the snapshot for strategy in st, building it once. Concurrent callers for
// the same generation and strategy share one build. A snapshot built for a generation that
// was replaced meanwhile is returned to its callers but not cached.
func (e *Engine) snapshot(ctx context.Context, st *state, strategy vectorize.Strategy) (*Snapshot, error) {
	e.mu.RLock()
	snap := st.snapshots[strategy]
	e.mu.RUnlock()
	if snap != nil {
		return snap, nil
	}

	key := fmt.Sprintf("%d/%s", st.generation, strategy)
	v, err, _ := e.group.Do(key, func() (interface{}, error) {
		e.mu.RLock()
		cached := st.snapshots[strategy]
		e.mu.RUnlock()
		if cached != nil {
			return cached, nil
		}

		// detached so a cancelled leader does not fail the callers sharing this build
		built, err := e.buildSnapshot(context.WithoutCancel(ctx), st, strategy)
		if err != nil {
			return nil, err
		}
		e.mu.Lock()
		if e.state == st {
			st.snapshots[strategy] = built
		}
		e.mu.Unlock()
		return built, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Snapshot), nil
}

// Warm builds the snapshots of every strategy.
func (e *Engine) Warm(ctx context.Context) error {
	st := e.current()
	g, ctx := errgroup.WithContext(ctx)
	for _, strategy := range vectorize.Strategies {
		strategy := strategy
		g.Go(func() error {
			if _, err := e.snapshot(ctx, st, strategy); err != nil {
				return fmt.Errorf("warm %s: %w", strategy, err)
			}
			return nil
		})
	}
	return g.Wait()
}

// Replace atomically installs a new store and catalog. Existing snapshots are discarded;
// requests already running finish against the collaborators they started with.
func (e *Engine) Replace(store embedding.Store, cat *catalog.Catalog) error {
	if err := validate(store, cat); err != nil {
		return err
	}
	e.mu.Lock()
	prev := e.state
	e.state = newState(prev.generation+1, store, cat)
	e.mu.Unlock()

	metrics.CatalogRecipes.Set(float64(cat.Len()))
	e.logger.Info("collaborators replaced",
		zap.Uint64("generation", prev.generation+1),
		zap.Int("recipes", cat.Len()),
		zap.Int("vocabulary", store.Size()),
		zap.Int("dimensions", store.Dimensions()),
	)
	return nil
}

// Reload fetches new collaborators through the configured Loader and installs them.
// On failure the current store and catalog stay in place.
func (e *Engine) Reload(ctx context.Context) error {
	if e.loader == nil {
		return ErrNoLoader
	}
	store, cat, err := e.loader(ctx)
	if err == nil {
		err = e.Replace(store, cat)
	}
	if err != nil {
		metrics.ReloadsTotal.WithLabelValues("error").Inc()
		e.logger.Error("reload failed", zap.Error(err))
		return fmt.Errorf("reload: %w", err)
	}
	metrics.ReloadsTotal.WithLabelValues("ok").Inc()
	return nil
}

// Catalog returns the active catalog.
func (e *Engine) Catalog() *catalog.Catalog {
	return e.current().catalog
}

// Store returns the active embedding store.
func (e *Engine) Store() embedding.Store {
	return e.current().store
}

// Status reports the active collaborators and the snapshots built over them.
func (e *Engine) Status() *Status {
	e.mu.RLock()
	st := e.state
	snaps := make([]*Snapshot, 0, len(st.snapshots))
	for _, s := range st.snapshots {
		snaps = append(snaps, s)
	}
	e.mu.RUnlock()

	status := &Status{
		Generation:         st.generation,
		LoadedAt:           st.loadedAt,
		Recipes:            st.catalog.Len(),
		CatalogTokens:      len(st.catalog.Vocabulary()),
		Vocabulary:         st.store.Size(),
		Dimensions:         st.store.Dimensions(),
		StoreFingerprint:   st.store.Fingerprint(),
		CatalogFingerprint: st.catalog.Fingerprint(),
		Snapshots:          make([]SnapshotInfo, 0, len(snaps)),
	}
	for _, s := range snaps {
		status.Snapshots = append(status.Snapshots, s.info())
	}
	sort.Slice(status.Snapshots, func(i, j int) bool {
		return status.Snapshots[i].Strategy < status.Snapshots[j].Strategy
	})
	return status
}

// SearchRecipes looks recipes up by words in their name or ingredient list.
func (e *Engine) SearchRecipes(ctx context.Context, q string, limit int, fuzzy bool) ([]*models.Recommendation, error) {
	st := e.current()
	idx, err := st.keywordIndex(ctx)
	if err != nil {
		return nil, err
	}
	hits, err := idx.Search(ctx, q, limit, &keyword.SearchOptions{NameBoost: 2, Fuzzy: fuzzy})
	if err != nil {
		return nil, err
	}
	out := make([]*models.Recommendation, 0, len(hits))
	for i, h := range hits {
		recipe, ok := st.catalog.Recipe(h.Index)
		if !ok {
			continue
		}
		score := h.Score
		out = append(out, &models.Recommendation{
			Rank:        i + 1,
			Index:       recipe.Index,
			Recipe:      recipe.Name,
			Ingredients: recipe.Ingredients,
			URL:         recipe.URL,
			Score:       &score,
		})
	}
	return out, nil
}

// Close releases the keyword index of the active catalog. It is safe to call more than once.
func (e *Engine) Close() error {
	return e.current().closeKeywords()
}

// keywordIndex builds the in-memory keyword index for the state's catalog on first use.
// A failed build is not retried.
func (st *state) keywordIndex(ctx context.Context) (*keyword.BleveIndex, error) {
	st.keywordMu.Lock()
	defer st.keywordMu.Unlock()
	if st.keywordClosed {
		return nil, ErrClosed
	}
	if st.keywords != nil || st.keywordErr != nil {
		return st.keywords, st.keywordErr
	}
	idx, err := keyword.NewBleveIndex("")
	if err != nil {
		st.keywordErr = err
		return nil, err
	}
	if err := idx.Index(context.WithoutCancel(ctx), st.catalog.Recipes()); err != nil {
		_ = idx.Close()
		st.keywordErr = fmt.Errorf("index catalog: %w", err)
		return nil, st.keywordErr
	}
	st.keywords = idx
	return idx, nil
}

func (st *state) closeKeywords() error {
	st.keywordMu.Lock()
	defer st.keywordMu.Unlock()
	st.keywordClosed = true
	if st.keywords == nil {
		return nil
	}
	err := st.keywords.Close()
	st.keywords = nil
	return err
}

// spellChecker suggests catalog ingredients the embedding store knows, weighted by how many
// recipes use them.
func (st *state) spellChecker(opts []keyword.SpellCheckerOption) *keyword.SpellChecker {
	st.spellOnce.Do(func() {
		vocab := st.catalog.Vocabulary()
		for t := range vocab {
			if !st.store.Contains(t) {
				delete(vocab, t)
			}
		}
		st.spell = keyword.NewSpellChecker(keyword.NewVocabularyDictionary(vocab), opts...)
	})
	return st.spell
}

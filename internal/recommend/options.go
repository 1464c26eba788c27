package recommend

import (
	"go.uber.org/zap"

	"github.com/hyperjump/ryori/internal/keyword"
)

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the logger for the engine.
func WithLogger(logger *zap.Logger) Option {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithCacheDir persists catalog vectors under dir, keyed by store, catalog and strategy
// fingerprint. An empty dir disables the disk cache.
func WithCacheDir(dir string) Option {
	return func(e *Engine) {
		e.cacheDir = dir
	}
}

// WithQueryCacheSize sets how many query vectors each snapshot memoizes. 0 disables the cache.
func WithQueryCacheSize(n int) Option {
	return func(e *Engine) {
		if n >= 0 {
			e.queryCacheSize = n
		}
	}
}

// WithSuggestions enables "did you mean" suggestions for unknown query ingredients.
func WithSuggestions(enabled bool, opts ...keyword.SpellCheckerOption) Option {
	return func(e *Engine) {
		e.suggest = enabled
		e.spellOpts = opts
	}
}

// WithLoader sets the function Reload uses to fetch fresh collaborators.
func WithLoader(load Loader) Option {
	return func(e *Engine) {
		e.loader = load
	}
}

package main

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/hyperjump/ryori/internal/catalog"
	"github.com/hyperjump/ryori/internal/config"
	"github.com/hyperjump/ryori/internal/embedding"
	"github.com/hyperjump/ryori/internal/keyword"
	"github.com/hyperjump/ryori/internal/recommend"
	"github.com/hyperjump/ryori/internal/storage"
)

// Components holds initialized services.
type Components struct {
	Storage storage.RecipeStore // nil unless catalog.source is sqlite
	Engine  *recommend.Engine
}

func (c *Components) Close() {
	if c.Engine != nil {
		_ = c.Engine.Close()
	}
	if c.Storage != nil {
		_ = c.Storage.Close()
	}
}

// catalogSource returns the configured recipe source. db is used when catalog.source is sqlite.
func catalogSource(cfg *config.Config, db storage.RecipeStore) (catalog.Source, error) {
	switch cfg.Catalog.Source {
	case config.CatalogSourceSQLite:
		if db == nil {
			return nil, fmt.Errorf("catalog source sqlite requires a database")
		}
		return db, nil
	default:
		return catalog.NewFileSource(cfg.Catalog.Path, catalog.Format(cfg.Catalog.Format), cfg.Catalog.Sheet, cfg.Catalog.Columns)
	}
}

// newLoader returns a loader that reads the embedding model and the catalog from their configured sources.
func newLoader(cfg *config.Config, db storage.RecipeStore, logger *zap.Logger) (recommend.Loader, error) {
	src, err := catalogSource(cfg, db)
	if err != nil {
		return nil, err
	}
	model := embedding.NewFileSource(cfg.Embedding.ModelPath, cfg.Embedding.Format)
	return func(ctx context.Context) (embedding.Store, *catalog.Catalog, error) {
		store, err := model.Load(ctx)
		if err != nil {
			return nil, nil, err
		}
		cat, err := catalog.Load(ctx, src)
		if err != nil {
			return nil, nil, fmt.Errorf("load catalog: %w", err)
		}
		logger.Info("collaborators loaded",
			zap.String("model", cfg.Embedding.ModelPath),
			zap.Int("vocabulary", store.Size()),
			zap.Int("dimensions", store.Dimensions()),
			zap.String("catalog_source", cfg.Catalog.Source),
			zap.Int("recipes", cat.Len()),
		)
		return store, cat, nil
	}, nil
}

func initializeComponents(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Components, error) {
	c := &Components{}
	if cfg.Catalog.Source == config.CatalogSourceSQLite {
		db, err := storage.NewSQLiteStorage(cfg.Storage.DatabasePath)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize storage: %w", err)
		}
		c.Storage = db
	}

	loader, err := newLoader(cfg, c.Storage, logger)
	if err != nil {
		c.Close()
		return nil, err
	}
	store, cat, err := loader(ctx)
	if err != nil {
		c.Close()
		return nil, err
	}

	spellOpts := []keyword.SpellCheckerOption{
		keyword.WithMaxDistance(cfg.Recommend.SuggestMaxDistance),
		keyword.WithTranspositions(cfg.Recommend.SuggestTranspositions),
	}
	engine, err := recommend.NewEngine(store, cat,
		recommend.WithLogger(logger),
		recommend.WithCacheDir(cfg.Storage.VectorCacheDir),
		recommend.WithQueryCacheSize(cfg.Recommend.QueryCacheSize),
		recommend.WithSuggestions(cfg.Recommend.SuggestionsOrDefault(), spellOpts...),
		recommend.WithLoader(loader),
	)
	if err != nil {
		c.Close()
		return nil, fmt.Errorf("failed to initialize engine: %w", err)
	}
	c.Engine = engine
	return c, nil
}

// watchedFiles lists the files whose changes trigger a reload.
func watchedFiles(cfg *config.Config) []string {
	files := []string{cfg.Embedding.ModelPath}
	if cfg.Catalog.Source == config.CatalogSourceFile {
		files = append(files, cfg.Catalog.Path)
	}
	return files
}

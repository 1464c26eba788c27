package storage

import (
	"context"
	"errors"
)

// CatalogStats summarizes the persisted catalog.
type CatalogStats struct {
	Recipes    int64   `json:"recipes"`
	LastImport *Import `json:"last_import,omitempty"`
}

// Stats reports the stored recipe count and the latest import. LastImport is nil for a
// database that was never imported into.
func Stats(ctx context.Context, store RecipeStore) (*CatalogStats, error) {
	count, err := store.CountRecipes(ctx)
	if err != nil {
		return nil, err
	}
	stats := &CatalogStats{Recipes: count}
	imp, err := store.LastImport(ctx)
	switch {
	case err == nil:
		stats.LastImport = imp
	case !errors.Is(err, ErrNotFound):
		return nil, err
	}
	return stats, nil
}

// Package storage persists the recipe catalog.
package storage

import (
	"context"
	"time"

	"github.com/hyperjump/ryori/internal/models"
)

// RecipeStore defines recipe catalog persistence operations.
type RecipeStore interface {
	// ReplaceAll swaps the stored catalog for recipes in one transaction and records the import.
	ReplaceAll(ctx context.Context, recipes []models.Recipe, source string) (*Import, error)
	GetRecipe(ctx context.Context, index int) (*models.Recipe, error)
	ListRecipes(ctx context.Context, offset, limit int) ([]models.Recipe, error)

	// Load returns every recipe in catalog order; it makes a store usable as a catalog.Source.
	Load(ctx context.Context) ([]models.Recipe, error)

	// Stats
	CountRecipes(ctx context.Context) (int64, error)
	LastImport(ctx context.Context) (*Import, error)

	Close() error
}

// Import describes one ReplaceAll run.
type Import struct {
	ID        string    `json:"id"`
	Source    string    `json:"source"`
	Recipes   int       `json:"recipes"`
	CreatedAt time.Time `json:"created_at"`
}

// Package keyword provides full-text lookup over recipe names and ingredients, and
// spelling suggestions for ingredient tokens.
package keyword

import (
	"context"

	"github.com/hyperjump/ryori/internal/models"
)

// SearchOptions optional parameters for keyword search. Nil means use defaults.
type SearchOptions struct {
	// NameBoost multiplies the score contribution from matches in the recipe name.
	// Values > 1 make name matches rank higher (e.g. 2.0). Use 1.0 for no boost.
	NameBoost float64
	// Fuzzy enables typo-tolerant matching.
	Fuzzy bool
	// Fuzziness is the maximum edit distance for fuzzy matching (1 or 2). Default 1.
	Fuzziness int
}

// RecipeIndex defines keyword search over a recipe catalog.
type RecipeIndex interface {
	// Index adds recipes; each is keyed by its catalog Index.
	Index(ctx context.Context, recipes []models.Recipe) error
	Search(ctx context.Context, query string, limit int, opts *SearchOptions) ([]*Result, error)
	// DocCount returns the total number of recipes in the index.
	DocCount() (uint64, error)
	Close() error
}

// Result is a single keyword search hit, addressed by catalog index.
type Result struct {
	Index int
	Score float64
}

// TermDictionary provides access to the term dictionary for spell checking.
type TermDictionary interface {
	// GetAllTerms returns all unique terms.
	GetAllTerms() ([]string, error)
	// GetTermFrequency returns the document frequency for a term.
	GetTermFrequency(term string) (int, error)
	// ContainsTerm checks if a term exists.
	ContainsTerm(term string) (bool, error)
}

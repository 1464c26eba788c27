// Package catalog holds the recipe records and the tokenized corpus derived from them.
//
// The corpus is index-aligned with the records: document i is the sorted ingredient token
// list of recipe i. Both are immutable once the catalog is built.
package catalog

import (
	"context"
	"fmt"

	"github.com/hyperjump/ryori/internal/fingerprint"
	"github.com/hyperjump/ryori/internal/models"
)

// Source loads recipe records from some backing store.
type Source interface {
	Load(ctx context.Context) ([]models.Recipe, error)
}

// Catalog is an immutable, index-aligned set of recipes and their token documents.
type Catalog struct {
	recipes     []models.Recipe
	corpus      [][]string
	fingerprint string
}

// New builds a catalog from recipes. Each recipe's Index is set to its position.
// An empty recipe list fails with models.ErrEmptyCorpus.
func New(recipes []models.Recipe) (*Catalog, error) {
	if len(recipes) == 0 {
		return nil, models.ErrEmptyCorpus
	}
	c := &Catalog{
		recipes: make([]models.Recipe, len(recipes)),
		corpus:  make([][]string, len(recipes)),
	}
	fp := fingerprint.New()
	for i, r := range recipes {
		r.Index = i
		c.recipes[i] = r
		c.corpus[i] = models.DocumentTokens(r.Ingredients)
		fp.Add(r.Name).Add(r.Ingredients).Add(r.URL)
	}
	c.fingerprint = fp.Sum()
	return c, nil
}

// Load reads recipes from src and builds a catalog.
func Load(ctx context.Context, src Source) (*Catalog, error) {
	recipes, err := src.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load catalog: %w", err)
	}
	return New(recipes)
}

// Len returns the number of recipes.
func (c *Catalog) Len() int {
	return len(c.recipes)
}

// Recipe returns the recipe at index i.
func (c *Catalog) Recipe(i int) (models.Recipe, bool) {
	if i < 0 || i >= len(c.recipes) {
		return models.Recipe{}, false
	}
	return c.recipes[i], true
}

// Recipes returns a copy of all records in catalog order.
func (c *Catalog) Recipes() []models.Recipe {
	out := make([]models.Recipe, len(c.recipes))
	copy(out, c.recipes)
	return out
}

// Corpus returns the token documents. Callers must not modify them.
func (c *Catalog) Corpus() [][]string {
	return c.corpus
}

// Fingerprint identifies the catalog content.
func (c *Catalog) Fingerprint() string {
	return c.fingerprint
}

// Vocabulary returns every distinct token with its document frequency.
func (c *Catalog) Vocabulary() map[string]int {
	df := make(map[string]int)
	for _, doc := range c.corpus {
		seen := make(map[string]struct{}, len(doc))
		for _, t := range doc {
			if _, ok := seen[t]; ok {
				continue
			}
			seen[t] = struct{}{}
			df[t]++
		}
	}
	return df
}


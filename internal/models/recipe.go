// Package models defines core data structures for recipes, recommendation queries, and results.
package models

import (
	"sort"
	"strings"
)

// Recipe is one catalog record. Index is its position in the catalog and in the corpus.
type Recipe struct {
	Index       int    `json:"index" db:"position"`
	Name        string `json:"recipe" db:"name"`
	Ingredients string `json:"ingredients" db:"ingredients"`
	URL         string `json:"url" db:"url"`
}

// ParseIngredients splits a comma-separated ingredient list into tokens.
// Each part is trimmed and empty parts are dropped; order is preserved.
func ParseIngredients(text string) []string {
	parts := strings.Split(text, ",")
	tokens := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			tokens = append(tokens, p)
		}
	}
	return tokens
}

// DocumentTokens returns the corpus document for an ingredient list: parsed and sorted.
func DocumentTokens(text string) []string {
	tokens := ParseIngredients(text)
	sort.Strings(tokens)
	return tokens
}

// Package cli renders recommendation results and engine status for the ryori command.
package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/hyperjump/ryori/internal/models"
	"github.com/hyperjump/ryori/internal/recommend"
	"github.com/hyperjump/ryori/internal/storage"
	"github.com/hyperjump/ryori/pkg/utils"
)

// OutputFormat is the format for command output.
type OutputFormat string

const (
	// OutputText is human-readable text (default).
	OutputText OutputFormat = "text"
	// OutputJSON is structured JSON for machine consumption.
	OutputJSON OutputFormat = "json"
)

const maxIngredientsLen = 200

// ParseOutputFormat validates a -output flag value.
func ParseOutputFormat(s string) (OutputFormat, error) {
	switch OutputFormat(strings.ToLower(strings.TrimSpace(s))) {
	case "", OutputText:
		return OutputText, nil
	case OutputJSON:
		return OutputJSON, nil
	default:
		return "", fmt.Errorf("unknown output format %q (want text or json)", s)
	}
}

// WriteRecommendations writes a recommendation response to w in the given format.
func WriteRecommendations(w io.Writer, resp *models.RecommendResponse, format OutputFormat) error {
	if format == OutputJSON {
		return writeJSON(w, resp)
	}
	fmt.Fprintf(w, "\n%d recipes for [%s] (%s, %dms)\n\n",
		resp.Total, strings.Join(resp.Ingredients, ", "), resp.Strategy, resp.QueryTime)
	for _, rec := range resp.Results {
		writeRecommendation(w, rec)
	}
	if len(resp.UnknownIngredients) > 0 {
		fmt.Fprintf(w, "Unknown ingredients: %s\n", strings.Join(resp.UnknownIngredients, ", "))
		for _, token := range resp.UnknownIngredients {
			if s := resp.Suggestions[token]; len(s) > 0 {
				fmt.Fprintf(w, "  %s: did you mean %s?\n", token, strings.Join(s, ", "))
			}
		}
	}
	return nil
}

func writeRecommendation(w io.Writer, rec *models.Recommendation) {
	fmt.Fprintf(w, "─────────────────────────────────────────────────────────\n")
	if rec.Score != nil {
		fmt.Fprintf(w, "#%d %s (score %.4f)\n", rec.Rank, rec.Recipe, *rec.Score)
	} else {
		fmt.Fprintf(w, "#%d %s\n", rec.Rank, rec.Recipe)
	}
	fmt.Fprintf(w, "Ingredients: %s\n", utils.Truncate(rec.Ingredients, maxIngredientsLen))
	if rec.URL != "" {
		fmt.Fprintf(w, "URL: %s\n", rec.URL)
	}
	fmt.Fprintln(w)
}

// WriteStatus writes engine status, and catalog database stats when db is non-nil, to w in
// the given format. JSON output has the shape of GET /api/v1/status.
func WriteStatus(w io.Writer, status *recommend.Status, db *storage.CatalogStats, format OutputFormat) error {
	if format == OutputJSON {
		return writeJSON(w, struct {
			Engine   *recommend.Status      `json:"engine"`
			Database *storage.CatalogStats `json:"database,omitempty"`
		}{status, db})
	}
	fmt.Fprintf(w, "Recipes:        %d\n", status.Recipes)
	fmt.Fprintf(w, "Catalog tokens: %d\n", status.CatalogTokens)
	fmt.Fprintf(w, "Vocabulary:     %d\n", status.Vocabulary)
	fmt.Fprintf(w, "Dimensions:     %d\n", status.Dimensions)
	fmt.Fprintf(w, "Generation:     %d (loaded %s)\n", status.Generation, status.LoadedAt.Format(time.RFC3339))
	if db != nil {
		writeDatabaseStats(w, db)
	}
	if len(status.Snapshots) == 0 {
		fmt.Fprintln(w, "Snapshots:      none built")
		return nil
	}
	fmt.Fprintln(w, "Snapshots:")
	for _, s := range status.Snapshots {
		fmt.Fprintf(w, "  %-6s %d vectors (%d zero), %s, built %s\n",
			s.Strategy, s.Vectors, s.ZeroVectors, s.Source, s.BuiltAt.Format(time.RFC3339))
	}
	return nil
}

func writeDatabaseStats(w io.Writer, db *storage.CatalogStats) {
	fmt.Fprintf(w, "Database:       %d recipes\n", db.Recipes)
	if imp := db.LastImport; imp != nil {
		fmt.Fprintf(w, "Last import:    %s from %s at %s\n", imp.ID, imp.Source, imp.CreatedAt.Format(time.RFC3339))
	} else {
		fmt.Fprintln(w, "Last import:    never")
	}
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

package cli

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/hyperjump/ryori/internal/models"
	"github.com/hyperjump/ryori/internal/recommend"
	"github.com/hyperjump/ryori/internal/storage"
)

func sampleResponse() *models.RecommendResponse {
	score := 0.9876
	return &models.RecommendResponse{
		Results: []*models.Recommendation{
			{Rank: 1, Index: 4, Recipe: "Masala Dosa", Ingredients: "rice,urad dal,potato", URL: "https://example.com/dosa", Score: &score},
			{Rank: 2, Index: 7, Recipe: "Plain Rice", Ingredients: "rice"},
		},
		Total:              2,
		Strategy:           "tfidf",
		Ingredients:        []string{"rice", "potatoe"},
		UnknownIngredients: []string{"potatoe"},
		Suggestions:        map[string][]string{"potatoe": {"potato"}},
		SnapshotID:         "snap-1",
		QueryTime:          3,
	}
}

func TestParseOutputFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    OutputFormat
		wantErr bool
	}{
		{"", OutputText, false},
		{"text", OutputText, false},
		{"JSON", OutputJSON, false},
		{"yaml", "", true},
	}
	for _, tt := range tests {
		got, err := ParseOutputFormat(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseOutputFormat(%q) err = %v, wantErr %v", tt.in, err, tt.wantErr)
		}
		if got != tt.want {
			t.Errorf("ParseOutputFormat(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestWriteRecommendations_JSON(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteRecommendations(&buf, sampleResponse(), OutputJSON); err != nil {
		t.Fatalf("WriteRecommendations(json): %v", err)
	}
	var decoded models.RecommendResponse
	if err := json.NewDecoder(&buf).Decode(&decoded); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	if len(decoded.Results) != 2 || decoded.Results[0].Recipe != "Masala Dosa" {
		t.Errorf("decoded results: got %+v", decoded.Results)
	}
	if decoded.Results[1].Score != nil {
		t.Error("score should be omitted when not requested")
	}
}

func TestWriteRecommendations_text(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteRecommendations(&buf, sampleResponse(), OutputText); err != nil {
		t.Fatalf("WriteRecommendations(text): %v", err)
	}
	out := buf.String()
	for _, sub := range []string{
		"2 recipes for [rice, potatoe]", "tfidf", "3ms",
		"#1 Masala Dosa (score 0.9876)", "#2 Plain Rice", "URL: https://example.com/dosa",
		"Unknown ingredients: potatoe", "did you mean potato?",
	} {
		if !strings.Contains(out, sub) {
			t.Errorf("text output missing %q:\n%s", sub, out)
		}
	}
}

func TestWriteRecommendations_truncatesIngredients(t *testing.T) {
	resp := &models.RecommendResponse{
		Results: []*models.Recommendation{{Rank: 1, Recipe: "Long", Ingredients: strings.Repeat("a", 300)}},
		Total:   1,
	}
	var buf bytes.Buffer
	if err := WriteRecommendations(&buf, resp, OutputText); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), strings.Repeat("a", 200)+"...") {
		t.Errorf("expected truncated ingredients:\n%s", buf.String())
	}
}

func TestWriteStatus(t *testing.T) {
	status := &recommend.Status{
		Generation: 2,
		LoadedAt:   time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC),
		Recipes:    10,
		Vocabulary: 50,
		Dimensions: 100,
		Snapshots: []recommend.SnapshotInfo{
			{Strategy: "tfidf", Source: "disk", Vectors: 10, ZeroVectors: 1},
		},
	}

	var buf bytes.Buffer
	if err := WriteStatus(&buf, status, nil, OutputText); err != nil {
		t.Fatal(err)
	}
	for _, sub := range []string{"Recipes:        10", "Dimensions:     100", "tfidf  10 vectors (1 zero), disk"} {
		if !strings.Contains(buf.String(), sub) {
			t.Errorf("text output missing %q:\n%s", sub, buf.String())
		}
	}

	buf.Reset()
	if err := WriteStatus(&buf, &recommend.Status{}, nil, OutputText); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), "none built") {
		t.Errorf("expected 'none built':\n%s", buf.String())
	}

	buf.Reset()
	if err := WriteStatus(&buf, status, nil, OutputJSON); err != nil {
		t.Fatal(err)
	}
	var decoded struct {
		Engine   recommend.Status       `json:"engine"`
		Database *storage.CatalogStats `json:"database"`
	}
	if err := json.NewDecoder(&buf).Decode(&decoded); err != nil {
		t.Fatal(err)
	}
	if decoded.Engine.Recipes != 10 || len(decoded.Engine.Snapshots) != 1 || decoded.Database != nil {
		t.Errorf("decoded status: got %+v", decoded)
	}
}

func TestWriteStatus_Database(t *testing.T) {
	status := &recommend.Status{Recipes: 3}
	db := &storage.CatalogStats{
		Recipes: 3,
		LastImport: &storage.Import{
			ID:        "imp-1",
			Source:    "/data/recipes.csv",
			Recipes:   3,
			CreatedAt: time.Date(2024, 5, 6, 7, 8, 9, 0, time.UTC),
		},
	}

	var buf bytes.Buffer
	if err := WriteStatus(&buf, status, db, OutputText); err != nil {
		t.Fatal(err)
	}
	for _, sub := range []string{"Database:       3 recipes", "imp-1 from /data/recipes.csv at 2024-05-06T07:08:09Z"} {
		if !strings.Contains(buf.String(), sub) {
			t.Errorf("text output missing %q:\n%s", sub, buf.String())
		}
	}

	buf.Reset()
	if err := WriteStatus(&buf, status, &storage.CatalogStats{}, OutputText); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), "Last import:    never") {
		t.Errorf("expected 'never':\n%s", buf.String())
	}

	buf.Reset()
	if err := WriteStatus(&buf, status, db, OutputJSON); err != nil {
		t.Fatal(err)
	}
	var decoded struct {
		Database *storage.CatalogStats `json:"database"`
	}
	if err := json.NewDecoder(&buf).Decode(&decoded); err != nil {
		t.Fatal(err)
	}
	if decoded.Database == nil || decoded.Database.LastImport == nil || decoded.Database.LastImport.ID != "imp-1" {
		t.Errorf("decoded database: got %+v", decoded.Database)
	}
}

package models

// Recommendation is a single recommended recipe.
type Recommendation struct {
	Rank        int      `json:"rank"`
	Index       int      `json:"index"`
	Recipe      string   `json:"recipe"`
	Ingredients string   `json:"ingredients"`
	URL         string   `json:"url"`
	Score       *float64 `json:"score,omitempty"`
}

// RecommendResponse is the response for a recommendation request.
type RecommendResponse struct {
	Results     []*Recommendation `json:"results"`
	Total       int               `json:"total"`
	Strategy    string            `json:"strategy"`
	Ingredients []string          `json:"ingredients"`
	// UnknownIngredients are query tokens absent from the embedding vocabulary.
	// They contribute nothing to the query vector.
	UnknownIngredients []string `json:"unknown_ingredients,omitempty"`
	// Suggestions maps an unknown ingredient to close catalog ingredients ("Did you mean?").
	Suggestions map[string][]string `json:"suggestions,omitempty"`
	SnapshotID  string              `json:"snapshot_id"`
	QueryTime   int64               `json:"query_time_ms"`
}

// Records returns the results in the original service's response shape.
func (r *RecommendResponse) Records() []RecipeRecord {
	out := make([]RecipeRecord, 0, len(r.Results))
	for _, res := range r.Results {
		out = append(out, RecipeRecord{Recipe: res.Recipe, Ingredients: res.Ingredients, URL: res.URL})
	}
	return out
}

// RecipeRecord is the {recipe, ingredients, url} record returned by /predict.
type RecipeRecord struct {
	Recipe      string `json:"recipe"`
	Ingredients string `json:"ingredients"`
	URL         string `json:"url"`
}

package models

import "strings"

// DefaultTopN is the number of recommendations returned when the caller does not ask for a count.
const DefaultTopN = 5

// RecommendQuery represents a recommendation request.
type RecommendQuery struct {
	Ingredients []string `json:"ingredients"`
	TopN        int      `json:"top_n"`
	UseMean     bool     `json:"use_mean,omitempty"`    // unweighted mean embedding instead of idf weighting
	WithScores  bool     `json:"with_scores,omitempty"` // attach cosine scores to results
}

// Normalize trims ingredient tokens and drops empty ones.
// TopN is not defaulted here: a non-positive TopN yields an empty result.
func (q *RecommendQuery) Normalize() {
	tokens := make([]string, 0, len(q.Ingredients))
	for _, t := range q.Ingredients {
		if t = strings.TrimSpace(t); t != "" {
			tokens = append(tokens, t)
		}
	}
	q.Ingredients = tokens
}

// Strategy returns the vectorization strategy name selected by UseMean.
func (q *RecommendQuery) Strategy() string {
	if q.UseMean {
		return "mean"
	}
	return "tfidf"
}

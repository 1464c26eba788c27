package vector

import "sort"

// Rank scores every candidate against query by cosine similarity and returns the top n,
// ordered by score descending with ties broken by ascending candidate index.
// The result has min(n, len(candidates)) entries; n <= 0 yields an empty result.
func Rank(query []float32, candidates [][]float32, n int) []Result {
	if n <= 0 || len(candidates) == 0 {
		return []Result{}
	}
	scored := make([]Result, len(candidates))
	for i, c := range candidates {
		scored[i] = Result{Index: i, Score: Cosine(query, c)}
	}
	sort.Slice(scored, func(i, j int) bool {
		if scored[i].Score != scored[j].Score {
			return scored[i].Score > scored[j].Score
		}
		return scored[i].Index < scored[j].Index
	})
	if n > len(scored) {
		n = len(scored)
	}
	return scored[:n:n]
}

// Package vector provides similarity helpers for dense vectors.
package vector

import "math"

// InnerProduct returns the inner product of two vectors, or 0 when lengths differ.
func InnerProduct(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
	}
	return dot
}

// L2Norm returns the L2 norm of a vector.
func L2Norm(x []float32) float64 {
	var sum float64
	for _, v := range x {
		sum += float64(v) * float64(v)
	}
	return math.Sqrt(sum)
}

// IsZero reports whether every component of x is zero.
func IsZero(x []float32) bool {
	for _, v := range x {
		if v != 0 {
			return false
		}
	}
	return true
}

// Cosine returns the cosine similarity of a and b in [-1, 1].
// A zero vector carries no information and is maximally dissimilar to everything,
// itself included: if either norm is 0 (or the lengths differ) the similarity is 0.
func Cosine(a, b []float32) float64 {
	if len(a) != len(b) {
		return 0
	}
	na, nb := L2Norm(a), L2Norm(b)
	if na == 0 || nb == 0 {
		return 0
	}
	sim := InnerProduct(a, b) / (na * nb)
	return math.Max(-1, math.Min(1, sim))
}

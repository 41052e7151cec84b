// Package vector holds the similarity math shared by search and scoring.
package vector

import "math"

// Cosine returns the cosine similarity of a and b in [-1, 1].
// It is exactly 0 for empty input, a length mismatch or a zero norm.
func Cosine(a, b []float32) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		na += x * x
		nb += y * y
	}
	if na == 0 || nb == 0 {
		return 0
	}
	sim := dot / (math.Sqrt(na) * math.Sqrt(nb))
	// float rounding can push parallel vectors past the bounds
	return math.Max(-1, math.Min(1, sim))
}

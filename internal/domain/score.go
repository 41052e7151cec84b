package domain

import "math"

// RoundScore rounds a score to two decimals for output.
func RoundScore(v float64) float64 {
	return math.Round(v*100) / 100
}

// Package formulas holds the numeric helpers shared by the scoring and regime code.
// Every helper degrades to 0 instead of returning NaN or Inf.
package formulas

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

// Mean calculates the arithmetic mean of a slice of float64 values
func Mean(data []float64) float64 {
	if len(data) == 0 {
		return 0
	}
	return Sanitize(stat.Mean(data, nil))
}

// WeightedMean calculates the weighted mean; mismatched or empty input yields 0.
func WeightedMean(data, weights []float64) float64 {
	if len(data) == 0 || len(data) != len(weights) {
		return 0
	}
	var total float64
	for _, w := range weights {
		total += w
	}
	if total <= 0 {
		return 0
	}
	return Sanitize(stat.Mean(data, weights))
}

// SafeRatio divides num by den, returning 0 for a zero denominator or a non-finite result.
func SafeRatio(num, den float64) float64 {
	if den == 0 {
		return 0
	}
	return Sanitize(num / den)
}

// Sanitize coerces NaN and +/-Inf to 0.
func Sanitize(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}

// Clamp01 limits v to [0, 1] after sanitizing it.
func Clamp01(v float64) float64 {
	return Clamp(v, 0, 1)
}

// Clamp limits v to [lo, hi] after sanitizing it.
func Clamp(v, lo, hi float64) float64 {
	v = Sanitize(v)
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Round2 rounds to 2 decimal places
func Round2(f float64) float64 {
	return math.Round(Sanitize(f)*100) / 100
}

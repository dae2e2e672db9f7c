// Package indicators provides series-level helpers for building trading
// factors: exponentially weighted means, first differences, and NaN-aware
// aggregates over date-aligned float columns.
package indicators

import (
	"fmt"
	"math"
)

// EWMSpan computes the exponentially weighted mean of xs with the given span.
//
// The weighting matches the adjusted form: at position t the result is the
// weighted average of all observations so far with weights (1-a)^i, a =
// 2/(span+1). Computed with running numerator/denominator so every position
// gets a value from the first observation on. NaN inputs propagate.
func EWMSpan(xs []float64, span int) ([]float64, error) {
	if span <= 0 {
		return nil, fmt.Errorf("span must be positive, got %d", span)
	}

	alpha := 2.0 / float64(span+1)
	decay := 1 - alpha

	out := make([]float64, len(xs))
	var num, den float64
	for i, x := range xs {
		num = x + decay*num
		den = 1 + decay*den
		out[i] = num / den
	}
	return out, nil
}

// Diff returns the first difference of xs; the first element is NaN by
// construction, matching the edge-trigger semantics of the signal builders.
func Diff(xs []float64) []float64 {
	out := make([]float64, len(xs))
	if len(xs) == 0 {
		return out
	}
	out[0] = math.NaN()
	for i := 1; i < len(xs); i++ {
		out[i] = xs[i] - xs[i-1]
	}
	return out
}

// Sub returns a - b element-wise. Panics if lengths differ, which would mean
// misaligned factor columns.
func Sub(a, b []float64) []float64 {
	if len(a) != len(b) {
		panic(fmt.Sprintf("indicators: misaligned columns (%d vs %d)", len(a), len(b)))
	}
	out := make([]float64, len(a))
	for i := range a {
		out[i] = a[i] - b[i]
	}
	return out
}

// Mean returns the mean of xs, skipping NaN values. Returns NaN when no
// values remain.
func Mean(xs []float64) float64 {
	var sum float64
	var n int
	for _, x := range xs {
		if math.IsNaN(x) {
			continue
		}
		sum += x
		n++
	}
	if n == 0 {
		return math.NaN()
	}
	return sum / float64(n)
}

// Min returns the minimum of xs, skipping NaN values.
func Min(xs []float64) float64 {
	min := math.NaN()
	for _, x := range xs {
		if math.IsNaN(x) {
			continue
		}
		if math.IsNaN(min) || x < min {
			min = x
		}
	}
	return min
}

// Max returns the maximum of xs, skipping NaN values.
func Max(xs []float64) float64 {
	max := math.NaN()
	for _, x := range xs {
		if math.IsNaN(x) {
			continue
		}
		if math.IsNaN(max) || x > max {
			max = x
		}
	}
	return max
}

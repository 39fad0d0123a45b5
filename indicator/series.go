package indicator

import "math"

// NoValue is the sentinel marking series positions that lack enough
// history to carry a computed value. It is never a fabricated zero.
func NoValue() float64 {
	return math.NaN()
}

// Valid reports whether the provided series entry carries a computed value.
func Valid(v float64) bool {
	return !math.IsNaN(v)
}

// lastValid returns the last computed entry of the provided series.
func lastValid(series []float64) float64 {
	for idx := len(series) - 1; idx >= 0; idx-- {
		if Valid(series[idx]) {
			return series[idx]
		}
	}

	return NoValue()
}

// fill initializes a series of the provided size with no-value sentinels.
func fill(size int) []float64 {
	series := make([]float64, size)
	for idx := range series {
		series[idx] = NoValue()
	}

	return series
}

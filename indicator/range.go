package indicator

// HighestHighSeries computes the rolling highest value over the
// provided window, returning one entry per input index.
func HighestHighSeries(values []float64, period int) []float64 {
	series := fill(len(values))
	if period <= 0 || len(values) < period {
		return series
	}

	for idx := period - 1; idx < len(values); idx++ {
		highest := values[idx-period+1]
		for k := idx - period + 2; k <= idx; k++ {
			if values[k] > highest {
				highest = values[k]
			}
		}
		series[idx] = highest
	}

	return series
}

// HighestHigh computes the highest value over the most recent window.
func HighestHigh(values []float64, period int) float64 {
	return lastValid(HighestHighSeries(values, period))
}

// LowestLowSeries computes the rolling lowest value over the provided
// window, returning one entry per input index.
func LowestLowSeries(values []float64, period int) []float64 {
	series := fill(len(values))
	if period <= 0 || len(values) < period {
		return series
	}

	for idx := period - 1; idx < len(values); idx++ {
		lowest := values[idx-period+1]
		for k := idx - period + 2; k <= idx; k++ {
			if values[k] < lowest {
				lowest = values[k]
			}
		}
		series[idx] = lowest
	}

	return series
}

// LowestLow computes the lowest value over the most recent window.
func LowestLow(values []float64, period int) float64 {
	return lastValid(LowestLowSeries(values, period))
}

// StochasticResult represents the stochastic oscillator series.
type StochasticResult struct {
	K []float64
	D []float64
}

// StochasticSeries computes the stochastic oscillator for the provided
// highs, lows and closes. %K positions the close within the rolling
// high/low window and %D is the simple moving average of %K.
func StochasticSeries(highs []float64, lows []float64, closes []float64, kPeriod int, dPeriod int) StochasticResult {
	result := StochasticResult{
		K: fill(len(closes)),
		D: fill(len(closes)),
	}

	if kPeriod <= 0 || len(closes) < kPeriod {
		return result
	}

	highest := HighestHighSeries(highs, kPeriod)
	lowest := LowestLowSeries(lows, kPeriod)

	for idx := kPeriod - 1; idx < len(closes); idx++ {
		windowRange := highest[idx] - lowest[idx]
		if windowRange == 0 {
			// A flat window positions the close mid-range.
			result.K[idx] = 50
			continue
		}

		result.K[idx] = 100 * (closes[idx] - lowest[idx]) / windowRange
	}

	// %D smooths only the computed section of %K.
	firstValid := kPeriod - 1
	smoothed := SMASeries(result.K[firstValid:], dPeriod)
	for idx := range smoothed {
		result.D[firstValid+idx] = smoothed[idx]
	}

	return result
}

// Stochastic computes the most recent %K and %D values for the provided
// highs, lows and closes.
func Stochastic(highs []float64, lows []float64, closes []float64, kPeriod int, dPeriod int) (float64, float64) {
	result := StochasticSeries(highs, lows, closes, kPeriod, dPeriod)
	return lastValid(result.K), lastValid(result.D)
}

package indicator

// SMASeries computes the simple moving average of the provided values,
// returning one entry per input index. Positions with fewer than period
// preceding values carry the no-value sentinel.
func SMASeries(values []float64, period int) []float64 {
	series := fill(len(values))
	if period <= 0 || len(values) < period {
		return series
	}

	var sum float64
	for idx := range values {
		sum += values[idx]
		if idx >= period {
			sum -= values[idx-period]
		}
		if idx >= period-1 {
			series[idx] = sum / float64(period)
		}
	}

	return series
}

// SMA computes the simple moving average of the most recent window of
// the provided values.
func SMA(values []float64, period int) float64 {
	return lastValid(SMASeries(values, period))
}

// EMASeries computes the exponential moving average of the provided
// values. The seed is the simple moving average of the first window,
// smoothed thereafter with alpha = 2/(period+1).
func EMASeries(values []float64, period int) []float64 {
	series := fill(len(values))
	if period <= 0 || len(values) < period {
		return series
	}

	var sum float64
	for idx := 0; idx < period; idx++ {
		sum += values[idx]
	}

	prev := sum / float64(period)
	series[period-1] = prev

	alpha := 2 / (float64(period) + 1)
	for idx := period; idx < len(values); idx++ {
		prev = (values[idx]-prev)*alpha + prev
		series[idx] = prev
	}

	return series
}

// EMA computes the exponential moving average of the provided values.
func EMA(values []float64, period int) float64 {
	return lastValid(EMASeries(values, period))
}

// WMASeries computes the linearly weighted moving average of the
// provided values, weighting the most recent value heaviest.
func WMASeries(values []float64, period int) []float64 {
	series := fill(len(values))
	if period <= 0 || len(values) < period {
		return series
	}

	denominator := float64(period*(period+1)) / 2
	for idx := period - 1; idx < len(values); idx++ {
		var weightedSum float64
		for k := 0; k < period; k++ {
			weightedSum += values[idx-k] * float64(period-k)
		}
		series[idx] = weightedSum / denominator
	}

	return series
}

// WMA computes the linearly weighted moving average of the provided values.
func WMA(values []float64, period int) float64 {
	return lastValid(WMASeries(values, period))
}

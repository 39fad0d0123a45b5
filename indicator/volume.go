package indicator

import "marketsignal/shared"

// VWAPSeries computes the cumulative volume weighted average price of
// the provided candles from the provided start index. Positions before
// the start index carry the no-value sentinel, as do positions with no
// accumulated volume.
func VWAPSeries(candles []*shared.Candlestick, start int) []float64 {
	series := fill(len(candles))
	if start < 0 || start >= len(candles) {
		return series
	}

	var typicalPriceVolume, volume float64
	for idx := start; idx < len(candles); idx++ {
		typicalPrice := (candles[idx].High + candles[idx].Low + candles[idx].Close) / 3
		typicalPriceVolume += typicalPrice * candles[idx].Volume
		volume += candles[idx].Volume

		if volume == 0 {
			continue
		}

		series[idx] = typicalPriceVolume / volume
	}

	return series
}

// VWAP computes the cumulative volume weighted average price of the
// provided candles from the provided start index.
func VWAP(candles []*shared.Candlestick, start int) float64 {
	return lastValid(VWAPSeries(candles, start))
}

// OBVSeries computes the on-balance volume of the provided candles: a
// running sum adding volume on a higher close, subtracting it on a
// lower close and unchanged on an equal close.
func OBVSeries(candles []*shared.Candlestick) []float64 {
	series := fill(len(candles))
	if len(candles) == 0 {
		return series
	}

	var obv float64
	series[0] = obv
	for idx := 1; idx < len(candles); idx++ {
		switch {
		case candles[idx].Close > candles[idx-1].Close:
			obv += candles[idx].Volume
		case candles[idx].Close < candles[idx-1].Close:
			obv -= candles[idx].Volume
		}
		series[idx] = obv
	}

	return series
}

// OBV computes the on-balance volume of the provided candles.
func OBV(candles []*shared.Candlestick) float64 {
	return lastValid(OBVSeries(candles))
}

// AverageVolume computes the average volume of the provided candles.
func AverageVolume(candles []*shared.Candlestick) float64 {
	if len(candles) == 0 {
		return NoValue()
	}

	var sum float64
	for idx := range candles {
		sum += candles[idx].Volume
	}

	return sum / float64(len(candles))
}

// PercentChange computes the percentage change from the provided start
// value to the provided end value.
func PercentChange(start float64, end float64) float64 {
	if start == 0 {
		return NoValue()
	}

	return (end - start) / start * 100
}

package indicator

import (
	"math"

	"marketsignal/shared"
)

// TrueRange computes the true range of the provided candle relative to
// the previous close: max(high-low, |high-prevClose|, |low-prevClose|).
func TrueRange(candle *shared.Candlestick, prevClose float64) float64 {
	highLow := candle.High - candle.Low
	highClose := math.Abs(candle.High - prevClose)
	lowClose := math.Abs(candle.Low - prevClose)

	return math.Max(highLow, math.Max(highClose, lowClose))
}

// ATRSeries computes the Wilder-smoothed average true range of the
// provided candles, returning one entry per input index.
func ATRSeries(candles []*shared.Candlestick, period int) []float64 {
	series := fill(len(candles))
	if period <= 0 || len(candles) < period+1 {
		return series
	}

	var sum float64
	for idx := 1; idx <= period; idx++ {
		sum += TrueRange(candles[idx], candles[idx-1].Close)
	}

	prev := sum / float64(period)
	series[period] = prev

	for idx := period + 1; idx < len(candles); idx++ {
		tr := TrueRange(candles[idx], candles[idx-1].Close)
		prev = (prev*float64(period-1) + tr) / float64(period)
		series[idx] = prev
	}

	return series
}

// ATR computes the Wilder-smoothed average true range of the provided candles.
func ATR(candles []*shared.Candlestick, period int) float64 {
	return lastValid(ATRSeries(candles, period))
}

// StdDev computes the population standard deviation of the provided values.
func StdDev(values []float64) float64 {
	if len(values) == 0 {
		return NoValue()
	}

	var sum float64
	for idx := range values {
		sum += values[idx]
	}
	mean := sum / float64(len(values))

	var varianceSum float64
	for idx := range values {
		diff := values[idx] - mean
		varianceSum += diff * diff
	}

	return math.Sqrt(varianceSum / float64(len(values)))
}

// BollingerResult represents the bollinger band series.
type BollingerResult struct {
	Upper  []float64
	Middle []float64
	Lower  []float64
}

// BollingerSeries computes bollinger bands over the provided values as
// the rolling simple moving average offset by multiplier times the
// rolling population standard deviation.
func BollingerSeries(values []float64, period int, multiplier float64) BollingerResult {
	result := BollingerResult{
		Upper:  fill(len(values)),
		Middle: SMASeries(values, period),
		Lower:  fill(len(values)),
	}

	if period <= 0 || len(values) < period {
		return result
	}

	for idx := period - 1; idx < len(values); idx++ {
		stddev := StdDev(values[idx-period+1 : idx+1])
		result.Upper[idx] = result.Middle[idx] + multiplier*stddev
		result.Lower[idx] = result.Middle[idx] - multiplier*stddev
	}

	return result
}

// Bollinger computes the most recent bollinger upper, middle and lower
// band values for the provided values.
func Bollinger(values []float64, period int, multiplier float64) (float64, float64, float64) {
	result := BollingerSeries(values, period, multiplier)
	return lastValid(result.Upper), lastValid(result.Middle), lastValid(result.Lower)
}

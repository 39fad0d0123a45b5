package pattern

import (
	"marketsignal/shared"
)

const (
	// methodsCandleCount is the number of candles in a three methods pattern.
	methodsCandleCount = 5
	// methodsMinHostBodyRatio is the minimum body ratio of the candles
	// framing a three methods pattern.
	methodsMinHostBodyRatio = 0.5
)

// RisingThreeMethods matches a strong bullish candle, three small pause
// candles holding within its range and a bullish candle closing beyond
// the first close, signalling trend continuation.
func RisingThreeMethods(candles []*shared.Candlestick, averageVolume float64, trend shared.TrendContext) Result {
	if len(candles) < methodsCandleCount {
		return noMatch("rising three methods", Continuation, BarMetrics{})
	}

	candles = candles[len(candles)-methodsCandleCount:]
	first, last := candles[0], candles[4]

	metrics := ComputeMetrics(last, averageVolume, trend)
	result := noMatch("rising three methods", Continuation, metrics)
	if metrics.TotalRange == 0 {
		return result
	}

	firstMetrics := ComputeMetrics(first, averageVolume, trend)
	if first.FetchSentiment() != shared.Bullish || firstMetrics.BodyRatio < methodsMinHostBodyRatio {
		return result
	}

	// The middle candles must pause inside the opening candle's range
	// with bodies smaller than the opening body.
	firstBody := firstMetrics.BodySize
	for idx := 1; idx <= 3; idx++ {
		pause := candles[idx]
		pauseMetrics := ComputeMetrics(pause, averageVolume, trend)
		if pauseMetrics.BodySize >= firstBody {
			return result
		}
		if pause.High > first.High || pause.Low < first.Low {
			return result
		}
	}

	if last.FetchSentiment() != shared.Bullish || last.Close <= first.Close {
		return result
	}

	result.Matched = true
	result.Direction = shared.Long

	switch {
	case last.Close > first.High && trend == shared.Uptrend:
		result.Strength = Strong
	case last.Close > first.High:
		result.Strength = Medium
	default:
		result.Strength = Weak
	}

	return result
}

// FallingThreeMethods matches a strong bearish candle, three small pause
// candles holding within its range and a bearish candle closing beyond
// the first close, signalling trend continuation.
func FallingThreeMethods(candles []*shared.Candlestick, averageVolume float64, trend shared.TrendContext) Result {
	if len(candles) < methodsCandleCount {
		return noMatch("falling three methods", Continuation, BarMetrics{})
	}

	candles = candles[len(candles)-methodsCandleCount:]
	first, last := candles[0], candles[4]

	metrics := ComputeMetrics(last, averageVolume, trend)
	result := noMatch("falling three methods", Continuation, metrics)
	if metrics.TotalRange == 0 {
		return result
	}

	firstMetrics := ComputeMetrics(first, averageVolume, trend)
	if first.FetchSentiment() != shared.Bearish || firstMetrics.BodyRatio < methodsMinHostBodyRatio {
		return result
	}

	firstBody := firstMetrics.BodySize
	for idx := 1; idx <= 3; idx++ {
		pause := candles[idx]
		pauseMetrics := ComputeMetrics(pause, averageVolume, trend)
		if pauseMetrics.BodySize >= firstBody {
			return result
		}
		if pause.High > first.High || pause.Low < first.Low {
			return result
		}
	}

	if last.FetchSentiment() != shared.Bearish || last.Close >= first.Close {
		return result
	}

	result.Matched = true
	result.Direction = shared.Short

	switch {
	case last.Close < first.Low && trend == shared.Downtrend:
		result.Strength = Strong
	case last.Close < first.Low:
		result.Strength = Medium
	default:
		result.Strength = Weak
	}

	return result
}

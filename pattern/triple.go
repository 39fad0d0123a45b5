package pattern

import (
	"math"

	"marketsignal/shared"
)

const (
	// starMinHostBodyRatio is the minimum body ratio of the setup candle
	// opening a star pattern.
	starMinHostBodyRatio = 0.5
	// starMaxPauseBodyRatio is the maximum body ratio of the middle
	// pause candle of a star pattern.
	starMaxPauseBodyRatio = 0.3

	// soldiersMinBodyRatio is the minimum body ratio for each candle of
	// the three soldiers and three crows patterns.
	soldiersMinBodyRatio = 0.5
	// soldiersStrongBodyRatio marks decisive soldier bodies.
	soldiersStrongBodyRatio = 0.7
)

// MorningStar matches a large bearish candle, a pause candle and a
// bullish candle reclaiming the bearish body, signalling a bottom
// reversal.
func MorningStar(first, second, candle *shared.Candlestick, averageVolume float64, trend shared.TrendContext) Result {
	metrics := ComputeMetrics(candle, averageVolume, trend)
	result := noMatch("morning star", Reversal, metrics)
	if metrics.TotalRange == 0 || first == nil || second == nil {
		return result
	}

	firstMetrics := ComputeMetrics(first, averageVolume, trend)
	secondMetrics := ComputeMetrics(second, averageVolume, trend)

	if first.FetchSentiment() != shared.Bearish || firstMetrics.BodyRatio < starMinHostBodyRatio {
		return result
	}
	if secondMetrics.BodyRatio >= starMaxPauseBodyRatio {
		return result
	}
	if candle.FetchSentiment() != shared.Bullish {
		return result
	}

	midpoint := (first.Open + first.Close) / 2
	if candle.Close <= midpoint {
		return result
	}

	result.Matched = true
	result.Direction = shared.Long

	switch {
	case candle.Close > first.Open && trend == shared.Downtrend:
		result.Strength = Strong
	case candle.Close > first.Open:
		result.Strength = Medium
	default:
		result.Strength = Weak
	}

	return result
}

// EveningStar matches a large bullish candle, a pause candle and a
// bearish candle breaking down through the bullish body, signalling a
// top reversal.
func EveningStar(first, second, candle *shared.Candlestick, averageVolume float64, trend shared.TrendContext) Result {
	metrics := ComputeMetrics(candle, averageVolume, trend)
	result := noMatch("evening star", Reversal, metrics)
	if metrics.TotalRange == 0 || first == nil || second == nil {
		return result
	}

	firstMetrics := ComputeMetrics(first, averageVolume, trend)
	secondMetrics := ComputeMetrics(second, averageVolume, trend)

	if first.FetchSentiment() != shared.Bullish || firstMetrics.BodyRatio < starMinHostBodyRatio {
		return result
	}
	if secondMetrics.BodyRatio >= starMaxPauseBodyRatio {
		return result
	}
	if candle.FetchSentiment() != shared.Bearish {
		return result
	}

	midpoint := (first.Open + first.Close) / 2
	if candle.Close >= midpoint {
		return result
	}

	result.Matched = true
	result.Direction = shared.Short

	switch {
	case candle.Close < first.Open && trend == shared.Uptrend:
		result.Strength = Strong
	case candle.Close < first.Open:
		result.Strength = Medium
	default:
		result.Strength = Weak
	}

	return result
}

// ThreeWhiteSoldiers matches three consecutive bullish candles with
// substantial bodies, each closing higher and opening within the
// preceding body, confirming upside conviction.
func ThreeWhiteSoldiers(first, second, candle *shared.Candlestick, averageVolume float64, trend shared.TrendContext) Result {
	metrics := ComputeMetrics(candle, averageVolume, trend)
	result := noMatch("three white soldiers", Confirmation, metrics)
	if metrics.TotalRange == 0 || first == nil || second == nil {
		return result
	}

	candles := []*shared.Candlestick{first, second, candle}
	minBodyRatio := math.Inf(1)
	for idx := range candles {
		if candles[idx].FetchSentiment() != shared.Bullish {
			return result
		}

		candleMetrics := ComputeMetrics(candles[idx], averageVolume, trend)
		if candleMetrics.BodyRatio < soldiersMinBodyRatio {
			return result
		}
		if candleMetrics.BodyRatio < minBodyRatio {
			minBodyRatio = candleMetrics.BodyRatio
		}
	}

	if second.Close <= first.Close || candle.Close <= second.Close {
		return result
	}
	if second.Open <= first.Open || second.Open >= first.Close ||
		candle.Open <= second.Open || candle.Open >= second.Close {
		return result
	}

	result.Matched = true
	result.Direction = shared.Long

	switch {
	case minBodyRatio >= soldiersStrongBodyRatio && trend == shared.Uptrend:
		result.Strength = Strong
	case minBodyRatio >= soldiersStrongBodyRatio:
		result.Strength = Medium
	default:
		result.Strength = Weak
	}

	return result
}

// ThreeBlackCrows matches three consecutive bearish candles with
// substantial bodies, each closing lower and opening within the
// preceding body, confirming downside conviction.
func ThreeBlackCrows(first, second, candle *shared.Candlestick, averageVolume float64, trend shared.TrendContext) Result {
	metrics := ComputeMetrics(candle, averageVolume, trend)
	result := noMatch("three black crows", Confirmation, metrics)
	if metrics.TotalRange == 0 || first == nil || second == nil {
		return result
	}

	candles := []*shared.Candlestick{first, second, candle}
	minBodyRatio := math.Inf(1)
	for idx := range candles {
		if candles[idx].FetchSentiment() != shared.Bearish {
			return result
		}

		candleMetrics := ComputeMetrics(candles[idx], averageVolume, trend)
		if candleMetrics.BodyRatio < soldiersMinBodyRatio {
			return result
		}
		if candleMetrics.BodyRatio < minBodyRatio {
			minBodyRatio = candleMetrics.BodyRatio
		}
	}

	if second.Close >= first.Close || candle.Close >= second.Close {
		return result
	}
	if second.Open >= first.Open || second.Open <= first.Close ||
		candle.Open >= second.Open || candle.Open <= second.Close {
		return result
	}

	result.Matched = true
	result.Direction = shared.Short

	switch {
	case minBodyRatio >= soldiersStrongBodyRatio && trend == shared.Downtrend:
		result.Strength = Strong
	case minBodyRatio >= soldiersStrongBodyRatio:
		result.Strength = Medium
	default:
		result.Strength = Weak
	}

	return result
}

// ThreeInsideUp matches a large bearish candle, a bullish harami within
// it and a confirming close above the bearish open, signalling a bottom
// reversal.
func ThreeInsideUp(first, second, candle *shared.Candlestick, averageVolume float64, trend shared.TrendContext) Result {
	metrics := ComputeMetrics(candle, averageVolume, trend)
	result := noMatch("three inside up", Reversal, metrics)
	if metrics.TotalRange == 0 || first == nil || second == nil {
		return result
	}

	firstMetrics := ComputeMetrics(first, averageVolume, trend)
	if first.FetchSentiment() != shared.Bearish || firstMetrics.BodyRatio < starMinHostBodyRatio {
		return result
	}

	if second.FetchSentiment() != shared.Bullish {
		return result
	}

	secondLow, secondHigh := body(second)
	firstLow, firstHigh := body(first)
	if secondLow <= firstLow || secondHigh >= firstHigh {
		return result
	}

	if candle.FetchSentiment() != shared.Bullish || candle.Close <= first.Open {
		return result
	}

	result.Matched = true
	result.Direction = shared.Long

	switch {
	case trend == shared.Downtrend:
		result.Strength = Strong
	default:
		result.Strength = Medium
	}

	return result
}

// ThreeInsideDown matches a large bullish candle, a bearish harami
// within it and a confirming close below the bullish open, signalling a
// top reversal.
func ThreeInsideDown(first, second, candle *shared.Candlestick, averageVolume float64, trend shared.TrendContext) Result {
	metrics := ComputeMetrics(candle, averageVolume, trend)
	result := noMatch("three inside down", Reversal, metrics)
	if metrics.TotalRange == 0 || first == nil || second == nil {
		return result
	}

	firstMetrics := ComputeMetrics(first, averageVolume, trend)
	if first.FetchSentiment() != shared.Bullish || firstMetrics.BodyRatio < starMinHostBodyRatio {
		return result
	}

	if second.FetchSentiment() != shared.Bearish {
		return result
	}

	secondLow, secondHigh := body(second)
	firstLow, firstHigh := body(first)
	if secondLow <= firstLow || secondHigh >= firstHigh {
		return result
	}

	if candle.FetchSentiment() != shared.Bearish || candle.Close >= first.Open {
		return result
	}

	result.Matched = true
	result.Direction = shared.Short

	switch {
	case trend == shared.Uptrend:
		result.Strength = Strong
	default:
		result.Strength = Medium
	}

	return result
}

package pattern

import (
	"fmt"
	"math"

	"marketsignal/shared"
)

const (
	// engulfingMediumBodyMultiple marks a decisive engulfing body.
	engulfingMediumBodyMultiple = 1.2
	// engulfingStrongBodyMultiple marks an overwhelming engulfing body.
	engulfingStrongBodyMultiple = 1.5

	// haramiMinHostBodyRatio is the minimum body ratio for the candle
	// hosting a harami.
	haramiMinHostBodyRatio = 0.5

	// tweezerTolerance is the maximum extreme mismatch as a fraction of
	// the evaluated candle's range.
	tweezerTolerance = 0.05
	// tweezerStrongTolerance marks a near-exact tweezer match.
	tweezerStrongTolerance = 0.01
)

// body returns the body extremes of the provided candle.
func body(candle *shared.Candlestick) (float64, float64) {
	return math.Min(candle.Open, candle.Close), math.Max(candle.Open, candle.Close)
}

// BullishEngulfing matches a bullish candle whose body strictly engulfs
// the preceding bearish body, signalling a bottom reversal.
func BullishEngulfing(candle *shared.Candlestick, prev *shared.Candlestick, averageVolume float64, trend shared.TrendContext) Result {
	metrics := ComputeMetrics(candle, averageVolume, trend)
	result := noMatch("bullish engulfing", Reversal, metrics)
	if metrics.TotalRange == 0 || prev == nil {
		return result
	}

	if candle.FetchSentiment() != shared.Bullish || prev.FetchSentiment() != shared.Bearish {
		return result
	}

	if candle.Open >= prev.Close || candle.Close <= prev.Open {
		return result
	}

	result.Matched = true
	result.Direction = shared.Long

	prevBody := math.Abs(prev.Close - prev.Open)
	multiple := wickToBody(metrics.BodySize, prevBody)
	result.Note = fmt.Sprintf("engulfing body %.2fx previous", multiple)

	switch {
	case multiple >= engulfingStrongBodyMultiple && trend == shared.Downtrend:
		result.Strength = Strong
	case multiple >= engulfingMediumBodyMultiple:
		result.Strength = Medium
	default:
		result.Strength = Weak
	}

	return result
}

// BearishEngulfing matches a bearish candle whose body strictly engulfs
// the preceding bullish body, signalling a top reversal.
func BearishEngulfing(candle *shared.Candlestick, prev *shared.Candlestick, averageVolume float64, trend shared.TrendContext) Result {
	metrics := ComputeMetrics(candle, averageVolume, trend)
	result := noMatch("bearish engulfing", Reversal, metrics)
	if metrics.TotalRange == 0 || prev == nil {
		return result
	}

	if candle.FetchSentiment() != shared.Bearish || prev.FetchSentiment() != shared.Bullish {
		return result
	}

	if candle.Open <= prev.Close || candle.Close >= prev.Open {
		return result
	}

	result.Matched = true
	result.Direction = shared.Short

	prevBody := math.Abs(prev.Close - prev.Open)
	multiple := wickToBody(metrics.BodySize, prevBody)
	result.Note = fmt.Sprintf("engulfing body %.2fx previous", multiple)

	switch {
	case multiple >= engulfingStrongBodyMultiple && trend == shared.Uptrend:
		result.Strength = Strong
	case multiple >= engulfingMediumBodyMultiple:
		result.Strength = Medium
	default:
		result.Strength = Weak
	}

	return result
}

// BullishHarami matches a small bullish candle contained entirely within
// the preceding large bearish body, signalling a fading downmove.
func BullishHarami(candle *shared.Candlestick, prev *shared.Candlestick, averageVolume float64, trend shared.TrendContext) Result {
	metrics := ComputeMetrics(candle, averageVolume, trend)
	result := noMatch("bullish harami", Reversal, metrics)
	if metrics.TotalRange == 0 || prev == nil {
		return result
	}

	prevMetrics := ComputeMetrics(prev, averageVolume, trend)
	if candle.FetchSentiment() != shared.Bullish || prev.FetchSentiment() != shared.Bearish ||
		prevMetrics.BodyRatio < haramiMinHostBodyRatio {
		return result
	}

	bodyLow, bodyHigh := body(candle)
	prevLow, prevHigh := body(prev)
	if bodyLow <= prevLow || bodyHigh >= prevHigh {
		return result
	}

	result.Matched = true
	result.Direction = shared.Long

	containment := wickToBody(metrics.BodySize, prevMetrics.BodySize)
	switch {
	case containment < 0.35 && trend == shared.Downtrend:
		result.Strength = Strong
	case containment < 0.5:
		result.Strength = Medium
	default:
		result.Strength = Weak
	}

	return result
}

// BearishHarami matches a small bearish candle contained entirely within
// the preceding large bullish body, signalling a fading upmove.
func BearishHarami(candle *shared.Candlestick, prev *shared.Candlestick, averageVolume float64, trend shared.TrendContext) Result {
	metrics := ComputeMetrics(candle, averageVolume, trend)
	result := noMatch("bearish harami", Reversal, metrics)
	if metrics.TotalRange == 0 || prev == nil {
		return result
	}

	prevMetrics := ComputeMetrics(prev, averageVolume, trend)
	if candle.FetchSentiment() != shared.Bearish || prev.FetchSentiment() != shared.Bullish ||
		prevMetrics.BodyRatio < haramiMinHostBodyRatio {
		return result
	}

	bodyLow, bodyHigh := body(candle)
	prevLow, prevHigh := body(prev)
	if bodyLow <= prevLow || bodyHigh >= prevHigh {
		return result
	}

	result.Matched = true
	result.Direction = shared.Short

	containment := wickToBody(metrics.BodySize, prevMetrics.BodySize)
	switch {
	case containment < 0.35 && trend == shared.Uptrend:
		result.Strength = Strong
	case containment < 0.5:
		result.Strength = Medium
	default:
		result.Strength = Weak
	}

	return result
}

// PiercingLine matches a bullish candle opening below the preceding
// bearish close and closing above the midpoint of its body, signalling
// a bottom reversal.
func PiercingLine(candle *shared.Candlestick, prev *shared.Candlestick, averageVolume float64, trend shared.TrendContext) Result {
	metrics := ComputeMetrics(candle, averageVolume, trend)
	result := noMatch("piercing line", Reversal, metrics)
	if metrics.TotalRange == 0 || prev == nil {
		return result
	}

	if candle.FetchSentiment() != shared.Bullish || prev.FetchSentiment() != shared.Bearish {
		return result
	}

	midpoint := (prev.Open + prev.Close) / 2
	if candle.Open >= prev.Close || candle.Close <= midpoint || candle.Close >= prev.Open {
		return result
	}

	result.Matched = true
	result.Direction = shared.Long

	prevBody := math.Abs(prev.Close - prev.Open)
	retrace := wickToBody(candle.Close-prev.Close, prevBody)
	switch {
	case retrace >= 0.75 && trend == shared.Downtrend:
		result.Strength = Strong
	case retrace >= 0.6:
		result.Strength = Medium
	default:
		result.Strength = Weak
	}

	return result
}

// DarkCloudCover matches a bearish candle opening above the preceding
// bullish close and closing below the midpoint of its body, signalling
// a top reversal.
func DarkCloudCover(candle *shared.Candlestick, prev *shared.Candlestick, averageVolume float64, trend shared.TrendContext) Result {
	metrics := ComputeMetrics(candle, averageVolume, trend)
	result := noMatch("dark cloud cover", Reversal, metrics)
	if metrics.TotalRange == 0 || prev == nil {
		return result
	}

	if candle.FetchSentiment() != shared.Bearish || prev.FetchSentiment() != shared.Bullish {
		return result
	}

	midpoint := (prev.Open + prev.Close) / 2
	if candle.Open <= prev.Close || candle.Close >= midpoint || candle.Close <= prev.Open {
		return result
	}

	result.Matched = true
	result.Direction = shared.Short

	prevBody := math.Abs(prev.Close - prev.Open)
	retrace := wickToBody(prev.Close-candle.Close, prevBody)
	switch {
	case retrace >= 0.75 && trend == shared.Uptrend:
		result.Strength = Strong
	case retrace >= 0.6:
		result.Strength = Medium
	default:
		result.Strength = Weak
	}

	return result
}

// TweezerBottom matches consecutive candles printing near-identical lows
// with sentiment flipping bullish, signalling a bottom reversal.
func TweezerBottom(candle *shared.Candlestick, prev *shared.Candlestick, averageVolume float64, trend shared.TrendContext) Result {
	metrics := ComputeMetrics(candle, averageVolume, trend)
	result := noMatch("tweezer bottom", Reversal, metrics)
	if metrics.TotalRange == 0 || prev == nil {
		return result
	}

	if candle.FetchSentiment() != shared.Bullish || prev.FetchSentiment() != shared.Bearish {
		return result
	}

	mismatch := math.Abs(candle.Low-prev.Low) / metrics.TotalRange
	if mismatch >= tweezerTolerance {
		return result
	}

	result.Matched = true
	result.Direction = shared.Long

	switch {
	case mismatch < tweezerStrongTolerance && trend == shared.Downtrend:
		result.Strength = Strong
	case mismatch < tweezerStrongTolerance:
		result.Strength = Medium
	default:
		result.Strength = Weak
	}

	return result
}

// TweezerTop matches consecutive candles printing near-identical highs
// with sentiment flipping bearish, signalling a top reversal.
func TweezerTop(candle *shared.Candlestick, prev *shared.Candlestick, averageVolume float64, trend shared.TrendContext) Result {
	metrics := ComputeMetrics(candle, averageVolume, trend)
	result := noMatch("tweezer top", Reversal, metrics)
	if metrics.TotalRange == 0 || prev == nil {
		return result
	}

	if candle.FetchSentiment() != shared.Bearish || prev.FetchSentiment() != shared.Bullish {
		return result
	}

	mismatch := math.Abs(candle.High-prev.High) / metrics.TotalRange
	if mismatch >= tweezerTolerance {
		return result
	}

	result.Matched = true
	result.Direction = shared.Short

	switch {
	case mismatch < tweezerStrongTolerance && trend == shared.Uptrend:
		result.Strength = Strong
	case mismatch < tweezerStrongTolerance:
		result.Strength = Medium
	default:
		result.Strength = Weak
	}

	return result
}

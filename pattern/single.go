package pattern

import (
	"fmt"
	"math"

	"marketsignal/shared"
)

const (
	// dojiMaxBodyRatio is the body ratio below which a candle is a doji.
	dojiMaxBodyRatio = 0.05
	// dojiStrongBodyRatio marks a near-perfect doji body.
	dojiStrongBodyRatio = 0.01
	// dojiMediumBodyRatio marks a tight doji body.
	dojiMediumBodyRatio = 0.03
	// dojiWickBalance is the maximum wick ratio spread for a balanced doji.
	dojiWickBalance = 0.1
	// directionalDojiWickRatio is the minimum dominant wick ratio for the
	// dragonfly and gravestone variants.
	directionalDojiWickRatio = 0.6
	// directionalDojiMediumWickRatio marks a tight directional doji.
	directionalDojiMediumWickRatio = 0.7
	// directionalDojiStrongWickRatio marks a decisive directional doji.
	directionalDojiStrongWickRatio = 0.75

	// hammerMaxBodyRatio is the maximum body ratio for hammer family patterns.
	hammerMaxBodyRatio = 0.33
	// hammerWickDominance is the minimum dominant-wick-to-body ratio.
	hammerWickDominance = 2.0
	// hammerMediumWickDominance marks a tight hammer wick.
	hammerMediumWickDominance = 2.5
	// hammerStrongWickDominance marks a decisive hammer wick.
	hammerStrongWickDominance = 3.0
	// hammerMaxOpposingWick is the maximum opposing-wick-to-body ratio.
	hammerMaxOpposingWick = 1.0

	// marubozuMinBodyRatio is the minimum body ratio for a marubozu.
	marubozuMinBodyRatio = 0.9
	// marubozuMediumBodyRatio marks a tight marubozu body.
	marubozuMediumBodyRatio = 0.95
	// marubozuStrongBodyRatio marks a near-total marubozu body.
	marubozuStrongBodyRatio = 0.97

	// spinningTopMaxBodyRatio is the maximum body ratio for a spinning top.
	spinningTopMaxBodyRatio = 0.4
	// spinningTopMinWickRatio is the minimum ratio for both wicks of a
	// spinning top.
	spinningTopMinWickRatio = 0.25
)

// Doji matches a candle whose body is negligible relative to its range,
// signalling indecision.
func Doji(candle *shared.Candlestick, averageVolume float64, trend shared.TrendContext) Result {
	metrics := ComputeMetrics(candle, averageVolume, trend)
	result := noMatch("doji", Indecision, metrics)
	if metrics.TotalRange == 0 {
		return result
	}

	if metrics.BodyRatio+ratioEpsilon >= dojiMaxBodyRatio {
		return result
	}

	result.Matched = true
	result.Direction = shared.NeutralDirection

	wickSpread := math.Abs(metrics.UpperWickRatio - metrics.LowerWickRatio)
	switch {
	case metrics.BodyRatio < dojiStrongBodyRatio && wickSpread < dojiWickBalance:
		result.Strength = Strong
	case metrics.BodyRatio < dojiMediumBodyRatio:
		result.Strength = Medium
	default:
		result.Strength = Weak
	}

	return result
}

// DragonflyDoji matches a doji with a dominant lower wick, signalling a
// potential bottom reversal.
func DragonflyDoji(candle *shared.Candlestick, averageVolume float64, trend shared.TrendContext) Result {
	metrics := ComputeMetrics(candle, averageVolume, trend)
	result := noMatch("dragonfly doji", Reversal, metrics)
	if metrics.TotalRange == 0 {
		return result
	}

	if metrics.BodyRatio+ratioEpsilon >= dojiMaxBodyRatio || metrics.LowerWickRatio < directionalDojiWickRatio ||
		metrics.UpperWickRatio >= dojiWickBalance {
		return result
	}

	result.Matched = true
	result.Direction = shared.Long

	switch {
	case metrics.LowerWickRatio >= directionalDojiStrongWickRatio && trend == shared.Downtrend:
		result.Strength = Strong
	case metrics.LowerWickRatio >= directionalDojiMediumWickRatio:
		result.Strength = Medium
	default:
		result.Strength = Weak
	}

	return result
}

// GravestoneDoji matches a doji with a dominant upper wick, signalling a
// potential top reversal.
func GravestoneDoji(candle *shared.Candlestick, averageVolume float64, trend shared.TrendContext) Result {
	metrics := ComputeMetrics(candle, averageVolume, trend)
	result := noMatch("gravestone doji", Reversal, metrics)
	if metrics.TotalRange == 0 {
		return result
	}

	if metrics.BodyRatio+ratioEpsilon >= dojiMaxBodyRatio || metrics.UpperWickRatio < directionalDojiWickRatio ||
		metrics.LowerWickRatio >= dojiWickBalance {
		return result
	}

	result.Matched = true
	result.Direction = shared.Short

	switch {
	case metrics.UpperWickRatio >= directionalDojiStrongWickRatio && trend == shared.Uptrend:
		result.Strength = Strong
	case metrics.UpperWickRatio >= directionalDojiMediumWickRatio:
		result.Strength = Medium
	default:
		result.Strength = Weak
	}

	return result
}

// Hammer matches a small-bodied candle with a dominant lower wick,
// signalling a potential bottom reversal.
func Hammer(candle *shared.Candlestick, averageVolume float64, trend shared.TrendContext) Result {
	metrics := ComputeMetrics(candle, averageVolume, trend)
	result := noMatch("hammer", Reversal, metrics)
	if metrics.TotalRange == 0 {
		return result
	}

	lowerToBody := wickToBody(metrics.LowerWick, metrics.BodySize)
	upperToBody := wickToBody(metrics.UpperWick, metrics.BodySize)

	if metrics.BodyRatio >= hammerMaxBodyRatio || lowerToBody < hammerWickDominance ||
		upperToBody >= hammerMaxOpposingWick {
		return result
	}

	result.Matched = true
	result.Direction = shared.Long
	result.Note = fmt.Sprintf("lower wick %.2fx body", lowerToBody)

	switch {
	case lowerToBody >= hammerStrongWickDominance && trend == shared.Downtrend:
		result.Strength = Strong
	case lowerToBody >= hammerMediumWickDominance:
		result.Strength = Medium
	default:
		result.Strength = Weak
	}

	return result
}

// HangingMan matches hammer geometry appearing in an uptrend, signalling
// a potential top reversal.
func HangingMan(candle *shared.Candlestick, averageVolume float64, trend shared.TrendContext) Result {
	metrics := ComputeMetrics(candle, averageVolume, trend)
	result := noMatch("hanging man", Reversal, metrics)
	if metrics.TotalRange == 0 || trend != shared.Uptrend {
		return result
	}

	lowerToBody := wickToBody(metrics.LowerWick, metrics.BodySize)
	upperToBody := wickToBody(metrics.UpperWick, metrics.BodySize)

	if metrics.BodyRatio >= hammerMaxBodyRatio || lowerToBody < hammerWickDominance ||
		upperToBody >= hammerMaxOpposingWick {
		return result
	}

	result.Matched = true
	result.Direction = shared.Short
	result.Note = fmt.Sprintf("lower wick %.2fx body", lowerToBody)

	switch {
	case lowerToBody >= hammerStrongWickDominance:
		result.Strength = Strong
	case lowerToBody >= hammerMediumWickDominance:
		result.Strength = Medium
	default:
		result.Strength = Weak
	}

	return result
}

// InvertedHammer matches a small-bodied candle with a dominant upper
// wick, signalling a potential bottom reversal.
func InvertedHammer(candle *shared.Candlestick, averageVolume float64, trend shared.TrendContext) Result {
	metrics := ComputeMetrics(candle, averageVolume, trend)
	result := noMatch("inverted hammer", Reversal, metrics)
	if metrics.TotalRange == 0 {
		return result
	}

	upperToBody := wickToBody(metrics.UpperWick, metrics.BodySize)
	lowerToBody := wickToBody(metrics.LowerWick, metrics.BodySize)

	if metrics.BodyRatio >= hammerMaxBodyRatio || upperToBody < hammerWickDominance ||
		lowerToBody >= hammerMaxOpposingWick {
		return result
	}

	result.Matched = true
	result.Direction = shared.Long
	result.Note = fmt.Sprintf("upper wick %.2fx body", upperToBody)

	switch {
	case upperToBody >= hammerStrongWickDominance && trend == shared.Downtrend:
		result.Strength = Strong
	case upperToBody >= hammerMediumWickDominance:
		result.Strength = Medium
	default:
		result.Strength = Weak
	}

	return result
}

// ShootingStar matches inverted hammer geometry appearing in an uptrend,
// signalling a potential top reversal.
func ShootingStar(candle *shared.Candlestick, averageVolume float64, trend shared.TrendContext) Result {
	metrics := ComputeMetrics(candle, averageVolume, trend)
	result := noMatch("shooting star", Reversal, metrics)
	if metrics.TotalRange == 0 || trend != shared.Uptrend {
		return result
	}

	upperToBody := wickToBody(metrics.UpperWick, metrics.BodySize)
	lowerToBody := wickToBody(metrics.LowerWick, metrics.BodySize)

	if metrics.BodyRatio >= hammerMaxBodyRatio || upperToBody < hammerWickDominance ||
		lowerToBody >= hammerMaxOpposingWick {
		return result
	}

	result.Matched = true
	result.Direction = shared.Short
	result.Note = fmt.Sprintf("upper wick %.2fx body", upperToBody)

	switch {
	case upperToBody >= hammerStrongWickDominance:
		result.Strength = Strong
	case upperToBody >= hammerMediumWickDominance:
		result.Strength = Medium
	default:
		result.Strength = Weak
	}

	return result
}

// BullishMarubozu matches a bullish candle whose body dominates its
// range, signalling directional continuation.
func BullishMarubozu(candle *shared.Candlestick, averageVolume float64, trend shared.TrendContext) Result {
	metrics := ComputeMetrics(candle, averageVolume, trend)
	result := noMatch("bullish marubozu", Continuation, metrics)
	if metrics.TotalRange == 0 {
		return result
	}

	if candle.FetchSentiment() != shared.Bullish || metrics.BodyRatio < marubozuMinBodyRatio {
		return result
	}

	result.Matched = true
	result.Direction = shared.Long

	switch {
	case metrics.BodyRatio >= marubozuStrongBodyRatio && trend == shared.Uptrend:
		result.Strength = Strong
	case metrics.BodyRatio >= marubozuMediumBodyRatio:
		result.Strength = Medium
	default:
		result.Strength = Weak
	}

	return result
}

// BearishMarubozu matches a bearish candle whose body dominates its
// range, signalling directional continuation.
func BearishMarubozu(candle *shared.Candlestick, averageVolume float64, trend shared.TrendContext) Result {
	metrics := ComputeMetrics(candle, averageVolume, trend)
	result := noMatch("bearish marubozu", Continuation, metrics)
	if metrics.TotalRange == 0 {
		return result
	}

	if candle.FetchSentiment() != shared.Bearish || metrics.BodyRatio < marubozuMinBodyRatio {
		return result
	}

	result.Matched = true
	result.Direction = shared.Short

	switch {
	case metrics.BodyRatio >= marubozuStrongBodyRatio && trend == shared.Downtrend:
		result.Strength = Strong
	case metrics.BodyRatio >= marubozuMediumBodyRatio:
		result.Strength = Medium
	default:
		result.Strength = Weak
	}

	return result
}

// SpinningTop matches a small-bodied candle with substantial wicks on
// both sides, signalling indecision.
func SpinningTop(candle *shared.Candlestick, averageVolume float64, trend shared.TrendContext) Result {
	metrics := ComputeMetrics(candle, averageVolume, trend)
	result := noMatch("spinning top", Indecision, metrics)
	if metrics.TotalRange == 0 {
		return result
	}

	if metrics.BodyRatio >= spinningTopMaxBodyRatio || metrics.BodyRatio < dojiMaxBodyRatio ||
		metrics.UpperWickRatio < spinningTopMinWickRatio || metrics.LowerWickRatio < spinningTopMinWickRatio {
		return result
	}

	result.Matched = true
	result.Direction = shared.NeutralDirection

	wickSpread := math.Abs(metrics.UpperWickRatio - metrics.LowerWickRatio)
	switch {
	case wickSpread < dojiWickBalance && metrics.BodyRatio < 0.2:
		result.Strength = Medium
	default:
		result.Strength = Weak
	}

	return result
}

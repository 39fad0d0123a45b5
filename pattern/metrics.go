package pattern

import (
	"math"

	"marketsignal/shared"
)

// Strength grades how decisively a pattern matched. The ordering is
// total: StrengthNone < Weak < Medium < Strong.
type Strength int

const (
	StrengthNone Strength = iota
	Weak
	Medium
	Strong
)

// String stringifies the provided strength.
func (s Strength) String() string {
	switch s {
	case Weak:
		return "weak"
	case Medium:
		return "medium"
	case Strong:
		return "strong"
	default:
		return "none"
	}
}

// Category represents the class of signal a pattern carries.
type Category int

const (
	Other Category = iota
	Reversal
	Continuation
	Indecision
	Confirmation
)

// String stringifies the provided category.
func (c Category) String() string {
	switch c {
	case Reversal:
		return "reversal"
	case Continuation:
		return "continuation"
	case Indecision:
		return "indecision"
	case Confirmation:
		return "confirmation"
	default:
		return "other"
	}
}

// BarMetrics represents the derived structure of a candlestick used for
// pattern matching. It is computed per evaluation and never stored.
type BarMetrics struct {
	BodySize       float64
	TotalRange     float64
	UpperWick      float64
	LowerWick      float64
	BodyRatio      float64
	UpperWickRatio float64
	LowerWickRatio float64
	Volume         float64
	AverageVolume  float64
	Trend          shared.TrendContext
}

// Result represents the outcome of evaluating one pattern against a
// candlestick and its context.
type Result struct {
	Name      string
	Matched   bool
	Strength  Strength
	Direction shared.Direction
	Category  Category
	Metrics   BarMetrics
	Note      string
}

// ratioEpsilon absorbs float rounding when comparing ratios against
// their thresholds, so a body that is exactly at a threshold is never
// pulled under it by representation error.
const ratioEpsilon = 1e-9

// noMatch returns an unmatched result for the provided pattern.
func noMatch(name string, category Category, metrics BarMetrics) Result {
	return Result{
		Name:     name,
		Category: category,
		Metrics:  metrics,
	}
}

// ComputeMetrics derives the bar metrics of the provided candlestick.
// A zero-range candle collapses every ratio to zero, which in turn
// guarantees no pattern matches on it.
func ComputeMetrics(candle *shared.Candlestick, averageVolume float64, trend shared.TrendContext) BarMetrics {
	metrics := BarMetrics{
		BodySize:      math.Abs(candle.Close - candle.Open),
		TotalRange:    candle.High - candle.Low,
		UpperWick:     candle.High - math.Max(candle.Open, candle.Close),
		LowerWick:     math.Min(candle.Open, candle.Close) - candle.Low,
		Volume:        candle.Volume,
		AverageVolume: averageVolume,
		Trend:         trend,
	}

	if metrics.TotalRange == 0 {
		return metrics
	}

	metrics.BodyRatio = metrics.BodySize / metrics.TotalRange
	metrics.UpperWickRatio = metrics.UpperWick / metrics.TotalRange
	metrics.LowerWickRatio = metrics.LowerWick / metrics.TotalRange

	return metrics
}

// wickToBody computes the ratio of the provided wick to the body size.
// A zero body with a non-zero wick dominates completely.
func wickToBody(wick float64, bodySize float64) float64 {
	if bodySize == 0 {
		if wick == 0 {
			return 0
		}
		return math.Inf(1)
	}

	return wick / bodySize
}

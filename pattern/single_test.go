package pattern

import (
	"testing"

	"github.com/peterldowns/testy/assert"

	"marketsignal/shared"
)

// newCandle creates a candlestick with the provided prices for tests.
func newCandle(open, high, low, close, volume float64) *shared.Candlestick {
	return &shared.Candlestick{
		Open:   open,
		High:   high,
		Low:    low,
		Close:  close,
		Volume: volume,
	}
}

func TestComputeMetrics(t *testing.T) {
	// Ensure metrics capture body, range and wick structure.
	candle := newCandle(10, 12, 8, 10.2, 100)
	metrics := ComputeMetrics(candle, 80, shared.Uptrend)
	assert.Equal(t, metrics.BodySize, 10.2-10)
	assert.Equal(t, metrics.TotalRange, float64(4))
	assert.Equal(t, metrics.UpperWick, 12-10.2)
	assert.Equal(t, metrics.LowerWick, float64(2))
	assert.Equal(t, metrics.BodyRatio, (10.2-10)/4)
	assert.Equal(t, metrics.Volume, float64(100))
	assert.Equal(t, metrics.AverageVolume, float64(80))
	assert.Equal(t, metrics.Trend, shared.Uptrend)

	// Ensure a zero-range candle collapses every ratio to zero.
	flat := newCandle(10, 10, 10, 10, 100)
	flatMetrics := ComputeMetrics(flat, 80, shared.Uptrend)
	assert.Equal(t, flatMetrics.TotalRange, float64(0))
	assert.Equal(t, flatMetrics.BodyRatio, float64(0))
	assert.Equal(t, flatMetrics.UpperWickRatio, float64(0))
	assert.Equal(t, flatMetrics.LowerWickRatio, float64(0))
}

func TestZeroRangeMatchesNothing(t *testing.T) {
	// Ensure a candle with high == low never matches any pattern.
	flat := newCandle(10, 10, 10, 10, 100)
	prev := newCandle(11, 12, 9, 9.5, 100)
	history := []*shared.Candlestick{prev, prev, prev, prev, flat}

	matches := DetectAll(flat, Context{AverageVolume: 80, Trend: shared.Downtrend}, prev, history)
	assert.Equal(t, len(matches), 0)
}

func TestDojiBoundary(t *testing.T) {
	// Ensure a body ratio of exactly 0.05 does not qualify as a doji.
	boundary := newCandle(10, 12, 8, 10.2, 100)
	result := Doji(boundary, 80, shared.UnknownTrend)
	assert.Equal(t, result.Matched, false)
	assert.Equal(t, result.Strength, StrengthNone)

	// Ensure a body ratio just under the threshold qualifies.
	under := newCandle(10, 12, 8, 10.19, 100)
	result = Doji(under, 80, shared.UnknownTrend)
	assert.Equal(t, result.Matched, true)
}

func TestDojiStrengthTiers(t *testing.T) {
	// Ensure a balanced near-zero body doji grades strong.
	strong := newCandle(10, 11, 9, 10.001, 100)
	result := Doji(strong, 80, shared.UnknownTrend)
	assert.Equal(t, result.Matched, true)
	assert.Equal(t, result.Strength, Strong)

	// Ensure a lopsided tight doji grades medium.
	medium := newCandle(10, 11.5, 9.97, 10.02, 100)
	result = Doji(medium, 80, shared.UnknownTrend)
	assert.Equal(t, result.Matched, true)
	assert.Equal(t, result.Strength, Medium)
}

func TestHammer(t *testing.T) {
	// Ensure a dominant lower wick with a small upper wick matches.
	// Body 0.5, lower wick 2.5, upper wick 0.2.
	hammer := newCandle(10, 10.7, 7.5, 10.5, 100)
	result := Hammer(hammer, 80, shared.Downtrend)
	assert.Equal(t, result.Matched, true)
	assert.Equal(t, result.Direction, shared.Long)
	// Lower wick is 5x the body in a downtrend.
	assert.Equal(t, result.Strength, Strong)

	// Ensure the same geometry outside a downtrend grades below strong.
	result = Hammer(hammer, 80, shared.Sideways)
	assert.Equal(t, result.Matched, true)
	assert.Equal(t, result.Strength, Medium)

	// Ensure a large upper wick disqualifies the hammer.
	rejected := newCandle(10, 11.2, 7.5, 10.5, 100)
	result = Hammer(rejected, 80, shared.Downtrend)
	assert.Equal(t, result.Matched, false)

	// Ensure a dominant body disqualifies the hammer.
	bodied := newCandle(8, 11.2, 7.5, 11, 100)
	result = Hammer(bodied, 80, shared.Downtrend)
	assert.Equal(t, result.Matched, false)
}

func TestHangingManRequiresUptrend(t *testing.T) {
	candle := newCandle(10, 10.7, 7.5, 10.5, 100)

	// Ensure hammer geometry in an uptrend flags a hanging man.
	result := HangingMan(candle, 80, shared.Uptrend)
	assert.Equal(t, result.Matched, true)
	assert.Equal(t, result.Direction, shared.Short)

	// Ensure the pattern does not fire outside an uptrend.
	result = HangingMan(candle, 80, shared.Downtrend)
	assert.Equal(t, result.Matched, false)
}

func TestShootingStar(t *testing.T) {
	// Body 0.4, upper wick 2.4, lower wick 0.2.
	candle := newCandle(10, 12.8, 9.8, 10.4, 100)

	// Ensure inverted hammer geometry in an uptrend flags a shooting star.
	result := ShootingStar(candle, 80, shared.Uptrend)
	assert.Equal(t, result.Matched, true)
	assert.Equal(t, result.Direction, shared.Short)
	assert.Equal(t, result.Strength, Strong)

	// Ensure the pattern does not fire outside an uptrend.
	result = ShootingStar(candle, 80, shared.Sideways)
	assert.Equal(t, result.Matched, false)

	// Ensure the same candle still reads as an inverted hammer.
	inverted := InvertedHammer(candle, 80, shared.Downtrend)
	assert.Equal(t, inverted.Matched, true)
	assert.Equal(t, inverted.Direction, shared.Long)
}

func TestMarubozu(t *testing.T) {
	// Ensure a full-bodied bullish candle matches.
	bullish := newCandle(10, 11, 10, 11, 100)
	result := BullishMarubozu(bullish, 80, shared.Uptrend)
	assert.Equal(t, result.Matched, true)
	assert.Equal(t, result.Direction, shared.Long)
	assert.Equal(t, result.Strength, Strong)

	// Ensure a full-bodied bearish candle matches the bearish variant only.
	bearish := newCandle(11, 11, 10, 10, 100)
	result = BearishMarubozu(bearish, 80, shared.Downtrend)
	assert.Equal(t, result.Matched, true)
	assert.Equal(t, result.Direction, shared.Short)
	assert.Equal(t, BullishMarubozu(bearish, 80, shared.Downtrend).Matched, false)

	// Ensure substantial wicks disqualify the marubozu.
	wicked := newCandle(10, 11.5, 9.8, 11, 100)
	result = BullishMarubozu(wicked, 80, shared.Uptrend)
	assert.Equal(t, result.Matched, false)
}

func TestSpinningTop(t *testing.T) {
	// Body 0.4 of 2.0 range is too large; use body 0.3 with wicks ~0.85.
	candle := newCandle(10, 11, 9, 10.3, 100)
	result := SpinningTop(candle, 80, shared.UnknownTrend)
	assert.Equal(t, result.Matched, true)
	assert.Equal(t, result.Direction, shared.NeutralDirection)

	// Ensure a dominant body disqualifies the spinning top.
	bodied := newCandle(9.5, 11, 9, 10.6, 100)
	result = SpinningTop(bodied, 80, shared.UnknownTrend)
	assert.Equal(t, result.Matched, false)
}

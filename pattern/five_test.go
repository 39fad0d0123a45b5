package pattern

import (
	"testing"

	"github.com/peterldowns/testy/assert"

	"marketsignal/shared"
)

func TestRisingThreeMethods(t *testing.T) {
	candles := []*shared.Candlestick{
		newCandle(10, 12.1, 9.9, 12, 200),
		newCandle(11.9, 12, 11.4, 11.5, 60),
		newCandle(11.5, 11.6, 11.1, 11.2, 50),
		newCandle(11.2, 11.4, 10.9, 11, 40),
		newCandle(11.1, 12.6, 11, 12.5, 220),
	}

	// Ensure the pause-and-continue sequence matches.
	result := RisingThreeMethods(candles, 80, shared.Uptrend)
	assert.Equal(t, result.Matched, true)
	assert.Equal(t, result.Direction, shared.Long)
	assert.Equal(t, result.Category, Continuation)
	assert.Equal(t, result.Strength, Strong)

	// Ensure a pause candle escaping the opening range is rejected.
	escaped := make([]*shared.Candlestick, len(candles))
	copy(escaped, candles)
	escaped[2] = newCandle(11.5, 12.3, 11.1, 11.2, 50)
	result = RisingThreeMethods(escaped, 80, shared.Uptrend)
	assert.Equal(t, result.Matched, false)

	// Ensure a final close inside the opening close is rejected.
	stalled := make([]*shared.Candlestick, len(candles))
	copy(stalled, candles)
	stalled[4] = newCandle(11.1, 12, 11, 11.9, 220)
	result = RisingThreeMethods(stalled, 80, shared.Uptrend)
	assert.Equal(t, result.Matched, false)

	// Ensure insufficient history yields no match.
	result = RisingThreeMethods(candles[:4], 80, shared.Uptrend)
	assert.Equal(t, result.Matched, false)
}

func TestFallingThreeMethods(t *testing.T) {
	candles := []*shared.Candlestick{
		newCandle(12, 12.1, 9.9, 10, 200),
		newCandle(10.1, 10.6, 10, 10.5, 60),
		newCandle(10.5, 10.9, 10.4, 10.8, 50),
		newCandle(10.8, 11.1, 10.7, 11, 40),
		newCandle(10.9, 11, 9.4, 9.5, 220),
	}

	// Ensure the mirrored pause-and-continue sequence matches.
	result := FallingThreeMethods(candles, 80, shared.Downtrend)
	assert.Equal(t, result.Matched, true)
	assert.Equal(t, result.Direction, shared.Short)
	assert.Equal(t, result.Strength, Strong)

	// Ensure a bullish final candle is rejected.
	flipped := make([]*shared.Candlestick, len(candles))
	copy(flipped, candles)
	flipped[4] = newCandle(10.9, 11.2, 10.8, 11.1, 220)
	result = FallingThreeMethods(flipped, 80, shared.Downtrend)
	assert.Equal(t, result.Matched, false)
}

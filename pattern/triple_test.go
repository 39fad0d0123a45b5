package pattern

import (
	"testing"

	"github.com/peterldowns/testy/assert"

	"marketsignal/shared"
)

func TestMorningStar(t *testing.T) {
	// Large bearish candle, small pause, bullish reclaim past the open.
	first := newCandle(12, 12.1, 9.9, 10, 100)
	second := newCandle(10, 10.4, 9.6, 10.1, 60)
	candle := newCandle(10.2, 12.4, 10.1, 12.2, 140)

	result := MorningStar(first, second, candle, 80, shared.Downtrend)
	assert.Equal(t, result.Matched, true)
	assert.Equal(t, result.Direction, shared.Long)
	assert.Equal(t, result.Strength, Strong)

	// Ensure a reclaim short of the midpoint is rejected.
	shallow := newCandle(10.2, 10.9, 10.1, 10.8, 140)
	result = MorningStar(first, second, shallow, 80, shared.Downtrend)
	assert.Equal(t, result.Matched, false)

	// Ensure a dominant pause body is rejected.
	bigPause := newCandle(10, 11.6, 9.9, 11.5, 60)
	result = MorningStar(first, bigPause, candle, 80, shared.Downtrend)
	assert.Equal(t, result.Matched, false)
}

func TestEveningStar(t *testing.T) {
	first := newCandle(10, 12.1, 9.9, 12, 100)
	second := newCandle(12, 12.4, 11.6, 12.1, 60)
	candle := newCandle(11.9, 12, 9.6, 9.8, 140)

	result := EveningStar(first, second, candle, 80, shared.Uptrend)
	assert.Equal(t, result.Matched, true)
	assert.Equal(t, result.Direction, shared.Short)
	assert.Equal(t, result.Strength, Strong)
}

func TestThreeWhiteSoldiers(t *testing.T) {
	first := newCandle(10, 11.1, 9.9, 11, 100)
	second := newCandle(10.8, 12.1, 10.7, 12, 110)
	candle := newCandle(11.8, 13.1, 11.7, 13, 120)

	result := ThreeWhiteSoldiers(first, second, candle, 80, shared.Uptrend)
	assert.Equal(t, result.Matched, true)
	assert.Equal(t, result.Direction, shared.Long)
	assert.Equal(t, result.Category, Confirmation)
	assert.Equal(t, result.Strength, Strong)

	// Ensure a soldier opening outside the preceding body is rejected.
	gapped := newCandle(12.2, 13.5, 12.1, 13.4, 120)
	result = ThreeWhiteSoldiers(first, second, gapped, 80, shared.Uptrend)
	assert.Equal(t, result.Matched, false)

	// Ensure a lower close breaks the pattern.
	fading := newCandle(11.8, 12, 11.1, 11.9, 120)
	result = ThreeWhiteSoldiers(first, second, fading, 80, shared.Uptrend)
	assert.Equal(t, result.Matched, false)
}

func TestThreeBlackCrows(t *testing.T) {
	first := newCandle(13, 13.1, 11.9, 12, 100)
	second := newCandle(12.2, 12.3, 10.9, 11, 110)
	candle := newCandle(11.2, 11.3, 9.9, 10, 120)

	result := ThreeBlackCrows(first, second, candle, 80, shared.Downtrend)
	assert.Equal(t, result.Matched, true)
	assert.Equal(t, result.Direction, shared.Short)
	assert.Equal(t, result.Category, Confirmation)
	assert.Equal(t, result.Strength, Strong)
}

func TestThreeInside(t *testing.T) {
	// Bearish host, bullish harami, confirming close above the host open.
	first := newCandle(12, 12.1, 9.9, 10, 100)
	second := newCandle(10.5, 11.2, 10.4, 11.1, 80)
	candle := newCandle(11.1, 12.5, 11, 12.3, 130)

	result := ThreeInsideUp(first, second, candle, 80, shared.Downtrend)
	assert.Equal(t, result.Matched, true)
	assert.Equal(t, result.Direction, shared.Long)
	assert.Equal(t, result.Strength, Strong)

	// Ensure a close below the host open does not confirm.
	unconfirmed := newCandle(11.1, 11.9, 11, 11.8, 130)
	result = ThreeInsideUp(first, second, unconfirmed, 80, shared.Downtrend)
	assert.Equal(t, result.Matched, false)

	// Ensure the bearish variant mirrors the bullish one.
	bullFirst := newCandle(10, 12.1, 9.9, 12, 100)
	bearSecond := newCandle(11.5, 11.6, 10.7, 10.8, 80)
	bearCandle := newCandle(10.8, 10.9, 9.4, 9.6, 130)
	down := ThreeInsideDown(bullFirst, bearSecond, bearCandle, 80, shared.Uptrend)
	assert.Equal(t, down.Matched, true)
	assert.Equal(t, down.Direction, shared.Short)
	assert.Equal(t, down.Strength, Strong)
}

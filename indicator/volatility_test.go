package indicator

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

func TestTrueRange(t *testing.T) {
	// Ensure the plain high-low range dominates when it is widest.
	candle := newCandle(10, 12, 8, 11, 1)
	assert.Equal(t, TrueRange(candle, 11), float64(4))

	// Ensure a gap above the previous close widens the range.
	assert.Equal(t, TrueRange(candle, 5), float64(7))

	// Ensure a gap below the previous close widens the range.
	assert.Equal(t, TrueRange(candle, 15), float64(7))
}

func TestATR(t *testing.T) {
	candles := []*shared.Candlestick{
		newCandle(10, 11, 9, 10, 1),
		newCandle(10, 12, 10, 11, 1),
		newCandle(11, 13, 11, 12, 1),
		newCandle(12, 14, 12, 13, 1),
		newCandle(13, 15, 13, 14, 1),
		newCandle(14, 16, 14, 15, 1),
	}

	series := ATRSeries(candles, 3)

	// Ensure positions lacking history carry the no-value sentinel.
	assert.Equal(t, Valid(series[2]), false)
	assert.Equal(t, Valid(series[3]), true)

	// Ensure the seed averages the first window of true ranges.
	assert.Equal(t, series[3], float64(2))

	// Ensure subsequent entries apply Wilder smoothing.
	assert.Equal(t, series[4], (series[3]*2+2)/3)

	// Ensure the single value variant equals the last series entry.
	assert.Equal(t, ATR(candles, 3), series[5])

	// Ensure insufficient history yields no value.
	assert.Equal(t, Valid(ATR(candles[:3], 3)), false)
}

func TestStdDev(t *testing.T) {
	// Ensure a constant series has zero deviation.
	assert.Equal(t, StdDev([]float64{4, 4, 4, 4}), float64(0))

	// Ensure the population standard deviation is computed.
	assert.Equal(t, StdDev([]float64{2, 4, 4, 4, 5, 5, 7, 9}), float64(2))

	// Ensure an empty series yields no value.
	assert.Equal(t, Valid(StdDev(nil)), false)
}

func TestBollinger(t *testing.T) {
	values := []float64{10, 11, 12, 11, 10, 11, 12, 13, 12, 11}

	result := BollingerSeries(values, 5, 2)

	// Ensure positions lacking history carry the no-value sentinel.
	assert.Equal(t, Valid(result.Upper[3]), false)
	assert.Equal(t, Valid(result.Upper[4]), true)

	// Ensure the bands straddle the middle band symmetrically.
	for idx := range values {
		if !Valid(result.Middle[idx]) || !Valid(result.Upper[idx]) {
			continue
		}
		assert.Equal(t, result.Upper[idx]-result.Middle[idx], result.Middle[idx]-result.Lower[idx])
	}

	// Ensure the single value variants equal the last series entries.
	upper, middle, lower := Bollinger(values, 5, 2)
	assert.Equal(t, upper, lastValid(result.Upper))
	assert.Equal(t, middle, lastValid(result.Middle))
	assert.Equal(t, lower, lastValid(result.Lower))

	// Ensure the bands collapse onto the average for a constant series.
	constant := []float64{6, 6, 6, 6, 6}
	upper, middle, lower = Bollinger(constant, 5, 2)
	assert.Equal(t, upper, float64(6))
	assert.Equal(t, middle, float64(6))
	assert.Equal(t, lower, float64(6))
}

package indicator

import (
	"testing"

	"github.com/peterldowns/testy/assert"
)

func TestRSI(t *testing.T) {
	// Ensure a strictly rising series with no losses yields an rsi of 100.
	rising := []float64{1, 2, 3, 4, 5, 6, 7, 8}
	assert.Equal(t, RSI(rising, 5), float64(100))

	// Ensure positions lacking history carry the no-value sentinel.
	series := RSISeries(rising, 5)
	for idx := 0; idx < 5; idx++ {
		assert.Equal(t, Valid(series[idx]), false)
	}
	assert.Equal(t, Valid(series[5]), true)

	// Ensure the single value variant equals the last series entry.
	mixed := []float64{44, 44.25, 44.5, 43.75, 44.65, 45.12, 45.84, 46.08, 45.89, 46.03,
		45.61, 46.28, 46.28, 46, 46.03, 46.41, 46.22, 45.64}
	mixedSeries := RSISeries(mixed, 14)
	assert.Equal(t, RSI(mixed, 14), mixedSeries[len(mixedSeries)-1])

	// Ensure the rsi stays within its bounds.
	for idx := range mixedSeries {
		if !Valid(mixedSeries[idx]) {
			continue
		}
		assert.LessThanOrEqual(t, mixedSeries[idx], float64(100))
		assert.GreaterThanOrEqual(t, mixedSeries[idx], float64(0))
	}

	// Ensure insufficient history yields no value.
	assert.Equal(t, Valid(RSI([]float64{1, 2, 3}, 14)), false)
}

func TestMACD(t *testing.T) {
	values := []float64{10, 10.5, 11, 10.8, 11.2, 11.6, 11.4, 11.9, 12.3, 12.1,
		12.5, 12.8, 12.6, 13, 13.4, 13.1, 13.5, 13.9, 14.2, 14}

	result := MACDSeries(values, 3, 6, 3)
	assert.Equal(t, len(result.MACD), len(values))
	assert.Equal(t, len(result.Signal), len(values))
	assert.Equal(t, len(result.Histogram), len(values))

	// Ensure the macd line is the fast ema minus the slow ema.
	fast := EMASeries(values, 3)
	slow := EMASeries(values, 6)
	for idx := range values {
		if !Valid(result.MACD[idx]) {
			continue
		}
		assert.Equal(t, result.MACD[idx], fast[idx]-slow[idx])
	}

	// Ensure the histogram is the macd line minus the signal line.
	for idx := range values {
		if !Valid(result.Histogram[idx]) {
			continue
		}
		assert.Equal(t, result.Histogram[idx], result.MACD[idx]-result.Signal[idx])
	}

	// Ensure the single value variants equal the last series entries.
	macd, signal, histogram := MACD(values, 3, 6, 3)
	assert.Equal(t, macd, lastValid(result.MACD))
	assert.Equal(t, signal, lastValid(result.Signal))
	assert.Equal(t, histogram, lastValid(result.Histogram))
}

func TestStochastic(t *testing.T) {
	highs := []float64{12, 13, 14, 15, 14, 13, 15, 16}
	lows := []float64{10, 11, 12, 13, 12, 11, 13, 14}
	closes := []float64{11, 12, 13, 14, 13, 12, 14, 15}

	result := StochasticSeries(highs, lows, closes, 5, 3)

	// Ensure positions lacking history carry the no-value sentinel.
	assert.Equal(t, Valid(result.K[3]), false)
	assert.Equal(t, Valid(result.K[4]), true)

	// Ensure %K stays within its bounds.
	for idx := range result.K {
		if !Valid(result.K[idx]) {
			continue
		}
		assert.LessThanOrEqual(t, result.K[idx], float64(100))
		assert.GreaterThanOrEqual(t, result.K[idx], float64(0))
	}

	// Ensure the single value variants equal the last series entries.
	k, d := Stochastic(highs, lows, closes, 5, 3)
	assert.Equal(t, k, lastValid(result.K))
	assert.Equal(t, d, lastValid(result.D))

	// Ensure a flat window positions the close mid-range.
	flatHighs := []float64{10, 10, 10, 10, 10}
	flatLows := []float64{10, 10, 10, 10, 10}
	flatCloses := []float64{10, 10, 10, 10, 10}
	flatK, _ := Stochastic(flatHighs, flatLows, flatCloses, 5, 3)
	assert.Equal(t, flatK, float64(50))
}

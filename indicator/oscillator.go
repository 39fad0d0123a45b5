package indicator

// RSISeries computes the relative strength index of the provided values
// using Wilder smoothing. The seed averages span the first period price
// changes, smoothed thereafter with avg = (avg*(period-1)+new)/period.
// An average loss of exactly zero yields an RSI of 100.
func RSISeries(values []float64, period int) []float64 {
	series := fill(len(values))
	if period <= 0 || len(values) < period+1 {
		return series
	}

	var gainSum, lossSum float64
	for idx := 1; idx <= period; idx++ {
		change := values[idx] - values[idx-1]
		if change > 0 {
			gainSum += change
		} else {
			lossSum -= change
		}
	}

	avgGain := gainSum / float64(period)
	avgLoss := lossSum / float64(period)
	series[period] = rsiValue(avgGain, avgLoss)

	for idx := period + 1; idx < len(values); idx++ {
		change := values[idx] - values[idx-1]
		var gain, loss float64
		if change > 0 {
			gain = change
		} else {
			loss = -change
		}

		avgGain = (avgGain*float64(period-1) + gain) / float64(period)
		avgLoss = (avgLoss*float64(period-1) + loss) / float64(period)
		series[idx] = rsiValue(avgGain, avgLoss)
	}

	return series
}

// rsiValue derives the rsi from the provided average gain and loss.
func rsiValue(avgGain float64, avgLoss float64) float64 {
	if avgLoss == 0 {
		return 100
	}

	rs := avgGain / avgLoss
	return 100 - (100 / (1 + rs))
}

// RSI computes the relative strength index of the provided values.
func RSI(values []float64, period int) float64 {
	return lastValid(RSISeries(values, period))
}

// MACDResult represents the moving average convergence divergence series.
type MACDResult struct {
	MACD      []float64
	Signal    []float64
	Histogram []float64
}

// MACDSeries computes the macd line (fast ema - slow ema), its signal
// line (ema of the macd line) and the histogram (macd - signal) for the
// provided values.
func MACDSeries(values []float64, fastPeriod int, slowPeriod int, signalPeriod int) MACDResult {
	result := MACDResult{
		MACD:      fill(len(values)),
		Signal:    fill(len(values)),
		Histogram: fill(len(values)),
	}

	fast := EMASeries(values, fastPeriod)
	slow := EMASeries(values, slowPeriod)

	for idx := range values {
		if Valid(fast[idx]) && Valid(slow[idx]) {
			result.MACD[idx] = fast[idx] - slow[idx]
		}
	}

	// The signal line smooths only the computed section of the macd line.
	firstValid := -1
	for idx := range result.MACD {
		if Valid(result.MACD[idx]) {
			firstValid = idx
			break
		}
	}

	if firstValid == -1 {
		return result
	}

	signal := EMASeries(result.MACD[firstValid:], signalPeriod)
	for idx := range signal {
		if Valid(signal[idx]) {
			result.Signal[firstValid+idx] = signal[idx]
			result.Histogram[firstValid+idx] = result.MACD[firstValid+idx] - signal[idx]
		}
	}

	return result
}

// MACD computes the most recent macd, signal and histogram values for
// the provided values.
func MACD(values []float64, fastPeriod int, slowPeriod int, signalPeriod int) (float64, float64, float64) {
	result := MACDSeries(values, fastPeriod, slowPeriod, signalPeriod)
	return lastValid(result.MACD), lastValid(result.Signal), lastValid(result.Histogram)
}

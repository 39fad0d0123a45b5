package pattern

import (
	"marketsignal/shared"
)

// Context carries the surrounding market state used to qualify and
// grade pattern matches.
type Context struct {
	// AverageVolume is the average volume of the recent candles.
	AverageVolume float64
	// Trend is the prevailing trend surrounding the evaluated candle.
	Trend shared.TrendContext
}

// DetectAll evaluates every pattern the provided data can support and
// returns the matched subset in evaluation order. Single candle
// patterns are always evaluated. Two candle patterns require prev.
// Three and five candle patterns require history, a chronological
// series ending with the evaluated candle, of at least three and five
// candles respectively.
func DetectAll(candle *shared.Candlestick, ctx Context, prev *shared.Candlestick, history []*shared.Candlestick) []Result {
	results := make([]Result, 0, 8)

	evaluated := []Result{
		Doji(candle, ctx.AverageVolume, ctx.Trend),
		DragonflyDoji(candle, ctx.AverageVolume, ctx.Trend),
		GravestoneDoji(candle, ctx.AverageVolume, ctx.Trend),
		Hammer(candle, ctx.AverageVolume, ctx.Trend),
		HangingMan(candle, ctx.AverageVolume, ctx.Trend),
		InvertedHammer(candle, ctx.AverageVolume, ctx.Trend),
		ShootingStar(candle, ctx.AverageVolume, ctx.Trend),
		BullishMarubozu(candle, ctx.AverageVolume, ctx.Trend),
		BearishMarubozu(candle, ctx.AverageVolume, ctx.Trend),
		SpinningTop(candle, ctx.AverageVolume, ctx.Trend),
	}

	if prev != nil {
		evaluated = append(evaluated,
			BullishEngulfing(candle, prev, ctx.AverageVolume, ctx.Trend),
			BearishEngulfing(candle, prev, ctx.AverageVolume, ctx.Trend),
			BullishHarami(candle, prev, ctx.AverageVolume, ctx.Trend),
			BearishHarami(candle, prev, ctx.AverageVolume, ctx.Trend),
			PiercingLine(candle, prev, ctx.AverageVolume, ctx.Trend),
			DarkCloudCover(candle, prev, ctx.AverageVolume, ctx.Trend),
			TweezerBottom(candle, prev, ctx.AverageVolume, ctx.Trend),
			TweezerTop(candle, prev, ctx.AverageVolume, ctx.Trend),
		)
	}

	if len(history) >= 3 {
		first := history[len(history)-3]
		second := history[len(history)-2]
		evaluated = append(evaluated,
			MorningStar(first, second, candle, ctx.AverageVolume, ctx.Trend),
			EveningStar(first, second, candle, ctx.AverageVolume, ctx.Trend),
			ThreeWhiteSoldiers(first, second, candle, ctx.AverageVolume, ctx.Trend),
			ThreeBlackCrows(first, second, candle, ctx.AverageVolume, ctx.Trend),
			ThreeInsideUp(first, second, candle, ctx.AverageVolume, ctx.Trend),
			ThreeInsideDown(first, second, candle, ctx.AverageVolume, ctx.Trend),
		)
	}

	if len(history) >= methodsCandleCount {
		evaluated = append(evaluated,
			RisingThreeMethods(history, ctx.AverageVolume, ctx.Trend),
			FallingThreeMethods(history, ctx.AverageVolume, ctx.Trend),
		)
	}

	for idx := range evaluated {
		if evaluated[idx].Matched {
			results = append(results, evaluated[idx])
		}
	}

	return results
}

// BestMatch returns the strongest matched pattern from the provided
// data, with ties resolved in favour of the earliest evaluated pattern.
// The boolean reports whether any pattern matched at all.
func BestMatch(candle *shared.Candlestick, ctx Context, prev *shared.Candlestick, history []*shared.Candlestick) (Result, bool) {
	matches := DetectAll(candle, ctx, prev, history)
	if len(matches) == 0 {
		return Result{}, false
	}

	best := matches[0]
	for idx := 1; idx < len(matches); idx++ {
		if matches[idx].Strength > best.Strength {
			best = matches[idx]
		}
	}

	return best, true
}

package strategy

import (
	"math"

	"marketsignal/shared"
)

// Entry derives an entry signal from the provided detection state. The
// current price must still be beyond the pivot-to-sweep extreme at call
// time, not just at detection time; a close that sagged back inside the
// range since the breakout confirmed no longer qualifies. The entry
// price is offset beyond the current close by an atr-scaled buffer.
func (e *Engine) Entry(candles []*shared.Candlestick, state PatternState) (shared.EntrySignal, bool) {
	if !state.Found || len(candles) == 0 {
		return shared.EntrySignal{}, false
	}

	last := candles[len(candles)-1]
	buffer := state.ATRAtBreakout * e.cfg.EntryBufferMultiplier

	var price float64
	switch state.Direction {
	case shared.Long:
		if last.Close <= state.ExtremeLevel {
			return shared.EntrySignal{}, false
		}
		price = last.Close + buffer
	case shared.Short:
		if last.Close >= state.ExtremeLevel {
			return shared.EntrySignal{}, false
		}
		price = last.Close - buffer
	default:
		return shared.EntrySignal{}, false
	}

	stop, ok := e.Stops(state)
	if !ok {
		return shared.EntrySignal{}, false
	}

	signal := shared.NewEntrySignal(last.Market, last.Timeframe, state.Direction, price,
		stop, state.QualityScore, state.Reason, last.Date)

	return signal, true
}

// Stops derives the initial stop for the provided detection state: the
// worse of the pivot and sweep levels, offset further by the atr-scaled
// buffer.
func (e *Engine) Stops(state PatternState) (float64, bool) {
	if !state.Found {
		return 0, false
	}

	buffer := state.ATRAtBreakout * e.cfg.EntryBufferMultiplier

	switch state.Direction {
	case shared.Long:
		return math.Min(state.PivotLevel, state.SweepLevel) - buffer, true
	case shared.Short:
		return math.Max(state.PivotLevel, state.SweepLevel) + buffer, true
	default:
		return 0, false
	}
}

// Exit derives an exit signal when price recrosses the sweep level
// against the position's direction, invalidating the pattern regardless
// of profit or loss.
func (e *Engine) Exit(candles []*shared.Candlestick, state PatternState) (shared.ExitSignal, bool) {
	if !state.Found || len(candles) == 0 {
		return shared.ExitSignal{}, false
	}

	last := candles[len(candles)-1]

	switch state.Direction {
	case shared.Long:
		if last.Close >= state.SweepLevel {
			return shared.ExitSignal{}, false
		}
	case shared.Short:
		if last.Close <= state.SweepLevel {
			return shared.ExitSignal{}, false
		}
	default:
		return shared.ExitSignal{}, false
	}

	signal := shared.NewExitSignal(last.Market, last.Timeframe, state.Direction.Opposite(),
		last.Close, "price recrossed the sweep level", last.Date)

	return signal, true
}

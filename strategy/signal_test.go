package strategy

import (
	"testing"

	"github.com/peterldowns/testy/assert"

	"marketsignal/shared"
)

// longState mirrors the detection produced over longSweepBars.
func longState() PatternState {
	return PatternState{
		Found:         true,
		Direction:     shared.Long,
		PivotIndex:    4,
		SweepIndex:    8,
		BreakoutIndex: 13,
		PivotLevel:    10.0,
		SweepLevel:    9.4,
		ExtremeLevel:  11.7,
		BreakoutLevel: 13.2,
		QualityScore:  0.8,
		ATRAtBreakout: 0.5,
		Reason:        "pivot sweep and breakout confirmed",
	}
}

// shortState mirrors the detection produced over shortSweepBars.
func shortState() PatternState {
	state := longState()
	state.Direction = shared.Short
	state.PivotLevel = 14.0
	state.SweepLevel = 14.6
	state.ExtremeLevel = 12.3
	state.BreakoutLevel = 10.8
	return state
}

func TestEntry(t *testing.T) {
	// Ensure an entry is produced only while price holds beyond the
	// pivot-to-sweep extreme, offset by the atr buffer.
	cfg := testConfig()
	engine, err := NewEngine(cfg)
	assert.NoError(t, err)

	state := longState()
	last := bar(12.8, 13.3, 12.6, 13.2)

	signal, ok := engine.Entry([]*shared.Candlestick{last}, state)
	assert.True(t, ok)
	assert.Equal(t, shared.Long, signal.Direction)
	assert.Equal(t, last.Close+state.ATRAtBreakout*cfg.EntryBufferMultiplier, signal.Price)
	assert.Equal(t, state.SweepLevel-state.ATRAtBreakout*cfg.EntryBufferMultiplier, signal.StopLoss)
	assert.Equal(t, state.QualityScore, signal.Quality)

	// Price back inside the pivot-to-sweep range yields no entry.
	_, ok = engine.Entry([]*shared.Candlestick{bar(11.4, 11.7, 11.2, 11.5)}, state)
	assert.False(t, ok)

	// A miss yields no entry.
	_, ok = engine.Entry([]*shared.Candlestick{last}, notFound("no trend"))
	assert.False(t, ok)
}

func TestEntryFromDetection(t *testing.T) {
	// Ensure a detection over a candle window always yields an entry on
	// that same window when the breakout confirmed on the latest bar.
	cfg := testConfig()
	engine, err := NewEngine(cfg)
	assert.NoError(t, err)

	bars := longSweepBars()
	master := shared.MasterSymbolInfo{Symbol: "ES", MasterScore: 5, Direction: shared.Long}
	state := engine.Detect(bars, master)
	assert.True(t, state.Found)

	last := bars[len(bars)-1]
	signal, ok := engine.Entry(bars, state)
	assert.True(t, ok)
	assert.Equal(t, shared.Long, signal.Direction)
	assert.Equal(t, last.Close+state.ATRAtBreakout*cfg.EntryBufferMultiplier, signal.Price)
	assert.True(t, signal.Price > signal.StopLoss)

	shortBars := shortSweepBars()
	master = shared.MasterSymbolInfo{Symbol: "ES", MasterScore: -5, Direction: shared.Short}
	state = engine.Detect(shortBars, master)
	assert.True(t, state.Found)

	last = shortBars[len(shortBars)-1]
	signal, ok = engine.Entry(shortBars, state)
	assert.True(t, ok)
	assert.Equal(t, shared.Short, signal.Direction)
	assert.Equal(t, last.Close-state.ATRAtBreakout*cfg.EntryBufferMultiplier, signal.Price)
	assert.True(t, signal.Price < signal.StopLoss)
}

func TestEntryShort(t *testing.T) {
	// Ensure short entries offset the price downwards and stop above the
	// sweep level.
	cfg := testConfig()
	engine, err := NewEngine(cfg)
	assert.NoError(t, err)

	state := shortState()
	last := bar(11.6, 11.7, 11.3, 11.4)

	signal, ok := engine.Entry([]*shared.Candlestick{last}, state)
	assert.True(t, ok)
	assert.Equal(t, shared.Short, signal.Direction)
	assert.Equal(t, last.Close-state.ATRAtBreakout*cfg.EntryBufferMultiplier, signal.Price)
	assert.Equal(t, state.SweepLevel+state.ATRAtBreakout*cfg.EntryBufferMultiplier, signal.StopLoss)

	_, ok = engine.Entry([]*shared.Candlestick{bar(12.3, 12.6, 12.2, 12.5)}, state)
	assert.False(t, ok)
}

func TestStops(t *testing.T) {
	// Ensure the stop sits beyond the worse of the pivot and sweep levels.
	cfg := testConfig()
	engine, err := NewEngine(cfg)
	assert.NoError(t, err)

	buffer := 0.5 * cfg.EntryBufferMultiplier

	stop, ok := engine.Stops(longState())
	assert.True(t, ok)
	assert.Equal(t, 9.4-buffer, stop)

	stop, ok = engine.Stops(shortState())
	assert.True(t, ok)
	assert.Equal(t, 14.6+buffer, stop)

	_, ok = engine.Stops(notFound("no trend"))
	assert.False(t, ok)
}

func TestExit(t *testing.T) {
	// Ensure an exit fires once price recrosses the sweep level against
	// the position, regardless of profit or loss.
	engine, err := NewEngine(testConfig())
	assert.NoError(t, err)

	state := longState()

	// Above the sweep level the position holds.
	_, ok := engine.Exit([]*shared.Candlestick{bar(9.6, 9.8, 9.4, 9.5)}, state)
	assert.False(t, ok)

	// A close back below the sweep level invalidates the pattern.
	signal, ok := engine.Exit([]*shared.Candlestick{bar(9.5, 9.6, 9.2, 9.3)}, state)
	assert.True(t, ok)
	assert.Equal(t, shared.Short, signal.Direction)
	assert.Equal(t, 9.3, signal.Price)

	short := shortState()
	_, ok = engine.Exit([]*shared.Candlestick{bar(14.4, 14.6, 14.3, 14.5)}, short)
	assert.False(t, ok)

	signal, ok = engine.Exit([]*shared.Candlestick{bar(14.6, 14.9, 14.5, 14.8)}, short)
	assert.True(t, ok)
	assert.Equal(t, shared.Long, signal.Direction)
}

package strategy

import (
	"fmt"
	"math"

	"github.com/rs/zerolog"

	"marketsignal/indicator"
	"marketsignal/shared"
)

const (
	// minHealthySpan is the minimum pivot-to-breakout span (in bars)
	// before the structure score is penalized.
	minHealthySpan = 5
	// maxHealthySpan is the maximum pivot-to-breakout span (in bars)
	// before the structure score is penalized.
	maxHealthySpan = 40
	// spanPenalty is the structure score penalty for unhealthy spans.
	spanPenalty = 0.3
	// structureWeight weighs the structure score in the quality score.
	structureWeight = 0.6
	// volatilityWeight weighs the volatility score in the quality score.
	volatilityWeight = 0.4
)

// Config represents the strategy engine configuration.
type Config struct {
	// MinMasterConfidence is the minimum absolute master score required
	// to run a detection scan.
	MinMasterConfidence float64
	// FastEMAPeriod is the fast ema period of the trend filter.
	FastEMAPeriod int
	// SlowEMAPeriod is the slow ema period of the trend filter.
	SlowEMAPeriod int
	// TrendLookback is the number of closing bars the trend filter examines.
	TrendLookback int
	// PivotLookback is the symmetric window width for swing pivot detection.
	PivotLookback int
	// MaxPivotAge is the maximum age (in bars) of a usable pivot.
	MaxPivotAge int
	// ATRPeriod is the average true range period.
	ATRPeriod int
	// SweepMultiplier scales the atr to the minimum sweep breach depth.
	SweepMultiplier float64
	// MinBreakoutGap is the minimum number of bars between the sweep and
	// a breakout confirmation.
	MinBreakoutGap int
	// EntryBufferMultiplier scales the atr to the entry and stop buffer.
	EntryBufferMultiplier float64
	// MinVolatilityRatio is the lower bound of the healthy atr to price band.
	MinVolatilityRatio float64
	// MaxVolatilityRatio is the upper bound of the healthy atr to price band.
	MaxVolatilityRatio float64
	// Logger represents the application logger.
	Logger *zerolog.Logger
}

// DefaultConfig returns the strategy engine defaults.
func DefaultConfig(logger *zerolog.Logger) *Config {
	return &Config{
		MinMasterConfidence:   2.0,
		FastEMAPeriod:         9,
		SlowEMAPeriod:         21,
		TrendLookback:         10,
		PivotLookback:         5,
		MaxPivotAge:           50,
		ATRPeriod:             14,
		SweepMultiplier:       0.3,
		MinBreakoutGap:        3,
		EntryBufferMultiplier: 0.1,
		MinVolatilityRatio:    0.0015,
		MaxVolatilityRatio:    0.03,
		Logger:                logger,
	}
}

// Validate asserts the config has sane inputs.
func (cfg *Config) Validate() error {
	if cfg.FastEMAPeriod >= cfg.SlowEMAPeriod {
		return fmt.Errorf("fast ema period (%d) must be below the slow ema period (%d)",
			cfg.FastEMAPeriod, cfg.SlowEMAPeriod)
	}
	if cfg.MinBreakoutGap < 1 {
		return fmt.Errorf("minimum breakout gap must be at least one bar, got %d", cfg.MinBreakoutGap)
	}
	if cfg.MinVolatilityRatio >= cfg.MaxVolatilityRatio {
		return fmt.Errorf("volatility band is inverted: %f..%f",
			cfg.MinVolatilityRatio, cfg.MaxVolatilityRatio)
	}

	return nil
}

// Engine detects pivot, liquidity sweep and breakout sequences from bar
// history. Detection is pure with respect to shared state; distinct
// markets may be scanned concurrently, but a single market assumes at
// most one in-flight evaluation at a time.
type Engine struct {
	cfg *Config
}

// NewEngine initializes a new strategy engine.
func NewEngine(cfg *Config) (*Engine, error) {
	err := cfg.Validate()
	if err != nil {
		return nil, fmt.Errorf("validating strategy config: %w", err)
	}

	return &Engine{cfg: cfg}, nil
}

// candidate represents one pivot that produced a sweep and breakout.
type candidate struct {
	pivotIndex    int
	sweepIndex    int
	breakoutIndex int
	pivotLevel    float64
	sweepLevel    float64
	extremeLevel  float64
	breakoutLevel float64
}

// Detect runs a full detection scan over the provided candles using the
// provided master score as a directional gate. It returns a fresh state
// on every call.
func (e *Engine) Detect(candles []*shared.Candlestick, master shared.MasterSymbolInfo) PatternState {
	if math.Abs(master.MasterScore) < e.cfg.MinMasterConfidence {
		return notFound("master confidence below minimum")
	}

	direction, ok := e.trendDirection(candles)
	if !ok {
		return notFound("no consistent trend over the lookback window")
	}

	if direction != master.Direction && e.cfg.Logger != nil {
		// The technical trend takes precedence over the master direction.
		e.cfg.Logger.Debug().Msgf("%s: trend direction %s overrides master direction %s",
			master.Symbol, direction.String(), master.Direction.String())
	}

	atr := indicator.ATRSeries(candles, e.cfg.ATRPeriod)

	best, found := e.scanCandidates(candles, atr, direction)
	if !found {
		return notFound("no pivot produced a swept and confirmed breakout")
	}

	atrAtBreakout := atr[best.breakoutIndex]
	if !indicator.Valid(atrAtBreakout) || !validLevel(best.pivotLevel) ||
		!validLevel(best.sweepLevel) || !validLevel(best.extremeLevel) ||
		!validLevel(best.breakoutLevel) {
		return notFound("degenerate levels at breakout")
	}

	structureScore := e.structureScore(best)
	volatilityScore := e.volatilityScore(atrAtBreakout, candles[best.breakoutIndex].Close)
	qualityScore := clamp(structureWeight*structureScore+volatilityWeight*volatilityScore, 0, 1)

	return PatternState{
		Found:           true,
		Direction:       direction,
		PivotIndex:      best.pivotIndex,
		SweepIndex:      best.sweepIndex,
		BreakoutIndex:   best.breakoutIndex,
		PivotLevel:      best.pivotLevel,
		SweepLevel:      best.sweepLevel,
		ExtremeLevel:    best.extremeLevel,
		BreakoutLevel:   best.breakoutLevel,
		StructureScore:  structureScore,
		VolatilityScore: volatilityScore,
		QualityScore:    qualityScore,
		ATRAtBreakout:   atrAtBreakout,
		Reason:          "pivot sweep and breakout confirmed",
	}
}

// trendDirection applies the ema trend filter: every close over the
// lookback window must lie strictly above both emas for an uptrend or
// strictly below both for a downtrend. A mixed window aborts detection.
func (e *Engine) trendDirection(candles []*shared.Candlestick) (shared.Direction, bool) {
	if len(candles) < e.cfg.SlowEMAPeriod+e.cfg.TrendLookback {
		return shared.NeutralDirection, false
	}

	closes := make([]float64, len(candles))
	for idx := range candles {
		closes[idx] = candles[idx].Close
	}

	fast := indicator.EMASeries(closes, e.cfg.FastEMAPeriod)
	slow := indicator.EMASeries(closes, e.cfg.SlowEMAPeriod)

	above, below := true, true
	for idx := len(candles) - e.cfg.TrendLookback; idx < len(candles); idx++ {
		if !indicator.Valid(fast[idx]) || !indicator.Valid(slow[idx]) {
			return shared.NeutralDirection, false
		}

		if closes[idx] <= fast[idx] || closes[idx] <= slow[idx] {
			above = false
		}
		if closes[idx] >= fast[idx] || closes[idx] >= slow[idx] {
			below = false
		}
	}

	switch {
	case above:
		return shared.Long, true
	case below:
		return shared.Short, true
	default:
		return shared.NeutralDirection, false
	}
}

// scanCandidates walks every usable pivot and returns the candidate
// whose breakout confirmed most recently.
func (e *Engine) scanCandidates(candles []*shared.Candlestick, atr []float64, direction shared.Direction) (candidate, bool) {
	var best candidate
	var found bool

	pivots := e.findPivots(candles, direction)
	for idx := range pivots {
		cand, ok := e.buildCandidate(candles, atr, direction, pivots[idx])
		if !ok {
			continue
		}

		if !found || cand.breakoutIndex > best.breakoutIndex {
			best = cand
			found = true
		}
	}

	return best, found
}

// findPivots locates swing pivots: bars whose low (high) is strictly
// beyond every other low (high) within the symmetric lookback window.
// Pivots older than the maximum age are ignored.
func (e *Engine) findPivots(candles []*shared.Candlestick, direction shared.Direction) []int {
	pivots := make([]int, 0, 4)
	window := e.cfg.PivotLookback

	oldest := len(candles) - 1 - e.cfg.MaxPivotAge
	for idx := window; idx < len(candles)-window; idx++ {
		if idx < oldest {
			continue
		}

		isPivot := true
		for k := idx - window; k <= idx+window; k++ {
			if k == idx {
				continue
			}

			switch direction {
			case shared.Long:
				if candles[k].Low <= candles[idx].Low {
					isPivot = false
				}
			case shared.Short:
				if candles[k].High >= candles[idx].High {
					isPivot = false
				}
			}

			if !isPivot {
				break
			}
		}

		if isPivot {
			pivots = append(pivots, idx)
		}
	}

	return pivots
}

// buildCandidate scans forward from the provided pivot for a liquidity
// sweep and a confirmed breakout. The sweep is the first bar breaching
// the pivot level by at least atr times the sweep multiplier; the
// breakout is the last bar after the minimum gap whose close exceeds the
// pivot-to-sweep extreme.
func (e *Engine) buildCandidate(candles []*shared.Candlestick, atr []float64, direction shared.Direction, pivotIndex int) (candidate, bool) {
	var pivotLevel float64
	switch direction {
	case shared.Long:
		pivotLevel = candles[pivotIndex].Low
	case shared.Short:
		pivotLevel = candles[pivotIndex].High
	}

	// Locate the sweep.
	sweepIndex := -1
	var sweepLevel float64
	for idx := pivotIndex + 1; idx < len(candles); idx++ {
		if !indicator.Valid(atr[idx]) {
			continue
		}

		breach := atr[idx] * e.cfg.SweepMultiplier
		switch direction {
		case shared.Long:
			if candles[idx].Low <= pivotLevel-breach {
				sweepIndex = idx
				sweepLevel = candles[idx].Low
			}
		case shared.Short:
			if candles[idx].High >= pivotLevel+breach {
				sweepIndex = idx
				sweepLevel = candles[idx].High
			}
		}

		if sweepIndex != -1 {
			break
		}
	}

	if sweepIndex == -1 {
		return candidate{}, false
	}

	// The breakout must clear the extreme printed between the pivot and
	// the sweep.
	var extreme float64
	switch direction {
	case shared.Long:
		extreme = math.Inf(-1)
		for idx := pivotIndex; idx <= sweepIndex; idx++ {
			if candles[idx].High > extreme {
				extreme = candles[idx].High
			}
		}
	case shared.Short:
		extreme = math.Inf(1)
		for idx := pivotIndex; idx <= sweepIndex; idx++ {
			if candles[idx].Low < extreme {
				extreme = candles[idx].Low
			}
		}
	}

	// Later qualifying closes supersede earlier ones; the last such bar
	// is the confirmed breakout.
	breakoutIndex := -1
	var breakoutLevel float64
	for idx := sweepIndex + e.cfg.MinBreakoutGap; idx < len(candles); idx++ {
		switch direction {
		case shared.Long:
			if candles[idx].Close > extreme {
				breakoutIndex = idx
				breakoutLevel = candles[idx].Close
			}
		case shared.Short:
			if candles[idx].Close < extreme {
				breakoutIndex = idx
				breakoutLevel = candles[idx].Close
			}
		}
	}

	if breakoutIndex == -1 {
		return candidate{}, false
	}

	return candidate{
		pivotIndex:    pivotIndex,
		sweepIndex:    sweepIndex,
		breakoutIndex: breakoutIndex,
		pivotLevel:    pivotLevel,
		sweepLevel:    sweepLevel,
		extremeLevel:  extreme,
		breakoutLevel: breakoutLevel,
	}, true
}

// structureScore grades the pivot-to-breakout span, penalizing spans
// that are too compressed or too drawn out.
func (e *Engine) structureScore(cand candidate) float64 {
	score := 1.0

	span := cand.breakoutIndex - cand.pivotIndex
	if span < minHealthySpan || span > maxHealthySpan {
		score -= spanPenalty
	}

	return clamp(score, 0, 1)
}

// volatilityScore grades the atr to price ratio at the breakout,
// rewarding ratios inside the healthy band and discounting markets that
// are too quiet or too wild.
func (e *Engine) volatilityScore(atrAtBreakout float64, price float64) float64 {
	if price <= 0 {
		return 0
	}

	ratio := atrAtBreakout / price
	switch {
	case ratio < e.cfg.MinVolatilityRatio:
		return clamp(ratio/e.cfg.MinVolatilityRatio, 0, 1)
	case ratio > e.cfg.MaxVolatilityRatio:
		return clamp(e.cfg.MaxVolatilityRatio/ratio, 0, 1)
	default:
		return 1
	}
}

// clamp constrains the provided value to the provided bounds.
func clamp(value float64, low float64, high float64) float64 {
	return math.Max(low, math.Min(high, value))
}

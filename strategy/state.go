package strategy

import (
	"math"

	"marketsignal/shared"
)

// PatternState represents the outcome of one detection scan. A fresh
// state is produced on every re-evaluation and never mutated in place
// or shared across markets.
type PatternState struct {
	Found           bool
	Direction       shared.Direction
	PivotIndex      int
	SweepIndex      int
	BreakoutIndex   int
	PivotLevel      float64
	SweepLevel      float64
	ExtremeLevel    float64
	BreakoutLevel   float64
	StructureScore  float64
	VolatilityScore float64
	QualityScore    float64
	ATRAtBreakout   float64
	Reason          string
}

// notFound returns an empty state carrying the provided reason.
func notFound(reason string) PatternState {
	return PatternState{Reason: reason}
}

// validLevel reports whether the provided price level is finite and positive.
func validLevel(level float64) bool {
	return !math.IsNaN(level) && !math.IsInf(level, 0) && level > 0
}

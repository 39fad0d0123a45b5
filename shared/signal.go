package shared

import (
	"time"
)

// EntrySignal represents an entry signal for a position.
type EntrySignal struct {
	Market    string
	Timeframe Timeframe
	Direction Direction
	Price     float64
	StopLoss  float64
	Quality   float64
	Reason    string
	CreatedOn time.Time
}

// NewEntrySignal initializes a new entry signal.
func NewEntrySignal(market string, timeframe Timeframe, direction Direction, price float64,
	stopLoss float64, quality float64, reason string, created time.Time) EntrySignal {
	return EntrySignal{
		Market:    market,
		Timeframe: timeframe,
		Direction: direction,
		Price:     price,
		StopLoss:  stopLoss,
		Quality:   quality,
		Reason:    reason,
		CreatedOn: created,
	}
}

// ExitSignal represents an exit signal for a position.
type ExitSignal struct {
	Market    string
	Timeframe Timeframe
	Direction Direction
	Price     float64
	Reason    string
	CreatedOn time.Time
}

// NewExitSignal initializes a new exit signal.
func NewExitSignal(market string, timeframe Timeframe, direction Direction, price float64,
	reason string, created time.Time) ExitSignal {
	return ExitSignal{
		Market:    market,
		Timeframe: timeframe,
		Direction: direction,
		Price:     price,
		Reason:    reason,
		CreatedOn: created,
	}
}

package shared

import "time"

// Tick represents a decoded market data snapshot for a market. Raw
// protocol field tags are decoded into named fields at the broker
// boundary and never propagate past it.
type Tick struct {
	Market    string
	Bid       float64
	Ask       float64
	Last      float64
	LastSize  float64
	High      float64
	Low       float64
	Close     float64
	Volume    float64
	Timestamp time.Time
}

// MasterSymbolInfo represents the externally computed composite
// directional score for a market. It is read-only input used purely
// as a gate and bias for strategy detection.
type MasterSymbolInfo struct {
	Symbol      string
	MasterScore float64
	Direction   Direction
}

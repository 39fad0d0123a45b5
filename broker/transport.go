package broker

import (
	"context"

	"marketsignal/shared"
)

// TransportCallbacks represents the event handlers a transport invokes
// as broker frames arrive. Callbacks may be invoked from the transport
// read loop and must not block.
type TransportCallbacks struct {
	// OnReady signals the readiness handshake completed, carrying the
	// next valid order id.
	OnReady func(nextOrderID int64)
	// OnTick relays a decoded market data snapshot for a request id.
	OnTick func(reqID int64, tick shared.Tick)
	// OnHistoricalBatch relays a batch of historical bars for a request
	// id, with done set on the final batch.
	OnHistoricalBatch func(reqID int64, bars []shared.Candlestick, done bool)
	// OnAccountUpdate relays the account id tied to the session.
	OnAccountUpdate func(accountID string)
	// OnError relays a broker error event.
	OnError func(reqID int64, code int, message string)
	// OnClosed signals the transport link terminated.
	OnClosed func(err error)
}

// Transport represents the wire link to the broker endpoint.
type Transport interface {
	// Dial establishes the link and starts dispatching events to the
	// provided callbacks.
	Dial(ctx context.Context, clientID int64, callbacks TransportCallbacks) error
	// Close terminates the link.
	Close() error
	// RequestMarketData starts a streaming market data request.
	RequestMarketData(reqID int64, symbol string) error
	// CancelMarketData cancels a streaming market data request.
	CancelMarketData(reqID int64) error
	// RequestHistoricalData requests a batch of historical bars.
	RequestHistoricalData(reqID int64, symbol string, timeframe shared.Timeframe, barCount int) error
	// RequestCurrentTime issues the protocol keep-alive request.
	RequestCurrentTime() error
}

package broker

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/tidwall/gjson"

	"marketsignal/shared"
)

// Broker frame types.
const (
	frameStartAPI           = "startApi"
	frameNextValidID        = "nextValidId"
	frameTickPrice          = "tickPrice"
	frameHistoricalData     = "historicalData"
	frameAccountUpdate      = "accountUpdate"
	frameError              = "error"
	frameRequestMarketData  = "reqMktData"
	frameCancelMarketData   = "cancelMktData"
	frameRequestHistorical  = "reqHistoricalData"
	frameRequestCurrentTime = "reqCurrentTime"
)

// Numeric tick field tags used by the brokerage wire protocol. Decoded
// once here; the tags never escape this package.
const (
	fieldBid      = "1"
	fieldAsk      = "2"
	fieldLast     = "4"
	fieldLastSize = "5"
	fieldHigh     = "6"
	fieldLow      = "7"
	fieldVolume   = "8"
	fieldClose    = "9"
)

// frame represents an outbound broker request.
type frame struct {
	Type      string `json:"type"`
	ReqID     int64  `json:"reqId,omitempty"`
	ClientID  int64  `json:"clientId,omitempty"`
	Symbol    string `json:"symbol,omitempty"`
	Timeframe string `json:"timeframe,omitempty"`
	BarCount  int    `json:"barCount,omitempty"`
}

// WebsocketTransport implements the broker transport over a websocket
// link carrying json frames.
type WebsocketTransport struct {
	url    string
	logger *zerolog.Logger

	connMtx sync.Mutex
	conn    *websocket.Conn
}

// NewWebsocketTransport initializes a websocket transport for the
// provided broker endpoint.
func NewWebsocketTransport(url string, logger *zerolog.Logger) *WebsocketTransport {
	return &WebsocketTransport{
		url:    url,
		logger: logger,
	}
}

// Dial establishes the websocket link, announces the client id and
// starts the frame read loop.
func (t *WebsocketTransport) Dial(ctx context.Context, clientID int64, callbacks TransportCallbacks) error {
	conn, resp, err := websocket.DefaultDialer.DialContext(ctx, t.url, nil)
	if err != nil {
		return fmt.Errorf("dialing %s: %w", t.url, err)
	}
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}

	t.connMtx.Lock()
	t.conn = conn
	t.connMtx.Unlock()

	err = t.write(frame{Type: frameStartAPI, ClientID: clientID})
	if err != nil {
		conn.Close()
		return fmt.Errorf("announcing client id %d: %w", clientID, err)
	}

	go t.readLoop(conn, callbacks)

	return nil
}

// Close terminates the websocket link.
func (t *WebsocketTransport) Close() error {
	t.connMtx.Lock()
	defer t.connMtx.Unlock()

	if t.conn == nil {
		return nil
	}

	err := t.conn.Close()
	t.conn = nil

	return err
}

// RequestMarketData starts a streaming market data request.
func (t *WebsocketTransport) RequestMarketData(reqID int64, symbol string) error {
	return t.write(frame{Type: frameRequestMarketData, ReqID: reqID, Symbol: symbol})
}

// CancelMarketData cancels a streaming market data request.
func (t *WebsocketTransport) CancelMarketData(reqID int64) error {
	return t.write(frame{Type: frameCancelMarketData, ReqID: reqID})
}

// RequestHistoricalData requests a batch of historical bars.
func (t *WebsocketTransport) RequestHistoricalData(reqID int64, symbol string, timeframe shared.Timeframe, barCount int) error {
	return t.write(frame{
		Type:      frameRequestHistorical,
		ReqID:     reqID,
		Symbol:    symbol,
		Timeframe: timeframe.String(),
		BarCount:  barCount,
	})
}

// RequestCurrentTime issues the protocol keep-alive request.
func (t *WebsocketTransport) RequestCurrentTime() error {
	return t.write(frame{Type: frameRequestCurrentTime})
}

// write marshals and sends the provided frame on the link.
func (t *WebsocketTransport) write(payload frame) error {
	msg, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshaling %s frame: %w", payload.Type, err)
	}

	t.connMtx.Lock()
	defer t.connMtx.Unlock()

	if t.conn == nil {
		return fmt.Errorf("transport link is not established")
	}

	return t.conn.WriteMessage(websocket.TextMessage, msg)
}

// readLoop reads frames off the link until it terminates.
func (t *WebsocketTransport) readLoop(conn *websocket.Conn, callbacks TransportCallbacks) {
	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			if callbacks.OnClosed != nil {
				callbacks.OnClosed(err)
			}
			return
		}

		t.dispatch(msg, callbacks)
	}
}

// dispatch decodes the provided inbound frame and relays it to the
// matching callback.
func (t *WebsocketTransport) dispatch(msg []byte, callbacks TransportCallbacks) {
	kind := gjson.GetBytes(msg, "type").String()
	reqID := gjson.GetBytes(msg, "reqId").Int()

	switch kind {
	case frameNextValidID:
		if callbacks.OnReady != nil {
			callbacks.OnReady(gjson.GetBytes(msg, "orderId").Int())
		}
	case frameTickPrice:
		if callbacks.OnTick != nil {
			callbacks.OnTick(reqID, decodeTick(msg))
		}
	case frameHistoricalData:
		if callbacks.OnHistoricalBatch != nil {
			bars := decodeBars(gjson.GetBytes(msg, "bars"))
			callbacks.OnHistoricalBatch(reqID, bars, gjson.GetBytes(msg, "complete").Bool())
		}
	case frameAccountUpdate:
		if callbacks.OnAccountUpdate != nil {
			callbacks.OnAccountUpdate(gjson.GetBytes(msg, "account").String())
		}
	case frameError:
		if callbacks.OnError != nil {
			code := int(gjson.GetBytes(msg, "code").Int())
			callbacks.OnError(reqID, code, gjson.GetBytes(msg, "message").String())
		}
	default:
		t.logger.Debug().Msgf("dropping unknown frame type: %q", kind)
	}
}

// decodeTick decodes the field-tagged tick payload of the provided
// frame into a named snapshot.
func decodeTick(msg []byte) shared.Tick {
	var tick shared.Tick

	gjson.GetBytes(msg, "fields").ForEach(func(key gjson.Result, value gjson.Result) bool {
		switch key.String() {
		case fieldBid:
			tick.Bid = value.Float()
		case fieldAsk:
			tick.Ask = value.Float()
		case fieldLast:
			tick.Last = value.Float()
		case fieldLastSize:
			tick.LastSize = value.Float()
		case fieldHigh:
			tick.High = value.Float()
		case fieldLow:
			tick.Low = value.Float()
		case fieldVolume:
			tick.Volume = value.Float()
		case fieldClose:
			tick.Close = value.Float()
		}

		return true
	})

	if unix := gjson.GetBytes(msg, "time").Int(); unix > 0 {
		tick.Timestamp = time.Unix(unix, 0).UTC()
	} else {
		tick.Timestamp = time.Now().UTC()
	}

	return tick
}

// decodeBars decodes a historical bar batch. Market and timeframe are
// stamped by the caller that issued the request.
func decodeBars(batch gjson.Result) []shared.Candlestick {
	entries := batch.Array()
	bars := make([]shared.Candlestick, 0, len(entries))

	for idx := range entries {
		entry := entries[idx]
		bars = append(bars, shared.Candlestick{
			Open:   entry.Get("open").Float(),
			High:   entry.Get("high").Float(),
			Low:    entry.Get("low").Float(),
			Close:  entry.Get("close").Float(),
			Volume: entry.Get("volume").Float(),
			Date:   time.Unix(entry.Get("time").Int(), 0).UTC(),
			Closed: true,
		})
	}

	return bars
}

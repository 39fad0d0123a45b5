package broker

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"go.uber.org/atomic"

	"marketsignal/shared"
)

const (
	// bufferSize is the default buffer size for channels.
	bufferSize = 64
	// maxClientIDRetries bounds the client id retry loop during session
	// establishment.
	maxClientIDRetries = 5
	// paperAccountPrefix marks paper trading account ids.
	paperAccountPrefix = "D"
)

// SessionState represents the broker session state.
type SessionState int32

const (
	Disconnected SessionState = iota
	Connecting
	Connected
)

// String stringifies the provided session state.
func (s SessionState) String() string {
	switch s {
	case Disconnected:
		return "disconnected"
	case Connecting:
		return "connecting"
	case Connected:
		return "connected"
	default:
		return "unknown"
	}
}

// AccountType represents the account classification of the session.
type AccountType int32

const (
	AccountUnknown AccountType = iota
	AccountPaper
	AccountLive
)

// String stringifies the provided account type.
func (a AccountType) String() string {
	switch a {
	case AccountPaper:
		return "paper"
	case AccountLive:
		return "live"
	default:
		return "unknown"
	}
}

// ConnectionConfig represents the broker connection configuration.
type ConnectionConfig struct {
	// Transport represents the wire link to the broker endpoint.
	Transport Transport
	// ClientID is the initial protocol client id for the session.
	ClientID int64
	// ConnectionTimeout is the ceiling for the readiness handshake.
	ConnectionTimeout time.Duration
	// ReconnectDelay is the pause before reconnecting a dropped session.
	ReconnectDelay time.Duration
	// KeepAliveInterval is the cadence of protocol keep-alive requests.
	KeepAliveInterval time.Duration
	// StreamTimeout is the ceiling for historical data streams.
	StreamTimeout time.Duration
	// RecordReconnect relays reconnect attempts for instrumentation.
	RecordReconnect func()
	// Logger represents the application logger.
	Logger *zerolog.Logger
}

// Validate asserts the config sanity checks pass.
func (cfg *ConnectionConfig) Validate() error {
	var errs error

	if cfg.Transport == nil {
		errs = errors.Join(errs, fmt.Errorf("transport cannot be nil"))
	}
	if cfg.ConnectionTimeout <= 0 {
		errs = errors.Join(errs, fmt.Errorf("connection timeout must be positive"))
	}
	if cfg.ReconnectDelay <= 0 {
		errs = errors.Join(errs, fmt.Errorf("reconnect delay must be positive"))
	}
	if cfg.KeepAliveInterval <= 0 {
		errs = errors.Join(errs, fmt.Errorf("keep alive interval must be positive"))
	}
	if cfg.StreamTimeout <= 0 {
		errs = errors.Join(errs, fmt.Errorf("stream timeout must be positive"))
	}
	if cfg.Logger == nil {
		errs = errors.Join(errs, fmt.Errorf("logger cannot be nil"))
	}

	return errs
}

// connectAttempt coalesces concurrent connect callers onto a single
// in-flight establishment.
type connectAttempt struct {
	done chan struct{}
	err  error
}

// tickStream represents a registered streaming market data request.
type tickStream struct {
	symbol  string
	onTick  func(tick shared.Tick)
	onError func(err error)
}

// historicEvent represents a historical stream update.
type historicEvent struct {
	bars []shared.Candlestick
	done bool
	err  error
}

// historicWaiter represents a pending historical data request.
type historicWaiter struct {
	symbol string
	events chan historicEvent
}

// Connection manages a single broker session: establishment with the
// readiness handshake, keep-alives, reconnects on unexpected drops and
// routing of inbound events to request-scoped handlers.
type Connection struct {
	cfg         *ConnectionConfig
	state       atomic.Int32
	accountType atomic.Int32
	clientID    atomic.Int64
	nextOrderID atomic.Int64

	connectMtx     sync.Mutex
	attempt        *connectAttempt
	reconnectTimer *time.Timer

	scheduler    gocron.Scheduler
	keepAliveMtx sync.Mutex
	keepAliveID  uuid.UUID
	keepAliveSet bool

	handlerMtx      sync.RWMutex
	tickStreams     map[int64]*tickStream
	historicWaiters map[int64]*historicWaiter
}

// NewConnection initializes a broker connection.
func NewConnection(cfg *ConnectionConfig) (*Connection, error) {
	err := cfg.Validate()
	if err != nil {
		return nil, fmt.Errorf("validating connection config: %w", err)
	}

	scheduler, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("creating job scheduler: %w", err)
	}
	scheduler.Start()

	conn := &Connection{
		cfg:             cfg,
		scheduler:       scheduler,
		tickStreams:     make(map[int64]*tickStream),
		historicWaiters: make(map[int64]*historicWaiter),
	}
	conn.clientID.Store(cfg.ClientID)

	return conn, nil
}

// IsConnected indicates whether the session is connected.
func (c *Connection) IsConnected() bool {
	return SessionState(c.state.Load()) == Connected
}

// State returns the current session state.
func (c *Connection) State() SessionState {
	return SessionState(c.state.Load())
}

// AccountType returns the account classification of the session.
func (c *Connection) AccountType() AccountType {
	return AccountType(c.accountType.Load())
}

// ClientID returns the protocol client id currently in use.
func (c *Connection) ClientID() int64 {
	return c.clientID.Load()
}

// NextOrderID returns the next valid order id delivered by the
// readiness handshake.
func (c *Connection) NextOrderID() int64 {
	return c.nextOrderID.Load()
}

// Connect establishes the broker session. It is idempotent while
// connected, and concurrent callers coalesce onto a single in-flight
// attempt and share its outcome.
func (c *Connection) Connect(ctx context.Context) error {
	c.connectMtx.Lock()
	if SessionState(c.state.Load()) == Connected {
		c.connectMtx.Unlock()
		return nil
	}

	if c.attempt == nil {
		c.attempt = &connectAttempt{done: make(chan struct{})}
		go c.establish(ctx, c.attempt)
	}
	attempt := c.attempt
	c.connectMtx.Unlock()

	select {
	case <-attempt.done:
		return attempt.err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// establish drives one session establishment, retrying with an
// incremented client id on conflicts. The context belongs to the caller
// that started the attempt; later coalesced callers only await the
// shared outcome.
func (c *Connection) establish(ctx context.Context, attempt *connectAttempt) {
	c.state.Store(int32(Connecting))

	var err error
	for retry := 0; retry <= maxClientIDRetries; retry++ {
		err = c.dial(ctx)
		if errors.Is(err, errClientIDInUse) {
			next := c.clientID.Inc()
			c.cfg.Logger.Warn().Msgf("client id conflict, retrying with client id %d", next)
			continue
		}

		break
	}

	switch {
	case errors.Is(err, errClientIDInUse):
		err = fmt.Errorf("%w: exhausted %d client id retries", ErrConnectionRefused, maxClientIDRetries)
		c.state.Store(int32(Disconnected))
	case err != nil:
		c.state.Store(int32(Disconnected))
	case !c.state.CAS(int32(Connecting), int32(Connected)):
		// A deliberate disconnect raced the establishment; drop the
		// fresh session rather than resurrecting it.
		_ = c.cfg.Transport.Close()
		err = fmt.Errorf("session disconnected during establishment")
	default:
		c.startKeepAlive()
		c.cfg.Logger.Info().Msgf("broker session established with client id %d", c.clientID.Load())
	}

	c.connectMtx.Lock()
	c.attempt = nil
	c.connectMtx.Unlock()

	attempt.err = err
	close(attempt.done)
}

// dial performs a single transport dial and awaits the readiness
// handshake.
func (c *Connection) dial(ctx context.Context) error {
	ready := make(chan int64, 1)
	failed := make(chan error, 1)

	callbacks := TransportCallbacks{
		OnReady: func(nextOrderID int64) {
			select {
			case ready <- nextOrderID:
			default:
			}
		},
		OnTick:            c.handleTick,
		OnHistoricalBatch: c.handleHistoricalBatch,
		OnAccountUpdate:   c.handleAccountUpdate,
		OnError: func(reqID int64, code int, message string) {
			if code == statusClientIDInUse {
				select {
				case failed <- errClientIDInUse:
				default:
				}
				return
			}

			c.handleErrorEvent(reqID, code, message)
		},
		OnClosed: c.handleClosed,
	}

	err := c.cfg.Transport.Dial(ctx, c.clientID.Load(), callbacks)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrConnectionRefused, err)
	}

	select {
	case nextOrderID := <-ready:
		c.nextOrderID.Store(nextOrderID)
		return nil
	case err := <-failed:
		_ = c.cfg.Transport.Close()
		return err
	case <-ctx.Done():
		_ = c.cfg.Transport.Close()
		return ctx.Err()
	case <-time.After(c.cfg.ConnectionTimeout):
		_ = c.cfg.Transport.Close()
		return ErrConnectionTimeout
	}
}

// Disconnect terminates the session deliberately. It is idempotent and
// cancels any pending reconnect.
func (c *Connection) Disconnect() {
	c.connectMtx.Lock()
	if c.reconnectTimer != nil {
		c.reconnectTimer.Stop()
		c.reconnectTimer = nil
	}
	c.connectMtx.Unlock()

	prev := SessionState(c.state.Swap(int32(Disconnected)))
	if prev == Disconnected {
		return
	}

	c.stopKeepAlive()

	err := c.cfg.Transport.Close()
	if err != nil {
		c.cfg.Logger.Error().Msgf("closing broker transport: %v", err)
	}

	c.cfg.Logger.Info().Msg("broker session disconnected")
}

// handleClosed processes an unexpected transport termination. Exactly
// one reconnect is scheduled per drop from the connected state.
func (c *Connection) handleClosed(err error) {
	if !c.state.CAS(int32(Connected), int32(Disconnected)) {
		return
	}

	c.stopKeepAlive()
	c.cfg.Logger.Error().Msgf("broker session dropped: %v", err)

	c.connectMtx.Lock()
	if c.reconnectTimer == nil {
		c.reconnectTimer = time.AfterFunc(c.cfg.ReconnectDelay, c.reconnect)
	}
	c.connectMtx.Unlock()
}

// reconnect re-establishes a dropped session.
func (c *Connection) reconnect() {
	c.connectMtx.Lock()
	c.reconnectTimer = nil
	c.connectMtx.Unlock()

	if c.cfg.RecordReconnect != nil {
		c.cfg.RecordReconnect()
	}

	err := c.Connect(context.Background())
	if err != nil {
		c.cfg.Logger.Error().Msgf("reconnecting broker session: %v", err)
	}
}

// startKeepAlive schedules the keep-alive job for the connected session.
func (c *Connection) startKeepAlive() {
	job, err := c.scheduler.NewJob(gocron.DurationJob(c.cfg.KeepAliveInterval),
		gocron.NewTask(c.keepAlive))
	if err != nil {
		c.cfg.Logger.Error().Msgf("scheduling keep-alive job: %v", err)
		return
	}

	c.keepAliveMtx.Lock()
	c.keepAliveID = job.ID()
	c.keepAliveSet = true
	c.keepAliveMtx.Unlock()
}

// stopKeepAlive removes the keep-alive job.
func (c *Connection) stopKeepAlive() {
	c.keepAliveMtx.Lock()
	defer c.keepAliveMtx.Unlock()

	if !c.keepAliveSet {
		return
	}

	err := c.scheduler.RemoveJob(c.keepAliveID)
	if err != nil {
		c.cfg.Logger.Error().Msgf("removing keep-alive job: %v", err)
	}
	c.keepAliveSet = false
}

// keepAlive issues one protocol keep-alive request while connected.
func (c *Connection) keepAlive() {
	if SessionState(c.state.Load()) != Connected {
		return
	}

	err := c.cfg.Transport.RequestCurrentTime()
	if err != nil {
		c.cfg.Logger.Error().Msgf("issuing keep-alive request: %v", err)
	}
}

// handleAccountUpdate classifies the session account from the provided
// account id. The classification is set once and never reverts to
// unknown.
func (c *Connection) handleAccountUpdate(accountID string) {
	next := AccountLive
	if strings.HasPrefix(accountID, paperAccountPrefix) {
		next = AccountPaper
	}

	if c.accountType.CAS(int32(AccountUnknown), int32(next)) && next == AccountLive {
		c.cfg.Logger.Warn().Msgf("session is using live account %s", accountID)
	}
}

// handleTick routes a decoded tick to its registered stream.
func (c *Connection) handleTick(reqID int64, tick shared.Tick) {
	c.handlerMtx.RLock()
	stream, ok := c.tickStreams[reqID]
	c.handlerMtx.RUnlock()

	if !ok {
		c.cfg.Logger.Debug().Msgf("dropping tick for unknown request %d", reqID)
		return
	}

	tick.Market = stream.symbol
	stream.onTick(tick)
}

// handleHistoricalBatch routes a historical bar batch to its waiter.
func (c *Connection) handleHistoricalBatch(reqID int64, bars []shared.Candlestick, done bool) {
	c.handlerMtx.RLock()
	waiter, ok := c.historicWaiters[reqID]
	c.handlerMtx.RUnlock()

	if !ok {
		c.cfg.Logger.Debug().Msgf("dropping historical batch for unknown request %d", reqID)
		return
	}

	select {
	case waiter.events <- historicEvent{bars: bars, done: done}:
	default:
		c.cfg.Logger.Error().Msgf("historical event channel at capacity: %d/%d",
			len(waiter.events), bufferSize)
	}
}

// handleErrorEvent routes a broker error event by status code.
func (c *Connection) handleErrorEvent(reqID int64, code int, message string) {
	switch code {
	case statusDelayedData:
		// Delayed market data only. Usable, keep streaming.
		c.cfg.Logger.Info().Msgf("broker notice for request %d: %s", reqID, message)
	case statusSecurityNotFound:
		c.handlerMtx.RLock()
		waiter, waiting := c.historicWaiters[reqID]
		stream, streaming := c.tickStreams[reqID]
		c.handlerMtx.RUnlock()

		switch {
		case waiting:
			err := fmt.Errorf("%w: %s", ErrSecurityNotFound, waiter.symbol)
			select {
			case waiter.events <- historicEvent{err: err}:
			default:
			}
		case streaming:
			stream.onError(fmt.Errorf("%w: %s", ErrSecurityNotFound, stream.symbol))
		default:
			c.cfg.Logger.Error().Msgf("broker error for unknown request %d (%d): %s",
				reqID, code, message)
		}
	default:
		c.cfg.Logger.Error().Msgf("broker error for request %d (%d): %s", reqID, code, message)
	}
}

// StreamMarketData starts a streaming market data request and routes
// its decoded ticks to the provided handler.
func (c *Connection) StreamMarketData(reqID int64, symbol string, onTick func(tick shared.Tick), onError func(err error)) error {
	if !c.IsConnected() {
		return fmt.Errorf("cannot stream %s: session is %s", symbol, c.State().String())
	}

	c.handlerMtx.Lock()
	c.tickStreams[reqID] = &tickStream{symbol: symbol, onTick: onTick, onError: onError}
	c.handlerMtx.Unlock()

	err := c.cfg.Transport.RequestMarketData(reqID, symbol)
	if err != nil {
		c.handlerMtx.Lock()
		delete(c.tickStreams, reqID)
		c.handlerMtx.Unlock()
		return fmt.Errorf("requesting market data for %s: %w", symbol, err)
	}

	return nil
}

// CancelMarketData cancels a streaming market data request.
func (c *Connection) CancelMarketData(reqID int64) {
	c.handlerMtx.Lock()
	delete(c.tickStreams, reqID)
	c.handlerMtx.Unlock()

	err := c.cfg.Transport.CancelMarketData(reqID)
	if err != nil {
		c.cfg.Logger.Error().Msgf("cancelling market data request %d: %v", reqID, err)
	}
}

// HistoricalBars requests historical bars for the provided symbol and
// accumulates batches until the final one arrives. A stream timeout
// resolves with the partial data if any batch arrived, and fails
// otherwise.
func (c *Connection) HistoricalBars(ctx context.Context, reqID int64, symbol string, timeframe shared.Timeframe, barCount int) ([]shared.Candlestick, error) {
	if !c.IsConnected() {
		return nil, fmt.Errorf("cannot fetch bars for %s: session is %s", symbol, c.State().String())
	}

	waiter := &historicWaiter{symbol: symbol, events: make(chan historicEvent, bufferSize)}
	c.handlerMtx.Lock()
	c.historicWaiters[reqID] = waiter
	c.handlerMtx.Unlock()

	defer func() {
		c.handlerMtx.Lock()
		delete(c.historicWaiters, reqID)
		c.handlerMtx.Unlock()
	}()

	err := c.cfg.Transport.RequestHistoricalData(reqID, symbol, timeframe, barCount)
	if err != nil {
		return nil, fmt.Errorf("requesting historical bars for %s: %w", symbol, err)
	}

	bars := make([]shared.Candlestick, 0, barCount)
	timeout := time.NewTimer(c.cfg.StreamTimeout)
	defer timeout.Stop()

	for {
		select {
		case event := <-waiter.events:
			if event.err != nil {
				return nil, event.err
			}

			for idx := range event.bars {
				event.bars[idx].Market = symbol
				event.bars[idx].Timeframe = timeframe
			}
			bars = append(bars, event.bars...)

			if event.done {
				return bars, nil
			}
		case <-ctx.Done():
			if len(bars) > 0 {
				return bars, nil
			}
			return nil, ctx.Err()
		case <-timeout.C:
			if len(bars) > 0 {
				c.cfg.Logger.Warn().Msgf("historical stream for %s timed out, resolving %d partial bars",
					symbol, len(bars))
				return bars, nil
			}
			return nil, fmt.Errorf("%w: historical bars for %s", ErrStreamTimeout, symbol)
		}
	}
}

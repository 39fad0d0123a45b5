package feed

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"go.uber.org/atomic"

	"marketsignal/shared"
)

// MarketStreamer represents the broker session operations the registry
// depends on.
type MarketStreamer interface {
	// Connect establishes the broker session if needed.
	Connect(ctx context.Context) error
	// StreamMarketData starts a streaming market data request.
	StreamMarketData(reqID int64, symbol string, onTick func(tick shared.Tick), onError func(err error)) error
	// CancelMarketData cancels a streaming market data request.
	CancelMarketData(reqID int64)
	// HistoricalBars fetches historical bars for a symbol.
	HistoricalBars(ctx context.Context, reqID int64, symbol string, timeframe shared.Timeframe, barCount int) ([]shared.Candlestick, error)
}

// ManagerConfig represents the configuration for the subscription
// registry.
type ManagerConfig struct {
	// Connection represents the broker session.
	Connection MarketStreamer
	// HistoryBarCount is the number of bars requested per historical fetch.
	HistoryBarCount int
	// RecordTick relays delivered ticks for instrumentation.
	RecordTick func()
	// RecordSubscriptions relays the active subscription count for
	// instrumentation.
	RecordSubscriptions func(count int)
	// Logger represents the application logger.
	Logger *zerolog.Logger
}

// Validate asserts the config sanity checks pass.
func (cfg *ManagerConfig) Validate() error {
	var errs error

	if cfg.Connection == nil {
		errs = errors.Join(errs, fmt.Errorf("connection cannot be nil"))
	}
	if cfg.HistoryBarCount <= 0 {
		errs = errors.Join(errs, fmt.Errorf("history bar count must be positive"))
	}
	if cfg.Logger == nil {
		errs = errors.Join(errs, fmt.Errorf("logger cannot be nil"))
	}

	return errs
}

// subscription represents one upstream market data stream fanned out to
// its listeners.
type subscription struct {
	symbol    string
	reqID     int64
	listeners map[uuid.UUID]func(tick shared.Tick)
	lastTick  shared.Tick
	hasTick   bool
}

// Manager represents the market data subscription registry. One
// upstream stream is held per symbol regardless of listener count, and
// the last tick is cached as a snapshot for late joiners.
type Manager struct {
	cfg       *ManagerConfig
	nextReqID atomic.Int64

	mtx           sync.Mutex
	subscriptions map[string]*subscription
}

// NewManager initializes the subscription registry.
func NewManager(cfg *ManagerConfig) (*Manager, error) {
	err := cfg.Validate()
	if err != nil {
		return nil, fmt.Errorf("validating feed config: %w", err)
	}

	return &Manager{
		cfg:           cfg,
		subscriptions: make(map[string]*subscription),
	}, nil
}

// Subscribe registers the provided callback for market data updates on
// the provided symbol. The first listener starts the upstream stream;
// later listeners share it and synchronously receive the cached last
// snapshot before any new tick. The returned function removes exactly
// this listener and is safe to call more than once. Callbacks run while
// the registry lock is held, so they must not call back into Subscribe
// or an unsubscribe function.
func (m *Manager) Subscribe(ctx context.Context, symbol string, callback func(tick shared.Tick)) (func(), error) {
	m.mtx.Lock()
	sub, ok := m.subscriptions[symbol]
	if ok {
		unsubscribe := m.addListener(sub, callback)
		m.mtx.Unlock()
		return unsubscribe, nil
	}
	m.mtx.Unlock()

	err := m.cfg.Connection.Connect(ctx)
	if err != nil {
		return nil, fmt.Errorf("connecting for %s subscription: %w", symbol, err)
	}

	m.mtx.Lock()
	defer m.mtx.Unlock()

	// Another caller may have created the subscription while the session
	// was being established.
	sub, ok = m.subscriptions[symbol]
	if ok {
		return m.addListener(sub, callback), nil
	}

	sub = &subscription{
		symbol:    symbol,
		reqID:     m.nextReqID.Inc(),
		listeners: make(map[uuid.UUID]func(tick shared.Tick)),
	}
	m.subscriptions[symbol] = sub
	unsubscribe := m.addListener(sub, callback)

	err = m.cfg.Connection.StreamMarketData(sub.reqID, symbol,
		func(tick shared.Tick) { m.deliver(sub, tick) },
		func(err error) { m.teardown(sub, err) })
	if err != nil {
		delete(m.subscriptions, symbol)
		return nil, fmt.Errorf("starting %s stream: %w", symbol, err)
	}

	m.recordSubscriptions()

	return unsubscribe, nil
}

// addListener registers a listener on the provided subscription and
// returns its removal function. The cached snapshot, if any, is
// delivered before the registry lock is released so no newer tick can
// precede it. Callers must hold the registry lock.
func (m *Manager) addListener(sub *subscription, callback func(tick shared.Tick)) func() {
	id := uuid.New()
	sub.listeners[id] = callback

	if sub.hasTick {
		callback(sub.lastTick)
	}

	var once sync.Once
	return func() {
		once.Do(func() { m.removeListener(sub, id) })
	}
}

// removeListener removes the identified listener. The last listener out
// cancels the upstream stream and deletes the subscription under the
// same lock hold, so a cancel can neither be lost nor doubled.
func (m *Manager) removeListener(sub *subscription, id uuid.UUID) {
	m.mtx.Lock()
	defer m.mtx.Unlock()

	delete(sub.listeners, id)
	if len(sub.listeners) > 0 {
		return
	}

	if m.subscriptions[sub.symbol] == sub {
		delete(m.subscriptions, sub.symbol)
		m.cfg.Connection.CancelMarketData(sub.reqID)
		m.recordSubscriptions()
	}
}

// deliver caches the provided tick and fans it out to the listeners of
// the provided subscription in upstream arrival order.
func (m *Manager) deliver(sub *subscription, tick shared.Tick) {
	m.mtx.Lock()
	defer m.mtx.Unlock()

	sub.lastTick = tick
	sub.hasTick = true

	for id := range sub.listeners {
		sub.listeners[id](tick)
	}

	if m.cfg.RecordTick != nil {
		m.cfg.RecordTick()
	}
}

// teardown removes the provided subscription after an upstream stream
// failure.
func (m *Manager) teardown(sub *subscription, err error) {
	m.cfg.Logger.Error().Msgf("stream for %s failed: %v", sub.symbol, err)

	m.mtx.Lock()
	defer m.mtx.Unlock()

	if m.subscriptions[sub.symbol] == sub {
		delete(m.subscriptions, sub.symbol)
		m.recordSubscriptions()
	}
}

// GetLastTick returns the cached snapshot for the provided symbol.
func (m *Manager) GetLastTick(symbol string) (shared.Tick, bool) {
	m.mtx.Lock()
	defer m.mtx.Unlock()

	sub, ok := m.subscriptions[symbol]
	if !ok || !sub.hasTick {
		return shared.Tick{}, false
	}

	return sub.lastTick, true
}

// GetBars fetches historical bars for the provided symbol and timeframe.
func (m *Manager) GetBars(ctx context.Context, symbol string, timeframe shared.Timeframe) ([]shared.Candlestick, error) {
	err := m.cfg.Connection.Connect(ctx)
	if err != nil {
		return nil, fmt.Errorf("connecting for %s bars: %w", symbol, err)
	}

	bars, err := m.cfg.Connection.HistoricalBars(ctx, m.nextReqID.Inc(), symbol, timeframe,
		m.cfg.HistoryBarCount)
	if err != nil {
		return nil, fmt.Errorf("fetching %s bars: %w", symbol, err)
	}

	return bars, nil
}

// recordSubscriptions relays the active subscription count. Callers
// must hold the registry lock.
func (m *Manager) recordSubscriptions() {
	if m.cfg.RecordSubscriptions != nil {
		m.cfg.RecordSubscriptions(len(m.subscriptions))
	}
}

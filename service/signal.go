package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/rs/zerolog/pkgerrors"

	"marketsignal/broker"
	"marketsignal/feed"
	"marketsignal/indicator"
	"marketsignal/journal"
	"marketsignal/metrics"
	"marketsignal/pattern"
	"marketsignal/shared"
	"marketsignal/strategy"
)

const (
	// historyBarCount is the number of bars requested per evaluation.
	historyBarCount = 120
	// connectionTimeout is the ceiling for the broker readiness handshake.
	connectionTimeout = time.Second * 30
	// reconnectDelay is the pause before reconnecting a dropped session.
	reconnectDelay = time.Second * 5
	// keepAliveInterval is the cadence of broker keep-alive requests.
	keepAliveInterval = time.Second * 30
	// streamTimeout is the ceiling for historical data streams.
	streamTimeout = time.Second * 30
)

// SignalConfig represents the configuration struct for the signal
// service.
type SignalConfig struct {
	// Markets represents the tracked markets.
	Markets []string
	// Timeframe is the bar timeframe evaluated for signals.
	Timeframe shared.Timeframe
	// EvalInterval is the cadence of per-market evaluations.
	EvalInterval time.Duration
	// BrokerURL is the brokerage websocket endpoint.
	BrokerURL string
	// ClientID is the initial broker client id.
	ClientID int64
	// JournalEndpoint is the signal journal endpoint. Journaling is
	// disabled when empty.
	JournalEndpoint string
	// JournalUser is the journal database user.
	JournalUser string
	// JournalPass is the journal database user pass.
	JournalPass string
	// MasterScores seeds the composite directional scores per market.
	MasterScores []shared.MasterSymbolInfo
	// StrategyConfig overrides the strategy engine defaults.
	StrategyConfig *strategy.Config
	// Transport overrides the websocket transport, for tests.
	Transport broker.Transport
	// MetricsAddr is the listen address for the metrics endpoint.
	// Disabled when empty.
	MetricsAddr string
	// RelayEntrySignal relays emitted entry signals.
	RelayEntrySignal func(signal shared.EntrySignal)
	// RelayExitSignal relays emitted exit signals.
	RelayExitSignal func(signal shared.ExitSignal)
	// Cancel is the context cancellation function.
	Cancel context.CancelFunc
}

// Validate asserts the config sane inputs.
func (cfg *SignalConfig) Validate() error {
	var errs error

	if len(cfg.Markets) == 0 {
		errs = errors.Join(errs, fmt.Errorf("no markets provided for signal service"))
	}
	if cfg.EvalInterval <= 0 {
		errs = errors.Join(errs, fmt.Errorf("evaluation interval must be positive"))
	}
	if cfg.BrokerURL == "" && cfg.Transport == nil {
		errs = errors.Join(errs, fmt.Errorf("broker url cannot be an empty string"))
	}
	if cfg.Cancel == nil {
		errs = errors.Join(errs, fmt.Errorf("context cancellation function cannot be nil"))
	}

	return errs
}

// Signal represents a market signal finding service.
type Signal struct {
	cfg           *SignalConfig
	connection    *broker.Connection
	feedManager   *feed.Manager
	signalEngine  *strategy.Engine
	signalJournal journal.SignalStorer
	metrics       *metrics.Metrics
	logger        *zerolog.Logger
	wg            sync.WaitGroup

	mtx          sync.Mutex
	masterScores map[string]shared.MasterSymbolInfo
	openStates   map[string]strategy.PatternState
}

// NewSignal initializes a new signal service.
func NewSignal(cfg *SignalConfig) (*Signal, error) {
	err := cfg.Validate()
	if err != nil {
		return nil, fmt.Errorf("validating signal service config: %w", err)
	}

	zerolog.ErrorStackMarshaler = pkgerrors.MarshalStack

	logger := log.With().Str("service", "signal").Logger()
	mtr := metrics.NewMetrics()

	transport := cfg.Transport
	if transport == nil {
		transportLogger := logger.With().Str("component", "transport").Logger()
		transport = broker.NewWebsocketTransport(cfg.BrokerURL, &transportLogger)
	}

	connectionLogger := logger.With().Str("component", "connection").Logger()
	connection, err := broker.NewConnection(&broker.ConnectionConfig{
		Transport:         transport,
		ClientID:          cfg.ClientID,
		ConnectionTimeout: connectionTimeout,
		ReconnectDelay:    reconnectDelay,
		KeepAliveInterval: keepAliveInterval,
		StreamTimeout:     streamTimeout,
		RecordReconnect:   mtr.Reconnects.Inc,
		Logger:            &connectionLogger,
	})
	if err != nil {
		return nil, fmt.Errorf("creating broker connection: %v", err)
	}

	feedLogger := logger.With().Str("component", "feedmanager").Logger()
	feedManager, err := feed.NewManager(&feed.ManagerConfig{
		Connection:      connection,
		HistoryBarCount: historyBarCount,
		RecordTick:      mtr.TicksDelivered.Inc,
		RecordSubscriptions: func(count int) {
			mtr.ActiveSubscriptions.Set(float64(count))
		},
		Logger: &feedLogger,
	})
	if err != nil {
		return nil, fmt.Errorf("creating feed manager: %v", err)
	}

	strategyCfg := cfg.StrategyConfig
	if strategyCfg == nil {
		engineLogger := logger.With().Str("component", "strategyengine").Logger()
		strategyCfg = strategy.DefaultConfig(&engineLogger)
	}

	signalEngine, err := strategy.NewEngine(strategyCfg)
	if err != nil {
		return nil, fmt.Errorf("creating strategy engine: %v", err)
	}

	var signalJournal journal.SignalStorer
	if cfg.JournalEndpoint != "" {
		journalLogger := logger.With().Str("component", "journal").Logger()
		signalJournal, err = journal.NewJournal(context.Background(), &journal.JournalConfig{
			Endpoint: cfg.JournalEndpoint,
			User:     cfg.JournalUser,
			Pass:     cfg.JournalPass,
			Logger:   &journalLogger,
		})
		if err != nil {
			return nil, fmt.Errorf("creating signal journal: %v", err)
		}
	}

	masterScores := make(map[string]shared.MasterSymbolInfo)
	for idx := range cfg.MasterScores {
		masterScores[cfg.MasterScores[idx].Symbol] = cfg.MasterScores[idx]
	}

	service := &Signal{
		cfg:           cfg,
		connection:    connection,
		feedManager:   feedManager,
		signalEngine:  signalEngine,
		signalJournal: signalJournal,
		metrics:       mtr,
		logger:        &logger,
		masterScores:  masterScores,
		openStates:    make(map[string]strategy.PatternState),
	}

	return service, nil
}

// SetMasterScore updates the composite directional score for a market.
func (s *Signal) SetMasterScore(info shared.MasterSymbolInfo) {
	s.mtx.Lock()
	defer s.mtx.Unlock()
	s.masterScores[info.Symbol] = info
}

// Run handles the lifecycle processes of the signal service.
func (s *Signal) Run(ctx context.Context) {
	if s.cfg.MetricsAddr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", s.metrics.Handler())
		server := &http.Server{Addr: s.cfg.MetricsAddr, Handler: mux}

		go func() {
			err := server.ListenAndServe()
			if err != nil && !errors.Is(err, http.ErrServerClosed) {
				s.logger.Error().Msgf("metrics server: %v", err)
			}
		}()
		go func() {
			<-ctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Second*5)
			defer cancel()
			_ = server.Shutdown(shutdownCtx)
		}()
	}

	s.wg.Add(len(s.cfg.Markets))
	for idx := range s.cfg.Markets {
		go s.watch(ctx, s.cfg.Markets[idx])
	}

	s.wg.Wait()
	s.connection.Disconnect()
}

// watch drives the evaluation loop for the provided market. Evaluations
// run sequentially, so a market has at most one in flight.
func (s *Signal) watch(ctx context.Context, market string) {
	defer s.wg.Done()

	unsubscribe, err := s.feedManager.Subscribe(ctx, market, func(shared.Tick) {})
	if err != nil {
		s.logger.Error().Msgf("subscribing to %s: %v", market, err)
		s.cfg.Cancel()
		return
	}
	defer unsubscribe()

	ticker := time.NewTicker(s.cfg.EvalInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.evaluate(ctx, market)
		}
	}
}

// evaluate runs one detection pass for the provided market: while a
// signal is open only the exit condition is checked, otherwise a full
// detection scan runs and a confirmed setup emits an entry signal.
func (s *Signal) evaluate(ctx context.Context, market string) {
	bars, err := s.feedManager.GetBars(ctx, market, s.cfg.Timeframe)
	if err != nil {
		s.logger.Error().Msgf("fetching bars for %s: %v", market, err)
		return
	}

	candles := make([]*shared.Candlestick, len(bars))
	for idx := range bars {
		candles[idx] = &bars[idx]
	}

	s.mtx.Lock()
	open, hasOpen := s.openStates[market]
	master := s.masterScores[market]
	s.mtx.Unlock()

	if hasOpen {
		exitSignal, fired := s.signalEngine.Exit(candles, open)
		if !fired {
			return
		}

		s.mtx.Lock()
		delete(s.openStates, market)
		s.mtx.Unlock()

		s.emitExit(ctx, &exitSignal)
		return
	}

	state := s.signalEngine.Detect(candles, master)
	if !state.Found {
		s.logger.Debug().Msgf("%s: no signal: %s", market, state.Reason)
		return
	}

	entrySignal, ok := s.signalEngine.Entry(candles, state)
	if !ok {
		s.logger.Debug().Msgf("%s: detection no longer holds at current price", market)
		return
	}

	note, matched := s.annotate(candles, state)
	if matched {
		entrySignal.Reason = fmt.Sprintf("%s, %s", entrySignal.Reason, note)
	}

	s.mtx.Lock()
	s.openStates[market] = state
	s.mtx.Unlock()

	s.emitEntry(ctx, &entrySignal)
}

// annotate names the strongest candlestick pattern printed on the
// latest bar, if any.
func (s *Signal) annotate(candles []*shared.Candlestick, state strategy.PatternState) (string, bool) {
	last := candles[len(candles)-1]
	var prev *shared.Candlestick
	if len(candles) > 1 {
		prev = candles[len(candles)-2]
	}

	trend := shared.UnknownTrend
	switch state.Direction {
	case shared.Long:
		trend = shared.Uptrend
	case shared.Short:
		trend = shared.Downtrend
	}

	patternCtx := pattern.Context{
		AverageVolume: indicator.AverageVolume(candles),
		Trend:         trend,
	}

	best, matched := pattern.BestMatch(last, patternCtx, prev, candles)
	if !matched {
		return "", false
	}

	return fmt.Sprintf("%s %s on latest bar", best.Strength.String(), best.Name), true
}

// emitEntry journals, counts and relays the provided entry signal.
func (s *Signal) emitEntry(ctx context.Context, signal *shared.EntrySignal) {
	s.logger.Info().Msgf("%s: %s entry at %.2f (stop %.2f, quality %.2f): %s",
		signal.Market, signal.Direction.String(), signal.Price, signal.StopLoss,
		signal.Quality, signal.Reason)

	if s.signalJournal != nil {
		err := s.signalJournal.PersistEntrySignal(ctx, signal)
		if err != nil {
			s.logger.Error().Msgf("journaling entry signal for %s: %v", signal.Market, err)
		}
	}

	s.metrics.RecordEntrySignal(signal.Direction)

	if s.cfg.RelayEntrySignal != nil {
		s.cfg.RelayEntrySignal(*signal)
	}
}

// emitExit journals, counts and relays the provided exit signal.
func (s *Signal) emitExit(ctx context.Context, signal *shared.ExitSignal) {
	s.logger.Info().Msgf("%s: exit at %.2f: %s", signal.Market, signal.Price, signal.Reason)

	if s.signalJournal != nil {
		err := s.signalJournal.PersistExitSignal(ctx, signal)
		if err != nil {
			s.logger.Error().Msgf("journaling exit signal for %s: %v", signal.Market, err)
		}
	}

	s.metrics.RecordExitSignal(signal.Direction)

	if s.cfg.RelayExitSignal != nil {
		s.cfg.RelayExitSignal(*signal)
	}
}

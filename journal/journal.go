package journal

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/davecgh/go-spew/spew"
	"github.com/google/uuid"
	rqlitehttp "github.com/rqlite/rqlite-go-http"
	"github.com/rs/zerolog"

	"marketsignal/shared"
)

const (
	// SQL statements.
	createEntrySignalTableSQL = "CREATE TABLE IF NOT EXISTS entrysignal (id TEXT PRIMARY KEY, market TEXT, timeframe TEXT, direction INTEGER, price REAL, stoploss REAL, quality REAL, reason TEXT, createdon INTEGER)"
	createExitSignalTableSQL  = "CREATE TABLE IF NOT EXISTS exitsignal (id TEXT PRIMARY KEY, market TEXT, timeframe TEXT, direction INTEGER, price REAL, reason TEXT, createdon INTEGER)"
	createTallyTableSQL       = "CREATE TABLE IF NOT EXISTS tally (id TEXT PRIMARY KEY, total INTEGER, longs INTEGER, shorts INTEGER, createdon INTEGER)"
	persistEntrySignalSQL     = "INSERT INTO entrysignal(id, market, timeframe, direction, price, stoploss, quality, reason, createdon) VALUES(?,?,?,?,?,?,?,?,?)"
	persistExitSignalSQL      = "INSERT INTO exitsignal(id, market, timeframe, direction, price, reason, createdon) VALUES(?,?,?,?,?,?,?)"
	findTallySQL              = "SELECT * FROM tally WHERE id = ?"
	updateTallySQL            = "UPDATE tally SET total = total + 1, longs = longs + ?, shorts = shorts + ? WHERE id = ?"
	persistTallySQL           = "INSERT INTO tally(id, total, longs, shorts, createdon) VALUES(?,?,?,?,?)"
)

// SignalStorer defines the requirements for journaling emitted signals.
type SignalStorer interface {
	// PersistEntrySignal stores the provided emitted entry signal.
	PersistEntrySignal(ctx context.Context, signal *shared.EntrySignal) error
	// PersistExitSignal stores the provided emitted exit signal.
	PersistExitSignal(ctx context.Context, signal *shared.ExitSignal) error
}

// JournalConfig is the configuration for the signal journal.
type JournalConfig struct {
	// Endpoint represents the journal database connection endpoint.
	Endpoint string
	// User is the database user.
	User string
	// Pass is the database user pass.
	Pass string
	// Logger is the journal logger.
	Logger *zerolog.Logger
}

// Journal persists emitted signals and their per-market tallies for
// post-hoc review. It never stores market data.
type Journal struct {
	cfg    *JournalConfig
	client *rqlitehttp.Client
}

// Ensure the journal implements the SignalStorer interface.
var _ SignalStorer = (*Journal)(nil)

// NewJournal initializes a new signal journal.
func NewJournal(ctx context.Context, cfg *JournalConfig) (*Journal, error) {
	httpc := &http.Client{Timeout: time.Second * 5}
	client, err := rqlitehttp.NewClient(cfg.Endpoint, httpc)
	if err != nil {
		return nil, fmt.Errorf("creating journal client: %w", err)
	}

	client.SetBasicAuth(cfg.User, cfg.Pass)

	journal := &Journal{
		cfg:    cfg,
		client: client,
	}

	err = journal.bootstrap(ctx)
	if err != nil {
		return nil, fmt.Errorf("bootstrapping journal: %w", err)
	}

	return journal, nil
}

// bootstrap initializes the journal tables.
func (j *Journal) bootstrap(ctx context.Context) error {
	_, err := j.client.Execute(ctx, rqlitehttp.SQLStatements{
		{SQL: createEntrySignalTableSQL},
		{SQL: createExitSignalTableSQL},
		{SQL: createTallyTableSQL},
	}, &rqlitehttp.ExecuteOptions{
		Transaction: true,
		Timings:     true,
	})
	if err != nil {
		return err
	}

	return nil
}

// generateTallyID generates deterministic ids for signal tallies using
// the month, week and market.
func generateTallyID(currentTime time.Time, market string) string {
	month := currentTime.Month().String()
	week := currentTime.Day() / 7

	id := fmt.Sprintf("%s-Week-%d-%s", month, week, market)
	return id
}

// PersistEntrySignal stores the provided emitted entry signal and
// advances the tally for its market.
func (j *Journal) PersistEntrySignal(ctx context.Context, signal *shared.EntrySignal) error {
	resp, err := j.client.Execute(ctx, rqlitehttp.SQLStatements{
		{
			SQL: persistEntrySignalSQL,
			PositionalParams: []any{uuid.NewString(), signal.Market, signal.Timeframe.String(),
				int(signal.Direction), signal.Price, signal.StopLoss, signal.Quality,
				signal.Reason, signal.CreatedOn.Unix()},
		},
	}, &rqlitehttp.ExecuteOptions{Transaction: true, Timings: true})
	if err != nil {
		return err
	}
	has, idx, errStr := resp.HasError()
	if has {
		return fmt.Errorf("persisting entry signal for %s: %d -> %s", signal.Market, idx, errStr)
	}

	var longs, shorts int
	switch signal.Direction {
	case shared.Long:
		longs++
	case shared.Short:
		shorts++
	default:
		j.cfg.Logger.Error().Msgf("unexpected signal direction for tally calculations: %s",
			spew.Sdump(signal))
	}

	return j.advanceTally(ctx, signal.Market, signal.CreatedOn, longs, shorts)
}

// PersistExitSignal stores the provided emitted exit signal.
func (j *Journal) PersistExitSignal(ctx context.Context, signal *shared.ExitSignal) error {
	resp, err := j.client.Execute(ctx, rqlitehttp.SQLStatements{
		{
			SQL: persistExitSignalSQL,
			PositionalParams: []any{uuid.NewString(), signal.Market, signal.Timeframe.String(),
				int(signal.Direction), signal.Price, signal.Reason, signal.CreatedOn.Unix()},
		},
	}, &rqlitehttp.ExecuteOptions{Transaction: true, Timings: true})
	if err != nil {
		return err
	}
	has, idx, errStr := resp.HasError()
	if has {
		return fmt.Errorf("persisting exit signal for %s: %d -> %s", signal.Market, idx, errStr)
	}

	return nil
}

// advanceTally updates the signal tally for the provided market,
// creating it on first use.
func (j *Journal) advanceTally(ctx context.Context, market string, createdOn time.Time, longs int, shorts int) error {
	id := generateTallyID(createdOn, market)
	resp, err := j.client.QuerySingle(ctx, findTallySQL, id)
	if err != nil {
		return err
	}

	exists := len(resp.GetQueryResultsAssoc()) > 0
	switch {
	case exists:
		resp, err := j.client.Execute(ctx, rqlitehttp.SQLStatements{
			{
				SQL:              updateTallySQL,
				PositionalParams: []any{longs, shorts, id},
			},
		}, &rqlitehttp.ExecuteOptions{Transaction: true, Timings: true})
		if err != nil {
			return err
		}
		has, idx, errStr := resp.HasError()
		if has {
			return fmt.Errorf("updating tally %s: %d -> %s", id, idx, errStr)
		}
	default:
		resp, err := j.client.Execute(ctx, rqlitehttp.SQLStatements{
			{
				SQL:              persistTallySQL,
				PositionalParams: []any{id, 1, longs, shorts, createdOn.Unix()},
			},
		}, &rqlitehttp.ExecuteOptions{Transaction: true, Timings: true})
		if err != nil {
			return err
		}
		has, idx, errStr := resp.HasError()
		if has {
			return fmt.Errorf("creating tally %s: %d -> %s", id, idx, errStr)
		}
	}

	return nil
}

package ops

import (
	"context"
	"database/sql"
	"log/slog"
	"sync"
	"time"

	"github.com/hpungsan/lemon/internal/db"
	"github.com/hpungsan/lemon/internal/errors"
	"github.com/hpungsan/lemon/internal/menu"
)

// BootstrapState is the coordinator's lifecycle state.
type BootstrapState string

const (
	StateUninitialized BootstrapState = "uninitialized"
	StateReady         BootstrapState = "ready"
)

// BootstrapOutput contains the result of a bootstrap run.
type BootstrapOutput struct {
	// Entries is the authoritative store view after the run
	Entries []menu.Entry `json:"entries"`

	// Seeded is true when this run populated an empty store
	Seeded bool `json:"seeded"`

	// Fetched is the number of items the fetcher returned (0 when not called)
	Fetched int `json:"fetched"`

	SeedRun *db.SeedRun `json:"seed_run,omitempty"`
}

// Bootstrap guarantees the local store is populated before querying begins.
// It fetches from the remote source only while the store is empty.
type Bootstrap struct {
	mu      sync.Mutex
	db      *sql.DB
	fetcher Fetcher
	logger  *slog.Logger
	state   BootstrapState
}

// NewBootstrap creates a coordinator in the Uninitialized state.
func NewBootstrap(database *sql.DB, fetcher Fetcher, logger *slog.Logger) *Bootstrap {
	if logger == nil {
		logger = slog.Default()
	}
	return &Bootstrap{
		db:      database,
		fetcher: fetcher,
		logger:  logger.With(slog.String("component", "ops.Bootstrap")),
		state:   StateUninitialized,
	}
}

// State returns the current lifecycle state.
func (b *Bootstrap) State() BootstrapState {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// Run executes ensure_schema, scan and, if the store is empty, fetch,
// insert and rescan. Steps run strictly in sequence.
//
// A fetch that yields nothing leaves the store empty and still succeeds.
// Any store failure aborts the run with BOOTSTRAP_FAILED naming the step,
// and the state stays Uninitialized.
func (b *Bootstrap) Run(ctx context.Context) (*BootstrapOutput, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	start := time.Now()

	if err := db.EnsureSchema(ctx, b.db); err != nil {
		return nil, b.fail(StepEnsureSchema, err)
	}

	entries, err := db.ScanAll(ctx, b.db)
	if err != nil {
		return nil, b.fail(StepScan, err)
	}
	if len(entries) > 0 {
		b.state = StateReady
		b.logger.Debug("store already populated", slog.Int("entries", len(entries)))
		return &BootstrapOutput{Entries: entries}, nil
	}

	items := b.fetcher.FetchAll(ctx)
	out := &BootstrapOutput{Fetched: len(items)}

	run, err := db.InsertAll(ctx, b.db, items, sourceOf(b.fetcher))
	if err != nil {
		return nil, b.fail(StepInsert, err)
	}
	out.SeedRun = run
	out.Seeded = run != nil

	entries, err = db.ScanAll(ctx, b.db)
	if err != nil {
		return nil, b.fail(StepRescan, err)
	}
	out.Entries = entries

	b.state = StateReady
	b.logger.Info("bootstrap complete",
		slog.Bool("seeded", out.Seeded),
		slog.Int("fetched", out.Fetched),
		slog.Int("entries", len(entries)),
		slog.Duration("duration", time.Since(start)),
	)
	return out, nil
}

func (b *Bootstrap) fail(step string, err error) error {
	b.logger.Error("bootstrap failed", slog.String("step", step), slog.Any("error", err))
	return errors.NewBootstrapFailed(step, err)
}

package db

import (
	"context"
	"crypto/rand"
	"database/sql"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/hpungsan/lemon/internal/errors"
)

// SeedRun records one successful population of the menu table.
type SeedRun struct {
	ID        string `json:"id"` // ULID
	SourceURL string `json:"source_url"`
	Items     int    `json:"items"`
	CreatedAt int64  `json:"created_at"`
}

// LatestSeedRun returns the most recent seed run.
// Returns NOT_FOUND if the store has never been seeded.
func LatestSeedRun(ctx context.Context, db *sql.DB) (*SeedRun, error) {
	var run SeedRun
	err := db.QueryRowContext(ctx, `
		SELECT id, source_url, items, created_at
		FROM seed_runs
		ORDER BY id DESC
		LIMIT 1
	`).Scan(&run.ID, &run.SourceURL, &run.Items, &run.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, errors.NewNotFound("seed run")
	}
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	return &run, nil
}

func insertSeedRun(ctx context.Context, tx *sql.Tx, sourceURL string, items int) (*SeedRun, error) {
	id, err := generateULID()
	if err != nil {
		return nil, err
	}
	run := &SeedRun{
		ID:        id,
		SourceURL: sourceURL,
		Items:     items,
		CreatedAt: nowUnix(),
	}
	_, err = tx.ExecContext(ctx, `
		INSERT INTO seed_runs (id, source_url, items, created_at)
		VALUES (?, ?, ?, ?)
	`, run.ID, run.SourceURL, run.Items, run.CreatedAt)
	if err != nil {
		return nil, err
	}
	return run, nil
}

// Seed run ids sort by creation; a shared monotonic source keeps that true
// within the same millisecond.
var (
	entropyMu sync.Mutex
	entropy   = ulid.Monotonic(rand.Reader, 0)
)

// generateULID generates a new ULID.
func generateULID() (string, error) {
	entropyMu.Lock()
	defer entropyMu.Unlock()
	id, err := ulid.New(ulid.Timestamp(time.Now()), entropy)
	if err != nil {
		return "", err
	}
	return id.String(), nil
}

package ops

import (
	"context"
	"database/sql"

	"github.com/hpungsan/lemon/internal/config"
	"github.com/hpungsan/lemon/internal/db"
	"github.com/hpungsan/lemon/internal/errors"
)

// StatusOutput summarizes the local store.
type StatusOutput struct {
	Populated     bool           `json:"populated"`
	Entries       int            `json:"entries"`
	ByCategory    map[string]int `json:"by_category"`
	Categories    []string       `json:"categories"` // configured vocabulary
	SchemaVersion int            `json:"schema_version"`
	SeedRun       *db.SeedRun    `json:"seed_run,omitempty"`
}

// Status reports entry counts, the configured categories and the last seed run.
func Status(ctx context.Context, database *sql.DB, cfg *config.Config) (*StatusOutput, error) {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}

	count, err := db.CountEntries(ctx, database)
	if err != nil {
		return nil, err
	}
	byCategory, err := db.CountByCategory(ctx, database)
	if err != nil {
		return nil, err
	}
	version, err := db.GetUserVersion(database)
	if err != nil {
		return nil, errors.NewInternal(err)
	}

	out := &StatusOutput{
		Populated:     count > 0,
		Entries:       count,
		ByCategory:    byCategory,
		Categories:    append([]string{}, cfg.Categories...),
		SchemaVersion: version,
	}

	run, err := db.LatestSeedRun(ctx, database)
	switch {
	case err == nil:
		out.SeedRun = run
	case errors.Is(err, errors.ErrNotFound):
	default:
		return nil, err
	}
	return out, nil
}

package ops

import (
	"context"
	"database/sql"
	"log/slog"
	"sort"

	"github.com/hpungsan/lemon/internal/config"
	"github.com/hpungsan/lemon/internal/db"
	"github.com/hpungsan/lemon/internal/errors"
	"github.com/hpungsan/lemon/internal/filter"
	"github.com/hpungsan/lemon/internal/menu"
)

// QueryEngine answers filter states from the local store.
// It satisfies filter.Querier.
type QueryEngine struct {
	db              *sql.DB
	categories      []string
	caseInsensitive bool
	logger          *slog.Logger
}

// NewQueryEngine creates a QueryEngine using the configured category
// vocabulary and text match policy. A nil cfg means defaults.
func NewQueryEngine(database *sql.DB, cfg *config.Config, logger *slog.Logger) *QueryEngine {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &QueryEngine{
		db:              database,
		categories:      menu.CleanLabels(cfg.Categories),
		caseInsensitive: cfg.SearchCaseInsensitive,
		logger:          logger.With(slog.String("component", "ops.QueryEngine")),
	}
}

// Categories returns the configured category vocabulary in display order.
func (q *QueryEngine) Categories() []string {
	return append([]string(nil), q.categories...)
}

// Query returns the entries matching state in store order.
// An empty category set means every known category.
// Store failures surface as QUERY_FAILED wrapping the cause.
func (q *QueryEngine) Query(ctx context.Context, state filter.State) ([]menu.Entry, error) {
	categories, err := q.EffectiveCategories(ctx, state)
	if err != nil {
		return nil, errors.NewQueryFailed(err)
	}
	if len(categories) == 0 {
		// Nothing configured and nothing stored.
		return []menu.Entry{}, nil
	}

	entries, err := db.ScanFiltered(ctx, q.db, state.SearchTerm, categories, q.caseInsensitive)
	if err != nil {
		q.logger.Warn("query failed",
			slog.String("term", state.SearchTerm),
			slog.Any("categories", categories),
			slog.Any("error", err),
		)
		return nil, errors.NewQueryFailed(err)
	}

	q.logger.Debug("query",
		slog.String("term", state.SearchTerm),
		slog.Any("categories", categories),
		slog.Int("results", len(entries)),
	)
	return entries, nil
}

// EffectiveCategories resolves the category set a query runs against.
// Active categories win; otherwise the configured vocabulary; otherwise
// every category present in the store.
func (q *QueryEngine) EffectiveCategories(ctx context.Context, state filter.State) ([]string, error) {
	if active := state.ActiveCategories(); len(active) > 0 {
		return active, nil
	}
	if len(q.categories) > 0 {
		return q.Categories(), nil
	}

	counts, err := db.CountByCategory(ctx, q.db)
	if err != nil {
		return nil, err
	}
	stored := make([]string, 0, len(counts))
	for c := range counts {
		stored = append(stored, c)
	}
	sort.Strings(stored)
	return stored, nil
}

// QueryInput contains parameters for the Search operation.
type QueryInput struct {
	Term       string   // optional; empty means no text filter
	Categories []string // optional; empty means all categories
}

// QueryOutput contains the result of the Search operation.
type QueryOutput struct {
	Items      []menu.Entry `json:"items"`
	Term       string       `json:"term"`
	Categories []string     `json:"categories"` // effective set
	Count      int          `json:"count"`
}

// Search runs a one-shot query for hosts that are not driven by a filter controller.
func (q *QueryEngine) Search(ctx context.Context, input QueryInput) (*QueryOutput, error) {
	state := filter.NewState(input.Term, input.Categories...)

	categories, err := q.EffectiveCategories(ctx, state)
	if err != nil {
		return nil, errors.NewQueryFailed(err)
	}

	items, err := q.Query(ctx, state)
	if err != nil {
		return nil, err
	}

	return &QueryOutput{
		Items:      items,
		Term:       state.SearchTerm,
		Categories: categories,
		Count:      len(items),
	}, nil
}

// ListOutput contains the result of the List operation.
type ListOutput struct {
	Items []menu.Entry `json:"items"`
	Count int          `json:"count"`
}

// List returns every stored entry in store order, unfiltered.
func List(ctx context.Context, database *sql.DB) (*ListOutput, error) {
	entries, err := db.ScanAll(ctx, database)
	if err != nil {
		return nil, errors.NewQueryFailed(err)
	}
	return &ListOutput{Items: entries, Count: len(entries)}, nil
}

package db

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/hpungsan/lemon/internal/errors"
	"github.com/hpungsan/lemon/internal/menu"
)

const entryColumns = `id, name, price, description, category, image`

// InsertAll appends all items in a single transaction and records a seed run
// for the batch. Either every item becomes visible or none does.
// An empty batch writes nothing and returns a nil seed run.
func InsertAll(ctx context.Context, db *sql.DB, items []menu.Item, sourceURL string) (*SeedRun, error) {
	if idx, err := menu.ValidateAll(items); err != nil {
		return nil, errors.NewStorageWrite(idx, err)
	}
	if len(items) == 0 {
		return nil, nil
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return nil, errors.NewStorageWrite(-1, err)
	}
	defer tx.Rollback() //nolint:errcheck

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO menu (name, price, description, category, image)
		VALUES (?, ?, ?, ?, ?)
	`)
	if err != nil {
		return nil, errors.NewStorageWrite(-1, err)
	}
	defer stmt.Close()

	for i, it := range items {
		if _, err := stmt.ExecContext(ctx,
			strings.TrimSpace(it.Name), strings.TrimSpace(it.Price), it.Description,
			strings.TrimSpace(it.Category), it.Image,
		); err != nil {
			return nil, errors.NewStorageWrite(i, err)
		}
	}

	run, err := insertSeedRun(ctx, tx, sourceURL, len(items))
	if err != nil {
		return nil, errors.NewStorageWrite(-1, err)
	}

	if err := tx.Commit(); err != nil {
		return nil, errors.NewStorageWrite(-1, err)
	}

	return run, nil
}

// ScanAll returns every entry in insertion (id) order.
func ScanAll(ctx context.Context, db *sql.DB) ([]menu.Entry, error) {
	rows, err := db.QueryContext(ctx, `SELECT `+entryColumns+` FROM menu ORDER BY id`)
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	return scanEntries(rows)
}

// ScanFiltered returns entries whose category is one of categories and, when
// term is non-empty, whose name contains term.
//
// The term is always bound as a parameter. Case-sensitive matching uses
// instr(); case-insensitive matching uses LIKE with wildcards in the term escaped.
// categories must not be empty; the caller decides what "no filter" means.
func ScanFiltered(ctx context.Context, db *sql.DB, term string, categories []string, caseInsensitive bool) ([]menu.Entry, error) {
	if len(categories) == 0 {
		return nil, errors.NewInvalidRequest("categories must not be empty")
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(categories)), ", ")
	query := fmt.Sprintf(`SELECT %s FROM menu WHERE category IN (%s)`, entryColumns, placeholders)

	args := make([]any, 0, len(categories)+1)
	for _, c := range categories {
		args = append(args, c)
	}

	if term != "" {
		if caseInsensitive {
			query += ` AND name LIKE ? ESCAPE '\'`
			args = append(args, "%"+escapeLike(term)+"%")
		} else {
			query += ` AND instr(name, ?) > 0`
			args = append(args, term)
		}
	}
	query += ` ORDER BY id`

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	return scanEntries(rows)
}

// CountEntries returns the number of stored entries.
func CountEntries(ctx context.Context, db *sql.DB) (int, error) {
	var n int
	if err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM menu`).Scan(&n); err != nil {
		return 0, errors.NewInternal(err)
	}
	return n, nil
}

// CountByCategory returns entry counts keyed by category.
func CountByCategory(ctx context.Context, db *sql.DB) (map[string]int, error) {
	rows, err := db.QueryContext(ctx, `SELECT category, COUNT(*) FROM menu GROUP BY category`)
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var (
			category string
			n        int
		)
		if err := rows.Scan(&category, &n); err != nil {
			return nil, errors.NewInternal(err)
		}
		counts[category] = n
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewInternal(err)
	}
	return counts, nil
}

// scanEntries drains rows into entries. Always returns a non-nil slice on success.
func scanEntries(rows *sql.Rows) ([]menu.Entry, error) {
	defer rows.Close()

	entries := make([]menu.Entry, 0)
	for rows.Next() {
		var e menu.Entry
		if err := rows.Scan(&e.ID, &e.Name, &e.Price, &e.Description, &e.Category, &e.Image); err != nil {
			return nil, errors.NewInternal(err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewInternal(err)
	}
	return entries, nil
}

// escapeLike escapes LIKE wildcards so the term matches literally.
func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}

func nowUnix() int64 {
	return time.Now().Unix()
}

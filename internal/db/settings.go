package db

import (
	"context"
	"database/sql"
	"sort"
	"strings"

	"github.com/hpungsan/lemon/internal/errors"
)

// GetSettings returns the stored values for keys. Keys without a stored
// value map to nil.
func GetSettings(ctx context.Context, db *sql.DB, keys []string) (map[string]*string, error) {
	result := make(map[string]*string, len(keys))
	if len(keys) == 0 {
		return result, nil
	}

	args := make([]any, len(keys))
	for i, k := range keys {
		result[k] = nil
		args[i] = k
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(keys)), ", ")

	rows, err := db.QueryContext(ctx, `SELECT key, value FROM settings WHERE key IN (`+placeholders+`)`, args...)
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	defer rows.Close()

	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return nil, errors.NewInternal(err)
		}
		result[key] = &value
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewInternal(err)
	}
	return result, nil
}

// SetSettings upserts all pairs in one transaction.
func SetSettings(ctx context.Context, db *sql.DB, pairs map[string]string) error {
	if len(pairs) == 0 {
		return nil
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return errors.NewStorageWrite(-1, err)
	}
	defer tx.Rollback() //nolint:errcheck

	keys := make([]string, 0, len(pairs))
	for k := range pairs {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	now := nowUnix()
	for _, k := range keys {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO settings (key, value, updated_at) VALUES (?, ?, ?)
			ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
		`, k, pairs[k], now)
		if err != nil {
			return errors.NewStorageWrite(-1, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return errors.NewStorageWrite(-1, err)
	}
	return nil
}

// ClearSettings removes every stored setting and returns how many were removed.
func ClearSettings(ctx context.Context, db *sql.DB) (int, error) {
	result, err := db.ExecContext(ctx, `DELETE FROM settings`)
	if err != nil {
		return 0, errors.NewStorageWrite(-1, err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, errors.NewInternal(err)
	}
	return int(n), nil
}

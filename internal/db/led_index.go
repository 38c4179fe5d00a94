package db

import (
	"context"
	"fmt"

	"github.com/mini-rodalies-3d/metroled/internal/static/wl"
)

// IndexSource yields an LED index table
type IndexSource interface {
	LoadLEDIndex(ctx context.Context) ([]wl.LEDIndexRow, error)
}

// ImportLEDIndex upserts rows keyed by (ref, scheme) in one transaction
func (db *DB) ImportLEDIndex(ctx context.Context, rows []wl.LEDIndexRow) (int, error) {
	db.writeMu.Lock()
	defer db.writeMu.Unlock()

	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO led_index (ref, name, scheme, idx, updated_at)
		VALUES (?, ?, ?, ?, datetime('now'))
		ON CONFLICT (ref, scheme) DO UPDATE SET
			name = excluded.name,
			idx = excluded.idx,
			updated_at = excluded.updated_at
	`)
	if err != nil {
		return 0, fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	for _, r := range rows {
		if _, err := stmt.ExecContext(ctx, r.Ref, r.Name, r.Scheme, r.Index); err != nil {
			return 0, fmt.Errorf("failed to import ref %d scheme %s: %w", r.Ref, r.Scheme, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit: %w", err)
	}
	return len(rows), nil
}

// LoadLEDIndex implements IndexSource
func (db *DB) LoadLEDIndex(ctx context.Context) ([]wl.LEDIndexRow, error) {
	rows, err := db.conn.QueryContext(ctx, `SELECT ref, name, scheme, idx FROM led_index ORDER BY ref, scheme`)
	if err != nil {
		return nil, fmt.Errorf("failed to query led index: %w", err)
	}
	defer rows.Close()

	var out []wl.LEDIndexRow
	for rows.Next() {
		var r wl.LEDIndexRow
		if err := rows.Scan(&r.Ref, &r.Name, &r.Scheme, &r.Index); err != nil {
			return nil, fmt.Errorf("failed to scan led index: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

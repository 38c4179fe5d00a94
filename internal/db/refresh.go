package db

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/mini-rodalies-3d/metroled/internal/feed"
)

// RecordRefresh logs a successful refresh and returns its ID
func (db *DB) RecordRefresh(ctx context.Context, fetchedAt time.Time, stats feed.MapStats) (string, error) {
	db.writeMu.Lock()
	defer db.writeMu.Unlock()

	refreshID := uuid.New().String()
	_, err := db.conn.ExecContext(ctx, `
		INSERT INTO refresh_log (refresh_id, fetched_at_utc, monitors, departures, unknown_lines, unknown_stops)
		VALUES (?, ?, ?, ?, ?, ?)`,
		refreshID, fetchedAt.UTC().Format(time.RFC3339),
		stats.Monitors, stats.Departures, stats.UnknownLines, stats.UnknownStops,
	)
	if err != nil {
		return "", fmt.Errorf("failed to record refresh: %w", err)
	}
	return refreshID, nil
}

// RefreshCount returns the number of logged refreshes
func (db *DB) RefreshCount(ctx context.Context) (int, error) {
	var n int
	if err := db.conn.QueryRowContext(ctx, `SELECT COUNT(*) FROM refresh_log`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count refreshes: %w", err)
	}
	return n, nil
}

// Cleanup deletes refresh log entries older than retention
func (db *DB) Cleanup(ctx context.Context, retention time.Duration) (int, error) {
	hours := int(retention.Hours())
	if hours < 1 {
		hours = 1
	}

	db.writeMu.Lock()
	defer db.writeMu.Unlock()

	result, err := db.conn.ExecContext(ctx,
		fmt.Sprintf("DELETE FROM refresh_log WHERE datetime(fetched_at_utc) < datetime('now', '-%d hours')", hours),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to cleanup refresh_log: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows > 0 {
		db.log.Infow("cleanup deleted refresh log entries", "count", rows, "older_than_hours", hours)
	}
	return int(rows), nil
}

package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mini-rodalies-3d/metroled/internal/static/wl"
)

// PostgresIndexSource reads a shared LED index table from Postgres. The
// table has the same columns as the SQLite led_index table.
type PostgresIndexSource struct {
	pool *pgxpool.Pool
}

// NewPostgresIndexSource connects and pings the database
func NewPostgresIndexSource(ctx context.Context, databaseURL string) (*PostgresIndexSource, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &PostgresIndexSource{pool: pool}, nil
}

func (p *PostgresIndexSource) Close() {
	p.pool.Close()
}

// LoadLEDIndex implements IndexSource
func (p *PostgresIndexSource) LoadLEDIndex(ctx context.Context) ([]wl.LEDIndexRow, error) {
	rows, err := p.pool.Query(ctx, `SELECT ref, name, scheme, idx FROM led_index ORDER BY ref, scheme`)
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

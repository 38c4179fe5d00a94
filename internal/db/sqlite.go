// Package db stores LED index tables and the refresh log in SQLite, and
// reads LED index tables from Postgres.
package db

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"github.com/mini-rodalies-3d/metroled/internal/logging"
)

//go:embed schema.sql
var schemaSQL string

// DB wraps a SQLite connection with write serialization
type DB struct {
	conn    *sql.DB
	writeMu sync.Mutex
	log     *zap.SugaredLogger
}

// Connect opens a SQLite database in WAL mode and ensures the schema
func Connect(ctx context.Context, dbPath string, log *zap.SugaredLogger) (*DB, error) {
	log = logging.OrNop(log)

	dsn := dbPath + "?_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
	conn, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite has a single writer; one connection plus writeMu keeps
	// transactions from interleaving.
	conn.SetMaxOpenConns(1)
	conn.SetMaxIdleConns(1)
	conn.SetConnMaxLifetime(time.Hour)

	if err := conn.PingContext(ctx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	pragmas := []string{
		"PRAGMA synchronous = NORMAL",
		"PRAGMA temp_store = MEMORY",
	}
	for _, pragma := range pragmas {
		if _, err := conn.ExecContext(ctx, pragma); err != nil {
			log.Warnw("failed to set pragma", "pragma", pragma, "error", err)
		}
	}

	db := &DB{conn: conn, log: log}
	if err := db.EnsureSchema(ctx); err != nil {
		conn.Close()
		return nil, err
	}

	log.Infow("connected to SQLite database", "path", dbPath)
	return db, nil
}

// Close closes the database connection
func (db *DB) Close() error {
	return db.conn.Close()
}

// EnsureSchema creates the tables if they don't exist
func (db *DB) EnsureSchema(ctx context.Context) error {
	db.writeMu.Lock()
	defer db.writeMu.Unlock()

	if _, err := db.conn.ExecContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

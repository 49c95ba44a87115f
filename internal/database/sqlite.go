// Package database provides sqlite connectivity and the draw repository.
package database

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3" // sqlite driver
)

// DefaultPingTimeout bounds the connectivity check on open.
const DefaultPingTimeout = 5 * time.Second

// schema is applied on every open; all statements are idempotent.
const schema = `
CREATE TABLE IF NOT EXISTS draws (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	draw_no INTEGER UNIQUE NOT NULL,
	draw_date TEXT NOT NULL,
	n1 INTEGER NOT NULL,
	n2 INTEGER NOT NULL,
	n3 INTEGER NOT NULL,
	n4 INTEGER NOT NULL,
	n5 INTEGER NOT NULL,
	n6 INTEGER NOT NULL,
	n7 INTEGER NOT NULL,
	powerball INTEGER NOT NULL,
	source_url TEXT NOT NULL DEFAULT '',
	created_at TEXT DEFAULT (datetime('now')),
	updated_at TEXT DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_draws_date ON draws(draw_date);
CREATE INDEX IF NOT EXISTS idx_draws_no   ON draws(draw_no);
`

// NewSQLiteConnection opens (creating if needed) the sqlite database at
// path and applies the schema.
func NewSQLiteConnection(path string) (*sqlx.DB, error) {
	if dir := filepath.Dir(path); dir != "." {
		if mkErr := os.MkdirAll(dir, 0o755); mkErr != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", mkErr)
		}
	}

	db, err := sqlx.Connect("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// sqlite allows one writer; a single connection avoids lock churn.
	db.SetMaxOpenConns(1)

	ctx, cancel := context.WithTimeout(context.Background(), DefaultPingTimeout)
	defer cancel()

	if pingErr := db.PingContext(ctx); pingErr != nil {
		return nil, fmt.Errorf("failed to ping database: %w", pingErr)
	}

	if _, execErr := db.ExecContext(ctx, schema); execErr != nil {
		return nil, fmt.Errorf("failed to apply schema: %w", execErr)
	}

	return db, nil
}

// Package sqlite stores the shortlist in a local SQLite file, one row per key.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	_ "github.com/mattn/go-sqlite3"

	"github.com/MrSnakeDoc/boxdpick/internal/shortlist"
)

const schema = `
CREATE TABLE IF NOT EXISTS kv (
	key        TEXT PRIMARY KEY,
	value      BLOB NOT NULL,
	updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);`

// DefaultKey is the row holding the shortlist.
const DefaultKey = "shortlist"

// Open opens (or creates) the database at path and ensures the schema.
func Open(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}
	// One writer at a time; the shortlist is written synchronously anyway.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}
	return db, nil
}

// Backend implements shortlist.Backend on top of the kv table.
type Backend struct {
	db  *sql.DB
	key string
}

// NewBackend returns a backend reading and writing the row named key.
func NewBackend(db *sql.DB, key string) *Backend {
	if key == "" {
		key = DefaultKey
	}
	return &Backend{db: db, key: key}
}

func (b *Backend) Read(ctx context.Context) ([]byte, error) {
	var value []byte
	err := b.db.QueryRowContext(ctx, "SELECT value FROM kv WHERE key = ?", b.key).Scan(&value)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, shortlist.ErrNotFound
		}
		return nil, fmt.Errorf("failed to read %s: %w", b.key, err)
	}
	return value, nil
}

func (b *Backend) Write(ctx context.Context, data []byte) error {
	_, err := b.db.ExecContext(ctx, `
		INSERT INTO kv (key, value, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		b.key, data)
	if err != nil {
		return fmt.Errorf("failed to write %s: %w", b.key, err)
	}
	return nil
}

// Ping checks the database handle, used by the readiness probe.
func (b *Backend) Ping(ctx context.Context) error {
	return b.db.PingContext(ctx)
}

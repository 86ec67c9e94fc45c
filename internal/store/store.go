// Package store persists documents and their chunks in SQLite.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	_ "modernc.org/sqlite"
)

// ErrNotFound is returned when a document does not exist.
var ErrNotFound = errors.New("not found")

const schema = `
CREATE TABLE IF NOT EXISTS documents (
	doc_id       TEXT PRIMARY KEY,
	doc_path     TEXT NOT NULL,
	mimetype     TEXT NOT NULL DEFAULT '',
	title        TEXT NOT NULL DEFAULT '',
	total_pages  INTEGER NOT NULL DEFAULT 0,
	chunk_count  INTEGER NOT NULL DEFAULT 0,
	content_hash TEXT NOT NULL DEFAULT '',
	status       TEXT NOT NULL,
	last_error   TEXT NOT NULL DEFAULT '',
	updated_at   INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS chunks (
	doc_id        TEXT NOT NULL REFERENCES documents(doc_id) ON DELETE CASCADE,
	idx           INTEGER NOT NULL,
	content       TEXT NOT NULL,
	page          INTEGER NOT NULL DEFAULT 1,
	status        TEXT NOT NULL DEFAULT 'chunked',
	section_type  TEXT NOT NULL DEFAULT 'paragraph',
	section_title TEXT,
	path          TEXT,
	PRIMARY KEY (doc_id, idx)
);
CREATE INDEX IF NOT EXISTS idx_chunks_section ON chunks(doc_id, section_type);
`

// Store is a SQLite-backed document and chunk store.
type Store struct {
	db        *sql.DB
	batchSize int
}

// Open opens (creating if needed) the database at path and applies the
// schema. Use ":memory:" for an ephemeral store.
func Open(ctx context.Context, path string, batchSize int) (*Store, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("mkdir: %w", err)
		}
	}
	dsn := path + "?_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)&_pragma=busy_timeout(10000)"
	if strings.Contains(path, "?") {
		dsn = path
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	// Single connection: serializes writers and keeps ":memory:" databases alive.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}
	if batchSize <= 0 {
		batchSize = 100
	}
	return &Store{db: db, batchSize: batchSize}, nil
}

// Ping checks the database connection.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

func rollback(tx *sql.Tx) {
	_ = tx.Rollback()
}

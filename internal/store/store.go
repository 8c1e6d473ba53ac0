// Package store is the embedded relational persistence layer for the code
// graph: nodes, edges, file records, unresolved references, schema
// versioning and a full-text secondary index, all backed by sqlite through
// database/sql. Grounded on mind-palace's internal/index/index.go (pragma
// tuning, migration-table shape) generalized to the node/edge/edge-kind
// schema spec.md §3 and §4.1 require.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

// Store wraps a single sqlite database file holding the whole code graph.
type Store struct {
	db *sql.DB
}

// busyTimeoutMillis matches spec.md §4.1's "generous busy timeout (~2 minutes)".
const busyTimeoutMillis = 120_000

// Open creates the database file if absent, applies the base schema and FTS
// index, and then applies any pending migrations in ascending order. Opening
// a database with a schema version newer than this build understands is a
// fatal ErrIncompatibleSchema; opening a corrupt file returns ErrCorrupt.
func Open(ctx context.Context, path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create store directory: %w", err)
	}

	dsn := fmt.Sprintf("%s?_pragma=busy_timeout(%d)", path, busyTimeoutMillis)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	db.SetMaxOpenConns(1) // sqlite has a single writer; serialize through one conn

	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		fmt.Sprintf("PRAGMA busy_timeout=%d;", busyTimeoutMillis),
		"PRAGMA foreign_keys=ON;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA cache_size=-16000;", // ~16MB page cache
	}
	for _, p := range pragmas {
		if _, err := db.ExecContext(ctx, p); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("%w: apply pragma %q: %v", ErrCorrupt, p, err)
		}
	}

	if err := ensureSchema(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &Store{db: db}, nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// DB exposes the underlying handle for components (stats, ad-hoc migrations
// tooling) that need direct SQL access without widening the Store API.
func (s *Store) DB() *sql.DB {
	return s.db
}

// withTx runs fn inside a single transaction, matching spec.md §4.1's
// requirement that every multi-row write is wrapped in one transaction and
// that any failure rolls back cleanly with no partial application.
func (s *Store) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit()
}

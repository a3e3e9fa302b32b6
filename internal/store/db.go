// Package store is the durable SQLite-backed state store: datasource
// and task CRUD, unit config/runtime/history, and the cross-task
// synced-index ledger (spec §4.A). Every multi-row mutation runs in
// one transaction; reads are not transactional. The store never
// retries I/O — callers decide.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	_ "modernc.org/sqlite"

	"github.com/replicator/replicator/internal/store/migrations"
)

// maxOpenConns bounds the process-wide connection pool per spec §5.
const maxOpenConns = 5

// Store wraps a SQLite connection pool. Writes are serialized through
// writeMu because SQLite allows only one writer at a time; reads use
// the pool directly (list/load are not transactional, per spec §4.A).
type Store struct {
	db      *sql.DB
	writeMu sync.Mutex
}

// Open creates (if needed) the per-user app data directory, opens the
// SQLite database at path, and applies all migrations.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("store: create data dir: %w", err)
	}
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("store: open: %w", err)
	}
	db.SetMaxOpenConns(maxOpenConns)

	if err := migrations.Apply(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("store: migrate: %w", err)
	}
	return &Store{db: db}, nil
}

// OpenInMemory opens an ephemeral, process-private database. Used by
// tests and by short-lived tooling that doesn't need durability.
func OpenInMemory() (*Store, error) {
	db, err := sql.Open("sqlite", "file::memory:?cache=shared&_pragma=foreign_keys(1)")
	if err != nil {
		return nil, fmt.Errorf("store: open in-memory: %w", err)
	}
	db.SetMaxOpenConns(1) // a shared in-memory db vanishes once all conns close
	if err := migrations.Apply(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("store: migrate in-memory: %w", err)
	}
	return &Store{db: db}, nil
}

// Close releases the underlying connection pool.
func (s *Store) Close() error { return s.db.Close() }

// withTx runs fn inside a transaction, committing on success and
// rolling back on error or panic. Write operations always go through
// this (and hold writeMu) so SQLite's single-writer model never sees
// concurrent writers from within this process.
func (s *Store) withTx(ctx context.Context, fn func(tx *sql.Tx) error) (err error) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("store: begin tx: %w", err)
	}
	defer func() {
		if p := recover(); p != nil {
			tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("store: commit tx: %w", err)
	}
	return nil
}

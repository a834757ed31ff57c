// Package sqlite persists the warehouse snapshot to an embedded SQLite file
// using a single bucketed state table.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"samplevault/pkg/domain"

	_ "modernc.org/sqlite" // pure go sqlite driver
)

var _ domain.SnapshotStore = (*Store)(nil)

const (
	defaultPath     = "samplevault.db"
	warehouseBucket = "warehouse"
)

var (
	sqlOpen = sql.Open
	openMu  sync.Mutex
)

// Store writes the warehouse snapshot as a JSON payload keyed by bucket.
type Store struct {
	db   *sql.DB
	mu   sync.Mutex
	path string
}

// NewStore opens (or creates) the database at path and ensures the state
// table exists. An empty path uses ./samplevault.db.
func NewStore(ctx context.Context, path string) (*Store, error) {
	if path == "" {
		path = defaultPath
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil && !errors.Is(err, os.ErrExist) {
		return nil, fmt.Errorf("create dirs: %w", err)
	}
	openMu.Lock()
	db, err := sqlOpen("sqlite", path)
	openMu.Unlock()
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if _, err := db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS state (
		bucket TEXT PRIMARY KEY,
		payload BLOB NOT NULL
	)`); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create state table: %w", err)
	}
	return &Store{db: db, path: path}, nil
}

// Save upserts the snapshot into the warehouse bucket.
func (s *Store) Save(ctx context.Context, snapshot domain.WarehouseSnapshot) (retErr error) {
	data, err := json.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("encode warehouse: %w", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		if retErr != nil {
			_ = tx.Rollback()
		}
	}()
	if _, err := tx.ExecContext(ctx, `INSERT INTO state(bucket,payload) VALUES(?,?) ON CONFLICT(bucket) DO UPDATE SET payload=excluded.payload`, warehouseBucket, data); err != nil {
		return fmt.Errorf("upsert %s: %w", warehouseBucket, err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// Load reads the warehouse bucket. found is false when nothing was saved.
func (s *Store) Load(ctx context.Context) (domain.WarehouseSnapshot, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var payload []byte
	err := s.db.QueryRowContext(ctx, `SELECT payload FROM state WHERE bucket = ?`, warehouseBucket).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.WarehouseSnapshot{}, false, nil
	}
	if err != nil {
		return domain.WarehouseSnapshot{}, false, fmt.Errorf("select state: %w", err)
	}
	var snap domain.WarehouseSnapshot
	if err := json.Unmarshal(payload, &snap); err != nil {
		return domain.WarehouseSnapshot{}, false, fmt.Errorf("decode %s: %w", warehouseBucket, err)
	}
	return snap, true, nil
}

// Close closes the database handle.
func (s *Store) Close() error { return s.db.Close() }

// DB exposes the underlying sql.DB for integration testing hooks.
func (s *Store) DB() *sql.DB { return s.db }

// Path returns the configured database path.
func (s *Store) Path() string { return s.path }

// OverrideSQLOpen swaps the sqlOpen function for tests and returns a restore function.
func OverrideSQLOpen(fn func(driverName, dataSourceName string) (*sql.DB, error)) func() {
	openMu.Lock()
	defer openMu.Unlock()
	prev := sqlOpen
	sqlOpen = fn
	return func() {
		openMu.Lock()
		defer openMu.Unlock()
		sqlOpen = prev
	}
}

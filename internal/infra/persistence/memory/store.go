// Package memory provides an in-process warehouse snapshot store used for
// tests and ephemeral sessions.
package memory

import (
	"context"
	"sync"

	"samplevault/pkg/domain"
)

var _ domain.SnapshotStore = (*Store)(nil)

// Store keeps the last saved snapshot in memory.
type Store struct {
	mu    sync.RWMutex
	snap  domain.WarehouseSnapshot
	found bool
	saves int
}

// NewStore constructs an empty store.
func NewStore() *Store { return &Store{} }

// Save replaces the stored snapshot with a deep copy of snapshot.
func (s *Store) Save(ctx context.Context, snapshot domain.WarehouseSnapshot) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snap = snapshot.Clone()
	s.found = true
	s.saves++
	return nil
}

// Load returns a copy of the stored snapshot.
func (s *Store) Load(ctx context.Context) (domain.WarehouseSnapshot, bool, error) {
	if err := ctx.Err(); err != nil {
		return domain.WarehouseSnapshot{}, false, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.found {
		return domain.WarehouseSnapshot{}, false, nil
	}
	return s.snap.Clone(), true, nil
}

// Saves returns how many snapshots have been written.
func (s *Store) Saves() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.saves
}

// Close implements domain.SnapshotStore.
func (s *Store) Close() error { return nil }

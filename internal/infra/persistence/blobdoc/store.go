// Package blobdoc keeps the warehouse snapshot as a single JSON document in a
// blob store, so the save file can live on disk or in an S3 bucket.
package blobdoc

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"samplevault/internal/blob"
	"samplevault/pkg/domain"
)

var _ domain.SnapshotStore = (*Store)(nil)

// DefaultKey is the object key used when none is configured.
const DefaultKey = "warehouse.json"

// Store reads and replaces one JSON document.
type Store struct {
	blobs blob.Store
	key   string
}

// NewStore wraps blobs. An empty key uses DefaultKey.
func NewStore(blobs blob.Store, key string) *Store {
	if key == "" {
		key = DefaultKey
	}
	return &Store{blobs: blobs, key: key}
}

// Key returns the document key.
func (s *Store) Key() string { return s.key }

// Save encodes snapshot as indented JSON and overwrites the document.
func (s *Store) Save(ctx context.Context, snapshot domain.WarehouseSnapshot) error {
	data, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		return fmt.Errorf("encode warehouse: %w", err)
	}
	_, err = s.blobs.Put(ctx, s.key, bytes.NewReader(data), blob.PutOptions{
		ContentType: "application/json",
		Metadata:    map[string]string{"items": fmt.Sprint(len(snapshot.Items))},
		Overwrite:   true,
	})
	if err != nil {
		return fmt.Errorf("put %s: %w", s.key, err)
	}
	return nil
}

// Load decodes the document. A missing document reports found=false.
func (s *Store) Load(ctx context.Context) (domain.WarehouseSnapshot, bool, error) {
	_, rc, err := s.blobs.Get(ctx, s.key)
	if errors.Is(err, blob.ErrNotFound) {
		return domain.WarehouseSnapshot{}, false, nil
	}
	if err != nil {
		return domain.WarehouseSnapshot{}, false, fmt.Errorf("get %s: %w", s.key, err)
	}
	defer func() { _ = rc.Close() }()
	data, err := io.ReadAll(rc)
	if err != nil {
		return domain.WarehouseSnapshot{}, false, fmt.Errorf("read %s: %w", s.key, err)
	}
	var snap domain.WarehouseSnapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return domain.WarehouseSnapshot{}, false, fmt.Errorf("decode %s: %w", s.key, err)
	}
	return snap, true, nil
}

// Describe reports where the document lives and its stored size. found is
// false when nothing has been saved yet.
func (s *Store) Describe(ctx context.Context) (string, bool, error) {
	info, err := s.blobs.Head(ctx, s.key)
	if errors.Is(err, blob.ErrNotFound) {
		return fmt.Sprintf("%s %s (missing)", s.blobs.Driver(), s.key), false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("head %s: %w", s.key, err)
	}
	desc := fmt.Sprintf("%s %s %d bytes", s.blobs.Driver(), info.Key, info.Size)
	if items, ok := info.Metadata["items"]; ok {
		desc += " items=" + items
	}
	if !info.LastModified.IsZero() {
		desc += " modified=" + info.LastModified.UTC().Format(time.RFC3339)
	}
	return desc, true, nil
}

// Close implements domain.SnapshotStore; the blob store needs no teardown.
func (s *Store) Close() error { return nil }

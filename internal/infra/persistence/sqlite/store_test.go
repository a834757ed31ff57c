package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"samplevault/pkg/domain"
)

func sampleSnapshot() domain.WarehouseSnapshot {
	return domain.WarehouseSnapshot{
		Capacity: 150,
		Items: []domain.SampleRecord{
			{ID: "GEO2601010000AAAA0001", Metadata: domain.DisplayMetadata{Name: "Granite"}, Location: domain.InWarehouse,
				Layers: []domain.Layer{{Name: "top", DepthEnd: 0.4}, {Name: "base", DepthStart: 0.4, DepthEnd: 1}}},
			{ID: "GEO2601010000AAAA0002", Metadata: domain.DisplayMetadata{Name: "Shale"}, Location: domain.InWarehouse},
		},
		SavedAt: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

func TestStoreRoundTripAcrossReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "vault.db")
	store, err := NewStore(ctx, path)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	if _, found, err := store.Load(ctx); err != nil || found {
		t.Fatalf("expected empty database, found=%v err=%v", found, err)
	}
	if err := store.Save(ctx, sampleSnapshot()); err != nil {
		t.Fatalf("save: %v", err)
	}
	next := sampleSnapshot()
	next.Items = next.Items[:1]
	if err := store.Save(ctx, next); err != nil {
		t.Fatalf("second save: %v", err)
	}
	if store.Path() != path || store.DB() == nil {
		t.Fatalf("unexpected accessors")
	}
	if err := store.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	reopened, err := NewStore(ctx, path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	t.Cleanup(func() { _ = reopened.Close() })
	got, found, err := reopened.Load(ctx)
	if err != nil || !found {
		t.Fatalf("load: found=%v err=%v", found, err)
	}
	if got.Capacity != 150 || len(got.Items) != 1 || got.Items[0].LayerCount() != 2 {
		t.Fatalf("unexpected snapshot %+v", got)
	}
	if !got.SavedAt.Equal(next.SavedAt) {
		t.Fatalf("saved_at mismatch: %v", got.SavedAt)
	}
}

func TestStoreCorruptPayload(t *testing.T) {
	ctx := context.Background()
	store, err := NewStore(ctx, filepath.Join(t.TempDir(), "vault.db"))
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	if _, err := store.DB().ExecContext(ctx, `INSERT INTO state(bucket,payload) VALUES(?,?)`, warehouseBucket, []byte("{")); err != nil {
		t.Fatalf("seed: %v", err)
	}
	if _, _, err := store.Load(ctx); err == nil {
		t.Fatalf("expected decode error")
	}
}

func TestNewStoreOpenError(t *testing.T) {
	restore := OverrideSQLOpen(func(string, string) (*sql.DB, error) { return nil, errors.New("open boom") })
	defer restore()
	if _, err := NewStore(context.Background(), filepath.Join(t.TempDir(), "x.db")); err == nil {
		t.Fatalf("expected open error")
	}
}

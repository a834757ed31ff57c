package memory

import (
	"context"
	"testing"
	"time"

	"samplevault/pkg/domain"
)

func TestStoreSaveLoadIsolation(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	if _, found, err := store.Load(ctx); err != nil || found {
		t.Fatalf("expected empty store, got found=%v err=%v", found, err)
	}
	snap := domain.WarehouseSnapshot{
		Capacity: 120,
		Items:    []domain.SampleRecord{{ID: "GEO1", Metadata: domain.DisplayMetadata{Name: "Basalt"}}},
		SavedAt:  time.Unix(100, 0).UTC(),
	}
	if err := store.Save(ctx, snap); err != nil {
		t.Fatalf("save: %v", err)
	}
	snap.Items[0].Metadata.Name = "mutated"
	got, found, err := store.Load(ctx)
	if err != nil || !found {
		t.Fatalf("load: found=%v err=%v", found, err)
	}
	if got.Capacity != 120 || len(got.Items) != 1 || got.Items[0].Metadata.Name != "Basalt" {
		t.Fatalf("unexpected snapshot %+v", got)
	}
	got.Items[0].ID = "changed"
	again, _, _ := store.Load(ctx)
	if again.Items[0].ID != "GEO1" {
		t.Fatalf("load must return a copy")
	}
	if store.Saves() != 1 {
		t.Fatalf("expected 1 save, got %d", store.Saves())
	}
	if err := store.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
}

func TestStoreCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	store := NewStore()
	if err := store.Save(ctx, domain.WarehouseSnapshot{}); err == nil {
		t.Fatalf("expected context error on save")
	}
	if _, _, err := store.Load(ctx); err == nil {
		t.Fatalf("expected context error on load")
	}
}

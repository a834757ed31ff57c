package blobdoc

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"samplevault/internal/blob"
	"samplevault/pkg/domain"
)

func TestStoreRoundTripFilesystem(t *testing.T) {
	ctx := context.Background()
	fs, err := blob.NewFilesystem(t.TempDir())
	if err != nil {
		t.Fatalf("filesystem: %v", err)
	}
	store := NewStore(fs, "")
	if store.Key() != DefaultKey {
		t.Fatalf("expected default key, got %s", store.Key())
	}
	if _, found, err := store.Load(ctx); err != nil || found {
		t.Fatalf("expected missing document, found=%v err=%v", found, err)
	}
	snap := domain.WarehouseSnapshot{
		Capacity: 100,
		Items:    []domain.SampleRecord{{ID: "GEO1", Metadata: domain.DisplayMetadata{Name: "Chalk"}}},
		SavedAt:  time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	}
	for i := 0; i < 2; i++ {
		if err := store.Save(ctx, snap); err != nil {
			t.Fatalf("save %d: %v", i, err)
		}
	}
	info, err := fs.Head(ctx, DefaultKey)
	if err != nil || info.ContentType != "application/json" || info.Metadata["items"] != "1" {
		t.Fatalf("unexpected blob info %+v err=%v", info, err)
	}
	got, found, err := store.Load(ctx)
	if err != nil || !found {
		t.Fatalf("load: found=%v err=%v", found, err)
	}
	if got.Capacity != 100 || got.Items[0].Metadata.Name != "Chalk" || !got.SavedAt.Equal(snap.SavedAt) {
		t.Fatalf("unexpected snapshot %+v", got)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
}

func TestStoreCorruptDocument(t *testing.T) {
	ctx := context.Background()
	mem := blob.NewMemory()
	if _, err := mem.Put(ctx, "saves/w.json", bytes.NewReader([]byte("not json")), blob.PutOptions{}); err != nil {
		t.Fatalf("seed: %v", err)
	}
	if _, _, err := NewStore(mem, "saves/w.json").Load(ctx); err == nil {
		t.Fatalf("expected decode error")
	}
}

type failingStore struct {
	blob.Store
	err error
}

func (f failingStore) Get(context.Context, string) (blob.Info, io.ReadCloser, error) {
	return blob.Info{}, nil, f.err
}

func (f failingStore) Head(context.Context, string) (blob.Info, error) {
	return blob.Info{}, f.err
}

func (f failingStore) Put(context.Context, string, io.Reader, blob.PutOptions) (blob.Info, error) {
	return blob.Info{}, f.err
}

func TestStoreBackendErrors(t *testing.T) {
	ctx := context.Background()
	store := NewStore(failingStore{Store: blob.NewMemory(), err: errors.New("backend down")}, "w.json")
	if err := store.Save(ctx, domain.WarehouseSnapshot{}); err == nil || !strings.Contains(err.Error(), "backend down") {
		t.Fatalf("expected wrapped put error, got %v", err)
	}
	if _, _, err := store.Load(ctx); err == nil {
		t.Fatalf("expected get error")
	}
	if _, _, err := store.Describe(ctx); err == nil || !strings.Contains(err.Error(), "head w.json") {
		t.Fatalf("expected wrapped head error, got %v", err)
	}
}

func TestStoreDescribe(t *testing.T) {
	ctx := context.Background()
	store := NewStore(blob.NewMemory(), "saves/w.json")
	desc, found, err := store.Describe(ctx)
	if err != nil || found {
		t.Fatalf("expected missing document, found=%v err=%v", found, err)
	}
	if desc != "memory saves/w.json (missing)" {
		t.Fatalf("unexpected description %q", desc)
	}
	snap := domain.WarehouseSnapshot{Capacity: 100, Items: []domain.SampleRecord{{ID: "a"}, {ID: "b"}}}
	if err := store.Save(ctx, snap); err != nil {
		t.Fatalf("save: %v", err)
	}
	desc, found, err = store.Describe(ctx)
	if err != nil || !found {
		t.Fatalf("describe: found=%v err=%v", found, err)
	}
	if !strings.HasPrefix(desc, "memory saves/w.json ") || !strings.Contains(desc, "items=2") {
		t.Fatalf("unexpected description %q", desc)
	}
}

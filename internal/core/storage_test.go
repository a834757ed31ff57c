package core_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"samplevault/internal/core"
	"samplevault/internal/infra/persistence/blobdoc"
	"samplevault/internal/infra/persistence/memory"
	"samplevault/internal/infra/persistence/sqlite"
)

func TestOpenSnapshotStoreDrivers(t *testing.T) {
	ctx := context.Background()

	t.Run("memory", func(t *testing.T) {
		t.Setenv("SAMPLEVAULT_STORAGE_DRIVER", "memory")
		store, err := core.OpenSnapshotStore(ctx)
		require.NoError(t, err)
		assert.IsType(t, &memory.Store{}, store)
	})

	t.Run("sqlite default driver", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "custom.db")
		t.Setenv("SAMPLEVAULT_STORAGE_DRIVER", "")
		t.Setenv("SAMPLEVAULT_SQLITE_PATH", path)
		store, err := core.OpenSnapshotStore(ctx)
		require.NoError(t, err)
		defer func() { _ = store.Close() }()
		s, ok := store.(*sqlite.Store)
		require.True(t, ok, "got %T", store)
		assert.Equal(t, path, s.Path())
	})

	t.Run("file", func(t *testing.T) {
		t.Setenv("SAMPLEVAULT_STORAGE_DRIVER", "file")
		t.Setenv("SAMPLEVAULT_BLOB_DRIVER", "fs")
		t.Setenv("SAMPLEVAULT_BLOB_FS_ROOT", t.TempDir())
		t.Setenv("SAMPLEVAULT_SNAPSHOT_KEY", "saves/slot1.json")
		store, err := core.OpenSnapshotStore(ctx)
		require.NoError(t, err)
		doc, ok := store.(*blobdoc.Store)
		require.True(t, ok, "got %T", store)
		assert.Equal(t, "saves/slot1.json", doc.Key())
	})

	t.Run("file with bad blob driver", func(t *testing.T) {
		t.Setenv("SAMPLEVAULT_STORAGE_DRIVER", "file")
		t.Setenv("SAMPLEVAULT_BLOB_DRIVER", "tape")
		_, err := core.OpenSnapshotStore(ctx)
		require.Error(t, err)
	})

	t.Run("unknown", func(t *testing.T) {
		t.Setenv("SAMPLEVAULT_STORAGE_DRIVER", "floppy")
		_, err := core.OpenSnapshotStore(ctx)
		require.Error(t, err)
	})
}

package core

import (
	"context"
	"fmt"
	"os"

	"samplevault/internal/blob"
	"samplevault/internal/infra/persistence/blobdoc"
	"samplevault/internal/infra/persistence/memory"
	"samplevault/internal/infra/persistence/postgres"
	"samplevault/internal/infra/persistence/sqlite"
)

// StorageDriver identifies a concrete snapshot storage implementation.
type StorageDriver string

const (
	StorageMemory   StorageDriver = "memory"   // in-memory only (tests / ephemeral)
	StorageSQLite   StorageDriver = "sqlite"   // embedded sqlite file
	StoragePostgres StorageDriver = "postgres" // PostgreSQL server
	StorageFile     StorageDriver = "file"     // JSON document in a blob store
)

// OpenSnapshotStore selects a warehouse backend using environment variables.
// Defaults to sqlite when unset.
//
//	SAMPLEVAULT_STORAGE_DRIVER: memory|sqlite|postgres|file (default sqlite)
//	SAMPLEVAULT_SQLITE_PATH: path to sqlite file (default ./samplevault.db)
//	SAMPLEVAULT_POSTGRES_DSN: postgres DSN when driver=postgres
//	SAMPLEVAULT_SNAPSHOT_KEY: object key when driver=file (default warehouse.json)
//	SAMPLEVAULT_BLOB_*: blob backend settings when driver=file, see blob.Open
func OpenSnapshotStore(ctx context.Context) (SnapshotStore, error) {
	driver := os.Getenv("SAMPLEVAULT_STORAGE_DRIVER")
	if driver == "" {
		driver = string(StorageSQLite)
	}
	switch StorageDriver(driver) {
	case StorageMemory:
		return memory.NewStore(), nil
	case StorageSQLite:
		path := os.Getenv("SAMPLEVAULT_SQLITE_PATH")
		return sqlite.NewStore(ctx, path)
	case StoragePostgres:
		dsn := os.Getenv("SAMPLEVAULT_POSTGRES_DSN")
		return postgres.NewStore(ctx, dsn)
	case StorageFile:
		bs, err := blob.Open(ctx)
		if err != nil {
			return nil, fmt.Errorf("open blob store: %w", err)
		}
		return blobdoc.NewStore(bs, os.Getenv("SAMPLEVAULT_SNAPSHOT_KEY")), nil
	default:
		return nil, fmt.Errorf("unknown storage driver %s", driver)
	}
}

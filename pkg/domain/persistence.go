package domain

import (
	"context"
	"time"
)

// WarehouseSnapshot is the structured save file of the warehouse.
type WarehouseSnapshot struct {
	Capacity int            `json:"capacity" jsonschema:"minimum=0,description=Current warehouse capacity"`
	Items    []SampleRecord `json:"items" jsonschema:"description=Stored samples in display order"`
	SavedAt  time.Time      `json:"saved_at" jsonschema:"description=Time the snapshot was written"`
}

// Clone returns a deep copy of the snapshot.
func (s WarehouseSnapshot) Clone() WarehouseSnapshot {
	cp := s
	if s.Items != nil {
		cp.Items = make([]SampleRecord, len(s.Items))
		for i, item := range s.Items {
			cp.Items[i] = item.Clone()
		}
	}
	return cp
}

// SnapshotStore is the minimal abstraction over durable warehouse backends.
// Load reports found=false when nothing has been saved yet.
type SnapshotStore interface {
	Save(ctx context.Context, snapshot WarehouseSnapshot) error
	Load(ctx context.Context) (snapshot WarehouseSnapshot, found bool, err error)
	Close() error
}

package core

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"samplevault/internal/logging"
	"samplevault/pkg/domain"
)

// StoreConfig describes a capacity-limited holder. MaxCapacity > 0 enables
// ExpandCapacity; PageSize > 0 enables paging.
type StoreConfig struct {
	Location    Location
	Capacity    int
	MaxCapacity int
	PageSize    int
}

// InventoryConfig returns the player inventory configuration for cfg.
func InventoryConfig(cfg Config) StoreConfig {
	return StoreConfig{Location: InInventory, Capacity: cfg.InventoryCapacity}
}

// WarehouseConfig returns the warehouse configuration for cfg.
func WarehouseConfig(cfg Config) StoreConfig {
	return StoreConfig{
		Location:    InWarehouse,
		Capacity:    cfg.WarehouseCapacity,
		MaxCapacity: cfg.WarehouseMaxCapacity,
		PageSize:    cfg.WarehousePageSize,
	}
}

// StoreStats summarises a store for display panels.
type StoreStats struct {
	Count    int
	Capacity int
	Pages    int
	Oldest   time.Time
	Newest   time.Time
}

// BoundedStore is an ordered, capacity-limited holder of sample records.
// Records keep insertion order unless explicitly sorted.
type BoundedStore struct {
	cfg   StoreConfig
	items []SampleRecord
	ids   map[string]struct{}
	bus   *Bus
	log   logging.Logger
}

// NewBoundedStore validates cfg and constructs an empty store. bus and log
// may be nil.
func NewBoundedStore(cfg StoreConfig, bus *Bus, log logging.Logger) (*BoundedStore, error) {
	if !cfg.Location.Valid() || cfg.Location == InWorld {
		return nil, fmt.Errorf("bounded store location %s not supported", cfg.Location)
	}
	if cfg.Capacity <= 0 {
		return nil, fmt.Errorf("bounded store capacity must be positive, got %d", cfg.Capacity)
	}
	if cfg.MaxCapacity > 0 && cfg.MaxCapacity < cfg.Capacity {
		return nil, fmt.Errorf("bounded store ceiling %d below capacity %d", cfg.MaxCapacity, cfg.Capacity)
	}
	if log == nil {
		log = logging.NoOpLogger{}
	}
	return &BoundedStore{
		cfg: cfg,
		ids: make(map[string]struct{}, cfg.Capacity),
		bus: bus,
		log: log,
	}, nil
}

// Location returns the location stamped on every held record.
func (s *BoundedStore) Location() Location { return s.cfg.Location }

// Capacity returns the current capacity.
func (s *BoundedStore) Capacity() int { return s.cfg.Capacity }

// MaxCapacity returns the expansion ceiling, zero when the store is fixed.
func (s *BoundedStore) MaxCapacity() int { return s.cfg.MaxCapacity }

// Len returns the number of held records.
func (s *BoundedStore) Len() int { return len(s.items) }

// Free returns the number of empty slots.
func (s *BoundedStore) Free() int { return s.cfg.Capacity - len(s.items) }

// IsFull reports whether no slot is left.
func (s *BoundedStore) IsFull() bool { return len(s.items) >= s.cfg.Capacity }

// Has reports whether id is held.
func (s *BoundedStore) Has(id string) bool {
	_, ok := s.ids[id]
	return ok
}

// CanAdd reports whether Add would accept record.
func (s *BoundedStore) CanAdd(record SampleRecord) bool {
	return s.checkAdd(record) == nil
}

func (s *BoundedStore) checkAdd(record SampleRecord) error {
	if err := record.Validate(); err != nil {
		return err
	}
	if s.Has(record.ID) {
		return fmt.Errorf("%w: %s already in %s", domain.ErrDuplicateID, record.ID, s.cfg.Location)
	}
	if s.IsFull() {
		return fmt.Errorf("%w: %s holds %d/%d", domain.ErrCapacityExceeded, s.cfg.Location, len(s.items), s.cfg.Capacity)
	}
	return nil
}

// Add appends record, stamping its location with the store's.
func (s *BoundedStore) Add(record SampleRecord) error {
	if err := s.checkAdd(record); err != nil {
		s.log.Debug("add rejected", "location", s.cfg.Location, "id", record.ID, "error", err)
		return err
	}
	rec := record.Clone()
	rec.Location = s.cfg.Location
	s.items = append(s.items, rec)
	s.ids[rec.ID] = struct{}{}
	s.publish(OpAdd, rec.ID)
	return nil
}

// Insert places record at index, clamped to the current bounds. It applies
// the same checks as Add and is used to restore a record to its slot.
func (s *BoundedStore) Insert(index int, record SampleRecord) error {
	if err := s.checkAdd(record); err != nil {
		return err
	}
	index = max(0, min(index, len(s.items)))
	rec := record.Clone()
	rec.Location = s.cfg.Location
	s.items = append(s.items, SampleRecord{})
	copy(s.items[index+1:], s.items[index:])
	s.items[index] = rec
	s.ids[rec.ID] = struct{}{}
	s.publish(OpAdd, rec.ID)
	return nil
}

// IndexOf returns the position of id in store order, or -1.
func (s *BoundedStore) IndexOf(id string) int { return s.indexOf(id) }

// Remove detaches and returns the record with id.
func (s *BoundedStore) Remove(id string) (SampleRecord, error) {
	idx := s.indexOf(id)
	if idx < 0 {
		return SampleRecord{}, fmt.Errorf("%w: %s not in %s", domain.ErrNotFound, id, s.cfg.Location)
	}
	rec := s.items[idx]
	s.items = append(s.items[:idx], s.items[idx+1:]...)
	delete(s.ids, id)
	s.publish(OpRemove, id)
	return rec, nil
}

// Get returns a copy of the record with id.
func (s *BoundedStore) Get(id string) (SampleRecord, bool) {
	idx := s.indexOf(id)
	if idx < 0 {
		return SampleRecord{}, false
	}
	return s.items[idx].Clone(), true
}

// All returns copies of every record in store order.
func (s *BoundedStore) All() []SampleRecord {
	return cloneRecords(s.items)
}

// IDs returns the held IDs in store order.
func (s *BoundedStore) IDs() []string {
	out := make([]string, len(s.items))
	for i, rec := range s.items {
		out[i] = rec.ID
	}
	return out
}

// PageSize returns the configured page size, zero when paging is disabled.
func (s *BoundedStore) PageSize() int { return s.cfg.PageSize }

// PageCount returns ceil(count/pageSize), or 1 for a non-empty unpaged store.
func (s *BoundedStore) PageCount() int {
	if len(s.items) == 0 {
		return 0
	}
	if s.cfg.PageSize <= 0 {
		return 1
	}
	return (len(s.items) + s.cfg.PageSize - 1) / s.cfg.PageSize
}

// Page returns the zero-based page n. Out of range pages are empty.
func (s *BoundedStore) Page(n int) []SampleRecord {
	if n < 0 || n >= s.PageCount() {
		return nil
	}
	if s.cfg.PageSize <= 0 {
		return s.All()
	}
	start := n * s.cfg.PageSize
	end := min(start+s.cfg.PageSize, len(s.items))
	return cloneRecords(s.items[start:end])
}

// ExpandCapacity raises capacity by delta, clamped to the ceiling.
func (s *BoundedStore) ExpandCapacity(delta int) error {
	if s.cfg.MaxCapacity <= 0 {
		return fmt.Errorf("%w: %s capacity is fixed", domain.ErrLimitExceeded, s.cfg.Location)
	}
	if delta <= 0 {
		return fmt.Errorf("expand %s: delta must be positive, got %d", s.cfg.Location, delta)
	}
	if s.cfg.Capacity >= s.cfg.MaxCapacity {
		return fmt.Errorf("%w: %s already at ceiling %d", domain.ErrLimitExceeded, s.cfg.Location, s.cfg.MaxCapacity)
	}
	if delta >= s.cfg.MaxCapacity-s.cfg.Capacity {
		s.cfg.Capacity = s.cfg.MaxCapacity
	} else {
		s.cfg.Capacity += delta
	}
	s.log.Info("capacity expanded", "location", s.cfg.Location, "capacity", s.cfg.Capacity)
	s.publish(OpCapacity, "")
	return nil
}

// SetCapacity replaces the capacity. It never drops below the current
// occupancy and is clamped to the ceiling when one is configured.
func (s *BoundedStore) SetCapacity(n int) error {
	if n < len(s.items) {
		return fmt.Errorf("%w: %s capacity %d below occupancy %d", domain.ErrCapacityExceeded, s.cfg.Location, n, len(s.items))
	}
	if n <= 0 {
		return fmt.Errorf("set %s capacity: must be positive, got %d", s.cfg.Location, n)
	}
	if s.cfg.MaxCapacity > 0 && n > s.cfg.MaxCapacity {
		n = s.cfg.MaxCapacity
	}
	if n == s.cfg.Capacity {
		return nil
	}
	s.cfg.Capacity = n
	s.publish(OpCapacity, "")
	return nil
}

// SortByCollectionTime orders records by collection timestamp.
func (s *BoundedStore) SortByCollectionTime(ascending bool) {
	sort.SliceStable(s.items, func(i, j int) bool {
		a, b := s.items[i].Metadata.CollectedAt, s.items[j].Metadata.CollectedAt
		if ascending {
			return a.Before(b)
		}
		return b.Before(a)
	})
	s.publish(OpSort, "")
}

// SortByName orders records by display name, case-insensitively.
func (s *BoundedStore) SortByName(ascending bool) {
	sort.SliceStable(s.items, func(i, j int) bool {
		a := strings.ToLower(s.items[i].Metadata.Name)
		b := strings.ToLower(s.items[j].Metadata.Name)
		if ascending {
			return a < b
		}
		return b < a
	})
	s.publish(OpSort, "")
}

// Clear detaches and returns every record.
func (s *BoundedStore) Clear() []SampleRecord {
	out := s.items
	s.items = nil
	s.ids = make(map[string]struct{}, s.cfg.Capacity)
	if len(out) > 0 {
		s.publish(OpClear, "")
	}
	return out
}

// Stats summarises the store.
func (s *BoundedStore) Stats() StoreStats {
	stats := StoreStats{Count: len(s.items), Capacity: s.cfg.Capacity, Pages: s.PageCount()}
	for i, rec := range s.items {
		at := rec.Metadata.CollectedAt
		if i == 0 || at.Before(stats.Oldest) {
			stats.Oldest = at
		}
		if i == 0 || at.After(stats.Newest) {
			stats.Newest = at
		}
	}
	return stats
}

func (s *BoundedStore) indexOf(id string) int {
	if !s.Has(id) {
		return -1
	}
	for i := range s.items {
		if s.items[i].ID == id {
			return i
		}
	}
	return -1
}

func (s *BoundedStore) publish(op StoreOp, id string) {
	if s.bus == nil {
		return
	}
	s.bus.Publish(StoreChanged{
		Location: s.cfg.Location,
		Op:       op,
		ID:       id,
		Count:    len(s.items),
		Capacity: s.cfg.Capacity,
	})
}

func cloneRecords(in []SampleRecord) []SampleRecord {
	out := make([]SampleRecord, len(in))
	for i, rec := range in {
		out[i] = rec.Clone()
	}
	return out
}

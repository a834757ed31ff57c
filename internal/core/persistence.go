package core

import (
	"context"
	"fmt"
	"time"
)

// LoadReport summarises a warehouse restore.
type LoadReport struct {
	Found     bool
	Capacity  int
	Loaded    int
	Duplicate []string
	Overflow  []string
	Invalid   []string
}

// Skipped returns the number of items left out of the restore.
func (r LoadReport) Skipped() int { return len(r.Duplicate) + len(r.Overflow) + len(r.Invalid) }

// Snapshot captures the warehouse as a save file.
func (v *Vault) Snapshot() WarehouseSnapshot {
	return WarehouseSnapshot{
		Capacity: v.warehouse.Capacity(),
		Items:    v.warehouse.All(),
		SavedAt:  v.now().UTC(),
	}
}

// Save writes the warehouse to the configured snapshot store. Without a store
// it is a no-op.
func (v *Vault) Save(ctx context.Context) error {
	return v.save(ctx, v.now())
}

func (v *Vault) save(ctx context.Context, at time.Time) error {
	if v.snapshots == nil {
		return nil
	}
	start := time.Now()
	snap := v.Snapshot()
	snap.SavedAt = at.UTC()
	err := v.snapshots.Save(ctx, snap)
	v.metrics.Observe(ctx, "save", err == nil, time.Since(start))
	if err != nil {
		v.log.Error("warehouse save failed", "items", len(snap.Items), "error", err)
		return fmt.Errorf("save warehouse: %w", err)
	}
	v.autosaver.MarkClean(at)
	v.log.Debug("warehouse saved", "items", len(snap.Items), "capacity", snap.Capacity)
	return nil
}

// Load reads the configured snapshot store and restores the warehouse.
func (v *Vault) Load(ctx context.Context) (LoadReport, error) {
	if v.snapshots == nil {
		return LoadReport{}, nil
	}
	start := time.Now()
	snap, found, err := v.snapshots.Load(ctx)
	v.metrics.Observe(ctx, "load", err == nil, time.Since(start))
	if err != nil {
		v.log.Error("warehouse load failed", "error", err)
		return LoadReport{}, fmt.Errorf("load warehouse: %w", err)
	}
	if !found {
		v.log.Info("no warehouse snapshot found")
		return LoadReport{}, nil
	}
	report := v.Restore(snap)
	report.Found = true
	return report, nil
}

// Restore replaces the warehouse contents with snap. Every item is re-admitted
// as InWarehouse; items whose ID is already held elsewhere, items past the
// capacity and invalid items are skipped and logged.
func (v *Vault) Restore(snap WarehouseSnapshot) LoadReport {
	release := v.bus.Hold()
	for _, rec := range v.warehouse.Clear() {
		v.registry.Delete(rec.ID)
	}

	capacity := snap.Capacity
	if capacity < v.cfg.WarehouseCapacity {
		capacity = v.cfg.WarehouseCapacity
	}
	if capacity > v.cfg.WarehouseMaxCapacity {
		capacity = v.cfg.WarehouseMaxCapacity
	}
	if err := v.warehouse.SetCapacity(capacity); err != nil {
		v.log.Warn("restore capacity rejected", "capacity", capacity, "error", err)
	}

	report := LoadReport{Capacity: v.warehouse.Capacity()}
	for _, rec := range snap.Items {
		if err := rec.Validate(); err != nil {
			report.Invalid = append(report.Invalid, rec.ID)
			v.log.Warn("restore skipped invalid sample", "error", err)
			continue
		}
		if _, held := v.registry.Get(rec.ID); held || v.warehouse.Has(rec.ID) {
			report.Duplicate = append(report.Duplicate, rec.ID)
			v.log.Warn("restore skipped duplicate sample", "id", rec.ID)
			continue
		}
		if v.warehouse.IsFull() {
			report.Overflow = append(report.Overflow, rec.ID)
			v.log.Warn("restore skipped sample past capacity", "id", rec.ID, "capacity", v.warehouse.Capacity())
			continue
		}
		if err := v.warehouse.Add(rec); err != nil {
			report.Invalid = append(report.Invalid, rec.ID)
			v.log.Warn("restore rejected sample", "id", rec.ID, "error", err)
			continue
		}
		v.registry.Set(rec.ID, InWarehouse)
		report.Loaded++
	}
	release()
	v.autosaver.MarkClean(v.now())
	v.log.Info("warehouse restored", "loaded", report.Loaded, "skipped", report.Skipped(), "capacity", report.Capacity)
	return report
}

// Autosaver decides when an interval save is due. A zero interval disables
// interval saves.
type Autosaver struct {
	interval time.Duration
	last     time.Time
	dirty    bool
}

// NewAutosaver constructs an autosaver for interval.
func NewAutosaver(interval time.Duration) *Autosaver {
	return &Autosaver{interval: interval}
}

// MarkDirty records an unsaved change.
func (a *Autosaver) MarkDirty() { a.dirty = true }

// MarkClean records a completed save at now.
func (a *Autosaver) MarkClean(now time.Time) {
	a.dirty = false
	a.last = now
}

// Dirty reports whether changes are pending.
func (a *Autosaver) Dirty() bool { return a.dirty }

// Due reports whether an interval save should run at now.
func (a *Autosaver) Due(now time.Time) bool {
	if a.interval <= 0 || !a.dirty {
		return false
	}
	if a.last.IsZero() {
		a.last = now
		return false
	}
	return now.Sub(a.last) >= a.interval
}

// Tick saves the warehouse when the autosave interval has elapsed since the
// last save and there are unsaved changes. It reports whether a save ran.
func (v *Vault) Tick(ctx context.Context, now time.Time) (bool, error) {
	if v.snapshots == nil || !v.autosaver.Due(now) {
		return false, nil
	}
	v.log.Debug("autosave due")
	return true, v.save(ctx, now)
}

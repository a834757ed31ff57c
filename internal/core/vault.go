package core

import (
	"context"
	"errors"
	"fmt"
	"time"

	"samplevault/internal/logging"
	"samplevault/pkg/domain"
)

// Option configures a Vault.
type Option func(*options)

type options struct {
	log       logging.Logger
	metrics   MetricsRecorder
	snapshots SnapshotStore
	engine    *RulesEngine
	now       func() time.Time
}

// WithLogger sets the logger shared by every component.
func WithLogger(log logging.Logger) Option {
	return func(o *options) {
		if log != nil {
			o.log = log
		}
	}
}

// WithMetrics sets the metrics recorder.
func WithMetrics(m MetricsRecorder) Option {
	return func(o *options) {
		if m != nil {
			o.metrics = m
		}
	}
}

// WithSnapshotStore sets the durable warehouse backend.
func WithSnapshotStore(store SnapshotStore) Option {
	return func(o *options) { o.snapshots = store }
}

// WithRulesEngine replaces the default audit rules.
func WithRulesEngine(engine *RulesEngine) Option {
	return func(o *options) {
		if engine != nil {
			o.engine = engine
		}
	}
}

// WithClock overrides the wall clock used for snapshots, autosave and toggle
// debouncing.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		if now != nil {
			o.now = now
		}
	}
}

// Vault owns the complete custody model: the registry, both bounded stores,
// the world tracker and the two coordinators. It is not safe for concurrent
// use.
type Vault struct {
	cfg       Config
	bus       *Bus
	registry  *LocationRegistry
	inventory *BoundedStore
	warehouse *BoundedStore
	world     *WorldPlacementTracker
	transfers *TransferCoordinator
	selection *SelectionCoordinator
	engine    *RulesEngine
	snapshots SnapshotStore
	autosaver *Autosaver
	log       logging.Logger
	metrics   MetricsRecorder
	now       func() time.Time
	unsub     func()
	closed    bool
}

// NewVault constructs an empty vault. It does not read the snapshot store;
// use Open for that.
func NewVault(cfg Config, opts ...Option) (*Vault, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("vault config: %w", err)
	}
	o := options{
		log:     logging.NoOpLogger{},
		metrics: NoopMetrics(),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.engine == nil {
		o.engine = NewDefaultRulesEngine()
	}

	bus := NewBus()
	inventory, err := NewBoundedStore(InventoryConfig(cfg), bus, logging.With(o.log, "component", "inventory"))
	if err != nil {
		return nil, err
	}
	warehouse, err := NewBoundedStore(WarehouseConfig(cfg), bus, logging.With(o.log, "component", "warehouse"))
	if err != nil {
		return nil, err
	}
	registry := NewLocationRegistry()
	world := NewWorldPlacementTracker(TrackerConfig{PersistPositions: cfg.PersistPositions}, bus, logging.With(o.log, "component", "world"))

	v := &Vault{
		cfg:       cfg,
		bus:       bus,
		registry:  registry,
		inventory: inventory,
		warehouse: warehouse,
		world:     world,
		engine:    o.engine,
		snapshots: o.snapshots,
		autosaver: NewAutosaver(cfg.AutosaveInterval),
		log:       o.log,
		metrics:   o.metrics,
		now:       o.now,
	}
	v.transfers = NewTransferCoordinator(registry, world, bus, []Holder{inventory, warehouse},
		WithTransferLogger(logging.With(o.log, "component", "transfer")),
		WithTransferMetrics(o.metrics),
	)
	v.selection = NewSelectionCoordinator(
		SelectionConfig{MaxSelection: cfg.MaxSelection, ToggleDebounce: cfg.ToggleDebounce},
		registry, bus,
		WithSelectionLogger(logging.With(o.log, "component", "selection")),
		WithSelectionMetrics(o.metrics),
		WithSelectionClock(o.now),
		WithSelectionSources(inventory, warehouse),
	)
	v.unsub = bus.Subscribe(v.onEvent)
	v.autosaver.MarkClean(o.now())
	v.metrics.SetOccupancy(InInventory, 0, inventory.Capacity())
	v.metrics.SetOccupancy(InWarehouse, 0, warehouse.Capacity())
	return v, nil
}

// Open constructs a vault and restores the warehouse from the snapshot store
// before returning.
func Open(ctx context.Context, cfg Config, opts ...Option) (*Vault, LoadReport, error) {
	v, err := NewVault(cfg, opts...)
	if err != nil {
		return nil, LoadReport{}, err
	}
	report, err := v.Load(ctx)
	if err != nil {
		v.selection.Close()
		v.unsub()
		return nil, LoadReport{}, err
	}
	return v, report, nil
}

// Close saves the warehouse, detaches every subscriber it installed and
// closes the snapshot store. Subsequent calls are no-ops.
func (v *Vault) Close(ctx context.Context) error {
	if v.closed {
		return nil
	}
	v.closed = true
	saveErr := v.Save(ctx)
	v.selection.Close()
	v.unsub()
	var closeErr error
	if v.snapshots != nil {
		closeErr = v.snapshots.Close()
	}
	return errors.Join(saveErr, closeErr)
}

// Config returns the vault configuration.
func (v *Vault) Config() Config { return v.cfg }

// Bus returns the notification bus panels subscribe to.
func (v *Vault) Bus() *Bus { return v.bus }

// Inventory returns the player inventory.
func (v *Vault) Inventory() *BoundedStore { return v.inventory }

// Warehouse returns the warehouse.
func (v *Vault) Warehouse() *BoundedStore { return v.warehouse }

// World returns the world placement tracker.
func (v *Vault) World() *WorldPlacementTracker { return v.world }

// Transfers returns the transfer coordinator.
func (v *Vault) Transfers() *TransferCoordinator { return v.transfers }

// Selection returns the selection coordinator.
func (v *Vault) Selection() *SelectionCoordinator { return v.selection }

// Location returns the location of id.
func (v *Vault) Location(id string) (Location, bool) { return v.registry.Get(id) }

// Len returns the number of live samples.
func (v *Vault) Len() int { return v.registry.Len() }

// Get returns a copy of the record with id wherever it is held.
func (v *Vault) Get(id string) (SampleRecord, bool) {
	loc, ok := v.registry.Get(id)
	if !ok {
		return SampleRecord{}, false
	}
	switch loc {
	case InInventory:
		return v.inventory.Get(id)
	case InWarehouse:
		return v.warehouse.Get(id)
	case InWorld:
		return v.world.Lookup(id)
	}
	return SampleRecord{}, false
}

// Admit brings a new record under custody in a bounded location.
func (v *Vault) Admit(record SampleRecord, loc Location) error {
	if err := v.checkAdmit(record); err != nil {
		return err
	}
	store, ok := v.store(loc)
	if !ok {
		return fmt.Errorf("%w: admit to %s needs a placement handle", domain.ErrLocationMismatch, loc)
	}
	if err := store.Add(record); err != nil {
		return err
	}
	v.registry.Set(record.ID, loc)
	v.log.Debug("sample admitted", "id", record.ID, "location", loc)
	return nil
}

// AdmitPlaced brings a new record under custody placed in the world at handle.
func (v *Vault) AdmitPlaced(record SampleRecord, handle Handle) error {
	if err := v.checkAdmit(record); err != nil {
		return err
	}
	if err := v.world.Register(handle, record); err != nil {
		return err
	}
	v.registry.Set(record.ID, InWorld)
	v.log.Debug("sample admitted", "id", record.ID, "location", InWorld, "handle", handle.String())
	return nil
}

func (v *Vault) checkAdmit(record SampleRecord) error {
	if err := record.Validate(); err != nil {
		return err
	}
	if loc, ok := v.registry.Get(record.ID); ok {
		return fmt.Errorf("%w: %s already in %s", domain.ErrDuplicateID, record.ID, loc)
	}
	return nil
}

// Discard irreversibly destroys a warehouse sample.
func (v *Vault) Discard(id string) error {
	if err := v.registry.Check(id, InWarehouse); err != nil {
		return err
	}
	release := v.bus.Hold()
	defer release()
	if _, err := v.warehouse.Remove(id); err != nil {
		return err
	}
	v.registry.Delete(id)
	v.log.Info("sample discarded", "id", id)
	return nil
}

// ExpandWarehouseCapacity grows the warehouse and saves immediately.
func (v *Vault) ExpandWarehouseCapacity(ctx context.Context, delta int) error {
	if err := v.warehouse.ExpandCapacity(delta); err != nil {
		return err
	}
	return v.Save(ctx)
}

// UnloadScene purges every placement of scene. When positions persist the
// samples stay InWorld, parked until RestoreScene; otherwise they leave
// custody and are returned.
func (v *Vault) UnloadScene(scene string) []SampleRecord {
	release := v.bus.Hold()
	defer release()
	purged := v.world.PurgeScene(scene)
	if !v.cfg.PersistPositions {
		for _, rec := range purged {
			v.registry.Delete(rec.ID)
		}
	}
	return purged
}

// RestoreScene re-places the samples parked under scene; see
// WorldPlacementTracker.RestoreScene.
func (v *Vault) RestoreScene(scene string, spawn func(SampleRecord) (string, error)) ([]Handle, error) {
	release := v.bus.Hold()
	defer release()
	return v.world.RestoreScene(scene, spawn)
}

// Search ranks the records at loc by display name.
func (v *Vault) Search(loc Location, query string, limit int) []SearchHit {
	var records []SampleRecord
	switch loc {
	case InInventory:
		records = v.inventory.All()
	case InWarehouse:
		records = v.warehouse.All()
	case InWorld:
		records = v.world.All()
	}
	return SearchRecords(records, query, limit)
}

// Verify audits the custody invariants. Blocking violations are returned as a
// RuleViolationError alongside the full result.
func (v *Vault) Verify(ctx context.Context) (Result, error) {
	res, err := v.engine.Evaluate(ctx, vaultView{v})
	if err != nil {
		return Result{}, err
	}
	if res.HasBlocking() {
		return res, RuleViolationError{Result: res}
	}
	return res, nil
}

func (v *Vault) store(loc Location) (*BoundedStore, bool) {
	switch loc {
	case InInventory:
		return v.inventory, true
	case InWarehouse:
		return v.warehouse, true
	default:
		return nil, false
	}
}

func (v *Vault) onEvent(ev Event) {
	changed, ok := ev.(StoreChanged)
	if !ok {
		return
	}
	v.metrics.SetOccupancy(changed.Location, changed.Count, changed.Capacity)
	if changed.Location == InWarehouse {
		v.autosaver.MarkDirty()
	}
}

// vaultView adapts a Vault to domain.RuleView.
type vaultView struct{ v *Vault }

func (w vaultView) Records(loc Location) []SampleRecord {
	switch loc {
	case InInventory:
		return w.v.inventory.All()
	case InWarehouse:
		return w.v.warehouse.All()
	case InWorld:
		out := w.v.world.All()
		for _, scene := range w.v.world.ParkedScenes() {
			out = append(out, w.v.world.Parked(scene)...)
		}
		return out
	}
	return nil
}

func (w vaultView) Capacity(loc Location) (int, bool) {
	if s, ok := w.v.store(loc); ok {
		return s.Capacity(), true
	}
	return 0, false
}

func (w vaultView) RegisteredLocation(id string) (Location, bool) { return w.v.registry.Get(id) }
func (w vaultView) RegisteredIDs() []string                      { return w.v.registry.IDs(LocationUnknown) }
func (w vaultView) SelectedIDs() []string                        { return w.v.selection.Selected() }
func (w vaultView) SelectionLocation() Location                  { return w.v.selection.Location() }

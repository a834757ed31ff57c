package core

import (
	"fmt"
	"sort"

	"samplevault/internal/logging"
	"samplevault/pkg/domain"
)

// Handle identifies a placed scene object. Handles are only meaningful within
// the scene that issued them.
type Handle struct {
	Scene  string
	Object string
}

func (h Handle) String() string { return h.Scene + "/" + h.Object }

// Valid reports whether both parts are set.
func (h Handle) Valid() bool { return h.Scene != "" && h.Object != "" }

// TrackerConfig tunes scene lifecycle handling.
type TrackerConfig struct {
	// PersistPositions parks purged records with their last known position
	// instead of releasing them.
	PersistPositions bool
}

// WorldPlacementTracker holds samples placed in the world, keyed by scene
// handle, plus samples parked while their scene is unloaded.
type WorldPlacementTracker struct {
	cfg    TrackerConfig
	placed map[Handle]SampleRecord
	byID   map[string]Handle
	order  []Handle
	parked map[string][]SampleRecord
	bus    *Bus
	log    logging.Logger
}

// NewWorldPlacementTracker constructs an empty tracker. bus and log may be nil.
func NewWorldPlacementTracker(cfg TrackerConfig, bus *Bus, log logging.Logger) *WorldPlacementTracker {
	if log == nil {
		log = logging.NoOpLogger{}
	}
	return &WorldPlacementTracker{
		cfg:    cfg,
		placed: make(map[Handle]SampleRecord),
		byID:   make(map[string]Handle),
		parked: make(map[string][]SampleRecord),
		bus:    bus,
		log:    log,
	}
}

// Location returns InWorld.
func (t *WorldPlacementTracker) Location() Location { return InWorld }

// Len returns the number of live placements.
func (t *WorldPlacementTracker) Len() int { return len(t.placed) }

// ParkedLen returns the number of parked records across scenes.
func (t *WorldPlacementTracker) ParkedLen() int {
	n := 0
	for _, recs := range t.parked {
		n += len(recs)
	}
	return n
}

// Has reports whether id is placed or parked.
func (t *WorldPlacementTracker) Has(id string) bool {
	if _, ok := t.byID[id]; ok {
		return true
	}
	_, _, ok := t.findParked(id)
	return ok
}

// CanRegister reports whether Register(handle, record) would succeed.
func (t *WorldPlacementTracker) CanRegister(handle Handle, record SampleRecord) bool {
	return t.checkRegister(handle, record) == nil
}

func (t *WorldPlacementTracker) checkRegister(handle Handle, record SampleRecord) error {
	if err := record.Validate(); err != nil {
		return err
	}
	if !handle.Valid() {
		return fmt.Errorf("%w: invalid handle %q", domain.ErrInvalidRecord, handle.String())
	}
	if t.Has(record.ID) {
		return fmt.Errorf("%w: %s already in world", domain.ErrDuplicateID, record.ID)
	}
	if _, ok := t.placed[handle]; ok {
		return fmt.Errorf("%w: handle %s already bound", domain.ErrDuplicateID, handle)
	}
	return nil
}

// Register binds record to handle and stamps it InWorld.
func (t *WorldPlacementTracker) Register(handle Handle, record SampleRecord) error {
	if err := t.checkRegister(handle, record); err != nil {
		t.log.Debug("world register rejected", "handle", handle.String(), "id", record.ID, "error", err)
		return err
	}
	rec := record.Clone()
	rec.Location = InWorld
	t.placed[handle] = rec
	t.byID[rec.ID] = handle
	t.order = append(t.order, handle)
	t.publish(OpAdd, rec.ID)
	return nil
}

// restore re-binds a record removed by Unregister at its previous position in
// registration order.
func (t *WorldPlacementTracker) restore(index int, handle Handle, record SampleRecord) error {
	if err := t.checkRegister(handle, record); err != nil {
		return err
	}
	record.Location = InWorld
	index = max(0, min(index, len(t.order)))
	t.placed[handle] = record
	t.byID[record.ID] = handle
	t.order = append(t.order, Handle{})
	copy(t.order[index+1:], t.order[index:])
	t.order[index] = handle
	t.publish(OpAdd, record.ID)
	return nil
}

func (t *WorldPlacementTracker) orderOf(handle Handle) int {
	for i, h := range t.order {
		if h == handle {
			return i
		}
	}
	return -1
}

// Unregister detaches the record bound to handle.
func (t *WorldPlacementTracker) Unregister(handle Handle) (SampleRecord, error) {
	rec, ok := t.placed[handle]
	if !ok {
		return SampleRecord{}, fmt.Errorf("%w: no sample at %s", domain.ErrNotFound, handle)
	}
	t.detach(handle, rec.ID)
	t.publish(OpRemove, rec.ID)
	return rec, nil
}

func (t *WorldPlacementTracker) detach(handle Handle, id string) {
	delete(t.placed, handle)
	delete(t.byID, id)
	for i, h := range t.order {
		if h == handle {
			t.order = append(t.order[:i], t.order[i+1:]...)
			break
		}
	}
}

// FindByID returns the live handle bound to id.
func (t *WorldPlacementTracker) FindByID(id string) (Handle, bool) {
	h, ok := t.byID[id]
	return h, ok
}

// Get returns a copy of the record bound to handle.
func (t *WorldPlacementTracker) Get(handle Handle) (SampleRecord, bool) {
	rec, ok := t.placed[handle]
	if !ok {
		return SampleRecord{}, false
	}
	return rec.Clone(), true
}

// Lookup returns a copy of the placed or parked record with id.
func (t *WorldPlacementTracker) Lookup(id string) (SampleRecord, bool) {
	if h, ok := t.byID[id]; ok {
		return t.placed[h].Clone(), true
	}
	scene, idx, ok := t.findParked(id)
	if !ok {
		return SampleRecord{}, false
	}
	return t.parked[scene][idx].Clone(), true
}

// All returns the live placements in registration order.
func (t *WorldPlacementTracker) All() []SampleRecord {
	out := make([]SampleRecord, 0, len(t.order))
	for _, h := range t.order {
		out = append(out, t.placed[h].Clone())
	}
	return out
}

// UpdatePosition records the latest position of the object at handle.
func (t *WorldPlacementTracker) UpdatePosition(handle Handle, pos Vec3) error {
	rec, ok := t.placed[handle]
	if !ok {
		return fmt.Errorf("%w: no sample at %s", domain.ErrNotFound, handle)
	}
	rec.WorldPosition = pos
	t.placed[handle] = rec
	t.publish(OpMove, rec.ID)
	return nil
}

// PurgeScene removes every placement of scene and returns the purged records.
// With PersistPositions the records are parked under the scene and remain
// tracked; otherwise they are released to the caller.
func (t *WorldPlacementTracker) PurgeScene(scene string) []SampleRecord {
	var purged []SampleRecord
	for _, h := range append([]Handle(nil), t.order...) {
		if h.Scene != scene {
			continue
		}
		rec := t.placed[h]
		t.detach(h, rec.ID)
		purged = append(purged, rec)
	}
	if len(purged) == 0 {
		return nil
	}
	if t.cfg.PersistPositions {
		t.parked[scene] = append(t.parked[scene], cloneRecords(purged)...)
	}
	t.log.Info("scene purged", "scene", scene, "samples", len(purged), "parked", t.cfg.PersistPositions)
	t.publish(OpClear, "")
	return purged
}

// Parked returns copies of the records parked under scene.
func (t *WorldPlacementTracker) Parked(scene string) []SampleRecord {
	return cloneRecords(t.parked[scene])
}

// ParkedScenes returns the scenes with parked records, sorted.
func (t *WorldPlacementTracker) ParkedScenes() []string {
	scenes := make([]string, 0, len(t.parked))
	for scene, recs := range t.parked {
		if len(recs) > 0 {
			scenes = append(scenes, scene)
		}
	}
	sort.Strings(scenes)
	return scenes
}

// RestoreScene re-places the records parked under scene. spawn creates the
// scene object for a record at its stored position and returns its object
// name. Records whose spawn fails stay parked and the first error is returned.
func (t *WorldPlacementTracker) RestoreScene(scene string, spawn func(SampleRecord) (string, error)) ([]Handle, error) {
	recs := t.parked[scene]
	if len(recs) == 0 {
		return nil, nil
	}
	var (
		handles  []Handle
		leftover []SampleRecord
		firstErr error
	)
	delete(t.parked, scene)
	for _, rec := range recs {
		object, err := spawn(rec.Clone())
		if err == nil {
			h := Handle{Scene: scene, Object: object}
			if err = t.Register(h, rec); err == nil {
				handles = append(handles, h)
				continue
			}
		}
		if firstErr == nil {
			firstErr = fmt.Errorf("restore %s in %s: %w", rec.ID, scene, err)
		}
		leftover = append(leftover, rec)
	}
	if len(leftover) > 0 {
		t.parked[scene] = leftover
	}
	return handles, firstErr
}

// DropParked releases a parked record.
func (t *WorldPlacementTracker) DropParked(id string) (SampleRecord, error) {
	scene, idx, ok := t.findParked(id)
	if !ok {
		return SampleRecord{}, fmt.Errorf("%w: %s not parked", domain.ErrNotFound, id)
	}
	recs := t.parked[scene]
	rec := recs[idx]
	t.parked[scene] = append(recs[:idx], recs[idx+1:]...)
	if len(t.parked[scene]) == 0 {
		delete(t.parked, scene)
	}
	t.publish(OpRemove, id)
	return rec, nil
}

func (t *WorldPlacementTracker) findParked(id string) (string, int, bool) {
	for scene, recs := range t.parked {
		for i, rec := range recs {
			if rec.ID == id {
				return scene, i, true
			}
		}
	}
	return "", -1, false
}

func (t *WorldPlacementTracker) publish(op StoreOp, id string) {
	if t.bus == nil {
		return
	}
	t.bus.Publish(StoreChanged{
		Location: InWorld,
		Op:       op,
		ID:       id,
		Count:    len(t.placed) + t.ParkedLen(),
	})
}

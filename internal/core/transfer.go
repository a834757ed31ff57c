package core

import (
	"context"
	"errors"
	"fmt"
	"time"

	"samplevault/internal/logging"
	"samplevault/pkg/domain"
)

// Holder is a capacity-checked container the coordinator can move records
// between. BoundedStore implements it.
type Holder interface {
	Location() Location
	Has(id string) bool
	Get(id string) (SampleRecord, bool)
	CanAdd(record SampleRecord) bool
	Add(record SampleRecord) error
	Insert(index int, record SampleRecord) error
	IndexOf(id string) int
	Remove(id string) (SampleRecord, error)
}

var _ Holder = (*BoundedStore)(nil)

// FailedTransfer pairs a requested ID with the reason it did not move.
type FailedTransfer struct {
	ID  string
	Err error
}

// BatchResult reports the per-item outcome of a batch transfer.
type BatchResult struct {
	Requested int
	Succeeded []string
	Failed    []FailedTransfer
}

// SucceededCount returns the number of moved items.
func (r BatchResult) SucceededCount() int { return len(r.Succeeded) }

// FailedCount returns the number of items left in place.
func (r BatchResult) FailedCount() int { return len(r.Failed) }

// FailedIDs returns the IDs that did not move, in request order.
func (r BatchResult) FailedIDs() []string {
	out := make([]string, len(r.Failed))
	for i, f := range r.Failed {
		out[i] = f.ID
	}
	return out
}

// Complete reports whether every requested item moved.
func (r BatchResult) Complete() bool { return r.Requested == len(r.Succeeded) }

// TransferOption configures a TransferCoordinator.
type TransferOption func(*TransferCoordinator)

// WithTransferLogger sets the coordinator logger.
func WithTransferLogger(log logging.Logger) TransferOption {
	return func(c *TransferCoordinator) {
		if log != nil {
			c.log = log
		}
	}
}

// WithTransferMetrics sets the coordinator metrics recorder.
func WithTransferMetrics(m MetricsRecorder) TransferOption {
	return func(c *TransferCoordinator) {
		if m != nil {
			c.metrics = m
		}
	}
}

// TransferCoordinator is the only component that changes a sample's location.
// Every move removes from the source, adds to the destination and, when the
// add fails, restores the source so the state is exactly as before.
type TransferCoordinator struct {
	registry *LocationRegistry
	world    *WorldPlacementTracker
	holders  map[Location]Holder
	bus      *Bus
	log      logging.Logger
	metrics  MetricsRecorder
}

// NewTransferCoordinator wires the coordinator to the registry, the world
// tracker and the bounded holders. world and bus may be nil.
func NewTransferCoordinator(registry *LocationRegistry, world *WorldPlacementTracker, bus *Bus, holders []Holder, opts ...TransferOption) *TransferCoordinator {
	c := &TransferCoordinator{
		registry: registry,
		world:    world,
		holders:  make(map[Location]Holder, len(holders)),
		bus:      bus,
		log:      logging.NoOpLogger{},
		metrics:  NoopMetrics(),
	}
	for _, h := range holders {
		c.holders[h.Location()] = h
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// TransferOne moves id between two bounded holders.
func (c *TransferCoordinator) TransferOne(ctx context.Context, id string, from, to Location) error {
	start := time.Now()
	release := c.hold()
	err := c.transferOne(ctx, id, from, to)
	release()
	c.metrics.Observe(ctx, "transfer", err == nil, time.Since(start))
	return err
}

func (c *TransferCoordinator) transferOne(ctx context.Context, id string, from, to Location) error {
	fail := func(kind, cause error) error {
		err := &TransferError{ID: id, From: from, To: to, Err: kind, Cause: cause}
		c.log.Debug("transfer rejected", "id", id, "from", from, "to", to, "error", err)
		return err
	}
	if err := ctx.Err(); err != nil {
		return fail(domain.ErrTransferFailed, err)
	}
	if from == to {
		return fail(domain.ErrLocationMismatch, fmt.Errorf("source and destination are both %s", from))
	}
	src, dst, err := c.pair(from, to)
	if err != nil {
		return fail(domain.ErrLocationMismatch, err)
	}
	if err := c.registry.Check(id, from); err != nil {
		return fail(kindOf(err), err)
	}
	rec, ok := src.Get(id)
	if !ok {
		return fail(domain.ErrNotFound, fmt.Errorf("%s missing from %s holder", id, from))
	}
	if !dst.CanAdd(rec) {
		return fail(rejectKind(dst, rec), nil)
	}

	idx := src.IndexOf(id)
	rec, err = src.Remove(id)
	if err != nil {
		return fail(domain.ErrNotFound, err)
	}
	if err := dst.Add(rec); err != nil {
		if rerr := src.Insert(idx, rec); rerr != nil {
			c.log.Error("transfer rollback failed", "id", id, "from", from, "error", rerr)
			return fail(domain.ErrTransferFailed, errors.Join(err, rerr))
		}
		c.log.Warn("transfer rolled back", "id", id, "from", from, "to", to, "error", err)
		return fail(domain.ErrTransferFailed, err)
	}
	c.commit(id, from, to)
	return nil
}

// TransferBatch attempts every id independently. Items that cannot move stay
// where they were; the rest move. Observers see the batch once it is done.
func (c *TransferCoordinator) TransferBatch(ctx context.Context, ids []string, from, to Location) BatchResult {
	start := time.Now()
	release := c.hold()
	res := BatchResult{Requested: len(ids)}
	for _, id := range ids {
		if err := c.transferOne(ctx, id, from, to); err != nil {
			res.Failed = append(res.Failed, FailedTransfer{ID: id, Err: err})
			continue
		}
		res.Succeeded = append(res.Succeeded, id)
	}
	c.publish(BatchCompleted{From: from, To: to, Result: res})
	release()
	c.metrics.Observe(ctx, "transfer_batch", len(res.Failed) == 0, time.Since(start))
	if len(res.Failed) > 0 {
		c.log.Info("batch transfer partial", "from", from, "to", to, "requested", res.Requested, "failed", len(res.Failed))
	}
	return res
}

// CollectFromWorld moves the sample placed at handle into a bounded holder.
func (c *TransferCoordinator) CollectFromWorld(ctx context.Context, handle Handle, to Location) error {
	start := time.Now()
	release := c.hold()
	_, err := c.collect(ctx, handle, to)
	release()
	c.metrics.Observe(ctx, "collect", err == nil, time.Since(start))
	return err
}

// CollectBatch collects every handle independently. Succeeded and Failed list
// sample IDs, or the handle when nothing was placed there.
func (c *TransferCoordinator) CollectBatch(ctx context.Context, handles []Handle, to Location) BatchResult {
	start := time.Now()
	release := c.hold()
	res := BatchResult{Requested: len(handles)}
	for _, h := range handles {
		id, err := c.collect(ctx, h, to)
		if id == "" {
			id = h.String()
		}
		if err != nil {
			res.Failed = append(res.Failed, FailedTransfer{ID: id, Err: err})
			continue
		}
		res.Succeeded = append(res.Succeeded, id)
	}
	c.publish(BatchCompleted{From: InWorld, To: to, Result: res})
	release()
	c.metrics.Observe(ctx, "collect_batch", len(res.Failed) == 0, time.Since(start))
	return res
}

func (c *TransferCoordinator) collect(ctx context.Context, handle Handle, to Location) (string, error) {
	if c.world == nil {
		return "", &TransferError{From: InWorld, To: to, Err: domain.ErrLocationMismatch, Cause: errors.New("no world tracker")}
	}
	rec, ok := c.world.Get(handle)
	if !ok {
		return "", &TransferError{From: InWorld, To: to, Err: domain.ErrNotFound, Cause: fmt.Errorf("no sample at %s", handle)}
	}
	fail := func(kind, cause error) (string, error) {
		err := &TransferError{ID: rec.ID, From: InWorld, To: to, Err: kind, Cause: cause}
		c.log.Debug("collect rejected", "handle", handle.String(), "error", err)
		return rec.ID, err
	}
	if err := ctx.Err(); err != nil {
		return fail(domain.ErrTransferFailed, err)
	}
	dst, ok := c.holders[to]
	if !ok {
		return fail(domain.ErrLocationMismatch, fmt.Errorf("no bounded holder for %s", to))
	}
	if err := c.registry.Check(rec.ID, InWorld); err != nil {
		return fail(kindOf(err), err)
	}
	if !dst.CanAdd(rec) {
		return fail(rejectKind(dst, rec), nil)
	}

	idx := c.world.orderOf(handle)
	if _, err := c.world.Unregister(handle); err != nil {
		return fail(domain.ErrNotFound, err)
	}
	if err := dst.Add(rec); err != nil {
		if rerr := c.world.restore(idx, handle, rec); rerr != nil {
			c.log.Error("collect rollback failed", "id", rec.ID, "handle", handle.String(), "error", rerr)
			return fail(domain.ErrTransferFailed, errors.Join(err, rerr))
		}
		c.log.Warn("collect rolled back", "id", rec.ID, "to", to, "error", err)
		return fail(domain.ErrTransferFailed, err)
	}
	c.commit(rec.ID, InWorld, to)
	return rec.ID, nil
}

// PlaceInWorld moves id from a bounded holder into the world at handle and pos.
func (c *TransferCoordinator) PlaceInWorld(ctx context.Context, id string, from Location, handle Handle, pos Vec3) error {
	start := time.Now()
	release := c.hold()
	err := c.place(ctx, id, from, handle, pos)
	release()
	c.metrics.Observe(ctx, "place", err == nil, time.Since(start))
	return err
}

func (c *TransferCoordinator) place(ctx context.Context, id string, from Location, handle Handle, pos Vec3) error {
	fail := func(kind, cause error) error {
		err := &TransferError{ID: id, From: from, To: InWorld, Err: kind, Cause: cause}
		c.log.Debug("place rejected", "id", id, "handle", handle.String(), "error", err)
		return err
	}
	if err := ctx.Err(); err != nil {
		return fail(domain.ErrTransferFailed, err)
	}
	if c.world == nil {
		return fail(domain.ErrLocationMismatch, errors.New("no world tracker"))
	}
	src, ok := c.holders[from]
	if !ok {
		return fail(domain.ErrLocationMismatch, fmt.Errorf("no bounded holder for %s", from))
	}
	if err := c.registry.Check(id, from); err != nil {
		return fail(kindOf(err), err)
	}
	rec, ok := src.Get(id)
	if !ok {
		return fail(domain.ErrNotFound, fmt.Errorf("%s missing from %s holder", id, from))
	}
	rec.WorldPosition = pos
	if err := c.world.checkRegister(handle, rec); err != nil {
		return fail(kindOf(err), err)
	}

	idx := src.IndexOf(id)
	removed, err := src.Remove(id)
	if err != nil {
		return fail(domain.ErrNotFound, err)
	}
	if err := c.world.Register(handle, rec); err != nil {
		if rerr := src.Insert(idx, removed); rerr != nil {
			c.log.Error("place rollback failed", "id", id, "from", from, "error", rerr)
			return fail(domain.ErrTransferFailed, errors.Join(err, rerr))
		}
		c.log.Warn("place rolled back", "id", id, "handle", handle.String(), "error", err)
		return fail(domain.ErrTransferFailed, err)
	}
	c.commit(id, from, InWorld)
	return nil
}

func (c *TransferCoordinator) commit(id string, from, to Location) {
	c.registry.Set(id, to)
	c.log.Debug("transfer committed", "id", id, "from", from, "to", to)
	c.publish(TransferCompleted{ID: id, From: from, To: to})
}

func (c *TransferCoordinator) pair(from, to Location) (Holder, Holder, error) {
	src, ok := c.holders[from]
	if !ok {
		return nil, nil, fmt.Errorf("no bounded holder for %s", from)
	}
	dst, ok := c.holders[to]
	if !ok {
		return nil, nil, fmt.Errorf("no bounded holder for %s", to)
	}
	return src, dst, nil
}

func (c *TransferCoordinator) hold() func() {
	if c.bus == nil {
		return func() {}
	}
	return c.bus.Hold()
}

func (c *TransferCoordinator) publish(ev Event) {
	if c.bus != nil {
		c.bus.Publish(ev)
	}
}

// rejectKind explains why dst refused rec.
func rejectKind(dst Holder, rec SampleRecord) error {
	if dst.Has(rec.ID) {
		return domain.ErrDuplicateID
	}
	if err := rec.Validate(); err != nil {
		return domain.ErrInvalidRecord
	}
	return domain.ErrCapacityExceeded
}

// kindOf extracts the sentinel carried by err.
func kindOf(err error) error {
	for _, kind := range []error{
		domain.ErrNotFound,
		domain.ErrLocationMismatch,
		domain.ErrDuplicateID,
		domain.ErrCapacityExceeded,
		domain.ErrInvalidRecord,
	} {
		if errors.Is(err, kind) {
			return kind
		}
	}
	return domain.ErrTransferFailed
}

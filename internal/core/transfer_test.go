package core_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"samplevault/internal/core"
	"samplevault/pkg/domain"
)

// rejectingHolder accepts CanAdd but fails Add for the listed IDs, forcing
// the coordinator down its rollback path.
type rejectingHolder struct {
	*core.BoundedStore
	reject map[string]bool
}

var errHolderRefused = errors.New("holder refused")

func (h *rejectingHolder) Add(rec domain.SampleRecord) error {
	if h.reject[rec.ID] {
		return errHolderRefused
	}
	return h.BoundedStore.Add(rec)
}

type transferRig struct {
	bus       *core.Bus
	registry  *core.LocationRegistry
	inventory *core.BoundedStore
	warehouse *rejectingHolder
	world     *core.WorldPlacementTracker
	transfers *core.TransferCoordinator
	selection *core.SelectionCoordinator
	events    []core.Event
}

func newTransferRig(t *testing.T) *transferRig {
	t.Helper()
	cfg := core.DefaultConfig()
	r := &transferRig{bus: core.NewBus(), registry: core.NewLocationRegistry()}
	var err error
	r.inventory, err = core.NewBoundedStore(core.InventoryConfig(cfg), r.bus, nil)
	require.NoError(t, err)
	wh, err := core.NewBoundedStore(core.WarehouseConfig(cfg), r.bus, nil)
	require.NoError(t, err)
	r.warehouse = &rejectingHolder{BoundedStore: wh, reject: map[string]bool{}}
	r.world = core.NewWorldPlacementTracker(core.TrackerConfig{PersistPositions: true}, r.bus, nil)
	r.transfers = core.NewTransferCoordinator(r.registry, r.world, r.bus, []core.Holder{r.inventory, r.warehouse})
	r.selection = core.NewSelectionCoordinator(core.SelectionConfig{MaxSelection: 50}, r.registry, r.bus)
	r.bus.Subscribe(func(ev core.Event) { r.events = append(r.events, ev) })
	return r
}

func (r *transferRig) seed(t *testing.T, loc domain.Location, ids ...string) {
	t.Helper()
	var store *core.BoundedStore
	if loc == domain.InInventory {
		store = r.inventory
	} else {
		store = r.warehouse.BoundedStore
	}
	for _, id := range ids {
		require.NoError(t, store.Add(sample(id, id)))
		r.registry.Set(id, loc)
	}
	r.events = nil
}

func (r *transferRig) place(t *testing.T, h core.Handle, id string) {
	t.Helper()
	require.NoError(t, r.world.Register(h, sample(id, id)))
	r.registry.Set(id, domain.InWorld)
	r.events = nil
}

func TestTransferOneMovesAndNotifiesAfterCommit(t *testing.T) {
	r := newTransferRig(t)
	r.seed(t, domain.InInventory, "a", "b")

	var sawRegistry domain.Location
	r.bus.Subscribe(func(ev core.Event) {
		if _, ok := ev.(core.StoreChanged); ok && sawRegistry == "" {
			sawRegistry, _ = r.registry.Get("a")
		}
	})
	require.NoError(t, r.transfers.TransferOne(context.Background(), "a", domain.InInventory, domain.InWarehouse))

	assert.Equal(t, []string{"b"}, r.inventory.IDs())
	assert.Equal(t, []string{"a"}, r.warehouse.IDs())
	loc, _ := r.registry.Get("a")
	assert.Equal(t, domain.InWarehouse, loc)
	assert.Equal(t, domain.InWarehouse, sawRegistry, "observers run after the registry commit")
	rec, _ := r.warehouse.Get("a")
	assert.Equal(t, domain.InWarehouse, rec.Location)
	require.IsType(t, core.TransferCompleted{}, r.events[len(r.events)-1])
}

func TestTransferOneRejections(t *testing.T) {
	ctx := context.Background()
	r := newTransferRig(t)
	r.seed(t, domain.InWarehouse, "w")
	r.seed(t, domain.InInventory, sampleIDs("inv", 20)...)

	cases := []struct {
		name string
		id   string
		from domain.Location
		to   domain.Location
		kind error
	}{
		{"destination full", "w", domain.InWarehouse, domain.InInventory, domain.ErrCapacityExceeded},
		{"wrong source", "w", domain.InInventory, domain.InWarehouse, domain.ErrLocationMismatch},
		{"unknown id", "ghost", domain.InInventory, domain.InWarehouse, domain.ErrNotFound},
		{"same location", "w", domain.InWarehouse, domain.InWarehouse, domain.ErrLocationMismatch},
		{"world is not bounded", "w", domain.InWarehouse, domain.InWorld, domain.ErrLocationMismatch},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := r.transfers.TransferOne(ctx, tc.id, tc.from, tc.to)
			require.ErrorIs(t, err, tc.kind)
			var te *domain.TransferError
			require.ErrorAs(t, err, &te)
			assert.Equal(t, tc.id, te.ID)
			assert.Equal(t, 20, r.inventory.Len())
			assert.Equal(t, []string{"w"}, r.warehouse.IDs())
		})
	}

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	require.ErrorIs(t, r.transfers.TransferOne(cancelled, "w", domain.InWarehouse, domain.InInventory), context.Canceled)
}

func TestTransferRollbackRestoresSourceSlot(t *testing.T) {
	r := newTransferRig(t)
	r.seed(t, domain.InInventory, "a", "b", "c")
	r.warehouse.reject["b"] = true
	require.True(t, r.selection.Enter())
	require.NoError(t, r.selection.Select("b", domain.InInventory))

	err := r.transfers.TransferOne(context.Background(), "b", domain.InInventory, domain.InWarehouse)
	require.ErrorIs(t, err, domain.ErrTransferFailed)
	require.ErrorIs(t, err, errHolderRefused)

	assert.Equal(t, []string{"a", "b", "c"}, r.inventory.IDs(), "record returns to its original index")
	assert.Zero(t, r.warehouse.Len())
	loc, _ := r.registry.Get("b")
	assert.Equal(t, domain.InInventory, loc)
	assert.True(t, r.selection.IsSelected("b"), "a rolled back transfer keeps the selection")
	for _, ev := range r.events {
		_, completed := ev.(core.TransferCompleted)
		assert.False(t, completed)
	}
}

func TestTransferBatchNearlyFullDestination(t *testing.T) {
	r := newTransferRig(t)
	r.seed(t, domain.InInventory, sampleIDs("inv", 18)...)
	r.seed(t, domain.InWarehouse, "w0", "w1", "w2", "w3", "w4")

	res := r.transfers.TransferBatch(context.Background(), []string{"w0", "w1", "w2", "w3", "w4"}, domain.InWarehouse, domain.InInventory)

	assert.Equal(t, 5, res.Requested)
	assert.Equal(t, []string{"w0", "w1"}, res.Succeeded)
	assert.Equal(t, []string{"w2", "w3", "w4"}, res.FailedIDs())
	for _, f := range res.Failed {
		assert.ErrorIs(t, f.Err, domain.ErrCapacityExceeded)
	}
	assert.False(t, res.Complete())
	assert.Equal(t, 20, r.inventory.Len())
	assert.Equal(t, []string{"w2", "w3", "w4"}, r.warehouse.IDs())
	for _, id := range res.FailedIDs() {
		loc, _ := r.registry.Get(id)
		assert.Equal(t, domain.InWarehouse, loc)
	}
	batch, ok := r.events[len(r.events)-1].(core.BatchCompleted)
	require.True(t, ok, "batch completion is delivered last")
	assert.Equal(t, 2, batch.Result.SucceededCount())
	assert.Equal(t, 3, batch.Result.FailedCount())
}

func TestTransferBatchItemRejectedByDestination(t *testing.T) {
	r := newTransferRig(t)
	r.seed(t, domain.InInventory, "a", "b", "c", "d")
	r.warehouse.reject["c"] = true

	res := r.transfers.TransferBatch(context.Background(), []string{"a", "b", "c", "d"}, domain.InInventory, domain.InWarehouse)

	assert.Equal(t, []string{"a", "b", "d"}, res.Succeeded)
	require.Len(t, res.Failed, 1)
	assert.Equal(t, "c", res.Failed[0].ID)
	assert.ErrorIs(t, res.Failed[0].Err, domain.ErrTransferFailed)
	assert.Equal(t, []string{"c"}, r.inventory.IDs())
	assert.Equal(t, []string{"a", "b", "d"}, r.warehouse.IDs())
}

func TestTransferBatchDeliversEventsAfterWholeBatch(t *testing.T) {
	r := newTransferRig(t)
	r.seed(t, domain.InInventory, "a", "b")
	var sizes []int
	r.bus.Subscribe(func(ev core.Event) {
		if _, ok := ev.(core.StoreChanged); ok {
			sizes = append(sizes, r.warehouse.Len())
		}
	})
	res := r.transfers.TransferBatch(context.Background(), []string{"a", "b"}, domain.InInventory, domain.InWarehouse)
	require.True(t, res.Complete())
	for _, n := range sizes {
		assert.Equal(t, 2, n, "observers only see the final state")
	}
}

func TestCollectFromWorld(t *testing.T) {
	ctx := context.Background()
	r := newTransferRig(t)
	h := core.Handle{Scene: "quarry", Object: "core-1"}
	r.place(t, h, "s1")

	require.NoError(t, r.transfers.CollectFromWorld(ctx, h, domain.InInventory))
	assert.Zero(t, r.world.Len())
	assert.True(t, r.inventory.Has("s1"))
	loc, _ := r.registry.Get("s1")
	assert.Equal(t, domain.InInventory, loc)

	err := r.transfers.CollectFromWorld(ctx, h, domain.InInventory)
	require.ErrorIs(t, err, domain.ErrNotFound)

	err = r.transfers.CollectFromWorld(ctx, core.Handle{Scene: "quarry", Object: "core-2"}, domain.InWorld)
	require.Error(t, err)
}

func TestCollectRollbackRestoresPlacement(t *testing.T) {
	r := newTransferRig(t)
	h1 := core.Handle{Scene: "quarry", Object: "o1"}
	h2 := core.Handle{Scene: "quarry", Object: "o2"}
	r.place(t, h1, "s1")
	r.place(t, h2, "s2")
	r.warehouse.reject["s1"] = true

	err := r.transfers.CollectFromWorld(context.Background(), h1, domain.InWarehouse)
	require.ErrorIs(t, err, domain.ErrTransferFailed)
	got, ok := r.world.Get(h1)
	require.True(t, ok)
	assert.Equal(t, "s1", got.ID)
	assert.Equal(t, []string{"s1", "s2"}, []string{r.world.All()[0].ID, r.world.All()[1].ID})
	loc, _ := r.registry.Get("s1")
	assert.Equal(t, domain.InWorld, loc)
}

func TestCollectBatchPartial(t *testing.T) {
	r := newTransferRig(t)
	r.seed(t, domain.InInventory, sampleIDs("inv", 19)...)
	handles := []core.Handle{{Scene: "a", Object: "1"}, {Scene: "a", Object: "2"}, {Scene: "a", Object: "missing"}}
	r.place(t, handles[0], "p1")
	r.place(t, handles[1], "p2")

	res := r.transfers.CollectBatch(context.Background(), handles, domain.InInventory)
	assert.Equal(t, []string{"p1"}, res.Succeeded)
	assert.Equal(t, []string{"p2", "a/missing"}, res.FailedIDs())
	assert.ErrorIs(t, res.Failed[0].Err, domain.ErrCapacityExceeded)
	assert.ErrorIs(t, res.Failed[1].Err, domain.ErrNotFound)
	assert.Equal(t, 1, r.world.Len())
}

func TestPlaceInWorld(t *testing.T) {
	ctx := context.Background()
	r := newTransferRig(t)
	r.seed(t, domain.InWarehouse, "w1", "w2")
	h := core.Handle{Scene: "lab", Object: "shelf-1"}
	pos := domain.Vec3{X: 1, Y: 2, Z: 3}

	require.NoError(t, r.transfers.PlaceInWorld(ctx, "w1", domain.InWarehouse, h, pos))
	rec, ok := r.world.Get(h)
	require.True(t, ok)
	assert.Equal(t, pos, rec.WorldPosition)
	assert.Equal(t, domain.InWorld, rec.Location)
	loc, _ := r.registry.Get("w1")
	assert.Equal(t, domain.InWorld, loc)

	err := r.transfers.PlaceInWorld(ctx, "w2", domain.InWarehouse, h, pos)
	require.ErrorIs(t, err, domain.ErrDuplicateID, "handle already bound")
	assert.True(t, r.warehouse.Has("w2"))

	err = r.transfers.PlaceInWorld(ctx, "w2", domain.InWarehouse, core.Handle{}, pos)
	require.ErrorIs(t, err, domain.ErrInvalidRecord)
	assert.True(t, r.warehouse.Has("w2"))
}

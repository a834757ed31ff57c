package core

// StoreOp names the mutation reported by a StoreChanged event.
type StoreOp string

const (
	OpAdd      StoreOp = "add"
	OpRemove   StoreOp = "remove"
	OpCapacity StoreOp = "capacity"
	OpSort     StoreOp = "sort"
	OpClear    StoreOp = "clear"
	OpMove     StoreOp = "move" // world position update
)

// Event is any notification published on a Bus.
type Event interface {
	EventName() string
}

// StoreChanged reports a committed mutation of a holder. Capacity is zero for
// the unbounded world tracker.
type StoreChanged struct {
	Location Location
	Op       StoreOp
	ID       string
	Count    int
	Capacity int
}

// EventName implements Event.
func (StoreChanged) EventName() string { return "store_changed" }

// SelectionChanged carries the full selected set after a change.
type SelectionChanged struct {
	Mode SelectionMode
	IDs  []string
}

// EventName implements Event.
func (SelectionChanged) EventName() string { return "selection_changed" }

// TransferCompleted reports a single committed location change.
type TransferCompleted struct {
	ID   string
	From Location
	To   Location
}

// EventName implements Event.
func (TransferCompleted) EventName() string { return "transfer_completed" }

// BatchCompleted reports the outcome of a batch transfer once every item has
// been attempted.
type BatchCompleted struct {
	From   Location
	To     Location
	Result BatchResult
}

// EventName implements Event.
func (BatchCompleted) EventName() string { return "batch_completed" }

// Handler receives events from a Bus.
type Handler func(Event)

type subscription struct {
	id      uint64
	handler Handler
}

// Bus delivers events synchronously, in publish order, after the publishing
// call has committed its state. Events published while a handler runs, or
// while a Hold is active, are queued and delivered once the outermost
// dispatch or hold finishes. Bus is not safe for concurrent use.
type Bus struct {
	subs        []subscription
	nextID      uint64
	queue       []Event
	holds       int
	dispatching bool
	published   uint64
}

// NewBus constructs an empty bus.
func NewBus() *Bus {
	return &Bus{}
}

// Subscribe registers handler and returns a function removing it. Calling the
// returned function more than once is harmless.
func (b *Bus) Subscribe(handler Handler) func() {
	if handler == nil {
		return func() {}
	}
	b.nextID++
	id := b.nextID
	b.subs = append(b.subs, subscription{id: id, handler: handler})
	return func() { b.unsubscribe(id) }
}

func (b *Bus) unsubscribe(id uint64) {
	for i, sub := range b.subs {
		if sub.id == id {
			b.subs = append(b.subs[:i:i], b.subs[i+1:]...)
			return
		}
	}
}

// Subscribers returns the number of registered handlers.
func (b *Bus) Subscribers() int { return len(b.subs) }

// Published returns the number of events delivered so far.
func (b *Bus) Published() uint64 { return b.published }

// Publish enqueues ev and delivers the queue unless delivery is deferred.
func (b *Bus) Publish(ev Event) {
	if ev == nil {
		return
	}
	b.queue = append(b.queue, ev)
	b.flush()
}

// Hold defers delivery until the returned release function runs. Holds nest;
// queued events are delivered when the outermost hold is released.
func (b *Bus) Hold() (release func()) {
	b.holds++
	released := false
	return func() {
		if released {
			return
		}
		released = true
		b.holds--
		b.flush()
	}
}

func (b *Bus) flush() {
	if b.holds > 0 || b.dispatching {
		return
	}
	b.dispatching = true
	defer func() { b.dispatching = false }()
	for len(b.queue) > 0 {
		ev := b.queue[0]
		b.queue = b.queue[1:]
		b.published++
		subs := append([]subscription(nil), b.subs...)
		for _, sub := range subs {
			sub.handler(ev)
		}
	}
	b.queue = nil
}

package core

import (
	"context"
	"expvar"
	"fmt"
	"sync"
	"sync/atomic"
	"time"
)

var expvarSeq uint64

// ExpvarMetricsRecorder publishes aggregate timing, result counters and
// occupancy via expvar. It fulfills MetricsRecorder for deployments that prefer
// process-local metrics. Durations are kept as totals in milliseconds per
// operation.
type ExpvarMetricsRecorder struct {
	name      string
	mu        sync.Mutex
	durations map[string]float64
	results   map[string]map[string]int64
	occupancy map[string]int
	capacity  map[string]int
	selection int
}

// ExpvarMetricsSnapshot captures a read-only view of the recorded metrics.
type ExpvarMetricsSnapshot struct {
	DurationsMS map[string]float64          `json:"durations_ms_total"`
	Results     map[string]map[string]int64 `json:"results_total"`
	Occupancy   map[string]int              `json:"occupancy"`
	Capacity    map[string]int              `json:"capacity"`
	Selection   int                         `json:"selection"`
	RecordedAt  time.Time                   `json:"recorded_at"`
}

// NewExpvarMetricsRecorder constructs an expvar-backed recorder and publishes it
// under the supplied name. When name is empty, a unique identifier is generated.
func NewExpvarMetricsRecorder(name string) *ExpvarMetricsRecorder {
	if name == "" {
		id := atomic.AddUint64(&expvarSeq, 1)
		name = fmt.Sprintf("samplevault_metrics_%d", id)
	}
	rec := &ExpvarMetricsRecorder{
		name:      name,
		durations: make(map[string]float64),
		results:   make(map[string]map[string]int64),
		occupancy: make(map[string]int),
		capacity:  make(map[string]int),
	}
	expvar.Publish(name, expvar.Func(func() any {
		return rec.Snapshot()
	}))
	return rec
}

// Name returns the expvar export name associated with the recorder.
func (r *ExpvarMetricsRecorder) Name() string {
	return r.name
}

// Snapshot returns an immutable copy of the aggregated metrics.
func (r *ExpvarMetricsRecorder) Snapshot() ExpvarMetricsSnapshot {
	r.mu.Lock()
	defer r.mu.Unlock()

	durations := make(map[string]float64, len(r.durations))
	for op, total := range r.durations {
		durations[op] = total
	}

	results := make(map[string]map[string]int64, len(r.results))
	for op, statusCounts := range r.results {
		cpy := make(map[string]int64, len(statusCounts))
		for status, count := range statusCounts {
			cpy[status] = count
		}
		results[op] = cpy
	}

	occupancy := make(map[string]int, len(r.occupancy))
	for loc, n := range r.occupancy {
		occupancy[loc] = n
	}
	capacity := make(map[string]int, len(r.capacity))
	for loc, n := range r.capacity {
		capacity[loc] = n
	}

	return ExpvarMetricsSnapshot{
		DurationsMS: durations,
		Results:     results,
		Occupancy:   occupancy,
		Capacity:    capacity,
		Selection:   r.selection,
		RecordedAt:  time.Now().UTC(),
	}
}

// Observe records an operation outcome.
func (r *ExpvarMetricsRecorder) Observe(_ context.Context, operation string, success bool, duration time.Duration) {
	if operation == "" {
		return
	}
	ms := float64(duration) / float64(time.Millisecond)
	status := "error"
	if success {
		status = "success"
	}

	r.mu.Lock()
	r.durations[operation] += ms
	if _, ok := r.results[operation]; !ok {
		r.results[operation] = make(map[string]int64, 2)
	}
	r.results[operation][status]++
	r.mu.Unlock()
}

// SetOccupancy records the latest count and capacity for loc.
func (r *ExpvarMetricsRecorder) SetOccupancy(loc Location, count, capacity int) {
	r.mu.Lock()
	r.occupancy[loc.String()] = count
	if capacity > 0 {
		r.capacity[loc.String()] = capacity
	}
	r.mu.Unlock()
}

// SetSelectionSize records the selection size.
func (r *ExpvarMetricsRecorder) SetSelectionSize(n int) {
	r.mu.Lock()
	r.selection = n
	r.mu.Unlock()
}

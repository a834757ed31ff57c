package core

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// MetricsRecorder captures operation outcomes and holder occupancy.
type MetricsRecorder interface {
	Observe(ctx context.Context, operation string, success bool, duration time.Duration)
	SetOccupancy(loc Location, count, capacity int)
	SetSelectionSize(n int)
}

type noopMetrics struct{}

func (noopMetrics) Observe(context.Context, string, bool, time.Duration) {}
func (noopMetrics) SetOccupancy(Location, int, int)                     {}
func (noopMetrics) SetSelectionSize(int)                                {}

// NoopMetrics returns a recorder that discards everything.
func NoopMetrics() MetricsRecorder { return noopMetrics{} }

// PrometheusRecorder exports custody metrics through client_golang collectors.
type PrometheusRecorder struct {
	operations *prometheus.CounterVec
	durations  *prometheus.HistogramVec
	occupancy  *prometheus.GaugeVec
	capacity   *prometheus.GaugeVec
	selection  prometheus.Gauge
}

// NewPrometheusRecorder builds the collectors and registers them with reg.
// A nil reg leaves the collectors unregistered.
func NewPrometheusRecorder(reg prometheus.Registerer) (*PrometheusRecorder, error) {
	r := &PrometheusRecorder{
		operations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "samplevault",
			Name:      "operations_total",
			Help:      "Custody operations by name and outcome.",
		}, []string{"operation", "outcome"}),
		durations: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "samplevault",
			Name:      "operation_duration_seconds",
			Help:      "Custody operation latency.",
			Buckets:   prometheus.ExponentialBuckets(0.0001, 4, 8),
		}, []string{"operation"}),
		occupancy: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "samplevault",
			Name:      "store_occupancy",
			Help:      "Samples held per location.",
		}, []string{"location"}),
		capacity: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "samplevault",
			Name:      "store_capacity",
			Help:      "Capacity per bounded location.",
		}, []string{"location"}),
		selection: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "samplevault",
			Name:      "selection_size",
			Help:      "Currently selected samples.",
		}),
	}
	if reg != nil {
		for _, c := range r.Collectors() {
			if err := reg.Register(c); err != nil {
				return nil, fmt.Errorf("register collector: %w", err)
			}
		}
	}
	return r, nil
}

// Collectors returns the recorder's collectors.
func (r *PrometheusRecorder) Collectors() []prometheus.Collector {
	return []prometheus.Collector{r.operations, r.durations, r.occupancy, r.capacity, r.selection}
}

// Observe implements MetricsRecorder.
func (r *PrometheusRecorder) Observe(_ context.Context, operation string, success bool, duration time.Duration) {
	if operation == "" {
		return
	}
	outcome := "error"
	if success {
		outcome = "success"
	}
	r.operations.WithLabelValues(operation, outcome).Inc()
	r.durations.WithLabelValues(operation).Observe(duration.Seconds())
}

// SetOccupancy implements MetricsRecorder. Unbounded holders report capacity 0
// and leave the capacity gauge untouched.
func (r *PrometheusRecorder) SetOccupancy(loc Location, count, capacity int) {
	r.occupancy.WithLabelValues(loc.String()).Set(float64(count))
	if capacity > 0 {
		r.capacity.WithLabelValues(loc.String()).Set(float64(capacity))
	}
}

// SetSelectionSize implements MetricsRecorder.
func (r *PrometheusRecorder) SetSelectionSize(n int) {
	r.selection.Set(float64(n))
}

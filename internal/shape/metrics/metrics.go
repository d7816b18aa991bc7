package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds Prometheus metrics for the shape synchronizer.
type Metrics struct {
	UnitsCreated   prometheus.Counter
	ColumnsAdded   prometheus.Counter
	SyncFailures   prometheus.Counter
	EnsureDuration prometheus.Histogram
}

// New creates and registers all shape synchronizer metrics.
func New() *Metrics {
	return &Metrics{
		UnitsCreated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "veriform_shape_units_created_total",
			Help: "Total storage units created lazily on first write",
		}),
		ColumnsAdded: promauto.NewCounter(prometheus.CounterOpts{
			Name: "veriform_shape_columns_added_total",
			Help: "Total columns added by widening",
		}),
		SyncFailures: promauto.NewCounter(prometheus.CounterOpts{
			Name: "veriform_shape_sync_failures_total",
			Help: "Total shape synchronization failures",
		}),
		EnsureDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "veriform_shape_ensure_duration_seconds",
			Help:    "Duration of EnsureShape calls",
			Buckets: prometheus.DefBuckets,
		}),
	}
}

func (m *Metrics) RecordUnitCreated() {
	if m != nil {
		m.UnitsCreated.Inc()
	}
}

func (m *Metrics) RecordColumnsAdded(n int) {
	if m != nil {
		m.ColumnsAdded.Add(float64(n))
	}
}

func (m *Metrics) RecordSyncFailure() {
	if m != nil {
		m.SyncFailures.Inc()
	}
}

func (m *Metrics) ObserveEnsureDuration(seconds float64) {
	if m != nil {
		m.EnsureDuration.Observe(seconds)
	}
}

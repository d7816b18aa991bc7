package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds Prometheus metrics for the schema registry.
type Metrics struct {
	CacheHits    prometheus.Counter
	CacheMisses  prometheus.Counter
	LoadFailures *prometheus.CounterVec
}

// New creates and registers all schema registry metrics.
func New() *Metrics {
	return &Metrics{
		CacheHits: promauto.NewCounter(prometheus.CounterOpts{
			Name: "veriform_schema_cache_hits_total",
			Help: "Total schema cache hits",
		}),
		CacheMisses: promauto.NewCounter(prometheus.CounterOpts{
			Name: "veriform_schema_cache_misses_total",
			Help: "Total schema cache misses",
		}),
		LoadFailures: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "veriform_schema_load_failures_total",
			Help: "Total schema load failures by reason",
		}, []string{"reason"}),
	}
}

func (m *Metrics) RecordCacheHit() {
	if m != nil {
		m.CacheHits.Inc()
	}
}

func (m *Metrics) RecordCacheMiss() {
	if m != nil {
		m.CacheMisses.Inc()
	}
}

func (m *Metrics) RecordLoadFailure(reason string) {
	if m != nil {
		m.LoadFailures.WithLabelValues(reason).Inc()
	}
}

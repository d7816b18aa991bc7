package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds Prometheus metrics for the annexure record store.
type Metrics struct {
	Inserts          prometheus.Counter
	Updates          prometheus.Counter
	ConflictRetries  prometheus.Counter
	ConflictFailures prometheus.Counter
}

// New creates and registers all record store metrics.
func New() *Metrics {
	return &Metrics{
		Inserts: promauto.NewCounter(prometheus.CounterOpts{
			Name: "veriform_annexure_inserts_total",
			Help: "Total annexure records inserted",
		}),
		Updates: promauto.NewCounter(prometheus.CounterOpts{
			Name: "veriform_annexure_updates_total",
			Help: "Total annexure records updated",
		}),
		ConflictRetries: promauto.NewCounter(prometheus.CounterOpts{
			Name: "veriform_annexure_conflict_retries_total",
			Help: "Total upsert races retried after a conflict",
		}),
		ConflictFailures: promauto.NewCounter(prometheus.CounterOpts{
			Name: "veriform_annexure_conflict_failures_total",
			Help: "Total upserts that still conflicted after the retry",
		}),
	}
}

func (m *Metrics) RecordInsert() {
	if m != nil {
		m.Inserts.Inc()
	}
}

func (m *Metrics) RecordUpdate() {
	if m != nil {
		m.Updates.Inc()
	}
}

func (m *Metrics) RecordConflictRetry() {
	if m != nil {
		m.ConflictRetries.Inc()
	}
}

func (m *Metrics) RecordConflictFailure() {
	if m != nil {
		m.ConflictFailures.Inc()
	}
}

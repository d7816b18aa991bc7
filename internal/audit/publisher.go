// Package audit captures structured events for annexure writes. Sinks are
// pluggable so tests keep events in memory while production publishes to the
// broker. Audit is best-effort: a sink failure is the caller's to log, never
// a reason to fail the submission.
package audit

import (
	"context"
	"time"
)

// Sink receives audit events. Append-only.
type Sink interface {
	Append(ctx context.Context, event Event) error
}

// Publisher stamps and forwards events to a sink.
type Publisher struct {
	sink Sink
}

func NewPublisher(sink Sink) *Publisher {
	return &Publisher{sink: sink}
}

// Emit forwards one event, stamping the timestamp if the caller left it zero.
func (p *Publisher) Emit(ctx context.Context, event Event) error {
	if p == nil || p.sink == nil {
		return nil
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	return p.sink.Append(ctx, event)
}

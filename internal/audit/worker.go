package audit

import (
	"context"
	"log/slog"
)

// ChannelSink decouples emitters from slow sinks: Append enqueues without
// blocking and drops (with a log line) when the buffer is full. Pair it with
// a Worker draining into the real sink.
type ChannelSink struct {
	inbox  chan Event
	logger *slog.Logger
}

func NewChannelSink(buffer int, logger *slog.Logger) *ChannelSink {
	return &ChannelSink{inbox: make(chan Event, buffer), logger: logger}
}

func (s *ChannelSink) Append(ctx context.Context, event Event) error {
	select {
	case s.inbox <- event:
		return nil
	default:
		if s.logger != nil {
			s.logger.WarnContext(ctx, "audit buffer full, event dropped",
				"action", event.Action, "unit", event.Unit)
		}
		return nil
	}
}

// Inbox exposes the channel for a Worker to drain.
func (s *ChannelSink) Inbox() <-chan Event { return s.inbox }

// Worker consumes audit events from a channel and forwards them to a sink.
type Worker struct {
	sink   Sink
	inbox  <-chan Event
	logger *slog.Logger
}

func NewWorker(sink Sink, inbox <-chan Event, logger *slog.Logger) *Worker {
	return &Worker{sink: sink, inbox: inbox, logger: logger}
}

// Run drains the inbox until ctx is cancelled. Sink failures are logged and
// the worker keeps going; audit is best-effort.
func (w *Worker) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event := <-w.inbox:
			if err := w.sink.Append(ctx, event); err != nil && w.logger != nil {
				w.logger.ErrorContext(ctx, "audit append failed",
					"action", event.Action, "error", err)
			}
		}
	}
}

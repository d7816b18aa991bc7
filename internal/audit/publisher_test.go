package audit

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	id "veriform/pkg/domain"
)

func TestPublisherEmit(t *testing.T) {
	ctx := context.Background()

	t.Run("stamps a zero timestamp", func(t *testing.T) {
		sink := NewMemorySink()
		require.NoError(t, NewPublisher(sink).Emit(ctx, Event{Action: ActionSubmitted}))

		events := sink.Events()
		require.Len(t, events, 1)
		assert.False(t, events[0].Timestamp.IsZero())
	})

	t.Run("keeps a caller-supplied timestamp", func(t *testing.T) {
		sink := NewMemorySink()
		at := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)
		require.NoError(t, NewPublisher(sink).Emit(ctx, Event{Timestamp: at}))
		assert.Equal(t, at, sink.Events()[0].Timestamp)
	})

	t.Run("nil publisher and nil sink are no-ops", func(t *testing.T) {
		var p *Publisher
		assert.NoError(t, p.Emit(ctx, Event{}))
		assert.NoError(t, NewPublisher(nil).Emit(ctx, Event{}))
	})
}

type failingSink struct{ calls atomic.Int32 }

func (s *failingSink) Append(context.Context, Event) error {
	s.calls.Add(1)
	return errors.New("broker down")
}

func TestWorker(t *testing.T) {
	t.Run("drains the channel into the sink", func(t *testing.T) {
		channel := NewChannelSink(8, nil)
		sink := NewMemorySink()

		ctx, cancel := context.WithCancel(context.Background())
		done := make(chan struct{})
		go func() {
			defer close(done)
			_ = NewWorker(sink, channel.Inbox(), nil).Run(ctx)
		}()

		event := Event{
			CandidateID: id.CandidateID(uuid.New()),
			Action:      ActionSubmitted,
			Unit:        "annexure_education_check",
		}
		require.NoError(t, channel.Append(ctx, event))

		require.Eventually(t, func() bool {
			return len(sink.Events()) == 1
		}, time.Second, 10*time.Millisecond)
		assert.Equal(t, event.Unit, sink.Events()[0].Unit)

		cancel()
		<-done
	})

	t.Run("full buffer drops instead of blocking", func(t *testing.T) {
		channel := NewChannelSink(1, nil)
		ctx := context.Background()

		require.NoError(t, channel.Append(ctx, Event{Action: "first"}))
		require.NoError(t, channel.Append(ctx, Event{Action: "dropped"}),
			"append must not block when the buffer is full")
		assert.Len(t, channel.Inbox(), 1)
	})

	t.Run("sink failures do not stop the worker", func(t *testing.T) {
		channel := NewChannelSink(8, nil)
		sink := &failingSink{}

		ctx, cancel := context.WithCancel(context.Background())
		done := make(chan struct{})
		go func() {
			defer close(done)
			_ = NewWorker(sink, channel.Inbox(), nil).Run(ctx)
		}()

		require.NoError(t, channel.Append(ctx, Event{Action: "a"}))
		require.NoError(t, channel.Append(ctx, Event{Action: "b"}))

		require.Eventually(t, func() bool { return sink.calls.Load() >= 2 }, time.Second, 10*time.Millisecond)
		cancel()
		<-done
	})
}

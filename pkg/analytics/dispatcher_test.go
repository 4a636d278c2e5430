package analytics_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/strivefit/gatekit/pkg/analytics"
)

// recordingSink collects tracked events, optionally failing the first n calls.
type recordingSink struct {
	mu        sync.Mutex
	events    []analytics.Event
	failFirst int
	calls     int
}

func (s *recordingSink) Track(ctx context.Context, event analytics.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.calls++
	if s.calls <= s.failFirst {
		return errors.New("sink unavailable")
	}
	s.events = append(s.events, event)
	return nil
}

func (s *recordingSink) snapshot() []analytics.Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]analytics.Event, len(s.events))
	copy(out, s.events)
	return out
}

func TestDispatcher(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("delivers queued events", func(t *testing.T) {
		t.Parallel()

		sink := &recordingSink{}
		d := analytics.NewDispatcher(sink)

		require.NoError(t, d.Track(ctx, analytics.Event{Name: analytics.EventPaywallImpression}))
		require.NoError(t, d.Track(ctx, analytics.Event{Name: analytics.EventFeatureGateCheck}))
		d.Close()

		events := sink.snapshot()
		require.Len(t, events, 2)
		assert.Equal(t, analytics.EventPaywallImpression, events[0].Name)
	})

	t.Run("retries transient failures", func(t *testing.T) {
		t.Parallel()

		sink := &recordingSink{failFirst: 2}
		d := analytics.NewDispatcher(sink, analytics.WithMaxRetryElapsed(2*time.Second))

		require.NoError(t, d.Track(ctx, analytics.Event{Name: analytics.EventPaywallUpgradeClicked}))
		d.Close()

		assert.Len(t, sink.snapshot(), 1)
	})

	t.Run("never blocks on full queue", func(t *testing.T) {
		t.Parallel()

		// A sink that blocks until released keeps the worker busy while the
		// queue fills up.
		release := make(chan struct{})
		var once sync.Once
		sink := analytics.SinkFunc(func(ctx context.Context, event analytics.Event) error {
			<-release
			return nil
		})

		d := analytics.NewDispatcher(sink, analytics.WithQueueSize(1))
		defer once.Do(func() { close(release) })

		done := make(chan struct{})
		go func() {
			defer close(done)
			for n := 0; n < 10; n++ {
				_ = d.Track(ctx, analytics.Event{Name: "e"})
			}
		}()

		select {
		case <-done:
		case <-time.After(time.Second):
			t.Fatal("Track blocked on full queue")
		}

		once.Do(func() { close(release) })
		d.Close()
	})

	t.Run("track after close is a no-op", func(t *testing.T) {
		t.Parallel()

		sink := &recordingSink{}
		d := analytics.NewDispatcher(sink)
		d.Close()

		require.NoError(t, d.Track(ctx, analytics.Event{Name: "late"}))
		assert.Empty(t, sink.snapshot())
	})

	t.Run("nil sink panics", func(t *testing.T) {
		t.Parallel()

		assert.Panics(t, func() {
			analytics.NewDispatcher(nil)
		})
	})
}

package analytics

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/strivefit/gatekit/pkg/logger"
)

// Dispatcher decouples event producers from sink latency. Events are queued
// on a buffered channel and delivered by a single worker goroutine with a
// short capped backoff per event. When the queue is full the event is dropped
// rather than blocking the caller: losing an analytics record is always
// preferable to delaying a feature check.
type Dispatcher struct {
	sink     Sink
	queue    chan Event
	log      *slog.Logger
	maxRetry time.Duration

	closeOnce sync.Once
	done      chan struct{}
	wg        sync.WaitGroup
}

// DispatcherOption configures a Dispatcher.
type DispatcherOption func(*Dispatcher)

// WithQueueSize sets the buffered queue capacity. Minimum of 1 is enforced.
func WithQueueSize(n int) DispatcherOption {
	return func(d *Dispatcher) {
		d.queue = make(chan Event, max(n, 1))
	}
}

// WithLogger sets the logger used for dropped and failed events.
func WithLogger(log *slog.Logger) DispatcherOption {
	return func(d *Dispatcher) {
		if log != nil {
			d.log = log
		}
	}
}

// WithMaxRetryElapsed bounds the total retry time per event.
func WithMaxRetryElapsed(dur time.Duration) DispatcherOption {
	return func(d *Dispatcher) {
		d.maxRetry = dur
	}
}

// NewDispatcher creates a Dispatcher and starts its worker goroutine.
// Panics if sink is nil to fail fast during initialization.
func NewDispatcher(sink Sink, opts ...DispatcherOption) *Dispatcher {
	if sink == nil {
		panic("analytics: sink is required")
	}

	d := &Dispatcher{
		sink:     sink,
		queue:    make(chan Event, 256),
		log:      slog.Default(),
		maxRetry: 10 * time.Second,
		done:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(d)
	}

	d.wg.Add(1)
	go d.run()

	return d
}

// Track enqueues an event for asynchronous delivery. Never blocks and never
// returns an error; a full queue drops the event with a warning log.
func (d *Dispatcher) Track(ctx context.Context, event Event) error {
	select {
	case <-d.done:
		return nil
	default:
	}

	select {
	case d.queue <- event:
	default:
		d.log.LogAttrs(ctx, slog.LevelWarn, "analytics queue full, dropping event",
			logger.Event(event.Name),
		)
	}
	return nil
}

// Close stops the worker after draining queued events. Safe to call multiple
// times.
func (d *Dispatcher) Close() {
	d.closeOnce.Do(func() {
		close(d.done)
		d.wg.Wait()
	})
}

func (d *Dispatcher) run() {
	defer d.wg.Done()

	for {
		select {
		case event := <-d.queue:
			d.deliver(event)
		case <-d.done:
			// Drain whatever is already queued before exiting.
			for {
				select {
				case event := <-d.queue:
					d.deliver(event)
				default:
					return
				}
			}
		}
	}
}

func (d *Dispatcher) deliver(event Event) {
	ctx, cancel := context.WithTimeout(context.Background(), d.maxRetry)
	defer cancel()

	bo := backoff.WithContext(backoff.NewExponentialBackOff(
		backoff.WithMaxElapsedTime(d.maxRetry),
	), ctx)

	err := backoff.Retry(func() error {
		return d.sink.Track(ctx, event)
	}, bo)
	if err != nil {
		d.log.LogAttrs(ctx, slog.LevelWarn, "failed to deliver analytics event",
			logger.Event(event.Name),
			logger.Error(err),
		)
	}
}

package usage

import (
	"context"
	"time"
)

// EventSource counts domain events for a user within a window. Counts come
// from shared storage rather than in-process increments so that events
// created through other app surfaces (backend jobs, other devices) are never
// missed.
type EventSource interface {
	// CountEvents returns the number of events of the given type created at
	// or after windowStart.
	CountEvents(ctx context.Context, userID string, counterType CounterType, windowStart time.Time) (int64, error)
}

// CountFunc adapts a function to the EventSource interface.
type CountFunc func(ctx context.Context, userID string, counterType CounterType, windowStart time.Time) (int64, error)

func (f CountFunc) CountEvents(ctx context.Context, userID string, counterType CounterType, windowStart time.Time) (int64, error) {
	return f(ctx, userID, counterType, windowStart)
}

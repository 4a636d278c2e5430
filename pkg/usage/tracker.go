package usage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/strivefit/gatekit/pkg/logger"
	"github.com/strivefit/gatekit/pkg/subscription"
)

// SubscriptionFunc returns the last-known subscription for the current user,
// or nil if none is known. Typically bound to (*subscription.Store).Get.
type SubscriptionFunc func() *subscription.Subscription

// Tracker enforces Free-tier usage quotas. Paid effective tiers always pass
// with an unlimited quota; Free-tier counts are queried from the shared
// EventSource on every check, never maintained incrementally in memory.
type Tracker struct {
	plan   FreePlan
	source EventSource
	subFn  SubscriptionFunc
	now    func() time.Time
	log    *slog.Logger
}

// TrackerOption configures a Tracker.
type TrackerOption func(*Tracker)

// WithClock overrides the time source. Intended for tests.
func WithClock(now func() time.Time) TrackerOption {
	return func(t *Tracker) {
		if now != nil {
			t.now = now
		}
	}
}

// WithLogger sets the logger.
func WithLogger(log *slog.Logger) TrackerOption {
	return func(t *Tracker) {
		if log != nil {
			t.log = log
		}
	}
}

// NewTracker creates a Tracker. Panics if source or subFn is nil to fail
// fast during initialization.
func NewTracker(plan FreePlan, source EventSource, subFn SubscriptionFunc, opts ...TrackerOption) *Tracker {
	if source == nil {
		panic("usage: event source is required")
	}
	if subFn == nil {
		panic("usage: subscription func is required")
	}

	t := &Tracker{
		plan:   plan,
		source: source,
		subFn:  subFn,
		now:    func() time.Time { return time.Now().UTC() },
		log:    slog.Default(),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// CheckLimit reports whether the user is within the quota for the counter
// type. Source failures fail closed: the returned result denies further
// usage and the wrapped error is returned for logging by the caller.
func (t *Tracker) CheckLimit(ctx context.Context, userID string, counterType CounterType) (Result, error) {
	result := Result{CounterType: counterType}

	if !counterType.Valid() {
		return result, fmt.Errorf("%w: %q", ErrUnknownCounter, counterType)
	}

	now := t.now()
	if t.subFn().EffectiveTierAt(now) != subscription.TierFree {
		result.WithinLimit = true
		result.Limit = Unlimited
		return result, nil
	}

	limit, err := t.plan.Limit(counterType)
	if err != nil {
		return result, err
	}
	result.Limit = limit

	windowStart := WindowStart(counterType, now)
	used, err := t.source.CountEvents(ctx, userID, counterType, windowStart)
	if err != nil {
		t.log.LogAttrs(ctx, slog.LevelWarn, "usage count failed, failing closed",
			logger.UserID(userID),
			logger.Counter(counterType),
			logger.Error(err),
		)
		return result, errors.Join(ErrFailedToCountUsage, err)
	}

	result.Used = used
	result.WithinLimit = used < limit
	return result, nil
}

// Remaining returns how many events are left in the current window.
// Unlimited for paid tiers. Zero-valued on errors.
func (t *Tracker) Remaining(ctx context.Context, userID string, counterType CounterType) int64 {
	result, err := t.CheckLimit(ctx, userID, counterType)
	if err != nil {
		return 0
	}
	if result.Limit == Unlimited {
		return Unlimited
	}
	return max(result.Limit-result.Used, 0)
}

package subchange

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/strivefit/gatekit/pkg/kvstore"
	"github.com/strivefit/gatekit/pkg/logger"
	"github.com/strivefit/gatekit/pkg/subscription"
)

// Invalidator discards cached entitlement state so the next access check
// observes the new subscription. *accesscache.Cache satisfies it.
type Invalidator interface {
	Invalidate()
}

// Listener consumes the subscription change stream for one user on a
// single dedicated goroutine. Events are processed strictly in arrival
// order: invalidate the access cache, update the subscription store, then
// emit lifecycle notifications and follow-up markers. Duplicate deliveries
// are dropped by event ID.
type Listener struct {
	userID   string
	provider subscription.Provider
	store    *subscription.Store
	cache    Invalidator
	kv       kvstore.Store
	notifier Notifier
	log      *slog.Logger
	now      func() time.Time

	startOnce sync.Once
	wg        sync.WaitGroup
}

// ListenerOption configures a Listener.
type ListenerOption func(*Listener)

// WithNotifier sets the notification collaborator.
func WithNotifier(n Notifier) ListenerOption {
	return func(l *Listener) {
		if n != nil {
			l.notifier = n
		}
	}
}

// WithListenerLogger sets the logger.
func WithListenerLogger(log *slog.Logger) ListenerOption {
	return func(l *Listener) {
		if log != nil {
			l.log = log
		}
	}
}

// WithListenerClock overrides the time source. Intended for tests.
func WithListenerClock(now func() time.Time) ListenerOption {
	return func(l *Listener) {
		if now != nil {
			l.now = now
		}
	}
}

// NewListener creates a Listener for the given user. Panics if provider,
// store, cache or kv is nil to fail fast during initialization.
func NewListener(userID string, provider subscription.Provider, store *subscription.Store, cache Invalidator, kv kvstore.Store, opts ...ListenerOption) *Listener {
	if provider == nil {
		panic("subchange: subscription provider is required")
	}
	if store == nil {
		panic("subchange: subscription store is required")
	}
	if cache == nil {
		panic("subchange: cache invalidator is required")
	}
	if kv == nil {
		panic("subchange: key/value store is required")
	}

	l := &Listener{
		userID:   userID,
		provider: provider,
		store:    store,
		cache:    cache,
		kv:       kv,
		notifier: NoopNotifier{},
		log:      slog.Default(),
		now:      func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Start subscribes to the change stream and launches the processing
// goroutine. The goroutine exits when ctx is cancelled or the provider
// closes the stream. Subsequent Start calls are no-ops.
func (l *Listener) Start(ctx context.Context) error {
	events, err := l.provider.SubscribeToChanges(ctx, l.userID)
	if err != nil {
		return errors.Join(ErrSubscribeFailed, err)
	}

	l.startOnce.Do(func() {
		l.wg.Add(1)
		go func() {
			defer l.wg.Done()
			l.run(ctx, events)
		}()
	})
	return nil
}

// Close waits for the processing goroutine to drain and exit. Call after
// cancelling the Start context.
func (l *Listener) Close() {
	l.wg.Wait()
}

func (l *Listener) run(ctx context.Context, events <-chan subscription.ChangeEvent) {
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-events:
			if !ok {
				return
			}
			l.handle(ctx, event)
		}
	}
}

func (l *Listener) handle(ctx context.Context, event subscription.ChangeEvent) {
	if l.alreadySeen(ctx, event) {
		l.log.LogAttrs(ctx, slog.LevelDebug, "dropping duplicate change event",
			logger.UserID(l.userID),
			logger.EventID(event.ID.String()),
		)
		return
	}

	// Invalidate before storing so a concurrent access check can never pin
	// the old tier past this point.
	l.cache.Invalidate()
	current := event.Current
	l.store.Set(&current)

	l.notifyChange(ctx, event)
	l.markSeen(ctx, event)

	l.log.LogAttrs(ctx, slog.LevelInfo, "subscription change processed",
		logger.UserID(l.userID),
		logger.EventID(event.ID.String()),
		logger.Tier(string(event.Current.Tier)),
		logger.SubscriptionStatus(string(event.Current.Status)),
	)
}

func seenKey(id string) string {
	return "subchange:seen:" + id
}

func (l *Listener) alreadySeen(ctx context.Context, event subscription.ChangeEvent) bool {
	_, err := l.kv.Get(ctx, seenKey(event.ID.String()))
	if err == nil {
		return true
	}
	if !errors.Is(err, kvstore.ErrNotFound) {
		// With the dedup store unreachable, favor processing: invalidation
		// is idempotent and a repeated notification beats a missed one.
		l.log.LogAttrs(ctx, slog.LevelWarn, "dedup lookup failed, processing anyway",
			logger.EventID(event.ID.String()),
			logger.Error(err),
		)
	}
	return false
}

func (l *Listener) markSeen(ctx context.Context, event subscription.ChangeEvent) {
	if err := l.kv.Set(ctx, seenKey(event.ID.String()), []byte{'1'}); err != nil {
		l.log.LogAttrs(ctx, slog.LevelWarn, "failed to record processed event",
			logger.EventID(event.ID.String()),
			logger.Error(err),
		)
	}
}

// notifyChange translates the status transition into lifecycle
// notifications and follow-up markers.
func (l *Listener) notifyChange(ctx context.Context, event subscription.ChangeEvent) {
	current := event.Current

	switch current.Status {
	case subscription.StatusTrialing:
		if event.Previous.IsTrialing() {
			return
		}
		l.notify(ctx, event, KindTrialStarted, time.Time{})
		l.scheduleTrialReminders(ctx, current)

	case subscription.StatusActive:
		l.clearGrace(ctx)

		previousTier := event.Previous.EffectiveTierAt(event.OccurredAt)
		if previousTier == subscription.TierFree {
			l.notify(ctx, event, KindActivated, time.Time{})
			return
		}
		if current.Tier.Rank() > previousTier.Rank() {
			l.notify(ctx, event, KindUpgraded, time.Time{})
		}
		// Renewals and downgrades pass silently.

	case subscription.StatusPastDue:
		deadline := event.OccurredAt.Add(GracePeriod)
		l.notify(ctx, event, KindPaymentFailed, deadline)
		l.writeMarker(ctx, Marker{Kind: MarkerGraceDeadline, DueAt: deadline})

	case subscription.StatusCanceled:
		if current.CancelAtPeriodEnd && current.CurrentPeriodEnd != nil && current.CurrentPeriodEnd.After(l.now()) {
			l.notify(ctx, event, KindWillEnd, *current.CurrentPeriodEnd)
			return
		}
		l.notify(ctx, event, KindEnded, time.Time{})

	case subscription.StatusPaused:
		l.notify(ctx, event, KindPaused, time.Time{})
	}
	// Remaining statuses (incomplete, unpaid, ...) carry no user-facing
	// message of their own.
}

func (l *Listener) scheduleTrialReminders(ctx context.Context, current subscription.Subscription) {
	if current.TrialEnd == nil {
		return
	}
	end := current.TrialEnd.UTC()
	l.writeMarker(ctx, Marker{Kind: MarkerTrialEndingSoon, DueAt: end.Add(-3 * 24 * time.Hour)})
	l.writeMarker(ctx, Marker{Kind: MarkerTrialEndingTomorrow, DueAt: end.Add(-24 * time.Hour)})
}

func (l *Listener) clearGrace(ctx context.Context) {
	if err := ClearMarker(ctx, l.kv, l.userID, MarkerGraceDeadline); err != nil {
		l.log.LogAttrs(ctx, slog.LevelDebug, "failed to clear grace marker",
			logger.UserID(l.userID),
			logger.Error(err),
		)
	}
}

func (l *Listener) writeMarker(ctx context.Context, m Marker) {
	if err := writeMarker(ctx, l.kv, l.userID, m); err != nil {
		l.log.LogAttrs(ctx, slog.LevelWarn, "failed to write follow-up marker",
			logger.UserID(l.userID),
			logger.Error(err),
		)
	}
}

func (l *Listener) notify(ctx context.Context, event subscription.ChangeEvent, kind Kind, at time.Time) {
	n := Notification{
		ID:     event.ID,
		Kind:   kind,
		UserID: l.userID,
		Tier:   event.Current.Tier,
		At:     at,
	}
	if err := l.notifier.Notify(ctx, n); err != nil {
		l.log.LogAttrs(ctx, slog.LevelWarn, "notification delivery failed",
			logger.UserID(l.userID),
			logger.EventID(event.ID.String()),
			logger.Error(err),
		)
	}
}

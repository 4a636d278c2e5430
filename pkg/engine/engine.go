package engine

import (
	"context"
	"log/slog"
	"time"

	"github.com/strivefit/gatekit/pkg/accesscache"
	"github.com/strivefit/gatekit/pkg/analytics"
	"github.com/strivefit/gatekit/pkg/entitlement"
	"github.com/strivefit/gatekit/pkg/kvstore"
	"github.com/strivefit/gatekit/pkg/logger"
	"github.com/strivefit/gatekit/pkg/paywall"
	"github.com/strivefit/gatekit/pkg/subchange"
	"github.com/strivefit/gatekit/pkg/subscription"
	"github.com/strivefit/gatekit/pkg/usage"
)

// Engine wires the entitlement components for one user session: cached
// access checks, free-tier usage quotas, paywall trigger evaluation and the
// subscription change listener. One instance per app session; all
// collaborators are passed in explicitly.
type Engine struct {
	userID string
	log    *slog.Logger

	store      *subscription.Store
	cache      *accesscache.Cache
	tracker    *usage.Tracker
	evaluator  *paywall.Evaluator
	listener   *subchange.Listener
	dispatcher *analytics.Dispatcher

	cancel context.CancelFunc
}

type settings struct {
	plan      usage.FreePlan
	sink      analytics.Sink
	notifier  subchange.Notifier
	log       *slog.Logger
	now       func() time.Time
	ttl       time.Duration
	inWorkout paywall.WorkoutStateFunc
}

// Option configures an Engine.
type Option func(*settings)

// WithFreePlan overrides the default free-tier quotas.
func WithFreePlan(plan usage.FreePlan) Option {
	return func(s *settings) {
		s.plan = plan
	}
}

// WithAnalytics sets the sink receiving gate-check and paywall events.
// Events are dispatched asynchronously and never block engine calls.
func WithAnalytics(sink analytics.Sink) Option {
	return func(s *settings) {
		if sink != nil {
			s.sink = sink
		}
	}
}

// WithNotifier sets the lifecycle notification collaborator.
func WithNotifier(n subchange.Notifier) Option {
	return func(s *settings) {
		if n != nil {
			s.notifier = n
		}
	}
}

// WithLogger sets the logger for the engine and every component it builds.
func WithLogger(log *slog.Logger) Option {
	return func(s *settings) {
		if log != nil {
			s.log = log
		}
	}
}

// WithClock overrides the time source for every component. Intended for
// tests.
func WithClock(now func() time.Time) Option {
	return func(s *settings) {
		if now != nil {
			s.now = now
		}
	}
}

// WithCacheTTL overrides the access-cache TTL.
func WithCacheTTL(ttl time.Duration) Option {
	return func(s *settings) {
		s.ttl = ttl
	}
}

// WithWorkoutState sets the mid-workout probe used to suppress ad-hoc
// feature prompts.
func WithWorkoutState(fn paywall.WorkoutStateFunc) Option {
	return func(s *settings) {
		if fn != nil {
			s.inWorkout = fn
		}
	}
}

// New builds an Engine for the given user. Nil required collaborators
// panic in the component constructors to fail fast during initialization.
func New(userID string, provider subscription.Provider, kv kvstore.Store, source usage.EventSource, matrix entitlement.Matrix, registry *paywall.Registry, opts ...Option) *Engine {
	s := &settings{
		plan:     usage.DefaultFreePlan(),
		sink:     analytics.NoopSink{},
		notifier: subchange.NoopNotifier{},
		log:      slog.Default(),
		now:      func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(s)
	}

	store := subscription.NewStore()
	resolver := entitlement.NewResolver(matrix)
	dispatcher := analytics.NewDispatcher(s.sink, analytics.WithLogger(s.log))

	cacheOpts := []accesscache.Option{
		accesscache.WithSnapshotStore(kv),
		accesscache.WithLogger(s.log),
		accesscache.WithClock(s.now),
	}
	if s.ttl > 0 {
		cacheOpts = append(cacheOpts, accesscache.WithTTL(s.ttl))
	}
	cache := accesscache.New(userID, provider, store, resolver, cacheOpts...)

	tracker := usage.NewTracker(s.plan, source, store.Get,
		usage.WithClock(s.now),
		usage.WithLogger(s.log),
	)

	evaluatorOpts := []paywall.EvaluatorOption{
		paywall.WithAnalytics(dispatcher),
		paywall.WithEvaluatorLogger(s.log),
		paywall.WithEvaluatorClock(s.now),
	}
	if s.inWorkout != nil {
		evaluatorOpts = append(evaluatorOpts, paywall.WithWorkoutState(s.inWorkout))
	}
	evaluator := paywall.NewEvaluator(userID, registry, paywall.NewLedger(kv), cache, evaluatorOpts...)

	listener := subchange.NewListener(userID, provider, store, cache, kv,
		subchange.WithNotifier(s.notifier),
		subchange.WithListenerLogger(s.log),
		subchange.WithListenerClock(s.now),
	)

	return &Engine{
		userID:     userID,
		log:        s.log,
		store:      store,
		cache:      cache,
		tracker:    tracker,
		evaluator:  evaluator,
		listener:   listener,
		dispatcher: dispatcher,
	}
}

// Start launches the subscription change listener. The listener stops when
// Close is called or ctx is cancelled.
func (e *Engine) Start(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	e.cancel = cancel

	if err := e.listener.Start(ctx); err != nil {
		cancel()
		return err
	}
	return nil
}

// Close stops the change listener and drains pending analytics events.
func (e *Engine) Close() {
	if e.cancel != nil {
		e.cancel()
	}
	e.listener.Close()
	e.dispatcher.Close()
}

// CheckAccess returns the access decision for featureKey and emits a
// feature_gate_check analytics event.
func (e *Engine) CheckAccess(ctx context.Context, featureKey string) entitlement.Decision {
	decision := e.cache.Check(ctx, featureKey)

	e.track(ctx, analytics.Event{
		Name: analytics.EventFeatureGateCheck,
		Properties: map[string]any{
			"user_id":     e.userID,
			"feature_key": featureKey,
			"has_access":  decision.HasAccess,
			"reason":      string(decision.Reason),
		},
	})
	return decision
}

// CheckMultiple resolves several feature keys against one subscription
// snapshot.
func (e *Engine) CheckMultiple(ctx context.Context, featureKeys []string) map[string]entitlement.Decision {
	return e.cache.CheckMultiple(ctx, featureKeys)
}

// CheckLimit reports whether the user is within the free-tier quota for the
// counter type. Paid tiers always pass with an unlimited quota.
func (e *Engine) CheckLimit(ctx context.Context, counterType usage.CounterType) (usage.Result, error) {
	// The tracker reads the subscription store directly; refresh it so a
	// paying user is never quota-limited off stale state.
	if err := e.cache.EnsureFresh(ctx); err != nil {
		e.log.LogAttrs(ctx, slog.LevelWarn, "subscription refresh failed before limit check",
			logger.UserID(e.userID),
			logger.Counter(counterType),
			logger.Error(err),
		)
	}
	return e.tracker.CheckLimit(ctx, e.userID, counterType)
}

// OnEvent evaluates a domain event against the trigger registry. Returns
// the fired trigger ID, or "" when no trigger fires.
func (e *Engine) OnEvent(ctx context.Context, eventName string, payload paywall.Payload) string {
	return e.evaluator.OnEvent(ctx, eventName, payload)
}

// ShouldShowFeaturePrompt reports whether tapping a locked feature may show
// an upsell prompt right now.
func (e *Engine) ShouldShowFeaturePrompt(ctx context.Context, featureKey string) bool {
	return e.evaluator.ShouldShowFeaturePrompt(ctx, featureKey)
}

// MarkFeatureShown commits an ad-hoc prompt impression after the prompt
// rendered.
func (e *Engine) MarkFeatureShown(ctx context.Context, featureKey string) error {
	return e.evaluator.MarkFeatureShown(ctx, featureKey)
}

// TrackUpgradeClicked records that the user tapped upgrade on a paywall.
func (e *Engine) TrackUpgradeClicked(ctx context.Context, triggerID string) {
	e.track(ctx, analytics.Event{
		Name: analytics.EventPaywallUpgradeClicked,
		Properties: map[string]any{
			"user_id":    e.userID,
			"trigger_id": triggerID,
		},
	})
}

// InvalidateAccess discards cached entitlement state so the next check hits
// the subscription backend. Useful after a purchase-restore flow.
func (e *Engine) InvalidateAccess() {
	e.cache.Invalidate()
}

func (e *Engine) track(ctx context.Context, event analytics.Event) {
	if err := e.dispatcher.Track(ctx, event); err != nil {
		e.log.LogAttrs(ctx, slog.LevelDebug, "analytics track failed",
			logger.UserID(e.userID),
			logger.Event(event.Name),
			logger.Error(err),
		)
	}
}

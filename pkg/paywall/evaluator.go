package paywall

import (
	"context"
	"log/slog"
	"time"

	"github.com/strivefit/gatekit/pkg/analytics"
	"github.com/strivefit/gatekit/pkg/entitlement"
	"github.com/strivefit/gatekit/pkg/logger"
)

// Ad-hoc feature prompt limits. These are product policy, not per-trigger
// configuration: a locked-feature tap prompt is capped per feature key.
const (
	FeaturePromptMaxImpressions = 5
	FeaturePromptMinGap         = 24 * time.Hour
)

// AccessChecker answers whether the user currently has access to a feature.
// *accesscache.Cache satisfies it.
type AccessChecker interface {
	Check(ctx context.Context, featureKey string) entitlement.Decision
}

// WorkoutStateFunc reports whether the user is mid-workout. Prompts are
// suppressed during an active session.
type WorkoutStateFunc func(ctx context.Context) bool

// Evaluator decides which paywall trigger, if any, fires for a domain
// event, and whether an ad-hoc locked-feature prompt may be shown. At most
// one trigger fires per event.
type Evaluator struct {
	userID    string
	registry  *Registry
	ledger    *Ledger
	access    AccessChecker
	sink      analytics.Sink
	inWorkout WorkoutStateFunc
	now       func() time.Time
	log       *slog.Logger
}

// EvaluatorOption configures an Evaluator.
type EvaluatorOption func(*Evaluator)

// WithAnalytics sets the sink receiving paywall_impression events.
func WithAnalytics(sink analytics.Sink) EvaluatorOption {
	return func(e *Evaluator) {
		if sink != nil {
			e.sink = sink
		}
	}
}

// WithWorkoutState sets the mid-workout probe for ad-hoc prompts.
func WithWorkoutState(fn WorkoutStateFunc) EvaluatorOption {
	return func(e *Evaluator) {
		if fn != nil {
			e.inWorkout = fn
		}
	}
}

// WithEvaluatorLogger sets the logger.
func WithEvaluatorLogger(log *slog.Logger) EvaluatorOption {
	return func(e *Evaluator) {
		if log != nil {
			e.log = log
		}
	}
}

// WithEvaluatorClock overrides the time source. Intended for tests.
func WithEvaluatorClock(now func() time.Time) EvaluatorOption {
	return func(e *Evaluator) {
		if now != nil {
			e.now = now
		}
	}
}

// NewEvaluator creates an Evaluator for the given user. Panics if registry,
// ledger or access is nil to fail fast during initialization.
func NewEvaluator(userID string, registry *Registry, ledger *Ledger, access AccessChecker, opts ...EvaluatorOption) *Evaluator {
	if registry == nil {
		panic("paywall: trigger registry is required")
	}
	if ledger == nil {
		panic("paywall: impression ledger is required")
	}
	if access == nil {
		panic("paywall: access checker is required")
	}

	e := &Evaluator{
		userID:    userID,
		registry:  registry,
		ledger:    ledger,
		access:    access,
		sink:      analytics.NoopSink{},
		inWorkout: func(context.Context) bool { return false },
		now:       func() time.Time { return time.Now().UTC() },
		log:       slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// OnEvent evaluates eventName against the registry and returns the ID of
// the trigger that fired, or "" when nothing fires. An impression is
// committed to the ledger before the trigger is reported; ledger failures
// suppress the trigger rather than risking an uncounted impression.
func (e *Evaluator) OnEvent(ctx context.Context, eventName string, payload Payload) string {
	var (
		winner    Definition
		hasWinner bool
	)

	for _, def := range e.registry.CandidatesFor(eventName) {
		if !e.matches(ctx, def, payload) {
			continue
		}
		if e.suppressed(ctx, def) {
			continue
		}
		// Registration order already breaks ties, so only a strictly
		// higher priority displaces the current winner.
		if !hasWinner || def.Priority > winner.Priority {
			winner = def
			hasWinner = true
		}
	}

	if !hasWinner {
		return ""
	}

	now := e.now()
	rec, err := e.ledger.RecordTriggerImpression(ctx, e.userID, winner.ID, now)
	if err != nil {
		e.log.LogAttrs(ctx, slog.LevelWarn, "impression write failed, suppressing trigger",
			logger.UserID(e.userID),
			logger.TriggerID(winner.ID),
			logger.Error(err),
		)
		return ""
	}

	e.track(ctx, analytics.Event{
		Name: analytics.EventPaywallImpression,
		Properties: map[string]any{
			"user_id":          e.userID,
			"trigger_id":       winner.ID,
			"trigger_type":     string(winner.Type),
			"event":            eventName,
			"impression_count": rec.ImpressionCount,
		},
	})
	return winner.ID
}

// ShouldShowFeaturePrompt reports whether tapping a locked feature may show
// an upsell prompt right now. It only decides; the caller commits the
// impression with MarkFeatureShown once the prompt actually renders.
func (e *Evaluator) ShouldShowFeaturePrompt(ctx context.Context, feature string) bool {
	decision := e.access.Check(ctx, feature)
	if decision.HasAccess {
		return false
	}
	if e.inWorkout(ctx) {
		return false
	}

	rec, err := e.ledger.FeatureRecord(ctx, e.userID, feature)
	if err != nil {
		e.log.LogAttrs(ctx, slog.LevelWarn, "impression read failed, suppressing prompt",
			logger.UserID(e.userID),
			logger.FeatureKey(feature),
			logger.Error(err),
		)
		return false
	}

	if rec.ImpressionCount >= FeaturePromptMaxImpressions {
		return false
	}
	if rec.LastShownAt != nil && e.now().Sub(*rec.LastShownAt) < FeaturePromptMinGap {
		return false
	}
	return true
}

// MarkFeatureShown commits an ad-hoc prompt impression. Call it after the
// prompt rendered; a caller that abandons the prompt skips the call and the
// caps stay accurate.
func (e *Evaluator) MarkFeatureShown(ctx context.Context, feature string) error {
	rec, err := e.ledger.RecordFeatureImpression(ctx, e.userID, feature, e.now())
	if err != nil {
		return err
	}

	e.track(ctx, analytics.Event{
		Name: analytics.EventPaywallImpression,
		Properties: map[string]any{
			"user_id":          e.userID,
			"feature_key":      feature,
			"impression_count": rec.ImpressionCount,
		},
	})
	return nil
}

// matches applies the trigger's match condition to the event.
func (e *Evaluator) matches(ctx context.Context, def Definition, payload Payload) bool {
	if def.Match.CountThreshold > 0 {
		count, ok := payload.Count()
		if !ok || count < def.Match.CountThreshold {
			return false
		}
	}
	// A feature-scoped trigger only targets users currently locked out of
	// the feature. Fail-closed decisions still count as locked out.
	if def.Match.FeatureKey != "" {
		if e.access.Check(ctx, def.Match.FeatureKey).HasAccess {
			return false
		}
	}
	return true
}

// suppressed applies cooldown and lifetime impression caps.
func (e *Evaluator) suppressed(ctx context.Context, def Definition) bool {
	rec, err := e.ledger.TriggerRecord(ctx, e.userID, def.ID)
	if err != nil {
		e.log.LogAttrs(ctx, slog.LevelWarn, "impression read failed, suppressing trigger",
			logger.UserID(e.userID),
			logger.TriggerID(def.ID),
			logger.Error(err),
		)
		return true
	}

	if rec.ImpressionCount >= def.MaxImpressions {
		return true
	}
	if rec.LastShownAt != nil && e.now().Sub(*rec.LastShownAt) < def.Cooldown {
		return true
	}
	return false
}

func (e *Evaluator) track(ctx context.Context, event analytics.Event) {
	if err := e.sink.Track(ctx, event); err != nil {
		e.log.LogAttrs(ctx, slog.LevelDebug, "analytics track failed",
			logger.UserID(e.userID),
			logger.Event(event.Name),
			logger.Error(err),
		)
	}
}

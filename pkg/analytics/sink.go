package analytics

import "context"

// Event names emitted by the engine.
const (
	EventFeatureGateCheck      = "feature_gate_check"
	EventPaywallImpression     = "paywall_impression"
	EventPaywallUpgradeClicked = "paywall_upgrade_clicked"
)

// Event is a single analytics record. Properties are flat key/value pairs;
// downstream reporting owns any aggregation.
type Event struct {
	Name       string         `json:"name"`
	Properties map[string]any `json:"properties,omitempty"`
}

// Sink receives analytics events. Implementations wrap the app's analytics
// backend. Delivery is best-effort: a failing sink must never affect
// entitlement or trigger decisions.
type Sink interface {
	Track(ctx context.Context, event Event) error
}

// SinkFunc adapts a function to the Sink interface.
type SinkFunc func(ctx context.Context, event Event) error

func (f SinkFunc) Track(ctx context.Context, event Event) error {
	return f(ctx, event)
}

// NoopSink discards all events.
type NoopSink struct{}

func (NoopSink) Track(context.Context, Event) error { return nil }

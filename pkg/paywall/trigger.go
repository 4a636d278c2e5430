package paywall

import (
	"fmt"
	"time"
)

// TriggerType classifies why a paywall trigger exists.
type TriggerType string

const (
	// TypeValueMoment fires after the user experienced product value
	// (streaks, milestones, completed workouts).
	TypeValueMoment TriggerType = "value_moment"
	// TypeFeatureLimit fires when the user bumps into a gated feature.
	TypeFeatureLimit TriggerType = "feature_limit"
	// TypeSoftPaywall fires on low-friction surfaces (app open, tab switch).
	TypeSoftPaywall TriggerType = "soft_paywall"
	// TypeContextual fires on context-specific events (plan ended, goal set).
	TypeContextual TriggerType = "contextual"
)

// Valid reports whether the trigger type is known.
func (t TriggerType) Valid() bool {
	switch t {
	case TypeValueMoment, TypeFeatureLimit, TypeSoftPaywall, TypeContextual:
		return true
	}
	return false
}

// MatchCondition decides whether a domain event activates a trigger.
type MatchCondition struct {
	// Event is the activating domain event name. Required.
	Event string `yaml:"event"`
	// FeatureKey, when set, restricts the trigger to users who currently
	// lack access to the feature. Required for feature_limit triggers.
	FeatureKey string `yaml:"feature_key,omitempty"`
	// CountThreshold, when positive, requires the event payload to carry a
	// count of at least this value.
	CountThreshold int `yaml:"count_threshold,omitempty"`
}

// Definition is a static paywall trigger, immutable for process lifetime.
type Definition struct {
	ID             string         `yaml:"id"`
	Type           TriggerType    `yaml:"type"`
	Match          MatchCondition `yaml:"match"`
	Cooldown       time.Duration  `yaml:"-"`
	CooldownHours  int            `yaml:"cooldown_hours"`
	MaxImpressions int            `yaml:"max_impressions"`
	Priority       int            `yaml:"priority"`
}

// cooldown returns the effective cooldown, preferring the explicit duration
// over the YAML hours field.
func (d Definition) cooldown() time.Duration {
	if d.Cooldown > 0 {
		return d.Cooldown
	}
	return time.Duration(d.CooldownHours) * time.Hour
}

// Validate checks the definition for load-time consistency.
func (d Definition) Validate() error {
	if d.ID == "" {
		return fmt.Errorf("%w: empty trigger id", ErrInvalidTrigger)
	}
	if !d.Type.Valid() {
		return fmt.Errorf("%w: trigger %q has unknown type %q", ErrInvalidTrigger, d.ID, d.Type)
	}
	if d.Match.Event == "" {
		return fmt.Errorf("%w: trigger %q has no activating event", ErrInvalidTrigger, d.ID)
	}
	if d.Type == TypeFeatureLimit && d.Match.FeatureKey == "" {
		return fmt.Errorf("%w: feature_limit trigger %q has no feature key", ErrInvalidTrigger, d.ID)
	}
	if d.Match.CountThreshold < 0 {
		return fmt.Errorf("%w: trigger %q has negative count threshold", ErrInvalidTrigger, d.ID)
	}
	if d.cooldown() < 0 {
		return fmt.Errorf("%w: trigger %q has negative cooldown", ErrInvalidTrigger, d.ID)
	}
	if d.MaxImpressions <= 0 {
		return fmt.Errorf("%w: trigger %q has non-positive max impressions", ErrInvalidTrigger, d.ID)
	}
	return nil
}

// Payload carries event-specific data into trigger matching.
type Payload map[string]any

// Count extracts a numeric "count" property. YAML/JSON decoding may deliver
// int, int64 or float64 depending on the transport.
func (p Payload) Count() (int, bool) {
	switch v := p["count"].(type) {
	case int:
		return v, true
	case int64:
		return int(v), true
	case float64:
		return int(v), true
	default:
		return 0, false
	}
}

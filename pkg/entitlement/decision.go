package entitlement

import (
	"time"

	"github.com/strivefit/gatekit/pkg/subscription"
)

// ReasonCode identifies why access was denied. Callers select upsell
// messaging from the code; the engine never produces UI text itself.
type ReasonCode string

const (
	// ReasonNone is set on granted decisions.
	ReasonNone ReasonCode = ""
	// ReasonUpgradeRequired means a Free-tier user needs any paid tier.
	ReasonUpgradeRequired ReasonCode = "upgrade_required"
	// ReasonEliteOnly means a Premium user hit an Elite-only feature.
	ReasonEliteOnly ReasonCode = "elite_only"
	// ReasonSubscriptionInactive means the nominal tier would grant access
	// but the subscription status collapsed the effective tier to Free.
	ReasonSubscriptionInactive ReasonCode = "subscription_inactive"
	// ReasonErrorCheckingAccess marks a fail-closed decision produced when
	// the subscription could not be retrieved.
	ReasonErrorCheckingAccess ReasonCode = "error_checking_access"
)

// Decision is the immutable result of resolving feature access.
type Decision struct {
	FeatureKey   string             `json:"feature_key"`
	HasAccess    bool               `json:"has_access"`
	RequiredTier *subscription.Tier `json:"required_tier,omitempty"`
	Reason       ReasonCode         `json:"reason,omitempty"`
	ResolvedAt   time.Time          `json:"resolved_at"`
}

// Denied builds the degraded fail-closed decision used when subscription
// retrieval fails. It is the only caller-visible error shape in the engine.
func Denied(featureKey string, now time.Time) Decision {
	return Decision{
		FeatureKey: featureKey,
		HasAccess:  false,
		Reason:     ReasonErrorCheckingAccess,
		ResolvedAt: now,
	}
}

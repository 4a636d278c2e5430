package entitlement

import (
	"slices"
	"time"

	"github.com/strivefit/gatekit/pkg/subscription"
)

// Resolver resolves feature access decisions against a static matrix.
// Resolution is a pure function over its inputs: no I/O, no side effects,
// never an error. The zero-value Resolver with a nil matrix grants everything
// (default-open).
type Resolver struct {
	matrix Matrix
}

// NewResolver creates a Resolver over the given matrix.
func NewResolver(matrix Matrix) *Resolver {
	return &Resolver{matrix: matrix}
}

// Resolve returns the access decision for featureKey given the last-known
// subscription at time now. A nil subscription is treated as Free tier.
func (r *Resolver) Resolve(featureKey string, sub *subscription.Subscription, now time.Time) Decision {
	decision := Decision{
		FeatureKey: featureKey,
		ResolvedAt: now,
	}

	allowed, mapped := r.matrix.AllowedTiers(featureKey)
	if !mapped {
		// Default-open: unmapped features are enabled for every tier.
		decision.HasAccess = true
		return decision
	}

	decision.RequiredTier = r.matrix.RequiredTier(featureKey)

	effective := sub.EffectiveTierAt(now)
	if slices.Contains(allowed, effective) {
		decision.HasAccess = true
		return decision
	}

	decision.Reason = denialReason(sub, allowed, effective)
	return decision
}

// denialReason distinguishes "upgrade from Free" from "Elite-only, you are
// Premium", and flags the case where only an inactive status is in the way.
func denialReason(sub *subscription.Subscription, allowed []subscription.Tier, effective subscription.Tier) ReasonCode {
	// The nominal tier would have been enough; status collapsed it to Free.
	if sub != nil && effective == subscription.TierFree &&
		sub.Tier != subscription.TierFree && slices.Contains(allowed, sub.Tier) {
		return ReasonSubscriptionInactive
	}

	if effective == subscription.TierPremium && slices.Contains(allowed, subscription.TierElite) {
		return ReasonEliteOnly
	}

	return ReasonUpgradeRequired
}

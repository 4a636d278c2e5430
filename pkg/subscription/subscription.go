package subscription

import "time"

// Tier represents a subscription tier.
// Ordering is meaningful: Free < Premium < Elite.
type Tier string

const (
	TierFree    Tier = "free"
	TierPremium Tier = "premium"
	TierElite   Tier = "elite"
)

// tierRank maps tiers to their position in the upgrade ladder.
var tierRank = map[Tier]int{
	TierFree:    0,
	TierPremium: 1,
	TierElite:   2,
}

// Rank returns the tier's position in the upgrade ladder (Free=0).
// Unknown tiers rank below Free so they never grant access by accident.
func (t Tier) Rank() int {
	if rank, ok := tierRank[t]; ok {
		return rank
	}
	return -1
}

// AtLeast reports whether t is the same tier as other or higher.
func (t Tier) AtLeast(other Tier) bool {
	return t.Rank() >= other.Rank()
}

// Valid reports whether t is a known tier.
func (t Tier) Valid() bool {
	_, ok := tierRank[t]
	return ok
}

// Status represents the billing state of a subscription, mirroring the
// lifecycle reported by the payment provider.
type Status string

const (
	StatusActive            Status = "active"
	StatusTrialing          Status = "trialing"
	StatusPastDue           Status = "past_due"
	StatusCanceled          Status = "canceled"
	StatusIncomplete        Status = "incomplete"
	StatusIncompleteExpired Status = "incomplete_expired"
	StatusUnpaid            Status = "unpaid"
	StatusPaused            Status = "paused"
)

// Entitled reports whether the status grants the subscription's nominal tier.
// Every other status collapses the effective tier to Free.
func (s Status) Entitled() bool {
	return s == StatusActive || s == StatusTrialing
}

// Subscription is the last-known subscription record for a user.
// It is mutated only by the change listener on receipt of an authoritative
// update; read paths treat it as immutable.
type Subscription struct {
	UserID            string     `json:"user_id"`
	Tier              Tier       `json:"tier"`
	Status            Status     `json:"status"`
	CurrentPeriodEnd  *time.Time `json:"current_period_end,omitempty"`
	TrialEnd          *time.Time `json:"trial_end,omitempty"`
	CancelAtPeriodEnd bool       `json:"cancel_at_period_end"`
}

// EffectiveTierAt returns the tier actually honored for entitlement purposes
// at the given time. The nominal tier counts only while the status is active
// or trialing and the current period (when known) has not ended; a stale
// active status past CurrentPeriodEnd still collapses to Free.
func (s *Subscription) EffectiveTierAt(now time.Time) Tier {
	if s == nil {
		return TierFree
	}
	if !s.Status.Entitled() {
		return TierFree
	}
	if s.CurrentPeriodEnd != nil && now.After(*s.CurrentPeriodEnd) {
		return TierFree
	}
	if !s.Tier.Valid() {
		return TierFree
	}
	return s.Tier
}

// EffectiveTier returns the effective tier at the current time.
func (s *Subscription) EffectiveTier() Tier {
	return s.EffectiveTierAt(time.Now().UTC())
}

// IsTrialing returns true if the subscription is in trial status.
func (s *Subscription) IsTrialing() bool {
	return s != nil && s.Status == StatusTrialing
}

// IsPaid reports whether the effective tier at now is above Free.
func (s *Subscription) IsPaid(now time.Time) bool {
	return s.EffectiveTierAt(now) != TierFree
}

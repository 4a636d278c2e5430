package subscription

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// ChangeEvent describes an authoritative subscription change pushed by the
// backend. Previous is nil for the first event ever seen for a user.
// Delivery is at-least-once; consumers deduplicate by ID.
type ChangeEvent struct {
	ID         uuid.UUID     `json:"id"`
	Previous   *Subscription `json:"previous,omitempty"`
	Current    Subscription  `json:"current"`
	OccurredAt time.Time     `json:"occurred_at"`
}

// Provider is the external source of truth for subscription state.
// Implementations wrap the billing backend (webhook relay, realtime channel).
type Provider interface {
	// GetStatus fetches the current subscription for a user.
	// Returns ErrSubscriptionNotFound when the user has never subscribed;
	// callers treat that as an effective Free tier.
	GetStatus(ctx context.Context, userID string) (*Subscription, error)

	// SubscribeToChanges returns a channel of change events for the user.
	// The channel is closed when ctx is cancelled. Duplicates may be
	// delivered and must be tolerated by the consumer.
	SubscribeToChanges(ctx context.Context, userID string) (<-chan ChangeEvent, error)
}

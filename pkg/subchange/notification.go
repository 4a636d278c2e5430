package subchange

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/strivefit/gatekit/pkg/subscription"
)

// Kind identifies a lifecycle notification derived from a subscription
// change.
type Kind string

const (
	// KindActivated is sent when a user gains a paid tier from Free.
	KindActivated Kind = "subscription_activated"
	// KindUpgraded is sent when a paying user moves to a higher tier.
	KindUpgraded Kind = "subscription_upgraded"
	// KindTrialStarted is sent when a trial begins.
	KindTrialStarted Kind = "trial_started"
	// KindPaymentFailed is sent when billing enters past_due. The
	// notification's At carries the grace-period deadline.
	KindPaymentFailed Kind = "payment_failed"
	// KindWillEnd is sent for a cancellation that takes effect at period
	// end; At carries the date access lapses.
	KindWillEnd Kind = "subscription_will_end"
	// KindEnded is sent for an immediate cancellation.
	KindEnded Kind = "subscription_ended"
	// KindPaused is sent when the subscription is paused.
	KindPaused Kind = "subscription_paused"
)

// Notification is a single lifecycle message for the user. The engine
// produces the facts; rendering copy and choosing a delivery channel belong
// to the app layer behind Notifier.
type Notification struct {
	ID     uuid.UUID         `json:"id"`
	Kind   Kind              `json:"kind"`
	UserID string            `json:"user_id"`
	Tier   subscription.Tier `json:"tier"`
	// At is the moment the notification refers to: period end for
	// will_end, grace deadline for payment_failed, zero otherwise.
	At time.Time `json:"at,omitzero"`
}

// Notifier delivers lifecycle notifications. Delivery is best-effort: a
// failing notifier is logged and never blocks change processing.
type Notifier interface {
	Notify(ctx context.Context, n Notification) error
}

// NotifierFunc adapts a function to the Notifier interface.
type NotifierFunc func(ctx context.Context, n Notification) error

func (f NotifierFunc) Notify(ctx context.Context, n Notification) error {
	return f(ctx, n)
}

// NoopNotifier discards all notifications.
type NoopNotifier struct{}

func (NoopNotifier) Notify(context.Context, Notification) error { return nil }

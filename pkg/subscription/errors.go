package subscription

import "errors"

var (
	ErrSubscriptionNotFound = errors.New("subscription not found")
	ErrProviderUnavailable  = errors.New("subscription provider unavailable")
)

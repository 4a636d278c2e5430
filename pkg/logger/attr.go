package logger

import "log/slog"

// Error creates an attribute for a single error under the key "error".
// If err is nil, it returns an empty Attr.
func Error(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.Any("error", err)
}

// UserID records the user identifier under the key "user_id".
func UserID(id string) slog.Attr {
	return slog.String("user_id", id)
}

// FeatureKey records a gated feature key under the key "feature_key".
func FeatureKey(key string) slog.Attr {
	return slog.String("feature_key", key)
}

// TriggerID records a paywall trigger identifier under the key "trigger_id".
func TriggerID(id string) slog.Attr {
	return slog.String("trigger_id", id)
}

// Tier records a subscription tier under the key "tier".
func Tier(tier any) slog.Attr {
	return slog.Any("tier", tier)
}

// SubscriptionStatus records a billing status under the key "status".
func SubscriptionStatus(status any) slog.Attr {
	return slog.Any("status", status)
}

// Event records a domain event name under the key "event".
func Event(name string) slog.Attr {
	return slog.String("event", name)
}

// EventID records a change-event identifier under the key "event_id".
func EventID(id any) slog.Attr {
	if id == nil {
		return slog.Attr{}
	}
	return slog.Any("event_id", id)
}

// Component records the component name under the key "component".
func Component(name string) slog.Attr {
	return slog.String("component", name)
}

// Counter records a usage counter type under the key "counter".
func Counter(counter any) slog.Attr {
	return slog.Any("counter", counter)
}

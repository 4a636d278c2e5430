// Package subchange reacts to authoritative subscription changes pushed by
// the billing backend.
//
// A Listener consumes the change stream for one user on a single goroutine,
// so events are applied strictly in arrival order. Each event invalidates
// the entitlement cache, replaces the stored subscription record, and emits
// lifecycle notifications (activated, upgraded, trial started, payment
// failed, will end, ended, paused) through the app-provided Notifier.
//
// Delivery from the backend is at-least-once; processed event IDs are
// recorded in the key/value store so a redelivered event never notifies
// twice. Some transitions also write follow-up markers (trial-end reminders,
// the past_due grace deadline) for a scheduler to act on later.
//
// Usage:
//
//	listener := subchange.NewListener(userID, provider, store, cache, kv,
//		subchange.WithNotifier(pushNotifier))
//	if err := listener.Start(ctx); err != nil {
//		return err
//	}
//	defer listener.Close()
package subchange

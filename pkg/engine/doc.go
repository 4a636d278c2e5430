// Package engine assembles the entitlement components into a single facade
// for one user session.
//
// The Engine owns nothing global: the subscription provider, key/value
// store, usage event source, entitlement matrix and trigger registry are
// injected at construction, and optional collaborators (analytics sink,
// notifier, free plan, clock) come in through options. Start launches the
// subscription change listener; Close stops it and drains the analytics
// dispatcher.
//
// Usage:
//
//	eng := engine.New(userID, provider, kv, source, matrix, registry,
//		engine.WithAnalytics(sink),
//		engine.WithNotifier(pushNotifier),
//	)
//	if err := eng.Start(ctx); err != nil {
//		return err
//	}
//	defer eng.Close()
//
//	if eng.CheckAccess(ctx, "ai_coach").HasAccess {
//		openCoach()
//	}
package engine

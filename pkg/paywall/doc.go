// Package paywall decides when to surface upgrade prompts.
//
// A static Registry declares triggers (value moments, feature limits, soft
// paywalls, contextual nudges) loaded from code or YAML. The Evaluator
// matches incoming domain events against the registry, filters by feature
// access, applies per-trigger cooldowns and lifetime impression caps, and
// fires at most one trigger per event, preferring the highest priority and
// breaking ties by registration order.
//
// Impressions live in a Ledger keyed per user and trigger. The ledger write
// commits before a trigger is reported, so a reported trigger is always
// counted; if the write fails the trigger is suppressed instead.
//
// Ad-hoc prompts for taps on locked features bypass the registry: they are
// capped per feature key and rate-limited to one per day, and are decided
// and committed in two steps (ShouldShowFeaturePrompt, MarkFeatureShown) so
// an abandoned prompt never consumes an impression.
//
// Usage:
//
//	registry, err := paywall.LoadRegistryFile("triggers.yml",
//		paywall.WithMatrix(matrix))
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	eval := paywall.NewEvaluator(userID, registry,
//		paywall.NewLedger(kv), cache,
//		paywall.WithAnalytics(sink))
//
//	if id := eval.OnEvent(ctx, "meal_logged", paywall.Payload{"count": 3}); id != "" {
//		showPaywall(id)
//	}
package paywall

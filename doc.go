// Package gatekit gates premium functionality in a subscription-based
// fitness app and decides when a promotional paywall may be shown.
//
// The module is a library, not a service: it exposes no HTTP surface and
// holds no global state. The packages compose bottom-up:
//
//   - subscription: tiers, billing statuses, the effective-tier rule and the
//     change-event stream contract
//   - entitlement: the feature/tier matrix and pure access resolution
//   - accesscache: per-session TTL cache with coalesced refresh and
//     invalidation on subscription changes
//   - usage: free-tier quotas counted over UTC windows, backed by Redis or
//     Postgres event sources
//   - paywall: trigger registry, impression ledger and evaluation (at most
//     one trigger per event)
//   - subchange: serialized change processing with lifecycle notifications
//   - analytics, kvstore, config, logger: supporting infrastructure
//   - engine: explicit wiring of all of the above for one user session
//
// Start with package engine for the assembled facade, or wire the pieces
// directly when an app only needs a subset.
package gatekit

// Package accesscache memoizes entitlement decisions behind a single
// time-to-live on the subscription snapshot they were computed from.
//
// Correctness properties:
//
//   - Concurrent checks that observe a stale cache coalesce into one
//     provider fetch (singleflight), never N redundant refreshes.
//   - A batch check resolves every key against the same subscription
//     snapshot; it never mixes pre- and post-refresh tiers.
//   - Invalidate is visible to all subsequent checks: no call observes a
//     decision computed from a snapshot older than the latest applied
//     change event.
//   - Provider failures fail closed (access denied, reason
//     "error_checking_access") and are never cached.
//
// An optional key/value snapshot lets a restarted process reuse decisions
// still inside the TTL window instead of repeating backend lookups.
package accesscache

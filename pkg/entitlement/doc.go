// Package entitlement resolves whether a user may use a given feature based
// on their subscription tier and status.
//
// The Matrix is a static feature-key → allowed-tiers table, loadable from Go
// maps or YAML. The Resolver is a pure function over (featureKey,
// subscription, now): it never performs I/O, never errors, and always returns
// a Decision. Feature keys absent from the matrix are deliberately
// default-open so unknown or newly shipped features never break behind the
// gate.
//
// Caching, coalesced refresh and invalidation live in pkg/accesscache;
// this package stays side-effect free so the contract is trivially testable.
package entitlement

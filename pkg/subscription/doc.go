// Package subscription defines the subscription data model shared by the
// entitlement engine: tiers, billing statuses, the last-known-record store,
// and the Provider interface through which the external billing backend is
// consumed.
//
// The central rule lives here: a subscription's nominal tier is honored only
// while its status is active or trialing and its current period has not
// ended. Everything else collapses to the Free tier (the "effective tier").
package subscription

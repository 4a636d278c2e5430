// Package analytics defines the fire-and-forget event sink consumed by the
// entitlement engine and a buffered async dispatcher that shields decision
// paths from sink latency and failures.
package analytics

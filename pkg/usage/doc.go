// Package usage tracks Free-tier rolling usage against static quotas:
// workouts per calendar week and AI chats per day.
//
// Paid effective tiers always pass with an unlimited quota. For Free-tier
// users the count is queried from a shared EventSource (Redis hash buckets
// or a Postgres aggregate) on every check rather than maintained in memory,
// so events created through other app surfaces are never missed. Window
// boundaries are canonical UTC: weeks start Monday 00:00 UTC, days at
// midnight UTC.
package usage

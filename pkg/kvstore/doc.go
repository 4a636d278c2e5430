// Package kvstore provides the persistent key/value storage abstraction used
// by the entitlement engine for cache snapshots, impression records and
// usage-window markers.
//
// Two implementations are included: MemoryStore for tests and single-process
// use, and RedisStore for shared durable state. The Store interface makes no
// transactional guarantees across keys; callers that need atomic multi-key
// updates must serialize them at a higher level.
package kvstore

package kvstore

import "context"

// Store is a minimal persistent key/value interface used by the engine for
// cache snapshots, impression records, usage-window markers and change-event
// deduplication keys. No transactional guarantees are assumed across keys.
type Store interface {
	// Get retrieves the value stored under key.
	// Returns ErrNotFound if the key does not exist.
	Get(ctx context.Context, key string) ([]byte, error)

	// Set stores value under key, overwriting any existing value.
	Set(ctx context.Context, key string, value []byte) error

	// Remove deletes the key. Removing a missing key is not an error.
	Remove(ctx context.Context, key string) error
}

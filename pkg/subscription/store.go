package subscription

import "sync"

// Store holds the last-known subscription record for the current user.
// It is a pure data holder with no policy: refreshed by pull (provider fetch)
// or by push (change events), and read by the entitlement layer.
// All methods are safe for concurrent use.
type Store struct {
	mu      sync.RWMutex
	current *Subscription
}

// NewStore creates an empty store. Get returns nil until the first Set.
func NewStore() *Store {
	return &Store{}
}

// Get returns a copy of the last-known subscription, or nil if none is known.
// Returning a copy keeps read paths from mutating shared state.
func (s *Store) Get() *Subscription {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.current == nil {
		return nil
	}
	snapshot := *s.current
	return &snapshot
}

// Set replaces the stored record.
func (s *Store) Set(sub *Subscription) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if sub == nil {
		s.current = nil
		return
	}
	stored := *sub
	s.current = &stored
}

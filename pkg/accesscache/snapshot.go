package accesscache

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/strivefit/gatekit/pkg/entitlement"
	"github.com/strivefit/gatekit/pkg/kvstore"
	"github.com/strivefit/gatekit/pkg/logger"
	"github.com/strivefit/gatekit/pkg/subscription"
)

// snapshot is the serialized form of the cache persisted between process
// restarts. The subscription is included so restored decisions and any new
// resolution within the TTL window use the same snapshot they were computed
// from.
type snapshot struct {
	UserID       string                          `json:"user_id"`
	Subscription *subscription.Subscription      `json:"subscription,omitempty"`
	Decisions    map[string]entitlement.Decision `json:"decisions"`
	RefreshedAt  time.Time                       `json:"refreshed_at"`
}

func (c *Cache) snapshotKey() string {
	return "access_cache:" + c.userID
}

// persistSnapshot writes the current cache state. Best effort: persistence
// failures are logged and never surface to feature checks.
func (c *Cache) persistSnapshot(ctx context.Context) {
	if c.kv == nil {
		return
	}

	c.mu.RLock()
	snap := snapshot{
		UserID:       c.userID,
		Subscription: c.store.Get(),
		Decisions:    make(map[string]entitlement.Decision, len(c.decisions)),
		RefreshedAt:  c.lastRefresh,
	}
	for featureKey, decision := range c.decisions {
		snap.Decisions[featureKey] = decision
	}
	c.mu.RUnlock()

	payload, err := json.Marshal(snap)
	if err == nil {
		err = c.kv.Set(ctx, c.snapshotKey(), payload)
	}
	if err != nil {
		c.log.LogAttrs(ctx, slog.LevelDebug, "failed to persist cache snapshot",
			logger.UserID(c.userID),
			logger.Error(err),
		)
	}
}

// restoreSnapshot loads a persisted snapshot. Snapshots older than the TTL
// are discarded, as are snapshots for a different user.
func (c *Cache) restoreSnapshot(ctx context.Context) {
	payload, err := c.kv.Get(ctx, c.snapshotKey())
	if err != nil {
		if !errors.Is(err, kvstore.ErrNotFound) {
			c.log.LogAttrs(ctx, slog.LevelDebug, "failed to load cache snapshot",
				logger.UserID(c.userID),
				logger.Error(err),
			)
		}
		return
	}

	var snap snapshot
	if err := json.Unmarshal(payload, &snap); err != nil {
		c.log.LogAttrs(ctx, slog.LevelDebug, "discarding malformed cache snapshot",
			logger.UserID(c.userID),
			logger.Error(err),
		)
		return
	}

	if snap.UserID != c.userID {
		return
	}
	if c.now().Sub(snap.RefreshedAt) >= c.ttl {
		return
	}

	c.store.Set(snap.Subscription)

	c.mu.Lock()
	c.lastRefresh = snap.RefreshedAt
	for featureKey, decision := range snap.Decisions {
		c.decisions[featureKey] = decision
	}
	c.mu.Unlock()
}

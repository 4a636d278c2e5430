package accesscache

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/strivefit/gatekit/pkg/entitlement"
	"github.com/strivefit/gatekit/pkg/kvstore"
	"github.com/strivefit/gatekit/pkg/logger"
	"github.com/strivefit/gatekit/pkg/subscription"
)

// DefaultTTL is how long a refreshed subscription snapshot stays valid.
const DefaultTTL = 5 * time.Minute

// refreshKey is the single singleflight key: only one subscription refresh
// may be in flight per cache instance.
const refreshKey = "refresh"

// Config holds cache settings loadable from the environment.
type Config struct {
	TTL time.Duration `env:"ACCESS_CACHE_TTL" envDefault:"5m"`
}

// Cache memoizes entitlement decisions for one user with a TTL on the
// underlying subscription snapshot. Concurrent callers that observe a stale
// cache coalesce into a single provider fetch. A change-listener invalidation
// is visible to every subsequent Check (happens-before).
type Cache struct {
	userID   string
	provider subscription.Provider
	store    *subscription.Store
	resolver *entitlement.Resolver
	kv       kvstore.Store
	ttl      time.Duration
	now      func() time.Time
	log      *slog.Logger

	group singleflight.Group

	mu          sync.RWMutex
	decisions   map[string]entitlement.Decision
	lastRefresh time.Time
}

// Option configures a Cache.
type Option func(*Cache)

// WithTTL overrides the default subscription snapshot TTL.
func WithTTL(ttl time.Duration) Option {
	return func(c *Cache) {
		if ttl > 0 {
			c.ttl = ttl
		}
	}
}

// WithSnapshotStore enables persistence of the decision cache so a process
// restart within the TTL window does not repeat backend lookups.
func WithSnapshotStore(kv kvstore.Store) Option {
	return func(c *Cache) {
		c.kv = kv
	}
}

// WithLogger sets the logger.
func WithLogger(log *slog.Logger) Option {
	return func(c *Cache) {
		if log != nil {
			c.log = log
		}
	}
}

// WithClock overrides the time source. Intended for tests.
func WithClock(now func() time.Time) Option {
	return func(c *Cache) {
		if now != nil {
			c.now = now
		}
	}
}

// New creates a Cache for the given user. Panics if provider, store or
// resolver is nil to fail fast during initialization. If a snapshot store is
// configured, a persisted snapshot younger than the TTL is restored.
func New(userID string, provider subscription.Provider, store *subscription.Store, resolver *entitlement.Resolver, opts ...Option) *Cache {
	if provider == nil {
		panic("accesscache: subscription provider is required")
	}
	if store == nil {
		panic("accesscache: subscription store is required")
	}
	if resolver == nil {
		panic("accesscache: entitlement resolver is required")
	}

	c := &Cache{
		userID:    userID,
		provider:  provider,
		store:     store,
		resolver:  resolver,
		ttl:       DefaultTTL,
		now:       func() time.Time { return time.Now().UTC() },
		log:       slog.Default(),
		decisions: make(map[string]entitlement.Decision),
	}
	for _, opt := range opts {
		opt(c)
	}

	if c.kv != nil {
		c.restoreSnapshot(context.Background())
	}

	return c
}

// Check returns the access decision for featureKey, refreshing the
// subscription snapshot when the TTL has lapsed. Provider failures fail
// closed: the returned decision denies access with ReasonErrorCheckingAccess
// and is not cached, so the next call retries the backend.
func (c *Cache) Check(ctx context.Context, featureKey string) entitlement.Decision {
	if decision, ok := c.cached(featureKey); ok {
		return decision
	}

	if err := c.refresh(ctx); err != nil {
		c.log.LogAttrs(ctx, slog.LevelWarn, "subscription refresh failed, failing closed",
			logger.UserID(c.userID),
			logger.FeatureKey(featureKey),
			logger.Error(err),
		)
		return entitlement.Denied(featureKey, c.now())
	}

	return c.resolveAndStore(ctx, featureKey)
}

// CheckMultiple resolves all keys concurrently against one subscription
// snapshot: the batch never mixes pre- and post-refresh tiers. Provider
// failure yields a fail-closed decision for every key.
func (c *Cache) CheckMultiple(ctx context.Context, featureKeys []string) map[string]entitlement.Decision {
	result := make(map[string]entitlement.Decision, len(featureKeys))

	if err := c.refreshIfStale(ctx); err != nil {
		now := c.now()
		for _, featureKey := range featureKeys {
			result[featureKey] = entitlement.Denied(featureKey, now)
		}
		return result
	}

	// One snapshot for the whole batch.
	sub := c.store.Get()
	now := c.now()

	var mu sync.Mutex
	g, _ := errgroup.WithContext(ctx)
	for _, featureKey := range featureKeys {
		featureKey := featureKey
		g.Go(func() error {
			decision := c.resolver.Resolve(featureKey, sub, now)
			mu.Lock()
			result[featureKey] = decision
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait() // resolution never errors

	c.mu.Lock()
	for featureKey, decision := range result {
		c.decisions[featureKey] = decision
	}
	c.mu.Unlock()

	c.persistSnapshot(ctx)
	return result
}

// EnsureFresh refreshes the subscription snapshot if the TTL has lapsed.
// Callers that read the subscription store directly (usage quotas) use it to
// avoid acting on stale state.
func (c *Cache) EnsureFresh(ctx context.Context) error {
	return c.refreshIfStale(ctx)
}

// Invalidate discards the cached snapshot, forcing the next Check to refetch
// the subscription regardless of TTL. Idempotent.
func (c *Cache) Invalidate() {
	c.mu.Lock()
	c.lastRefresh = time.Time{}
	clear(c.decisions)
	c.mu.Unlock()

	if c.kv != nil {
		// Best effort: a stale persisted snapshot would only be reused if the
		// process restarted inside the TTL window.
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		if err := c.kv.Remove(ctx, c.snapshotKey()); err != nil {
			c.log.LogAttrs(ctx, slog.LevelDebug, "failed to remove cache snapshot",
				logger.UserID(c.userID),
				logger.Error(err),
			)
		}
	}
}

// cached returns the memoized decision if the snapshot is fresh.
func (c *Cache) cached(featureKey string) (entitlement.Decision, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.now().Sub(c.lastRefresh) >= c.ttl {
		return entitlement.Decision{}, false
	}
	decision, ok := c.decisions[featureKey]
	return decision, ok
}

func (c *Cache) fresh() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.now().Sub(c.lastRefresh) < c.ttl
}

// refresh fetches the subscription through singleflight so concurrent stale
// observers share one backend call. The whole decision map is cleared on
// refresh: the effective tier may have changed, so every cached decision is
// suspect.
func (c *Cache) refresh(ctx context.Context) error {
	_, err, _ := c.group.Do(refreshKey, func() (any, error) {
		// Another caller may have refreshed while we waited on the flight.
		if c.fresh() {
			return nil, nil
		}

		sub, err := c.provider.GetStatus(ctx, c.userID)
		if err != nil && !errors.Is(err, subscription.ErrSubscriptionNotFound) {
			return nil, err
		}
		// Never-subscribed users resolve as Free tier.

		c.store.Set(sub)

		c.mu.Lock()
		clear(c.decisions)
		c.lastRefresh = c.now()
		c.mu.Unlock()

		return nil, nil
	})
	return err
}

func (c *Cache) refreshIfStale(ctx context.Context) error {
	if c.fresh() {
		return nil
	}
	return c.refresh(ctx)
}

func (c *Cache) resolveAndStore(ctx context.Context, featureKey string) entitlement.Decision {
	sub := c.store.Get()
	decision := c.resolver.Resolve(featureKey, sub, c.now())

	c.mu.Lock()
	c.decisions[featureKey] = decision
	c.mu.Unlock()

	c.persistSnapshot(ctx)
	return decision
}

package usage

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisEventSource counts usage events in per-window Redis hash buckets.
// Every app surface that creates a countable event writes through Record, so
// counts reflect activity from all surfaces sharing the Redis database.
//
// Layout: hash key "usage:<counterType>:<userID>", field = window start in
// RFC 3339 date form. HIncrBy keeps concurrent increments lossless.
type RedisEventSource struct {
	client *redis.Client
	prefix string
}

// NewRedisEventSource creates an EventSource backed by the given client.
// Panics if client is nil to fail fast during initialization.
func NewRedisEventSource(client *redis.Client) *RedisEventSource {
	if client == nil {
		panic("usage: redis client is required")
	}
	return &RedisEventSource{
		client: client,
		prefix: "usage:",
	}
}

func (s *RedisEventSource) key(userID string, counterType CounterType) string {
	return s.prefix + string(counterType) + ":" + userID
}

func windowField(windowStart time.Time) string {
	return windowStart.UTC().Format("2006-01-02")
}

// Record increments the counter for the window containing now.
func (s *RedisEventSource) Record(ctx context.Context, userID string, counterType CounterType, now time.Time) error {
	if !counterType.Valid() {
		return ErrUnknownCounter
	}
	field := windowField(WindowStart(counterType, now))
	return s.client.HIncrBy(ctx, s.key(userID, counterType), field, 1).Err()
}

// CountEvents returns the count recorded for the window starting at
// windowStart. A missing bucket counts as zero.
func (s *RedisEventSource) CountEvents(ctx context.Context, userID string, counterType CounterType, windowStart time.Time) (int64, error) {
	raw, err := s.client.HGet(ctx, s.key(userID, counterType), windowField(windowStart)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, nil
		}
		return 0, err
	}

	count, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, err
	}
	return count, nil
}

package usage_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/strivefit/gatekit/pkg/usage"
)

func newTestRedis(t *testing.T) *redis.Client {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func TestRedisEventSource(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

	t.Run("empty bucket counts zero", func(t *testing.T) {
		t.Parallel()

		source := usage.NewRedisEventSource(newTestRedis(t))
		count, err := source.CountEvents(ctx, "user-1", usage.CounterWorkouts, usage.WindowStart(usage.CounterWorkouts, now))
		require.NoError(t, err)
		assert.Zero(t, count)
	})

	t.Run("record then count", func(t *testing.T) {
		t.Parallel()

		source := usage.NewRedisEventSource(newTestRedis(t))
		for n := 0; n < 3; n++ {
			require.NoError(t, source.Record(ctx, "user-1", usage.CounterWorkouts, now))
		}

		count, err := source.CountEvents(ctx, "user-1", usage.CounterWorkouts, usage.WindowStart(usage.CounterWorkouts, now))
		require.NoError(t, err)
		assert.Equal(t, int64(3), count)
	})

	t.Run("windows are isolated", func(t *testing.T) {
		t.Parallel()

		source := usage.NewRedisEventSource(newTestRedis(t))
		require.NoError(t, source.Record(ctx, "user-1", usage.CounterAIChats, now))

		nextDay := now.AddDate(0, 0, 1)
		count, err := source.CountEvents(ctx, "user-1", usage.CounterAIChats, usage.WindowStart(usage.CounterAIChats, nextDay))
		require.NoError(t, err)
		assert.Zero(t, count, "yesterday's chats must not leak into today's window")
	})

	t.Run("users are isolated", func(t *testing.T) {
		t.Parallel()

		source := usage.NewRedisEventSource(newTestRedis(t))
		require.NoError(t, source.Record(ctx, "user-1", usage.CounterWorkouts, now))

		count, err := source.CountEvents(ctx, "user-2", usage.CounterWorkouts, usage.WindowStart(usage.CounterWorkouts, now))
		require.NoError(t, err)
		assert.Zero(t, count)
	})

	t.Run("unknown counter rejected on record", func(t *testing.T) {
		t.Parallel()

		source := usage.NewRedisEventSource(newTestRedis(t))
		assert.ErrorIs(t, source.Record(ctx, "user-1", usage.CounterType("steps"), now), usage.ErrUnknownCounter)
	})
}

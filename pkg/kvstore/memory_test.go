package kvstore_test

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/strivefit/gatekit/pkg/kvstore"
)

func TestMemoryStore(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("get missing key", func(t *testing.T) {
		t.Parallel()

		store := kvstore.NewMemoryStore()
		_, err := store.Get(ctx, "missing")
		assert.ErrorIs(t, err, kvstore.ErrNotFound)
	})

	t.Run("set then get", func(t *testing.T) {
		t.Parallel()

		store := kvstore.NewMemoryStore()
		require.NoError(t, store.Set(ctx, "k", []byte("v")))

		value, err := store.Get(ctx, "k")
		require.NoError(t, err)
		assert.Equal(t, []byte("v"), value)
	})

	t.Run("overwrite", func(t *testing.T) {
		t.Parallel()

		store := kvstore.NewMemoryStore()
		require.NoError(t, store.Set(ctx, "k", []byte("first")))
		require.NoError(t, store.Set(ctx, "k", []byte("second")))

		value, err := store.Get(ctx, "k")
		require.NoError(t, err)
		assert.Equal(t, []byte("second"), value)
	})

	t.Run("remove is idempotent", func(t *testing.T) {
		t.Parallel()

		store := kvstore.NewMemoryStore()
		require.NoError(t, store.Set(ctx, "k", []byte("v")))
		require.NoError(t, store.Remove(ctx, "k"))
		require.NoError(t, store.Remove(ctx, "k"))

		_, err := store.Get(ctx, "k")
		assert.ErrorIs(t, err, kvstore.ErrNotFound)
	})

	t.Run("empty key rejected", func(t *testing.T) {
		t.Parallel()

		store := kvstore.NewMemoryStore()
		assert.ErrorIs(t, store.Set(ctx, "", []byte("v")), kvstore.ErrEmptyKey)
		_, err := store.Get(ctx, "")
		assert.ErrorIs(t, err, kvstore.ErrEmptyKey)
		assert.ErrorIs(t, store.Remove(ctx, ""), kvstore.ErrEmptyKey)
	})

	t.Run("stored bytes are isolated from caller", func(t *testing.T) {
		t.Parallel()

		store := kvstore.NewMemoryStore()
		original := []byte("immutable")
		require.NoError(t, store.Set(ctx, "k", original))
		original[0] = 'X'

		value, err := store.Get(ctx, "k")
		require.NoError(t, err)
		assert.Equal(t, []byte("immutable"), value)
	})

	t.Run("concurrent access", func(t *testing.T) {
		t.Parallel()

		store := kvstore.NewMemoryStore()
		var wg sync.WaitGroup
		for i := 0; i < 50; i++ {
			i := i
			wg.Add(1)
			go func() {
				defer wg.Done()
				key := fmt.Sprintf("key-%d", i)
				_ = store.Set(ctx, key, []byte("v"))
				_, _ = store.Get(ctx, key)
			}()
		}
		wg.Wait()

		assert.Equal(t, 50, store.Len())
	})
}

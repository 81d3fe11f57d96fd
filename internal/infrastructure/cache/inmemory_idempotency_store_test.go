package cache

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInMemoryIdempotencyStore_MarkProcessed(t *testing.T) {
	store := NewInMemoryIdempotencyStore()
	defer store.Close()
	ctx := context.Background()

	t.Run("first claim wins", func(t *testing.T) {
		claimed, err := store.MarkProcessed(ctx, "page-sync:seller-1:0", time.Hour)
		require.NoError(t, err)
		assert.True(t, claimed)
	})

	t.Run("redelivered ID is rejected while live", func(t *testing.T) {
		_, err := store.MarkProcessed(ctx, "page-sync:seller-1:1", time.Hour)
		require.NoError(t, err)

		claimed, err := store.MarkProcessed(ctx, "page-sync:seller-1:1", time.Hour)
		require.NoError(t, err)
		assert.False(t, claimed)
	})

	t.Run("expired ID can be claimed again", func(t *testing.T) {
		_, err := store.MarkProcessed(ctx, "page-sync:seller-1:2", 10*time.Millisecond)
		require.NoError(t, err)

		time.Sleep(20 * time.Millisecond)

		claimed, err := store.MarkProcessed(ctx, "page-sync:seller-1:2", time.Hour)
		require.NoError(t, err)
		assert.True(t, claimed)
	})
}

func TestInMemoryIdempotencyStore_IsProcessed(t *testing.T) {
	store := NewInMemoryIdempotencyStore()
	defer store.Close()
	ctx := context.Background()

	processed, err := store.IsProcessed(ctx, "never-seen")
	require.NoError(t, err)
	assert.False(t, processed)

	_, err = store.MarkProcessed(ctx, "page-sync:seller-2:0", time.Hour)
	require.NoError(t, err)
	processed, err = store.IsProcessed(ctx, "page-sync:seller-2:0")
	require.NoError(t, err)
	assert.True(t, processed)

	_, err = store.MarkProcessed(ctx, "page-sync:seller-2:1", 10*time.Millisecond)
	require.NoError(t, err)
	time.Sleep(20 * time.Millisecond)
	processed, err = store.IsProcessed(ctx, "page-sync:seller-2:1")
	require.NoError(t, err)
	assert.False(t, processed, "expired ID must read as unprocessed")
}

func TestInMemoryIdempotencyStore_Size(t *testing.T) {
	store := NewInMemoryIdempotencyStore()
	defer store.Close()
	ctx := context.Background()

	assert.Equal(t, 0, store.Size())

	store.MarkProcessed(ctx, "a", time.Hour)
	store.MarkProcessed(ctx, "b", time.Hour)
	assert.Equal(t, 2, store.Size())

	// Re-marking an existing ID does not grow the store.
	store.MarkProcessed(ctx, "a", time.Hour)
	assert.Equal(t, 2, store.Size())
}

func TestInMemoryIdempotencyStore_ConcurrentClaims(t *testing.T) {
	store := NewInMemoryIdempotencyStore()
	defer store.Close()
	ctx := context.Background()

	const workers = 100
	var wg sync.WaitGroup
	results := make(chan bool, workers)

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			claimed, err := store.MarkProcessed(ctx, "page-sync:contended:0", time.Hour)
			results <- err == nil && claimed
		}()
	}
	wg.Wait()
	close(results)

	winners := 0
	for claimed := range results {
		if claimed {
			winners++
		}
	}
	assert.Equal(t, 1, winners, "exactly one claim must win")
}

func TestInMemoryIdempotencyStore_Close(t *testing.T) {
	store := NewInMemoryIdempotencyStore()

	assert.NoError(t, store.Close())
	assert.NoError(t, store.Close(), "repeat close must not panic")
}

package cache

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func newStore(t *testing.T) (*InMemoryIdempotencyStore, *fakeClock) {
	t.Helper()
	clock := &fakeClock{now: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)}
	store := NewInMemoryIdempotencyStore(WithClock(clock.Now), WithSweepInterval(time.Hour))
	t.Cleanup(func() { _ = store.Close() })
	return store, clock
}

func TestInMemoryIdempotencyStore_MarkProcessed(t *testing.T) {
	store, clock := newStore(t)
	ctx := context.Background()

	first, err := store.MarkProcessed(ctx, "key-1", time.Minute)
	require.NoError(t, err)
	assert.True(t, first)

	again, err := store.MarkProcessed(ctx, "key-1", time.Minute)
	require.NoError(t, err)
	assert.False(t, again, "duplicate key within ttl")

	other, err := store.MarkProcessed(ctx, "key-2", time.Minute)
	require.NoError(t, err)
	assert.True(t, other)

	clock.Advance(time.Minute)
	expired, err := store.MarkProcessed(ctx, "key-1", time.Minute)
	require.NoError(t, err)
	assert.True(t, expired, "key can be claimed again once expired")
}

func TestInMemoryIdempotencyStore_IsProcessed(t *testing.T) {
	store, clock := newStore(t)
	ctx := context.Background()

	processed, err := store.IsProcessed(ctx, "key")
	require.NoError(t, err)
	assert.False(t, processed)

	_, err = store.MarkProcessed(ctx, "key", 10*time.Second)
	require.NoError(t, err)

	processed, err = store.IsProcessed(ctx, "key")
	require.NoError(t, err)
	assert.True(t, processed)

	clock.Advance(11 * time.Second)
	processed, err = store.IsProcessed(ctx, "key")
	require.NoError(t, err)
	assert.False(t, processed)
}

func TestInMemoryIdempotencyStore_Release(t *testing.T) {
	store, _ := newStore(t)
	ctx := context.Background()

	_, err := store.MarkProcessed(ctx, "key", time.Hour)
	require.NoError(t, err)
	require.NoError(t, store.Release(ctx, "key"))

	ok, err := store.MarkProcessed(ctx, "key", time.Hour)
	require.NoError(t, err)
	assert.True(t, ok)

	assert.NoError(t, store.Release(ctx, "never-claimed"))
}

func TestInMemoryIdempotencyStore_Sweep(t *testing.T) {
	store, clock := newStore(t)
	ctx := context.Background()

	_, _ = store.MarkProcessed(ctx, "short", time.Second)
	_, _ = store.MarkProcessed(ctx, "long", time.Hour)
	require.Equal(t, 2, store.Len())

	clock.Advance(2 * time.Second)
	store.sweep()
	assert.Equal(t, 1, store.Len())

	processed, _ := store.IsProcessed(ctx, "long")
	assert.True(t, processed)
}

func TestInMemoryIdempotencyStore_ConcurrentClaims(t *testing.T) {
	store, _ := newStore(t)
	ctx := context.Background()

	var winners atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ok, err := store.MarkProcessed(ctx, "payment-retry", time.Minute)
			if err == nil && ok {
				winners.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), winners.Load())
}

func TestInMemoryIdempotencyStore_CloseIsIdempotent(t *testing.T) {
	store := NewInMemoryIdempotencyStore(WithSweepInterval(time.Millisecond))
	time.Sleep(5 * time.Millisecond)
	assert.NoError(t, store.Close())
	assert.NoError(t, store.Close())
}

func BenchmarkInMemoryIdempotencyStore_MarkProcessed(b *testing.B) {
	store := NewInMemoryIdempotencyStore()
	defer store.Close()
	ctx := context.Background()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = store.MarkProcessed(ctx, fmt.Sprintf("key-%d", i), time.Hour)
	}
}

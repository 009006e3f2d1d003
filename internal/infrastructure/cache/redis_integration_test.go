//go:build integration

package cache

import (
	"context"
	"testing"
	"time"

	"github.com/erp/restaurant/internal/infrastructure/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

func newRedisStore(t *testing.T) *RedisIdempotencyStore {
	t.Helper()
	ctx := context.Background()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "redis:7-alpine",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor:   wait.ForLog("Ready to accept connections").WithStartupTimeout(30 * time.Second),
		},
		Started: true,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(ctx) })

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "6379")
	require.NoError(t, err)

	store, err := NewRedisIdempotencyStore(ctx, config.RedisConfig{Enabled: true, Host: host, Port: port.Int()})
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestRedisIdempotencyStore(t *testing.T) {
	store := newRedisStore(t)
	ctx := context.Background()

	ok, err := store.MarkProcessed(ctx, "pay-1", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = store.MarkProcessed(ctx, "pay-1", time.Minute)
	require.NoError(t, err)
	assert.False(t, ok)

	processed, err := store.IsProcessed(ctx, "pay-1")
	require.NoError(t, err)
	assert.True(t, processed)

	require.NoError(t, store.Release(ctx, "pay-1"))
	processed, err = store.IsProcessed(ctx, "pay-1")
	require.NoError(t, err)
	assert.False(t, processed)
}

func TestRedisIdempotencyStore_Expiry(t *testing.T) {
	store := newRedisStore(t)
	ctx := context.Background()

	_, err := store.MarkProcessed(ctx, "short", time.Second)
	require.NoError(t, err)

	assert.Eventually(t, func() bool {
		processed, err := store.IsProcessed(ctx, "short")
		return err == nil && !processed
	}, 5*time.Second, 100*time.Millisecond)
}

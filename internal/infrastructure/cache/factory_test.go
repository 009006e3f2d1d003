package cache

import (
	"context"
	"testing"

	"github.com/erp/restaurant/internal/infrastructure/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

// unreachableRedis points at a port nothing listens on
var unreachableRedis = config.RedisConfig{Enabled: true, Host: "127.0.0.1", Port: 1}

func TestStoreFactory_RedisDisabled(t *testing.T) {
	store, err := NewStoreFactory(config.RedisConfig{}).Create(context.Background())
	require.NoError(t, err)
	defer store.Close()

	assert.IsType(t, &InMemoryIdempotencyStore{}, store)
}

func TestStoreFactory_FallsBackWhenUnreachable(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	factory := NewStoreFactory(unreachableRedis, WithLogger(zap.New(core)))

	store, err := factory.Create(context.Background())
	require.NoError(t, err)
	defer store.Close()

	assert.IsType(t, &InMemoryIdempotencyStore{}, store)
	assert.Equal(t, 1, logs.FilterMessage("Redis unavailable, falling back to in-memory idempotency store").Len())
}

func TestStoreFactory_NoFallback(t *testing.T) {
	factory := NewStoreFactory(unreachableRedis, WithInMemoryFallback(false))

	store, err := factory.Create(context.Background())
	assert.Nil(t, store)
	assert.ErrorContains(t, err, "redis is required")
}

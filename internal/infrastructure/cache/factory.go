package cache

import (
	"context"
	"fmt"

	"github.com/erp/restaurant/internal/domain/shared"
	"github.com/erp/restaurant/internal/infrastructure/config"
	"go.uber.org/zap"
)

// StoreFactory picks the idempotency store for the configured environment
type StoreFactory struct {
	cfg           config.RedisConfig
	logger        *zap.Logger
	allowFallback bool
}

// FactoryOption configures a StoreFactory
type FactoryOption func(*StoreFactory)

// WithLogger sets the logger for the factory
func WithLogger(logger *zap.Logger) FactoryOption {
	return func(f *StoreFactory) {
		if logger != nil {
			f.logger = logger
		}
	}
}

// WithInMemoryFallback controls whether an unreachable Redis degrades to the
// in-memory store. Production disables it.
func WithInMemoryFallback(allow bool) FactoryOption {
	return func(f *StoreFactory) {
		f.allowFallback = allow
	}
}

// NewStoreFactory creates a factory. Fallback is allowed by default.
func NewStoreFactory(cfg config.RedisConfig, opts ...FactoryOption) *StoreFactory {
	f := &StoreFactory{
		cfg:           cfg,
		logger:        zap.NewNop(),
		allowFallback: true,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Create returns a Redis store when Redis is enabled and reachable, else an in-memory store
func (f *StoreFactory) Create(ctx context.Context) (shared.IdempotencyStore, error) {
	if !f.cfg.Enabled {
		f.logger.Info("Redis disabled, using in-memory idempotency store")
		return NewInMemoryIdempotencyStore(), nil
	}

	store, err := NewRedisIdempotencyStore(ctx, f.cfg)
	if err == nil {
		f.logger.Info("Using Redis idempotency store", zap.String("addr", f.cfg.Addr()))
		return store, nil
	}
	if !f.allowFallback {
		return nil, fmt.Errorf("redis is required for idempotency: %w", err)
	}

	f.logger.Warn("Redis unavailable, falling back to in-memory idempotency store",
		zap.String("addr", f.cfg.Addr()),
		zap.Error(err),
	)
	return NewInMemoryIdempotencyStore(), nil
}

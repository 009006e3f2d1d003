package event

import (
	"context"
	"sync/atomic"

	"github.com/erp/restaurant/internal/domain/shared"
	"go.uber.org/zap"
)

// DedupStats is a snapshot of a DedupHandler's counters
type DedupStats struct {
	Processed  int64 `json:"processed"`
	Duplicates int64 `json:"duplicates"`
	Failed     int64 `json:"failed"`
}

// DedupHandler wraps a handler so that each event ID is handled at most once
// within the configured TTL. A failed delivery releases the claim so a
// redelivery is handled again.
type DedupHandler struct {
	next   shared.EventHandler
	store  shared.IdempotencyStore
	config shared.IdempotencyConfig
	logger *zap.Logger

	processed  atomic.Int64
	duplicates atomic.Int64
	failed     atomic.Int64
}

// DedupOption configures a DedupHandler
type DedupOption func(*DedupHandler)

// WithDedupConfig overrides the default TTL and enablement
func WithDedupConfig(cfg shared.IdempotencyConfig) DedupOption {
	return func(h *DedupHandler) {
		h.config = cfg
	}
}

// NewDedupHandler wraps next with event-ID deduplication backed by store
func NewDedupHandler(next shared.EventHandler, store shared.IdempotencyStore, logger *zap.Logger, opts ...DedupOption) *DedupHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	h := &DedupHandler{
		next:   next,
		store:  store,
		config: shared.DefaultIdempotencyConfig(),
		logger: logger,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// EventTypes delegates to the wrapped handler
func (h *DedupHandler) EventTypes() []string {
	return h.next.EventTypes()
}

// Handle claims the event ID and then delegates. A store error does not block delivery.
func (h *DedupHandler) Handle(ctx context.Context, evt shared.DomainEvent) error {
	if !h.config.Enabled {
		return h.next.Handle(ctx, evt)
	}

	key := "event:" + evt.EventID().String()
	claimed, err := h.store.MarkProcessed(ctx, key, h.config.TTL)
	switch {
	case err != nil:
		h.logger.Warn("Event dedup check failed, handling anyway",
			zap.String("event_id", evt.EventID().String()),
			zap.String("event_type", evt.EventType()),
			zap.Error(err),
		)
	case !claimed:
		h.duplicates.Add(1)
		h.logger.Debug("Duplicate event skipped",
			zap.String("event_id", evt.EventID().String()),
			zap.String("event_type", evt.EventType()),
		)
		return nil
	}

	if err := h.next.Handle(ctx, evt); err != nil {
		h.failed.Add(1)
		if relErr := h.store.Release(ctx, key); relErr != nil {
			h.logger.Warn("Failed to release event dedup key", zap.String("key", key), zap.Error(relErr))
		}
		return err
	}
	h.processed.Add(1)
	return nil
}

// Stats returns the current counters
func (h *DedupHandler) Stats() DedupStats {
	return DedupStats{
		Processed:  h.processed.Load(),
		Duplicates: h.duplicates.Load(),
		Failed:     h.failed.Load(),
	}
}

var _ shared.EventHandler = (*DedupHandler)(nil)

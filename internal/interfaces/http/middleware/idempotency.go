package middleware

import (
	"context"
	"net/http"

	"github.com/erp/restaurant/internal/domain/shared"
	"github.com/erp/restaurant/internal/infrastructure/logger"
	"github.com/erp/restaurant/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// IdempotencyKeyHeader lets a till retry a write without applying it twice
const IdempotencyKeyHeader = "Idempotency-Key"

// MaxIdempotencyKeyLength bounds client-supplied keys
const MaxIdempotencyKeyLength = 128

// Idempotency claims the request's Idempotency-Key before the handler runs.
// A repeated key within the TTL is rejected with 409; a request that does not
// succeed releases its key so the client may retry. Requests without the
// header pass through. If the store is unavailable the request proceeds.
func Idempotency(store shared.IdempotencyStore, cfg shared.IdempotencyConfig) gin.HandlerFunc {
	if store == nil || !cfg.Enabled {
		return passThrough
	}
	if cfg.TTL <= 0 {
		cfg.TTL = shared.DefaultIdempotencyConfig().TTL
	}

	return func(c *gin.Context) {
		raw := c.GetHeader(IdempotencyKeyHeader)
		if raw == "" {
			c.Next()
			return
		}
		requestID := c.GetString("request_id")
		if len(raw) > MaxIdempotencyKeyLength {
			c.AbortWithStatusJSON(http.StatusBadRequest, dto.NewValidationErrorResponse(
				"Invalid Idempotency-Key header", requestID,
				[]dto.ValidationDetail{{Field: IdempotencyKeyHeader, Message: "Must be at most 128 characters"}},
			))
			return
		}

		key := idempotencyKey(c, raw)
		ctx := c.Request.Context()
		log := logger.GetGinLogger(c)

		first, err := store.MarkProcessed(ctx, key, cfg.TTL)
		if err != nil {
			log.Warn("Idempotency store unavailable, processing without dedup",
				zap.String("idempotency_key", raw), zap.Error(err))
			c.Next()
			return
		}
		if !first {
			log.Info("Duplicate request rejected", zap.String("idempotency_key", raw))
			c.AbortWithStatusJSON(http.StatusConflict, dto.NewErrorResponseWithRequestID(
				dto.ErrCodeDuplicateRequest,
				"A request with this Idempotency-Key was already processed",
				requestID,
			))
			return
		}

		c.Next()

		if status := c.Writer.Status(); status < 200 || status >= 300 {
			if err := store.Release(context.WithoutCancel(ctx), key); err != nil {
				log.Warn("Failed to release idempotency key",
					zap.String("idempotency_key", raw), zap.Error(err))
			}
		}
	}
}

// idempotencyKey scopes the client key to the caller and route
func idempotencyKey(c *gin.Context, raw string) string {
	caller := "anonymous"
	if subject, ok := GetSubject(c); ok {
		caller = subject.String()
	}
	return "http:" + caller + ":" + c.Request.Method + " " + c.Request.URL.Path + ":" + raw
}

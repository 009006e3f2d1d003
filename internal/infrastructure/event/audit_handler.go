package event

import (
	"context"

	"github.com/erp/restaurant/internal/domain/partner"
	"github.com/erp/restaurant/internal/domain/pos"
	"github.com/erp/restaurant/internal/domain/shared"
	"github.com/erp/restaurant/internal/domain/trade"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// SettlementAuditHandler writes one structured audit log line per settlement event.
// Closed sessions are logged at a level matching their cash variance.
type SettlementAuditHandler struct {
	logger     *zap.Logger
	serializer *EventSerializer
}

// NewSettlementAuditHandler creates the audit handler. The serializer supplies the
// raw payload attached to each line.
func NewSettlementAuditHandler(logger *zap.Logger, serializer *EventSerializer) *SettlementAuditHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SettlementAuditHandler{
		logger:     logger.Named("audit"),
		serializer: serializer,
	}
}

// EventTypes returns the settlement event types
func (h *SettlementAuditHandler) EventTypes() []string {
	return SettlementEventTypes
}

// Handle logs evt
func (h *SettlementAuditHandler) Handle(_ context.Context, evt shared.DomainEvent) error {
	level := zapcore.InfoLevel
	fields := []zap.Field{
		zap.String("event_id", evt.EventID().String()),
		zap.String("event_type", evt.EventType()),
		zap.String("aggregate_type", evt.AggregateType()),
		zap.String("aggregate_id", evt.AggregateID().String()),
		zap.Time("occurred_at", evt.OccurredAt()),
	}

	switch e := evt.(type) {
	case *pos.PaymentRecordedEvent:
		fields = append(fields,
			zap.String("order_id", e.OrderID.String()),
			zap.String("session_id", e.SessionID.String()),
			zap.String("method", string(e.Method)),
			zap.String("amount", e.Amount.String()),
			zap.String("received_by", e.ReceivedBy),
		)
	case *pos.CashierSessionOpenedEvent:
		fields = append(fields,
			zap.String("cashier_id", e.CashierID),
			zap.String("opening_cash", e.OpeningCash.String()),
		)
	case *pos.CashierSessionClosedEvent:
		fields = append(fields,
			zap.String("cashier_id", e.CashierID),
			zap.String("expected_cash", e.ExpectedCash.String()),
			zap.String("closing_cash", e.ClosingCash.String()),
			zap.String("cash_variance", e.CashVariance.String()),
			zap.String("variance_level", string(e.VarianceLevel)),
			zap.Int("total_orders", e.TotalOrders),
		)
		level = varianceLogLevel(e.VarianceLevel)
	case *trade.OrderPaymentStatusChangedEvent:
		fields = append(fields,
			zap.String("order_number", e.OrderNumber),
			zap.String("old_status", string(e.OldStatus)),
			zap.String("new_status", string(e.NewStatus)),
		)
	case *partner.CustomerCreditChangedEvent:
		fields = append(fields,
			zap.String("customer_code", e.Code),
			zap.String("reason", e.Reason),
			zap.String("delta", e.Delta().String()),
			zap.String("new_credit", e.NewCredit.String()),
		)
	}

	if h.serializer != nil {
		payload, err := h.serializer.Serialize(evt)
		if err != nil {
			return err
		}
		fields = append(fields, zap.ByteString("payload", payload))
	}

	h.logger.Log(level, "Settlement event", fields...)
	return nil
}

func varianceLogLevel(level pos.VarianceLevel) zapcore.Level {
	switch level {
	case pos.VarianceCritical:
		return zapcore.ErrorLevel
	case pos.VarianceOverTolerance:
		return zapcore.WarnLevel
	default:
		return zapcore.InfoLevel
	}
}

var _ shared.EventHandler = (*SettlementAuditHandler)(nil)

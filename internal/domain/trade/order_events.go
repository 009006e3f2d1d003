package trade

import (
	"github.com/erp/restaurant/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Aggregate type constant
const AggregateTypeOrder = "Order"

// Event type constants
const (
	EventTypeOrderPaymentStatusChanged = "OrderPaymentStatusChanged"
)

// OrderPaymentStatusChangedEvent is raised when settlement moves an order to a new payment status
type OrderPaymentStatusChangedEvent struct {
	shared.BaseDomainEvent
	OrderID     uuid.UUID       `json:"order_id"`
	OrderNumber string          `json:"order_number"`
	OldStatus   PaymentStatus   `json:"old_status"`
	NewStatus   PaymentStatus   `json:"new_status"`
	GrandTotal  decimal.Decimal `json:"grand_total"`
}

// NewOrderPaymentStatusChangedEvent creates a new OrderPaymentStatusChangedEvent
func NewOrderPaymentStatusChangedEvent(order *Order, oldStatus, newStatus PaymentStatus) *OrderPaymentStatusChangedEvent {
	return &OrderPaymentStatusChangedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeOrderPaymentStatusChanged, AggregateTypeOrder, order.ID),
		OrderID:         order.ID,
		OrderNumber:     order.OrderNumber,
		OldStatus:       oldStatus,
		NewStatus:       newStatus,
		GrandTotal:      order.GrandTotal,
	}
}

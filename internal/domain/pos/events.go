package pos

import (
	"github.com/erp/restaurant/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Aggregate type constants
const (
	AggregateTypeCashierSession = "CashierSession"
	AggregateTypePayment        = "Payment"
)

// Event type constants
const (
	EventTypeCashierSessionOpened = "CashierSessionOpened"
	EventTypeCashierSessionClosed = "CashierSessionClosed"
	EventTypePaymentRecorded      = "PaymentRecorded"
)

// CashierSessionOpenedEvent is raised when a cashier opens a drawer
type CashierSessionOpenedEvent struct {
	shared.BaseDomainEvent
	SessionID   uuid.UUID       `json:"session_id"`
	CashierID   string          `json:"cashier_id"`
	OpeningCash decimal.Decimal `json:"opening_cash"`
}

// NewCashierSessionOpenedEvent creates a new CashierSessionOpenedEvent
func NewCashierSessionOpenedEvent(s *CashierSession) *CashierSessionOpenedEvent {
	return &CashierSessionOpenedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeCashierSessionOpened, AggregateTypeCashierSession, s.ID),
		SessionID:       s.ID,
		CashierID:       s.CashierID.String(),
		OpeningCash:     s.OpeningCash,
	}
}

// CashierSessionClosedEvent is raised when a drawer is counted and closed
type CashierSessionClosedEvent struct {
	shared.BaseDomainEvent
	SessionID     uuid.UUID       `json:"session_id"`
	CashierID     string          `json:"cashier_id"`
	ClosingCash   decimal.Decimal `json:"closing_cash"`
	ExpectedCash  decimal.Decimal `json:"expected_cash"`
	CashVariance  decimal.Decimal `json:"cash_variance"`
	VarianceLevel VarianceLevel   `json:"variance_level"`
	TotalOrders   int             `json:"total_orders"`
}

// NewCashierSessionClosedEvent creates a new CashierSessionClosedEvent.
// It must be called after Close has populated the closing figures.
func NewCashierSessionClosedEvent(s *CashierSession) *CashierSessionClosedEvent {
	e := &CashierSessionClosedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeCashierSessionClosed, AggregateTypeCashierSession, s.ID),
		SessionID:       s.ID,
		CashierID:       s.CashierID.String(),
		VarianceLevel:   s.VarianceLevel,
		TotalOrders:     s.TotalOrders,
	}
	if s.ClosingCash != nil {
		e.ClosingCash = *s.ClosingCash
	}
	if s.ExpectedCash != nil {
		e.ExpectedCash = *s.ExpectedCash
	}
	if s.CashVariance != nil {
		e.CashVariance = *s.CashVariance
	}
	return e
}

// PaymentRecordedEvent is raised for every payment written
type PaymentRecordedEvent struct {
	shared.BaseDomainEvent
	PaymentID  uuid.UUID       `json:"payment_id"`
	OrderID    uuid.UUID       `json:"order_id"`
	SessionID  uuid.UUID       `json:"session_id"`
	Method     PaymentMethod   `json:"method"`
	Amount     decimal.Decimal `json:"amount"`
	ReceivedBy string          `json:"received_by"`
}

// NewPaymentRecordedEvent creates a new PaymentRecordedEvent
func NewPaymentRecordedEvent(p *Payment) *PaymentRecordedEvent {
	return &PaymentRecordedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypePaymentRecorded, AggregateTypePayment, p.ID),
		PaymentID:       p.ID,
		OrderID:         p.OrderID,
		SessionID:       p.SessionID,
		Method:          p.Method,
		Amount:          p.Amount,
		ReceivedBy:      p.ReceivedBy.String(),
	}
}

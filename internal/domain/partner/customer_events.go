package partner

import (
	"github.com/erp/restaurant/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Aggregate type constant
const AggregateTypeCustomer = "Customer"

// Event type constants
const (
	EventTypeCustomerCreditChanged = "CustomerCreditChanged"
)

// CustomerCreditChangedEvent is published when a customer's outstanding credit changes
type CustomerCreditChangedEvent struct {
	shared.BaseDomainEvent
	CustomerID uuid.UUID       `json:"customer_id"`
	Code       string          `json:"code"`
	OldCredit  decimal.Decimal `json:"old_credit"`
	NewCredit  decimal.Decimal `json:"new_credit"`
	Reason     string          `json:"reason"` // "charge", "payoff", "payment"
}

// NewCustomerCreditChangedEvent creates a new CustomerCreditChangedEvent
func NewCustomerCreditChangedEvent(customer *Customer, oldCredit, newCredit decimal.Decimal, reason string) *CustomerCreditChangedEvent {
	return &CustomerCreditChangedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeCustomerCreditChanged, AggregateTypeCustomer, customer.ID),
		CustomerID:      customer.ID,
		Code:            customer.Code,
		OldCredit:       oldCredit,
		NewCredit:       newCredit,
		Reason:          reason,
	}
}

// Delta returns the signed change in outstanding credit
func (e *CustomerCreditChangedEvent) Delta() decimal.Decimal {
	return e.NewCredit.Sub(e.OldCredit)
}

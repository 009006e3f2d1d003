package trade

import (
	"time"

	"github.com/erp/restaurant/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PaymentStatus is the settlement state of an order, derived from its payments
type PaymentStatus string

const (
	PaymentStatusUnpaid  PaymentStatus = "unpaid"
	PaymentStatusPartial PaymentStatus = "partial"
	PaymentStatusPaid    PaymentStatus = "paid"
	PaymentStatusCredit  PaymentStatus = "credit" // settled (partly or wholly) on the customer's account
)

// IsValid checks if the status is a known PaymentStatus
func (s PaymentStatus) IsValid() bool {
	switch s {
	case PaymentStatusUnpaid, PaymentStatusPartial, PaymentStatusPaid, PaymentStatusCredit:
		return true
	}
	return false
}

// String returns the string representation of PaymentStatus
func (s PaymentStatus) String() string {
	return string(s)
}

// Order is a restaurant order as seen by settlement.
// Line items, kitchen routing and table management live elsewhere; settlement
// only reads GrandTotal and CustomerID and writes PaymentStatus.
type Order struct {
	shared.BaseAggregateRoot
	OrderNumber   string
	SessionID     *uuid.UUID // cashier session the order was rung up in
	CustomerID    *uuid.UUID
	GrandTotal    decimal.Decimal
	PaymentStatus PaymentStatus
}

// NewOrder creates an unpaid order
func NewOrder(orderNumber string, grandTotal decimal.Decimal, sessionID, customerID *uuid.UUID) (*Order, error) {
	if orderNumber == "" {
		return nil, shared.NewDomainError("INVALID_ORDER_NUMBER", "Order number cannot be empty")
	}
	if len(orderNumber) > 50 {
		return nil, shared.NewDomainError("INVALID_ORDER_NUMBER", "Order number cannot exceed 50 characters")
	}
	if grandTotal.IsNegative() {
		return nil, shared.NewDomainError(shared.CodeInvalidAmount, "Grand total cannot be negative")
	}

	return &Order{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		OrderNumber:       orderNumber,
		SessionID:         sessionID,
		CustomerID:        customerID,
		GrandTotal:        grandTotal,
		PaymentStatus:     PaymentStatusUnpaid,
	}, nil
}

// HasCustomer reports whether the order is attached to a customer account
func (o *Order) HasCustomer() bool {
	return o.CustomerID != nil && *o.CustomerID != uuid.Nil
}

// BelongsTo reports whether the order is owned by the given customer
func (o *Order) BelongsTo(customerID uuid.UUID) bool {
	return o.HasCustomer() && *o.CustomerID == customerID
}

// ApplyPaymentStatus records a recomputed payment status.
// An event is raised only when the status actually changes.
func (o *Order) ApplyPaymentStatus(status PaymentStatus) error {
	if !status.IsValid() {
		return shared.NewDomainError("INVALID_PAYMENT_STATUS", "Invalid payment status: "+string(status))
	}
	if o.PaymentStatus == status {
		return nil
	}

	old := o.PaymentStatus
	o.PaymentStatus = status
	o.UpdatedAt = time.Now()

	o.AddDomainEvent(NewOrderPaymentStatusChangedEvent(o, old, status))
	return nil
}

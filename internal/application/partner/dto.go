package partner

import (
	"github.com/erp/restaurant/internal/domain/partner"
	"github.com/erp/restaurant/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// RecordCreditPaymentRequest repays part of a customer's credit against one of their orders
type RecordCreditPaymentRequest struct {
	CustomerID uuid.UUID           `json:"-"` // From the URL path
	OrderID    uuid.UUID           `json:"order_id" binding:"required"`
	SessionID  uuid.UUID           `json:"session_id" binding:"required"`
	Amount     decimal.Decimal     `json:"amount" binding:"decimal_positive"`
	Reference  string              `json:"reference" binding:"max=100"`
	Notes      string              `json:"notes" binding:"max=500"`
	ReceivedBy valueobject.Subject `json:"-"` // Set from JWT context, not from request body
}

// RecordCreditPaymentResult is returned by RecordCreditPayment
type RecordCreditPaymentResult struct {
	PaymentID     uuid.UUID       `json:"payment_id"`
	OrderID       uuid.UUID       `json:"order_id"`
	PaymentStatus string          `json:"payment_status"`
	NewBalance    decimal.Decimal `json:"new_balance"`
}

// CreditSummaryResponse describes a customer's house account
type CreditSummaryResponse struct {
	CustomerID      uuid.UUID       `json:"customer_id"`
	Code            string          `json:"code"`
	Name            string          `json:"name"`
	CurrentCredit   decimal.Decimal `json:"current_credit"`
	CreditLimit     decimal.Decimal `json:"credit_limit"`
	AvailableCredit decimal.Decimal `json:"available_credit"`
	OverLimit       bool            `json:"over_limit"`
}

// ToCreditSummaryResponse converts a domain customer to its credit summary
func ToCreditSummaryResponse(c *partner.Customer) CreditSummaryResponse {
	return CreditSummaryResponse{
		CustomerID:      c.ID,
		Code:            c.Code,
		Name:            c.Name,
		CurrentCredit:   c.CurrentCredit,
		CreditLimit:     c.CreditLimit,
		AvailableCredit: c.AvailableCredit(),
		OverLimit:       c.IsOverLimit(),
	}
}

package pos

import (
	"time"

	"github.com/erp/restaurant/internal/domain/shared"
	"github.com/erp/restaurant/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	maxReferenceLength = 100
	maxNotesLength     = 500
)

// Payment is a single tender applied to an order within a cashier session.
// Payments are immutable: corrections are made by recording a further payment.
type Payment struct {
	ID         uuid.UUID
	OrderID    uuid.UUID
	SessionID  uuid.UUID
	Method     PaymentMethod
	Amount     decimal.Decimal
	Reference  string // card slip / QR transaction number
	ReceivedBy valueobject.Subject
	Notes      string
	CreatedAt  time.Time
}

// NewPayment validates and creates a payment
func NewPayment(
	orderID, sessionID uuid.UUID,
	method PaymentMethod,
	amount decimal.Decimal,
	receivedBy valueobject.Subject,
	reference, notes string,
) (*Payment, error) {
	if orderID == uuid.Nil {
		return nil, shared.NewDomainError(shared.CodeInvalidInput, "Order ID cannot be empty")
	}
	if sessionID == uuid.Nil {
		return nil, shared.NewDomainError(shared.CodeInvalidInput, "Session ID cannot be empty")
	}
	if !method.IsValid() {
		return nil, shared.NewDomainError(shared.CodeInvalidMethod, "Unknown payment method: "+string(method))
	}
	if !amount.IsPositive() {
		return nil, shared.ErrInvalidAmount
	}
	if receivedBy.IsZero() {
		return nil, shared.NewDomainError(shared.CodeInvalidSubject, "Received-by subject cannot be empty")
	}
	if len(reference) > maxReferenceLength {
		return nil, shared.NewDomainError(shared.CodeInvalidInput, "Reference cannot exceed 100 characters")
	}
	if len(notes) > maxNotesLength {
		return nil, shared.NewDomainError(shared.CodeInvalidInput, "Notes cannot exceed 500 characters")
	}

	return &Payment{
		ID:         uuid.New(),
		OrderID:    orderID,
		SessionID:  sessionID,
		Method:     method,
		Amount:     amount,
		Reference:  reference,
		ReceivedBy: receivedBy,
		Notes:      notes,
		CreatedAt:  time.Now(),
	}, nil
}

// TotalPaid sums the amounts of a payment set
func TotalPaid(payments []Payment) decimal.Decimal {
	total := decimal.Zero
	for _, p := range payments {
		total = total.Add(p.Amount)
	}
	return total
}

// HasCreditTender reports whether any payment in the set was made on credit
func HasCreditTender(payments []Payment) bool {
	for _, p := range payments {
		if p.Method.IsCredit() {
			return true
		}
	}
	return false
}

// MethodSummary is a per-tender rollup of a payment set.
// Unlike TenderTotals, qr and fonepay are reported separately.
type MethodSummary struct {
	Cash    decimal.Decimal `json:"cash"`
	Card    decimal.Decimal `json:"card"`
	QR      decimal.Decimal `json:"qr"`
	Fonepay decimal.Decimal `json:"fonepay"`
	Credit  decimal.Decimal `json:"credit"`
	Total   decimal.Decimal `json:"total"`
	Count   int             `json:"count"`
}

// SummarizeByMethod sums a payment set per tender
func SummarizeByMethod(payments []Payment) MethodSummary {
	s := MethodSummary{
		Cash:    decimal.Zero,
		Card:    decimal.Zero,
		QR:      decimal.Zero,
		Fonepay: decimal.Zero,
		Credit:  decimal.Zero,
		Total:   decimal.Zero,
	}
	for _, p := range payments {
		switch p.Method {
		case MethodCash:
			s.Cash = s.Cash.Add(p.Amount)
		case MethodCard:
			s.Card = s.Card.Add(p.Amount)
		case MethodQR:
			s.QR = s.QR.Add(p.Amount)
		case MethodFonepay:
			s.Fonepay = s.Fonepay.Add(p.Amount)
		case MethodCredit:
			s.Credit = s.Credit.Add(p.Amount)
		}
		s.Total = s.Total.Add(p.Amount)
		s.Count++
	}
	return s
}

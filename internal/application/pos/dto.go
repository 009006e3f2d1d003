package pos

import (
	"time"

	"github.com/erp/restaurant/internal/domain/pos"
	"github.com/erp/restaurant/internal/domain/shared/valueobject"
	"github.com/erp/restaurant/internal/domain/trade"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// =============================================================================
// Session DTOs
// =============================================================================

// OpenSessionRequest opens a drawer for the authenticated cashier
type OpenSessionRequest struct {
	OpeningCash decimal.Decimal     `json:"opening_cash" binding:"decimal_gte0"`
	CashierID   valueobject.Subject `json:"-"` // Set from JWT context, not from request body
}

// CloseSessionRequest closes a drawer with the counted cash
type CloseSessionRequest struct {
	ClosingCash decimal.Decimal `json:"closing_cash" binding:"decimal_gte0"`
	Notes       string          `json:"notes" binding:"max=500"`
}

// UpdateTotalsRequest bumps a session's tender accumulator directly
type UpdateTotalsRequest struct {
	Method string          `json:"method" binding:"required,tender"`
	Amount decimal.Decimal `json:"amount" binding:"decimal_positive"`
}

// SessionHistoryQuery filters the session history listing
type SessionHistoryQuery struct {
	CashierID *valueobject.Subject
	Status    *pos.SessionStatus
	From      *time.Time
	To        *time.Time
	Page      int
	PageSize  int
}

// SessionResponse is the API view of a cashier session
type SessionResponse struct {
	ID               uuid.UUID        `json:"id"`
	CashierID        string           `json:"cashier_id"`
	SessionDate      time.Time        `json:"session_date"`
	OpeningCash      decimal.Decimal  `json:"opening_cash"`
	TotalCashSales   decimal.Decimal  `json:"total_cash_sales"`
	TotalCardSales   decimal.Decimal  `json:"total_card_sales"`
	TotalQRSales     decimal.Decimal  `json:"total_qr_sales"`
	TotalCreditSales decimal.Decimal  `json:"total_credit_sales"`
	TotalOrders      int              `json:"total_orders"`
	Status           string           `json:"status"`
	OpenedAt         time.Time        `json:"opened_at"`
	ClosedAt         *time.Time       `json:"closed_at,omitempty"`
	ClosingCash      *decimal.Decimal `json:"closing_cash,omitempty"`
	ExpectedCash     *decimal.Decimal `json:"expected_cash,omitempty"`
	CashVariance     *decimal.Decimal `json:"cash_variance,omitempty"`
	VarianceLevel    string           `json:"variance_level,omitempty"`
	Notes            string           `json:"notes,omitempty"`
	Version          int              `json:"version"`
}

// ToSessionResponse converts a domain session to its response
func ToSessionResponse(s *pos.CashierSession) SessionResponse {
	return SessionResponse{
		ID:               s.ID,
		CashierID:        s.CashierID.String(),
		SessionDate:      s.SessionDate,
		OpeningCash:      s.OpeningCash,
		TotalCashSales:   s.Totals.Cash,
		TotalCardSales:   s.Totals.Card,
		TotalQRSales:     s.Totals.QR,
		TotalCreditSales: s.Totals.Credit,
		TotalOrders:      s.TotalOrders,
		Status:           string(s.Status),
		OpenedAt:         s.OpenedAt,
		ClosedAt:         s.ClosedAt,
		ClosingCash:      s.ClosingCash,
		ExpectedCash:     s.ExpectedCash,
		CashVariance:     s.CashVariance,
		VarianceLevel:    string(s.VarianceLevel),
		Notes:            s.Notes,
		Version:          s.Version,
	}
}

// OrderStats counts a session's orders by payment status
type OrderStats struct {
	Count      int             `json:"count"`
	Unpaid     int             `json:"unpaid"`
	Partial    int             `json:"partial"`
	Paid       int             `json:"paid"`
	Credit     int             `json:"credit"`
	GrandTotal decimal.Decimal `json:"grand_total"`
}

func orderStatsFor(orders []trade.Order) OrderStats {
	stats := OrderStats{GrandTotal: decimal.Zero}
	for _, o := range orders {
		stats.Count++
		stats.GrandTotal = stats.GrandTotal.Add(o.GrandTotal)
		switch o.PaymentStatus {
		case trade.PaymentStatusUnpaid:
			stats.Unpaid++
		case trade.PaymentStatusPartial:
			stats.Partial++
		case trade.PaymentStatusPaid:
			stats.Paid++
		case trade.PaymentStatusCredit:
			stats.Credit++
		}
	}
	return stats
}

// SessionOrder is an order as listed in a session summary
type SessionOrder struct {
	ID            uuid.UUID       `json:"id"`
	OrderNumber   string          `json:"order_number"`
	CustomerID    *uuid.UUID      `json:"customer_id,omitempty"`
	GrandTotal    decimal.Decimal `json:"grand_total"`
	PaymentStatus string          `json:"payment_status"`
}

func toSessionOrders(orders []trade.Order) []SessionOrder {
	out := make([]SessionOrder, len(orders))
	for i, o := range orders {
		out[i] = SessionOrder{
			ID:            o.ID,
			OrderNumber:   o.OrderNumber,
			CustomerID:    o.CustomerID,
			GrandTotal:    o.GrandTotal,
			PaymentStatus: string(o.PaymentStatus),
		}
	}
	return out
}

// SessionSummaryResponse rolls up a session's orders and payments
type SessionSummaryResponse struct {
	Session      SessionResponse   `json:"session"`
	OrderList    []SessionOrder    `json:"order_list"`
	PaymentList  []PaymentResponse `json:"payment_list"`
	Orders       OrderStats        `json:"orders"`
	Payments     pos.MethodSummary `json:"payments"`
	CashTotal    decimal.Decimal   `json:"cash_total"`
	ExpectedCash decimal.Decimal   `json:"expected_cash"`
}

// ReconciliationResponse compares stored accumulators with values recomputed
// from payments. InSync covers the tender totals only; the order count is
// reported on its own in OrdersInSync.
type ReconciliationResponse struct {
	SessionID        uuid.UUID        `json:"session_id"`
	Stored           pos.TenderTotals `json:"stored"`
	Recomputed       pos.TenderTotals `json:"recomputed"`
	Drift            pos.TenderTotals `json:"drift"`
	StoredOrders     int              `json:"stored_orders"`
	RecomputedOrders int              `json:"recomputed_orders"`
	InSync           bool             `json:"in_sync"`
	OrdersInSync     bool             `json:"orders_in_sync"`
	Applied          bool             `json:"applied"`
}

// =============================================================================
// Payment DTOs
// =============================================================================

// RecordPaymentRequest records one tender against an order
type RecordPaymentRequest struct {
	OrderID    uuid.UUID           `json:"order_id" binding:"required"`
	SessionID  uuid.UUID           `json:"session_id" binding:"required"`
	Method     string              `json:"method" binding:"required,tender"`
	Amount     decimal.Decimal     `json:"amount" binding:"decimal_positive"`
	Reference  string              `json:"reference" binding:"max=100"`
	Notes      string              `json:"notes" binding:"max=500"`
	ReceivedBy valueobject.Subject `json:"-"` // Set from JWT context, not from request body
}

// SplitPaymentEntry is one tender in a split payment.
// Entries with a non-positive amount are skipped.
type SplitPaymentEntry struct {
	Method    string          `json:"method" binding:"required,tender"`
	Amount    decimal.Decimal `json:"amount"`
	Reference string          `json:"reference" binding:"max=100"`
}

// RecordSplitPaymentRequest settles an order with several tenders at once
type RecordSplitPaymentRequest struct {
	OrderID    uuid.UUID           `json:"order_id" binding:"required"`
	SessionID  uuid.UUID           `json:"session_id" binding:"required"`
	Payments   []SplitPaymentEntry `json:"payments" binding:"required,min=1,dive"`
	ReceivedBy valueobject.Subject `json:"-"`
}

// PayOffCreditRequest reduces a customer's outstanding credit without touching any order
type PayOffCreditRequest struct {
	CustomerID uuid.UUID           `json:"-"` // From the URL path
	Amount     decimal.Decimal     `json:"amount" binding:"decimal_positive"`
	Method     string              `json:"method" binding:"required,tender"`
	Reference  string              `json:"reference" binding:"max=100"`
	Notes      string              `json:"notes" binding:"max=500"`
	ReceivedBy valueobject.Subject `json:"-"`
}

// RecordPaymentResult is returned by RecordPayment
type RecordPaymentResult struct {
	PaymentID     uuid.UUID `json:"payment_id"`
	PaymentStatus string    `json:"payment_status"`
}

// RecordSplitPaymentResult lists the payments created, in request order
type RecordSplitPaymentResult struct {
	PaymentIDs    []uuid.UUID `json:"payment_ids"`
	PaymentStatus string      `json:"payment_status"`
}

// PayOffCreditResult is returned by PayOffCredit
type PayOffCreditResult struct {
	CustomerID      uuid.UUID       `json:"customer_id"`
	PreviousBalance decimal.Decimal `json:"previous_balance"`
	NewBalance      decimal.Decimal `json:"new_balance"`
}

// PaymentResponse is the API view of a payment
type PaymentResponse struct {
	ID         uuid.UUID       `json:"id"`
	OrderID    uuid.UUID       `json:"order_id"`
	SessionID  uuid.UUID       `json:"session_id"`
	Method     string          `json:"method"`
	Amount     decimal.Decimal `json:"amount"`
	Reference  string          `json:"reference,omitempty"`
	ReceivedBy string          `json:"received_by"`
	Notes      string          `json:"notes,omitempty"`
	CreatedAt  time.Time       `json:"created_at"`
}

// ToPaymentResponse converts a domain payment to its response
func ToPaymentResponse(p *pos.Payment) PaymentResponse {
	return PaymentResponse{
		ID:         p.ID,
		OrderID:    p.OrderID,
		SessionID:  p.SessionID,
		Method:     string(p.Method),
		Amount:     p.Amount,
		Reference:  p.Reference,
		ReceivedBy: p.ReceivedBy.String(),
		Notes:      p.Notes,
		CreatedAt:  p.CreatedAt,
	}
}

// ToPaymentResponses converts a payment slice
func ToPaymentResponses(payments []pos.Payment) []PaymentResponse {
	out := make([]PaymentResponse, len(payments))
	for i := range payments {
		out[i] = ToPaymentResponse(&payments[i])
	}
	return out
}

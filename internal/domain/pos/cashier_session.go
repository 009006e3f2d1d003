package pos

import (
	"time"

	"github.com/erp/restaurant/internal/domain/shared"
	"github.com/erp/restaurant/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
)

// SessionStatus is the lifecycle state of a cashier session.
// open -> closed is the only transition; closed is terminal.
type SessionStatus string

const (
	SessionStatusOpen   SessionStatus = "open"
	SessionStatusClosed SessionStatus = "closed"
)

// Session errors
var (
	ErrOpenSessionExists = shared.NewDomainError(shared.CodeOpenSessionExists, "You already have an open session")
	ErrSessionClosed     = shared.NewDomainError(shared.CodeSessionClosed, "Session is already closed")
)

// TenderTotals holds the running sales per tender bucket
type TenderTotals struct {
	Cash   decimal.Decimal `json:"cash"`
	Card   decimal.Decimal `json:"card"`
	QR     decimal.Decimal `json:"qr"`
	Credit decimal.Decimal `json:"credit"`
}

// ZeroTenderTotals returns totals with every bucket at zero
func ZeroTenderTotals() TenderTotals {
	return TenderTotals{Cash: decimal.Zero, Card: decimal.Zero, QR: decimal.Zero, Credit: decimal.Zero}
}

// TenderTotalsFromPayments recomputes bucket totals from source payments
func TenderTotalsFromPayments(payments []Payment) TenderTotals {
	t := ZeroTenderTotals()
	for _, p := range payments {
		t = t.Add(p.Method, p.Amount)
	}
	return t
}

// Add returns a copy with amount added to the method's bucket
func (t TenderTotals) Add(method PaymentMethod, amount decimal.Decimal) TenderTotals {
	switch method.Bucket() {
	case BucketCash:
		t.Cash = t.Cash.Add(amount)
	case BucketCard:
		t.Card = t.Card.Add(amount)
	case BucketQR:
		t.QR = t.QR.Add(amount)
	case BucketCredit:
		t.Credit = t.Credit.Add(amount)
	}
	return t
}

// Sum returns the total across all buckets
func (t TenderTotals) Sum() decimal.Decimal {
	return t.Cash.Add(t.Card).Add(t.QR).Add(t.Credit)
}

// Sub returns the per-bucket difference t - other
func (t TenderTotals) Sub(other TenderTotals) TenderTotals {
	return TenderTotals{
		Cash:   t.Cash.Sub(other.Cash),
		Card:   t.Card.Sub(other.Card),
		QR:     t.QR.Sub(other.QR),
		Credit: t.Credit.Sub(other.Credit),
	}
}

// IsZero reports whether every bucket is zero
func (t TenderTotals) IsZero() bool {
	return t.Cash.IsZero() && t.Card.IsZero() && t.QR.IsZero() && t.Credit.IsZero()
}

// CashierSession is one cashier's drawer session for a business day
type CashierSession struct {
	shared.BaseAggregateRoot
	CashierID     valueobject.Subject
	SessionDate   time.Time // business day, truncated to midnight
	OpeningCash   decimal.Decimal
	Totals        TenderTotals
	TotalOrders   int
	Status        SessionStatus
	OpenedAt      time.Time
	ClosedAt      *time.Time
	ClosingCash   *decimal.Decimal
	ExpectedCash  *decimal.Decimal
	CashVariance  *decimal.Decimal
	VarianceLevel VarianceLevel
	Notes         string
}

// BusinessDay truncates t to midnight in loc
func BusinessDay(t time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.Local
	}
	lt := t.In(loc)
	return time.Date(lt.Year(), lt.Month(), lt.Day(), 0, 0, 0, 0, loc)
}

// OpenCashierSession opens a drawer for the cashier.
// The caller must have checked that the cashier has no other open session.
func OpenCashierSession(cashierID valueobject.Subject, openingCash decimal.Decimal, now time.Time, loc *time.Location) (*CashierSession, error) {
	if cashierID.IsZero() {
		return nil, shared.NewDomainError(shared.CodeInvalidSubject, "Cashier subject cannot be empty")
	}
	if openingCash.IsNegative() {
		return nil, shared.NewDomainError(shared.CodeInvalidAmount, "Opening cash cannot be negative")
	}

	s := &CashierSession{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		CashierID:         cashierID,
		SessionDate:       BusinessDay(now, loc),
		OpeningCash:       openingCash,
		Totals:            ZeroTenderTotals(),
		Status:            SessionStatusOpen,
		OpenedAt:          now,
	}
	s.CreatedAt = now
	s.UpdatedAt = now

	s.AddDomainEvent(NewCashierSessionOpenedEvent(s))
	return s, nil
}

// IsOpen reports whether the session still accepts sales
func (s *CashierSession) IsOpen() bool {
	return s.Status == SessionStatusOpen
}

// RecordTender adds a sale to the bucket selected by the tender
func (s *CashierSession) RecordTender(method PaymentMethod, amount decimal.Decimal) error {
	if !s.IsOpen() {
		return ErrSessionClosed
	}
	if !method.IsValid() {
		return shared.NewDomainError(shared.CodeInvalidMethod, "Unknown payment method: "+string(method))
	}
	if !amount.IsPositive() {
		return shared.ErrInvalidAmount
	}

	s.Totals = s.Totals.Add(method, amount)
	s.UpdatedAt = time.Now()
	return nil
}

// IncrementOrderCount counts one more order against the session
func (s *CashierSession) IncrementOrderCount() error {
	if !s.IsOpen() {
		return ErrSessionClosed
	}
	s.TotalOrders++
	s.UpdatedAt = time.Now()
	return nil
}

// ExpectedCashFor returns opening float plus the given cash sales
func (s *CashierSession) ExpectedCashFor(cashSales decimal.Decimal) decimal.Decimal {
	return s.OpeningCash.Add(cashSales)
}

// Close freezes the session. cashSales must be recomputed from the session's
// cash payments by the caller, not taken from the running accumulator.
func (s *CashierSession) Close(closingCash, cashSales decimal.Decimal, notes string, thresholds VarianceThresholds, now time.Time) error {
	if !s.IsOpen() {
		return ErrSessionClosed
	}
	if closingCash.IsNegative() {
		return shared.NewDomainError(shared.CodeInvalidAmount, "Closing cash cannot be negative")
	}
	if len(notes) > maxNotesLength {
		return shared.NewDomainError(shared.CodeInvalidInput, "Notes cannot exceed 500 characters")
	}

	expected := s.ExpectedCashFor(cashSales)
	variance := closingCash.Sub(expected)

	s.ClosingCash = &closingCash
	s.ExpectedCash = &expected
	s.CashVariance = &variance
	s.VarianceLevel = thresholds.Classify(variance)
	s.Notes = notes
	s.Status = SessionStatusClosed
	s.ClosedAt = &now
	s.UpdatedAt = now

	s.AddDomainEvent(NewCashierSessionClosedEvent(s))
	return nil
}

// Reconcile overwrites the tender accumulators with totals recomputed from
// payments. TotalOrders is left alone; it only moves through IncrementOrderCount.
func (s *CashierSession) Reconcile(totals TenderTotals) {
	s.Totals = totals
	s.UpdatedAt = time.Now()
}

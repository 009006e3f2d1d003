package pos

import (
	"context"
	"time"

	"github.com/erp/restaurant/internal/domain/shared"
	"github.com/erp/restaurant/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// SessionHistoryFilter narrows a cashier session history query.
// Nil fields are not applied; the date range is inclusive on SessionDate.
type SessionHistoryFilter struct {
	shared.Filter
	CashierID *valueobject.Subject
	Status    *SessionStatus
	From      *time.Time
	To        *time.Time
}

// CashierSessionRepository defines persistence for cashier sessions
type CashierSessionRepository interface {
	// FindByID finds a session by ID, returning shared.ErrNotFound if absent
	FindByID(ctx context.Context, id uuid.UUID) (*CashierSession, error)

	// FindOpenByCashier returns the cashier's open session, or shared.ErrNotFound
	FindOpenByCashier(ctx context.Context, cashierID valueobject.Subject) (*CashierSession, error)

	// FindLatestByCashierAndDate returns the most recently opened session of the
	// cashier for a business day, or shared.ErrNotFound
	FindLatestByCashierAndDate(ctx context.Context, cashierID valueobject.Subject, sessionDate time.Time) (*CashierSession, error)

	// FindHistory lists sessions newest first and returns the unpaged total
	FindHistory(ctx context.Context, filter SessionHistoryFilter) ([]CashierSession, int64, error)

	// Create inserts a new session
	Create(ctx context.Context, session *CashierSession) error

	// Save persists the session's mutable fields
	Save(ctx context.Context, session *CashierSession) error
}

// PaymentRepository defines persistence for payments.
// Payments are immutable, so there is no update or delete.
type PaymentRepository interface {
	// Create inserts a payment
	Create(ctx context.Context, payment *Payment) error

	// FindByOrder returns an order's payments, oldest first
	FindByOrder(ctx context.Context, orderID uuid.UUID) ([]Payment, error)

	// FindBySession returns a session's payments, oldest first
	FindBySession(ctx context.Context, sessionID uuid.UUID) ([]Payment, error)

	// SumBySessionAndMethod sums a session's payments of one tender
	SumBySessionAndMethod(ctx context.Context, sessionID uuid.UUID, method PaymentMethod) (decimal.Decimal, error)
}

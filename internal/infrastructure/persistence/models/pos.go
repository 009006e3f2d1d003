package models

import (
	"time"

	"github.com/erp/restaurant/internal/domain/pos"
	"github.com/erp/restaurant/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CashierSessionModel is the persistence model for the CashierSession aggregate.
// Running totals are kept per tender bucket.
type CashierSessionModel struct {
	AggregateModel
	CashierID     valueobject.Subject `gorm:"type:varchar(255);not null;index:idx_cashier_session_day,priority:1"`
	SessionDate   time.Time           `gorm:"type:date;not null;index:idx_cashier_session_day,priority:2"`
	OpeningCash   decimal.Decimal     `gorm:"type:decimal(18,4);not null;default:0"`
	CashSales     decimal.Decimal     `gorm:"type:decimal(18,4);not null;default:0"`
	CardSales     decimal.Decimal     `gorm:"type:decimal(18,4);not null;default:0"`
	QRSales       decimal.Decimal     `gorm:"column:qr_sales;type:decimal(18,4);not null;default:0"`
	CreditSales   decimal.Decimal     `gorm:"type:decimal(18,4);not null;default:0"`
	TotalOrders   int                 `gorm:"not null;default:0"`
	Status        pos.SessionStatus   `gorm:"type:varchar(20);not null;default:'open';index"`
	OpenedAt      time.Time           `gorm:"not null"`
	ClosedAt      *time.Time
	ClosingCash   *decimal.Decimal  `gorm:"type:decimal(18,4)"`
	ExpectedCash  *decimal.Decimal  `gorm:"type:decimal(18,4)"`
	CashVariance  *decimal.Decimal  `gorm:"type:decimal(18,4)"`
	VarianceLevel pos.VarianceLevel `gorm:"type:varchar(20)"`
	Notes         string            `gorm:"type:text"`
}

// TableName returns the table name for GORM
func (CashierSessionModel) TableName() string {
	return "cashier_sessions"
}

// ToDomain converts the persistence model to a domain CashierSession.
func (m *CashierSessionModel) ToDomain() *pos.CashierSession {
	return &pos.CashierSession{
		BaseAggregateRoot: m.ToAggregateRoot(),
		CashierID:         m.CashierID,
		SessionDate:       m.SessionDate,
		OpeningCash:       m.OpeningCash,
		Totals: pos.TenderTotals{
			Cash:   m.CashSales,
			Card:   m.CardSales,
			QR:     m.QRSales,
			Credit: m.CreditSales,
		},
		TotalOrders:   m.TotalOrders,
		Status:        m.Status,
		OpenedAt:      m.OpenedAt,
		ClosedAt:      m.ClosedAt,
		ClosingCash:   m.ClosingCash,
		ExpectedCash:  m.ExpectedCash,
		CashVariance:  m.CashVariance,
		VarianceLevel: m.VarianceLevel,
		Notes:         m.Notes,
	}
}

// FromDomain populates the persistence model from a domain CashierSession.
func (m *CashierSessionModel) FromDomain(s *pos.CashierSession) {
	m.FromDomainAggregateRoot(s.BaseAggregateRoot)
	m.CashierID = s.CashierID
	m.SessionDate = s.SessionDate
	m.OpeningCash = s.OpeningCash
	m.CashSales = s.Totals.Cash
	m.CardSales = s.Totals.Card
	m.QRSales = s.Totals.QR
	m.CreditSales = s.Totals.Credit
	m.TotalOrders = s.TotalOrders
	m.Status = s.Status
	m.OpenedAt = s.OpenedAt
	m.ClosedAt = s.ClosedAt
	m.ClosingCash = s.ClosingCash
	m.ExpectedCash = s.ExpectedCash
	m.CashVariance = s.CashVariance
	m.VarianceLevel = s.VarianceLevel
	m.Notes = s.Notes
}

// CashierSessionModelFromDomain creates a new persistence model from a domain CashierSession.
func CashierSessionModelFromDomain(s *pos.CashierSession) *CashierSessionModel {
	m := &CashierSessionModel{}
	m.FromDomain(s)
	return m
}

// PaymentModel is the persistence model for an immutable Payment record.
type PaymentModel struct {
	ID         uuid.UUID           `gorm:"type:uuid;primary_key"`
	OrderID    uuid.UUID           `gorm:"type:uuid;not null;index"`
	SessionID  uuid.UUID           `gorm:"type:uuid;not null;index:idx_payment_session_method,priority:1"`
	Method     pos.PaymentMethod   `gorm:"type:varchar(20);not null;index:idx_payment_session_method,priority:2"`
	Amount     decimal.Decimal     `gorm:"type:decimal(18,4);not null"`
	Reference  string              `gorm:"type:varchar(100)"`
	ReceivedBy valueobject.Subject `gorm:"type:varchar(255);not null"`
	Notes      string              `gorm:"type:text"`
	CreatedAt  time.Time           `gorm:"not null"`
}

// TableName returns the table name for GORM
func (PaymentModel) TableName() string {
	return "payments"
}

// ToDomain converts the persistence model to a domain Payment.
func (m *PaymentModel) ToDomain() *pos.Payment {
	return &pos.Payment{
		ID:         m.ID,
		OrderID:    m.OrderID,
		SessionID:  m.SessionID,
		Method:     m.Method,
		Amount:     m.Amount,
		Reference:  m.Reference,
		ReceivedBy: m.ReceivedBy,
		Notes:      m.Notes,
		CreatedAt:  m.CreatedAt,
	}
}

// PaymentModelFromDomain creates a new persistence model from a domain Payment.
func PaymentModelFromDomain(p *pos.Payment) *PaymentModel {
	return &PaymentModel{
		ID:         p.ID,
		OrderID:    p.OrderID,
		SessionID:  p.SessionID,
		Method:     p.Method,
		Amount:     p.Amount,
		Reference:  p.Reference,
		ReceivedBy: p.ReceivedBy,
		Notes:      p.Notes,
		CreatedAt:  p.CreatedAt,
	}
}

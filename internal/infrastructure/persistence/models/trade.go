package models

import (
	"github.com/erp/restaurant/internal/domain/trade"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OrderModel is the persistence model for the settlement view of an order.
type OrderModel struct {
	AggregateModel
	OrderNumber   string              `gorm:"type:varchar(50);not null;uniqueIndex"`
	SessionID     *uuid.UUID          `gorm:"type:uuid;index"`
	CustomerID    *uuid.UUID          `gorm:"type:uuid;index"`
	GrandTotal    decimal.Decimal     `gorm:"type:decimal(18,4);not null"`
	PaymentStatus trade.PaymentStatus `gorm:"type:varchar(20);not null;default:'unpaid'"`
}

// TableName returns the table name for GORM
func (OrderModel) TableName() string {
	return "orders"
}

// ToDomain converts the persistence model to a domain Order.
func (m *OrderModel) ToDomain() *trade.Order {
	return &trade.Order{
		BaseAggregateRoot: m.ToAggregateRoot(),
		OrderNumber:       m.OrderNumber,
		SessionID:         m.SessionID,
		CustomerID:        m.CustomerID,
		GrandTotal:        m.GrandTotal,
		PaymentStatus:     m.PaymentStatus,
	}
}

// FromDomain populates the persistence model from a domain Order.
func (m *OrderModel) FromDomain(o *trade.Order) {
	m.FromDomainAggregateRoot(o.BaseAggregateRoot)
	m.OrderNumber = o.OrderNumber
	m.SessionID = o.SessionID
	m.CustomerID = o.CustomerID
	m.GrandTotal = o.GrandTotal
	m.PaymentStatus = o.PaymentStatus
}

// OrderModelFromDomain creates a new persistence model from a domain Order.
func OrderModelFromDomain(o *trade.Order) *OrderModel {
	m := &OrderModel{}
	m.FromDomain(o)
	return m
}

package models

import (
	"github.com/erp/restaurant/internal/domain/partner"
	"github.com/shopspring/decimal"
)

// CustomerModel is the persistence model for the Customer aggregate.
type CustomerModel struct {
	AggregateModel
	Code          string                 `gorm:"type:varchar(50);not null;uniqueIndex"`
	Name          string                 `gorm:"type:varchar(200);not null"`
	Phone         string                 `gorm:"type:varchar(50);index"`
	Status        partner.CustomerStatus `gorm:"type:varchar(20);not null;default:'active'"`
	CreditLimit   decimal.Decimal        `gorm:"type:decimal(18,4);not null;default:0"`
	CurrentCredit decimal.Decimal        `gorm:"type:decimal(18,4);not null;default:0;index"`
	Notes         string                 `gorm:"type:text"`
}

// TableName returns the table name for GORM
func (CustomerModel) TableName() string {
	return "customers"
}

// ToDomain converts the persistence model to a domain Customer.
func (m *CustomerModel) ToDomain() *partner.Customer {
	return &partner.Customer{
		BaseAggregateRoot: m.ToAggregateRoot(),
		Code:              m.Code,
		Name:              m.Name,
		Phone:             m.Phone,
		Status:            m.Status,
		CreditLimit:       m.CreditLimit,
		CurrentCredit:     m.CurrentCredit,
		Notes:             m.Notes,
	}
}

// FromDomain populates the persistence model from a domain Customer.
func (m *CustomerModel) FromDomain(c *partner.Customer) {
	m.FromDomainAggregateRoot(c.BaseAggregateRoot)
	m.Code = c.Code
	m.Name = c.Name
	m.Phone = c.Phone
	m.Status = c.Status
	m.CreditLimit = c.CreditLimit
	m.CurrentCredit = c.CurrentCredit
	m.Notes = c.Notes
}

// CustomerModelFromDomain creates a new persistence model from a domain Customer.
func CustomerModelFromDomain(c *partner.Customer) *CustomerModel {
	m := &CustomerModel{}
	m.FromDomain(c)
	return m
}

package partner

import (
	"regexp"
	"strings"
	"time"

	"github.com/erp/restaurant/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// CustomerStatus represents the status of a customer
type CustomerStatus string

const (
	CustomerStatusActive   CustomerStatus = "active"
	CustomerStatusInactive CustomerStatus = "inactive"
)

// Credit errors
var (
	ErrCreditExceeded = shared.NewDomainError(shared.CodeCreditExceeded, "Payment amount exceeds outstanding credit")
)

// Credit change reasons carried on CustomerCreditChangedEvent
const (
	CreditReasonCharge  = "charge"  // credit tender on an order
	CreditReasonPayoff  = "payoff"  // ledger-only repayment
	CreditReasonPayment = "payment" // repayment settled against a specific order
)

// Customer is a restaurant customer with a house account.
// CurrentCredit is the outstanding amount charged on credit and not yet repaid.
type Customer struct {
	shared.BaseAggregateRoot
	Code          string
	Name          string
	Phone         string
	Status        CustomerStatus
	CreditLimit   decimal.Decimal // informational, not enforced when charging
	CurrentCredit decimal.Decimal
	Notes         string
}

// NewCustomer creates a new customer with no outstanding credit
func NewCustomer(code, name string) (*Customer, error) {
	if err := validateCustomerCode(code); err != nil {
		return nil, err
	}
	if err := validateCustomerName(name); err != nil {
		return nil, err
	}

	return &Customer{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Code:              strings.ToUpper(code),
		Name:              name,
		Status:            CustomerStatusActive,
		CreditLimit:       decimal.Zero,
		CurrentCredit:     decimal.Zero,
	}, nil
}

// SetPhone sets the contact phone
func (c *Customer) SetPhone(phone string) error {
	if phone != "" {
		if err := validatePhone(phone); err != nil {
			return err
		}
	}
	c.Phone = phone
	c.UpdatedAt = time.Now()
	return nil
}

// SetCreditLimit sets the customer's credit ceiling
func (c *Customer) SetCreditLimit(limit decimal.Decimal) error {
	if limit.IsNegative() {
		return shared.NewDomainError(shared.CodeInvalidAmount, "Credit limit cannot be negative")
	}
	c.CreditLimit = limit
	c.UpdatedAt = time.Now()
	return nil
}

// ChargeCredit adds a credit-tender amount to the outstanding balance.
// The credit limit is not enforced here.
func (c *Customer) ChargeCredit(amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return shared.ErrInvalidAmount
	}

	old := c.CurrentCredit
	c.CurrentCredit = c.CurrentCredit.Add(amount)
	c.UpdatedAt = time.Now()

	c.AddDomainEvent(NewCustomerCreditChangedEvent(c, old, c.CurrentCredit, CreditReasonCharge))
	return nil
}

// RepayCredit reduces the outstanding balance. The balance never goes negative:
// an amount larger than CurrentCredit is rejected and nothing changes.
func (c *Customer) RepayCredit(amount decimal.Decimal, reason string) error {
	if !amount.IsPositive() {
		return shared.ErrInvalidAmount
	}
	if amount.GreaterThan(c.CurrentCredit) {
		return ErrCreditExceeded
	}

	old := c.CurrentCredit
	c.CurrentCredit = c.CurrentCredit.Sub(amount)
	c.UpdatedAt = time.Now()

	c.AddDomainEvent(NewCustomerCreditChangedEvent(c, old, c.CurrentCredit, reason))
	return nil
}

// HasCredit reports whether the customer owes anything
func (c *Customer) HasCredit() bool {
	return c.CurrentCredit.IsPositive()
}

// AvailableCredit returns the headroom below the credit limit, floored at zero
func (c *Customer) AvailableCredit() decimal.Decimal {
	available := c.CreditLimit.Sub(c.CurrentCredit)
	if available.IsNegative() {
		return decimal.Zero
	}
	return available
}

// IsOverLimit reports whether outstanding credit exceeds a configured limit
func (c *Customer) IsOverLimit() bool {
	return c.CreditLimit.IsPositive() && c.CurrentCredit.GreaterThan(c.CreditLimit)
}

// IsActive returns true if customer is active
func (c *Customer) IsActive() bool {
	return c.Status == CustomerStatusActive
}

// Validation functions

func validateCustomerCode(code string) error {
	if code == "" {
		return shared.NewDomainError("INVALID_CODE", "Customer code cannot be empty")
	}
	if len(code) > 50 {
		return shared.NewDomainError("INVALID_CODE", "Customer code cannot exceed 50 characters")
	}
	for _, r := range code {
		if !((r >= 'A' && r <= 'Z') || (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '_' || r == '-') {
			return shared.NewDomainError("INVALID_CODE", "Customer code can only contain letters, numbers, underscores, and hyphens")
		}
	}
	return nil
}

func validateCustomerName(name string) error {
	if name == "" {
		return shared.NewDomainError("INVALID_NAME", "Customer name cannot be empty")
	}
	if len(name) > 200 {
		return shared.NewDomainError("INVALID_NAME", "Customer name cannot exceed 200 characters")
	}
	return nil
}

var validPhone = regexp.MustCompile(`^[\d\s\-\(\)\+]+$`)

func validatePhone(phone string) error {
	if len(phone) > 50 {
		return shared.NewDomainError("INVALID_PHONE", "Phone number cannot exceed 50 characters")
	}
	if !validPhone.MatchString(phone) {
		return shared.NewDomainError("INVALID_PHONE", "Invalid phone number format")
	}
	return nil
}

package pos

import (
	"context"

	"github.com/erp/restaurant/internal/domain/partner"
	"github.com/erp/restaurant/internal/domain/pos"
	"github.com/erp/restaurant/internal/domain/trade"
)

// TransactionScope runs one settlement operation against a consistent set of repositories.
// The GORM implementation commits or rolls back all writes together. NoOpTransactionScope
// applies each write as it happens, so a failure part-way leaves earlier writes in place.
type TransactionScope interface {
	// Execute runs fn. If fn returns an error, a transactional scope rolls back.
	Execute(ctx context.Context, fn func(repos TransactionalRepositories) error) error
}

// TransactionalRepositories provides the repositories touched by settlement.
// All repositories returned share the scope's underlying connection or transaction.
type TransactionalRepositories interface {
	// SessionRepo returns the cashier session repository
	SessionRepo() pos.CashierSessionRepository
	// PaymentRepo returns the payment repository (append-only)
	PaymentRepo() pos.PaymentRepository
	// OrderRepo returns the order repository
	OrderRepo() trade.OrderRepository
	// CustomerRepo returns the customer repository
	CustomerRepo() partner.CustomerRepository
}

// Repositories bundles the settlement repositories outside of any transaction.
// Services use it for read-only projections.
type Repositories struct {
	Sessions  pos.CashierSessionRepository
	Payments  pos.PaymentRepository
	Orders    trade.OrderRepository
	Customers partner.CustomerRepository
}

// SessionRepo returns the cashier session repository.
func (r Repositories) SessionRepo() pos.CashierSessionRepository { return r.Sessions }

// PaymentRepo returns the payment repository.
func (r Repositories) PaymentRepo() pos.PaymentRepository { return r.Payments }

// OrderRepo returns the order repository.
func (r Repositories) OrderRepo() trade.OrderRepository { return r.Orders }

// CustomerRepo returns the customer repository.
func (r Repositories) CustomerRepo() partner.CustomerRepository { return r.Customers }

// NoOpTransactionScope runs operations without a transaction. Each repository call
// is applied independently and nothing is rolled back on failure, which reproduces
// the behaviour of a store with single-record atomicity only.
type NoOpTransactionScope struct {
	repos Repositories
}

// NewNoOpTransactionScope creates a NoOpTransactionScope with the given repositories.
func NewNoOpTransactionScope(repos Repositories) *NoOpTransactionScope {
	return &NoOpTransactionScope{repos: repos}
}

// Execute runs the function without a real transaction.
func (s *NoOpTransactionScope) Execute(_ context.Context, fn func(repos TransactionalRepositories) error) error {
	return fn(s.repos)
}

var _ TransactionScope = (*NoOpTransactionScope)(nil)
var _ TransactionalRepositories = Repositories{}

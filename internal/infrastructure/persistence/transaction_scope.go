package persistence

import (
	"context"

	apppos "github.com/erp/restaurant/internal/application/pos"
	"github.com/erp/restaurant/internal/domain/partner"
	"github.com/erp/restaurant/internal/domain/pos"
	"github.com/erp/restaurant/internal/domain/trade"
	"gorm.io/gorm"
)

// GormTransactionScope implements TransactionScope using GORM transactions.
// Every settlement operation commits or rolls back as a unit, and aggregate
// saves inside it use optimistic locking.
type GormTransactionScope struct {
	db *gorm.DB
}

// NewGormTransactionScope creates a new GormTransactionScope.
func NewGormTransactionScope(db *gorm.DB) *GormTransactionScope {
	return &GormTransactionScope{db: db}
}

// Execute runs fn within a database transaction, rolling back if it returns an error.
func (s *GormTransactionScope) Execute(ctx context.Context, fn func(repos apppos.TransactionalRepositories) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&gormTransactionalRepositories{tx: tx})
	})
}

// gormTransactionalRepositories provides access to all repositories within a transaction.
type gormTransactionalRepositories struct {
	tx *gorm.DB
}

func (r *gormTransactionalRepositories) SessionRepo() pos.CashierSessionRepository {
	return NewGormCashierSessionRepository(r.tx).WithOptimisticLock()
}

func (r *gormTransactionalRepositories) PaymentRepo() pos.PaymentRepository {
	return NewGormPaymentRepository(r.tx)
}

func (r *gormTransactionalRepositories) OrderRepo() trade.OrderRepository {
	return NewGormOrderRepository(r.tx).WithOptimisticLock()
}

func (r *gormTransactionalRepositories) CustomerRepo() partner.CustomerRepository {
	return NewGormCustomerRepository(r.tx).WithOptimisticLock()
}

// NewRepositories returns the non-transactional repository set. Saves through
// it are last-write-wins.
func NewRepositories(db *gorm.DB) apppos.Repositories {
	return apppos.Repositories{
		Sessions:  NewGormCashierSessionRepository(db),
		Payments:  NewGormPaymentRepository(db),
		Orders:    NewGormOrderRepository(db),
		Customers: NewGormCustomerRepository(db),
	}
}

// NewTransactionScope picks the GORM transaction scope when atomic is set,
// and otherwise a scope that applies each write on its own.
func NewTransactionScope(db *gorm.DB, atomic bool) apppos.TransactionScope {
	if atomic {
		return NewGormTransactionScope(db)
	}
	return apppos.NewNoOpTransactionScope(NewRepositories(db))
}

var _ apppos.TransactionScope = (*GormTransactionScope)(nil)
var _ apppos.TransactionalRepositories = (*gormTransactionalRepositories)(nil)

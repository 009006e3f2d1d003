package persistence

import (
	"context"
	"errors"

	"github.com/erp/restaurant/internal/domain/partner"
	"github.com/erp/restaurant/internal/domain/shared"
	"github.com/erp/restaurant/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormCustomerRepository implements CustomerRepository using GORM
type GormCustomerRepository struct {
	db             *gorm.DB
	optimisticLock bool
}

// NewGormCustomerRepository creates a new GormCustomerRepository
func NewGormCustomerRepository(db *gorm.DB) *GormCustomerRepository {
	return &GormCustomerRepository{db: db}
}

// WithOptimisticLock returns a copy whose Save rejects stale versions
func (r *GormCustomerRepository) WithOptimisticLock() *GormCustomerRepository {
	return &GormCustomerRepository{db: r.db, optimisticLock: true}
}

// FindByID finds a customer by its ID
func (r *GormCustomerRepository) FindByID(ctx context.Context, id uuid.UUID) (*partner.Customer, error) {
	var model models.CustomerModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindWithCredit lists customers with an outstanding balance, largest first
func (r *GormCustomerRepository) FindWithCredit(ctx context.Context, filter shared.Filter) ([]partner.Customer, int64, error) {
	var total int64
	if err := r.withCredit(ctx).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var customerModels []models.CustomerModel
	if err := r.withCredit(ctx).
		Order("current_credit DESC").
		Order("code ASC").
		Offset(filter.Offset()).
		Limit(filter.Limit()).
		Find(&customerModels).Error; err != nil {
		return nil, 0, err
	}

	customers := make([]partner.Customer, len(customerModels))
	for i := range customerModels {
		customers[i] = *customerModels[i].ToDomain()
	}
	return customers, total, nil
}

func (r *GormCustomerRepository) withCredit(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).Model(&models.CustomerModel{}).Where("current_credit > 0")
}

// Create inserts a new customer
func (r *GormCustomerRepository) Create(ctx context.Context, customer *partner.Customer) error {
	return r.db.WithContext(ctx).Create(models.CustomerModelFromDomain(customer)).Error
}

// Save persists the customer's mutable fields
func (r *GormCustomerRepository) Save(ctx context.Context, customer *partner.Customer) error {
	return saveVersioned(ctx, r.db, models.CustomerModelFromDomain(customer), &customer.BaseAggregateRoot, r.optimisticLock)
}

var _ partner.CustomerRepository = (*GormCustomerRepository)(nil)

package persistence

import (
	"context"
	"errors"

	"github.com/erp/restaurant/internal/domain/shared"
	"github.com/erp/restaurant/internal/domain/trade"
	"github.com/erp/restaurant/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormOrderRepository implements OrderRepository using GORM
type GormOrderRepository struct {
	db             *gorm.DB
	optimisticLock bool
}

// NewGormOrderRepository creates a new GormOrderRepository
func NewGormOrderRepository(db *gorm.DB) *GormOrderRepository {
	return &GormOrderRepository{db: db}
}

// WithOptimisticLock returns a copy whose Save rejects stale versions
func (r *GormOrderRepository) WithOptimisticLock() *GormOrderRepository {
	return &GormOrderRepository{db: r.db, optimisticLock: true}
}

// FindByID finds an order by its ID
func (r *GormOrderRepository) FindByID(ctx context.Context, id uuid.UUID) (*trade.Order, error) {
	var model models.OrderModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindBySession returns the orders rung up in a session
func (r *GormOrderRepository) FindBySession(ctx context.Context, sessionID uuid.UUID) ([]trade.Order, error) {
	var orderModels []models.OrderModel
	if err := r.db.WithContext(ctx).
		Where("session_id = ?", sessionID).
		Order("created_at ASC").
		Find(&orderModels).Error; err != nil {
		return nil, err
	}

	orders := make([]trade.Order, len(orderModels))
	for i := range orderModels {
		orders[i] = *orderModels[i].ToDomain()
	}
	return orders, nil
}

// Create inserts a new order
func (r *GormOrderRepository) Create(ctx context.Context, order *trade.Order) error {
	return r.db.WithContext(ctx).Create(models.OrderModelFromDomain(order)).Error
}

// Save persists the order's mutable fields
func (r *GormOrderRepository) Save(ctx context.Context, order *trade.Order) error {
	return saveVersioned(ctx, r.db, models.OrderModelFromDomain(order), &order.BaseAggregateRoot, r.optimisticLock)
}

var _ trade.OrderRepository = (*GormOrderRepository)(nil)

package persistence

import (
	"context"

	"github.com/erp/restaurant/internal/domain/pos"
	"github.com/erp/restaurant/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// GormPaymentRepository implements PaymentRepository using GORM.
// Payments are append-only.
type GormPaymentRepository struct {
	db *gorm.DB
}

// NewGormPaymentRepository creates a new GormPaymentRepository
func NewGormPaymentRepository(db *gorm.DB) *GormPaymentRepository {
	return &GormPaymentRepository{db: db}
}

// Create inserts a payment
func (r *GormPaymentRepository) Create(ctx context.Context, payment *pos.Payment) error {
	return r.db.WithContext(ctx).Create(models.PaymentModelFromDomain(payment)).Error
}

// FindByOrder returns an order's payments, oldest first
func (r *GormPaymentRepository) FindByOrder(ctx context.Context, orderID uuid.UUID) ([]pos.Payment, error) {
	return r.find(ctx, "order_id = ?", orderID)
}

// FindBySession returns a session's payments, oldest first
func (r *GormPaymentRepository) FindBySession(ctx context.Context, sessionID uuid.UUID) ([]pos.Payment, error) {
	return r.find(ctx, "session_id = ?", sessionID)
}

func (r *GormPaymentRepository) find(ctx context.Context, where string, arg any) ([]pos.Payment, error) {
	var paymentModels []models.PaymentModel
	if err := r.db.WithContext(ctx).
		Where(where, arg).
		Order("created_at ASC").
		Find(&paymentModels).Error; err != nil {
		return nil, err
	}

	payments := make([]pos.Payment, len(paymentModels))
	for i := range paymentModels {
		payments[i] = *paymentModels[i].ToDomain()
	}
	return payments, nil
}

// SumBySessionAndMethod sums a session's payments of one tender
func (r *GormPaymentRepository) SumBySessionAndMethod(ctx context.Context, sessionID uuid.UUID, method pos.PaymentMethod) (decimal.Decimal, error) {
	var sum decimal.NullDecimal
	row := r.db.WithContext(ctx).
		Model(&models.PaymentModel{}).
		Select("SUM(amount)").
		Where("session_id = ? AND method = ?", sessionID, method).
		Row()
	if err := row.Scan(&sum); err != nil {
		return decimal.Zero, err
	}
	if !sum.Valid {
		return decimal.Zero, nil
	}
	return sum.Decimal, nil
}

var _ pos.PaymentRepository = (*GormPaymentRepository)(nil)

package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/erp/restaurant/internal/domain/pos"
	"github.com/erp/restaurant/internal/domain/shared"
	"github.com/erp/restaurant/internal/domain/shared/valueobject"
	"github.com/erp/restaurant/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormCashierSessionRepository implements CashierSessionRepository using GORM
type GormCashierSessionRepository struct {
	db             *gorm.DB
	optimisticLock bool
}

// NewGormCashierSessionRepository creates a new GormCashierSessionRepository
func NewGormCashierSessionRepository(db *gorm.DB) *GormCashierSessionRepository {
	return &GormCashierSessionRepository{db: db}
}

// WithOptimisticLock returns a copy whose Save rejects stale versions
func (r *GormCashierSessionRepository) WithOptimisticLock() *GormCashierSessionRepository {
	return &GormCashierSessionRepository{db: r.db, optimisticLock: true}
}

// FindByID finds a session by its ID
func (r *GormCashierSessionRepository) FindByID(ctx context.Context, id uuid.UUID) (*pos.CashierSession, error) {
	var model models.CashierSessionModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindOpenByCashier returns the cashier's open session
func (r *GormCashierSessionRepository) FindOpenByCashier(ctx context.Context, cashierID valueobject.Subject) (*pos.CashierSession, error) {
	var model models.CashierSessionModel
	if err := r.db.WithContext(ctx).
		Where("cashier_id = ? AND status = ?", cashierID.String(), pos.SessionStatusOpen).
		Order("opened_at DESC").
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindLatestByCashierAndDate returns the cashier's most recently opened session on a business day
func (r *GormCashierSessionRepository) FindLatestByCashierAndDate(ctx context.Context, cashierID valueobject.Subject, sessionDate time.Time) (*pos.CashierSession, error) {
	var model models.CashierSessionModel
	if err := r.db.WithContext(ctx).
		Where("cashier_id = ? AND session_date = ?", cashierID.String(), sessionDate).
		Order("opened_at DESC").
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindHistory lists sessions newest first together with the unpaged count
func (r *GormCashierSessionRepository) FindHistory(ctx context.Context, filter pos.SessionHistoryFilter) ([]pos.CashierSession, int64, error) {
	var total int64
	if err := r.historyQuery(ctx, filter).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var sessionModels []models.CashierSessionModel
	if err := r.historyQuery(ctx, filter).
		Order("opened_at DESC").
		Offset(filter.Offset()).
		Limit(filter.Limit()).
		Find(&sessionModels).Error; err != nil {
		return nil, 0, err
	}

	sessions := make([]pos.CashierSession, len(sessionModels))
	for i := range sessionModels {
		sessions[i] = *sessionModels[i].ToDomain()
	}
	return sessions, total, nil
}

// historyQuery applies the history filter without ordering or pagination
func (r *GormCashierSessionRepository) historyQuery(ctx context.Context, filter pos.SessionHistoryFilter) *gorm.DB {
	query := r.db.WithContext(ctx).Model(&models.CashierSessionModel{})
	if filter.CashierID != nil {
		query = query.Where("cashier_id = ?", filter.CashierID.String())
	}
	if filter.Status != nil {
		query = query.Where("status = ?", string(*filter.Status))
	}
	if filter.From != nil {
		query = query.Where("session_date >= ?", *filter.From)
	}
	if filter.To != nil {
		query = query.Where("session_date <= ?", *filter.To)
	}
	return query
}

// Create inserts a new session. A second open session for the same cashier
// violates the partial unique index and is reported as ErrOpenSessionExists.
func (r *GormCashierSessionRepository) Create(ctx context.Context, session *pos.CashierSession) error {
	model := models.CashierSessionModelFromDomain(session)
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return pos.ErrOpenSessionExists
		}
		return err
	}
	return nil
}

// Save persists the session's mutable fields
func (r *GormCashierSessionRepository) Save(ctx context.Context, session *pos.CashierSession) error {
	model := models.CashierSessionModelFromDomain(session)
	if err := saveVersioned(ctx, r.db, model, &session.BaseAggregateRoot, r.optimisticLock); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return pos.ErrOpenSessionExists
		}
		return err
	}
	return nil
}

var _ pos.CashierSessionRepository = (*GormCashierSessionRepository)(nil)

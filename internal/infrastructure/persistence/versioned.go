package persistence

import (
	"context"
	"time"

	"github.com/erp/restaurant/internal/domain/shared"
	"gorm.io/gorm"
)

// saveVersioned writes every column of model for the aggregate's row and bumps
// its version. With optimistic locking the update only matches the version that
// was read, and a miss is reported as shared.ErrConcurrencyConflict.
func saveVersioned(ctx context.Context, db *gorm.DB, model any, agg *shared.BaseAggregateRoot, locked bool) error {
	now := time.Now()
	next := agg.Version + 1

	query := db.WithContext(ctx).Model(model)
	if locked {
		query = query.Where("version = ?", agg.Version)
	}

	setVersion(model, next, now)
	result := query.Select("*").Omit("id", "created_at").Updates(model)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		if locked {
			return shared.ErrConcurrencyConflict
		}
		return shared.ErrNotFound
	}

	agg.Version = next
	agg.UpdatedAt = now
	return nil
}

// versionedModel is satisfied by models embedding models.AggregateModel.
type versionedModel interface {
	SetVersion(version int, updatedAt time.Time)
}

func setVersion(model any, version int, updatedAt time.Time) {
	if m, ok := model.(versionedModel); ok {
		m.SetVersion(version, updatedAt)
	}
}

package partner

import (
	"context"

	"github.com/erp/restaurant/internal/domain/shared"
	"github.com/google/uuid"
)

// CustomerRepository defines the persistence operations on customers used by settlement
type CustomerRepository interface {
	// FindByID finds a customer by ID, returning shared.ErrNotFound if absent
	FindByID(ctx context.Context, id uuid.UUID) (*Customer, error)

	// FindWithCredit lists customers with outstanding credit, largest balance first
	FindWithCredit(ctx context.Context, filter shared.Filter) ([]Customer, int64, error)

	// Create inserts a new customer
	Create(ctx context.Context, customer *Customer) error

	// Save persists the customer's mutable fields
	Save(ctx context.Context, customer *Customer) error
}

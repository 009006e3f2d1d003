package trade

import (
	"context"

	"github.com/google/uuid"
)

// OrderRepository defines the persistence operations settlement needs on orders
type OrderRepository interface {
	// FindByID finds an order by ID, returning shared.ErrNotFound if absent
	FindByID(ctx context.Context, id uuid.UUID) (*Order, error)

	// FindBySession returns the orders rung up in a cashier session
	FindBySession(ctx context.Context, sessionID uuid.UUID) ([]Order, error)

	// Create inserts a new order
	Create(ctx context.Context, order *Order) error

	// Save persists the order's mutable fields
	Save(ctx context.Context, order *Order) error
}

package shared

import (
	"time"

	"github.com/google/uuid"
)

// BaseEntity carries the identity and timestamps shared by every stored record.
type BaseEntity struct {
	ID        uuid.UUID
	CreatedAt time.Time
	UpdatedAt time.Time
}

// AggregateRoot is implemented by aggregates that record domain events while
// a settlement operation mutates them.
type AggregateRoot interface {
	AddDomainEvent(event DomainEvent)
	GetDomainEvents() []DomainEvent
	ClearDomainEvents()
	PullDomainEvents() []DomainEvent
}

// BaseAggregateRoot is embedded by Order, CashierSession and Customer.
// Version is the optimistic lock checked by the atomic repositories; it starts
// at 1 and is bumped by every successful save.
type BaseAggregateRoot struct {
	BaseEntity
	Version int

	events []DomainEvent
}

// NewBaseAggregateRoot stamps a fresh ID and creation time
func NewBaseAggregateRoot() BaseAggregateRoot {
	now := time.Now()
	return BaseAggregateRoot{
		BaseEntity: BaseEntity{ID: uuid.New(), CreatedAt: now, UpdatedAt: now},
		Version:    1,
	}
}

// AddDomainEvent records an event to publish once the operation commits
func (a *BaseAggregateRoot) AddDomainEvent(event DomainEvent) {
	a.events = append(a.events, event)
}

// GetDomainEvents returns the recorded events
func (a *BaseAggregateRoot) GetDomainEvents() []DomainEvent {
	return a.events
}

// ClearDomainEvents drops the recorded events
func (a *BaseAggregateRoot) ClearDomainEvents() {
	a.events = nil
}

// PullDomainEvents returns the recorded events and clears them
func (a *BaseAggregateRoot) PullDomainEvents() []DomainEvent {
	events := a.events
	a.events = nil
	return events
}

package ordering

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/markethub/backend/internal/domain/shared"
)

// OrderRepository defines the interface for order persistence
type OrderRepository interface {
	// FindByID finds an order (with sub-orders and items) by ID
	FindByID(ctx context.Context, id uuid.UUID) (*Order, error)

	// FindByIDForUpdate finds an order by ID taking a row lock, serializing
	// concurrent refund/fulfillment requests against the same order
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*Order, error)

	// FindByOrderNumber finds an order by its order number
	FindByOrderNumber(ctx context.Context, orderNumber string) (*Order, error)

	// FindBySubOrderID finds the order owning the given sub-order
	FindBySubOrderID(ctx context.Context, subOrderID uuid.UUID) (*Order, error)

	// FindBySubOrderIDForUpdate is FindBySubOrderID with a row lock on the order
	FindBySubOrderIDForUpdate(ctx context.Context, subOrderID uuid.UUID) (*Order, error)

	// FindPlacedInPeriod finds orders placed within [from, to) that contain a
	// sub-order for the given store. Placement date, not delivery date,
	// defines period membership.
	FindPlacedInPeriod(ctx context.Context, storeID uuid.UUID, from, to time.Time) ([]Order, error)

	// FindAll lists orders with filtering
	FindAll(ctx context.Context, filter shared.Filter) ([]Order, error)

	// Save creates or updates an order with its sub-orders and items
	Save(ctx context.Context, order *Order) error

	// SaveWithLock saves with optimistic locking (version check)
	SaveWithLock(ctx context.Context, order *Order) error

	// Count counts orders matching the filter
	Count(ctx context.Context, filter shared.Filter) (int64, error)

	// NextOrderNumber allocates the next order number
	NextOrderNumber(ctx context.Context) (string, error)
}

// StatusHistoryRepository persists immutable transition records
type StatusHistoryRepository interface {
	// Save appends history records; existing records are never updated
	Save(ctx context.Context, records ...*StatusHistory) error

	// FindBySubOrder returns the transition history of a sub-order, oldest first
	FindBySubOrder(ctx context.Context, subOrderID uuid.UUID) ([]StatusHistory, error)

	// FindByOrder returns the transition history of all sub-orders of an order
	FindByOrder(ctx context.Context, orderID uuid.UUID) ([]StatusHistory, error)
}

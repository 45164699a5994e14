package ordering

import (
	"time"

	"github.com/google/uuid"

	"github.com/markethub/backend/internal/domain/shared"
)

// StatusHistory is the immutable audit record of one sub-order transition.
// Records are created, never mutated or deleted.
type StatusHistory struct {
	ID             uuid.UUID
	OrderID        uuid.UUID
	SubOrderID     uuid.UUID
	PreviousStatus SubOrderStatus
	NewStatus      SubOrderStatus
	Notes          string
	Actor          string
	CreatedAt      time.Time
}

// NewStatusHistory creates a history record for an effective transition
func NewStatusHistory(orderID uuid.UUID, change StatusChange, notes, actor string) (*StatusHistory, error) {
	if orderID == uuid.Nil {
		return nil, shared.NewValidationError("INVALID_ORDER", "Order ID cannot be empty")
	}
	if change.SubOrderID == uuid.Nil {
		return nil, shared.NewValidationError("INVALID_SUBORDER", "Sub-order ID cannot be empty")
	}
	if !change.PreviousStatus.IsValid() || !change.NewStatus.IsValid() {
		return nil, shared.NewValidationError("INVALID_STATUS", "History statuses must be valid")
	}

	return &StatusHistory{
		ID:             uuid.New(),
		OrderID:        orderID,
		SubOrderID:     change.SubOrderID,
		PreviousStatus: change.PreviousStatus,
		NewStatus:      change.NewStatus,
		Notes:          notes,
		Actor:          actor,
		CreatedAt:      time.Now(),
	}, nil
}

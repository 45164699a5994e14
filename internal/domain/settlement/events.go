package settlement

import (
	"github.com/markethub/backend/internal/domain/shared"
)

const (
	EventTypeSettlementGenerated = "settlement.generated"
	EventTypeSettlementFinalized = "settlement.finalized"
)

// SettlementGeneratedEvent is raised when a settlement version is created
type SettlementGeneratedEvent struct {
	shared.BaseDomainEvent
	Settlement *Settlement
}

// NewSettlementGeneratedEvent creates a new SettlementGeneratedEvent
func NewSettlementGeneratedEvent(s *Settlement) *SettlementGeneratedEvent {
	return &SettlementGeneratedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeSettlementGenerated, "Settlement", s.ID),
		Settlement:      s,
	}
}

// SettlementFinalizedEvent is raised when a settlement is frozen
type SettlementFinalizedEvent struct {
	shared.BaseDomainEvent
	Settlement *Settlement
}

// NewSettlementFinalizedEvent creates a new SettlementFinalizedEvent
func NewSettlementFinalizedEvent(s *Settlement) *SettlementFinalizedEvent {
	return &SettlementFinalizedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeSettlementFinalized, "Settlement", s.ID),
		Settlement:      s,
	}
}

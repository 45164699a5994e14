package payment

import (
	"github.com/shopspring/decimal"

	"github.com/markethub/backend/internal/domain/shared"
)

const (
	EventTypeEscrowOpened    = "payment.escrow_opened"
	EventTypeEscrowRefunded  = "payment.escrow_refunded"
	EventTypeRefundInitiated = "payment.refund_initiated"
	EventTypeRefundCompleted = "payment.refund_completed"
	EventTypeRefundFailed    = "payment.refund_failed"
)

// EscrowOpenedEvent is raised when money is captured into escrow for a sub-order
type EscrowOpenedEvent struct {
	shared.BaseDomainEvent
	Escrow *EscrowTransaction
}

// NewEscrowOpenedEvent creates a new EscrowOpenedEvent
func NewEscrowOpenedEvent(e *EscrowTransaction) *EscrowOpenedEvent {
	return &EscrowOpenedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeEscrowOpened, "EscrowTransaction", e.ID),
		Escrow:          e,
	}
}

// EscrowRefundedEvent is raised when a refund is accrued against an escrow
type EscrowRefundedEvent struct {
	shared.BaseDomainEvent
	Escrow               *EscrowTransaction
	RefundAmount         decimal.Decimal
	CommissionAdjustment decimal.Decimal
}

// NewEscrowRefundedEvent creates a new EscrowRefundedEvent
func NewEscrowRefundedEvent(e *EscrowTransaction, refundAmount, commissionAdjustment decimal.Decimal) *EscrowRefundedEvent {
	return &EscrowRefundedEvent{
		BaseDomainEvent:      shared.NewBaseDomainEvent(EventTypeEscrowRefunded, "EscrowTransaction", e.ID),
		Escrow:               e,
		RefundAmount:         refundAmount,
		CommissionAdjustment: commissionAdjustment,
	}
}

// RefundInitiatedEvent is raised when a refund transaction is created
type RefundInitiatedEvent struct {
	shared.BaseDomainEvent
	Refund *RefundTransaction
}

// NewRefundInitiatedEvent creates a new RefundInitiatedEvent
func NewRefundInitiatedEvent(r *RefundTransaction) *RefundInitiatedEvent {
	return &RefundInitiatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeRefundInitiated, "RefundTransaction", r.ID),
		Refund:          r,
	}
}

// RefundCompletedEvent is raised when a refund finishes end to end
type RefundCompletedEvent struct {
	shared.BaseDomainEvent
	Refund *RefundTransaction
}

// NewRefundCompletedEvent creates a new RefundCompletedEvent
func NewRefundCompletedEvent(r *RefundTransaction) *RefundCompletedEvent {
	return &RefundCompletedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeRefundCompleted, "RefundTransaction", r.ID),
		Refund:          r,
	}
}

// RefundFailedEvent is raised when the provider rejects a refund attempt
type RefundFailedEvent struct {
	shared.BaseDomainEvent
	Refund *RefundTransaction
}

// NewRefundFailedEvent creates a new RefundFailedEvent
func NewRefundFailedEvent(r *RefundTransaction) *RefundFailedEvent {
	return &RefundFailedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeRefundFailed, "RefundTransaction", r.ID),
		Refund:          r,
	}
}

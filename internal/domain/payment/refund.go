package payment

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/markethub/backend/internal/domain/shared"
)

// RefundStatus represents the lifecycle state of a refund transaction
type RefundStatus string

const (
	RefundStatusPending   RefundStatus = "PENDING"
	RefundStatusCompleted RefundStatus = "COMPLETED"
	RefundStatusFailed    RefundStatus = "FAILED"
)

// IsValid checks if the status is a valid RefundStatus
func (s RefundStatus) IsValid() bool {
	switch s {
	case RefundStatusPending, RefundStatusCompleted, RefundStatusFailed:
		return true
	}
	return false
}

// String returns the string representation of RefundStatus
func (s RefundStatus) String() string {
	return string(s)
}

// RefundInitiator identifies who started the refund
type RefundInitiator string

const (
	RefundInitiatorBuyer    RefundInitiator = "BUYER"
	RefundInitiatorSeller   RefundInitiator = "SELLER"
	RefundInitiatorOperator RefundInitiator = "OPERATOR"
	RefundInitiatorSystem   RefundInitiator = "SYSTEM"
)

// IsValid checks if the initiator is a valid RefundInitiator
func (i RefundInitiator) IsValid() bool {
	switch i {
	case RefundInitiatorBuyer, RefundInitiatorSeller, RefundInitiatorOperator, RefundInitiatorSystem:
		return true
	}
	return false
}

// String returns the string representation of RefundInitiator
func (i RefundInitiator) String() string {
	return string(i)
}

// RefundTransaction tracks one refund attempt against a sub-order's escrow.
// The provider call and the local money mutations commit separately, so the
// record carries two flags: ProviderSucceeded (the provider accepted the
// refund) and FundsReversed (local balances were updated). Completed requires
// both.
type RefundTransaction struct {
	shared.BaseAggregateRoot
	RefundNumber      string
	OrderID           uuid.UUID
	SubOrderID        uuid.UUID
	StoreID           uuid.UUID
	ReturnRequestID   *uuid.UUID
	Amount            decimal.Decimal
	Status            RefundStatus
	Initiator         RefundInitiator
	Reason            string
	ProviderRefundID  string
	FailureMessage    string
	ProviderSucceeded bool
	FundsReversed     bool
	AttemptCount      int
	CompletedAt       *time.Time
}

// NewRefundTransaction creates a pending refund for part or all of a
// sub-order's escrowed amount
func NewRefundTransaction(refundNumber string, orderID, subOrderID, storeID uuid.UUID, amount decimal.Decimal, initiator RefundInitiator, reason string, returnRequestID *uuid.UUID) (*RefundTransaction, error) {
	if refundNumber == "" {
		return nil, shared.NewValidationError("INVALID_REFUND_NUMBER", "Refund number cannot be empty")
	}
	if orderID == uuid.Nil || subOrderID == uuid.Nil {
		return nil, shared.NewValidationError("INVALID_ORDER", "Order and sub-order IDs cannot be empty")
	}
	if storeID == uuid.Nil {
		return nil, shared.NewValidationError("INVALID_STORE", "Store ID cannot be empty")
	}
	if !amount.IsPositive() {
		return nil, shared.NewValidationError("INVALID_AMOUNT", "Refund amount must be positive")
	}
	if !initiator.IsValid() {
		return nil, shared.NewValidationError("INVALID_INITIATOR", "Invalid refund initiator")
	}

	r := &RefundTransaction{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		RefundNumber:      refundNumber,
		OrderID:           orderID,
		SubOrderID:        subOrderID,
		StoreID:           storeID,
		ReturnRequestID:   returnRequestID,
		Amount:            amount,
		Status:            RefundStatusPending,
		Initiator:         initiator,
		Reason:            reason,
		AttemptCount:      1,
	}
	r.AddDomainEvent(NewRefundInitiatedEvent(r))
	return r, nil
}

// MarkProviderSucceeded records that the payment provider accepted the refund
func (r *RefundTransaction) MarkProviderSucceeded(providerRefundID string) error {
	if r.Status != RefundStatusPending {
		return shared.NewConflictError("INVALID_REFUND_STATE",
			fmt.Sprintf("Cannot record provider result in status %s", r.Status))
	}
	r.ProviderSucceeded = true
	r.ProviderRefundID = providerRefundID
	return nil
}

// MarkFundsReversed records that the local escrow and order balances were
// updated for this refund
func (r *RefundTransaction) MarkFundsReversed() error {
	if r.Status != RefundStatusPending {
		return shared.NewConflictError("INVALID_REFUND_STATE",
			fmt.Sprintf("Cannot reverse funds in status %s", r.Status))
	}
	if !r.ProviderSucceeded {
		return shared.NewConflictError("PROVIDER_NOT_CONFIRMED",
			"Funds cannot be reversed before the provider confirms the refund")
	}
	r.FundsReversed = true
	return nil
}

// Complete finishes the refund once both the provider call and the local
// reversal have happened
func (r *RefundTransaction) Complete() error {
	if r.Status == RefundStatusCompleted {
		return nil
	}
	if r.Status != RefundStatusPending {
		return shared.NewConflictError("INVALID_REFUND_STATE",
			fmt.Sprintf("Cannot complete refund in status %s", r.Status))
	}
	if !r.ProviderSucceeded || !r.FundsReversed {
		return shared.NewConflictError("REFUND_INCOMPLETE",
			"Refund requires both provider confirmation and funds reversal")
	}
	now := time.Now()
	r.Status = RefundStatusCompleted
	r.CompletedAt = &now
	r.AddDomainEvent(NewRefundCompletedEvent(r))
	return nil
}

// Fail marks the refund as failed with the provider's error message. Failed
// refunds can be retried.
func (r *RefundTransaction) Fail(message string) error {
	if r.Status != RefundStatusPending {
		return shared.NewConflictError("INVALID_REFUND_STATE",
			fmt.Sprintf("Cannot fail refund in status %s", r.Status))
	}
	r.Status = RefundStatusFailed
	r.FailureMessage = message
	r.AddDomainEvent(NewRefundFailedEvent(r))
	return nil
}

// CanRetry reports whether the refund is in a retryable state
func (r *RefundTransaction) CanRetry() bool {
	return r.Status == RefundStatusFailed
}

// BeginRetry moves a failed refund back to pending for another provider
// attempt. The refund number is reused as the idempotency key, so a provider
// that already processed the first attempt treats the retry as a replay.
func (r *RefundTransaction) BeginRetry() error {
	if !r.CanRetry() {
		return shared.NewConflictError("INVALID_REFUND_STATE",
			fmt.Sprintf("Cannot retry refund in status %s", r.Status))
	}
	r.Status = RefundStatusPending
	r.FailureMessage = ""
	r.AttemptCount++
	return nil
}

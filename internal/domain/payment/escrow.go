package payment

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/markethub/backend/internal/domain/shared"
)

// EscrowTransaction holds the money captured for one sub-order until it is
// settled to the store. Gross, refunds and commission all accrue here; the
// net amount is always gross - refunded - commission.
type EscrowTransaction struct {
	shared.StoreAggregateRoot
	OrderID          uuid.UUID
	SubOrderID       uuid.UUID
	TransactionRef   string
	GrossAmount      decimal.Decimal
	RefundedAmount   decimal.Decimal
	CommissionAmount decimal.Decimal
	NetAmount        decimal.Decimal
}

// NewEscrowTransaction opens an escrow transaction for a paid sub-order.
// TransactionRef is the payment provider's capture reference; refunds are
// issued against it.
func NewEscrowTransaction(storeID, orderID, subOrderID uuid.UUID, transactionRef string, gross decimal.Decimal) (*EscrowTransaction, error) {
	if storeID == uuid.Nil {
		return nil, shared.NewValidationError("INVALID_STORE", "Store ID cannot be empty")
	}
	if orderID == uuid.Nil {
		return nil, shared.NewValidationError("INVALID_ORDER", "Order ID cannot be empty")
	}
	if subOrderID == uuid.Nil {
		return nil, shared.NewValidationError("INVALID_SUBORDER", "Sub-order ID cannot be empty")
	}
	if transactionRef == "" {
		return nil, shared.NewValidationError("INVALID_TRANSACTION_REF", "Transaction reference cannot be empty")
	}
	if !gross.IsPositive() {
		return nil, shared.NewValidationError("INVALID_AMOUNT", "Gross amount must be positive")
	}

	e := &EscrowTransaction{
		StoreAggregateRoot: shared.NewStoreAggregateRoot(storeID),
		OrderID:            orderID,
		SubOrderID:         subOrderID,
		TransactionRef:     transactionRef,
		GrossAmount:        gross,
		RefundedAmount:     decimal.Zero,
		CommissionAmount:   decimal.Zero,
		NetAmount:          gross,
	}
	e.AddDomainEvent(NewEscrowOpenedEvent(e))
	return e, nil
}

// ApplyCommission records the commission charged against this escrow and
// recomputes the net amount. The amount is the running total, not a delta.
func (e *EscrowTransaction) ApplyCommission(amount decimal.Decimal) error {
	if amount.IsNegative() {
		return shared.NewValidationError("INVALID_AMOUNT", "Commission amount cannot be negative")
	}
	e.CommissionAmount = amount
	e.recalculateNet()
	return nil
}

// ApplyRefund accrues a refund against the escrow together with the
// commission adjustment that accompanies it. commissionAdjustment is the
// (negative or zero) delta from the reversal.
func (e *EscrowTransaction) ApplyRefund(refundAmount, commissionAdjustment decimal.Decimal) error {
	if !refundAmount.IsPositive() {
		return shared.NewValidationError("INVALID_AMOUNT", "Refund amount must be positive")
	}
	if commissionAdjustment.IsPositive() {
		return shared.NewValidationError("INVALID_ADJUSTMENT", "Commission adjustment must not be positive")
	}
	newRefunded := e.RefundedAmount.Add(refundAmount)
	if newRefunded.GreaterThan(e.GrossAmount) {
		return shared.NewConflictError("REFUND_EXCEEDS_GROSS",
			"Cumulative refunds cannot exceed the escrowed gross amount")
	}

	e.RefundedAmount = newRefunded
	e.CommissionAmount = e.CommissionAmount.Add(commissionAdjustment)
	if e.CommissionAmount.IsNegative() {
		e.CommissionAmount = decimal.Zero
	}
	e.recalculateNet()
	e.AddDomainEvent(NewEscrowRefundedEvent(e, refundAmount, commissionAdjustment))
	return nil
}

// RemainingRefundable returns the portion of the gross amount not yet refunded
func (e *EscrowTransaction) RemainingRefundable() decimal.Decimal {
	return e.GrossAmount.Sub(e.RefundedAmount)
}

// IsFullyRefunded reports whether refunds have consumed the entire gross amount
func (e *EscrowTransaction) IsFullyRefunded() bool {
	return e.RefundedAmount.GreaterThanOrEqual(e.GrossAmount)
}

func (e *EscrowTransaction) recalculateNet() {
	e.NetAmount = e.GrossAmount.Sub(e.RefundedAmount).Sub(e.CommissionAmount)
}

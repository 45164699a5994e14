package commission

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/markethub/backend/internal/domain/shared"
)

// TransactionType distinguishes the initial commission charge from the
// adjustment recorded when part of the escrow is refunded
type TransactionType string

const (
	TransactionTypeInitial          TransactionType = "INITIAL"
	TransactionTypeRefundAdjustment TransactionType = "REFUND_ADJUSTMENT"
)

// IsValid checks if the type is a valid TransactionType
func (t TransactionType) IsValid() bool {
	switch t {
	case TransactionTypeInitial, TransactionTypeRefundAdjustment:
		return true
	}
	return false
}

// String returns the string representation of TransactionType
func (t TransactionType) String() string {
	return string(t)
}

// Transaction is the immutable audit record of one commission calculation.
// Records are created, never mutated or deleted; refund adjustments carry a
// negative amount.
type Transaction struct {
	ID                  uuid.UUID
	EscrowTransactionID uuid.UUID
	StoreID             uuid.UUID
	CategoryID          *uuid.UUID
	Type                TransactionType
	GrossAmount         decimal.Decimal
	Percentage          decimal.Decimal
	FixedFee            decimal.Decimal
	Amount              decimal.Decimal
	Source              Source
	Notes               string
	CreatedAt           time.Time
}

// TableName returns the table name for GORM
func (Transaction) TableName() string {
	return "commission_transactions"
}

// NewTransaction creates an immutable commission transaction. Type and
// source outside the valid sets are programmer errors and are rejected,
// never coerced.
func NewTransaction(escrowID, storeID uuid.UUID, categoryID *uuid.UUID, txType TransactionType, gross, amount, percentage, fixedFee decimal.Decimal, source Source, notes string) (*Transaction, error) {
	if escrowID == uuid.Nil {
		return nil, shared.NewValidationError("INVALID_ESCROW", "Escrow transaction ID cannot be empty")
	}
	if storeID == uuid.Nil {
		return nil, shared.NewValidationError("INVALID_STORE", "Store ID cannot be empty")
	}
	if !txType.IsValid() {
		return nil, shared.NewValidationError("INVALID_TYPE", "Invalid commission transaction type")
	}
	if !source.IsValid() {
		return nil, shared.NewValidationError("INVALID_SOURCE", "Invalid commission source")
	}
	if txType == TransactionTypeInitial && amount.IsNegative() {
		return nil, shared.NewValidationError("INVALID_AMOUNT", "Initial commission cannot be negative")
	}
	if txType == TransactionTypeRefundAdjustment && amount.IsPositive() {
		return nil, shared.NewValidationError("INVALID_AMOUNT", "Refund adjustment must not be positive")
	}

	return &Transaction{
		ID:                  uuid.New(),
		EscrowTransactionID: escrowID,
		StoreID:             storeID,
		CategoryID:          categoryID,
		Type:                txType,
		GrossAmount:         gross,
		Percentage:          percentage,
		FixedFee:            fixedFee,
		Amount:              amount,
		Source:              source,
		Notes:               notes,
		CreatedAt:           time.Now(),
	}, nil
}

// NewInitialTransaction records the commission charged when an escrow
// transaction is opened
func NewInitialTransaction(escrowID, storeID uuid.UUID, res Resolution, gross decimal.Decimal, notes string) (*Transaction, error) {
	return NewTransaction(escrowID, storeID, res.AppliedCategoryID, TransactionTypeInitial,
		gross, res.Amount, res.Percentage, res.FixedFee, res.Source, notes)
}

// NewRefundAdjustment records the proportional commission reversal for a
// refund against the original initial transaction. The adjustment keeps the
// original percentage and source; the fixed fee is zero because it is
// already embedded in the reversal ratio.
func NewRefundAdjustment(original *Transaction, refundAmount, adjustment decimal.Decimal, notes string) (*Transaction, error) {
	if original == nil {
		return nil, shared.NewValidationError("INVALID_ORIGINAL", "Original commission transaction is required")
	}
	return NewTransaction(original.EscrowTransactionID, original.StoreID, original.CategoryID,
		TransactionTypeRefundAdjustment, refundAmount, adjustment, original.Percentage,
		decimal.Zero, original.Source, notes)
}

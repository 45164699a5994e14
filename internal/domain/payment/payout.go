package payment

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/markethub/backend/internal/domain/shared"
)

// PayoutStatus represents the lifecycle state of a payout
type PayoutStatus string

const (
	PayoutStatusPending   PayoutStatus = "PENDING"
	PayoutStatusCompleted PayoutStatus = "COMPLETED"
	PayoutStatusFailed    PayoutStatus = "FAILED"
)

// IsValid checks if the status is a valid PayoutStatus
func (s PayoutStatus) IsValid() bool {
	switch s {
	case PayoutStatusPending, PayoutStatusCompleted, PayoutStatusFailed:
		return true
	}
	return false
}

// String returns the string representation of PayoutStatus
func (s PayoutStatus) String() string {
	return string(s)
}

// Payout is money transferred from the platform to a store, recorded for
// settlement reporting. Settlement math never depends on payouts; they show
// up only as an informational total.
type Payout struct {
	shared.BaseEntity
	StoreID     uuid.UUID
	Amount      decimal.Decimal
	Status      PayoutStatus
	Reference   string
	CompletedAt *time.Time
}

// NewPayout records a pending payout to a store
func NewPayout(storeID uuid.UUID, amount decimal.Decimal, reference string) (*Payout, error) {
	if storeID == uuid.Nil {
		return nil, shared.NewValidationError("INVALID_STORE", "Store ID cannot be empty")
	}
	if !amount.IsPositive() {
		return nil, shared.NewValidationError("INVALID_AMOUNT", "Payout amount must be positive")
	}
	return &Payout{
		BaseEntity: shared.NewBaseEntity(),
		StoreID:    storeID,
		Amount:     amount,
		Status:     PayoutStatusPending,
		Reference:  reference,
	}, nil
}

// Complete marks the payout as transferred
func (p *Payout) Complete() error {
	if p.Status == PayoutStatusCompleted {
		return nil
	}
	if p.Status != PayoutStatusPending {
		return shared.NewConflictError("INVALID_PAYOUT_STATE", "Only pending payouts can complete")
	}
	now := time.Now()
	p.Status = PayoutStatusCompleted
	p.CompletedAt = &now
	return nil
}

// Fail marks the payout as failed
func (p *Payout) Fail() error {
	if p.Status != PayoutStatusPending {
		return shared.NewConflictError("INVALID_PAYOUT_STATE", "Only pending payouts can fail")
	}
	p.Status = PayoutStatusFailed
	return nil
}

// PayoutLedger exposes the payout totals settlement reporting reads
type PayoutLedger interface {
	// SumCompleted returns the sum of completed payouts for a store whose
	// completion time falls within [from, to], inclusive of the end date
	SumCompleted(ctx context.Context, storeID uuid.UUID, from, to time.Time) (decimal.Decimal, error)
}

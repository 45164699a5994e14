package settlement

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/markethub/backend/internal/domain/shared"
)

// Status represents the lifecycle state of a settlement version
type Status string

const (
	StatusDraft      Status = "DRAFT"
	StatusFinalized  Status = "FINALIZED"
	StatusSuperseded Status = "SUPERSEDED"
)

// IsValid checks if the status is a valid Status
func (s Status) IsValid() bool {
	switch s {
	case StatusDraft, StatusFinalized, StatusSuperseded:
		return true
	}
	return false
}

// String returns the string representation of Status
func (s Status) String() string {
	return string(s)
}

// Settlement is one version of a store's statement for a settlement period.
// Versions are immutable once superseded: a regeneration marks the current
// version superseded and creates a new one pointing back at it. Exactly one
// version per (store, period) is current.
//
// NetAmount = GrossSales - Refunds - Commission + Adjustments. TotalPayouts
// is informational and never feeds the net amount.
type Settlement struct {
	shared.StoreAggregateRoot
	PeriodStart          time.Time
	PeriodEnd            time.Time
	GrossSales           decimal.Decimal
	Refunds              decimal.Decimal
	Commission           decimal.Decimal
	Adjustments          decimal.Decimal
	NetAmount            decimal.Decimal
	TotalPayouts         decimal.Decimal
	Status               Status
	VersionNumber        int
	PreviousSettlementID *uuid.UUID
	IsCurrentVersion     bool
	FinalizedAt          *time.Time
	Items                []SettlementItem
	AdjustmentEntries    []SettlementAdjustment
}

// SettlementItem is one escrow transaction's contribution to a settlement
type SettlementItem struct {
	shared.BaseEntity
	SettlementID        uuid.UUID
	EscrowTransactionID uuid.UUID
	SubOrderID          uuid.UUID
	OrderNumber         string
	GrossAmount         decimal.Decimal
	RefundedAmount      decimal.Decimal
	CommissionAmount    decimal.Decimal
	NetAmount           decimal.Decimal
}

// SettlementAdjustment is a manual correction entered by an operator before
// finalization. Positive amounts credit the store.
type SettlementAdjustment struct {
	shared.BaseEntity
	SettlementID uuid.UUID
	Amount       decimal.Decimal
	Reason       string
	EnteredBy    string
}

// NewSettlement opens a draft settlement for a store and period. The period
// end must not precede the start; version numbering starts at 1 and climbs
// with each regeneration.
func NewSettlement(storeID uuid.UUID, periodStart, periodEnd time.Time) (*Settlement, error) {
	if storeID == uuid.Nil {
		return nil, shared.NewValidationError("INVALID_STORE", "Store ID cannot be empty")
	}
	if periodStart.IsZero() || periodEnd.IsZero() {
		return nil, shared.NewValidationError("INVALID_PERIOD", "Settlement period boundaries are required")
	}
	if !periodEnd.After(periodStart) {
		return nil, shared.NewValidationError("INVALID_PERIOD", "Settlement period end must follow its start")
	}

	s := &Settlement{
		StoreAggregateRoot: shared.NewStoreAggregateRoot(storeID),
		PeriodStart:        periodStart,
		PeriodEnd:          periodEnd,
		GrossSales:         decimal.Zero,
		Refunds:            decimal.Zero,
		Commission:         decimal.Zero,
		Adjustments:        decimal.Zero,
		NetAmount:          decimal.Zero,
		TotalPayouts:       decimal.Zero,
		Status:             StatusDraft,
		VersionNumber:      1,
		IsCurrentVersion:   true,
	}
	s.AddDomainEvent(NewSettlementGeneratedEvent(s))
	return s, nil
}

// NewSettlementVersion opens the successor version of a settlement that is
// being regenerated. Manual adjustments survive regeneration: every entry of
// the previous version is re-parented onto the successor and folded back into
// its totals.
func NewSettlementVersion(previous *Settlement) (*Settlement, error) {
	if previous == nil {
		return nil, shared.NewValidationError("INVALID_PREVIOUS", "Previous settlement is required")
	}
	next, err := NewSettlement(previous.StoreID, previous.PeriodStart, previous.PeriodEnd)
	if err != nil {
		return nil, err
	}
	prevID := previous.ID
	next.VersionNumber = previous.VersionNumber + 1
	next.PreviousSettlementID = &prevID

	for _, adj := range previous.AdjustmentEntries {
		next.AdjustmentEntries = append(next.AdjustmentEntries, SettlementAdjustment{
			BaseEntity:   shared.NewBaseEntity(),
			SettlementID: next.ID,
			Amount:       adj.Amount,
			Reason:       adj.Reason,
			EnteredBy:    adj.EnteredBy,
		})
		next.Adjustments = next.Adjustments.Add(adj.Amount)
	}
	next.recalculateNet()
	return next, nil
}

// AddItem appends an escrow transaction's figures to the draft and folds
// them into the totals
func (s *Settlement) AddItem(escrowID, subOrderID uuid.UUID, orderNumber string, gross, refunded, commission decimal.Decimal) error {
	if s.Status != StatusDraft {
		return shared.NewConflictError("SETTLEMENT_NOT_DRAFT",
			fmt.Sprintf("Cannot add items to a settlement in status %s", s.Status))
	}
	if escrowID == uuid.Nil {
		return shared.NewValidationError("INVALID_ESCROW", "Escrow transaction ID cannot be empty")
	}

	item := SettlementItem{
		BaseEntity:          shared.NewBaseEntity(),
		SettlementID:        s.ID,
		EscrowTransactionID: escrowID,
		SubOrderID:          subOrderID,
		OrderNumber:         orderNumber,
		GrossAmount:         gross,
		RefundedAmount:      refunded,
		CommissionAmount:    commission,
		NetAmount:           gross.Sub(refunded).Sub(commission),
	}
	s.Items = append(s.Items, item)
	s.GrossSales = s.GrossSales.Add(gross)
	s.Refunds = s.Refunds.Add(refunded)
	s.Commission = s.Commission.Add(commission)
	s.recalculateNet()
	return nil
}

// SetTotals overwrites the aggregate figures directly, for generation paths
// that aggregate in the database instead of itemizing
func (s *Settlement) SetTotals(gross, refunds, commission decimal.Decimal) error {
	if s.Status != StatusDraft {
		return shared.NewConflictError("SETTLEMENT_NOT_DRAFT",
			fmt.Sprintf("Cannot set totals on a settlement in status %s", s.Status))
	}
	s.GrossSales = gross
	s.Refunds = refunds
	s.Commission = commission
	s.recalculateNet()
	return nil
}

// SetTotalPayouts records the informational payout total for the period
func (s *Settlement) SetTotalPayouts(total decimal.Decimal) {
	s.TotalPayouts = total
}

// AddAdjustment appends a manual correction to the draft. Finalized and
// superseded versions never change.
func (s *Settlement) AddAdjustment(amount decimal.Decimal, reason, enteredBy string) error {
	if s.Status != StatusDraft {
		return shared.NewConflictError("SETTLEMENT_NOT_DRAFT",
			fmt.Sprintf("Cannot adjust a settlement in status %s", s.Status))
	}
	if amount.IsZero() {
		return shared.NewValidationError("INVALID_AMOUNT", "Adjustment amount cannot be zero")
	}
	if reason == "" {
		return shared.NewValidationError("INVALID_REASON", "Adjustment reason is required")
	}

	s.AdjustmentEntries = append(s.AdjustmentEntries, SettlementAdjustment{
		BaseEntity:   shared.NewBaseEntity(),
		SettlementID: s.ID,
		Amount:       amount,
		Reason:       reason,
		EnteredBy:    enteredBy,
	})
	s.Adjustments = s.Adjustments.Add(amount)
	s.recalculateNet()
	return nil
}

// Finalize freezes the settlement. Finalizing an already finalized
// settlement is an accepted no-op.
func (s *Settlement) Finalize() error {
	if s.Status == StatusFinalized {
		return nil
	}
	if s.Status != StatusDraft {
		return shared.NewConflictError("SETTLEMENT_NOT_DRAFT",
			fmt.Sprintf("Cannot finalize a settlement in status %s", s.Status))
	}
	now := time.Now()
	s.Status = StatusFinalized
	s.FinalizedAt = &now
	s.AddDomainEvent(NewSettlementFinalizedEvent(s))
	return nil
}

// MarkSuperseded retires this version in favor of a regeneration. Finalized
// settlements are frozen and cannot be superseded.
func (s *Settlement) MarkSuperseded() error {
	if s.Status == StatusFinalized {
		return shared.NewConflictError("SETTLEMENT_FINALIZED",
			"A finalized settlement cannot be superseded")
	}
	if s.Status == StatusSuperseded {
		return nil
	}
	s.Status = StatusSuperseded
	s.IsCurrentVersion = false
	return nil
}

// IsFinal reports whether the settlement is frozen
func (s *Settlement) IsFinal() bool {
	return s.Status == StatusFinalized
}

func (s *Settlement) recalculateNet() {
	s.NetAmount = s.GrossSales.Sub(s.Refunds).Sub(s.Commission).Add(s.Adjustments)
}

package commission

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/markethub/backend/internal/domain/commission"
)

// TransactionResponse represents a commission transaction in API responses
type TransactionResponse struct {
	ID                  uuid.UUID       `json:"id"`
	EscrowTransactionID uuid.UUID       `json:"escrow_transaction_id"`
	StoreID             uuid.UUID       `json:"store_id"`
	CategoryID          *uuid.UUID      `json:"category_id,omitempty"`
	Type                string          `json:"type"`
	GrossAmount         decimal.Decimal `json:"gross_amount"`
	Percentage          decimal.Decimal `json:"percentage"`
	FixedFee            decimal.Decimal `json:"fixed_fee"`
	Amount              decimal.Decimal `json:"amount"`
	Source              string          `json:"source"`
	Notes               string          `json:"notes,omitempty"`
	CreatedAt           time.Time       `json:"created_at"`
}

// ToTransactionResponse converts a domain transaction to its API representation
func ToTransactionResponse(tx *commission.Transaction) TransactionResponse {
	return TransactionResponse{
		ID:                  tx.ID,
		EscrowTransactionID: tx.EscrowTransactionID,
		StoreID:             tx.StoreID,
		CategoryID:          tx.CategoryID,
		Type:                tx.Type.String(),
		GrossAmount:         tx.GrossAmount,
		Percentage:          tx.Percentage,
		FixedFee:            tx.FixedFee,
		Amount:              tx.Amount,
		Source:              tx.Source.String(),
		Notes:               tx.Notes,
		CreatedAt:           tx.CreatedAt,
	}
}

// maxPercentage is the upper bound for commission percentages
var maxPercentage = decimal.NewFromInt(100)

// SetGlobalConfigRequest activates a new global commission configuration
type SetGlobalConfigRequest struct {
	Percentage decimal.Decimal `json:"percentage" binding:"required"`
	FixedFee   decimal.Decimal `json:"fixed_fee"`
}

// GlobalConfigResponse represents the global configuration in API responses
type GlobalConfigResponse struct {
	ID         uuid.UUID       `json:"id"`
	Percentage decimal.Decimal `json:"percentage"`
	FixedFee   decimal.Decimal `json:"fixed_fee"`
	Active     bool            `json:"active"`
	CreatedAt  time.Time       `json:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at"`
}

// ToGlobalConfigResponse converts a domain configuration to its API representation
func ToGlobalConfigResponse(cfg *commission.GlobalConfig) GlobalConfigResponse {
	return GlobalConfigResponse{
		ID:         cfg.ID,
		Percentage: cfg.Percentage,
		FixedFee:   cfg.FixedFee,
		Active:     cfg.Active,
		CreatedAt:  cfg.CreatedAt,
		UpdatedAt:  cfg.UpdatedAt,
	}
}

// SetOverrideRequest upserts a store or category override. A nil field
// means that component is not overridden at this tier.
type SetOverrideRequest struct {
	Percentage *decimal.Decimal `json:"percentage"`
	FixedFee   *decimal.Decimal `json:"fixed_fee"`
}

// OverrideResponse represents a store or category override in API responses
type OverrideResponse struct {
	TargetID   uuid.UUID        `json:"target_id"`
	Percentage *decimal.Decimal `json:"percentage,omitempty"`
	FixedFee   *decimal.Decimal `json:"fixed_fee,omitempty"`
	IsSet      bool             `json:"is_set"`
}

// ToOverrideResponse converts a domain override to its API representation
func ToOverrideResponse(targetID uuid.UUID, override *commission.RateOverride) OverrideResponse {
	resp := OverrideResponse{TargetID: targetID, IsSet: override.IsSet()}
	if override != nil {
		resp.Percentage = override.Percentage
		resp.FixedFee = override.FixedFee
	}
	return resp
}

// ToTransactionResponses converts a slice of domain transactions
func ToTransactionResponses(txs []commission.Transaction) []TransactionResponse {
	responses := make([]TransactionResponse, len(txs))
	for i := range txs {
		responses[i] = ToTransactionResponse(&txs[i])
	}
	return responses
}

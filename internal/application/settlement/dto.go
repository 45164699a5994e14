package settlement

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/markethub/backend/internal/domain/settlement"
)

// GenerateRequest creates the first settlement version for a store period
type GenerateRequest struct {
	StoreID     uuid.UUID `json:"store_id" binding:"required"`
	PeriodStart time.Time `json:"period_start" binding:"required"`
	PeriodEnd   time.Time `json:"period_end" binding:"required"`
}

// AdjustmentRequest appends a manual correction to a draft settlement
type AdjustmentRequest struct {
	Amount    decimal.Decimal `json:"amount" binding:"required"`
	Reason    string          `json:"reason" binding:"required"`
	EnteredBy string          `json:"entered_by"`
}

// SettlementItemResponse represents a settlement line in API responses
type SettlementItemResponse struct {
	ID                  uuid.UUID       `json:"id"`
	EscrowTransactionID uuid.UUID       `json:"escrow_transaction_id"`
	SubOrderID          uuid.UUID       `json:"sub_order_id"`
	OrderNumber         string          `json:"order_number,omitempty"`
	GrossAmount         decimal.Decimal `json:"gross_amount"`
	RefundedAmount      decimal.Decimal `json:"refunded_amount"`
	CommissionAmount    decimal.Decimal `json:"commission_amount"`
	NetAmount           decimal.Decimal `json:"net_amount"`
}

// SettlementAdjustmentResponse represents a manual correction in API responses
type SettlementAdjustmentResponse struct {
	ID        uuid.UUID       `json:"id"`
	Amount    decimal.Decimal `json:"amount"`
	Reason    string          `json:"reason"`
	EnteredBy string          `json:"entered_by,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
}

// SettlementResponse represents a settlement version in API responses
type SettlementResponse struct {
	ID                   uuid.UUID                      `json:"id"`
	StoreID              uuid.UUID                      `json:"store_id"`
	PeriodStart          time.Time                      `json:"period_start"`
	PeriodEnd            time.Time                      `json:"period_end"`
	GrossSales           decimal.Decimal                `json:"gross_sales"`
	Refunds              decimal.Decimal                `json:"refunds"`
	Commission           decimal.Decimal                `json:"commission"`
	Adjustments          decimal.Decimal                `json:"adjustments"`
	NetAmount            decimal.Decimal                `json:"net_amount"`
	TotalPayouts         decimal.Decimal                `json:"total_payouts"`
	Status               string                         `json:"status"`
	VersionNumber        int                            `json:"version_number"`
	PreviousSettlementID *uuid.UUID                     `json:"previous_settlement_id,omitempty"`
	IsCurrentVersion     bool                           `json:"is_current_version"`
	FinalizedAt          *time.Time                     `json:"finalized_at,omitempty"`
	Items                []SettlementItemResponse       `json:"items,omitempty"`
	AdjustmentEntries    []SettlementAdjustmentResponse `json:"adjustment_entries,omitempty"`
	CreatedAt            time.Time                      `json:"created_at"`
}

// ToSettlementResponse converts a domain settlement to its API representation
func ToSettlementResponse(s *settlement.Settlement) SettlementResponse {
	items := make([]SettlementItemResponse, len(s.Items))
	for i, item := range s.Items {
		items[i] = SettlementItemResponse{
			ID:                  item.ID,
			EscrowTransactionID: item.EscrowTransactionID,
			SubOrderID:          item.SubOrderID,
			OrderNumber:         item.OrderNumber,
			GrossAmount:         item.GrossAmount,
			RefundedAmount:      item.RefundedAmount,
			CommissionAmount:    item.CommissionAmount,
			NetAmount:           item.NetAmount,
		}
	}
	adjustments := make([]SettlementAdjustmentResponse, len(s.AdjustmentEntries))
	for i, adj := range s.AdjustmentEntries {
		adjustments[i] = SettlementAdjustmentResponse{
			ID:        adj.ID,
			Amount:    adj.Amount,
			Reason:    adj.Reason,
			EnteredBy: adj.EnteredBy,
			CreatedAt: adj.CreatedAt,
		}
	}
	return SettlementResponse{
		ID:                   s.ID,
		StoreID:              s.StoreID,
		PeriodStart:          s.PeriodStart,
		PeriodEnd:            s.PeriodEnd,
		GrossSales:           s.GrossSales,
		Refunds:              s.Refunds,
		Commission:           s.Commission,
		Adjustments:          s.Adjustments,
		NetAmount:            s.NetAmount,
		TotalPayouts:         s.TotalPayouts,
		Status:               s.Status.String(),
		VersionNumber:        s.VersionNumber,
		PreviousSettlementID: s.PreviousSettlementID,
		IsCurrentVersion:     s.IsCurrentVersion,
		FinalizedAt:          s.FinalizedAt,
		Items:                items,
		AdjustmentEntries:    adjustments,
		CreatedAt:            s.CreatedAt,
	}
}

// ToSettlementResponses converts a slice of domain settlements
func ToSettlementResponses(settlements []settlement.Settlement) []SettlementResponse {
	responses := make([]SettlementResponse, len(settlements))
	for i := range settlements {
		responses[i] = ToSettlementResponse(&settlements[i])
	}
	return responses
}

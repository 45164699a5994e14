package payment

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/markethub/backend/internal/domain/payment"
)

// RefundRequest refunds part or all of a sub-order's escrowed amount
type RefundRequest struct {
	Amount          decimal.Decimal `json:"amount" binding:"required"`
	Initiator       string          `json:"initiator" binding:"required"`
	Reason          string          `json:"reason"`
	ReturnRequestID *uuid.UUID      `json:"return_request_id,omitempty"`
}

// RefundOrderRequest refunds the remaining escrowed amount of every
// sub-order of an order
type RefundOrderRequest struct {
	Initiator string `json:"initiator" binding:"required"`
	Reason    string `json:"reason"`
}

// RefundResponse represents a refund transaction in API responses
type RefundResponse struct {
	ID                uuid.UUID       `json:"id"`
	RefundNumber      string          `json:"refund_number"`
	OrderID           uuid.UUID       `json:"order_id"`
	SubOrderID        uuid.UUID       `json:"sub_order_id"`
	StoreID           uuid.UUID       `json:"store_id"`
	ReturnRequestID   *uuid.UUID      `json:"return_request_id,omitempty"`
	Amount            decimal.Decimal `json:"amount"`
	Status            string          `json:"status"`
	Initiator         string          `json:"initiator"`
	Reason            string          `json:"reason,omitempty"`
	ProviderRefundID  string          `json:"provider_refund_id,omitempty"`
	FailureMessage    string          `json:"failure_message,omitempty"`
	ProviderSucceeded bool            `json:"provider_succeeded"`
	FundsReversed     bool            `json:"funds_reversed"`
	AttemptCount      int             `json:"attempt_count"`
	CompletedAt       *time.Time      `json:"completed_at,omitempty"`
	CreatedAt         time.Time       `json:"created_at"`
}

// ToRefundResponse converts a domain refund to its API representation
func ToRefundResponse(r *payment.RefundTransaction) RefundResponse {
	return RefundResponse{
		ID:                r.ID,
		RefundNumber:      r.RefundNumber,
		OrderID:           r.OrderID,
		SubOrderID:        r.SubOrderID,
		StoreID:           r.StoreID,
		ReturnRequestID:   r.ReturnRequestID,
		Amount:            r.Amount,
		Status:            r.Status.String(),
		Initiator:         r.Initiator.String(),
		Reason:            r.Reason,
		ProviderRefundID:  r.ProviderRefundID,
		FailureMessage:    r.FailureMessage,
		ProviderSucceeded: r.ProviderSucceeded,
		FundsReversed:     r.FundsReversed,
		AttemptCount:      r.AttemptCount,
		CompletedAt:       r.CompletedAt,
		CreatedAt:         r.CreatedAt,
	}
}

// ToRefundResponses converts a slice of domain refunds
func ToRefundResponses(refunds []payment.RefundTransaction) []RefundResponse {
	responses := make([]RefundResponse, len(refunds))
	for i := range refunds {
		responses[i] = ToRefundResponse(&refunds[i])
	}
	return responses
}

package payment

import (
	"context"

	"github.com/shopspring/decimal"
)

// RefundResult is the provider's answer to a refund request
type RefundResult struct {
	Success          bool
	ProviderRefundID string
	ErrorMessage     string
}

// RefundProvider issues refunds against the payment provider. The
// idempotency key is the refund number: a retried request with the same key
// must be treated as a replay of the original, never as a second refund.
type RefundProvider interface {
	InitiateRefund(ctx context.Context, transactionRef, idempotencyKey string, amount decimal.Decimal) (RefundResult, error)
}

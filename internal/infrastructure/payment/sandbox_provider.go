package payment

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/markethub/backend/internal/domain/payment"
)

// SandboxRefundProvider is an in-process stand-in for the real provider,
// used in development and tests. It honors idempotency keys: replaying a
// key returns the refund ID issued the first time.
type SandboxRefundProvider struct {
	mu     sync.Mutex
	issued map[string]string // idempotency key -> provider refund ID
}

// NewSandboxRefundProvider creates a new SandboxRefundProvider
func NewSandboxRefundProvider() *SandboxRefundProvider {
	return &SandboxRefundProvider{
		issued: make(map[string]string),
	}
}

// InitiateRefund simulates a refund call. Non-positive amounts are
// declined the way the real provider declines them.
func (p *SandboxRefundProvider) InitiateRefund(ctx context.Context, transactionRef, idempotencyKey string, amount decimal.Decimal) (payment.RefundResult, error) {
	if err := ctx.Err(); err != nil {
		return payment.RefundResult{}, err
	}

	if !amount.IsPositive() {
		return payment.RefundResult{
			Success:      false,
			ErrorMessage: "refund amount must be positive",
		}, nil
	}
	if transactionRef == "" {
		return payment.RefundResult{
			Success:      false,
			ErrorMessage: "unknown transaction reference",
		}, nil
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if refundID, ok := p.issued[idempotencyKey]; ok {
		return payment.RefundResult{
			Success:          true,
			ProviderRefundID: refundID,
		}, nil
	}

	refundID := fmt.Sprintf("sbx_%s", uuid.New().String())
	p.issued[idempotencyKey] = refundID

	return payment.RefundResult{
		Success:          true,
		ProviderRefundID: refundID,
	}, nil
}

// Ensure SandboxRefundProvider implements RefundProvider
var _ payment.RefundProvider = (*SandboxRefundProvider)(nil)

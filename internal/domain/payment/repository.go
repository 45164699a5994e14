package payment

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// EscrowPeriodSummary aggregates a store's escrow activity for a settlement
// period
type EscrowPeriodSummary struct {
	GrossSales decimal.Decimal
	Refunds    decimal.Decimal
	Commission decimal.Decimal
}

// EscrowRepository persists escrow transactions
type EscrowRepository interface {
	// FindByID finds an escrow transaction by ID
	FindByID(ctx context.Context, id uuid.UUID) (*EscrowTransaction, error)

	// FindBySubOrderID finds the escrow transaction of a sub-order
	FindBySubOrderID(ctx context.Context, subOrderID uuid.UUID) (*EscrowTransaction, error)

	// FindBySubOrderIDForUpdate locks and finds the escrow transaction of a
	// sub-order inside the current transaction
	FindBySubOrderIDForUpdate(ctx context.Context, subOrderID uuid.UUID) (*EscrowTransaction, error)

	// FindByStoreInPeriod returns the store's escrow transactions whose
	// order was placed within [from, to], inclusive of the end date
	FindByStoreInPeriod(ctx context.Context, storeID uuid.UUID, from, to time.Time) ([]EscrowTransaction, error)

	// SummarizeStorePeriod aggregates gross, refunds and commission for the
	// store's escrow transactions in [from, to]
	SummarizeStorePeriod(ctx context.Context, storeID uuid.UUID, from, to time.Time) (EscrowPeriodSummary, error)

	// Save creates or updates an escrow transaction
	Save(ctx context.Context, escrow *EscrowTransaction) error

	// SaveWithLock updates with optimistic concurrency on the version column
	SaveWithLock(ctx context.Context, escrow *EscrowTransaction) error
}

// RefundRepository persists refund transactions
type RefundRepository interface {
	// FindByID finds a refund transaction by ID
	FindByID(ctx context.Context, id uuid.UUID) (*RefundTransaction, error)

	// FindByRefundNumber finds a refund transaction by its refund number
	FindByRefundNumber(ctx context.Context, refundNumber string) (*RefundTransaction, error)

	// FindBySubOrder returns all refund transactions of a sub-order, oldest first
	FindBySubOrder(ctx context.Context, subOrderID uuid.UUID) ([]RefundTransaction, error)

	// FindByOrder returns all refund transactions of an order, oldest first
	FindByOrder(ctx context.Context, orderID uuid.UUID) ([]RefundTransaction, error)

	// Save creates or updates a refund transaction
	Save(ctx context.Context, refund *RefundTransaction) error

	// NextRefundNumber allocates the next refund number
	NextRefundNumber(ctx context.Context) (string, error)
}

// PayoutRepository persists payouts
type PayoutRepository interface {
	PayoutLedger

	// FindByID finds a payout by ID
	FindByID(ctx context.Context, id uuid.UUID) (*Payout, error)

	// FindByStore returns the store's payouts, newest first
	FindByStore(ctx context.Context, storeID uuid.UUID) ([]Payout, error)

	// Save creates or updates a payout
	Save(ctx context.Context, payout *Payout) error
}

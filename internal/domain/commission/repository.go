package commission

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TransactionRepository persists immutable commission transactions
type TransactionRepository interface {
	// Save appends a commission transaction; prior records are never updated
	Save(ctx context.Context, tx *Transaction) error

	// FindByID finds a commission transaction by ID
	FindByID(ctx context.Context, id uuid.UUID) (*Transaction, error)

	// FindLatestInitialByEscrow returns the most recent INITIAL transaction
	// for an escrow transaction, or nil when none exists
	FindLatestInitialByEscrow(ctx context.Context, escrowID uuid.UUID) (*Transaction, error)

	// FindByEscrow returns all transactions of an escrow transaction, oldest first
	FindByEscrow(ctx context.Context, escrowID uuid.UUID) ([]Transaction, error)

	// FindByStoreInPeriod returns the store's transactions created within
	// [from, to], inclusive of the end date
	FindByStoreInPeriod(ctx context.Context, storeID uuid.UUID, from, to time.Time) ([]Transaction, error)
}

// GlobalConfigRepository persists the global commission configuration
type GlobalConfigRepository interface {
	GlobalRateLookup

	// Save creates or updates a global configuration
	Save(ctx context.Context, cfg *GlobalConfig) error
}

// StoreRateRepository manages store-level commission overrides
type StoreRateRepository interface {
	StoreRateLookup

	// SetOverride upserts a store's override; nil fields clear that component
	SetOverride(ctx context.Context, storeID uuid.UUID, percentage, fixedFee *decimal.Decimal) error

	// ClearOverride removes the store's override entirely
	ClearOverride(ctx context.Context, storeID uuid.UUID) error
}

// CategoryRateRepository manages category-level commission overrides
type CategoryRateRepository interface {
	CategoryRateLookup

	// SetOverride upserts a category's override; nil fields clear that component
	SetOverride(ctx context.Context, categoryID uuid.UUID, percentage, fixedFee *decimal.Decimal) error

	// ClearOverride removes the category's override entirely
	ClearOverride(ctx context.Context, categoryID uuid.UUID) error
}

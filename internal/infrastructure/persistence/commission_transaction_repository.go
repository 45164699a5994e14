package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/markethub/backend/internal/domain/commission"
)

// GormCommissionTransactionRepository implements
// commission.TransactionRepository using GORM. The ledger is append-only:
// Save only ever inserts.
type GormCommissionTransactionRepository struct {
	db *gorm.DB
}

// NewGormCommissionTransactionRepository creates a new GormCommissionTransactionRepository
func NewGormCommissionTransactionRepository(db *gorm.DB) *GormCommissionTransactionRepository {
	return &GormCommissionTransactionRepository{db: db}
}

// Save appends a commission transaction; prior records are never updated
func (r *GormCommissionTransactionRepository) Save(ctx context.Context, tx *commission.Transaction) error {
	return dbFromContext(ctx, r.db).Create(tx).Error
}

// FindByID finds a commission transaction by ID
func (r *GormCommissionTransactionRepository) FindByID(ctx context.Context, id uuid.UUID) (*commission.Transaction, error) {
	var tx commission.Transaction
	if err := dbFromContext(ctx, r.db).
		First(&tx, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &tx, nil
}

// FindLatestInitialByEscrow returns the most recent INITIAL transaction for
// an escrow transaction, or nil when none exists
func (r *GormCommissionTransactionRepository) FindLatestInitialByEscrow(ctx context.Context, escrowID uuid.UUID) (*commission.Transaction, error) {
	var tx commission.Transaction
	err := dbFromContext(ctx, r.db).
		Where("escrow_transaction_id = ? AND type = ?", escrowID, commission.TransactionTypeInitial).
		Order("created_at DESC").
		First(&tx).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &tx, nil
}

// FindByEscrow returns all transactions of an escrow transaction, oldest first
func (r *GormCommissionTransactionRepository) FindByEscrow(ctx context.Context, escrowID uuid.UUID) ([]commission.Transaction, error) {
	var txs []commission.Transaction
	err := dbFromContext(ctx, r.db).
		Where("escrow_transaction_id = ?", escrowID).
		Order("created_at ASC").
		Find(&txs).Error
	if err != nil {
		return nil, err
	}
	return txs, nil
}

// FindByStoreInPeriod returns the store's transactions created within
// [from, to], inclusive of the end date
func (r *GormCommissionTransactionRepository) FindByStoreInPeriod(ctx context.Context, storeID uuid.UUID, from, to time.Time) ([]commission.Transaction, error) {
	var txs []commission.Transaction
	err := dbFromContext(ctx, r.db).
		Where("store_id = ? AND created_at >= ? AND created_at <= ?", storeID, from, to).
		Order("created_at ASC").
		Find(&txs).Error
	if err != nil {
		return nil, err
	}
	return txs, nil
}

// Ensure GormCommissionTransactionRepository implements TransactionRepository
var _ commission.TransactionRepository = (*GormCommissionTransactionRepository)(nil)

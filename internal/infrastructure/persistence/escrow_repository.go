package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/markethub/backend/internal/domain/payment"
	"github.com/markethub/backend/internal/domain/shared"
)

// GormEscrowRepository implements payment.EscrowRepository using GORM
type GormEscrowRepository struct {
	db *gorm.DB
}

// NewGormEscrowRepository creates a new GormEscrowRepository
func NewGormEscrowRepository(db *gorm.DB) *GormEscrowRepository {
	return &GormEscrowRepository{db: db}
}

// FindByID finds an escrow transaction by ID
func (r *GormEscrowRepository) FindByID(ctx context.Context, id uuid.UUID) (*payment.EscrowTransaction, error) {
	var escrow payment.EscrowTransaction
	if err := dbFromContext(ctx, r.db).
		First(&escrow, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &escrow, nil
}

// FindBySubOrderID finds the escrow transaction of a sub-order
func (r *GormEscrowRepository) FindBySubOrderID(ctx context.Context, subOrderID uuid.UUID) (*payment.EscrowTransaction, error) {
	return r.findBySubOrder(ctx, subOrderID, false)
}

// FindBySubOrderIDForUpdate locks and finds the escrow transaction of a
// sub-order inside the current transaction
func (r *GormEscrowRepository) FindBySubOrderIDForUpdate(ctx context.Context, subOrderID uuid.UUID) (*payment.EscrowTransaction, error) {
	return r.findBySubOrder(ctx, subOrderID, true)
}

func (r *GormEscrowRepository) findBySubOrder(ctx context.Context, subOrderID uuid.UUID, forUpdate bool) (*payment.EscrowTransaction, error) {
	db := dbFromContext(ctx, r.db)
	if forUpdate {
		db = db.Clauses(clause.Locking{Strength: "UPDATE"})
	}

	var escrow payment.EscrowTransaction
	if err := db.First(&escrow, "sub_order_id = ?", subOrderID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &escrow, nil
}

// FindByStoreInPeriod returns the store's escrow transactions whose order
// was placed within [from, to]. Membership follows the order placement
// date, not the escrow row's creation date.
func (r *GormEscrowRepository) FindByStoreInPeriod(ctx context.Context, storeID uuid.UUID, from, to time.Time) ([]payment.EscrowTransaction, error) {
	var escrows []payment.EscrowTransaction
	err := dbFromContext(ctx, r.db).
		Where("store_id = ?", storeID).
		Where("order_id IN (SELECT id FROM orders WHERE placed_at >= ? AND placed_at <= ?)", from, to).
		Order("created_at ASC").
		Find(&escrows).Error
	if err != nil {
		return nil, err
	}
	return escrows, nil
}

// SummarizeStorePeriod aggregates gross, refunds and commission for the
// store's escrow transactions in [from, to]
func (r *GormEscrowRepository) SummarizeStorePeriod(ctx context.Context, storeID uuid.UUID, from, to time.Time) (payment.EscrowPeriodSummary, error) {
	var row struct {
		GrossSales decimal.Decimal
		Refunds    decimal.Decimal
		Commission decimal.Decimal
	}
	err := dbFromContext(ctx, r.db).
		Model(&payment.EscrowTransaction{}).
		Select("COALESCE(SUM(gross_amount), 0) AS gross_sales, COALESCE(SUM(refunded_amount), 0) AS refunds, COALESCE(SUM(commission_amount), 0) AS commission").
		Where("store_id = ?", storeID).
		Where("order_id IN (SELECT id FROM orders WHERE placed_at >= ? AND placed_at <= ?)", from, to).
		Scan(&row).Error
	if err != nil {
		return payment.EscrowPeriodSummary{}, err
	}
	return payment.EscrowPeriodSummary{
		GrossSales: row.GrossSales,
		Refunds:    row.Refunds,
		Commission: row.Commission,
	}, nil
}

// Save creates or updates an escrow transaction
func (r *GormEscrowRepository) Save(ctx context.Context, escrow *payment.EscrowTransaction) error {
	return dbFromContext(ctx, r.db).Save(escrow).Error
}

// SaveWithLock updates with optimistic concurrency on the version column
func (r *GormEscrowRepository) SaveWithLock(ctx context.Context, escrow *payment.EscrowTransaction) error {
	currentVersion := escrow.Version
	escrow.Version++
	escrow.UpdatedAt = time.Now()

	result := dbFromContext(ctx, r.db).
		Model(&payment.EscrowTransaction{}).
		Where("id = ? AND version = ?", escrow.ID, currentVersion).
		Updates(map[string]interface{}{
			"gross_amount":      escrow.GrossAmount,
			"refunded_amount":   escrow.RefundedAmount,
			"commission_amount": escrow.CommissionAmount,
			"net_amount":        escrow.NetAmount,
			"version":           escrow.Version,
			"updated_at":        escrow.UpdatedAt,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.NewConflictError("CONCURRENT_MODIFICATION",
			"The escrow transaction has been modified by another user")
	}
	return nil
}

// Ensure GormEscrowRepository implements EscrowRepository
var _ payment.EscrowRepository = (*GormEscrowRepository)(nil)

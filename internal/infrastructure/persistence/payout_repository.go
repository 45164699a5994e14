package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/markethub/backend/internal/domain/payment"
)

// GormPayoutRepository implements payment.PayoutRepository using GORM
type GormPayoutRepository struct {
	db *gorm.DB
}

// NewGormPayoutRepository creates a new GormPayoutRepository
func NewGormPayoutRepository(db *gorm.DB) *GormPayoutRepository {
	return &GormPayoutRepository{db: db}
}

// FindByID finds a payout by ID
func (r *GormPayoutRepository) FindByID(ctx context.Context, id uuid.UUID) (*payment.Payout, error) {
	var payout payment.Payout
	if err := dbFromContext(ctx, r.db).
		First(&payout, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &payout, nil
}

// FindByStore returns the store's payouts, newest first
func (r *GormPayoutRepository) FindByStore(ctx context.Context, storeID uuid.UUID) ([]payment.Payout, error) {
	var payouts []payment.Payout
	err := dbFromContext(ctx, r.db).
		Where("store_id = ?", storeID).
		Order("created_at DESC").
		Find(&payouts).Error
	if err != nil {
		return nil, err
	}
	return payouts, nil
}

// SumCompleted sums the store's completed payouts in [from, to]
func (r *GormPayoutRepository) SumCompleted(ctx context.Context, storeID uuid.UUID, from, to time.Time) (decimal.Decimal, error) {
	var row struct {
		Total decimal.Decimal
	}
	err := dbFromContext(ctx, r.db).
		Model(&payment.Payout{}).
		Select("COALESCE(SUM(amount), 0) AS total").
		Where("store_id = ? AND status = ?", storeID, payment.PayoutStatusCompleted).
		Where("completed_at >= ? AND completed_at <= ?", from, to).
		Scan(&row).Error
	if err != nil {
		return decimal.Zero, err
	}
	return row.Total, nil
}

// Save creates or updates a payout
func (r *GormPayoutRepository) Save(ctx context.Context, payout *payment.Payout) error {
	return dbFromContext(ctx, r.db).Save(payout).Error
}

// Ensure GormPayoutRepository implements PayoutRepository
var _ payment.PayoutRepository = (*GormPayoutRepository)(nil)

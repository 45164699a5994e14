package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/markethub/backend/internal/domain/commission"
	"github.com/markethub/backend/internal/infrastructure/persistence/models"
)

// GormStoreRateRepository implements commission.StoreRateLookup against the
// store_commission_rates table. A missing row means "no override".
type GormStoreRateRepository struct {
	db *gorm.DB
}

// NewGormStoreRateRepository creates a new GormStoreRateRepository
func NewGormStoreRateRepository(db *gorm.DB) *GormStoreRateRepository {
	return &GormStoreRateRepository{db: db}
}

// StoreOverride reads a store's commission override fields
func (r *GormStoreRateRepository) StoreOverride(ctx context.Context, storeID uuid.UUID) (*commission.RateOverride, error) {
	var row models.StoreCommissionRateModel
	err := dbFromContext(ctx, r.db).
		First(&row, "store_id = ?", storeID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return &commission.RateOverride{}, nil
		}
		return nil, err
	}
	return row.ToDomain(), nil
}

// SetOverride upserts a store's commission override
func (r *GormStoreRateRepository) SetOverride(ctx context.Context, storeID uuid.UUID, percentage, fixedFee *decimal.Decimal) error {
	now := time.Now()
	row := models.StoreCommissionRateModel{
		StoreID:    storeID,
		Percentage: percentage,
		FixedFee:   fixedFee,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	return dbFromContext(ctx, r.db).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "store_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"percentage", "fixed_fee", "updated_at"}),
		}).
		Create(&row).Error
}

// ClearOverride removes a store's commission override
func (r *GormStoreRateRepository) ClearOverride(ctx context.Context, storeID uuid.UUID) error {
	return dbFromContext(ctx, r.db).
		Delete(&models.StoreCommissionRateModel{}, "store_id = ?", storeID).Error
}

// GormCategoryRateRepository implements commission.CategoryRateLookup
// against the category_commission_rates table
type GormCategoryRateRepository struct {
	db *gorm.DB
}

// NewGormCategoryRateRepository creates a new GormCategoryRateRepository
func NewGormCategoryRateRepository(db *gorm.DB) *GormCategoryRateRepository {
	return &GormCategoryRateRepository{db: db}
}

// CategoryOverride reads a category's commission override fields
func (r *GormCategoryRateRepository) CategoryOverride(ctx context.Context, categoryID uuid.UUID) (*commission.RateOverride, error) {
	var row models.CategoryCommissionRateModel
	err := dbFromContext(ctx, r.db).
		First(&row, "category_id = ?", categoryID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return &commission.RateOverride{}, nil
		}
		return nil, err
	}
	return row.ToDomain(), nil
}

// SetOverride upserts a category's commission override
func (r *GormCategoryRateRepository) SetOverride(ctx context.Context, categoryID uuid.UUID, percentage, fixedFee *decimal.Decimal) error {
	now := time.Now()
	row := models.CategoryCommissionRateModel{
		CategoryID: categoryID,
		Percentage: percentage,
		FixedFee:   fixedFee,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	return dbFromContext(ctx, r.db).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "category_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"percentage", "fixed_fee", "updated_at"}),
		}).
		Create(&row).Error
}

// ClearOverride removes a category's commission override
func (r *GormCategoryRateRepository) ClearOverride(ctx context.Context, categoryID uuid.UUID) error {
	return dbFromContext(ctx, r.db).
		Delete(&models.CategoryCommissionRateModel{}, "category_id = ?", categoryID).Error
}

// Ensure repositories satisfy the domain interfaces
var (
	_ commission.StoreRateRepository    = (*GormStoreRateRepository)(nil)
	_ commission.CategoryRateRepository = (*GormCategoryRateRepository)(nil)
)

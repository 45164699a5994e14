package persistence

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/markethub/backend/internal/domain/ordering"
)

// GormStatusHistoryRepository implements ordering.StatusHistoryRepository
// using GORM. History rows are append-only.
type GormStatusHistoryRepository struct {
	db *gorm.DB
}

// NewGormStatusHistoryRepository creates a new GormStatusHistoryRepository
func NewGormStatusHistoryRepository(db *gorm.DB) *GormStatusHistoryRepository {
	return &GormStatusHistoryRepository{db: db}
}

// Save appends history records; existing records are never updated
func (r *GormStatusHistoryRepository) Save(ctx context.Context, records ...*ordering.StatusHistory) error {
	if len(records) == 0 {
		return nil
	}
	return dbFromContext(ctx, r.db).Create(records).Error
}

// FindBySubOrder returns the transition history of a sub-order, oldest first
func (r *GormStatusHistoryRepository) FindBySubOrder(ctx context.Context, subOrderID uuid.UUID) ([]ordering.StatusHistory, error) {
	var records []ordering.StatusHistory
	err := dbFromContext(ctx, r.db).
		Where("sub_order_id = ?", subOrderID).
		Order("created_at ASC").
		Find(&records).Error
	if err != nil {
		return nil, err
	}
	return records, nil
}

// FindByOrder returns the transition history of all sub-orders of an order
func (r *GormStatusHistoryRepository) FindByOrder(ctx context.Context, orderID uuid.UUID) ([]ordering.StatusHistory, error) {
	var records []ordering.StatusHistory
	err := dbFromContext(ctx, r.db).
		Where("order_id = ?", orderID).
		Order("created_at ASC").
		Find(&records).Error
	if err != nil {
		return nil, err
	}
	return records, nil
}

// Ensure GormStatusHistoryRepository implements StatusHistoryRepository
var _ ordering.StatusHistoryRepository = (*GormStatusHistoryRepository)(nil)

package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/markethub/backend/internal/domain/settlement"
	"github.com/markethub/backend/internal/domain/shared"
)

// GormSettlementRepository implements settlement.Repository using GORM
type GormSettlementRepository struct {
	db *gorm.DB
}

// NewGormSettlementRepository creates a new GormSettlementRepository
func NewGormSettlementRepository(db *gorm.DB) *GormSettlementRepository {
	return &GormSettlementRepository{db: db}
}

// FindByID finds a settlement by ID
func (r *GormSettlementRepository) FindByID(ctx context.Context, id uuid.UUID) (*settlement.Settlement, error) {
	var s settlement.Settlement
	err := dbFromContext(ctx, r.db).
		Preload("Items").
		Preload("AdjustmentEntries").
		First(&s, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &s, nil
}

// FindCurrentByStorePeriod returns the current version for the exact
// (store, periodStart, periodEnd) tuple, or nil when none exists
func (r *GormSettlementRepository) FindCurrentByStorePeriod(ctx context.Context, storeID uuid.UUID, periodStart, periodEnd time.Time) (*settlement.Settlement, error) {
	var s settlement.Settlement
	err := dbFromContext(ctx, r.db).
		Preload("Items").
		Preload("AdjustmentEntries").
		Where("store_id = ? AND period_start = ? AND period_end = ? AND is_current_version = ?",
			storeID, periodStart, periodEnd, true).
		First(&s).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &s, nil
}

// FindVersions returns every version for the (store, period) tuple, oldest first
func (r *GormSettlementRepository) FindVersions(ctx context.Context, storeID uuid.UUID, periodStart, periodEnd time.Time) ([]settlement.Settlement, error) {
	var settlements []settlement.Settlement
	err := dbFromContext(ctx, r.db).
		Preload("Items").
		Preload("AdjustmentEntries").
		Where("store_id = ? AND period_start = ? AND period_end = ?", storeID, periodStart, periodEnd).
		Order("version_number ASC").
		Find(&settlements).Error
	if err != nil {
		return nil, err
	}
	return settlements, nil
}

// FindByStore returns the store's current-version settlements, newest period first
func (r *GormSettlementRepository) FindByStore(ctx context.Context, storeID uuid.UUID) ([]settlement.Settlement, error) {
	var settlements []settlement.Settlement
	err := dbFromContext(ctx, r.db).
		Preload("Items").
		Preload("AdjustmentEntries").
		Where("store_id = ? AND is_current_version = ?", storeID, true).
		Order("period_start DESC").
		Find(&settlements).Error
	if err != nil {
		return nil, err
	}
	return settlements, nil
}

// Save creates or updates a settlement together with its items and adjustments
func (r *GormSettlementRepository) Save(ctx context.Context, s *settlement.Settlement) error {
	return dbFromContext(ctx, r.db).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Save(s).Error; err != nil {
			return err
		}
		return r.saveChildren(tx, s)
	})
}

// SaveWithLock updates with optimistic concurrency on the version column
func (r *GormSettlementRepository) SaveWithLock(ctx context.Context, s *settlement.Settlement) error {
	return dbFromContext(ctx, r.db).Transaction(func(tx *gorm.DB) error {
		currentVersion := s.Version
		s.Version++
		s.UpdatedAt = time.Now()

		result := tx.Model(&settlement.Settlement{}).
			Where("id = ? AND version = ?", s.ID, currentVersion).
			Updates(map[string]interface{}{
				"gross_sales":            s.GrossSales,
				"refunds":                s.Refunds,
				"commission":             s.Commission,
				"adjustments":            s.Adjustments,
				"net_amount":             s.NetAmount,
				"total_payouts":          s.TotalPayouts,
				"status":                 s.Status,
				"version_number":         s.VersionNumber,
				"previous_settlement_id": s.PreviousSettlementID,
				"is_current_version":     s.IsCurrentVersion,
				"finalized_at":           s.FinalizedAt,
				"version":                s.Version,
				"updated_at":             s.UpdatedAt,
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return shared.NewConflictError("CONCURRENT_MODIFICATION",
				"The settlement has been modified by another user")
		}

		return r.saveChildren(tx, s)
	})
}

// saveChildren reconciles items and adjustment entries with the database
func (r *GormSettlementRepository) saveChildren(tx *gorm.DB, s *settlement.Settlement) error {
	itemIDs := make([]uuid.UUID, len(s.Items))
	for i := range s.Items {
		itemIDs[i] = s.Items[i].ID
	}
	if len(itemIDs) > 0 {
		if err := tx.Where("settlement_id = ? AND id NOT IN ?", s.ID, itemIDs).
			Delete(&settlement.SettlementItem{}).Error; err != nil {
			return err
		}
	} else {
		if err := tx.Where("settlement_id = ?", s.ID).
			Delete(&settlement.SettlementItem{}).Error; err != nil {
			return err
		}
	}
	for i := range s.Items {
		s.Items[i].SettlementID = s.ID
		if err := tx.Save(&s.Items[i]).Error; err != nil {
			return err
		}
	}

	// Adjustments are append-only; no orphan cleanup needed
	for i := range s.AdjustmentEntries {
		s.AdjustmentEntries[i].SettlementID = s.ID
		if err := tx.Save(&s.AdjustmentEntries[i]).Error; err != nil {
			return err
		}
	}
	return nil
}

// Ensure GormSettlementRepository implements Repository
var _ settlement.Repository = (*GormSettlementRepository)(nil)

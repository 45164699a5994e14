package persistence

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/markethub/backend/internal/domain/commission"
)

// GormGlobalConfigRepository implements commission.GlobalConfigRepository
// using GORM. At most one configuration row is active at a time.
type GormGlobalConfigRepository struct {
	db *gorm.DB
}

// NewGormGlobalConfigRepository creates a new GormGlobalConfigRepository
func NewGormGlobalConfigRepository(db *gorm.DB) *GormGlobalConfigRepository {
	return &GormGlobalConfigRepository{db: db}
}

// ActiveGlobalConfig returns the single active configuration, or nil when
// none exists
func (r *GormGlobalConfigRepository) ActiveGlobalConfig(ctx context.Context) (*commission.GlobalConfig, error) {
	var cfg commission.GlobalConfig
	err := dbFromContext(ctx, r.db).
		Where("active = ?", true).
		Order("created_at DESC").
		First(&cfg).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &cfg, nil
}

// Save creates or updates a global configuration. Saving an active
// configuration deactivates every other row, keeping a single active config.
func (r *GormGlobalConfigRepository) Save(ctx context.Context, cfg *commission.GlobalConfig) error {
	return dbFromContext(ctx, r.db).Transaction(func(tx *gorm.DB) error {
		if cfg.Active {
			if err := tx.Model(&commission.GlobalConfig{}).
				Where("id <> ? AND active = ?", cfg.ID, true).
				Update("active", false).Error; err != nil {
				return err
			}
		}
		return tx.Save(cfg).Error
	})
}

// Ensure GormGlobalConfigRepository implements GlobalConfigRepository
var _ commission.GlobalConfigRepository = (*GormGlobalConfigRepository)(nil)

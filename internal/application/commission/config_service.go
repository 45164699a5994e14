package commission

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/markethub/backend/internal/domain/commission"
	"github.com/markethub/backend/internal/domain/shared"
)

// RateChangeNotifier broadcasts commission configuration changes to other
// instances so they drop their cached rates. Notification is best effort:
// caches carry a TTL, so a lost message only delays the refresh.
type RateChangeNotifier interface {
	PublishGlobalChange(ctx context.Context) error
	PublishStoreChange(ctx context.Context, storeID uuid.UUID) error
	PublishCategoryChange(ctx context.Context, categoryID uuid.UUID) error
}

// ConfigService manages the three commission tiers: the single active
// global configuration and the per-store / per-category overrides.
type ConfigService struct {
	globalRepo   commission.GlobalConfigRepository
	storeRepo    commission.StoreRateRepository
	categoryRepo commission.CategoryRateRepository
	notifier     RateChangeNotifier
	logger       *zap.Logger
}

// NewConfigService creates a new ConfigService
func NewConfigService(
	globalRepo commission.GlobalConfigRepository,
	storeRepo commission.StoreRateRepository,
	categoryRepo commission.CategoryRateRepository,
	logger *zap.Logger,
) *ConfigService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ConfigService{
		globalRepo:   globalRepo,
		storeRepo:    storeRepo,
		categoryRepo: categoryRepo,
		logger:       logger,
	}
}

// SetRateChangeNotifier sets the cross-instance cache invalidation notifier
func (s *ConfigService) SetRateChangeNotifier(notifier RateChangeNotifier) {
	s.notifier = notifier
}

// notifyRateChange runs the given publish call when a notifier is wired
func (s *ConfigService) notifyRateChange(ctx context.Context, publish func(context.Context) error) {
	if s.notifier == nil {
		return
	}
	if err := publish(ctx); err != nil {
		s.logger.Warn("failed to broadcast commission rate change", zap.Error(err))
	}
}

// GetGlobalConfig returns the active global configuration
func (s *ConfigService) GetGlobalConfig(ctx context.Context) (*GlobalConfigResponse, error) {
	cfg, err := s.globalRepo.ActiveGlobalConfig(ctx)
	if err != nil {
		return nil, err
	}
	if cfg == nil {
		return nil, shared.NewNotFoundError("GLOBAL_CONFIG_NOT_FOUND", "No active global commission configuration")
	}
	resp := ToGlobalConfigResponse(cfg)
	return &resp, nil
}

// SetGlobalConfig activates a new global configuration. The previous
// active configuration is deactivated, not deleted, so historical records
// keep their audit trail.
func (s *ConfigService) SetGlobalConfig(ctx context.Context, req SetGlobalConfigRequest) (*GlobalConfigResponse, error) {
	cfg, err := commission.NewGlobalConfig(req.Percentage, req.FixedFee)
	if err != nil {
		return nil, err
	}
	if err := s.globalRepo.Save(ctx, cfg); err != nil {
		return nil, err
	}

	s.logger.Info("global commission config updated",
		zap.String("percentage", cfg.Percentage.String()),
		zap.String("fixed_fee", cfg.FixedFee.String()))
	s.notifyRateChange(ctx, func(ctx context.Context) error {
		return s.notifier.PublishGlobalChange(ctx)
	})

	resp := ToGlobalConfigResponse(cfg)
	return &resp, nil
}

// GetStoreOverride returns a store's override; both fields nil means the
// store falls through to the lower tiers
func (s *ConfigService) GetStoreOverride(ctx context.Context, storeID uuid.UUID) (*OverrideResponse, error) {
	override, err := s.storeRepo.StoreOverride(ctx, storeID)
	if err != nil {
		return nil, err
	}
	resp := ToOverrideResponse(storeID, override)
	return &resp, nil
}

// SetStoreOverride upserts a store's commission override
func (s *ConfigService) SetStoreOverride(ctx context.Context, storeID uuid.UUID, req SetOverrideRequest) (*OverrideResponse, error) {
	if err := validateOverride(req); err != nil {
		return nil, err
	}
	if err := s.storeRepo.SetOverride(ctx, storeID, req.Percentage, req.FixedFee); err != nil {
		return nil, err
	}

	s.logger.Info("store commission override set",
		zap.String("store_id", storeID.String()))
	s.notifyRateChange(ctx, func(ctx context.Context) error {
		return s.notifier.PublishStoreChange(ctx, storeID)
	})

	return s.GetStoreOverride(ctx, storeID)
}

// ClearStoreOverride removes a store's override so it falls back to the
// global configuration
func (s *ConfigService) ClearStoreOverride(ctx context.Context, storeID uuid.UUID) error {
	if err := s.storeRepo.ClearOverride(ctx, storeID); err != nil {
		return err
	}
	s.logger.Info("store commission override cleared",
		zap.String("store_id", storeID.String()))
	s.notifyRateChange(ctx, func(ctx context.Context) error {
		return s.notifier.PublishStoreChange(ctx, storeID)
	})
	return nil
}

// GetCategoryOverride returns a category's override
func (s *ConfigService) GetCategoryOverride(ctx context.Context, categoryID uuid.UUID) (*OverrideResponse, error) {
	override, err := s.categoryRepo.CategoryOverride(ctx, categoryID)
	if err != nil {
		return nil, err
	}
	resp := ToOverrideResponse(categoryID, override)
	return &resp, nil
}

// SetCategoryOverride upserts a category's commission override
func (s *ConfigService) SetCategoryOverride(ctx context.Context, categoryID uuid.UUID, req SetOverrideRequest) (*OverrideResponse, error) {
	if err := validateOverride(req); err != nil {
		return nil, err
	}
	if err := s.categoryRepo.SetOverride(ctx, categoryID, req.Percentage, req.FixedFee); err != nil {
		return nil, err
	}

	s.logger.Info("category commission override set",
		zap.String("category_id", categoryID.String()))
	s.notifyRateChange(ctx, func(ctx context.Context) error {
		return s.notifier.PublishCategoryChange(ctx, categoryID)
	})

	return s.GetCategoryOverride(ctx, categoryID)
}

// ClearCategoryOverride removes a category's override
func (s *ConfigService) ClearCategoryOverride(ctx context.Context, categoryID uuid.UUID) error {
	if err := s.categoryRepo.ClearOverride(ctx, categoryID); err != nil {
		return err
	}
	s.logger.Info("category commission override cleared",
		zap.String("category_id", categoryID.String()))
	s.notifyRateChange(ctx, func(ctx context.Context) error {
		return s.notifier.PublishCategoryChange(ctx, categoryID)
	})
	return nil
}

// validateOverride rejects out-of-range override components. An override
// with both fields nil is a no-op disguised as an update, so it is
// rejected too; ClearOverride is the way to remove one.
func validateOverride(req SetOverrideRequest) error {
	if req.Percentage == nil && req.FixedFee == nil {
		return shared.NewValidationError("EMPTY_OVERRIDE", "Override must set a percentage or a fixed fee")
	}
	if req.Percentage != nil {
		if req.Percentage.IsNegative() || req.Percentage.GreaterThan(maxPercentage) {
			return shared.NewValidationError("INVALID_PERCENTAGE", "Commission percentage must be between 0 and 100")
		}
	}
	if req.FixedFee != nil && req.FixedFee.IsNegative() {
		return shared.NewValidationError("INVALID_FIXED_FEE", "Fixed fee cannot be negative")
	}
	return nil
}

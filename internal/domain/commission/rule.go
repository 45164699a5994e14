package commission

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/markethub/backend/internal/domain/shared"
)

// Source identifies which override tier determined the applied rate
type Source string

const (
	SourceGlobal   Source = "GLOBAL"
	SourceSeller   Source = "SELLER"
	SourceCategory Source = "CATEGORY"
)

// IsValid checks if the source is a valid Source
func (s Source) IsValid() bool {
	switch s {
	case SourceGlobal, SourceSeller, SourceCategory:
		return true
	}
	return false
}

// String returns the string representation of Source
func (s Source) String() string {
	return string(s)
}

// RateOverride carries the optional percentage / fixed-fee override of a
// store or category. A nil field means "not overridden at this tier".
type RateOverride struct {
	Percentage *decimal.Decimal
	FixedFee   *decimal.Decimal
}

// IsSet reports whether the tier overrides at least one component
func (o *RateOverride) IsSet() bool {
	return o != nil && (o.Percentage != nil || o.FixedFee != nil)
}

// GlobalConfig is the single active platform-wide commission configuration
type GlobalConfig struct {
	shared.BaseEntity
	Percentage decimal.Decimal
	FixedFee   decimal.Decimal
	Active     bool
}

// TableName returns the table name for GORM
func (GlobalConfig) TableName() string {
	return "commission_global_configs"
}

// NewGlobalConfig creates a new global commission configuration
func NewGlobalConfig(percentage, fixedFee decimal.Decimal) (*GlobalConfig, error) {
	if percentage.IsNegative() || percentage.GreaterThan(decimal.NewFromInt(100)) {
		return nil, shared.NewValidationError("INVALID_PERCENTAGE", "Commission percentage must be between 0 and 100")
	}
	if fixedFee.IsNegative() {
		return nil, shared.NewValidationError("INVALID_FIXED_FEE", "Fixed fee cannot be negative")
	}
	return &GlobalConfig{
		BaseEntity: shared.NewBaseEntity(),
		Percentage: percentage,
		FixedFee:   fixedFee,
		Active:     true,
	}, nil
}

// StoreRateLookup reads a store's commission override fields. The store
// catalog itself lives outside the settlement core.
type StoreRateLookup interface {
	StoreOverride(ctx context.Context, storeID uuid.UUID) (*RateOverride, error)
}

// CategoryRateLookup reads a category's commission override fields
type CategoryRateLookup interface {
	CategoryOverride(ctx context.Context, categoryID uuid.UUID) (*RateOverride, error)
}

// GlobalRateLookup reads the single active global configuration; nil result
// means no configuration exists
type GlobalRateLookup interface {
	ActiveGlobalConfig(ctx context.Context) (*GlobalConfig, error)
}

// Resolution is the outcome of resolving the effective commission for a
// gross amount
type Resolution struct {
	Amount            decimal.Decimal
	Percentage        decimal.Decimal
	FixedFee          decimal.Decimal
	Source            Source
	AppliedCategoryID *uuid.UUID
}

// RuleResolver resolves the effective commission for a (store, category)
// pair using the override priority category > seller > global.
type RuleResolver struct {
	stores     StoreRateLookup
	categories CategoryRateLookup
	global     GlobalRateLookup
	logger     *zap.Logger
}

// NewRuleResolver creates a new RuleResolver
func NewRuleResolver(stores StoreRateLookup, categories CategoryRateLookup, global GlobalRateLookup, logger *zap.Logger) *RuleResolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RuleResolver{
		stores:     stores,
		categories: categories,
		global:     global,
		logger:     logger,
	}
}

// Resolve computes the commission for the gross amount. First match wins:
// category override, then store override, then the active global
// configuration. A missing global configuration resolves to zero commission
// with a logged warning; refund and payment flows must not be blocked by a
// configuration gap.
func (r *RuleResolver) Resolve(ctx context.Context, gross decimal.Decimal, storeID uuid.UUID, categoryID *uuid.UUID) (Resolution, error) {
	if gross.IsNegative() {
		return Resolution{}, shared.NewValidationError("INVALID_AMOUNT", "Gross amount cannot be negative")
	}
	if storeID == uuid.Nil {
		return Resolution{}, shared.NewValidationError("INVALID_STORE", "Store ID cannot be empty")
	}

	if categoryID != nil {
		override, err := r.categories.CategoryOverride(ctx, *categoryID)
		if err != nil {
			return Resolution{}, err
		}
		if override.IsSet() {
			return r.resolution(gross, override, SourceCategory, categoryID), nil
		}
	}

	override, err := r.stores.StoreOverride(ctx, storeID)
	if err != nil {
		return Resolution{}, err
	}
	if override.IsSet() {
		return r.resolution(gross, override, SourceSeller, nil), nil
	}

	cfg, err := r.global.ActiveGlobalConfig(ctx)
	if err != nil {
		return Resolution{}, err
	}
	if cfg == nil {
		r.logger.Warn("no active global commission configuration, applying zero commission",
			zap.String("store_id", storeID.String()))
		return Resolution{
			Amount:     decimal.Zero,
			Percentage: decimal.Zero,
			FixedFee:   decimal.Zero,
			Source:     SourceGlobal,
		}, nil
	}

	globalOverride := &RateOverride{Percentage: &cfg.Percentage, FixedFee: &cfg.FixedFee}
	return r.resolution(gross, globalOverride, SourceGlobal, nil), nil
}

func (r *RuleResolver) resolution(gross decimal.Decimal, override *RateOverride, source Source, categoryID *uuid.UUID) Resolution {
	pct := decimal.Zero
	if override.Percentage != nil {
		pct = *override.Percentage
	}
	fee := decimal.Zero
	if override.FixedFee != nil {
		fee = *override.FixedFee
	}

	return Resolution{
		Amount:            CommissionAmount(gross, pct, fee),
		Percentage:        pct,
		FixedFee:          fee,
		Source:            source,
		AppliedCategoryID: categoryID,
	}
}

// CommissionAmount computes round(gross * pct/100 + fixedFee, 2) with
// half-away-from-zero rounding.
func CommissionAmount(gross, percentage, fixedFee decimal.Decimal) decimal.Decimal {
	return gross.Mul(percentage).Div(decimal.NewFromInt(100)).Add(fixedFee).Round(2)
}

package commission

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/markethub/backend/internal/domain/commission"
	"github.com/markethub/backend/internal/domain/shared"
)

// MockGlobalConfigRepository is a mock implementation of GlobalConfigRepository
type MockGlobalConfigRepository struct {
	mock.Mock
}

func (m *MockGlobalConfigRepository) ActiveGlobalConfig(ctx context.Context) (*commission.GlobalConfig, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*commission.GlobalConfig), args.Error(1)
}

func (m *MockGlobalConfigRepository) Save(ctx context.Context, cfg *commission.GlobalConfig) error {
	args := m.Called(ctx, cfg)
	return args.Error(0)
}

// MockStoreRateRepository is a mock implementation of StoreRateRepository
type MockStoreRateRepository struct {
	mock.Mock
}

func (m *MockStoreRateRepository) StoreOverride(ctx context.Context, storeID uuid.UUID) (*commission.RateOverride, error) {
	args := m.Called(ctx, storeID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*commission.RateOverride), args.Error(1)
}

func (m *MockStoreRateRepository) SetOverride(ctx context.Context, storeID uuid.UUID, percentage, fixedFee *decimal.Decimal) error {
	args := m.Called(ctx, storeID, percentage, fixedFee)
	return args.Error(0)
}

func (m *MockStoreRateRepository) ClearOverride(ctx context.Context, storeID uuid.UUID) error {
	args := m.Called(ctx, storeID)
	return args.Error(0)
}

// MockCategoryRateRepository is a mock implementation of CategoryRateRepository
type MockCategoryRateRepository struct {
	mock.Mock
}

func (m *MockCategoryRateRepository) CategoryOverride(ctx context.Context, categoryID uuid.UUID) (*commission.RateOverride, error) {
	args := m.Called(ctx, categoryID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*commission.RateOverride), args.Error(1)
}

func (m *MockCategoryRateRepository) SetOverride(ctx context.Context, categoryID uuid.UUID, percentage, fixedFee *decimal.Decimal) error {
	args := m.Called(ctx, categoryID, percentage, fixedFee)
	return args.Error(0)
}

func (m *MockCategoryRateRepository) ClearOverride(ctx context.Context, categoryID uuid.UUID) error {
	args := m.Called(ctx, categoryID)
	return args.Error(0)
}

func newTestConfigService() (*ConfigService, *MockGlobalConfigRepository, *MockStoreRateRepository, *MockCategoryRateRepository) {
	globalRepo := new(MockGlobalConfigRepository)
	storeRepo := new(MockStoreRateRepository)
	categoryRepo := new(MockCategoryRateRepository)
	svc := NewConfigService(globalRepo, storeRepo, categoryRepo, zap.NewNop())
	return svc, globalRepo, storeRepo, categoryRepo
}

func TestConfigService_GetGlobalConfig(t *testing.T) {
	t.Run("returns active config", func(t *testing.T) {
		svc, globalRepo, _, _ := newTestConfigService()

		cfg, err := commission.NewGlobalConfig(decimal.NewFromInt(10), decimal.Zero)
		require.NoError(t, err)
		globalRepo.On("ActiveGlobalConfig", mock.Anything).Return(cfg, nil)

		resp, err := svc.GetGlobalConfig(context.Background())
		require.NoError(t, err)
		assert.True(t, resp.Percentage.Equal(decimal.NewFromInt(10)))
		assert.True(t, resp.Active)
	})

	t.Run("not found when no config exists", func(t *testing.T) {
		svc, globalRepo, _, _ := newTestConfigService()
		globalRepo.On("ActiveGlobalConfig", mock.Anything).Return(nil, nil)

		_, err := svc.GetGlobalConfig(context.Background())
		var domainErr *shared.DomainError
		require.ErrorAs(t, err, &domainErr)
		assert.Equal(t, shared.ErrorKindNotFound, domainErr.Kind)
	})
}

func TestConfigService_SetGlobalConfig(t *testing.T) {
	t.Run("saves a new active config", func(t *testing.T) {
		svc, globalRepo, _, _ := newTestConfigService()

		var saved *commission.GlobalConfig
		globalRepo.On("Save", mock.Anything, mock.AnythingOfType("*commission.GlobalConfig")).
			Run(func(args mock.Arguments) { saved = args.Get(1).(*commission.GlobalConfig) }).
			Return(nil)

		resp, err := svc.SetGlobalConfig(context.Background(), SetGlobalConfigRequest{
			Percentage: decimal.NewFromInt(12),
			FixedFee:   decimal.NewFromFloat(0.5),
		})
		require.NoError(t, err)
		assert.True(t, resp.Active)

		require.NotNil(t, saved)
		assert.True(t, saved.Active)
		assert.True(t, saved.Percentage.Equal(decimal.NewFromInt(12)))
		globalRepo.AssertExpectations(t)
	})

	t.Run("rejects percentage above 100", func(t *testing.T) {
		svc, globalRepo, _, _ := newTestConfigService()

		_, err := svc.SetGlobalConfig(context.Background(), SetGlobalConfigRequest{
			Percentage: decimal.NewFromInt(150),
		})
		assert.Error(t, err)
		globalRepo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
	})
}

func TestConfigService_StoreOverride(t *testing.T) {
	storeID := uuid.New()
	pct := decimal.NewFromInt(8)

	t.Run("sets override", func(t *testing.T) {
		svc, _, storeRepo, _ := newTestConfigService()

		storeRepo.On("SetOverride", mock.Anything, storeID, &pct, (*decimal.Decimal)(nil)).Return(nil)
		storeRepo.On("StoreOverride", mock.Anything, storeID).
			Return(&commission.RateOverride{Percentage: &pct}, nil)

		resp, err := svc.SetStoreOverride(context.Background(), storeID, SetOverrideRequest{Percentage: &pct})
		require.NoError(t, err)
		assert.True(t, resp.IsSet)
		require.NotNil(t, resp.Percentage)
		assert.True(t, resp.Percentage.Equal(pct))
		storeRepo.AssertExpectations(t)
	})

	t.Run("rejects empty override", func(t *testing.T) {
		svc, _, storeRepo, _ := newTestConfigService()

		_, err := svc.SetStoreOverride(context.Background(), storeID, SetOverrideRequest{})
		assert.Error(t, err)
		storeRepo.AssertNotCalled(t, "SetOverride", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("rejects negative fixed fee", func(t *testing.T) {
		svc, _, storeRepo, _ := newTestConfigService()
		negative := decimal.NewFromInt(-1)

		_, err := svc.SetStoreOverride(context.Background(), storeID, SetOverrideRequest{FixedFee: &negative})
		assert.Error(t, err)
		storeRepo.AssertNotCalled(t, "SetOverride", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("clears override", func(t *testing.T) {
		svc, _, storeRepo, _ := newTestConfigService()
		storeRepo.On("ClearOverride", mock.Anything, storeID).Return(nil)

		err := svc.ClearStoreOverride(context.Background(), storeID)
		require.NoError(t, err)
		storeRepo.AssertExpectations(t)
	})

	t.Run("missing override reads as not set", func(t *testing.T) {
		svc, _, storeRepo, _ := newTestConfigService()
		storeRepo.On("StoreOverride", mock.Anything, storeID).
			Return(&commission.RateOverride{}, nil)

		resp, err := svc.GetStoreOverride(context.Background(), storeID)
		require.NoError(t, err)
		assert.False(t, resp.IsSet)
	})
}

func TestConfigService_CategoryOverride(t *testing.T) {
	categoryID := uuid.New()
	fee := decimal.NewFromInt(2)

	t.Run("sets override", func(t *testing.T) {
		svc, _, _, categoryRepo := newTestConfigService()

		categoryRepo.On("SetOverride", mock.Anything, categoryID, (*decimal.Decimal)(nil), &fee).Return(nil)
		categoryRepo.On("CategoryOverride", mock.Anything, categoryID).
			Return(&commission.RateOverride{FixedFee: &fee}, nil)

		resp, err := svc.SetCategoryOverride(context.Background(), categoryID, SetOverrideRequest{FixedFee: &fee})
		require.NoError(t, err)
		assert.True(t, resp.IsSet)
		categoryRepo.AssertExpectations(t)
	})

	t.Run("clears override", func(t *testing.T) {
		svc, _, _, categoryRepo := newTestConfigService()
		categoryRepo.On("ClearOverride", mock.Anything, categoryID).Return(nil)

		err := svc.ClearCategoryOverride(context.Background(), categoryID)
		require.NoError(t, err)
		categoryRepo.AssertExpectations(t)
	})
}

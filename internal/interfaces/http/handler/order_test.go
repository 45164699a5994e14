package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	orderingapp "github.com/markethub/backend/internal/application/ordering"
	"github.com/markethub/backend/internal/domain/ordering"
	"github.com/markethub/backend/internal/domain/shared"
	"github.com/markethub/backend/internal/interfaces/http/dto"
)

// MockOrderRepository implements ordering.OrderRepository for testing
type MockOrderRepository struct {
	mock.Mock
}

func (m *MockOrderRepository) FindByID(ctx context.Context, id uuid.UUID) (*ordering.Order, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ordering.Order), args.Error(1)
}

func (m *MockOrderRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*ordering.Order, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ordering.Order), args.Error(1)
}

func (m *MockOrderRepository) FindByOrderNumber(ctx context.Context, orderNumber string) (*ordering.Order, error) {
	args := m.Called(ctx, orderNumber)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ordering.Order), args.Error(1)
}

func (m *MockOrderRepository) FindBySubOrderID(ctx context.Context, subOrderID uuid.UUID) (*ordering.Order, error) {
	args := m.Called(ctx, subOrderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ordering.Order), args.Error(1)
}

func (m *MockOrderRepository) FindBySubOrderIDForUpdate(ctx context.Context, subOrderID uuid.UUID) (*ordering.Order, error) {
	args := m.Called(ctx, subOrderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ordering.Order), args.Error(1)
}

func (m *MockOrderRepository) FindPlacedInPeriod(ctx context.Context, storeID uuid.UUID, from, to time.Time) ([]ordering.Order, error) {
	args := m.Called(ctx, storeID, from, to)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]ordering.Order), args.Error(1)
}

func (m *MockOrderRepository) FindAll(ctx context.Context, filter shared.Filter) ([]ordering.Order, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]ordering.Order), args.Error(1)
}

func (m *MockOrderRepository) Save(ctx context.Context, order *ordering.Order) error {
	args := m.Called(ctx, order)
	return args.Error(0)
}

func (m *MockOrderRepository) SaveWithLock(ctx context.Context, order *ordering.Order) error {
	args := m.Called(ctx, order)
	return args.Error(0)
}

func (m *MockOrderRepository) Count(ctx context.Context, filter shared.Filter) (int64, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockOrderRepository) NextOrderNumber(ctx context.Context) (string, error) {
	args := m.Called(ctx)
	return args.String(0), args.Error(1)
}

// MockStatusHistoryRepository implements ordering.StatusHistoryRepository for testing
type MockStatusHistoryRepository struct {
	mock.Mock
}

func (m *MockStatusHistoryRepository) Save(ctx context.Context, records ...*ordering.StatusHistory) error {
	args := m.Called(ctx, records)
	return args.Error(0)
}

func (m *MockStatusHistoryRepository) FindBySubOrder(ctx context.Context, subOrderID uuid.UUID) ([]ordering.StatusHistory, error) {
	args := m.Called(ctx, subOrderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]ordering.StatusHistory), args.Error(1)
}

func (m *MockStatusHistoryRepository) FindByOrder(ctx context.Context, orderID uuid.UUID) ([]ordering.StatusHistory, error) {
	args := m.Called(ctx, orderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]ordering.StatusHistory), args.Error(1)
}

func newOrderTestHandler(orderRepo *MockOrderRepository, historyRepo *MockStatusHistoryRepository) *OrderHandler {
	service := orderingapp.NewOrderService(orderRepo, historyRepo, nil, nil, nil, nil)
	return NewOrderHandler(service)
}

func newTestOrder(t *testing.T) *ordering.Order {
	t.Helper()
	order, err := ordering.NewOrder("ORD-2026-00001", uuid.New(), time.Now())
	require.NoError(t, err)
	return order
}

func TestOrderHandler_GetByID(t *testing.T) {
	orderRepo := new(MockOrderRepository)
	historyRepo := new(MockStatusHistoryRepository)
	h := newOrderTestHandler(orderRepo, historyRepo)

	order := newTestOrder(t)
	orderRepo.On("FindByID", mock.Anything, order.ID).Return(order, nil)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/orders/"+order.ID.String(), nil)
	c.Params = gin.Params{{Key: "id", Value: order.ID.String()}}

	h.GetByID(c)

	assert.Equal(t, http.StatusOK, w.Code)

	var resp dto.Response
	err := json.Unmarshal(w.Body.Bytes(), &resp)
	require.NoError(t, err)
	assert.True(t, resp.Success)

	data := resp.Data.(map[string]interface{})
	assert.Equal(t, "ORD-2026-00001", data["order_number"])
	assert.Equal(t, string(ordering.OrderStatusNew), data["status"])
	orderRepo.AssertExpectations(t)
}

func TestOrderHandler_GetByID_InvalidID(t *testing.T) {
	h := newOrderTestHandler(new(MockOrderRepository), new(MockStatusHistoryRepository))

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/orders/not-a-uuid", nil)
	c.Params = gin.Params{{Key: "id", Value: "not-a-uuid"}}

	h.GetByID(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestOrderHandler_GetByID_NotFound(t *testing.T) {
	orderRepo := new(MockOrderRepository)
	h := newOrderTestHandler(orderRepo, new(MockStatusHistoryRepository))

	orderID := uuid.New()
	orderRepo.On("FindByID", mock.Anything, orderID).Return(nil, nil)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/orders/"+orderID.String(), nil)
	c.Params = gin.Params{{Key: "id", Value: orderID.String()}}

	h.GetByID(c)

	assert.Equal(t, http.StatusNotFound, w.Code)

	var resp dto.Response
	err := json.Unmarshal(w.Body.Bytes(), &resp)
	require.NoError(t, err)
	assert.False(t, resp.Success)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "ORDER_NOT_FOUND", resp.Error.Code)
}

func TestOrderHandler_GetByOrderNumber(t *testing.T) {
	orderRepo := new(MockOrderRepository)
	h := newOrderTestHandler(orderRepo, new(MockStatusHistoryRepository))

	order := newTestOrder(t)
	orderRepo.On("FindByOrderNumber", mock.Anything, order.OrderNumber).Return(order, nil)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/orders/number/"+order.OrderNumber, nil)
	c.Params = gin.Params{{Key: "order_number", Value: order.OrderNumber}}

	h.GetByOrderNumber(c)

	assert.Equal(t, http.StatusOK, w.Code)
	orderRepo.AssertExpectations(t)
}

func TestOrderHandler_Place_InvalidBody(t *testing.T) {
	h := newOrderTestHandler(new(MockOrderRepository), new(MockStatusHistoryRepository))

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, "/orders", bytes.NewBufferString(`{"buyer_id":"not-a-uuid"}`))
	c.Request.Header.Set("Content-Type", "application/json")

	h.Place(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)

	var resp dto.Response
	err := json.Unmarshal(w.Body.Bytes(), &resp)
	require.NoError(t, err)
	assert.False(t, resp.Success)
}

func TestOrderHandler_GetSubOrderHistory(t *testing.T) {
	orderRepo := new(MockOrderRepository)
	historyRepo := new(MockStatusHistoryRepository)
	h := newOrderTestHandler(orderRepo, historyRepo)

	subOrderID := uuid.New()
	historyRepo.On("FindBySubOrder", mock.Anything, subOrderID).Return([]ordering.StatusHistory{}, nil)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/sub-orders/"+subOrderID.String()+"/history", nil)
	c.Params = gin.Params{{Key: "id", Value: subOrderID.String()}}

	h.GetSubOrderHistory(c)

	assert.Equal(t, http.StatusOK, w.Code)
	historyRepo.AssertExpectations(t)
}

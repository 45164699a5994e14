package ordering

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/markethub/backend/internal/domain/ordering"
	"github.com/markethub/backend/internal/domain/payment"
	"github.com/markethub/backend/internal/domain/shared"
)

// MockOrderRepository is a mock implementation of OrderRepository
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

// MockStatusHistoryRepository is a mock implementation of StatusHistoryRepository
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

// MockEscrowRepository is a mock implementation of EscrowRepository
type MockEscrowRepository struct {
	mock.Mock
}

func (m *MockEscrowRepository) FindByID(ctx context.Context, id uuid.UUID) (*payment.EscrowTransaction, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*payment.EscrowTransaction), args.Error(1)
}

func (m *MockEscrowRepository) FindBySubOrderID(ctx context.Context, subOrderID uuid.UUID) (*payment.EscrowTransaction, error) {
	args := m.Called(ctx, subOrderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*payment.EscrowTransaction), args.Error(1)
}

func (m *MockEscrowRepository) FindBySubOrderIDForUpdate(ctx context.Context, subOrderID uuid.UUID) (*payment.EscrowTransaction, error) {
	args := m.Called(ctx, subOrderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*payment.EscrowTransaction), args.Error(1)
}

func (m *MockEscrowRepository) FindByStoreInPeriod(ctx context.Context, storeID uuid.UUID, from, to time.Time) ([]payment.EscrowTransaction, error) {
	args := m.Called(ctx, storeID, from, to)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]payment.EscrowTransaction), args.Error(1)
}

func (m *MockEscrowRepository) SummarizeStorePeriod(ctx context.Context, storeID uuid.UUID, from, to time.Time) (payment.EscrowPeriodSummary, error) {
	args := m.Called(ctx, storeID, from, to)
	return args.Get(0).(payment.EscrowPeriodSummary), args.Error(1)
}

func (m *MockEscrowRepository) Save(ctx context.Context, escrow *payment.EscrowTransaction) error {
	args := m.Called(ctx, escrow)
	return args.Error(0)
}

func (m *MockEscrowRepository) SaveWithLock(ctx context.Context, escrow *payment.EscrowTransaction) error {
	args := m.Called(ctx, escrow)
	return args.Error(0)
}

// MockCommissionRecorder is a mock implementation of CommissionRecorder
type MockCommissionRecorder struct {
	mock.Mock
}

func (m *MockCommissionRecorder) RecordInitial(ctx context.Context, escrowID, storeID uuid.UUID, categoryID *uuid.UUID, gross decimal.Decimal, notes string) (decimal.Decimal, error) {
	args := m.Called(ctx, escrowID, storeID, categoryID, gross, notes)
	return args.Get(0).(decimal.Decimal), args.Error(1)
}

// passthroughTxManager runs the function without a real transaction
type passthroughTxManager struct{}

func (passthroughTxManager) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type orderServiceFixture struct {
	orders      *MockOrderRepository
	history     *MockStatusHistoryRepository
	escrows     *MockEscrowRepository
	commissions *MockCommissionRecorder
	service     *OrderService
}

func newOrderServiceFixture() *orderServiceFixture {
	f := &orderServiceFixture{
		orders:      new(MockOrderRepository),
		history:     new(MockStatusHistoryRepository),
		escrows:     new(MockEscrowRepository),
		commissions: new(MockCommissionRecorder),
	}
	f.service = NewOrderService(f.orders, f.history, f.escrows, f.commissions, passthroughTxManager{}, nil)
	return f
}

func buildPlacedOrder(t *testing.T) *ordering.Order {
	order, err := ordering.NewOrder("ORD-2026-0001", uuid.New(), time.Now())
	require.NoError(t, err)
	so, err := order.AddSubOrder(uuid.New())
	require.NoError(t, err)
	_, err = order.AddItem(so.ID, uuid.New(), "Widget", nil, 2, decimal.NewFromInt(100), decimal.Zero)
	require.NoError(t, err)
	return order
}

func TestOrderService_PlaceOrder(t *testing.T) {
	f := newOrderServiceFixture()
	f.orders.On("NextOrderNumber", mock.Anything).Return("ORD-2026-0042", nil)
	f.orders.On("Save", mock.Anything, mock.AnythingOfType("*ordering.Order")).Return(nil)

	storeID := uuid.New()
	resp, err := f.service.PlaceOrder(context.Background(), PlaceOrderRequest{
		BuyerID: uuid.New(),
		Stores: []PlaceOrderStore{{
			StoreID: storeID,
			Items: []PlaceOrderItem{{
				ProductID:   uuid.New(),
				ProductName: "Widget",
				Quantity:    2,
				UnitPrice:   decimal.NewFromInt(100),
			}},
		}},
	})
	require.NoError(t, err)
	assert.Equal(t, "ORD-2026-0042", resp.OrderNumber)
	require.Len(t, resp.SubOrders, 1)
	assert.Equal(t, storeID, resp.SubOrders[0].StoreID)
	assert.Equal(t, "NEW", resp.SubOrders[0].Status)
	f.orders.AssertExpectations(t)
}

func TestOrderService_MarkOrderPaid(t *testing.T) {
	f := newOrderServiceFixture()
	order := buildPlacedOrder(t)
	storeID := order.SubOrders[0].StoreID

	f.orders.On("FindByIDForUpdate", mock.Anything, order.ID).Return(order, nil)
	f.orders.On("SaveWithLock", mock.Anything, order).Return(nil)
	f.history.On("Save", mock.Anything, mock.Anything).Return(nil)
	f.commissions.On("RecordInitial", mock.Anything, mock.Anything, storeID, mock.Anything,
		mock.Anything, mock.Anything).Return(decimal.NewFromInt(20), nil)

	var savedEscrow *payment.EscrowTransaction
	f.escrows.On("Save", mock.Anything, mock.AnythingOfType("*payment.EscrowTransaction")).
		Run(func(args mock.Arguments) { savedEscrow = args.Get(1).(*payment.EscrowTransaction) }).
		Return(nil)

	resp, err := f.service.MarkOrderPaid(context.Background(), order.ID, MarkOrderPaidRequest{
		TransactionRef: "pay_789",
		Actor:          "payments-webhook",
	})
	require.NoError(t, err)
	assert.Equal(t, "COMPLETED", resp.PaymentStatus)
	assert.Equal(t, "PAID", resp.SubOrders[0].Status)

	require.NotNil(t, savedEscrow)
	assert.Equal(t, "pay_789", savedEscrow.TransactionRef)
	assert.True(t, savedEscrow.GrossAmount.Equal(decimal.NewFromInt(200)))
	assert.True(t, savedEscrow.CommissionAmount.Equal(decimal.NewFromInt(20)))
	// net = 200 - 20
	assert.True(t, savedEscrow.NetAmount.Equal(decimal.NewFromInt(180)))
	f.escrows.AssertExpectations(t)
	f.commissions.AssertExpectations(t)
}

func TestOrderService_MarkOrderPaid_RequiresTransactionRef(t *testing.T) {
	f := newOrderServiceFixture()
	_, err := f.service.MarkOrderPaid(context.Background(), uuid.New(), MarkOrderPaidRequest{})
	assert.Error(t, err)
	f.orders.AssertNotCalled(t, "FindByIDForUpdate", mock.Anything, mock.Anything)
}

func TestOrderService_TransitionSubOrder(t *testing.T) {
	f := newOrderServiceFixture()
	order := buildPlacedOrder(t)
	_, err := order.MarkPaymentCompleted()
	require.NoError(t, err)
	subOrderID := order.SubOrders[0].ID

	f.orders.On("FindBySubOrderIDForUpdate", mock.Anything, subOrderID).Return(order, nil)
	f.orders.On("SaveWithLock", mock.Anything, order).Return(nil)

	var savedRecords []*ordering.StatusHistory
	f.history.On("Save", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) { savedRecords = args.Get(1).([]*ordering.StatusHistory) }).
		Return(nil)

	resp, err := f.service.TransitionSubOrder(context.Background(), subOrderID, TransitionRequest{
		Target: "PREPARING",
		Actor:  "store-ops",
	})
	require.NoError(t, err)
	assert.Equal(t, "PREPARING", resp.SubOrders[0].Status)
	require.Len(t, savedRecords, 1)
	assert.Equal(t, ordering.SubOrderStatusPaid, savedRecords[0].PreviousStatus)
	assert.Equal(t, ordering.SubOrderStatusPreparing, savedRecords[0].NewStatus)
	assert.Equal(t, "store-ops", savedRecords[0].Actor)
}

func TestOrderService_TransitionSubOrder_NoOpWritesNoHistory(t *testing.T) {
	f := newOrderServiceFixture()
	order := buildPlacedOrder(t)
	_, err := order.MarkPaymentCompleted()
	require.NoError(t, err)
	subOrderID := order.SubOrders[0].ID

	f.orders.On("FindBySubOrderIDForUpdate", mock.Anything, subOrderID).Return(order, nil)

	_, err = f.service.TransitionSubOrder(context.Background(), subOrderID, TransitionRequest{Target: "PAID"})
	require.NoError(t, err)
	f.orders.AssertNotCalled(t, "SaveWithLock", mock.Anything, mock.Anything)
	f.history.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
}

func TestOrderService_TransitionSubOrder_UnknownStatus(t *testing.T) {
	f := newOrderServiceFixture()
	_, err := f.service.TransitionSubOrder(context.Background(), uuid.New(), TransitionRequest{Target: "TELEPORTED"})
	assert.Error(t, err)
}

func TestOrderService_ShipItems_RecordsEachHop(t *testing.T) {
	f := newOrderServiceFixture()
	order := buildPlacedOrder(t)
	_, err := order.MarkPaymentCompleted()
	require.NoError(t, err)
	subOrderID := order.SubOrders[0].ID
	itemID := order.SubOrders[0].Items[0].ID

	f.orders.On("FindBySubOrderIDForUpdate", mock.Anything, subOrderID).Return(order, nil)
	f.orders.On("SaveWithLock", mock.Anything, order).Return(nil)

	var savedRecords []*ordering.StatusHistory
	f.history.On("Save", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) { savedRecords = args.Get(1).([]*ordering.StatusHistory) }).
		Return(nil)

	resp, err := f.service.ShipItems(context.Background(), subOrderID, ItemQuantitiesRequest{
		Items: []ItemQuantityLine{{ItemID: itemID, Quantity: 2}},
		Actor: "store-ops",
	})
	require.NoError(t, err)
	assert.Equal(t, "SHIPPED", resp.SubOrders[0].Status)
	// PAID -> PREPARING -> SHIPPED leaves two records.
	require.Len(t, savedRecords, 2)
	assert.Equal(t, ordering.SubOrderStatusPreparing, savedRecords[0].NewStatus)
	assert.Equal(t, ordering.SubOrderStatusShipped, savedRecords[1].NewStatus)
}

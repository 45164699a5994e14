package ordering

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/markethub/backend/internal/domain/ordering"
	"github.com/markethub/backend/internal/domain/payment"
	"github.com/markethub/backend/internal/domain/shared"
	"github.com/markethub/backend/internal/infrastructure/telemetry"
)

// CommissionRecorder appends the initial commission record for a freshly
// opened escrow transaction and returns the charged amount
type CommissionRecorder interface {
	RecordInitial(ctx context.Context, escrowID, storeID uuid.UUID, categoryID *uuid.UUID, gross decimal.Decimal, notes string) (decimal.Decimal, error)
}

// OrderService drives the order and sub-order lifecycle
type OrderService struct {
	orderRepo      ordering.OrderRepository
	historyRepo    ordering.StatusHistoryRepository
	escrowRepo     payment.EscrowRepository
	commissions    CommissionRecorder
	txManager      shared.TransactionManager
	eventPublisher shared.EventPublisher
	logger         *zap.Logger
}

// NewOrderService creates a new OrderService
func NewOrderService(
	orderRepo ordering.OrderRepository,
	historyRepo ordering.StatusHistoryRepository,
	escrowRepo payment.EscrowRepository,
	commissions CommissionRecorder,
	txManager shared.TransactionManager,
	logger *zap.Logger,
) *OrderService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &OrderService{
		orderRepo:   orderRepo,
		historyRepo: historyRepo,
		escrowRepo:  escrowRepo,
		commissions: commissions,
		txManager:   txManager,
		logger:      logger,
	}
}

// SetEventPublisher sets the event publisher for cross-context integration
func (s *OrderService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// PlaceOrder creates a new order with one sub-order per store
func (s *OrderService) PlaceOrder(ctx context.Context, req PlaceOrderRequest) (*OrderResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "OrderService", "PlaceOrder")
	defer span.End()

	orderNumber, err := s.orderRepo.NextOrderNumber(ctx)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	order, err := ordering.NewOrder(orderNumber, req.BuyerID, req.PlacedAt)
	if err != nil {
		return nil, err
	}

	for _, part := range req.Stores {
		subOrder, err := order.AddSubOrder(part.StoreID)
		if err != nil {
			return nil, err
		}
		for _, item := range part.Items {
			if _, err := order.AddItem(subOrder.ID, item.ProductID, item.ProductName,
				item.CategoryID, item.Quantity, item.UnitPrice, item.TaxAmount); err != nil {
				return nil, err
			}
		}
	}

	if err := s.orderRepo.Save(ctx, order); err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	s.publishEvents(ctx, order)

	s.logger.Info("order placed",
		zap.String("order_number", order.OrderNumber),
		zap.Int("sub_orders", len(order.SubOrders)))
	response := ToOrderResponse(order)
	return &response, nil
}

// MarkOrderPaid completes the order's payment: every sub-order moves to
// PAID, money is captured into one escrow transaction per sub-order, and
// the initial commission is recorded against each escrow. Runs in a single
// transaction.
func (s *OrderService) MarkOrderPaid(ctx context.Context, orderID uuid.UUID, req MarkOrderPaidRequest) (*OrderResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "OrderService", "MarkOrderPaid")
	defer span.End()

	if req.TransactionRef == "" {
		return nil, shared.NewValidationError("INVALID_TRANSACTION_REF", "Transaction reference is required")
	}

	var order *ordering.Order
	err := s.txManager.Do(ctx, func(ctx context.Context) error {
		var err error
		order, err = s.orderRepo.FindByIDForUpdate(ctx, orderID)
		if err != nil {
			return err
		}
		if order == nil {
			return shared.NewNotFoundError("ORDER_NOT_FOUND", "Order not found")
		}

		changes, err := order.MarkPaymentCompleted()
		if err != nil {
			return err
		}
		if err := s.orderRepo.SaveWithLock(ctx, order); err != nil {
			return err
		}
		if err := s.saveHistory(ctx, order.ID, changes, "payment completed", req.Actor); err != nil {
			return err
		}

		for i := range order.SubOrders {
			subOrder := &order.SubOrders[i]
			escrow, err := payment.NewEscrowTransaction(subOrder.StoreID, order.ID, subOrder.ID,
				req.TransactionRef, subOrder.TotalAmount)
			if err != nil {
				return err
			}

			notes := fmt.Sprintf("Order %s paid", order.OrderNumber)
			amount, err := s.commissions.RecordInitial(ctx, escrow.ID, subOrder.StoreID,
				subOrder.CommissionCategoryID(), subOrder.TotalAmount, notes)
			if err != nil {
				return err
			}
			if err := escrow.ApplyCommission(amount); err != nil {
				return err
			}
			if err := s.escrowRepo.Save(ctx, escrow); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	s.publishEvents(ctx, order)

	s.logger.Info("order payment completed", zap.String("order_number", order.OrderNumber))
	response := ToOrderResponse(order)
	return &response, nil
}

// TransitionSubOrder moves a sub-order along the lifecycle graph. Same-state
// requests are accepted as no-ops and leave no history record.
func (s *OrderService) TransitionSubOrder(ctx context.Context, subOrderID uuid.UUID, req TransitionRequest) (*OrderResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "OrderService", "TransitionSubOrder")
	defer span.End()

	target := ordering.SubOrderStatus(req.Target)
	if !target.IsValid() {
		return nil, shared.NewValidationError("INVALID_STATUS", fmt.Sprintf("Unknown sub-order status %q", req.Target))
	}

	var order *ordering.Order
	err := s.txManager.Do(ctx, func(ctx context.Context) error {
		var err error
		order, err = s.orderRepo.FindBySubOrderIDForUpdate(ctx, subOrderID)
		if err != nil {
			return err
		}
		if order == nil {
			return shared.NewNotFoundError("SUBORDER_NOT_FOUND", "Sub-order not found")
		}

		changed, change, err := order.TransitionSubOrder(subOrderID, target)
		if err != nil {
			return err
		}
		if !changed {
			return nil
		}
		if err := s.orderRepo.SaveWithLock(ctx, order); err != nil {
			return err
		}
		return s.saveHistory(ctx, order.ID, []ordering.StatusChange{change}, req.Notes, req.Actor)
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	s.publishEvents(ctx, order)

	response := ToOrderResponse(order)
	return &response, nil
}

// ShipItems records shipped quantities on a sub-order's items and rolls the
// sub-order status forward, one valid edge per history record
func (s *OrderService) ShipItems(ctx context.Context, subOrderID uuid.UUID, req ItemQuantitiesRequest) (*OrderResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "OrderService", "ShipItems")
	defer span.End()
	return s.fulfillItems(ctx, subOrderID, req, "items shipped",
		func(order *ordering.Order, itemID uuid.UUID, qty int) ([]ordering.StatusChange, error) {
			return order.ShipItem(subOrderID, itemID, qty)
		})
}

// CancelItems records cancelled quantities on a sub-order's items and derives
// the resulting sub-order status
func (s *OrderService) CancelItems(ctx context.Context, subOrderID uuid.UUID, req ItemQuantitiesRequest) (*OrderResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "OrderService", "CancelItems")
	defer span.End()
	return s.fulfillItems(ctx, subOrderID, req, "items cancelled",
		func(order *ordering.Order, itemID uuid.UUID, qty int) ([]ordering.StatusChange, error) {
			return order.CancelItem(subOrderID, itemID, qty)
		})
}

// GetOrder retrieves an order by ID
func (s *OrderService) GetOrder(ctx context.Context, orderID uuid.UUID) (*OrderResponse, error) {
	order, err := s.orderRepo.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, shared.NewNotFoundError("ORDER_NOT_FOUND", "Order not found")
	}
	response := ToOrderResponse(order)
	return &response, nil
}

// GetOrderByNumber retrieves an order by its order number
func (s *OrderService) GetOrderByNumber(ctx context.Context, orderNumber string) (*OrderResponse, error) {
	order, err := s.orderRepo.FindByOrderNumber(ctx, orderNumber)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, shared.NewNotFoundError("ORDER_NOT_FOUND", "Order not found")
	}
	response := ToOrderResponse(order)
	return &response, nil
}

// GetSubOrderHistory returns the transition history of a sub-order, oldest first
func (s *OrderService) GetSubOrderHistory(ctx context.Context, subOrderID uuid.UUID) ([]StatusHistoryResponse, error) {
	records, err := s.historyRepo.FindBySubOrder(ctx, subOrderID)
	if err != nil {
		return nil, err
	}
	return ToStatusHistoryResponses(records), nil
}

// ListOrders lists orders with filtering and pagination
func (s *OrderService) ListOrders(ctx context.Context, filter OrderListFilter) ([]OrderResponse, int64, error) {
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 {
		filter.PageSize = 20
	}

	domainFilter := shared.Filter{
		Page:     filter.Page,
		PageSize: filter.PageSize,
		OrderBy:  "placed_at",
		OrderDir: "desc",
		Search:   filter.Search,
		Filters:  make(map[string]interface{}),
	}
	if filter.BuyerID != nil {
		domainFilter.Filters["buyer_id"] = *filter.BuyerID
	}
	if filter.Status != "" {
		domainFilter.Filters["status"] = filter.Status
	}

	orders, err := s.orderRepo.FindAll(ctx, domainFilter)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.orderRepo.Count(ctx, domainFilter)
	if err != nil {
		return nil, 0, err
	}
	return ToOrderResponses(orders), total, nil
}

type fulfillFunc func(order *ordering.Order, itemID uuid.UUID, qty int) ([]ordering.StatusChange, error)

func (s *OrderService) fulfillItems(ctx context.Context, subOrderID uuid.UUID, req ItemQuantitiesRequest, notes string, apply fulfillFunc) (*OrderResponse, error) {
	if len(req.Items) == 0 {
		return nil, shared.NewValidationError("INVALID_ITEMS", "At least one item line is required")
	}

	var order *ordering.Order
	err := s.txManager.Do(ctx, func(ctx context.Context) error {
		var err error
		order, err = s.orderRepo.FindBySubOrderIDForUpdate(ctx, subOrderID)
		if err != nil {
			return err
		}
		if order == nil {
			return shared.NewNotFoundError("SUBORDER_NOT_FOUND", "Sub-order not found")
		}

		var allChanges []ordering.StatusChange
		for _, line := range req.Items {
			changes, err := apply(order, line.ItemID, line.Quantity)
			if err != nil {
				return err
			}
			allChanges = append(allChanges, changes...)
		}
		if err := s.orderRepo.SaveWithLock(ctx, order); err != nil {
			return err
		}
		return s.saveHistory(ctx, order.ID, allChanges, notes, req.Actor)
	})
	if err != nil {
		return nil, err
	}
	s.publishEvents(ctx, order)

	response := ToOrderResponse(order)
	return &response, nil
}

func (s *OrderService) saveHistory(ctx context.Context, orderID uuid.UUID, changes []ordering.StatusChange, notes, actor string) error {
	if len(changes) == 0 {
		return nil
	}
	records := make([]*ordering.StatusHistory, 0, len(changes))
	for _, change := range changes {
		record, err := ordering.NewStatusHistory(orderID, change, notes, actor)
		if err != nil {
			return err
		}
		records = append(records, record)
	}
	return s.historyRepo.Save(ctx, records...)
}

func (s *OrderService) publishEvents(ctx context.Context, order *ordering.Order) {
	if s.eventPublisher == nil || order == nil {
		return
	}
	for _, event := range order.GetDomainEvents() {
		if err := s.eventPublisher.Publish(ctx, event); err != nil {
			s.logger.Warn("failed to publish domain event",
				zap.String("event_type", event.EventType()), zap.Error(err))
		}
	}
	order.ClearDomainEvents()
}

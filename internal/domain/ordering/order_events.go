package ordering

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/markethub/backend/internal/domain/shared"
)

// Event types for the ordering context
const (
	EventTypeOrderPlaced           = "ordering.order_placed"
	EventTypeOrderPaid             = "ordering.order_paid"
	EventTypeSubOrderStatusChanged = "ordering.suborder_status_changed"
	EventTypeOrderRefundApplied    = "ordering.order_refund_applied"
)

const aggregateTypeOrder = "Order"

// OrderPlacedEvent is raised when a new order is created
type OrderPlacedEvent struct {
	shared.BaseDomainEvent
	OrderNumber string    `json:"order_number"`
	BuyerID     uuid.UUID `json:"buyer_id"`
}

// NewOrderPlacedEvent creates a new OrderPlacedEvent
func NewOrderPlacedEvent(o *Order) *OrderPlacedEvent {
	return &OrderPlacedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeOrderPlaced, aggregateTypeOrder, o.ID),
		OrderNumber:     o.OrderNumber,
		BuyerID:         o.BuyerID,
	}
}

// OrderPaidEvent is raised when payment completes for an order
type OrderPaidEvent struct {
	shared.BaseDomainEvent
	OrderNumber string          `json:"order_number"`
	BuyerID     uuid.UUID       `json:"buyer_id"`
	TotalAmount decimal.Decimal `json:"total_amount"`
}

// NewOrderPaidEvent creates a new OrderPaidEvent
func NewOrderPaidEvent(o *Order) *OrderPaidEvent {
	return &OrderPaidEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeOrderPaid, aggregateTypeOrder, o.ID),
		OrderNumber:     o.OrderNumber,
		BuyerID:         o.BuyerID,
		TotalAmount:     o.TotalAmount,
	}
}

// SubOrderStatusChangedEvent is raised for every effective sub-order
// transition, including those produced by item-level rollup.
type SubOrderStatusChangedEvent struct {
	shared.BaseDomainEvent
	SubOrderID     uuid.UUID      `json:"sub_order_id"`
	PreviousStatus SubOrderStatus `json:"previous_status"`
	NewStatus      SubOrderStatus `json:"new_status"`
	OrderStatus    OrderStatus    `json:"order_status"`
}

// NewSubOrderStatusChangedEvent creates a new SubOrderStatusChangedEvent
func NewSubOrderStatusChangedEvent(o *Order, change StatusChange) *SubOrderStatusChangedEvent {
	return &SubOrderStatusChangedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeSubOrderStatusChanged, aggregateTypeOrder, o.ID),
		SubOrderID:      change.SubOrderID,
		PreviousStatus:  change.PreviousStatus,
		NewStatus:       change.NewStatus,
		OrderStatus:     o.Status,
	}
}

// OrderRefundAppliedEvent is raised when a refund is applied to a sub-order
type OrderRefundAppliedEvent struct {
	shared.BaseDomainEvent
	SubOrderID     uuid.UUID       `json:"sub_order_id"`
	Amount         decimal.Decimal `json:"amount"`
	RefundedAmount decimal.Decimal `json:"refunded_amount"`
}

// NewOrderRefundAppliedEvent creates a new OrderRefundAppliedEvent
func NewOrderRefundAppliedEvent(o *Order, subOrderID uuid.UUID, amount decimal.Decimal) *OrderRefundAppliedEvent {
	return &OrderRefundAppliedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeOrderRefundApplied, aggregateTypeOrder, o.ID),
		SubOrderID:      subOrderID,
		Amount:          amount,
		RefundedAmount:  o.RefundedAmount,
	}
}

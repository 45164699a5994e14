package ordering

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/markethub/backend/internal/domain/shared"
)

// StatusChange describes one effective sub-order transition. The lifecycle
// service turns each change into an immutable history record within the
// same transaction as the mutation.
type StatusChange struct {
	SubOrderID     uuid.UUID
	PreviousStatus SubOrderStatus
	NewStatus      SubOrderStatus
}

// Order is the buyer-facing aggregate root. Its status is derived from the
// sub-order statuses and is never set independently after creation/payment.
type Order struct {
	shared.BaseAggregateRoot
	OrderNumber    string
	BuyerID        uuid.UUID
	Status         OrderStatus
	PaymentStatus  PaymentStatus
	TotalAmount    decimal.Decimal
	RefundedAmount decimal.Decimal
	PlacedAt       time.Time
	PaidAt         *time.Time
	SubOrders      []SubOrder
}

// NewOrder creates a new order
func NewOrder(orderNumber string, buyerID uuid.UUID, placedAt time.Time) (*Order, error) {
	if orderNumber == "" {
		return nil, shared.NewValidationError("INVALID_ORDER_NUMBER", "Order number cannot be empty")
	}
	if len(orderNumber) > 50 {
		return nil, shared.NewValidationError("INVALID_ORDER_NUMBER", "Order number cannot exceed 50 characters")
	}
	if buyerID == uuid.Nil {
		return nil, shared.NewValidationError("INVALID_BUYER", "Buyer ID cannot be empty")
	}
	if placedAt.IsZero() {
		placedAt = time.Now()
	}

	order := &Order{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		OrderNumber:       orderNumber,
		BuyerID:           buyerID,
		Status:            OrderStatusNew,
		PaymentStatus:     PaymentStatusPending,
		TotalAmount:       decimal.Zero,
		RefundedAmount:    decimal.Zero,
		PlacedAt:          placedAt,
		SubOrders:         make([]SubOrder, 0),
	}

	order.AddDomainEvent(NewOrderPlacedEvent(order))

	return order, nil
}

// AddSubOrder adds a per-store slice to the order; only before payment
func (o *Order) AddSubOrder(storeID uuid.UUID) (*SubOrder, error) {
	if o.PaymentStatus != PaymentStatusPending {
		return nil, shared.NewConflictError("INVALID_STATE", "Cannot add sub-orders after payment")
	}
	for idx := range o.SubOrders {
		if o.SubOrders[idx].StoreID == storeID {
			return nil, shared.NewConflictError("DUPLICATE_STORE", "Order already has a sub-order for this store")
		}
	}

	so, err := NewSubOrder(o.ID, storeID)
	if err != nil {
		return nil, err
	}

	o.SubOrders = append(o.SubOrders, *so)
	o.UpdatedAt = time.Now()

	return &o.SubOrders[len(o.SubOrders)-1], nil
}

// AddItem adds a product line to the given sub-order and recomputes totals
func (o *Order) AddItem(subOrderID, productID uuid.UUID, productName string, categoryID *uuid.UUID, quantity int, unitPrice, taxAmount decimal.Decimal) (*OrderItem, error) {
	so := o.GetSubOrder(subOrderID)
	if so == nil {
		return nil, shared.NewNotFoundError("SUBORDER_NOT_FOUND", "Sub-order not found")
	}

	item, err := so.AddItem(productID, productName, categoryID, quantity, unitPrice, taxAmount)
	if err != nil {
		return nil, err
	}

	o.recalculateTotals()
	o.UpdatedAt = time.Now()

	return item, nil
}

// MarkPaymentCompleted records a completed payment, moves every sub-order
// from NEW to PAID, and derives the order status. Returns one StatusChange
// per sub-order for history recording.
func (o *Order) MarkPaymentCompleted() ([]StatusChange, error) {
	if o.PaymentStatus == PaymentStatusCompleted {
		return nil, shared.NewConflictError("ALREADY_PAID", "Order payment is already completed")
	}
	if len(o.SubOrders) == 0 {
		return nil, shared.NewConflictError("NO_SUBORDERS", "Cannot complete payment for an order without sub-orders")
	}
	if !o.TotalAmount.IsPositive() {
		return nil, shared.NewConflictError("INVALID_AMOUNT", "Order total must be positive")
	}

	changes := make([]StatusChange, 0, len(o.SubOrders))
	for idx := range o.SubOrders {
		so := &o.SubOrders[idx]
		prev := so.Status
		changed, err := so.Transition(SubOrderStatusPaid)
		if err != nil {
			return nil, err
		}
		if changed {
			changes = append(changes, StatusChange{SubOrderID: so.ID, PreviousStatus: prev, NewStatus: so.Status})
		}
	}

	now := time.Now()
	o.PaymentStatus = PaymentStatusCompleted
	o.PaidAt = &now
	o.UpdatedAt = now
	o.RefreshStatus()

	o.AddDomainEvent(NewOrderPaidEvent(o))

	return changes, nil
}

// MarkPaymentFailed records a failed payment attempt
func (o *Order) MarkPaymentFailed() error {
	if o.PaymentStatus == PaymentStatusCompleted {
		return shared.NewConflictError("ALREADY_PAID", "Cannot fail a completed payment")
	}
	o.PaymentStatus = PaymentStatusFailed
	o.UpdatedAt = time.Now()
	return nil
}

// TransitionSubOrder moves one sub-order to the target status and derives
// the parent status. changed is false for an accepted same-state no-op.
func (o *Order) TransitionSubOrder(subOrderID uuid.UUID, target SubOrderStatus) (bool, StatusChange, error) {
	so := o.GetSubOrder(subOrderID)
	if so == nil {
		return false, StatusChange{}, shared.NewNotFoundError("SUBORDER_NOT_FOUND", "Sub-order not found")
	}

	prev := so.Status
	changed, err := so.Transition(target)
	if err != nil || !changed {
		return false, StatusChange{}, err
	}

	o.RefreshStatus()
	o.UpdatedAt = time.Now()

	change := StatusChange{SubOrderID: so.ID, PreviousStatus: prev, NewStatus: so.Status}
	o.AddDomainEvent(NewSubOrderStatusChangedEvent(o, change))
	return true, change, nil
}

// fulfillmentGate rejects item-level fulfillment unless the order has been
// paid and the sub-order is still live.
func (o *Order) fulfillmentGate(so *SubOrder) error {
	if o.PaymentStatus != PaymentStatusCompleted {
		return shared.NewConflictError("PAYMENT_INCOMPLETE", "Item fulfillment requires a completed payment")
	}
	if so.Status.IsTerminal() {
		return shared.NewConflictError("INVALID_STATE",
			fmt.Sprintf("Sub-order is already %s", so.Status))
	}
	return nil
}

// ShipItem ships qty units of an item and rolls the result up into the
// sub-order status, stepping through intermediate states so every recorded
// transition is a valid edge.
func (o *Order) ShipItem(subOrderID, itemID uuid.UUID, qty int) ([]StatusChange, error) {
	return o.fulfillItem(subOrderID, itemID, qty, func(item *OrderItem) error { return item.Ship(qty) })
}

// CancelItem cancels qty units of an item and rolls the result up into the
// sub-order status.
func (o *Order) CancelItem(subOrderID, itemID uuid.UUID, qty int) ([]StatusChange, error) {
	return o.fulfillItem(subOrderID, itemID, qty, func(item *OrderItem) error { return item.Cancel(qty) })
}

func (o *Order) fulfillItem(subOrderID, itemID uuid.UUID, qty int, apply func(*OrderItem) error) ([]StatusChange, error) {
	so := o.GetSubOrder(subOrderID)
	if so == nil {
		return nil, shared.NewNotFoundError("SUBORDER_NOT_FOUND", "Sub-order not found")
	}
	if err := o.fulfillmentGate(so); err != nil {
		return nil, err
	}
	item := so.GetItem(itemID)
	if item == nil {
		return nil, shared.NewNotFoundError("ITEM_NOT_FOUND", "Order item not found")
	}

	if err := apply(item); err != nil {
		return nil, err
	}

	changes, err := o.advanceSubOrder(so, so.DeriveItemStatus())
	if err != nil {
		return nil, err
	}

	o.UpdatedAt = time.Now()
	return changes, nil
}

// advanceSubOrder walks the sub-order towards the target status one valid
// edge at a time (PAID passes through PREPARING on its way to SHIPPED) and
// records each hop.
func (o *Order) advanceSubOrder(so *SubOrder, target SubOrderStatus) ([]StatusChange, error) {
	changes := make([]StatusChange, 0, 2)
	for so.Status != target {
		next := target
		if !so.Status.CanTransitionTo(next) {
			step, ok := nextFulfillmentStep(so.Status, target)
			if !ok {
				return nil, shared.NewConflictError("INVALID_TRANSITION",
					fmt.Sprintf("Cannot advance sub-order from %s to %s", so.Status, target))
			}
			next = step
		}
		prev := so.Status
		if _, err := so.Transition(next); err != nil {
			return nil, err
		}
		change := StatusChange{SubOrderID: so.ID, PreviousStatus: prev, NewStatus: so.Status}
		changes = append(changes, change)
		o.AddDomainEvent(NewSubOrderStatusChangedEvent(o, change))
	}
	if len(changes) > 0 {
		o.RefreshStatus()
	}
	return changes, nil
}

// nextFulfillmentStep returns the intermediate edge to take when the direct
// edge from current to target does not exist.
func nextFulfillmentStep(current, target SubOrderStatus) (SubOrderStatus, bool) {
	if current == SubOrderStatusPaid &&
		(target == SubOrderStatusShipped || target == SubOrderStatusDelivered) {
		return SubOrderStatusPreparing, true
	}
	if current == SubOrderStatusPreparing && target == SubOrderStatusDelivered {
		return SubOrderStatusShipped, true
	}
	return "", false
}

// ApplyRefund accumulates a refund on a sub-order and the order running
// total. Returns true when the sub-order is now fully refunded.
func (o *Order) ApplyRefund(subOrderID uuid.UUID, amount decimal.Decimal) (bool, error) {
	so := o.GetSubOrder(subOrderID)
	if so == nil {
		return false, shared.NewNotFoundError("SUBORDER_NOT_FOUND", "Sub-order not found")
	}
	if o.PaymentStatus != PaymentStatusCompleted {
		return false, shared.NewConflictError("PAYMENT_INCOMPLETE", "Cannot refund an unpaid order")
	}

	if err := so.AddRefund(amount); err != nil {
		return false, err
	}

	o.RefundedAmount = o.RefundedAmount.Add(amount)
	o.UpdatedAt = time.Now()
	o.AddDomainEvent(NewOrderRefundAppliedEvent(o, so.ID, amount))

	return so.IsFullyRefunded(), nil
}

// RefreshStatus re-derives the order status from the sub-order statuses
func (o *Order) RefreshStatus() {
	statuses := make([]SubOrderStatus, len(o.SubOrders))
	for idx := range o.SubOrders {
		statuses[idx] = o.SubOrders[idx].Status
	}
	derived := DeriveOrderStatus(statuses)
	// Before payment the aggregate stays NEW even though sub-orders are NEW.
	if o.PaymentStatus == PaymentStatusPending {
		derived = OrderStatusNew
	}
	o.Status = derived
}

// GetSubOrder returns a sub-order by its ID
func (o *Order) GetSubOrder(subOrderID uuid.UUID) *SubOrder {
	for idx := range o.SubOrders {
		if o.SubOrders[idx].ID == subOrderID {
			return &o.SubOrders[idx]
		}
	}
	return nil
}

// GetSubOrderByStore returns the sub-order belonging to a store
func (o *Order) GetSubOrderByStore(storeID uuid.UUID) *SubOrder {
	for idx := range o.SubOrders {
		if o.SubOrders[idx].StoreID == storeID {
			return &o.SubOrders[idx]
		}
	}
	return nil
}

// recalculateTotals recomputes the order total from the sub-orders
func (o *Order) recalculateTotals() {
	total := decimal.Zero
	for idx := range o.SubOrders {
		total = total.Add(o.SubOrders[idx].TotalAmount)
	}
	o.TotalAmount = total
}

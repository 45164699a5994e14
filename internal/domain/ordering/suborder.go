package ordering

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/markethub/backend/internal/domain/shared"
)

// OrderItem represents a product line inside a sub-order. Quantity
// bookkeeping must hold quantity == shipped + cancelled + remaining at all
// times; the refunded amount never exceeds the line gross.
type OrderItem struct {
	ID                uuid.UUID
	SubOrderID        uuid.UUID
	ProductID         uuid.UUID
	ProductName       string
	CategoryID        *uuid.UUID
	Quantity          int
	QuantityShipped   int
	QuantityCancelled int
	UnitPrice         decimal.Decimal
	TaxAmount         decimal.Decimal // total tax for the line
	RefundedAmount    decimal.Decimal
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// NewOrderItem creates a new order item
func NewOrderItem(subOrderID, productID uuid.UUID, productName string, categoryID *uuid.UUID, quantity int, unitPrice, taxAmount decimal.Decimal) (*OrderItem, error) {
	if productID == uuid.Nil {
		return nil, shared.NewValidationError("INVALID_PRODUCT", "Product ID cannot be empty")
	}
	if productName == "" {
		return nil, shared.NewValidationError("INVALID_PRODUCT_NAME", "Product name cannot be empty")
	}
	if quantity <= 0 {
		return nil, shared.NewValidationError("INVALID_QUANTITY", "Quantity must be positive")
	}
	if unitPrice.IsNegative() {
		return nil, shared.NewValidationError("INVALID_PRICE", "Unit price cannot be negative")
	}
	if taxAmount.IsNegative() {
		return nil, shared.NewValidationError("INVALID_TAX", "Tax amount cannot be negative")
	}

	now := time.Now()
	return &OrderItem{
		ID:             uuid.New(),
		SubOrderID:     subOrderID,
		ProductID:      productID,
		ProductName:    productName,
		CategoryID:     categoryID,
		Quantity:       quantity,
		UnitPrice:      unitPrice,
		TaxAmount:      taxAmount,
		RefundedAmount: decimal.Zero,
		CreatedAt:      now,
		UpdatedAt:      now,
	}, nil
}

// Remaining returns the quantity not yet shipped or cancelled
func (i *OrderItem) Remaining() int {
	return i.Quantity - i.QuantityShipped - i.QuantityCancelled
}

// GrossAmount returns unit price times quantity plus tax
func (i *OrderItem) GrossAmount() decimal.Decimal {
	return i.UnitPrice.Mul(decimal.NewFromInt(int64(i.Quantity))).Add(i.TaxAmount)
}

// Ship records qty units as shipped
func (i *OrderItem) Ship(qty int) error {
	if qty <= 0 {
		return shared.NewValidationError("INVALID_QUANTITY", "Ship quantity must be positive")
	}
	if qty > i.Remaining() {
		return shared.NewConflictError("QUANTITY_EXCEEDED",
			fmt.Sprintf("Cannot ship %d units, only %d remaining", qty, i.Remaining()))
	}
	i.QuantityShipped += qty
	i.UpdatedAt = time.Now()
	return nil
}

// Cancel records qty units as cancelled
func (i *OrderItem) Cancel(qty int) error {
	if qty <= 0 {
		return shared.NewValidationError("INVALID_QUANTITY", "Cancel quantity must be positive")
	}
	if qty > i.Remaining() {
		return shared.NewConflictError("QUANTITY_EXCEEDED",
			fmt.Sprintf("Cannot cancel %d units, only %d remaining", qty, i.Remaining()))
	}
	i.QuantityCancelled += qty
	i.UpdatedAt = time.Now()
	return nil
}

// AddRefund accumulates a refunded amount on the line, capped at the gross
func (i *OrderItem) AddRefund(amount decimal.Decimal) error {
	if amount.LessThanOrEqual(decimal.Zero) {
		return shared.NewValidationError("INVALID_AMOUNT", "Refund amount must be positive")
	}
	if i.RefundedAmount.Add(amount).GreaterThan(i.GrossAmount()) {
		return shared.NewConflictError("REFUND_EXCEEDS_LINE",
			"Refund would exceed the line gross amount")
	}
	i.RefundedAmount = i.RefundedAmount.Add(amount)
	i.UpdatedAt = time.Now()
	return nil
}

// SubOrder is one store's slice of a marketplace order, tracked through its
// own fulfillment state machine.
type SubOrder struct {
	ID              uuid.UUID
	OrderID         uuid.UUID
	StoreID         uuid.UUID
	Status          SubOrderStatus
	TotalAmount     decimal.Decimal
	RefundedAmount  decimal.Decimal
	TrackingCarrier string
	TrackingNumber  string
	Items           []OrderItem
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// NewSubOrder creates a new sub-order for a store
func NewSubOrder(orderID, storeID uuid.UUID) (*SubOrder, error) {
	if orderID == uuid.Nil {
		return nil, shared.NewValidationError("INVALID_ORDER", "Order ID cannot be empty")
	}
	if storeID == uuid.Nil {
		return nil, shared.NewValidationError("INVALID_STORE", "Store ID cannot be empty")
	}

	now := time.Now()
	return &SubOrder{
		ID:             uuid.New(),
		OrderID:        orderID,
		StoreID:        storeID,
		Status:         SubOrderStatusNew,
		TotalAmount:    decimal.Zero,
		RefundedAmount: decimal.Zero,
		Items:          make([]OrderItem, 0),
		CreatedAt:      now,
		UpdatedAt:      now,
	}, nil
}

// AddItem adds a product line; only allowed before payment
func (so *SubOrder) AddItem(productID uuid.UUID, productName string, categoryID *uuid.UUID, quantity int, unitPrice, taxAmount decimal.Decimal) (*OrderItem, error) {
	if so.Status != SubOrderStatusNew {
		return nil, shared.NewConflictError("INVALID_STATE", "Cannot add items after payment")
	}

	item, err := NewOrderItem(so.ID, productID, productName, categoryID, quantity, unitPrice, taxAmount)
	if err != nil {
		return nil, err
	}

	so.Items = append(so.Items, *item)
	so.recalculateTotal()
	so.UpdatedAt = time.Now()

	return item, nil
}

// Transition moves the sub-order to the target status. A same-state
// transition is accepted as a no-op and reports changed=false; an edge
// outside the transition table is rejected with a conflict error.
func (so *SubOrder) Transition(target SubOrderStatus) (bool, error) {
	if !target.IsValid() {
		return false, shared.NewValidationError("INVALID_STATUS", fmt.Sprintf("Unknown status %q", target))
	}
	if so.Status == target {
		return false, nil
	}
	if !so.Status.CanTransitionTo(target) {
		return false, shared.NewConflictError("INVALID_TRANSITION",
			fmt.Sprintf("Cannot transition sub-order from %s to %s", so.Status, target))
	}

	so.Status = target
	so.UpdatedAt = time.Now()
	return true, nil
}

// SetTracking records carrier information for the shipment
func (so *SubOrder) SetTracking(carrier, number string) {
	so.TrackingCarrier = carrier
	so.TrackingNumber = number
	so.UpdatedAt = time.Now()
}

// RemainingRefundable returns the amount still refundable
func (so *SubOrder) RemainingRefundable() decimal.Decimal {
	return so.TotalAmount.Sub(so.RefundedAmount)
}

// IsFullyRefunded reports whether cumulative refunds reached the total
func (so *SubOrder) IsFullyRefunded() bool {
	return so.RefundedAmount.GreaterThanOrEqual(so.TotalAmount) && so.TotalAmount.IsPositive()
}

// AddRefund accumulates a refund on the sub-order. The refunded amount is
// monotonically non-decreasing and never exceeds the total.
func (so *SubOrder) AddRefund(amount decimal.Decimal) error {
	if amount.LessThanOrEqual(decimal.Zero) {
		return shared.NewValidationError("INVALID_AMOUNT", "Refund amount must be positive")
	}
	if amount.GreaterThan(so.RemainingRefundable()) {
		return shared.NewConflictError("REFUND_EXCEEDS_BALANCE",
			fmt.Sprintf("Refund of %s exceeds remaining refundable %s",
				amount.StringFixed(2), so.RemainingRefundable().StringFixed(2)))
	}
	so.RefundedAmount = so.RefundedAmount.Add(amount)
	so.UpdatedAt = time.Now()
	return nil
}

// DeriveItemStatus computes the sub-order status implied by the per-item
// fulfillment quantities: everything cancelled wins, then any shipped unit,
// then any unit still pending.
func (so *SubOrder) DeriveItemStatus() SubOrderStatus {
	if len(so.Items) == 0 {
		return so.Status
	}

	allCancelled := true
	anyShipped := false
	anyPending := false
	for idx := range so.Items {
		item := &so.Items[idx]
		if item.QuantityCancelled != item.Quantity {
			allCancelled = false
		}
		if item.QuantityShipped > 0 {
			anyShipped = true
		}
		if item.Remaining() > 0 {
			anyPending = true
		}
	}

	switch {
	case allCancelled:
		return SubOrderStatusCancelled
	case anyShipped:
		return SubOrderStatusShipped
	case anyPending:
		return SubOrderStatusPreparing
	}
	return so.Status
}

// GetItem returns an item by its ID
func (so *SubOrder) GetItem(itemID uuid.UUID) *OrderItem {
	for idx := range so.Items {
		if so.Items[idx].ID == itemID {
			return &so.Items[idx]
		}
	}
	return nil
}

// CommissionCategoryID returns the category shared by every item, or nil
// when the sub-order mixes categories. The commission resolver falls back
// to the seller or global tier in the mixed case.
func (so *SubOrder) CommissionCategoryID() *uuid.UUID {
	var categoryID *uuid.UUID
	for idx := range so.Items {
		id := so.Items[idx].CategoryID
		if id == nil {
			return nil
		}
		if categoryID == nil {
			categoryID = id
			continue
		}
		if *categoryID != *id {
			return nil
		}
	}
	return categoryID
}

// recalculateTotal recomputes the sub-order total from its items
func (so *SubOrder) recalculateTotal() {
	total := decimal.Zero
	for idx := range so.Items {
		total = total.Add(so.Items[idx].GrossAmount())
	}
	so.TotalAmount = total
}

package ordering

// SubOrderStatus represents the fulfillment status of a seller's slice of
// an order. It is the unit the state machine operates on; the parent order
// status is always derived, never set directly after payment.
type SubOrderStatus string

const (
	SubOrderStatusNew       SubOrderStatus = "NEW"
	SubOrderStatusPaid      SubOrderStatus = "PAID"
	SubOrderStatusPreparing SubOrderStatus = "PREPARING"
	SubOrderStatusShipped   SubOrderStatus = "SHIPPED"
	SubOrderStatusDelivered SubOrderStatus = "DELIVERED"
	SubOrderStatusCancelled SubOrderStatus = "CANCELLED"
	SubOrderStatusRefunded  SubOrderStatus = "REFUNDED"
)

// IsValid checks if the status is a valid SubOrderStatus
func (s SubOrderStatus) IsValid() bool {
	switch s {
	case SubOrderStatusNew, SubOrderStatusPaid, SubOrderStatusPreparing,
		SubOrderStatusShipped, SubOrderStatusDelivered,
		SubOrderStatusCancelled, SubOrderStatusRefunded:
		return true
	}
	return false
}

// String returns the string representation of SubOrderStatus
func (s SubOrderStatus) String() string {
	return string(s)
}

// IsTerminal returns true for states with no outgoing transitions
func (s SubOrderStatus) IsTerminal() bool {
	return s == SubOrderStatusCancelled || s == SubOrderStatusRefunded
}

// CanTransitionTo checks if the status can transition to the target status.
// Same-state transitions are not part of the table; they are treated as
// no-ops by SubOrder.Transition for every state.
func (s SubOrderStatus) CanTransitionTo(target SubOrderStatus) bool {
	switch s {
	case SubOrderStatusNew:
		return target == SubOrderStatusPaid || target == SubOrderStatusCancelled
	case SubOrderStatusPaid:
		return target == SubOrderStatusPreparing || target == SubOrderStatusCancelled || target == SubOrderStatusRefunded
	case SubOrderStatusPreparing:
		return target == SubOrderStatusShipped || target == SubOrderStatusCancelled
	case SubOrderStatusShipped:
		return target == SubOrderStatusDelivered || target == SubOrderStatusRefunded
	case SubOrderStatusDelivered:
		return target == SubOrderStatusRefunded
	case SubOrderStatusCancelled, SubOrderStatusRefunded:
		return false // Terminal states
	}
	return false
}

// fulfillmentRank orders non-terminal statuses by how far along the
// fulfillment pipeline they are. Used by DeriveOrderStatus.
func fulfillmentRank(s SubOrderStatus) int {
	switch s {
	case SubOrderStatusDelivered:
		return 5
	case SubOrderStatusShipped:
		return 4
	case SubOrderStatusPreparing:
		return 3
	case SubOrderStatusPaid:
		return 2
	case SubOrderStatusNew:
		return 1
	}
	return 0
}

// OrderStatus represents the derived status of a buyer-facing order
type OrderStatus string

const (
	OrderStatusNew       OrderStatus = "NEW"
	OrderStatusPaid      OrderStatus = "PAID"
	OrderStatusPreparing OrderStatus = "PREPARING"
	OrderStatusShipped   OrderStatus = "SHIPPED"
	OrderStatusDelivered OrderStatus = "DELIVERED"
	OrderStatusCancelled OrderStatus = "CANCELLED"
	OrderStatusRefunded  OrderStatus = "REFUNDED"
)

// String returns the string representation of OrderStatus
func (s OrderStatus) String() string {
	return string(s)
}

// DeriveOrderStatus computes the parent order status from its sub-order
// statuses. Precedence:
//  1. All sub-orders delivered: DELIVERED.
//  2. All cancelled: CANCELLED. All refunded: REFUNDED.
//  3. Otherwise the most advanced non-terminal status present.
//  4. All terminal but mixed cancelled/refunded: CANCELLED.
func DeriveOrderStatus(statuses []SubOrderStatus) OrderStatus {
	if len(statuses) == 0 {
		return OrderStatusNew
	}

	allDelivered := true
	allCancelled := true
	allRefunded := true
	best := SubOrderStatus("")
	for _, s := range statuses {
		if s != SubOrderStatusDelivered {
			allDelivered = false
		}
		if s != SubOrderStatusCancelled {
			allCancelled = false
		}
		if s != SubOrderStatusRefunded {
			allRefunded = false
		}
		if !s.IsTerminal() && fulfillmentRank(s) > fulfillmentRank(best) {
			best = s
		}
	}

	switch {
	case allDelivered:
		return OrderStatusDelivered
	case allCancelled:
		return OrderStatusCancelled
	case allRefunded:
		return OrderStatusRefunded
	case best == "":
		// Every sub-order is terminal, mixed between cancelled and refunded.
		return OrderStatusCancelled
	}
	return OrderStatus(best)
}

// PaymentStatus represents the payment state of an order
type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "PENDING"
	PaymentStatusCompleted PaymentStatus = "COMPLETED"
	PaymentStatusFailed    PaymentStatus = "FAILED"
)

// IsValid checks if the status is a valid PaymentStatus
func (s PaymentStatus) IsValid() bool {
	switch s {
	case PaymentStatusPending, PaymentStatusCompleted, PaymentStatusFailed:
		return true
	}
	return false
}

// String returns the string representation of PaymentStatus
func (s PaymentStatus) String() string {
	return string(s)
}

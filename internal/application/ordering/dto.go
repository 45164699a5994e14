package ordering

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/markethub/backend/internal/domain/ordering"
)

// PlaceOrderItem is one line of a sub-order in a place-order request
type PlaceOrderItem struct {
	ProductID   uuid.UUID       `json:"product_id" binding:"required"`
	ProductName string          `json:"product_name" binding:"required"`
	CategoryID  *uuid.UUID      `json:"category_id,omitempty"`
	Quantity    int             `json:"quantity" binding:"required,gt=0"`
	UnitPrice   decimal.Decimal `json:"unit_price" binding:"required"`
	TaxAmount   decimal.Decimal `json:"tax_amount"`
}

// PlaceOrderStore groups the items bought from one store
type PlaceOrderStore struct {
	StoreID uuid.UUID        `json:"store_id" binding:"required"`
	Items   []PlaceOrderItem `json:"items" binding:"required,min=1,dive"`
}

// PlaceOrderRequest creates an order split into one sub-order per store
type PlaceOrderRequest struct {
	BuyerID  uuid.UUID         `json:"buyer_id" binding:"required"`
	PlacedAt time.Time         `json:"placed_at"`
	Stores   []PlaceOrderStore `json:"stores" binding:"required,min=1,dive"`
}

// MarkOrderPaidRequest completes an order's payment
type MarkOrderPaidRequest struct {
	TransactionRef string `json:"transaction_ref" binding:"required"`
	Actor          string `json:"actor"`
}

// TransitionRequest moves a sub-order to a target status
type TransitionRequest struct {
	Target string `json:"target" binding:"required"`
	Notes  string `json:"notes"`
	Actor  string `json:"actor"`
}

// ItemQuantityLine addresses a quantity of one order item
type ItemQuantityLine struct {
	ItemID   uuid.UUID `json:"item_id" binding:"required"`
	Quantity int       `json:"quantity" binding:"required,gt=0"`
}

// ItemQuantitiesRequest ships or cancels quantities on a sub-order
type ItemQuantitiesRequest struct {
	Items []ItemQuantityLine `json:"items" binding:"required,min=1,dive"`
	Actor string             `json:"actor"`
}

// OrderListFilter defines filtering options for order list queries
type OrderListFilter struct {
	Search   string     `form:"search"`
	BuyerID  *uuid.UUID `form:"buyer_id"`
	Status   string     `form:"status"`
	Page     int        `form:"page"`
	PageSize int        `form:"page_size"`
}

// OrderItemResponse represents an order item in API responses
type OrderItemResponse struct {
	ID                uuid.UUID       `json:"id"`
	ProductID         uuid.UUID       `json:"product_id"`
	ProductName       string          `json:"product_name"`
	CategoryID        *uuid.UUID      `json:"category_id,omitempty"`
	Quantity          int             `json:"quantity"`
	QuantityShipped   int             `json:"quantity_shipped"`
	QuantityCancelled int             `json:"quantity_cancelled"`
	UnitPrice         decimal.Decimal `json:"unit_price"`
	TaxAmount         decimal.Decimal `json:"tax_amount"`
	RefundedAmount    decimal.Decimal `json:"refunded_amount"`
}

// SubOrderResponse represents a sub-order in API responses
type SubOrderResponse struct {
	ID              uuid.UUID           `json:"id"`
	StoreID         uuid.UUID           `json:"store_id"`
	Status          string              `json:"status"`
	TotalAmount     decimal.Decimal     `json:"total_amount"`
	RefundedAmount  decimal.Decimal     `json:"refunded_amount"`
	TrackingCarrier string              `json:"tracking_carrier,omitempty"`
	TrackingNumber  string              `json:"tracking_number,omitempty"`
	Items           []OrderItemResponse `json:"items"`
}

// OrderResponse represents an order in API responses
type OrderResponse struct {
	ID             uuid.UUID          `json:"id"`
	OrderNumber    string             `json:"order_number"`
	BuyerID        uuid.UUID          `json:"buyer_id"`
	Status         string             `json:"status"`
	PaymentStatus  string             `json:"payment_status"`
	TotalAmount    decimal.Decimal    `json:"total_amount"`
	RefundedAmount decimal.Decimal    `json:"refunded_amount"`
	PlacedAt       time.Time          `json:"placed_at"`
	PaidAt         *time.Time         `json:"paid_at,omitempty"`
	SubOrders      []SubOrderResponse `json:"sub_orders"`
	Version        int                `json:"version"`
}

// StatusHistoryResponse represents a transition record in API responses
type StatusHistoryResponse struct {
	ID             uuid.UUID `json:"id"`
	OrderID        uuid.UUID `json:"order_id"`
	SubOrderID     uuid.UUID `json:"sub_order_id"`
	PreviousStatus string    `json:"previous_status"`
	NewStatus      string    `json:"new_status"`
	Notes          string    `json:"notes,omitempty"`
	Actor          string    `json:"actor,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}

// ToOrderResponse converts a domain order to its API representation
func ToOrderResponse(order *ordering.Order) OrderResponse {
	subOrders := make([]SubOrderResponse, len(order.SubOrders))
	for i := range order.SubOrders {
		subOrders[i] = toSubOrderResponse(&order.SubOrders[i])
	}
	return OrderResponse{
		ID:             order.ID,
		OrderNumber:    order.OrderNumber,
		BuyerID:        order.BuyerID,
		Status:         order.Status.String(),
		PaymentStatus:  order.PaymentStatus.String(),
		TotalAmount:    order.TotalAmount,
		RefundedAmount: order.RefundedAmount,
		PlacedAt:       order.PlacedAt,
		PaidAt:         order.PaidAt,
		SubOrders:      subOrders,
		Version:        order.Version,
	}
}

// ToOrderResponses converts a slice of domain orders
func ToOrderResponses(orders []ordering.Order) []OrderResponse {
	responses := make([]OrderResponse, len(orders))
	for i := range orders {
		responses[i] = ToOrderResponse(&orders[i])
	}
	return responses
}

func toSubOrderResponse(so *ordering.SubOrder) SubOrderResponse {
	items := make([]OrderItemResponse, len(so.Items))
	for i := range so.Items {
		item := &so.Items[i]
		items[i] = OrderItemResponse{
			ID:                item.ID,
			ProductID:         item.ProductID,
			ProductName:       item.ProductName,
			CategoryID:        item.CategoryID,
			Quantity:          item.Quantity,
			QuantityShipped:   item.QuantityShipped,
			QuantityCancelled: item.QuantityCancelled,
			UnitPrice:         item.UnitPrice,
			TaxAmount:         item.TaxAmount,
			RefundedAmount:    item.RefundedAmount,
		}
	}
	return SubOrderResponse{
		ID:              so.ID,
		StoreID:         so.StoreID,
		Status:          so.Status.String(),
		TotalAmount:     so.TotalAmount,
		RefundedAmount:  so.RefundedAmount,
		TrackingCarrier: so.TrackingCarrier,
		TrackingNumber:  so.TrackingNumber,
		Items:           items,
	}
}

// ToStatusHistoryResponses converts a slice of transition records
func ToStatusHistoryResponses(records []ordering.StatusHistory) []StatusHistoryResponse {
	responses := make([]StatusHistoryResponse, len(records))
	for i, record := range records {
		responses[i] = StatusHistoryResponse{
			ID:             record.ID,
			OrderID:        record.OrderID,
			SubOrderID:     record.SubOrderID,
			PreviousStatus: record.PreviousStatus.String(),
			NewStatus:      record.NewStatus.String(),
			Notes:          record.Notes,
			Actor:          record.Actor,
			CreatedAt:      record.CreatedAt,
		}
	}
	return responses
}

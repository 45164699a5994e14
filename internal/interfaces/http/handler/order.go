package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	orderingapp "github.com/markethub/backend/internal/application/ordering"
)

// OrderHandler handles order and sub-order API endpoints
type OrderHandler struct {
	BaseHandler
	orderService *orderingapp.OrderService
}

// NewOrderHandler creates a new OrderHandler
func NewOrderHandler(orderService *orderingapp.OrderService) *OrderHandler {
	return &OrderHandler{orderService: orderService}
}

// Place godoc
// @Summary      Place a new order
// @Description  Create an order split into one sub-order per store
// @Tags         orders
// @Accept       json
// @Produce      json
// @Param        request body ordering.PlaceOrderRequest true "Order placement request"
// @Success      201 {object} dto.Response{data=ordering.OrderResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /orders [post]
func (h *OrderHandler) Place(c *gin.Context) {
	var req orderingapp.PlaceOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	order, err := h.orderService.PlaceOrder(c.Request.Context(), req)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Created(c, order)
}

// List godoc
// @Summary      List orders
// @Description  List orders with optional buyer, status, and search filters
// @Tags         orders
// @Produce      json
// @Param        buyer_id query string false "Filter by buyer ID" format(uuid)
// @Param        status query string false "Filter by order status"
// @Param        search query string false "Search by order number"
// @Param        page query int false "Page number"
// @Param        page_size query int false "Page size"
// @Success      200 {object} dto.Response{data=[]ordering.OrderResponse}
// @Router       /orders [get]
func (h *OrderHandler) List(c *gin.Context) {
	var filter orderingapp.OrderListFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	orders, total, err := h.orderService.ListOrders(c.Request.Context(), filter)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	page := filter.Page
	if page <= 0 {
		page = 1
	}
	pageSize := filter.PageSize
	if pageSize <= 0 {
		pageSize = 20
	}
	h.SuccessWithMeta(c, orders, total, page, pageSize)
}

// GetByID godoc
// @Summary      Get order by ID
// @Tags         orders
// @Produce      json
// @Param        id path string true "Order ID" format(uuid)
// @Success      200 {object} dto.Response{data=ordering.OrderResponse}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /orders/{id} [get]
func (h *OrderHandler) GetByID(c *gin.Context) {
	orderID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid order ID format")
		return
	}

	order, err := h.orderService.GetOrder(c.Request.Context(), orderID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, order)
}

// GetByOrderNumber godoc
// @Summary      Get order by order number
// @Tags         orders
// @Produce      json
// @Param        order_number path string true "Order number" example:"ORD-2026-00001"
// @Success      200 {object} dto.Response{data=ordering.OrderResponse}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /orders/number/{order_number} [get]
func (h *OrderHandler) GetByOrderNumber(c *gin.Context) {
	orderNumber := c.Param("order_number")
	if orderNumber == "" {
		h.BadRequest(c, "Order number is required")
		return
	}

	order, err := h.orderService.GetOrderByNumber(c.Request.Context(), orderNumber)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, order)
}

// MarkPaid godoc
// @Summary      Mark an order as paid
// @Description  Complete payment for an order and open escrow per sub-order
// @Tags         orders
// @Accept       json
// @Produce      json
// @Param        id path string true "Order ID" format(uuid)
// @Param        request body ordering.MarkOrderPaidRequest true "Payment confirmation"
// @Success      200 {object} dto.Response{data=ordering.OrderResponse}
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /orders/{id}/pay [post]
func (h *OrderHandler) MarkPaid(c *gin.Context) {
	orderID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid order ID format")
		return
	}

	var req orderingapp.MarkOrderPaidRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	order, err := h.orderService.MarkOrderPaid(c.Request.Context(), orderID, req)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, order)
}

// TransitionSubOrder godoc
// @Summary      Transition a sub-order
// @Description  Move a sub-order to a target fulfillment status
// @Tags         sub-orders
// @Accept       json
// @Produce      json
// @Param        id path string true "Sub-order ID" format(uuid)
// @Param        request body ordering.TransitionRequest true "Target status"
// @Success      200 {object} dto.Response{data=ordering.OrderResponse}
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /sub-orders/{id}/transition [post]
func (h *OrderHandler) TransitionSubOrder(c *gin.Context) {
	subOrderID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid sub-order ID format")
		return
	}

	var req orderingapp.TransitionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	order, err := h.orderService.TransitionSubOrder(c.Request.Context(), subOrderID, req)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, order)
}

// ShipItems godoc
// @Summary      Ship item quantities on a sub-order
// @Tags         sub-orders
// @Accept       json
// @Produce      json
// @Param        id path string true "Sub-order ID" format(uuid)
// @Param        request body ordering.ItemQuantitiesRequest true "Item quantities to ship"
// @Success      200 {object} dto.Response{data=ordering.OrderResponse}
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /sub-orders/{id}/ship [post]
func (h *OrderHandler) ShipItems(c *gin.Context) {
	subOrderID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid sub-order ID format")
		return
	}

	var req orderingapp.ItemQuantitiesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	order, err := h.orderService.ShipItems(c.Request.Context(), subOrderID, req)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, order)
}

// CancelItems godoc
// @Summary      Cancel item quantities on a sub-order
// @Tags         sub-orders
// @Accept       json
// @Produce      json
// @Param        id path string true "Sub-order ID" format(uuid)
// @Param        request body ordering.ItemQuantitiesRequest true "Item quantities to cancel"
// @Success      200 {object} dto.Response{data=ordering.OrderResponse}
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /sub-orders/{id}/cancel-items [post]
func (h *OrderHandler) CancelItems(c *gin.Context) {
	subOrderID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid sub-order ID format")
		return
	}

	var req orderingapp.ItemQuantitiesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	order, err := h.orderService.CancelItems(c.Request.Context(), subOrderID, req)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, order)
}

// GetSubOrderHistory godoc
// @Summary      Get a sub-order's transition history
// @Tags         sub-orders
// @Produce      json
// @Param        id path string true "Sub-order ID" format(uuid)
// @Success      200 {object} dto.Response{data=[]ordering.StatusHistoryResponse}
// @Router       /sub-orders/{id}/history [get]
func (h *OrderHandler) GetSubOrderHistory(c *gin.Context) {
	subOrderID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid sub-order ID format")
		return
	}

	history, err := h.orderService.GetSubOrderHistory(c.Request.Context(), subOrderID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, history)
}

package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	paymentapp "github.com/markethub/backend/internal/application/payment"
)

// RefundHandler handles refund API endpoints
type RefundHandler struct {
	BaseHandler
	refundService *paymentapp.RefundService
}

// NewRefundHandler creates a new RefundHandler
func NewRefundHandler(refundService *paymentapp.RefundService) *RefundHandler {
	return &RefundHandler{refundService: refundService}
}

// RefundSubOrder godoc
// @Summary      Refund a sub-order
// @Description  Refund part or all of a sub-order's escrowed amount. Commission
// @Description  is reversed proportionally to the refunded share.
// @Tags         refunds
// @Accept       json
// @Produce      json
// @Param        id path string true "Sub-order ID" format(uuid)
// @Param        request body payment.RefundRequest true "Refund request"
// @Success      201 {object} dto.Response{data=payment.RefundResponse}
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      502 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /sub-orders/{id}/refunds [post]
func (h *RefundHandler) RefundSubOrder(c *gin.Context) {
	subOrderID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid sub-order ID format")
		return
	}

	var req paymentapp.RefundRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	refund, err := h.refundService.RefundSubOrder(c.Request.Context(), subOrderID, req)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Created(c, refund)
}

// RefundOrder godoc
// @Summary      Refund an entire order
// @Description  Refund the remaining escrowed amount of every sub-order
// @Tags         refunds
// @Accept       json
// @Produce      json
// @Param        id path string true "Order ID" format(uuid)
// @Param        request body payment.RefundOrderRequest true "Refund request"
// @Success      201 {object} dto.Response{data=[]payment.RefundResponse}
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /orders/{id}/refunds [post]
func (h *RefundHandler) RefundOrder(c *gin.Context) {
	orderID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid order ID format")
		return
	}

	var req paymentapp.RefundOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	refunds, err := h.refundService.RefundOrder(c.Request.Context(), orderID, req)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Created(c, refunds)
}

// Retry godoc
// @Summary      Retry a failed refund
// @Description  Re-submit a failed refund to the payment provider. The refund
// @Description  number is reused as the idempotency key so the provider never
// @Description  executes the same refund twice.
// @Tags         refunds
// @Produce      json
// @Param        id path string true "Refund ID" format(uuid)
// @Success      200 {object} dto.Response{data=payment.RefundResponse}
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      502 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /refunds/{id}/retry [post]
func (h *RefundHandler) Retry(c *gin.Context) {
	refundID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid refund ID format")
		return
	}

	refund, err := h.refundService.RetryRefund(c.Request.Context(), refundID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, refund)
}

// GetByID godoc
// @Summary      Get refund by ID
// @Tags         refunds
// @Produce      json
// @Param        id path string true "Refund ID" format(uuid)
// @Success      200 {object} dto.Response{data=payment.RefundResponse}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /refunds/{id} [get]
func (h *RefundHandler) GetByID(c *gin.Context) {
	refundID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid refund ID format")
		return
	}

	refund, err := h.refundService.GetRefund(c.Request.Context(), refundID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, refund)
}

// ListBySubOrder godoc
// @Summary      List refunds of a sub-order
// @Tags         refunds
// @Produce      json
// @Param        id path string true "Sub-order ID" format(uuid)
// @Success      200 {object} dto.Response{data=[]payment.RefundResponse}
// @Router       /sub-orders/{id}/refunds [get]
func (h *RefundHandler) ListBySubOrder(c *gin.Context) {
	subOrderID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid sub-order ID format")
		return
	}

	refunds, err := h.refundService.ListRefundsBySubOrder(c.Request.Context(), subOrderID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, refunds)
}

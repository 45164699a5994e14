package handler

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	billingapp "github.com/markethub/backend/internal/application/billing"
)

// InvoiceHandler handles commission invoice API endpoints
type InvoiceHandler struct {
	BaseHandler
	invoiceService *billingapp.InvoiceService
}

// NewInvoiceHandler creates a new InvoiceHandler
func NewInvoiceHandler(invoiceService *billingapp.InvoiceService) *InvoiceHandler {
	return &InvoiceHandler{invoiceService: invoiceService}
}

// Generate godoc
// @Summary      Generate a commission invoice
// @Description  Invoice the marketplace commission charged to a store for a
// @Description  period. Returns 204 when the period has no net commission.
// @Tags         invoices
// @Accept       json
// @Produce      json
// @Param        request body billing.GenerateInvoiceRequest true "Invoice period"
// @Success      201 {object} dto.Response{data=billing.InvoiceResponse}
// @Success      204 "No commission to invoice"
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /invoices [post]
func (h *InvoiceHandler) Generate(c *gin.Context) {
	var req billingapp.GenerateInvoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	invoice, err := h.invoiceService.Generate(c.Request.Context(), req)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	if invoice == nil {
		// Zero net commission for the period: nothing to invoice
		h.NoContent(c)
		return
	}

	h.Created(c, invoice)
}

// CreateCreditNote godoc
// @Summary      Create a credit note
// @Description  Issue a negative-amount credit note cancelling an issued or
// @Description  paid invoice
// @Tags         invoices
// @Produce      json
// @Param        id path string true "Invoice ID" format(uuid)
// @Success      201 {object} dto.Response{data=billing.InvoiceResponse}
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /invoices/{id}/credit-note [post]
func (h *InvoiceHandler) CreateCreditNote(c *gin.Context) {
	invoiceID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid invoice ID format")
		return
	}

	creditNote, err := h.invoiceService.CreateCreditNote(c.Request.Context(), invoiceID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Created(c, creditNote)
}

// Issue godoc
// @Summary      Issue a draft invoice
// @Tags         invoices
// @Produce      json
// @Param        id path string true "Invoice ID" format(uuid)
// @Success      200 {object} dto.Response{data=billing.InvoiceResponse}
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /invoices/{id}/issue [post]
func (h *InvoiceHandler) Issue(c *gin.Context) {
	h.mutate(c, h.invoiceService.Issue)
}

// MarkPaid godoc
// @Summary      Mark an issued invoice as paid
// @Tags         invoices
// @Produce      json
// @Param        id path string true "Invoice ID" format(uuid)
// @Success      200 {object} dto.Response{data=billing.InvoiceResponse}
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /invoices/{id}/pay [post]
func (h *InvoiceHandler) MarkPaid(c *gin.Context) {
	h.mutate(c, h.invoiceService.MarkPaid)
}

// Cancel godoc
// @Summary      Cancel a draft invoice
// @Tags         invoices
// @Produce      json
// @Param        id path string true "Invoice ID" format(uuid)
// @Success      200 {object} dto.Response{data=billing.InvoiceResponse}
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /invoices/{id}/cancel [post]
func (h *InvoiceHandler) Cancel(c *gin.Context) {
	h.mutate(c, h.invoiceService.Cancel)
}

// GetByID godoc
// @Summary      Get invoice by ID
// @Tags         invoices
// @Produce      json
// @Param        id path string true "Invoice ID" format(uuid)
// @Success      200 {object} dto.Response{data=billing.InvoiceResponse}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /invoices/{id} [get]
func (h *InvoiceHandler) GetByID(c *gin.Context) {
	h.mutate(c, h.invoiceService.Get)
}

// ListByStore godoc
// @Summary      List a store's invoices
// @Tags         invoices
// @Produce      json
// @Param        store_id path string true "Store ID" format(uuid)
// @Success      200 {object} dto.Response{data=[]billing.InvoiceResponse}
// @Router       /stores/{store_id}/invoices [get]
func (h *InvoiceHandler) ListByStore(c *gin.Context) {
	storeID, err := uuid.Parse(c.Param("store_id"))
	if err != nil {
		h.BadRequest(c, "Invalid store ID format")
		return
	}

	invoices, err := h.invoiceService.ListByStore(c.Request.Context(), storeID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, invoices)
}

// mutate runs a single-invoice service operation addressed by the id path
// parameter and writes the standard response.
func (h *InvoiceHandler) mutate(c *gin.Context, op func(context.Context, uuid.UUID) (*billingapp.InvoiceResponse, error)) {
	invoiceID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid invoice ID format")
		return
	}

	invoice, err := op(c.Request.Context(), invoiceID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, invoice)
}

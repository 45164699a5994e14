package billing

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/markethub/backend/internal/domain/billing"
)

// GenerateInvoiceRequest creates the commission invoice for a store period
type GenerateInvoiceRequest struct {
	StoreID     uuid.UUID `json:"store_id" binding:"required"`
	PeriodStart time.Time `json:"period_start" binding:"required"`
	PeriodEnd   time.Time `json:"period_end" binding:"required"`
}

// InvoiceItemResponse represents an invoice line in API responses
type InvoiceItemResponse struct {
	ID                      uuid.UUID       `json:"id"`
	CommissionTransactionID uuid.UUID       `json:"commission_transaction_id"`
	Description             string          `json:"description,omitempty"`
	Amount                  decimal.Decimal `json:"amount"`
}

// InvoiceResponse represents a commission invoice in API responses
type InvoiceResponse struct {
	ID                  uuid.UUID             `json:"id"`
	StoreID             uuid.UUID             `json:"store_id"`
	InvoiceNumber       string                `json:"invoice_number"`
	PeriodStart         time.Time             `json:"period_start"`
	PeriodEnd           time.Time             `json:"period_end"`
	Subtotal            decimal.Decimal       `json:"subtotal"`
	TaxPercent          decimal.Decimal       `json:"tax_percent"`
	TaxAmount           decimal.Decimal       `json:"tax_amount"`
	TotalAmount         decimal.Decimal       `json:"total_amount"`
	Status              string                `json:"status"`
	IsCreditNote        bool                  `json:"is_credit_note"`
	CorrectingInvoiceID *uuid.UUID            `json:"correcting_invoice_id,omitempty"`
	IssuedAt            *time.Time            `json:"issued_at,omitempty"`
	PaidAt              *time.Time            `json:"paid_at,omitempty"`
	Items               []InvoiceItemResponse `json:"items,omitempty"`
	CreatedAt           time.Time             `json:"created_at"`
}

// ToInvoiceResponse converts a domain invoice to its API representation
func ToInvoiceResponse(invoice *billing.CommissionInvoice) InvoiceResponse {
	items := make([]InvoiceItemResponse, len(invoice.Items))
	for i, item := range invoice.Items {
		items[i] = InvoiceItemResponse{
			ID:                      item.ID,
			CommissionTransactionID: item.CommissionTransactionID,
			Description:             item.Description,
			Amount:                  item.Amount,
		}
	}
	return InvoiceResponse{
		ID:                  invoice.ID,
		StoreID:             invoice.StoreID,
		InvoiceNumber:       invoice.InvoiceNumber,
		PeriodStart:         invoice.PeriodStart,
		PeriodEnd:           invoice.PeriodEnd,
		Subtotal:            invoice.Subtotal,
		TaxPercent:          invoice.TaxPercent,
		TaxAmount:           invoice.TaxAmount,
		TotalAmount:         invoice.TotalAmount,
		Status:              invoice.Status.String(),
		IsCreditNote:        invoice.IsCreditNote,
		CorrectingInvoiceID: invoice.CorrectingInvoiceID,
		IssuedAt:            invoice.IssuedAt,
		PaidAt:              invoice.PaidAt,
		Items:               items,
		CreatedAt:           invoice.CreatedAt,
	}
}

// ToInvoiceResponses converts a slice of domain invoices
func ToInvoiceResponses(invoices []billing.CommissionInvoice) []InvoiceResponse {
	responses := make([]InvoiceResponse, len(invoices))
	for i := range invoices {
		responses[i] = ToInvoiceResponse(&invoices[i])
	}
	return responses
}

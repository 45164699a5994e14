package billing

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/markethub/backend/internal/domain/shared"
)

// InvoiceStatus represents the lifecycle state of a commission invoice
type InvoiceStatus string

const (
	InvoiceStatusDraft      InvoiceStatus = "DRAFT"
	InvoiceStatusIssued     InvoiceStatus = "ISSUED"
	InvoiceStatusPaid       InvoiceStatus = "PAID"
	InvoiceStatusCancelled  InvoiceStatus = "CANCELLED"
	InvoiceStatusSuperseded InvoiceStatus = "SUPERSEDED"
)

// IsValid checks if the status is a valid InvoiceStatus
func (s InvoiceStatus) IsValid() bool {
	switch s {
	case InvoiceStatusDraft, InvoiceStatusIssued, InvoiceStatusPaid,
		InvoiceStatusCancelled, InvoiceStatusSuperseded:
		return true
	}
	return false
}

// String returns the string representation of InvoiceStatus
func (s InvoiceStatus) String() string {
	return string(s)
}

// IsTerminal reports whether the status allows no further changes
func (s InvoiceStatus) IsTerminal() bool {
	switch s {
	case InvoiceStatusPaid, InvoiceStatusCancelled, InvoiceStatusSuperseded:
		return true
	}
	return false
}

// CommissionInvoice bills a store for the commission the platform charged
// during a period. The platform is the issuer, the store is the debtor. A
// credit note is a regular invoice with negated amounts pointing back at the
// invoice it corrects.
type CommissionInvoice struct {
	shared.StoreAggregateRoot
	InvoiceNumber       string
	PeriodStart         time.Time
	PeriodEnd           time.Time
	Subtotal            decimal.Decimal
	TaxPercent          decimal.Decimal
	TaxAmount           decimal.Decimal
	TotalAmount         decimal.Decimal
	Status              InvoiceStatus
	IsCreditNote        bool
	CorrectingInvoiceID *uuid.UUID
	IssuedAt            *time.Time
	PaidAt              *time.Time
	Items               []InvoiceItem
}

// InvoiceItem is one commission transaction billed on an invoice
type InvoiceItem struct {
	shared.BaseEntity
	InvoiceID               uuid.UUID
	CommissionTransactionID uuid.UUID
	Description             string
	Amount                  decimal.Decimal
}

// NewCommissionInvoice creates a draft invoice for a store's commission over
// a period. Tax is computed on the subtotal with half-away-from-zero
// rounding to two decimals.
func NewCommissionInvoice(storeID uuid.UUID, invoiceNumber string, periodStart, periodEnd time.Time, subtotal, taxPercent decimal.Decimal) (*CommissionInvoice, error) {
	if storeID == uuid.Nil {
		return nil, shared.NewValidationError("INVALID_STORE", "Store ID cannot be empty")
	}
	if invoiceNumber == "" {
		return nil, shared.NewValidationError("INVALID_INVOICE_NUMBER", "Invoice number cannot be empty")
	}
	if periodEnd.Before(periodStart) {
		return nil, shared.NewValidationError("INVALID_PERIOD", "Invoice period end cannot precede its start")
	}
	if taxPercent.IsNegative() {
		return nil, shared.NewValidationError("INVALID_TAX", "Tax percent cannot be negative")
	}

	tax := subtotal.Mul(taxPercent).Div(decimal.NewFromInt(100)).Round(2)
	inv := &CommissionInvoice{
		StoreAggregateRoot: shared.NewStoreAggregateRoot(storeID),
		InvoiceNumber:      invoiceNumber,
		PeriodStart:        periodStart,
		PeriodEnd:          periodEnd,
		Subtotal:           subtotal,
		TaxPercent:         taxPercent,
		TaxAmount:          tax,
		TotalAmount:        subtotal.Add(tax),
		Status:             InvoiceStatusDraft,
	}
	inv.AddDomainEvent(NewInvoiceCreatedEvent(inv))
	return inv, nil
}

// NewCreditNote creates a draft credit note negating an issued or paid
// invoice: aggregate amounts and every line item flip sign. The note carries
// its own invoice number and points back at the invoice it corrects.
func NewCreditNote(original *CommissionInvoice, invoiceNumber string) (*CommissionInvoice, error) {
	if original == nil {
		return nil, shared.NewValidationError("INVALID_ORIGINAL", "Original invoice is required")
	}
	if original.IsCreditNote {
		return nil, shared.NewValidationError("INVALID_ORIGINAL", "A credit note cannot correct another credit note")
	}
	if original.Status != InvoiceStatusIssued && original.Status != InvoiceStatusPaid {
		return nil, shared.NewConflictError("INVALID_INVOICE_STATE",
			fmt.Sprintf("Cannot credit an invoice in status %s", original.Status))
	}

	note, err := NewCommissionInvoice(original.StoreID, invoiceNumber,
		original.PeriodStart, original.PeriodEnd, original.Subtotal.Neg(), original.TaxPercent)
	if err != nil {
		return nil, err
	}
	originalID := original.ID
	note.IsCreditNote = true
	note.CorrectingInvoiceID = &originalID

	for _, item := range original.Items {
		note.Items = append(note.Items, InvoiceItem{
			BaseEntity:              shared.NewBaseEntity(),
			InvoiceID:               note.ID,
			CommissionTransactionID: item.CommissionTransactionID,
			Description:             item.Description,
			Amount:                  item.Amount.Neg(),
		})
	}
	return note, nil
}

// AddItem appends a billed commission transaction to the draft
func (i *CommissionInvoice) AddItem(commissionTxID uuid.UUID, description string, amount decimal.Decimal) error {
	if i.Status != InvoiceStatusDraft {
		return shared.NewConflictError("INVOICE_NOT_DRAFT",
			fmt.Sprintf("Cannot add items to an invoice in status %s", i.Status))
	}
	i.Items = append(i.Items, InvoiceItem{
		BaseEntity:              shared.NewBaseEntity(),
		InvoiceID:               i.ID,
		CommissionTransactionID: commissionTxID,
		Description:             description,
		Amount:                  amount,
	})
	return nil
}

// Issue moves the draft to issued, stamping the issue time
func (i *CommissionInvoice) Issue() error {
	if i.Status != InvoiceStatusDraft {
		return shared.NewConflictError("INVALID_INVOICE_STATE",
			fmt.Sprintf("Cannot issue an invoice in status %s", i.Status))
	}
	now := time.Now()
	i.Status = InvoiceStatusIssued
	i.IssuedAt = &now
	i.AddDomainEvent(NewInvoiceIssuedEvent(i))
	return nil
}

// MarkPaid records payment of an issued invoice
func (i *CommissionInvoice) MarkPaid() error {
	if i.Status == InvoiceStatusPaid {
		return nil
	}
	if i.Status != InvoiceStatusIssued {
		return shared.NewConflictError("INVALID_INVOICE_STATE",
			fmt.Sprintf("Cannot mark paid an invoice in status %s", i.Status))
	}
	now := time.Now()
	i.Status = InvoiceStatusPaid
	i.PaidAt = &now
	return nil
}

// Cancel voids a draft or issued invoice. Paid invoices are corrected with a
// credit note, never cancelled.
func (i *CommissionInvoice) Cancel() error {
	if i.Status == InvoiceStatusCancelled {
		return nil
	}
	if i.Status != InvoiceStatusDraft && i.Status != InvoiceStatusIssued {
		return shared.NewConflictError("INVALID_INVOICE_STATE",
			fmt.Sprintf("Cannot cancel an invoice in status %s", i.Status))
	}
	i.Status = InvoiceStatusCancelled
	return nil
}

// MarkSuperseded retires the invoice because a replacement document exists: a
// regenerated invoice, or a credit note correcting it.
func (i *CommissionInvoice) MarkSuperseded() error {
	if i.Status == InvoiceStatusSuperseded {
		return nil
	}
	if i.Status == InvoiceStatusCancelled {
		return shared.NewConflictError("INVALID_INVOICE_STATE",
			"A cancelled invoice cannot be superseded")
	}
	i.Status = InvoiceStatusSuperseded
	return nil
}

package billing

import (
	"github.com/markethub/backend/internal/domain/shared"
)

const (
	EventTypeInvoiceCreated = "billing.invoice_created"
	EventTypeInvoiceIssued  = "billing.invoice_issued"
)

// InvoiceCreatedEvent is raised when a commission invoice draft is created
type InvoiceCreatedEvent struct {
	shared.BaseDomainEvent
	Invoice *CommissionInvoice
}

// NewInvoiceCreatedEvent creates a new InvoiceCreatedEvent
func NewInvoiceCreatedEvent(i *CommissionInvoice) *InvoiceCreatedEvent {
	return &InvoiceCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeInvoiceCreated, "CommissionInvoice", i.ID),
		Invoice:         i,
	}
}

// InvoiceIssuedEvent is raised when a commission invoice is issued
type InvoiceIssuedEvent struct {
	shared.BaseDomainEvent
	Invoice *CommissionInvoice
}

// NewInvoiceIssuedEvent creates a new InvoiceIssuedEvent
func NewInvoiceIssuedEvent(i *CommissionInvoice) *InvoiceIssuedEvent {
	return &InvoiceIssuedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeInvoiceIssued, "CommissionInvoice", i.ID),
		Invoice:         i,
	}
}

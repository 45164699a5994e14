package billing

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// InvoiceRepository persists commission invoices
type InvoiceRepository interface {
	// FindByID finds an invoice by ID
	FindByID(ctx context.Context, id uuid.UUID) (*CommissionInvoice, error)

	// FindByInvoiceNumber finds an invoice by its number
	FindByInvoiceNumber(ctx context.Context, number string) (*CommissionInvoice, error)

	// FindActiveByStorePeriod returns the store's non-superseded,
	// non-cancelled invoice for the exact period, excluding credit notes,
	// or nil when none exists
	FindActiveByStorePeriod(ctx context.Context, storeID uuid.UUID, periodStart, periodEnd time.Time) (*CommissionInvoice, error)

	// FindByStore returns the store's invoices, newest first
	FindByStore(ctx context.Context, storeID uuid.UUID) ([]CommissionInvoice, error)

	// HighestNumberForYear returns the largest sequence already allocated
	// for the year, zero when the year has no invoices yet
	HighestNumberForYear(ctx context.Context, year int) (int, error)

	// Save creates or updates an invoice together with its items
	Save(ctx context.Context, invoice *CommissionInvoice) error
}

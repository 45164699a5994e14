package persistence

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/markethub/backend/internal/domain/billing"
)

// GormInvoiceRepository implements billing.InvoiceRepository using GORM
type GormInvoiceRepository struct {
	db *gorm.DB
}

// NewGormInvoiceRepository creates a new GormInvoiceRepository
func NewGormInvoiceRepository(db *gorm.DB) *GormInvoiceRepository {
	return &GormInvoiceRepository{db: db}
}

// FindByID finds an invoice by ID
func (r *GormInvoiceRepository) FindByID(ctx context.Context, id uuid.UUID) (*billing.CommissionInvoice, error) {
	var invoice billing.CommissionInvoice
	err := dbFromContext(ctx, r.db).
		Preload("Items").
		First(&invoice, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &invoice, nil
}

// FindByInvoiceNumber finds an invoice by its number
func (r *GormInvoiceRepository) FindByInvoiceNumber(ctx context.Context, number string) (*billing.CommissionInvoice, error) {
	var invoice billing.CommissionInvoice
	err := dbFromContext(ctx, r.db).
		Preload("Items").
		First(&invoice, "invoice_number = ?", number).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &invoice, nil
}

// FindActiveByStorePeriod returns the store's non-superseded, non-cancelled
// invoice for the exact period, excluding credit notes, or nil when none exists
func (r *GormInvoiceRepository) FindActiveByStorePeriod(ctx context.Context, storeID uuid.UUID, periodStart, periodEnd time.Time) (*billing.CommissionInvoice, error) {
	var invoice billing.CommissionInvoice
	err := dbFromContext(ctx, r.db).
		Preload("Items").
		Where("store_id = ? AND period_start = ? AND period_end = ?", storeID, periodStart, periodEnd).
		Where("is_credit_note = ?", false).
		Where("status NOT IN ?", []billing.InvoiceStatus{
			billing.InvoiceStatusCancelled,
			billing.InvoiceStatusSuperseded,
		}).
		First(&invoice).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &invoice, nil
}

// FindByStore returns the store's invoices, newest first
func (r *GormInvoiceRepository) FindByStore(ctx context.Context, storeID uuid.UUID) ([]billing.CommissionInvoice, error) {
	var invoices []billing.CommissionInvoice
	err := dbFromContext(ctx, r.db).
		Preload("Items").
		Where("store_id = ?", storeID).
		Order("created_at DESC").
		Find(&invoices).Error
	if err != nil {
		return nil, err
	}
	return invoices, nil
}

// HighestNumberForYear returns the largest sequence already allocated for
// the year, zero when the year has no invoices yet. Runs inside the
// caller's transaction during generation so concurrent allocations
// serialize on the unique invoice_number index.
func (r *GormInvoiceRepository) HighestNumberForYear(ctx context.Context, year int) (int, error) {
	prefix := fmt.Sprintf("INV-%04d-", year)

	var lastNumber string
	err := dbFromContext(ctx, r.db).
		Model(&billing.CommissionInvoice{}).
		Where("invoice_number LIKE ?", prefix+"%").
		Order("invoice_number DESC").
		Limit(1).
		Pluck("invoice_number", &lastNumber).Error
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, err
	}
	if lastNumber == "" {
		return 0, nil
	}

	_, seq, err := billing.ParseInvoiceNumber(lastNumber)
	if err != nil {
		return 0, err
	}
	return seq, nil
}

// Save creates or updates an invoice together with its items
func (r *GormInvoiceRepository) Save(ctx context.Context, invoice *billing.CommissionInvoice) error {
	return dbFromContext(ctx, r.db).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Save(invoice).Error; err != nil {
			return err
		}
		// Invoice lines never change after generation; upsert is enough
		for i := range invoice.Items {
			invoice.Items[i].InvoiceID = invoice.ID
			if err := tx.Save(&invoice.Items[i]).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// Ensure GormInvoiceRepository implements InvoiceRepository
var _ billing.InvoiceRepository = (*GormInvoiceRepository)(nil)

package billing

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/markethub/backend/internal/domain/billing"
	"github.com/markethub/backend/internal/domain/commission"
	"github.com/markethub/backend/internal/domain/shared"
	"github.com/markethub/backend/internal/infrastructure/telemetry"
)

// InvoiceService generates and manages commission invoices. The platform
// invoices each store for the commission charged during a period; credit
// notes correct invoices that were already issued or paid.
type InvoiceService struct {
	invoiceRepo    billing.InvoiceRepository
	commissionRepo commission.TransactionRepository
	txManager      shared.TransactionManager
	eventPublisher shared.EventPublisher
	taxPercent     decimal.Decimal
	logger         *zap.Logger
}

// NewInvoiceService creates a new InvoiceService. taxPercent applies to
// every generated invoice; per-store tax regimes are out of scope.
func NewInvoiceService(
	invoiceRepo billing.InvoiceRepository,
	commissionRepo commission.TransactionRepository,
	txManager shared.TransactionManager,
	taxPercent decimal.Decimal,
	logger *zap.Logger,
) *InvoiceService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &InvoiceService{
		invoiceRepo:    invoiceRepo,
		commissionRepo: commissionRepo,
		txManager:      txManager,
		taxPercent:     taxPercent,
		logger:         logger,
	}
}

// SetEventPublisher sets the event publisher for cross-context integration
func (s *InvoiceService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// Generate creates the commission invoice for a store and period, itemized
// from the commission ledger. Generation is idempotent by (store, period):
// an existing active invoice is returned as-is. A period with no commission
// transactions produces no invoice and returns nil; a period whose charges
// and reversals net to zero still gets an invoice documenting both sides.
func (s *InvoiceService) Generate(ctx context.Context, req GenerateInvoiceRequest) (*InvoiceResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "InvoiceService", "Generate")
	defer span.End()

	if req.PeriodEnd.Before(req.PeriodStart) {
		return nil, shared.NewValidationError("INVALID_PERIOD", "Invoice period end cannot precede its start")
	}

	var invoice *billing.CommissionInvoice
	err := s.txManager.Do(ctx, func(ctx context.Context) error {
		existing, err := s.invoiceRepo.FindActiveByStorePeriod(ctx, req.StoreID, req.PeriodStart, req.PeriodEnd)
		if err != nil {
			return err
		}
		if existing != nil {
			invoice = existing
			return nil
		}

		txs, err := s.commissionRepo.FindByStoreInPeriod(ctx, req.StoreID, req.PeriodStart, req.PeriodEnd)
		if err != nil {
			return err
		}
		if len(txs) == 0 {
			return nil
		}
		subtotal := decimal.Zero
		for _, tx := range txs {
			subtotal = subtotal.Add(tx.Amount)
		}

		number, err := s.nextNumber(ctx, req.PeriodEnd.Year())
		if err != nil {
			return err
		}
		invoice, err = billing.NewCommissionInvoice(req.StoreID, number,
			req.PeriodStart, req.PeriodEnd, subtotal, s.taxPercent)
		if err != nil {
			return err
		}
		for _, tx := range txs {
			description := fmt.Sprintf("%s commission", tx.Type.String())
			if tx.Notes != "" {
				description = tx.Notes
			}
			if err := invoice.AddItem(tx.ID, description, tx.Amount); err != nil {
				return err
			}
		}
		return s.invoiceRepo.Save(ctx, invoice)
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	if invoice == nil {
		return nil, nil
	}
	s.publishEvents(ctx, invoice)

	s.logger.Info("commission invoice generated",
		zap.String("invoice_number", invoice.InvoiceNumber),
		zap.String("store_id", invoice.StoreID.String()),
		zap.String("total", invoice.TotalAmount.String()))
	response := ToInvoiceResponse(invoice)
	return &response, nil
}

// CreateCreditNote issues a credit note negating an issued or paid invoice.
// The original is marked superseded in the same transaction, so the note and
// the retirement of the document it corrects are atomic.
func (s *InvoiceService) CreateCreditNote(ctx context.Context, invoiceID uuid.UUID) (*InvoiceResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "InvoiceService", "CreateCreditNote")
	defer span.End()

	var note *billing.CommissionInvoice
	err := s.txManager.Do(ctx, func(ctx context.Context) error {
		original, err := s.invoiceRepo.FindByID(ctx, invoiceID)
		if err != nil {
			return err
		}
		if original == nil {
			return shared.NewNotFoundError("INVOICE_NOT_FOUND", "Invoice not found")
		}

		number, err := s.nextNumber(ctx, time.Now().Year())
		if err != nil {
			return err
		}
		note, err = billing.NewCreditNote(original, number)
		if err != nil {
			return err
		}
		if err := note.Issue(); err != nil {
			return err
		}
		if err := original.MarkSuperseded(); err != nil {
			return err
		}
		if err := s.invoiceRepo.Save(ctx, original); err != nil {
			return err
		}
		return s.invoiceRepo.Save(ctx, note)
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	s.publishEvents(ctx, note)

	s.logger.Info("credit note issued", zap.String("invoice_number", note.InvoiceNumber))
	response := ToInvoiceResponse(note)
	return &response, nil
}

// Issue moves a draft invoice to issued
func (s *InvoiceService) Issue(ctx context.Context, invoiceID uuid.UUID) (*InvoiceResponse, error) {
	return s.mutate(ctx, invoiceID, func(invoice *billing.CommissionInvoice) error {
		return invoice.Issue()
	})
}

// MarkPaid records payment of an issued invoice
func (s *InvoiceService) MarkPaid(ctx context.Context, invoiceID uuid.UUID) (*InvoiceResponse, error) {
	return s.mutate(ctx, invoiceID, func(invoice *billing.CommissionInvoice) error {
		return invoice.MarkPaid()
	})
}

// Cancel voids a draft or issued invoice
func (s *InvoiceService) Cancel(ctx context.Context, invoiceID uuid.UUID) (*InvoiceResponse, error) {
	return s.mutate(ctx, invoiceID, func(invoice *billing.CommissionInvoice) error {
		return invoice.Cancel()
	})
}

// MarkSuperseded retires an invoice after its settlement was regenerated
func (s *InvoiceService) MarkSuperseded(ctx context.Context, invoiceID uuid.UUID) (*InvoiceResponse, error) {
	return s.mutate(ctx, invoiceID, func(invoice *billing.CommissionInvoice) error {
		return invoice.MarkSuperseded()
	})
}

// Get retrieves an invoice by ID
func (s *InvoiceService) Get(ctx context.Context, invoiceID uuid.UUID) (*InvoiceResponse, error) {
	invoice, err := s.invoiceRepo.FindByID(ctx, invoiceID)
	if err != nil {
		return nil, err
	}
	if invoice == nil {
		return nil, shared.NewNotFoundError("INVOICE_NOT_FOUND", "Invoice not found")
	}
	response := ToInvoiceResponse(invoice)
	return &response, nil
}

// ListByStore returns the store's invoices, newest first
func (s *InvoiceService) ListByStore(ctx context.Context, storeID uuid.UUID) ([]InvoiceResponse, error) {
	invoices, err := s.invoiceRepo.FindByStore(ctx, storeID)
	if err != nil {
		return nil, err
	}
	return ToInvoiceResponses(invoices), nil
}

// nextNumber allocates the next invoice number for the year. Runs inside the
// caller's transaction so concurrent generations serialize on the repository.
func (s *InvoiceService) nextNumber(ctx context.Context, year int) (string, error) {
	highest, err := s.invoiceRepo.HighestNumberForYear(ctx, year)
	if err != nil {
		return "", err
	}
	return billing.FormatInvoiceNumber(year, highest+1), nil
}

func (s *InvoiceService) mutate(ctx context.Context, invoiceID uuid.UUID, op func(*billing.CommissionInvoice) error) (*InvoiceResponse, error) {
	var invoice *billing.CommissionInvoice
	err := s.txManager.Do(ctx, func(ctx context.Context) error {
		var err error
		invoice, err = s.invoiceRepo.FindByID(ctx, invoiceID)
		if err != nil {
			return err
		}
		if invoice == nil {
			return shared.NewNotFoundError("INVOICE_NOT_FOUND", "Invoice not found")
		}
		if err := op(invoice); err != nil {
			return err
		}
		return s.invoiceRepo.Save(ctx, invoice)
	})
	if err != nil {
		return nil, err
	}
	s.publishEvents(ctx, invoice)

	response := ToInvoiceResponse(invoice)
	return &response, nil
}

func (s *InvoiceService) publishEvents(ctx context.Context, invoice *billing.CommissionInvoice) {
	if s.eventPublisher == nil || invoice == nil {
		return
	}
	for _, event := range invoice.GetDomainEvents() {
		if err := s.eventPublisher.Publish(ctx, event); err != nil {
			s.logger.Warn("failed to publish domain event",
				zap.String("event_type", event.EventType()), zap.Error(err))
		}
	}
	invoice.ClearDomainEvents()
}

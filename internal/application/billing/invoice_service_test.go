package billing

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/markethub/backend/internal/domain/billing"
	"github.com/markethub/backend/internal/domain/commission"
)

// MockInvoiceRepository is a mock implementation of InvoiceRepository
type MockInvoiceRepository struct {
	mock.Mock
}

func (m *MockInvoiceRepository) FindByID(ctx context.Context, id uuid.UUID) (*billing.CommissionInvoice, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*billing.CommissionInvoice), args.Error(1)
}

func (m *MockInvoiceRepository) FindByInvoiceNumber(ctx context.Context, number string) (*billing.CommissionInvoice, error) {
	args := m.Called(ctx, number)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*billing.CommissionInvoice), args.Error(1)
}

func (m *MockInvoiceRepository) FindActiveByStorePeriod(ctx context.Context, storeID uuid.UUID, periodStart, periodEnd time.Time) (*billing.CommissionInvoice, error) {
	args := m.Called(ctx, storeID, periodStart, periodEnd)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*billing.CommissionInvoice), args.Error(1)
}

func (m *MockInvoiceRepository) FindByStore(ctx context.Context, storeID uuid.UUID) ([]billing.CommissionInvoice, error) {
	args := m.Called(ctx, storeID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]billing.CommissionInvoice), args.Error(1)
}

func (m *MockInvoiceRepository) HighestNumberForYear(ctx context.Context, year int) (int, error) {
	args := m.Called(ctx, year)
	return args.Int(0), args.Error(1)
}

func (m *MockInvoiceRepository) Save(ctx context.Context, invoice *billing.CommissionInvoice) error {
	args := m.Called(ctx, invoice)
	return args.Error(0)
}

// MockCommissionRepository is a mock implementation of commission.TransactionRepository
type MockCommissionRepository struct {
	mock.Mock
}

func (m *MockCommissionRepository) Save(ctx context.Context, tx *commission.Transaction) error {
	args := m.Called(ctx, tx)
	return args.Error(0)
}

func (m *MockCommissionRepository) FindByID(ctx context.Context, id uuid.UUID) (*commission.Transaction, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*commission.Transaction), args.Error(1)
}

func (m *MockCommissionRepository) FindLatestInitialByEscrow(ctx context.Context, escrowID uuid.UUID) (*commission.Transaction, error) {
	args := m.Called(ctx, escrowID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*commission.Transaction), args.Error(1)
}

func (m *MockCommissionRepository) FindByEscrow(ctx context.Context, escrowID uuid.UUID) ([]commission.Transaction, error) {
	args := m.Called(ctx, escrowID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]commission.Transaction), args.Error(1)
}

func (m *MockCommissionRepository) FindByStoreInPeriod(ctx context.Context, storeID uuid.UUID, from, to time.Time) ([]commission.Transaction, error) {
	args := m.Called(ctx, storeID, from, to)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]commission.Transaction), args.Error(1)
}

// passthroughTxManager runs the function without a real transaction
type passthroughTxManager struct{}

func (passthroughTxManager) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type invoiceFixture struct {
	invoices    *MockInvoiceRepository
	commissions *MockCommissionRepository
	service     *InvoiceService
}

func newInvoiceFixture() *invoiceFixture {
	f := &invoiceFixture{
		invoices:    new(MockInvoiceRepository),
		commissions: new(MockCommissionRepository),
	}
	f.service = NewInvoiceService(f.invoices, f.commissions, passthroughTxManager{},
		decimal.NewFromInt(19), nil)
	return f
}

func invoicePeriod() (time.Time, time.Time) {
	start := time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2026, 7, 31, 0, 0, 0, 0, time.UTC)
	return start, end
}

func commissionTx(t *testing.T, storeID uuid.UUID, txType commission.TransactionType, amount int64) commission.Transaction {
	tx, err := commission.NewTransaction(uuid.New(), storeID, nil, txType,
		decimal.NewFromInt(200), decimal.NewFromInt(amount), decimal.NewFromInt(10),
		decimal.Zero, commission.SourceGlobal, "")
	require.NoError(t, err)
	return *tx
}

func TestInvoiceService_Generate(t *testing.T) {
	f := newInvoiceFixture()
	storeID := uuid.New()
	start, end := invoicePeriod()

	// Initial 20 and 10, reversal -6: net commission 24.
	txs := []commission.Transaction{
		commissionTx(t, storeID, commission.TransactionTypeInitial, 20),
		commissionTx(t, storeID, commission.TransactionTypeInitial, 10),
		commissionTx(t, storeID, commission.TransactionTypeRefundAdjustment, -6),
	}

	f.invoices.On("FindActiveByStorePeriod", mock.Anything, storeID, start, end).Return(nil, nil)
	f.commissions.On("FindByStoreInPeriod", mock.Anything, storeID, start, end).Return(txs, nil)
	f.invoices.On("HighestNumberForYear", mock.Anything, 2026).Return(41, nil)

	var saved *billing.CommissionInvoice
	f.invoices.On("Save", mock.Anything, mock.AnythingOfType("*billing.CommissionInvoice")).
		Run(func(args mock.Arguments) { saved = args.Get(1).(*billing.CommissionInvoice) }).
		Return(nil)

	resp, err := f.service.Generate(context.Background(), GenerateInvoiceRequest{
		StoreID:     storeID,
		PeriodStart: start,
		PeriodEnd:   end,
	})
	require.NoError(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, "INV-2026-000042", resp.InvoiceNumber)
	assert.Equal(t, "24", resp.Subtotal.String())
	assert.Equal(t, "4.56", resp.TaxAmount.StringFixed(2))
	assert.Equal(t, "28.56", resp.TotalAmount.StringFixed(2))
	assert.Len(t, resp.Items, 3)

	require.NotNil(t, saved)
	assert.Equal(t, billing.InvoiceStatusDraft, saved.Status)
}

func TestInvoiceService_Generate_IdempotentByPeriod(t *testing.T) {
	f := newInvoiceFixture()
	storeID := uuid.New()
	start, end := invoicePeriod()

	existing, err := billing.NewCommissionInvoice(storeID, "INV-2026-000007", start, end,
		decimal.NewFromInt(24), decimal.NewFromInt(19))
	require.NoError(t, err)
	existing.ClearDomainEvents()
	f.invoices.On("FindActiveByStorePeriod", mock.Anything, storeID, start, end).Return(existing, nil)

	resp, err := f.service.Generate(context.Background(), GenerateInvoiceRequest{
		StoreID:     storeID,
		PeriodStart: start,
		PeriodEnd:   end,
	})
	require.NoError(t, err)
	assert.Equal(t, "INV-2026-000007", resp.InvoiceNumber)
	f.invoices.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
	f.commissions.AssertNotCalled(t, "FindByStoreInPeriod", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestInvoiceService_Generate_NoCommissionNoInvoice(t *testing.T) {
	f := newInvoiceFixture()
	storeID := uuid.New()
	start, end := invoicePeriod()

	f.invoices.On("FindActiveByStorePeriod", mock.Anything, storeID, start, end).Return(nil, nil)
	f.commissions.On("FindByStoreInPeriod", mock.Anything, storeID, start, end).
		Return([]commission.Transaction{}, nil)

	resp, err := f.service.Generate(context.Background(), GenerateInvoiceRequest{
		StoreID:     storeID,
		PeriodStart: start,
		PeriodEnd:   end,
	})
	require.NoError(t, err)
	assert.Nil(t, resp)
	f.invoices.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
}

func TestInvoiceService_Generate_ZeroNetStillInvoiced(t *testing.T) {
	f := newInvoiceFixture()
	storeID := uuid.New()
	start, end := invoicePeriod()

	// Charges fully offset by reversals: the period still gets a document
	// carrying both sides of the ledger.
	txs := []commission.Transaction{
		commissionTx(t, storeID, commission.TransactionTypeInitial, 20),
		commissionTx(t, storeID, commission.TransactionTypeRefundAdjustment, -20),
	}

	f.invoices.On("FindActiveByStorePeriod", mock.Anything, storeID, start, end).Return(nil, nil)
	f.commissions.On("FindByStoreInPeriod", mock.Anything, storeID, start, end).Return(txs, nil)
	f.invoices.On("HighestNumberForYear", mock.Anything, 2026).Return(41, nil)
	f.invoices.On("Save", mock.Anything, mock.AnythingOfType("*billing.CommissionInvoice")).Return(nil)

	resp, err := f.service.Generate(context.Background(), GenerateInvoiceRequest{
		StoreID:     storeID,
		PeriodStart: start,
		PeriodEnd:   end,
	})
	require.NoError(t, err)
	require.NotNil(t, resp)
	assert.True(t, resp.Subtotal.IsZero())
	assert.True(t, resp.TotalAmount.IsZero())
	assert.Len(t, resp.Items, 2)
}

func TestInvoiceService_CreateCreditNote(t *testing.T) {
	f := newInvoiceFixture()
	storeID := uuid.New()
	start, end := invoicePeriod()

	original, err := billing.NewCommissionInvoice(storeID, "INV-2026-000007", start, end,
		decimal.NewFromInt(24), decimal.NewFromInt(19))
	require.NoError(t, err)
	require.NoError(t, original.AddItem(uuid.New(), "INITIAL commission", decimal.NewFromInt(30)))
	require.NoError(t, original.AddItem(uuid.New(), "REFUND_ADJUSTMENT commission", decimal.NewFromInt(-6)))
	require.NoError(t, original.Issue())
	require.NoError(t, original.MarkPaid())
	original.ClearDomainEvents()

	f.invoices.On("FindByID", mock.Anything, original.ID).Return(original, nil)
	f.invoices.On("HighestNumberForYear", mock.Anything, time.Now().Year()).Return(42, nil)
	f.invoices.On("Save", mock.Anything, mock.AnythingOfType("*billing.CommissionInvoice")).Return(nil)

	resp, err := f.service.CreateCreditNote(context.Background(), original.ID)
	require.NoError(t, err)
	assert.True(t, resp.IsCreditNote)
	assert.Equal(t, "ISSUED", resp.Status)
	assert.Equal(t, "-24", resp.Subtotal.String())
	require.NotNil(t, resp.CorrectingInvoiceID)
	assert.Equal(t, original.ID, *resp.CorrectingInvoiceID)

	// Each line item comes back negated, billing the same transactions.
	require.Len(t, resp.Items, 2)
	assert.Equal(t, "-30", resp.Items[0].Amount.String())
	assert.Equal(t, "6", resp.Items[1].Amount.String())
	assert.Equal(t, "INITIAL commission", resp.Items[0].Description)

	// The corrected invoice is retired in the same transaction, even from
	// PAID, and both documents are persisted.
	assert.Equal(t, billing.InvoiceStatusSuperseded, original.Status)
	f.invoices.AssertCalled(t, "Save", mock.Anything, original)
	f.invoices.AssertNumberOfCalls(t, "Save", 2)
}

func TestInvoiceService_StatusOperations(t *testing.T) {
	f := newInvoiceFixture()
	storeID := uuid.New()
	start, end := invoicePeriod()

	invoice, err := billing.NewCommissionInvoice(storeID, "INV-2026-000008", start, end,
		decimal.NewFromInt(24), decimal.NewFromInt(19))
	require.NoError(t, err)
	invoice.ClearDomainEvents()

	f.invoices.On("FindByID", mock.Anything, invoice.ID).Return(invoice, nil)
	f.invoices.On("Save", mock.Anything, invoice).Return(nil)

	resp, err := f.service.Issue(context.Background(), invoice.ID)
	require.NoError(t, err)
	assert.Equal(t, "ISSUED", resp.Status)

	resp, err = f.service.MarkPaid(context.Background(), invoice.ID)
	require.NoError(t, err)
	assert.Equal(t, "PAID", resp.Status)

	// Paid invoices cannot be cancelled.
	_, err = f.service.Cancel(context.Background(), invoice.ID)
	assert.Error(t, err)
}

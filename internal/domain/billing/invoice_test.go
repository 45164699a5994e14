package billing

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newDraftInvoice(t *testing.T, subtotal, taxPercent float64) *CommissionInvoice {
	start := time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2026, 7, 31, 0, 0, 0, 0, time.UTC)
	inv, err := NewCommissionInvoice(uuid.New(), "INV-2026-000001", start, end,
		decimal.NewFromFloat(subtotal), decimal.NewFromFloat(taxPercent))
	require.NoError(t, err)
	return inv
}

func TestNewCommissionInvoice_TaxComputation(t *testing.T) {
	inv := newDraftInvoice(t, 24, 19)

	assert.Equal(t, "4.56", inv.TaxAmount.StringFixed(2))
	assert.Equal(t, "28.56", inv.TotalAmount.StringFixed(2))
	assert.Equal(t, InvoiceStatusDraft, inv.Status)
	assert.False(t, inv.IsCreditNote)

	// Rounding is half away from zero.
	odd := newDraftInvoice(t, 10.03, 7.5)
	assert.Equal(t, "0.75", odd.TaxAmount.StringFixed(2))
}

func TestNewCommissionInvoice_Validation(t *testing.T) {
	start := time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC)

	_, err := NewCommissionInvoice(uuid.Nil, "INV-2026-000001", start, start, decimal.NewFromInt(10), decimal.Zero)
	assert.Error(t, err)

	_, err = NewCommissionInvoice(uuid.New(), "", start, start, decimal.NewFromInt(10), decimal.Zero)
	assert.Error(t, err)

	_, err = NewCommissionInvoice(uuid.New(), "INV-2026-000001", start, start.AddDate(0, 0, -1), decimal.NewFromInt(10), decimal.Zero)
	assert.Error(t, err)

	_, err = NewCommissionInvoice(uuid.New(), "INV-2026-000001", start, start, decimal.NewFromInt(10), decimal.NewFromInt(-1))
	assert.Error(t, err)
}

func TestInvoice_Lifecycle(t *testing.T) {
	inv := newDraftInvoice(t, 24, 19)
	require.NoError(t, inv.AddItem(uuid.New(), "Commission ORD-1", decimal.NewFromInt(24)))

	require.NoError(t, inv.Issue())
	assert.Equal(t, InvoiceStatusIssued, inv.Status)
	require.NotNil(t, inv.IssuedAt)

	// No items or re-issue after issuing.
	assert.Error(t, inv.AddItem(uuid.New(), "late", decimal.NewFromInt(1)))
	assert.Error(t, inv.Issue())

	require.NoError(t, inv.MarkPaid())
	require.NotNil(t, inv.PaidAt)
	// Paying twice is a no-op.
	assert.NoError(t, inv.MarkPaid())

	// Paid invoices cannot be cancelled; they are corrected with a credit
	// note, which supersedes them.
	assert.Error(t, inv.Cancel())
	assert.NoError(t, inv.MarkSuperseded())
	assert.Equal(t, InvoiceStatusSuperseded, inv.Status)
}

func TestInvoice_CancelAndSupersede(t *testing.T) {
	inv := newDraftInvoice(t, 24, 19)
	require.NoError(t, inv.Cancel())
	assert.Equal(t, InvoiceStatusCancelled, inv.Status)
	assert.NoError(t, inv.Cancel())
	assert.Error(t, inv.MarkPaid())
	// A void document has nothing to supersede.
	assert.Error(t, inv.MarkSuperseded())

	issued := newDraftInvoice(t, 24, 19)
	require.NoError(t, issued.Issue())
	require.NoError(t, issued.MarkSuperseded())
	assert.Equal(t, InvoiceStatusSuperseded, issued.Status)
	assert.NoError(t, issued.MarkSuperseded())
}

func TestNewCreditNote(t *testing.T) {
	original := newDraftInvoice(t, 24, 19)
	txID := uuid.New()
	require.NoError(t, original.AddItem(txID, "INITIAL commission", decimal.NewFromInt(30)))
	require.NoError(t, original.AddItem(uuid.New(), "REFUND_ADJUSTMENT commission", decimal.NewFromInt(-6)))

	// Draft invoices cannot be credited.
	_, err := NewCreditNote(original, "INV-2026-000002")
	assert.Error(t, err)

	require.NoError(t, original.Issue())
	require.NoError(t, original.MarkPaid())

	note, err := NewCreditNote(original, "INV-2026-000002")
	require.NoError(t, err)
	assert.True(t, note.IsCreditNote)
	require.NotNil(t, note.CorrectingInvoiceID)
	assert.Equal(t, original.ID, *note.CorrectingInvoiceID)
	assert.Equal(t, "-24.00", note.Subtotal.StringFixed(2))
	assert.Equal(t, "-4.56", note.TaxAmount.StringFixed(2))
	assert.Equal(t, "-28.56", note.TotalAmount.StringFixed(2))
	assert.Equal(t, original.PeriodStart, note.PeriodStart)

	// Line items carry over negated, parented to the note but still
	// billing the same commission transactions.
	require.Len(t, note.Items, 2)
	assert.Equal(t, note.ID, note.Items[0].InvoiceID)
	assert.Equal(t, txID, note.Items[0].CommissionTransactionID)
	assert.Equal(t, "-30", note.Items[0].Amount.String())
	assert.Equal(t, "6", note.Items[1].Amount.String())
	assert.Equal(t, "INITIAL commission", note.Items[0].Description)

	// Credit notes cannot be credited again.
	require.NoError(t, note.Issue())
	_, err = NewCreditNote(note, "INV-2026-000003")
	assert.Error(t, err)

	_, err = NewCreditNote(nil, "INV-2026-000003")
	assert.Error(t, err)
}

func TestInvoiceNumber_FormatAndParse(t *testing.T) {
	assert.Equal(t, "INV-2026-000042", FormatInvoiceNumber(2026, 42))

	year, seq, err := ParseInvoiceNumber("INV-2026-000042")
	require.NoError(t, err)
	assert.Equal(t, 2026, year)
	assert.Equal(t, 42, seq)

	_, _, err = ParseInvoiceNumber("INV-26-42")
	assert.Error(t, err)
	_, _, err = ParseInvoiceNumber("CN-2026-000042")
	assert.Error(t, err)
}

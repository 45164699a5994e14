package commission

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewTransaction_Validation(t *testing.T) {
	escrowID := uuid.New()
	storeID := uuid.New()

	tests := []struct {
		name    string
		escrow  uuid.UUID
		store   uuid.UUID
		txType  TransactionType
		amount  decimal.Decimal
		source  Source
		wantErr bool
	}{
		{"valid initial", escrowID, storeID, TransactionTypeInitial, decimal.NewFromInt(20), SourceGlobal, false},
		{"valid zero initial", escrowID, storeID, TransactionTypeInitial, decimal.Zero, SourceGlobal, false},
		{"valid adjustment", escrowID, storeID, TransactionTypeRefundAdjustment, decimal.NewFromInt(-6), SourceSeller, false},
		{"missing escrow", uuid.Nil, storeID, TransactionTypeInitial, decimal.NewFromInt(20), SourceGlobal, true},
		{"missing store", escrowID, uuid.Nil, TransactionTypeInitial, decimal.NewFromInt(20), SourceGlobal, true},
		{"unknown type", escrowID, storeID, TransactionType("BONUS"), decimal.NewFromInt(20), SourceGlobal, true},
		{"unknown source", escrowID, storeID, TransactionTypeInitial, decimal.NewFromInt(20), Source("PROMO"), true},
		{"negative initial", escrowID, storeID, TransactionTypeInitial, decimal.NewFromInt(-1), SourceGlobal, true},
		{"positive adjustment", escrowID, storeID, TransactionTypeRefundAdjustment, decimal.NewFromInt(1), SourceGlobal, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tx, err := NewTransaction(tt.escrow, tt.store, nil, tt.txType,
				decimal.NewFromInt(200), tt.amount, decimal.NewFromInt(10), decimal.Zero, tt.source, "")
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.NotEqual(t, uuid.Nil, tx.ID)
			assert.False(t, tx.CreatedAt.IsZero())
		})
	}
}

func TestNewInitialTransaction(t *testing.T) {
	categoryID := uuid.New()
	res := Resolution{
		Amount:            decimal.NewFromInt(24),
		Percentage:        decimal.NewFromInt(12),
		FixedFee:          decimal.Zero,
		Source:            SourceCategory,
		AppliedCategoryID: &categoryID,
	}

	tx, err := NewInitialTransaction(uuid.New(), uuid.New(), res, decimal.NewFromInt(200), "order paid")
	require.NoError(t, err)
	assert.Equal(t, TransactionTypeInitial, tx.Type)
	assert.Equal(t, SourceCategory, tx.Source)
	require.NotNil(t, tx.CategoryID)
	assert.Equal(t, categoryID, *tx.CategoryID)
	assert.True(t, tx.Amount.Equal(decimal.NewFromInt(24)))
	assert.True(t, tx.GrossAmount.Equal(decimal.NewFromInt(200)))
}

func TestNewRefundAdjustment(t *testing.T) {
	res := Resolution{
		Amount:     decimal.NewFromInt(20),
		Percentage: decimal.NewFromInt(10),
		FixedFee:   decimal.Zero,
		Source:     SourceSeller,
	}
	original, err := NewInitialTransaction(uuid.New(), uuid.New(), res, decimal.NewFromInt(200), "")
	require.NoError(t, err)

	adj, err := NewRefundAdjustment(original, decimal.NewFromInt(60), decimal.NewFromInt(-6), "partial refund")
	require.NoError(t, err)
	assert.Equal(t, TransactionTypeRefundAdjustment, adj.Type)
	assert.Equal(t, original.EscrowTransactionID, adj.EscrowTransactionID)
	assert.Equal(t, original.StoreID, adj.StoreID)
	assert.Equal(t, SourceSeller, adj.Source)
	assert.True(t, adj.Amount.Equal(decimal.NewFromInt(-6)))
	assert.True(t, adj.Percentage.Equal(decimal.NewFromInt(10)))
	assert.True(t, adj.FixedFee.IsZero())

	_, err = NewRefundAdjustment(nil, decimal.NewFromInt(60), decimal.NewFromInt(-6), "")
	assert.Error(t, err)
}

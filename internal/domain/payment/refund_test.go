package payment

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRefund(t *testing.T) *RefundTransaction {
	r, err := NewRefundTransaction("REF-2026-000001", uuid.New(), uuid.New(), uuid.New(),
		decimal.NewFromInt(60), RefundInitiatorBuyer, "damaged item", nil)
	require.NoError(t, err)
	return r
}

func TestNewRefundTransaction_Validation(t *testing.T) {
	_, err := NewRefundTransaction("", uuid.New(), uuid.New(), uuid.New(),
		decimal.NewFromInt(10), RefundInitiatorBuyer, "", nil)
	assert.Error(t, err)

	_, err = NewRefundTransaction("REF-1", uuid.New(), uuid.New(), uuid.New(),
		decimal.Zero, RefundInitiatorBuyer, "", nil)
	assert.Error(t, err)

	_, err = NewRefundTransaction("REF-1", uuid.New(), uuid.New(), uuid.New(),
		decimal.NewFromInt(10), RefundInitiator("UNKNOWN"), "", nil)
	assert.Error(t, err)

	r := newTestRefund(t)
	assert.Equal(t, RefundStatusPending, r.Status)
	assert.Equal(t, 1, r.AttemptCount)
	assert.False(t, r.ProviderSucceeded)
	assert.False(t, r.FundsReversed)
}

func TestRefund_HappyPath(t *testing.T) {
	r := newTestRefund(t)

	// Completing before the provider answers is a conflict.
	assert.Error(t, r.Complete())
	// Funds cannot be reversed before the provider confirms.
	assert.Error(t, r.MarkFundsReversed())

	require.NoError(t, r.MarkProviderSucceeded("prv_refund_9"))
	require.NoError(t, r.MarkFundsReversed())
	require.NoError(t, r.Complete())

	assert.Equal(t, RefundStatusCompleted, r.Status)
	assert.Equal(t, "prv_refund_9", r.ProviderRefundID)
	require.NotNil(t, r.CompletedAt)

	// Completing again is an accepted no-op.
	assert.NoError(t, r.Complete())
	// But no further provider results are accepted.
	assert.Error(t, r.MarkProviderSucceeded("prv_other"))
}

func TestRefund_FailAndRetry(t *testing.T) {
	r := newTestRefund(t)

	require.NoError(t, r.Fail("insufficient gateway balance"))
	assert.Equal(t, RefundStatusFailed, r.Status)
	assert.Equal(t, "insufficient gateway balance", r.FailureMessage)
	assert.True(t, r.CanRetry())

	require.NoError(t, r.BeginRetry())
	assert.Equal(t, RefundStatusPending, r.Status)
	assert.Empty(t, r.FailureMessage)
	assert.Equal(t, 2, r.AttemptCount)

	// Completed refunds are not retryable.
	require.NoError(t, r.MarkProviderSucceeded("prv_1"))
	require.NoError(t, r.MarkFundsReversed())
	require.NoError(t, r.Complete())
	assert.False(t, r.CanRetry())
	assert.Error(t, r.BeginRetry())
	assert.Error(t, r.Fail("late failure"))
}

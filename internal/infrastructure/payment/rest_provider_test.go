package payment

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/markethub/backend/internal/infrastructure/config"
)

func newTestProvider(baseURL string) *RESTRefundProvider {
	return NewRESTRefundProvider(config.ProviderConfig{
		BaseURL: baseURL,
		APIKey:  "test-key",
		Timeout: 5 * time.Second,
	})
}

func TestRESTRefundProvider_InitiateRefund(t *testing.T) {
	t.Run("successful refund", func(t *testing.T) {
		var gotIdempotencyKey, gotAuth string
		var gotBody restRefundRequest

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodPost, r.Method)
			assert.Equal(t, refundPath, r.URL.Path)
			gotIdempotencyKey = r.Header.Get("Idempotency-Key")
			gotAuth = r.Header.Get("Authorization")
			require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))

			w.Header().Set("Content-Type", "application/json")
			json.NewEncoder(w).Encode(restRefundResponse{
				RefundID: "re_12345",
				Status:   "succeeded",
			})
		}))
		defer server.Close()

		provider := newTestProvider(server.URL)
		result, err := provider.InitiateRefund(context.Background(), "txn_789", "REF-2026-000001", decimal.NewFromInt(60))

		require.NoError(t, err)
		assert.True(t, result.Success)
		assert.Equal(t, "re_12345", result.ProviderRefundID)
		assert.Empty(t, result.ErrorMessage)

		assert.Equal(t, "REF-2026-000001", gotIdempotencyKey)
		assert.Equal(t, "Bearer test-key", gotAuth)
		assert.Equal(t, "txn_789", gotBody.TransactionRef)
		assert.Equal(t, "60.00", gotBody.Amount)
	})

	t.Run("pending refund counts as accepted", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			json.NewEncoder(w).Encode(restRefundResponse{
				RefundID: "re_pending",
				Status:   "pending",
			})
		}))
		defer server.Close()

		provider := newTestProvider(server.URL)
		result, err := provider.InitiateRefund(context.Background(), "txn_789", "REF-2026-000002", decimal.NewFromInt(25))

		require.NoError(t, err)
		assert.True(t, result.Success)
		assert.Equal(t, "re_pending", result.ProviderRefundID)
	})

	t.Run("declined refund is not an error", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnprocessableEntity)
			json.NewEncoder(w).Encode(restErrorResponse{
				Code:    "INSUFFICIENT_BALANCE",
				Message: "merchant balance too low",
			})
		}))
		defer server.Close()

		provider := newTestProvider(server.URL)
		result, err := provider.InitiateRefund(context.Background(), "txn_789", "REF-2026-000003", decimal.NewFromInt(60))

		require.NoError(t, err)
		assert.False(t, result.Success)
		assert.Contains(t, result.ErrorMessage, "INSUFFICIENT_BALANCE")
	})

	t.Run("server error is an error", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		}))
		defer server.Close()

		provider := newTestProvider(server.URL)
		_, err := provider.InitiateRefund(context.Background(), "txn_789", "REF-2026-000004", decimal.NewFromInt(60))

		assert.Error(t, err)
		assert.Contains(t, err.Error(), "500")
	})

	t.Run("failed status is declined", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			json.NewEncoder(w).Encode(restRefundResponse{
				RefundID: "re_failed",
				Status:   "failed",
				Message:  "card issuer rejected the reversal",
			})
		}))
		defer server.Close()

		provider := newTestProvider(server.URL)
		result, err := provider.InitiateRefund(context.Background(), "txn_789", "REF-2026-000005", decimal.NewFromInt(60))

		require.NoError(t, err)
		assert.False(t, result.Success)
		assert.Equal(t, "card issuer rejected the reversal", result.ErrorMessage)
	})

	t.Run("unreachable provider is an error", func(t *testing.T) {
		provider := newTestProvider("http://127.0.0.1:1")
		_, err := provider.InitiateRefund(context.Background(), "txn_789", "REF-2026-000006", decimal.NewFromInt(60))

		assert.Error(t, err)
	})
}

func TestSandboxRefundProvider_InitiateRefund(t *testing.T) {
	t.Run("issues refund and replays on same key", func(t *testing.T) {
		provider := NewSandboxRefundProvider()

		first, err := provider.InitiateRefund(context.Background(), "txn_1", "REF-2026-000010", decimal.NewFromInt(60))
		require.NoError(t, err)
		assert.True(t, first.Success)
		assert.NotEmpty(t, first.ProviderRefundID)

		replay, err := provider.InitiateRefund(context.Background(), "txn_1", "REF-2026-000010", decimal.NewFromInt(60))
		require.NoError(t, err)
		assert.True(t, replay.Success)
		assert.Equal(t, first.ProviderRefundID, replay.ProviderRefundID)
	})

	t.Run("different keys get different refund IDs", func(t *testing.T) {
		provider := NewSandboxRefundProvider()

		first, err := provider.InitiateRefund(context.Background(), "txn_1", "REF-2026-000011", decimal.NewFromInt(30))
		require.NoError(t, err)
		second, err := provider.InitiateRefund(context.Background(), "txn_1", "REF-2026-000012", decimal.NewFromInt(30))
		require.NoError(t, err)

		assert.NotEqual(t, first.ProviderRefundID, second.ProviderRefundID)
	})

	t.Run("declines non-positive amount", func(t *testing.T) {
		provider := NewSandboxRefundProvider()

		result, err := provider.InitiateRefund(context.Background(), "txn_1", "REF-2026-000013", decimal.Zero)
		require.NoError(t, err)
		assert.False(t, result.Success)
	})

	t.Run("declines empty transaction reference", func(t *testing.T) {
		provider := NewSandboxRefundProvider()

		result, err := provider.InitiateRefund(context.Background(), "", "REF-2026-000014", decimal.NewFromInt(10))
		require.NoError(t, err)
		assert.False(t, result.Success)
	})
}

package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/markethub/backend/internal/domain/payment"
	"github.com/markethub/backend/internal/infrastructure/config"
)

const (
	refundPath = "/v1/refunds"

	idempotencyKeyHeader = "Idempotency-Key"
)

// restRefundRequest is the provider's refund request body
type restRefundRequest struct {
	TransactionRef string `json:"transaction_ref"`
	Amount         string `json:"amount"`
	Currency       string `json:"currency"`
}

// restRefundResponse is the provider's refund response body
type restRefundResponse struct {
	RefundID string `json:"refund_id"`
	Status   string `json:"status"`
	Message  string `json:"message"`
}

// restErrorResponse is the provider's error body for 4xx responses
type restErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// RESTRefundProvider implements payment.RefundProvider against the
// provider's HTTP API. The refund number is sent as the Idempotency-Key
// header so retried requests replay the original refund instead of
// issuing a second one.
type RESTRefundProvider struct {
	config     config.ProviderConfig
	httpClient *http.Client
}

// NewRESTRefundProvider creates a new RESTRefundProvider
func NewRESTRefundProvider(cfg config.ProviderConfig) *RESTRefundProvider {
	return &RESTRefundProvider{
		config: cfg,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
	}
}

// InitiateRefund sends a refund request to the provider. A declined
// refund is not an error: it comes back as RefundResult with
// Success=false. Errors mean the provider could not be reached or
// answered with garbage, and the caller may retry with the same key.
func (p *RESTRefundProvider) InitiateRefund(ctx context.Context, transactionRef, idempotencyKey string, amount decimal.Decimal) (payment.RefundResult, error) {
	body := restRefundRequest{
		TransactionRef: transactionRef,
		Amount:         amount.StringFixed(2),
		Currency:       "EUR",
	}

	bodyBytes, err := json.Marshal(body)
	if err != nil {
		return payment.RefundResult{}, fmt.Errorf("provider: failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.config.BaseURL+refundPath, bytes.NewReader(bodyBytes))
	if err != nil {
		return payment.RefundResult{}, fmt.Errorf("provider: failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+p.config.APIKey)
	req.Header.Set(idempotencyKeyHeader, idempotencyKey)

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return payment.RefundResult{}, fmt.Errorf("provider: request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return payment.RefundResult{}, fmt.Errorf("provider: failed to read response: %w", err)
	}

	// 4xx means the provider understood and declined; 5xx means it
	// did not process the request at all
	if resp.StatusCode >= 500 {
		return payment.RefundResult{}, fmt.Errorf("provider: HTTP %d", resp.StatusCode)
	}
	if resp.StatusCode >= 400 {
		var errResp restErrorResponse
		if err := json.Unmarshal(respBody, &errResp); err == nil && errResp.Code != "" {
			return payment.RefundResult{
				Success:      false,
				ErrorMessage: fmt.Sprintf("%s: %s", errResp.Code, errResp.Message),
			}, nil
		}
		return payment.RefundResult{
			Success:      false,
			ErrorMessage: fmt.Sprintf("refund rejected with HTTP %d", resp.StatusCode),
		}, nil
	}

	var refundResp restRefundResponse
	if err := json.Unmarshal(respBody, &refundResp); err != nil {
		return payment.RefundResult{}, fmt.Errorf("provider: failed to parse response: %w", err)
	}

	switch refundResp.Status {
	case "succeeded", "pending":
		return payment.RefundResult{
			Success:          true,
			ProviderRefundID: refundResp.RefundID,
		}, nil
	default:
		return payment.RefundResult{
			Success:          false,
			ProviderRefundID: refundResp.RefundID,
			ErrorMessage:     refundResp.Message,
		}, nil
	}
}

// Ensure RESTRefundProvider implements RefundProvider
var _ payment.RefundProvider = (*RESTRefundProvider)(nil)

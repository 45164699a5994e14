// Package telemetry provides OpenTelemetry integration for metrics collection.
package telemetry

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

// BusinessMetrics provides marketplace settlement metrics. It tracks order
// intake, commission charged, refund activity, and period-close output
// (settlements and invoices).
type BusinessMetrics struct {
	meter  metric.Meter
	logger *zap.Logger

	// Counter metrics (monotonically increasing)
	orderPlacedTotal      *Counter
	orderAmountTotal      *Counter
	commissionAmountTotal *Counter
	refundTotal           *Counter
	refundAmountTotal     *Counter
	settlementTotal       *Counter
	invoiceTotal          *Counter
}

// BusinessMetricsConfig holds configuration for business metrics.
type BusinessMetricsConfig struct {
	Meter  metric.Meter
	Logger *zap.Logger
}

// NewBusinessMetrics creates a new BusinessMetrics instance.
func NewBusinessMetrics(cfg BusinessMetricsConfig) (*BusinessMetrics, error) {
	if cfg.Meter == nil {
		return nil, ErrMeterNil
	}

	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	bm := &BusinessMetrics{
		meter:  cfg.Meter,
		logger: logger,
	}

	var err error

	bm.orderPlacedTotal, err = NewCounter(
		cfg.Meter,
		"markethub_order_placed_total",
		"Total number of orders placed",
		"{orders}",
	)
	if err != nil {
		return nil, err
	}

	bm.orderAmountTotal, err = NewCounter(
		cfg.Meter,
		"markethub_order_amount_total",
		"Total gross order amount in cents",
		"{cents}",
	)
	if err != nil {
		return nil, err
	}

	bm.commissionAmountTotal, err = NewCounter(
		cfg.Meter,
		"markethub_commission_amount_total",
		"Total commission charged in cents, net of reversals",
		"{cents}",
	)
	if err != nil {
		return nil, err
	}

	bm.refundTotal, err = NewCounter(
		cfg.Meter,
		"markethub_refund_total",
		"Total number of refund transactions",
		"{refunds}",
	)
	if err != nil {
		return nil, err
	}

	bm.refundAmountTotal, err = NewCounter(
		cfg.Meter,
		"markethub_refund_amount_total",
		"Total refunded amount in cents",
		"{cents}",
	)
	if err != nil {
		return nil, err
	}

	bm.settlementTotal, err = NewCounter(
		cfg.Meter,
		"markethub_settlement_total",
		"Total number of settlement versions generated",
		"{settlements}",
	)
	if err != nil {
		return nil, err
	}

	bm.invoiceTotal, err = NewCounter(
		cfg.Meter,
		"markethub_invoice_total",
		"Total number of commission invoices generated",
		"{invoices}",
	)
	if err != nil {
		return nil, err
	}

	return bm, nil
}

// toCents converts a decimal money amount to integer cents for counters.
func toCents(amount decimal.Decimal) int64 {
	return amount.Mul(decimal.NewFromInt(100)).IntPart()
}

// RecordOrderPlaced records an order placement with its gross amount.
// This should be called from the application layer when an order is placed.
func (bm *BusinessMetrics) RecordOrderPlaced(ctx context.Context, buyerID uuid.UUID, grossAmount decimal.Decimal) {
	bm.orderPlacedTotal.Inc(ctx,
		AttrUserID.String(buyerID.String()),
	)
	bm.orderAmountTotal.Add(ctx, toCents(grossAmount),
		AttrUserID.String(buyerID.String()),
	)
}

// RecordCommission records commission charged against a store. Reversal
// adjustments pass a negative amount, keeping the counter net.
func (bm *BusinessMetrics) RecordCommission(ctx context.Context, storeID uuid.UUID, tier string, amount decimal.Decimal) {
	bm.commissionAmountTotal.Add(ctx, toCents(amount),
		AttrStoreID.String(storeID.String()),
		AttrCommissionTier.String(tier),
	)
}

// RefundOutcome represents the outcome of a refund for metrics labeling.
type RefundOutcome string

const (
	RefundOutcomeCompleted RefundOutcome = "completed"
	RefundOutcomeFailed    RefundOutcome = "failed"
)

// RecordRefund records a refund attempt outcome with its amount.
func (bm *BusinessMetrics) RecordRefund(ctx context.Context, storeID uuid.UUID, initiator string, outcome RefundOutcome, amount decimal.Decimal) {
	bm.refundTotal.Inc(ctx,
		AttrStoreID.String(storeID.String()),
		AttrRefundInitiator.String(initiator),
		AttrRefundStatus.String(string(outcome)),
	)
	if outcome == RefundOutcomeCompleted {
		bm.refundAmountTotal.Add(ctx, toCents(amount),
			AttrStoreID.String(storeID.String()),
		)
	}
}

// RecordSettlementGenerated records a settlement version being produced.
func (bm *BusinessMetrics) RecordSettlementGenerated(ctx context.Context, storeID uuid.UUID) {
	bm.settlementTotal.Inc(ctx,
		AttrStoreID.String(storeID.String()),
	)
}

// RecordInvoiceGenerated records a commission invoice being produced.
func (bm *BusinessMetrics) RecordInvoiceGenerated(ctx context.Context, storeID uuid.UUID, status string) {
	bm.invoiceTotal.Inc(ctx,
		AttrStoreID.String(storeID.String()),
		AttrInvoiceStatus.String(status),
	)
}

// MetricsError represents an error in metrics operations.
type MetricsError struct {
	Op  string
	Err string
}

func (e *MetricsError) Error() string {
	return e.Op + ": " + e.Err
}

// ErrMeterNil is returned when meter is nil.
var ErrMeterNil = &MetricsError{Op: "NewBusinessMetrics", Err: "meter cannot be nil"}

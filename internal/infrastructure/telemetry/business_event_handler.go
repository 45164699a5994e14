package telemetry

import (
	"context"

	"github.com/markethub/backend/internal/domain/billing"
	"github.com/markethub/backend/internal/domain/ordering"
	"github.com/markethub/backend/internal/domain/payment"
	"github.com/markethub/backend/internal/domain/settlement"
	"github.com/markethub/backend/internal/domain/shared"
)

// BusinessMetricsEventHandler feeds domain events into the business metric
// counters. Recording happens after the originating transaction committed,
// so a dropped metric never rolls back money movement.
type BusinessMetricsEventHandler struct {
	metrics *BusinessMetrics
}

// NewBusinessMetricsEventHandler creates a new BusinessMetricsEventHandler
func NewBusinessMetricsEventHandler(metrics *BusinessMetrics) *BusinessMetricsEventHandler {
	return &BusinessMetricsEventHandler{metrics: metrics}
}

// EventTypes returns the event types this handler subscribes to
func (h *BusinessMetricsEventHandler) EventTypes() []string {
	return []string{
		ordering.EventTypeOrderPaid,
		payment.EventTypeEscrowOpened,
		payment.EventTypeEscrowRefunded,
		payment.EventTypeRefundCompleted,
		payment.EventTypeRefundFailed,
		settlement.EventTypeSettlementGenerated,
		billing.EventTypeInvoiceCreated,
	}
}

// Handle records the metric matching the event. Unknown event types are
// ignored so subscription changes never break dispatch.
func (h *BusinessMetricsEventHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	switch e := event.(type) {
	case *ordering.OrderPaidEvent:
		h.metrics.RecordOrderPlaced(ctx, e.BuyerID, e.TotalAmount)
	case *payment.EscrowOpenedEvent:
		h.metrics.RecordCommission(ctx, e.Escrow.StoreID, "charge", e.Escrow.CommissionAmount)
	case *payment.EscrowRefundedEvent:
		h.metrics.RecordCommission(ctx, e.Escrow.StoreID, "reversal", e.CommissionAdjustment)
	case *payment.RefundCompletedEvent:
		h.metrics.RecordRefund(ctx, e.Refund.StoreID, string(e.Refund.Initiator), RefundOutcomeCompleted, e.Refund.Amount)
	case *payment.RefundFailedEvent:
		h.metrics.RecordRefund(ctx, e.Refund.StoreID, string(e.Refund.Initiator), RefundOutcomeFailed, e.Refund.Amount)
	case *settlement.SettlementGeneratedEvent:
		h.metrics.RecordSettlementGenerated(ctx, e.Settlement.StoreID)
	case *billing.InvoiceCreatedEvent:
		h.metrics.RecordInvoiceGenerated(ctx, e.Invoice.StoreID, string(e.Invoice.Status))
	}
	return nil
}

// Ensure BusinessMetricsEventHandler implements shared.EventHandler
var _ shared.EventHandler = (*BusinessMetricsEventHandler)(nil)

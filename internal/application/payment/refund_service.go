package payment

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/markethub/backend/internal/domain/ordering"
	"github.com/markethub/backend/internal/domain/payment"
	"github.com/markethub/backend/internal/domain/shared"
	"github.com/markethub/backend/internal/infrastructure/telemetry"
)

// CommissionAdjuster appends the proportional commission reversal for a
// refund and returns the (negative or zero) adjustment amount
type CommissionAdjuster interface {
	RecalculateForRefund(ctx context.Context, escrowID uuid.UUID, refundAmount decimal.Decimal, notes string) (decimal.Decimal, error)
}

// RefundService executes refunds against sub-orders. A refund runs in three
// phases: the pending record commits first, then the provider is called
// outside any transaction, then the money mutations commit together. A crash
// between phases leaves a record that tells an operator exactly how far the
// refund got; the refund number doubles as the provider idempotency key, so
// retries never double-refund.
type RefundService struct {
	orderRepo      ordering.OrderRepository
	historyRepo    ordering.StatusHistoryRepository
	escrowRepo     payment.EscrowRepository
	refundRepo     payment.RefundRepository
	commissions    CommissionAdjuster
	provider       payment.RefundProvider
	txManager      shared.TransactionManager
	eventPublisher shared.EventPublisher
	logger         *zap.Logger
}

// NewRefundService creates a new RefundService
func NewRefundService(
	orderRepo ordering.OrderRepository,
	historyRepo ordering.StatusHistoryRepository,
	escrowRepo payment.EscrowRepository,
	refundRepo payment.RefundRepository,
	commissions CommissionAdjuster,
	provider payment.RefundProvider,
	txManager shared.TransactionManager,
	logger *zap.Logger,
) *RefundService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RefundService{
		orderRepo:   orderRepo,
		historyRepo: historyRepo,
		escrowRepo:  escrowRepo,
		refundRepo:  refundRepo,
		commissions: commissions,
		provider:    provider,
		txManager:   txManager,
		logger:      logger,
	}
}

// SetEventPublisher sets the event publisher for cross-context integration
func (s *RefundService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// RefundSubOrder refunds part or all of a sub-order's escrowed amount
func (s *RefundService) RefundSubOrder(ctx context.Context, subOrderID uuid.UUID, req RefundRequest) (*RefundResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "RefundService", "RefundSubOrder")
	defer span.End()

	refund, escrow, err := s.createPending(ctx, subOrderID, req)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	return s.execute(ctx, refund, escrow)
}

// RefundOrder refunds the full remaining escrowed amount of every
// refundable sub-order of an order. Sub-orders already fully refunded are
// skipped; the first provider failure aborts the loop.
func (s *RefundService) RefundOrder(ctx context.Context, orderID uuid.UUID, req RefundOrderRequest) ([]RefundResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "RefundService", "RefundOrder")
	defer span.End()

	order, err := s.orderRepo.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, shared.NewNotFoundError("ORDER_NOT_FOUND", "Order not found")
	}

	var responses []RefundResponse
	for i := range order.SubOrders {
		subOrder := &order.SubOrders[i]
		escrow, err := s.escrowRepo.FindBySubOrderID(ctx, subOrder.ID)
		if err != nil {
			return responses, err
		}
		if escrow == nil || escrow.IsFullyRefunded() {
			continue
		}

		resp, err := s.RefundSubOrder(ctx, subOrder.ID, RefundRequest{
			Amount:    escrow.RemainingRefundable(),
			Initiator: req.Initiator,
			Reason:    req.Reason,
		})
		if err != nil {
			telemetry.RecordError(span, err)
			return responses, err
		}
		responses = append(responses, *resp)
	}
	return responses, nil
}

// RetryRefund re-runs the provider call and funds reversal of a failed
// refund. The original refund number is reused as the idempotency key.
func (s *RefundService) RetryRefund(ctx context.Context, refundID uuid.UUID) (*RefundResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "RefundService", "RetryRefund")
	defer span.End()

	var refund *payment.RefundTransaction
	var escrow *payment.EscrowTransaction
	err := s.txManager.Do(ctx, func(ctx context.Context) error {
		var err error
		refund, err = s.refundRepo.FindByID(ctx, refundID)
		if err != nil {
			return err
		}
		if refund == nil {
			return shared.NewNotFoundError("REFUND_NOT_FOUND", "Refund not found")
		}
		if err := refund.BeginRetry(); err != nil {
			return err
		}
		escrow, err = s.escrowRepo.FindBySubOrderID(ctx, refund.SubOrderID)
		if err != nil {
			return err
		}
		if escrow == nil {
			return shared.NewNotFoundError("ESCROW_NOT_FOUND", "Escrow transaction not found")
		}
		return s.refundRepo.Save(ctx, refund)
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	return s.execute(ctx, refund, escrow)
}

// GetRefund retrieves a refund by ID
func (s *RefundService) GetRefund(ctx context.Context, refundID uuid.UUID) (*RefundResponse, error) {
	refund, err := s.refundRepo.FindByID(ctx, refundID)
	if err != nil {
		return nil, err
	}
	if refund == nil {
		return nil, shared.NewNotFoundError("REFUND_NOT_FOUND", "Refund not found")
	}
	response := ToRefundResponse(refund)
	return &response, nil
}

// ListRefundsBySubOrder returns a sub-order's refunds, oldest first
func (s *RefundService) ListRefundsBySubOrder(ctx context.Context, subOrderID uuid.UUID) ([]RefundResponse, error) {
	refunds, err := s.refundRepo.FindBySubOrder(ctx, subOrderID)
	if err != nil {
		return nil, err
	}
	return ToRefundResponses(refunds), nil
}

// createPending validates the request against the live escrow balance and
// commits the pending refund record
func (s *RefundService) createPending(ctx context.Context, subOrderID uuid.UUID, req RefundRequest) (*payment.RefundTransaction, *payment.EscrowTransaction, error) {
	initiator := payment.RefundInitiator(req.Initiator)
	if !initiator.IsValid() {
		return nil, nil, shared.NewValidationError("INVALID_INITIATOR",
			fmt.Sprintf("Unknown refund initiator %q", req.Initiator))
	}

	var refund *payment.RefundTransaction
	var escrow *payment.EscrowTransaction
	err := s.txManager.Do(ctx, func(ctx context.Context) error {
		order, err := s.orderRepo.FindBySubOrderIDForUpdate(ctx, subOrderID)
		if err != nil {
			return err
		}
		if order == nil {
			return shared.NewNotFoundError("SUBORDER_NOT_FOUND", "Sub-order not found")
		}

		escrow, err = s.escrowRepo.FindBySubOrderIDForUpdate(ctx, subOrderID)
		if err != nil {
			return err
		}
		if escrow == nil {
			return shared.NewConflictError("ESCROW_NOT_FOUND",
				"Sub-order has no escrow transaction; was the order paid?")
		}
		if req.Amount.GreaterThan(escrow.RemainingRefundable()) {
			return shared.NewConflictError("REFUND_EXCEEDS_REFUNDABLE",
				fmt.Sprintf("Refund of %s exceeds the remaining refundable %s",
					req.Amount.String(), escrow.RemainingRefundable().String()))
		}
		// A refund that exhausts the escrow will move the sub-order to
		// REFUNDED after the provider call. Check that transition now, before
		// any money moves, instead of discovering it with the provider's
		// funds already in flight.
		if req.Amount.Equal(escrow.RemainingRefundable()) {
			subOrder := order.GetSubOrder(subOrderID)
			if subOrder == nil {
				return shared.NewNotFoundError("SUBORDER_NOT_FOUND", "Sub-order not found")
			}
			if subOrder.Status != ordering.SubOrderStatusRefunded &&
				!subOrder.Status.CanTransitionTo(ordering.SubOrderStatusRefunded) {
				return shared.NewConflictError("SUBORDER_NOT_REFUNDABLE",
					fmt.Sprintf("A sub-order in status %s cannot be fully refunded", subOrder.Status))
			}
		}

		refundNumber, err := s.refundRepo.NextRefundNumber(ctx)
		if err != nil {
			return err
		}
		refund, err = payment.NewRefundTransaction(refundNumber, order.ID, subOrderID,
			escrow.StoreID, req.Amount, initiator, req.Reason, req.ReturnRequestID)
		if err != nil {
			return err
		}
		return s.refundRepo.Save(ctx, refund)
	})
	if err != nil {
		return nil, nil, err
	}
	return refund, escrow, nil
}

// execute runs the provider call and, on success, commits the money
// mutations in one transaction
func (s *RefundService) execute(ctx context.Context, refund *payment.RefundTransaction, escrow *payment.EscrowTransaction) (*RefundResponse, error) {
	result, callErr := s.provider.InitiateRefund(ctx, escrow.TransactionRef, refund.RefundNumber, refund.Amount)
	if callErr != nil || !result.Success {
		message := result.ErrorMessage
		if callErr != nil {
			message = callErr.Error()
		}
		if err := s.markFailed(ctx, refund, message); err != nil {
			return nil, err
		}
		s.logger.Warn("refund rejected by provider",
			zap.String("refund_number", refund.RefundNumber),
			zap.String("reason", message))
		return nil, shared.NewExternalError("PROVIDER_REFUND_FAILED",
			fmt.Sprintf("Payment provider rejected refund %s: %s", refund.RefundNumber, message))
	}

	var order *ordering.Order
	err := s.txManager.Do(ctx, func(ctx context.Context) error {
		var err error
		order, err = s.orderRepo.FindBySubOrderIDForUpdate(ctx, refund.SubOrderID)
		if err != nil {
			return err
		}
		escrow, err = s.escrowRepo.FindBySubOrderIDForUpdate(ctx, refund.SubOrderID)
		if err != nil {
			return err
		}

		adjustment, err := s.commissions.RecalculateForRefund(ctx, escrow.ID, refund.Amount,
			fmt.Sprintf("Reversal for refund %s", refund.RefundNumber))
		if err != nil {
			return err
		}
		if err := escrow.ApplyRefund(refund.Amount, adjustment); err != nil {
			return err
		}
		if _, err := order.ApplyRefund(refund.SubOrderID, refund.Amount); err != nil {
			return err
		}

		if escrow.IsFullyRefunded() {
			changed, change, err := order.TransitionSubOrder(refund.SubOrderID, ordering.SubOrderStatusRefunded)
			if err != nil {
				return err
			}
			if changed {
				record, err := ordering.NewStatusHistory(order.ID, change,
					fmt.Sprintf("Fully refunded via %s", refund.RefundNumber), refund.Initiator.String())
				if err != nil {
					return err
				}
				if err := s.historyRepo.Save(ctx, record); err != nil {
					return err
				}
			}
		}

		if err := refund.MarkProviderSucceeded(result.ProviderRefundID); err != nil {
			return err
		}
		if err := refund.MarkFundsReversed(); err != nil {
			return err
		}
		if err := refund.Complete(); err != nil {
			return err
		}

		if err := s.escrowRepo.SaveWithLock(ctx, escrow); err != nil {
			return err
		}
		if err := s.orderRepo.SaveWithLock(ctx, order); err != nil {
			return err
		}
		return s.refundRepo.Save(ctx, refund)
	})
	if err != nil {
		return nil, err
	}
	s.publishEvents(ctx, refund, order)

	s.logger.Info("refund completed",
		zap.String("refund_number", refund.RefundNumber),
		zap.String("amount", refund.Amount.String()))
	response := ToRefundResponse(refund)
	return &response, nil
}

func (s *RefundService) markFailed(ctx context.Context, refund *payment.RefundTransaction, message string) error {
	return s.txManager.Do(ctx, func(ctx context.Context) error {
		if err := refund.Fail(message); err != nil {
			return err
		}
		return s.refundRepo.Save(ctx, refund)
	})
}

func (s *RefundService) publishEvents(ctx context.Context, refund *payment.RefundTransaction, order *ordering.Order) {
	if s.eventPublisher == nil {
		return
	}
	aggregates := []interface {
		GetDomainEvents() []shared.DomainEvent
		ClearDomainEvents()
	}{refund}
	if order != nil {
		aggregates = append(aggregates, order)
	}
	for _, aggregate := range aggregates {
		for _, event := range aggregate.GetDomainEvents() {
			if err := s.eventPublisher.Publish(ctx, event); err != nil {
				s.logger.Warn("failed to publish domain event",
					zap.String("event_type", event.EventType()), zap.Error(err))
			}
		}
		aggregate.ClearDomainEvents()
	}
}

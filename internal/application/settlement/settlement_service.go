package settlement

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/markethub/backend/internal/domain/ordering"
	"github.com/markethub/backend/internal/domain/payment"
	"github.com/markethub/backend/internal/domain/settlement"
	"github.com/markethub/backend/internal/domain/shared"
	"github.com/markethub/backend/internal/infrastructure/telemetry"
)

// SettlementService generates and manages versioned store settlements
type SettlementService struct {
	settlementRepo settlement.Repository
	escrowRepo     payment.EscrowRepository
	orderRepo      ordering.OrderRepository
	payouts        payment.PayoutLedger
	txManager      shared.TransactionManager
	eventPublisher shared.EventPublisher
	logger         *zap.Logger
}

// NewSettlementService creates a new SettlementService
func NewSettlementService(
	settlementRepo settlement.Repository,
	escrowRepo payment.EscrowRepository,
	orderRepo ordering.OrderRepository,
	payouts payment.PayoutLedger,
	txManager shared.TransactionManager,
	logger *zap.Logger,
) *SettlementService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SettlementService{
		settlementRepo: settlementRepo,
		escrowRepo:     escrowRepo,
		orderRepo:      orderRepo,
		payouts:        payouts,
		txManager:      txManager,
		logger:         logger,
	}
}

// SetEventPublisher sets the event publisher for cross-context integration
func (s *SettlementService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// Generate creates the first settlement version for a store and period. A
// second generation for the same (store, period) while a version exists is a
// conflict; use Regenerate instead. Period membership follows the order's
// placement date.
func (s *SettlementService) Generate(ctx context.Context, req GenerateRequest) (*SettlementResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "SettlementService", "Generate")
	defer span.End()

	if err := validatePeriod(req.PeriodStart, req.PeriodEnd); err != nil {
		return nil, err
	}

	var stmt *settlement.Settlement
	err := s.txManager.Do(ctx, func(ctx context.Context) error {
		existing, err := s.settlementRepo.FindCurrentByStorePeriod(ctx, req.StoreID, req.PeriodStart, req.PeriodEnd)
		if err != nil {
			return err
		}
		if existing != nil {
			return shared.NewConflictError("SETTLEMENT_EXISTS",
				fmt.Sprintf("Settlement version %d already exists for this period; regenerate instead",
					existing.VersionNumber))
		}

		stmt, err = settlement.NewSettlement(req.StoreID, req.PeriodStart, req.PeriodEnd)
		if err != nil {
			return err
		}
		if err := s.aggregate(ctx, stmt); err != nil {
			return err
		}
		return s.settlementRepo.Save(ctx, stmt)
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	s.publishEvents(ctx, stmt)

	s.logger.Info("settlement generated",
		zap.String("store_id", stmt.StoreID.String()),
		zap.Int("version", stmt.VersionNumber),
		zap.String("net_amount", stmt.NetAmount.String()))
	response := ToSettlementResponse(stmt)
	return &response, nil
}

// Regenerate supersedes the current draft version and builds its successor
// from live data in one transaction. Finalized settlements cannot be
// regenerated.
func (s *SettlementService) Regenerate(ctx context.Context, settlementID uuid.UUID) (*SettlementResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "SettlementService", "Regenerate")
	defer span.End()

	var next *settlement.Settlement
	err := s.txManager.Do(ctx, func(ctx context.Context) error {
		current, err := s.settlementRepo.FindByID(ctx, settlementID)
		if err != nil {
			return err
		}
		if current == nil {
			return shared.NewNotFoundError("SETTLEMENT_NOT_FOUND", "Settlement not found")
		}
		if !current.IsCurrentVersion {
			return shared.NewConflictError("SETTLEMENT_SUPERSEDED",
				"Only the current version of a settlement can be regenerated")
		}
		if err := current.MarkSuperseded(); err != nil {
			return err
		}

		next, err = settlement.NewSettlementVersion(current)
		if err != nil {
			return err
		}
		if err := s.aggregate(ctx, next); err != nil {
			return err
		}
		if err := s.settlementRepo.SaveWithLock(ctx, current); err != nil {
			return err
		}
		return s.settlementRepo.Save(ctx, next)
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	s.publishEvents(ctx, next)

	s.logger.Info("settlement regenerated",
		zap.String("store_id", next.StoreID.String()),
		zap.Int("version", next.VersionNumber))
	response := ToSettlementResponse(next)
	return &response, nil
}

// AddAdjustment appends a manual correction to a draft settlement
func (s *SettlementService) AddAdjustment(ctx context.Context, settlementID uuid.UUID, req AdjustmentRequest) (*SettlementResponse, error) {
	var stmt *settlement.Settlement
	err := s.txManager.Do(ctx, func(ctx context.Context) error {
		var err error
		stmt, err = s.settlementRepo.FindByID(ctx, settlementID)
		if err != nil {
			return err
		}
		if stmt == nil {
			return shared.NewNotFoundError("SETTLEMENT_NOT_FOUND", "Settlement not found")
		}
		if err := stmt.AddAdjustment(req.Amount, req.Reason, req.EnteredBy); err != nil {
			return err
		}
		return s.settlementRepo.SaveWithLock(ctx, stmt)
	})
	if err != nil {
		return nil, err
	}
	response := ToSettlementResponse(stmt)
	return &response, nil
}

// Finalize freezes a draft settlement
func (s *SettlementService) Finalize(ctx context.Context, settlementID uuid.UUID) (*SettlementResponse, error) {
	var stmt *settlement.Settlement
	err := s.txManager.Do(ctx, func(ctx context.Context) error {
		var err error
		stmt, err = s.settlementRepo.FindByID(ctx, settlementID)
		if err != nil {
			return err
		}
		if stmt == nil {
			return shared.NewNotFoundError("SETTLEMENT_NOT_FOUND", "Settlement not found")
		}
		if err := stmt.Finalize(); err != nil {
			return err
		}
		return s.settlementRepo.SaveWithLock(ctx, stmt)
	})
	if err != nil {
		return nil, err
	}
	s.publishEvents(ctx, stmt)

	response := ToSettlementResponse(stmt)
	return &response, nil
}

// Get retrieves a settlement by ID
func (s *SettlementService) Get(ctx context.Context, settlementID uuid.UUID) (*SettlementResponse, error) {
	stmt, err := s.settlementRepo.FindByID(ctx, settlementID)
	if err != nil {
		return nil, err
	}
	if stmt == nil {
		return nil, shared.NewNotFoundError("SETTLEMENT_NOT_FOUND", "Settlement not found")
	}
	response := ToSettlementResponse(stmt)
	return &response, nil
}

// ListByStore returns the store's current-version settlements
func (s *SettlementService) ListByStore(ctx context.Context, storeID uuid.UUID) ([]SettlementResponse, error) {
	settlements, err := s.settlementRepo.FindByStore(ctx, storeID)
	if err != nil {
		return nil, err
	}
	return ToSettlementResponses(settlements), nil
}

// ListVersions returns every version for a (store, period), oldest first
func (s *SettlementService) ListVersions(ctx context.Context, storeID uuid.UUID, periodStart, periodEnd time.Time) ([]SettlementResponse, error) {
	versions, err := s.settlementRepo.FindVersions(ctx, storeID, periodStart, periodEnd)
	if err != nil {
		return nil, err
	}
	return ToSettlementResponses(versions), nil
}

// aggregate itemizes the store's escrow activity in the period and records
// the informational payout total
func (s *SettlementService) aggregate(ctx context.Context, stmt *settlement.Settlement) error {
	escrows, err := s.escrowRepo.FindByStoreInPeriod(ctx, stmt.StoreID, stmt.PeriodStart, stmt.PeriodEnd)
	if err != nil {
		return err
	}
	for i := range escrows {
		escrow := &escrows[i]
		orderNumber := ""
		if order, err := s.orderRepo.FindByID(ctx, escrow.OrderID); err == nil && order != nil {
			orderNumber = order.OrderNumber
		}
		if err := stmt.AddItem(escrow.ID, escrow.SubOrderID, orderNumber,
			escrow.GrossAmount, escrow.RefundedAmount, escrow.CommissionAmount); err != nil {
			return err
		}
	}

	payoutTotal, err := s.payouts.SumCompleted(ctx, stmt.StoreID, stmt.PeriodStart, stmt.PeriodEnd)
	if err != nil {
		return err
	}
	stmt.SetTotalPayouts(payoutTotal)
	return nil
}

func (s *SettlementService) publishEvents(ctx context.Context, stmt *settlement.Settlement) {
	if s.eventPublisher == nil || stmt == nil {
		return
	}
	for _, event := range stmt.GetDomainEvents() {
		if err := s.eventPublisher.Publish(ctx, event); err != nil {
			s.logger.Warn("failed to publish domain event",
				zap.String("event_type", event.EventType()), zap.Error(err))
		}
	}
	stmt.ClearDomainEvents()
}

// validatePeriod rejects empty, inverted and still-open periods. A settlement
// only makes sense once its period has fully elapsed.
func validatePeriod(start, end time.Time) error {
	if start.IsZero() || end.IsZero() {
		return shared.NewValidationError("INVALID_PERIOD", "Settlement period boundaries are required")
	}
	if !end.After(start) {
		return shared.NewValidationError("INVALID_PERIOD", "Settlement period end must follow its start")
	}
	if end.After(time.Now()) {
		return shared.NewValidationError("PERIOD_NOT_CLOSED", "Settlement period has not elapsed yet")
	}
	return nil
}

package commission

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/markethub/backend/internal/domain/commission"
)

// LedgerService records commission transactions against escrow transactions.
// The ledger is append-only: every calculation, including reversals, lands as
// a new immutable record.
type LedgerService struct {
	txRepo   commission.TransactionRepository
	resolver *commission.RuleResolver
	logger   *zap.Logger
}

// NewLedgerService creates a new LedgerService
func NewLedgerService(txRepo commission.TransactionRepository, resolver *commission.RuleResolver, logger *zap.Logger) *LedgerService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LedgerService{
		txRepo:   txRepo,
		resolver: resolver,
		logger:   logger,
	}
}

// RecordInitial resolves the effective rate for the (store, category) pair
// and appends the initial commission record for a freshly opened escrow
// transaction. Returns the charged amount.
func (s *LedgerService) RecordInitial(ctx context.Context, escrowID, storeID uuid.UUID, categoryID *uuid.UUID, gross decimal.Decimal, notes string) (decimal.Decimal, error) {
	res, err := s.resolver.Resolve(ctx, gross, storeID, categoryID)
	if err != nil {
		return decimal.Zero, err
	}

	tx, err := commission.NewInitialTransaction(escrowID, storeID, res, gross, notes)
	if err != nil {
		return decimal.Zero, err
	}
	if err := s.txRepo.Save(ctx, tx); err != nil {
		return decimal.Zero, err
	}

	s.logger.Info("commission recorded",
		zap.String("escrow_id", escrowID.String()),
		zap.String("store_id", storeID.String()),
		zap.String("source", res.Source.String()),
		zap.String("amount", res.Amount.String()))
	return res.Amount, nil
}

// RecalculateForRefund appends the proportional reversal for a refund and
// returns the (negative or zero) adjustment amount. The reversal ratio is
// refund / original gross applied to the originally charged commission, so
// fixed fees reverse proportionally too. A missing initial record or a
// non-positive original gross yields a zero adjustment with a warning; the
// refund itself must not be blocked by a ledger gap.
func (s *LedgerService) RecalculateForRefund(ctx context.Context, escrowID uuid.UUID, refundAmount decimal.Decimal, notes string) (decimal.Decimal, error) {
	original, err := s.txRepo.FindLatestInitialByEscrow(ctx, escrowID)
	if err != nil {
		return decimal.Zero, err
	}
	if original == nil {
		s.logger.Warn("no initial commission record for escrow, skipping reversal",
			zap.String("escrow_id", escrowID.String()))
		return decimal.Zero, nil
	}
	if !original.GrossAmount.IsPositive() {
		s.logger.Warn("initial commission record has non-positive gross, skipping reversal",
			zap.String("escrow_id", escrowID.String()))
		return decimal.Zero, nil
	}

	adjustment := original.Amount.Mul(refundAmount).Div(original.GrossAmount).Round(2).Neg()
	if adjustment.IsZero() {
		return decimal.Zero, nil
	}

	tx, err := commission.NewRefundAdjustment(original, refundAmount, adjustment, notes)
	if err != nil {
		return decimal.Zero, err
	}
	if err := s.txRepo.Save(ctx, tx); err != nil {
		return decimal.Zero, err
	}

	s.logger.Info("commission reversal recorded",
		zap.String("escrow_id", escrowID.String()),
		zap.String("refund_amount", refundAmount.String()),
		zap.String("adjustment", adjustment.String()))
	return adjustment, nil
}

// ListByEscrow returns the full commission history of an escrow transaction
func (s *LedgerService) ListByEscrow(ctx context.Context, escrowID uuid.UUID) ([]TransactionResponse, error) {
	txs, err := s.txRepo.FindByEscrow(ctx, escrowID)
	if err != nil {
		return nil, err
	}
	return ToTransactionResponses(txs), nil
}

// ListByStoreInPeriod returns a store's commission records within a period,
// inclusive of the end date
func (s *LedgerService) ListByStoreInPeriod(ctx context.Context, storeID uuid.UUID, from, to time.Time) ([]TransactionResponse, error) {
	txs, err := s.txRepo.FindByStoreInPeriod(ctx, storeID, from, to)
	if err != nil {
		return nil, err
	}
	return ToTransactionResponses(txs), nil
}

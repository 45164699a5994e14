package persistence

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/markethub/backend/internal/domain/payment"
)

// GormRefundRepository implements payment.RefundRepository using GORM
type GormRefundRepository struct {
	db *gorm.DB
}

// NewGormRefundRepository creates a new GormRefundRepository
func NewGormRefundRepository(db *gorm.DB) *GormRefundRepository {
	return &GormRefundRepository{db: db}
}

// FindByID finds a refund transaction by ID
func (r *GormRefundRepository) FindByID(ctx context.Context, id uuid.UUID) (*payment.RefundTransaction, error) {
	var refund payment.RefundTransaction
	if err := dbFromContext(ctx, r.db).
		First(&refund, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &refund, nil
}

// FindByRefundNumber finds a refund transaction by its refund number
func (r *GormRefundRepository) FindByRefundNumber(ctx context.Context, refundNumber string) (*payment.RefundTransaction, error) {
	var refund payment.RefundTransaction
	if err := dbFromContext(ctx, r.db).
		First(&refund, "refund_number = ?", refundNumber).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &refund, nil
}

// FindBySubOrder returns all refund transactions of a sub-order, oldest first
func (r *GormRefundRepository) FindBySubOrder(ctx context.Context, subOrderID uuid.UUID) ([]payment.RefundTransaction, error) {
	var refunds []payment.RefundTransaction
	err := dbFromContext(ctx, r.db).
		Where("sub_order_id = ?", subOrderID).
		Order("created_at ASC").
		Find(&refunds).Error
	if err != nil {
		return nil, err
	}
	return refunds, nil
}

// FindByOrder returns all refund transactions of an order, oldest first
func (r *GormRefundRepository) FindByOrder(ctx context.Context, orderID uuid.UUID) ([]payment.RefundTransaction, error) {
	var refunds []payment.RefundTransaction
	err := dbFromContext(ctx, r.db).
		Where("order_id = ?", orderID).
		Order("created_at ASC").
		Find(&refunds).Error
	if err != nil {
		return nil, err
	}
	return refunds, nil
}

// Save creates or updates a refund transaction
func (r *GormRefundRepository) Save(ctx context.Context, refund *payment.RefundTransaction) error {
	return dbFromContext(ctx, r.db).Save(refund).Error
}

// NextRefundNumber allocates the next refund number. The number doubles as
// the provider idempotency key, so a retried refund reuses it.
// Format: REF-YYYY-NNNNNN (e.g., REF-2026-000001)
func (r *GormRefundRepository) NextRefundNumber(ctx context.Context) (string, error) {
	db := dbFromContext(ctx, r.db)
	year := time.Now().Year()
	prefix := fmt.Sprintf("REF-%d-", year)

	var lastNumber string
	err := db.Model(&payment.RefundTransaction{}).
		Where("refund_number LIKE ?", prefix+"%").
		Order("refund_number DESC").
		Limit(1).
		Pluck("refund_number", &lastNumber).Error
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return "", err
	}

	var nextNum int64 = 1
	if lastNumber != "" {
		parts := strings.Split(lastNumber, "-")
		if len(parts) == 3 {
			var num int64
			if _, parseErr := fmt.Sscanf(parts[2], "%d", &num); parseErr == nil {
				nextNum = num + 1
			}
		}
	}

	return fmt.Sprintf("%s%06d", prefix, nextNum), nil
}

// Ensure GormRefundRepository implements RefundRepository
var _ payment.RefundRepository = (*GormRefundRepository)(nil)

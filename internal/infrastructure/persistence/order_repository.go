package persistence

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/markethub/backend/internal/domain/ordering"
	"github.com/markethub/backend/internal/domain/shared"
)

// GormOrderRepository implements ordering.OrderRepository using GORM
type GormOrderRepository struct {
	db *gorm.DB
}

// NewGormOrderRepository creates a new GormOrderRepository
func NewGormOrderRepository(db *gorm.DB) *GormOrderRepository {
	return &GormOrderRepository{db: db}
}

// FindByID finds an order with its sub-orders and items
func (r *GormOrderRepository) FindByID(ctx context.Context, id uuid.UUID) (*ordering.Order, error) {
	return r.findOne(ctx, false, "id = ?", id)
}

// FindByIDForUpdate finds an order by ID taking a row lock on the order row
func (r *GormOrderRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*ordering.Order, error) {
	return r.findOne(ctx, true, "id = ?", id)
}

// FindByOrderNumber finds an order by its order number
func (r *GormOrderRepository) FindByOrderNumber(ctx context.Context, orderNumber string) (*ordering.Order, error) {
	return r.findOne(ctx, false, "order_number = ?", orderNumber)
}

// FindBySubOrderID finds the order owning the given sub-order
func (r *GormOrderRepository) FindBySubOrderID(ctx context.Context, subOrderID uuid.UUID) (*ordering.Order, error) {
	return r.findOne(ctx, false, "id = (?)", r.subOrderOwner(ctx, subOrderID))
}

// FindBySubOrderIDForUpdate is FindBySubOrderID with a row lock on the order
func (r *GormOrderRepository) FindBySubOrderIDForUpdate(ctx context.Context, subOrderID uuid.UUID) (*ordering.Order, error) {
	return r.findOne(ctx, true, "id = (?)", r.subOrderOwner(ctx, subOrderID))
}

func (r *GormOrderRepository) subOrderOwner(ctx context.Context, subOrderID uuid.UUID) *gorm.DB {
	return dbFromContext(ctx, r.db).Model(&ordering.SubOrder{}).
		Select("order_id").
		Where("id = ?", subOrderID)
}

func (r *GormOrderRepository) findOne(ctx context.Context, forUpdate bool, query string, args ...interface{}) (*ordering.Order, error) {
	db := dbFromContext(ctx, r.db)
	if forUpdate {
		db = db.Clauses(clause.Locking{Strength: "UPDATE", Table: clause.Table{Name: "orders"}})
	}

	var order ordering.Order
	if err := db.Preload("SubOrders.Items").
		Preload("SubOrders").
		Where(query, args...).
		First(&order).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &order, nil
}

// FindPlacedInPeriod finds orders placed within [from, to) that contain a
// sub-order for the given store
func (r *GormOrderRepository) FindPlacedInPeriod(ctx context.Context, storeID uuid.UUID, from, to time.Time) ([]ordering.Order, error) {
	db := dbFromContext(ctx, r.db)

	var orders []ordering.Order
	err := db.Preload("SubOrders.Items").
		Preload("SubOrders").
		Where("placed_at >= ? AND placed_at < ?", from, to).
		Where("EXISTS (SELECT 1 FROM sub_orders WHERE sub_orders.order_id = orders.id AND sub_orders.store_id = ?)", storeID).
		Order("placed_at ASC").
		Find(&orders).Error
	if err != nil {
		return nil, err
	}
	return orders, nil
}

// FindAll lists orders with filtering
func (r *GormOrderRepository) FindAll(ctx context.Context, filter shared.Filter) ([]ordering.Order, error) {
	var orders []ordering.Order
	query := r.applyFilter(
		dbFromContext(ctx, r.db).Model(&ordering.Order{}).Preload("SubOrders.Items").Preload("SubOrders"),
		filter,
	)
	if err := query.Find(&orders).Error; err != nil {
		return nil, err
	}
	return orders, nil
}

// Count counts orders matching the filter
func (r *GormOrderRepository) Count(ctx context.Context, filter shared.Filter) (int64, error) {
	var count int64
	query := r.applyFilterWithoutPagination(
		dbFromContext(ctx, r.db).Model(&ordering.Order{}),
		filter,
	)
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// Save creates or updates an order with its sub-orders and items
func (r *GormOrderRepository) Save(ctx context.Context, order *ordering.Order) error {
	return dbFromContext(ctx, r.db).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Save(order).Error; err != nil {
			return err
		}
		return r.saveSubOrders(tx, order)
	})
}

// SaveWithLock saves with optimistic locking (version check)
func (r *GormOrderRepository) SaveWithLock(ctx context.Context, order *ordering.Order) error {
	return dbFromContext(ctx, r.db).Transaction(func(tx *gorm.DB) error {
		currentVersion := order.Version
		order.Version++
		order.UpdatedAt = time.Now()

		result := tx.Model(&ordering.Order{}).
			Where("id = ? AND version = ?", order.ID, currentVersion).
			Updates(map[string]interface{}{
				"order_number":    order.OrderNumber,
				"buyer_id":        order.BuyerID,
				"status":          order.Status,
				"payment_status":  order.PaymentStatus,
				"total_amount":    order.TotalAmount,
				"refunded_amount": order.RefundedAmount,
				"placed_at":       order.PlacedAt,
				"paid_at":         order.PaidAt,
				"version":         order.Version,
				"updated_at":      order.UpdatedAt,
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return shared.NewConflictError("CONCURRENT_MODIFICATION",
				"The order has been modified by another user")
		}

		return r.saveSubOrders(tx, order)
	})
}

// saveSubOrders reconciles the order's sub-orders and items with the
// database: removed rows are deleted, the rest upserted.
func (r *GormOrderRepository) saveSubOrders(tx *gorm.DB, order *ordering.Order) error {
	subOrderIDs := make([]uuid.UUID, len(order.SubOrders))
	for i := range order.SubOrders {
		subOrderIDs[i] = order.SubOrders[i].ID
	}

	if len(subOrderIDs) > 0 {
		if err := tx.Where("sub_order_id IN (SELECT id FROM sub_orders WHERE order_id = ? AND id NOT IN ?)", order.ID, subOrderIDs).
			Delete(&ordering.OrderItem{}).Error; err != nil {
			return err
		}
		if err := tx.Where("order_id = ? AND id NOT IN ?", order.ID, subOrderIDs).
			Delete(&ordering.SubOrder{}).Error; err != nil {
			return err
		}
	} else {
		if err := tx.Where("sub_order_id IN (SELECT id FROM sub_orders WHERE order_id = ?)", order.ID).
			Delete(&ordering.OrderItem{}).Error; err != nil {
			return err
		}
		if err := tx.Where("order_id = ?", order.ID).
			Delete(&ordering.SubOrder{}).Error; err != nil {
			return err
		}
	}

	for i := range order.SubOrders {
		subOrder := &order.SubOrders[i]
		subOrder.OrderID = order.ID
		if err := tx.Omit(clause.Associations).Save(subOrder).Error; err != nil {
			return err
		}

		itemIDs := make([]uuid.UUID, len(subOrder.Items))
		for j := range subOrder.Items {
			itemIDs[j] = subOrder.Items[j].ID
		}
		if len(itemIDs) > 0 {
			if err := tx.Where("sub_order_id = ? AND id NOT IN ?", subOrder.ID, itemIDs).
				Delete(&ordering.OrderItem{}).Error; err != nil {
				return err
			}
		} else {
			if err := tx.Where("sub_order_id = ?", subOrder.ID).
				Delete(&ordering.OrderItem{}).Error; err != nil {
				return err
			}
		}
		for j := range subOrder.Items {
			subOrder.Items[j].SubOrderID = subOrder.ID
			if err := tx.Save(&subOrder.Items[j]).Error; err != nil {
				return err
			}
		}
	}

	return nil
}

// NextOrderNumber allocates the next order number.
// Format: ORD-YYYY-NNNNN (e.g., ORD-2026-00001)
func (r *GormOrderRepository) NextOrderNumber(ctx context.Context) (string, error) {
	db := dbFromContext(ctx, r.db)
	year := time.Now().Year()
	prefix := fmt.Sprintf("ORD-%d-", year)

	var lastNumber string
	err := db.Model(&ordering.Order{}).
		Where("order_number LIKE ?", prefix+"%").
		Order("order_number DESC").
		Limit(1).
		Pluck("order_number", &lastNumber).Error
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

	return fmt.Sprintf("%s%05d", prefix, nextNum), nil
}

// applyFilter applies filter options to the query
func (r *GormOrderRepository) applyFilter(query *gorm.DB, filter shared.Filter) *gorm.DB {
	query = r.applyFilterWithoutPagination(query, filter)

	if filter.Page > 0 && filter.PageSize > 0 {
		offset := (filter.Page - 1) * filter.PageSize
		query = query.Offset(offset).Limit(filter.PageSize)
	}

	column := sortColumn(filter.OrderBy, orderSortColumns, "created_at")
	return query.Order(column + " " + sortDirection(filter.OrderDir))
}

// applyFilterWithoutPagination applies filter options without pagination
func (r *GormOrderRepository) applyFilterWithoutPagination(query *gorm.DB, filter shared.Filter) *gorm.DB {
	for key, value := range filter.Filters {
		switch key {
		case "buyer_id":
			query = query.Where("buyer_id = ?", value)
		case "status":
			query = query.Where("status = ?", value)
		case "payment_status":
			query = query.Where("payment_status = ?", value)
		case "store_id":
			query = query.Where("EXISTS (SELECT 1 FROM sub_orders WHERE sub_orders.order_id = orders.id AND sub_orders.store_id = ?)", value)
		case "placed_from":
			if t, ok := value.(time.Time); ok {
				query = query.Where("placed_at >= ?", t)
			}
		case "placed_to":
			if t, ok := value.(time.Time); ok {
				query = query.Where("placed_at < ?", t)
			}
		}
	}
	return query
}

// Ensure GormOrderRepository implements OrderRepository
var _ ordering.OrderRepository = (*GormOrderRepository)(nil)

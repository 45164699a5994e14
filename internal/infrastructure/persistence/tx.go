package persistence

import (
	"context"

	"gorm.io/gorm"

	"github.com/markethub/backend/internal/domain/shared"
)

// txContextKey carries the transaction-bound *gorm.DB through the context.
type txContextKey struct{}

// TxManager implements shared.TransactionManager on a gorm connection. The
// transaction handle travels in the context, so every repository call made
// inside Do joins the same database transaction. Nested Do calls reuse the
// outer transaction instead of opening a second one.
type TxManager struct {
	db *gorm.DB
}

// NewTxManager creates a new TxManager
func NewTxManager(db *gorm.DB) *TxManager {
	return &TxManager{db: db}
}

// Do runs fn inside a database transaction
func (m *TxManager) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	if tx, ok := ctx.Value(txContextKey{}).(*gorm.DB); ok && tx != nil {
		return fn(ctx)
	}
	return m.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(context.WithValue(ctx, txContextKey{}, tx))
	})
}

// dbFromContext resolves the database handle for the current call: the
// context-bound transaction when inside TxManager.Do, the fallback
// connection otherwise.
func dbFromContext(ctx context.Context, fallback *gorm.DB) *gorm.DB {
	if tx, ok := ctx.Value(txContextKey{}).(*gorm.DB); ok && tx != nil {
		return tx
	}
	return fallback.WithContext(ctx)
}

var _ shared.TransactionManager = (*TxManager)(nil)

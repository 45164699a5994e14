package settlement

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Repository persists settlements and their version chains
type Repository interface {
	// FindByID finds a settlement by ID
	FindByID(ctx context.Context, id uuid.UUID) (*Settlement, error)

	// FindCurrentByStorePeriod returns the current version for the exact
	// (store, periodStart, periodEnd) tuple, or nil when none exists
	FindCurrentByStorePeriod(ctx context.Context, storeID uuid.UUID, periodStart, periodEnd time.Time) (*Settlement, error)

	// FindVersions returns every version for the (store, period) tuple,
	// oldest first
	FindVersions(ctx context.Context, storeID uuid.UUID, periodStart, periodEnd time.Time) ([]Settlement, error)

	// FindByStore returns the store's current-version settlements, newest
	// period first
	FindByStore(ctx context.Context, storeID uuid.UUID) ([]Settlement, error)

	// Save creates or updates a settlement together with its items and
	// adjustments
	Save(ctx context.Context, s *Settlement) error

	// SaveWithLock updates with optimistic concurrency on the version column
	SaveWithLock(ctx context.Context, s *Settlement) error
}

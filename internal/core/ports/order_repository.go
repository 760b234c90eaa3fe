// Package ports defines the contracts between the dispatch core and
// infrastructure. These interfaces establish the boundary for dependency
// inversion and testability: the application layer depends only on them,
// never on concrete adapters.
package ports

import (
	"context"
	"time"

	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/domain/model/order"
)

// OrderRepository defines the persistence contract for order aggregates.
// Implementations must store the full aggregate state including the
// append-only lifecycle history.
type OrderRepository interface {
	// Add persists a new order aggregate to storage.
	// The order must be valid and not already exist in the repository.
	Add(ctx context.Context, aggregate *order.Order) error

	// Update persists changes to an existing order aggregate.
	// The order must exist in the repository and be valid.
	Update(ctx context.Context, aggregate *order.Order) error

	// Get retrieves an order aggregate by its unique identifier.
	// Returns the complete order with its history and bound assignment id.
	Get(ctx context.Context, id kernel.UUID) (*order.Order, error)

	// GetAllAwaitingDriver retrieves orders waiting for a driver,
	// oldest first. Used by the dispatch sweep to find work.
	GetAllAwaitingDriver(ctx context.Context) ([]*order.Order, error)

	// GetAllAssignedBefore retrieves orders that entered the assigned
	// state before the given deadline and have not progressed since.
	// Used by the timeout sweep to fail unresponsive assignments.
	GetAllAssignedBefore(ctx context.Context, deadline time.Time) ([]*order.Order, error)
}

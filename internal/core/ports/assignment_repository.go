package ports

import (
	"context"

	"dispatch/internal/core/domain/model/assignment"
	"dispatch/internal/core/domain/model/kernel"
)

// AssignmentRepository defines the persistence contract for driver
// assignment records. The store is append-only: assignments are never
// updated or deleted, a re-dispatch writes a new record that supersedes
// the previous one.
type AssignmentRepository interface {
	// Add persists a new assignment record.
	Add(ctx context.Context, record *assignment.DriverAssignment) error

	// Get retrieves an assignment record by its unique identifier.
	Get(ctx context.Context, id kernel.UUID) (*assignment.DriverAssignment, error)

	// GetAllForOrder retrieves every assignment ever produced for the
	// order, newest first. The full chain is retained for audit.
	GetAllForOrder(ctx context.Context, orderID kernel.UUID) ([]*assignment.DriverAssignment, error)
}

package assignmentrepo

import (
	"context"
	"errors"

	"dispatch/internal/core/domain/model/assignment"
	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/pkg/errs"

	"gorm.io/gorm"
)

// GormAssignmentRepository implements AssignmentRepository using GORM.
type GormAssignmentRepository struct {
	db      *gorm.DB
	tracker aggregateTracker
}

// aggregateTracker defines the interface for tracking aggregates.
type aggregateTracker interface {
	TrackAggregate(id kernel.UUID, aggregate any)
}

// NewGormAssignmentRepository creates a new GORM assignment repository.
func NewGormAssignmentRepository(db *gorm.DB, tracker aggregateTracker) *GormAssignmentRepository {
	return &GormAssignmentRepository{
		db:      db,
		tracker: tracker,
	}
}

// Add saves a new assignment record with its route stops.
func (r *GormAssignmentRepository) Add(ctx context.Context, record *assignment.DriverAssignment) error {
	if err := record.Validate(); err != nil {
		return err
	}

	dto := fromDomain(record)
	if err := r.db.WithContext(ctx).Create(&dto).Error; err != nil {
		return err
	}

	r.tracker.TrackAggregate(record.ID(), record)
	return nil
}

// Get retrieves an assignment record by ID with its route stops.
func (r *GormAssignmentRepository) Get(
	ctx context.Context,
	id kernel.UUID,
) (*assignment.DriverAssignment, error) {
	if err := id.Validate(); err != nil {
		return nil, err
	}

	var dto AssignmentDTO
	if err := r.withStops(ctx).First(&dto, "id = ?", id.Bytes()).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.NewObjectNotFoundError("assignment", id.String())
		}
		return nil, err
	}

	return toDomain(dto)
}

// GetAllForOrder retrieves every assignment ever produced for the order,
// newest first.
func (r *GormAssignmentRepository) GetAllForOrder(
	ctx context.Context,
	orderID kernel.UUID,
) ([]*assignment.DriverAssignment, error) {
	if err := orderID.Validate(); err != nil {
		return nil, err
	}

	var dtos []AssignmentDTO
	if err := r.withStops(ctx).
		Order("created_at DESC").
		Find(&dtos, "order_id = ?", orderID.Bytes()).Error; err != nil {
		return nil, err
	}

	records := make([]*assignment.DriverAssignment, 0, len(dtos))
	for _, dto := range dtos {
		record, err := toDomain(dto)
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}

	return records, nil
}

// withStops loads the record's route stops in their stored sequence.
func (r *GormAssignmentRepository) withStops(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).Preload("Stops", func(db *gorm.DB) *gorm.DB {
		return db.Order("seq")
	})
}

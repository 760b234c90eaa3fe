package orderrepo

import (
	"context"
	"errors"
	"time"

	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/domain/model/order"
	"dispatch/internal/pkg/errs"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormOrderRepository implements OrderRepository using GORM.
type GormOrderRepository struct {
	db      *gorm.DB
	tracker aggregateTracker
}

// aggregateTracker defines the interface for tracking aggregates.
type aggregateTracker interface {
	TrackAggregate(id kernel.UUID, aggregate any)
}

// NewGormOrderRepository creates a new GORM order repository.
func NewGormOrderRepository(db *gorm.DB, tracker aggregateTracker) *GormOrderRepository {
	return &GormOrderRepository{
		db:      db,
		tracker: tracker,
	}
}

// Add saves a new order with its items, pickups and initial history.
func (r *GormOrderRepository) Add(ctx context.Context, aggregate *order.Order) error {
	if err := aggregate.Validate(); err != nil {
		return err
	}

	dto := fromDomain(aggregate)
	if err := r.db.WithContext(ctx).Create(&dto).Error; err != nil {
		return err
	}

	r.tracker.TrackAggregate(aggregate.ID(), aggregate)
	return nil
}

// Update saves the mutable part of an existing order: the current state, the
// assignment binding and newly appended history entries. Items and pickups
// never change after creation; history rows already persisted are left alone.
func (r *GormOrderRepository) Update(ctx context.Context, aggregate *order.Order) error {
	if err := aggregate.Validate(); err != nil {
		return err
	}

	dto := fromDomain(aggregate)
	result := r.db.WithContext(ctx).Model(&OrderDTO{}).Where("id = ?", dto.ID).
		Updates(map[string]any{
			"state":         dto.State,
			"assignment_id": dto.AssignmentID,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}

	if err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&dto.History).Error; err != nil {
		return err
	}

	r.tracker.TrackAggregate(aggregate.ID(), aggregate)
	return nil
}

// Get retrieves an order by ID with all of its child rows.
func (r *GormOrderRepository) Get(ctx context.Context, id kernel.UUID) (*order.Order, error) {
	if err := id.Validate(); err != nil {
		return nil, err
	}

	var dto OrderDTO
	if err := r.withChildren(ctx).First(&dto, "id = ?", id.Bytes()).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.NewObjectNotFoundError("order", id.String())
		}
		return nil, err
	}

	return toDomain(dto)
}

// GetAllAwaitingDriver retrieves orders waiting for a driver, oldest first.
func (r *GormOrderRepository) GetAllAwaitingDriver(ctx context.Context) ([]*order.Order, error) {
	var dtos []OrderDTO
	if err := r.withChildren(ctx).
		Order("created_at").
		Find(&dtos, "state = ?", int(order.AwaitingDriver)).Error; err != nil {
		return nil, err
	}

	return toDomainAll(dtos)
}

// GetAllAssignedBefore retrieves orders still in the assigned state whose
// assignment history entry predates the deadline.
func (r *GormOrderRepository) GetAllAssignedBefore(
	ctx context.Context,
	deadline time.Time,
) ([]*order.Order, error) {
	stale := r.db.Table("order_history").
		Select("order_id").
		Where("state = ? AND entered_at < ?", int(order.Assigned), deadline)

	var dtos []OrderDTO
	if err := r.withChildren(ctx).
		Where("state = ?", int(order.Assigned)).
		Where("id IN (?)", stale).
		Order("created_at").
		Find(&dtos).Error; err != nil {
		return nil, err
	}

	return toDomainAll(dtos)
}

// withChildren loads the aggregate's child rows in their stored sequence.
func (r *GormOrderRepository) withChildren(ctx context.Context) *gorm.DB {
	bySeq := func(db *gorm.DB) *gorm.DB { return db.Order("seq") }
	return r.db.WithContext(ctx).
		Preload("Items", bySeq).
		Preload("Pickups", bySeq).
		Preload("History", bySeq)
}

func toDomainAll(dtos []OrderDTO) ([]*order.Order, error) {
	orders := make([]*order.Order, 0, len(dtos))
	for _, dto := range dtos {
		o, err := toDomain(dto)
		if err != nil {
			return nil, err
		}
		orders = append(orders, o)
	}
	return orders, nil
}

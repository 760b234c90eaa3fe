// Package driverregistry reads driver fleet snapshots from the database.
// The drivers table is fed by an external fleet system; this adapter only
// ever reads it, dispatch never mutates driver rows.
package driverregistry

import (
	"context"
	"errors"
	"strings"

	"dispatch/internal/core/domain/model/driver"
	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/pkg/errs"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// DriverDTO represents one driver row as maintained by the fleet system.
type DriverDTO struct {
	ID               uuid.UUID `gorm:"type:uuid;primaryKey"`
	Lat              float64
	Lon              float64
	Available        bool      `gorm:"index"`
	Vehicles         string
	PerformanceScore float64
}

// TableName specifies the database table name for driver rows.
func (DriverDTO) TableName() string {
	return "drivers"
}

// GormDriverRegistry implements DriverRegistry over the drivers table.
type GormDriverRegistry struct {
	db *gorm.DB
}

// NewGormDriverRegistry creates a registry reading from the given database.
func NewGormDriverRegistry(db *gorm.DB) *GormDriverRegistry {
	return &GormDriverRegistry{db: db}
}

// GetAvailableDrivers returns available drivers within radiusKm of the given
// point. Availability is filtered in the database; the radius is applied on
// the snapshot using great-circle distance.
func (r *GormDriverRegistry) GetAvailableDrivers(
	ctx context.Context,
	near kernel.GeoPoint,
	radiusKm float64,
) ([]driver.Driver, error) {
	if err := near.Validate(); err != nil {
		return nil, err
	}

	var dtos []DriverDTO
	if err := r.db.WithContext(ctx).Find(&dtos, "available = ?", true).Error; err != nil {
		return nil, err
	}

	drivers := make([]driver.Driver, 0, len(dtos))
	for _, dto := range dtos {
		candidate, err := toDomain(dto)
		if err != nil {
			return nil, err
		}

		distance, err := near.DistanceTo(candidate.Location())
		if err != nil {
			return nil, err
		}
		if distance <= radiusKm {
			drivers = append(drivers, candidate)
		}
	}

	return drivers, nil
}

// GetDriver returns the current snapshot of a single driver.
func (r *GormDriverRegistry) GetDriver(ctx context.Context, id kernel.UUID) (driver.Driver, error) {
	if err := id.Validate(); err != nil {
		return driver.Driver{}, err
	}

	var dto DriverDTO
	if err := r.db.WithContext(ctx).First(&dto, "id = ?", id.Bytes()).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return driver.Driver{}, errs.NewObjectNotFoundError("driver", id.String())
		}
		return driver.Driver{}, err
	}

	return toDomain(dto)
}

// toDomain converts a driver row to the read-only domain snapshot.
func toDomain(dto DriverDTO) (driver.Driver, error) {
	id, err := kernel.UUIDFromBytes(dto.ID[:])
	if err != nil {
		return driver.Driver{}, err
	}
	location, err := kernel.NewGeoPoint(dto.Lat, dto.Lon)
	if err != nil {
		return driver.Driver{}, err
	}

	var vehicles []string
	if dto.Vehicles != "" {
		vehicles = strings.Split(dto.Vehicles, ",")
	}

	return driver.NewDriver(id, location, dto.Available, vehicles, dto.PerformanceScore)
}

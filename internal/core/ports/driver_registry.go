package ports

import (
	"context"

	"dispatch/internal/core/domain/model/driver"
	"dispatch/internal/core/domain/model/kernel"
)

// DriverRegistry provides point-in-time snapshots of the driver fleet.
// Snapshots are read-only: driver location, availability and performance
// data are owned by a separate system and only consumed here.
type DriverRegistry interface {
	// GetAvailableDrivers returns a snapshot of drivers currently
	// available within radiusKm of the given point. The snapshot is
	// taken once per dispatch attempt; a driver going offline after the
	// snapshot surfaces as a failed hand-off, not as an error here.
	GetAvailableDrivers(ctx context.Context, near kernel.GeoPoint, radiusKm float64) ([]driver.Driver, error)

	// GetDriver returns the current snapshot of a single driver.
	GetDriver(ctx context.Context, id kernel.UUID) (driver.Driver, error)
}

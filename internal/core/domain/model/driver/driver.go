// Package driver holds the read-only driver snapshot consumed during
// dispatch. Drivers are owned by the external driver registry; this core
// never mutates them, it only reads a snapshot taken at assignment time.
package driver

import (
	"errors"

	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/pkg/errs"
	"dispatch/internal/pkg/guard"
)

// Domain errors for driver snapshots.
var (
	// ErrDriverIsNotConstructed is returned when using an improperly
	// initialized Driver.
	ErrDriverIsNotConstructed = errors.New("Driver must be created via NewDriver constructor")
	// ErrPerformanceScoreIsInvalid is returned for scores outside (0, 1].
	ErrPerformanceScoreIsInvalid = errs.NewValueIsOutOfRangeError("performance score", 0, 0, 1)
)

// Driver is an immutable snapshot of a delivery driver as reported by the
// external driver registry: current position, availability, vehicle
// capability tags and a rolling performance score.
//
// The performance score is supplied externally (not computed here) and lies
// in (0, 1]; higher is better. It feeds the assignment composite score as an
// inverse term.
type Driver struct {
	// id uniquely identifies the driver in the registry
	id kernel.UUID
	// location is the driver's position at snapshot time
	location kernel.GeoPoint
	// available reports whether the driver can take a new order
	available bool
	// vehicles are capability tags, e.g. "bike", "car", "scooter"
	vehicles []string
	// performanceScore is the rolling score in (0, 1]
	performanceScore float64
	// guard ensures the snapshot was properly constructed
	guard guard.ConstructorGuard
}

// NewDriver creates a driver snapshot with validation.
//
// Parameters:
//   - id: registry identifier (must be a valid UUID)
//   - location: current position (must be a constructed GeoPoint)
//   - available: whether the driver accepts new orders
//   - vehicles: capability tags; an empty list means an unconstrained vehicle
//   - performanceScore: rolling score in (0, 1]
func NewDriver(
	id kernel.UUID,
	location kernel.GeoPoint,
	available bool,
	vehicles []string,
	performanceScore float64,
) (Driver, error) {
	d := Driver{
		available: available,
		vehicles:  vehicles,
		guard:     guard.NewConstructorGuard(),
	}

	if err := errors.Join(
		d.setID(id),
		d.setLocation(location),
		d.setPerformanceScore(performanceScore),
	); err != nil {
		return Driver{}, err
	}

	return d, nil
}

// Validate ensures the Driver was created via NewDriver.
func (d Driver) Validate() error {
	return d.guard.Validate(ErrDriverIsNotConstructed)
}

// ID returns the driver's registry identifier.
func (d Driver) ID() kernel.UUID {
	return d.id
}

// Location returns the driver's position at snapshot time.
func (d Driver) Location() kernel.GeoPoint {
	return d.location
}

// IsAvailable reports whether the driver accepts new orders.
func (d Driver) IsAvailable() bool {
	return d.available
}

// Vehicles returns a copy of the capability tags.
func (d Driver) Vehicles() []string {
	vehicles := make([]string, len(d.vehicles))
	copy(vehicles, d.vehicles)
	return vehicles
}

// PerformanceScore returns the rolling performance score in (0, 1].
func (d Driver) PerformanceScore() float64 {
	return d.performanceScore
}

// CanServe reports whether the driver's vehicle capabilities satisfy the
// order's required vehicle tag. An empty requirement matches any driver;
// a driver without tags matches any requirement.
func (d Driver) CanServe(requiredVehicle string) bool {
	if requiredVehicle == "" || len(d.vehicles) == 0 {
		return true
	}
	for _, v := range d.vehicles {
		if v == requiredVehicle {
			return true
		}
	}
	return false
}

func (d *Driver) setID(id kernel.UUID) error {
	if err := id.Validate(); err != nil {
		return err
	}
	d.id = id
	return nil
}

func (d *Driver) setLocation(location kernel.GeoPoint) error {
	if err := location.Validate(); err != nil {
		return err
	}
	d.location = location
	return nil
}

func (d *Driver) setPerformanceScore(score float64) error {
	if score <= 0 || score > 1 {
		return ErrPerformanceScoreIsInvalid
	}
	d.performanceScore = score
	return nil
}

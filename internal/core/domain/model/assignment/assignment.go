// Package assignment implements the DriverAssignment record: the immutable
// outcome of dispatching an order to a driver, carrying the planned route
// and its time estimates.
//
// Assignments are append-only. A re-assignment never mutates an existing
// record; it creates a new one that references the record it supersedes, so
// the full assignment history of an order stays available for audit.
package assignment

import (
	"errors"
	"fmt"
	"time"

	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/pkg/errs"
	"dispatch/internal/pkg/guard"
)

// Domain errors for assignment records.
var (
	// ErrAssignmentIsNotConstructed is returned when using an improperly
	// initialized DriverAssignment.
	ErrAssignmentIsNotConstructed = errors.New(
		"DriverAssignment must be created via NewDriverAssignment or RestoreDriverAssignment constructor")
	// ErrRouteStopIsNotConstructed is returned when using an improperly
	// initialized RouteStop.
	ErrRouteStopIsNotConstructed = errs.NewValueIsRequiredError(
		"route stop must be created via NewRouteStop constructor")
	// ErrStopsAreRequired is returned when creating an assignment without stops.
	ErrStopsAreRequired = errs.NewValueIsRequiredError("route stops")
	// ErrDeliveryMustBeLast is returned when the stop sequence does not end
	// with the single delivery stop.
	ErrDeliveryMustBeLast = errs.NewValueIsInvalidError(
		"route must end with the delivery stop and contain only pickups before it")
)

// StopKind distinguishes pickup stops from the final delivery stop.
type StopKind int

const (
	// StopKindUnknown catches uninitialized values.
	StopKindUnknown StopKind = iota
	// StopKindPickup is a merchant pickup stop.
	StopKindPickup
	// StopKindDelivery is the final customer delivery stop.
	StopKindDelivery
)

// String returns the stop kind name. Implements fmt.Stringer.
func (k StopKind) String() string {
	switch k {
	case StopKindPickup:
		return "pickup"
	case StopKindDelivery:
		return "delivery"
	default:
		return "unknown"
	}
}

// Validate checks the kind is one of the defined values.
func (k StopKind) Validate() error {
	if k != StopKindPickup && k != StopKindDelivery {
		return errs.NewValueIsInvalidErrorWithCause("stop kind",
			fmt.Errorf("%d is not a valid stop kind", k))
	}
	return nil
}

// RouteStop is an immutable value object: one stop in a planned route, with
// the cumulative distance and duration of the leg from the previous stop
// (or from the driver's starting position for the first stop) and the
// estimated arrival time.
type RouteStop struct { //nolint:recvcheck //using for validation
	seq         int
	kind        StopKind
	point       kernel.GeoPoint
	legDistance float64
	legDuration time.Duration
	eta         time.Time
	guard       guard.ConstructorGuard
}

// NewRouteStop creates a route stop with validation. legDistanceKm and
// legDuration must be non-negative; seq is the zero-based position in the route.
func NewRouteStop(
	seq int,
	kind StopKind,
	point kernel.GeoPoint,
	legDistanceKm float64,
	legDuration time.Duration,
	eta time.Time,
) (RouteStop, error) {
	stop := RouteStop{
		guard: guard.NewConstructorGuard(),
	}

	if err := errors.Join(
		stop.setSeq(seq),
		stop.setKind(kind),
		stop.setPoint(point),
		stop.setLeg(legDistanceKm, legDuration),
	); err != nil {
		return RouteStop{}, err
	}

	stop.eta = eta
	return stop, nil
}

// Validate checks the RouteStop was created via NewRouteStop.
func (s RouteStop) Validate() error {
	return s.guard.Validate(ErrRouteStopIsNotConstructed)
}

// Seq returns the zero-based position of the stop in the route.
func (s RouteStop) Seq() int {
	return s.seq
}

// Kind returns whether the stop is a pickup or the delivery.
func (s RouteStop) Kind() StopKind {
	return s.kind
}

// Point returns the geographic point of the stop.
func (s RouteStop) Point() kernel.GeoPoint {
	return s.point
}

// LegDistanceKm returns the distance in kilometers from the previous stop.
func (s RouteStop) LegDistanceKm() float64 {
	return s.legDistance
}

// LegDuration returns the estimated travel time from the previous stop.
func (s RouteStop) LegDuration() time.Duration {
	return s.legDuration
}

// ETA returns the estimated arrival time at the stop.
func (s RouteStop) ETA() time.Time {
	return s.eta
}

func (s *RouteStop) setSeq(seq int) error {
	if seq < 0 {
		return errs.NewValueIsInvalidErrorWithCause("seq",
			fmt.Errorf("%d is negative", seq))
	}
	s.seq = seq
	return nil
}

func (s *RouteStop) setKind(kind StopKind) error {
	if err := kind.Validate(); err != nil {
		return err
	}
	s.kind = kind
	return nil
}

func (s *RouteStop) setPoint(point kernel.GeoPoint) error {
	if err := point.Validate(); err != nil {
		return err
	}
	s.point = point
	return nil
}

func (s *RouteStop) setLeg(distanceKm float64, duration time.Duration) error {
	if distanceKm < 0 {
		return errs.NewValueIsInvalidErrorWithCause("leg distance",
			fmt.Errorf("%f is negative", distanceKm))
	}
	if duration < 0 {
		return errs.NewValueIsInvalidErrorWithCause("leg duration",
			fmt.Errorf("%s is negative", duration))
	}
	s.legDistance = distanceKm
	s.legDuration = duration
	return nil
}

// DriverAssignment is the immutable record binding a driver to an order with
// a planned route. Created only by the assignment engine; once created it is
// never modified. A re-assignment creates a new record whose Supersedes field
// references the prior one.
type DriverAssignment struct {
	// id uniquely identifies the assignment record
	id kernel.UUID
	// orderID is the order being served
	orderID kernel.UUID
	// driverID is the selected driver
	driverID kernel.UUID
	// createdAt is the assignment timestamp (UTC)
	createdAt time.Time
	// stops is the planned route: pickups in visiting order, delivery last
	stops []RouteStop
	// totalDistanceKm is the effective route distance
	totalDistanceKm float64
	// totalDuration is the estimated route duration
	totalDuration time.Duration
	// supersedes references the assignment replaced by this one (nil for first)
	supersedes *kernel.UUID
	// guard ensures the record was properly constructed
	guard guard.ConstructorGuard
}

// NewDriverAssignment creates an assignment record stamped with the current
// time. The stop sequence must be non-empty, contain only pickup stops
// before the final stop, and end with exactly one delivery stop.
func NewDriverAssignment(
	id kernel.UUID,
	orderID kernel.UUID,
	driverID kernel.UUID,
	stops []RouteStop,
	totalDistanceKm float64,
	totalDuration time.Duration,
	supersedes *kernel.UUID,
) (*DriverAssignment, error) {
	return RestoreDriverAssignment(
		id, orderID, driverID, time.Now().UTC(),
		stops, totalDistanceKm, totalDuration, supersedes)
}

// RestoreDriverAssignment reconstructs an assignment record from persistent
// storage with an explicit creation timestamp.
func RestoreDriverAssignment(
	id kernel.UUID,
	orderID kernel.UUID,
	driverID kernel.UUID,
	createdAt time.Time,
	stops []RouteStop,
	totalDistanceKm float64,
	totalDuration time.Duration,
	supersedes *kernel.UUID,
) (*DriverAssignment, error) {
	a := &DriverAssignment{
		createdAt:       createdAt,
		totalDistanceKm: totalDistanceKm,
		totalDuration:   totalDuration,
		guard:           guard.NewConstructorGuard(),
	}

	if err := errors.Join(
		a.setID(id),
		a.setOrderID(orderID),
		a.setDriverID(driverID),
		a.setStops(stops),
		a.setSupersedes(supersedes),
	); err != nil {
		return nil, err
	}

	return a, nil
}

// Validate ensures the assignment was properly constructed.
func (a *DriverAssignment) Validate() error {
	if a == nil || a.guard.Validate(ErrAssignmentIsNotConstructed) != nil {
		return ErrAssignmentIsNotConstructed
	}
	return nil
}

// ID returns the assignment record identifier.
func (a *DriverAssignment) ID() kernel.UUID {
	return a.id
}

// OrderID returns the order being served.
func (a *DriverAssignment) OrderID() kernel.UUID {
	return a.orderID
}

// DriverID returns the selected driver.
func (a *DriverAssignment) DriverID() kernel.UUID {
	return a.driverID
}

// CreatedAt returns the assignment timestamp (UTC).
func (a *DriverAssignment) CreatedAt() time.Time {
	return a.createdAt
}

// Stops returns a copy of the planned route stops.
func (a *DriverAssignment) Stops() []RouteStop {
	stops := make([]RouteStop, len(a.stops))
	copy(stops, a.stops)
	return stops
}

// TotalDistanceKm returns the effective route distance in kilometers.
func (a *DriverAssignment) TotalDistanceKm() float64 {
	return a.totalDistanceKm
}

// TotalDuration returns the estimated route duration.
func (a *DriverAssignment) TotalDuration() time.Duration {
	return a.totalDuration
}

// EstimatedDeliveryAt returns the ETA of the final delivery stop.
func (a *DriverAssignment) EstimatedDeliveryAt() time.Time {
	return a.stops[len(a.stops)-1].ETA()
}

// Supersedes returns the id of the assignment replaced by this record,
// or nil for an order's first assignment.
func (a *DriverAssignment) Supersedes() *kernel.UUID {
	return a.supersedes
}

func (a *DriverAssignment) setID(id kernel.UUID) error {
	if err := id.Validate(); err != nil {
		return err
	}
	a.id = id
	return nil
}

func (a *DriverAssignment) setOrderID(orderID kernel.UUID) error {
	if err := orderID.Validate(); err != nil {
		return errs.NewValueIsRequiredErrorWithCause("order id", err)
	}
	a.orderID = orderID
	return nil
}

func (a *DriverAssignment) setDriverID(driverID kernel.UUID) error {
	if err := driverID.Validate(); err != nil {
		return errs.NewValueIsRequiredErrorWithCause("driver id", err)
	}
	a.driverID = driverID
	return nil
}

// setStops validates the route shape: non-empty, pickups first, delivery last.
func (a *DriverAssignment) setStops(stops []RouteStop) error {
	if len(stops) == 0 {
		return ErrStopsAreRequired
	}
	for i, stop := range stops {
		if err := stop.Validate(); err != nil {
			return err
		}
		isLast := i == len(stops)-1
		if isLast && stop.Kind() != StopKindDelivery {
			return ErrDeliveryMustBeLast
		}
		if !isLast && stop.Kind() != StopKindPickup {
			return ErrDeliveryMustBeLast
		}
	}
	a.stops = stops
	return nil
}

func (a *DriverAssignment) setSupersedes(supersedes *kernel.UUID) error {
	if supersedes != nil {
		if err := supersedes.Validate(); err != nil {
			return err
		}
	}
	a.supersedes = supersedes
	return nil
}

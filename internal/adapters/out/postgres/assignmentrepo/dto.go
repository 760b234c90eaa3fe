// Package assignmentrepo provides data transfer objects and mapping functions
// for driver assignment persistence. The store is append-only: records are
// written once and never updated, so the full re-assignment chain of an order
// remains queryable.
package assignmentrepo

import (
	"time"

	"dispatch/internal/core/domain/model/assignment"
	"dispatch/internal/core/domain/model/kernel"

	"github.com/google/uuid"
)

// AssignmentDTO represents the database structure for persisting assignment
// records. Route stops are stored as child rows keyed by record and position.
type AssignmentDTO struct {
	ID              uuid.UUID  `gorm:"type:uuid;primaryKey"`
	OrderID         uuid.UUID  `gorm:"type:uuid;index"`
	DriverID        uuid.UUID  `gorm:"type:uuid;index"`
	CreatedAt       time.Time
	TotalDistanceKm float64
	TotalDuration   time.Duration
	Supersedes      *uuid.UUID `gorm:"type:uuid"`

	Stops []StopDTO `gorm:"foreignKey:AssignmentID;references:ID;constraint:OnDelete:CASCADE"`
}

// TableName specifies the database table name for assignment records.
func (AssignmentDTO) TableName() string {
	return "assignments"
}

// StopDTO is one stop of a planned route.
type StopDTO struct {
	AssignmentID  uuid.UUID `gorm:"type:uuid;primaryKey"`
	Seq           int       `gorm:"primaryKey"`
	Kind          int
	Lat           float64
	Lon           float64
	LegDistanceKm float64
	LegDuration   time.Duration
	ETA           time.Time `gorm:"column:eta"`
}

// TableName specifies the database table name for route stops.
func (StopDTO) TableName() string {
	return "assignment_stops"
}

// fromDomain converts an assignment record to its database representation.
func fromDomain(record *assignment.DriverAssignment) AssignmentDTO {
	var supersedes *uuid.UUID
	if id := record.Supersedes(); id != nil {
		raw := id.Bytes()
		supersedes = &raw
	}

	recordID := record.ID().Bytes()

	dto := AssignmentDTO{
		ID:              recordID,
		OrderID:         record.OrderID().Bytes(),
		DriverID:        record.DriverID().Bytes(),
		CreatedAt:       record.CreatedAt(),
		TotalDistanceKm: record.TotalDistanceKm(),
		TotalDuration:   record.TotalDuration(),
		Supersedes:      supersedes,
	}

	for _, stop := range record.Stops() {
		dto.Stops = append(dto.Stops, StopDTO{
			AssignmentID:  recordID,
			Seq:           stop.Seq(),
			Kind:          int(stop.Kind()),
			Lat:           stop.Point().Lat(),
			Lon:           stop.Point().Lon(),
			LegDistanceKm: stop.LegDistanceKm(),
			LegDuration:   stop.LegDuration(),
			ETA:           stop.ETA(),
		})
	}

	return dto
}

// toDomain converts a database DTO to an assignment record using
// RestoreDriverAssignment.
func toDomain(dto AssignmentDTO) (*assignment.DriverAssignment, error) {
	id, err := kernel.UUIDFromBytes(dto.ID[:])
	if err != nil {
		return nil, err
	}
	orderID, err := kernel.UUIDFromBytes(dto.OrderID[:])
	if err != nil {
		return nil, err
	}
	driverID, err := kernel.UUIDFromBytes(dto.DriverID[:])
	if err != nil {
		return nil, err
	}

	stops := make([]assignment.RouteStop, 0, len(dto.Stops))
	for _, row := range dto.Stops {
		point, rowErr := kernel.NewGeoPoint(row.Lat, row.Lon)
		if rowErr != nil {
			return nil, rowErr
		}
		stop, rowErr := assignment.NewRouteStop(
			row.Seq, assignment.StopKind(row.Kind), point,
			row.LegDistanceKm, row.LegDuration, row.ETA)
		if rowErr != nil {
			return nil, rowErr
		}
		stops = append(stops, stop)
	}

	var supersedes *kernel.UUID
	if dto.Supersedes != nil {
		prior, priorErr := kernel.UUIDFromBytes((*dto.Supersedes)[:])
		if priorErr != nil {
			return nil, priorErr
		}
		supersedes = &prior
	}

	return assignment.RestoreDriverAssignment(
		id, orderID, driverID, dto.CreatedAt,
		stops, dto.TotalDistanceKm, dto.TotalDuration, supersedes)
}

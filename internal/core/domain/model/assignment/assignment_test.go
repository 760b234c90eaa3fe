package assignment_test

import (
	"testing"
	"time"

	"dispatch/internal/core/domain/model/assignment"
	"dispatch/internal/core/domain/model/kernel"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustPoint(t *testing.T, lat, lon float64) kernel.GeoPoint {
	t.Helper()
	point, err := kernel.NewGeoPoint(lat, lon)
	require.NoError(t, err)
	return point
}

func validStops(t *testing.T) []assignment.RouteStop {
	t.Helper()
	now := time.Now().UTC()

	pickup, err := assignment.NewRouteStop(
		0, assignment.StopKindPickup, mustPoint(t, 1, 1), 2.5, 5*time.Minute, now.Add(5*time.Minute))
	require.NoError(t, err)

	delivery, err := assignment.NewRouteStop(
		1, assignment.StopKindDelivery, mustPoint(t, 1.1, 1.1), 3.0, 7*time.Minute, now.Add(12*time.Minute))
	require.NoError(t, err)

	return []assignment.RouteStop{pickup, delivery}
}

func TestNewRouteStop(t *testing.T) {
	t.Run("should reject negative leg metrics", func(t *testing.T) {
		_, err := assignment.NewRouteStop(
			0, assignment.StopKindPickup, mustPoint(t, 1, 1), -1, time.Minute, time.Now())
		require.Error(t, err)

		_, err = assignment.NewRouteStop(
			0, assignment.StopKindPickup, mustPoint(t, 1, 1), 1, -time.Minute, time.Now())
		require.Error(t, err)
	})

	t.Run("should reject unknown kind and negative seq", func(t *testing.T) {
		_, err := assignment.NewRouteStop(
			0, assignment.StopKindUnknown, mustPoint(t, 1, 1), 1, time.Minute, time.Now())
		require.Error(t, err)

		_, err = assignment.NewRouteStop(
			-1, assignment.StopKindPickup, mustPoint(t, 1, 1), 1, time.Minute, time.Now())
		require.Error(t, err)
	})

	t.Run("zero value fails validation", func(t *testing.T) {
		var stop assignment.RouteStop
		require.Error(t, stop.Validate())
	})
}

func TestNewDriverAssignment(t *testing.T) {
	t.Run("should create immutable record", func(t *testing.T) {
		stops := validStops(t)

		a, err := assignment.NewDriverAssignment(
			kernel.NewUUID(), kernel.NewUUID(), kernel.NewUUID(),
			stops, 5.5, 12*time.Minute, nil)

		require.NoError(t, err)
		require.NoError(t, a.Validate())
		assert.Len(t, a.Stops(), 2)
		assert.InDelta(t, 5.5, a.TotalDistanceKm(), 1e-9)
		assert.Equal(t, 12*time.Minute, a.TotalDuration())
		assert.Equal(t, stops[1].ETA(), a.EstimatedDeliveryAt())
		assert.Nil(t, a.Supersedes())
		assert.False(t, a.CreatedAt().IsZero())
	})

	t.Run("should reject empty stop list", func(t *testing.T) {
		_, err := assignment.NewDriverAssignment(
			kernel.NewUUID(), kernel.NewUUID(), kernel.NewUUID(),
			nil, 0, 0, nil)

		require.Error(t, err)
		require.ErrorIs(t, err, assignment.ErrStopsAreRequired)
	})

	t.Run("should reject route not ending with delivery", func(t *testing.T) {
		now := time.Now().UTC()
		pickup, _ := assignment.NewRouteStop(
			0, assignment.StopKindPickup, mustPoint(t, 1, 1), 1, time.Minute, now)

		_, err := assignment.NewDriverAssignment(
			kernel.NewUUID(), kernel.NewUUID(), kernel.NewUUID(),
			[]assignment.RouteStop{pickup}, 1, time.Minute, nil)

		require.Error(t, err)
		require.ErrorIs(t, err, assignment.ErrDeliveryMustBeLast)
	})

	t.Run("should reject delivery before the end", func(t *testing.T) {
		now := time.Now().UTC()
		delivery1, _ := assignment.NewRouteStop(
			0, assignment.StopKindDelivery, mustPoint(t, 1, 1), 1, time.Minute, now)
		delivery2, _ := assignment.NewRouteStop(
			1, assignment.StopKindDelivery, mustPoint(t, 2, 2), 1, time.Minute, now)

		_, err := assignment.NewDriverAssignment(
			kernel.NewUUID(), kernel.NewUUID(), kernel.NewUUID(),
			[]assignment.RouteStop{delivery1, delivery2}, 2, 2*time.Minute, nil)

		require.Error(t, err)
		require.ErrorIs(t, err, assignment.ErrDeliveryMustBeLast)
	})

	t.Run("supersedes chain references prior record", func(t *testing.T) {
		first, err := assignment.NewDriverAssignment(
			kernel.NewUUID(), kernel.NewUUID(), kernel.NewUUID(),
			validStops(t), 5.5, 12*time.Minute, nil)
		require.NoError(t, err)

		firstID := first.ID()
		second, err := assignment.NewDriverAssignment(
			kernel.NewUUID(), first.OrderID(), kernel.NewUUID(),
			validStops(t), 6.0, 14*time.Minute, &firstID)
		require.NoError(t, err)

		require.NotNil(t, second.Supersedes())
		assert.True(t, second.Supersedes().IsEqual(first.ID()))
	})

	t.Run("nil and zero-value records fail validation", func(t *testing.T) {
		var nilAssignment *assignment.DriverAssignment
		require.ErrorIs(t, nilAssignment.Validate(), assignment.ErrAssignmentIsNotConstructed)

		var zero assignment.DriverAssignment
		require.ErrorIs(t, zero.Validate(), assignment.ErrAssignmentIsNotConstructed)
	})
}

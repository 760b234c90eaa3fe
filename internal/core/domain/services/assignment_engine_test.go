package services_test

import (
	"testing"
	"time"

	"dispatch/internal/core/domain/model/driver"
	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/domain/model/order"
	"dispatch/internal/core/domain/services"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newAwaitingOrder(t *testing.T, requiredVehicle string) *order.Order {
	t.Helper()

	item, err := order.NewLineItem("Bento Box", 1)
	require.NoError(t, err)
	pickup, err := order.NewPickup(kernel.NewUUID(), mustPoint(t, 0, 0))
	require.NoError(t, err)

	o, err := order.NewOrder(
		kernel.NewUUID(), kernel.NewUUID(),
		[]order.LineItem{item}, []order.Pickup{pickup},
		mustPoint(t, 1, 1), "12 Harbour Road", requiredVehicle)
	require.NoError(t, err)
	require.NoError(t, o.QueueForDispatch())
	return o
}

func newCandidate(t *testing.T, lat, lon float64, available bool, vehicles []string, score float64) driver.Driver {
	t.Helper()
	d, err := driver.NewDriver(kernel.NewUUID(), mustPoint(t, lat, lon), available, vehicles, score)
	require.NoError(t, err)
	return d
}

func newEngine() services.AssignmentEngine {
	return services.NewAssignmentEngine(services.NewRouteOptimizer(), services.DefaultScoreWeights())
}

func TestAssignmentEngine_Assign(t *testing.T) {
	departAt := time.Date(2026, 3, 1, 18, 30, 0, 0, time.UTC)
	factors := services.NeutralConditionFactors()

	t.Run("should select the nearest of equally performing drivers", func(t *testing.T) {
		o := newAwaitingOrder(t, "")
		near := newCandidate(t, 0, 0.1, true, nil, 0.8)
		far := newCandidate(t, 0, 5, true, nil, 0.8)

		a, err := newEngine().Assign(o, []driver.Driver{far, near}, factors, departAt)

		require.NoError(t, err)
		assert.True(t, a.DriverID().IsEqual(near.ID()))
		assert.True(t, a.OrderID().IsEqual(o.ID()))
		assert.Nil(t, a.Supersedes())
	})

	t.Run("should prefer the higher performance score at equal distance", func(t *testing.T) {
		// Two drivers at the same spot: A with score 0.9, B with 0.5.
		// The inverse-performance term makes A's composite score lower.
		o := newAwaitingOrder(t, "")
		a := newCandidate(t, 0, 0.5, true, nil, 0.9)
		b := newCandidate(t, 0, 0.5, true, nil, 0.5)

		for range 20 {
			result, err := newEngine().Assign(o, []driver.Driver{b, a}, factors, departAt)
			require.NoError(t, err)
			assert.True(t, result.DriverID().IsEqual(a.ID()), "selection must be deterministic")
		}
	})

	t.Run("ties break by lowest driver id", func(t *testing.T) {
		o := newAwaitingOrder(t, "")
		d1 := newCandidate(t, 0, 0.5, true, nil, 0.7)
		d2 := newCandidate(t, 0, 0.5, true, nil, 0.7)

		wantID := d1.ID()
		if d2.ID().String() < d1.ID().String() {
			wantID = d2.ID()
		}

		result, err := newEngine().Assign(o, []driver.Driver{d1, d2}, factors, departAt)

		require.NoError(t, err)
		assert.True(t, result.DriverID().IsEqual(wantID))
	})

	t.Run("should return ErrNoDriverAvailable for empty candidate set", func(t *testing.T) {
		o := newAwaitingOrder(t, "")

		_, err := newEngine().Assign(o, nil, factors, departAt)

		require.Error(t, err)
		require.ErrorIs(t, err, services.ErrNoDriverAvailable)
		// The engine is pure: the order is untouched.
		assert.Equal(t, order.AwaitingDriver, o.State())
		assert.Nil(t, o.AssignmentID())
	})

	t.Run("should filter out unavailable drivers", func(t *testing.T) {
		o := newAwaitingOrder(t, "")
		offline := newCandidate(t, 0, 0.1, false, nil, 0.9)

		_, err := newEngine().Assign(o, []driver.Driver{offline}, factors, departAt)

		require.ErrorIs(t, err, services.ErrNoDriverAvailable)
	})

	t.Run("should filter by vehicle capability", func(t *testing.T) {
		o := newAwaitingOrder(t, "car")
		bike := newCandidate(t, 0, 0.1, true, []string{"bike"}, 0.9)
		car := newCandidate(t, 0, 3, true, []string{"car"}, 0.6)

		result, err := newEngine().Assign(o, []driver.Driver{bike, car}, factors, departAt)

		require.NoError(t, err)
		assert.True(t, result.DriverID().IsEqual(car.ID()))
	})

	t.Run("should fail fast on malformed order", func(t *testing.T) {
		var nilOrder *order.Order
		candidate := newCandidate(t, 0, 0.1, true, nil, 0.9)

		_, err := newEngine().Assign(nilOrder, []driver.Driver{candidate}, factors, departAt)

		require.Error(t, err)
		require.ErrorIs(t, err, order.ErrOrderIsNotConstructed)
	})

	t.Run("re-assignment records the superseded assignment", func(t *testing.T) {
		o := newAwaitingOrder(t, "")
		engine := newEngine()
		candidate := newCandidate(t, 0, 0.1, true, nil, 0.9)

		first, err := engine.Assign(o, []driver.Driver{candidate}, factors, departAt)
		require.NoError(t, err)
		require.NoError(t, o.AssignDriver(first.ID()))

		// Restore to a dispatchable state as a re-dispatch would.
		restored, err := order.RestoreOrder(
			o.ID(), o.CustomerID(), o.Items(), o.Pickups(),
			o.DeliveryPoint(), o.DeliveryAddress(), o.RequiredVehicle(),
			order.Assigned, o.History(), o.AssignmentID())
		require.NoError(t, err)

		second, err := engine.Assign(restored, []driver.Driver{candidate}, factors, departAt)
		require.NoError(t, err)

		require.NotNil(t, second.Supersedes())
		assert.True(t, second.Supersedes().IsEqual(first.ID()))
		assert.False(t, second.ID().IsEqual(first.ID()))
	})

	t.Run("assignment route ends at the order delivery point", func(t *testing.T) {
		o := newAwaitingOrder(t, "")
		candidate := newCandidate(t, 0, 0.1, true, nil, 0.9)

		result, err := newEngine().Assign(o, []driver.Driver{candidate}, factors, departAt)

		require.NoError(t, err)
		stops := result.Stops()
		last := stops[len(stops)-1]
		equal, _ := last.Point().IsEqual(o.DeliveryPoint())
		assert.True(t, equal)
		assert.Equal(t, departAt.Add(result.TotalDuration()), result.EstimatedDeliveryAt())
	})
}

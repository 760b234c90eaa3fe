package order_test

import (
	"testing"

	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/domain/model/order"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestOrder(t *testing.T) *order.Order {
	t.Helper()

	item, err := order.NewLineItem("Pad Thai", 1)
	require.NoError(t, err)

	merchantPoint, err := kernel.NewGeoPoint(52.52, 13.405)
	require.NoError(t, err)
	pickup, err := order.NewPickup(kernel.NewUUID(), merchantPoint)
	require.NoError(t, err)

	deliveryPoint, err := kernel.NewGeoPoint(52.53, 13.41)
	require.NoError(t, err)

	o, err := order.NewOrder(
		kernel.NewUUID(), kernel.NewUUID(),
		[]order.LineItem{item}, []order.Pickup{pickup},
		deliveryPoint, "Alexanderplatz 1", "")
	require.NoError(t, err)
	return o
}

func TestNewOrder(t *testing.T) {
	t.Run("should create order in Created state with history entry", func(t *testing.T) {
		o := newTestOrder(t)

		assert.Equal(t, order.Created, o.State())
		require.Len(t, o.History(), 1)
		assert.Equal(t, order.Created, o.History()[0].State())
		assert.False(t, o.History()[0].EnteredAt().IsZero())
		assert.Nil(t, o.AssignmentID())
	})

	t.Run("should reject order without line items", func(t *testing.T) {
		point, _ := kernel.NewGeoPoint(1, 1)
		pickup, _ := order.NewPickup(kernel.NewUUID(), point)

		_, err := order.NewOrder(kernel.NewUUID(), kernel.NewUUID(),
			nil, []order.Pickup{pickup}, point, "addr", "")

		require.Error(t, err)
		require.ErrorIs(t, err, order.ErrLineItemsAreRequired)
	})

	t.Run("should reject order without pickups", func(t *testing.T) {
		point, _ := kernel.NewGeoPoint(1, 1)
		item, _ := order.NewLineItem("Soup", 1)

		_, err := order.NewOrder(kernel.NewUUID(), kernel.NewUUID(),
			[]order.LineItem{item}, nil, point, "addr", "")

		require.Error(t, err)
		require.ErrorIs(t, err, order.ErrPickupsAreRequired)
	})

	t.Run("should reject invalid delivery point", func(t *testing.T) {
		point, _ := kernel.NewGeoPoint(1, 1)
		item, _ := order.NewLineItem("Soup", 1)
		pickup, _ := order.NewPickup(kernel.NewUUID(), point)

		var zero kernel.GeoPoint
		_, err := order.NewOrder(kernel.NewUUID(), kernel.NewUUID(),
			[]order.LineItem{item}, []order.Pickup{pickup}, zero, "addr", "")

		require.Error(t, err)
	})
}

func TestOrder_Lifecycle(t *testing.T) {
	t.Run("happy path appends one history entry per state", func(t *testing.T) {
		o := newTestOrder(t)

		require.NoError(t, o.QueueForDispatch())
		require.NoError(t, o.AssignDriver(kernel.NewUUID()))
		require.NoError(t, o.MarkPickedUp())
		require.NoError(t, o.MarkInTransit())
		require.NoError(t, o.MarkDelivered())
		require.NoError(t, o.Complete())

		assert.Equal(t, order.Completed, o.State())

		history := o.History()
		require.Len(t, history, 7)
		wantStates := []order.State{
			order.Created, order.AwaitingDriver, order.Assigned, order.PickedUp,
			order.InTransit, order.Delivered, order.Completed,
		}
		for i, entry := range history {
			assert.Equal(t, wantStates[i], entry.State())
			assert.False(t, entry.EnteredAt().IsZero())
		}
	})

	t.Run("assign requires a valid assignment id", func(t *testing.T) {
		o := newTestOrder(t)
		require.NoError(t, o.QueueForDispatch())

		var zero kernel.UUID
		err := o.AssignDriver(zero)

		require.Error(t, err)
		require.ErrorIs(t, err, order.ErrAssignmentIsRequired)
		assert.Equal(t, order.AwaitingDriver, o.State())
	})

	t.Run("assign from Created is rejected", func(t *testing.T) {
		o := newTestOrder(t)

		err := o.AssignDriver(kernel.NewUUID())

		require.Error(t, err)
		require.ErrorIs(t, err, order.ErrInvalidTransition)
		assert.Nil(t, o.AssignmentID())
	})

	t.Run("skipping states is rejected", func(t *testing.T) {
		o := newTestOrder(t)

		require.ErrorIs(t, o.MarkPickedUp(), order.ErrInvalidTransition)
		require.ErrorIs(t, o.Complete(), order.ErrInvalidTransition)
	})
}

func TestOrder_Cancel(t *testing.T) {
	t.Run("cancellable before pickup", func(t *testing.T) {
		o := newTestOrder(t)
		require.NoError(t, o.QueueForDispatch())
		require.NoError(t, o.AssignDriver(kernel.NewUUID()))

		require.NoError(t, o.Cancel())

		assert.Equal(t, order.Cancelled, o.State())
		// Assignment is retained for audit.
		assert.NotNil(t, o.AssignmentID())
	})

	t.Run("not cancellable after pickup", func(t *testing.T) {
		o := newTestOrder(t)
		require.NoError(t, o.QueueForDispatch())
		require.NoError(t, o.AssignDriver(kernel.NewUUID()))
		require.NoError(t, o.MarkPickedUp())

		err := o.Cancel()

		require.ErrorIs(t, err, order.ErrInvalidTransition)
		assert.Equal(t, order.PickedUp, o.State())
	})

	t.Run("cancel is terminal", func(t *testing.T) {
		o := newTestOrder(t)
		require.NoError(t, o.Cancel())

		require.ErrorIs(t, o.QueueForDispatch(), order.ErrInvalidTransition)
		require.ErrorIs(t, o.Cancel(), order.ErrInvalidTransition)
	})
}

func TestOrder_Fail(t *testing.T) {
	t.Run("requires a reason code", func(t *testing.T) {
		o := newTestOrder(t)
		require.NoError(t, o.QueueForDispatch())

		err := o.Fail("")

		require.Error(t, err)
		require.ErrorIs(t, err, order.ErrFailureReasonIsRequired)
		assert.Equal(t, order.AwaitingDriver, o.State())
	})

	t.Run("records the reason in history", func(t *testing.T) {
		o := newTestOrder(t)
		require.NoError(t, o.QueueForDispatch())

		require.NoError(t, o.Fail(order.ReasonNoDriverAvailable))

		assert.Equal(t, order.Failed, o.State())
		history := o.History()
		assert.Equal(t, order.ReasonNoDriverAvailable, history[len(history)-1].Reason())
	})

	t.Run("not failable from Created", func(t *testing.T) {
		o := newTestOrder(t)

		require.ErrorIs(t, o.Fail(order.ReasonNoDriverAvailable), order.ErrInvalidTransition)
	})
}

func TestRestoreOrder(t *testing.T) {
	t.Run("restores assigned order with assignment", func(t *testing.T) {
		o := newTestOrder(t)
		assignmentID := kernel.NewUUID()

		restored, err := order.RestoreOrder(
			o.ID(), o.CustomerID(), o.Items(), o.Pickups(),
			o.DeliveryPoint(), o.DeliveryAddress(), o.RequiredVehicle(),
			order.Assigned, o.History(), &assignmentID)

		require.NoError(t, err)
		assert.Equal(t, order.Assigned, restored.State())
		assert.True(t, restored.AssignmentID().IsEqual(assignmentID))
	})

	t.Run("rejects assigned order without assignment", func(t *testing.T) {
		o := newTestOrder(t)

		_, err := order.RestoreOrder(
			o.ID(), o.CustomerID(), o.Items(), o.Pickups(),
			o.DeliveryPoint(), o.DeliveryAddress(), o.RequiredVehicle(),
			order.Assigned, o.History(), nil)

		require.Error(t, err)
	})

	t.Run("rejects invalid state", func(t *testing.T) {
		o := newTestOrder(t)

		_, err := order.RestoreOrder(
			o.ID(), o.CustomerID(), o.Items(), o.Pickups(),
			o.DeliveryPoint(), o.DeliveryAddress(), o.RequiredVehicle(),
			order.State(42), o.History(), nil)

		require.Error(t, err)
	})
}

func TestOrder_Validate(t *testing.T) {
	t.Run("nil and zero-value orders are invalid", func(t *testing.T) {
		var nilOrder *order.Order
		require.ErrorIs(t, nilOrder.Validate(), order.ErrOrderIsNotConstructed)

		var zero order.Order
		require.ErrorIs(t, zero.Validate(), order.ErrOrderIsNotConstructed)
	})

	t.Run("constructed order is valid", func(t *testing.T) {
		require.NoError(t, newTestOrder(t).Validate())
	})
}

func TestLineItemAndPickup(t *testing.T) {
	t.Run("line item rejects empty name and non-positive quantity", func(t *testing.T) {
		_, err := order.NewLineItem("", 1)
		require.ErrorIs(t, err, order.ErrItemNameIsRequired)

		_, err = order.NewLineItem("Ramen", 0)
		require.Error(t, err)
	})

	t.Run("pickup rejects zero merchant id and point", func(t *testing.T) {
		point, _ := kernel.NewGeoPoint(1, 1)

		var zeroID kernel.UUID
		_, err := order.NewPickup(zeroID, point)
		require.Error(t, err)

		var zeroPoint kernel.GeoPoint
		_, err = order.NewPickup(kernel.NewUUID(), zeroPoint)
		require.Error(t, err)
	})
}

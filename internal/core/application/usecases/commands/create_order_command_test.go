package commands_test

import (
	"testing"

	"dispatch/internal/core/application/usecases/commands"
	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/domain/model/order"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validCreateOrderArgs(t *testing.T) (kernel.UUID, kernel.UUID, []order.LineItem, []order.Pickup, kernel.GeoPoint) {
	t.Helper()
	item, err := order.NewLineItem("Ramen", 1)
	require.NoError(t, err)
	pickup, err := order.NewPickup(kernel.NewUUID(), testPoint(t, 0, 0))
	require.NoError(t, err)
	return kernel.NewUUID(), kernel.NewUUID(), []order.LineItem{item}, []order.Pickup{pickup}, testPoint(t, 1, 1)
}

func TestNewCreateOrderCommand_ValidInput(t *testing.T) {
	orderID, customerID, items, pickups, delivery := validCreateOrderArgs(t)

	cmd, err := commands.NewCreateOrderCommand(orderID, customerID, items, pickups, delivery, "7 Canal Street", "bike")

	require.NoError(t, err)
	assert.Equal(t, orderID, cmd.OrderID())
	assert.Equal(t, customerID, cmd.CustomerID())
	assert.Len(t, cmd.Items(), 1)
	assert.Len(t, cmd.Pickups(), 1)
	assert.Equal(t, "7 Canal Street", cmd.DeliveryAddress())
	assert.Equal(t, "bike", cmd.RequiredVehicle())
}

func TestNewCreateOrderCommand_InvalidOrderID(t *testing.T) {
	_, customerID, items, pickups, delivery := validCreateOrderArgs(t)

	_, err := commands.NewCreateOrderCommand(kernel.UUID{}, customerID, items, pickups, delivery, "7 Canal Street", "")

	require.Error(t, err)
	assert.ErrorIs(t, err, kernel.ErrUUIDIsNotConstructed)
}

func TestNewCreateOrderCommand_EmptyItems(t *testing.T) {
	orderID, customerID, _, pickups, delivery := validCreateOrderArgs(t)

	_, err := commands.NewCreateOrderCommand(orderID, customerID, nil, pickups, delivery, "7 Canal Street", "")

	require.Error(t, err)
	assert.ErrorIs(t, err, order.ErrLineItemsAreRequired)
}

func TestNewCreateOrderCommand_EmptyPickups(t *testing.T) {
	orderID, customerID, items, _, delivery := validCreateOrderArgs(t)

	_, err := commands.NewCreateOrderCommand(orderID, customerID, items, nil, delivery, "7 Canal Street", "")

	require.Error(t, err)
	assert.ErrorIs(t, err, order.ErrPickupsAreRequired)
}

func TestNewCreateOrderCommand_EmptyAddress(t *testing.T) {
	orderID, customerID, items, pickups, delivery := validCreateOrderArgs(t)

	_, err := commands.NewCreateOrderCommand(orderID, customerID, items, pickups, delivery, "", "")

	require.Error(t, err)
	assert.ErrorIs(t, err, commands.ErrDeliveryAddressIsRequired)
}

package commands

import (
	"errors"

	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/domain/model/order"
	"dispatch/internal/pkg/guard"
)

var (
	ErrCreateOrderCommandIsNotConstructed = errors.New(
		"CreateOrderCommand must be created via NewCreateOrderCommand constructor",
	)
	ErrDeliveryAddressIsRequired = errors.New("delivery address is required")
)

// CreateOrderCommand represents a request to register a new delivery order.
// Carries the normalized order content produced by the intake adapters:
// line items, merchant pickup stops and the delivery destination.
//
// Example:
//
//	cmd, err := NewCreateOrderCommand(kernel.NewUUID(), customerID,
//	    items, pickups, deliveryPoint, "221B Baker Street", "")
//	if err != nil {
//	    return fmt.Errorf("invalid order data: %w", err)
//	}
//
//	handler := NewCreateOrderCommandHandler(uowFactory)
//	if err := handler.Handle(ctx, cmd); err != nil {
//	    return fmt.Errorf("failed to create order: %w", err)
//	}
type CreateOrderCommand struct { //nolint:recvcheck //using for validation
	orderID         kernel.UUID
	customerID      kernel.UUID
	items           []order.LineItem
	pickups         []order.Pickup
	deliveryPoint   kernel.GeoPoint
	deliveryAddress string
	requiredVehicle string

	guard guard.ConstructorGuard
}

// NewCreateOrderCommand creates a command to register a new delivery order.
// Validates identifiers, the delivery destination and that at least one
// line item and pickup stop are present. Returns an error if any validation fails.
func NewCreateOrderCommand(
	orderID kernel.UUID,
	customerID kernel.UUID,
	items []order.LineItem,
	pickups []order.Pickup,
	deliveryPoint kernel.GeoPoint,
	deliveryAddress string,
	requiredVehicle string,
) (CreateOrderCommand, error) {
	orderCommand := CreateOrderCommand{
		requiredVehicle: requiredVehicle,
		guard:           guard.NewConstructorGuard(),
	}

	if err := errors.Join(
		orderCommand.setOrderID(orderID),
		orderCommand.setCustomerID(customerID),
		orderCommand.setItems(items),
		orderCommand.setPickups(pickups),
		orderCommand.setDeliveryPoint(deliveryPoint),
		orderCommand.setDeliveryAddress(deliveryAddress),
	); err != nil {
		return CreateOrderCommand{}, err
	}

	return orderCommand, nil
}

// Validate ensures the command was created through the constructor.
// Returns ErrCreateOrderCommandIsNotConstructed if validation fails.
func (c CreateOrderCommand) Validate() error {
	return c.guard.Validate(ErrCreateOrderCommandIsNotConstructed)
}

// OrderID returns the unique identifier for the order.
func (c CreateOrderCommand) OrderID() kernel.UUID {
	return c.orderID
}

// CustomerID returns the ordering customer's identifier.
func (c CreateOrderCommand) CustomerID() kernel.UUID {
	return c.customerID
}

// Items returns the ordered line items.
func (c CreateOrderCommand) Items() []order.LineItem {
	return c.items
}

// Pickups returns the merchant pickup stops.
func (c CreateOrderCommand) Pickups() []order.Pickup {
	return c.pickups
}

// DeliveryPoint returns the geographic delivery destination.
func (c CreateOrderCommand) DeliveryPoint() kernel.GeoPoint {
	return c.deliveryPoint
}

// DeliveryAddress returns the human-readable delivery address.
func (c CreateOrderCommand) DeliveryAddress() string {
	return c.deliveryAddress
}

// RequiredVehicle returns the vehicle constraint, empty for any vehicle.
func (c CreateOrderCommand) RequiredVehicle() string {
	return c.requiredVehicle
}

func (c *CreateOrderCommand) setOrderID(orderID kernel.UUID) error {
	if err := orderID.Validate(); err != nil {
		return err
	}

	c.orderID = orderID
	return nil
}

func (c *CreateOrderCommand) setCustomerID(customerID kernel.UUID) error {
	if err := customerID.Validate(); err != nil {
		return err
	}

	c.customerID = customerID
	return nil
}

func (c *CreateOrderCommand) setItems(items []order.LineItem) error {
	if len(items) == 0 {
		return order.ErrLineItemsAreRequired
	}

	c.items = items
	return nil
}

func (c *CreateOrderCommand) setPickups(pickups []order.Pickup) error {
	if len(pickups) == 0 {
		return order.ErrPickupsAreRequired
	}

	c.pickups = pickups
	return nil
}

func (c *CreateOrderCommand) setDeliveryPoint(point kernel.GeoPoint) error {
	if err := point.Validate(); err != nil {
		return err
	}

	c.deliveryPoint = point
	return nil
}

func (c *CreateOrderCommand) setDeliveryAddress(address string) error {
	if address == "" {
		return ErrDeliveryAddressIsRequired
	}

	c.deliveryAddress = address
	return nil
}

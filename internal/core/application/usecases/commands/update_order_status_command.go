package commands

import (
	"errors"

	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/domain/model/order"
	"dispatch/internal/pkg/guard"
)

var (
	ErrUpdateOrderStatusCommandIsNotConstructed = errors.New(
		"UpdateOrderStatusCommand must be created via NewUpdateOrderStatusCommand constructor",
	)
	ErrTargetStateIsNotAProgressState = errors.New(
		"target state must be one of PickedUp, InTransit, Delivered, Completed",
	)
)

// UpdateOrderStatusCommand represents a driver progress report: the order
// has been picked up, is in transit, was delivered, or is completed.
type UpdateOrderStatusCommand struct { //nolint:recvcheck //using for validation
	orderID kernel.UUID
	target  order.State

	guard guard.ConstructorGuard
}

// NewUpdateOrderStatusCommand creates a progress command. Only the forward
// progress states are accepted; cancellation and failure have dedicated
// commands with their own rules.
func NewUpdateOrderStatusCommand(orderID kernel.UUID, target order.State) (UpdateOrderStatusCommand, error) {
	cmd := UpdateOrderStatusCommand{
		guard: guard.NewConstructorGuard(),
	}

	if err := errors.Join(cmd.setOrderID(orderID), cmd.setTarget(target)); err != nil {
		return UpdateOrderStatusCommand{}, err
	}

	return cmd, nil
}

// Validate ensures the command was created through the constructor.
// Returns ErrUpdateOrderStatusCommandIsNotConstructed if validation fails.
func (c UpdateOrderStatusCommand) Validate() error {
	return c.guard.Validate(ErrUpdateOrderStatusCommandIsNotConstructed)
}

// OrderID returns the order being progressed.
func (c UpdateOrderStatusCommand) OrderID() kernel.UUID {
	return c.orderID
}

// Target returns the reported progress state.
func (c UpdateOrderStatusCommand) Target() order.State {
	return c.target
}

func (c *UpdateOrderStatusCommand) setOrderID(orderID kernel.UUID) error {
	if err := orderID.Validate(); err != nil {
		return err
	}

	c.orderID = orderID
	return nil
}

func (c *UpdateOrderStatusCommand) setTarget(target order.State) error {
	switch target {
	case order.PickedUp, order.InTransit, order.Delivered, order.Completed:
		c.target = target
		return nil
	default:
		return ErrTargetStateIsNotAProgressState
	}
}

package commands

import (
	"context"
	"log/slog"

	"dispatch/internal/core/domain/model/order"
	"dispatch/internal/core/ports"
	"dispatch/internal/pkg/keylock"
)

// UpdateOrderStatusCommandHandler applies driver progress reports to the
// order lifecycle. Illegal moves (skipping a stage, progressing a cancelled
// order) surface as InvalidTransitionError from the state machine.
type UpdateOrderStatusCommandHandler struct {
	uowFactory OrderUoWFactory
	notifier   ports.NotificationGateway
	locks      *keylock.KeyedMutex
	logger     *slog.Logger
}

// NewUpdateOrderStatusCommandHandler creates a handler for progress reports.
// The keyed mutex must be shared with the dispatch and cancel handlers.
func NewUpdateOrderStatusCommandHandler(
	uowFactory OrderUoWFactory,
	notifier ports.NotificationGateway,
	locks *keylock.KeyedMutex,
	logger *slog.Logger,
) UpdateOrderStatusCommandHandler {
	return UpdateOrderStatusCommandHandler{
		uowFactory: uowFactory,
		notifier:   notifier,
		locks:      locks,
		logger:     logger.With("component", "progress"),
	}
}

// Handle applies the reported progress state under the per-order lock and
// notifies the customer afterwards.
func (h UpdateOrderStatusCommandHandler) Handle(ctx context.Context, cmd UpdateOrderStatusCommand) error {
	if err := cmd.Validate(); err != nil {
		return err
	}

	key := cmd.OrderID().String()
	h.locks.Lock(key)
	aggregate, err := h.progressLocked(ctx, cmd)
	h.locks.Unlock(key)

	if err != nil {
		h.logger.Error("progress update failed",
			"order_id", cmd.OrderID().String(),
			"target", cmd.Target().String(),
			"error", err)
		return err
	}

	if notifyErr := h.notifier.NotifyCustomerOrderUpdate(ctx, aggregate); notifyErr != nil {
		h.logger.Warn("customer notification failed",
			"order_id", aggregate.ID().String(),
			"state", aggregate.State().String(),
			"error", notifyErr)
	}
	return nil
}

func (h UpdateOrderStatusCommandHandler) progressLocked(
	ctx context.Context,
	cmd UpdateOrderStatusCommand,
) (*order.Order, error) {
	uow := h.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, err
	}

	defer func() {
		_ = uow.Rollback(ctx)
	}()

	orderRepo := uow.OrderRepository()

	aggregate, err := orderRepo.Get(ctx, cmd.OrderID())
	if err != nil {
		return nil, err
	}

	if err = applyProgress(aggregate, cmd.Target()); err != nil {
		return nil, err
	}
	if err = orderRepo.Update(ctx, aggregate); err != nil {
		return nil, err
	}
	if err = uow.Commit(ctx); err != nil {
		return nil, err
	}

	h.logger.Info("order progressed",
		"order_id", aggregate.ID().String(),
		"state", aggregate.State().String())
	return aggregate, nil
}

// applyProgress routes the target state to the aggregate's transition method
// so the state machine rules stay in one place.
func applyProgress(aggregate *order.Order, target order.State) error {
	switch target {
	case order.PickedUp:
		return aggregate.MarkPickedUp()
	case order.InTransit:
		return aggregate.MarkInTransit()
	case order.Delivered:
		return aggregate.MarkDelivered()
	case order.Completed:
		return aggregate.Complete()
	default:
		return ErrTargetStateIsNotAProgressState
	}
}

package commands

import (
	"context"
	"log/slog"

	"dispatch/internal/core/domain/model/order"
	"dispatch/internal/core/ports"
	"dispatch/internal/pkg/keylock"
)

// CancelOrderCommandHandler cancels an order before pickup.
//
// The handler first raises the order's pending-cancel flag, then queues for
// the per-order lock. If a dispatch is in flight it holds the lock; on
// seeing the flag it abandons its assignment commit and applies cancelled
// itself. Either way, once this handler acquires the lock the order is in a
// settled state and the cancellation is applied or already done.
type CancelOrderCommandHandler struct {
	uowFactory    OrderUoWFactory
	notifier      ports.NotificationGateway
	locks         *keylock.KeyedMutex
	cancellations *keylock.FlagSet
	logger        *slog.Logger
}

// NewCancelOrderCommandHandler creates a handler for order cancellation.
// The keyed mutex and flag set must be the same instances used by the
// dispatch handler.
func NewCancelOrderCommandHandler(
	uowFactory OrderUoWFactory,
	notifier ports.NotificationGateway,
	locks *keylock.KeyedMutex,
	cancellations *keylock.FlagSet,
	logger *slog.Logger,
) CancelOrderCommandHandler {
	return CancelOrderCommandHandler{
		uowFactory:    uowFactory,
		notifier:      notifier,
		locks:         locks,
		cancellations: cancellations,
		logger:        logger.With("component", "cancel"),
	}
}

// Handle processes the cancellation command.
//
// Cancelling an already cancelled order is a no-op. Cancelling an order at
// or beyond pickup returns an InvalidTransitionError. The customer is
// notified after the lock is released; a notification failure is logged and
// does not undo the cancellation.
func (h CancelOrderCommandHandler) Handle(ctx context.Context, cmd CancelOrderCommand) error {
	if err := cmd.Validate(); err != nil {
		return err
	}

	key := cmd.OrderID().String()
	h.cancellations.Raise(key)
	h.locks.Lock(key)

	aggregate, err := h.cancelLocked(ctx, cmd)

	h.cancellations.Clear(key)
	h.locks.Unlock(key)

	if err != nil {
		h.logger.Error("cancellation failed",
			"order_id", cmd.OrderID().String(),
			"error", err)
		return err
	}

	if aggregate != nil {
		if notifyErr := h.notifier.NotifyCustomerOrderUpdate(ctx, aggregate); notifyErr != nil {
			h.logger.Warn("customer notification failed",
				"order_id", aggregate.ID().String(),
				"error", notifyErr)
		}
	}
	return nil
}

// cancelLocked applies the cancellation under the per-order lock. Returns
// the cancelled aggregate for notification, or nil when the order was
// already cancelled by a concurrent dispatch that consumed the flag.
func (h CancelOrderCommandHandler) cancelLocked(
	ctx context.Context,
	cmd CancelOrderCommand,
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

	if aggregate.State() == order.Cancelled {
		return nil, nil
	}

	if err = aggregate.Cancel(); err != nil {
		return nil, err
	}
	if err = orderRepo.Update(ctx, aggregate); err != nil {
		return nil, err
	}
	if err = uow.Commit(ctx); err != nil {
		return nil, err
	}

	h.logger.Info("order cancelled", "order_id", aggregate.ID().String())
	return aggregate, nil
}

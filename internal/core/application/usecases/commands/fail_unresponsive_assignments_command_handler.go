package commands

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/domain/model/order"
	"dispatch/internal/core/ports"
	"dispatch/internal/pkg/keylock"
)

// FailUnresponsiveAssignmentsCommandHandler sweeps orders stuck in the
// assigned state and fails them with reason driver_unresponsive.
//
// The scan runs in a read-only transaction; each stale order is then
// re-checked and failed under its own per-order lock and transaction, so
// the sweep never holds a long transaction and never races a progress
// report that arrives mid-sweep.
type FailUnresponsiveAssignmentsCommandHandler struct {
	uowFactory OrderUoWFactory
	notifier   ports.NotificationGateway
	locks      *keylock.KeyedMutex
	logger     *slog.Logger
}

// NewFailUnresponsiveAssignmentsCommandHandler creates the timeout sweep handler.
// The keyed mutex must be shared with the other order handlers.
func NewFailUnresponsiveAssignmentsCommandHandler(
	uowFactory OrderUoWFactory,
	notifier ports.NotificationGateway,
	locks *keylock.KeyedMutex,
	logger *slog.Logger,
) FailUnresponsiveAssignmentsCommandHandler {
	return FailUnresponsiveAssignmentsCommandHandler{
		uowFactory: uowFactory,
		notifier:   notifier,
		locks:      locks,
		logger:     logger.With("component", "assignment_timeout"),
	}
}

// Handle finds assignments older than the response timeout and fails each
// affected order. Individual failures are collected and joined; one bad
// order does not stop the sweep.
func (h FailUnresponsiveAssignmentsCommandHandler) Handle(
	ctx context.Context,
	cmd FailUnresponsiveAssignmentsCommand,
) error {
	if err := cmd.Validate(); err != nil {
		return err
	}

	deadline := time.Now().UTC().Add(-cmd.ResponseTimeout())

	stale, err := h.findStale(ctx, deadline)
	if err != nil {
		return err
	}

	var sweepErrs []error
	for _, id := range stale {
		if failErr := h.failOne(ctx, id, deadline); failErr != nil {
			h.logger.Error("failed to time out assignment",
				"order_id", id.String(),
				"error", failErr)
			sweepErrs = append(sweepErrs, failErr)
		}
	}
	return errors.Join(sweepErrs...)
}

// findStale returns the ids of orders assigned before the deadline.
func (h FailUnresponsiveAssignmentsCommandHandler) findStale(
	ctx context.Context,
	deadline time.Time,
) ([]kernel.UUID, error) {
	uow := h.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, err
	}

	defer func() {
		_ = uow.Rollback(ctx)
	}()

	aggregates, err := uow.OrderRepository().GetAllAssignedBefore(ctx, deadline)
	if err != nil {
		return nil, err
	}

	ids := make([]kernel.UUID, 0, len(aggregates))
	for _, aggregate := range aggregates {
		ids = append(ids, aggregate.ID())
	}
	return ids, nil
}

// failOne re-checks and fails a single order under its per-order lock.
// The order may have progressed or been cancelled since the scan; in that
// case the sweep skips it.
func (h FailUnresponsiveAssignmentsCommandHandler) failOne(
	ctx context.Context,
	id kernel.UUID,
	deadline time.Time,
) error {
	key := id.String()
	h.locks.Lock(key)
	aggregate, err := h.failOneLocked(ctx, id, deadline)
	h.locks.Unlock(key)

	if err != nil || aggregate == nil {
		return err
	}

	if notifyErr := h.notifier.NotifyCustomerOrderUpdate(ctx, aggregate); notifyErr != nil {
		h.logger.Warn("customer notification failed",
			"order_id", aggregate.ID().String(),
			"error", notifyErr)
	}
	return nil
}

func (h FailUnresponsiveAssignmentsCommandHandler) failOneLocked(
	ctx context.Context,
	id kernel.UUID,
	deadline time.Time,
) (*order.Order, error) {
	uow := h.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, err
	}

	defer func() {
		_ = uow.Rollback(ctx)
	}()

	orderRepo := uow.OrderRepository()

	aggregate, err := orderRepo.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if aggregate.State() != order.Assigned || !assignedBefore(aggregate, deadline) {
		return nil, nil
	}

	if err = aggregate.Fail(order.ReasonDriverUnresponsive); err != nil {
		return nil, err
	}
	if err = orderRepo.Update(ctx, aggregate); err != nil {
		return nil, err
	}
	if err = uow.Commit(ctx); err != nil {
		return nil, err
	}

	h.logger.Warn("assignment timed out, order failed",
		"order_id", aggregate.ID().String())
	return aggregate, nil
}

// assignedBefore reports whether the order entered Assigned before the
// deadline, using the latest Assigned history entry.
func assignedBefore(aggregate *order.Order, deadline time.Time) bool {
	history := aggregate.History()
	for i := len(history) - 1; i >= 0; i-- {
		if history[i].State() == order.Assigned {
			return history[i].EnteredAt().Before(deadline)
		}
	}
	return false
}

package commands

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"dispatch/internal/core/domain/model/assignment"
	"dispatch/internal/core/domain/model/order"
	"dispatch/internal/core/domain/services"
	"dispatch/internal/core/ports"
	"dispatch/internal/pkg/keylock"

	"github.com/cenkalti/backoff/v4"
)

const (
	defaultSearchRadiusKm       = 10.0
	defaultDispatchAttempts     = 3
	defaultRetryInitialInterval = 500 * time.Millisecond
)

// ConditionSource supplies the traffic and weather factors in effect at
// dispatch time. Injected so a live conditions feed can replace the neutral
// default without touching the orchestration logic.
type ConditionSource func(ctx context.Context) services.ConditionFactors

// NeutralConditions is the default ConditionSource: no traffic or weather
// degradation.
func NeutralConditions(_ context.Context) services.ConditionFactors {
	return services.NeutralConditionFactors()
}

// DispatchOrderCommandHandler orchestrates the dispatch of a single order:
// state gate, driver snapshot, assignment, bounded retry and notifications.
//
// Each order's dispatch sequence is serialized by a per-order lock so two
// concurrent dispatch calls can never double-assign the same order. The lock
// covers the state check through the transaction commit; notifications run
// after release so they never block other work on the order.
//
// A cancellation requested while dispatch is in flight raises a flag that is
// checked before the assigned transition commits: if set, the assignment is
// abandoned and the order moves to cancelled instead. Readers never observe
// an order that is both assigned and cancelled.
type DispatchOrderCommandHandler struct {
	uowFactory    UoWFactory
	registry      ports.DriverRegistry
	notifier      ports.NotificationGateway
	engine        services.AssignmentEngine
	locks         *keylock.KeyedMutex
	cancellations *keylock.FlagSet
	conditions    ConditionSource
	logger        *slog.Logger

	searchRadiusKm       float64
	maxAttempts          uint64
	retryInitialInterval time.Duration
}

// DispatchOption configures a DispatchOrderCommandHandler.
type DispatchOption func(*DispatchOrderCommandHandler)

// WithSearchRadius overrides the driver search radius around the first
// pickup stop.
func WithSearchRadius(km float64) DispatchOption {
	return func(h *DispatchOrderCommandHandler) {
		if km > 0 {
			h.searchRadiusKm = km
		}
	}
}

// WithDispatchAttempts overrides the number of assignment attempts made
// before the order is failed with no_driver_available.
func WithDispatchAttempts(attempts uint64) DispatchOption {
	return func(h *DispatchOrderCommandHandler) {
		if attempts > 0 {
			h.maxAttempts = attempts
		}
	}
}

// WithRetryInitialInterval overrides the initial backoff interval between
// assignment attempts.
func WithRetryInitialInterval(interval time.Duration) DispatchOption {
	return func(h *DispatchOrderCommandHandler) {
		if interval > 0 {
			h.retryInitialInterval = interval
		}
	}
}

// WithConditionSource overrides the neutral condition factors with a live
// traffic and weather feed.
func WithConditionSource(source ConditionSource) DispatchOption {
	return func(h *DispatchOrderCommandHandler) {
		if source != nil {
			h.conditions = source
		}
	}
}

// NewDispatchOrderCommandHandler creates the dispatch orchestrator.
// The keyed mutex and cancellation flag set must be shared with the cancel
// handler so both operate on the same per-order serialization domain.
func NewDispatchOrderCommandHandler(
	uowFactory UoWFactory,
	registry ports.DriverRegistry,
	notifier ports.NotificationGateway,
	engine services.AssignmentEngine,
	locks *keylock.KeyedMutex,
	cancellations *keylock.FlagSet,
	logger *slog.Logger,
	opts ...DispatchOption,
) DispatchOrderCommandHandler {
	h := DispatchOrderCommandHandler{
		uowFactory:           uowFactory,
		registry:             registry,
		notifier:             notifier,
		engine:               engine,
		locks:                locks,
		cancellations:        cancellations,
		conditions:           NeutralConditions,
		logger:               logger.With("component", "dispatch"),
		searchRadiusKm:       defaultSearchRadiusKm,
		maxAttempts:          defaultDispatchAttempts,
		retryInitialInterval: defaultRetryInitialInterval,
	}
	for _, opt := range opts {
		opt(&h)
	}
	return h
}

// Handle processes the dispatch command for one order.
//
// Steps 1-4 (state gate, driver snapshot, assignment with bounded retry,
// atomic commit of the assignment record plus the assigned transition) run
// under the per-order lock. Notifications (step 5) run after the lock is
// released; their failures are logged and never affect the committed state.
//
// A second dispatch of an order already assigned returns an
// InvalidTransitionError and creates no second assignment. If every
// assignment attempt ends with ErrNoDriverAvailable, the order is committed
// as failed with reason no_driver_available and the error is returned.
func (h DispatchOrderCommandHandler) Handle(ctx context.Context, cmd DispatchOrderCommand) error {
	if err := cmd.Validate(); err != nil {
		return err
	}

	key := cmd.OrderID().String()
	h.locks.Lock(key)
	record, aggregate, err := h.dispatchLocked(ctx, cmd)
	h.locks.Unlock(key)

	if aggregate != nil {
		h.notify(ctx, aggregate, record)
	}
	return err
}

// dispatchLocked runs the serialized part of the dispatch flow. It returns
// the committed aggregate (possibly failed or cancelled) for notification
// purposes, the new assignment record on success, and the outcome error.
func (h DispatchOrderCommandHandler) dispatchLocked(
	ctx context.Context,
	cmd DispatchOrderCommand,
) (*assignment.DriverAssignment, *order.Order, error) {
	uow := h.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, nil, err
	}

	defer func() {
		_ = uow.Rollback(ctx)
	}()

	orderRepo := uow.OrderRepository()

	aggregate, err := orderRepo.Get(ctx, cmd.OrderID())
	if err != nil {
		return nil, nil, err
	}

	if aggregate.State() != order.AwaitingDriver {
		err = order.NewInvalidTransitionError(aggregate.State(), order.Assigned)
		h.logError(aggregate, err)
		return nil, nil, err
	}

	record, err := h.assignWithRetry(ctx, aggregate)
	if errors.Is(err, services.ErrNoDriverAvailable) {
		failed, failErr := h.failNoDriver(ctx, uow, orderRepo, aggregate)
		if failErr != nil {
			return nil, nil, failErr
		}
		return nil, failed, err
	}
	if err != nil {
		h.logError(aggregate, err)
		return nil, nil, err
	}

	// A cancellation may have been requested while we were scoring drivers.
	// Consume the flag before the assigned transition becomes visible.
	if h.cancellations.Clear(aggregate.ID().String()) {
		if err = aggregate.Cancel(); err != nil {
			return nil, nil, err
		}
		if err = orderRepo.Update(ctx, aggregate); err != nil {
			return nil, nil, err
		}
		if err = uow.Commit(ctx); err != nil {
			return nil, nil, err
		}
		h.logger.Info("dispatch abandoned, order cancelled",
			"order_id", aggregate.ID().String())
		return nil, aggregate, nil
	}

	if err = uow.AssignmentRepository().Add(ctx, record); err != nil {
		return nil, nil, err
	}
	if err = aggregate.AssignDriver(record.ID()); err != nil {
		h.logError(aggregate, err)
		return nil, nil, err
	}
	if err = orderRepo.Update(ctx, aggregate); err != nil {
		return nil, nil, err
	}
	if err = uow.Commit(ctx); err != nil {
		return nil, nil, err
	}

	h.logger.Info("order assigned",
		"order_id", aggregate.ID().String(),
		"driver_id", record.DriverID().String(),
		"eta", record.EstimatedDeliveryAt())
	return record, aggregate, nil
}

// assignWithRetry snapshots the driver registry and runs the assignment
// engine, retrying with exponential backoff while no driver is available.
// Any other error aborts the retry loop immediately.
func (h DispatchOrderCommandHandler) assignWithRetry(
	ctx context.Context,
	aggregate *order.Order,
) (*assignment.DriverAssignment, error) {
	searchCenter := aggregate.Pickups()[0].Point()

	operation := func() (*assignment.DriverAssignment, error) {
		candidates, err := h.registry.GetAvailableDrivers(ctx, searchCenter, h.searchRadiusKm)
		if err != nil {
			return nil, backoff.Permanent(err)
		}

		record, err := h.engine.Assign(aggregate, candidates, h.conditions(ctx), time.Now().UTC())
		if err != nil && !errors.Is(err, services.ErrNoDriverAvailable) {
			return nil, backoff.Permanent(err)
		}
		return record, err
	}

	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = h.retryInitialInterval

	return backoff.RetryWithData(operation,
		backoff.WithContext(backoff.WithMaxRetries(policy, h.maxAttempts-1), ctx))
}

// failNoDriver commits the terminal failed transition after the retry
// budget is exhausted.
func (h DispatchOrderCommandHandler) failNoDriver(
	ctx context.Context,
	uow UoW,
	orderRepo ports.OrderRepository,
	aggregate *order.Order,
) (*order.Order, error) {
	if err := aggregate.Fail(order.ReasonNoDriverAvailable); err != nil {
		return nil, err
	}
	if err := orderRepo.Update(ctx, aggregate); err != nil {
		return nil, err
	}
	if err := uow.Commit(ctx); err != nil {
		return nil, err
	}

	h.logger.Warn("no driver found, order failed",
		"order_id", aggregate.ID().String(),
		"attempts", h.maxAttempts)
	return aggregate, nil
}

// notify emits the dispatch outcome through the notification gateway.
// Failures degrade delivery of the notification only; the committed order
// state is already final, so errors are logged and swallowed.
func (h DispatchOrderCommandHandler) notify(
	ctx context.Context,
	aggregate *order.Order,
	record *assignment.DriverAssignment,
) {
	if record != nil {
		if err := h.notifier.NotifyDriverAssigned(ctx, record); err != nil {
			h.logger.Warn("driver notification failed",
				"order_id", aggregate.ID().String(),
				"driver_id", record.DriverID().String(),
				"error", err)
		}
	}
	if err := h.notifier.NotifyCustomerOrderUpdate(ctx, aggregate); err != nil {
		h.logger.Warn("customer notification failed",
			"order_id", aggregate.ID().String(),
			"state", aggregate.State().String(),
			"error", err)
	}
}

// logError records a dispatch error with the order id and current state
// for audit.
func (h DispatchOrderCommandHandler) logError(aggregate *order.Order, err error) {
	h.logger.Error("dispatch failed",
		"order_id", aggregate.ID().String(),
		"state", aggregate.State().String(),
		"error", err)
}

package jobs

import (
	"context"
	"errors"
	"log/slog"

	"dispatch/internal/core/application/usecases/commands"
	"dispatch/internal/core/domain/model/order"
	"dispatch/internal/core/domain/services"

	"github.com/robfig/cron/v3"
)

// dispatchSpec runs the dispatch sweep every five seconds. Orders normally
// get dispatched right after creation; the sweep picks up orders whose first
// attempt failed transiently and orders created while no drivers were around.
const dispatchSpec = "*/5 * * * * *"

// DispatchJob periodically scans for orders awaiting a driver and runs the
// dispatch flow for each of them.
type DispatchJob struct {
	uowFactory commands.OrderUoWFactory
	handler    commands.DispatchOrderCommandHandler
	cron       *cron.Cron
	logger     *slog.Logger
}

// NewDispatchJob creates the dispatch sweep job.
func NewDispatchJob(
	uowFactory commands.OrderUoWFactory,
	handler commands.DispatchOrderCommandHandler,
	logger *slog.Logger,
) *DispatchJob {
	return &DispatchJob{
		uowFactory: uowFactory,
		handler:    handler,
		cron:       cron.New(cron.WithSeconds()),
		logger:     logger.With("component", "dispatch_job"),
	}
}

// Start begins the dispatch sweep.
func (j *DispatchJob) Start() error {
	_, err := j.cron.AddFunc(dispatchSpec, j.sweep)
	if err != nil {
		return err
	}

	j.cron.Start()
	j.logger.InfoContext(context.Background(), "Dispatch job started")
	return nil
}

// Stop stops the dispatch sweep.
func (j *DispatchJob) Stop() {
	j.cron.Stop()
	j.logger.InfoContext(context.Background(), "Dispatch job stopped")
}

// sweep dispatches every order currently awaiting a driver. Each order is
// handled independently; one failing order never blocks the rest.
func (j *DispatchJob) sweep() {
	ctx := context.Background()

	uow := j.uowFactory.Create()
	awaiting, err := uow.OrderRepository().GetAllAwaitingDriver(ctx)
	if err != nil {
		j.logger.ErrorContext(ctx, "Dispatch sweep scan failed", "error", err)
		return
	}

	for _, aggregate := range awaiting {
		cmd, cmdErr := commands.NewDispatchOrderCommand(aggregate.ID())
		if cmdErr != nil {
			j.logger.ErrorContext(ctx, "Dispatch sweep skipped order",
				"order_id", aggregate.ID().String(), "error", cmdErr)
			continue
		}

		if handleErr := j.handler.Handle(ctx, cmd); handleErr != nil {
			// No driver in range and concurrent progress are expected
			// outcomes, not system issues.
			if errors.Is(handleErr, services.ErrNoDriverAvailable) ||
				errors.Is(handleErr, order.ErrInvalidTransition) {
				continue
			}
			j.logger.ErrorContext(ctx, "Dispatch sweep failed for order",
				"order_id", aggregate.ID().String(), "error", handleErr)
		}
	}
}

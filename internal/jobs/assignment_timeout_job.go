package jobs

import (
	"context"
	"log/slog"
	"time"

	"dispatch/internal/core/application/usecases/commands"

	"github.com/robfig/cron/v3"
)

// timeoutSpec runs the unresponsive-assignment sweep every thirty seconds.
// Response timeouts are measured in minutes, so a tighter schedule would
// only add database load.
const timeoutSpec = "*/30 * * * * *"

// AssignmentTimeoutJob periodically fails orders whose assigned driver has
// not reported pickup within the configured response timeout, returning the
// order to a terminal state the customer can act on.
type AssignmentTimeoutJob struct {
	handler         commands.FailUnresponsiveAssignmentsCommandHandler
	responseTimeout time.Duration
	cron            *cron.Cron
	logger          *slog.Logger
}

// NewAssignmentTimeoutJob creates the timeout sweep job.
func NewAssignmentTimeoutJob(
	handler commands.FailUnresponsiveAssignmentsCommandHandler,
	responseTimeout time.Duration,
	logger *slog.Logger,
) *AssignmentTimeoutJob {
	return &AssignmentTimeoutJob{
		handler:         handler,
		responseTimeout: responseTimeout,
		cron:            cron.New(cron.WithSeconds()),
		logger:          logger.With("component", "assignment_timeout_job"),
	}
}

// Start begins the timeout sweep.
func (j *AssignmentTimeoutJob) Start() error {
	_, err := j.cron.AddFunc(timeoutSpec, func() {
		ctx := context.Background()

		cmd, cmdErr := commands.NewFailUnresponsiveAssignmentsCommand(j.responseTimeout)
		if cmdErr != nil {
			j.logger.ErrorContext(ctx, "Assignment timeout job misconfigured", "error", cmdErr)
			return
		}

		if handleErr := j.handler.Handle(ctx, cmd); handleErr != nil {
			j.logger.ErrorContext(ctx, "Assignment timeout job failed", "error", handleErr)
		}
	})
	if err != nil {
		return err
	}

	j.cron.Start()
	j.logger.InfoContext(context.Background(), "Assignment timeout job started",
		"response_timeout", j.responseTimeout)
	return nil
}

// Stop stops the timeout sweep.
func (j *AssignmentTimeoutJob) Stop() {
	j.cron.Stop()
	j.logger.InfoContext(context.Background(), "Assignment timeout job stopped")
}

package jobs

import (
	"fmt"
	"log/slog"
	"time"

	"dispatch/internal/core/application/usecases/commands"
)

// JobManager coordinates all scheduled jobs in the application.
// Provides a unified interface to start and stop all background jobs.
type JobManager struct {
	dispatchJob          *DispatchJob
	assignmentTimeoutJob *AssignmentTimeoutJob
}

// NewJobManager creates a new job manager with all required jobs.
// Takes command handlers as dependencies to wire up the job execution.
func NewJobManager(
	uowFactory commands.OrderUoWFactory,
	dispatchHandler commands.DispatchOrderCommandHandler,
	timeoutHandler commands.FailUnresponsiveAssignmentsCommandHandler,
	responseTimeout time.Duration,
	logger *slog.Logger,
) *JobManager {
	return &JobManager{
		dispatchJob:          NewDispatchJob(uowFactory, dispatchHandler, logger),
		assignmentTimeoutJob: NewAssignmentTimeoutJob(timeoutHandler, responseTimeout, logger),
	}
}

// StartAll starts all scheduled jobs.
// Returns an error if any job fails to start.
func (jm *JobManager) StartAll() error {
	if err := jm.dispatchJob.Start(); err != nil {
		return fmt.Errorf("failed to start dispatch job: %w", err)
	}

	if err := jm.assignmentTimeoutJob.Start(); err != nil {
		// Stop already started jobs if this one fails
		jm.dispatchJob.Stop()
		return fmt.Errorf("failed to start assignment timeout job: %w", err)
	}

	return nil
}

// StopAll stops all scheduled jobs gracefully.
func (jm *JobManager) StopAll() {
	jm.assignmentTimeoutJob.Stop()
	jm.dispatchJob.Stop()
}

// Package jobs provides scheduled background tasks for the dispatch system.
//
// This package implements cron-based jobs using github.com/robfig/cron/v3
// to handle periodic operations required for order dispatching.
//
// # Available Jobs
//
// 1. DispatchJob - Runs every five seconds to dispatch orders awaiting a driver
// 2. AssignmentTimeoutJob - Runs every thirty seconds to fail orders whose
// assigned driver never responded within the configured timeout
//
// # Usage
//
// Jobs are managed through JobManager which provides a unified interface:
//
//	// Create job manager with required handlers
//	jobManager := jobs.NewJobManager(uowFactory, dispatchHandler, timeoutHandler, responseTimeout, logger)
//
//	// Start all jobs
//	if err := jobManager.StartAll(); err != nil {
//		log.Fatal("Failed to start jobs:", err)
//	}
//
//	// Stop all jobs when shutting down
//	defer jobManager.StopAll()
//
// # Error Handling
//
//   - The dispatch sweep treats "no driver available" and concurrent state
//     progress as expected outcomes and does not log them
//   - The timeout sweep logs all errors as they indicate system issues
//   - Failed job starts will stop any already running jobs
package jobs

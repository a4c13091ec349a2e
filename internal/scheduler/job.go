package scheduler

import "context"

// Job is a unit of sweep work executed by the worker pool: posting a due
// schedule, or scanning obligations for notification events.
type Job interface {
	// Execute runs the job. Context should be respected for cancellation
	// and timeouts.
	Execute(ctx context.Context) error

	// UserID returns the owning user, for logging and tracing. Zero when
	// the job spans all users.
	UserID() int64

	// Description returns a short human-readable label for logs.
	Description() string
}

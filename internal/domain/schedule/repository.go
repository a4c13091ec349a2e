package schedule

import (
	"context"
	"time"
)

// Repository defines the interface for recurring-schedule data access.
//
// ClaimDueDate, ReleaseDueDate and AdvanceNextDue implement the compare-and-
// swap idempotency marker: a claim succeeds for exactly one caller per due
// date, which is what makes concurrent Execute calls post exactly once.
type Repository interface {
	Create(ctx context.Context, params CreateParams) (*RecurringSchedule, error)
	GetByID(ctx context.Context, id string) (*RecurringSchedule, error)
	ListByUserID(ctx context.Context, userID int64) ([]*RecurringSchedule, error)

	// ListDue returns active schedules with next_due_date <= asOf, ordered
	// by next_due_date ascending then id ascending. When autoCreateOnly is
	// set, manual schedules are excluded (sweep semantics).
	ListDue(ctx context.Context, asOf time.Time, autoCreateOnly bool) ([]*RecurringSchedule, error)

	// ClaimDueDate atomically sets last_executed_due_date = due, but only if
	// the schedule is active, next_due_date still equals due, and the date
	// has not been claimed already. Returns false when another caller won.
	ClaimDueDate(ctx context.Context, id string, due time.Time) (bool, error)

	// ReleaseDueDate undoes a claim after a failed downstream posting,
	// restoring the previous marker so the due date is retryable.
	ReleaseDueDate(ctx context.Context, id string, due time.Time, prev *time.Time) error

	// AdvanceNextDue records the outcome of a claimed execution: stores the
	// posting reference (nil for skips) and moves next_due_date to next.
	// A nil next marks the schedule completed and unsets next_due_date.
	AdvanceNextDue(ctx context.Context, id string, executedDue time.Time, next *time.Time, postingID *string) error

	SetStatus(ctx context.Context, id string, status Status) error
}

package bill

import (
	"context"
	"time"
)

// Repository defines the interface for bill data access
type Repository interface {
	Create(ctx context.Context, params CreateParams) (*Bill, error)
	GetByID(ctx context.Context, id string) (*Bill, error)
	ListByUserID(ctx context.Context, userID int64) ([]*Bill, error)

	// ListUnpaidDue returns unpaid bills with due_date <= asOf, ordered by
	// due date ascending then id ascending.
	ListUnpaidDue(ctx context.Context, asOf time.Time) ([]*Bill, error)

	// ListUnpaid returns all unpaid bills, used by the reminder scan.
	ListUnpaid(ctx context.Context) ([]*Bill, error)

	// MarkPaid sets is_paid and paid_date, but only on an unpaid bill.
	// Returns false when the bill was already paid (no row changed).
	MarkPaid(ctx context.Context, id string, paidDate time.Time) (bool, error)
}

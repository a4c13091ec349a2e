package bill

import (
	"errors"
	"time"

	"obligo/internal/domain/calendar"
)

// Domain errors
var (
	ErrBillNotFound = errors.New("bill not found")
	ErrForbidden    = errors.New("access forbidden")
	ErrInvalidInput = errors.New("invalid input")
)

// Bill is a single-shot obligation with a fixed due date. Unlike recurring
// schedules it is resolved once, by marking it paid.
type Bill struct {
	ID               string     `json:"id"`
	UserID           int64      `json:"userId"`
	WalletID         *string    `json:"walletId,omitempty"`
	ScheduleID       *string    `json:"scheduleId,omitempty"` // set when generated from a recurring schedule
	Name             string     `json:"name"`
	AmountMinor      int64      `json:"amountMinor"`
	DueDate          time.Time  `json:"dueDate"`
	ReminderLeadDays int        `json:"reminderLeadDays"`
	IsPaid           bool       `json:"isPaid"`
	PaidDate         *time.Time `json:"paidDate,omitempty"`
	CreatedAt        time.Time  `json:"createdAt"`
	UpdatedAt        time.Time  `json:"updatedAt"`
}

// IsOverdue reports whether the bill is unpaid and past its due date.
func (b *Bill) IsOverdue(asOf time.Time) bool {
	return !b.IsPaid && calendar.DateOnly(asOf).After(calendar.DateOnly(b.DueDate))
}

// ReminderDate is the date on which the "due soon" reminder becomes eligible.
func (b *Bill) ReminderDate() time.Time {
	return calendar.DateOnly(b.DueDate).AddDate(0, 0, -b.ReminderLeadDays)
}

// CreateParams contains parameters for creating a new bill
type CreateParams struct {
	UserID           int64
	WalletID         *string
	ScheduleID       *string
	Name             string
	AmountMinor      int64
	DueDate          time.Time
	ReminderLeadDays int
}

// Validate validates the create parameters
func (p CreateParams) Validate() error {
	if p.UserID <= 0 {
		return errors.New("valid user ID is required")
	}
	if p.Name == "" {
		return errors.New("bill name is required")
	}
	if p.AmountMinor <= 0 {
		return errors.New("amount must be positive")
	}
	if p.DueDate.IsZero() {
		return errors.New("due date is required")
	}
	if p.ReminderLeadDays < 0 {
		return errors.New("reminder lead days must not be negative")
	}
	return nil
}

package obligation

import (
	"time"

	"obligo/internal/domain/calendar"
)

// Obligation kinds
const (
	KindSchedule = "schedule"
	KindBill     = "bill"
	KindDebt     = "debt"
)

// Obligation is the uniform due-item projection over recurring schedules,
// bills, and debts. It is read-only; resolving an obligation goes through
// the owning domain service.
type Obligation struct {
	ID          string    `json:"id"`
	Kind        string    `json:"kind"`
	UserID      int64     `json:"userId"`
	Name        string    `json:"name"`
	AmountMinor int64     `json:"amountMinor"`
	DueDate     time.Time `json:"dueDate"`
	AutoCreate  bool      `json:"autoCreate"` // schedules only
}

// IsOverdue reports whether the obligation's due date has passed as of the
// given reference date.
func IsOverdue(o Obligation, asOf time.Time) bool {
	return calendar.DateOnly(asOf).After(calendar.DateOnly(o.DueDate))
}

// DaysUntil returns the number of days from asOf to the obligation's due
// date; negative when the obligation is overdue.
func DaysUntil(o Obligation, asOf time.Time) int {
	return calendar.DaysBetween(asOf, o.DueDate)
}

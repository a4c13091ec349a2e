package schedule

import (
	"errors"
	"time"

	"obligo/internal/domain/calendar"
	"obligo/internal/domain/wallet"
)

// Status is the lifecycle state of a recurring schedule. Paused is
// user-controlled and reversible; Completed is terminal and only ever set by
// the execute/skip calendar step once no further occurrence exists.
type Status string

const (
	StatusActive    Status = "active"
	StatusPaused    Status = "paused"
	StatusCompleted Status = "completed"
)

// Domain errors
var (
	ErrScheduleNotFound = errors.New("schedule not found")
	ErrScheduleNotDue   = errors.New("schedule is not due")
	ErrScheduleInactive = errors.New("schedule is not active")
	ErrScheduleConflict = errors.New("schedule changed concurrently")
	ErrForbidden        = errors.New("access forbidden")
	ErrInvalidInput     = errors.New("invalid input")
)

// RecurringSchedule is a periodic obligation that posts a transaction to a
// wallet each time it falls due. NextDueDate and LastExecutedDueDate together
// carry the idempotency contract: an execution for a given due date happens
// exactly once, no matter how many callers race for it.
type RecurringSchedule struct {
	ID          string  `json:"id"`
	UserID      int64   `json:"userId"`
	WalletID    string  `json:"walletId"`
	AmountMinor int64   `json:"amountMinor"`
	Direction   string  `json:"direction"` // expense or income
	Category    string  `json:"category"`
	Frequency   string  `json:"frequency"` // daily, weekly, monthly, yearly
	Description string  `json:"description"`
	AutoCreate  bool    `json:"autoCreate"`
	Status      Status  `json:"status"`

	StartDate   time.Time  `json:"startDate"`
	EndDate     *time.Time `json:"endDate,omitempty"`
	NextDueDate *time.Time `json:"nextDueDate,omitempty"` // nil once completed

	// LastExecutedDueDate is the most recent due date that was executed or
	// skipped; LastPostingID references the wallet posting it produced
	// (nil when the date was skipped).
	LastExecutedDueDate *time.Time `json:"lastExecutedDueDate,omitempty"`
	LastPostingID       *string    `json:"lastPostingId,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// IsDue reports whether the schedule has an occurrence on or before asOf.
func (s *RecurringSchedule) IsDue(asOf time.Time) bool {
	return s.Status == StatusActive && s.NextDueDate != nil &&
		!s.NextDueDate.After(calendar.DateOnly(asOf))
}

// CreateParams contains parameters for creating a new recurring schedule
type CreateParams struct {
	UserID      int64
	WalletID    string
	AmountMinor int64
	Direction   string
	Category    string
	Frequency   string
	Description string
	AutoCreate  bool
	StartDate   time.Time
	EndDate     *time.Time
	NextDueDate *time.Time // defaults to StartDate
}

// Validate validates the create parameters
func (p CreateParams) Validate() error {
	if p.UserID <= 0 {
		return errors.New("valid user ID is required")
	}
	if p.WalletID == "" {
		return errors.New("wallet ID is required")
	}
	if p.AmountMinor <= 0 {
		return errors.New("amount must be positive")
	}
	if !wallet.IsValidDirection(p.Direction) {
		return wallet.ErrInvalidDirection
	}
	if !calendar.IsValidFrequency(p.Frequency) {
		return calendar.ErrInvalidFrequency
	}
	if p.StartDate.IsZero() {
		return errors.New("start date is required")
	}
	if p.EndDate != nil && p.EndDate.Before(p.StartDate) {
		return errors.New("end date must not be before start date")
	}
	if p.NextDueDate != nil {
		if p.NextDueDate.Before(calendar.DateOnly(p.StartDate)) {
			return errors.New("next due date must not be before start date")
		}
		if p.EndDate != nil && p.NextDueDate.After(calendar.DateOnly(*p.EndDate)) {
			return errors.New("next due date must not be after end date")
		}
	}
	return nil
}

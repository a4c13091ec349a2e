package debt

import (
	"errors"
	"time"

	"obligo/internal/domain/calendar"
)

// Debt directions
const (
	DirectionOwing   = "owing"   // the user owes someone
	DirectionLending = "lending" // someone owes the user
)

var validDirections = map[string]struct{}{
	DirectionOwing:   {},
	DirectionLending: {},
}

// Domain errors
var (
	ErrDebtNotFound     = errors.New("debt not found")
	ErrDebtAlreadyPaid  = errors.New("debt is already paid off")
	ErrInvalidAmount    = errors.New("payment amount must be positive")
	ErrOverpayment      = errors.New("payment exceeds remaining amount")
	ErrInvalidDirection = errors.New("direction must be 'owing' or 'lending'")
	ErrForbidden        = errors.New("access forbidden")
)

// Debt tracks a principal being repaid over time through an append-only
// sequence of payments. RemainingMinor is derived from the payment sum and
// can never go below zero: the overpayment check and the payment insert are
// a single atomic unit in the repository.
type Debt struct {
	ID               string     `json:"id"`
	UserID           int64      `json:"userId"`
	Counterparty     string     `json:"counterparty"`
	Direction        string     `json:"direction"` // owing or lending
	TotalMinor       int64      `json:"totalMinor"`
	RemainingMinor   int64      `json:"remainingMinor"`
	InterestRateBps  int64      `json:"interestRateBps"` // annual rate in basis points, informational
	StartDate        time.Time  `json:"startDate"`
	DueDate          *time.Time `json:"dueDate,omitempty"`
	Frequency        *string    `json:"frequency,omitempty"` // optional repayment cadence
	NextPaymentDate  *time.Time `json:"nextPaymentDate,omitempty"`
	IsPaid           bool       `json:"isPaid"`
	Notes            string     `json:"notes"`
	CreatedAt        time.Time  `json:"createdAt"`
	UpdatedAt        time.Time  `json:"updatedAt"`
}

// PaidMinor returns the cumulative amount repaid so far.
func (d *Debt) PaidMinor() int64 {
	return d.TotalMinor - d.RemainingMinor
}

// ProgressPercentage returns repayment progress in percent, clamped to
// [0, 100] for display. The remaining-amount invariant makes clamping
// mathematically unnecessary; it guards display code anyway.
func (d *Debt) ProgressPercentage() int64 {
	if d.TotalMinor <= 0 {
		return 0
	}
	p := 100 * d.PaidMinor() / d.TotalMinor
	if p < 0 {
		return 0
	}
	if p > 100 {
		return 100
	}
	return p
}

// IsOverdue reports whether an unpaid debt is past its due date.
func (d *Debt) IsOverdue(asOf time.Time) bool {
	return !d.IsPaid && d.DueDate != nil &&
		calendar.DateOnly(asOf).After(calendar.DateOnly(*d.DueDate))
}

// Payment is an immutable ledger entry recording a partial repayment.
type Payment struct {
	ID          string    `json:"id"`
	DebtID      string    `json:"debtId"`
	AmountMinor int64     `json:"amountMinor"`
	PaymentDate time.Time `json:"paymentDate"`
	Notes       string    `json:"notes"`
	CreatedAt   time.Time `json:"createdAt"`
}

// IsValidDirection checks if the provided direction is valid
func IsValidDirection(d string) bool {
	_, ok := validDirections[d]
	return ok
}

// CreateParams contains parameters for creating a new debt
type CreateParams struct {
	UserID          int64
	Counterparty    string
	Direction       string
	TotalMinor      int64
	InterestRateBps int64
	StartDate       time.Time
	DueDate         *time.Time
	Frequency       *string
	NextPaymentDate *time.Time
	Notes           string
}

// Validate validates the create parameters
func (p CreateParams) Validate() error {
	if p.UserID <= 0 {
		return errors.New("valid user ID is required")
	}
	if p.Counterparty == "" {
		return errors.New("counterparty is required")
	}
	if !IsValidDirection(p.Direction) {
		return ErrInvalidDirection
	}
	if p.TotalMinor <= 0 {
		return errors.New("total amount must be positive")
	}
	if p.InterestRateBps < 0 {
		return errors.New("interest rate must not be negative")
	}
	if p.StartDate.IsZero() {
		return errors.New("start date is required")
	}
	if p.DueDate != nil && p.DueDate.Before(p.StartDate) {
		return errors.New("due date must not be before start date")
	}
	if p.Frequency != nil && !calendar.IsValidFrequency(*p.Frequency) {
		return calendar.ErrInvalidFrequency
	}
	return nil
}

// RecordPaymentParams contains parameters for recording a repayment
type RecordPaymentParams struct {
	DebtID      string
	UserID      int64
	AmountMinor int64
	PaymentDate time.Time
	Notes       string
}

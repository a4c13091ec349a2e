package debt

import (
	"context"
	"errors"
	"log"
	"time"

	"obligo/internal/domain/calendar"
)

// Service contains the repayment-tracker logic for debts
type Service struct {
	repo Repository
}

// NewService creates a new debt service
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// CreateDebt creates a new debt with business validation
func (s *Service) CreateDebt(ctx context.Context, params CreateParams) (*Debt, error) {
	params.StartDate = calendar.DateOnly(params.StartDate)
	if params.DueDate != nil {
		d := calendar.DateOnly(*params.DueDate)
		params.DueDate = &d
	}
	if params.Frequency != nil && params.NextPaymentDate == nil {
		// A repayment cadence without an anchor starts at the start date.
		params.NextPaymentDate = &params.StartDate
	}
	if params.NextPaymentDate != nil {
		n := calendar.DateOnly(*params.NextPaymentDate)
		params.NextPaymentDate = &n
	}

	if err := params.Validate(); err != nil {
		return nil, err
	}
	return s.repo.Create(ctx, params)
}

// GetDebt retrieves a debt by ID and verifies user ownership
func (s *Service) GetDebt(ctx context.Context, debtID string, userID int64) (*Debt, error) {
	d, err := s.repo.GetByID(ctx, debtID)
	if err != nil {
		return nil, err
	}
	if d == nil {
		return nil, ErrDebtNotFound
	}
	if d.UserID != userID {
		return nil, ErrForbidden
	}
	return d, nil
}

// ListDebtsByUserID retrieves all debts for a specific user
func (s *Service) ListDebtsByUserID(ctx context.Context, userID int64) ([]*Debt, error) {
	if userID <= 0 {
		return nil, errors.New("valid user ID is required")
	}
	return s.repo.ListByUserID(ctx, userID)
}

// ListPayments returns the append-only payment history for a debt
func (s *Service) ListPayments(ctx context.Context, debtID string, userID int64) ([]*Payment, error) {
	if _, err := s.GetDebt(ctx, debtID, userID); err != nil {
		return nil, err
	}
	return s.repo.ListPayments(ctx, debtID)
}

// RecordPayment appends a repayment against the debt's principal. It rejects
// non-positive amounts and anything exceeding the remaining amount; the
// overpayment check is atomic with the insert, so concurrent submissions on
// the same debt cannot jointly exceed the total. When the remaining amount
// reaches zero the debt becomes paid, a terminal state that accepts no
// further payments.
func (s *Service) RecordPayment(ctx context.Context, params RecordPaymentParams) (*Debt, error) {
	if params.AmountMinor <= 0 {
		return nil, ErrInvalidAmount
	}
	if params.PaymentDate.IsZero() {
		return nil, errors.New("payment date is required")
	}

	d, err := s.GetDebt(ctx, params.DebtID, params.UserID)
	if err != nil {
		return nil, err
	}
	if d.IsPaid {
		return nil, ErrDebtAlreadyPaid
	}

	paymentDate := calendar.DateOnly(params.PaymentDate)
	updated, _, err := s.repo.AddPayment(ctx, params.DebtID, params.AmountMinor, paymentDate, params.Notes)
	if err != nil {
		return nil, err
	}

	s.advanceNextPayment(ctx, updated)

	return updated, nil
}

// advanceNextPayment moves the repayment cadence forward after a recorded
// payment. Failures here do not fail the payment; the cadence is advisory.
func (s *Service) advanceNextPayment(ctx context.Context, d *Debt) {
	if d.Frequency == nil || d.NextPaymentDate == nil {
		return
	}

	var next *time.Time
	if !d.IsPaid {
		if n, ok := calendar.NextOccurrence(*d.NextPaymentDate, *d.Frequency, d.DueDate); ok {
			next = &n
		}
	}

	if err := s.repo.SetNextPaymentDate(ctx, d.ID, next); err != nil {
		log.Printf("Failed to advance next payment date for debt %s: %v", d.ID, err)
		return
	}
	d.NextPaymentDate = next
}

package bill

import (
	"context"
	"errors"
	"fmt"
	"time"

	"obligo/internal/domain/calendar"
)

// Service contains the business logic for bill operations
type Service struct {
	repo Repository
}

// NewService creates a new bill service
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// CreateBill creates a new bill with business validation
func (s *Service) CreateBill(ctx context.Context, params CreateParams) (*Bill, error) {
	params.DueDate = calendar.DateOnly(params.DueDate)
	if err := params.Validate(); err != nil {
		return nil, err
	}
	return s.repo.Create(ctx, params)
}

// GetBill retrieves a bill by ID and verifies user ownership
func (s *Service) GetBill(ctx context.Context, billID string, userID int64) (*Bill, error) {
	b, err := s.repo.GetByID(ctx, billID)
	if err != nil {
		return nil, err
	}
	if b == nil {
		return nil, ErrBillNotFound
	}
	if b.UserID != userID {
		return nil, ErrForbidden
	}
	return b, nil
}

// ListBillsByUserID retrieves all bills for a specific user
func (s *Service) ListBillsByUserID(ctx context.Context, userID int64) ([]*Bill, error) {
	if userID <= 0 {
		return nil, errors.New("valid user ID is required")
	}
	return s.repo.ListByUserID(ctx, userID)
}

// MarkPaid marks a bill as paid on the given date. Marking an already-paid
// bill again is a no-op that returns the existing record rather than an
// error, since the action is user-retriable.
func (s *Service) MarkPaid(ctx context.Context, billID string, userID int64, paidDate time.Time) (*Bill, error) {
	b, err := s.GetBill(ctx, billID, userID)
	if err != nil {
		return nil, err
	}

	if b.IsPaid {
		return b, nil
	}

	paidDate = calendar.DateOnly(paidDate)
	if paidDate.Before(calendar.DateOnly(b.CreatedAt)) {
		return nil, fmt.Errorf("%w: paid date precedes bill creation", ErrInvalidInput)
	}

	changed, err := s.repo.MarkPaid(ctx, billID, paidDate)
	if err != nil {
		return nil, err
	}
	if !changed {
		// A concurrent caller paid it first; the stored record wins.
		return s.GetBill(ctx, billID, userID)
	}

	b.IsPaid = true
	b.PaidDate = &paidDate
	return b, nil
}

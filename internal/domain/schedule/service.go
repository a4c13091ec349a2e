package schedule

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"obligo/internal/domain/calendar"
	"obligo/internal/domain/wallet"
)

// PostingSource looks up previously created postings so an idempotent
// re-execution can return the original reference.
type PostingSource interface {
	GetPosting(ctx context.Context, id string) (*wallet.Posting, error)
}

// ExecutionResult is the outcome of an Execute call.
type ExecutionResult struct {
	Schedule *RecurringSchedule `json:"schedule"`
	Posting  *wallet.Posting    `json:"posting,omitempty"`

	// AlreadyExecuted is true when the due date had been processed before
	// this call and no new posting was created.
	AlreadyExecuted bool `json:"alreadyExecuted"`
}

// Service contains the execution-engine logic for recurring schedules
type Service struct {
	repo     Repository
	ledger   wallet.Ledger
	postings PostingSource
}

// NewService creates a new schedule service
func NewService(repo Repository, ledger wallet.Ledger, postings PostingSource) *Service {
	return &Service{repo: repo, ledger: ledger, postings: postings}
}

// CreateSchedule creates a new recurring schedule with business validation.
// The first due date defaults to the start date.
func (s *Service) CreateSchedule(ctx context.Context, params CreateParams) (*RecurringSchedule, error) {
	params.StartDate = calendar.DateOnly(params.StartDate)
	if params.EndDate != nil {
		e := calendar.DateOnly(*params.EndDate)
		params.EndDate = &e
	}
	if params.NextDueDate == nil {
		params.NextDueDate = &params.StartDate
	} else {
		n := calendar.DateOnly(*params.NextDueDate)
		params.NextDueDate = &n
	}

	if err := params.Validate(); err != nil {
		return nil, err
	}

	return s.repo.Create(ctx, params)
}

// GetSchedule retrieves a schedule by ID and verifies user ownership
func (s *Service) GetSchedule(ctx context.Context, scheduleID string, userID int64) (*RecurringSchedule, error) {
	sched, err := s.repo.GetByID(ctx, scheduleID)
	if err != nil {
		return nil, err
	}
	if sched == nil {
		return nil, ErrScheduleNotFound
	}
	if sched.UserID != userID {
		return nil, ErrForbidden
	}
	return sched, nil
}

// ListSchedulesByUserID retrieves all schedules for a specific user
func (s *Service) ListSchedulesByUserID(ctx context.Context, userID int64) ([]*RecurringSchedule, error) {
	if userID <= 0 {
		return nil, errors.New("valid user ID is required")
	}
	return s.repo.ListByUserID(ctx, userID)
}

// ListDueForSweep returns the active auto-create schedules due on or before
// asOf, the set the periodic sweep executes.
func (s *Service) ListDueForSweep(ctx context.Context, asOf time.Time) ([]*RecurringSchedule, error) {
	return s.repo.ListDue(ctx, asOf, true)
}

// Execute applies the schedule's due event as of the given reference date:
// posts the transaction to the wallet ledger, records the idempotency marker,
// and advances the next due date. Executing the same due date twice posts
// exactly once; the repeat call is a no-op returning the original posting
// with AlreadyExecuted set. A schedule whose next due date lies beyond asOf
// is never fired early.
//
// If the wallet posting fails the claim is released and the due date is left
// unchanged, so a transient downstream failure is safely retryable.
func (s *Service) Execute(ctx context.Context, scheduleID string, asOf time.Time) (*ExecutionResult, error) {
	sched, due, err := s.loadForAction(ctx, scheduleID)
	if err != nil {
		return nil, err
	}

	// Fast path: this due date was already processed.
	if markerMatches(sched, due) {
		return s.alreadyExecuted(ctx, sched)
	}

	if due.After(calendar.DateOnly(asOf)) {
		// The current due date is in the future. If an earlier date was
		// already executed this is the caller retrying: idempotent no-op.
		if sched.LastExecutedDueDate != nil {
			return s.alreadyExecuted(ctx, sched)
		}
		return nil, ErrScheduleNotDue
	}

	claimed, err := s.repo.ClaimDueDate(ctx, scheduleID, due)
	if err != nil {
		return nil, fmt.Errorf("failed to claim due date: %w", err)
	}
	if !claimed {
		// Another caller won the race. Reload to distinguish a completed
		// concurrent execution from an unrelated state change.
		reloaded, err := s.repo.GetByID(ctx, scheduleID)
		if err != nil {
			return nil, err
		}
		if reloaded != nil && markerMatches(reloaded, due) {
			return s.alreadyExecuted(ctx, reloaded)
		}
		return nil, ErrScheduleConflict
	}

	prevMarker := sched.LastExecutedDueDate

	posting, err := s.ledger.Post(ctx, sched.WalletID, sched.AmountMinor, sched.Direction, sched.Description)
	if err != nil {
		// The due date must not advance on a failed posting. Release the
		// claim so the next sweep or a manual retry picks it up again.
		if relErr := s.repo.ReleaseDueDate(ctx, scheduleID, due, prevMarker); relErr != nil {
			log.Printf("Failed to release due date claim for schedule %s: %v", scheduleID, relErr)
		}
		return nil, fmt.Errorf("%w: %v", wallet.ErrPostingFailed, err)
	}

	if err := s.advance(ctx, sched, due, &posting.ID); err != nil {
		return nil, err
	}

	updated, err := s.repo.GetByID(ctx, scheduleID)
	if err != nil {
		return nil, err
	}

	return &ExecutionResult{Schedule: updated, Posting: posting}, nil
}

// Skip advances the schedule past its current due date without posting a
// transaction. The skipped date is recorded in the idempotency marker so it
// cannot be picked up again by the sweep.
func (s *Service) Skip(ctx context.Context, scheduleID string) error {
	sched, due, err := s.loadForAction(ctx, scheduleID)
	if err != nil {
		return err
	}

	if markerMatches(sched, due) {
		return ErrScheduleConflict
	}

	claimed, err := s.repo.ClaimDueDate(ctx, scheduleID, due)
	if err != nil {
		return fmt.Errorf("failed to claim due date: %w", err)
	}
	if !claimed {
		return ErrScheduleConflict
	}

	return s.advance(ctx, sched, due, nil)
}

// Pause suspends an active schedule. Paused schedules reject Execute and
// Skip until reactivated.
func (s *Service) Pause(ctx context.Context, scheduleID string, userID int64) error {
	sched, err := s.GetSchedule(ctx, scheduleID, userID)
	if err != nil {
		return err
	}
	if sched.Status != StatusActive {
		return ErrScheduleInactive
	}
	return s.repo.SetStatus(ctx, scheduleID, StatusPaused)
}

// Reactivate resumes a paused schedule. Completed schedules are terminal; a
// paused schedule past its end date stays paused until the caller decides,
// so reactivating it simply lets the next execute/skip step complete it.
func (s *Service) Reactivate(ctx context.Context, scheduleID string, userID int64) error {
	sched, err := s.GetSchedule(ctx, scheduleID, userID)
	if err != nil {
		return err
	}
	if sched.Status != StatusPaused {
		return ErrScheduleInactive
	}
	return s.repo.SetStatus(ctx, scheduleID, StatusActive)
}

// loadForAction loads a schedule and checks it can accept execute/skip.
func (s *Service) loadForAction(ctx context.Context, scheduleID string) (*RecurringSchedule, time.Time, error) {
	sched, err := s.repo.GetByID(ctx, scheduleID)
	if err != nil {
		return nil, time.Time{}, err
	}
	if sched == nil {
		return nil, time.Time{}, ErrScheduleNotFound
	}
	if sched.Status != StatusActive {
		return nil, time.Time{}, ErrScheduleInactive
	}
	if sched.NextDueDate == nil {
		return nil, time.Time{}, ErrScheduleInactive
	}
	return sched, *sched.NextDueDate, nil
}

// advance moves the schedule past an executed or skipped due date. When the
// calendar has no further occurrence the schedule transitions to Completed
// and the next due date is unset.
func (s *Service) advance(ctx context.Context, sched *RecurringSchedule, due time.Time, postingID *string) error {
	next, ok := calendar.NextOccurrence(due, sched.Frequency, sched.EndDate)
	if !ok {
		return s.repo.AdvanceNextDue(ctx, sched.ID, due, nil, postingID)
	}
	return s.repo.AdvanceNextDue(ctx, sched.ID, due, &next, postingID)
}

// alreadyExecuted builds the idempotent no-op result for a processed due
// date, resolving the original posting reference when one exists (skipped
// dates have none).
func (s *Service) alreadyExecuted(ctx context.Context, sched *RecurringSchedule) (*ExecutionResult, error) {
	result := &ExecutionResult{Schedule: sched, AlreadyExecuted: true}
	if sched.LastPostingID != nil {
		posting, err := s.postings.GetPosting(ctx, *sched.LastPostingID)
		if err != nil {
			log.Printf("Failed to load posting %s for schedule %s: %v", *sched.LastPostingID, sched.ID, err)
		} else {
			result.Posting = posting
		}
	}
	return result, nil
}

func markerMatches(sched *RecurringSchedule, due time.Time) bool {
	return sched.LastExecutedDueDate != nil && sched.LastExecutedDueDate.Equal(due)
}

package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"obligo/internal/domain/schedule"
)

const scheduleColumns = `id, user_id, wallet_id, amount_minor, direction, category, frequency,
	       description, auto_create, status, start_date, end_date, next_due_date,
	       last_executed_due_date, last_posting_id, created_at, updated_at`

type ScheduleRepository struct {
	db *DB
}

func NewScheduleRepository(db *DB) *ScheduleRepository {
	return &ScheduleRepository{db: db}
}

func (r *ScheduleRepository) Create(ctx context.Context, params schedule.CreateParams) (*schedule.RecurringSchedule, error) {
	query := `
		INSERT INTO recurring_schedules (id, user_id, wallet_id, amount_minor, direction, category,
		                                 frequency, description, auto_create, status, start_date,
		                                 end_date, next_due_date)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING ` + scheduleColumns

	row := r.db.QueryRowContext(
		ctx, query,
		uuid.NewString(), params.UserID, params.WalletID, params.AmountMinor, params.Direction,
		params.Category, params.Frequency, params.Description, params.AutoCreate,
		schedule.StatusActive, params.StartDate, params.EndDate, params.NextDueDate,
	)

	s, err := scanSchedule(row)
	if err != nil {
		return nil, fmt.Errorf("failed to create schedule: %w", err)
	}
	return s, nil
}

func (r *ScheduleRepository) GetByID(ctx context.Context, id string) (*schedule.RecurringSchedule, error) {
	query := `SELECT ` + scheduleColumns + ` FROM recurring_schedules WHERE id = $1`

	s, err := scanSchedule(r.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get schedule: %w", err)
	}
	return s, nil
}

func (r *ScheduleRepository) ListByUserID(ctx context.Context, userID int64) ([]*schedule.RecurringSchedule, error) {
	query := `
		SELECT ` + scheduleColumns + `
		FROM recurring_schedules
		WHERE user_id = $1
		ORDER BY created_at DESC, id
	`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list schedules: %w", err)
	}
	defer rows.Close()

	return scanSchedules(rows)
}

func (r *ScheduleRepository) ListDue(ctx context.Context, asOf time.Time, autoCreateOnly bool) ([]*schedule.RecurringSchedule, error) {
	query := `
		SELECT ` + scheduleColumns + `
		FROM recurring_schedules
		WHERE status = 'active'
		  AND next_due_date IS NOT NULL
		  AND next_due_date <= $1
		  AND ($2 = false OR auto_create = true)
		ORDER BY next_due_date ASC, id ASC
	`

	rows, err := r.db.QueryContext(ctx, query, asOf, autoCreateOnly)
	if err != nil {
		return nil, fmt.Errorf("failed to list due schedules: %w", err)
	}
	defer rows.Close()

	return scanSchedules(rows)
}

// ClaimDueDate is the compare-and-swap serialization point for execute/skip:
// the update matches only while next_due_date still equals the due date and
// the date has not been claimed, so exactly one concurrent caller gets a row.
func (r *ScheduleRepository) ClaimDueDate(ctx context.Context, id string, due time.Time) (bool, error) {
	query := `
		UPDATE recurring_schedules
		SET last_executed_due_date = $2, updated_at = NOW()
		WHERE id = $1
		  AND status = 'active'
		  AND next_due_date = $2
		  AND (last_executed_due_date IS NULL OR last_executed_due_date <> $2)
	`

	result, err := r.db.ExecContext(ctx, query, id, due)
	if err != nil {
		return false, fmt.Errorf("failed to claim due date: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read claim result: %w", err)
	}
	return affected == 1, nil
}

func (r *ScheduleRepository) ReleaseDueDate(ctx context.Context, id string, due time.Time, prev *time.Time) error {
	query := `
		UPDATE recurring_schedules
		SET last_executed_due_date = $3, updated_at = NOW()
		WHERE id = $1 AND last_executed_due_date = $2
	`

	if _, err := r.db.ExecContext(ctx, query, id, due, prev); err != nil {
		return fmt.Errorf("failed to release due date: %w", err)
	}
	return nil
}

func (r *ScheduleRepository) AdvanceNextDue(ctx context.Context, id string, executedDue time.Time, next *time.Time, postingID *string) error {
	query := `
		UPDATE recurring_schedules
		SET last_executed_due_date = $2,
		    last_posting_id = $4,
		    next_due_date = $3,
		    status = CASE WHEN $3::date IS NULL THEN 'completed' ELSE status END,
		    updated_at = NOW()
		WHERE id = $1
	`

	result, err := r.db.ExecContext(ctx, query, id, executedDue, next, postingID)
	if err != nil {
		return fmt.Errorf("failed to advance due date: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read advance result: %w", err)
	}
	if affected == 0 {
		return schedule.ErrScheduleNotFound
	}
	return nil
}

func (r *ScheduleRepository) SetStatus(ctx context.Context, id string, status schedule.Status) error {
	query := `UPDATE recurring_schedules SET status = $2, updated_at = NOW() WHERE id = $1`

	result, err := r.db.ExecContext(ctx, query, id, status)
	if err != nil {
		return fmt.Errorf("failed to set schedule status: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read status result: %w", err)
	}
	if affected == 0 {
		return schedule.ErrScheduleNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSchedule(row rowScanner) (*schedule.RecurringSchedule, error) {
	var s schedule.RecurringSchedule
	var endDate, nextDue, lastExecuted sql.NullTime
	var lastPostingID sql.NullString

	err := row.Scan(
		&s.ID, &s.UserID, &s.WalletID, &s.AmountMinor, &s.Direction, &s.Category,
		&s.Frequency, &s.Description, &s.AutoCreate, &s.Status, &s.StartDate,
		&endDate, &nextDue, &lastExecuted, &lastPostingID, &s.CreatedAt, &s.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if endDate.Valid {
		t := endDate.Time.UTC()
		s.EndDate = &t
	}
	if nextDue.Valid {
		t := nextDue.Time.UTC()
		s.NextDueDate = &t
	}
	if lastExecuted.Valid {
		t := lastExecuted.Time.UTC()
		s.LastExecutedDueDate = &t
	}
	if lastPostingID.Valid {
		s.LastPostingID = &lastPostingID.String
	}

	return &s, nil
}

func scanSchedules(rows *sql.Rows) ([]*schedule.RecurringSchedule, error) {
	var schedules []*schedule.RecurringSchedule
	for rows.Next() {
		s, err := scanSchedule(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan schedule: %w", err)
		}
		schedules = append(schedules, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate schedules: %w", err)
	}
	return schedules, nil
}

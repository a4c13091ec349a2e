package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"obligo/internal/domain/bill"
)

const billColumns = `id, user_id, wallet_id, schedule_id, name, amount_minor, due_date,
	       reminder_lead_days, is_paid, paid_date, created_at, updated_at`

type BillRepository struct {
	db *DB
}

func NewBillRepository(db *DB) *BillRepository {
	return &BillRepository{db: db}
}

func (r *BillRepository) Create(ctx context.Context, params bill.CreateParams) (*bill.Bill, error) {
	query := `
		INSERT INTO bills (id, user_id, wallet_id, schedule_id, name, amount_minor, due_date, reminder_lead_days)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING ` + billColumns

	row := r.db.QueryRowContext(
		ctx, query,
		uuid.NewString(), params.UserID, params.WalletID, params.ScheduleID,
		params.Name, params.AmountMinor, params.DueDate, params.ReminderLeadDays,
	)

	b, err := scanBill(row)
	if err != nil {
		return nil, fmt.Errorf("failed to create bill: %w", err)
	}
	return b, nil
}

func (r *BillRepository) GetByID(ctx context.Context, id string) (*bill.Bill, error) {
	query := `SELECT ` + billColumns + ` FROM bills WHERE id = $1`

	b, err := scanBill(r.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get bill: %w", err)
	}
	return b, nil
}

func (r *BillRepository) ListByUserID(ctx context.Context, userID int64) ([]*bill.Bill, error) {
	query := `
		SELECT ` + billColumns + `
		FROM bills
		WHERE user_id = $1
		ORDER BY due_date ASC, id ASC
	`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list bills: %w", err)
	}
	defer rows.Close()

	return scanBills(rows)
}

func (r *BillRepository) ListUnpaidDue(ctx context.Context, asOf time.Time) ([]*bill.Bill, error) {
	query := `
		SELECT ` + billColumns + `
		FROM bills
		WHERE is_paid = false AND due_date <= $1
		ORDER BY due_date ASC, id ASC
	`

	rows, err := r.db.QueryContext(ctx, query, asOf)
	if err != nil {
		return nil, fmt.Errorf("failed to list due bills: %w", err)
	}
	defer rows.Close()

	return scanBills(rows)
}

func (r *BillRepository) ListUnpaid(ctx context.Context) ([]*bill.Bill, error) {
	query := `
		SELECT ` + billColumns + `
		FROM bills
		WHERE is_paid = false
		ORDER BY due_date ASC, id ASC
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list unpaid bills: %w", err)
	}
	defer rows.Close()

	return scanBills(rows)
}

// MarkPaid flips an unpaid bill to paid. The is_paid guard in the predicate
// makes the operation idempotent under concurrent submissions: only one
// caller changes a row.
func (r *BillRepository) MarkPaid(ctx context.Context, id string, paidDate time.Time) (bool, error) {
	query := `
		UPDATE bills
		SET is_paid = true, paid_date = $2, updated_at = NOW()
		WHERE id = $1 AND is_paid = false
	`

	result, err := r.db.ExecContext(ctx, query, id, paidDate)
	if err != nil {
		return false, fmt.Errorf("failed to mark bill paid: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read mark-paid result: %w", err)
	}
	return affected == 1, nil
}

func scanBill(row rowScanner) (*bill.Bill, error) {
	var b bill.Bill
	var walletID, scheduleID sql.NullString
	var paidDate sql.NullTime

	err := row.Scan(
		&b.ID, &b.UserID, &walletID, &scheduleID, &b.Name, &b.AmountMinor,
		&b.DueDate, &b.ReminderLeadDays, &b.IsPaid, &paidDate, &b.CreatedAt, &b.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if walletID.Valid {
		b.WalletID = &walletID.String
	}
	if scheduleID.Valid {
		b.ScheduleID = &scheduleID.String
	}
	if paidDate.Valid {
		t := paidDate.Time.UTC()
		b.PaidDate = &t
	}

	return &b, nil
}

func scanBills(rows *sql.Rows) ([]*bill.Bill, error) {
	var bills []*bill.Bill
	for rows.Next() {
		b, err := scanBill(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan bill: %w", err)
		}
		bills = append(bills, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate bills: %w", err)
	}
	return bills, nil
}

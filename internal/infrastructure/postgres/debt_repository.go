package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"obligo/internal/domain/debt"
)

// DebtRepository implements debt.Repository backed by Postgres.
type DebtRepository struct {
	db *DB
}

func NewDebtRepository(db *DB) *DebtRepository {
	return &DebtRepository{db: db}
}

var _ debt.Repository = (*DebtRepository)(nil)

const debtColumns = `id, user_id, counterparty, direction, total_minor, remaining_minor,
	interest_rate_bps, start_date, due_date, frequency, next_payment_date,
	is_paid, notes, created_at, updated_at`

func (r *DebtRepository) Create(ctx context.Context, params debt.CreateParams) (*debt.Debt, error) {
	d := &debt.Debt{
		ID:              uuid.NewString(),
		UserID:          params.UserID,
		Counterparty:    params.Counterparty,
		Direction:       params.Direction,
		TotalMinor:      params.TotalMinor,
		RemainingMinor:  params.TotalMinor,
		InterestRateBps: params.InterestRateBps,
		StartDate:       params.StartDate,
		DueDate:         params.DueDate,
		Frequency:       params.Frequency,
		NextPaymentDate: params.NextPaymentDate,
		Notes:           params.Notes,
	}

	query := `
		INSERT INTO debts (id, user_id, counterparty, direction, total_minor,
			remaining_minor, interest_rate_bps, start_date, due_date, frequency,
			next_payment_date, is_paid, notes)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, false, $12)
		RETURNING created_at, updated_at`

	err := r.db.QueryRowContext(ctx, query,
		d.ID, d.UserID, d.Counterparty, d.Direction, d.TotalMinor,
		d.RemainingMinor, d.InterestRateBps, d.StartDate, d.DueDate,
		d.Frequency, d.NextPaymentDate, d.Notes,
	).Scan(&d.CreatedAt, &d.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("creating debt: %w", err)
	}
	return d, nil
}

func (r *DebtRepository) GetByID(ctx context.Context, id string) (*debt.Debt, error) {
	query := `SELECT ` + debtColumns + ` FROM debts WHERE id = $1`
	d, err := scanDebt(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, debt.ErrDebtNotFound
		}
		return nil, fmt.Errorf("getting debt: %w", err)
	}
	return d, nil
}

func (r *DebtRepository) ListByUserID(ctx context.Context, userID int64) ([]*debt.Debt, error) {
	query := `SELECT ` + debtColumns + ` FROM debts WHERE user_id = $1 ORDER BY created_at DESC`
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("listing debts: %w", err)
	}
	defer rows.Close()
	return scanDebts(rows)
}

// ListUnpaidDue returns open debts whose next payment (or final due date,
// when no cadence is set) falls on or before asOf.
func (r *DebtRepository) ListUnpaidDue(ctx context.Context, asOf time.Time) ([]*debt.Debt, error) {
	query := `
		SELECT ` + debtColumns + `
		FROM debts
		WHERE is_paid = false
		  AND COALESCE(next_payment_date, due_date) <= $1
		ORDER BY COALESCE(next_payment_date, due_date) ASC, id ASC`

	rows, err := r.db.QueryContext(ctx, query, asOf)
	if err != nil {
		return nil, fmt.Errorf("listing due debts: %w", err)
	}
	defer rows.Close()
	return scanDebts(rows)
}

// AddPayment records a repayment against a debt. The overpayment check and the
// balance update happen under a row lock on the debt, so concurrent payments
// serialize and the remaining amount can never go negative.
func (r *DebtRepository) AddPayment(ctx context.Context, debtID string, amountMinor int64, paymentDate time.Time, notes string) (*debt.Debt, *debt.Payment, error) {
	var updated *debt.Debt
	var payment *debt.Payment

	err := r.db.WithinTx(ctx, func(tx *sql.Tx) error {
		var remaining int64
		var isPaid bool
		err := tx.QueryRowContext(ctx,
			`SELECT remaining_minor, is_paid FROM debts WHERE id = $1 FOR UPDATE`,
			debtID,
		).Scan(&remaining, &isPaid)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return debt.ErrDebtNotFound
			}
			return fmt.Errorf("locking debt: %w", err)
		}
		if isPaid {
			return debt.ErrDebtAlreadyPaid
		}
		if amountMinor > remaining {
			return debt.ErrOverpayment
		}

		p := &debt.Payment{
			ID:          uuid.NewString(),
			DebtID:      debtID,
			AmountMinor: amountMinor,
			PaymentDate: paymentDate,
			Notes:       notes,
		}
		err = tx.QueryRowContext(ctx,
			`INSERT INTO payments (id, debt_id, amount_minor, payment_date, notes)
			 VALUES ($1, $2, $3, $4, $5)
			 RETURNING created_at`,
			p.ID, p.DebtID, p.AmountMinor, p.PaymentDate, p.Notes,
		).Scan(&p.CreatedAt)
		if err != nil {
			return fmt.Errorf("inserting payment: %w", err)
		}

		newRemaining := remaining - amountMinor
		row := tx.QueryRowContext(ctx,
			`UPDATE debts
			 SET remaining_minor = $2, is_paid = $3, updated_at = NOW()
			 WHERE id = $1
			 RETURNING `+debtColumns,
			debtID, newRemaining, newRemaining == 0,
		)
		updated, err = scanDebt(row)
		if err != nil {
			return fmt.Errorf("updating debt balance: %w", err)
		}
		payment = p
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return updated, payment, nil
}

func (r *DebtRepository) ListPayments(ctx context.Context, debtID string) ([]*debt.Payment, error) {
	query := `
		SELECT id, debt_id, amount_minor, payment_date, notes, created_at
		FROM payments
		WHERE debt_id = $1
		ORDER BY payment_date ASC, created_at ASC`

	rows, err := r.db.QueryContext(ctx, query, debtID)
	if err != nil {
		return nil, fmt.Errorf("listing payments: %w", err)
	}
	defer rows.Close()

	var payments []*debt.Payment
	for rows.Next() {
		p := &debt.Payment{}
		if err := rows.Scan(&p.ID, &p.DebtID, &p.AmountMinor, &p.PaymentDate, &p.Notes, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning payment: %w", err)
		}
		payments = append(payments, p)
	}
	return payments, rows.Err()
}

func (r *DebtRepository) SetNextPaymentDate(ctx context.Context, debtID string, next *time.Time) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE debts SET next_payment_date = $2, updated_at = NOW() WHERE id = $1`,
		debtID, next,
	)
	if err != nil {
		return fmt.Errorf("setting next payment date: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking rows affected: %w", err)
	}
	if affected == 0 {
		return debt.ErrDebtNotFound
	}
	return nil
}

func scanDebt(row rowScanner) (*debt.Debt, error) {
	d := &debt.Debt{}
	var frequency, notes sql.NullString
	var dueDate, nextPayment sql.NullTime

	err := row.Scan(
		&d.ID, &d.UserID, &d.Counterparty, &d.Direction, &d.TotalMinor,
		&d.RemainingMinor, &d.InterestRateBps, &d.StartDate, &dueDate,
		&frequency, &nextPayment, &d.IsPaid, &notes, &d.CreatedAt, &d.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if notes.Valid {
		d.Notes = notes.String
	}
	if frequency.Valid {
		d.Frequency = &frequency.String
	}
	if dueDate.Valid {
		t := dueDate.Time
		d.DueDate = &t
	}
	if nextPayment.Valid {
		t := nextPayment.Time
		d.NextPaymentDate = &t
	}
	return d, nil
}

func scanDebts(rows *sql.Rows) ([]*debt.Debt, error) {
	var debts []*debt.Debt
	for rows.Next() {
		d, err := scanDebt(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning debt: %w", err)
		}
		debts = append(debts, d)
	}
	return debts, rows.Err()
}

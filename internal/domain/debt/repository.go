package debt

import (
	"context"
	"time"
)

// Repository defines the interface for debt and payment data access.
//
// AddPayment carries the core invariant: the overpayment check against the
// current payment sum and the insert of the new payment happen inside one
// atomic unit serialized per debt, so concurrent submissions cannot jointly
// overpay. The Postgres implementation locks the debt row; the in-memory
// fake used in tests holds a per-debt mutex.
type Repository interface {
	Create(ctx context.Context, params CreateParams) (*Debt, error)
	GetByID(ctx context.Context, id string) (*Debt, error)
	ListByUserID(ctx context.Context, userID int64) ([]*Debt, error)

	// ListUnpaidDue returns unpaid debts with next_payment_date or due_date
	// <= asOf, ordered by that date ascending then id ascending.
	ListUnpaidDue(ctx context.Context, asOf time.Time) ([]*Debt, error)

	// AddPayment validates amount <= remaining within the same atomic unit
	// that inserts the payment and updates the derived remaining amount.
	// Returns ErrOverpayment or ErrDebtAlreadyPaid without mutating state.
	AddPayment(ctx context.Context, debtID string, amountMinor int64, paymentDate time.Time, notes string) (*Debt, *Payment, error)

	ListPayments(ctx context.Context, debtID string) ([]*Payment, error)

	// SetNextPaymentDate moves the scheduled repayment date forward after a
	// recorded payment. A nil value clears it (cadence exhausted or paid).
	SetNextPaymentDate(ctx context.Context, debtID string, next *time.Time) error
}

package debt

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"
)

// fakeRepository is an in-memory Repository with the same serialization
// guarantee as the Postgres implementation: AddPayment validates and inserts
// under a single lock per debt.
type fakeRepository struct {
	mu       sync.Mutex
	debts    map[string]*Debt
	payments map[string][]*Payment
}

func newFakeRepository() *fakeRepository {
	return &fakeRepository{
		debts:    make(map[string]*Debt),
		payments: make(map[string][]*Payment),
	}
}

func (f *fakeRepository) put(d *Debt) {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *d
	f.debts[d.ID] = &cp
}

func (f *fakeRepository) Create(ctx context.Context, params CreateParams) (*Debt, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	d := &Debt{
		ID:              fmt.Sprintf("debt-%d", len(f.debts)+1),
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
	f.debts[d.ID] = d
	cp := *d
	return &cp, nil
}

func (f *fakeRepository) GetByID(ctx context.Context, id string) (*Debt, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	d, ok := f.debts[id]
	if !ok {
		return nil, nil
	}
	cp := *d
	return &cp, nil
}

func (f *fakeRepository) ListByUserID(ctx context.Context, userID int64) ([]*Debt, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*Debt
	for _, d := range f.debts {
		if d.UserID == userID {
			cp := *d
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (f *fakeRepository) ListUnpaidDue(ctx context.Context, asOf time.Time) ([]*Debt, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*Debt
	for _, d := range f.debts {
		if d.IsPaid {
			continue
		}
		due := d.NextPaymentDate
		if due == nil {
			due = d.DueDate
		}
		if due != nil && !due.After(asOf) {
			cp := *d
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (f *fakeRepository) AddPayment(ctx context.Context, debtID string, amountMinor int64, paymentDate time.Time, notes string) (*Debt, *Payment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	d, ok := f.debts[debtID]
	if !ok {
		return nil, nil, ErrDebtNotFound
	}
	if d.IsPaid {
		return nil, nil, ErrDebtAlreadyPaid
	}
	if amountMinor > d.RemainingMinor {
		return nil, nil, ErrOverpayment
	}

	p := &Payment{
		ID:          fmt.Sprintf("payment-%d", len(f.payments[debtID])+1),
		DebtID:      debtID,
		AmountMinor: amountMinor,
		PaymentDate: paymentDate,
		Notes:       notes,
	}
	f.payments[debtID] = append(f.payments[debtID], p)
	d.RemainingMinor -= amountMinor
	if d.RemainingMinor == 0 {
		d.IsPaid = true
	}

	dc, pc := *d, *p
	return &dc, &pc, nil
}

func (f *fakeRepository) ListPayments(ctx context.Context, debtID string) ([]*Payment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*Payment
	for _, p := range f.payments[debtID] {
		cp := *p
		out = append(out, &cp)
	}
	return out, nil
}

func (f *fakeRepository) SetNextPaymentDate(ctx context.Context, debtID string, next *time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	d, ok := f.debts[debtID]
	if !ok {
		return ErrDebtNotFound
	}
	d.NextPaymentDate = next
	return nil
}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func newTestDebt(repo *fakeRepository, total int64) *Debt {
	d := &Debt{
		ID:             "debt-1",
		UserID:         1,
		Counterparty:   "Alice",
		Direction:      DirectionOwing,
		TotalMinor:     total,
		RemainingMinor: total,
		StartDate:      date(2025, time.January, 1),
	}
	repo.put(d)
	return d
}

func TestRecordPaymentFullRepayment(t *testing.T) {
	ctx := context.Background()
	repo := newFakeRepository()
	svc := NewService(repo)

	newTestDebt(repo, 5_000_000)

	pay := func(amount int64) (*Debt, error) {
		return svc.RecordPayment(ctx, RecordPaymentParams{
			DebtID:      "debt-1",
			UserID:      1,
			AmountMinor: amount,
			PaymentDate: date(2025, time.February, 1),
		})
	}

	d, err := pay(2_000_000)
	if err != nil {
		t.Fatalf("first payment error = %v", err)
	}
	if d.RemainingMinor != 3_000_000 {
		t.Errorf("remaining = %d, want 3000000", d.RemainingMinor)
	}
	if d.ProgressPercentage() != 40 {
		t.Errorf("progress = %d, want 40", d.ProgressPercentage())
	}

	d, err = pay(3_000_000)
	if err != nil {
		t.Fatalf("second payment error = %v", err)
	}
	if d.RemainingMinor != 0 {
		t.Errorf("remaining = %d, want 0", d.RemainingMinor)
	}
	if !d.IsPaid {
		t.Error("debt should be paid after full repayment")
	}
	if d.ProgressPercentage() != 100 {
		t.Errorf("progress = %d, want 100", d.ProgressPercentage())
	}

	// Terminal state: any further positive payment is rejected.
	if _, err := pay(1); !errors.Is(err, ErrDebtAlreadyPaid) {
		t.Errorf("payment on paid debt error = %v, want ErrDebtAlreadyPaid", err)
	}
}

func TestRecordPaymentValidation(t *testing.T) {
	ctx := context.Background()
	repo := newFakeRepository()
	svc := NewService(repo)

	newTestDebt(repo, 100_000)

	tests := []struct {
		name    string
		params  RecordPaymentParams
		wantErr error
	}{
		{
			name:    "zero amount",
			params:  RecordPaymentParams{DebtID: "debt-1", UserID: 1, AmountMinor: 0, PaymentDate: date(2025, time.February, 1)},
			wantErr: ErrInvalidAmount,
		},
		{
			name:    "negative amount",
			params:  RecordPaymentParams{DebtID: "debt-1", UserID: 1, AmountMinor: -500, PaymentDate: date(2025, time.February, 1)},
			wantErr: ErrInvalidAmount,
		},
		{
			name:    "overpayment rejected not clamped",
			params:  RecordPaymentParams{DebtID: "debt-1", UserID: 1, AmountMinor: 100_001, PaymentDate: date(2025, time.February, 1)},
			wantErr: ErrOverpayment,
		},
		{
			name:    "unknown debt",
			params:  RecordPaymentParams{DebtID: "missing", UserID: 1, AmountMinor: 100, PaymentDate: date(2025, time.February, 1)},
			wantErr: ErrDebtNotFound,
		},
		{
			name:    "non-owner",
			params:  RecordPaymentParams{DebtID: "debt-1", UserID: 7, AmountMinor: 100, PaymentDate: date(2025, time.February, 1)},
			wantErr: ErrForbidden,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := svc.RecordPayment(ctx, tt.params); !errors.Is(err, tt.wantErr) {
				t.Errorf("RecordPayment() error = %v, want %v", err, tt.wantErr)
			}
		})
	}

	// No rejected operation may have mutated state.
	d, _ := repo.GetByID(ctx, "debt-1")
	if d.RemainingMinor != 100_000 {
		t.Errorf("remaining = %d, want untouched 100000", d.RemainingMinor)
	}
	payments, _ := repo.ListPayments(ctx, "debt-1")
	if len(payments) != 0 {
		t.Errorf("payments = %d, want 0", len(payments))
	}
}

func TestRecordPaymentConcurrentNoOverpayment(t *testing.T) {
	ctx := context.Background()
	repo := newFakeRepository()
	svc := NewService(repo)

	newTestDebt(repo, 1_000_000)

	// Ten concurrent payments of 300k against a 1M principal: at most three
	// can land.
	const callers = 10
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			svc.RecordPayment(ctx, RecordPaymentParams{
				DebtID:      "debt-1",
				UserID:      1,
				AmountMinor: 300_000,
				PaymentDate: date(2025, time.March, 1),
			})
		}()
	}
	wg.Wait()

	d, _ := repo.GetByID(ctx, "debt-1")
	payments, _ := repo.ListPayments(ctx, "debt-1")

	var sum int64
	for _, p := range payments {
		sum += p.AmountMinor
	}
	if sum > d.TotalMinor {
		t.Fatalf("payment sum %d exceeds total %d", sum, d.TotalMinor)
	}
	if len(payments) != 3 {
		t.Errorf("payments landed = %d, want 3", len(payments))
	}
	if d.RemainingMinor != 100_000 {
		t.Errorf("remaining = %d, want 100000", d.RemainingMinor)
	}
}

func TestRecordPaymentAdvancesCadence(t *testing.T) {
	ctx := context.Background()
	repo := newFakeRepository()
	svc := NewService(repo)

	freq := "monthly"
	next := date(2025, time.March, 31)
	d := &Debt{
		ID:              "debt-1",
		UserID:          1,
		Counterparty:    "Bank",
		Direction:       DirectionOwing,
		TotalMinor:      1_000_000,
		RemainingMinor:  1_000_000,
		StartDate:       date(2025, time.January, 1),
		Frequency:       &freq,
		NextPaymentDate: &next,
	}
	repo.put(d)

	updated, err := svc.RecordPayment(ctx, RecordPaymentParams{
		DebtID:      "debt-1",
		UserID:      1,
		AmountMinor: 100_000,
		PaymentDate: next,
	})
	if err != nil {
		t.Fatalf("RecordPayment() error = %v", err)
	}

	want := date(2025, time.April, 30) // month-end clip
	if updated.NextPaymentDate == nil || !updated.NextPaymentDate.Equal(want) {
		t.Errorf("next payment date = %v, want %v", updated.NextPaymentDate, want)
	}

	// Paying off clears the cadence.
	final, err := svc.RecordPayment(ctx, RecordPaymentParams{
		DebtID:      "debt-1",
		UserID:      1,
		AmountMinor: 900_000,
		PaymentDate: date(2025, time.April, 30),
	})
	if err != nil {
		t.Fatalf("final RecordPayment() error = %v", err)
	}
	if final.NextPaymentDate != nil {
		t.Errorf("next payment date after payoff = %v, want nil", final.NextPaymentDate)
	}
}

func TestProgressPercentageClamp(t *testing.T) {
	tests := []struct {
		name      string
		total     int64
		remaining int64
		want      int64
	}{
		{"zero total", 0, 0, 0},
		{"untouched", 1000, 1000, 0},
		{"partial", 1000, 250, 75},
		{"paid", 1000, 0, 100},
		{"integer division floors", 300, 100, 66},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := &Debt{TotalMinor: tt.total, RemainingMinor: tt.remaining}
			if got := d.ProgressPercentage(); got != tt.want {
				t.Errorf("ProgressPercentage() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestCreateDebtValidation(t *testing.T) {
	ctx := context.Background()
	svc := NewService(newFakeRepository())

	valid := CreateParams{
		UserID:       1,
		Counterparty: "Alice",
		Direction:    DirectionLending,
		TotalMinor:   500_000,
		StartDate:    date(2025, time.January, 1),
	}

	d, err := svc.CreateDebt(ctx, valid)
	if err != nil {
		t.Fatalf("CreateDebt() error = %v", err)
	}
	if d.RemainingMinor != d.TotalMinor {
		t.Errorf("remaining = %d, want total %d", d.RemainingMinor, d.TotalMinor)
	}

	tests := []struct {
		name   string
		mutate func(p *CreateParams)
	}{
		{"zero total", func(p *CreateParams) { p.TotalMinor = 0 }},
		{"bad direction", func(p *CreateParams) { p.Direction = "borrowing" }},
		{"missing counterparty", func(p *CreateParams) { p.Counterparty = "" }},
		{"negative interest", func(p *CreateParams) { p.InterestRateBps = -1 }},
		{"due before start", func(p *CreateParams) {
			due := date(2024, time.December, 1)
			p.DueDate = &due
		}},
		{"bad frequency", func(p *CreateParams) {
			f := "quarterly"
			p.Frequency = &f
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := valid
			tt.mutate(&p)
			if _, err := svc.CreateDebt(ctx, p); err == nil {
				t.Error("CreateDebt() expected validation error, got nil")
			}
		})
	}
}

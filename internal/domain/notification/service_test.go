package notification

import (
	"context"
	"sync"
	"testing"
	"time"

	"obligo/internal/domain/bill"
	"obligo/internal/domain/debt"
	"obligo/internal/domain/schedule"
)

// fakeRepo stores notifications keyed by obligation/type/due date, matching
// the Postgres CreateIfAbsent semantics.
type fakeRepo struct {
	mu     sync.Mutex
	stored []Notification
	tokens []*DeviceToken
}

func (f *fakeRepo) CreateIfAbsent(ctx context.Context, n Notification) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, existing := range f.stored {
		if existing.ObligationID == n.ObligationID && existing.Type == n.Type && existing.DueDate.Equal(n.DueDate) {
			return false, nil
		}
	}
	f.stored = append(f.stored, n)
	return true, nil
}

func (f *fakeRepo) ListByUserID(ctx context.Context, userID int64, limit, offset int) ([]*Notification, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*Notification
	for i := range f.stored {
		if f.stored[i].UserID == userID {
			out = append(out, &f.stored[i])
		}
	}
	return out, nil
}

func (f *fakeRepo) ListActiveTokens(ctx context.Context, userID int64) ([]*DeviceToken, error) {
	return f.tokens, nil
}

func (f *fakeRepo) RegisterToken(ctx context.Context, t *DeviceToken) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.tokens = append(f.tokens, t)
	return nil
}

type fakeMessenger struct {
	mu    sync.Mutex
	sends []string
}

func (f *fakeMessenger) Send(ctx context.Context, token, title, body string, data map[string]string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sends = append(f.sends, token)
	return nil
}

func (f *fakeMessenger) SendMulticast(ctx context.Context, tokens []string, title, body string, data map[string]string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sends = append(f.sends, tokens...)
	return nil
}

type stubScheduleRepo struct {
	schedule.Repository
	due []*schedule.RecurringSchedule
}

func (s *stubScheduleRepo) ListDue(ctx context.Context, asOf time.Time, autoCreateOnly bool) ([]*schedule.RecurringSchedule, error) {
	return s.due, nil
}

type stubBillRepo struct {
	bill.Repository
	unpaid []*bill.Bill
}

func (s *stubBillRepo) ListUnpaid(ctx context.Context) ([]*bill.Bill, error) {
	return s.unpaid, nil
}

type stubDebtRepo struct {
	debt.Repository
	due []*debt.Debt
}

func (s *stubDebtRepo) ListUnpaidDue(ctx context.Context, asOf time.Time) ([]*debt.Debt, error) {
	return s.due, nil
}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestScanAndEmit(t *testing.T) {
	ctx := context.Background()
	asOf := date(2025, time.April, 10)

	dueToday := date(2025, time.April, 10)
	overdue := date(2025, time.April, 5)

	scheds := &stubScheduleRepo{due: []*schedule.RecurringSchedule{
		{ID: "sched-1", UserID: 1, Description: "Rent", Status: schedule.StatusActive, NextDueDate: &dueToday},
		{ID: "sched-2", UserID: 1, Description: "Gym", Status: schedule.StatusActive, NextDueDate: &overdue},
	}}
	bills := &stubBillRepo{unpaid: []*bill.Bill{
		{ID: "bill-1", UserID: 1, Name: "Power", DueDate: date(2025, time.April, 12), ReminderLeadDays: 3},
		{ID: "bill-2", UserID: 1, Name: "Water", DueDate: overdue},
		{ID: "bill-3", UserID: 1, Name: "Internet", DueDate: date(2025, time.April, 25), ReminderLeadDays: 3},
	}}
	debts := &stubDebtRepo{due: []*debt.Debt{
		{ID: "debt-1", UserID: 1, Counterparty: "Alice", NextPaymentDate: &dueToday},
	}}

	repo := &fakeRepo{tokens: []*DeviceToken{{ID: "dev-1", UserID: 1, Token: "tok-1", IsActive: true}}}
	messenger := &fakeMessenger{}
	svc := NewService(repo, messenger, scheds, bills, debts)

	emitted, err := svc.ScanAndEmit(ctx, asOf)
	if err != nil {
		t.Fatalf("ScanAndEmit() error = %v", err)
	}

	// sched-1 due, sched-2 overdue, bill-1 reminder (lead window), bill-2
	// overdue, debt-1 due; bill-3 outside its reminder window.
	if emitted != 5 {
		t.Fatalf("emitted = %d, want 5", emitted)
	}

	byObligation := map[string]string{}
	for _, n := range repo.stored {
		byObligation[n.ObligationID] = n.Type
	}
	want := map[string]string{
		"sched-1": EventDue,
		"sched-2": EventOverdue,
		"bill-1":  EventReminder,
		"bill-2":  EventOverdue,
		"debt-1":  EventDue,
	}
	for id, typ := range want {
		if byObligation[id] != typ {
			t.Errorf("obligation %s: type = %q, want %q", id, byObligation[id], typ)
		}
	}
	if _, ok := byObligation["bill-3"]; ok {
		t.Error("bill-3 outside its reminder window should not emit")
	}

	if len(messenger.sends) != 5 {
		t.Errorf("pushes = %d, want 5", len(messenger.sends))
	}

	// A second sweep over the same state emits nothing new.
	emitted, err = svc.ScanAndEmit(ctx, asOf)
	if err != nil {
		t.Fatalf("second ScanAndEmit() error = %v", err)
	}
	if emitted != 0 {
		t.Errorf("second sweep emitted = %d, want 0", emitted)
	}
	if len(repo.stored) != 5 {
		t.Errorf("stored = %d, want still 5", len(repo.stored))
	}
}

func TestEmitValidation(t *testing.T) {
	svc := NewService(&fakeRepo{}, &fakeMessenger{}, &stubScheduleRepo{}, &stubBillRepo{}, &stubDebtRepo{})

	tests := []struct {
		name  string
		event Event
	}{
		{"bad type", Event{Type: "poke", ObligationID: "x", UserID: 1}},
		{"missing obligation", Event{Type: EventDue, UserID: 1}},
		{"missing user", Event{Type: EventDue, ObligationID: "x"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := svc.Emit(context.Background(), tt.event); err == nil {
				t.Error("Emit() expected validation error, got nil")
			}
		})
	}
}

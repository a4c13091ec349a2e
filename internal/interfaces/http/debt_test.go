package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"obligo/internal/domain/debt"
)

// MockDebtRepo implements debt.Repository for testing
type MockDebtRepo struct {
	CreateFunc             func(ctx context.Context, params debt.CreateParams) (*debt.Debt, error)
	GetByIDFunc            func(ctx context.Context, id string) (*debt.Debt, error)
	ListByUserIDFunc       func(ctx context.Context, userID int64) ([]*debt.Debt, error)
	ListUnpaidDueFunc      func(ctx context.Context, asOf time.Time) ([]*debt.Debt, error)
	AddPaymentFunc         func(ctx context.Context, debtID string, amountMinor int64, paymentDate time.Time, notes string) (*debt.Debt, *debt.Payment, error)
	ListPaymentsFunc       func(ctx context.Context, debtID string) ([]*debt.Payment, error)
	SetNextPaymentDateFunc func(ctx context.Context, debtID string, next *time.Time) error
}

func (m *MockDebtRepo) Create(ctx context.Context, params debt.CreateParams) (*debt.Debt, error) {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, params)
	}
	return nil, nil
}

func (m *MockDebtRepo) GetByID(ctx context.Context, id string) (*debt.Debt, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	return nil, nil
}

func (m *MockDebtRepo) ListByUserID(ctx context.Context, userID int64) ([]*debt.Debt, error) {
	if m.ListByUserIDFunc != nil {
		return m.ListByUserIDFunc(ctx, userID)
	}
	return nil, nil
}

func (m *MockDebtRepo) ListUnpaidDue(ctx context.Context, asOf time.Time) ([]*debt.Debt, error) {
	if m.ListUnpaidDueFunc != nil {
		return m.ListUnpaidDueFunc(ctx, asOf)
	}
	return nil, nil
}

func (m *MockDebtRepo) AddPayment(ctx context.Context, debtID string, amountMinor int64, paymentDate time.Time, notes string) (*debt.Debt, *debt.Payment, error) {
	if m.AddPaymentFunc != nil {
		return m.AddPaymentFunc(ctx, debtID, amountMinor, paymentDate, notes)
	}
	return nil, nil, nil
}

func (m *MockDebtRepo) ListPayments(ctx context.Context, debtID string) ([]*debt.Payment, error) {
	if m.ListPaymentsFunc != nil {
		return m.ListPaymentsFunc(ctx, debtID)
	}
	return nil, nil
}

func (m *MockDebtRepo) SetNextPaymentDate(ctx context.Context, debtID string, next *time.Time) error {
	if m.SetNextPaymentDateFunc != nil {
		return m.SetNextPaymentDateFunc(ctx, debtID, next)
	}
	return nil
}

func openDebt() *debt.Debt {
	return &debt.Debt{
		ID:             "debt-1",
		UserID:         1,
		Counterparty:   "Rent",
		Direction:      debt.DirectionOwing,
		TotalMinor:     500_000,
		RemainingMinor: 300_000,
		StartDate:      date(2026, time.January, 1),
	}
}

func TestHandleRecordPayment(t *testing.T) {
	tests := []struct {
		name           string
		body           map[string]any
		mockRepo       func() *MockDebtRepo
		expectedStatus int
	}{
		{
			name: "Success",
			body: map[string]any{"userId": 1, "amountMinor": 100000, "paymentDate": "2026-02-01"},
			mockRepo: func() *MockDebtRepo {
				return &MockDebtRepo{
					GetByIDFunc: func(ctx context.Context, id string) (*debt.Debt, error) {
						return openDebt(), nil
					},
					AddPaymentFunc: func(ctx context.Context, debtID string, amountMinor int64, paymentDate time.Time, notes string) (*debt.Debt, *debt.Payment, error) {
						d := openDebt()
						d.RemainingMinor -= amountMinor
						return d, &debt.Payment{ID: "pay-1", DebtID: debtID, AmountMinor: amountMinor}, nil
					},
				}
			},
			expectedStatus: http.StatusOK,
		},
		{
			name: "Overpayment",
			body: map[string]any{"userId": 1, "amountMinor": 400000, "paymentDate": "2026-02-01"},
			mockRepo: func() *MockDebtRepo {
				return &MockDebtRepo{
					GetByIDFunc: func(ctx context.Context, id string) (*debt.Debt, error) {
						return openDebt(), nil
					},
					AddPaymentFunc: func(ctx context.Context, debtID string, amountMinor int64, paymentDate time.Time, notes string) (*debt.Debt, *debt.Payment, error) {
						return nil, nil, debt.ErrOverpayment
					},
				}
			},
			expectedStatus: http.StatusUnprocessableEntity,
		},
		{
			name: "AlreadyPaid",
			body: map[string]any{"userId": 1, "amountMinor": 1000, "paymentDate": "2026-02-01"},
			mockRepo: func() *MockDebtRepo {
				return &MockDebtRepo{
					GetByIDFunc: func(ctx context.Context, id string) (*debt.Debt, error) {
						d := openDebt()
						d.RemainingMinor = 0
						d.IsPaid = true
						return d, nil
					},
				}
			},
			expectedStatus: http.StatusUnprocessableEntity,
		},
		{
			name: "Forbidden",
			body: map[string]any{"userId": 2, "amountMinor": 1000, "paymentDate": "2026-02-01"},
			mockRepo: func() *MockDebtRepo {
				return &MockDebtRepo{
					GetByIDFunc: func(ctx context.Context, id string) (*debt.Debt, error) {
						return openDebt(), nil
					},
				}
			},
			expectedStatus: http.StatusForbidden,
		},
		{
			name: "NotFound",
			body: map[string]any{"userId": 1, "amountMinor": 1000, "paymentDate": "2026-02-01"},
			mockRepo: func() *MockDebtRepo {
				return &MockDebtRepo{
					GetByIDFunc: func(ctx context.Context, id string) (*debt.Debt, error) {
						return nil, debt.ErrDebtNotFound
					},
				}
			},
			expectedStatus: http.StatusNotFound,
		},
		{
			name: "NonPositiveAmount",
			body: map[string]any{"userId": 1, "amountMinor": -5, "paymentDate": "2026-02-01"},
			mockRepo: func() *MockDebtRepo {
				return &MockDebtRepo{}
			},
			expectedStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := debt.NewService(tt.mockRepo())
			handler := NewDebtHandler(svc)

			mux := http.NewServeMux()
			mux.HandleFunc("/api/debts/{id}/payments", handler.HandlePayments)

			body, _ := json.Marshal(tt.body)
			req := httptest.NewRequest(http.MethodPost, "/api/debts/debt-1/payments", bytes.NewReader(body))
			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, req)

			if rec.Code != tt.expectedStatus {
				t.Errorf("expected status %d, got %d: %s", tt.expectedStatus, rec.Code, rec.Body.String())
			}
		})
	}
}

func TestHandleRecordPaymentResponseBody(t *testing.T) {
	repo := &MockDebtRepo{
		GetByIDFunc: func(ctx context.Context, id string) (*debt.Debt, error) {
			return openDebt(), nil
		},
		AddPaymentFunc: func(ctx context.Context, debtID string, amountMinor int64, paymentDate time.Time, notes string) (*debt.Debt, *debt.Payment, error) {
			d := openDebt()
			d.RemainingMinor = 0
			d.IsPaid = true
			return d, &debt.Payment{ID: "pay-1", DebtID: debtID, AmountMinor: amountMinor}, nil
		},
	}

	svc := debt.NewService(repo)
	handler := NewDebtHandler(svc)

	mux := http.NewServeMux()
	mux.HandleFunc("/api/debts/{id}/payments", handler.HandlePayments)

	body, _ := json.Marshal(map[string]any{"userId": 1, "amountMinor": 300000, "paymentDate": "2026-02-01"})
	req := httptest.NewRequest(http.MethodPost, "/api/debts/debt-1/payments", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp DebtResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if !resp.IsPaid {
		t.Error("expected debt to be reported as paid")
	}
	if resp.RemainingMinor != 0 {
		t.Errorf("expected remaining 0, got %d", resp.RemainingMinor)
	}
	if resp.ProgressPercentage != 100 {
		t.Errorf("expected progress 100, got %d", resp.ProgressPercentage)
	}
}

package obligation

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"obligo/internal/domain/bill"
	"obligo/internal/domain/calendar"
	"obligo/internal/domain/debt"
	"obligo/internal/domain/schedule"
)

// Service projects due obligations across the three entity repositories.
// It performs no writes.
type Service struct {
	schedules schedule.Repository
	bills     bill.Repository
	debts     debt.Repository
}

// NewService creates a new obligation ledger service
func NewService(schedules schedule.Repository, bills bill.Repository, debts debt.Repository) *Service {
	return &Service{schedules: schedules, bills: bills, debts: debts}
}

// DueObligations returns every active schedule, unpaid bill, and unpaid debt
// of the user whose due date is on or before asOf, ordered by due date
// ascending then by id ascending so output is deterministic.
func (s *Service) DueObligations(ctx context.Context, userID int64, asOf time.Time) ([]Obligation, error) {
	if userID <= 0 {
		return nil, errors.New("valid user ID is required")
	}
	asOf = calendar.DateOnly(asOf)

	var out []Obligation

	scheds, err := s.schedules.ListDue(ctx, asOf, false)
	if err != nil {
		return nil, fmt.Errorf("failed to list due schedules: %w", err)
	}
	for _, sc := range scheds {
		if sc.UserID != userID || sc.NextDueDate == nil {
			continue
		}
		out = append(out, Obligation{
			ID:          sc.ID,
			Kind:        KindSchedule,
			UserID:      sc.UserID,
			Name:        sc.Description,
			AmountMinor: sc.AmountMinor,
			DueDate:     *sc.NextDueDate,
			AutoCreate:  sc.AutoCreate,
		})
	}

	bills, err := s.bills.ListUnpaidDue(ctx, asOf)
	if err != nil {
		return nil, fmt.Errorf("failed to list due bills: %w", err)
	}
	for _, b := range bills {
		if b.UserID != userID {
			continue
		}
		out = append(out, Obligation{
			ID:          b.ID,
			Kind:        KindBill,
			UserID:      b.UserID,
			Name:        b.Name,
			AmountMinor: b.AmountMinor,
			DueDate:     calendar.DateOnly(b.DueDate),
		})
	}

	debts, err := s.debts.ListUnpaidDue(ctx, asOf)
	if err != nil {
		return nil, fmt.Errorf("failed to list due debts: %w", err)
	}
	for _, d := range debts {
		due := d.NextPaymentDate
		if due == nil {
			due = d.DueDate
		}
		if d.UserID != userID || due == nil {
			continue
		}
		out = append(out, Obligation{
			ID:          d.ID,
			Kind:        KindDebt,
			UserID:      d.UserID,
			Name:        d.Counterparty,
			AmountMinor: d.RemainingMinor,
			DueDate:     calendar.DateOnly(*due),
		})
	}

	sort.Slice(out, func(i, j int) bool {
		if !out[i].DueDate.Equal(out[j].DueDate) {
			return out[i].DueDate.Before(out[j].DueDate)
		}
		return out[i].ID < out[j].ID
	})

	return out, nil
}

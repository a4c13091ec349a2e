package notification

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"obligo/internal/domain/bill"
	"obligo/internal/domain/calendar"
	"obligo/internal/domain/debt"
	"obligo/internal/domain/schedule"
)

// Service implements the Emitter boundary: it records each event once and
// forwards it to the user's devices through the Messenger. It also owns the
// periodic scan that turns the obligation tables into due/overdue/reminder
// events.
type Service struct {
	repo      Repository
	messenger Messenger
	schedules schedule.Repository
	bills     bill.Repository
	debts     debt.Repository
}

// NewService creates a new notification service
func NewService(repo Repository, messenger Messenger, schedules schedule.Repository, bills bill.Repository, debts debt.Repository) *Service {
	return &Service{repo: repo, messenger: messenger, schedules: schedules, bills: bills, debts: debts}
}

// Emit records the event and pushes it to the user's active devices.
// Re-emitting the same event (same obligation, type, due date) is a no-op.
func (s *Service) Emit(ctx context.Context, event Event) error {
	_, err := s.emit(ctx, event)
	return err
}

// emit reports whether a new record was created, so the sweep can count
// actual emissions rather than no-op repeats.
func (s *Service) emit(ctx context.Context, event Event) (bool, error) {
	if err := event.Validate(); err != nil {
		return false, err
	}

	n := Notification{
		ID:             uuid.NewString(),
		UserID:         event.UserID,
		Type:           event.Type,
		ObligationID:   event.ObligationID,
		ObligationKind: event.ObligationKind,
		Title:          event.Title,
		Message:        messageFor(event),
		DueDate:        calendar.DateOnly(event.DueDate),
	}

	created, err := s.repo.CreateIfAbsent(ctx, n)
	if err != nil {
		return false, fmt.Errorf("failed to store notification: %w", err)
	}
	if !created {
		return false, nil
	}

	if s.messenger == nil {
		return true, nil
	}

	tokens, err := s.repo.ListActiveTokens(ctx, event.UserID)
	if err != nil {
		log.Printf("Failed to list device tokens for user %d: %v", event.UserID, err)
		return true, nil
	}

	if len(tokens) == 0 {
		return true, nil
	}

	data := map[string]string{
		"type":           event.Type,
		"obligationId":   event.ObligationID,
		"obligationKind": event.ObligationKind,
	}
	tokenStrs := make([]string, 0, len(tokens))
	for _, t := range tokens {
		tokenStrs = append(tokenStrs, t.Token)
	}
	if err := s.messenger.SendMulticast(ctx, tokenStrs, n.Title, n.Message, data); err != nil {
		log.Printf("Failed to push notification for user %d: %v", event.UserID, err)
	}

	return true, nil
}

// RegisterDeviceToken stores an FCM device token for push delivery.
// Re-registering an existing token reactivates it.
func (s *Service) RegisterDeviceToken(ctx context.Context, userID int64, token, deviceType string) (*DeviceToken, error) {
	if token == "" {
		return nil, ErrInvalidToken
	}
	if userID <= 0 {
		return nil, fmt.Errorf("valid user ID is required")
	}

	t := &DeviceToken{
		ID:         uuid.NewString(),
		UserID:     userID,
		Token:      token,
		DeviceType: deviceType,
		IsActive:   true,
	}
	if err := s.repo.RegisterToken(ctx, t); err != nil {
		return nil, fmt.Errorf("failed to register device token: %w", err)
	}
	return t, nil
}

// ListNotifications returns paginated notifications for a user
func (s *Service) ListNotifications(ctx context.Context, userID int64, limit, offset int) ([]*Notification, error) {
	if limit < 1 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	return s.repo.ListByUserID(ctx, userID, limit, offset)
}

// ScanAndEmit walks the obligation tables as of the reference date and emits
// due, overdue, and reminder events. Failures are logged per obligation; the
// scan continues. Returns the number of events emitted.
func (s *Service) ScanAndEmit(ctx context.Context, asOf time.Time) (int, error) {
	asOf = calendar.DateOnly(asOf)
	emitted := 0

	emit := func(e Event) {
		created, err := s.emit(ctx, e)
		if err != nil {
			log.Printf("Failed to emit %s event for %s %s: %v", e.Type, e.ObligationKind, e.ObligationID, err)
			return
		}
		if created {
			emitted++
		}
	}

	scheds, err := s.schedules.ListDue(ctx, asOf, false)
	if err != nil {
		return emitted, fmt.Errorf("failed to scan schedules: %w", err)
	}
	for _, sc := range scheds {
		if sc.NextDueDate == nil {
			continue
		}
		e := Event{
			Type:           EventDue,
			ObligationID:   sc.ID,
			ObligationKind: "schedule",
			UserID:         sc.UserID,
			Title:          sc.Description,
			DueDate:        *sc.NextDueDate,
		}
		if asOf.After(*sc.NextDueDate) {
			e.Type = EventOverdue
		}
		emit(e)
	}

	unpaidBills, err := s.bills.ListUnpaid(ctx)
	if err != nil {
		return emitted, fmt.Errorf("failed to scan bills: %w", err)
	}
	for _, b := range unpaidBills {
		due := calendar.DateOnly(b.DueDate)
		e := Event{
			ObligationID:   b.ID,
			ObligationKind: "bill",
			UserID:         b.UserID,
			Title:          b.Name,
			DueDate:        due,
		}
		switch {
		case asOf.After(due):
			e.Type = EventOverdue
		case asOf.Equal(due):
			e.Type = EventDue
		case !asOf.Before(b.ReminderDate()):
			e.Type = EventReminder
		default:
			continue
		}
		emit(e)
	}

	dueDebts, err := s.debts.ListUnpaidDue(ctx, asOf)
	if err != nil {
		return emitted, fmt.Errorf("failed to scan debts: %w", err)
	}
	for _, d := range dueDebts {
		due := d.NextPaymentDate
		if due == nil {
			due = d.DueDate
		}
		if due == nil {
			continue
		}
		e := Event{
			Type:           EventDue,
			ObligationID:   d.ID,
			ObligationKind: "debt",
			UserID:         d.UserID,
			Title:          d.Counterparty,
			DueDate:        calendar.DateOnly(*due),
		}
		if asOf.After(calendar.DateOnly(*due)) {
			e.Type = EventOverdue
		}
		emit(e)
	}

	return emitted, nil
}

func messageFor(e Event) string {
	date := e.DueDate.Format("2006-01-02")
	switch e.Type {
	case EventOverdue:
		return fmt.Sprintf("%s was due on %s", e.Title, date)
	case EventReminder:
		return fmt.Sprintf("%s is due on %s", e.Title, date)
	default:
		return fmt.Sprintf("%s is due today (%s)", e.Title, date)
	}
}

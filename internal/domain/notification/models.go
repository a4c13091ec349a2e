package notification

import (
	"errors"
	"time"
)

// Event types emitted by the obligation scanner
const (
	EventDue      = "due"
	EventOverdue  = "overdue"
	EventReminder = "reminder"
)

var validEventTypes = map[string]struct{}{
	EventDue:      {},
	EventOverdue:  {},
	EventReminder: {},
}

// Domain errors
var (
	ErrNotificationNotFound = errors.New("notification not found")
	ErrInvalidEventType     = errors.New("invalid event type")
	ErrInvalidToken         = errors.New("device token is required")
)

// Event describes an obligation reaching a notable point in its lifecycle.
// Delivery beyond the Messenger boundary is out of scope.
type Event struct {
	Type           string    `json:"type"` // due, overdue, reminder
	ObligationID   string    `json:"obligationId"`
	ObligationKind string    `json:"obligationKind"` // schedule, bill, debt
	UserID         int64     `json:"userId"`
	Title          string    `json:"title"`
	DueDate        time.Time `json:"dueDate"`
}

// Validate validates the event
func (e Event) Validate() error {
	if !IsValidEventType(e.Type) {
		return ErrInvalidEventType
	}
	if e.ObligationID == "" {
		return errors.New("obligation ID is required")
	}
	if e.UserID <= 0 {
		return errors.New("valid user ID is required")
	}
	return nil
}

// IsValidEventType checks if the provided event type is valid
func IsValidEventType(t string) bool {
	_, ok := validEventTypes[t]
	return ok
}

// Notification is a stored emission record. An event for the same obligation,
// type, and due date is recorded at most once, which keeps repeated sweeps
// from re-notifying.
type Notification struct {
	ID             string    `json:"id"`
	UserID         int64     `json:"-"`
	Type           string    `json:"type"`
	ObligationID   string    `json:"obligationId"`
	ObligationKind string    `json:"obligationKind"`
	Title          string    `json:"title"`
	Message        string    `json:"message"`
	DueDate        time.Time `json:"dueDate"`
	CreatedAt      time.Time `json:"createdAt"`
}

// DeviceToken represents a registered FCM device token
type DeviceToken struct {
	ID         string    `json:"id"`
	UserID     int64     `json:"userId"`
	Token      string    `json:"token"`
	DeviceType string    `json:"deviceType"`
	IsActive   bool      `json:"isActive"`
	CreatedAt  time.Time `json:"createdAt"`
}

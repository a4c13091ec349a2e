package notification

import "context"

// Repository defines the interface for notification data access
type Repository interface {
	// CreateIfAbsent stores the notification unless one already exists for
	// the same obligation, type, and due date. Returns false when the
	// record was already present.
	CreateIfAbsent(ctx context.Context, n Notification) (bool, error)

	ListByUserID(ctx context.Context, userID int64, limit, offset int) ([]*Notification, error)

	// ListActiveTokens returns the user's registered device tokens.
	ListActiveTokens(ctx context.Context, userID int64) ([]*DeviceToken, error)

	// RegisterToken stores a device token, reactivating it if it was
	// previously registered.
	RegisterToken(ctx context.Context, t *DeviceToken) error
}

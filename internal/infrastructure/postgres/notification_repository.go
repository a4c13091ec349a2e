package postgres

import (
	"context"
	"fmt"

	"obligo/internal/domain/notification"
)

// NotificationRepository implements notification.Repository backed by Postgres.
type NotificationRepository struct {
	db *DB
}

func NewNotificationRepository(db *DB) *NotificationRepository {
	return &NotificationRepository{db: db}
}

var _ notification.Repository = (*NotificationRepository)(nil)

// CreateIfAbsent relies on the unique index over (obligation_id, type,
// due_date): ON CONFLICT DO NOTHING makes the insert a no-op when the same
// event was already recorded, so repeated sweeps never duplicate a record.
func (r *NotificationRepository) CreateIfAbsent(ctx context.Context, n notification.Notification) (bool, error) {
	query := `
		INSERT INTO notifications (id, user_id, type, obligation_id, obligation_kind,
			title, message, due_date)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (obligation_id, type, due_date) DO NOTHING`

	result, err := r.db.ExecContext(ctx, query,
		n.ID, n.UserID, n.Type, n.ObligationID, n.ObligationKind,
		n.Title, n.Message, n.DueDate,
	)
	if err != nil {
		return false, fmt.Errorf("creating notification: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("checking rows affected: %w", err)
	}
	return affected > 0, nil
}

func (r *NotificationRepository) ListByUserID(ctx context.Context, userID int64, limit, offset int) ([]*notification.Notification, error) {
	query := `
		SELECT id, user_id, type, obligation_id, obligation_kind, title, message,
			due_date, created_at
		FROM notifications
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3`

	rows, err := r.db.QueryContext(ctx, query, userID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("listing notifications: %w", err)
	}
	defer rows.Close()

	var notifications []*notification.Notification
	for rows.Next() {
		n := &notification.Notification{}
		err := rows.Scan(&n.ID, &n.UserID, &n.Type, &n.ObligationID, &n.ObligationKind,
			&n.Title, &n.Message, &n.DueDate, &n.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("scanning notification: %w", err)
		}
		notifications = append(notifications, n)
	}
	return notifications, rows.Err()
}

func (r *NotificationRepository) ListActiveTokens(ctx context.Context, userID int64) ([]*notification.DeviceToken, error) {
	query := `
		SELECT id, user_id, token, device_type, is_active, created_at
		FROM device_tokens
		WHERE user_id = $1 AND is_active = true`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("listing device tokens: %w", err)
	}
	defer rows.Close()

	var tokens []*notification.DeviceToken
	for rows.Next() {
		t := &notification.DeviceToken{}
		err := rows.Scan(&t.ID, &t.UserID, &t.Token, &t.DeviceType, &t.IsActive, &t.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("scanning device token: %w", err)
		}
		tokens = append(tokens, t)
	}
	return tokens, rows.Err()
}

// RegisterToken upserts a device token for push delivery.
func (r *NotificationRepository) RegisterToken(ctx context.Context, t *notification.DeviceToken) error {
	query := `
		INSERT INTO device_tokens (id, user_id, token, device_type, is_active)
		VALUES ($1, $2, $3, $4, true)
		ON CONFLICT (token) DO UPDATE
		SET user_id = EXCLUDED.user_id, device_type = EXCLUDED.device_type, is_active = true`

	if _, err := r.db.ExecContext(ctx, query, t.ID, t.UserID, t.Token, t.DeviceType); err != nil {
		return fmt.Errorf("registering device token: %w", err)
	}
	return nil
}

// DeactivateToken retires a token the push provider reported as dead.
func (r *NotificationRepository) DeactivateToken(ctx context.Context, token string) error {
	query := `UPDATE device_tokens SET is_active = false WHERE token = $1`

	if _, err := r.db.ExecContext(ctx, query, token); err != nil {
		return fmt.Errorf("deactivating device token: %w", err)
	}
	return nil
}

package database

import (
	"context"
	"fmt"
	"time"

	"todo_alarm_notifier/internal/domain/notification"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

// NotificationRepository is the notification sink backed by the notifications table.
type NotificationRepository struct {
	db  *sqlx.DB
	now func() time.Time
}

func NewNotificationRepository(db *sqlx.DB) *NotificationRepository {
	return &NotificationRepository{db: db, now: time.Now}
}

// Create inserts the notification. Inserting an ID that already exists is a no-op, so a
// retried call after an ambiguous failure never produces a second row.
func (r *NotificationRepository) Create(ctx context.Context, n *notification.Notification) error {
	if n.ID == uuid.Nil {
		n.ID = uuid.New()
	}
	if n.Status == "" {
		n.Status = notification.StatusActive
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = r.now().UTC()
	}

	query := `INSERT INTO notifications (
	              id, alarm_id, user_id, template_type, priority, title, message,
	              is_read, is_sent, status, related_entity, related_id, order_id, created_at
	          ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	          ON CONFLICT (id) DO NOTHING`
	_, err := r.db.ExecContext(ctx, r.db.Rebind(query),
		n.ID, n.AlarmID, n.UserID, string(n.TemplateType), string(n.Priority), n.Title, n.Body,
		n.Read, n.Sent, string(n.Status), n.RelatedEntity, n.RelatedID, n.OrderID, n.CreatedAt.UTC(),
	)
	if err != nil {
		if isTransient(err) {
			return fmt.Errorf("%w: creating notification %s: %w", notification.ErrSinkUnavailable, n.ID, err)
		}
		return fmt.Errorf("error creating notification %s: %w", n.ID, err)
	}
	return nil
}

func (r *NotificationRepository) MarkOrphaned(ctx context.Context, id uuid.UUID) error {
	query := `UPDATE notifications SET status = ? WHERE id = ? AND status = ?`
	_, err := r.db.ExecContext(ctx, r.db.Rebind(query),
		string(notification.StatusOrphaned), id, string(notification.StatusActive))
	if err != nil {
		return fmt.Errorf("error marking notification %s as orphaned: %w", id, err)
	}
	return nil
}

// SweepUnclaimed marks active notifications created before createdBefore as orphaned when
// their alarm does not point back at them.
func (r *NotificationRepository) SweepUnclaimed(ctx context.Context, createdBefore time.Time) (int64, error) {
	query := `UPDATE notifications SET status = ?
	          WHERE status = ?
	            AND created_at < ?
	            AND NOT EXISTS (
	                SELECT 1 FROM todo_alarms a
	                WHERE a.id = notifications.alarm_id
	                  AND a.last_notification_id = notifications.id
	            )`
	res, err := r.db.ExecContext(ctx, r.db.Rebind(query),
		string(notification.StatusOrphaned), string(notification.StatusActive), createdBefore.UTC())
	if err != nil {
		return 0, fmt.Errorf("error sweeping unclaimed notifications: %w", err)
	}
	marked, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("error reading sweep result: %w", err)
	}
	return marked, nil
}

func (r *NotificationRepository) CountOrphaned(ctx context.Context) (int, error) {
	var count int
	query := `SELECT COUNT(*) FROM notifications WHERE status = ?`
	if err := r.db.GetContext(ctx, &count, r.db.Rebind(query), string(notification.StatusOrphaned)); err != nil {
		return 0, fmt.Errorf("error counting orphaned notifications: %w", err)
	}
	return count, nil
}

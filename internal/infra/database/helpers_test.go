package database

import (
	"context"
	"database/sql"
	"io"
	"path/filepath"
	"testing"
	"time"

	"todo_alarm_notifier/internal/domain/notification"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2026, 10, 15, 9, 0, 0, 0, time.UTC)

func openTestDB(t *testing.T) *sqlx.DB {
	t.Helper()
	db, err := Open(DriverSQLite, filepath.Join(t.TempDir(), "notifier.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, Migrate(context.Background(), db))
	return db
}

func testLogger() *logrus.Entry {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return logrus.NewEntry(l)
}

type taskFixture struct {
	UserID  int64
	Title   string
	Note    sql.NullString
	OrderID sql.NullInt64
	Active  bool
}

func insertTask(t *testing.T, db *sqlx.DB, f taskFixture) int64 {
	t.Helper()
	var id int64
	err := db.Get(&id, db.Rebind(`INSERT INTO tasks (user_id, title, note, order_id, is_active)
	                              VALUES (?, ?, ?, ?, ?) RETURNING id`),
		f.UserID, f.Title, f.Note, f.OrderID, f.Active)
	require.NoError(t, err)
	return id
}

func insertActiveTask(t *testing.T, db *sqlx.DB, title string) int64 {
	t.Helper()
	return insertTask(t, db, taskFixture{UserID: 7, Title: title, Active: true})
}

type alarmFixture struct {
	TaskID           int64
	Deadline         time.Time
	Completed        bool
	NotificationSent bool
}

func insertAlarm(t *testing.T, db *sqlx.DB, f alarmFixture) int64 {
	t.Helper()
	var id int64
	err := db.Get(&id, db.Rebind(`INSERT INTO todo_alarms (task_id, deadline, is_completed, notification_sent, created_at)
	                              VALUES (?, ?, ?, ?, ?) RETURNING id`),
		f.TaskID, f.Deadline.UTC(), f.Completed, f.NotificationSent, testNow.Add(-24*time.Hour))
	require.NoError(t, err)
	return id
}

type storedNotification struct {
	ID           uuid.UUID     `db:"id"`
	AlarmID      int64         `db:"alarm_id"`
	UserID       int64         `db:"user_id"`
	TemplateType string        `db:"template_type"`
	Priority     string        `db:"priority"`
	Title        string        `db:"title"`
	Message      string        `db:"message"`
	Read         bool          `db:"is_read"`
	Sent         bool          `db:"is_sent"`
	Status       string        `db:"status"`
	RelatedID    int64         `db:"related_id"`
	OrderID      sql.NullInt64 `db:"order_id"`
}

func listNotifications(t *testing.T, db *sqlx.DB, alarmID int64) []storedNotification {
	t.Helper()
	var out []storedNotification
	err := db.Select(&out, db.Rebind(`SELECT id, alarm_id, user_id, template_type, priority, title, message,
	                                         is_read, is_sent, status, related_id, order_id
	                                  FROM notifications WHERE alarm_id = ? ORDER BY created_at, id`), alarmID)
	require.NoError(t, err)
	return out
}

type storedAlarm struct {
	NotificationSent   bool          `db:"notification_sent"`
	NotifiedAt         sql.NullTime  `db:"notified_at"`
	LastNotificationID uuid.NullUUID `db:"last_notification_id"`
}

func getAlarm(t *testing.T, db *sqlx.DB, id int64) storedAlarm {
	t.Helper()
	var a storedAlarm
	err := db.Get(&a, db.Rebind(`SELECT notification_sent, notified_at, last_notification_id FROM todo_alarms WHERE id = ?`), id)
	require.NoError(t, err)
	return a
}

func newTestNotification(alarmID int64, createdAt time.Time) *notification.Notification {
	return &notification.Notification{
		ID:            uuid.New(),
		AlarmID:       alarmID,
		UserID:        7,
		TemplateType:  notification.TemplateAlarmNormal,
		Priority:      notification.PriorityNormal,
		Title:         "Reminder",
		Body:          "Body",
		Status:        notification.StatusActive,
		RelatedEntity: notification.RelatedEntityTask,
		RelatedID:     1,
		CreatedAt:     createdAt,
	}
}

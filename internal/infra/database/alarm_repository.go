package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"todo_alarm_notifier/internal/domain/alarm"
	"todo_alarm_notifier/internal/domain/task"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

const eligibleAlarmsFilter = `
	FROM todo_alarms a
	JOIN tasks t ON t.id = a.task_id
	WHERE a.notification_sent = FALSE
	  AND a.is_completed = FALSE
	  AND t.is_active = TRUE
	  AND a.deadline <= ?`

type candidateRow struct {
	AlarmID            int64          `db:"alarm_id"`
	TaskID             int64          `db:"task_id"`
	Deadline           time.Time      `db:"deadline"`
	Completed          bool           `db:"is_completed"`
	NotificationSent   bool           `db:"notification_sent"`
	NotifiedAt         sql.NullTime   `db:"notified_at"`
	LastNotificationID uuid.NullUUID  `db:"last_notification_id"`
	CreatedAt          time.Time      `db:"created_at"`
	UserID             int64          `db:"user_id"`
	Title              string         `db:"title"`
	Note               sql.NullString `db:"note"`
	OrderID            sql.NullInt64  `db:"order_id"`
	Active             bool           `db:"is_active"`
}

func (r candidateRow) toCandidate() *alarm.Candidate {
	return &alarm.Candidate{
		Alarm: alarm.Alarm{
			ID:                 r.AlarmID,
			TaskID:             r.TaskID,
			Deadline:           r.Deadline,
			Completed:          r.Completed,
			NotificationSent:   r.NotificationSent,
			NotifiedAt:         r.NotifiedAt,
			LastNotificationID: r.LastNotificationID,
			CreatedAt:          r.CreatedAt,
		},
		Task: task.Task{
			ID:      r.TaskID,
			UserID:  r.UserID,
			Title:   r.Title,
			Note:    r.Note,
			OrderID: r.OrderID,
			Active:  r.Active,
		},
	}
}

type AlarmRepository struct {
	db *sqlx.DB
}

func NewAlarmRepository(db *sqlx.DB) *AlarmRepository {
	return &AlarmRepository{db: db}
}

// ListEligible returns unsent, uncompleted alarms of active tasks whose deadline is at or
// before now+lookahead, oldest deadline first.
func (r *AlarmRepository) ListEligible(ctx context.Context, now time.Time, lookahead time.Duration, limit int) ([]*alarm.Candidate, error) {
	query := `
	SELECT a.id AS alarm_id, a.task_id, a.deadline, a.is_completed, a.notification_sent,
	       a.notified_at, a.last_notification_id, a.created_at,
	       t.user_id, t.title, t.note, t.order_id, t.is_active` + eligibleAlarmsFilter + `
	ORDER BY a.deadline ASC, a.id ASC`
	args := []any{now.Add(lookahead).UTC()}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	var rows []candidateRow
	if err := r.db.SelectContext(ctx, &rows, r.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("%w: listing eligible alarms: %w", alarm.ErrStoreQueryFailed, err)
	}

	candidates := make([]*alarm.Candidate, 0, len(rows))
	for _, row := range rows {
		candidates = append(candidates, row.toCandidate())
	}
	return candidates, nil
}

// ClaimIfUnsent marks the alarm as notified only if no one else has. The conditional update is
// the single point that decides which notification an alarm ends up pointing to.
func (r *AlarmRepository) ClaimIfUnsent(ctx context.Context, alarmID int64, notifiedAt time.Time, notificationID uuid.UUID) (bool, error) {
	query := `UPDATE todo_alarms
	          SET notification_sent = TRUE, notified_at = ?, last_notification_id = ?
	          WHERE id = ? AND notification_sent = FALSE`
	res, err := r.db.ExecContext(ctx, r.db.Rebind(query), notifiedAt.UTC(), notificationID, alarmID)
	if err != nil {
		return false, fmt.Errorf("error claiming alarm %d: %w", alarmID, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("error reading claim result for alarm %d: %w", alarmID, err)
	}
	return affected == 1, nil
}

func (r *AlarmRepository) CountEligible(ctx context.Context, now time.Time, lookahead time.Duration) (int, error) {
	var count int
	query := `SELECT COUNT(*)` + eligibleAlarmsFilter
	if err := r.db.GetContext(ctx, &count, r.db.Rebind(query), now.Add(lookahead).UTC()); err != nil {
		return 0, fmt.Errorf("error counting eligible alarms: %w", err)
	}
	return count, nil
}

// AverageDelay is the mean of notified_at - deadline over all sent alarms. Negative values
// mean notifications go out ahead of their deadlines on average.
func (r *AlarmRepository) AverageDelay(ctx context.Context) (time.Duration, error) {
	query := `SELECT AVG(EXTRACT(EPOCH FROM (notified_at - deadline)))
	          FROM todo_alarms WHERE notification_sent = TRUE AND notified_at IS NOT NULL`
	if isSQLite(r.db) {
		query = `SELECT AVG((julianday(notified_at) - julianday(deadline)) * 86400.0)
		         FROM todo_alarms WHERE notification_sent = TRUE AND notified_at IS NOT NULL`
	}

	var seconds sql.NullFloat64
	if err := r.db.GetContext(ctx, &seconds, query); err != nil {
		return 0, fmt.Errorf("error computing average notification delay: %w", err)
	}
	if !seconds.Valid {
		return 0, nil
	}
	return time.Duration(seconds.Float64 * float64(time.Second)).Round(time.Second), nil
}

// internal/domain/alarm/alarm.go
package alarm

import (
	"database/sql"
	"time"

	"todo_alarm_notifier/internal/domain/task"

	"github.com/google/uuid"
)

// Alarm is a deadline bound to a task.
// Corresponds to the 'todo_alarms' table.
type Alarm struct {
	ID                 int64
	TaskID             int64         // Foreign Key to tasks.id
	Deadline           time.Time     // Zero value means the row carries no usable deadline
	Completed          bool          // Set externally when the task is done
	NotificationSent   bool          // Never reverts to false once set
	NotifiedAt         sql.NullTime  // Valid iff NotificationSent
	LastNotificationID uuid.NullUUID // Valid whenever NotificationSent
	CreatedAt          time.Time
}

// Candidate is an eligible alarm together with the task it belongs to.
type Candidate struct {
	Alarm Alarm
	Task  task.Task
}

package task

import (
	"database/sql"
)

// Task is the to-do item an alarm is attached to. The escalation engine only reads it.
type Task struct {
	ID      int64
	UserID  int64          // Owner, receives the notification
	Title   string
	Note    sql.NullString // Optional free text
	OrderID sql.NullInt64  // Optional grouping/order the task belongs to
	Active  bool           // Inactive tasks never produce notifications
}

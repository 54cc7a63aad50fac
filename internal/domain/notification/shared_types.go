// internal/domain/notification/shared_types.go
package notification

// TemplateType identifies the notification template used for an alarm.
type TemplateType string

const (
	TemplateAlarmNormal  TemplateType = "alarm_todo_normal"  // Deadline within the lookahead window
	TemplateAlarmHigh    TemplateType = "alarm_todo_high"    // Deadline closer than the imminent threshold
	TemplateAlarmExpired TemplateType = "alarm_todo_expired" // Deadline already passed
)

// Priority of a notification as shown to the user.
type Priority string

const (
	PriorityNormal Priority = "normal"
	PriorityHigh   Priority = "high"
)

// Status of a notification record from the engine's point of view.
type Status string

const (
	StatusActive   Status = "active"
	StatusOrphaned Status = "orphaned" // Created, but the alarm was claimed by another notification
)

// RelatedEntityTask is the related entity recorded on alarm notifications.
const RelatedEntityTask = "task"

// internal/domain/notification/notification.go
package notification

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
)

// Notification is the record created for a processed alarm.
// Corresponds to the 'notifications' table.
type Notification struct {
	ID            uuid.UUID
	AlarmID       int64 // Source alarm, used to detect unclaimed records
	UserID        int64
	TemplateType  TemplateType
	Priority      Priority
	Title         string
	Body          string
	Read          bool
	Sent          bool // Delivery concern, always false on creation
	Status        Status
	RelatedEntity string
	RelatedID     int64
	OrderID       sql.NullInt64
	CreatedAt     time.Time
}

// Template holds the title/body text of a notification type with {name} placeholders.
type Template struct {
	Type  TemplateType
	Title string
	Body  string
}

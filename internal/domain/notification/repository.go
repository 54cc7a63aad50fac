// internal/domain/notification/repository.go
package notification

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	// ErrSinkUnavailable wraps transient failures while persisting a notification.
	ErrSinkUnavailable = errors.New("notification sink unavailable")
	// ErrTemplateNotFound is returned when no template exists for a type.
	ErrTemplateNotFound = errors.New("notification template not found")
)

// Sink persists notification records.
type Sink interface {
	// Create stores n. A nil ID is replaced with a fresh one; creating the same ID twice is a no-op,
	// so callers may retry with the same record.
	Create(ctx context.Context, n *Notification) error
	MarkOrphaned(ctx context.Context, id uuid.UUID) error
	// SweepUnclaimed marks active notifications created before createdBefore whose source alarm
	// does not reference them as orphaned. Returns the number of rows marked.
	SweepUnclaimed(ctx context.Context, createdBefore time.Time) (int64, error)
	CountOrphaned(ctx context.Context) (int, error)
}

// TemplateStore resolves template text by type.
type TemplateStore interface {
	Resolve(ctx context.Context, templateType TemplateType) (*Template, error)
}

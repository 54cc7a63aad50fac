// internal/domain/alarm/repository.go
package alarm

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	// ErrInvalidAlarmData marks an alarm row that cannot be processed (e.g. missing deadline).
	ErrInvalidAlarmData = errors.New("invalid alarm data")
	// ErrStoreQueryFailed is returned when eligible alarms cannot be listed. It aborts a cycle.
	ErrStoreQueryFailed = errors.New("alarm store query failed")
)

// Repository defines the operations the escalation engine needs from the alarm store.
type Repository interface {
	// ListEligible returns unsent, uncompleted alarms of active tasks whose deadline is at or
	// before now+lookahead, earliest deadline first. limit <= 0 means no limit.
	ListEligible(ctx context.Context, now time.Time, lookahead time.Duration, limit int) ([]*Candidate, error)

	// ClaimIfUnsent atomically marks the alarm as sent, conditioned on it still being unsent.
	// It reports true iff this call performed the transition.
	ClaimIfUnsent(ctx context.Context, alarmID int64, notifiedAt time.Time, notificationID uuid.UUID) (bool, error)

	// CountEligible counts alarms matching the ListEligible predicate.
	CountEligible(ctx context.Context, now time.Time, lookahead time.Duration) (int, error)
	// AverageDelay is the mean of notified_at - deadline over sent alarms, zero if none.
	AverageDelay(ctx context.Context) (time.Duration, error)
}

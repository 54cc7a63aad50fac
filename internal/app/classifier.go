package app

import (
	"fmt"
	"time"

	"todo_alarm_notifier/internal/domain/alarm"
	"todo_alarm_notifier/internal/domain/notification"
)

// Tier is the urgency of an alarm at evaluation time. It is derived, never stored.
type Tier int

const (
	TierUpcoming Tier = iota
	TierImminent
	TierOverdue
)

func (t Tier) String() string {
	switch t {
	case TierUpcoming:
		return "upcoming"
	case TierImminent:
		return "imminent"
	case TierOverdue:
		return "overdue"
	default:
		return fmt.Sprintf("tier(%d)", int(t))
	}
}

// Classification is the result of classifying an alarm.
type Classification struct {
	Tier     Tier
	Template notification.TemplateType
	Priority notification.Priority
}

// Classify maps a deadline to its urgency tier relative to now.
// A deadline equal to now is still imminent; only a passed deadline is overdue.
func Classify(deadline, now time.Time, imminentThreshold time.Duration) (Classification, error) {
	if deadline.IsZero() {
		return Classification{}, fmt.Errorf("%w: missing deadline", alarm.ErrInvalidAlarmData)
	}

	remaining := deadline.Sub(now)
	switch {
	case remaining < 0:
		return Classification{Tier: TierOverdue, Template: notification.TemplateAlarmExpired, Priority: notification.PriorityHigh}, nil
	case remaining < imminentThreshold:
		return Classification{Tier: TierImminent, Template: notification.TemplateAlarmHigh, Priority: notification.PriorityHigh}, nil
	default:
		return Classification{Tier: TierUpcoming, Template: notification.TemplateAlarmNormal, Priority: notification.PriorityNormal}, nil
	}
}

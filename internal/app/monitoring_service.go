package app

import (
	"context"
	"fmt"
	"time"

	"todo_alarm_notifier/internal/domain/alarm"
	"todo_alarm_notifier/internal/domain/notification"

	"github.com/sirupsen/logrus"
)

// Stats is a read-only snapshot of the engine's backlog and latency.
type Stats struct {
	TakenAt      time.Time
	Eligible     int           // Alarms waiting for a notification right now
	AverageDelay time.Duration // Mean of notified_at - deadline over sent alarms
	Orphaned     int           // Notifications that lost their claim
}

// MonitoringService answers observational queries. It never affects escalation correctness,
// except for the orphan sweep which only touches notifications nobody claimed.
type MonitoringService struct {
	alarms alarm.Repository
	sink   notification.Sink
	cfg    EscalationConfig
	logger *logrus.Entry
}

func NewMonitoringService(ar alarm.Repository, sink notification.Sink, cfg EscalationConfig, logger *logrus.Entry) *MonitoringService {
	return &MonitoringService{
		alarms: ar,
		sink:   sink,
		cfg:    cfg,
		logger: logger,
	}
}

// Snapshot collects the current monitoring figures. Every query is bounded by the store timeout.
func (m *MonitoringService) Snapshot(ctx context.Context, now time.Time) (*Stats, error) {
	stats := &Stats{TakenAt: now}
	var err error

	queryCtx, cancel := m.storeContext(ctx)
	stats.Eligible, err = m.alarms.CountEligible(queryCtx, now, m.cfg.LookaheadWindow)
	cancel()
	if err != nil {
		return nil, fmt.Errorf("failed to count eligible alarms: %w", err)
	}

	queryCtx, cancel = m.storeContext(ctx)
	stats.AverageDelay, err = m.alarms.AverageDelay(queryCtx)
	cancel()
	if err != nil {
		return nil, fmt.Errorf("failed to compute average notification delay: %w", err)
	}

	queryCtx, cancel = m.storeContext(ctx)
	stats.Orphaned, err = m.sink.CountOrphaned(queryCtx)
	cancel()
	if err != nil {
		return nil, fmt.Errorf("failed to count orphaned notifications: %w", err)
	}

	return stats, nil
}

// SweepOrphans marks notifications that were created but never claimed, and are older than
// the grace period, as orphaned. Younger ones may still be waiting for their claim.
func (m *MonitoringService) SweepOrphans(ctx context.Context, now time.Time) (int64, error) {
	cutoff := now.Add(-m.cfg.OrphanGracePeriod)

	sweepCtx, cancel := m.storeContext(ctx)
	defer cancel()
	marked, err := m.sink.SweepUnclaimed(sweepCtx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to sweep unclaimed notifications: %w", err)
	}
	if marked > 0 {
		m.logger.WithFields(logrus.Fields{
			"marked": marked,
			"cutoff": cutoff.Format(time.RFC3339),
		}).Warn("Unclaimed notifications marked as orphaned")
	}
	return marked, nil
}

func (m *MonitoringService) storeContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if m.cfg.StoreTimeout <= 0 {
		return context.WithTimeout(ctx, DefaultStoreTimeout)
	}
	return context.WithTimeout(ctx, m.cfg.StoreTimeout)
}

// internal/app/escalation_service.go
package app

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"todo_alarm_notifier/internal/domain/alarm"
	"todo_alarm_notifier/internal/domain/notification"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// CycleRunner runs one escalation cycle. Implemented by EscalationService.
type CycleRunner interface {
	RunCycle(ctx context.Context, now time.Time) (*CycleReport, error)
}

// ItemFailure describes why a single alarm could not be processed in a cycle.
type ItemFailure struct {
	AlarmID int64
	TaskID  int64
	Err     error
}

// CycleReport summarizes one cycle.
type CycleReport struct {
	StartedAt time.Time
	Duration  time.Duration
	Attempted int
	Succeeded int
	ClaimLost int // Another process claimed the alarm first; not an error
	Failed    int
	Failures  []ItemFailure
}

func (r *CycleReport) String() string {
	return fmt.Sprintf("attempted=%d succeeded=%d claim_lost=%d failed=%d",
		r.Attempted, r.Succeeded, r.ClaimLost, r.Failed)
}

type itemOutcome int

const (
	outcomeSucceeded itemOutcome = iota
	outcomeClaimLost
	outcomeFailed
)

type itemResult struct {
	outcome  itemOutcome
	err      error
	template notification.TemplateType
}

// EscalationService turns eligible alarms into notification records exactly once per alarm.
//
// For each alarm the notification is written first and the alarm is claimed second, with a
// conditional update. Losing the claim to a concurrent process leaves an orphaned notification,
// which is marked as such; claiming first could mark an alarm as sent with no notification at all.
type EscalationService struct {
	alarms    alarm.Repository
	sink      notification.Sink
	templates notification.TemplateStore
	alerter   Alerter
	cfg       EscalationConfig
	logger    *logrus.Entry
	clock     func() time.Time
}

// EscalationOption customizes an EscalationService.
type EscalationOption func(*EscalationService)

// WithClock sets the clock read when an item is classified and claimed.
func WithClock(clock func() time.Time) EscalationOption {
	return func(s *EscalationService) {
		s.clock = clock
	}
}

// WithAlerter sets the operator alert channel.
func WithAlerter(a Alerter) EscalationOption {
	return func(s *EscalationService) {
		s.alerter = a
	}
}

func NewEscalationService(
	ar alarm.Repository,
	sink notification.Sink,
	ts notification.TemplateStore,
	cfg EscalationConfig,
	logger *logrus.Entry,
	opts ...EscalationOption,
) (*EscalationService, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid escalation config: %w", err)
	}

	s := &EscalationService{
		alarms:    ar,
		sink:      sink,
		templates: ts,
		cfg:       cfg,
		logger:    logger,
		clock:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.alerter == nil {
		s.alerter = NewLogAlerter(logger)
	}
	return s, nil
}

// RunCycle processes all alarms eligible at now. Only a failure to list candidates aborts the
// cycle (ErrStoreQueryFailed); per-item failures are reported in the returned CycleReport.
//
// Cancelling ctx stops dispatching new items. Items already started run to completion on a
// context that ignores the cancellation, so a created notification is never left unclaimed
// because of shutdown.
func (s *EscalationService) RunCycle(ctx context.Context, now time.Time) (*CycleReport, error) {
	started := time.Now()
	report := &CycleReport{StartedAt: now}
	defer func() { report.Duration = time.Since(started) }()

	queryCtx, cancel := s.storeContext(ctx)
	candidates, err := s.alarms.ListEligible(queryCtx, now, s.cfg.LookaheadWindow, s.cfg.BatchSize)
	cancel()
	if err != nil {
		if !errors.Is(err, alarm.ErrStoreQueryFailed) {
			err = fmt.Errorf("%w: %w", alarm.ErrStoreQueryFailed, err)
		}
		if errors.Is(err, context.Canceled) {
			s.logger.WithError(err).Info("Cycle cancelled while listing eligible alarms")
			return report, err
		}
		s.logger.WithError(err).Error("Failed to list eligible alarms, aborting cycle")
		s.alert(ctx, Alert{Kind: AlertStoreQueryFailed, Message: fmt.Sprintf("Escalation cycle aborted: %v", err)})
		return report, err
	}

	if len(candidates) == 0 {
		s.logger.Debug("No eligible alarms")
		return report, nil
	}
	s.logger.WithField("candidates", len(candidates)).Info("Processing eligible alarms")

	var (
		mu               sync.Mutex
		wg               sync.WaitGroup
		missingTemplates = make(map[notification.TemplateType]int)
	)
	itemCtx := context.WithoutCancel(ctx)
	sem := make(chan struct{}, s.cfg.Workers)

dispatch:
	for _, c := range candidates {
		if c.Alarm.NotificationSent {
			// Never revisit a claimed alarm, whatever the store returned.
			continue
		}
		if ctx.Err() != nil {
			break dispatch
		}
		select {
		case sem <- struct{}{}:
		case <-ctx.Done():
			break dispatch
		}

		wg.Add(1)
		go func(c *alarm.Candidate) {
			defer wg.Done()
			defer func() { <-sem }()

			res := s.processCandidate(itemCtx, c)

			mu.Lock()
			defer mu.Unlock()
			report.Attempted++
			switch res.outcome {
			case outcomeSucceeded:
				report.Succeeded++
			case outcomeClaimLost:
				report.ClaimLost++
			case outcomeFailed:
				report.Failed++
				report.Failures = append(report.Failures, ItemFailure{AlarmID: c.Alarm.ID, TaskID: c.Task.ID, Err: res.err})
				if errors.Is(res.err, notification.ErrTemplateNotFound) {
					missingTemplates[res.template]++
				}
			}
		}(c)
	}
	wg.Wait()

	if ctx.Err() != nil {
		s.logger.WithField("processed", report.Attempted).Warn("Cycle interrupted, remaining alarms deferred to the next cycle")
	}

	slices.SortFunc(report.Failures, func(a, b ItemFailure) int { return cmp.Compare(a.AlarmID, b.AlarmID) })

	if len(missingTemplates) > 0 {
		s.alert(ctx, Alert{Kind: AlertTemplateMissing, Message: describeMissingTemplates(missingTemplates)})
	}

	s.logger.WithFields(logrus.Fields{
		"attempted":  report.Attempted,
		"succeeded":  report.Succeeded,
		"claim_lost": report.ClaimLost,
		"failed":     report.Failed,
	}).Info("Escalation cycle finished")

	return report, nil
}

func (s *EscalationService) processCandidate(ctx context.Context, c *alarm.Candidate) itemResult {
	logger := s.logger.WithFields(logrus.Fields{
		"alarm_id": c.Alarm.ID,
		"task_id":  c.Task.ID,
	})

	classification, err := Classify(c.Alarm.Deadline, s.clock(), s.cfg.ImminentThreshold)
	if err != nil {
		logger.WithError(err).Warn("Skipping alarm with invalid data")
		return itemResult{outcome: outcomeFailed, err: err}
	}
	if c.Task.UserID == 0 {
		err = fmt.Errorf("%w: task %d has no owner", alarm.ErrInvalidAlarmData, c.Task.ID)
		logger.WithError(err).Warn("Skipping alarm with invalid data")
		return itemResult{outcome: outcomeFailed, err: err}
	}
	logger = logger.WithField("tier", classification.Tier.String())

	values := RenderPlaceholders(c, s.cfg.location())

	tplCtx, cancel := s.storeContext(ctx)
	tpl, err := s.templates.Resolve(tplCtx, classification.Template)
	cancel()
	if err != nil {
		logger.WithError(err).WithField("template_type", classification.Template).Error("Failed to resolve notification template")
		return itemResult{outcome: outcomeFailed, err: fmt.Errorf("resolving template %s: %w", classification.Template, err), template: classification.Template}
	}

	n := &notification.Notification{
		ID:            uuid.New(),
		AlarmID:       c.Alarm.ID,
		UserID:        c.Task.UserID,
		TemplateType:  classification.Template,
		Priority:      classification.Priority,
		Title:         Substitute(tpl.Title, values),
		Body:          Substitute(tpl.Body, values),
		Status:        notification.StatusActive,
		RelatedEntity: notification.RelatedEntityTask,
		RelatedID:     c.Task.ID,
		OrderID:       c.Task.OrderID,
	}
	logger = logger.WithField("notification_id", n.ID)

	if err := s.createNotification(ctx, n, logger); err != nil {
		logger.WithError(err).Error("Failed to create notification, alarm stays eligible")
		return itemResult{outcome: outcomeFailed, err: fmt.Errorf("creating notification: %w", err)}
	}

	claimCtx, cancel := s.storeContext(ctx)
	claimed, err := s.alarms.ClaimIfUnsent(claimCtx, c.Alarm.ID, s.clock(), n.ID)
	cancel()
	if err != nil {
		// The claim may or may not have committed; the orphan sweep settles the notification.
		logger.WithError(err).Error("Failed to claim alarm")
		return itemResult{outcome: outcomeFailed, err: fmt.Errorf("claiming alarm %d: %w", c.Alarm.ID, err)}
	}

	if !claimed {
		logger.Info("Alarm already claimed by another run, marking notification as orphaned")
		orphanCtx, cancel := s.storeContext(ctx)
		if err := s.sink.MarkOrphaned(orphanCtx, n.ID); err != nil {
			logger.WithError(err).Warn("Failed to mark notification as orphaned, leaving it to the sweep")
		}
		cancel()
		return itemResult{outcome: outcomeClaimLost}
	}

	logger.WithField("priority", n.Priority).Info("Alarm notification created")
	return itemResult{outcome: outcomeSucceeded}
}

// createNotification retries transient sink failures with exponential backoff.
// The notification ID is fixed before the first attempt, so retries cannot duplicate it.
func (s *EscalationService) createNotification(ctx context.Context, n *notification.Notification, logger *logrus.Entry) error {
	backoff := s.cfg.SinkRetryBackoff
	for attempt := 0; ; attempt++ {
		callCtx, cancel := s.storeContext(ctx)
		err := s.sink.Create(callCtx, n)
		cancel()
		if err == nil {
			return nil
		}
		if !errors.Is(err, notification.ErrSinkUnavailable) || attempt >= s.cfg.SinkRetries {
			return err
		}

		logger.WithError(err).WithField("attempt", attempt+1).Warn("Notification sink unavailable, retrying")
		timer := time.NewTimer(backoff)
		select {
		case <-timer.C:
		case <-ctx.Done():
			timer.Stop()
			return err
		}
		backoff *= 2
	}
}

func (s *EscalationService) storeContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, s.cfg.StoreTimeout)
}

func (s *EscalationService) alert(ctx context.Context, a Alert) {
	alertCtx, cancel := s.storeContext(context.WithoutCancel(ctx))
	defer cancel()
	if err := s.alerter.Alert(alertCtx, a); err != nil {
		s.logger.WithError(err).WithField("alert_kind", a.Kind).Warn("Failed to deliver operator alert")
	}
}

func describeMissingTemplates(missing map[notification.TemplateType]int) string {
	types := make([]string, 0, len(missing))
	for t, count := range missing {
		types = append(types, fmt.Sprintf("%s (%d alarms)", t, count))
	}
	slices.Sort(types)
	return "Notification templates missing: " + strings.Join(types, ", ")
}

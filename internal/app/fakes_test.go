package app

import (
	"context"
	"database/sql"
	"errors"
	"io"
	"sort"
	"sync"
	"time"

	"todo_alarm_notifier/internal/domain/alarm"
	"todo_alarm_notifier/internal/domain/notification"
	"todo_alarm_notifier/internal/domain/task"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

var testNow = time.Date(2026, 10, 15, 9, 0, 0, 0, time.UTC)

func testLogger() *logrus.Entry {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return logrus.NewEntry(l)
}

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

// fakeAlarmRepo keeps alarms in memory and implements the claim as a compare-and-set under a mutex.
type fakeAlarmRepo struct {
	mu     sync.Mutex
	alarms map[int64]*alarm.Alarm
	tasks  map[int64]task.Task

	listErr  error
	claimErr error
	// afterList, when set, runs inside ListEligible after the snapshot is taken.
	afterList func()
	listCalls int
	// blockReads makes the read queries wait for their context to end.
	blockReads bool
}

func newFakeAlarmRepo() *fakeAlarmRepo {
	return &fakeAlarmRepo{
		alarms: make(map[int64]*alarm.Alarm),
		tasks:  make(map[int64]task.Task),
	}
}

func (r *fakeAlarmRepo) addTask(t task.Task) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tasks[t.ID] = t
}

func (r *fakeAlarmRepo) addAlarm(a alarm.Alarm) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.alarms[a.ID] = &a
}

func (r *fakeAlarmRepo) blocking() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.blockReads
}

func (r *fakeAlarmRepo) get(id int64) alarm.Alarm {
	r.mu.Lock()
	defer r.mu.Unlock()
	return *r.alarms[id]
}

func (r *fakeAlarmRepo) eligible(now time.Time, lookahead time.Duration) []*alarm.Candidate {
	var out []*alarm.Candidate
	for _, a := range r.alarms {
		t, ok := r.tasks[a.TaskID]
		if !ok || !t.Active || a.Completed || a.NotificationSent || a.Deadline.After(now.Add(lookahead)) {
			continue
		}
		out = append(out, &alarm.Candidate{Alarm: *a, Task: t})
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Alarm.Deadline.Equal(out[j].Alarm.Deadline) {
			return out[i].Alarm.Deadline.Before(out[j].Alarm.Deadline)
		}
		return out[i].Alarm.ID < out[j].Alarm.ID
	})
	return out
}

func (r *fakeAlarmRepo) ListEligible(ctx context.Context, now time.Time, lookahead time.Duration, limit int) ([]*alarm.Candidate, error) {
	r.mu.Lock()
	r.listCalls++
	if r.listErr != nil {
		err := r.listErr
		r.mu.Unlock()
		return nil, err
	}
	if r.blockReads {
		r.mu.Unlock()
		<-ctx.Done()
		return nil, ctx.Err()
	}
	out := r.eligible(now, lookahead)
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	hook := r.afterList
	r.mu.Unlock()

	if hook != nil {
		hook()
	}
	return out, nil
}

func (r *fakeAlarmRepo) ClaimIfUnsent(_ context.Context, alarmID int64, notifiedAt time.Time, notificationID uuid.UUID) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.claimErr != nil {
		return false, r.claimErr
	}
	a, ok := r.alarms[alarmID]
	if !ok || a.NotificationSent {
		return false, nil
	}
	a.NotificationSent = true
	a.NotifiedAt = sql.NullTime{Time: notifiedAt, Valid: true}
	a.LastNotificationID = uuid.NullUUID{UUID: notificationID, Valid: true}
	return true, nil
}

func (r *fakeAlarmRepo) CountEligible(ctx context.Context, now time.Time, lookahead time.Duration) (int, error) {
	if r.blocking() {
		<-ctx.Done()
		return 0, ctx.Err()
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.eligible(now, lookahead)), nil
}

func (r *fakeAlarmRepo) AverageDelay(ctx context.Context) (time.Duration, error) {
	if r.blocking() {
		<-ctx.Done()
		return 0, ctx.Err()
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	var total time.Duration
	var n int
	for _, a := range r.alarms {
		if a.NotificationSent && a.NotifiedAt.Valid {
			total += a.NotifiedAt.Time.Sub(a.Deadline)
			n++
		}
	}
	if n == 0 {
		return 0, nil
	}
	return total / time.Duration(n), nil
}

// fakeSink stores notifications in memory. failures makes the next N Create calls fail.
type fakeSink struct {
	mu            sync.Mutex
	notifications map[uuid.UUID]*notification.Notification
	order         []uuid.UUID
	createCalls   []uuid.UUID
	failures      int
	failErr       error
	sweepCutoff   time.Time
	blockSweep    bool
}

func newFakeSink() *fakeSink {
	return &fakeSink{notifications: make(map[uuid.UUID]*notification.Notification)}
}

func (s *fakeSink) Create(_ context.Context, n *notification.Notification) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if n.ID == uuid.Nil {
		n.ID = uuid.New()
	}
	s.createCalls = append(s.createCalls, n.ID)
	if s.failures > 0 {
		s.failures--
		if s.failErr != nil {
			return s.failErr
		}
		return errors.Join(notification.ErrSinkUnavailable, errors.New("connection refused"))
	}
	if _, exists := s.notifications[n.ID]; exists {
		return nil
	}
	stored := *n
	stored.CreatedAt = testNow
	s.notifications[n.ID] = &stored
	s.order = append(s.order, n.ID)
	return nil
}

func (s *fakeSink) MarkOrphaned(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if n, ok := s.notifications[id]; ok {
		n.Status = notification.StatusOrphaned
	}
	return nil
}

func (s *fakeSink) SweepUnclaimed(ctx context.Context, createdBefore time.Time) (int64, error) {
	s.mu.Lock()
	block := s.blockSweep
	s.mu.Unlock()
	if block {
		<-ctx.Done()
		return 0, ctx.Err()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sweepCutoff = createdBefore
	return 0, nil
}

func (s *fakeSink) CountOrphaned(_ context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int
	for _, item := range s.notifications {
		if item.Status == notification.StatusOrphaned {
			n++
		}
	}
	return n, nil
}

func (s *fakeSink) all() []notification.Notification {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]notification.Notification, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, *s.notifications[id])
	}
	return out
}

type fakeTemplates map[notification.TemplateType]notification.Template

func defaultFakeTemplates() fakeTemplates {
	return fakeTemplates{
		notification.TemplateAlarmNormal:  {Type: notification.TemplateAlarmNormal, Title: "Reminder: {todo_title}", Body: "Due {alarm_datetime}. {todo_note}"},
		notification.TemplateAlarmHigh:    {Type: notification.TemplateAlarmHigh, Title: "URGENT: {todo_title}", Body: "Due at {alarm_time}. {todo_note}"},
		notification.TemplateAlarmExpired: {Type: notification.TemplateAlarmExpired, Title: "Overdue: {todo_title}", Body: "Was due {alarm_datetime}."},
	}
}

func (f fakeTemplates) Resolve(_ context.Context, t notification.TemplateType) (*notification.Template, error) {
	tpl, ok := f[t]
	if !ok {
		return nil, notification.ErrTemplateNotFound
	}
	return &tpl, nil
}

type recordingAlerter struct {
	mu     sync.Mutex
	alerts []Alert
}

func (a *recordingAlerter) Alert(_ context.Context, alert Alert) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.alerts = append(a.alerts, alert)
	return nil
}

func (a *recordingAlerter) recorded() []Alert {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]Alert(nil), a.alerts...)
}

package telegram

import (
	"context"
	"fmt"
	"sync"
	"time"

	"todo_alarm_notifier/internal/app"
	"todo_alarm_notifier/internal/domain/telegram"

	"github.com/sirupsen/logrus"
)

// DefaultAlertCooldown suppresses repeats of an alert kind, e.g. a missing template
// reported by every cycle.
const DefaultAlertCooldown = 30 * time.Minute

// Alerter sends operator alerts to the admin's private chat.
type Alerter struct {
	client      telegram.Client
	adminChatID int64
	cooldown    time.Duration
	logger      *logrus.Entry
	clock       func() time.Time

	mu       sync.Mutex
	lastSent map[app.AlertKind]time.Time
}

func NewAlerter(client telegram.Client, adminChatID int64, cooldown time.Duration, logger *logrus.Entry) *Alerter {
	return &Alerter{
		client:      client,
		adminChatID: adminChatID,
		cooldown:    cooldown,
		logger:      logger,
		clock:       time.Now,
		lastSent:    make(map[app.AlertKind]time.Time),
	}
}

func (a *Alerter) Alert(ctx context.Context, alert app.Alert) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	key := alert.Kind
	now := a.clock()

	a.mu.Lock()
	if last, ok := a.lastSent[key]; ok && now.Sub(last) < a.cooldown {
		a.mu.Unlock()
		a.logger.WithField("alert_kind", alert.Kind).Debug("Alert suppressed, sent recently")
		return nil
	}
	a.lastSent[key] = now
	a.mu.Unlock()

	text := fmt.Sprintf("⚠️ %s\n%s", alert.Kind, alert.Message)
	if err := a.client.SendText(a.adminChatID, text); err != nil {
		a.mu.Lock()
		delete(a.lastSent, key)
		a.mu.Unlock()
		return fmt.Errorf("failed to send alert to admin: %w", err)
	}
	return nil
}

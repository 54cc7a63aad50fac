package telegram

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"todo_alarm_notifier/internal/app"

	"github.com/sirupsen/logrus"
	"gopkg.in/telebot.v3"
)

const unauthorizedReply = "Error: you are not allowed to run this command."

// RegisterAdminHandlers registers the operator commands. Every command is checked against
// the admin ID here and again in the service.
func RegisterAdminHandlers(ctx context.Context, b *telebot.Bot, adminService *app.AdminService, adminTelegramID int64, baseLogger *logrus.Entry) {
	b.Handle("/stats", func(c telebot.Context) error {
		handlerLogger := commandLogger(baseLogger, "/stats", c)
		if c.Sender().ID != adminTelegramID {
			handlerLogger.Warn("Unauthorized access attempt")
			return c.Send(unauthorizedReply)
		}

		stats, err := adminService.Stats(ctx, c.Sender().ID)
		if err != nil {
			return replyError(c, handlerLogger, err, "Failed to collect stats")
		}
		handlerLogger.WithField("eligible", stats.Eligible).Info("Stats sent")
		return c.Send(FormatStats(stats))
	})

	b.Handle("/run_cycle", func(c telebot.Context) error {
		handlerLogger := commandLogger(baseLogger, "/run_cycle", c)
		if c.Sender().ID != adminTelegramID {
			handlerLogger.Warn("Unauthorized access attempt")
			return c.Send(unauthorizedReply)
		}

		report, err := adminService.RunCycle(ctx, c.Sender().ID)
		if err != nil {
			return replyError(c, handlerLogger, err, "Manual cycle failed")
		}
		handlerLogger.WithField("report", report.String()).Info("Manual cycle finished")
		return c.Send(FormatCycleReport(report))
	})

	b.Handle("/sweep_orphans", func(c telebot.Context) error {
		handlerLogger := commandLogger(baseLogger, "/sweep_orphans", c)
		if c.Sender().ID != adminTelegramID {
			handlerLogger.Warn("Unauthorized access attempt")
			return c.Send(unauthorizedReply)
		}

		marked, err := adminService.SweepOrphans(ctx, c.Sender().ID)
		if err != nil {
			return replyError(c, handlerLogger, err, "Orphan sweep failed")
		}
		handlerLogger.WithField("marked", marked).Info("Orphan sweep finished")
		return c.Send(fmt.Sprintf("Orphan sweep finished: %d notification(s) marked as orphaned.", marked))
	})
}

func commandLogger(base *logrus.Entry, command string, c telebot.Context) *logrus.Entry {
	l := base.WithFields(logrus.Fields{
		"handler":   command,
		"sender_id": c.Sender().ID,
	})
	l.Info("Command received")
	return l
}

func replyError(c telebot.Context, l *logrus.Entry, err error, what string) error {
	if errors.Is(err, app.ErrAdminNotAuthorized) {
		l.WithError(err).Warn("Admin not authorized (service level)")
		return c.Send(unauthorizedReply)
	}
	l.WithError(err).Error(what)
	return c.Send(fmt.Sprintf("%s: %s", what, err.Error()))
}

// FormatStats renders a monitoring snapshot for chat.
func FormatStats(s *app.Stats) string {
	var b strings.Builder
	b.WriteString("--- Escalation stats ---\n")
	fmt.Fprintf(&b, "Taken at: %s\n", s.TakenAt.UTC().Format(time.RFC3339))
	fmt.Fprintf(&b, "Waiting alarms: %d\n", s.Eligible)
	fmt.Fprintf(&b, "Average delay after deadline: %s\n", s.AverageDelay)
	fmt.Fprintf(&b, "Orphaned notifications: %d", s.Orphaned)
	return b.String()
}

// FormatCycleReport renders a cycle summary, listing at most a handful of failures.
func FormatCycleReport(r *app.CycleReport) string {
	const maxListed = 5

	var b strings.Builder
	fmt.Fprintf(&b, "Cycle finished in %s\n", r.Duration.Round(time.Millisecond))
	fmt.Fprintf(&b, "Attempted: %d, succeeded: %d, claimed elsewhere: %d, failed: %d",
		r.Attempted, r.Succeeded, r.ClaimLost, r.Failed)
	for i, f := range r.Failures {
		if i == maxListed {
			fmt.Fprintf(&b, "\n... and %d more", len(r.Failures)-maxListed)
			break
		}
		fmt.Fprintf(&b, "\nalarm %d (task %d): %v", f.AlarmID, f.TaskID, f.Err)
	}
	return b.String()
}

package cli

import (
	"context"
	"fmt"
	"time"

	"todo_alarm_notifier/internal/app"
	"todo_alarm_notifier/internal/domain/notification"
	"todo_alarm_notifier/internal/infra/config"
	"todo_alarm_notifier/internal/infra/database"
	"todo_alarm_notifier/internal/infra/logger"
	"todo_alarm_notifier/internal/infra/telegram"
	"todo_alarm_notifier/internal/infra/templates"

	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"
	"gopkg.in/telebot.v3"
)

// environment is everything a command needs, built from configuration.
type environment struct {
	cfg        *config.AppConfig
	log        *logrus.Logger
	db         *sqlx.DB
	bot        *telebot.Bot // nil without TELEGRAM_TOKEN
	escalation *app.EscalationService
	monitoring *app.MonitoringService
}

type setupOptions struct {
	migrate     bool
	pollUpdates bool // Run the bot with a long poller instead of send-only
}

func setup(ctx context.Context, opts setupOptions) (*environment, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("could not load application configuration: %w", err)
	}

	log := logger.Init(cfg.LogLevel, cfg.Environment)
	log.WithFields(logrus.Fields{
		"driver":      cfg.DatabaseDriver,
		"environment": cfg.Environment,
		"templates":   cfg.TemplateSource,
	}).Info("Configuration loaded")

	db, err := database.Open(cfg.DatabaseDriver, cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("could not connect to database: %w", err)
	}
	env := &environment{cfg: cfg, log: log, db: db}

	if opts.migrate {
		if err := database.Migrate(ctx, db); err != nil {
			env.Close()
			return nil, err
		}
		log.Info("Database schema is up to date")
	}

	var templateStore notification.TemplateStore
	switch cfg.TemplateSource {
	case config.TemplateSourceFile:
		fileStore, err := templates.LoadFile(cfg.TemplateFile)
		if err != nil {
			env.Close()
			return nil, err
		}
		templateStore = fileStore
	default:
		templateStore = database.NewTemplateRepository(db)
	}

	alarms := database.NewAlarmRepository(db)
	sink := database.NewNotificationRepository(db)
	escCfg := cfg.Escalation()
	engineLogger := logger.Component("escalation")

	var escOpts []app.EscalationOption
	if cfg.TelegramToken != "" {
		env.bot, err = newBot(cfg.TelegramToken, opts.pollUpdates, log)
		if err != nil {
			env.Close()
			return nil, err
		}
		alerter := telegram.NewAlerter(telegram.NewTelebotAdapter(env.bot), cfg.AdminTelegramID,
			telegram.DefaultAlertCooldown, logger.Component("alerter"))
		escOpts = append(escOpts, app.WithAlerter(alerter))
	}

	env.escalation, err = app.NewEscalationService(alarms, sink, templateStore, escCfg, engineLogger, escOpts...)
	if err != nil {
		env.Close()
		return nil, err
	}
	env.monitoring = app.NewMonitoringService(alarms, sink, escCfg, logger.Component("monitoring"))

	return env, nil
}

func newBot(token string, poll bool, log *logrus.Logger) (*telebot.Bot, error) {
	pref := telebot.Settings{
		Token:   token,
		Offline: !poll,
		OnError: func(err error, c telebot.Context) {
			entry := log.WithError(err).WithField("component", "telebot")
			if c != nil && c.Sender() != nil {
				entry = entry.WithField("sender_id", c.Sender().ID)
			}
			entry.Error("Telegram bot error")
		},
	}
	if poll {
		pref.Poller = &telebot.LongPoller{Timeout: 10 * time.Second}
	}
	bot, err := telebot.NewBot(pref)
	if err != nil {
		return nil, fmt.Errorf("could not create Telegram bot: %w", err)
	}
	return bot, nil
}

func (e *environment) Close() {
	if e.db != nil {
		e.db.Close()
	}
}

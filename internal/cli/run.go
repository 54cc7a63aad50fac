package cli

import (
	"context"
	"os/signal"
	"syscall"

	"todo_alarm_notifier/internal/app"
	"todo_alarm_notifier/internal/infra/logger"
	"todo_alarm_notifier/internal/infra/scheduler"
	"todo_alarm_notifier/internal/infra/telegram"

	"github.com/spf13/cobra"
)

type runOptions struct {
	migrate bool
}

// NewRunCommand creates the long-running service command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &runOptions{}

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run escalation cycles on a schedule until interrupted",
		Long: `Run escalation cycles every CYCLE_INTERVAL (or on CYCLE_CRON_SPEC) and sweep
orphaned notifications. With TELEGRAM_TOKEN set, operator alerts go to the admin
chat and the admin bot commands are served.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runService(commandContext(cmd), opts)
		},
	}

	cmd.Flags().BoolVar(&opts.migrate, "migrate", false, "apply the database schema before starting")

	return cmd
}

func runService(parent context.Context, opts *runOptions) error {
	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	env, err := setup(ctx, setupOptions{migrate: opts.migrate, pollUpdates: true})
	if err != nil {
		return err
	}
	defer env.Close()
	log := env.log

	sched := scheduler.NewEscalationScheduler(env.escalation, env.monitoring, scheduler.Options{
		CycleInterval: env.cfg.CycleInterval,
		CycleCronSpec: env.cfg.CycleCronSpec,
		RunOnStart:    env.cfg.RunOnStart,
		SweepInterval: env.cfg.OrphanSweepInterval,
		SweepTimeout:  env.cfg.StoreTimeout,
		Location:      env.cfg.Location,
	}, logger.Component("scheduler"))
	if err := sched.Start(); err != nil {
		return err
	}

	if env.bot != nil {
		adminService := app.NewAdminService(env.monitoring, env.escalation, env.cfg.AdminTelegramID)
		botLogger := logger.Component("bot")
		telegram.RegisterBotCommands(env.bot, env.cfg.AdminTelegramID, botLogger)
		telegram.RegisterAdminHandlers(ctx, env.bot, adminService, env.cfg.AdminTelegramID, botLogger)
		go env.bot.Start()
		log.Info("Admin bot started")
	}

	log.Info("Application setup complete, waiting for shutdown signal")
	<-ctx.Done()

	log.Info("Shutting down application...")
	if env.bot != nil {
		env.bot.Stop()
	}
	sched.Stop()
	log.Info("Application shut down gracefully")
	return nil
}

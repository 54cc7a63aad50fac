package cli

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
)

// NewCycleCommand creates the one-shot cycle command, meant for crontab or systemd timers.
func NewCycleCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "cycle",
		Short: "Run a single escalation cycle and print its report",
		Long: `Run a single escalation cycle and print its report.

Exits non-zero when the eligible alarms could not be listed. Per-alarm failures
are reported but do not change the exit code; those alarms are retried next cycle.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(commandContext(cmd), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			env, err := setup(ctx, setupOptions{})
			if err != nil {
				return err
			}
			defer env.Close()

			report, err := env.escalation.RunCycle(ctx, time.Now())
			if err != nil {
				return err
			}
			return writeReport(cmd.OutOrStdout(), rootOpts.Format, report)
		},
	}
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

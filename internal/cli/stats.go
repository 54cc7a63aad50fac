package cli

import (
	"time"

	"github.com/spf13/cobra"
)

// NewStatsCommand creates the monitoring snapshot command.
func NewStatsCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Print waiting alarms, average notification delay and orphan count",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := commandContext(cmd)
			env, err := setup(ctx, setupOptions{})
			if err != nil {
				return err
			}
			defer env.Close()

			stats, err := env.monitoring.Snapshot(ctx, time.Now())
			if err != nil {
				return err
			}
			return writeStats(cmd.OutOrStdout(), rootOpts.Format, stats)
		},
	}
}

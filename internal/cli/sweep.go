package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

// NewSweepCommand creates the orphan sweep command.
func NewSweepCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "sweep",
		Short: "Mark unclaimed notifications older than ORPHAN_GRACE_PERIOD as orphaned",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := commandContext(cmd)
			env, err := setup(ctx, setupOptions{})
			if err != nil {
				return err
			}
			defer env.Close()

			marked, err := env.monitoring.SweepOrphans(ctx, time.Now())
			if err != nil {
				return err
			}
			if rootOpts.Format == "json" {
				return writeJSON(cmd.OutOrStdout(), map[string]int64{"marked": marked})
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "marked %d notification(s) as orphaned\n", marked)
			return err
		},
	}
}

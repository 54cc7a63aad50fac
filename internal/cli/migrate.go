package cli

import (
	"fmt"

	"todo_alarm_notifier/internal/infra/config"
	"todo_alarm_notifier/internal/infra/database"
	"todo_alarm_notifier/internal/infra/logger"

	"github.com/spf13/cobra"
)

// NewMigrateCommand creates the schema command.
func NewMigrateCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create the notifier tables and seed the default templates",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("could not load application configuration: %w", err)
			}
			log := logger.Init(cfg.LogLevel, cfg.Environment)

			db, err := database.Open(cfg.DatabaseDriver, cfg.DatabaseURL)
			if err != nil {
				return fmt.Errorf("could not connect to database: %w", err)
			}
			defer db.Close()

			if err := database.Migrate(commandContext(cmd), db); err != nil {
				return err
			}
			log.WithField("driver", cfg.DatabaseDriver).Info("Database schema is up to date")
			_, err = fmt.Fprintln(cmd.OutOrStdout(), "schema applied")
			return err
		},
	}
}

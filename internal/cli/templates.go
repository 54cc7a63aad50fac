package cli

import (
	"fmt"

	"todo_alarm_notifier/internal/infra/config"
	"todo_alarm_notifier/internal/infra/database"
	"todo_alarm_notifier/internal/infra/logger"
	"todo_alarm_notifier/internal/infra/templates"

	"github.com/spf13/cobra"
)

// NewTemplatesCommand groups template management commands.
func NewTemplatesCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "templates",
		Short: "Manage alarm notification templates",
	}
	cmd.AddCommand(newTemplatesSyncCommand(rootOpts))
	return cmd
}

func newTemplatesSyncCommand(rootOpts *RootOptions) *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Copy templates from a YAML file into the database, replacing existing ones",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("could not load application configuration: %w", err)
			}
			log := logger.Init(cfg.LogLevel, cfg.Environment)
			if file == "" {
				file = cfg.TemplateFile
			}

			store, err := templates.LoadFile(file)
			if err != nil {
				return err
			}

			db, err := database.Open(cfg.DatabaseDriver, cfg.DatabaseURL)
			if err != nil {
				return fmt.Errorf("could not connect to database: %w", err)
			}
			defer db.Close()

			repo := database.NewTemplateRepository(db)
			ctx := commandContext(cmd)
			for _, tpl := range store.All() {
				if err := repo.Upsert(ctx, tpl); err != nil {
					return err
				}
				log.WithField("template_type", tpl.Type).Info("Template synced")
				if _, err := fmt.Fprintf(cmd.OutOrStdout(), "synced %s\n", tpl.Type); err != nil {
					return err
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "template YAML file (defaults to TEMPLATE_FILE)")
	return cmd
}

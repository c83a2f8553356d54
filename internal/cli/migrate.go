package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dgallion1/planreport/internal/config"
	"github.com/dgallion1/planreport/internal/events"
	"github.com/dgallion1/planreport/internal/planstore"
	"github.com/dgallion1/planreport/internal/tabledb/backend"
)

func (a *App) newMigrateCmd() *cobra.Command {
	var envFile string
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Create the plan and event tables in the configured database",
		Long: `Migrate creates the normalized plan tables and the marketing event
tables. The database is chosen by DB_DRIVER and DATABASE_URL, read from
the environment or an .env file. Hosted REST backends cannot be migrated
from here.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if err := config.LoadDotEnv(envFile); err != nil {
				return err
			}
			cfg := config.Load()

			db, closeDB, err := backend.Open(ctx, cfg)
			if err != nil {
				return err
			}
			defer closeDB()

			plans := planstore.New(db, a.log)
			if err := plans.Migrate(ctx); err != nil {
				return err
			}
			if err := events.NewService(db, a.log).Migrate(ctx); err != nil {
				return err
			}
			v, err := plans.SchemaVersion(ctx)
			if err != nil {
				return err
			}
			fmt.Fprintf(a.stdout, "migrated %s database (plan schema v%d)\n", cfg.DBDriver, v)
			return nil
		},
	}
	cmd.Flags().StringVar(&envFile, "env", ".env", "Environment file to load")
	return cmd
}

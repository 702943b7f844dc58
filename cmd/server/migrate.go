// cmd/server/migrate.go
package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"receipt-emulator/internal/config"
	"receipt-emulator/internal/database"
	"receipt-emulator/internal/utils"
)

func newMigrateCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate <up|down|version>",
		Short: "Manage the PostgreSQL job index schema",
		Long: `Apply or roll back the job index schema without starting the emulator.
The database section of the configuration must be enabled.`,
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{"up", "down", "version"},
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return fmt.Errorf("failed to load configuration: %w", err)
			}
			if !cfg.Database.Enabled {
				return fmt.Errorf("database is disabled in the configuration")
			}

			logger, err := utils.NewLogger(&cfg.Logging)
			if err != nil {
				return fmt.Errorf("failed to initialize logger: %w", err)
			}
			defer utils.CloseLogger(logger)

			db, err := database.NewConnection(cfg, logger)
			if err != nil {
				return err
			}
			defer db.Close()

			migrator := database.NewMigrator(db, logger)
			switch args[0] {
			case "up":
				return migrator.Up()
			case "down":
				return migrator.Down()
			case "version":
				version, dirty, ok, err := migrator.Version()
				if err != nil {
					return err
				}
				if !ok {
					fmt.Fprintln(cmd.OutOrStdout(), "no migration applied")
					return nil
				}
				fmt.Fprintf(cmd.OutOrStdout(), "version %d (dirty: %t)\n", version, dirty)
				return nil
			default:
				return fmt.Errorf("unknown migration command: %s", args[0])
			}
		},
	}
}

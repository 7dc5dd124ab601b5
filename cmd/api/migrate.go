package main

import (
	"log/slog"
	"os"

	"municipal-portal/internal/config"
	"municipal-portal/internal/infrastructure/db"
	"municipal-portal/internal/infrastructure/logging"

	"github.com/spf13/cobra"
)

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply or roll back the ledger schema",
	}
	cmd.AddCommand(migrateStep("up", "Apply all pending migrations", db.Migrate))
	cmd.AddCommand(migrateStep("down", "Roll back the last migration", db.Rollback))
	return cmd
}

func migrateStep(use, short string, run func(url string, logger *slog.Logger) error) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if err := cfg.ValidateDB(); err != nil {
				return err
			}
			level, err := logging.ParseLevel(cfg.LogLevel)
			if err != nil {
				return err
			}
			return run(cfg.MigrateURL(), logging.New(level, "text", os.Stderr))
		},
	}
}

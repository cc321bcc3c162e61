package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"dlms/internal/platform/postgres"
)

func migrateCmd(envFile *string) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply the database schema",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, log, err := load(*envFile)
			if err != nil {
				return err
			}
			if cfg.DatabaseURL == "" {
				return fmt.Errorf("migrate needs DATABASE_URL")
			}
			db, err := postgres.Open(cmd.Context(), postgres.Config{DSN: cfg.DatabaseURL})
			if err != nil {
				return err
			}
			defer db.Close()

			if err := postgres.Migrate(cmd.Context(), db); err != nil {
				return err
			}
			log.InfoContext(cmd.Context(), "schema applied")
			return nil
		},
	}
}

package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"dlms/pkg/requestcontext"
)

func sweepCmd(envFile *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sweep-licenses",
		Short: "Expire every valid license whose expiry date has passed",
		Long: `Run one license expiry sweep and exit. Useful from cron when serve
runs with DLMS_SWEEP_INTERVAL=0.

Example:
  dlms sweep-licenses
  dlms sweep-licenses --date 2025-07-01`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			date, _ := cmd.Flags().GetString("date")
			now := time.Now()
			today := now
			if date != "" {
				d, err := time.Parse(time.DateOnly, date)
				if err != nil {
					return fmt.Errorf("--date must be YYYY-MM-DD: %w", err)
				}
				today = d
			}

			cfg, log, err := load(*envFile)
			if err != nil {
				return err
			}
			if cfg.DatabaseURL == "" {
				return fmt.Errorf("sweep-licenses needs DATABASE_URL; in-memory stores start empty")
			}
			a, err := newApp(cmd.Context(), cfg, log)
			if err != nil {
				return err
			}
			defer a.Close()

			n, err := a.licenses.ExpireOverdue(requestcontext.WithTime(cmd.Context(), now), today)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "expired %d license(s) as of %s\n", n, today.Format(time.DateOnly))
			return nil
		},
	}
	cmd.Flags().String("date", "", "treat this day (YYYY-MM-DD) as today")
	return cmd
}

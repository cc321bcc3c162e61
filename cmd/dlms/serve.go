package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"dlms/internal/platform/config"
	"dlms/internal/platform/httpserver"
	"dlms/internal/platform/logger"
	"dlms/internal/seed"
	httptransport "dlms/internal/transport/http"
	"dlms/pkg/requestcontext"
)

const shutdownTimeout = 10 * time.Second

func serveCmd(envFile *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and the periodic license expiry sweep",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			cfg, log, err := load(*envFile)
			if err != nil {
				return err
			}
			a, err := newApp(ctx, cfg, log)
			if err != nil {
				return err
			}
			defer a.Close()

			if cfg.SeedFile != "" {
				f, err := seed.Load(cfg.SeedFile)
				if err != nil {
					return err
				}
				if _, err := f.Apply(requestcontext.WithTime(ctx, time.Now()), a.applicants, a.resources, log); err != nil {
					return err
				}
			}

			srv := httpserver.New(cfg.Addr, httptransport.NewRouter(a.routerConfig()))
			g, ctx := errgroup.WithContext(ctx)
			g.Go(func() error {
				log.InfoContext(ctx, "starting dlms", "addr", cfg.Addr, "version", version)
				return httpserver.Run(ctx, srv, shutdownTimeout)
			})
			if cfg.SweepInterval > 0 {
				g.Go(func() error {
					runSweeps(ctx, a, cfg.SweepInterval)
					return nil
				})
			}
			return g.Wait()
		},
	}
}

// runSweeps expires overdue licenses now and then every interval until ctx
// ends. A failed sweep is logged and retried on the next tick.
func runSweeps(ctx context.Context, a *app, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		now := time.Now()
		if _, err := a.licenses.ExpireOverdue(requestcontext.WithTime(ctx, now), now); err != nil {
			a.logger.ErrorContext(ctx, "license expiry sweep failed", "error", err)
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func load(envFile string) (config.Server, *slog.Logger, error) {
	cfg, err := config.Load(envFile)
	if err != nil {
		return config.Server{}, nil, fmt.Errorf("load config: %w", err)
	}
	return cfg, logger.New(cfg.LogLevel), nil
}

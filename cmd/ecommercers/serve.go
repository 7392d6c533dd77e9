// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 EcommerceRS Contributors

package main

import (
	"context"
	"errors"
	"log/slog"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/ecommercers/ecommercers/internal/config"
	"github.com/ecommercers/ecommercers/internal/observability"
)

// shutdownTimeout bounds graceful shutdown of the observability server.
const shutdownTimeout = 5 * time.Second

type serveConfig struct {
	autoMigrate bool
}

// NewServeCmd creates the serve command.
func NewServeCmd(deps *Deps) *cobra.Command {
	sc := &serveConfig{}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the auth service",
		Long: `Connect the credential store, session store and notifier, expose
metrics and health probes, and sweep expired sessions for the bolt
backend until interrupted.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd, sc, deps)
		},
	}

	cmd.Flags().BoolVar(&sc.autoMigrate, "auto-migrate", true, "apply pending migrations before starting")

	return cmd
}

func runServe(cmd *cobra.Command, sc *serveConfig, deps *Deps) error {
	cfg, logger, err := loadConfig(cmd, deps, (*config.Config).Validate)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.InfoContext(ctx, "starting auth service",
		"session_backend", cfg.Session.Backend,
		"notify_backend", cfg.Notify.Backend,
		"metrics_addr", cfg.Metrics.Addr,
	)

	if sc.autoMigrate {
		if err := autoMigrate(ctx, cfg, deps, logger); err != nil {
			return fail(cmd, logger, "auto-migration failed", err)
		}
	}

	var (
		a        *app
		obs      ObservabilityServer
		metrics  *observability.Metrics
		appReady = make(chan struct{})
	)
	if cfg.Metrics.Addr != "" {
		obs = deps.ObservabilityServerFactory(cfg.Metrics.Addr, func(ctx context.Context) error {
			select {
			case <-appReady:
				return a.ready(ctx)
			default:
				return errors.New("service starting")
			}
		})
		metrics = obs.Metrics()
	}

	a, err = buildApp(ctx, cfg, logger, deps, metrics)
	if err != nil {
		return fail(cmd, logger, "failed to start auth service", err)
	}
	defer a.Close()
	close(appReady)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var obsErrs <-chan error
	if obs != nil {
		obsErrs, err = obs.Start()
		if err != nil {
			return fail(cmd, logger, "failed to start observability server",
				oops.With("addr", cfg.Metrics.Addr).Wrap(err))
		}
		defer func() {
			shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer shutdownCancel()
			if err := obs.Stop(shutdownCtx); err != nil {
				logger.Warn("error stopping observability server", "error", err)
			}
		}()
		logger.InfoContext(ctx, "observability server started", "addr", obs.Addr())
	}

	var wg sync.WaitGroup
	if sw, ok := a.sessions.(sweeper); ok {
		wg.Add(1)
		go func() {
			defer wg.Done()
			sw.RunSweeper(ctx, cfg.Session.SweepInterval)
		}()
		logger.InfoContext(ctx, "session sweeper started", "interval", cfg.Session.SweepInterval)
	}
	defer wg.Wait()
	defer cancel()

	cmd.Println("Auth service started")

	select {
	case <-ctx.Done():
		logger.Info("shutting down")
	case err, ok := <-obsErrs:
		if !ok {
			err = oops.Code("OBSERVABILITY_STOPPED").
				With("addr", cfg.Metrics.Addr).
				Errorf("observability server stopped unexpectedly")
		}
		return fail(cmd, logger, "observability server failed", err)
	}
	return nil
}

// autoMigrate applies pending migrations before the service opens its pool.
func autoMigrate(ctx context.Context, cfg *config.Config, deps *Deps, logger *slog.Logger) error {
	if err := ctx.Err(); err != nil {
		return oops.Wrap(err)
	}
	m, err := deps.MigratorFactory(cfg.Database.URL, logger)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := m.Close(); closeErr != nil {
			logger.Warn("error closing migrator", "error", closeErr)
		}
	}()
	return m.Up()
}

// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 EcommerceRS Contributors

package main

import (
	"context"
	"log/slog"

	"github.com/samber/oops"

	"github.com/ecommercers/ecommercers/internal/auth"
	"github.com/ecommercers/ecommercers/internal/auth/postgres"
	"github.com/ecommercers/ecommercers/internal/config"
	"github.com/ecommercers/ecommercers/internal/notify"
	"github.com/ecommercers/ecommercers/internal/observability"
	"github.com/ecommercers/ecommercers/internal/session"
	"github.com/ecommercers/ecommercers/internal/store"
)

// app holds the wired auth service and the resources behind it.
type app struct {
	logger   *slog.Logger
	db       Database
	sessions session.Store
	bus      NATSConn
	service  *auth.Service
}

// buildApp connects every dependency named by cfg and assembles the
// service. metrics may be nil. On error nothing is left open.
func buildApp(ctx context.Context, cfg *config.Config, logger *slog.Logger, deps *Deps, metrics *observability.Metrics) (*app, error) {
	a := &app{logger: logger}
	ok := false
	defer func() {
		if !ok {
			a.Close()
		}
	}()

	var err error
	a.db, err = deps.DatabaseConnector(ctx, cfg.Database.URL, store.ConnectOptions{
		MaxConns: cfg.Database.MaxConns,
		Logger:   logger,
	})
	if err != nil {
		return nil, err
	}
	logger.InfoContext(ctx, "connected to database")

	sessionOpts := []session.Option{session.WithLogger(logger)}
	if metrics != nil {
		sessionOpts = append(sessionOpts, session.WithSweepRecorder(metrics))
	}
	a.sessions, err = deps.SessionStoreFactory(ctx, cfg.Session, sessionOpts...)
	if err != nil {
		return nil, err
	}
	logger.InfoContext(ctx, "session store ready", "backend", cfg.Session.Backend)

	notifier, err := a.notifier(cfg, deps)
	if err != nil {
		return nil, err
	}

	codec, err := auth.NewJWTCodec([]byte(cfg.Auth.JWTSecret))
	if err != nil {
		return nil, err
	}

	opts := []auth.ServiceOption{
		auth.WithLogger(logger),
		auth.WithTokenTTLs(cfg.Auth.AccessTTL, cfg.Auth.RefreshTTL),
	}
	if metrics != nil {
		opts = append(opts, auth.WithRecorder(metrics))
	}

	a.service, err = auth.NewService(
		postgres.NewUserRepository(a.db),
		a.sessions,
		auth.NewArgon2idHasher(),
		codec,
		notifier,
		opts...,
	)
	if err != nil {
		return nil, oops.With("operation", "create auth service").Wrap(err)
	}
	ok = true
	return a, nil
}

func (a *app) notifier(cfg *config.Config, deps *Deps) (auth.Notifier, error) {
	if cfg.Notify.Backend != config.NotifyBackendNATS {
		return notify.NewLogNotifier(a.logger), nil
	}
	conn, err := deps.NATSConnector(cfg.Notify.NATSURL, serviceName)
	if err != nil {
		return nil, err
	}
	a.bus = conn
	return notify.NewNATSNotifier(conn, notify.WithSubject(cfg.Notify.Subject))
}

// ready reports whether the database and session store answer.
func (a *app) ready(ctx context.Context) error {
	return observability.AllReady(a.db.Ping, a.sessions.Ping)(ctx)
}

// Close releases every resource that was opened.
func (a *app) Close() {
	if a.bus != nil {
		a.bus.Close()
	}
	if a.sessions != nil {
		if err := a.sessions.Close(); err != nil {
			a.logger.Warn("error closing session store", "error", err)
		}
	}
	if a.db != nil {
		a.db.Close()
	}
}

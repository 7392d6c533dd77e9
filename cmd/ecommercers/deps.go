// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 EcommerceRS Contributors

package main

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/ecommercers/ecommercers/internal/config"
	"github.com/ecommercers/ecommercers/internal/notify"
	"github.com/ecommercers/ecommercers/internal/observability"
	"github.com/ecommercers/ecommercers/internal/session"
	"github.com/ecommercers/ecommercers/internal/store"
)

// Deps contains injectable dependencies for the commands.
// All fields with nil values will use their default implementations.
type Deps struct {
	// DatabaseConnector opens the credential store pool.
	// Default: store.Connect
	DatabaseConnector func(ctx context.Context, url string, opts store.ConnectOptions) (Database, error)

	// MigratorFactory creates a schema migrator.
	// Default: store.NewMigrator
	MigratorFactory func(url string, logger *slog.Logger) (Migrator, error)

	// SessionStoreFactory opens the configured session store.
	// Default: openSessionStore
	SessionStoreFactory func(ctx context.Context, cfg config.SessionConfig, opts ...session.Option) (session.Store, error)

	// NATSConnector dials the message bus for the nats notifier.
	// Default: notify.Connect
	NATSConnector func(url, name string) (NATSConn, error)

	// ObservabilityServerFactory creates the metrics/health server.
	// Default: observability.NewServer
	ObservabilityServerFactory func(addr string, ready observability.ReadinessChecker) ObservabilityServer

	// LookupEnv reads environment variables.
	// Default: os.LookupEnv
	LookupEnv func(string) (string, bool)
}

func (d *Deps) withDefaults() *Deps {
	out := &Deps{}
	if d != nil {
		*out = *d
	}
	if out.DatabaseConnector == nil {
		out.DatabaseConnector = func(ctx context.Context, url string, opts store.ConnectOptions) (Database, error) {
			pool, err := store.Connect(ctx, url, opts)
			if err != nil {
				return nil, err
			}
			return pool, nil
		}
	}
	if out.MigratorFactory == nil {
		out.MigratorFactory = func(url string, logger *slog.Logger) (Migrator, error) {
			m, err := store.NewMigrator(url, logger)
			if err != nil {
				return nil, err
			}
			return m, nil
		}
	}
	if out.SessionStoreFactory == nil {
		out.SessionStoreFactory = openSessionStore
	}
	if out.NATSConnector == nil {
		out.NATSConnector = func(url, name string) (NATSConn, error) {
			conn, err := notify.Connect(url, name)
			if err != nil {
				return nil, err
			}
			return conn, nil
		}
	}
	if out.ObservabilityServerFactory == nil {
		out.ObservabilityServerFactory = func(addr string, ready observability.ReadinessChecker) ObservabilityServer {
			return observability.NewServer(addr, ready)
		}
	}
	if out.LookupEnv == nil {
		out.LookupEnv = os.LookupEnv
	}
	return out
}

// openSessionStore opens the backend named by cfg.Backend.
func openSessionStore(ctx context.Context, cfg config.SessionConfig, opts ...session.Option) (session.Store, error) {
	if cfg.Backend == config.SessionBackendBolt {
		s, err := session.OpenBolt(cfg.BoltPath, opts...)
		if err != nil {
			return nil, err
		}
		return s, nil
	}
	s, err := session.OpenRedis(ctx, cfg.RedisURL, opts...)
	if err != nil {
		return nil, err
	}
	return s, nil
}

// Database wraps the methods used from *pgxpool.Pool.
type Database interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Ping(ctx context.Context) error
	Close()
}

// Migrator wraps the methods used from store.Migrator.
type Migrator interface {
	Up() error
	Steps(n int) error
	Version() (version uint, dirty bool, err error)
	Force(version int) error
	PendingMigrations() ([]uint, error)
	AppliedMigrations() ([]uint, error)
	Close() error
}

// NATSConn wraps the methods used from *nats.Conn.
type NATSConn interface {
	notify.Publisher
	Close()
}

// ObservabilityServer wraps the methods used from observability.Server.
type ObservabilityServer interface {
	Start() (<-chan error, error)
	Stop(ctx context.Context) error
	Addr() string
	Metrics() *observability.Metrics
}

// sweeper is implemented by session stores without native expiry.
type sweeper interface {
	Sweep(ctx context.Context) (int, error)
	RunSweeper(ctx context.Context, interval time.Duration)
}

// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 EcommerceRS Contributors

package main

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/ecommercers/ecommercers/internal/config"
	"github.com/ecommercers/ecommercers/internal/logging"
	"github.com/ecommercers/ecommercers/pkg/errutil"
)

const serviceName = "ecommercers"

// NewRootCmd creates the root command for the ecommercers CLI.
func NewRootCmd() *cobra.Command {
	return newRootCmd(nil)
}

func newRootCmd(deps *Deps) *cobra.Command {
	deps = deps.withDefaults()

	cmd := &cobra.Command{
		Use:   "ecommercers",
		Short: "ecommercers - authentication and session service",
		Long: `ecommercers issues password credentials, short-lived access tokens and
revocable refresh tokens for the shop backend, and provides operator
commands for schema migrations and session maintenance.`,
		SilenceUsage: true,
	}

	cmd.PersistentFlags().String("config", "", "config file path (default: XDG_CONFIG_HOME/ecommercers/config.yaml)")
	config.RegisterFlags(cmd.PersistentFlags())

	cmd.AddCommand(NewMigrateCmd(deps))
	cmd.AddCommand(NewServeCmd(deps))
	cmd.AddCommand(NewUsersCmd(deps))
	cmd.AddCommand(NewSessionsCmd(deps))
	cmd.AddCommand(NewConfigCmd(deps))

	return cmd
}

// loadConfig reads configuration for cmd, applies check, and returns a
// logger writing to the command's stderr.
func loadConfig(cmd *cobra.Command, deps *Deps, check func(*config.Config) error) (*config.Config, *slog.Logger, error) {
	path, err := cmd.Flags().GetString("config")
	if err != nil {
		path = ""
	}

	cfg, err := config.Load(config.LoadOptions{
		Path:      path,
		Flags:     cmd.Flags(),
		LookupEnv: deps.LookupEnv,
	})
	if err != nil {
		return nil, nil, err
	}
	if err := check(cfg); err != nil {
		return nil, nil, err
	}

	level, err := logging.ParseLevel(cfg.Log.Level)
	if err != nil {
		return nil, nil, err
	}
	logger := logging.SetupLevel(serviceName, version, cfg.Log.Format, level, cmd.ErrOrStderr())
	return cfg, logger, nil
}

// fail logs err with its code and context, then returns it for cobra.
func fail(cmd *cobra.Command, logger *slog.Logger, msg string, err error) error {
	if logger != nil {
		errutil.LogErrorContext(cmd.Context(), logger, msg, err)
	}
	return err
}

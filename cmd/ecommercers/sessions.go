// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 EcommerceRS Contributors

package main

import (
	"strconv"

	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/ecommercers/ecommercers/internal/config"
	"github.com/ecommercers/ecommercers/internal/session"
)

// NewSessionsCmd creates the sessions command group.
func NewSessionsCmd(deps *Deps) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sessions",
		Short: "Maintain refresh-token sessions",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "revoke <user-id>",
		Short: "Revoke every session of a user",
		Long: `Delete every refresh token held by <user-id>, logging the user out on all
devices. Access tokens already issued stay valid until they expire.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			userID, err := parseUserID(args[0])
			if err != nil {
				return err
			}
			return runRevoke(cmd, deps, userID)
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "sweep",
		Short: "Delete expired sessions now",
		Long: `Remove expired refresh-token records from the bolt session store.
Redis expires records itself, so the redis backend has nothing to sweep.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runSweep(cmd, deps)
		},
	})

	return cmd
}

func parseUserID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, oops.Code("INVALID_USER_ID").With("input", s).Errorf("user id must be a positive integer")
	}
	return id, nil
}

func runRevoke(cmd *cobra.Command, deps *Deps, userID int64) error {
	cfg, logger, err := loadConfig(cmd, deps, (*config.Config).Validate)
	if err != nil {
		return err
	}

	a, err := buildApp(cmd.Context(), cfg, logger, deps, nil)
	if err != nil {
		return fail(cmd, logger, "failed to connect", err)
	}
	defer a.Close()

	if err := a.service.RevokeAllSessions(cmd.Context(), userID); err != nil {
		return fail(cmd, logger, "failed to revoke sessions", err)
	}

	cmd.Printf("Revoked all sessions for user %d\n", userID)
	return nil
}

func runSweep(cmd *cobra.Command, deps *Deps) error {
	cfg, logger, err := loadConfig(cmd, deps, (*config.Config).ValidateSessions)
	if err != nil {
		return err
	}

	store, err := deps.SessionStoreFactory(cmd.Context(), cfg.Session, session.WithLogger(logger))
	if err != nil {
		return fail(cmd, logger, "failed to open session store", err)
	}
	defer func() {
		if closeErr := store.Close(); closeErr != nil {
			logger.Warn("error closing session store", "error", closeErr)
		}
	}()

	sw, ok := store.(sweeper)
	if !ok {
		cmd.Printf("The %s session store expires records itself; nothing to sweep\n", cfg.Session.Backend)
		return nil
	}

	n, err := sw.Sweep(cmd.Context())
	if err != nil {
		return fail(cmd, logger, "session sweep failed", err)
	}
	cmd.Printf("Removed %d expired session(s)\n", n)
	return nil
}

// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 EcommerceRS Contributors

package main

import (
	"github.com/spf13/cobra"

	"github.com/ecommercers/ecommercers/internal/auth"
	"github.com/ecommercers/ecommercers/internal/config"
)

// NewUsersCmd creates the users command group.
func NewUsersCmd(deps *Deps) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "users",
		Short: "Manage user accounts",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "verify-email <email>",
		Short: "Mark a user's email address as verified",
		Long: `Mark the account registered under <email> as verified so it can log in.
Intended for support staff when the verification message never arrived.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runVerifyEmail(cmd, deps, args[0])
		},
	})

	return cmd
}

func runVerifyEmail(cmd *cobra.Command, deps *Deps, email string) error {
	cfg, logger, err := loadConfig(cmd, deps, (*config.Config).Validate)
	if err != nil {
		return err
	}

	a, err := buildApp(cmd.Context(), cfg, logger, deps, nil)
	if err != nil {
		return fail(cmd, logger, "failed to connect", err)
	}
	defer a.Close()

	if err := a.service.VerifyEmail(cmd.Context(), email); err != nil {
		if auth.IsKind(err, auth.KindInvalidCredentials) {
			cmd.PrintErrf("No user registered with %s\n", email)
		}
		return fail(cmd, logger, "failed to verify email", err)
	}

	cmd.Printf("Verified %s\n", email)
	return nil
}

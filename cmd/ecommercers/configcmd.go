// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 EcommerceRS Contributors

package main

import (
	"github.com/spf13/cobra"

	"github.com/ecommercers/ecommercers/internal/config"
)

// NewConfigCmd creates the config command group.
func NewConfigCmd(deps *Deps) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect and check configuration",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration as YAML",
		Long: `Print the configuration after defaults, the config file, environment
variables and flags are layered. The JWT secret is redacted.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, _, err := loadConfig(cmd, deps, func(*config.Config) error { return nil })
			if err != nil {
				return err
			}
			out, err := config.Marshal(cfg.Redacted())
			if err != nil {
				return err
			}
			cmd.Print(string(out))
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "validate",
		Short: "Check that the configuration can start the service",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if _, _, err := loadConfig(cmd, deps, (*config.Config).Validate); err != nil {
				return err
			}
			cmd.Println("Configuration OK")
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "schema",
		Short: "Print the JSON Schema for the config file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			schema, err := config.GenerateSchema()
			if err != nil {
				return err
			}
			cmd.Println(string(schema))
			return nil
		},
	})

	return cmd
}

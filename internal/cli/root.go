// Copyright (c) 2025 Mensahe
//
// This file is part of the Mensahe passkey service.
//
// Licensed under the GNU Affero General Public License v3.0 (AGPL-3.0).
// See LICENSE file or visit https://www.gnu.org/licenses/agpl-3.0.html

// Package cli implements the passkey-server command line interface.
package cli

import (
	"github.com/spf13/cobra"
)

var configFile string

// NewRootCommand creates the root command for passkey-server.
func NewRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "passkey-server",
		Short: "Passkey registration service",
		Long: `passkey-server is the relying-party backend for passkey registration.
It issues WebAuthn credential creation challenges bound to a client
session and verifies the returned attestation responses.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVarP(&configFile, "config", "c", "",
		"path to YAML config file (environment variables override)")

	cmd.AddCommand(NewServeCommand())
	cmd.AddCommand(NewVersionCommand())

	return cmd
}

// Execute runs the root command.
func Execute() error {
	return NewRootCommand().Execute()
}

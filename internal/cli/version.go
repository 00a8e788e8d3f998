// Copyright (c) 2025 Mensahe
//
// This file is part of the Mensahe passkey service.
//
// Licensed under the GNU Affero General Public License v3.0 (AGPL-3.0).
// See LICENSE file or visit https://www.gnu.org/licenses/agpl-3.0.html

package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// Version information, overridden at build time via -ldflags.
var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// NewVersionCommand creates the version command.
func NewVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("passkey-server %s (commit %s, built %s)\n", Version, GitCommit, BuildDate)
		},
	}
}

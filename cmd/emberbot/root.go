// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Emberbot Contributors

package main

import (
	"github.com/spf13/cobra"
)

// Global flags available to all subcommands.
var configFile string

// NewRootCmd creates the root command for the emberbot CLI.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "emberbot",
		Short: "Emberbot - a chat command bot",
		Long: `Emberbot is a chat bot with a line-based command console,
personal and system-wide command aliases, a song request queue,
and a background release checker.`,
	}

	// Global flag for config file path
	cmd.PersistentFlags().StringVar(&configFile, "config", "", "config file path (default: XDG config dir)")

	// Add subcommands
	cmd.AddCommand(NewRunCmd())
	cmd.AddCommand(NewCheckUpdateCmd())
	cmd.AddCommand(NewHashPasswordCmd())

	return cmd
}

// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Emberbot Contributors

package main

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/emberbot/emberbot/internal/console"
)

// NewHashPasswordCmd creates the hash-password subcommand.
func NewHashPasswordCmd() *cobra.Command {
	var password string

	cmd := &cobra.Command{
		Use:   "hash-password",
		Short: "Hash an admin password for the config file",
		Long: `Hash an admin password with argon2id for use as
console.admin_password_hash in the config file.

The password is read from the first line of stdin unless --password
is given.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runHashPassword(cmd, password)
		},
	}

	cmd.Flags().StringVar(&password, "password", "", "password to hash (prefer stdin, this shows up in process lists)")

	return cmd
}

func runHashPassword(cmd *cobra.Command, password string) error {
	if password == "" {
		line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
		if err != nil && line == "" {
			return fmt.Errorf("failed to read password from stdin: %w", err)
		}
		password = strings.TrimRight(line, "\r\n")
	}

	hash, err := console.HashPassword(password)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	cmd.Println(hash)
	cmd.PrintErrln("Add this to the config file as console.admin_password_hash.")
	return nil
}

// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Emberbot Contributors

package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/emberbot/emberbot/internal/api"
	"github.com/emberbot/emberbot/internal/updater"
)

const checkUpdateTimeout = 30 * time.Second

// NewCheckUpdateCmd creates the check-update subcommand.
func NewCheckUpdateCmd() *cobra.Command {
	var apiURL string

	cmd := &cobra.Command{
		Use:   "check-update",
		Short: "Check GitHub for a newer release",
		Long: `Check GitHub for the latest stable emberbot release and report
whether it is newer than the running version.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runCheckUpdate(cmd, apiURL)
		},
	}

	cmd.Flags().StringVar(&apiURL, "api-url", "", "override the GitHub API base URL (for mirrors)")

	return cmd
}

func runCheckUpdate(cmd *cobra.Command, apiURL string) error {
	ctx, cancel := context.WithTimeout(cmd.Context(), checkUpdateTimeout)
	defer cancel()

	var ghOpts []api.GitHubOption
	if apiURL != "" {
		ghOpts = append(ghOpts, api.WithBaseURL(apiURL))
	}

	u := updater.New(version, api.NewGitHub(ghOpts...))
	if err := u.CheckNow(ctx); err != nil {
		return fmt.Errorf("release check failed: %w", err)
	}

	cmd.Printf("Running: %s\n", version)

	latest, ok := u.Latest()
	if !ok {
		cmd.Println("No stable release published yet.")
		return nil
	}

	cmd.Printf("Latest release: %s (published %s)\n",
		latest.TagName, latest.PublishedAt.Format("2006-01-02"))

	if tag, available := u.Available(); available {
		cmd.Printf("Update available: %s\n", tag)
	}
	return nil
}

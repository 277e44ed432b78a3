// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Emberbot Contributors

package handlers

import (
	"context"

	"github.com/emberbot/emberbot/internal/command"
)

// UpdateSource reports whether a newer release than the running
// version is known. Satisfied by the updater.
type UpdateSource interface {
	Available() (version string, available bool)
}

// NewVersionHandler creates the version command. A nil update source
// means only the running version is reported.
// Usage: version
func NewVersionHandler(version string, updates UpdateSource) command.Handler {
	return func(ctx context.Context, inv *command.Invocation) error {
		writeOutputf(ctx, inv, "version", "emberbot %s\n", version)

		if updates == nil {
			return nil
		}
		if latest, ok := updates.Available(); ok {
			writeOutputf(ctx, inv, "version", "An update is available: %s.\n", latest)
		}
		return nil
	}
}

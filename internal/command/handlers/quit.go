// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Emberbot Contributors

package handlers

import (
	"context"

	"github.com/emberbot/emberbot/internal/command"
)

// QuitHandler ends the session. It says goodbye and returns the quit
// sentinel, which the connection loop detects to close the connection.
func QuitHandler(ctx context.Context, inv *command.Invocation) error {
	writeOutput(ctx, inv, "quit", "Goodbye!")
	return command.ErrQuitRequested
}

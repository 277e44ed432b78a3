// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Emberbot Contributors

package handlers

import (
	"context"

	"github.com/emberbot/emberbot/internal/command"
)

// SayHandler echoes the raw remainder of the line back to the channel,
// quoting and escapes untouched.
// Usage: say <message>
func SayHandler(ctx context.Context, inv *command.Invocation) error {
	msg := inv.Args.Rest()
	if msg == "" {
		return command.ErrInvalidArgs("say", "say <message>")
	}

	writeOutputf(ctx, inv, "say", "%s: %s\n", inv.User, msg)
	return nil
}

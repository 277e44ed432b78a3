// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Emberbot Contributors

package handlers

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/emberbot/emberbot/internal/command"
)

// logOutputError logs a reply write failure at warn level and counts
// it. Connection trouble should be visible without failing the command.
func logOutputError(ctx context.Context, cmd, sessionID string, bytesWritten int, err error) {
	slog.WarnContext(ctx, "failed to write command output",
		"command", cmd,
		"session_id", sessionID,
		"bytes_written", bytesWritten,
		"error", err,
	)
	command.RecordOutputFailure(cmd)
}

// writeOutput writes one reply line and logs any write error.
func writeOutput(ctx context.Context, inv *command.Invocation, cmd, msg string) {
	if n, err := fmt.Fprintln(inv.Output, msg); err != nil {
		logOutputError(ctx, cmd, inv.SessionID.String(), n, err)
	}
}

// writeOutputf writes a formatted reply and logs any write error.
func writeOutputf(ctx context.Context, inv *command.Invocation, cmd, format string, args ...any) {
	if n, err := fmt.Fprintf(inv.Output, format, args...); err != nil {
		logOutputError(ctx, cmd, inv.SessionID.String(), n, err)
	}
}

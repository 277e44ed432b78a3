// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Emberbot Contributors

// Package command provides the command registry, alias resolution, and
// dispatch system. A line of chat comes in, the first word names the
// command, and the handler reads the remaining words from the same
// iterator or takes the raw remainder of the line.
package command

import (
	"context"
	"io"

	"github.com/oklog/ulid/v2"

	"github.com/emberbot/emberbot/internal/words"
)

// Handler is the function signature for command handlers.
type Handler func(ctx context.Context, inv *Invocation) error

// Entry represents a registered command.
type Entry struct {
	Name    string  // canonical name (e.g., "say")
	Handler Handler // executed on dispatch
	Help    string  // short description (one line)
	Usage   string  // usage pattern (e.g., "say <message>")
	Source  string  // "core" or the module that registered it
}

// Invocation carries one dispatched command to its handler. The
// dispatcher has already consumed the command name from Args, so the
// handler reads arguments word by word with Args.Next, or takes the
// raw remainder of the line with Args.Rest.
type Invocation struct {
	SessionID ulid.ULID    // connection the line arrived on
	User      string       // display name of the speaker
	Admin     bool         // authenticated admin session
	InvokedAs string       // name the user typed (alias or canonical)
	Line      string       // full line after alias expansion
	Args      *words.Words // argument iterator, positioned past the name
	Output    io.Writer    // reply channel back to the speaker
}

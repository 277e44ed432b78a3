// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Emberbot Contributors

package command

import (
	"errors"

	"github.com/samber/oops"
)

// Error codes for command dispatch failures.
const (
	CodeUnknownCommand = "UNKNOWN_COMMAND"
	CodeInvalidArgs    = "INVALID_ARGS"
	CodeRateLimited    = "RATE_LIMITED"
	CodeCircularAlias  = "CIRCULAR_ALIAS"
	CodeInvalidName    = "INVALID_NAME"
	CodeBadPattern     = "BAD_PATTERN"
	CodeAliasFile      = "ALIAS_FILE"
	CodeAdminOnly      = "ADMIN_ONLY"
)

// Constructor misuse sentinels.
var (
	// ErrNilRegistry reports a dispatcher constructed without a registry.
	ErrNilRegistry = errors.New("command: registry must not be nil")

	// ErrNilOutput reports an invocation dispatched without an output writer.
	ErrNilOutput = errors.New("command: invocation output must not be nil")
)

// ErrQuitRequested signals that the session asked to disconnect. The
// connection loop detects it with errors.Is and closes the session;
// the dispatcher does not treat it as a handler failure.
var ErrQuitRequested = errors.New("quit requested")

// ErrUnknownCommand creates an error for an unknown command.
func ErrUnknownCommand(cmd string) error {
	return oops.Code(CodeUnknownCommand).
		With("command", cmd).
		Errorf("unknown command: %s", cmd)
}

// ErrInvalidArgs creates an error for invalid arguments.
func ErrInvalidArgs(cmd, usage string) error {
	return oops.Code(CodeInvalidArgs).
		With("command", cmd).
		With("usage", usage).
		Errorf("invalid arguments")
}

// ErrRateLimited creates an error for rate limiting.
func ErrRateLimited(cooldownMs int64) error {
	return oops.Code(CodeRateLimited).
		With("cooldown_ms", cooldownMs).
		Errorf("too many commands")
}

// ErrCircularAlias creates an error for circular alias detection.
func ErrCircularAlias(alias string) error {
	return oops.Code(CodeCircularAlias).
		With("alias", alias).
		Errorf("alias rejected: circular reference detected (expansion depth exceeded)")
}

// ErrBadPattern creates an error for an invalid glob pattern.
func ErrBadPattern(pattern string, cause error) error {
	return oops.Code(CodeBadPattern).
		With("pattern", pattern).
		Wrapf(cause, "invalid pattern: %s", pattern)
}

// ErrAdminOnly creates an error for a command restricted to admin sessions.
func ErrAdminOnly(cmd string) error {
	return oops.Code(CodeAdminOnly).
		With("command", cmd).
		Errorf("command %s requires an admin session", cmd)
}

// UserMessage extracts a chat-facing message from an error.
func UserMessage(err error) string {
	if err == nil {
		return "Something went wrong. Try again."
	}
	oopsErr, ok := oops.AsOops(err)
	if !ok {
		return "Something went wrong. Try again."
	}

	switch oopsErr.Code() {
	case CodeUnknownCommand:
		return "Unknown command. Try 'help'."
	case CodeInvalidArgs:
		if usage, ok := oopsErr.Context()["usage"].(string); ok && usage != "" {
			return "Usage: " + usage
		}
		return "Invalid arguments."
	case CodeRateLimited:
		return "Too many commands. Please slow down."
	case CodeCircularAlias:
		return "Alias rejected: circular reference detected."
	case CodeInvalidName:
		return "That name can't be used."
	case CodeAdminOnly:
		return "That command is admin-only."
	case CodeBadPattern:
		return "That pattern can't be used. Try something like 's*'."
	default:
		return "Something went wrong. Try again."
	}
}

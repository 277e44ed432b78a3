// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Emberbot Contributors

package command

import (
	"errors"
	"testing"

	"github.com/samber/oops"
	"github.com/stretchr/testify/assert"
)

func TestErrUnknownCommand(t *testing.T) {
	err := ErrUnknownCommand("foo")
	assert.Error(t, err)

	oopsErr, ok := oops.AsOops(err)
	assert.True(t, ok)
	assert.Equal(t, "UNKNOWN_COMMAND", oopsErr.Code())
	assert.Equal(t, "foo", oopsErr.Context()["command"])
}

func TestErrInvalidArgs(t *testing.T) {
	err := ErrInvalidArgs("song", "song <request|current|skip>")
	oopsErr, _ := oops.AsOops(err)
	assert.Equal(t, "INVALID_ARGS", oopsErr.Code())
	assert.Equal(t, "song", oopsErr.Context()["command"])
	assert.Equal(t, "song <request|current|skip>", oopsErr.Context()["usage"])
}

func TestErrRateLimited(t *testing.T) {
	err := ErrRateLimited(1500)
	oopsErr, _ := oops.AsOops(err)
	assert.Equal(t, "RATE_LIMITED", oopsErr.Code())
	assert.Equal(t, int64(1500), oopsErr.Context()["cooldown_ms"])
}

func TestErrBadPattern(t *testing.T) {
	cause := errors.New("unexpected end of input")
	err := ErrBadPattern("[oops", cause)
	oopsErr, _ := oops.AsOops(err)
	assert.Equal(t, "BAD_PATTERN", oopsErr.Code())
	assert.Equal(t, "[oops", oopsErr.Context()["pattern"])
}

func TestErrAdminOnly(t *testing.T) {
	err := ErrAdminOnly("sysalias")
	oopsErr, _ := oops.AsOops(err)
	assert.Equal(t, "ADMIN_ONLY", oopsErr.Code())
	assert.Equal(t, "sysalias", oopsErr.Context()["command"])
}

func TestUserMessage(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{
			name: "nil error",
			err:  nil,
			want: "Something went wrong. Try again.",
		},
		{
			name: "plain error",
			err:  errors.New("boom"),
			want: "Something went wrong. Try again.",
		},
		{
			name: "unknown command",
			err:  ErrUnknownCommand("foo"),
			want: "Unknown command. Try 'help'.",
		},
		{
			name: "invalid args with usage",
			err:  ErrInvalidArgs("song", "song <request|current|skip>"),
			want: "Usage: song <request|current|skip>",
		},
		{
			name: "invalid args without usage",
			err:  ErrInvalidArgs("song", ""),
			want: "Invalid arguments.",
		},
		{
			name: "rate limited",
			err:  ErrRateLimited(500),
			want: "Too many commands. Please slow down.",
		},
		{
			name: "circular alias",
			err:  ErrCircularAlias("a"),
			want: "Alias rejected: circular reference detected.",
		},
		{
			name: "admin only",
			err:  ErrAdminOnly("sysalias"),
			want: "That command is admin-only.",
		},
		{
			name: "bad pattern",
			err:  ErrBadPattern("[x", errors.New("bad")),
			want: "That pattern can't be used. Try something like 's*'.",
		},
		{
			name: "uncoded oops error",
			err:  oops.Errorf("internal detail"),
			want: "Something went wrong. Try again.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, UserMessage(tt.err))
		})
	}
}

// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Emberbot Contributors

package handlers

import (
	"context"
	"sort"
	"strings"

	"github.com/emberbot/emberbot/internal/command"
)

// NewHelpHandler creates the help command over the given registry.
// With no argument it lists every command; with an argument it shows
// the named command's usage, or treats the argument as a glob pattern
// ("s*", "*alias") when no command matches exactly.
func NewHelpHandler(reg *command.Registry) command.Handler {
	return func(ctx context.Context, inv *command.Invocation) error {
		arg, ok := inv.Args.Next()
		if !ok {
			listCommands(ctx, inv, reg.All(), "Available commands:")
			return nil
		}

		if entry, found := reg.Get(strings.ToLower(arg)); found {
			writeOutputf(ctx, inv, "help", "%s - %s\n", entry.Name, entry.Help)
			if entry.Usage != "" {
				writeOutputf(ctx, inv, "help", "Usage: %s\n", entry.Usage)
			}
			return nil
		}

		matches, err := reg.Match(arg)
		if err != nil {
			return err
		}
		if len(matches) == 0 {
			writeOutputf(ctx, inv, "help", "No commands match '%s'.\n", arg)
			return nil
		}

		listCommands(ctx, inv, matches, "Matching commands:")
		return nil
	}
}

func listCommands(ctx context.Context, inv *command.Invocation, entries []command.Entry, heading string) {
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Name < entries[j].Name
	})

	writeOutput(ctx, inv, "help", heading)
	for _, e := range entries {
		writeOutputf(ctx, inv, "help", "  %-12s %s\n", e.Name, e.Help)
	}
}

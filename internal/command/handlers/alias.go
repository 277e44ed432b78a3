// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Emberbot Contributors

package handlers

import (
	"context"
	"sort"
	"strings"

	"github.com/emberbot/emberbot/internal/command"
)

// NewAliasAddHandler creates the alias command: define or replace a
// personal alias for the invoking user.
// Usage: alias <name>=<expansion>
//
// Warnings are issued but don't prevent the operation:
//   - if the alias names an existing command (commands take precedence,
//     so the alias will never trigger)
//   - if the alias shadows a system alias
//   - if it replaces one of the user's own aliases
func NewAliasAddHandler(cache *command.AliasCache, reg *command.Registry) command.Handler {
	return func(ctx context.Context, inv *command.Invocation) error {
		if cache == nil {
			writeOutput(ctx, inv, "alias", "Aliases are not enabled.")
			return nil
		}

		alias, expansion, err := parseAliasDefinition("alias", inv.Args.Rest())
		if err != nil {
			return err
		}

		var warnings []string
		if _, registered := reg.Get(alias); registered {
			warnings = append(warnings, "Warning: '"+alias+"' is a command. Commands take precedence, so this alias will never trigger.")
		}
		if sysCmd, ok := cache.GetSystemAlias(alias); ok {
			warnings = append(warnings, "Warning: '"+alias+"' is a system alias for '"+sysCmd+"'. Your alias takes precedence.")
		}
		if oldCmd, ok := cache.GetUserAlias(inv.User, alias); ok {
			warnings = append(warnings, "Replacing existing alias '"+alias+"' (was: '"+oldCmd+"').")
		}

		if err := cache.SetUserAlias(inv.User, alias, expansion); err != nil {
			return err
		}

		for _, w := range warnings {
			writeOutput(ctx, inv, "alias", w)
		}
		writeOutputf(ctx, inv, "alias", "Alias '%s' added: %s\n", alias, expansion)
		return nil
	}
}

// NewAliasRemoveHandler creates the unalias command.
// Usage: unalias <name>
func NewAliasRemoveHandler(cache *command.AliasCache) command.Handler {
	return func(ctx context.Context, inv *command.Invocation) error {
		if cache == nil {
			writeOutput(ctx, inv, "alias", "Aliases are not enabled.")
			return nil
		}

		alias, ok := inv.Args.Next()
		if !ok {
			return command.ErrInvalidArgs("unalias", "unalias <name>")
		}

		if _, exists := cache.GetUserAlias(inv.User, alias); !exists {
			writeOutputf(ctx, inv, "alias", "No alias '%s' found.\n", alias)
			return nil
		}

		cache.RemoveUserAlias(inv.User, alias)
		writeOutputf(ctx, inv, "alias", "Alias '%s' removed.\n", alias)
		return nil
	}
}

// NewAliasListHandler creates the aliases command.
// Usage: aliases
func NewAliasListHandler(cache *command.AliasCache) command.Handler {
	return func(ctx context.Context, inv *command.Invocation) error {
		if cache == nil {
			writeOutput(ctx, inv, "alias", "Aliases are not enabled.")
			return nil
		}

		listAliases(ctx, inv, cache.UserAliases(inv.User), "You have no aliases defined.", "Your aliases:")
		return nil
	}
}

// NewSysAliasAddHandler creates the sysalias command: define or replace
// a system-wide alias. Admin only.
// Usage: sysalias <name>=<expansion>
func NewSysAliasAddHandler(cache *command.AliasCache, reg *command.Registry) command.Handler {
	return func(ctx context.Context, inv *command.Invocation) error {
		if !inv.Admin {
			return command.ErrAdminOnly("sysalias")
		}
		if cache == nil {
			writeOutput(ctx, inv, "sysalias", "Aliases are not enabled.")
			return nil
		}

		alias, expansion, err := parseAliasDefinition("sysalias", inv.Args.Rest())
		if err != nil {
			return err
		}

		var warnings []string
		if _, registered := reg.Get(alias); registered {
			warnings = append(warnings, "Warning: '"+alias+"' is a command. Commands take precedence, so this alias will never trigger.")
		}
		if oldCmd, ok := cache.GetSystemAlias(alias); ok {
			warnings = append(warnings, "Replacing system alias '"+alias+"' (was: '"+oldCmd+"').")
		}

		if err := cache.SetSystemAlias(alias, expansion); err != nil {
			return err
		}

		for _, w := range warnings {
			writeOutput(ctx, inv, "sysalias", w)
		}
		writeOutputf(ctx, inv, "sysalias", "System alias '%s' added: %s\n", alias, expansion)
		return nil
	}
}

// NewSysAliasRemoveHandler creates the sysunalias command. Admin only.
// Usage: sysunalias <name>
func NewSysAliasRemoveHandler(cache *command.AliasCache) command.Handler {
	return func(ctx context.Context, inv *command.Invocation) error {
		if !inv.Admin {
			return command.ErrAdminOnly("sysunalias")
		}
		if cache == nil {
			writeOutput(ctx, inv, "sysalias", "Aliases are not enabled.")
			return nil
		}

		alias, ok := inv.Args.Next()
		if !ok {
			return command.ErrInvalidArgs("sysunalias", "sysunalias <name>")
		}

		if _, exists := cache.GetSystemAlias(alias); !exists {
			writeOutputf(ctx, inv, "sysalias", "No system alias '%s' found.\n", alias)
			return nil
		}

		cache.RemoveSystemAlias(alias)
		writeOutputf(ctx, inv, "sysalias", "System alias '%s' removed.\n", alias)
		return nil
	}
}

// NewSysAliasListHandler creates the sysaliases command. Admin only.
// Usage: sysaliases
func NewSysAliasListHandler(cache *command.AliasCache) command.Handler {
	return func(ctx context.Context, inv *command.Invocation) error {
		if !inv.Admin {
			return command.ErrAdminOnly("sysaliases")
		}
		if cache == nil {
			writeOutput(ctx, inv, "sysalias", "Aliases are not enabled.")
			return nil
		}

		listAliases(ctx, inv, cache.SystemAliases(), "No system aliases defined.", "System aliases:")
		return nil
	}
}

func listAliases(ctx context.Context, inv *command.Invocation, aliases map[string]string, emptyMsg, heading string) {
	if len(aliases) == 0 {
		writeOutput(ctx, inv, "alias", emptyMsg)
		return
	}

	writeOutput(ctx, inv, "alias", heading)

	keys := make([]string, 0, len(aliases))
	for k := range aliases {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, alias := range keys {
		writeOutputf(ctx, inv, "alias", "  %s = %s\n", alias, aliases[alias])
	}
}

// parseAliasDefinition parses "name=expansion". The expansion may
// itself contain '=' characters; only the first one splits.
func parseAliasDefinition(cmd, args string) (alias, expansion string, err error) {
	args = strings.TrimSpace(args)

	idx := strings.Index(args, "=")
	if idx == -1 {
		return "", "", command.ErrInvalidArgs(cmd, cmd+" <name>=<expansion>")
	}

	alias = strings.TrimSpace(args[:idx])
	expansion = strings.TrimSpace(args[idx+1:])

	if alias == "" {
		return "", "", command.ErrInvalidArgs(cmd, cmd+" <name>=<expansion> (name cannot be empty)")
	}
	if expansion == "" {
		return "", "", command.ErrInvalidArgs(cmd, cmd+" <name>=<expansion> (expansion cannot be empty)")
	}

	return alias, expansion, nil
}

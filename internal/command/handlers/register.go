// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Emberbot Contributors

// Package handlers holds the builtin commands and registers them with
// the command registry. Handlers that need a collaborator (the
// registry itself, the alias cache, the song queue, the updater) close
// over it at registration time; optional collaborators may be nil, in
// which case the command replies that the feature is disabled.
package handlers

import (
	"github.com/emberbot/emberbot/internal/command"
	"github.com/emberbot/emberbot/internal/player"
)

// Deps carries the collaborators the builtin commands close over.
type Deps struct {
	Aliases *command.AliasCache // nil disables the alias commands
	Queue   *player.Queue       // nil disables the song player
	Updates UpdateSource        // nil disables update reporting
	Version string              // running version string
}

// RegisterAll registers all builtin command handlers with the registry.
// Panics if any registration fails (indicates a programming error).
func RegisterAll(reg *command.Registry, deps Deps) {
	mustRegister := func(entry command.Entry) {
		if err := reg.Register(entry); err != nil {
			panic("failed to register builtin command " + entry.Name + ": " + err.Error())
		}
	}

	mustRegister(command.Entry{
		Name:    "help",
		Handler: NewHelpHandler(reg),
		Help:    "List commands or show usage for one",
		Usage:   "help [command|pattern]",
		Source:  "builtin",
	})

	mustRegister(command.Entry{
		Name:    "say",
		Handler: SayHandler,
		Help:    "Echo a message back to the channel",
		Usage:   "say <message>",
		Source:  "builtin",
	})

	mustRegister(command.Entry{
		Name:    "song",
		Handler: NewSongHandler(deps.Queue),
		Help:    "Request songs and control the queue",
		Usage:   songUsage,
		Source:  "builtin",
	})

	mustRegister(command.Entry{
		Name:    "version",
		Handler: NewVersionHandler(deps.Version, deps.Updates),
		Help:    "Show the running version and any available update",
		Usage:   "version",
		Source:  "builtin",
	})

	mustRegister(command.Entry{
		Name:    "quit",
		Handler: QuitHandler,
		Help:    "End this session",
		Usage:   "quit",
		Source:  "builtin",
	})

	// Alias management
	mustRegister(command.Entry{
		Name:    "alias",
		Handler: NewAliasAddHandler(deps.Aliases, reg),
		Help:    "Define a personal alias",
		Usage:   "alias <name>=<expansion>",
		Source:  "builtin",
	})

	mustRegister(command.Entry{
		Name:    "unalias",
		Handler: NewAliasRemoveHandler(deps.Aliases),
		Help:    "Remove a personal alias",
		Usage:   "unalias <name>",
		Source:  "builtin",
	})

	mustRegister(command.Entry{
		Name:    "aliases",
		Handler: NewAliasListHandler(deps.Aliases),
		Help:    "List your personal aliases",
		Usage:   "aliases",
		Source:  "builtin",
	})

	mustRegister(command.Entry{
		Name:    "sysalias",
		Handler: NewSysAliasAddHandler(deps.Aliases, reg),
		Help:    "Define a system-wide alias (admin)",
		Usage:   "sysalias <name>=<expansion>",
		Source:  "builtin",
	})

	mustRegister(command.Entry{
		Name:    "sysunalias",
		Handler: NewSysAliasRemoveHandler(deps.Aliases),
		Help:    "Remove a system-wide alias (admin)",
		Usage:   "sysunalias <name>",
		Source:  "builtin",
	})

	mustRegister(command.Entry{
		Name:    "sysaliases",
		Handler: NewSysAliasListHandler(deps.Aliases),
		Help:    "List system-wide aliases (admin)",
		Usage:   "sysaliases",
		Source:  "builtin",
	})
}

// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Emberbot Contributors

package command

import (
	"maps"
	"os"
	"sync"

	"github.com/samber/oops"
	"gopkg.in/yaml.v3"

	"github.com/emberbot/emberbot/internal/words"
)

// MaxExpansionDepth is the maximum depth for alias expansion to prevent
// infinite loops.
const MaxExpansionDepth = 10

// AliasCache manages alias resolution with per-user and system aliases.
// It is thread-safe for concurrent access.
type AliasCache struct {
	userAliases   map[string]map[string]string // user → alias → command
	systemAliases map[string]string            // alias → command
	mu            sync.RWMutex
}

// NewAliasCache creates a new alias cache.
func NewAliasCache() *AliasCache {
	return &AliasCache{
		userAliases:   make(map[string]map[string]string),
		systemAliases: make(map[string]string),
	}
}

// LoadSystemAliases bulk loads system aliases at startup.
func (c *AliasCache) LoadSystemAliases(aliases map[string]string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	maps.Copy(c.systemAliases, aliases)
}

// LoadUserAliases bulk loads one user's aliases.
func (c *AliasCache) LoadUserAliases(user string, aliases map[string]string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.userAliases[user] == nil {
		c.userAliases[user] = make(map[string]string)
	}

	maps.Copy(c.userAliases[user], aliases)
}

// SetSystemAlias adds or updates a single system alias.
// Returns an error if the alias would create a circular reference.
func (c *AliasCache) SetSystemAlias(alias, command string) error {
	if err := ValidateAliasName(alias); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	// Temporarily set the alias to check for circularity.
	oldCmd, existed := c.systemAliases[alias]
	c.systemAliases[alias] = command

	if c.wouldBeCircularLocked("", alias) {
		if existed {
			c.systemAliases[alias] = oldCmd
		} else {
			delete(c.systemAliases, alias)
		}
		return ErrCircularAlias(alias)
	}

	return nil
}

// SetUserAlias adds or updates a single alias for the given user.
// Returns an error if the alias would create a circular reference.
func (c *AliasCache) SetUserAlias(user, alias, command string) error {
	if err := ValidateAliasName(alias); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.userAliases[user] == nil {
		c.userAliases[user] = make(map[string]string)
	}

	// Temporarily set the alias to check for circularity.
	oldCmd, existed := c.userAliases[user][alias]
	c.userAliases[user][alias] = command

	if c.wouldBeCircularLocked(user, alias) {
		if existed {
			c.userAliases[user][alias] = oldCmd
		} else {
			delete(c.userAliases[user], alias)
		}
		return ErrCircularAlias(alias)
	}

	return nil
}

// RemoveSystemAlias removes a system alias.
func (c *AliasCache) RemoveSystemAlias(alias string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.systemAliases, alias)
}

// RemoveUserAlias removes a user alias.
func (c *AliasCache) RemoveUserAlias(user, alias string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.userAliases[user] != nil {
		delete(c.userAliases[user], alias)
	}
}

// GetUserAlias looks up a single alias for the given user.
func (c *AliasCache) GetUserAlias(user, alias string) (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	cmd, ok := c.userAliases[user][alias]
	return cmd, ok
}

// GetSystemAlias looks up a single system alias.
func (c *AliasCache) GetSystemAlias(alias string) (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	cmd, ok := c.systemAliases[alias]
	return cmd, ok
}

// UserAliases returns a copy of one user's aliases.
func (c *AliasCache) UserAliases(user string) map[string]string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make(map[string]string, len(c.userAliases[user]))
	maps.Copy(out, c.userAliases[user])
	return out
}

// SystemAliases returns a copy of the system aliases.
func (c *AliasCache) SystemAliases() map[string]string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make(map[string]string, len(c.systemAliases))
	maps.Copy(out, c.systemAliases)
	return out
}

// ClearUser removes all aliases for a user.
func (c *AliasCache) ClearUser(user string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.userAliases, user)
}

// Resolve expands a command name through alias chains for the given
// user. User aliases shadow system aliases. It returns the expansion,
// with each level's arguments preserved, and whether any alias matched.
// Callers check the registry first so aliases never shadow real
// commands.
func (c *AliasCache) Resolve(user, name string) (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return c.resolveLocked(user, name, 0)
}

// resolveLocked performs alias resolution with depth tracking.
// Must be called with at least RLock held.
func (c *AliasCache) resolveLocked(user, cmd string, depth int) (string, bool) {
	if depth >= MaxExpansionDepth {
		return cmd, depth > 0
	}

	expanded, ok := c.lookupLocked(user, cmd)
	if !ok {
		return cmd, depth > 0
	}

	// Recursively resolve the expansion's first word, keeping its args.
	first, args := firstWord(expanded)
	if first == "" {
		return expanded, true
	}
	resolved, _ := c.resolveLocked(user, first, depth+1)
	if args != "" {
		return resolved + " " + args, true
	}
	return resolved, true
}

// lookupLocked finds one level of alias expansion: user first, then system.
func (c *AliasCache) lookupLocked(user, cmd string) (string, bool) {
	if aliases, ok := c.userAliases[user]; ok {
		if expanded, ok := aliases[cmd]; ok {
			return expanded, true
		}
	}
	expanded, ok := c.systemAliases[cmd]
	return expanded, ok
}

// wouldBeCircularLocked reports whether resolving alias runs past the
// expansion depth limit. Must be called with Lock held since it is used
// during mutation.
func (c *AliasCache) wouldBeCircularLocked(user, alias string) bool {
	cmd := alias
	for range MaxExpansionDepth {
		expanded, ok := c.lookupLocked(user, cmd)
		if !ok {
			return false
		}
		next, _ := firstWord(expanded)
		if next == "" {
			return false
		}
		cmd = next
	}
	return true
}

// firstWord splits an expansion into its first word and the raw
// remainder of the line.
func firstWord(s string) (first, rest string) {
	w := words.New(words.Shared(&s))
	first, ok := w.Next()
	if !ok {
		return "", ""
	}
	return first, w.Rest()
}

// AliasFile is the on-disk alias configuration.
type AliasFile struct {
	System map[string]string            `yaml:"system"`
	Users  map[string]map[string]string `yaml:"users"`
}

// LoadAliasFile reads an alias file and applies it to the cache,
// validating names and rejecting circular chains.
func (c *AliasCache) LoadAliasFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return oops.Code(CodeAliasFile).
			With("path", path).
			Wrapf(err, "read alias file")
	}

	var f AliasFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return oops.Code(CodeAliasFile).
			With("path", path).
			Wrapf(err, "parse alias file")
	}

	for alias, cmd := range f.System {
		if err := c.SetSystemAlias(alias, cmd); err != nil {
			return oops.With("path", path).Wrap(err)
		}
	}
	for user, aliases := range f.Users {
		for alias, cmd := range aliases {
			if err := c.SetUserAlias(user, alias, cmd); err != nil {
				return oops.With("path", path).With("user", user).Wrap(err)
			}
		}
	}
	return nil
}

// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Emberbot Contributors

package command

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/emberbot/emberbot/internal/words"
)

var tracer = otel.Tracer("emberbot/command")

// Dispatcher tokenizes incoming lines, resolves aliases, applies rate
// limits, and executes command handlers.
type Dispatcher struct {
	registry *Registry
	aliases  *AliasCache  // optional, can be nil
	limiter  *RateLimiter // optional, can be nil
}

// DispatcherOption configures a Dispatcher during construction.
type DispatcherOption func(*Dispatcher)

// WithAliasCache configures the dispatcher to use the given alias cache
// for command resolution. If not provided, alias resolution is disabled.
func WithAliasCache(cache *AliasCache) DispatcherOption {
	return func(d *Dispatcher) {
		d.aliases = cache
	}
}

// WithRateLimiter configures the dispatcher to use rate limiting.
// If not provided, rate limiting is disabled.
func WithRateLimiter(rl *RateLimiter) DispatcherOption {
	return func(d *Dispatcher) {
		d.limiter = rl
	}
}

// NewDispatcher creates a new command dispatcher with the given
// registry. Returns an error if registry is nil.
func NewDispatcher(registry *Registry, opts ...DispatcherOption) (*Dispatcher, error) {
	if registry == nil {
		return nil, ErrNilRegistry
	}
	d := &Dispatcher{registry: registry}
	for _, opt := range opts {
		opt(d)
	}
	return d, nil
}

// Dispatch executes one line of input. The first word names the
// command; the rest of the line reaches the handler through the
// invocation's argument iterator, still positioned mid-line, so the
// handler can read decoded words or take the raw remainder. A blank
// line is a no-op, not an error.
func (d *Dispatcher) Dispatch(ctx context.Context, line string, inv *Invocation) (err error) {
	if inv.Output == nil {
		return ErrNilOutput
	}

	w := words.New(words.Shared(&line))
	name, ok := w.Next()
	if !ok {
		return nil
	}
	name = strings.ToLower(name)
	invokedAs := name

	rec := NewMetricsRecorder()
	defer rec.Record()

	// Aliases never shadow registered commands.
	wasAlias := false
	if d.aliases != nil {
		if _, registered := d.registry.Get(name); !registered {
			if expansion, matched := d.aliases.Resolve(inv.User, name); matched {
				RecordAliasExpansion(invokedAs)
				if rest := w.Rest(); rest != "" {
					expansion += " " + rest
				}
				line = expansion
				w = words.New(words.Shared(&line))
				if name, ok = w.Next(); !ok {
					// Alias expanded to nothing; treat like a blank line.
					return nil
				}
				name = strings.ToLower(name)
				wasAlias = true
			}
		}
	}

	ctx, span := tracer.Start(ctx, "command.execute",
		trace.WithAttributes(
			attribute.String("command.name", name),
			attribute.String("session.id", inv.SessionID.String()),
		),
	)
	defer func() {
		if err != nil && !errors.Is(err, ErrQuitRequested) {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	if wasAlias {
		span.SetAttributes(
			attribute.Bool("command.alias_expanded", true),
			attribute.String("command.alias_used", invokedAs),
		)
	}

	// Admin sessions bypass rate limiting.
	if d.limiter != nil && !inv.Admin {
		allowed, cooldownMs := d.limiter.Allow(inv.SessionID)
		if !allowed {
			span.SetAttributes(
				attribute.Bool("command.rate_limited", true),
				attribute.Int64("command.cooldown_ms", cooldownMs),
			)
			rec.SetCommandName(name)
			rec.SetStatus(StatusRateLimited)
			err = ErrRateLimited(cooldownMs)
			return err
		}
	}

	entry, ok := d.registry.Get(name)
	if !ok {
		rec.SetCommandName(name)
		rec.SetStatus(StatusNotFound)
		err = ErrUnknownCommand(name)
		return err
	}

	span.SetAttributes(attribute.String("command.source", entry.Source))
	rec.SetCommandName(entry.Name)
	rec.SetCommandSource(entry.Source)

	inv.InvokedAs = invokedAs
	inv.Line = line
	inv.Args = w

	err = entry.Handler(ctx, inv)
	if err != nil {
		// A requested disconnect is normal flow, not a failure. It
		// still surfaces so the connection loop can act on it.
		if errors.Is(err, ErrQuitRequested) {
			rec.SetStatus(StatusSuccess)
			return err
		}
		rec.SetStatus(StatusError)
		slog.WarnContext(ctx, "command execution failed",
			"command", entry.Name,
			"session_id", inv.SessionID.String(),
			"error", err,
		)
		return err
	}

	rec.SetStatus(StatusSuccess)
	return nil
}

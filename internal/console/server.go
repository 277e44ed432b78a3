// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Emberbot Contributors

// Package console provides the line-based chat surface: a TCP listener
// where each inbound line is one command dispatched through the command
// pipeline. Sessions are identified by ULID; an optional argon2id-gated
// auth command elevates a session to admin.
package console

import (
	"context"
	"log/slog"
	"net"
	"sync"

	"github.com/samber/oops"

	"github.com/emberbot/emberbot/internal/command"
	"github.com/emberbot/emberbot/internal/observability"
)

const defaultGreeting = "Welcome to emberbot. Type 'help' for commands."

// Server accepts console connections and runs one session per
// connection until the context is cancelled.
type Server struct {
	addr       string
	greeting   string
	adminHash  string // empty disables the auth command
	dispatcher *command.Dispatcher
	metrics    *observability.Metrics // optional, can be nil

	listener net.Listener
	mu       sync.RWMutex
	handlers sync.WaitGroup
}

// Option configures a Server during construction.
type Option func(*Server)

// WithGreeting replaces the banner sent when a session connects.
func WithGreeting(greeting string) Option {
	return func(s *Server) {
		s.greeting = greeting
	}
}

// WithAdminHash enables the auth command, verified against the given
// argon2id hash in PHC string format.
func WithAdminHash(hash string) Option {
	return func(s *Server) {
		s.adminHash = hash
	}
}

// WithMetrics records connection and auth attempt counters.
func WithMetrics(m *observability.Metrics) Option {
	return func(s *Server) {
		s.metrics = m
	}
}

// NewServer creates a console server. Returns an error if dispatcher is nil.
func NewServer(addr string, dispatcher *command.Dispatcher, opts ...Option) (*Server, error) {
	if dispatcher == nil {
		return nil, oops.Errorf("console server requires a dispatcher")
	}
	s := &Server{
		addr:       addr,
		greeting:   defaultGreeting,
		dispatcher: dispatcher,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Addr returns the server's listen address, or "" before Run binds it.
func (s *Server) Addr() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Run starts the server and blocks until the context is cancelled. On
// cancel it stops accepting, closes the listener, and waits for active
// sessions to finish.
func (s *Server) Run(ctx context.Context) error {
	listener, err := net.Listen("tcp", s.addr)
	if err != nil {
		return oops.With("addr", s.addr).Wrapf(err, "failed to listen")
	}

	s.mu.Lock()
	s.listener = listener
	s.mu.Unlock()

	slog.Info("console server started", "addr", listener.Addr())

	go func() {
		<-ctx.Done()
		if err := listener.Close(); err != nil {
			slog.Debug("error closing listener", "error", err)
		}
	}()

	for {
		conn, err := listener.Accept()
		if err != nil {
			select {
			case <-ctx.Done():
				s.handlers.Wait()
				return nil
			default:
				slog.Error("accept failed", "error", err)
				continue
			}
		}

		if s.metrics != nil {
			s.metrics.ConnectionsTotal.WithLabelValues("console").Inc()
		}

		sess := newSession(conn, s.dispatcher, s.adminHash, s.greeting, s.metrics)
		s.handlers.Add(1)
		go func() {
			defer s.handlers.Done()
			sess.run(ctx)
		}()
	}
}

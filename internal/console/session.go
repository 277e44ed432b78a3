// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Emberbot Contributors

package console

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"strings"

	"github.com/oklog/ulid/v2"

	"github.com/emberbot/emberbot/internal/command"
	"github.com/emberbot/emberbot/internal/observability"
	"github.com/emberbot/emberbot/internal/words"
)

// session handles a single console connection.
type session struct {
	conn       net.Conn
	reader     *bufio.Reader
	dispatcher *command.Dispatcher
	metrics    *observability.Metrics
	adminHash  string
	greeting   string
	id         ulid.ULID
	user       string
	admin      bool
	quitting   bool
	done       chan struct{}
}

func newSession(conn net.Conn, dispatcher *command.Dispatcher, adminHash, greeting string, metrics *observability.Metrics) *session {
	id := NewULID()
	return &session{
		conn:       conn,
		reader:     bufio.NewReader(conn),
		dispatcher: dispatcher,
		metrics:    metrics,
		adminHash:  adminHash,
		greeting:   greeting,
		id:         id,
		user:       guestName(id),
		done:       make(chan struct{}),
	}
}

// guestName derives a default display name from the session ID's random
// tail. Sessions rename themselves with the name command.
func guestName(id ulid.ULID) string {
	s := id.String()
	return "guest-" + strings.ToLower(s[len(s)-6:])
}

// run processes the connection until the peer disconnects, quits, or
// the context is cancelled.
func (s *session) run(ctx context.Context) {
	defer func() {
		close(s.done)
		if err := s.conn.Close(); err != nil && !errors.Is(err, net.ErrClosed) {
			slog.Debug("error closing connection", "error", err)
		}
		slog.Info("session closed",
			"session_id", s.id.String(),
			"user", s.user,
		)
	}()

	slog.Info("session connected",
		"session_id", s.id.String(),
		"remote_addr", s.conn.RemoteAddr().String(),
	)

	s.send(s.greeting)

	lineCh := make(chan string)
	errCh := make(chan error, 1)

	go func() {
		for {
			line, err := s.reader.ReadString('\n')
			if err != nil {
				errCh <- err
				return
			}
			select {
			case lineCh <- strings.TrimSpace(line):
			case <-s.done:
				return
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			s.send("Server shutting down.")
			return

		case err := <-errCh:
			if !errors.Is(err, io.EOF) {
				slog.Debug("connection read error",
					"session_id", s.id.String(),
					"error", err,
				)
			}
			return

		case line := <-lineCh:
			s.handleLine(ctx, line)
			if s.quitting {
				return
			}
		}
	}
}

// handleLine runs one inbound line. The auth and name commands are
// session state, handled here so the password never reaches the command
// pipeline or its logs; everything else goes through the dispatcher.
func (s *session) handleLine(ctx context.Context, line string) {
	w := words.New(words.Shared(&line))
	first, ok := w.Next()
	if !ok {
		return
	}

	switch strings.ToLower(first) {
	case "auth":
		s.handleAuth(ctx, w.Rest())
		return
	case "name":
		s.handleName(w)
		return
	}

	inv := &command.Invocation{
		SessionID: s.id,
		User:      s.user,
		Admin:     s.admin,
		Output:    s.conn,
	}

	err := s.dispatcher.Dispatch(ctx, line, inv)
	if err == nil {
		return
	}
	if errors.Is(err, command.ErrQuitRequested) {
		s.quitting = true
		return
	}
	s.send(command.UserMessage(err))
}

// handleAuth elevates the session to admin when the password matches
// the configured argon2id hash.
func (s *session) handleAuth(ctx context.Context, password string) {
	if s.adminHash == "" {
		s.send("Admin access is not configured.")
		return
	}
	if s.admin {
		s.send("You already have admin access.")
		return
	}
	if password == "" {
		s.send("Usage: auth <password>")
		return
	}

	ok, err := VerifyPassword(password, s.adminHash)
	if err != nil {
		slog.ErrorContext(ctx, "admin password hash is malformed",
			"session_id", s.id.String(),
			"error", err,
		)
		s.send("Admin access is not configured.")
		return
	}
	if !ok {
		slog.WarnContext(ctx, "admin auth denied",
			"session_id", s.id.String(),
			"remote_addr", s.conn.RemoteAddr().String(),
		)
		s.recordAuthAttempt("denied")
		s.send("Invalid password.")
		return
	}

	s.admin = true
	slog.InfoContext(ctx, "admin auth granted",
		"session_id", s.id.String(),
		"user", s.user,
	)
	s.recordAuthAttempt("granted")
	s.send("Admin access granted.")
}

// handleName sets the session's display name.
func (s *session) handleName(w *words.Words) {
	name, ok := w.Next()
	if !ok || name == "" {
		s.send("Usage: name <name>")
		return
	}
	if len(name) > 30 {
		s.send("Names are limited to 30 characters.")
		return
	}

	s.user = name
	s.send(fmt.Sprintf("You are now known as %s.", name))
}

func (s *session) recordAuthAttempt(status string) {
	if s.metrics != nil {
		s.metrics.AuthAttemptsTotal.WithLabelValues(status).Inc()
	}
}

func (s *session) send(msgs ...string) {
	for _, msg := range msgs {
		if _, err := fmt.Fprintln(s.conn, msg); err != nil {
			slog.Debug("failed to send message to client",
				"session_id", s.id.String(),
				"error", err,
			)
			return
		}
	}
}

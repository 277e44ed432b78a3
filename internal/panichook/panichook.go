// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Emberbot Contributors

// Package panichook logs panics before the process dies.
//
// Go panics on a spawned goroutine kill the process with an unstructured
// dump on stderr, which log collectors tend to lose. Goroutines started
// through Go (or guarded with a deferred Recover) instead report the panic
// value and stack through the structured logger and then exit deliberately.
package panichook

import (
	"fmt"
	"log/slog"
	"os"
	"runtime/debug"
)

// exitCode is what the process exits with after a logged panic, matching
// the Go runtime's own exit code for unrecovered panics.
const exitCode = 2

// exit is swapped out in tests.
var exit = os.Exit

// Handle logs the panic value v with the goroutine's stack and terminates
// the process. It never returns.
func Handle(name string, v any) {
	slog.Error("goroutine panicked",
		"name", name,
		"panic", fmt.Sprint(v),
		"stack", string(debug.Stack()))
	slog.Error("Since the process panicked it will now shut down :(")
	exit(exitCode)
}

// Recover logs a panic in flight and terminates the process. Defer it at
// the top of any goroutine whose panic would otherwise crash without a
// structured log line. It must be deferred directly, not wrapped.
func Recover(name string) {
	if v := recover(); v != nil {
		Handle(name, v)
	}
}

// Go runs fn on a new goroutine with the panic hook installed.
func Go(name string, fn func()) {
	go func() {
		defer Recover(name)
		fn()
	}()
}

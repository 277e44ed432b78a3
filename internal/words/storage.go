// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Emberbot Contributors

package words

// Storage is the backing text for a tokenizer: either a string shared
// through a pointer, so every holder observes the same allocation, or a
// static string whose value lives for the life of the process (typically
// a literal). The distinction is a storage tag, not a type hierarchy.
//
// A Storage is immutable after construction. The zero value behaves as
// Static(""). Multiple goroutines may read the same Storage concurrently.
type Storage struct {
	shared *string
	static string
}

// Shared wraps text reachable through a pointer without copying it.
// Callers must not mutate the pointed-to string afterwards.
func Shared(s *string) Storage {
	return Storage{shared: s}
}

// Static wraps a process-lifetime string value.
func Static(s string) Storage {
	return Storage{static: s}
}

// String returns the backing text. It never allocates.
func (s Storage) String() string {
	if s.shared != nil {
		return *s.shared
	}
	return s.static
}

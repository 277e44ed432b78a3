// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Emberbot Contributors

package words

import (
	"strings"
	"unicode"
)

// Trimmed iterates over the words of a string by slicing it between
// separator runs. Nothing is decoded and nothing is copied: every word
// is a substring of the input. Leading, trailing and repeated
// separators are dropped, so no empty words are produced.
type Trimmed struct {
	rest string
}

// NewTrimmed constructs a Trimmed iterator over s.
func NewTrimmed(s string) *Trimmed {
	return &Trimmed{rest: strings.TrimLeftFunc(s, isTrimSeparator)}
}

// Next returns the next word and true, or "" and false once the input
// is exhausted.
func (t *Trimmed) Next() (string, bool) {
	if t.rest == "" {
		return "", false
	}

	n := strings.IndexFunc(t.rest, isTrimSeparator)
	if n < 0 {
		out := t.rest
		t.rest = ""
		return out, true
	}

	out := t.rest[:n]
	t.rest = strings.TrimLeftFunc(t.rest[n:], isTrimSeparator)
	return out, true
}

// isTrimSeparator matches Unicode whitespace and ASCII punctuation. The
// punctuation ranges are spelled out because unicode.IsPunct disagrees
// with the ASCII table on characters like + < = > ^ | and ~.
func isTrimSeparator(r rune) bool {
	if unicode.IsSpace(r) {
		return true
	}
	switch {
	case r >= '!' && r <= '/':
		return true
	case r >= ':' && r <= '@':
		return true
	case r >= '[' && r <= '`':
		return true
	case r >= '{' && r <= '~':
		return true
	}
	return false
}

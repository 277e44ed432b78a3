// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Emberbot Contributors

// Package words splits chat input into words.
//
// Two splitters live here. Words decodes shell-like quoting as it walks
// the input: double-quoted runs keep their internal whitespace, backslash
// escapes decode a small table, and adjacent quoted and unquoted spans
// concatenate into a single word. Trimmed is the cheap one: it slices the
// input between separator runs and decodes nothing.
//
// Neither splitter rejects input. A trailing backslash is dropped, an
// unterminated quote closes at end of input, and every unrecognized
// escape stands for the character itself.
package words

import (
	"strings"
	"unicode/utf8"
)

// Words iterates over the words of a backing text, decoding escapes and
// double-quoted runs as it goes. It is lazy and single-pass: construct a
// new one to walk the same text again. Not safe for concurrent use.
type Words struct {
	storage Storage
	// off is the byte offset one past the lookahead rune.
	off     int
	lookPos int
	look    rune
	hasLook bool
	buf     strings.Builder
}

// New constructs a Words iterator over the given storage.
func New(storage Storage) *Words {
	w := &Words{storage: storage}
	if r, size := utf8.DecodeRuneInString(storage.String()); size > 0 {
		w.look = r
		w.hasLook = true
		w.off = size
	}
	return w
}

// String returns the full backing text, consumed or not.
func (w *Words) String() string {
	return w.storage.String()
}

// take consumes the lookahead rune, pulling the next rune of the input
// into its place. Offsets are byte positions into the backing text; a
// multi-byte rune is never split.
func (w *Words) take() (rune, bool) {
	r, ok := w.look, w.hasLook
	tail := w.storage.String()[w.off:]
	if next, size := utf8.DecodeRuneInString(tail); size > 0 {
		w.lookPos = w.off
		w.look = next
		w.off += size
	} else {
		w.hasLook = false
	}
	return r, ok
}

// peek reports the lookahead rune without consuming it.
func (w *Words) peek() (rune, bool) {
	return w.look, w.hasLook
}

// Rest returns the not yet consumed tail of the input, beginning at the
// lookahead rune. It returns "" once the iterator is exhausted.
func (w *Words) Rest() string {
	if !w.hasLook {
		return ""
	}
	return w.storage.String()[w.lookPos:]
}

// escape decodes one character after a backslash: t, r and n become
// their control characters, anything else stands for itself. A
// backslash at end of input is dropped.
func (w *Words) escape() {
	c, ok := w.take()
	if !ok {
		return
	}
	switch c {
	case 't':
		w.buf.WriteByte('\t')
	case 'r':
		w.buf.WriteByte('\r')
	case 'n':
		w.buf.WriteByte('\n')
	default:
		w.buf.WriteRune(c)
	}
}

// Next returns the next word and true, or "" and false once the input is
// exhausted. Runs of blanks collapse into a single word boundary, so no
// empty words are produced.
func (w *Words) Next() (string, bool) {
	if w.storage.String() == "" {
		return "", false
	}

	for {
		c, ok := w.take()
		if !ok {
			break
		}

		switch {
		case blank(c):
			// Consume the whole run so Rest starts at the next word.
			for {
				p, ok := w.peek()
				if !ok || !blank(p) {
					break
				}
				w.take()
			}

			if w.buf.Len() > 0 {
				return w.flush(), true
			}
		case c == '\\':
			w.escape()
		case c == '"':
			// A quoted run keeps its blanks. The closing quote is
			// not required: end of input closes it silently.
			for {
				c, ok := w.take()
				if !ok || c == '"' {
					break
				}
				if c == '\\' {
					w.escape()
					continue
				}
				w.buf.WriteRune(c)
			}
		default:
			w.buf.WriteRune(c)
		}
	}

	if w.buf.Len() > 0 {
		return w.flush(), true
	}
	return "", false
}

func (w *Words) flush() string {
	out := w.buf.String()
	w.buf.Reset()
	return out
}

// blank reports whether r separates words outside of quotes.
func blank(r rune) bool {
	return r == ' ' || r == '\t' || r == '\r' || r == '\n'
}

// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Emberbot Contributors

// Package player holds the song queue and the track types behind the
// song command: track identifiers, per-source display metadata, and
// the human-readable names shown back in chat.
package player

import "time"

// Item is one entry in the song queue: the track, who asked for it,
// and how long it runs.
type Item struct {
	TrackID  TrackID
	Track    Track
	User     string // requester display name, "" when unattributed
	Duration time.Duration
}

// What renders the human-readable display name of the playback item.
func (i Item) What() string {
	return i.Track.What()
}

// IsPlayable reports whether the item can be played.
func (i Item) IsPlayable() bool {
	return i.Track.IsPlayable()
}

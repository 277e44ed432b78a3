// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Emberbot Contributors

package handlers

import (
	"context"

	"github.com/emberbot/emberbot/internal/command"
	"github.com/emberbot/emberbot/internal/player"
)

const songUsage = "song <request|current|skip|list>"

// maxListedSongs caps the output of song list.
const maxListedSongs = 10

// NewSongHandler creates the song command over a player queue. A nil
// queue disables the feature with a friendly reply instead of an error.
//
// Usage:
//
//	song request <track> ["title" ["artist"...]]
//	song current
//	song skip
//	song list
func NewSongHandler(queue *player.Queue) command.Handler {
	return func(ctx context.Context, inv *command.Invocation) error {
		if queue == nil {
			writeOutput(ctx, inv, "song", "The song player is not enabled.")
			return nil
		}

		sub, ok := inv.Args.Next()
		if !ok {
			return command.ErrInvalidArgs("song", songUsage)
		}

		switch sub {
		case "request":
			return songRequest(ctx, inv, queue)
		case "current":
			return songCurrent(ctx, inv, queue)
		case "skip":
			return songSkip(ctx, inv, queue)
		case "list":
			return songList(ctx, inv, queue)
		default:
			return command.ErrInvalidArgs("song", songUsage)
		}
	}
}

// songRequest parses a track reference and optional display metadata
// from the argument words. A quoted title survives as one word, so
// `song request spotify:track:x "Never Gonna Give You Up" "Rick Astley"`
// carries both through the tokenizer intact.
func songRequest(ctx context.Context, inv *command.Invocation, queue *player.Queue) error {
	ref, ok := inv.Args.Next()
	if !ok {
		return command.ErrInvalidArgs("song", `song request <track> ["title" ["artist"...]]`)
	}

	trackID, err := player.ParseTrackID(ref)
	if err != nil {
		writeOutput(ctx, inv, "song", "I don't recognize that track link. Paste a Spotify or YouTube URL.")
		return nil
	}

	title, _ := inv.Args.Next()
	var rest []string
	for {
		word, ok := inv.Args.Next()
		if !ok {
			break
		}
		rest = append(rest, word)
	}

	it := player.Item{
		TrackID: trackID,
		Track:   buildTrack(trackID, title, rest),
		User:    inv.User,
	}

	queue.Push(it)
	writeOutputf(ctx, inv, "song", "Added %s to the queue (position %d).\n", it.What(), queue.Len())
	return nil
}

// buildTrack assembles display metadata from the request line. Missing
// metadata falls back to the per-source unknown rendering.
func buildTrack(id player.TrackID, title string, rest []string) player.Track {
	switch id.Source {
	case player.SourceSpotify:
		if title == "" {
			return player.Track{}
		}
		return player.Spotify(&player.SpotifyTrack{Name: title, Artists: rest})
	case player.SourceYouTube:
		v := &player.YouTubeVideo{Title: title}
		if len(rest) > 0 {
			v.ChannelTitle = rest[0]
		}
		return player.YouTube(v)
	default:
		return player.Track{}
	}
}

func songCurrent(ctx context.Context, inv *command.Invocation, queue *player.Queue) error {
	cur, ok := queue.Current()
	if !ok {
		writeOutput(ctx, inv, "song", "No song is playing.")
		return nil
	}

	if cur.User != "" {
		writeOutputf(ctx, inv, "song", "Current song: %s, requested by %s.\n", cur.What(), cur.User)
	} else {
		writeOutputf(ctx, inv, "song", "Current song: %s.\n", cur.What())
	}
	return nil
}

func songSkip(ctx context.Context, inv *command.Invocation, queue *player.Queue) error {
	next, ok := queue.Skip()
	if !ok {
		writeOutput(ctx, inv, "song", "Nothing left to play.")
		return nil
	}

	if next.User != "" {
		writeOutputf(ctx, inv, "song", "Skipped. Now playing: %s, requested by %s.\n", next.What(), next.User)
	} else {
		writeOutputf(ctx, inv, "song", "Skipped. Now playing: %s.\n", next.What())
	}
	return nil
}

func songList(ctx context.Context, inv *command.Invocation, queue *player.Queue) error {
	items := queue.List()
	if len(items) == 0 {
		writeOutput(ctx, inv, "song", "The queue is empty.")
		return nil
	}

	writeOutput(ctx, inv, "song", "Songs in the queue:")
	for i, it := range items {
		if i == maxListedSongs {
			writeOutputf(ctx, inv, "song", "  ... and %d more.\n", len(items)-maxListedSongs)
			break
		}
		if it.User != "" {
			writeOutputf(ctx, inv, "song", "  %d. %s (requested by %s)\n", i+1, it.What(), it.User)
		} else {
			writeOutputf(ctx, inv, "song", "  %d. %s\n", i+1, it.What())
		}
	}
	return nil
}

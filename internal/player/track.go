// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Emberbot Contributors

package player

import (
	"net/url"
	"strings"

	"github.com/samber/oops"
)

// Track sources.
const (
	SourceSpotify = "spotify"
	SourceYouTube = "youtube"
)

// CodeBadTrack marks errors from unparseable track references.
const CodeBadTrack = "BAD_TRACK"

// TrackID identifies a track on a supported source.
type TrackID struct {
	Source string // SourceSpotify or SourceYouTube
	ID     string // source-native identifier
}

// String renders the canonical URI form, "spotify:track:<id>" or
// "youtube:video:<id>".
func (t TrackID) String() string {
	switch t.Source {
	case SourceSpotify:
		return "spotify:track:" + t.ID
	case SourceYouTube:
		return "youtube:video:" + t.ID
	default:
		return t.ID
	}
}

// IsZero reports whether the id is unset.
func (t TrackID) IsZero() bool {
	return t.Source == "" && t.ID == ""
}

// ParseTrackID recognizes the common ways users paste tracks into chat:
//
//	spotify:track:<id>
//	https://open.spotify.com/track/<id>
//	youtube:video:<id>
//	https://www.youtube.com/watch?v=<id>
//	https://youtu.be/<id>
func ParseTrackID(s string) (TrackID, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return TrackID{}, oops.Code(CodeBadTrack).Errorf("empty track reference")
	}

	if id, ok := strings.CutPrefix(s, "spotify:track:"); ok && id != "" {
		return TrackID{Source: SourceSpotify, ID: id}, nil
	}
	if id, ok := strings.CutPrefix(s, "youtube:video:"); ok && id != "" {
		return TrackID{Source: SourceYouTube, ID: id}, nil
	}

	if strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://") {
		return parseTrackURL(s)
	}

	return TrackID{}, oops.Code(CodeBadTrack).
		With("input", s).
		Errorf("unrecognized track reference")
}

func parseTrackURL(s string) (TrackID, error) {
	u, err := url.Parse(s)
	if err != nil {
		return TrackID{}, oops.Code(CodeBadTrack).
			With("input", s).
			Wrapf(err, "parse track url")
	}

	host := strings.TrimPrefix(u.Hostname(), "www.")
	switch host {
	case "open.spotify.com":
		if id, ok := strings.CutPrefix(u.Path, "/track/"); ok && id != "" {
			id = strings.SplitN(id, "/", 2)[0]
			return TrackID{Source: SourceSpotify, ID: id}, nil
		}
	case "youtube.com", "m.youtube.com", "music.youtube.com":
		if u.Path == "/watch" {
			if id := u.Query().Get("v"); id != "" {
				return TrackID{Source: SourceYouTube, ID: id}, nil
			}
		}
	case "youtu.be":
		if id := strings.TrimPrefix(u.Path, "/"); id != "" {
			id = strings.SplitN(id, "/", 2)[0]
			return TrackID{Source: SourceYouTube, ID: id}, nil
		}
	}

	return TrackID{}, oops.Code(CodeBadTrack).
		With("input", s).
		Errorf("unrecognized track url")
}

// SpotifyTrack holds the metadata shown for a Spotify track.
type SpotifyTrack struct {
	Name     string
	Artists  []string
	Playable *bool // nil means playable
}

// YouTubeVideo holds the metadata shown for a YouTube video. Empty
// fields mean the metadata was unavailable.
type YouTubeVideo struct {
	Title        string
	ChannelTitle string
}

// Track is a tagged container over the supported track variants. The
// zero value is a track with no metadata: it renders as an unknown
// track and is not playable.
type Track struct {
	spotify *SpotifyTrack
	youtube *YouTubeVideo
}

// Spotify wraps Spotify track metadata.
func Spotify(t *SpotifyTrack) Track {
	return Track{spotify: t}
}

// YouTube wraps YouTube video metadata.
func YouTube(v *YouTubeVideo) Track {
	return Track{youtube: v}
}

// What renders the human-readable display name for the track:
// `"Title" by A, B and C` for Spotify, `"Title" from "Channel"` for
// YouTube, with fallbacks when metadata is missing.
func (t Track) What() string {
	switch {
	case t.spotify != nil:
		if artists := humanArtists(t.spotify.Artists); artists != "" {
			return `"` + t.spotify.Name + `" by ` + artists
		}
		return `"` + t.spotify.Name + `"`
	case t.youtube != nil:
		if t.youtube.Title == "" {
			return "*Some YouTube Video*"
		}
		if t.youtube.ChannelTitle == "" {
			return `"` + t.youtube.Title + `"`
		}
		return `"` + t.youtube.Title + `" from "` + t.youtube.ChannelTitle + `"`
	default:
		return "*Some Unknown Track*"
	}
}

// IsPlayable reports whether the track can be played. Spotify tracks
// carry an explicit flag (absent means playable); YouTube videos are
// always considered playable.
func (t Track) IsPlayable() bool {
	switch {
	case t.spotify != nil:
		return t.spotify.Playable == nil || *t.spotify.Playable
	case t.youtube != nil:
		return true
	default:
		return false
	}
}

// humanArtists joins artist names for display: "A", "A and B",
// "A, B and C". Empty input yields "".
func humanArtists(artists []string) string {
	switch len(artists) {
	case 0:
		return ""
	case 1:
		return artists[0]
	default:
		return strings.Join(artists[:len(artists)-1], ", ") + " and " + artists[len(artists)-1]
	}
}

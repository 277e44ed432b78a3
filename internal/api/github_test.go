// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Emberbot Contributors

package api

import (
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/samber/oops"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const releasesFixture = `[
  {
    "tag_name": "v1.4.0",
    "name": "1.4.0",
    "draft": false,
    "prerelease": false,
    "published_at": "2026-03-01T12:00:00Z",
    "assets": [
      {
        "name": "emberbot-linux-amd64.tar.gz",
        "content_type": "application/gzip",
        "size": 4194304,
        "browser_download_url": "https://example.com/emberbot-linux-amd64.tar.gz"
      }
    ]
  },
  {
    "tag_name": "v1.5.0-beta.1",
    "name": "1.5.0 beta 1",
    "draft": false,
    "prerelease": true,
    "published_at": "2026-03-10T09:30:00Z",
    "assets": []
  },
  {
    "tag_name": "v1.5.0",
    "name": "1.5.0 draft",
    "draft": true,
    "prerelease": false,
    "published_at": null,
    "assets": []
  }
]`

// fastRetries shrinks the backoff so failure paths finish quickly.
func fastRetries(g *GitHub) {
	g.retryBase = time.Millisecond
}

func TestGitHub_Releases(t *testing.T) {
	var gotPath, gotUserAgent, gotAccept string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotUserAgent = r.Header.Get("User-Agent")
		gotAccept = r.Header.Get("Accept")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(releasesFixture))
	}))
	defer srv.Close()

	g := NewGitHub(WithBaseURL(srv.URL))

	releases, err := g.Releases(t.Context(), "emberbot", "emberbot")
	require.NoError(t, err)

	assert.Equal(t, "/repos/emberbot/emberbot/releases", gotPath)
	assert.Contains(t, gotUserAgent, "emberbot")
	assert.Equal(t, "application/vnd.github+json", gotAccept)

	require.Len(t, releases, 3)

	stable := releases[0]
	assert.Equal(t, "v1.4.0", stable.TagName)
	assert.False(t, stable.Prerelease)
	assert.False(t, stable.Draft)
	assert.Equal(t, time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC), stable.PublishedAt)
	require.Len(t, stable.Assets, 1)
	assert.Equal(t, "emberbot-linux-amd64.tar.gz", stable.Assets[0].Name)
	assert.Equal(t, int64(4194304), stable.Assets[0].Size)

	assert.True(t, releases[1].Prerelease)

	// Drafts have a null published_at; it decodes to the zero time.
	assert.True(t, releases[2].Draft)
	assert.True(t, releases[2].PublishedAt.IsZero())
}

func TestGitHub_Releases_NotFoundDoesNotRetry(t *testing.T) {
	var attempts atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		attempts.Add(1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	g := NewGitHub(WithBaseURL(srv.URL), fastRetries)

	_, err := g.Releases(t.Context(), "emberbot", "missing")
	require.Error(t, err)
	assert.Equal(t, int32(1), attempts.Load(), "4xx responses must not be retried")

	oopsErr, ok := oops.AsOops(err)
	require.True(t, ok)
	assert.Equal(t, "API_STATUS", oopsErr.Code())
	assert.Equal(t, 404, oopsErr.Context()["status"])
}

func TestGitHub_Releases_RetriesServerErrors(t *testing.T) {
	var attempts atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if attempts.Add(1) <= 2 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		_, _ = w.Write([]byte("[]"))
	}))
	defer srv.Close()

	g := NewGitHub(WithBaseURL(srv.URL), fastRetries)

	releases, err := g.Releases(t.Context(), "emberbot", "emberbot")
	require.NoError(t, err)
	assert.Empty(t, releases)
	assert.Equal(t, int32(3), attempts.Load(), "two failures then success")
}

func TestGitHub_Releases_GivesUpAfterMaxRetries(t *testing.T) {
	var attempts atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		attempts.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	g := NewGitHub(WithBaseURL(srv.URL), fastRetries)

	_, err := g.Releases(t.Context(), "emberbot", "emberbot")
	require.Error(t, err)
	assert.Equal(t, int32(4), attempts.Load(), "initial attempt plus three retries")

	oopsErr, ok := oops.AsOops(err)
	require.True(t, ok)
	assert.Equal(t, "API_STATUS", oopsErr.Code())
}

func TestGitHub_Releases_TransportErrorSurfaces(t *testing.T) {
	// Point at a closed server so every dial fails.
	srv := httptest.NewServer(http.HandlerFunc(func(_ http.ResponseWriter, _ *http.Request) {}))
	url := srv.URL
	srv.Close()

	g := NewGitHub(WithBaseURL(url), fastRetries)

	_, err := g.Releases(t.Context(), "emberbot", "emberbot")
	require.Error(t, err)

	oopsErr, ok := oops.AsOops(err)
	require.True(t, ok)
	assert.Equal(t, "API_TRANSPORT", oopsErr.Code())
}

func TestGitHub_Releases_MalformedBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("{not json"))
	}))
	defer srv.Close()

	g := NewGitHub(WithBaseURL(srv.URL), fastRetries)

	_, err := g.Releases(t.Context(), "emberbot", "emberbot")
	require.Error(t, err)

	oopsErr, ok := oops.AsOops(err)
	require.True(t, ok)
	assert.Equal(t, "API_DECODE", oopsErr.Code())
}

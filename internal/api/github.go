// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Emberbot Contributors

// Package api provides the minimal GitHub REST client the updater needs:
// listing the releases of a repository.
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/samber/oops"
	"github.com/sethvargo/go-retry"
)

const (
	defaultBaseURL = "https://api.github.com"
	defaultTimeout = 30 * time.Second

	// GitHub rejects requests without a User-Agent.
	userAgent = "emberbot (+https://github.com/emberbot/emberbot)"
)

// Release is one GitHub release of a repository.
type Release struct {
	TagName     string    `json:"tag_name"`
	Name        string    `json:"name"`
	Draft       bool      `json:"draft"`
	Prerelease  bool      `json:"prerelease"`
	PublishedAt time.Time `json:"published_at"`
	Assets      []Asset   `json:"assets"`
}

// Asset is a downloadable file attached to a release.
type Asset struct {
	Name               string `json:"name"`
	ContentType        string `json:"content_type"`
	Size               int64  `json:"size"`
	BrowserDownloadURL string `json:"browser_download_url"`
}

// GitHub is a client for the GitHub REST API.
type GitHub struct {
	baseURL    string
	httpClient *http.Client
	retryBase  time.Duration
}

// GitHubOption configures a GitHub client during construction.
type GitHubOption func(*GitHub)

// WithBaseURL points the client at a different API endpoint. Used by
// tests and GitHub Enterprise installs.
func WithBaseURL(url string) GitHubOption {
	return func(g *GitHub) {
		g.baseURL = url
	}
}

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(c *http.Client) GitHubOption {
	return func(g *GitHub) {
		g.httpClient = c
	}
}

// NewGitHub creates a GitHub API client.
func NewGitHub(opts ...GitHubOption) *GitHub {
	g := &GitHub{
		baseURL:    defaultBaseURL,
		httpClient: &http.Client{Timeout: defaultTimeout},
		retryBase:  500 * time.Millisecond,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Releases lists the releases of a repository, newest first per the
// API's default ordering. Transport errors and 5xx responses are
// retried with capped exponential backoff; other failures return
// immediately.
func (g *GitHub) Releases(ctx context.Context, owner, repo string) ([]Release, error) {
	url := fmt.Sprintf("%s/repos/%s/%s/releases", g.baseURL, owner, repo)

	backoff := retry.NewExponential(g.retryBase)
	backoff = retry.WithCappedDuration(5*time.Second, backoff)
	backoff = retry.WithMaxRetries(3, backoff)

	var releases []Release
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return oops.Code("API_REQUEST").With("url", url).Wrap(err)
		}
		req.Header.Set("User-Agent", userAgent)
		req.Header.Set("Accept", "application/vnd.github+json")

		resp, err := g.httpClient.Do(req)
		if err != nil {
			return retry.RetryableError(oops.Code("API_TRANSPORT").With("url", url).Wrap(err))
		}
		defer resp.Body.Close()

		if resp.StatusCode >= http.StatusInternalServerError {
			return retry.RetryableError(oops.Code("API_STATUS").
				With("url", url).
				With("status", resp.StatusCode).
				Errorf("github returned %s", resp.Status))
		}
		if resp.StatusCode != http.StatusOK {
			return oops.Code("API_STATUS").
				With("url", url).
				With("status", resp.StatusCode).
				Errorf("github returned %s", resp.Status)
		}

		releases = releases[:0]
		if err := json.NewDecoder(resp.Body).Decode(&releases); err != nil {
			return oops.Code("API_DECODE").With("url", url).Wrapf(err, "decode releases")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return releases, nil
}

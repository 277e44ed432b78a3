// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Emberbot Contributors

// Package updater periodically checks GitHub for new emberbot releases.
//
// Checks run through the persistent cache when one is configured, so
// restarts inside the cache window do not hammer the GitHub API. The most
// recent stable release is kept in memory for the version command to
// report.
package updater

import (
	"context"
	"encoding/json"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/Masterminds/semver/v3"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/samber/oops"

	"github.com/emberbot/emberbot/internal/api"
	"github.com/emberbot/emberbot/internal/cache"
)

const (
	githubOwner = "emberbot"
	githubRepo  = "emberbot"

	cacheKey = "updater/version"
	cacheTTL = time.Hour
)

// DefaultCheckInterval is how often the updater looks for new releases.
const DefaultCheckInterval = 6 * time.Hour

// ReleaseLister lists the releases of a GitHub repository. Satisfied by
// api.GitHub.
type ReleaseLister interface {
	Releases(ctx context.Context, owner, repo string) ([]api.Release, error)
}

// Updater tracks the newest stable release of emberbot. It is safe for
// concurrent use.
type Updater struct {
	github   ReleaseLister
	cache    *cache.Cache
	version  string
	interval time.Duration

	mu     sync.RWMutex
	latest *api.Release

	checksTotal *prometheus.CounterVec
}

// Option configures an Updater.
type Option func(*Updater)

// WithCache routes release fetches through the persistent cache.
func WithCache(c *cache.Cache) Option {
	return func(u *Updater) {
		u.cache = c
	}
}

// WithCheckInterval overrides how often the updater checks for releases.
// Intervals of zero or less are ignored.
func WithCheckInterval(interval time.Duration) Option {
	return func(u *Updater) {
		if interval > 0 {
			u.interval = interval
		}
	}
}

// WithRegistry registers the updater's check counter with reg.
func WithRegistry(reg prometheus.Registerer) Option {
	return func(u *Updater) {
		u.checksTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "emberbot_updater_checks_total",
			Help: "Total release checks performed, by outcome",
		}, []string{"outcome"})
		reg.MustRegister(u.checksTotal)
	}
}

// New creates an updater for the given running version. It does not start
// checking until Run is called.
func New(version string, github ReleaseLister, opts ...Option) *Updater {
	u := &Updater{
		github:   github,
		version:  version,
		interval: DefaultCheckInterval,
	}
	for _, opt := range opts {
		opt(u)
	}
	return u
}

// Run checks for releases immediately and then on every interval tick until
// ctx is canceled. Failed checks are logged and retried on the next tick.
func (u *Updater) Run(ctx context.Context) error {
	if err := u.check(ctx); err != nil {
		slog.WarnContext(ctx, "release check failed", "error", err)
	}

	ticker := time.NewTicker(u.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if err := u.check(ctx); err != nil {
				slog.WarnContext(ctx, "release check failed", "error", err)
			}
		}
	}
}

// CheckNow performs a single release check outside the Run schedule. It
// records the result exactly as a scheduled check would.
func (u *Updater) CheckNow(ctx context.Context) error {
	return u.check(ctx)
}

func (u *Updater) check(ctx context.Context) error {
	slog.DebugContext(ctx, "checking for new release")

	releases, err := u.fetchReleases(ctx)
	if err != nil {
		u.recordCheck("error")
		return err
	}

	release, ok := pickLatest(releases)
	if !ok {
		u.recordCheck("none")
		slog.DebugContext(ctx, "no stable release published yet")
		return nil
	}

	u.mu.Lock()
	u.latest = &release
	u.mu.Unlock()
	u.recordCheck("ok")

	slog.DebugContext(ctx, "latest stable release recorded",
		"tag", release.TagName,
		"published_at", release.PublishedAt)
	return nil
}

// fetchReleases lists releases, going through the cache when one is
// configured. Cached payloads are the JSON-encoded release list.
func (u *Updater) fetchReleases(ctx context.Context) ([]api.Release, error) {
	if u.cache == nil {
		return u.github.Releases(ctx, githubOwner, githubRepo)
	}

	data, err := u.cache.Wrap(ctx, cacheKey, cacheTTL, func(ctx context.Context) ([]byte, error) {
		releases, err := u.github.Releases(ctx, githubOwner, githubRepo)
		if err != nil {
			return nil, err
		}
		return json.Marshal(releases)
	})
	if err != nil {
		return nil, err
	}

	var releases []api.Release
	if err := json.Unmarshal(data, &releases); err != nil {
		return nil, oops.
			Code("UPDATER_CACHE_DECODE").
			With("key", cacheKey).
			Wrapf(err, "failed to decode cached releases")
	}
	return releases, nil
}

// pickLatest returns the most recently published release that is neither a
// draft nor a prerelease.
func pickLatest(releases []api.Release) (api.Release, bool) {
	sort.Slice(releases, func(i, j int) bool {
		return releases[i].PublishedAt.After(releases[j].PublishedAt)
	})

	for _, release := range releases {
		if release.Draft || release.Prerelease {
			continue
		}
		return release, true
	}
	return api.Release{}, false
}

// Latest returns the most recent stable release seen by any check so far.
func (u *Updater) Latest() (api.Release, bool) {
	u.mu.RLock()
	defer u.mu.RUnlock()

	if u.latest == nil {
		return api.Release{}, false
	}
	return *u.latest, true
}

// Available reports whether the latest known release is newer than the
// running version. Tags or running versions that do not parse as semver are
// never offered as updates.
func (u *Updater) Available() (string, bool) {
	latest, ok := u.Latest()
	if !ok {
		return "", false
	}

	current, err := semver.NewVersion(u.version)
	if err != nil {
		return "", false
	}
	next, err := semver.NewVersion(latest.TagName)
	if err != nil {
		return "", false
	}

	if next.GreaterThan(current) {
		return latest.TagName, true
	}
	return "", false
}

func (u *Updater) recordCheck(outcome string) {
	if u.checksTotal != nil {
		u.checksTotal.WithLabelValues(outcome).Inc()
	}
}

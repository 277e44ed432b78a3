// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Emberbot Contributors

// Package cache provides a persistent key/value cache backed by SQLite.
//
// Entries carry a time-to-live. Expired entries read as misses, and a
// background janitor removes them from disk. The typical consumer wraps a
// slow fetch with Wrap so repeated lookups inside the TTL window hit the
// local database instead of the network.
package cache

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/samber/oops"
	_ "modernc.org/sqlite"
)

// DefaultJanitorInterval is how often the background janitor purges expired
// entries.
const DefaultJanitorInterval = 5 * time.Minute

// Cache is a SQLite-backed key/value store with per-entry expiry. It is safe
// for concurrent use.
//
// The Cache runs a background goroutine that purges expired entries. Call
// Close to stop it and release the database handle.
type Cache struct {
	db *sql.DB

	stopChan  chan struct{}
	wg        sync.WaitGroup
	closeOnce sync.Once
}

// Option configures a Cache.
type Option func(*options)

type options struct {
	janitorInterval time.Duration
}

// WithJanitorInterval overrides how often the janitor purges expired entries.
// Intervals of zero or less are ignored.
func WithJanitorInterval(interval time.Duration) Option {
	return func(o *options) {
		if interval > 0 {
			o.janitorInterval = interval
		}
	}
}

// Open opens the cache database at path, creating it if necessary, applies
// pending schema migrations, and starts the expiry janitor.
func Open(path string, opts ...Option) (*Cache, error) {
	o := options{janitorInterval: DefaultJanitorInterval}
	for _, opt := range opts {
		opt(&o)
	}

	if err := applyMigrations(path); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, oops.
			Code("CACHE_OPEN_FAILED").
			With("path", path).
			Wrapf(err, "failed to open cache database")
	}

	// modernc.org/sqlite serializes writers. A single connection avoids
	// SQLITE_BUSY errors under concurrent access.
	db.SetMaxOpenConns(1)

	for _, pragma := range []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
	} {
		if _, err := db.Exec(pragma); err != nil {
			_ = db.Close()
			return nil, oops.
				Code("CACHE_OPEN_FAILED").
				With("path", path).
				With("pragma", pragma).
				Wrapf(err, "failed to configure cache database")
		}
	}

	c := &Cache{
		db:       db,
		stopChan: make(chan struct{}),
	}

	c.wg.Add(1)
	go c.janitorLoop(o.janitorInterval)

	return c, nil
}

// Get returns the value stored under key. Expired entries read as misses;
// the janitor removes them from disk later.
func (c *Cache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	var (
		value     []byte
		expiresAt int64
	)
	err := c.db.QueryRowContext(ctx,
		`SELECT value, expires_at FROM cache_entries WHERE key = ?`, key,
	).Scan(&value, &expiresAt)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return nil, false, nil
	case err != nil:
		return nil, false, oops.
			Code("CACHE_GET_FAILED").
			With("key", key).
			Wrapf(err, "failed to read cache entry")
	}

	if expiresAt <= time.Now().UnixMilli() {
		return nil, false, nil
	}
	return value, true, nil
}

// Put stores value under key for ttl. An existing entry is replaced.
func (c *Cache) Put(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl <= 0 {
		return oops.
			Code("CACHE_BAD_TTL").
			With("key", key).
			With("ttl", ttl.String()).
			Errorf("cache ttl must be positive")
	}

	expiresAt := time.Now().Add(ttl).UnixMilli()
	_, err := c.db.ExecContext(ctx,
		`INSERT INTO cache_entries (key, value, expires_at) VALUES (?, ?, ?)
		 ON CONFLICT (key) DO UPDATE SET value = excluded.value, expires_at = excluded.expires_at`,
		key, value, expiresAt,
	)
	if err != nil {
		return oops.
			Code("CACHE_PUT_FAILED").
			With("key", key).
			Wrapf(err, "failed to write cache entry")
	}
	return nil
}

// Delete removes the entry stored under key. Deleting a missing key is not
// an error.
func (c *Cache) Delete(ctx context.Context, key string) error {
	if _, err := c.db.ExecContext(ctx,
		`DELETE FROM cache_entries WHERE key = ?`, key,
	); err != nil {
		return oops.
			Code("CACHE_DELETE_FAILED").
			With("key", key).
			Wrapf(err, "failed to delete cache entry")
	}
	return nil
}

// Wrap returns the cached value for key when present. Otherwise it calls
// fetch, stores the result for ttl, and returns it. A fetch error is
// returned as-is and nothing is stored.
func (c *Cache) Wrap(ctx context.Context, key string, ttl time.Duration, fetch func(context.Context) ([]byte, error)) ([]byte, error) {
	if data, ok, err := c.Get(ctx, key); err != nil {
		return nil, err
	} else if ok {
		return data, nil
	}

	data, err := fetch(ctx)
	if err != nil {
		return nil, err
	}
	if err := c.Put(ctx, key, data, ttl); err != nil {
		return nil, err
	}
	return data, nil
}

// janitorLoop runs periodic purges in the background.
func (c *Cache) janitorLoop(interval time.Duration) {
	defer c.wg.Done()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-c.stopChan:
			return
		case <-ticker.C:
			c.purgeExpired()
		}
	}
}

// purgeExpired deletes entries whose expiry has passed. Failures are logged
// and retried on the next tick.
func (c *Cache) purgeExpired() {
	res, err := c.db.Exec(
		`DELETE FROM cache_entries WHERE expires_at <= ?`, time.Now().UnixMilli(),
	)
	if err != nil {
		slog.Warn("cache janitor purge failed", "error", err)
		return
	}
	if n, err := res.RowsAffected(); err == nil && n > 0 {
		slog.Debug("purged expired cache entries", "count", n)
	}
}

// Close stops the janitor and closes the database. It blocks until the
// janitor goroutine has stopped and is safe to call more than once.
func (c *Cache) Close() error {
	var err error
	c.closeOnce.Do(func() {
		close(c.stopChan)
		c.wg.Wait()
		err = c.db.Close()
	})
	return err
}

// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Emberbot Contributors

package cache

import (
	"embed"
	"errors"
	"log/slog"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/samber/oops"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// applyMigrations brings the cache database at path up to the latest schema.
// It opens its own short-lived connection so the caller's pool is untouched.
func applyMigrations(path string) error {
	source, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return oops.
			Code("MIGRATION_SOURCE_FAILED").
			Wrapf(err, "failed to load embedded migrations")
	}

	m, err := migrate.NewWithSourceInstance("iofs", source, "sqlite://"+path)
	if err != nil {
		return oops.
			Code("MIGRATION_INIT_FAILED").
			With("path", path).
			Wrapf(err, "failed to initialize migrator")
	}
	defer func() {
		if sourceErr, dbErr := m.Close(); sourceErr != nil || dbErr != nil {
			slog.Warn("failed to close cache migrator",
				"source_error", sourceErr,
				"database_error", dbErr)
		}
	}()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return oops.
			Code("MIGRATION_UP_FAILED").
			With("path", path).
			Wrapf(err, "failed to apply migrations")
	}
	return nil
}

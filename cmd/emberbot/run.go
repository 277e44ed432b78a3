// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Emberbot Contributors

package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/emberbot/emberbot/internal/api"
	"github.com/emberbot/emberbot/internal/cache"
	"github.com/emberbot/emberbot/internal/command"
	"github.com/emberbot/emberbot/internal/command/handlers"
	"github.com/emberbot/emberbot/internal/config"
	"github.com/emberbot/emberbot/internal/console"
	"github.com/emberbot/emberbot/internal/logging"
	"github.com/emberbot/emberbot/internal/observability"
	"github.com/emberbot/emberbot/internal/panichook"
	"github.com/emberbot/emberbot/internal/player"
	"github.com/emberbot/emberbot/internal/updater"
	"github.com/emberbot/emberbot/internal/xdg"
	"github.com/emberbot/emberbot/pkg/errutil"
)

// NewRunCmd creates the run subcommand.
func NewRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Start the emberbot server",
		Long: `Start the emberbot server: the TCP console, the metrics endpoint,
and the background release checker, as configured.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(resolveConfigPath(configFile), cmd.Flags())
			if err != nil {
				return fmt.Errorf("invalid configuration: %w", err)
			}
			return runBot(cmd.Context(), cmd, cfg)
		},
	}

	// Flag names use dots matching the config keys so changed flags
	// override the file layer.
	cmd.Flags().String("console.addr", config.DefaultConsoleAddr, "console listen address")
	cmd.Flags().String("metrics.addr", config.DefaultMetricsAddr, "metrics/health HTTP address (empty = disabled)")
	cmd.Flags().String("log.format", config.DefaultLogFormat, "log format (json or text)")
	cmd.Flags().String("log.level", config.DefaultLogLevel, "log level (debug, info, warn or error)")

	return cmd
}

// resolveConfigPath returns the explicit path when one was given, the
// default XDG config file when it exists, and nothing otherwise.
func resolveConfigPath(explicit string) string {
	if explicit != "" {
		return explicit
	}
	def := config.DefaultPath()
	if _, err := os.Stat(def); err == nil {
		return def
	}
	return ""
}

// runBot starts every configured component and blocks until the context is
// cancelled, a shutdown signal arrives, or a server fails.
func runBot(ctx context.Context, cmd *cobra.Command, cfg config.Config) error {
	logging.SetDefault("emberbot", version, cfg.Log.Format, cfg.Log.Level)

	slog.Info("starting emberbot",
		"version", version,
		"console_addr", cfg.Console.Addr,
	)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	// The observability server carries the registry every component
	// registers its metrics with. Created first, started once the console
	// exists so the readiness probe can see it.
	var consoleSrv atomic.Pointer[console.Server]
	var obs *observability.Server
	if cfg.Metrics.Addr != "" {
		obs = observability.NewServer(cfg.Metrics.Addr, func() bool {
			srv := consoleSrv.Load()
			return srv != nil && srv.Addr() != ""
		})
		command.RegisterMetrics(obs.Registry())
	}

	// The release cache is auxiliary. Losing it costs extra GitHub
	// requests, not functionality, so failures log and continue.
	var releaseCache *cache.Cache
	if cfg.Cache.Enabled {
		path := cfg.Cache.ResolvePath()
		if err := xdg.EnsureDir(filepath.Dir(path)); err != nil {
			slog.Warn("cache directory unavailable, continuing without cache", "error", err)
		} else if c, err := cache.Open(path); err != nil {
			slog.Warn("cache unavailable, continuing without cache", "path", path, "error", err)
		} else {
			releaseCache = c
			defer func() {
				if err := releaseCache.Close(); err != nil {
					slog.Warn("error closing cache", "error", err)
				}
			}()
			slog.Info("release cache open", "path", path)
		}
	}

	var upd *updater.Updater
	if cfg.Updater.Enabled {
		opts := []updater.Option{
			updater.WithCheckInterval(cfg.Updater.CheckInterval()),
		}
		if releaseCache != nil {
			opts = append(opts, updater.WithCache(releaseCache))
		}
		if obs != nil {
			opts = append(opts, updater.WithRegistry(obs.Registry()))
		}
		upd = updater.New(version, api.NewGitHub(), opts...)
		panichook.Go("updater", func() {
			if err := upd.Run(ctx); err != nil {
				errutil.LogError(slog.Default(), "updater stopped", err)
			}
		})
	}

	var aliases *command.AliasCache
	if cfg.Aliases.Enabled {
		aliases = command.NewAliasCache()
	}

	registry := command.NewRegistry()
	deps := handlers.Deps{
		Aliases: aliases,
		Queue:   player.NewQueue(),
		Version: version,
	}
	if upd != nil {
		deps.Updates = upd
	}
	handlers.RegisterAll(registry, deps)

	rlCfg := command.RateLimiterConfig{
		BurstCapacity: cfg.Console.RateLimit.Burst,
		SustainedRate: cfg.Console.RateLimit.SustainedRate,
	}
	var limiter *command.RateLimiter
	if obs != nil {
		limiter = command.NewRateLimiterWithRegistry(rlCfg, obs.Registry())
	} else {
		limiter = command.NewRateLimiter(rlCfg)
	}
	defer limiter.Close()

	dispatcher, err := command.NewDispatcher(registry,
		command.WithAliasCache(aliases),
		command.WithRateLimiter(limiter),
	)
	if err != nil {
		return fmt.Errorf("failed to build dispatcher: %w", err)
	}

	var consoleOpts []console.Option
	if cfg.Console.Greeting != "" {
		consoleOpts = append(consoleOpts, console.WithGreeting(cfg.Console.Greeting))
	}
	if cfg.Console.AdminPasswordHash != "" {
		consoleOpts = append(consoleOpts, console.WithAdminHash(cfg.Console.AdminPasswordHash))
	}
	if obs != nil {
		consoleOpts = append(consoleOpts, console.WithMetrics(obs.Metrics()))
	}

	srv, err := console.NewServer(cfg.Console.Addr, dispatcher, consoleOpts...)
	if err != nil {
		return fmt.Errorf("failed to create console server: %w", err)
	}
	consoleSrv.Store(srv)

	if obs != nil {
		obsErrChan, err := obs.Start()
		if err != nil {
			return fmt.Errorf("failed to start observability server: %w", err)
		}
		go monitorServerErrors(ctx, cancel, obsErrChan, "observability")
		defer func() {
			shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer shutdownCancel()
			if err := obs.Stop(shutdownCtx); err != nil {
				slog.Warn("error stopping observability server", "error", err)
			}
		}()
	}

	// Handle signals
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	consoleErr := make(chan error, 1)
	go func() {
		consoleErr <- srv.Run(ctx)
	}()

	cmd.Println("Emberbot started")
	slog.Info("emberbot ready", "console_addr", cfg.Console.Addr)

	// Wait for shutdown signal or a server failure.
	consoleDone := false
	select {
	case sig := <-sigChan:
		slog.Info("received shutdown signal", "signal", sig.String())
	case err := <-consoleErr:
		consoleDone = true
		if err != nil {
			return fmt.Errorf("console server error: %w", err)
		}
	case <-ctx.Done():
		slog.Info("context cancelled, shutting down")
	}

	// Graceful shutdown
	slog.Info("shutting down...")
	cancel()

	if !consoleDone {
		// The console waits for in-flight sessions before returning.
		select {
		case err := <-consoleErr:
			if err != nil {
				slog.Warn("console server exited with error", "error", err)
			}
		case <-time.After(10 * time.Second):
			slog.Warn("timed out waiting for console sessions to close")
		}
	}

	slog.Info("shutdown complete")
	return nil
}

// monitorServerErrors monitors a server's error channel and cancels the context on error.
// This ensures that server failures trigger graceful shutdown of the entire process.
// It exits when either an error is received, the channel is closed, or the context is cancelled.
func monitorServerErrors(ctx context.Context, cancel context.CancelFunc, errCh <-chan error, serverName string) {
	select {
	case err, ok := <-errCh:
		if !ok {
			// Channel closed, server stopped gracefully
			return
		}
		if err != nil {
			slog.Error("server error, triggering shutdown",
				"server", serverName,
				"error", err,
			)
			cancel()
		}
	case <-ctx.Done():
		// Context cancelled, exit monitoring
	}
}

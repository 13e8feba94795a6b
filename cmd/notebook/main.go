// # cmd/notebook/main.go
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"notebook/internal/core/app"
	"notebook/internal/core/config"
	"notebook/internal/core/watcher"
	"notebook/internal/shared/observability"
	"notebook/internal/transport"
)

const defaultConfigPath = "./notebook.toml"

var (
	configPath = flag.String("config", defaultConfigPath, "Path to config file")
	verbose    = flag.Bool("verbose", false, "Enable verbose logging")
	version    = flag.Bool("version", false, "Print version and exit")
)

const VERSION = "1.0.0"

func main() {
	flag.Parse()

	if *version {
		fmt.Printf("notebook v%s\n", VERSION)
		os.Exit(0)
	}

	// Stdout carries responses; logs go to stderr.
	logLevel := slog.LevelInfo
	if *verbose {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	cfg, err := loadConfig(*configPath)
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil && !errors.Is(err, context.Canceled) {
		slog.Error("notebook stopped", "error", err)
		os.Exit(1)
	}
}

func loadConfig(path string) (*config.Config, error) {
	cfg, err := config.Load(path)
	if err == nil {
		return cfg, nil
	}
	if path == defaultConfigPath && errors.Is(err, os.ErrNotExist) {
		slog.Debug("no config file, using defaults", "path", path)
		cfg = config.DefaultConfig()
		config.ApplyEnvOverrides(cfg)
		return cfg, config.Validate(cfg)
	}
	return nil, err
}

func run(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	shutdownTracing, err := observability.InitTracing(ctx, cfg.Observability.OTLPEndpoint, cfg.Observability.ServiceName)
	if err != nil {
		return err
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(flushCtx); err != nil {
			slog.Warn("tracing shutdown failed", "error", err)
		}
	}()

	session, err := app.NewSession(cfg, logger)
	if err != nil {
		return fmt.Errorf("initialize session: %w", err)
	}
	health := app.NewHealthService(session)

	if addr := cfg.Observability.MetricsAddress; addr != "" {
		srv := observability.NewServer(addr, health)
		if err := srv.Start(ctx); err != nil {
			return err
		}
		defer func() {
			stopCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = srv.Stop(stopCtx)
		}()
	}

	if cfg.Watch.Enabled && *configPath != "" {
		cfgWatcher := config.NewWatcher(*configPath, cfg, func(next *config.Config) {
			if err := session.Reload(next); err != nil {
				slog.Error("failed to apply reloaded config", "error", err)
				return
			}
			observability.ConfigReloadsTotal.Inc()
		})
		if err := cfgWatcher.Start(ctx); err != nil {
			slog.Warn("config watcher unavailable", "error", err)
		} else {
			defer cfgWatcher.Stop()
		}
	}

	if preload := config.PreloadPaths(cfg); cfg.Watch.Preload && len(preload) > 0 {
		w, err := watcher.NewWatcher(cfg.Watch.Debounce, func(paths []string) {
			slog.Info("preload scripts changed", "paths", paths)
			_ = session.RunPreload(paths)
		})
		if err != nil {
			return fmt.Errorf("create preload watcher: %w", err)
		}
		defer w.Close()
		if err := w.Watch(preload); err != nil {
			return fmt.Errorf("watch preload scripts: %w", err)
		}
	}

	router, err := app.NewRouter(session, health)
	if err != nil {
		return err
	}

	slog.Info("notebook ready", "session", session.ID, "operations", router.Operations())
	return transport.NewStdio(os.Stdin, os.Stdout, cfg.Server, logger).Serve(ctx, router.Handle)
}

package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/neox5/meterbox/internal/app"
	"github.com/neox5/meterbox/internal/config"
	"github.com/neox5/meterbox/internal/monitor"
	"github.com/neox5/meterbox/internal/version"
	"github.com/urfave/cli/v3"
)

func main() {
	cmd := &cli.Command{
		Name:    "meterbox",
		Usage:   "HTTP gateway republishing meter and tank readings as Prometheus metrics",
		Version: version.String(),
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "path to configuration file (defaults apply when empty)",
				Sources: cli.EnvVars("METERBOX_CONFIG"),
			},
			&cli.IntFlag{
				Name:    "port",
				Aliases: []string{"p"},
				Usage:   "listen port, overrides the configuration file",
				Sources: cli.EnvVars("METERBOX_PORT"),
			},
			&cli.BoolFlag{
				Name:  "debug",
				Usage: "enable debug logging",
			},
		},
		Action: serve,
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func serve(ctx context.Context, cmd *cli.Command) error {
	configPath := cmd.String("config")
	debug := cmd.Bool("debug")

	// Configure logging level
	logLevel := slog.LevelInfo
	if debug {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	slog.Info("starting meterbox", "version", version.String(), "config", configPath)

	// Load configuration
	slog.Debug("--- Configuration Loading ---")
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if cmd.IsSet("port") {
		cfg.Server.Port = cmd.Int("port")
		if err := cfg.Server.Validate(); err != nil {
			return err
		}
	}

	slog.Debug("--- Application Initialization ---")
	application, err := app.New(cfg)
	if err != nil {
		return fmt.Errorf("initialization failed: %w", err)
	}

	// Setup graceful shutdown
	shutdownCtx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Start resource monitor
	if cfg.Settings.Monitor.Enabled {
		mon, err := monitor.New(cfg.Settings.Monitor.Interval, logger, application.Metrics)
		if err != nil {
			slog.Warn("resource monitor disabled", "error", err)
		} else {
			mon.Run(shutdownCtx)
			defer mon.Wait()
		}
	}

	var wg sync.WaitGroup
	errChan := make(chan error, 2)

	wg.Go(func() {
		if err := application.Server.Start(shutdownCtx); err != nil {
			errChan <- fmt.Errorf("server: %w", err)
		}
	})

	if application.OTELExporter != nil {
		wg.Go(func() {
			if err := application.OTELExporter.Start(shutdownCtx); err != nil {
				errChan <- fmt.Errorf("otel exporter: %w", err)
			}
		})
	}

	slog.Debug("--- Application Running ---")

	// Wait for shutdown or error
	var runErr error
	select {
	case runErr = <-errChan:
		slog.Error("component error", "error", runErr)
		stop() // Cancel context to trigger shutdown
	case <-shutdownCtx.Done():
		// Graceful shutdown triggered
	}

	slog.Debug("--- Shutdown Initiated ---")
	wg.Wait()

	slog.Info("shutdown complete")
	return runErr
}

package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/ssport/commitcheck/pkg/config"
	"github.com/ssport/commitcheck/pkg/logging"
	"github.com/ssport/commitcheck/pkg/server"
	"github.com/ssport/commitcheck/pkg/telemetry"
)

func newServeCmd() *cobra.Command {
	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the lint service",
		Long: `Run an HTTP service that lints batches of commit messages, exposes
Prometheus metrics, and hot-reloads its configuration file.`,
		RunE: runServe,
	}

	serveCmd.Flags().String("listen", "", "Listen address (overrides config)")

	return serveCmd
}

func runServe(cmd *cobra.Command, _ []string) error {
	path, _ := cmd.Flags().GetString("config")
	if path == "" {
		path = config.DefaultFileName
	}
	if _, err := os.Stat(path); err != nil {
		return fmt.Errorf("serve requires a configuration file: %w", err)
	}

	loader, err := config.NewLoader(path)
	if err != nil {
		return err
	}
	cfg, err := loader.Load()
	if err != nil {
		return err
	}

	logLevel, _ := cmd.Flags().GetString("log-level")
	if logLevel == "" {
		logLevel = cfg.Log.Level
	}
	logger := logging.NewLogger(logging.Config{Level: logLevel, Pretty: cfg.Log.Pretty})
	slog.SetDefault(logger)

	ctx := cmd.Context()

	shutdownTelemetry, err := telemetry.SetupProvider(ctx, telemetry.Config{
		ServiceName: "commitcheck",
		Endpoint:    cfg.Server.OTLPEndpoint,
		Insecure:    cfg.Server.OTLPInsecure,
	})
	if err != nil {
		return fmt.Errorf("setup telemetry: %w", err)
	}

	s, err := server.New(ctx, loader, logger)
	if err != nil {
		return err
	}

	addr := cfg.Server.Listen
	if listen, _ := cmd.Flags().GetString("listen"); listen != "" {
		addr = listen
	}

	if err := s.Start(addr); err != nil {
		return err
	}
	logger.Info("commitcheck serving", "addr", s.Addr(), "config", path, "version", version)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigChan
	logger.Info("received shutdown signal", "signal", sig.String())

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := s.Stop(shutdownCtx); err != nil {
		logger.Error("shutdown error", "error", err)
		return err
	}
	if err := shutdownTelemetry(shutdownCtx); err != nil {
		logger.Warn("telemetry shutdown", "error", err)
	}
	logger.Info("shutdown complete")
	return nil
}

package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/brojonat/whalewatch/client"
	"github.com/brojonat/whalewatch/service/config"
	"github.com/brojonat/whalewatch/service/metrics"
	"github.com/brojonat/whalewatch/service/server"
)

func main() {
	// Fails fast if any required config is missing or invalid
	cfg := config.MustLoad()

	logger := setupLogger(cfg.LogLevel)
	logger.Info("starting server",
		"addr", cfg.ServerAddr,
		"log_level", cfg.LogLevel,
	)

	metricsCollector := metrics.NewMetrics(nil) // nil uses default registry

	api := client.NewClient(
		cfg.WhaleAlertBaseURL,
		cfg.WhaleAlertAPIKey,
		&http.Client{Timeout: cfg.HTTPTimeout},
		logger,
	).WithMetrics(metricsCollector)
	logger.Info("initialized whale alert client", "base_url", cfg.WhaleAlertBaseURL)

	// The stream endpoints are optional; the API proxy works without NATS.
	var events server.EventSource
	ssePublisher, err := server.NewSSEPublisher(cfg.NATSURL, logger)
	if err != nil {
		logger.Warn("failed to connect SSE publisher to NATS", "error", err, "nats_url", cfg.NATSURL)
	} else {
		defer ssePublisher.Close()
		events = ssePublisher
	}

	httpServer := server.New(cfg.ServerAddr, api, events, metricsCollector, logger)

	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- httpServer.Start()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		logger.Error("server error", "error", err)
		os.Exit(1)
	case sig := <-shutdown:
		logger.Info("shutdown signal received", "signal", sig.String())

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("failed to shutdown server gracefully", "error", err)
			os.Exit(1)
		}

		logger.Info("server shutdown complete")
	}
}

// setupLogger creates a structured logger with the given log level.
func setupLogger(levelStr string) *slog.Logger {
	var level slog.Level
	switch levelStr {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	return slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

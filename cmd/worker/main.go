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
	natspkg "github.com/brojonat/whalewatch/service/nats"
	"github.com/brojonat/whalewatch/service/watcher"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	cfg := config.MustLoad()

	logger := setupLogger(cfg.LogLevel)
	logger.Info("starting whale watcher",
		"poll_interval", cfg.PollInterval,
		"lookback", cfg.Lookback,
		"min_value", cfg.MinValue,
		"currency", cfg.Currency,
		"log_level", cfg.LogLevel,
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	metricsCollector := metrics.NewMetrics(nil) // nil uses default registry
	logger.Info("Prometheus metrics collector initialized")

	metricsServer := &http.Server{
		Addr:    cfg.MetricsAddr,
		Handler: promhttp.Handler(),
	}

	go func() {
		logger.Info("starting metrics HTTP server", "addr", cfg.MetricsAddr)
		if err := metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("metrics server error", "error", err)
		}
	}()
	defer func() {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		if err := metricsServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("failed to shutdown metrics server", "error", err)
		}
	}()

	natsPublisher, err := natspkg.NewPublisher(cfg.NATSURL, metricsCollector, logger)
	if err != nil {
		logger.Error("failed to create NATS publisher", "error", err)
		os.Exit(1)
	}
	defer natsPublisher.Close()
	logger.Info("connected to NATS", "url", cfg.NATSURL)

	api := client.NewClient(
		cfg.WhaleAlertBaseURL,
		cfg.WhaleAlertAPIKey,
		&http.Client{Timeout: cfg.HTTPTimeout},
		logger,
	).WithMetrics(metricsCollector)
	logger.Info("initialized whale alert client", "base_url", cfg.WhaleAlertBaseURL)

	w := watcher.New(api, natsPublisher, watcher.Config{
		Interval: cfg.PollInterval,
		Lookback: cfg.Lookback,
		MinValue: cfg.MinValue,
		Limit:    cfg.Limit,
		Currency: cfg.Currency,
	}, metricsCollector, logger)

	if err := w.Run(ctx); err != nil {
		logger.Error("watcher error", "error", err)
		os.Exit(1)
	}

	logger.Info("shutdown complete")
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

package server

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/brojonat/whalewatch/client"
	"github.com/brojonat/whalewatch/service/metrics"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// WhaleAlert is the part of *client.Client the HTTP API proxies.
type WhaleAlert interface {
	GetStatus(ctx context.Context) (*client.Status, error)
	GetTransaction(ctx context.Context, hash string, blockchain client.Blockchain) ([]client.Transaction, error)
}

// Server represents the HTTP server for the whale watch service.
type Server struct {
	addr    string
	api     WhaleAlert
	events  EventSource
	metrics *metrics.Metrics
	logger  *slog.Logger
	server  *http.Server

	// cancel ends every request context, which closes open streams.
	cancel context.CancelFunc
}

// New creates a new HTTP server with the given dependencies.
// events is optional - if nil, SSE endpoints won't be available.
// m is optional - if nil, the metrics endpoint won't be available.
func New(addr string, api WhaleAlert, events EventSource, m *metrics.Metrics, logger *slog.Logger) *Server {
	baseCtx, cancel := context.WithCancel(context.Background())
	s := &Server{
		addr:    addr,
		api:     api,
		events:  events,
		metrics: m,
		logger:  logger,
		cancel:  cancel,
	}

	s.server = &http.Server{
		Addr:        addr,
		Handler:     s.Handler(),
		BaseContext: func(net.Listener) context.Context { return baseCtx },
		ReadTimeout: 15 * time.Second,
		// No WriteTimeout: SSE responses stay open indefinitely.
		IdleTimeout: 60 * time.Second,
	}
	return s
}

// Handler builds the routed, middleware-wrapped handler.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	route := func(pattern, name string, h http.Handler) {
		mux.Handle(pattern, metrics.HTTPMetricsMiddleware(s.metrics, name)(h))
	}

	route("GET /api/v1/status", "/api/v1/status", handleGetStatus(s.api, s.logger))
	route("GET /api/v1/transactions/{blockchain}/{hash}", "/api/v1/transactions", handleGetTransaction(s.api, s.logger))

	if s.events != nil {
		stream := handleStreamTransactions(s.events, s.metrics, s.logger)
		route("GET /api/v1/stream/transactions/{blockchain}", "/api/v1/stream/transactions", stream)
		route("GET /api/v1/stream/transactions", "/api/v1/stream/transactions", stream)
		s.logger.Info("SSE streaming endpoints enabled")
	} else {
		s.logger.Warn("event source not configured, streaming endpoints disabled")
	}

	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	if s.metrics != nil {
		mux.Handle("GET /metrics", promhttp.Handler())
	}

	return corsMiddleware(mux)
}

// Start starts the HTTP server and blocks until it stops.
func (s *Server) Start() error {
	s.logger.Info("starting HTTP server", "addr", s.addr)
	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server failed: %w", err)
	}

	return nil
}

// Shutdown gracefully shuts down the HTTP server. It is safe to call before
// or concurrently with Start.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down HTTP server")

	// Disconnect SSE clients first so Shutdown doesn't wait on them.
	s.cancel()
	return s.server.Shutdown(ctx)
}

// corsMiddleware adds CORS headers to all responses and handles OPTIONS preflight requests.
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		w.Header().Set("Access-Control-Max-Age", "3600")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}

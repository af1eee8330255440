package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus collectors for the application.
// Following the explicit dependency injection pattern, this struct
// is passed to all components that need to record metrics.
type Metrics struct {
	// Whale Alert API Metrics
	apiCallsTotal    *prometheus.CounterVec
	apiCallDuration  *prometheus.HistogramVec
	apiRateLimitHits *prometheus.CounterVec

	// Watcher Metrics
	watcherPollsTotal          *prometheus.CounterVec
	watcherPollDuration        *prometheus.HistogramVec
	transactionsFetchedTotal   *prometheus.CounterVec
	transactionsSkippedTotal   *prometheus.CounterVec
	transactionsPublishedTotal *prometheus.CounterVec

	// HTTP Metrics
	httpRequestDuration  *prometheus.HistogramVec
	httpRequestsTotal    *prometheus.CounterVec
	sseActiveConnections *prometheus.GaugeVec
	sseEventsSent        *prometheus.CounterVec

	// NATS Metrics
	natsMessagesPublished *prometheus.CounterVec
	natsPublishDuration   *prometheus.HistogramVec
}

// NewMetrics creates a new Metrics instance and registers all collectors.
// If registry is nil, prometheus.DefaultRegisterer is used.
func NewMetrics(registry prometheus.Registerer) *Metrics {
	if registry == nil {
		registry = prometheus.DefaultRegisterer
	}

	factory := promauto.With(registry)

	return &Metrics{
		// Whale Alert API Metrics
		apiCallsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "whale_alert_api_calls_total",
				Help: "Total number of Whale Alert API calls by endpoint and HTTP status",
			},
			[]string{"endpoint", "status"},
		),
		apiCallDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "whale_alert_api_call_duration_seconds",
				Help:    "Duration of Whale Alert API calls in seconds",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0},
			},
			[]string{"endpoint"},
		),
		apiRateLimitHits: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "whale_alert_api_rate_limit_hits_total",
				Help: "Total number of Whale Alert API rate limit hits (429 errors)",
			},
			[]string{"endpoint"},
		),

		// Watcher Metrics
		watcherPollsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "watcher_polls_total",
				Help: "Total number of watcher poll cycles",
			},
			[]string{"status"},
		),
		watcherPollDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "watcher_poll_duration_seconds",
				Help:    "Duration of watcher poll cycles in seconds",
				Buckets: []float64{0.1, 0.5, 1, 5, 10, 30, 60},
			},
			[]string{"status"},
		),
		transactionsFetchedTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "transactions_fetched_total",
				Help: "Total number of transactions fetched from Whale Alert",
			},
			[]string{"blockchain"},
		),
		transactionsSkippedTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "transactions_skipped_total",
				Help: "Total number of transactions skipped",
			},
			[]string{"reason"},
		),
		transactionsPublishedTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "transactions_published_total",
				Help: "Total number of transactions published as events",
			},
			[]string{"blockchain"},
		),

		// HTTP Metrics
		httpRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "Duration of HTTP requests in seconds",
				Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5},
			},
			[]string{"handler", "method", "status"},
		),
		httpRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"handler", "method", "status"},
		),
		sseActiveConnections: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "sse_active_connections",
				Help: "Number of active SSE connections",
			},
			[]string{"blockchain"},
		),
		sseEventsSent: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sse_events_sent_total",
				Help: "Total number of SSE events sent",
			},
			[]string{"blockchain", "event_type"},
		),

		// NATS Metrics
		natsMessagesPublished: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "nats_messages_published_total",
				Help: "Total number of NATS messages published",
			},
			[]string{"subject", "status"},
		),
		natsPublishDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "nats_publish_duration_seconds",
				Help:    "Duration of NATS publish operations in seconds",
				Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5},
			},
			[]string{"subject"},
		),
	}
}

// Whale Alert API metric helpers

// RecordAPICall records a Whale Alert API call with duration. A statusCode of
// 0 means no response was received.
func (m *Metrics) RecordAPICall(endpoint string, statusCode int, duration float64) {
	status := "none"
	if statusCode != 0 {
		status = strconv.Itoa(statusCode)
	}
	m.apiCallsTotal.WithLabelValues(endpoint, status).Inc()
	m.apiCallDuration.WithLabelValues(endpoint).Observe(duration)
}

// RecordRateLimitHit records a rate limit hit (429 error).
func (m *Metrics) RecordRateLimitHit(endpoint string) {
	m.apiRateLimitHits.WithLabelValues(endpoint).Inc()
}

// Watcher metric helpers

// RecordPoll records a watcher poll cycle.
func (m *Metrics) RecordPoll(status string, duration float64) {
	m.watcherPollsTotal.WithLabelValues(status).Inc()
	m.watcherPollDuration.WithLabelValues(status).Observe(duration)
}

// RecordTransactionsFetched records transactions fetched from the API.
func (m *Metrics) RecordTransactionsFetched(blockchain string, count int) {
	m.transactionsFetchedTotal.WithLabelValues(blockchain).Add(float64(count))
}

// RecordTransactionsSkipped records transactions skipped.
func (m *Metrics) RecordTransactionsSkipped(reason string, count int) {
	m.transactionsSkippedTotal.WithLabelValues(reason).Add(float64(count))
}

// RecordTransactionPublished records a transaction handed to the publisher.
func (m *Metrics) RecordTransactionPublished(blockchain string) {
	m.transactionsPublishedTotal.WithLabelValues(blockchain).Inc()
}

// HTTP metric helpers

// RecordHTTPRequest records an HTTP request with duration.
func (m *Metrics) RecordHTTPRequest(handler, method string, statusCode int, duration float64) {
	status := statusCodeToString(statusCode)
	m.httpRequestDuration.WithLabelValues(handler, method, status).Observe(duration)
	m.httpRequestsTotal.WithLabelValues(handler, method, status).Inc()
}

// RecordSSEConnectionChange records a change in SSE connection count.
func (m *Metrics) RecordSSEConnectionChange(blockchain string, delta float64) {
	m.sseActiveConnections.WithLabelValues(blockchain).Add(delta)
}

// RecordSSEEventSent records an SSE event being sent.
func (m *Metrics) RecordSSEEventSent(blockchain, eventType string) {
	m.sseEventsSent.WithLabelValues(blockchain, eventType).Inc()
}

// NATS metric helpers

// RecordNATSPublish records a NATS publish operation.
func (m *Metrics) RecordNATSPublish(subject, status string, duration float64) {
	m.natsMessagesPublished.WithLabelValues(subject, status).Inc()
	m.natsPublishDuration.WithLabelValues(subject).Observe(duration)
}

// Helper functions

func statusCodeToString(code int) string {
	// Group status codes by class
	switch {
	case code >= 200 && code < 300:
		return "2xx"
	case code >= 300 && code < 400:
		return "3xx"
	case code >= 400 && code < 500:
		return "4xx"
	case code >= 500 && code < 600:
		return "5xx"
	default:
		return "unknown"
	}
}

package server

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/brojonat/whalewatch/service/metrics"
	natspkg "github.com/brojonat/whalewatch/service/nats"
	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
)

// keepaliveInterval is how often an idle stream gets a comment line.
var keepaliveInterval = 10 * time.Second

// EventSource delivers raw transaction event payloads published on subject
// until ctx is done.
type EventSource interface {
	Subscribe(ctx context.Context, subject string) (<-chan []byte, error)
}

// SSEPublisher is an EventSource backed by ephemeral JetStream consumers on
// the WHALES stream.
type SSEPublisher struct {
	nc     *nats.Conn
	js     jetstream.JetStream
	logger *slog.Logger
}

// NewSSEPublisher connects to NATS for streaming transaction events.
func NewSSEPublisher(natsURL string, logger *slog.Logger) (*SSEPublisher, error) {
	nc, err := natspkg.Connect(natsURL, "whalewatch-sse-publisher")
	if err != nil {
		return nil, err
	}

	js, err := jetstream.New(nc)
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("failed to create JetStream context: %w", err)
	}

	logger.Info("SSE publisher initialized", "nats_url", natsURL)

	return &SSEPublisher{
		nc:     nc,
		js:     js,
		logger: logger,
	}, nil
}

// Subscribe creates a consumer that only sees messages published after the
// call. The consumer stops when ctx is done; the channel is never closed.
func (p *SSEPublisher) Subscribe(ctx context.Context, subject string) (<-chan []byte, error) {
	cons, err := p.js.CreateOrUpdateConsumer(ctx, natspkg.StreamName, jetstream.ConsumerConfig{
		FilterSubject: subject,
		AckPolicy:     jetstream.AckExplicitPolicy,
		DeliverPolicy: jetstream.DeliverNewPolicy,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create consumer: %w", err)
	}

	out := make(chan []byte, 10)
	cc, err := cons.Consume(func(msg jetstream.Msg) {
		select {
		case out <- msg.Data():
			msg.Ack()
		case <-ctx.Done():
		}
	})
	if err != nil {
		return nil, fmt.Errorf("failed to start consuming messages: %w", err)
	}

	go func() {
		<-ctx.Done()
		cc.Stop()
	}()

	return out, nil
}

// Close closes the NATS connection.
func (p *SSEPublisher) Close() error {
	if p.nc != nil {
		p.nc.Close()
		p.logger.Info("SSE publisher closed")
	}
	return nil
}

// handleStreamTransactions streams whale transactions as Server-Sent Events.
// Without a blockchain path parameter every chain is streamed.
func handleStreamTransactions(source EventSource, m *metrics.Metrics, logger *slog.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		blockchain := strings.ToLower(r.PathValue("blockchain"))
		if strings.ContainsAny(blockchain, "*>") {
			writeError(w, "invalid blockchain", http.StatusBadRequest)
			return
		}
		subject := natspkg.Subject(blockchain)

		label := blockchain
		if label == "" {
			label = "all"
		}

		flusher, ok := w.(http.Flusher)
		if !ok {
			writeError(w, "streaming unsupported", http.StatusInternalServerError)
			return
		}

		msgs, err := source.Subscribe(ctx, subject)
		if err != nil {
			logger.ErrorContext(ctx, "failed to subscribe", "subject", subject, "error", err)
			writeError(w, "failed to subscribe", http.StatusServiceUnavailable)
			return
		}

		w.Header().Set("Content-Type", "text/event-stream")
		w.Header().Set("Cache-Control", "no-cache")
		w.Header().Set("Connection", "keep-alive")
		w.WriteHeader(http.StatusOK)

		if m != nil {
			m.RecordSSEConnectionChange(label, 1)
			defer m.RecordSSEConnectionChange(label, -1)
		}

		logger.DebugContext(ctx, "SSE client connected",
			"blockchain", label,
			"remote_addr", r.RemoteAddr,
		)

		fmt.Fprintf(w, "event: connected\ndata: {\"blockchain\":%q}\n\n", label)
		flusher.Flush()

		keepalive := time.NewTicker(keepaliveInterval)
		defer keepalive.Stop()

		for {
			select {
			case <-keepalive.C:
				fmt.Fprintf(w, ": keepalive\n\n")
				flusher.Flush()

			case data := <-msgs:
				var event natspkg.TransactionEvent
				if err := json.Unmarshal(data, &event); err != nil {
					logger.WarnContext(ctx, "failed to unmarshal event", "error", err)
					continue
				}

				payload, err := json.Marshal(event)
				if err != nil {
					logger.WarnContext(ctx, "failed to marshal event", "error", err)
					continue
				}

				fmt.Fprintf(w, "event: transaction\ndata: %s\n\n", payload)
				flusher.Flush()

				if m != nil {
					m.RecordSSEEventSent(label, "transaction")
				}
				logger.DebugContext(ctx, "sent transaction event",
					"blockchain", event.Blockchain,
					"hash", event.Hash,
				)

			case <-ctx.Done():
				logger.DebugContext(ctx, "SSE client disconnected",
					"blockchain", label,
					"remote_addr", r.RemoteAddr,
				)
				return
			}
		}
	})
}

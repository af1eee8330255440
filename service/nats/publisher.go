package nats

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/brojonat/whalewatch/service/metrics"
	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
)

// Publisher defines the interface for publishing transaction events to NATS.
type Publisher interface {
	// PublishTransactionBatch publishes events in order to "whales.{blockchain}"
	// and stops at the first failure. It returns how many were published.
	PublishTransactionBatch(ctx context.Context, events []*TransactionEvent) (int, error)

	// Close closes the connection to NATS.
	Close() error
}

// JetStreamPublisher publishes transaction events to NATS JetStream.
type JetStreamPublisher struct {
	nc      *nats.Conn
	js      jetstream.JetStream
	metrics *metrics.Metrics
	logger  *slog.Logger
}

const (
	// StreamName is the name of the JetStream stream for whale transactions.
	StreamName = "WHALES"

	subjectPrefix = "whales"

	// StreamSubjects is the subject pattern for the stream.
	StreamSubjects = subjectPrefix + ".*"

	// StreamRetention is how long messages are retained.
	StreamRetention = 7 * 24 * time.Hour
)

// Connect dials NATS with the reconnect policy shared by every component.
func Connect(natsURL, name string) (*nats.Conn, error) {
	nc, err := nats.Connect(natsURL,
		nats.Name(name),
		nats.Timeout(10*time.Second),
		nats.ReconnectWait(1*time.Second),
		nats.MaxReconnects(-1), // Unlimited reconnects
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}
	return nc, nil
}

// NewPublisher creates a new JetStream publisher.
// It connects to NATS and ensures the stream exists. m may be nil.
func NewPublisher(natsURL string, m *metrics.Metrics, logger *slog.Logger) (*JetStreamPublisher, error) {
	nc, err := Connect(natsURL, "whalewatch-publisher")
	if err != nil {
		return nil, err
	}

	js, err := jetstream.New(nc)
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("failed to create JetStream context: %w", err)
	}

	publisher := &JetStreamPublisher{
		nc:      nc,
		js:      js,
		metrics: m,
		logger:  logger,
	}

	if err := publisher.ensureStream(); err != nil {
		nc.Close()
		return nil, fmt.Errorf("failed to ensure stream exists: %w", err)
	}

	logger.Info("NATS publisher initialized",
		"url", natsURL,
		"stream", StreamName,
	)

	return publisher, nil
}

// ensureStream creates the JetStream stream if it doesn't exist.
func (p *JetStreamPublisher) ensureStream() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	stream, err := p.js.Stream(ctx, StreamName)
	if err == nil {
		info, err := stream.Info(ctx)
		if err == nil {
			p.logger.Debug("JetStream stream already exists",
				"stream", StreamName,
				"messages", info.State.Msgs,
			)
		}
		return nil
	}

	p.logger.Info("creating JetStream stream", "stream", StreamName)

	_, err = p.js.CreateStream(ctx, jetstream.StreamConfig{
		Name:        StreamName,
		Description: "Whale transactions reported by Whale Alert",
		Subjects:    []string{StreamSubjects},
		Retention:   jetstream.LimitsPolicy,
		MaxAge:      StreamRetention,
		Storage:     jetstream.FileStorage,
		Replicas:    1,
	})
	if err != nil {
		return fmt.Errorf("failed to create stream: %w", err)
	}

	p.logger.Info("JetStream stream created successfully", "stream", StreamName)
	return nil
}

// publish sends a single transaction event. The message ID is
// the Whale Alert transaction ID so JetStream drops duplicates inside its
// deduplication window.
func (p *JetStreamPublisher) publish(ctx context.Context, event *TransactionEvent) error {
	subject := Subject(event.Blockchain)

	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal transaction event: %w", err)
	}

	var opts []jetstream.PublishOpt
	if event.ID != "" {
		opts = append(opts, jetstream.WithMsgID(event.ID))
	}

	start := time.Now()
	_, err = p.js.Publish(ctx, subject, data, opts...)
	if p.metrics != nil {
		status := "success"
		if err != nil {
			status = "error"
		}
		p.metrics.RecordNATSPublish(subject, status, time.Since(start).Seconds())
	}
	if err != nil {
		return fmt.Errorf("failed to publish transaction: %w", err)
	}

	p.logger.Debug("published transaction event",
		"subject", subject,
		"hash", event.Hash,
		"amount_usd", event.AmountUSD.String(),
	)

	return nil
}

// PublishTransactionBatch publishes events one after another. Events after a
// failed one are not attempted; the caller retries them, and JetStream drops
// any that already went out under the same message ID.
func (p *JetStreamPublisher) PublishTransactionBatch(ctx context.Context, events []*TransactionEvent) (int, error) {
	for i, event := range events {
		if err := p.publish(ctx, event); err != nil {
			return i, fmt.Errorf("batch stopped at event %d of %d: %w", i+1, len(events), err)
		}
	}

	if len(events) > 0 {
		p.logger.Debug("published transaction batch", "count", len(events))
	}
	return len(events), nil
}

// Close closes the connection to NATS.
func (p *JetStreamPublisher) Close() error {
	if p.nc != nil {
		p.nc.Close()
		p.logger.Info("NATS publisher closed")
	}
	return nil
}

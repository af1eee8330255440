// Package watcher polls the Whale Alert listing endpoint and publishes every
// transaction it has not already seen.
package watcher

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/brojonat/whalewatch/client"
	"github.com/brojonat/whalewatch/service/metrics"
	natspkg "github.com/brojonat/whalewatch/service/nats"
)

// maxPagesPerPoll bounds how far a single poll follows the cursor.
const maxPagesPerPoll = 10

// TransactionLister is the subset of *client.Client the watcher needs.
type TransactionLister interface {
	ListTransactions(ctx context.Context, params client.TransactionsParams) (*client.TransactionResponseData, error)
}

// Config controls what the watcher asks for and how often.
type Config struct {
	Interval time.Duration
	Lookback time.Duration
	MinValue int    // USD; 0 leaves min_value unset
	Limit    int    // page size; 0 means client.DefaultLimit
	Currency string // empty means all currencies
}

// Watcher turns listing pages into published events. Poll is not safe for
// concurrent use; Run serializes it.
type Watcher struct {
	lister    TransactionLister
	publisher natspkg.Publisher
	cfg       Config
	metrics   *metrics.Metrics
	logger    *slog.Logger
	now       func() time.Time

	cursor string
	seen   map[string]time.Time
}

// New creates a watcher. m may be nil.
func New(lister TransactionLister, publisher natspkg.Publisher, cfg Config, m *metrics.Metrics, logger *slog.Logger) *Watcher {
	if cfg.Limit <= 0 {
		cfg.Limit = client.DefaultLimit
	}
	return &Watcher{
		lister:    lister,
		publisher: publisher,
		cfg:       cfg,
		metrics:   m,
		logger:    logger,
		now:       time.Now,
		seen:      make(map[string]time.Time),
	}
}

// Cursor returns the pagination cursor the next poll will send.
func (w *Watcher) Cursor() string {
	return w.cursor
}

// Run polls immediately and then every Interval until ctx is cancelled. Poll
// failures are logged; the next tick starts over.
func (w *Watcher) Run(ctx context.Context) error {
	if w.cfg.Interval <= 0 {
		return fmt.Errorf("watcher interval must be positive, got %v", w.cfg.Interval)
	}

	ticker := time.NewTicker(w.cfg.Interval)
	defer ticker.Stop()

	w.logger.Info("watcher started",
		"interval", w.cfg.Interval,
		"lookback", w.cfg.Lookback,
		"min_value", w.cfg.MinValue,
		"currency", w.cfg.Currency,
	)

	for {
		w.pollOnce(ctx)

		select {
		case <-ctx.Done():
			w.logger.Info("watcher stopped")
			return nil
		case <-ticker.C:
		}
	}
}

func (w *Watcher) pollOnce(ctx context.Context) {
	start := time.Now()
	published, err := w.Poll(ctx)

	status := "success"
	if err != nil {
		status = "error"
		level := slog.LevelError
		var apiErr *client.Error
		if errors.As(err, &apiErr) && apiErr.Temporary() {
			level = slog.LevelWarn
		}
		if ctx.Err() != nil {
			level = slog.LevelDebug
		}
		w.logger.Log(ctx, level, "poll failed", "error", err, "published", published)
	} else {
		w.logger.Debug("poll complete", "published", published, "cursor", w.cursor)
	}

	if w.metrics != nil {
		w.metrics.RecordPoll(status, time.Since(start).Seconds())
	}
}

// Poll fetches pages starting at the stored cursor and publishes unseen
// transactions. It returns the number published; on error, transactions
// published before the failure still count.
func (w *Watcher) Poll(ctx context.Context) (int, error) {
	from := w.now().Add(-w.cfg.Lookback)
	limit := w.cfg.Limit

	params := client.TransactionsParams{
		From:  from,
		Limit: &limit,
	}
	if w.cfg.MinValue > 0 {
		minValue := w.cfg.MinValue
		params.MinValue = &minValue
	}
	if w.cfg.Currency != "" {
		currency := w.cfg.Currency
		params.Currency = &currency
	}

	published := 0
	for page := 0; page < maxPagesPerPoll; page++ {
		if w.cursor != "" {
			cursor := w.cursor
			params.Cursor = &cursor
		}

		resp, err := w.lister.ListTransactions(ctx, params)
		if err != nil {
			return published, fmt.Errorf("failed to list transactions: %w", err)
		}

		published += w.publishNew(ctx, resp.Transactions)

		if resp.Cursor != "" {
			w.cursor = resp.Cursor
		}
		if len(resp.Transactions) < limit {
			break
		}
	}

	w.prune(from)
	return published, nil
}

// publishNew sends the page's unseen transactions as one batch. Only the
// events the publisher confirmed are marked seen; the rest are retried on the
// next poll.
func (w *Watcher) publishNew(ctx context.Context, txns []client.Transaction) int {
	var fresh []*client.Transaction
	var events []*natspkg.TransactionEvent
	duplicates := 0

	for i := range txns {
		txn := &txns[i]
		if w.metrics != nil {
			w.metrics.RecordTransactionsFetched(string(txn.Blockchain), 1)
		}
		if _, ok := w.seen[seenKey(txn)]; ok {
			duplicates++
			continue
		}
		fresh = append(fresh, txn)
		events = append(events, natspkg.FromTransaction(txn))
	}

	if duplicates > 0 && w.metrics != nil {
		w.metrics.RecordTransactionsSkipped("duplicate", duplicates)
	}
	if len(events) == 0 {
		return 0
	}

	published, err := w.publisher.PublishTransactionBatch(ctx, events)
	if err != nil {
		w.logger.Error("failed to publish transactions",
			"published", published,
			"pending", len(events)-published,
			"error", err,
		)
		if w.metrics != nil {
			w.metrics.RecordTransactionsSkipped("publish_error", len(events)-published)
		}
	}

	for _, txn := range fresh[:published] {
		w.seen[seenKey(txn)] = txn.Time()
		if w.metrics != nil {
			w.metrics.RecordTransactionPublished(string(txn.Blockchain))
		}
	}
	return published
}

// prune forgets transactions older than the current window; the API will not
// return them again.
func (w *Watcher) prune(from time.Time) {
	for key, ts := range w.seen {
		if ts.Before(from) {
			delete(w.seen, key)
		}
	}
}

func seenKey(txn *client.Transaction) string {
	if txn.ID != "" {
		return txn.ID
	}
	return string(txn.Blockchain) + ":" + txn.Hash
}

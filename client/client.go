package client

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Recorder receives per-request measurements. service/metrics.Metrics
// satisfies it.
type Recorder interface {
	// RecordAPICall is called once per request that reached the network.
	// statusCode is 0 when no response was received.
	RecordAPICall(endpoint string, statusCode int, duration float64)
	RecordRateLimitHit(endpoint string)
}

// Client is the HTTP client for the Whale Alert API. It is safe for
// concurrent use; all fields are read-only after construction.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	logger     *slog.Logger
	metrics    Recorder
}

// NewClient creates a new Whale Alert client. An empty baseURL selects
// DefaultBaseURL. An empty apiKey is allowed; every operation then fails with
// ErrMissingAPIKey without touching the network.
func NewClient(baseURL, apiKey string, httpClient *http.Client, logger *slog.Logger) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		httpClient: httpClient,
		logger:     logger,
	}
}

// WithMetrics attaches a recorder and returns the client.
func (c *Client) WithMetrics(r Recorder) *Client {
	c.metrics = r
	return c
}

// GetStatus retrieves the API status and the list of tracked blockchains.
func (c *Client) GetStatus(ctx context.Context) (*Status, error) {
	return do[Status](ctx, c, StatusEndpoint{}, nil)
}

// GetTransaction looks up the transactions recorded for a hash on the given
// blockchain.
func (c *Client) GetTransaction(ctx context.Context, hash string, blockchain Blockchain) ([]Transaction, error) {
	data, err := do[TransactionResponseData](ctx, c, TransactionEndpoint{Blockchain: blockchain, Hash: hash}, nil)
	if err != nil {
		return nil, err
	}
	return data.Transactions, nil
}

// GetAllTransactions lists transactions matching params.
func (c *Client) GetAllTransactions(ctx context.Context, params TransactionsParams) ([]Transaction, error) {
	data, err := c.ListTransactions(ctx, params)
	if err != nil {
		return nil, err
	}
	return data.Transactions, nil
}

// ListTransactions is GetAllTransactions but returns the whole page, including
// the cursor for the next request.
func (c *Client) ListTransactions(ctx context.Context, params TransactionsParams) (*TransactionResponseData, error) {
	return do[TransactionResponseData](ctx, c, TransactionsEndpoint{}, params.Values())
}

// GetStatusAsync runs GetStatus in a new goroutine and passes the outcome to
// callback exactly once.
func (c *Client) GetStatusAsync(ctx context.Context, callback func(*Status, error)) {
	async(func() (*Status, error) { return c.GetStatus(ctx) }, callback)
}

// GetTransactionAsync runs GetTransaction in a new goroutine.
func (c *Client) GetTransactionAsync(ctx context.Context, hash string, blockchain Blockchain, callback func([]Transaction, error)) {
	async(func() ([]Transaction, error) { return c.GetTransaction(ctx, hash, blockchain) }, callback)
}

// GetAllTransactionsAsync runs GetAllTransactions in a new goroutine.
func (c *Client) GetAllTransactionsAsync(ctx context.Context, params TransactionsParams, callback func([]Transaction, error)) {
	async(func() ([]Transaction, error) { return c.GetAllTransactions(ctx, params) }, callback)
}

func async[T any](call func() (T, error), callback func(T, error)) {
	go func() {
		callback(call())
	}()
}

// requestURL renders {baseURL}{path}?api_key={key}&... with one item per
// provided parameter.
func (c *Client) requestURL(ep Endpoint, params url.Values) (string, error) {
	u, err := url.Parse(c.baseURL + ep.Path())
	if err != nil {
		return "", fmt.Errorf("invalid request URL: %w", err)
	}
	q := url.Values{}
	q.Set("api_key", c.apiKey)
	for key, values := range params {
		for _, v := range values {
			q.Add(key, v)
		}
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// do runs the request flow shared by every operation and decodes the body as T.
func do[T any](ctx context.Context, c *Client, ep Endpoint, params url.Values) (*T, error) {
	if c.apiKey == "" {
		return nil, &Error{Kind: KindMissingAPIKey}
	}

	u, err := c.requestURL(ep, params)
	if err != nil {
		return nil, OtherError(err.Error())
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, OtherError(fmt.Sprintf("failed to create request: %v", err))
	}
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.record(ep, 0, start)
		c.logger.DebugContext(ctx, "request failed", "endpoint", ep.Name(), "error", err)
		return nil, &Error{Kind: KindMissingResponse}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	c.record(ep, resp.StatusCode, start)
	if err != nil {
		c.logger.DebugContext(ctx, "failed to read response body", "endpoint", ep.Name(), "error", err)
		return nil, &Error{Kind: KindMissingResponse}
	}

	if len(body) > 0 {
		var envelope struct {
			Result  *string `json:"result"`
			Message *string `json:"message"`
		}
		if json.Unmarshal(body, &envelope) == nil && envelope.Result != nil && envelope.Message != nil {
			c.logger.DebugContext(ctx, "api returned error envelope",
				"endpoint", ep.Name(),
				"status_code", resp.StatusCode,
				"result", *envelope.Result,
				"message", *envelope.Message,
			)
			return nil, envelopeError(*envelope.Result, *envelope.Message)
		}
	}

	if resp.StatusCode != http.StatusOK {
		if apiErr := errorForStatus(resp.StatusCode); apiErr != nil {
			c.logger.DebugContext(ctx, "api returned error status", "endpoint", ep.Name(), "status_code", resp.StatusCode)
			return nil, apiErr
		}
	}

	if len(body) == 0 {
		return nil, &Error{Kind: KindMissingResponse}
	}

	// Unrecognized non-200 codes still get a decode attempt.
	var out T
	if err := json.Unmarshal(body, &out); err != nil {
		c.logger.WarnContext(ctx, "failed to decode response",
			"endpoint", ep.Name(),
			"status_code", resp.StatusCode,
			"error", err,
		)
		return nil, OtherError(err.Error())
	}

	c.logger.DebugContext(ctx, "request succeeded", "endpoint", ep.Name(), "status_code", resp.StatusCode)
	return &out, nil
}

func (c *Client) record(ep Endpoint, statusCode int, start time.Time) {
	if c.metrics == nil {
		return
	}
	c.metrics.RecordAPICall(ep.Name(), statusCode, time.Since(start).Seconds())
	if statusCode == http.StatusTooManyRequests {
		c.metrics.RecordRateLimitHit(ep.Name())
	}
}

package client

import (
	"fmt"
	"net/url"
)

// DefaultBaseURL is the public Whale Alert v1 API.
const DefaultBaseURL = "https://api.whale-alert.io/v1"

// Endpoint is a request target relative to the API base URL. The set of
// endpoints is closed: StatusEndpoint, TransactionEndpoint and
// TransactionsEndpoint.
type Endpoint interface {
	Path() string
	// Name is a constant label used for logging and metrics.
	Name() string
	endpoint()
}

// StatusEndpoint reports API health and the tracked blockchains.
type StatusEndpoint struct{}

func (StatusEndpoint) Path() string { return "/status" }
func (StatusEndpoint) Name() string { return "status" }
func (StatusEndpoint) endpoint()    {}

// TransactionEndpoint looks up a single transaction by hash.
type TransactionEndpoint struct {
	Blockchain Blockchain
	Hash       string
}

func (e TransactionEndpoint) Path() string {
	return fmt.Sprintf("/transaction/%s/%s", url.PathEscape(string(e.Blockchain)), url.PathEscape(e.Hash))
}
func (TransactionEndpoint) Name() string { return "transaction" }
func (TransactionEndpoint) endpoint()    {}

// TransactionsEndpoint lists transactions in a time window.
type TransactionsEndpoint struct{}

func (TransactionsEndpoint) Path() string { return "/transactions" }
func (TransactionsEndpoint) Name() string { return "transactions" }
func (TransactionsEndpoint) endpoint()    {}

package client

import (
	"time"

	"github.com/shopspring/decimal"
)

// Blockchain names a ledger tracked by Whale Alert. Values not listed here are
// passed to the API unchanged.
type Blockchain string

const (
	Bitcoin      Blockchain = "bitcoin"
	BitcoinCash  Blockchain = "bitcoincash"
	Litecoin     Blockchain = "litecoin"
	Dogecoin     Blockchain = "dogecoin"
	Ethereum     Blockchain = "ethereum"
	Polygon      Blockchain = "polygon"
	Ripple       Blockchain = "ripple"
	Tron         Blockchain = "tron"
	Solana       Blockchain = "solana"
	BinanceChain Blockchain = "binancechain"
	EOS          Blockchain = "eos"
	Stellar      Blockchain = "stellar"
	Neo          Blockchain = "neo"
	Algorand     Blockchain = "algorand"
	Cardano      Blockchain = "cardano"
	Icon         Blockchain = "icon"
	Hedera       Blockchain = "hedera"
)

func (b Blockchain) String() string { return string(b) }

// Status is the body of GET /status.
type Status struct {
	Result          string             `json:"result"`
	BlockchainCount int                `json:"blockchain_count"`
	Blockchains     []BlockchainStatus `json:"blockchains"`
}

// BlockchainStatus describes one tracked ledger.
type BlockchainStatus struct {
	Name    string   `json:"name"`
	Symbols []string `json:"symbols"`
	Status  string   `json:"status"` // connected, disconnected
}

// Owner is one side of a transfer. Owner and OwnerType are empty when the
// address is not attributed.
type Owner struct {
	Address   string `json:"address"`
	Owner     string `json:"owner,omitempty"`
	OwnerType string `json:"owner_type,omitempty"` // exchange, unknown, ...
}

// Transaction is a single transfer detected by Whale Alert.
type Transaction struct {
	Blockchain       Blockchain      `json:"blockchain"`
	Symbol           string          `json:"symbol"`
	ID               string          `json:"id"`
	TransactionType  string          `json:"transaction_type"` // transfer, mint, burn, lock, unlock
	Hash             string          `json:"hash"`
	From             Owner           `json:"from"`
	To               Owner           `json:"to"`
	Timestamp        int64           `json:"timestamp"`
	Amount           decimal.Decimal `json:"amount"`
	AmountUSD        decimal.Decimal `json:"amount_usd"`
	TransactionCount int             `json:"transaction_count"`
}

// Time returns the block timestamp in UTC.
func (t Transaction) Time() time.Time {
	return time.Unix(t.Timestamp, 0).UTC()
}

// TransactionResponseData is the body of the transaction endpoints.
type TransactionResponseData struct {
	Result       string        `json:"result"`
	Cursor       string        `json:"cursor,omitempty"`
	Count        int           `json:"count"`
	Transactions []Transaction `json:"transactions"`
}

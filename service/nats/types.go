package nats

import (
	"fmt"
	"strings"
	"time"

	"github.com/brojonat/whalewatch/client"
	"github.com/shopspring/decimal"
)

// TransactionEvent represents a whale transaction published to NATS.
// This is published to the subject "whales.{blockchain}" in JetStream.
type TransactionEvent struct {
	// Transaction identifiers
	ID         string `json:"id"`
	Hash       string `json:"hash"`
	Blockchain string `json:"blockchain"`
	Symbol     string `json:"symbol"`

	TransactionType string `json:"transaction_type"`

	// Counterparties
	FromAddress   string `json:"from_address"`
	FromOwner     string `json:"from_owner,omitempty"`
	FromOwnerType string `json:"from_owner_type,omitempty"`
	ToAddress     string `json:"to_address"`
	ToOwner       string `json:"to_owner,omitempty"`
	ToOwnerType   string `json:"to_owner_type,omitempty"`

	// Amounts
	Amount           decimal.Decimal `json:"amount"`
	AmountUSD        decimal.Decimal `json:"amount_usd"`
	TransactionCount int             `json:"transaction_count"`

	// Timing information
	Timestamp   time.Time `json:"timestamp"`
	PublishedAt time.Time `json:"published_at"`
}

// FromTransaction converts an API transaction to a TransactionEvent for publishing.
func FromTransaction(txn *client.Transaction) *TransactionEvent {
	return &TransactionEvent{
		ID:               txn.ID,
		Hash:             txn.Hash,
		Blockchain:       string(txn.Blockchain),
		Symbol:           txn.Symbol,
		TransactionType:  txn.TransactionType,
		FromAddress:      txn.From.Address,
		FromOwner:        txn.From.Owner,
		FromOwnerType:    txn.From.OwnerType,
		ToAddress:        txn.To.Address,
		ToOwner:          txn.To.Owner,
		ToOwnerType:      txn.To.OwnerType,
		Amount:           txn.Amount,
		AmountUSD:        txn.AmountUSD,
		TransactionCount: txn.TransactionCount,
		Timestamp:        txn.Time(),
		PublishedAt:      time.Now().UTC(),
	}
}

var subjectToken = strings.NewReplacer(".", "_", " ", "_", "\t", "_", "*", "_", ">", "_")

// Subject returns the JetStream subject for a blockchain. An empty blockchain
// yields the wildcard subject covering every chain.
func Subject(blockchain string) string {
	if blockchain == "" {
		return StreamSubjects
	}
	// Each chain maps to one literal token; wildcards would match other chains.
	token := subjectToken.Replace(strings.ToLower(blockchain))
	return fmt.Sprintf("%s.%s", subjectPrefix, token)
}

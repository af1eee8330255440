// Package chains checks transaction hashes against the format of the ledger
// they are claimed to belong to, so malformed lookups fail before a request
// is spent on them.
package chains

import (
	"errors"
	"fmt"
	"strings"

	"github.com/brojonat/whalewatch/client"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/gagliardetto/solana-go"
)

var (
	ErrEmptyHash   = errors.New("transaction hash is empty")
	ErrInvalidHash = errors.New("invalid transaction hash")
)

// Format is the hash encoding used by a family of ledgers.
type Format int

const (
	FormatUnknown Format = iota
	FormatHex64          // 32-byte hex digest without prefix (bitcoin-style txid)
	FormatEVM            // 0x-prefixed 32-byte hex digest
	FormatSolana         // base58 64-byte signature
)

var formats = map[client.Blockchain]Format{
	client.Bitcoin:      FormatHex64,
	client.BitcoinCash:  FormatHex64,
	client.Litecoin:     FormatHex64,
	client.Dogecoin:     FormatHex64,
	client.Tron:         FormatHex64,
	client.Ripple:       FormatHex64,
	client.BinanceChain: FormatHex64,
	client.Ethereum:     FormatEVM,
	client.Polygon:      FormatEVM,
	client.Solana:       FormatSolana,
}

// FormatOf returns the hash format for blockchain, or FormatUnknown.
func FormatOf(blockchain client.Blockchain) Format {
	return formats[client.Blockchain(strings.ToLower(string(blockchain)))]
}

// ValidateHash reports whether hash is well formed for blockchain. Ledgers
// with an unknown format only require a non-empty hash.
func ValidateHash(blockchain client.Blockchain, hash string) error {
	hash = strings.TrimSpace(hash)
	if hash == "" {
		return ErrEmptyHash
	}

	switch FormatOf(blockchain) {
	case FormatHex64:
		if len(hash) != chainhash.MaxHashStringSize {
			return fmt.Errorf("%w: %s hash must be %d hex characters, got %d",
				ErrInvalidHash, blockchain, chainhash.MaxHashStringSize, len(hash))
		}
		if _, err := chainhash.NewHashFromStr(hash); err != nil {
			return fmt.Errorf("%w: %s: %v", ErrInvalidHash, blockchain, err)
		}
	case FormatEVM:
		if !strings.HasPrefix(hash, "0x") && !strings.HasPrefix(hash, "0X") {
			hash = "0x" + hash
		}
		b, err := hexutil.Decode(hash)
		if err != nil {
			return fmt.Errorf("%w: %s: %v", ErrInvalidHash, blockchain, err)
		}
		if len(b) != common.HashLength {
			return fmt.Errorf("%w: %s hash must be %d bytes, got %d",
				ErrInvalidHash, blockchain, common.HashLength, len(b))
		}
	case FormatSolana:
		if _, err := solana.SignatureFromBase58(hash); err != nil {
			return fmt.Errorf("%w: %s: %v", ErrInvalidHash, blockchain, err)
		}
	}

	return nil
}

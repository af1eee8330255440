package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/brojonat/whalewatch/client"
	"github.com/brojonat/whalewatch/service/chains"
	"github.com/fatih/color"
	"github.com/urfave/cli/v2"
)

// newAPIClient builds a Whale Alert client from the global flags.
func newAPIClient(c *cli.Context) *client.Client {
	httpClient := &http.Client{Timeout: c.Duration("http-timeout")}
	return client.NewClient(c.String("base-url"), c.String("api-key"), httpClient, setupLogger(c.String("log-level")))
}

// setupLogger creates a structured logger on stderr with the given level.
func setupLogger(levelStr string) *slog.Logger {
	var level slog.Level
	switch levelStr {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	default:
		level = slog.LevelError
	}

	return slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

func statusCommand() *cli.Command {
	return &cli.Command{
		Name:  "status",
		Usage: "Show which blockchains Whale Alert is tracking",
		Action: func(c *cli.Context) error {
			status, err := newAPIClient(c).GetStatus(c.Context)
			if err != nil {
				return fmt.Errorf("failed to get status: %w", err)
			}

			out := c.App.Writer
			if c.Bool("json") {
				return writeIndentedJSON(out, status)
			}

			fmt.Fprintf(out, "Tracking %d blockchains\n\n", status.BlockchainCount)
			for _, bc := range status.Blockchains {
				state := color.GreenString(bc.Status)
				if bc.Status != "connected" {
					state = color.RedString(bc.Status)
				}
				fmt.Fprintf(out, "  %-14s %-14s %s\n", bc.Name, state, strings.Join(bc.Symbols, ", "))
			}
			return nil
		},
	}
}

func txGetCommand() *cli.Command {
	return &cli.Command{
		Name:      "get",
		Usage:     "Look up a transaction by hash",
		ArgsUsage: "BLOCKCHAIN HASH",
		Description: `Fetch a single transaction. Hashes for bitcoin-family, ethereum-family and
solana ledgers are checked locally before any request is made.

Example:
  whalewatch tx get ethereum 0x5c504ed432cb51138bcf09aa5e8a410dd4a1e204ef84bfed1be16dfba1b22060`,
		Action: func(c *cli.Context) error {
			if c.NArg() != 2 {
				return fmt.Errorf("blockchain and hash are required")
			}

			blockchain := client.Blockchain(strings.ToLower(c.Args().Get(0)))
			hash := c.Args().Get(1)

			if err := chains.ValidateHash(blockchain, hash); err != nil {
				return err
			}

			txns, err := newAPIClient(c).GetTransaction(c.Context, hash, blockchain)
			if err != nil {
				return fmt.Errorf("failed to get transaction: %w", err)
			}

			out := c.App.Writer
			if c.Bool("json") {
				return writeIndentedJSON(out, txns)
			}

			if len(txns) == 0 {
				fmt.Fprintln(out, "No transactions found")
				return nil
			}
			for i := range txns {
				printTransaction(out, &txns[i])
			}
			return nil
		},
	}
}

func txListCommand() *cli.Command {
	return &cli.Command{
		Name:  "list",
		Usage: "List whale transactions in a time window",
		Description: `List one page of transactions. --start and --end accept RFC 3339 timestamps,
unix seconds, or a duration meaning "that long ago". The cursor for the next
page is printed last.

--jq filters run against each transaction's JSON form; all must be truthy for
a transaction to be shown. Amounts are JSON strings, so compare them with
tonumber.

Example:
  whalewatch tx list --start 2h --min-value 1000000 --jq '.symbol == "usdt"'
  whalewatch tx list --jq '.amount_usd | tonumber > 50000000' --json`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "start",
				Usage: "Start of the window (RFC 3339, unix seconds, or duration ago)",
				Value: "1h",
			},
			&cli.StringFlag{
				Name:  "end",
				Usage: "End of the window (RFC 3339, unix seconds, or duration ago)",
			},
			&cli.StringFlag{
				Name:  "cursor",
				Usage: "Pagination cursor from a previous listing",
			},
			&cli.IntFlag{
				Name:  "min-value",
				Usage: "Minimum USD value",
			},
			&cli.IntFlag{
				Name:  "limit",
				Usage: "Maximum results per page",
				Value: client.DefaultLimit,
			},
			&cli.StringFlag{
				Name:  "currency",
				Usage: "Only this currency symbol",
			},
			&cli.BoolFlag{
				Name:  "all",
				Usage: "Print only the transactions and drop the next-page cursor (--cursor is still sent)",
			},
			&cli.StringSliceFlag{
				Name:  "jq",
				Usage: "jq filter that must evaluate to true (repeatable, all must match)",
			},
		},
		Action: func(c *cli.Context) error {
			now := time.Now()
			params, err := buildTransactionsParams(c, now)
			if err != nil {
				return err
			}

			filters, err := compileFilters(c.StringSlice("jq"))
			if err != nil {
				return err
			}

			cl := newAPIClient(c)
			var txns []client.Transaction
			var cursor string
			if c.Bool("all") {
				txns, err = cl.GetAllTransactions(c.Context, params)
			} else {
				var resp *client.TransactionResponseData
				resp, err = cl.ListTransactions(c.Context, params)
				if resp != nil {
					txns = resp.Transactions
					cursor = resp.Cursor
				}
			}
			if err != nil {
				return fmt.Errorf("failed to list transactions: %w", err)
			}

			matched, err := filterTransactions(txns, filters)
			if err != nil {
				return err
			}

			out := c.App.Writer
			if c.Bool("json") {
				enc := json.NewEncoder(out)
				for i := range matched {
					if err := enc.Encode(matched[i]); err != nil {
						return fmt.Errorf("failed to encode transaction: %w", err)
					}
				}
				return nil
			}

			for i := range matched {
				printTransaction(out, &matched[i])
			}
			fmt.Fprintf(out, "%d of %d transactions shown\n", len(matched), len(txns))
			if cursor != "" {
				fmt.Fprintf(out, "Next cursor: %s\n", color.CyanString(cursor))
			}
			return nil
		},
	}
}

func buildTransactionsParams(c *cli.Context, now time.Time) (client.TransactionsParams, error) {
	from, err := parseTimeArg(c.String("start"), now)
	if err != nil {
		return client.TransactionsParams{}, fmt.Errorf("invalid --start: %w", err)
	}
	params := client.TransactionsParams{From: from}

	if s := c.String("end"); s != "" {
		to, err := parseTimeArg(s, now)
		if err != nil {
			return client.TransactionsParams{}, fmt.Errorf("invalid --end: %w", err)
		}
		params.To = &to
	}
	if s := c.String("cursor"); s != "" {
		params.Cursor = &s
	}
	if c.IsSet("min-value") {
		v := c.Int("min-value")
		params.MinValue = &v
	}
	limit := c.Int("limit")
	if limit < 1 {
		return client.TransactionsParams{}, fmt.Errorf("--limit must be at least 1")
	}
	params.Limit = &limit
	if s := c.String("currency"); s != "" {
		s = strings.ToLower(s)
		params.Currency = &s
	}
	return params, nil
}

// parseTimeArg accepts RFC 3339, unix seconds, or a duration before now.
func parseTimeArg(s string, now time.Time) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	if secs, err := strconv.ParseInt(s, 10, 64); err == nil {
		return time.Unix(secs, 0), nil
	}
	if d, err := time.ParseDuration(s); err == nil {
		return now.Add(-d), nil
	}
	return time.Time{}, fmt.Errorf("%q is not a timestamp, unix time, or duration", s)
}

func writeIndentedJSON(w io.Writer, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal output: %w", err)
	}
	fmt.Fprintln(w, string(data))
	return nil
}

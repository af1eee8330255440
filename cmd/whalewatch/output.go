package main

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/brojonat/whalewatch/client"
	natspkg "github.com/brojonat/whalewatch/service/nats"
	"github.com/fatih/color"
	"github.com/shopspring/decimal"
)

const rule = "─────────────────────────────────────────────────────"

func printTransaction(w io.Writer, txn *client.Transaction) {
	fmt.Fprintln(w, rule)
	fmt.Fprintf(w, "%s %s %s\n",
		color.CyanString(strings.ToUpper(txn.Symbol)),
		txn.Amount.String(),
		color.GreenString("(%s)", formatUSD(txn.AmountUSD)),
	)
	fmt.Fprintln(w, rule)
	fmt.Fprintf(w, "Blockchain:   %s\n", txn.Blockchain)
	fmt.Fprintf(w, "Type:         %s\n", txn.TransactionType)
	fmt.Fprintf(w, "Hash:         %s\n", txn.Hash)
	fmt.Fprintf(w, "From:         %s\n", describeOwner(txn.From.Address, txn.From.Owner, txn.From.OwnerType))
	fmt.Fprintf(w, "To:           %s\n", describeOwner(txn.To.Address, txn.To.Owner, txn.To.OwnerType))
	if txn.Timestamp != 0 {
		fmt.Fprintf(w, "Time:         %s\n", txn.Time().Format(time.RFC3339))
	}
	fmt.Fprintln(w)
}

func printEvent(w io.Writer, event *natspkg.TransactionEvent) {
	fmt.Fprintln(w, rule)
	fmt.Fprintf(w, "%s %s %s\n",
		color.CyanString(strings.ToUpper(event.Symbol)),
		event.Amount.String(),
		color.GreenString("(%s)", formatUSD(event.AmountUSD)),
	)
	fmt.Fprintln(w, rule)
	fmt.Fprintf(w, "Blockchain:   %s\n", event.Blockchain)
	fmt.Fprintf(w, "Hash:         %s\n", event.Hash)
	fmt.Fprintf(w, "From:         %s\n", describeOwner(event.FromAddress, event.FromOwner, event.FromOwnerType))
	fmt.Fprintf(w, "To:           %s\n", describeOwner(event.ToAddress, event.ToOwner, event.ToOwnerType))
	if !event.Timestamp.IsZero() {
		fmt.Fprintf(w, "Time:         %s\n", event.Timestamp.Format(time.RFC3339))
	}
	fmt.Fprintf(w, "Published:    %s\n", event.PublishedAt.Format(time.RFC3339))
	fmt.Fprintln(w)
}

func describeOwner(address, owner, ownerType string) string {
	if owner == "" {
		owner = "unknown"
		if ownerType != "" && ownerType != "unknown" {
			owner = ownerType
		}
	}
	if address == "" {
		return owner
	}
	return fmt.Sprintf("%s (%s)", owner, address)
}

// formatUSD renders a dollar amount with thousands separators and no cents.
func formatUSD(d decimal.Decimal) string {
	s := d.Round(0).String()
	neg := strings.HasPrefix(s, "-")
	s = strings.TrimPrefix(s, "-")

	var b strings.Builder
	for i, r := range s {
		if i > 0 && (len(s)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}

	if neg {
		return "-$" + b.String()
	}
	return "$" + b.String()
}

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	natspkg "github.com/brojonat/whalewatch/service/nats"
	"github.com/nats-io/nats.go/jetstream"
	"github.com/urfave/cli/v2"
)

// subscribeCommand subscribes to whale transaction events.
func subscribeCommand() *cli.Command {
	return &cli.Command{
		Name:      "subscribe",
		Usage:     "Subscribe to whale transaction events",
		ArgsUsage: "[blockchain]",
		Description: `Subscribe to real-time transaction events published to NATS JetStream by
the worker. Events are published to the subject whales.{blockchain}; with no
argument every blockchain is streamed.

Example:
  whalewatch nats subscribe bitcoin --jq '.amount_usd | tonumber > 10000000'`,
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:    "durable",
				Aliases: []string{"d"},
				Usage:   "Create a durable consumer (survives restarts)",
			},
			&cli.StringFlag{
				Name:  "consumer-name",
				Usage: "Consumer name (required for durable)",
				Value: "whalewatch-cli",
			},
			&cli.StringSliceFlag{
				Name:  "jq",
				Usage: "jq filter that must evaluate to true (repeatable, all must match)",
			},
		},
		Action: func(c *cli.Context) error {
			if c.NArg() > 1 {
				return fmt.Errorf("at most one blockchain may be given")
			}

			filters, err := compileFilters(c.StringSlice("jq"))
			if err != nil {
				return err
			}

			ctx, cancel := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
			defer cancel()

			return streamTransactions(ctx, c.App.Writer, subscribeOptions{
				blockchain:   strings.ToLower(c.Args().First()),
				natsURL:      c.String("nats-url"),
				durable:      c.Bool("durable"),
				consumerName: c.String("consumer-name"),
				jsonOutput:   c.Bool("json"),
				filters:      filters,
			})
		},
	}
}

type subscribeOptions struct {
	blockchain   string
	natsURL      string
	durable      bool
	consumerName string
	jsonOutput   bool
	filters      eventFilter
}

// streamTransactions connects to NATS and prints transaction events until ctx is done.
func streamTransactions(ctx context.Context, out io.Writer, opts subscribeOptions) error {
	nc, err := natspkg.Connect(opts.natsURL, "whalewatch-cli")
	if err != nil {
		return err
	}
	defer nc.Close()

	js, err := jetstream.New(nc)
	if err != nil {
		return fmt.Errorf("failed to create JetStream context: %w", err)
	}

	subject := natspkg.Subject(opts.blockchain)

	if !opts.jsonOutput {
		fmt.Fprintf(os.Stderr, "Subscribing to: %s\n", subject)
		fmt.Fprintf(os.Stderr, "   NATS: %s\n", opts.natsURL)
		if opts.durable {
			fmt.Fprintf(os.Stderr, "   Consumer: %s (durable)\n", opts.consumerName)
		}
		fmt.Fprintf(os.Stderr, "\nWaiting for transactions... (Ctrl-C to exit)\n\n")
	}

	consumerConfig := jetstream.ConsumerConfig{
		FilterSubject: subject,
		AckPolicy:     jetstream.AckExplicitPolicy,
		DeliverPolicy: jetstream.DeliverNewPolicy,
	}
	if opts.durable {
		consumerConfig.Durable = opts.consumerName
		consumerConfig.Name = opts.consumerName
		consumerConfig.DeliverPolicy = jetstream.DeliverAllPolicy
	}

	cons, err := js.CreateOrUpdateConsumer(ctx, natspkg.StreamName, consumerConfig)
	if err != nil {
		return fmt.Errorf("failed to create consumer: %w", err)
	}

	msgChan := make(chan jetstream.Msg, 10)
	cc, err := cons.Consume(func(msg jetstream.Msg) {
		select {
		case msgChan <- msg:
		case <-ctx.Done():
		}
	})
	if err != nil {
		return fmt.Errorf("failed to start consuming messages: %w", err)
	}
	defer cc.Stop()

	count := 0
	for {
		select {
		case msg := <-msgChan:
			shown, err := handleEvent(out, msg.Data(), opts.filters, opts.jsonOutput)
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error parsing event: %v\n", err)
			}
			if shown {
				count++
			}
			msg.Ack()

		case <-ctx.Done():
			if !opts.jsonOutput {
				fmt.Fprintf(os.Stderr, "\nReceived %d transactions\n", count)
			}
			return nil
		}
	}
}

// handleEvent decodes one published event and prints it if the filters
// match. It reports whether the event was printed.
func handleEvent(out io.Writer, data []byte, filters eventFilter, jsonOutput bool) (bool, error) {
	var event natspkg.TransactionEvent
	if err := json.Unmarshal(data, &event); err != nil {
		return false, err
	}

	ok, err := filters.match(&event)
	if err != nil || !ok {
		return false, err
	}

	if jsonOutput {
		fmt.Fprintln(out, strings.TrimSpace(string(data)))
	} else {
		printEvent(out, &event)
	}
	return true, nil
}

// inspectStreamCommand shows information about the NATS JetStream stream.
func inspectStreamCommand() *cli.Command {
	return &cli.Command{
		Name:  "inspect-stream",
		Usage: "Inspect the WHALES JetStream stream",
		Description: `Show information about the JetStream stream including message count,
consumers, storage usage and stream configuration.

Example:
  whalewatch nats inspect-stream`,
		Action: func(c *cli.Context) error {
			nc, err := natspkg.Connect(c.String("nats-url"), "whalewatch-cli")
			if err != nil {
				return err
			}
			defer nc.Close()

			js, err := jetstream.New(nc)
			if err != nil {
				return fmt.Errorf("failed to create JetStream context: %w", err)
			}

			stream, err := js.Stream(c.Context, natspkg.StreamName)
			if err != nil {
				return fmt.Errorf("failed to get stream: %w", err)
			}

			info, err := stream.Info(c.Context)
			if err != nil {
				return fmt.Errorf("failed to get stream info: %w", err)
			}

			out := c.App.Writer
			if c.Bool("json") {
				return writeIndentedJSON(out, info)
			}

			fmt.Fprintf(out, "Stream: %s\n", info.Config.Name)
			fmt.Fprintln(out, rule)
			fmt.Fprintf(out, "Description:  %s\n", info.Config.Description)
			fmt.Fprintf(out, "Subjects:     %v\n", info.Config.Subjects)
			fmt.Fprintf(out, "Messages:     %d\n", info.State.Msgs)
			fmt.Fprintf(out, "Bytes:        %d\n", info.State.Bytes)
			fmt.Fprintf(out, "First Seq:    %d\n", info.State.FirstSeq)
			fmt.Fprintf(out, "Last Seq:     %d\n", info.State.LastSeq)
			fmt.Fprintf(out, "Consumers:    %d\n", info.State.Consumers)
			fmt.Fprintf(out, "Max Age:      %s\n", info.Config.MaxAge)
			fmt.Fprintf(out, "Storage:      %s\n", info.Config.Storage)
			return nil
		},
	}
}

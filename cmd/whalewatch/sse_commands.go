package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/urfave/cli/v2"
)

func sseCommands() *cli.Command {
	return &cli.Command{
		Name:  "sse",
		Usage: "Server-Sent Events (SSE) streaming commands",
		Subcommands: []*cli.Command{
			streamCommand(),
		},
	}
}

func streamCommand() *cli.Command {
	return &cli.Command{
		Name:      "stream",
		Usage:     "Stream whale transactions via SSE (HTTP)",
		ArgsUsage: "[blockchain]",
		Flags: []cli.Flag{
			&cli.StringSliceFlag{
				Name:  "jq",
				Usage: "jq filter that must evaluate to true (repeatable, all must match)",
			},
		},
		Action: func(c *cli.Context) error {
			blockchain := strings.ToLower(c.Args().First())
			jsonOutput := c.Bool("json")

			filters, err := compileFilters(c.StringSlice("jq"))
			if err != nil {
				return err
			}

			url := strings.TrimSuffix(c.String("server-url"), "/") + "/api/v1/stream/transactions"
			if blockchain != "" {
				url += "/" + blockchain
			}

			ctx, cancel := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
			defer cancel()

			req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
			if err != nil {
				return fmt.Errorf("failed to create request: %w", err)
			}
			req.Header.Set("Accept", "text/event-stream")

			// No timeout for streaming
			resp, err := (&http.Client{}).Do(req)
			if err != nil {
				return fmt.Errorf("failed to connect to SSE endpoint: %w", err)
			}
			defer resp.Body.Close()

			if resp.StatusCode != http.StatusOK {
				return fmt.Errorf("server returned status %d", resp.StatusCode)
			}

			if !jsonOutput {
				fmt.Fprintf(os.Stderr, "Streaming transactions from %s... (Ctrl+C to stop)\n\n", url)
			}

			err = readSSE(ctx, resp.Body, c.App.Writer, filters, jsonOutput)
			if ctx.Err() != nil {
				if !jsonOutput {
					fmt.Fprintf(os.Stderr, "\nDisconnected\n")
				}
				return nil
			}
			return err
		},
	}
}

// readSSE parses an event stream from r and prints each frame to out until
// r ends. An "error" event ends the stream with an error.
func readSSE(ctx context.Context, r io.Reader, out io.Writer, filters eventFilter, jsonOutput bool) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)

	var currentEvent, currentData string
	for scanner.Scan() {
		line := scanner.Text()

		// Empty line indicates end of event
		if line == "" {
			if currentEvent != "" && currentData != "" {
				if err := handleSSEEvent(out, currentEvent, currentData, filters, jsonOutput); err != nil {
					if currentEvent == "error" {
						return err
					}
					fmt.Fprintf(os.Stderr, "Error handling event: %v\n", err)
				}
			}
			currentEvent = ""
			currentData = ""
			continue
		}

		if strings.HasPrefix(line, "event:") {
			currentEvent = strings.TrimSpace(strings.TrimPrefix(line, "event:"))
		} else if strings.HasPrefix(line, "data:") {
			currentData = strings.TrimSpace(strings.TrimPrefix(line, "data:"))
		}
	}

	if err := scanner.Err(); err != nil && ctx.Err() == nil {
		return fmt.Errorf("error reading SSE stream: %w", err)
	}
	return nil
}

func handleSSEEvent(out io.Writer, eventType, data string, filters eventFilter, jsonOutput bool) error {
	switch eventType {
	case "connected":
		if !jsonOutput {
			var info map[string]string
			if err := json.Unmarshal([]byte(data), &info); err != nil {
				return err
			}
			fmt.Fprintf(os.Stderr, "Subscribed to blockchain: %s\n\n", info["blockchain"])
		}
		return nil

	case "transaction":
		_, err := handleEvent(out, []byte(data), filters, jsonOutput)
		return err

	case "error":
		var errInfo map[string]interface{}
		if err := json.Unmarshal([]byte(data), &errInfo); err != nil {
			return err
		}
		return fmt.Errorf("server error: %v", errInfo["error"])

	default:
		return nil
	}
}

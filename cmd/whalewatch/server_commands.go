package main

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/urfave/cli/v2"
)

func healthCommand() *cli.Command {
	return &cli.Command{
		Name:  "health",
		Usage: "Check server health",
		Flags: []cli.Flag{
			&cli.DurationFlag{
				Name:  "timeout",
				Usage: "Request timeout",
				Value: 5 * time.Second,
			},
		},
		Action: func(c *cli.Context) error {
			serverURL := strings.TrimSuffix(c.String("server-url"), "/")
			if serverURL == "" {
				return fmt.Errorf("server-url is required (set SERVER_URL env var or use --server-url)")
			}

			client := &http.Client{
				Timeout: c.Duration("timeout"),
			}

			resp, err := client.Get(serverURL + "/health")
			if err != nil {
				return fmt.Errorf("health check failed: %w", err)
			}
			defer resp.Body.Close()

			if resp.StatusCode == http.StatusOK {
				fmt.Fprintf(c.App.Writer, "%s Server is healthy (status: %d)\n", color.GreenString("✓"), resp.StatusCode)
				fmt.Fprintf(c.App.Writer, "  URL: %s\n", serverURL)
				return nil
			}

			return fmt.Errorf("server returned unhealthy status: %d", resp.StatusCode)
		},
	}
}

func versionCommand() *cli.Command {
	return &cli.Command{
		Name:  "version",
		Usage: "Show version information",
		Action: func(c *cli.Context) error {
			out := c.App.Writer
			fmt.Fprintf(out, "whalewatch CLI\n")
			fmt.Fprintf(out, "  Version: %s\n", version)
			fmt.Fprintf(out, "  Commit:  %s\n", commit)
			fmt.Fprintf(out, "  Built:   %s\n", date)
			return nil
		},
	}
}

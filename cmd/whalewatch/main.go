package main

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/urfave/cli/v2"
)

var (
	// Version information (set via ldflags during build)
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

func main() {
	if err := newApp().Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:  "whalewatch",
		Usage: "Whale Alert API client and whale transaction stream CLI",
		Description: `A command-line tool for querying the Whale Alert API and following the
whale transaction stream published by the whalewatch worker.

API commands talk to Whale Alert directly; "nats" and "sse" commands read the
stream the worker publishes.`,
		Version: fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),
		Commands: []*cli.Command{
			statusCommand(),
			{
				Name:    "tx",
				Aliases: []string{"transactions"},
				Usage:   "Transaction lookup commands",
				Subcommands: []*cli.Command{
					txGetCommand(),
					txListCommand(),
				},
			},
			{
				Name:  "nats",
				Usage: "NATS transaction streaming commands",
				Subcommands: []*cli.Command{
					subscribeCommand(),
					inspectStreamCommand(),
				},
			},
			sseCommands(),
			{
				Name:  "server",
				Usage: "Server utility commands",
				Subcommands: []*cli.Command{
					healthCommand(),
					versionCommand(),
				},
			},
		},
		Flags: globalFlags(),
	}
}

// globalFlags are available to all commands.
func globalFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "api-key",
			Usage:   "Whale Alert API key",
			EnvVars: []string{"WHALE_ALERT_API_KEY"},
		},
		&cli.StringFlag{
			Name:    "base-url",
			Usage:   "Whale Alert API base URL",
			EnvVars: []string{"WHALE_ALERT_BASE_URL"},
		},
		&cli.DurationFlag{
			Name:    "http-timeout",
			Usage:   "Whale Alert request timeout",
			EnvVars: []string{"HTTP_TIMEOUT"},
			Value:   30 * time.Second,
		},
		&cli.StringFlag{
			Name:    "server-url",
			Usage:   "whalewatch server URL",
			EnvVars: []string{"SERVER_URL"},
			Value:   "http://localhost:8080",
		},
		&cli.StringFlag{
			Name:    "nats-url",
			Usage:   "NATS server URL",
			EnvVars: []string{"NATS_URL"},
			Value:   "nats://localhost:4222",
		},
		&cli.StringFlag{
			Name:    "log-level",
			Usage:   "Log level for client diagnostics on stderr",
			EnvVars: []string{"LOG_LEVEL"},
			Value:   "error",
		},
		&cli.BoolFlag{
			Name:    "json",
			Aliases: []string{"j"},
			Usage:   "Output in JSON format",
		},
	}
}

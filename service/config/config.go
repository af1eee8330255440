package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds all application configuration loaded from environment variables.
// All required fields are validated at startup to ensure fail-fast behavior.
type Config struct {
	// Server configuration
	ServerAddr  string
	MetricsAddr string
	LogLevel    string

	// Whale Alert API configuration
	WhaleAlertAPIKey  string
	WhaleAlertBaseURL string
	HTTPTimeout       time.Duration

	// NATS configuration
	NATSURL string

	// Watcher configuration
	PollInterval    time.Duration
	MinPollInterval time.Duration
	Lookback        time.Duration
	MinValue        int
	Limit           int
	Currency        string
}

// Load reads configuration from environment variables and validates all required fields.
// Returns an error if any required configuration is missing or invalid.
func Load() (*Config, error) {
	cfg := &Config{}
	var errs []error

	// Server configuration
	cfg.ServerAddr = getEnvOrDefault("SERVER_ADDR", ":8080")
	cfg.MetricsAddr = getEnvOrDefault("METRICS_ADDR", ":9091")
	cfg.LogLevel = getEnvOrDefault("LOG_LEVEL", "info")

	// Whale Alert configuration
	cfg.WhaleAlertAPIKey = os.Getenv("WHALE_ALERT_API_KEY")
	if cfg.WhaleAlertAPIKey == "" {
		errs = append(errs, fmt.Errorf("WHALE_ALERT_API_KEY is required"))
	}
	cfg.WhaleAlertBaseURL = getEnvOrDefault("WHALE_ALERT_BASE_URL", "https://api.whale-alert.io/v1")

	timeout, err := parseDuration("HTTP_TIMEOUT", "30s")
	if err != nil {
		errs = append(errs, err)
	} else {
		cfg.HTTPTimeout = timeout
	}

	// NATS configuration
	cfg.NATSURL = getEnvOrDefault("NATS_URL", "nats://localhost:4222")

	// Watcher configuration
	pollInterval, err := parseDuration("POLL_INTERVAL", "1m")
	if err != nil {
		errs = append(errs, err)
	} else {
		cfg.PollInterval = pollInterval
	}

	minInterval, err := parseDuration("MIN_POLL_INTERVAL", "10s")
	if err != nil {
		errs = append(errs, err)
	} else {
		cfg.MinPollInterval = minInterval
	}

	lookback, err := parseDuration("WATCH_LOOKBACK", "1h")
	if err != nil {
		errs = append(errs, err)
	} else {
		cfg.Lookback = lookback
	}

	minValue, err := parseInt("WATCH_MIN_VALUE", 500000)
	if err != nil {
		errs = append(errs, err)
	} else {
		cfg.MinValue = minValue
	}

	limit, err := parseInt("WATCH_LIMIT", 100)
	if err != nil {
		errs = append(errs, err)
	} else {
		cfg.Limit = limit
	}

	cfg.Currency = os.Getenv("WATCH_CURRENCY")

	// Validate intervals
	if cfg.MinPollInterval > cfg.PollInterval {
		errs = append(errs, fmt.Errorf("MIN_POLL_INTERVAL (%v) cannot be greater than POLL_INTERVAL (%v)",
			cfg.MinPollInterval, cfg.PollInterval))
	}

	if cfg.Limit < 1 {
		errs = append(errs, fmt.Errorf("WATCH_LIMIT must be positive, got %d", cfg.Limit))
	}

	// Return all validation errors
	if len(errs) > 0 {
		return nil, fmt.Errorf("configuration validation failed: %v", errs)
	}

	return cfg, nil
}

// MustLoad is like Load but panics if configuration is invalid.
// Useful for server initialization where misconfiguration should halt startup.
func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		panic(fmt.Sprintf("failed to load configuration: %v", err))
	}
	return cfg
}

// Validate checks if the configuration is valid.
// This is useful for testing configuration without loading from env.
func (c *Config) Validate() error {
	var errs []error

	if c.WhaleAlertAPIKey == "" {
		errs = append(errs, fmt.Errorf("WhaleAlertAPIKey is required"))
	}

	if c.WhaleAlertBaseURL == "" {
		errs = append(errs, fmt.Errorf("WhaleAlertBaseURL is required"))
	}

	if c.NATSURL == "" {
		errs = append(errs, fmt.Errorf("NATSURL is required"))
	}

	if c.MinPollInterval > c.PollInterval {
		errs = append(errs, fmt.Errorf("MinPollInterval cannot be greater than PollInterval"))
	}

	if c.PollInterval < time.Second {
		errs = append(errs, fmt.Errorf("PollInterval must be at least 1 second"))
	}

	if c.Limit < 1 {
		errs = append(errs, fmt.Errorf("Limit must be positive"))
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed: %v", errs)
	}

	return nil
}

// getEnvOrDefault returns the environment variable value or a default if not set.
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// parseDuration parses a duration from an environment variable or uses a default.
func parseDuration(key, defaultValue string) (time.Duration, error) {
	value := getEnvOrDefault(key, defaultValue)
	duration, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("%s: invalid duration %q: %w", key, value, err)
	}
	return duration, nil
}

// parseInt parses an integer from an environment variable or uses a default.
func parseInt(key string, defaultValue int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	result, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("%s: invalid integer %q: %w", key, value, err)
	}
	return result, nil
}

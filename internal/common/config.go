package common

import (
	"fmt"
	"os"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// Config represents the application configuration
type Config struct {
	Environment string          `toml:"environment"` // "development" or "production"
	Logging     LoggingConfig   `toml:"logging"`
	Eastmoney   EastmoneyConfig `toml:"eastmoney"`
	Cache       CacheConfig     `toml:"cache"`
	Holding     HoldingConfig   `toml:"holding"`
}

type LoggingConfig struct {
	Level      string `toml:"level"`       // "debug", "info", "warn", "error"
	TimeFormat string `toml:"time_format"` // Time format for logs (default: "15:04:05")
}

// EastmoneyConfig configures the upstream market-data client.
type EastmoneyConfig struct {
	QuoteBaseURL   string `toml:"quote_base_url"`  // push2 quote endpoints
	DataBaseURL    string `toml:"data_base_url"`   // data-center endpoints (holdings, shareholders)
	RequestTimeout string `toml:"request_timeout"` // e.g. "15s"
	MinRequestGap  string `toml:"min_request_gap"` // minimum interval between outbound requests, e.g. "200ms"
	JitterMaxMS    int    `toml:"jitter_max_ms"`   // random jitter added on top of the gap
}

// CacheConfig configures the in-memory result caches.
// Screening results go stale on an intraday scale; holding disclosures change
// quarterly, so their cache lives much longer.
type CacheConfig struct {
	ScreeningTTL    string `toml:"screening_ttl"`    // e.g. "5m"
	HoldingTTL      string `toml:"holding_ttl"`      // e.g. "24h"
	CleanupSchedule string `toml:"cleanup_schedule"` // cron spec for expired-entry sweeps
}

// HoldingConfig configures the holding-trend enricher.
type HoldingConfig struct {
	MaxWorkers int `toml:"max_workers"` // concurrent per-stock lookups; keep low to respect upstream pacing
}

// NewDefaultConfig returns the configuration defaults.
func NewDefaultConfig() *Config {
	return &Config{
		Environment: "production",
		Logging: LoggingConfig{
			Level:      "warn",
			TimeFormat: "15:04:05",
		},
		Eastmoney: EastmoneyConfig{
			QuoteBaseURL:   "https://push2.eastmoney.com",
			DataBaseURL:    "https://datacenter-web.eastmoney.com",
			RequestTimeout: "15s",
			MinRequestGap:  "200ms",
			JitterMaxMS:    50,
		},
		Cache: CacheConfig{
			ScreeningTTL:    "5m",
			HoldingTTL:      "24h",
			CleanupSchedule: "*/5 * * * *",
		},
		Holding: HoldingConfig{
			MaxWorkers: 1,
		},
	}
}

// LoadFromFile loads configuration with priority: defaults -> file.
// An empty path returns the defaults.
func LoadFromFile(path string) (*Config, error) {
	config := NewDefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
		if err := toml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	return config, nil
}

// ParseDurationOr parses a duration string, falling back to def when the
// string is empty or malformed.
func ParseDurationOr(s string, def time.Duration) time.Duration {
	if s == "" {
		return def
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return def
	}
	return d
}

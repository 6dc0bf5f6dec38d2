// Package config provides YAML run configuration for the speech exporter.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Configuration validation errors.
var (
	ErrNoKeywords            = errors.New("search.keywords must list at least one keyword")
	ErrInvalidDateFormat     = errors.New("dates must be in YYYY-MM-DD format")
	ErrInvalidDateRange      = errors.New("search.start_date must not be after search.end_date")
	ErrInvalidPageSize       = errors.New("search.page_size must be between 1 and 100")
	ErrInvalidEncoding       = errors.New("search.encoding must be 'json' or 'xml'")
	ErrInvalidMaxRetries     = errors.New("fetch.max_retries must be non-negative")
	ErrInvalidInitialDelay   = errors.New("fetch.initial_delay_ms must be non-negative")
	ErrInvalidMultiplier     = errors.New("fetch.backoff_multiplier must be >= 1.0")
	ErrInvalidTimeout        = errors.New("fetch.timeout_sec must be at least 1")
	ErrInvalidPageDelay      = errors.New("fetch.page_delay_ms must be non-negative")
	ErrMissingOutputPath     = errors.New("output.path is required")
	ErrInvalidLogLevel       = errors.New("logging.level must be one of: debug, info, warn, error")
)

// Config represents the complete exporter configuration.
type Config struct {
	Search  SearchConfig  `yaml:"search"`
	Fetch   FetchConfig   `yaml:"fetch"`
	Output  OutputConfig  `yaml:"output"`
	Logging LoggingConfig `yaml:"logging"`
}

// SearchConfig defines the query.
type SearchConfig struct {
	Keywords  []string `yaml:"keywords"`
	StartDate string   `yaml:"start_date"`
	EndDate   string   `yaml:"end_date"`
	PageSize  int      `yaml:"page_size"`
	Encoding  string   `yaml:"encoding"`
}

// FetchConfig defines retry and pacing behavior.
type FetchConfig struct {
	MaxRetries        int     `yaml:"max_retries"`
	InitialDelayMs    int     `yaml:"initial_delay_ms"`
	MaxDelayMs        int     `yaml:"max_delay_ms"`
	BackoffMultiplier float64 `yaml:"backoff_multiplier"`
	PageDelayMs       int     `yaml:"page_delay_ms"`
	TimeoutSec        int     `yaml:"timeout_sec"`
}

// OutputConfig defines where the CSV table goes.
type OutputConfig struct {
	Path string `yaml:"path"`
}

// LoggingConfig defines logging behavior.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Pretty bool   `yaml:"pretty"`
}

// DefaultConfig returns the defaults applied before a file or flags override
// them.
func DefaultConfig() *Config {
	return &Config{
		Search: SearchConfig{
			StartDate: "2023-01-01",
			EndDate:   "2023-12-31",
			PageSize:  100,
			Encoding:  "json",
		},
		Fetch: FetchConfig{
			MaxRetries:        3,
			InitialDelayMs:    2000,
			MaxDelayMs:        30000,
			BackoffMultiplier: 2.0,
			PageDelayMs:       500,
			TimeoutSec:        30,
		},
		Output: OutputConfig{
			Path: "output.csv",
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// LoadConfig loads configuration from a YAML file on top of the defaults.
// Validation is left to the caller so flag overrides can be layered on first.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	return cfg, nil
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	keywords := 0
	for _, kw := range c.Search.Keywords {
		if kw != "" {
			keywords++
		}
	}
	if keywords == 0 {
		return ErrNoKeywords
	}

	start, err := time.Parse("2006-01-02", c.Search.StartDate)
	if err != nil {
		return fmt.Errorf("%w: start_date %q", ErrInvalidDateFormat, c.Search.StartDate)
	}
	end, err := time.Parse("2006-01-02", c.Search.EndDate)
	if err != nil {
		return fmt.Errorf("%w: end_date %q", ErrInvalidDateFormat, c.Search.EndDate)
	}
	if start.After(end) {
		return ErrInvalidDateRange
	}

	if c.Search.PageSize < 1 || c.Search.PageSize > 100 {
		return ErrInvalidPageSize
	}

	if c.Search.Encoding != "json" && c.Search.Encoding != "xml" {
		return ErrInvalidEncoding
	}

	if c.Fetch.MaxRetries < 0 {
		return ErrInvalidMaxRetries
	}
	if c.Fetch.InitialDelayMs < 0 {
		return ErrInvalidInitialDelay
	}
	if c.Fetch.BackoffMultiplier < 1.0 {
		return ErrInvalidMultiplier
	}
	if c.Fetch.TimeoutSec < 1 {
		return ErrInvalidTimeout
	}
	if c.Fetch.PageDelayMs < 0 {
		return ErrInvalidPageDelay
	}

	if c.Output.Path == "" {
		return ErrMissingOutputPath
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[c.Logging.Level] {
		return ErrInvalidLogLevel
	}

	return nil
}

// GetInitialDelay returns the initial retry backoff as a duration.
func (f *FetchConfig) GetInitialDelay() time.Duration {
	return time.Duration(f.InitialDelayMs) * time.Millisecond
}

// GetMaxDelay returns the backoff cap as a duration.
func (f *FetchConfig) GetMaxDelay() time.Duration {
	return time.Duration(f.MaxDelayMs) * time.Millisecond
}

// GetPageDelay returns the courtesy delay between pages as a duration.
func (f *FetchConfig) GetPageDelay() time.Duration {
	return time.Duration(f.PageDelayMs) * time.Millisecond
}

// GetTimeout returns the per-request timeout as a duration.
func (f *FetchConfig) GetTimeout() time.Duration {
	return time.Duration(f.TimeoutSec) * time.Second
}

// String returns a string representation of the config.
func (c *Config) String() string {
	return fmt.Sprintf(
		"Config{Keywords: %d, Range: %s..%s, MaxRetries: %d, Output: %s}",
		len(c.Search.Keywords),
		c.Search.StartDate,
		c.Search.EndDate,
		c.Fetch.MaxRetries,
		c.Output.Path,
	)
}

package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write config file: %v", err)
	}
	return path
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Search.PageSize != 100 {
		t.Errorf("PageSize = %d, want 100", cfg.Search.PageSize)
	}
	if cfg.Search.Encoding != "json" {
		t.Errorf("Encoding = %q, want json", cfg.Search.Encoding)
	}
	if cfg.Fetch.MaxRetries != 3 {
		t.Errorf("MaxRetries = %d, want 3", cfg.Fetch.MaxRetries)
	}
	if cfg.Fetch.PageDelayMs != 500 {
		t.Errorf("PageDelayMs = %d, want 500", cfg.Fetch.PageDelayMs)
	}
	if cfg.Output.Path != "output.csv" {
		t.Errorf("Output.Path = %q, want output.csv", cfg.Output.Path)
	}
}

func TestLoadConfig(t *testing.T) {
	path := writeConfigFile(t, `
search:
  keywords:
    - 所得控除
    - 税額控除
  start_date: "2006-01-01"
  end_date: "2023-12-31"
  page_size: 50
  encoding: xml
fetch:
  max_retries: 5
  page_delay_ms: 1000
output:
  path: speeches.csv
logging:
  level: debug
  pretty: true
`)

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}

	if len(cfg.Search.Keywords) != 2 {
		t.Errorf("Keywords = %v, want 2 entries", cfg.Search.Keywords)
	}
	if cfg.Search.PageSize != 50 {
		t.Errorf("PageSize = %d, want 50", cfg.Search.PageSize)
	}
	if cfg.Search.Encoding != "xml" {
		t.Errorf("Encoding = %q, want xml", cfg.Search.Encoding)
	}
	if cfg.Fetch.MaxRetries != 5 {
		t.Errorf("MaxRetries = %d, want 5", cfg.Fetch.MaxRetries)
	}
	// unspecified values keep their defaults
	if cfg.Fetch.TimeoutSec != 30 {
		t.Errorf("TimeoutSec = %d, want default 30", cfg.Fetch.TimeoutSec)
	}
	if cfg.Logging.Level != "debug" || !cfg.Logging.Pretty {
		t.Errorf("Logging = %+v, want debug/pretty", cfg.Logging)
	}
}

func TestLoadConfig_MissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	if err == nil {
		t.Error("LoadConfig() = nil, want error for missing file")
	}
}

func TestLoadConfig_InvalidYAML(t *testing.T) {
	path := writeConfigFile(t, "search: [not: valid")

	_, err := LoadConfig(path)
	if err == nil {
		t.Error("LoadConfig() = nil, want error for invalid YAML")
	}
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		cfg := DefaultConfig()
		cfg.Search.Keywords = []string{"所得控除"}
		return cfg
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr error
	}{
		{
			name:   "valid config",
			mutate: func(c *Config) {},
		},
		{
			name:    "no keywords",
			mutate:  func(c *Config) { c.Search.Keywords = nil },
			wantErr: ErrNoKeywords,
		},
		{
			name:    "bad start date",
			mutate:  func(c *Config) { c.Search.StartDate = "01-01-2023" },
			wantErr: ErrInvalidDateFormat,
		},
		{
			name: "start after end",
			mutate: func(c *Config) {
				c.Search.StartDate = "2024-01-01"
				c.Search.EndDate = "2023-01-01"
			},
			wantErr: ErrInvalidDateRange,
		},
		{
			name:    "page size too large",
			mutate:  func(c *Config) { c.Search.PageSize = 200 },
			wantErr: ErrInvalidPageSize,
		},
		{
			name:    "bad encoding",
			mutate:  func(c *Config) { c.Search.Encoding = "protobuf" },
			wantErr: ErrInvalidEncoding,
		},
		{
			name:    "negative retries",
			mutate:  func(c *Config) { c.Fetch.MaxRetries = -1 },
			wantErr: ErrInvalidMaxRetries,
		},
		{
			name:    "multiplier below one",
			mutate:  func(c *Config) { c.Fetch.BackoffMultiplier = 0.5 },
			wantErr: ErrInvalidMultiplier,
		},
		{
			name:    "zero timeout",
			mutate:  func(c *Config) { c.Fetch.TimeoutSec = 0 },
			wantErr: ErrInvalidTimeout,
		},
		{
			name:    "negative page delay",
			mutate:  func(c *Config) { c.Fetch.PageDelayMs = -1 },
			wantErr: ErrInvalidPageDelay,
		},
		{
			name:    "empty output path",
			mutate:  func(c *Config) { c.Output.Path = "" },
			wantErr: ErrMissingOutputPath,
		},
		{
			name:    "bad log level",
			mutate:  func(c *Config) { c.Logging.Level = "verbose" },
			wantErr: ErrInvalidLogLevel,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("Validate() = %v, want nil", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Validate() = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestFetchConfig_Durations(t *testing.T) {
	f := FetchConfig{
		InitialDelayMs: 2000,
		MaxDelayMs:     30000,
		PageDelayMs:    500,
		TimeoutSec:     30,
	}

	if f.GetInitialDelay() != 2*time.Second {
		t.Errorf("GetInitialDelay() = %v, want 2s", f.GetInitialDelay())
	}
	if f.GetMaxDelay() != 30*time.Second {
		t.Errorf("GetMaxDelay() = %v, want 30s", f.GetMaxDelay())
	}
	if f.GetPageDelay() != 500*time.Millisecond {
		t.Errorf("GetPageDelay() = %v, want 500ms", f.GetPageDelay())
	}
	if f.GetTimeout() != 30*time.Second {
		t.Errorf("GetTimeout() = %v, want 30s", f.GetTimeout())
	}
}

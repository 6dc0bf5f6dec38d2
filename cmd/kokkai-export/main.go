// Command kokkai-export queries the Diet proceedings search API for speeches
// matching a keyword filter and date range, and writes them as CSV.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"

	"github.com/kokkai-tools/speech-export/pkg/api"
	"github.com/kokkai-tools/speech-export/pkg/client"
	"github.com/kokkai-tools/speech-export/pkg/config"
	"github.com/kokkai-tools/speech-export/pkg/export"
	"github.com/kokkai-tools/speech-export/pkg/logging"
	"github.com/kokkai-tools/speech-export/pkg/pagination"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	fs := flag.NewFlagSet("kokkai-export", flag.ExitOnError)
	configPath := fs.String("config", "", "path to YAML config file")
	keywords := fs.String("keywords", "", "comma-separated search keywords (OR search)")
	startDate := fs.String("start-date", "", "search start date (YYYY-MM-DD)")
	endDate := fs.String("end-date", "", "search end date (YYYY-MM-DD)")
	output := fs.String("output", "", "output CSV file path")
	maxRetries := fs.Int("max-retries", -1, "max retries per page on transient failures")
	encoding := fs.String("encoding", "", "response encoding: json or xml")
	pageSize := fs.Int("page-size", 0, "records per page (1-100)")
	logLevel := fs.String("log-level", "", "log level: debug, info, warn, error")
	pretty := fs.Bool("pretty", false, "human-readable log output")
	fs.Parse(args)

	cfg := config.DefaultConfig()
	if *configPath != "" {
		loaded, err := config.LoadConfig(*configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "config: %v\n", err)
			return 1
		}
		cfg = loaded
	}
	applyOverrides(cfg, flagOverrides{
		Keywords:   *keywords,
		StartDate:  *startDate,
		EndDate:    *endDate,
		Output:     *output,
		MaxRetries: *maxRetries,
		Encoding:   *encoding,
		PageSize:   *pageSize,
		LogLevel:   *logLevel,
		Pretty:     *pretty,
	})
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		return 1
	}

	logger := logging.Setup(logging.Config{
		Level:  logging.LogLevel(cfg.Logging.Level),
		Pretty: cfg.Logging.Pretty,
		Output: os.Stderr,
	})

	fetcher, err := client.New(buildFetcherConfig(cfg))
	if err != nil {
		logger.Error().Err(err).Msg("Failed to create fetcher")
		return 1
	}
	driver := pagination.NewDriver(fetcher, pagination.Config{
		PageDelay: cfg.Fetch.GetPageDelay(),
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	records, err := driver.FetchAll(ctx, buildQuery(cfg))
	if err != nil {
		var runErr *pagination.RunError
		if errors.As(err, &runErr) {
			logger.Error().
				Err(runErr.Err).
				Int("records_before_abort", runErr.Records).
				Msg("Run aborted, no output written")
		} else {
			logger.Error().Err(err).Msg("Run failed")
		}
		return 1
	}

	if err := export.WriteFile(cfg.Output.Path, records); err != nil {
		logger.Error().Err(err).Str("path", cfg.Output.Path).Msg("Failed to write output")
		return 1
	}

	logger.Info().
		Int("records", len(records)).
		Str("path", cfg.Output.Path).
		Msg("Export complete")
	return 0
}

// flagOverrides carries the command-line values layered on top of the
// config-file values. Zero values mean "not set".
type flagOverrides struct {
	Keywords   string
	StartDate  string
	EndDate    string
	Output     string
	MaxRetries int
	Encoding   string
	PageSize   int
	LogLevel   string
	Pretty     bool
}

func applyOverrides(cfg *config.Config, o flagOverrides) {
	if o.Keywords != "" {
		cfg.Search.Keywords = splitKeywords(o.Keywords)
	}
	if o.StartDate != "" {
		cfg.Search.StartDate = o.StartDate
	}
	if o.EndDate != "" {
		cfg.Search.EndDate = o.EndDate
	}
	if o.Output != "" {
		cfg.Output.Path = o.Output
	}
	if o.MaxRetries >= 0 {
		cfg.Fetch.MaxRetries = o.MaxRetries
	}
	if o.Encoding != "" {
		cfg.Search.Encoding = o.Encoding
	}
	if o.PageSize > 0 {
		cfg.Search.PageSize = o.PageSize
	}
	if o.LogLevel != "" {
		cfg.Logging.Level = o.LogLevel
	}
	if o.Pretty {
		cfg.Logging.Pretty = true
	}
}

// splitKeywords parses a comma-separated keyword list, dropping empty terms.
func splitKeywords(s string) []string {
	var keywords []string
	for _, kw := range strings.Split(s, ",") {
		if kw = strings.TrimSpace(kw); kw != "" {
			keywords = append(keywords, kw)
		}
	}
	return keywords
}

func buildQuery(cfg *config.Config) api.SearchQuery {
	return api.SearchQuery{
		Keywords:  cfg.Search.Keywords,
		StartDate: cfg.Search.StartDate,
		EndDate:   cfg.Search.EndDate,
		PageSize:  cfg.Search.PageSize,
		Encoding:  api.Encoding(cfg.Search.Encoding),
	}
}

func buildFetcherConfig(cfg *config.Config) client.Config {
	c := client.DefaultConfig()
	c.Timeout = cfg.Fetch.GetTimeout()
	c.Retry = client.RetryConfig{
		MaxRetries:        cfg.Fetch.MaxRetries,
		InitialBackoff:    cfg.Fetch.GetInitialDelay(),
		MaxBackoff:        cfg.Fetch.GetMaxDelay(),
		BackoffMultiplier: cfg.Fetch.BackoffMultiplier,
	}
	return c
}

// Package pagination drives a search query across all result pages and
// assembles the complete ordered record sequence.
package pagination

import (
	"context"
	"fmt"
	"time"

	"github.com/kokkai-tools/speech-export/pkg/api"
	"github.com/kokkai-tools/speech-export/pkg/record"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Prometheus metrics for pagination runs.
var (
	kokkaiPagesFetchedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "kokkai_pages_fetched_total",
		Help: "Total result pages fetched across all runs",
	})

	kokkaiRecordsFetchedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "kokkai_records_fetched_total",
		Help: "Total speech records accumulated across all runs",
	})

	kokkaiRunsAbortedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "kokkai_runs_aborted_total",
		Help: "Total pagination runs aborted by a fatal fetch failure",
	})
)

// Fetcher fetches one page of results starting at a zero-based offset.
type Fetcher interface {
	FetchPage(ctx context.Context, query api.SearchQuery, offset int) (*api.Page, error)
}

// Config holds the driver configuration.
type Config struct {
	// PageDelay is the courtesy pause between successful page fetches,
	// distinct from retry backoff. It only applies while more pages remain.
	PageDelay time.Duration
}

// DefaultConfig returns the default driver configuration.
func DefaultConfig() Config {
	return Config{
		PageDelay: 500 * time.Millisecond,
	}
}

// Driver orchestrates sequential page fetches for one query. Pages are
// requested one at a time; the upstream service is shared and parallel
// fetching is deliberately avoided.
type Driver struct {
	fetcher Fetcher
	config  Config
	logger  zerolog.Logger
}

// NewDriver creates a pagination driver on top of a page fetcher.
func NewDriver(fetcher Fetcher, config Config) *Driver {
	return &Driver{
		fetcher: fetcher,
		config:  config,
		logger:  log.With().Str("component", "pagination").Logger(),
	}
}

// RunError is surfaced when a run aborts. The run is all-or-nothing: the
// accumulated records are discarded, Records only reports how many had been
// collected before the abort.
type RunError struct {
	// Offset of the page whose fetch failed.
	Offset int

	// Records accumulated before the abort.
	Records int

	Err error
}

func (e *RunError) Error() string {
	return fmt.Sprintf("run aborted at offset %d after %d records: %v", e.Offset, e.Records, e.Err)
}

func (e *RunError) Unwrap() error {
	return e.Err
}

// FetchAll drives the fetcher across the full result set and returns the
// complete ordered record sequence with contiguous 1-based ids. Any terminal
// fetch failure aborts the whole run with a RunError.
func (d *Driver) FetchAll(ctx context.Context, query api.SearchQuery) ([]record.Record, error) {
	if err := query.Validate(); err != nil {
		return nil, err
	}

	records := []record.Record{}
	seen := make(map[string]struct{})
	offset := 0
	total := -1
	nextID := 1

	for {
		page, err := d.fetcher.FetchPage(ctx, query, offset)
		if err != nil {
			kokkaiRunsAbortedTotal.Inc()
			d.logger.Error().
				Err(err).
				Int("offset", offset).
				Int("records", len(records)).
				Msg("Run aborted")
			return nil, &RunError{Offset: offset, Records: len(records), Err: err}
		}
		kokkaiPagesFetchedTotal.Inc()

		if total < 0 {
			total = page.Total
			d.logger.Info().
				Strs("keywords", query.Keywords).
				Int("total", total).
				Msg("Search matched")
		}

		if len(page.Speeches) == 0 {
			break
		}

		for _, group := range page.Speeches {
			// Result windows can shift between requests; a speech id seen
			// twice is the same record, not a new one.
			if group.SpeechID != "" {
				if _, dup := seen[group.SpeechID]; dup {
					continue
				}
				seen[group.SpeechID] = struct{}{}
			}
			records = append(records, record.Normalize(nextID, group))
			nextID++
		}
		kokkaiRecordsFetchedTotal.Add(float64(len(page.Speeches)))

		startRecord := offset + 1
		offset += len(page.Speeches)

		if total > query.PageSize {
			d.logger.Info().
				Int("fetched", offset).
				Int("total", total).
				Msg("Fetch progress")
		}

		if offset >= total {
			break
		}
		// The API reports where the next window starts; a position that does
		// not advance would loop forever on the same page.
		if page.NextPosition > 0 && (page.NextPosition <= startRecord || page.NextPosition > total) {
			break
		}

		if d.config.PageDelay > 0 {
			select {
			case <-ctx.Done():
				kokkaiRunsAbortedTotal.Inc()
				return nil, &RunError{Offset: offset, Records: len(records), Err: ctx.Err()}
			case <-time.After(d.config.PageDelay):
			}
		}
	}

	d.logger.Info().
		Int("records", len(records)).
		Msg("Fetch complete")

	return records, nil
}

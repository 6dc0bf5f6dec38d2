// Package client provides the retrying page fetcher for the Diet proceedings
// search API: one logical fetch per page, with error classification and
// bounded exponential backoff.
package client

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/kokkai-tools/speech-export/pkg/api"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Prometheus metrics for fetch operations.
var (
	kokkaiRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "kokkai_requests_total",
		Help: "Total API requests by outcome status",
	}, []string{"status"})

	kokkaiRequestDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "kokkai_request_duration_seconds",
		Help:    "API request duration in seconds",
		Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30},
	})

	kokkaiErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "kokkai_errors_total",
		Help: "Total fetch errors by class",
	}, []string{"class"})
)

// Fetcher performs single-page fetches with bounded retry.
type Fetcher struct {
	httpClient *http.Client
	config     Config
	logger     zerolog.Logger
}

// Config holds the fetcher configuration.
type Config struct {
	// BaseURL of the speech search endpoint.
	BaseURL string

	// UserAgent header sent with every request.
	UserAgent string

	// Timeout per HTTP request.
	Timeout time.Duration

	// Retry controls the per-page retry budget and backoff curve.
	Retry RetryConfig
}

// DefaultConfig returns a safe default configuration.
func DefaultConfig() Config {
	return Config{
		BaseURL:   api.DefaultBaseURL,
		UserAgent: "speech-export/1.0",
		Timeout:   30 * time.Second,
		Retry:     DefaultRetryConfig(),
	}
}

// New creates a new fetcher.
func New(cfg Config) (*Fetcher, error) {
	if cfg.BaseURL == "" {
		cfg.BaseURL = api.DefaultBaseURL
	}
	if _, err := url.Parse(cfg.BaseURL); err != nil {
		return nil, fmt.Errorf("invalid base URL %q: %w", cfg.BaseURL, err)
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.Retry.MaxRetries < 0 {
		return nil, fmt.Errorf("max retries must be non-negative (got %d)", cfg.Retry.MaxRetries)
	}

	logger := log.With().Str("component", "kokkai-fetcher").Logger()

	return &Fetcher{
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		config: cfg,
		logger: logger,
	}, nil
}

// FetchPage performs one logical fetch of the page starting at the given
// zero-based offset, retrying retryable failures up to the configured budget.
// The returned page is fully decoded in the query's encoding.
func (f *Fetcher) FetchPage(ctx context.Context, query api.SearchQuery, offset int) (*api.Page, error) {
	requestURL := f.config.BaseURL + "?" + query.Params(offset).Encode()

	startTime := time.Now()
	defer func() {
		kokkaiRequestDuration.Observe(time.Since(startTime).Seconds())
	}()

	var page *api.Page

	retryErr := retryWithBackoff(ctx, f.config.Retry, func() error {
		attemptErr := f.attempt(ctx, requestURL, query.ResponseEncoding(), &page)
		if attemptErr != nil {
			kokkaiErrorsTotal.WithLabelValues(string(classifyError(attemptErr))).Inc()
		}
		return attemptErr
	}, classifyError)
	if retryErr != nil {
		return nil, retryErr
	}

	f.logger.Debug().
		Int("offset", offset).
		Int("returned", len(page.Speeches)).
		Int("total", page.Total).
		Msg("Page fetched")

	return page, nil
}

// attempt performs one request/decode round trip and stores the decoded page
// on success.
func (f *Fetcher) attempt(ctx context.Context, requestURL string, enc api.Encoding, out **api.Page) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, requestURL, nil)
	if err != nil {
		return &APIError{Class: ErrorClassClient, Message: "create request", Err: err}
	}
	req.Header.Set("User-Agent", f.config.UserAgent)

	resp, err := f.httpClient.Do(req)
	if err != nil {
		f.logger.Error().Err(err).Msg("HTTP request failed")
		kokkaiRequestsTotal.WithLabelValues("network_error").Inc()
		return &APIError{Class: ErrorClassNetwork, Message: "request failed", Err: err}
	}
	defer resp.Body.Close()

	kokkaiRequestsTotal.WithLabelValues(fmt.Sprintf("%d", resp.StatusCode)).Inc()

	switch {
	case resp.StatusCode >= 400 && resp.StatusCode < 500:
		f.logger.Warn().Int("status", resp.StatusCode).Msg("Query rejected by API")
		return &APIError{
			StatusCode: resp.StatusCode,
			Class:      ErrorClassClient,
			Message:    resp.Status,
		}
	case resp.StatusCode >= 500:
		f.logger.Warn().Int("status", resp.StatusCode).Msg("Server error from API")
		return &APIError{
			StatusCode: resp.StatusCode,
			Class:      ErrorClassServer,
			Message:    resp.Status,
		}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return &APIError{Class: ErrorClassNetwork, Message: "read body", Err: err}
	}

	page, err := api.Decode(body, enc)
	if err != nil {
		f.logger.Warn().Err(err).Msg("Response body failed to decode")
		return err
	}

	*out = page
	return nil
}

// classifyError categorizes an error for retry handling and observability.
func classifyError(err error) ErrorClass {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Class
	}
	var decodeErr *api.DecodeError
	if errors.As(err, &decodeErr) {
		return ErrorClassDecode
	}
	return ErrorClassNetwork
}

// SetHTTPClient sets a custom HTTP client (for testing).
func (f *Fetcher) SetHTTPClient(client *http.Client) {
	f.httpClient = client
}

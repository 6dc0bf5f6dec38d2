// Package api defines the wire contract of the Diet proceedings search API:
// query construction and decoding of the two supported response encodings.
package api

import (
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// DefaultBaseURL is the speech search endpoint of the National Diet Library.
const DefaultBaseURL = "https://kokkai.ndl.go.jp/api/speech"

// MaxPageSize is the upstream limit for maximumRecords per request.
const MaxPageSize = 100

const dateLayout = "2006-01-02"

// Encoding selects the wire format the API serializes a page in.
type Encoding string

const (
	// EncodingJSON is the nested-object encoding (recordPacking=json).
	EncodingJSON Encoding = "json"

	// EncodingXML is the tree-structured encoding (recordPacking=xml).
	EncodingXML Encoding = "xml"
)

// Query validation errors.
var (
	ErrNoKeywords      = errors.New("at least one keyword is required")
	ErrInvalidDate     = errors.New("date must be in YYYY-MM-DD format")
	ErrDateRange       = errors.New("start date must not be after end date")
	ErrInvalidPageSize = errors.New("page size must be between 1 and 100")
	ErrInvalidEncoding = errors.New("encoding must be json or xml")
)

// SearchQuery describes one search run: a disjunctive keyword filter,
// an inclusive date range, the page size and the response encoding.
// It is immutable once validated.
type SearchQuery struct {
	// Keywords are OR-combined search terms. At least one is required.
	Keywords []string

	// StartDate and EndDate bound the search, inclusive (YYYY-MM-DD).
	StartDate string
	EndDate   string

	// PageSize is the maximumRecords value per request (1..100).
	PageSize int

	// Encoding selects the response wire format. Defaults to JSON.
	Encoding Encoding
}

// Validate checks the query invariants.
func (q SearchQuery) Validate() error {
	keywords := 0
	for _, kw := range q.Keywords {
		if strings.TrimSpace(kw) != "" {
			keywords++
		}
	}
	if keywords == 0 {
		return ErrNoKeywords
	}

	start, err := time.Parse(dateLayout, q.StartDate)
	if err != nil {
		return fmt.Errorf("%w: start date %q", ErrInvalidDate, q.StartDate)
	}
	end, err := time.Parse(dateLayout, q.EndDate)
	if err != nil {
		return fmt.Errorf("%w: end date %q", ErrInvalidDate, q.EndDate)
	}
	if start.After(end) {
		return fmt.Errorf("%w: %s > %s", ErrDateRange, q.StartDate, q.EndDate)
	}

	if q.PageSize < 1 || q.PageSize > MaxPageSize {
		return fmt.Errorf("%w: got %d", ErrInvalidPageSize, q.PageSize)
	}

	switch q.Encoding {
	case EncodingJSON, EncodingXML, "":
	default:
		return fmt.Errorf("%w: got %q", ErrInvalidEncoding, q.Encoding)
	}

	return nil
}

// ResponseEncoding returns the effective encoding, defaulting to JSON.
func (q SearchQuery) ResponseEncoding() Encoding {
	if q.Encoding == "" {
		return EncodingJSON
	}
	return q.Encoding
}

// Params builds the request parameters for the page starting at the given
// zero-based offset. The API itself counts records from 1 (startRecord).
// Keywords are joined with spaces; the "any" parameter treats them as an
// OR-combined term list.
func (q SearchQuery) Params(offset int) url.Values {
	terms := make([]string, 0, len(q.Keywords))
	for _, kw := range q.Keywords {
		if kw = strings.TrimSpace(kw); kw != "" {
			terms = append(terms, kw)
		}
	}

	params := url.Values{}
	params.Set("any", strings.Join(terms, " "))
	params.Set("from", q.StartDate)
	params.Set("until", q.EndDate)
	params.Set("startRecord", strconv.Itoa(offset+1))
	params.Set("maximumRecords", strconv.Itoa(q.PageSize))
	params.Set("recordPacking", string(q.ResponseEncoding()))
	return params
}

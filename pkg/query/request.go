package query

import (
	"fmt"
	"strings"
	"time"
)

const (
	// DefaultTimeout is the statement timeout applied when the request does
	// not specify one.
	DefaultTimeout = 30 * time.Second

	// DefaultMaxRows caps the number of returned rows when the request does
	// not specify a limit.
	DefaultMaxRows = 1000
)

// Format selects how a result is rendered.
type Format string

const (
	// FormatJSON renders the full result with rows and column metadata.
	FormatJSON Format = "json"

	// FormatCSV renders a header row plus comma-joined value rows.
	FormatCSV Format = "csv"

	// FormatMarkdown renders a Markdown pipe table.
	FormatMarkdown Format = "markdown"

	// FormatTable renders a column-aligned ASCII table.
	FormatTable Format = "table"
)

// ParseFormat converts a string to a Format. An empty string selects JSON.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case "":
		return FormatJSON, nil
	case FormatJSON, FormatCSV, FormatMarkdown, FormatTable:
		return f, nil
	default:
		return "", fmt.Errorf("invalid output format %q", s)
	}
}

// Request describes one query execution. Construct with NewRequest; the value
// is immutable afterward.
type Request struct {
	Query           string
	Connection      Connection
	Timeout         time.Duration
	MaxRows         int
	OutputFormat    Format
	IncludeMetadata bool
}

// NewRequest applies defaults and validates the request.
func NewRequest(r Request) (Request, error) {
	if r.Timeout == 0 {
		r.Timeout = DefaultTimeout
	}
	if r.MaxRows == 0 {
		r.MaxRows = DefaultMaxRows
	}
	if r.OutputFormat == "" {
		r.OutputFormat = FormatJSON
	}

	if strings.TrimSpace(r.Query) == "" {
		return Request{}, fmt.Errorf("query cannot be empty")
	}
	if r.Timeout < 0 {
		return Request{}, fmt.Errorf("timeout must be positive")
	}
	if r.MaxRows < 0 {
		return Request{}, fmt.Errorf("max rows must be positive")
	}
	if _, err := ParseFormat(string(r.OutputFormat)); err != nil {
		return Request{}, err
	}

	return r, nil
}

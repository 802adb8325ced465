package query

import (
	"math"
	"time"
)

// queryPreviewLen is the number of characters of the query echoed in summaries.
const queryPreviewLen = 100

// Column describes one result column. Metadata is derived from the first
// returned row; precision and scale are set only when the driver reports them.
type Column struct {
	Name      string `json:"name"`
	DataType  string `json:"data_type"`
	Nullable  bool   `json:"nullable"`
	Precision *int   `json:"precision,omitempty"`
	Scale     *int   `json:"scale,omitempty"`
}

// Result is the outcome of one successful execution. It is created once by
// the adapter and never mutated afterward.
type Result struct {
	Rows          []map[string]any `json:"rows"`
	Columns       []Column         `json:"columns"`
	RowCount      int              `json:"row_count"`
	ExecutionTime float64          `json:"execution_time"`
	Query         string           `json:"query"`
	Timestamp     time.Time        `json:"timestamp"`
	Engine        Engine           `json:"engine"`
	Truncated     bool             `json:"truncated"`
}

// Summary condenses a Result for response envelopes and logs.
type Summary struct {
	RowCount             int     `json:"row_count"`
	ColumnCount          int     `json:"column_count"`
	ExecutionTimeSeconds float64 `json:"execution_time_seconds"`
	Timestamp            string  `json:"timestamp"`
	Engine               string  `json:"engine"`
	Truncated            bool    `json:"truncated"`
	QueryPreview         string  `json:"query_preview"`
}

// Summary returns the execution summary. The query is previewed to its first
// 100 characters and the execution time is rounded to four decimals.
func (r *Result) Summary() Summary {
	preview := r.Query
	if len(preview) > queryPreviewLen {
		preview = preview[:queryPreviewLen] + "..."
	}

	return Summary{
		RowCount:             r.RowCount,
		ColumnCount:          len(r.Columns),
		ExecutionTimeSeconds: math.Round(r.ExecutionTime*1e4) / 1e4,
		Timestamp:            r.Timestamp.Format(time.RFC3339),
		Engine:               r.Engine.String(),
		Truncated:            r.Truncated,
		QueryPreview:         preview,
	}
}

package query

import (
	"fmt"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
)

// JSONPayload is the json-format rendering of a Result.
type JSONPayload struct {
	Summary Summary          `json:"summary"`
	Columns []Column         `json:"columns"`
	Rows    []map[string]any `json:"rows"`
}

// FormatResult renders an already-fetched Result in the requested format.
// It is a pure transform and never re-queries the engine. JSON yields a
// structured payload; the other formats yield strings.
func FormatResult(r *Result, f Format) (any, error) {
	switch f {
	case FormatJSON, "":
		return JSONPayload{Summary: r.Summary(), Columns: r.Columns, Rows: r.Rows}, nil
	case FormatCSV:
		return renderCSV(r), nil
	case FormatMarkdown:
		return renderMarkdown(r), nil
	case FormatTable:
		return renderTable(r), nil
	default:
		return nil, fmt.Errorf("invalid output format %q", f)
	}
}

func renderCSV(r *Result) string {
	if len(r.Rows) == 0 {
		return ""
	}

	lines := make([]string, 0, len(r.Rows)+1)

	header := make([]string, len(r.Columns))
	for i, col := range r.Columns {
		header[i] = col.Name
	}
	lines = append(lines, strings.Join(header, ","))

	for _, row := range r.Rows {
		values := make([]string, len(r.Columns))
		for i, col := range r.Columns {
			values[i] = escapeCSV(cellValue(row[col.Name]))
		}
		lines = append(lines, strings.Join(values, ","))
	}

	return strings.Join(lines, "\n")
}

func renderMarkdown(r *Result) string {
	if len(r.Rows) == 0 {
		return "No results"
	}

	names := make([]string, len(r.Columns))
	seps := make([]string, len(r.Columns))
	for i, col := range r.Columns {
		names[i] = col.Name
		seps[i] = "---"
	}

	lines := []string{
		"| " + strings.Join(names, " | ") + " |",
		"| " + strings.Join(seps, " | ") + " |",
	}

	for _, row := range r.Rows {
		values := make([]string, len(r.Columns))
		for i, col := range r.Columns {
			values[i] = cellValue(row[col.Name])
		}
		lines = append(lines, "| "+strings.Join(values, " | ")+" |")
	}

	return strings.Join(lines, "\n")
}

func renderTable(r *Result) string {
	if len(r.Rows) == 0 {
		return "No results"
	}

	t := table.NewWriter()
	t.SetStyle(table.StyleDefault)

	header := make(table.Row, len(r.Columns))
	for i, col := range r.Columns {
		header[i] = col.Name
	}
	t.AppendHeader(header)

	for _, row := range r.Rows {
		tr := make(table.Row, len(r.Columns))
		for i, col := range r.Columns {
			tr[i] = cellValue(row[col.Name])
		}
		t.AppendRow(tr)
	}

	return t.Render()
}

func cellValue(v any) string {
	if v == nil {
		return "NULL"
	}
	if b, ok := v.([]byte); ok {
		return string(b)
	}
	return fmt.Sprintf("%v", v)
}

func escapeCSV(s string) string {
	if strings.ContainsAny(s, ",\"\n") {
		return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
	}
	return s
}

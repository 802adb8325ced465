package adapter

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/alaiia/mcp-dbquery/pkg/query"
)

// LimitQuery appends a row cap unless the query already carries a LIMIT
// clause. Adapters pass maxRows+1 so truncation stays detectable.
func LimitQuery(q string, n int) string {
	if strings.Contains(strings.ToUpper(q), "LIMIT") {
		return q
	}
	return strings.TrimRight(strings.TrimSpace(q), ";") + fmt.Sprintf(" LIMIT %d", n)
}

// CollectRows drains a database/sql result set into ordered row maps,
// reading at most maxRows+1 rows. The returned truncated flag reports
// whether more than maxRows rows came back; the rows are already sliced
// to maxRows. Byte slices are converted to strings for readability.
func CollectRows(rows *sql.Rows, maxRows int) (names []string, collected []map[string]any, truncated bool, err error) {
	names, err = rows.Columns()
	if err != nil {
		return nil, nil, false, err
	}

	for rows.Next() {
		values := make([]any, len(names))
		ptrs := make([]any, len(names))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, nil, false, err
		}

		row := make(map[string]any, len(names))
		for i, name := range names {
			v := values[i]
			if b, ok := v.([]byte); ok {
				v = string(b)
			}
			row[name] = v
		}
		collected = append(collected, row)

		if len(collected) > maxRows {
			break
		}
	}
	if err := rows.Err(); err != nil {
		return nil, nil, false, err
	}

	if len(collected) > maxRows {
		truncated = true
		collected = collected[:maxRows]
	}
	return names, collected, truncated, nil
}

// ColumnMetadata derives column descriptions from the first returned row.
// With zero rows there is nothing to derive from.
func ColumnMetadata(names []string, rows []map[string]any) []query.Column {
	if len(rows) == 0 {
		return []query.Column{}
	}

	cols := make([]query.Column, 0, len(names))
	for _, name := range names {
		cols = append(cols, query.Column{
			Name:     name,
			DataType: dataTypeName(rows[0][name]),
			Nullable: true,
		})
	}
	return cols
}

func dataTypeName(v any) string {
	if v == nil {
		return "unknown"
	}
	return fmt.Sprintf("%T", v)
}

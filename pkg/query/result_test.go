package query

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestResultSummary(t *testing.T) {
	ts := time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC)
	res := &Result{
		Rows:          []map[string]any{{"id": 1}, {"id": 2}},
		Columns:       []Column{{Name: "id", DataType: "int64", Nullable: true}},
		RowCount:      2,
		ExecutionTime: 0.123456,
		Query:         "SELECT id FROM users",
		Timestamp:     ts,
		Engine:        EnginePostgres,
		Truncated:     false,
	}

	sum := res.Summary()
	assert.Equal(t, 2, sum.RowCount)
	assert.Equal(t, 1, sum.ColumnCount)
	assert.Equal(t, 0.1235, sum.ExecutionTimeSeconds)
	assert.Equal(t, "2026-03-14T09:26:53Z", sum.Timestamp)
	assert.Equal(t, "postgres", sum.Engine)
	assert.Equal(t, "SELECT id FROM users", sum.QueryPreview)
}

func TestResultSummaryPreviewTruncation(t *testing.T) {
	long := "SELECT " + strings.Repeat("a", 200)
	res := &Result{Query: long}

	sum := res.Summary()
	assert.Len(t, sum.QueryPreview, 103)
	assert.True(t, strings.HasSuffix(sum.QueryPreview, "..."))
	assert.Equal(t, long[:100], sum.QueryPreview[:100])
}

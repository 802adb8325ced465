package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alaiia/mcp-dbquery/pkg/query"
)

func memoryAdapter(t *testing.T) *Adapter {
	t.Helper()
	a, err := New(query.Connection{
		Engine:   query.EngineSQLite,
		Host:     "local",
		Database: ":memory:",
	})
	require.NoError(t, err)
	require.NoError(t, a.Connect(context.Background()))
	t.Cleanup(func() { a.Disconnect(context.Background()) })
	return a
}

func TestConnectAndProbe(t *testing.T) {
	a := memoryAdapter(t)
	assert.True(t, a.TestConnection(context.Background()))

	info := a.ConnectionInfo()
	assert.Equal(t, "sqlite", info.Engine)
	assert.Equal(t, ":memory:", info.Database)
	assert.True(t, info.IsConnected)
}

func TestExecuteQuery(t *testing.T) {
	a := memoryAdapter(t)

	res, err := a.ExecuteQuery(context.Background(), "SELECT 1 AS one, 'x' AS label", 5*time.Second, 10)
	require.NoError(t, err)

	assert.Equal(t, 1, res.RowCount)
	assert.False(t, res.Truncated)
	assert.Equal(t, query.EngineSQLite, res.Engine)
	require.Len(t, res.Columns, 2)
	assert.Equal(t, "one", res.Columns[0].Name)
	assert.Equal(t, "label", res.Columns[1].Name)
}

func TestExecuteQueryTruncation(t *testing.T) {
	a := memoryAdapter(t)

	q := "WITH t(n) AS (VALUES (1), (2), (3)) SELECT n FROM t"
	res, err := a.ExecuteQuery(context.Background(), q, 5*time.Second, 2)
	require.NoError(t, err)

	assert.True(t, res.Truncated)
	assert.Equal(t, 2, res.RowCount)
}

func TestExecuteQueryExistingLimitKept(t *testing.T) {
	a := memoryAdapter(t)

	q := "WITH t(n) AS (VALUES (1), (2), (3)) SELECT n FROM t LIMIT 1"
	res, err := a.ExecuteQuery(context.Background(), q, 5*time.Second, 10)
	require.NoError(t, err)

	assert.Equal(t, 1, res.RowCount)
	assert.False(t, res.Truncated)
}

func TestExecuteQueryRejectsWrites(t *testing.T) {
	a := memoryAdapter(t)

	for _, q := range []string{
		"CREATE TABLE t (id INTEGER)",
		"ATTACH DATABASE 'other.db' AS other",
		"REINDEX t",
	} {
		_, err := a.ExecuteQuery(context.Background(), q, time.Second, 10)
		var valErr *query.ValidationError
		require.ErrorAs(t, err, &valErr, "query %q", q)
	}
}

func TestExecuteQueryRequiresConnect(t *testing.T) {
	a, err := New(query.Connection{Database: ":memory:"})
	require.NoError(t, err)

	_, err = a.ExecuteQuery(context.Background(), "SELECT 1", time.Second, 10)
	var connErr *query.ConnectionError
	require.ErrorAs(t, err, &connErr)
}

func TestExecutionErrorClassification(t *testing.T) {
	a := memoryAdapter(t)

	_, err := a.ExecuteQuery(context.Background(), "SELECT * FROM missing_table", time.Second, 10)
	var execErr *query.ExecutionError
	require.ErrorAs(t, err, &execErr)
	assert.Equal(t, query.EngineSQLite, execErr.Engine)
}

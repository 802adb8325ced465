package mysql

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	gomysql "github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alaiia/mcp-dbquery/pkg/query"
)

func TestDSN(t *testing.T) {
	t.Run("discrete fields", func(t *testing.T) {
		a, err := New(query.Connection{
			Host:     "localhost",
			Port:     3306,
			Database: "orders",
			Username: "reader",
			Password: "hunter2",
		})
		require.NoError(t, err)

		dsn, err := a.dsn()
		require.NoError(t, err)

		cfg, err := gomysql.ParseDSN(dsn)
		require.NoError(t, err)
		assert.Equal(t, "localhost:3306", cfg.Addr)
		assert.Equal(t, "orders", cfg.DBName)
		assert.Equal(t, "reader", cfg.User)
		assert.Equal(t, "hunter2", cfg.Passwd)
	})

	t.Run("valid connection string passes through", func(t *testing.T) {
		a, err := New(query.Connection{ConnString: "reader:pw@tcp(db:3306)/orders"})
		require.NoError(t, err)

		dsn, err := a.dsn()
		require.NoError(t, err)
		assert.Equal(t, "reader:pw@tcp(db:3306)/orders", dsn)
	})

	t.Run("invalid connection string is rejected", func(t *testing.T) {
		a, err := New(query.Connection{ConnString: "this is not a dsn"})
		require.NoError(t, err)

		_, err = a.dsn()
		assert.Error(t, err)
	})
}

func TestDialectRuleset(t *testing.T) {
	a, err := New(query.Connection{Host: "h", Database: "d"})
	require.NoError(t, err)

	res := a.ValidateQuery("LOCK TABLES users READ")
	assert.False(t, res.IsValid, "LOCK is a write operation in the MySQL dialect")

	res = a.ValidateQuery("SELECT * FROM users")
	assert.True(t, res.IsValid)
	assert.True(t, res.IsReadOnly)
}

func TestExecuteQueryTruncation(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	a, err := New(query.Connection{Host: "h", Database: "d"})
	require.NoError(t, err)
	a.db = db

	mock.ExpectExec("SET SESSION MAX_EXECUTION_TIME").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("SELECT id FROM things").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).
			AddRow(1).AddRow(2).AddRow(3))

	res, err := a.ExecuteQuery(context.Background(), "SELECT id FROM things", time.Second, 2)
	require.NoError(t, err)

	assert.True(t, res.Truncated)
	assert.Equal(t, 2, res.RowCount)
	assert.Len(t, res.Rows, 2)
	assert.Equal(t, query.EngineMySQL, res.Engine)
	require.Len(t, res.Columns, 1)
	assert.Equal(t, "id", res.Columns[0].Name)
}

func TestExecuteQueryRejectsWrites(t *testing.T) {
	db, _, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	a, err := New(query.Connection{Host: "h", Database: "d"})
	require.NoError(t, err)
	a.db = db

	_, err = a.ExecuteQuery(context.Background(), "DELETE FROM things", time.Second, 10)
	var valErr *query.ValidationError
	require.ErrorAs(t, err, &valErr)
}

func TestExecuteQueryRequiresConnect(t *testing.T) {
	a, err := New(query.Connection{Host: "h", Database: "d"})
	require.NoError(t, err)

	_, err = a.ExecuteQuery(context.Background(), "SELECT 1", time.Second, 10)
	var connErr *query.ConnectionError
	require.ErrorAs(t, err, &connErr)
}

func TestClassify(t *testing.T) {
	a, err := New(query.Connection{Host: "h", Database: "d"})
	require.NoError(t, err)

	t.Run("server-side timeout", func(t *testing.T) {
		got := a.classify(&gomysql.MySQLError{Number: errQueryTimeout}, time.Second)
		var timeout *query.TimeoutError
		assert.ErrorAs(t, got, &timeout)
	})

	t.Run("interrupted statement", func(t *testing.T) {
		got := a.classify(&gomysql.MySQLError{Number: errQueryInterrupted}, time.Second)
		var timeout *query.TimeoutError
		assert.ErrorAs(t, got, &timeout)
	})

	t.Run("deadline exceeded", func(t *testing.T) {
		got := a.classify(context.DeadlineExceeded, time.Second)
		var timeout *query.TimeoutError
		assert.ErrorAs(t, got, &timeout)
	})

	t.Run("other faults are execution errors", func(t *testing.T) {
		got := a.classify(&gomysql.MySQLError{Number: 1064}, time.Second)
		var exec *query.ExecutionError
		assert.ErrorAs(t, got, &exec)
	})
}

// Package sqlite provides the SQLite adapter over database/sql with the
// modernc.org/sqlite driver (pure Go, no cgo).
//
// SQLite has no network address: the Database field of the connection
// descriptor is the file path (or ":memory:"), and Host is accepted only to
// satisfy the descriptor invariant. A connection string, when given, is
// passed to the driver verbatim.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"time"

	_ "modernc.org/sqlite" // registers the "sqlite" driver

	"github.com/alaiia/mcp-dbquery/pkg/adapter"
	"github.com/alaiia/mcp-dbquery/pkg/query"
)

// sqliteWriteOperations extends the shared write set with statements that
// attach databases or rebuild indexes.
var sqliteWriteOperations = append([]string{"ATTACH", "DETACH", "REINDEX"}, query.DefaultWriteOperations...)

// Adapter executes read-only queries against SQLite.
type Adapter struct {
	conn  query.Connection
	rules query.Ruleset
	db    *sql.DB
}

// New creates a SQLite adapter for one connection descriptor.
func New(conn query.Connection) (*Adapter, error) {
	return &Adapter{
		conn:  conn,
		rules: query.NewRuleset(query.DefaultReadOperations, sqliteWriteOperations),
	}, nil
}

// Register adds the SQLite constructor to a registry.
func Register(r *adapter.Registry) error {
	return r.Register(query.EngineSQLite, func(conn query.Connection) (adapter.Adapter, error) {
		return New(conn)
	})
}

// Connect opens the database file and switches the session to query-only
// mode as defense in depth behind the validator.
func (a *Adapter) Connect(ctx context.Context) error {
	dsn := a.conn.ConnString
	if dsn == "" {
		dsn = a.conn.Database
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return &query.ConnectionError{Engine: query.EngineSQLite, Err: err}
	}

	if _, err := db.ExecContext(ctx, "PRAGMA query_only = ON"); err != nil {
		_ = db.Close()
		return &query.ConnectionError{Engine: query.EngineSQLite, Err: err}
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return &query.ConnectionError{Engine: query.EngineSQLite, Err: err}
	}

	a.db = db
	return nil
}

// Disconnect releases the handle. Safe to call at any point in the lifecycle.
func (a *Adapter) Disconnect(_ context.Context) {
	if a.db != nil {
		_ = a.db.Close()
		a.db = nil
	}
}

// ValidateQuery applies the SQLite safety policy.
func (a *Adapter) ValidateQuery(q string) *query.ValidationResult {
	return a.rules.Validate(q)
}

// ExecuteQuery runs a read-only query. SQLite has no server-side statement
// timeout, so the budget is enforced through the context deadline.
func (a *Adapter) ExecuteQuery(ctx context.Context, q string, timeout time.Duration, maxRows int) (*query.Result, error) {
	if a.db == nil {
		return nil, &query.ConnectionError{
			Engine: query.EngineSQLite,
			Err:    errors.New("not connected; call Connect first"),
		}
	}

	if v := a.ValidateQuery(q); !v.IsValid || !v.IsReadOnly {
		return nil, &query.ValidationError{Result: v}
	}

	start := time.Now()

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	rows, err := a.db.QueryContext(ctx, adapter.LimitQuery(q, maxRows+1))
	if err != nil {
		return nil, a.classify(err, timeout)
	}
	defer func() { _ = rows.Close() }()

	names, collected, truncated, err := adapter.CollectRows(rows, maxRows)
	if err != nil {
		return nil, a.classify(err, timeout)
	}

	return &query.Result{
		Rows:          collected,
		Columns:       adapter.ColumnMetadata(names, collected),
		RowCount:      len(collected),
		ExecutionTime: time.Since(start).Seconds(),
		Query:         q,
		Timestamp:     start,
		Engine:        query.EngineSQLite,
		Truncated:     truncated,
	}, nil
}

func (a *Adapter) classify(err error, timeout time.Duration) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return &query.TimeoutError{Timeout: timeout}
	}
	return &query.ExecutionError{Engine: query.EngineSQLite, Err: err}
}

// TestConnection probes the handle with a trivial round trip.
func (a *Adapter) TestConnection(ctx context.Context) bool {
	if a.db == nil {
		return false
	}
	var one int
	return a.db.QueryRowContext(ctx, "SELECT 1").Scan(&one) == nil
}

// ConnectionInfo returns the credential-free connection summary.
func (a *Adapter) ConnectionInfo() adapter.Info {
	info := adapter.Info{
		Engine:      query.EngineSQLite.String(),
		Host:        a.conn.Host,
		Database:    a.conn.Database,
		Username:    a.conn.Username,
		IsConnected: a.db != nil,
	}
	if a.db != nil {
		info.PoolSize = a.db.Stats().OpenConnections
	}
	return info
}

// Verify interface compliance.
var _ adapter.Adapter = (*Adapter)(nil)

// Package mysql provides the MySQL adapter over database/sql with the
// go-sql-driver driver.
package mysql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	gomysql "github.com/go-sql-driver/mysql"

	"github.com/alaiia/mcp-dbquery/pkg/adapter"
	"github.com/alaiia/mcp-dbquery/pkg/query"
)

const (
	poolMaxConns = 5

	// MySQL error numbers surfaced when a statement hits its time budget.
	errQueryTimeout     = 3024 // ER_QUERY_TIMEOUT
	errQueryInterrupted = 1317 // ER_QUERY_INTERRUPTED
)

// mysqlWriteOperations extends the shared write set with MySQL statements
// that take table locks.
var mysqlWriteOperations = append([]string{"LOCK", "UNLOCK"}, query.DefaultWriteOperations...)

// Adapter executes read-only queries against MySQL.
type Adapter struct {
	conn   query.Connection
	rules  query.Ruleset
	logger *slog.Logger
	db     *sql.DB
}

// New creates a MySQL adapter for one connection descriptor.
func New(conn query.Connection) (*Adapter, error) {
	return &Adapter{
		conn:   conn,
		rules:  query.NewRuleset(query.DefaultReadOperations, mysqlWriteOperations),
		logger: slog.New(slog.DiscardHandler),
	}, nil
}

// Register adds the MySQL constructor to a registry.
func Register(r *adapter.Registry) error {
	return r.Register(query.EngineMySQL, func(conn query.Connection) (adapter.Adapter, error) {
		return New(conn)
	})
}

// Connect opens the pool and verifies it with a ping.
func (a *Adapter) Connect(ctx context.Context) error {
	dsn, err := a.dsn()
	if err != nil {
		return &query.ConnectionError{Engine: query.EngineMySQL, Err: err}
	}

	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return &query.ConnectionError{Engine: query.EngineMySQL, Err: err}
	}
	db.SetMaxOpenConns(poolMaxConns)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return &query.ConnectionError{Engine: query.EngineMySQL, Err: err}
	}

	a.db = db
	return nil
}

// dsn builds the driver DSN via the driver's own config type.
func (a *Adapter) dsn() (string, error) {
	if a.conn.ConnString != "" {
		if _, err := gomysql.ParseDSN(a.conn.ConnString); err != nil {
			return "", fmt.Errorf("invalid connection string: %w", err)
		}
		return a.conn.ConnString, nil
	}

	cfg := gomysql.NewConfig()
	cfg.Net = "tcp"
	cfg.Addr = fmt.Sprintf("%s:%d", a.conn.Host, a.conn.Port)
	cfg.DBName = a.conn.Database
	cfg.User = a.conn.Username
	cfg.Passwd = a.conn.Password
	for k, v := range a.conn.Options {
		if cfg.Params == nil {
			cfg.Params = make(map[string]string)
		}
		cfg.Params[k] = v
	}
	return cfg.FormatDSN(), nil
}

// Disconnect releases the pool. Safe to call at any point in the lifecycle.
func (a *Adapter) Disconnect(_ context.Context) {
	if a.db != nil {
		_ = a.db.Close()
		a.db = nil
	}
}

// ValidateQuery applies the MySQL safety policy.
func (a *Adapter) ValidateQuery(q string) *query.ValidationResult {
	return a.rules.Validate(q)
}

// ExecuteQuery runs a read-only query. The time budget is enforced both
// server-side via MAX_EXECUTION_TIME and client-side via context deadline;
// MAX_EXECUTION_TIME only covers SELECT, so the deadline is the backstop.
func (a *Adapter) ExecuteQuery(ctx context.Context, q string, timeout time.Duration, maxRows int) (*query.Result, error) {
	if a.db == nil {
		return nil, &query.ConnectionError{
			Engine: query.EngineMySQL,
			Err:    errors.New("not connected; call Connect first"),
		}
	}

	if v := a.ValidateQuery(q); !v.IsValid || !v.IsReadOnly {
		return nil, &query.ValidationError{Result: v}
	}

	start := time.Now()

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	// Best effort: not supported before MySQL 5.7.8.
	_, _ = a.db.ExecContext(ctx, fmt.Sprintf("SET SESSION MAX_EXECUTION_TIME=%d", timeout.Milliseconds()))

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
		Engine:        query.EngineMySQL,
		Truncated:     truncated,
	}, nil
}

// classify maps driver faults onto the subsystem's error taxonomy.
func (a *Adapter) classify(err error, timeout time.Duration) error {
	var myErr *gomysql.MySQLError
	if errors.As(err, &myErr) && (myErr.Number == errQueryTimeout || myErr.Number == errQueryInterrupted) {
		return &query.TimeoutError{Timeout: timeout}
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return &query.TimeoutError{Timeout: timeout}
	}
	return &query.ExecutionError{Engine: query.EngineMySQL, Err: err}
}

// TestConnection probes the pool with a trivial round trip.
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
		Engine:      query.EngineMySQL.String(),
		Host:        a.conn.Host,
		Port:        a.conn.Port,
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

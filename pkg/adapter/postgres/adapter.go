// Package postgres provides the PostgreSQL adapter, the reference engine
// implementation, backed by a pgx connection pool.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/alaiia/mcp-dbquery/pkg/adapter"
	"github.com/alaiia/mcp-dbquery/pkg/query"
)

const (
	// poolMinConns and poolMaxConns bound the per-request pool. Pools are
	// never shared across requests, so they stay small.
	poolMinConns = 1
	poolMaxConns = 5

	// sqlStateQueryCanceled is raised when statement_timeout fires.
	sqlStateQueryCanceled = "57014"
)

// Adapter executes read-only queries against PostgreSQL.
type Adapter struct {
	conn   query.Connection
	rules  query.Ruleset
	logger *slog.Logger
	pool   *pgxpool.Pool
}

// New creates a PostgreSQL adapter for one connection descriptor.
func New(conn query.Connection) (*Adapter, error) {
	return NewWithLogger(conn, nil)
}

// NewWithLogger creates an adapter with a custom logger. A nil logger
// discards output.
func NewWithLogger(conn query.Connection, logger *slog.Logger) (*Adapter, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Adapter{
		conn:   conn,
		rules:  query.DefaultRuleset(),
		logger: logger,
	}, nil
}

// Register adds the PostgreSQL constructor to a registry.
func Register(r *adapter.Registry) error {
	return r.Register(query.EnginePostgres, func(conn query.Connection) (adapter.Adapter, error) {
		return New(conn)
	})
}

// Connect establishes the connection pool and verifies it with a ping.
func (a *Adapter) Connect(ctx context.Context) error {
	cfg, err := pgxpool.ParseConfig(a.dsn())
	if err != nil {
		return &query.ConnectionError{Engine: query.EnginePostgres, Err: err}
	}
	cfg.MinConns = poolMinConns
	cfg.MaxConns = poolMaxConns

	a.logger.Debug("connecting to postgres",
		slog.String("host", a.conn.Host), slog.String("database", a.conn.Database))

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return &query.ConnectionError{Engine: query.EnginePostgres, Err: err}
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return &query.ConnectionError{Engine: query.EnginePostgres, Err: err}
	}

	a.pool = pool
	return nil
}

// dsn builds the pool DSN from the connection string or discrete fields.
func (a *Adapter) dsn() string {
	if a.conn.ConnString != "" {
		return a.conn.ConnString
	}

	parts := []string{
		fmt.Sprintf("host=%s", a.conn.Host),
		fmt.Sprintf("port=%d", a.conn.Port),
		fmt.Sprintf("dbname=%s", a.conn.Database),
	}
	if a.conn.Username != "" {
		parts = append(parts, fmt.Sprintf("user=%s", a.conn.Username))
	}
	if a.conn.Password != "" {
		parts = append(parts, fmt.Sprintf("password=%s", a.conn.Password))
	}
	if _, ok := a.conn.Options["sslmode"]; !ok {
		parts = append(parts, "sslmode=prefer")
	}
	for k, v := range a.conn.Options {
		parts = append(parts, fmt.Sprintf("%s=%s", k, v))
	}
	return strings.Join(parts, " ")
}

// Disconnect releases the pool. Safe to call at any point in the lifecycle.
func (a *Adapter) Disconnect(_ context.Context) {
	if a.pool != nil {
		a.pool.Close()
		a.pool = nil
	}
}

// ValidateQuery applies the PostgreSQL safety policy.
func (a *Adapter) ValidateQuery(q string) *query.ValidationResult {
	return a.rules.Validate(q)
}

// ExecuteQuery runs a read-only query with a server-side statement timeout,
// fetching maxRows+1 rows to distinguish an exact fit from truncation.
func (a *Adapter) ExecuteQuery(ctx context.Context, q string, timeout time.Duration, maxRows int) (*query.Result, error) {
	if a.pool == nil {
		return nil, &query.ConnectionError{
			Engine: query.EnginePostgres,
			Err:    errors.New("not connected; call Connect first"),
		}
	}

	if v := a.ValidateQuery(q); !v.IsValid || !v.IsReadOnly {
		return nil, &query.ValidationError{Result: v}
	}

	start := time.Now()

	conn, err := a.pool.Acquire(ctx)
	if err != nil {
		return nil, a.classify(err, timeout)
	}
	defer conn.Release()

	if _, err := conn.Exec(ctx, fmt.Sprintf("SET statement_timeout = %d", timeout.Milliseconds())); err != nil {
		return nil, a.classify(err, timeout)
	}

	rows, err := conn.Query(ctx, adapter.LimitQuery(q, maxRows+1))
	if err != nil {
		return nil, a.classify(err, timeout)
	}
	defer rows.Close()

	names := make([]string, len(rows.FieldDescriptions()))
	for i, fd := range rows.FieldDescriptions() {
		names[i] = fd.Name
	}

	var raw []map[string]any
	for rows.Next() {
		values, err := rows.Values()
		if err != nil {
			return nil, a.classify(err, timeout)
		}
		row := make(map[string]any, len(names))
		for i, name := range names {
			row[name] = values[i]
		}
		raw = append(raw, row)
	}
	if err := rows.Err(); err != nil {
		return nil, a.classify(err, timeout)
	}

	truncated := len(raw) > maxRows
	if truncated {
		raw = raw[:maxRows]
	}

	return &query.Result{
		Rows:          raw,
		Columns:       adapter.ColumnMetadata(names, raw),
		RowCount:      len(raw),
		ExecutionTime: time.Since(start).Seconds(),
		Query:         q,
		Timestamp:     start,
		Engine:        query.EnginePostgres,
		Truncated:     truncated,
	}, nil
}

// classify maps driver faults onto the subsystem's error taxonomy.
func (a *Adapter) classify(err error, timeout time.Duration) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == sqlStateQueryCanceled {
		return &query.TimeoutError{Timeout: timeout}
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return &query.TimeoutError{Timeout: timeout}
	}
	return &query.ExecutionError{Engine: query.EnginePostgres, Err: err}
}

// TestConnection probes the pool with a trivial round trip.
func (a *Adapter) TestConnection(ctx context.Context) bool {
	if a.pool == nil {
		return false
	}
	var one int
	return a.pool.QueryRow(ctx, "SELECT 1").Scan(&one) == nil
}

// ConnectionInfo returns the credential-free connection summary.
func (a *Adapter) ConnectionInfo() adapter.Info {
	info := adapter.Info{
		Engine:      query.EnginePostgres.String(),
		Host:        a.conn.Host,
		Port:        a.conn.Port,
		Database:    a.conn.Database,
		Username:    a.conn.Username,
		IsConnected: a.pool != nil,
	}
	if a.pool != nil {
		info.PoolSize = int(a.pool.Stat().TotalConns())
	}
	return info
}

// Verify interface compliance.
var _ adapter.Adapter = (*Adapter)(nil)

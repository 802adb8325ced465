// Package service orchestrates query execution: validation, connection,
// health check, execution, formatting, and guaranteed cleanup. It owns the
// adapter for exactly one request and releases it on every exit path.
package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/alaiia/mcp-dbquery/pkg/adapter"
	"github.com/alaiia/mcp-dbquery/pkg/audit"
	"github.com/alaiia/mcp-dbquery/pkg/query"
)

// Service sequences the public query flows over an adapter registry.
type Service struct {
	registry *adapter.Registry
	audit    audit.Logger
	logger   *slog.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithAuditLogger sets the audit trail destination.
func WithAuditLogger(l audit.Logger) Option {
	return func(s *Service) { s.audit = l }
}

// WithLogger sets the structured logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Service) { s.logger = l }
}

// New creates a Service over a populated adapter registry.
func New(registry *adapter.Registry, opts ...Option) *Service {
	s := &Service{
		registry: registry,
		audit:    audit.NopLogger{},
		logger:   slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Execute runs the full flow for one request: create adapter, validate,
// connect, health-check, execute, format. Validation happens before any
// network call, so an unsafe query never causes a connection attempt, and
// the adapter is disconnected on every path once created.
func (s *Service) Execute(ctx context.Context, req query.Request) *Response {
	start := time.Now()
	event := audit.NewEvent("execute_query").
		WithEngine(req.Connection.Engine.String(), req.Connection.Database).
		WithQuery(preview(req.Query))

	resp := s.execute(ctx, req)

	event.WithResult(resp.Success, resp.Error, time.Since(start))
	_ = s.audit.Log(ctx, event)
	return resp
}

func (s *Service) execute(ctx context.Context, req query.Request) *Response {
	ad, err := s.registry.New(req.Connection)
	if err != nil {
		return Failure(err)
	}
	defer ad.Disconnect(ctx)

	validation := ad.ValidateQuery(req.Query)
	if !validation.IsValid || !validation.IsReadOnly {
		s.logger.Info("query rejected by safety policy",
			slog.String("engine", req.Connection.Engine.String()),
			slog.Any("errors", validation.Errors))
		return ValidationFailure(validation)
	}

	if err := ad.Connect(ctx); err != nil {
		return Failure(err)
	}

	if !ad.TestConnection(ctx) {
		return &Response{Success: false, Error: "connection test failed"}
	}

	result, err := ad.ExecuteQuery(ctx, req.Query, req.Timeout, req.MaxRows)
	if err != nil {
		return Failure(err)
	}

	formatted, err := query.FormatResult(result, req.OutputFormat)
	if err != nil {
		return Failure(err)
	}

	s.logger.Debug("query executed",
		slog.String("engine", result.Engine.String()),
		slog.Int("rows", result.RowCount),
		slog.Bool("truncated", result.Truncated))

	resp := &Response{
		Success: true,
		Result:  formatted,
		Summary: ptr(result.Summary()),
	}
	if req.IncludeMetadata {
		resp.Validation = ptr(validation.Summary())
		resp.ConnectionInfo = ptr(ad.ConnectionInfo())
	}
	return resp
}

// ValidateOnly applies the engine's safety policy without touching the
// network. The adapter is created solely for its dialect ruleset.
func (s *Service) ValidateOnly(ctx context.Context, conn query.Connection, q string) *Response {
	start := time.Now()
	event := audit.NewEvent("validate_query").
		WithEngine(conn.Engine.String(), conn.Database).
		WithQuery(preview(q))

	resp := s.validateOnly(ctx, conn, q)

	event.WithResult(resp.Success, resp.Error, time.Since(start))
	_ = s.audit.Log(ctx, event)
	return resp
}

func (s *Service) validateOnly(ctx context.Context, conn query.Connection, q string) *Response {
	ad, err := s.registry.New(conn)
	if err != nil {
		return Failure(err)
	}
	defer ad.Disconnect(ctx)

	validation := ad.ValidateQuery(q)
	return &Response{
		Success:    true,
		Validation: ptr(validation.Summary()),
	}
}

// TestConnectionOnly connects and probes liveness. It never touches user SQL.
func (s *Service) TestConnectionOnly(ctx context.Context, conn query.Connection) *Response {
	start := time.Now()
	event := audit.NewEvent("test_connection").
		WithEngine(conn.Engine.String(), conn.Database)

	resp := s.testConnectionOnly(ctx, conn)

	event.WithResult(resp.Success, resp.Error, time.Since(start))
	_ = s.audit.Log(ctx, event)
	return resp
}

func (s *Service) testConnectionOnly(ctx context.Context, conn query.Connection) *Response {
	ad, err := s.registry.New(conn)
	if err != nil {
		return Failure(err)
	}
	defer ad.Disconnect(ctx)

	if err := ad.Connect(ctx); err != nil {
		return Failure(err)
	}

	healthy := ad.TestConnection(ctx)
	return &Response{
		Success:        true,
		IsConnected:    &healthy,
		ConnectionInfo: ptr(ad.ConnectionInfo()),
	}
}

// SupportedEngines returns the engines with registered adapters.
func (s *Service) SupportedEngines() []string {
	return s.registry.SupportedEngines()
}

func preview(q string) string {
	const max = 100
	if len(q) > max {
		return q[:max] + "..."
	}
	return q
}

func ptr[T any](v T) *T { return &v }

// errorPrefix names the failure class in user-visible messages, mirroring
// the taxonomy so callers can tell a safety rejection from a runtime fault.
func errorPrefix(err error) string {
	var (
		validationErr *query.ValidationError
		engineErr     *query.UnsupportedEngineError
		connErr       *query.ConnectionError
		timeoutErr    *query.TimeoutError
	)
	switch {
	case errors.As(err, &validationErr):
		return "validation error"
	case errors.As(err, &engineErr):
		return "unsupported engine"
	case errors.As(err, &connErr):
		return "connection error"
	case errors.As(err, &timeoutErr):
		return "timeout error"
	default:
		return "execution error"
	}
}

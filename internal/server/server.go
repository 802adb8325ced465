// Package server assembles the MCP server from its components: the
// adapter registry, the query service, the audit logger and the dbquery
// toolkit, plus the stdio and HTTP transports it can serve on.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/alaiia/mcp-dbquery/pkg/adapter"
	"github.com/alaiia/mcp-dbquery/pkg/adapter/mysql"
	"github.com/alaiia/mcp-dbquery/pkg/adapter/postgres"
	"github.com/alaiia/mcp-dbquery/pkg/adapter/sqlite"
	"github.com/alaiia/mcp-dbquery/pkg/audit"
	"github.com/alaiia/mcp-dbquery/pkg/health"
	"github.com/alaiia/mcp-dbquery/pkg/service"
	"github.com/alaiia/mcp-dbquery/pkg/toolkits/dbquery"
)

// Version is set at build time.
var Version = "dev"

const shutdownTimeout = 10 * time.Second

// Server bundles the MCP server with its transports.
type Server struct {
	cfg     *Config
	mcp     *mcp.Server
	toolkit *dbquery.Toolkit
	probe   *health.Probe
	logger  *slog.Logger
}

// New creates a server from cfg. A nil logger discards all records.
func New(cfg *Config, logger *slog.Logger) (*Server, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	registry := adapter.NewRegistry()
	if err := registerAdapters(registry); err != nil {
		return nil, err
	}

	opts := []service.Option{service.WithLogger(logger)}
	if cfg.Audit.Enabled {
		opts = append(opts, service.WithAuditLogger(audit.NewSlogLogger(logger)))
	}
	svc := service.New(registry, opts...)

	toolkit := dbquery.New("dbquery", cfg.Query, svc, logger)

	mcpServer := mcp.NewServer(&mcp.Implementation{
		Name:    cfg.Server.Name,
		Version: cfg.Server.Version,
	}, nil)
	if err := toolkit.RegisterTools(mcpServer); err != nil {
		return nil, fmt.Errorf("registering tools: %w", err)
	}

	return &Server{
		cfg:     cfg,
		mcp:     mcpServer,
		toolkit: toolkit,
		probe:   health.NewProbe(),
		logger:  logger,
	}, nil
}

// NewWithConfig loads the config file at path and creates a server.
func NewWithConfig(path string, logger *slog.Logger) (*Server, error) {
	cfg, err := LoadConfig(path)
	if err != nil {
		return nil, err
	}
	return New(cfg, logger)
}

func registerAdapters(r *adapter.Registry) error {
	for _, register := range []func(*adapter.Registry) error{
		postgres.Register,
		mysql.Register,
		sqlite.Register,
	} {
		if err := register(r); err != nil {
			return fmt.Errorf("registering adapter: %w", err)
		}
	}
	return nil
}

// Config returns the server configuration.
func (s *Server) Config() *Config { return s.cfg }

// MCP returns the underlying MCP server.
func (s *Server) MCP() *mcp.Server { return s.mcp }

// Run serves on the configured transport until ctx is canceled.
func (s *Server) Run(ctx context.Context) error {
	switch s.cfg.Server.Transport {
	case "stdio":
		return s.runStdio(ctx)
	case "http":
		return s.runHTTP(ctx)
	default:
		return fmt.Errorf("unknown transport %q", s.cfg.Server.Transport)
	}
}

func (s *Server) runStdio(ctx context.Context) error {
	s.logger.Info("serving on stdio", "name", s.cfg.Server.Name, "version", s.cfg.Server.Version)
	defer s.close()
	return s.mcp.Run(ctx, &mcp.StdioTransport{})
}

func (s *Server) runHTTP(ctx context.Context) error {
	mux := http.NewServeMux()
	mux.Handle("/mcp", mcp.NewStreamableHTTPHandler(func(*http.Request) *mcp.Server {
		return s.mcp
	}, nil))
	s.probe.Routes(mux)

	httpServer := &http.Server{
		Addr:              s.cfg.Server.Address,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("serving on http",
			"address", s.cfg.Server.Address,
			"name", s.cfg.Server.Name,
			"version", s.cfg.Server.Version)
		errCh <- httpServer.ListenAndServe()
	}()
	s.probe.Ready()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.close()
			return fmt.Errorf("http server: %w", err)
		}
	}

	s.probe.Draining()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		s.logger.Warn("http shutdown", "error", err)
	}
	s.close()
	return nil
}

func (s *Server) close() {
	if err := s.toolkit.Close(); err != nil {
		s.logger.Warn("closing toolkit", "error", err)
	}
}

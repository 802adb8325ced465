// Package dbquery exposes read-only database query execution as MCP tools.
//
// The toolkit wraps a service.Service and registers four tools:
// execute_query, validate_query, test_connection and
// list_supported_engines. Tool handlers never return Go errors; failures
// are reported as CallToolResults with IsError set so the caller always
// receives a structured payload.
package dbquery

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/alaiia/mcp-dbquery/pkg/query"
	"github.com/alaiia/mcp-dbquery/pkg/service"
)

// Toolkit registers database query tools on an MCP server.
type Toolkit struct {
	name   string
	cfg    Config
	svc    *service.Service
	logger *slog.Logger
}

// New creates a database query toolkit backed by svc.
func New(name string, cfg Config, svc *service.Service, logger *slog.Logger) *Toolkit {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Toolkit{
		name:   name,
		cfg:    applyDefaults(cfg),
		svc:    svc,
		logger: logger,
	}
}

// Kind returns the toolkit kind.
func (t *Toolkit) Kind() string { return "dbquery" }

// Name returns the toolkit instance name.
func (t *Toolkit) Name() string { return t.name }

// Tools returns the list of tool names provided by this toolkit.
func (t *Toolkit) Tools() []string {
	return []string{"execute_query", "validate_query", "test_connection", "list_supported_engines"}
}

// Close releases toolkit resources.
func (t *Toolkit) Close() error { return nil }

// connectionInput carries the connection parameters shared by tools.
// Either connection_string or host+database must be provided; engine
// defaults fill in the rest.
type connectionInput struct {
	Engine           string            `json:"engine"`
	ConnectionString string            `json:"connection_string,omitempty"`
	Host             string            `json:"host,omitempty"`
	Port             int               `json:"port,omitempty"`
	Database         string            `json:"database,omitempty"`
	Username         string            `json:"username,omitempty"`
	Password         string            `json:"password,omitempty"`
	Options          map[string]string `json:"options,omitempty"`
}

func (t *Toolkit) toConnection(in connectionInput) (query.Connection, error) {
	engine, err := query.ParseEngine(in.Engine)
	if err != nil {
		return query.Connection{}, err
	}

	if in.ConnectionString == "" {
		if d, ok := t.cfg.Defaults[engine.String()]; ok {
			if in.Host == "" {
				in.Host = d.Host
			}
			if in.Port == 0 {
				in.Port = d.Port
			}
			if in.Database == "" {
				in.Database = d.Database
			}
			if in.Username == "" {
				in.Username = d.Username
			}
		}
	}

	return query.NewConnection(query.Connection{
		Engine:     engine,
		Host:       in.Host,
		Port:       in.Port,
		Database:   in.Database,
		Username:   in.Username,
		Password:   in.Password,
		ConnString: in.ConnectionString,
		Options:    in.Options,
	})
}

type executeQueryInput struct {
	connectionInput
	Query           string `json:"query"`
	TimeoutSeconds  int    `json:"timeout_seconds,omitempty"`
	MaxRows         int    `json:"max_rows,omitempty"`
	OutputFormat    string `json:"output_format,omitempty"`
	IncludeMetadata *bool  `json:"include_metadata,omitempty"`
	OutputFile      string `json:"output_file,omitempty"`
}

type validateQueryInput struct {
	connectionInput
	Query string `json:"query"`
}

type listEnginesInput struct{}

// executeEnvelope extends the service response with file output status.
type executeEnvelope struct {
	*service.Response
	OutputFile string `json:"output_file,omitempty"`
	FileError  string `json:"file_error,omitempty"`
}

// RegisterTools registers the toolkit's tools on the MCP server.
func (t *Toolkit) RegisterTools(s *mcp.Server) error {
	mcp.AddTool(s, &mcp.Tool{
		Name: "execute_query",
		Description: "Execute a read-only SQL query against a database and return the results. " +
			"Only SELECT, WITH, SHOW, EXPLAIN and DESCRIBE statements are allowed.",
		Annotations: &mcp.ToolAnnotations{ReadOnlyHint: true},
	}, t.handleExecuteQuery)

	mcp.AddTool(s, &mcp.Tool{
		Name:        "validate_query",
		Description: "Validate a SQL query against the read-only policy without executing it.",
		Annotations: &mcp.ToolAnnotations{ReadOnlyHint: true},
	}, t.handleValidateQuery)

	mcp.AddTool(s, &mcp.Tool{
		Name:        "test_connection",
		Description: "Test connectivity to a database without executing a query.",
		Annotations: &mcp.ToolAnnotations{ReadOnlyHint: true},
	}, t.handleTestConnection)

	mcp.AddTool(s, &mcp.Tool{
		Name:        "list_supported_engines",
		Description: "List the database engines this server can execute queries against.",
		Annotations: &mcp.ToolAnnotations{ReadOnlyHint: true},
	}, t.handleListEngines)

	return nil
}

func (t *Toolkit) handleExecuteQuery(ctx context.Context, _ *mcp.CallToolRequest, input executeQueryInput) (*mcp.CallToolResult, any, error) {
	conn, err := t.toConnection(input.connectionInput)
	if err != nil {
		return errorResult(err.Error()), nil, nil
	}

	req, err := query.NewRequest(query.Request{
		Query:           input.Query,
		Connection:      conn,
		Timeout:         time.Duration(input.TimeoutSeconds) * time.Second,
		MaxRows:         input.MaxRows,
		OutputFormat:    query.Format(input.OutputFormat),
		IncludeMetadata: input.IncludeMetadata == nil || *input.IncludeMetadata,
	})
	if err != nil {
		return errorResult(err.Error()), nil, nil
	}
	req = t.clamp(req)

	resp := t.svc.Execute(ctx, req)
	env := executeEnvelope{Response: resp}

	if input.OutputFile != "" && resp.Success {
		if err := writeResultFile(input.OutputFile, req.OutputFormat, env); err != nil {
			env.FileError = err.Error()
		} else {
			env.OutputFile = input.OutputFile
		}
	}

	return successResult(env)
}

func (t *Toolkit) handleValidateQuery(ctx context.Context, _ *mcp.CallToolRequest, input validateQueryInput) (*mcp.CallToolResult, any, error) {
	conn, err := t.toConnection(input.connectionInput)
	if err != nil {
		return errorResult(err.Error()), nil, nil
	}
	resp := t.svc.ValidateOnly(ctx, conn, input.Query)
	return successResult(resp)
}

func (t *Toolkit) handleTestConnection(ctx context.Context, _ *mcp.CallToolRequest, input connectionInput) (*mcp.CallToolResult, any, error) {
	conn, err := t.toConnection(input)
	if err != nil {
		return errorResult(err.Error()), nil, nil
	}
	resp := t.svc.TestConnectionOnly(ctx, conn)
	return successResult(resp)
}

func (t *Toolkit) handleListEngines(_ context.Context, _ *mcp.CallToolRequest, _ listEnginesInput) (*mcp.CallToolResult, any, error) {
	return successResult(map[string]any{
		"engines": t.svc.SupportedEngines(),
	})
}

// clamp enforces the configured ceilings on a request.
func (t *Toolkit) clamp(req query.Request) query.Request {
	if ceiling := t.cfg.MaxTimeout(); req.Timeout > ceiling {
		t.logger.Debug("clamping request timeout",
			"requested", req.Timeout,
			"ceiling", ceiling)
		req.Timeout = ceiling
	}
	if req.MaxRows > t.cfg.MaxRowCeiling {
		t.logger.Debug("clamping request row limit",
			"requested", req.MaxRows,
			"ceiling", t.cfg.MaxRowCeiling)
		req.MaxRows = t.cfg.MaxRowCeiling
	}
	return req
}

// writeResultFile persists a query result to disk. JSON output writes the
// full response envelope indented; text formats write the rendered result
// verbatim.
func writeResultFile(path string, format query.Format, env executeEnvelope) error {
	var data []byte
	switch format {
	case query.FormatJSON:
		b, err := json.MarshalIndent(env, "", "  ")
		if err != nil {
			return fmt.Errorf("encoding result: %w", err)
		}
		data = b
	default:
		s, ok := env.Result.(string)
		if !ok {
			return fmt.Errorf("result is not text, cannot write %s output", format)
		}
		data = []byte(s)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}

// errorResult returns a tool error with a JSON error payload.
func errorResult(msg string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: fmt.Sprintf(`{"error": %q}`, msg)},
		},
		IsError: true,
	}
}

// successResult marshals v as the tool's JSON text content.
func successResult(v any) (*mcp.CallToolResult, any, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return errorResult(fmt.Sprintf("encoding response: %v", err)), nil, nil
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: string(b)},
		},
	}, nil, nil
}

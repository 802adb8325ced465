// Package adapter defines the capability contract every database engine
// implements, and the registry that maps engine identifiers to adapter
// constructors.
package adapter

import (
	"context"
	"time"

	"github.com/alaiia/mcp-dbquery/pkg/query"
)

// Adapter is the per-engine capability contract. One instance serves exactly
// one request: the orchestrator creates it, drives it through the state
// machine, and disconnects it before the request returns.
type Adapter interface {
	// Connect establishes the connection pool. Called at most once per
	// instance; a failure surfaces as *query.ConnectionError.
	Connect(ctx context.Context) error

	// Disconnect releases the pool. Safe to call even when Connect was never
	// called or failed; it never reports an error.
	Disconnect(ctx context.Context)

	// ValidateQuery applies the engine's safety policy. No I/O.
	ValidateQuery(q string) *query.ValidationResult

	// ExecuteQuery runs a read-only query under a server-side statement
	// timeout, capping the result at maxRows while detecting truncation.
	// It re-validates the query and never trusts the caller to have done so.
	// Failures surface as *query.ValidationError, *query.TimeoutError, or
	// *query.ExecutionError.
	ExecuteQuery(ctx context.Context, q string, timeout time.Duration, maxRows int) (*query.Result, error)

	// TestConnection is a lightweight liveness probe. It never fails; any
	// fault reports as false.
	TestConnection(ctx context.Context) bool

	// ConnectionInfo summarizes the connection without secrets.
	ConnectionInfo() Info
}

// Info is the credential-free connection summary adapters expose.
type Info struct {
	Engine      string `json:"engine"`
	Host        string `json:"host"`
	Port        int    `json:"port,omitempty"`
	Database    string `json:"database"`
	Username    string `json:"username"`
	IsConnected bool   `json:"is_connected"`
	PoolSize    int    `json:"pool_size"`
}

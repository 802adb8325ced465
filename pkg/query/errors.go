package query

import (
	"fmt"
	"strings"
	"time"
)

// ValidationError reports a query rejected by the safety policy before any
// network I/O. The embedded result carries the per-rule breakdown.
type ValidationError struct {
	Result *ValidationResult
}

func (e *ValidationError) Error() string {
	if e.Result == nil || len(e.Result.Errors) == 0 {
		return "query validation failed"
	}
	return "query validation failed: " + strings.Join(e.Result.Errors, "; ")
}

// UnsupportedEngineError reports a request for an engine with no registered
// adapter. Supported names the engines that are registered.
type UnsupportedEngineError struct {
	Engine    Engine
	Supported []string
}

func (e *UnsupportedEngineError) Error() string {
	return fmt.Sprintf("engine %q is not supported; supported engines: %s",
		e.Engine, strings.Join(e.Supported, ", "))
}

// ConnectionError reports a failure to establish the connection pool.
type ConnectionError struct {
	Engine Engine
	Err    error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("failed to connect to %s: %v", e.Engine, e.Err)
}

func (e *ConnectionError) Unwrap() error { return e.Err }

// TimeoutError reports a statement that exceeded its server-side time budget.
type TimeoutError struct {
	Timeout time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("query exceeded timeout of %s", e.Timeout)
}

// ExecutionError reports a runtime fault from the engine: permission denied,
// SQL the validator accepted but the engine rejected, and similar.
type ExecutionError struct {
	Engine Engine
	Err    error
}

func (e *ExecutionError) Error() string {
	return fmt.Sprintf("%s execution failed: %v", e.Engine, e.Err)
}

func (e *ExecutionError) Unwrap() error { return e.Err }

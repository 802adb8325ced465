// Package audit records tool invocations against the query subsystem:
// which tool ran, against which engine, how long it took, and whether it
// succeeded. Credentials never reach the trail.
package audit

import (
	"time"

	"github.com/google/uuid"
)

// Event is one auditable tool invocation.
type Event struct {
	ID           string         `json:"id"`
	Timestamp    time.Time      `json:"timestamp"`
	DurationMS   int64          `json:"duration_ms"`
	ToolName     string         `json:"tool_name"`
	Engine       string         `json:"engine,omitempty"`
	Database     string         `json:"database,omitempty"`
	QueryPreview string         `json:"query_preview,omitempty"`
	Parameters   map[string]any `json:"parameters,omitempty"`
	Success      bool           `json:"success"`
	ErrorMessage string         `json:"error_message,omitempty"`
}

// NewEvent creates an event for a tool invocation.
func NewEvent(toolName string) *Event {
	return &Event{
		ID:        uuid.NewString(),
		Timestamp: time.Now(),
		ToolName:  toolName,
	}
}

// WithEngine records the engine and database the tool targeted.
func (e *Event) WithEngine(engine, database string) *Event {
	e.Engine = engine
	e.Database = database
	return e
}

// WithQuery records a preview of the executed query.
func (e *Event) WithQuery(preview string) *Event {
	e.QueryPreview = preview
	return e
}

// WithParameters records sanitized call parameters.
func (e *Event) WithParameters(params map[string]any) *Event {
	e.Parameters = SanitizeParameters(params)
	return e
}

// WithResult records the outcome.
func (e *Event) WithResult(success bool, errorMsg string, duration time.Duration) *Event {
	e.Success = success
	e.ErrorMessage = errorMsg
	e.DurationMS = duration.Milliseconds()
	return e
}

// SanitizeParameters redacts credential-bearing parameters.
func SanitizeParameters(params map[string]any) map[string]any {
	if params == nil {
		return nil
	}

	sensitiveKeys := map[string]bool{
		"password":          true,
		"secret":            true,
		"token":             true,
		"connection_string": true,
		"credentials":       true,
	}

	sanitized := make(map[string]any, len(params))
	for k, v := range params {
		if sensitiveKeys[k] {
			sanitized[k] = "[REDACTED]"
		} else {
			sanitized[k] = v
		}
	}
	return sanitized
}

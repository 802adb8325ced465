package service

import (
	"errors"
	"fmt"

	"github.com/alaiia/mcp-dbquery/pkg/adapter"
	"github.com/alaiia/mcp-dbquery/pkg/query"
)

// Response is the structured outcome of one flow. Result carries the
// rendered payload on success; Error carries a human-readable message on
// failure, with a validation breakdown when the failure is safety-related.
type Response struct {
	Success        bool                     `json:"success"`
	Result         any                      `json:"result,omitempty"`
	Summary        *query.Summary           `json:"summary,omitempty"`
	Validation     *query.ValidationSummary `json:"validation,omitempty"`
	ConnectionInfo *adapter.Info            `json:"connection_info,omitempty"`
	IsConnected    *bool                    `json:"is_connected,omitempty"`
	Error          string                   `json:"error,omitempty"`
}

// Failure converts a taxonomy error to a failure response. Validation
// errors carry their structured breakdown alongside the message.
func Failure(err error) *Response {
	resp := &Response{
		Success: false,
		Error:   fmt.Sprintf("%s: %v", errorPrefix(err), err),
	}

	var validationErr *query.ValidationError
	if errors.As(err, &validationErr) && validationErr.Result != nil {
		resp.Validation = ptr(validationErr.Result.Summary())
	}
	return resp
}

// ValidationFailure builds the failure response for a query the safety
// policy rejected before any connection attempt.
func ValidationFailure(v *query.ValidationResult) *Response {
	return &Response{
		Success:    false,
		Error:      "query validation failed",
		Validation: ptr(v.Summary()),
	}
}

package audit

import (
	"context"
	"log/slog"
)

// Logger records audit events.
type Logger interface {
	Log(ctx context.Context, event *Event) error
}

// SlogLogger writes audit events to a structured logger.
type SlogLogger struct {
	logger *slog.Logger
}

// NewSlogLogger creates a Logger backed by slog. A nil logger uses the
// default logger.
func NewSlogLogger(logger *slog.Logger) *SlogLogger {
	if logger == nil {
		logger = slog.Default()
	}
	return &SlogLogger{logger: logger}
}

// Log emits the event as one structured record.
func (l *SlogLogger) Log(ctx context.Context, event *Event) error {
	attrs := []any{
		slog.String("event_id", event.ID),
		slog.String("tool", event.ToolName),
		slog.Bool("success", event.Success),
		slog.Int64("duration_ms", event.DurationMS),
	}
	if event.Engine != "" {
		attrs = append(attrs, slog.String("engine", event.Engine))
	}
	if event.Database != "" {
		attrs = append(attrs, slog.String("database", event.Database))
	}
	if event.QueryPreview != "" {
		attrs = append(attrs, slog.String("query_preview", event.QueryPreview))
	}
	if event.ErrorMessage != "" {
		attrs = append(attrs, slog.String("error", event.ErrorMessage))
	}

	l.logger.Log(ctx, slog.LevelInfo, "audit", attrs...)
	return nil
}

// NopLogger discards all events.
type NopLogger struct{}

// Log discards the event.
func (NopLogger) Log(_ context.Context, _ *Event) error { return nil }

// Verify interface compliance.
var (
	_ Logger = (*SlogLogger)(nil)
	_ Logger = NopLogger{}
)

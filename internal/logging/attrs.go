package logging

import (
	"context"
	"log/slog"
)

func String(key string, value string) slog.Attr { return slog.String(key, value) }

// Event tags a line with FieldEventType so operators can filter on it.
func Event(eventType string) slog.Attr { return slog.String(FieldEventType, eventType) }

// Error renders err under the "error" key. A nil error is still logged so a
// missing cause is visible.
func Error(err error) slog.Attr {
	if err == nil {
		return slog.String("error", "<nil>")
	}
	return slog.String("error", err.Error())
}

// Args converts attributes into the variadic form slog logging methods accept.
func Args(attrs ...slog.Attr) []any {
	out := make([]any, len(attrs))
	for i := range attrs {
		out[i] = attrs[i]
	}
	return out
}

// NewComponentLogger tags every line from logger with component.
// A nil logger yields a no-op logger.
func NewComponentLogger(logger *slog.Logger, component string) *slog.Logger {
	if logger == nil {
		logger = NewNop()
	}
	return logger.With(slog.String(FieldComponent, component))
}

// NewNop returns a logger that drops everything.
func NewNop() *slog.Logger { return slog.New(discard{}) }

type discard struct{}

func (discard) Enabled(context.Context, slog.Level) bool { return false }
func (discard) Handle(context.Context, slog.Record) error { return nil }
func (d discard) WithAttrs([]slog.Attr) slog.Handler { return d }
func (d discard) WithGroup(string) slog.Handler { return d }

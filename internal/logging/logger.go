// Package logging builds the process-wide structured logger.
package logging

import (
	"log/slog"
	"os"
)

// NewLogger returns a JSON slog logger tagged with the component name.
func NewLogger(service string) *slog.Logger {
	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{AddSource: true})
	return slog.New(handler).With(slog.String("service", service))
}

// WithRequestID attaches a request identifier to the logger.
func WithRequestID(logger *slog.Logger, requestID string) *slog.Logger {
	return logger.With(slog.String("requestId", requestID))
}

// Package logging configures log/slog for the grid server and terminal
// client.
//
// Loggers taken from a request context carry chi's request id, and each
// grid session logs with its grid key so one request can be followed from
// the HTTP line down to the rows it touched.
package logging

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/go-chi/chi/v5/middleware"
)

// Setup installs the default logger writing to stdout.
//
// level is one of debug, info, warn or error; anything else means info.
// format "json" selects the JSON handler, anything else the text handler.
func Setup(level, format string) {
	SetupWriter(os.Stdout, level, format)
}

// SetupWriter is Setup with an explicit destination. The terminal client
// logs to a file because the screen belongs to the UI.
func SetupWriter(w io.Writer, level, format string) {
	opts := &slog.HandlerOptions{Level: parseLevel(level)}

	var handler slog.Handler = slog.NewTextHandler(w, opts)
	if strings.EqualFold(format, "json") {
		handler = slog.NewJSONHandler(w, opts)
	}
	slog.SetDefault(slog.New(handler))
}

func parseLevel(level string) slog.Level {
	if strings.EqualFold(level, "warning") {
		return slog.LevelWarn
	}
	var l slog.Level
	if err := l.UnmarshalText([]byte(level)); err != nil {
		return slog.LevelInfo
	}
	return l
}

// FromContext returns the default logger, tagged with the chi request id
// when ctx belongs to a request.
func FromContext(ctx context.Context) *slog.Logger {
	logger := slog.Default()
	if reqID := middleware.GetReqID(ctx); reqID != "" {
		logger = logger.With("request_id", reqID)
	}
	return logger
}

// WithFields is FromContext plus fixed attributes, for multi-step work
// such as a batch delete:
//
//	logger := logging.WithFields(ctx, "batch_id", id, "grid", key)
//	logger.Info("batch delete started")
func WithFields(ctx context.Context, args ...any) *slog.Logger {
	return FromContext(ctx).With(args...)
}

// ForGrid returns the logger a grid session hands to its Datatable.
func ForGrid(ctx context.Context, key string) *slog.Logger {
	return FromContext(ctx).With("grid", key)
}

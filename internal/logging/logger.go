// Package logging configures log/slog for the claims importer.
//
// Request-scoped loggers pick up chi's request id so every line written
// while serving a request can be correlated. Batch processing adds the
// import id the same way.
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
// Level values: "debug", "info", "warn", "error" (default: "info")
// Format values: "text", "json" (default: "text")
//
// Use "json" in production where logs are shipped and parsed, and "text"
// in development for human readability.
func Setup(level, format string) *slog.Logger {
	logger := New(os.Stdout, level, format)
	slog.SetDefault(logger)
	return logger
}

// New builds a logger writing to w without touching the default.
func New(w io.Writer, level, format string) *slog.Logger {
	opts := &slog.HandlerOptions{Level: parseLevel(level)}

	var handler slog.Handler
	if strings.EqualFold(format, "json") {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}
	return slog.New(handler)
}

func parseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// FromContext returns a logger enriched with request context.
//
// When ctx carries a chi RequestID, every entry written through the
// returned logger includes request_id, so all lines of one request can be
// correlated. Outside a request it is simply the default logger.
//
// Usage:
//
//	func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
//	    logger := logging.FromContext(r.Context())
//	    logger.Info("building report", "import_id", id)
//	}
func FromContext(ctx context.Context) *slog.Logger {
	logger := slog.Default()

	// Chi's RequestID middleware stores the ID in context
	if reqID := middleware.GetReqID(ctx); reqID != "" {
		logger = logger.With("request_id", reqID)
	}

	return logger
}

// WithFields returns a request logger with additional structured fields.
//
// Use it for a multi-step operation that should carry the same context
// on every line.
//
// Usage:
//
//	uploadLogger := logging.WithFields(ctx,
//	    "filename", filename,
//	    "columns", len(headers),
//	)
//	uploadLogger.Info("document stored")
//	// ... later ...
//	uploadLogger.Info("mapping suggested", "unmapped", n)
func WithFields(ctx context.Context, args ...any) *slog.Logger {
	return FromContext(ctx).With(args...)
}

// ForImport returns a request logger tagged with an import id. The batch
// coordinator and the upload path use it so every line of one import can be
// filtered by import_id.
func ForImport(ctx context.Context, importID string) *slog.Logger {
	return WithFields(ctx, "import_id", importID)
}

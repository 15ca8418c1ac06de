// Package observability sets up structured logging and the global
// OpenTelemetry tracer and meter providers. Within the engine only the Flow
// Orchestrator records telemetry, one span per task run; no metric
// instruments are created.
package observability

import (
	"log/slog"
	"os"

	"github.com/reqflow/engine/internal/config"
)

// NewLogger builds the process's root *slog.Logger from cfg, which
// component constructors then narrow with With("component", "...").
func NewLogger(cfg config.LoggingConfig) *slog.Logger {
	level := parseLevel(cfg.Level)
	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}
	return slog.New(handler)
}

func parseLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

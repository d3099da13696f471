// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package observability builds the zerolog logger and the Prometheus
// metrics shared by the adapters and download pipelines.
package observability

import (
	"io"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/pdiddy/paperfetch/pkg/types"
)

// NewLogger creates a zerolog logger writing to w. Format "console" (the
// default) produces human-readable lines; "json" produces one JSON object
// per event.
func NewLogger(cfg types.LoggingConfig, w io.Writer) zerolog.Logger {
	out := w
	if !strings.EqualFold(cfg.Format, "json") {
		out = zerolog.ConsoleWriter{Out: w, TimeFormat: time.Kitchen}
	}
	return zerolog.New(out).With().Timestamp().Logger().Level(parseLevel(cfg.Level))
}

// parseLevel converts a string log level to zerolog.Level.
func parseLevel(level string) zerolog.Level {
	switch strings.ToLower(level) {
	case "trace":
		return zerolog.TraceLevel
	case "debug":
		return zerolog.DebugLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	case "disabled", "off":
		return zerolog.Disabled
	default:
		return zerolog.InfoLevel
	}
}

// WithBatch adds the batch pipeline name and run ID to a logger.
func WithBatch(logger zerolog.Logger, pipeline, runID string) zerolog.Logger {
	return logger.With().
		Str("pipeline", pipeline).
		Str("run_id", runID).
		Logger()
}

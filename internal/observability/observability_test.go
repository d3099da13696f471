// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package observability

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/paperfetch/pkg/types"
)

func TestParseLevel(t *testing.T) {
	tests := map[string]zerolog.Level{
		"debug":   zerolog.DebugLevel,
		"DEBUG":   zerolog.DebugLevel,
		"warning": zerolog.WarnLevel,
		"error":   zerolog.ErrorLevel,
		"off":     zerolog.Disabled,
		"":        zerolog.InfoLevel,
		"bogus":   zerolog.InfoLevel,
	}
	for in, want := range tests {
		assert.Equal(t, want, parseLevel(in), "parseLevel(%q)", in)
	}
}

func TestNewLogger_JSON(t *testing.T) {
	var buf bytes.Buffer
	log := NewLogger(types.LoggingConfig{Level: "info", Format: "json"}, &buf)
	batch := WithBatch(log, "unpaywall", "run-1")
	batch.Info().Str("id", "10.1/x").Msg("resolved")

	var event map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &event))
	assert.Equal(t, "unpaywall", event["pipeline"])
	assert.Equal(t, "run-1", event["run_id"])
	assert.Equal(t, "10.1/x", event["id"])
	assert.Equal(t, "resolved", event["message"])
}

func TestNewLogger_LevelFilters(t *testing.T) {
	var buf bytes.Buffer
	log := NewLogger(types.LoggingConfig{Level: "warn", Format: "json"}, &buf)
	log.Info().Msg("hidden")
	assert.Empty(t, buf.String())
}

func TestMetrics_NilSafe(t *testing.T) {
	var m *Metrics
	m.ObserveSource("arxiv", "ok")
	m.ObserveDownload("arxiv", "success", "source_archive", false)
	assert.NotNil(t, m.Registry())
}

func TestMetrics_CountsAndTextfile(t *testing.T) {
	m := NewMetrics()
	m.ObserveSource("openalex", "ok")
	m.ObserveSource("openalex", "rate_limited")
	m.ObserveDownload("arxiv", "success", "rendered_document", true)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.SourceRequests.WithLabelValues("openalex", "rate_limited")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Fallbacks))

	path := filepath.Join(t.TempDir(), "paperfetch.prom")
	require.NoError(t, m.WriteTextfile(path))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "paperfetch_downloads_total")
	assert.Contains(t, string(data), "paperfetch_fallbacks_total 1")
}

// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/pdiddy/paperfetch/internal/observability"
	"github.com/pdiddy/paperfetch/internal/result"
	"github.com/pdiddy/paperfetch/pkg/types"
)

func TestClamp(t *testing.T) {
	tests := []struct {
		n, def, max, want int
	}{
		{0, 10, 50, 10},
		{-1, 10, 50, 10},
		{1, 10, 50, 1},
		{50, 10, 50, 50},
		{51, 10, 50, 50},
	}
	for _, tt := range tests {
		if got := clamp(tt.n, tt.def, tt.max); got != tt.want {
			t.Errorf("clamp(%d, %d, %d) = %d, want %d", tt.n, tt.def, tt.max, got, tt.want)
		}
	}
}

func TestOutcomeLabel(t *testing.T) {
	if got := outcomeLabel(nil); got != "ok" {
		t.Errorf("outcomeLabel(nil) = %q", got)
	}
	if got := outcomeLabel(result.New(result.KindRateLimited, "slow down")); got != "rate_limited" {
		t.Errorf("outcomeLabel(rate_limited) = %q", got)
	}
}

func TestObserveRecordsMetrics(t *testing.T) {
	m := observability.NewMetrics()
	observe(m, types.SourceGithub, result.New(result.KindRateLimited, "x"))
	observe(m, types.SourceGithub, nil)
	if got := testutil.ToFloat64(m.SourceRequests.WithLabelValues("github", "rate_limited")); got != 1 {
		t.Errorf("rate_limited count = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.SourceRequests.WithLabelValues("github", "ok")); got != 1 {
		t.Errorf("ok count = %v, want 1", got)
	}
}

func TestFormatWorks(t *testing.T) {
	var buf bytes.Buffer
	FormatWorks(nil, &buf)
	if !strings.Contains(buf.String(), "No results found.") {
		t.Errorf("empty output = %q", buf.String())
	}

	buf.Reset()
	FormatWorks([]types.Work{
		{Identifier: "W1", Title: strings.Repeat("long title ", 10), Authors: []string{"Ada Lovelace", "Charles Babbage"}, Year: 1843, CitedByCount: 7},
	}, &buf)
	out := buf.String()
	if !strings.Contains(out, "Ada Lovelace et al.") {
		t.Errorf("output missing authors:\n%s", out)
	}
	if !strings.Contains(out, "1843") || !strings.Contains(out, "W1") {
		t.Errorf("output missing year or id:\n%s", out)
	}
	if !strings.Contains(out, "...") {
		t.Errorf("long title not truncated:\n%s", out)
	}
}

func TestFormatRepos(t *testing.T) {
	var buf bytes.Buffer
	FormatRepos([]types.Repository{{FullName: "a/b", Stars: 5, Language: "Go", Description: "demo"}}, &buf)
	if !strings.Contains(buf.String(), "a/b") || !strings.Contains(buf.String(), "1 repositories") {
		t.Errorf("output = %q", buf.String())
	}
}

func TestFormatJSON(t *testing.T) {
	var buf bytes.Buffer
	if err := FormatJSON([]types.Work{{Identifier: "1", Title: "T", Authors: []string{}}}, &buf); err != nil {
		t.Fatalf("FormatJSON: %v", err)
	}
	var got []map[string]any
	if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if got[0]["id"] != "1" {
		t.Errorf("id = %v", got[0]["id"])
	}
	if _, ok := got[0]["published"]; ok {
		t.Error("zero published time should be omitted")
	}
}

func TestTruncateRuneSafe(t *testing.T) {
	got := truncate("ééééééééé", 6)
	if got != "ééé..." {
		t.Errorf("truncate = %q", got)
	}
}

// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package search queries external bibliographic services and normalizes
// their responses into canonical records. Each adapter builds a query URL,
// issues the request, and parses the raw response; no results are merged or
// deduplicated across sources.
package search

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/pdiddy/paperfetch/internal/httputil"
	"github.com/pdiddy/paperfetch/internal/observability"
	"github.com/pdiddy/paperfetch/internal/result"
	"github.com/pdiddy/paperfetch/pkg/types"
)

// maxBodyBytes bounds how much of an upstream response is read.
const maxBodyBytes = 10 << 20

// Options holds the optional query parameters. Each adapter reads the
// fields its upstream service understands and ignores the rest.
type Options struct {
	// MaxResults is clamped to the adapter's bounds; 0 selects its default.
	MaxResults int

	// Sort is one of a small enumerated set per adapter. Unknown values
	// fall back to the adapter's default.
	Sort string

	// DateFrom restricts arXiv results to submissions on or after this date.
	DateFrom time.Time

	// FromYear and ToYear restrict OpenAlex results to a publication year range.
	FromYear int
	ToYear   int

	// MinCitations restricts OpenAlex results to works cited at least this often.
	MinCitations int

	// Filter is passed through verbatim as an OpenAlex filter expression.
	Filter string

	// Language restricts GitHub results to a primary language.
	Language string
}

// Page is one page of results plus the upstream total when reported.
type Page[T any] struct {
	Items      []T
	TotalCount int
}

// WorkSource is implemented by adapters that return scholarly works.
type WorkSource interface {
	Name() string
	Search(ctx context.Context, query string, opts Options) (Page[types.Work], error)
}

// clamp bounds n to [1, max], substituting def for non-positive values.
func clamp(n, def, max int) int {
	if n <= 0 {
		return def
	}
	if n > max {
		return max
	}
	return n
}

// nopLogger is used by adapters constructed without a logger.
var nopLogger = zerolog.Nop()

func loggerOrNop(l *zerolog.Logger) *zerolog.Logger {
	if l == nil {
		return &nopLogger
	}
	return l
}

// get issues a GET request with the configured User-Agent plus any extra
// headers. Transport failures come back as network_error; the caller
// classifies the status code.
func get(ctx context.Context, client *http.Client, cfg types.HTTPConfig, service, reqURL string, header http.Header) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, result.New(result.KindInvalidParams, "creating %s request: %v", service, err)
	}
	for k, vs := range header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	if cfg.UserAgent != "" && req.Header.Get("User-Agent") == "" {
		req.Header.Set("User-Agent", cfg.UserAgent)
	}

	resp, err := httputil.DoWithRetry(ctx, client, req, cfg.MaxRetries)
	if err != nil {
		return nil, result.New(result.KindNetwork, "Failed to reach %s API: %v", service, err)
	}
	return resp, nil
}

// readBody reads at most maxBodyBytes of the response body.
func readBody(resp *http.Response) ([]byte, error) {
	return io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
}

// outcomeLabel returns the metrics label for an adapter error.
func outcomeLabel(err error) string {
	if err == nil {
		return "ok"
	}
	var re *result.Error
	if errors.As(err, &re) {
		return string(re.Kind)
	}
	return string(result.KindNetwork)
}

func observe(m *observability.Metrics, source types.Source, err error) {
	m.ObserveSource(string(source), outcomeLabel(err))
}

// FormatWorks writes works as a human-readable table to w.
func FormatWorks(works []types.Work, w io.Writer) {
	if len(works) == 0 {
		fmt.Fprintln(w, "No results found.")
		return
	}

	fmt.Fprintf(w, "%-4s  %-60s  %-20s  %-4s  %-7s  %s\n",
		"Rank", "Title", "Authors", "Year", "Cited", "ID")
	fmt.Fprintln(w, strings.Repeat("-", 120))

	for i, r := range works {
		year := ""
		switch {
		case r.Year > 0:
			year = fmt.Sprintf("%d", r.Year)
		case !r.Published.IsZero():
			year = fmt.Sprintf("%d", r.Published.Year())
		}
		fmt.Fprintf(w, "%-4d  %-60s  %-20s  %-4s  %-7d  %s\n",
			i+1, truncate(r.Title, 60), formatAuthors(r.Authors), year, r.CitedByCount, r.Identifier)
	}

	fmt.Fprintf(w, "\n%d results\n", len(works))
}

// FormatRepos writes repositories as a human-readable table to w.
func FormatRepos(repos []types.Repository, w io.Writer) {
	if len(repos) == 0 {
		fmt.Fprintln(w, "No results found.")
		return
	}

	fmt.Fprintf(w, "%-4s  %-40s  %-7s  %-12s  %s\n", "Rank", "Repository", "Stars", "Language", "Description")
	fmt.Fprintln(w, strings.Repeat("-", 110))
	for i, r := range repos {
		fmt.Fprintf(w, "%-4d  %-40s  %-7d  %-12s  %s\n",
			i+1, truncate(r.FullName, 40), r.Stars, truncate(r.Language, 12), truncate(r.Description, 40))
	}
	fmt.Fprintf(w, "\n%d repositories\n", len(repos))
}

// FormatJSON writes v as indented JSON to w.
func FormatJSON(v any, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func formatAuthors(authors []string) string {
	switch len(authors) {
	case 0:
		return ""
	case 1:
		return truncate(authors[0], 20)
	default:
		return truncate(authors[0], 14) + " et al."
	}
}

func truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max-3]) + "..."
}

// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/pdiddy/paperfetch/internal/observability"
	"github.com/pdiddy/paperfetch/internal/result"
	"github.com/pdiddy/paperfetch/pkg/types"
)

// arxivAPIBase is the arXiv search endpoint. Declared as a var so tests
// can substitute an httptest server.
var arxivAPIBase = "https://export.arxiv.org/api/query"

const (
	arxivDefaultResults = 10
	arxivMaxResults     = 50
)

// arxivSorts maps lower-cased sort names to arXiv sortBy tokens.
var arxivSorts = map[string]string{
	"relevance":       "relevance",
	"lastupdateddate": "lastUpdatedDate",
	"submitteddate":   "submittedDate",
}

// ArxivAdapter queries the arXiv API.
type ArxivAdapter struct {
	Client  *http.Client
	Config  types.SearchConfig
	Logger  *zerolog.Logger
	Metrics *observability.Metrics
}

// Name returns the adapter identifier.
func (a *ArxivAdapter) Name() string { return string(types.SourceArxiv) }

// Search queries arXiv and parses the Atom feed. Results are bounded to
// 1–50 (default 10).
func (a *ArxivAdapter) Search(ctx context.Context, query string, opts Options) (page Page[types.Work], err error) {
	defer func() { observe(a.Metrics, types.SourceArxiv, err) }()
	log := loggerOrNop(a.Logger)

	if strings.TrimSpace(query) == "" {
		return page, result.New(result.KindInvalidParams, "query must be a non-empty string")
	}

	reqURL := buildArxivURL(query, opts)
	log.Debug().Str("url", reqURL).Msg("querying arXiv")

	resp, err := get(ctx, a.Client, a.Config.HTTPConfig, "arXiv", reqURL, nil)
	if err != nil {
		return page, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return page, result.FromStatus("arXiv", resp.StatusCode)
	}

	body, readErr := readBody(resp)
	if readErr != nil {
		log.Warn().Err(readErr).Msg("reading arXiv response; returning no results")
		return page, nil
	}

	page.Items = ParseAtom(string(body))
	page.TotalCount = len(page.Items)
	log.Debug().Int("results", len(page.Items)).Msg("arXiv query done")
	return page, nil
}

// buildArxivURL constructs the query URL. An inclusive DateFrom becomes a
// submittedDate range with an open upper bound.
func buildArxivURL(query string, opts Options) string {
	searchQuery := strings.TrimSpace(query)
	if !opts.DateFrom.IsZero() {
		searchQuery += " AND submittedDate:[" + arxivDateFilter(opts.DateFrom) + " TO 99991231]"
	}

	sortBy, ok := arxivSorts[strings.ToLower(opts.Sort)]
	if !ok {
		sortBy = "relevance"
	}

	params := url.Values{
		"search_query": {searchQuery},
		"start":        {"0"},
		"max_results":  {strconv.Itoa(clamp(opts.MaxResults, arxivDefaultResults, arxivMaxResults))},
		"sortBy":       {sortBy},
		"sortOrder":    {"descending"},
	}
	return arxivAPIBase + "?" + params.Encode()
}

// arxivDateFilter formats a date as arXiv's YYYYMMDDHHMM lower bound.
func arxivDateFilter(t time.Time) string {
	return t.Format("20060102") + "0000"
}

// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/pdiddy/paperfetch/internal/observability"
	"github.com/pdiddy/paperfetch/internal/result"
	"github.com/pdiddy/paperfetch/pkg/types"
)

// openAlexSearchBase is the OpenAlex Works search endpoint. Declared as a
// var so tests can substitute an httptest server.
var openAlexSearchBase = "https://api.openalex.org/works"

const (
	openAlexDefaultResults = 20
	openAlexMaxResults     = 100
	openAlexMaxAuthors     = 5
	abstractMaxChars       = 500
)

var openAlexSorts = map[string]string{
	"relevance_score":  "relevance_score:desc",
	"cited_by_count":   "cited_by_count:desc",
	"publication_date": "publication_date:desc",
}

// OpenAlexAdapter queries the OpenAlex API.
type OpenAlexAdapter struct {
	Client  *http.Client
	Config  types.SearchConfig
	Logger  *zerolog.Logger
	Metrics *observability.Metrics
}

// Name returns the adapter identifier.
func (a *OpenAlexAdapter) Name() string { return string(types.SourceOpenAlex) }

// Search queries OpenAlex. Results are bounded to 1–100 (default 20).
// HTTP 429 is reported as rate_limited.
func (a *OpenAlexAdapter) Search(ctx context.Context, query string, opts Options) (page Page[types.Work], err error) {
	defer func() { observe(a.Metrics, types.SourceOpenAlex, err) }()
	log := loggerOrNop(a.Logger)

	if strings.TrimSpace(query) == "" {
		return page, result.New(result.KindInvalidParams, "query must be a non-empty string")
	}

	reqURL := buildOpenAlexURL(query, opts, a.Config.ContactEmail)
	log.Debug().Str("url", reqURL).Msg("querying OpenAlex")

	var header http.Header
	if a.Config.ContactEmail != "" && a.Config.UserAgent != "" {
		header = http.Header{"User-Agent": {fmt.Sprintf("%s (mailto:%s)", a.Config.UserAgent, a.Config.ContactEmail)}}
	}

	resp, err := get(ctx, a.Client, a.Config.HTTPConfig, "OpenAlex", reqURL, header)
	if err != nil {
		return page, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		return page, result.New(result.KindRateLimited, "OpenAlex API rate limit exceeded. Please wait a moment and retry.")
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return page, result.FromStatus("OpenAlex", resp.StatusCode)
	}

	var oar openAlexResponse
	if err := json.NewDecoder(resp.Body).Decode(&oar); err != nil {
		log.Warn().Err(err).Msg("parsing OpenAlex response; returning no results")
		return page, nil
	}

	page.TotalCount = oar.Meta.Count
	for _, work := range oar.Results {
		w, ok := toWork(work)
		if !ok {
			continue
		}
		if opts.MinCitations > 0 && w.CitedByCount < opts.MinCitations {
			continue
		}
		page.Items = append(page.Items, w)
	}
	log.Debug().Int("results", len(page.Items)).Int("total", page.TotalCount).Msg("OpenAlex query done")
	return page, nil
}

// buildOpenAlexURL constructs the works search URL with filters, the
// mapped sort token, and the polite-pool mailto parameter.
func buildOpenAlexURL(query string, opts Options, email string) string {
	params := url.Values{
		"search":   {strings.TrimSpace(query)},
		"per_page": {strconv.Itoa(clamp(opts.MaxResults, openAlexDefaultResults, openAlexMaxResults))},
	}
	if email != "" {
		params.Set("mailto", email)
	}

	if f := openAlexFilter(opts); f != "" {
		params.Set("filter", f)
	}

	sortToken, ok := openAlexSorts[strings.ToLower(opts.Sort)]
	if !ok {
		sortToken = openAlexSorts["relevance_score"]
	}
	params.Set("sort", sortToken)

	return openAlexSearchBase + "?" + params.Encode()
}

// openAlexFilter joins the verbatim filter with the structured year and
// citation filters into OpenAlex's comma-separated filter syntax.
func openAlexFilter(opts Options) string {
	var filters []string
	if f := strings.TrimSpace(opts.Filter); f != "" {
		filters = append(filters, f)
	}
	switch {
	case opts.FromYear > 0 && opts.ToYear > 0:
		filters = append(filters, fmt.Sprintf("publication_year:%d-%d", opts.FromYear, opts.ToYear))
	case opts.FromYear > 0:
		filters = append(filters, fmt.Sprintf("publication_year:>%d", opts.FromYear-1))
	case opts.ToYear > 0:
		filters = append(filters, fmt.Sprintf("publication_year:<%d", opts.ToYear+1))
	}
	if opts.MinCitations > 0 {
		filters = append(filters, fmt.Sprintf("cited_by_count:>%d", opts.MinCitations-1))
	}
	return strings.Join(filters, ",")
}

// toWork converts an OpenAlex work. Works without a title or ID are dropped.
func toWork(work openAlexWork) (types.Work, bool) {
	w := types.Work{
		Source:       types.SourceOpenAlex,
		Identifier:   strings.TrimPrefix(work.ID, "https://openalex.org/"),
		Title:        collapse(work.Title),
		DOI:          strings.TrimPrefix(work.DOI, "https://doi.org/"),
		Year:         work.PublicationYear,
		Type:         work.Type,
		CitedByCount: work.CitedByCount,
		Abstract:     ReconstructAbstract(work.AbstractInvertedIndex),
		Venue:        "Unknown",
		Authors:      []string{},
	}
	if w.Title == "" || w.Identifier == "" {
		return types.Work{}, false
	}

	for _, authorship := range work.Authorships {
		if len(w.Authors) == openAlexMaxAuthors {
			break
		}
		if authorship.Author.DisplayName != "" {
			w.Authors = append(w.Authors, authorship.Author.DisplayName)
		}
	}

	if work.PublicationDate != "" {
		if t, err := time.Parse("2006-01-02", work.PublicationDate); err == nil {
			w.Published = t
		}
	}
	if loc := work.PrimaryLocation; loc != nil && loc.Source != nil && loc.Source.DisplayName != "" {
		w.Venue = loc.Source.DisplayName
	}
	if work.OpenAccess != nil {
		w.IsOpenAccess = work.OpenAccess.IsOA
		w.OpenAccessURL = work.OpenAccess.OAURL
	}
	return w, true
}

// ReconstructAbstract rebuilds prose from OpenAlex's abstract_inverted_index,
// which maps each word to the positions where it appears. Pairs are sorted
// by position, joined with single spaces, and truncated to 500 characters.
// The relative order of words sharing a position is unspecified.
func ReconstructAbstract(invertedIndex map[string][]int) string {
	if len(invertedIndex) == 0 {
		return ""
	}

	type posWord struct {
		pos  int
		word string
	}
	var pairs []posWord
	for word, positions := range invertedIndex {
		for _, pos := range positions {
			pairs = append(pairs, posWord{pos: pos, word: word})
		}
	}

	sort.Slice(pairs, func(i, j int) bool {
		return pairs[i].pos < pairs[j].pos
	})

	words := make([]string, len(pairs))
	for i, p := range pairs {
		words[i] = p.word
	}
	text := []rune(strings.Join(words, " "))
	if len(text) > abstractMaxChars {
		text = text[:abstractMaxChars]
	}
	return string(text)
}

// OpenAlex API JSON structures.
type openAlexResponse struct {
	Meta    openAlexMeta   `json:"meta"`
	Results []openAlexWork `json:"results"`
}

type openAlexMeta struct {
	Count   int `json:"count"`
	PerPage int `json:"per_page"`
	Page    int `json:"page"`
}

type openAlexWork struct {
	ID                    string               `json:"id"`
	Title                 string               `json:"title"`
	DOI                   string               `json:"doi"`
	Type                  string               `json:"type"`
	PublicationDate       string               `json:"publication_date"`
	PublicationYear       int                  `json:"publication_year"`
	CitedByCount          int                  `json:"cited_by_count"`
	Authorships           []openAlexAuthorship `json:"authorships"`
	PrimaryLocation       *openAlexLocation    `json:"primary_location"`
	AbstractInvertedIndex map[string][]int     `json:"abstract_inverted_index"`
	OpenAccess            *openAlexOpenAccess  `json:"open_access"`
}

type openAlexAuthorship struct {
	Author openAlexAuthor `json:"author"`
}

type openAlexAuthor struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
}

type openAlexLocation struct {
	Source *openAlexSource `json:"source"`
}

type openAlexSource struct {
	DisplayName string `json:"display_name"`
}

type openAlexOpenAccess struct {
	IsOA     bool   `json:"is_oa"`
	OAStatus string `json:"oa_status"`
	OAURL    string `json:"oa_url"`
}

// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"github.com/pdiddy/paperfetch/internal/observability"
	"github.com/pdiddy/paperfetch/internal/result"
	"github.com/pdiddy/paperfetch/internal/secrets"
	"github.com/pdiddy/paperfetch/pkg/types"
)

// githubSearchBase is the GitHub repository search endpoint. Declared as a
// var so tests can substitute an httptest server.
var githubSearchBase = "https://api.github.com/search/repositories"

const (
	githubDefaultResults = 10
	githubMaxResults     = 30
)

// githubTokenVars are checked in order; the first non-empty value wins.
var githubTokenVars = []string{"GITHUB_TOKEN", "GH_TOKEN", "GITHUB_AI_TOKEN"}

// ResolveGithubToken returns the bearer token from the environment, falling
// back to the github-token secret. An empty result means unauthenticated.
func ResolveGithubToken(lookupEnv func(string) (string, bool), secretMap map[string]string) string {
	for _, name := range githubTokenVars {
		if v, ok := lookupEnv(name); ok {
			if v = strings.TrimSpace(v); v != "" {
				return v
			}
		}
	}
	return strings.TrimSpace(secretMap[secrets.KeyGithubToken])
}

// GithubAdapter searches GitHub repositories.
type GithubAdapter struct {
	Client  *http.Client
	Config  types.SearchConfig
	Logger  *zerolog.Logger
	Metrics *observability.Metrics
}

// Name returns the adapter identifier.
func (a *GithubAdapter) Name() string { return string(types.SourceGithub) }

// Search queries GitHub. Results are bounded to 1–30 (default 10).
// HTTP 403 is reported as rate_limited.
func (a *GithubAdapter) Search(ctx context.Context, query string, opts Options) (page Page[types.Repository], err error) {
	defer func() { observe(a.Metrics, types.SourceGithub, err) }()
	log := loggerOrNop(a.Logger)

	if strings.TrimSpace(query) == "" {
		return page, result.New(result.KindInvalidParams, "query must be a non-empty string")
	}

	reqURL := buildGithubURL(query, opts)
	header := http.Header{"Accept": {"application/vnd.github+json"}}
	if a.Config.GithubToken != "" {
		header.Set("Authorization", "Bearer "+a.Config.GithubToken)
	}
	log.Debug().Str("url", reqURL).Bool("authenticated", a.Config.GithubToken != "").Msg("querying GitHub")

	resp, err := get(ctx, a.Client, a.Config.HTTPConfig, "GitHub", reqURL, header)
	if err != nil {
		return page, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusForbidden {
		return page, result.New(result.KindRateLimited, "GitHub API rate limit exceeded. Set GITHUB_TOKEN for higher limits.")
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return page, result.FromStatus("GitHub", resp.StatusCode)
	}

	var gr githubResponse
	if err := json.NewDecoder(resp.Body).Decode(&gr); err != nil {
		log.Warn().Err(err).Msg("parsing GitHub response; returning no results")
		return page, nil
	}

	page.TotalCount = gr.TotalCount
	for _, item := range gr.Items {
		if item.FullName == "" || item.HTMLURL == "" {
			continue
		}
		page.Items = append(page.Items, toRepository(item))
	}
	log.Debug().Int("results", len(page.Items)).Int("total", page.TotalCount).Msg("GitHub query done")
	return page, nil
}

// buildGithubURL constructs the search URL. Language becomes a search
// qualifier; best-match omits the sort parameter entirely.
func buildGithubURL(query string, opts Options) string {
	q := strings.TrimSpace(query)
	if lang := strings.TrimSpace(opts.Language); lang != "" {
		q += " language:" + lang
	}

	params := url.Values{
		"q":        {q},
		"per_page": {strconv.Itoa(clamp(opts.MaxResults, githubDefaultResults, githubMaxResults))},
		"order":    {"desc"},
	}
	switch strings.ToLower(opts.Sort) {
	case "best-match":
	case "updated":
		params.Set("sort", "updated")
	default:
		params.Set("sort", "stars")
	}
	return githubSearchBase + "?" + params.Encode()
}

func toRepository(item githubRepo) types.Repository {
	r := types.Repository{
		FullName:    item.FullName,
		URL:         item.HTMLURL,
		Description: item.Description,
		Stars:       item.StargazersCount,
		Language:    item.Language,
		Updated:     item.UpdatedAt,
		Topics:      item.Topics,
	}
	if r.Language == "" {
		r.Language = "unknown"
	}
	if r.Topics == nil {
		r.Topics = []string{}
	}
	return r
}

// GitHub API JSON structures.
type githubResponse struct {
	TotalCount int          `json:"total_count"`
	Items      []githubRepo `json:"items"`
}

type githubRepo struct {
	FullName        string   `json:"full_name"`
	HTMLURL         string   `json:"html_url"`
	Description     string   `json:"description"`
	StargazersCount int      `json:"stargazers_count"`
	Language        string   `json:"language"`
	UpdatedAt       string   `json:"updated_at"`
	Topics          []string `json:"topics"`
}

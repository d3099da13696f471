// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package tools

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/pdiddy/paperfetch/internal/acquire"
	"github.com/pdiddy/paperfetch/internal/observability"
	"github.com/pdiddy/paperfetch/internal/result"
	"github.com/pdiddy/paperfetch/internal/search"
	"github.com/pdiddy/paperfetch/pkg/types"
)

// Deps carries what the tools share: one HTTP client, the loaded
// configuration, a logger, and metrics. Logger and Metrics may be nil.
type Deps struct {
	Client  *http.Client
	Config  types.Config
	Logger  *zerolog.Logger
	Metrics *observability.Metrics
}

// Default returns a registry holding every tool.
func Default(d Deps) *Registry {
	if d.Client == nil {
		d.Client = &http.Client{Timeout: d.Config.Search.Timeout}
	}
	r := NewRegistry()
	for _, t := range []Tool{
		arxivSearchTool(d),
		openAlexSearchTool(d),
		githubSearchTool(d),
		arxivDownloadTool(d),
		unpaywallDownloadTool(d),
	} {
		if err := r.Register(t); err != nil {
			panic(err)
		}
	}
	return r
}

func (d Deps) machine(outDir string) *acquire.Machine {
	cfg := d.Config.Acquisition
	if outDir != "" {
		cfg.OutputDir = outDir
	}
	return &acquire.Machine{Client: d.Client, Config: cfg, Logger: d.Logger, Metrics: d.Metrics}
}

// envelopeFor converts a pipeline error into a failure envelope, or data
// into a success envelope when err is nil.
func envelopeFor(data any, err error) result.Envelope {
	if err != nil {
		return result.FromError(err)
	}
	return result.Ok(data)
}

type arxivSearchParams struct {
	Query      string `json:"query" validate:"required"`
	MaxResults int    `json:"max_results"`
	SortBy     string `json:"sort_by"`
	DateFrom   string `json:"date_from" validate:"omitempty,datetime=2006-01-02"`
	Download   bool   `json:"download"`
	OutputDir  string `json:"output_dir" validate:"omitempty,abspath"`
}

type arxivPaper struct {
	Title      string   `json:"title"`
	Authors    []string `json:"authors"`
	Abstract   string   `json:"abstract"`
	ArxivID    string   `json:"arxiv_id"`
	PDFURL     string   `json:"pdf_url"`
	Published  string   `json:"published"`
	Updated    string   `json:"updated,omitempty"`
	Categories []string `json:"categories"`
}

type arxivSearchResponse struct {
	Query     string                  `json:"query"`
	Total     int                     `json:"total"`
	Papers    []arxivPaper            `json:"papers"`
	OutputDir string                  `json:"output_dir,omitempty"`
	Downloads []types.DownloadOutcome `json:"downloads,omitempty"`
}

func arxivSearchTool(d Deps) Tool {
	adapter := &search.ArxivAdapter{Client: d.Client, Config: d.Config.Search, Logger: d.Logger, Metrics: d.Metrics}
	return Tool{
		Name:  "arxiv_search",
		Label: "arXiv Search",
		Description: "Search arXiv for papers by keyword. Returns titles, authors, abstracts, " +
			"and identifiers. Set download to fetch the LaTeX source (or PDF) of each result into output_dir.",
		Execute: func(ctx context.Context, raw json.RawMessage) result.Envelope {
			var p arxivSearchParams
			if err := decode(raw, &p); err != nil {
				return result.FromError(err)
			}
			opts := search.Options{MaxResults: p.MaxResults, Sort: p.SortBy}
			if p.DateFrom != "" {
				// Already validated.
				opts.DateFrom, _ = time.Parse(time.DateOnly, p.DateFrom)
			}

			page, err := adapter.Search(ctx, p.Query, opts)
			if err != nil {
				return result.FromError(err)
			}
			resp := arxivSearchResponse{Query: p.Query, Total: len(page.Items), Papers: make([]arxivPaper, 0, len(page.Items))}
			ids := make([]string, 0, len(page.Items))
			for _, w := range page.Items {
				resp.Papers = append(resp.Papers, toArxivPaper(w))
				ids = append(ids, w.Identifier)
			}

			if p.Download && len(ids) > 0 {
				batch, err := d.machine(p.OutputDir).Batch(ctx, ids)
				if err != nil {
					return result.FromError(err)
				}
				resp.OutputDir = batch.OutputDir
				resp.Downloads = batch.Outcomes
			}
			return result.Ok(resp)
		},
	}
}

func toArxivPaper(w types.Work) arxivPaper {
	p := arxivPaper{
		Title:      w.Title,
		Authors:    orEmpty(w.Authors),
		Abstract:   w.Abstract,
		ArxivID:    w.Identifier,
		PDFURL:     w.PDFURL,
		Categories: orEmpty(w.Categories),
	}
	if !w.Published.IsZero() {
		p.Published = w.Published.UTC().Format(time.RFC3339)
	}
	if !w.Updated.IsZero() {
		p.Updated = w.Updated.UTC().Format(time.RFC3339)
	}
	return p
}

type openAlexSearchParams struct {
	Query        string `json:"query" validate:"required"`
	MaxResults   int    `json:"max_results"`
	Filter       string `json:"filter"`
	Sort         string `json:"sort"`
	FromYear     int    `json:"from_year" validate:"omitempty,min=0"`
	ToYear       int    `json:"to_year" validate:"omitempty,min=0"`
	MinCitations int    `json:"min_citations" validate:"omitempty,min=0"`
}

type workSearchResponse struct {
	Query      string       `json:"query"`
	TotalCount int          `json:"total_count"`
	Returned   int          `json:"returned"`
	Works      []types.Work `json:"works"`
}

func openAlexSearchTool(d Deps) Tool {
	adapter := &search.OpenAlexAdapter{Client: d.Client, Config: d.Config.Search, Logger: d.Logger, Metrics: d.Metrics}
	return Tool{
		Name:  "openalex_search",
		Label: "OpenAlex Search",
		Description: "Search OpenAlex for scholarly works. Returns titles, authors, abstracts, " +
			"DOIs, citation counts, venues, and open-access links. Supports year and citation filters.",
		Execute: func(ctx context.Context, raw json.RawMessage) result.Envelope {
			var p openAlexSearchParams
			if err := decode(raw, &p); err != nil {
				return result.FromError(err)
			}
			page, err := adapter.Search(ctx, p.Query, search.Options{
				MaxResults:   p.MaxResults,
				Sort:         p.Sort,
				Filter:       p.Filter,
				FromYear:     p.FromYear,
				ToYear:       p.ToYear,
				MinCitations: p.MinCitations,
			})
			if err != nil {
				return result.FromError(err)
			}
			return result.Ok(workSearchResponse{
				Query:      p.Query,
				TotalCount: page.TotalCount,
				Returned:   len(page.Items),
				Works:      orEmpty(page.Items),
			})
		},
	}
}

type githubSearchParams struct {
	Query      string `json:"query" validate:"required"`
	MaxResults int    `json:"max_results"`
	Language   string `json:"language"`
	Sort       string `json:"sort"`
}

type repoSearchResponse struct {
	Query      string             `json:"query"`
	TotalCount int                `json:"total_count"`
	Returned   int                `json:"returned"`
	Repos      []types.Repository `json:"repos"`
}

func githubSearchTool(d Deps) Tool {
	adapter := &search.GithubAdapter{Client: d.Client, Config: d.Config.Search, Logger: d.Logger, Metrics: d.Metrics}
	return Tool{
		Name:  "github_search",
		Label: "GitHub Search",
		Description: "Search GitHub repositories by keyword. Returns names, descriptions, stars, " +
			"languages, and topics. Set GITHUB_TOKEN for higher rate limits.",
		Execute: func(ctx context.Context, raw json.RawMessage) result.Envelope {
			var p githubSearchParams
			if err := decode(raw, &p); err != nil {
				return result.FromError(err)
			}
			page, err := adapter.Search(ctx, p.Query, search.Options{
				MaxResults: p.MaxResults,
				Sort:       p.Sort,
				Language:   p.Language,
			})
			if err != nil {
				return result.FromError(err)
			}
			return result.Ok(repoSearchResponse{
				Query:      p.Query,
				TotalCount: page.TotalCount,
				Returned:   len(page.Items),
				Repos:      orEmpty(page.Items),
			})
		},
	}
}

type arxivDownloadParams struct {
	ArxivIDs  idList `json:"arxiv_ids" validate:"required,min=1"`
	OutputDir string `json:"output_dir" validate:"omitempty,abspath"`
}

type arxivDownloadResponse struct {
	OutputDir  string                  `json:"output_dir"`
	Total      int                     `json:"total"`
	Successful int                     `json:"successful"`
	Failed     int                     `json:"failed"`
	Downloads  []types.DownloadOutcome `json:"downloads"`
}

func arxivDownloadTool(d Deps) Tool {
	return Tool{
		Name:  "arxiv_download",
		Label: "arXiv Download",
		Description: "Download arXiv papers by ID. Fetches the LaTeX source archive and extracts " +
			".tex files; falls back to the PDF when no source is available.",
		Execute: func(ctx context.Context, raw json.RawMessage) result.Envelope {
			var p arxivDownloadParams
			if err := decode(raw, &p); err != nil {
				return result.FromError(err)
			}
			batch, err := d.machine(p.OutputDir).Batch(ctx, p.ArxivIDs)
			if err != nil {
				return result.FromError(err)
			}
			return result.Ok(arxivDownloadResponse{
				OutputDir:  batch.OutputDir,
				Total:      batch.Total,
				Successful: batch.Success,
				Failed:     batch.Failed,
				Downloads:  batch.Outcomes,
			})
		},
	}
}

type unpaywallDownloadParams struct {
	DOIs      []string `json:"dois" validate:"required,min=1,max=20,dive,required"`
	OutputDir string   `json:"output_dir"`
}

func unpaywallDownloadTool(d Deps) Tool {
	return Tool{
		Name:  "unpaywall_download",
		Label: "Unpaywall Download",
		Description: "Find and download open-access PDFs for up to 20 DOIs using Unpaywall. " +
			"Papers without an open-access copy are reported as not_open_access.",
		Execute: func(ctx context.Context, raw json.RawMessage) result.Envelope {
			var p unpaywallDownloadParams
			if err := decode(raw, &p); err != nil {
				return result.FromError(err)
			}
			cfg := d.Config.Unpaywall
			if p.OutputDir != "" {
				cfg.OutputDir = p.OutputDir
			}
			r := &acquire.UnpaywallResolver{Client: d.Client, Config: cfg, Logger: d.Logger, Metrics: d.Metrics}
			return envelopeFor(r.Batch(ctx, p.DOIs))
		},
	}
}

// orEmpty returns s, or an empty non-nil slice so it encodes as [].
func orEmpty[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

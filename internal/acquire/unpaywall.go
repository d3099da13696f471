// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package acquire

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/pdiddy/paperfetch/internal/httputil"
	"github.com/pdiddy/paperfetch/internal/observability"
	"github.com/pdiddy/paperfetch/internal/result"
	"github.com/pdiddy/paperfetch/pkg/types"
)

// unpaywallAPIBase is the Unpaywall v2 endpoint. Declared as a var so tests
// can substitute an httptest server.
var unpaywallAPIBase = "https://api.unpaywall.org/v2/"

// MaxUnpaywallDOIs bounds one Unpaywall batch.
const MaxUnpaywallDOIs = 20

// UnpaywallResolver looks up open-access locations for DOIs and downloads
// the PDFs it finds.
type UnpaywallResolver struct {
	Client  *http.Client
	Config  types.UnpaywallConfig
	Logger  *zerolog.Logger
	Metrics *observability.Metrics

	// Pacer is applied between consecutive DOIs. Nil selects the policy
	// described by Config.Pacing.
	Pacer httputil.Pacer
}

// Batch resolves and downloads up to 20 DOIs, one at a time. Blank entries
// are dropped. A relative output directory is resolved against the working
// directory and created if missing.
func (u *UnpaywallResolver) Batch(ctx context.Context, dois []string) (types.BatchResult, error) {
	batch := types.BatchResult{Outcomes: []types.DownloadOutcome{}}

	list := trimNonEmpty(dois)
	if len(list) == 0 {
		return batch, result.New(result.KindInvalidParams, "dois must be a non-empty array")
	}
	if len(list) > MaxUnpaywallDOIs {
		return batch, result.New(result.KindInvalidParams, "at most %d DOIs per request, got %d", MaxUnpaywallDOIs, len(list))
	}
	if u.Config.OutputDir == "" {
		return batch, result.New(result.KindInvalidParams, "output_dir is required")
	}

	outDir, err := filepath.Abs(u.Config.OutputDir)
	if err != nil {
		return batch, result.New(result.KindFilesystem, "Failed to create output directory: %v", err)
	}
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return batch, result.New(result.KindFilesystem, "Failed to create output directory: %v", err)
	}
	batch.OutputDir = outDir

	pacer := u.Pacer
	if pacer == nil {
		pacer = httputil.NewPacer(u.Config.Pacing)
	}
	log := observability.WithBatch(u.logger(), "unpaywall", uuid.NewString())
	log.Info().Int("total", len(list)).Str("output_dir", outDir).Msg("starting batch")

	for i, doi := range list {
		if i > 0 {
			if err := pacer.Wait(ctx); err != nil {
				cancelRemaining(&batch, list[i:], err)
				break
			}
		}
		out := u.resolve(ctx, doi, outDir, log.With().Str("id", doi).Logger())
		u.Metrics.ObserveDownload("unpaywall", string(out.Kind), string(out.Format), false)
		batch.Add(out)
	}

	log.Info().
		Int("total", batch.Total).
		Int("success", batch.Success).
		Int("not_oa", batch.NotOpenAccess).
		Int("failed", batch.Failed).
		Msg("batch complete")
	return batch, nil
}

// Resolve looks up and downloads a single DOI into outDir.
func (u *UnpaywallResolver) Resolve(ctx context.Context, doi, outDir string) types.DownloadOutcome {
	return u.resolve(ctx, doi, outDir, u.logger().With().Str("id", doi).Logger())
}

func (u *UnpaywallResolver) resolve(ctx context.Context, doi, outDir string, log zerolog.Logger) types.DownloadOutcome {
	out := types.DownloadOutcome{Identifier: doi, Files: []string{}}

	rec, err := u.lookup(ctx, doi)
	if err != nil {
		out.Kind = types.OutcomeAPIError
		out.Message = lookupFailureMessage(err)
		log.Warn().Err(err).Msg("unpaywall lookup failed")
		return out
	}
	out.Title = rec.Title

	if !rec.IsOA || rec.BestOALocation == nil {
		out.Kind = types.OutcomeNotOpenAccess
		out.Message = "Paper is not open access"
		log.Info().Msg("not open access")
		return out
	}

	docURL := rec.BestOALocation.URLForPDF
	if docURL == "" {
		docURL = rec.BestOALocation.URL
	}
	if docURL == "" {
		out.Kind = types.OutcomeNoDocumentURL
		out.Message = "No PDF URL available"
		log.Info().Msg("no document url")
		return out
	}

	name := SanitizeDOI(doi) + ".pdf"
	path := filepath.Join(outDir, name)
	out.Format = types.FormatRendered
	if _, err := downloadFile(ctx, u.Client, u.Config.HTTPConfig, docURL, path, IsDocumentContentType); err != nil {
		out.Kind = types.OutcomeDownloadFailed
		out.Message = downloadFailureMessage(err)
		log.Warn().Err(err).Str("url", docURL).Msg("download failed")
		return out
	}

	out.Kind = types.OutcomeSuccess
	out.Success = true
	out.Path = path
	out.Files = []string{name}
	out.Message = "Downloaded successfully"
	log.Info().Str("path", path).Msg("downloaded")
	return out
}

// lookup queries Unpaywall for one DOI.
func (u *UnpaywallResolver) lookup(ctx context.Context, doi string) (*unpaywallRecord, error) {
	reqURL := unpaywallAPIBase + url.PathEscape(doi) + "?" + url.Values{"email": {u.Config.Email}}.Encode()

	resp, err := get(ctx, u.Client, u.Config.HTTPConfig, reqURL)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var rec unpaywallRecord
	if err := json.NewDecoder(resp.Body).Decode(&rec); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}
	return &rec, nil
}

func lookupFailureMessage(err error) string {
	var se *StatusError
	if errors.As(err, &se) {
		return fmt.Sprintf("API error: %d %s", se.Code, http.StatusText(se.Code))
	}
	return fmt.Sprintf("Unexpected error: %v", err)
}

func downloadFailureMessage(err error) string {
	if errors.Is(err, ErrNotDocument) {
		return "Failed to download PDF (might be HTML landing page or access denied)"
	}
	return fmt.Sprintf("Failed to download PDF: %v", err)
}

func (u *UnpaywallResolver) logger() zerolog.Logger {
	if u.Logger == nil {
		return zerolog.Nop()
	}
	return *u.Logger
}

// Unpaywall API JSON structures.
type unpaywallRecord struct {
	DOI            string             `json:"doi"`
	IsOA           bool               `json:"is_oa"`
	Title          string             `json:"title"`
	Year           int                `json:"year"`
	BestOALocation *unpaywallLocation `json:"best_oa_location"`
}

type unpaywallLocation struct {
	URL               string `json:"url"`
	URLForPDF         string `json:"url_for_pdf"`
	URLForLandingPage string `json:"url_for_landing_page"`
	License           string `json:"license"`
}

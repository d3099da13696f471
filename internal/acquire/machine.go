// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package acquire

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/pdiddy/paperfetch/internal/httputil"
	"github.com/pdiddy/paperfetch/internal/observability"
	"github.com/pdiddy/paperfetch/internal/result"
	"github.com/pdiddy/paperfetch/pkg/types"
)

const (
	archiveName    = "source.tar.gz"
	singleFileName = "main.tex"
)

// State is a step of the document-acquisition machine.
type State int

const (
	StateFetchArchive State = iota
	StateDetectFormat
	StateExtractArchive
	StateFindSources
	StateFetchRendered
	StateDone
)

func (s State) String() string {
	switch s {
	case StateFetchArchive:
		return "fetch_archive"
	case StateDetectFormat:
		return "detect_format"
	case StateExtractArchive:
		return "extract_archive"
	case StateFindSources:
		return "find_sources"
	case StateFetchRendered:
		return "fetch_rendered"
	case StateDone:
		return "done"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Machine acquires arXiv documents, preferring the typesetting source and
// falling back to the rendered PDF when the source cannot be obtained.
type Machine struct {
	Client  *http.Client
	Config  types.AcquisitionConfig
	Logger  *zerolog.Logger
	Metrics *observability.Metrics

	// Pacer is applied between consecutive identifiers in Batch. Nil
	// selects the policy described by Config.Pacing.
	Pacer httputil.Pacer
}

// attempt carries the state of one identifier through the machine.
type attempt struct {
	id       string
	slug     string
	dir      string
	archive  string
	format   PayloadFormat
	fallback string
	outcome  types.DownloadOutcome

	// extracted lists the files written by this attempt's archive, so
	// leftovers from earlier runs in dir are never reported.
	extracted []string
}

// Run drives one identifier through the machine and returns its outcome.
// Every failure of the source path is absorbed into a rendered-document
// attempt; only a failed rendered download produces a failure outcome.
func (m *Machine) Run(ctx context.Context, identifier string) types.DownloadOutcome {
	return m.run(ctx, identifier, m.logger())
}

func (m *Machine) run(ctx context.Context, identifier string, log zerolog.Logger) types.DownloadOutcome {
	idType, id := Classify(identifier)
	if idType != TypeArxiv {
		out := types.DownloadOutcome{
			Identifier: identifier,
			Kind:       types.OutcomeDownloadFailed,
			Files:      []string{},
			Message:    fmt.Sprintf("unrecognized arXiv identifier %q", identifier),
		}
		m.Metrics.ObserveDownload("arxiv", string(out.Kind), "", false)
		return out
	}

	a := &attempt{
		id:   id,
		slug: Slug(id),
		outcome: types.DownloadOutcome{
			Identifier: identifier,
			Files:      []string{},
		},
	}
	a.dir = filepath.Join(m.Config.OutputDir, a.slug)
	a.archive = filepath.Join(a.dir, archiveName)

	log = log.With().Str("id", id).Logger()
	state := StateFetchArchive
	for state != StateDone {
		next := m.step(ctx, state, a, log)
		log.Debug().Stringer("state", state).Stringer("next", next).Msg("transition")
		state = next
	}

	a.outcome.FallbackReason = a.fallback
	m.Metrics.ObserveDownload("arxiv", string(a.outcome.Kind), string(a.outcome.Format), a.fallback != "")
	log.Info().
		Str("kind", string(a.outcome.Kind)).
		Str("format", string(a.outcome.Format)).
		Str("fallback_reason", a.fallback).
		Msg("acquired")
	return a.outcome
}

func (m *Machine) step(ctx context.Context, s State, a *attempt, log zerolog.Logger) State {
	switch s {
	case StateFetchArchive:
		return m.fetchArchive(ctx, a)
	case StateDetectFormat:
		return m.detectFormat(a)
	case StateExtractArchive:
		return m.extractArchive(a)
	case StateFindSources:
		return m.findSources(a)
	case StateFetchRendered:
		return m.fetchRendered(ctx, a, log)
	default:
		return StateDone
	}
}

func (m *Machine) fetchArchive(ctx context.Context, a *attempt) State {
	if err := os.MkdirAll(a.dir, 0o755); err != nil {
		return a.fallbackTo(fmt.Sprintf("source extraction error: %v", err))
	}
	if _, err := downloadFile(ctx, m.Client, m.Config.HTTPConfig, SourceURL(a.id), a.archive, nil); err != nil {
		return a.fallbackTo(fmt.Sprintf("source download failed: %v", err))
	}
	return StateDetectFormat
}

func (m *Machine) detectFormat(a *attempt) State {
	prefix, err := readPrefix(a.archive, 2)
	if err != nil {
		return a.fallbackTo(fmt.Sprintf("source extraction error: %v", err))
	}
	// A one-byte payload still takes the single-file path below; only an
	// empty body has nothing to keep.
	if len(prefix) == 0 {
		os.Remove(a.archive)
		return a.fallbackTo("source extraction error: empty source payload")
	}
	a.format = DetectFormat(prefix)
	if a.format == FormatGzip {
		return StateExtractArchive
	}

	if err := os.Rename(a.archive, filepath.Join(a.dir, singleFileName)); err != nil {
		return a.fallbackTo(fmt.Sprintf("source extraction error: %v", err))
	}
	a.succeedSource([]string{singleFileName})
	return StateDone
}

func (m *Machine) extractArchive(a *attempt) State {
	files, err := extractTarGz(a.archive, a.dir)
	os.Remove(a.archive)
	if err != nil {
		return a.fallbackTo(fmt.Sprintf("source extraction error: %v", err))
	}
	a.extracted = files
	return StateFindSources
}

func (m *Machine) findSources(a *attempt) State {
	files := sourceFiles(a.extracted)
	if len(files) == 0 {
		return a.fallbackTo("no source files found in archive")
	}
	a.succeedSource(files)
	return StateDone
}

func (m *Machine) fetchRendered(ctx context.Context, a *attempt, log zerolog.Logger) State {
	name := a.slug + ".pdf"
	path := filepath.Join(m.Config.OutputDir, name)
	a.outcome.Format = types.FormatRendered
	// Drops the source directory only if the failed attempt left it empty.
	_ = os.Remove(a.dir)

	log.Debug().Str("fallback_reason", a.fallback).Msg("fetching rendered document")
	if _, err := downloadFile(ctx, m.Client, m.Config.HTTPConfig, RenderedURL(a.id), path, nil); err != nil {
		a.outcome.Kind = types.OutcomeDownloadFailed
		a.outcome.Message = fmt.Sprintf("rendered document download failed: %v", err)
		return StateDone
	}

	a.outcome.Kind = types.OutcomeSuccess
	a.outcome.Success = true
	a.outcome.Path = path
	a.outcome.Files = []string{name}
	a.outcome.Message = "Downloaded rendered document"
	return StateDone
}

// fallbackTo records why the source path was abandoned.
func (a *attempt) fallbackTo(reason string) State {
	a.fallback = reason
	return StateFetchRendered
}

func (a *attempt) succeedSource(files []string) {
	a.outcome.Kind = types.OutcomeSuccess
	a.outcome.Success = true
	a.outcome.Format = types.FormatSource
	a.outcome.Path = a.dir
	a.outcome.Files = files
	a.outcome.Message = fmt.Sprintf("Extracted %d source file(s)", len(files))
}

// readPrefix returns up to n leading bytes of the file at path.
func readPrefix(path string, n int) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	buf := make([]byte, n)
	read, err := io.ReadFull(f, buf)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return nil, err
	}
	return buf[:read], nil
}

// Batch runs every identifier through the machine, one at a time, pacing
// between consecutive items. The output directory must be absolute and is
// created if missing. Per-item failures never abort the batch; a cancelled
// context marks the remaining identifiers as failed.
func (m *Machine) Batch(ctx context.Context, identifiers []string) (types.BatchResult, error) {
	batch := types.BatchResult{OutputDir: m.Config.OutputDir, Outcomes: []types.DownloadOutcome{}}

	ids := trimNonEmpty(identifiers)
	if len(ids) == 0 {
		return batch, result.New(result.KindInvalidParams, "arxiv_ids must be a non-empty array")
	}
	if !filepath.IsAbs(m.Config.OutputDir) {
		return batch, result.New(result.KindInvalidParams, "output_dir must be an absolute path, got: %s", m.Config.OutputDir)
	}
	if err := os.MkdirAll(m.Config.OutputDir, 0o755); err != nil {
		return batch, result.New(result.KindFilesystem, "Failed to create output directory: %v", err)
	}

	pacer := m.Pacer
	if pacer == nil {
		pacer = httputil.NewPacer(m.Config.Pacing)
	}
	log := observability.WithBatch(m.logger(), "arxiv", uuid.NewString())
	log.Info().Int("total", len(ids)).Str("output_dir", m.Config.OutputDir).Msg("starting batch")

	for i, id := range ids {
		if i > 0 {
			if err := pacer.Wait(ctx); err != nil {
				cancelRemaining(&batch, ids[i:], err)
				break
			}
		}
		batch.Add(m.run(ctx, id, log))
	}

	log.Info().
		Int("total", batch.Total).
		Int("success", batch.Success).
		Int("failed", batch.Failed).
		Msg("batch complete")
	return batch, nil
}

func (m *Machine) logger() zerolog.Logger {
	if m.Logger == nil {
		return zerolog.Nop()
	}
	return *m.Logger
}

// trimNonEmpty trims each entry and drops blanks.
func trimNonEmpty(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// cancelRemaining records every unprocessed identifier as failed so the
// batch counts still cover the whole input.
func cancelRemaining(batch *types.BatchResult, ids []string, err error) {
	for _, id := range ids {
		batch.Add(types.DownloadOutcome{
			Identifier: id,
			Kind:       types.OutcomeDownloadFailed,
			Files:      []string{},
			Message:    fmt.Sprintf("cancelled: %v", err),
		})
	}
}

// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package acquire

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/paperfetch/internal/httputil"
	"github.com/pdiddy/paperfetch/internal/observability"
	"github.com/pdiddy/paperfetch/internal/result"
	"github.com/pdiddy/paperfetch/pkg/types"
)

const fakePDF = "%PDF-1.5 fake"

// arxivServer serves /src/<id> and /pdf/<id>.pdf from in-memory maps. A
// missing entry is a 404.
type arxivServer struct {
	mu       sync.Mutex
	sources  map[string][]byte
	pdfs     map[string]bool
	requests []string

	// encoding, when set, is sent as Content-Encoding on source responses
	// regardless of what the client asked for.
	encoding string
	accepted []string
}

func (s *arxivServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.requests = append(s.requests, r.URL.Path)

	switch {
	case strings.HasPrefix(r.URL.Path, "/src/"):
		body, ok := s.sources[strings.TrimPrefix(r.URL.Path, "/src/")]
		if !ok {
			http.NotFound(w, r)
			return
		}
		s.accepted = append(s.accepted, r.Header.Get("Accept-Encoding"))
		w.Header().Set("Content-Type", "application/x-eprint-tar")
		if s.encoding != "" {
			w.Header().Set("Content-Encoding", s.encoding)
		}
		w.Write(body)
	case strings.HasPrefix(r.URL.Path, "/pdf/"):
		id := strings.TrimSuffix(strings.TrimPrefix(r.URL.Path, "/pdf/"), ".pdf")
		if !s.pdfs[id] {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/pdf")
		w.Write([]byte(fakePDF))
	default:
		http.NotFound(w, r)
	}
}

// requested reports whether path was requested.
func (s *arxivServer) requested(path string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range s.requests {
		if r == path {
			return true
		}
	}
	return false
}

func (s *arxivServer) requestCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.requests)
}

func newArxivServer(t *testing.T) *arxivServer {
	t.Helper()
	srv := &arxivServer{sources: map[string][]byte{}, pdfs: map[string]bool{}}
	ts := httptest.NewServer(srv)

	oldSrc, oldPDF := arxivSourceBase, arxivPDFBase
	arxivSourceBase = ts.URL + "/src/"
	arxivPDFBase = ts.URL + "/pdf/"
	t.Cleanup(func() {
		arxivSourceBase, arxivPDFBase = oldSrc, oldPDF
		ts.Close()
	})
	return srv
}

func newMachine(outDir string) *Machine {
	return &Machine{
		Client: http.DefaultClient,
		Config: types.AcquisitionConfig{
			HTTPConfig: types.HTTPConfig{Timeout: 5 * time.Second, UserAgent: "test/0.1"},
			OutputDir:  outDir,
		},
		Pacer: httputil.NoPacing{},
	}
}

func TestMachineRunSourceArchive(t *testing.T) {
	srv := newArxivServer(t)
	srv.sources["2301.07041"] = makeTarGz(t, []tarEntry{
		{Name: "main.tex", Body: `\documentclass{article}`},
		{Name: "sec/body.tex", Body: "body"},
	})

	out := t.TempDir()
	o := newMachine(out).Run(context.Background(), "2301.07041")

	assert.Equal(t, types.OutcomeSuccess, o.Kind)
	assert.True(t, o.Success)
	assert.Equal(t, types.FormatSource, o.Format)
	assert.Equal(t, filepath.Join(out, "2301.07041"), o.Path)
	assert.Equal(t, []string{"main.tex", "sec/body.tex"}, o.Files)
	assert.Empty(t, o.FallbackReason)
	assert.NoFileExists(t, filepath.Join(o.Path, archiveName), "archive should be removed after extraction")
	for _, f := range o.Files {
		assert.FileExists(t, filepath.Join(o.Path, f))
	}
	assert.False(t, srv.requested("/pdf/2301.07041.pdf"))
}

func TestMachineRunSingleFile(t *testing.T) {
	srv := newArxivServer(t)
	srv.sources["2301.00001"] = []byte(`\documentclass{article}\begin{document}hi\end{document}`)

	out := t.TempDir()
	o := newMachine(out).Run(context.Background(), "2301.00001")

	assert.Equal(t, types.OutcomeSuccess, o.Kind)
	assert.Equal(t, types.FormatSource, o.Format)
	assert.Equal(t, []string{"main.tex"}, o.Files)
	assert.FileExists(t, filepath.Join(out, "2301.00001", "main.tex"))
	assert.NoFileExists(t, filepath.Join(out, "2301.00001", archiveName))
}

// An archive endpoint returning 404 falls back to the rendered document and
// records the status in the fallback reason.
func TestMachineRunFallbackOn404(t *testing.T) {
	srv := newArxivServer(t)
	srv.pdfs["2401.12345"] = true

	out := t.TempDir()
	o := newMachine(out).Run(context.Background(), "2401.12345")

	assert.Equal(t, types.OutcomeSuccess, o.Kind)
	assert.Equal(t, types.FormatRendered, o.Format)
	assert.Contains(t, o.FallbackReason, "404")
	assert.Equal(t, "source download failed: HTTP 404", o.FallbackReason)
	assert.Equal(t, filepath.Join(out, "2401.12345.pdf"), o.Path)
	assert.Equal(t, []string{"2401.12345.pdf"}, o.Files)

	data, err := os.ReadFile(o.Path)
	require.NoError(t, err)
	assert.Equal(t, fakePDF, string(data))
}

func TestMachineRunFallbackReasons(t *testing.T) {
	tests := []struct {
		name       string
		source     func(t *testing.T) []byte
		wantReason string
	}{
		{
			name: "archive without sources",
			source: func(t *testing.T) []byte {
				return makeTarGz(t, []tarEntry{{Name: "paper.pdf", Body: "%PDF"}})
			},
			wantReason: "no source files found in archive",
		},
		{
			name: "corrupt gzip",
			source: func(t *testing.T) []byte {
				return []byte{0x1F, 0x8B, 0xDE, 0xAD, 0xBE, 0xEF}
			},
			wantReason: "source extraction error: ",
		},
		{
			name: "empty payload",
			source: func(t *testing.T) []byte {
				return []byte{}
			},
			wantReason: "source extraction error: empty source payload",
		},
		{
			name: "path traversal entry",
			source: func(t *testing.T) []byte {
				return makeTarGz(t, []tarEntry{{Name: "../escape.tex", Body: "x"}})
			},
			wantReason: "source extraction error: ",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newArxivServer(t)
			srv.sources["2301.07041"] = tt.source(t)
			srv.pdfs["2301.07041"] = true

			out := t.TempDir()
			o := newMachine(out).Run(context.Background(), "2301.07041")

			assert.Equal(t, types.OutcomeSuccess, o.Kind)
			assert.Equal(t, types.FormatRendered, o.Format)
			assert.True(t, strings.HasPrefix(o.FallbackReason, tt.wantReason), "FallbackReason = %q", o.FallbackReason)
			assert.NoFileExists(t, filepath.Join(out, "escape.tex"))
		})
	}
}

func TestMachineRunIgnoresStaleSources(t *testing.T) {
	srv := newArxivServer(t)
	srv.sources["2301.07041"] = makeTarGz(t, []tarEntry{{Name: "paper.pdf", Body: "%PDF"}})
	srv.pdfs["2301.07041"] = true

	out := t.TempDir()
	stale := filepath.Join(out, "2301.07041")
	require.NoError(t, os.MkdirAll(stale, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(stale, "old.tex"), []byte("stale"), 0o644))

	o := newMachine(out).Run(context.Background(), "2301.07041")

	assert.Equal(t, types.OutcomeSuccess, o.Kind)
	assert.Equal(t, types.FormatRendered, o.Format)
	assert.Equal(t, "no source files found in archive", o.FallbackReason)
	assert.Equal(t, []string{"2301.07041.pdf"}, o.Files)
}

// A server that labels the tarball with Content-Encoding: gzip must not
// cause it to be decompressed before format detection.
func TestMachineRunGzipContentEncoding(t *testing.T) {
	srv := newArxivServer(t)
	srv.encoding = "gzip"
	srv.sources["2301.07041"] = makeTarGz(t, []tarEntry{{Name: "main.tex", Body: `\documentclass{article}`}})

	o := newMachine(t.TempDir()).Run(context.Background(), "2301.07041")

	assert.Equal(t, types.OutcomeSuccess, o.Kind)
	assert.Equal(t, types.FormatSource, o.Format)
	assert.Equal(t, []string{"main.tex"}, o.Files)
	assert.Empty(t, o.FallbackReason)

	srv.mu.Lock()
	defer srv.mu.Unlock()
	assert.Equal(t, []string{"identity"}, srv.accepted)
}

// A payload shorter than the gzip magic takes the single-file path.
func TestMachineRunShortPayload(t *testing.T) {
	srv := newArxivServer(t)
	srv.sources["2301.00002"] = []byte{0x1F}

	o := newMachine(t.TempDir()).Run(context.Background(), "2301.00002")
	assert.Equal(t, types.OutcomeSuccess, o.Kind)
	assert.Equal(t, types.FormatSource, o.Format)
	assert.Equal(t, []string{singleFileName}, o.Files)
	assert.Empty(t, o.FallbackReason)
}

func TestMachineRunRenderedFailure(t *testing.T) {
	newArxivServer(t)

	out := t.TempDir()
	o := newMachine(out).Run(context.Background(), "2301.99999")

	assert.Equal(t, types.OutcomeDownloadFailed, o.Kind)
	assert.False(t, o.Success)
	assert.Equal(t, types.FormatRendered, o.Format)
	assert.Equal(t, "rendered document download failed: HTTP 404", o.Message)
	assert.Equal(t, "source download failed: HTTP 404", o.FallbackReason)
	assert.Empty(t, o.Path)
	assert.NoFileExists(t, filepath.Join(out, "2301.99999.pdf"))
}

func TestMachineRunOldStyleID(t *testing.T) {
	srv := newArxivServer(t)
	srv.pdfs["hep-th/9901001"] = true

	out := t.TempDir()
	o := newMachine(out).Run(context.Background(), "hep-th/9901001")

	assert.Equal(t, types.OutcomeSuccess, o.Kind)
	assert.Equal(t, filepath.Join(out, "hep-th_9901001.pdf"), o.Path)
	assert.True(t, srv.requested("/src/hep-th/9901001"))
}

func TestMachineRunUnrecognizedID(t *testing.T) {
	srv := newArxivServer(t)
	o := newMachine(t.TempDir()).Run(context.Background(), "../../etc")
	assert.Equal(t, types.OutcomeDownloadFailed, o.Kind)
	assert.Zero(t, srv.requestCount())
}

func TestMachineBatch(t *testing.T) {
	srv := newArxivServer(t)
	srv.sources["2301.00001"] = makeTarGz(t, []tarEntry{{Name: "a.tex", Body: "a"}})
	srv.pdfs["2301.00002"] = true

	out := filepath.Join(t.TempDir(), "nested", "papers")
	m := newMachine(out)
	m.Metrics = observability.NewMetrics()

	batch, err := m.Batch(context.Background(), []string{"2301.00001", " ", "2301.00002", "2301.00003"})
	require.NoError(t, err)

	assert.Equal(t, out, batch.OutputDir)
	assert.Equal(t, 3, batch.Total)
	assert.Equal(t, 2, batch.Success)
	assert.Equal(t, 1, batch.Failed)
	assert.Equal(t, batch.Total, batch.Success+batch.NotOpenAccess+batch.Failed)
	require.Len(t, batch.Outcomes, 3)
	assert.Equal(t, "2301.00001", batch.Outcomes[0].Identifier)
	assert.Equal(t, types.FormatSource, batch.Outcomes[0].Format)
	assert.Equal(t, types.FormatRendered, batch.Outcomes[1].Format)
	assert.True(t, batch.HasFailures())

	assert.Equal(t, 2.0, testutil.ToFloat64(m.Metrics.Fallbacks))
}

func TestMachineBatchValidation(t *testing.T) {
	tests := []struct {
		name     string
		outDir   string
		ids      []string
		wantKind result.Kind
	}{
		{"empty ids", "/tmp/x", nil, result.KindInvalidParams},
		{"blank ids", "/tmp/x", []string{"", "  "}, result.KindInvalidParams},
		{"relative dir", "papers", []string{"2301.00001"}, result.KindInvalidParams},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := newMachine(tt.outDir).Batch(context.Background(), tt.ids)
			var re *result.Error
			require.True(t, errors.As(err, &re), "err = %v", err)
			assert.Equal(t, tt.wantKind, re.Kind)
		})
	}
}

func TestMachineBatchFilesystemError(t *testing.T) {
	blocker := filepath.Join(t.TempDir(), "file")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o644))

	_, err := newMachine(filepath.Join(blocker, "sub")).Batch(context.Background(), []string{"2301.00001"})
	var re *result.Error
	require.True(t, errors.As(err, &re), "err = %v", err)
	assert.Equal(t, result.KindFilesystem, re.Kind)
}

// failingPacer lets the first n waits through and then fails.
type failingPacer struct {
	n   int
	err error
}

func (p *failingPacer) Wait(context.Context) error {
	if p.n > 0 {
		p.n--
		return nil
	}
	return p.err
}

func TestMachineBatchCancelledCountsRemaining(t *testing.T) {
	srv := newArxivServer(t)
	srv.pdfs["2301.00001"] = true

	m := newMachine(t.TempDir())
	m.Pacer = &failingPacer{err: context.Canceled}

	batch, err := m.Batch(context.Background(), []string{"2301.00001", "2301.00002", "2301.00003"})
	require.NoError(t, err)
	assert.Equal(t, 3, batch.Total)
	assert.Equal(t, 1, batch.Success)
	assert.Equal(t, 2, batch.Failed)
	assert.Contains(t, batch.Outcomes[2].Message, "cancelled")
	assert.False(t, srv.requested("/src/2301.00002"))
}

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

	"github.com/pdiddy/paperfetch/internal/httputil"
	"github.com/pdiddy/paperfetch/pkg/types"
)

// ErrNotDocument is returned when a response's content type does not look
// like a document (typically an HTML landing page).
var ErrNotDocument = errors.New("response is not a document")

// StatusError reports a non-2xx HTTP response.
type StatusError struct {
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("HTTP %d", e.Code)
}

// get issues a GET with the configured User-Agent and returns the response
// only for 2xx statuses. Other statuses come back as *StatusError.
func get(ctx context.Context, client *http.Client, cfg types.HTTPConfig, url string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	if cfg.UserAgent != "" {
		req.Header.Set("User-Agent", cfg.UserAgent)
	}
	// Payload format is sniffed from the raw bytes, so the transport must
	// not transparently decompress a gzip-encoded response.
	req.Header.Set("Accept-Encoding", "identity")

	resp, err := httputil.DoWithRetry(ctx, client, req, cfg.MaxRetries)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		resp.Body.Close()
		return nil, &StatusError{Code: resp.StatusCode}
	}
	return resp, nil
}

// downloadFile fetches url to destPath using a temporary file in the same
// directory, renamed into place only after the body is fully written.
// When accept is non-nil it is consulted with the response Content-Type
// before anything is written; a false result yields ErrNotDocument.
func downloadFile(ctx context.Context, client *http.Client, cfg types.HTTPConfig, url, destPath string, accept func(contentType string) bool) (int64, error) {
	resp, err := get(ctx, client, cfg, url)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	if accept != nil {
		if ct := resp.Header.Get("Content-Type"); !accept(ct) {
			return 0, fmt.Errorf("%w: content type %q", ErrNotDocument, ct)
		}
	}

	tmpFile, err := os.CreateTemp(filepath.Dir(destPath), ".download-*.tmp")
	if err != nil {
		return 0, fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmpFile.Name()

	n, copyErr := io.Copy(tmpFile, resp.Body)
	closeErr := tmpFile.Close()
	if copyErr != nil {
		os.Remove(tmpPath)
		return 0, fmt.Errorf("writing download: %w", copyErr)
	}
	if closeErr != nil {
		os.Remove(tmpPath)
		return 0, fmt.Errorf("closing temp file: %w", closeErr)
	}

	if err := os.Rename(tmpPath, destPath); err != nil {
		os.Remove(tmpPath)
		return 0, fmt.Errorf("renaming temp file: %w", err)
	}
	return n, nil
}

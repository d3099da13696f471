// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package acquire

import (
	"archive/tar"
	"compress/gzip"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// sourceExt is the extension of typesetting source files.
const sourceExt = ".tex"

// maxExtractBytes bounds the total uncompressed size of one archive.
const maxExtractBytes = 1 << 30

// extractTarGz unpacks a gzip-compressed tar archive into dir and returns
// the regular files it wrote, relative to dir with forward slashes. Entries
// whose cleaned path would land outside dir are rejected, as are links;
// only regular files and directories are written.
func extractTarGz(archivePath, dir string) ([]string, error) {
	f, err := os.Open(archivePath)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	gz, err := gzip.NewReader(f)
	if err != nil {
		return nil, fmt.Errorf("opening gzip stream: %w", err)
	}
	defer gz.Close()

	root, err := filepath.Abs(dir)
	if err != nil {
		return nil, err
	}

	var (
		files   []string
		written int64
	)
	tr := tar.NewReader(gz)
	for {
		hdr, err := tr.Next()
		if errors.Is(err, io.EOF) {
			return files, nil
		}
		if err != nil {
			return files, fmt.Errorf("reading tar entry: %w", err)
		}

		target, err := safeJoin(root, hdr.Name)
		if err != nil {
			return files, err
		}

		switch hdr.Typeflag {
		case tar.TypeDir:
			if err := os.MkdirAll(target, 0o755); err != nil {
				return files, err
			}
		case tar.TypeReg:
			if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
				return files, err
			}
			n, err := writeEntry(target, tr, maxExtractBytes-written)
			if err != nil {
				return files, fmt.Errorf("extracting %s: %w", hdr.Name, err)
			}
			written += n
			rel, err := filepath.Rel(root, target)
			if err != nil {
				return files, err
			}
			files = append(files, filepath.ToSlash(rel))
		default:
			// Symlinks, devices and the like are skipped.
		}
	}
}

// safeJoin resolves name under root and rejects paths that escape it.
func safeJoin(root, name string) (string, error) {
	if filepath.IsAbs(name) {
		return "", fmt.Errorf("archive entry %q has an absolute path", name)
	}
	target := filepath.Join(root, name)
	if target != root && !strings.HasPrefix(target, root+string(filepath.Separator)) {
		return "", fmt.Errorf("archive entry %q escapes the extraction directory", name)
	}
	return target, nil
}

func writeEntry(target string, r io.Reader, budget int64) (int64, error) {
	out, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return 0, err
	}
	n, copyErr := io.Copy(out, io.LimitReader(r, budget+1))
	closeErr := out.Close()
	if copyErr != nil {
		return n, copyErr
	}
	if n > budget {
		return n, errors.New("archive exceeds the extraction size limit")
	}
	return n, closeErr
}

// sourceFiles returns the .tex entries of names, deduplicated, in lexical
// order. A name repeated in the archive was overwritten in place.
func sourceFiles(names []string) []string {
	seen := make(map[string]bool, len(names))
	var files []string
	for _, name := range names {
		if !strings.HasSuffix(name, sourceExt) || seen[name] {
			continue
		}
		seen[name] = true
		files = append(files, name)
	}
	sort.Strings(files)
	return files
}

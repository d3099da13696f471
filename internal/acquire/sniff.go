// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package acquire

import "strings"

// PayloadFormat is the container format of a downloaded source payload.
type PayloadFormat int

const (
	// FormatSingleFile is an uncompressed single source file.
	FormatSingleFile PayloadFormat = iota
	// FormatGzip is a gzip-compressed tar archive.
	FormatGzip
)

func (f PayloadFormat) String() string {
	if f == FormatGzip {
		return "gzip"
	}
	return "single_file"
}

// DetectFormat classifies a payload by its leading bytes. Only the gzip
// magic number 0x1F 0x8B selects FormatGzip; anything else, including a
// prefix shorter than two bytes, is a single file.
func DetectFormat(prefix []byte) PayloadFormat {
	if len(prefix) >= 2 && prefix[0] == 0x1F && prefix[1] == 0x8B {
		return FormatGzip
	}
	return FormatSingleFile
}

// IsDocumentContentType reports whether a Content-Type header looks like a
// downloadable document: it contains "pdf" or "octet-stream", compared
// case-insensitively. This is a best-effort heuristic. A server that labels
// an HTML error page as octet-stream passes, and a PDF served under an
// unusual type is rejected.
func IsDocumentContentType(contentType string) bool {
	ct := strings.ToLower(contentType)
	return strings.Contains(ct, "pdf") || strings.Contains(ct, "octet-stream")
}

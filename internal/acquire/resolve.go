// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package acquire

import (
	"regexp"
	"strings"
)

// IdentifierType classifies an input identifier.
type IdentifierType int

const (
	TypeUnknown IdentifierType = iota
	TypeArxiv
	TypeDOI
)

func (t IdentifierType) String() string {
	switch t {
	case TypeArxiv:
		return "arxiv"
	case TypeDOI:
		return "doi"
	default:
		return "unknown"
	}
}

// Base URLs for the arXiv document endpoints. Declared as vars so tests can
// substitute httptest servers.
var (
	arxivSourceBase = "https://arxiv.org/src/"
	arxivPDFBase    = "https://arxiv.org/pdf/"
)

// arxivPattern matches new-style ("2301.07041", "2301.07041v2") and
// old-style ("hep-th/9901001") arXiv IDs, with an optional "arXiv:" prefix.
var arxivPattern = regexp.MustCompile(`^(?i:arxiv:)?(\d{4}\.\d{4,5}(?:v\d+)?|[a-z\-]+(?:\.[A-Z]{2})?/\d{7}(?:v\d+)?)$`)

// doiPattern matches DOIs: "10.1145/1234567.1234568".
var doiPattern = regexp.MustCompile(`^10\.\d{4,9}/\S+$`)

// arxivAbsPrefixes are stripped before classification.
var arxivAbsPrefixes = []string{
	"https://arxiv.org/abs/",
	"http://arxiv.org/abs/",
	"https://export.arxiv.org/abs/",
	"http://export.arxiv.org/abs/",
}

// doiPrefixes are resolver prefixes stripped from DOIs.
var doiPrefixes = []string{"https://doi.org/", "http://doi.org/", "https://dx.doi.org/", "doi:"}

// Classify determines the identifier type and returns the normalized form.
// For arXiv it strips abs-page URLs and the "arXiv:" prefix but keeps an
// explicit version; for DOIs it strips resolver prefixes.
func Classify(identifier string) (IdentifierType, string) {
	identifier = strings.TrimSpace(identifier)

	arxivID := identifier
	for _, p := range arxivAbsPrefixes {
		arxivID = strings.TrimPrefix(arxivID, p)
	}
	if m := arxivPattern.FindStringSubmatch(arxivID); m != nil {
		return TypeArxiv, m[1]
	}

	doi := identifier
	for _, p := range doiPrefixes {
		if len(doi) >= len(p) && strings.EqualFold(doi[:len(p)], p) {
			doi = doi[len(p):]
			break
		}
	}
	if doiPattern.MatchString(doi) {
		return TypeDOI, doi
	}

	return TypeUnknown, identifier
}

// Slug returns a filesystem-safe name for an arXiv identifier: old-style
// IDs contain a slash, which becomes an underscore.
func Slug(arxivID string) string {
	return strings.ReplaceAll(arxivID, "/", "_")
}

// SanitizeDOI returns a filesystem-safe filename stem for a DOI by
// replacing '/', '\' and ':' with '_'.
func SanitizeDOI(doi string) string {
	return strings.NewReplacer("/", "_", `\`, "_", ":", "_").Replace(doi)
}

// SourceURL returns the source-archive endpoint for an arXiv ID.
func SourceURL(arxivID string) string {
	return arxivSourceBase + arxivID
}

// RenderedURL returns the rendered-document endpoint for an arXiv ID.
func RenderedURL(arxivID string) string {
	return arxivPDFBase + arxivID + ".pdf"
}

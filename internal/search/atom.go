// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"html"
	"regexp"
	"strings"
	"time"

	"github.com/pdiddy/paperfetch/pkg/types"
)

// arxivPDFBase is the conventional rendered-document URL used when an
// entry carries no explicit PDF link.
var arxivPDFBase = "https://arxiv.org/pdf/"

// The arXiv Atom feed has a fixed, shallow shape, so entries are scanned
// with tag-scoped patterns instead of a general XML decoder. Unknown
// elements are ignored and a malformed entry only loses its own fields.
var (
	entryPattern    = regexp.MustCompile(`(?s)<entry(?:\s[^>]*)?>(.*?)</entry>`)
	authorPattern   = regexp.MustCompile(`(?s)<author(?:\s[^>]*)?>\s*<name>([^<]+)</name>`)
	linkPattern     = regexp.MustCompile(`<link\s[^>]*>`)
	attrPattern     = regexp.MustCompile(`([a-zA-Z:]+)="([^"]*)"`)
	categoryPattern = regexp.MustCompile(`<category\s[^>]*term="([^"]+)"`)
	versionSuffix   = regexp.MustCompile(`v\d+$`)
	whitespace      = regexp.MustCompile(`\s+`)

	tagPatterns = map[string]*regexp.Regexp{}
)

func init() {
	for _, tag := range []string{"id", "title", "summary", "published", "updated", "arxiv:doi"} {
		tagPatterns[tag] = regexp.MustCompile(`(?s)<` + tag + `(?:\s[^>]*)?>(.*?)</` + tag + `>`)
	}
}

// arxivIDPrefixes are stripped from entry IDs, most specific first.
var arxivIDPrefixes = []string{
	"http://arxiv.org/abs/",
	"https://arxiv.org/abs/",
	"http://export.arxiv.org/abs/",
	"https://export.arxiv.org/abs/",
	"arXiv:",
	"arxiv:",
}

// NormalizeArxivID strips the abs-URL or "arXiv:" prefix and a trailing
// version suffix: "http://arxiv.org/abs/2301.07041v2" → "2301.07041".
// Applying it twice gives the same result as applying it once.
func NormalizeArxivID(raw string) string {
	id := strings.TrimSpace(raw)
	for _, p := range arxivIDPrefixes {
		if strings.HasPrefix(id, p) {
			id = id[len(p):]
			break
		}
	}
	return versionSuffix.ReplaceAllString(id, "")
}

// ParseAtom extracts works from a raw arXiv Atom feed. Entries without a
// title or identifier are skipped; an empty or malformed feed yields no
// works.
func ParseAtom(raw string) []types.Work {
	var works []types.Work
	for _, m := range entryPattern.FindAllStringSubmatch(raw, -1) {
		if w, ok := parseEntry(m[1]); ok {
			works = append(works, w)
		}
	}
	return works
}

func parseEntry(entry string) (types.Work, bool) {
	w := types.Work{
		Source:     types.SourceArxiv,
		Identifier: NormalizeArxivID(tagText(entry, "id")),
		Title:      collapse(tagText(entry, "title")),
		Abstract:   collapse(tagText(entry, "summary")),
		Authors:    []string{},
	}
	if w.Title == "" || w.Identifier == "" {
		return types.Work{}, false
	}

	if t, err := time.Parse(time.RFC3339, tagText(entry, "published")); err == nil {
		w.Published = t
		w.Year = t.Year()
	}
	if t, err := time.Parse(time.RFC3339, tagText(entry, "updated")); err == nil {
		w.Updated = t
	}

	for _, m := range authorPattern.FindAllStringSubmatch(entry, -1) {
		if name := collapse(html.UnescapeString(m[1])); name != "" {
			w.Authors = append(w.Authors, name)
		}
	}

	w.PDFURL = pdfLink(entry)
	if w.PDFURL == "" {
		w.PDFURL = arxivPDFBase + w.Identifier
	}
	w.IsOpenAccess = true
	w.OpenAccessURL = w.PDFURL

	for _, m := range categoryPattern.FindAllStringSubmatch(entry, -1) {
		w.Categories = append(w.Categories, m[1])
	}

	if doi := tagText(entry, "arxiv:doi"); doi != "" {
		w.DOI = doi
	}
	return w, true
}

// tagText returns the trimmed, entity-decoded text of the first <tag>
// element in entry.
func tagText(entry, tag string) string {
	m := tagPatterns[tag].FindStringSubmatch(entry)
	if m == nil {
		return ""
	}
	return strings.TrimSpace(html.UnescapeString(m[1]))
}

// pdfLink returns the href of the <link title="pdf"> element, regardless
// of attribute order.
func pdfLink(entry string) string {
	for _, tag := range linkPattern.FindAllString(entry, -1) {
		attrs := map[string]string{}
		for _, a := range attrPattern.FindAllStringSubmatch(tag, -1) {
			attrs[a[1]] = a[2]
		}
		if attrs["title"] == "pdf" && attrs["href"] != "" {
			return html.UnescapeString(attrs["href"])
		}
	}
	return ""
}

// collapse replaces every whitespace run with a single space.
func collapse(s string) string {
	return strings.TrimSpace(whitespace.ReplaceAllString(s, " "))
}

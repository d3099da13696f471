// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines shared data structures for the paperfetch pipeline:
// canonical search records (Work, Repository), per-identifier download
// outcomes, batch summaries, and stage configuration.
package types

import "time"

// Source tags the upstream service a record came from.
type Source string

const (
	SourceArxiv    Source = "arxiv"
	SourceOpenAlex Source = "openalex"
	SourceGithub   Source = "github"
)

// Work is the canonical search result for a scholarly work. Every Work
// returned by an adapter has a non-empty Title and Identifier.
type Work struct {
	// Identifier is the source-native ID: an arXiv ID (version stripped) or
	// an OpenAlex work ID (e.g. "W2741809807").
	Identifier string `json:"id" yaml:"id"`

	// Source identifies which adapter produced this record.
	Source Source `json:"source" yaml:"source"`

	// Title is the work title with whitespace collapsed.
	Title string `json:"title" yaml:"title"`

	// Authors lists author display names in source order.
	Authors []string `json:"authors" yaml:"authors"`

	// Abstract is the abstract text. OpenAlex abstracts are reconstructed
	// from an inverted index and truncated.
	Abstract string `json:"abstract" yaml:"abstract"`

	// DOI is the bare DOI without resolver prefix, when known.
	DOI string `json:"doi,omitempty" yaml:"doi,omitempty"`

	// Published is the publication or first-submission date.
	Published time.Time `json:"published,omitzero" yaml:"published,omitempty"`

	// Updated is the last-revision date (arXiv only).
	Updated time.Time `json:"updated,omitzero" yaml:"updated,omitempty"`

	// Year is the publication year.
	Year int `json:"year,omitempty" yaml:"year,omitempty"`

	// Type is the work type reported by the source (e.g. "article").
	Type string `json:"type,omitempty" yaml:"type,omitempty"`

	// Venue is the journal or conference name.
	Venue string `json:"venue,omitempty" yaml:"venue,omitempty"`

	// CitedByCount is the citation count reported by the source.
	CitedByCount int `json:"cited_by_count" yaml:"cited_by_count"`

	// IsOpenAccess reports whether the source marks the work as open access.
	IsOpenAccess bool `json:"is_open_access" yaml:"is_open_access"`

	// OpenAccessURL is the best open-access location, when known.
	OpenAccessURL string `json:"oa_url,omitempty" yaml:"oa_url,omitempty"`

	// PDFURL is the direct rendered-document link (arXiv only).
	PDFURL string `json:"pdf_url,omitempty" yaml:"pdf_url,omitempty"`

	// Categories holds source-specific subject tags (arXiv categories).
	Categories []string `json:"categories,omitempty" yaml:"categories,omitempty"`
}

// Repository is a code repository returned by the GitHub adapter.
type Repository struct {
	// FullName is "owner/name".
	FullName string `json:"name" yaml:"name"`

	// URL is the repository's web URL.
	URL string `json:"url" yaml:"url"`

	// Description is empty when the repository has none.
	Description string `json:"description" yaml:"description"`

	// Stars is the stargazer count.
	Stars int `json:"stars" yaml:"stars"`

	// Language is the primary language, "unknown" when GitHub reports none.
	Language string `json:"language" yaml:"language"`

	// Updated is the last-updated timestamp as reported by GitHub.
	Updated string `json:"updated" yaml:"updated"`

	// Topics lists topic tags; never nil.
	Topics []string `json:"topics" yaml:"topics"`
}

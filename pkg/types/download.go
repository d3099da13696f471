// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// OutcomeKind classifies the result of acquiring one identifier.
type OutcomeKind string

// OutcomeExtractionFailed is part of the outcome taxonomy but is never
// produced by arXiv acquisition: extraction failures fall back to the
// rendered document and surface as a FallbackReason instead.
const (
	OutcomeSuccess          OutcomeKind = "success"
	OutcomeNotOpenAccess    OutcomeKind = "not_open_access"
	OutcomeNoDocumentURL    OutcomeKind = "no_document_url"
	OutcomeExtractionFailed OutcomeKind = "extraction_failed"
	OutcomeDownloadFailed   OutcomeKind = "download_failed"
	OutcomeAPIError         OutcomeKind = "api_error"
)

// DocumentFormat is the format that was finally retrieved.
type DocumentFormat string

const (
	// FormatSource is the typesetting source (.tex files).
	FormatSource DocumentFormat = "source_archive"
	// FormatRendered is the rendered document (PDF).
	FormatRendered DocumentFormat = "rendered_document"
)

// DownloadOutcome records what happened to one identifier in one batch
// invocation. FallbackReason is set if and only if the final format differs
// from the first format attempted.
type DownloadOutcome struct {
	// Identifier is the arXiv ID or DOI as supplied by the caller.
	Identifier string `json:"id" yaml:"id"`

	// Kind is the outcome classification.
	Kind OutcomeKind `json:"status" yaml:"status"`

	// Success is true only when at least one file exists at Path.
	Success bool `json:"success" yaml:"success"`

	// Format is the retrieved (or last attempted) format.
	Format DocumentFormat `json:"format,omitempty" yaml:"format,omitempty"`

	// Path is the absolute directory (source) or file (rendered) written.
	Path string `json:"path,omitempty" yaml:"path,omitempty"`

	// Files lists written files relative to Path's directory.
	Files []string `json:"files" yaml:"files"`

	// Title is the work title when the resolver reports one.
	Title string `json:"title,omitempty" yaml:"title,omitempty"`

	// Message is a human-readable description of the outcome.
	Message string `json:"message" yaml:"message"`

	// FallbackReason explains why the preferred format was abandoned.
	FallbackReason string `json:"fallback_reason,omitempty" yaml:"fallback_reason,omitempty"`
}

// BatchResult aggregates the outcomes of one batch invocation.
// Total always equals Success + NotOpenAccess + Failed.
type BatchResult struct {
	OutputDir     string            `json:"output_dir" yaml:"output_dir"`
	Total         int               `json:"total" yaml:"total"`
	Success       int               `json:"success" yaml:"success"`
	NotOpenAccess int               `json:"not_oa" yaml:"not_oa"`
	Failed        int               `json:"failed" yaml:"failed"`
	Outcomes      []DownloadOutcome `json:"results" yaml:"results"`
}

// Add appends an outcome and updates the counters.
func (r *BatchResult) Add(o DownloadOutcome) {
	r.Outcomes = append(r.Outcomes, o)
	r.Total++
	switch o.Kind {
	case OutcomeSuccess:
		r.Success++
	case OutcomeNotOpenAccess:
		r.NotOpenAccess++
	default:
		r.Failed++
	}
}

// HasFailures reports whether any item failed.
func (r BatchResult) HasFailures() bool {
	return r.Failed > 0
}

// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package result defines the envelope every adapter and retrieval operation
// returns, so callers never handle source-specific errors.
package result

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

// Kind is a short machine-readable error tag.
type Kind string

const (
	KindInvalidParams Kind = "invalid_params"
	KindNetwork       Kind = "network_error"
	KindAPI           Kind = "api_error"
	KindRateLimited   Kind = "rate_limited"
	// Acquisition kinds mirror types.OutcomeKind. Per-item acquisition
	// results are reported as outcomes, never returned as errors; these
	// exist so the taxonomy is complete.
	KindNotOpenAccess    Kind = "not_open_access"
	KindNoDocumentURL    Kind = "no_document_url"
	KindExtractionFailed Kind = "extraction_failed"
	KindDownloadFailed   Kind = "download_failed"
	KindFilesystem       Kind = "filesystem_error"
)

// Error is a classified failure. It implements error so it can travel
// through ordinary Go error returns up to the envelope boundary.
type Error struct {
	Kind    Kind   `json:"kind"`
	Message string `json:"message"`
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// New returns an *Error with the given kind.
func New(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// FromStatus classifies a non-success HTTP status from an upstream service.
func FromStatus(service string, status int) *Error {
	text := http.StatusText(status)
	if text == "" {
		return New(KindAPI, "%s API returned %d", service, status)
	}
	return New(KindAPI, "%s API returned %d: %s", service, status, text)
}

// Envelope is the uniform success/error wrapper.
type Envelope struct {
	OK    bool   `json:"ok"`
	Data  any    `json:"data,omitempty"`
	Error *Error `json:"error,omitempty"`
}

// Ok wraps data in a success envelope.
func Ok(data any) Envelope {
	return Envelope{OK: true, Data: data}
}

// Err builds a failure envelope.
func Err(kind Kind, message string) Envelope {
	return Envelope{Error: &Error{Kind: kind, Message: message}}
}

// Errf builds a failure envelope with a formatted message.
func Errf(kind Kind, format string, args ...any) Envelope {
	return Envelope{Error: New(kind, format, args...)}
}

// FromError converts err into a failure envelope. A wrapped *Error keeps its
// kind; anything else is reported as a network error since adapters
// classify every non-transport failure themselves.
func FromError(err error) Envelope {
	var re *Error
	if errors.As(err, &re) {
		return Envelope{Error: re}
	}
	return Err(KindNetwork, err.Error())
}

// JSON renders the envelope. Marshaling failures are themselves reported
// as an envelope so the caller always receives valid JSON.
func (e Envelope) JSON() []byte {
	data, err := json.Marshal(e)
	if err != nil {
		data, _ = json.Marshal(Err(KindAPI, fmt.Sprintf("encoding result: %v", err)))
	}
	return data
}

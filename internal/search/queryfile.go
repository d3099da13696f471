// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"fmt"
	"os"
	"time"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/paperfetch/pkg/types"
)

// QueryFile is the on-disk representation of a search query and its results.
// A search saved to a file can be reloaded later without re-querying APIs.
type QueryFile struct {
	Query   QueryParams        `yaml:"query"`
	Works   []types.Work       `yaml:"works,omitempty"`
	Repos   []types.Repository `yaml:"repos,omitempty"`
	Summary QuerySummary       `yaml:"summary"`
}

// QueryParams stores the query parameters in a serializable form.
type QueryParams struct {
	Source       types.Source `yaml:"source"`
	Text         string       `yaml:"text"`
	MaxResults   int          `yaml:"max_results,omitempty"`
	Sort         string       `yaml:"sort,omitempty"`
	DateFrom     string       `yaml:"date_from,omitempty"`
	FromYear     int          `yaml:"from_year,omitempty"`
	ToYear       int          `yaml:"to_year,omitempty"`
	MinCitations int          `yaml:"min_citations,omitempty"`
	Filter       string       `yaml:"filter,omitempty"`
	Language     string       `yaml:"language,omitempty"`
}

// QuerySummary stores result statistics and a timestamp.
type QuerySummary struct {
	Returned   int       `yaml:"returned"`
	TotalCount int       `yaml:"total_count"`
	Timestamp  time.Time `yaml:"timestamp"`
}

const dateFmt = "2006-01-02"

// NewQueryParams captures a query and its options for a query file.
func NewQueryParams(source types.Source, text string, opts Options) QueryParams {
	p := QueryParams{
		Source:       source,
		Text:         text,
		MaxResults:   opts.MaxResults,
		Sort:         opts.Sort,
		FromYear:     opts.FromYear,
		ToYear:       opts.ToYear,
		MinCitations: opts.MinCitations,
		Filter:       opts.Filter,
		Language:     opts.Language,
	}
	if !opts.DateFrom.IsZero() {
		p.DateFrom = opts.DateFrom.Format(dateFmt)
	}
	return p
}

// WriteQueryFile saves query parameters and results to a YAML file.
func WriteQueryFile(path string, qf QueryFile) error {
	if qf.Summary.Timestamp.IsZero() {
		qf.Summary.Timestamp = time.Now().UTC()
	}
	qf.Summary.Returned = len(qf.Works) + len(qf.Repos)

	data, err := yaml.Marshal(&qf)
	if err != nil {
		return fmt.Errorf("marshaling query file: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

// ReadQueryFile loads a previously saved query file from disk.
func ReadQueryFile(path string) (*QueryFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading query file: %w", err)
	}
	var qf QueryFile
	if err := yaml.Unmarshal(data, &qf); err != nil {
		return nil, fmt.Errorf("parsing query file: %w", err)
	}
	return &qf, nil
}

// Options converts stored QueryParams back into search Options.
func (p QueryParams) Options() (Options, error) {
	opts := Options{
		MaxResults:   p.MaxResults,
		Sort:         p.Sort,
		FromYear:     p.FromYear,
		ToYear:       p.ToYear,
		MinCitations: p.MinCitations,
		Filter:       p.Filter,
		Language:     p.Language,
	}
	if p.DateFrom != "" {
		t, err := time.Parse(dateFmt, p.DateFrom)
		if err != nil {
			return opts, fmt.Errorf("invalid date_from %q: %w", p.DateFrom, err)
		}
		opts.DateFrom = t
	}
	return opts, nil
}

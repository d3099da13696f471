// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/paperfetch/pkg/types"
)

func TestQueryFileRoundTrip(t *testing.T) {
	opts := Options{
		MaxResults: 15,
		Sort:       "submittedDate",
		DateFrom:   time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
	}
	qf := QueryFile{
		Query: NewQueryParams(types.SourceArxiv, "retrieval augmented generation", opts),
		Works: []types.Work{
			{Identifier: "2005.11401", Source: types.SourceArxiv, Title: "RAG", Authors: []string{"Patrick Lewis"}},
		},
		Summary: QuerySummary{TotalCount: 1},
	}

	path := filepath.Join(t.TempDir(), "query.yaml")
	require.NoError(t, WriteQueryFile(path, qf))

	got, err := ReadQueryFile(path)
	require.NoError(t, err)
	assert.Equal(t, types.SourceArxiv, got.Query.Source)
	assert.Equal(t, "2024-03-01", got.Query.DateFrom)
	assert.Equal(t, 1, got.Summary.Returned)
	assert.False(t, got.Summary.Timestamp.IsZero())
	require.Len(t, got.Works, 1)
	assert.Equal(t, "RAG", got.Works[0].Title)

	back, err := got.Query.Options()
	require.NoError(t, err)
	assert.Equal(t, 15, back.MaxResults)
	assert.Equal(t, "submittedDate", back.Sort)
	assert.True(t, back.DateFrom.Equal(opts.DateFrom))
}

func TestQueryParamsOptionsInvalidDate(t *testing.T) {
	_, err := QueryParams{DateFrom: "March 1"}.Options()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "date_from")
}

func TestReadQueryFileErrors(t *testing.T) {
	_, err := ReadQueryFile(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)

	bad := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("query: [unclosed"), 0o644))
	_, err = ReadQueryFile(bad)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parsing query file")
}

// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/pdiddy/paperfetch/internal/result"
	"github.com/pdiddy/paperfetch/internal/secrets"
)

func TestBuildGithubURL(t *testing.T) {
	tests := []struct {
		name     string
		opts     Options
		wantQ    string
		wantPer  string
		wantSort string
		hasSort  bool
	}{
		{"defaults", Options{}, "rag", "10", "stars", true},
		{"clamped", Options{MaxResults: 100}, "rag", "30", "stars", true},
		{"updated", Options{Sort: "updated"}, "rag", "10", "updated", true},
		{"best match omits sort", Options{Sort: "best-match"}, "rag", "10", "", false},
		{"unknown sort", Options{Sort: "forks"}, "rag", "10", "stars", true},
		{"language qualifier", Options{Language: "go"}, "rag language:go", "10", "stars", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := queryOf(t, buildGithubURL("rag", tt.opts))
			if got := q.Get("q"); got != tt.wantQ {
				t.Errorf("q = %q, want %q", got, tt.wantQ)
			}
			if got := q.Get("per_page"); got != tt.wantPer {
				t.Errorf("per_page = %q, want %q", got, tt.wantPer)
			}
			if _, ok := q["sort"]; ok != tt.hasSort {
				t.Errorf("sort present = %v, want %v", ok, tt.hasSort)
			}
			if got := q.Get("sort"); got != tt.wantSort {
				t.Errorf("sort = %q, want %q", got, tt.wantSort)
			}
			if got := q.Get("order"); got != "desc" {
				t.Errorf("order = %q, want desc", got)
			}
		})
	}
}

func TestResolveGithubToken(t *testing.T) {
	tests := []struct {
		name    string
		env     map[string]string
		secrets map[string]string
		want    string
	}{
		{"none", nil, nil, ""},
		{"first wins", map[string]string{"GITHUB_TOKEN": "a", "GH_TOKEN": "b"}, nil, "a"},
		{"empty skipped", map[string]string{"GITHUB_TOKEN": "  ", "GH_TOKEN": "b"}, nil, "b"},
		{"third var", map[string]string{"GITHUB_AI_TOKEN": " c \n"}, nil, "c"},
		{"secret fallback", nil, map[string]string{secrets.KeyGithubToken: "s"}, "s"},
		{"env beats secret", map[string]string{"GH_TOKEN": "b"}, map[string]string{secrets.KeyGithubToken: "s"}, "b"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lookup := func(k string) (string, bool) {
				v, ok := tt.env[k]
				return v, ok
			}
			if got := ResolveGithubToken(lookup, tt.secrets); got != tt.want {
				t.Errorf("ResolveGithubToken() = %q, want %q", got, tt.want)
			}
		})
	}
}

const sampleGithubJSON = `{
  "total_count": 42,
  "items": [
    {
      "full_name": "huggingface/transformers",
      "html_url": "https://github.com/huggingface/transformers",
      "description": "State-of-the-art ML",
      "stargazers_count": 120000,
      "language": "Python",
      "updated_at": "2024-01-02T03:04:05Z",
      "topics": ["nlp", "pytorch"]
    },
    {
      "full_name": "someone/bare",
      "html_url": "https://github.com/someone/bare",
      "description": null,
      "stargazers_count": 1,
      "language": null,
      "updated_at": "2020-01-01T00:00:00Z"
    },
    {
      "full_name": "",
      "html_url": "https://github.com/ghost"
    }
  ]
}`

func withGithubServer(t *testing.T, handler http.HandlerFunc) *httptest.Server {
	t.Helper()
	ts := httptest.NewServer(handler)
	old := githubSearchBase
	githubSearchBase = ts.URL
	t.Cleanup(func() {
		githubSearchBase = old
		ts.Close()
	})
	return ts
}

func TestGithubAdapterSearch(t *testing.T) {
	var gotAuth, gotAccept string
	ts := withGithubServer(t, func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotAccept = r.Header.Get("Accept")
		fmt.Fprint(w, sampleGithubJSON)
	})

	cfg := testCfg()
	cfg.GithubToken = "ghp_test"
	a := &GithubAdapter{Client: ts.Client(), Config: cfg}
	page, err := a.Search(context.Background(), "transformers", Options{})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if gotAuth != "Bearer ghp_test" {
		t.Errorf("Authorization = %q", gotAuth)
	}
	if gotAccept != "application/vnd.github+json" {
		t.Errorf("Accept = %q", gotAccept)
	}
	if page.TotalCount != 42 {
		t.Errorf("TotalCount = %d, want 42", page.TotalCount)
	}
	if len(page.Items) != 2 {
		t.Fatalf("len(Items) = %d, want 2", len(page.Items))
	}
	if diff := cmp.Diff([]string{"nlp", "pytorch"}, page.Items[0].Topics); diff != "" {
		t.Errorf("Topics mismatch (-want +got):\n%s", diff)
	}

	bare := page.Items[1]
	if bare.Description != "" || bare.Language != "unknown" {
		t.Errorf("defaults: Description = %q, Language = %q", bare.Description, bare.Language)
	}
	if bare.Topics == nil || len(bare.Topics) != 0 {
		t.Errorf("Topics = %#v, want empty non-nil", bare.Topics)
	}
}

func TestGithubAdapterUnauthenticated(t *testing.T) {
	var hasAuth bool
	ts := withGithubServer(t, func(w http.ResponseWriter, r *http.Request) {
		_, hasAuth = r.Header["Authorization"]
		fmt.Fprint(w, `{"total_count":0,"items":[]}`)
	})
	a := &GithubAdapter{Client: ts.Client(), Config: testCfg()}
	if _, err := a.Search(context.Background(), "x", Options{}); err != nil {
		t.Fatalf("Search: %v", err)
	}
	if hasAuth {
		t.Error("Authorization header sent without a token")
	}
}

func TestGithubAdapterErrors(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		wantKind result.Kind
	}{
		{"forbidden is rate limited", http.StatusForbidden, result.KindRateLimited},
		{"unprocessable", http.StatusUnprocessableEntity, result.KindAPI},
		{"server error", http.StatusBadGateway, result.KindAPI},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := withGithubServer(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
			})
			a := &GithubAdapter{Client: ts.Client(), Config: testCfg()}
			_, err := a.Search(context.Background(), "x", Options{})
			var re *result.Error
			if !errors.As(err, &re) {
				t.Fatalf("err = %v, want *result.Error", err)
			}
			if re.Kind != tt.wantKind {
				t.Errorf("Kind = %q, want %q", re.Kind, tt.wantKind)
			}
		})
	}
}

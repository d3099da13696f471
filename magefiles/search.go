package main

import (
	"os"

	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

// Search runs the CLI search commands against the live APIs.
type Search mg.Namespace

// Arxiv searches arXiv for $QUERY and saves the result under queries/.
func (Search) Arxiv() error {
	return runSearch("arxiv")
}

// Openalex searches OpenAlex for $QUERY and saves the result under queries/.
func (Search) Openalex() error {
	return runSearch("openalex")
}

// Github searches GitHub for $QUERY.
func (Search) Github() error {
	return runSearch("github")
}

func runSearch(source string) error {
	mg.Deps(Build, Init)
	query := os.Getenv("QUERY")
	if query == "" {
		query = "retrieval augmented generation"
	}
	return sh.RunV(binPath, "search", source, query, "--save", "queries/"+source+".yaml")
}

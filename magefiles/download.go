package main

import (
	"os"
	"strings"

	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

// Download runs the CLI download commands into papers/.
type Download mg.Namespace

// Arxiv downloads the space-separated arXiv IDs in $IDS.
func (Download) Arxiv() error {
	return runDownload("arxiv", "IDS")
}

// Unpaywall downloads open-access PDFs for the space-separated DOIs in $DOIS.
func (Download) Unpaywall() error {
	return runDownload("unpaywall", "DOIS")
}

func runDownload(kind, envVar string) error {
	mg.Deps(Build, Init)
	ids := strings.Fields(os.Getenv(envVar))
	if len(ids) == 0 {
		return mg.Fatalf(1, "set %s to one or more identifiers", envVar)
	}
	args := append([]string{"download", kind, "--output-dir", "papers", "--report", "papers/" + kind + "-report.yaml"}, ids...)
	return sh.RunV(binPath, args...)
}

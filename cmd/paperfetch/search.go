// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/pdiddy/paperfetch/internal/search"
	"github.com/pdiddy/paperfetch/pkg/types"
)

var searchCmd = &cobra.Command{
	Use:   "search",
	Short: "Search arXiv, OpenAlex, or GitHub",
	Long: `Search queries one source per invocation and prints the normalized results.
Results are not merged or deduplicated across sources. Use --save to write the
query and its results to a YAML file that "search rerun" can replay.`,
}

var searchArxivCmd = &cobra.Command{
	Use:   "arxiv <query>",
	Short: "Search arXiv preprints",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runSearchArxiv,
}

var searchOpenAlexCmd = &cobra.Command{
	Use:   "openalex <query>",
	Short: "Search OpenAlex scholarly works",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runSearchOpenAlex,
}

var searchGithubCmd = &cobra.Command{
	Use:   "github <query>",
	Short: "Search GitHub repositories",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runSearchGithub,
}

var searchRerunCmd = &cobra.Command{
	Use:   "rerun <query-file>",
	Short: "Run the query stored in a saved query file again",
	Args:  cobra.ExactArgs(1),
	RunE:  runSearchRerun,
}

func init() {
	for _, c := range []*cobra.Command{searchArxivCmd, searchOpenAlexCmd, searchGithubCmd, searchRerunCmd} {
		c.Flags().Bool("json", false, "output results as JSON")
		c.Flags().String("save", "", "write the query and results to a YAML query file")
	}
	for _, c := range []*cobra.Command{searchArxivCmd, searchOpenAlexCmd, searchGithubCmd} {
		c.Flags().Int("max-results", 0, "maximum number of results (clamped to the source's bounds)")
		c.Flags().String("sort", "", "sort order (source specific)")
	}
	for _, c := range []*cobra.Command{searchArxivCmd, searchOpenAlexCmd} {
		c.Flags().String("csl", "", "also write results as CSL YAML to this file")
	}

	searchArxivCmd.Flags().String("date-from", "", "only papers submitted on or after this date (YYYY-MM-DD)")
	searchArxivCmd.Flags().Bool("download", false, "download the source (or PDF) of every result")
	searchArxivCmd.Flags().String("output-dir", "papers", "directory for downloads")

	searchOpenAlexCmd.Flags().String("filter", "", "raw OpenAlex filter expression")
	searchOpenAlexCmd.Flags().Int("from-year", 0, "earliest publication year")
	searchOpenAlexCmd.Flags().Int("to-year", 0, "latest publication year")
	searchOpenAlexCmd.Flags().Int("min-citations", 0, "minimum citation count")

	searchGithubCmd.Flags().String("language", "", "restrict to a primary language")

	searchCmd.AddCommand(searchArxivCmd, searchOpenAlexCmd, searchGithubCmd, searchRerunCmd)
	rootCmd.AddCommand(searchCmd)
}

func commonOptions(cmd *cobra.Command) search.Options {
	maxResults, _ := cmd.Flags().GetInt("max-results")
	sort, _ := cmd.Flags().GetString("sort")
	return search.Options{MaxResults: maxResults, Sort: sort}
}

func runSearchArxiv(cmd *cobra.Command, args []string) error {
	opts := commonOptions(cmd)
	if s, _ := cmd.Flags().GetString("date-from"); s != "" {
		t, err := time.Parse(time.DateOnly, s)
		if err != nil {
			return fmt.Errorf("invalid --date-from %q: want YYYY-MM-DD", s)
		}
		opts.DateFrom = t
	}

	works, err := searchWorks(cmd, arxivAdapter(), strings.Join(args, " "), opts)
	if err != nil {
		return err
	}

	if download, _ := cmd.Flags().GetBool("download"); download && len(works) > 0 {
		ids := make([]string, len(works))
		for i, w := range works {
			ids[i] = w.Identifier
		}
		outDir, _ := cmd.Flags().GetString("output-dir")
		batch, err := runArxivBatch(cmd, ids, outDir)
		if err != nil {
			return err
		}
		printBatch(cmd, batch)
	}
	return nil
}

func runSearchOpenAlex(cmd *cobra.Command, args []string) error {
	opts := commonOptions(cmd)
	opts.Filter, _ = cmd.Flags().GetString("filter")
	opts.FromYear, _ = cmd.Flags().GetInt("from-year")
	opts.ToYear, _ = cmd.Flags().GetInt("to-year")
	opts.MinCitations, _ = cmd.Flags().GetInt("min-citations")

	_, err := searchWorks(cmd, openAlexAdapter(), strings.Join(args, " "), opts)
	return err
}

func runSearchGithub(cmd *cobra.Command, args []string) error {
	opts := commonOptions(cmd)
	opts.Language, _ = cmd.Flags().GetString("language")
	return searchRepos(cmd, strings.Join(args, " "), opts)
}

func runSearchRerun(cmd *cobra.Command, args []string) error {
	qf, err := search.ReadQueryFile(args[0])
	if err != nil {
		return err
	}
	opts, err := qf.Query.Options()
	if err != nil {
		return err
	}

	switch qf.Query.Source {
	case types.SourceArxiv:
		_, err = searchWorks(cmd, arxivAdapter(), qf.Query.Text, opts)
	case types.SourceOpenAlex:
		_, err = searchWorks(cmd, openAlexAdapter(), qf.Query.Text, opts)
	case types.SourceGithub:
		err = searchRepos(cmd, qf.Query.Text, opts)
	default:
		err = fmt.Errorf("query file %s: unknown source %q", args[0], qf.Query.Source)
	}
	return err
}

func arxivAdapter() *search.ArxivAdapter {
	return &search.ArxivAdapter{Client: httpClient(cfg.Search.HTTPConfig), Config: cfg.Search, Logger: &logger, Metrics: metrics}
}

func openAlexAdapter() *search.OpenAlexAdapter {
	return &search.OpenAlexAdapter{Client: httpClient(cfg.Search.HTTPConfig), Config: cfg.Search, Logger: &logger, Metrics: metrics}
}

// searchWorks runs one work search and writes its results in the format
// the flags select.
func searchWorks(cmd *cobra.Command, src search.WorkSource, query string, opts search.Options) ([]types.Work, error) {
	page, err := src.Search(cmd.Context(), query, opts)
	if err != nil {
		return nil, err
	}
	logger.Info().Str("source", src.Name()).Int("returned", len(page.Items)).Int("total", page.TotalCount).Msg("search complete")

	if err := writeQuery(cmd, search.QueryFile{
		Query:   search.NewQueryParams(types.Source(src.Name()), query, opts),
		Works:   page.Items,
		Summary: search.QuerySummary{TotalCount: page.TotalCount},
	}); err != nil {
		return nil, err
	}
	if path, _ := cmd.Flags().GetString("csl"); path != "" {
		if err := writeCSL(path, page.Items); err != nil {
			return nil, err
		}
	}

	if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
		return page.Items, search.FormatJSON(page.Items, cmd.OutOrStdout())
	}
	search.FormatWorks(page.Items, cmd.OutOrStdout())
	return page.Items, nil
}

func searchRepos(cmd *cobra.Command, query string, opts search.Options) error {
	adapter := &search.GithubAdapter{Client: httpClient(cfg.Search.HTTPConfig), Config: cfg.Search, Logger: &logger, Metrics: metrics}
	page, err := adapter.Search(cmd.Context(), query, opts)
	if err != nil {
		return err
	}
	logger.Info().Str("source", adapter.Name()).Int("returned", len(page.Items)).Int("total", page.TotalCount).Msg("search complete")

	if err := writeQuery(cmd, search.QueryFile{
		Query:   search.NewQueryParams(types.SourceGithub, query, opts),
		Repos:   page.Items,
		Summary: search.QuerySummary{TotalCount: page.TotalCount},
	}); err != nil {
		return err
	}

	if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
		return search.FormatJSON(page.Items, cmd.OutOrStdout())
	}
	search.FormatRepos(page.Items, cmd.OutOrStdout())
	return nil
}

// writeQuery saves qf when --save is set.
func writeQuery(cmd *cobra.Command, qf search.QueryFile) error {
	path, _ := cmd.Flags().GetString("save")
	if path == "" {
		return nil
	}
	if err := search.WriteQueryFile(path, qf); err != nil {
		return err
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "Query saved to %s\n", path)
	return nil
}

func writeCSL(path string, works []types.Work) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating CSL file: %w", err)
	}
	if err := search.FormatCSL(works, f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/paperfetch/internal/acquire"
	"github.com/pdiddy/paperfetch/pkg/types"
)

var downloadCmd = &cobra.Command{
	Use:   "download",
	Short: "Download papers by arXiv ID or DOI",
	Long: `Download retrieves documents one identifier at a time. arXiv IDs fetch the
LaTeX source archive and fall back to the rendered PDF; DOIs are resolved
through Unpaywall and only open-access PDFs are downloaded. A failure for one
identifier never stops the batch.`,
}

var downloadArxivCmd = &cobra.Command{
	Use:   "arxiv <id>...",
	Short: "Download arXiv sources, falling back to PDFs",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runDownloadArxiv,
}

var downloadUnpaywallCmd = &cobra.Command{
	Use:   "unpaywall <doi>...",
	Short: "Download open-access PDFs for DOIs via Unpaywall",
	Args:  cobra.RangeArgs(1, acquire.MaxUnpaywallDOIs),
	RunE:  runDownloadUnpaywall,
}

func init() {
	for _, c := range []*cobra.Command{downloadArxivCmd, downloadUnpaywallCmd} {
		c.Flags().String("output-dir", "papers", "directory for downloaded documents")
		c.Flags().Duration("delay", 0, "pause between consecutive identifiers (overrides config)")
		c.Flags().String("report", "", "write the batch outcome as YAML to this file")
	}
	downloadCmd.AddCommand(downloadArxivCmd, downloadUnpaywallCmd)
	rootCmd.AddCommand(downloadCmd)
}

func runDownloadArxiv(cmd *cobra.Command, args []string) error {
	outDir, _ := cmd.Flags().GetString("output-dir")
	batch, err := runArxivBatch(cmd, args, outDir)
	if err != nil {
		return err
	}
	return finishBatch(cmd, batch)
}

// runArxivBatch runs the acquisition machine over ids into outDir.
func runArxivBatch(cmd *cobra.Command, ids []string, outDir string) (types.BatchResult, error) {
	abs, err := filepath.Abs(outDir)
	if err != nil {
		return types.BatchResult{}, fmt.Errorf("resolving output dir: %w", err)
	}
	c := cfg.Acquisition
	c.OutputDir = abs
	if delay, _ := cmd.Flags().GetDuration("delay"); delay > 0 {
		c.Pacing = types.PacingConfig{Delay: delay}
	}

	m := &acquire.Machine{Client: httpClient(c.HTTPConfig), Config: c, Logger: &logger, Metrics: metrics}
	return m.Batch(cmd.Context(), ids)
}

func runDownloadUnpaywall(cmd *cobra.Command, args []string) error {
	c := cfg.Unpaywall
	c.OutputDir, _ = cmd.Flags().GetString("output-dir")
	if delay, _ := cmd.Flags().GetDuration("delay"); delay > 0 {
		c.Pacing = types.PacingConfig{Delay: delay}
	}

	r := &acquire.UnpaywallResolver{Client: httpClient(c.HTTPConfig), Config: c, Logger: &logger, Metrics: metrics}
	batch, err := r.Batch(cmd.Context(), args)
	if err != nil {
		return err
	}
	return finishBatch(cmd, batch)
}

// finishBatch prints the outcome table, writes the report when requested,
// and fails the command only when no identifier succeeded.
func finishBatch(cmd *cobra.Command, batch types.BatchResult) error {
	printBatch(cmd, batch)
	if path, _ := cmd.Flags().GetString("report"); path != "" {
		if err := writeReport(path, batch); err != nil {
			return err
		}
	}
	if batch.Total > 0 && batch.Success == 0 {
		return fmt.Errorf("all %d identifier(s) failed", batch.Total)
	}
	return nil
}

func printBatch(cmd *cobra.Command, batch types.BatchResult) {
	w := cmd.OutOrStdout()
	for _, o := range batch.Outcomes {
		line := fmt.Sprintf("%-24s  %-17s  %s", o.Identifier, o.Kind, o.Message)
		if o.FallbackReason != "" {
			line += " (" + o.FallbackReason + ")"
		}
		fmt.Fprintln(w, line)
	}
	fmt.Fprintf(w, "\n%d total, %d downloaded, %d not open access, %d failed -> %s\n",
		batch.Total, batch.Success, batch.NotOpenAccess, batch.Failed, batch.OutputDir)
}

func writeReport(path string, batch types.BatchResult) error {
	data, err := yaml.Marshal(batch)
	if err != nil {
		return fmt.Errorf("marshaling report: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing report: %w", err)
	}
	return nil
}

// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/pdiddy/legal-translator/internal/batch"
)

var batchCmd = &cobra.Command{
	Use:   "batch <input-dir>",
	Short: "Translate every document in a directory",
	Long: `Batch translates each .txt and .md file in the input directory with the
same glossary and memory, so later documents reuse paragraphs translated
earlier in the run. A failing document is recorded and the batch moves on.

The output directory receives the usual three files per document plus
batch_manifest.json with per-file status and summary counts. Each document
is tracked as a job; see "legal-translator jobs list --batch <id>".`,
	Args: cobra.ExactArgs(1),
	RunE: runBatch,
}

func init() {
	addOutputFlags(batchCmd.Flags())
	rootCmd.AddCommand(batchCmd)
}

func runBatch(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	files, err := batch.Discover(args[0])
	if err != nil {
		return err
	}
	if len(files) == 0 {
		return fmt.Errorf("no .txt or .md files in %s", args[0])
	}

	ws, err := openWorkspace()
	if err != nil {
		return err
	}
	runner, opts, closeJobs, err := newRunner(ctx, cmd, ws)
	if err != nil {
		return err
	}
	defer closeJobs()

	m, err := runner.Run(ctx, files, opts, os.Stdout)
	if err != nil {
		return err
	}
	if err := ws.writeMetrics(stringFlag(cmd, "metrics-file")); err != nil {
		return err
	}

	s := m.Summary
	fmt.Printf("\nbatch %s: %d/%d documents translated, %d model calls, %d paragraphs from memory\n",
		m.BatchID, s.DocumentsSuccess, s.DocumentsTotal, s.ModelCalls, s.ReusedFromMemory)
	fmt.Printf("manifest: %s\n", filepath.Join(opts.OutputDir, batch.ManifestFile))
	if s.HasFailures() {
		return fmt.Errorf("%d document(s) failed", s.DocumentsFailed)
	}
	return nil
}

// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/pdiddy/legal-translator/internal/batch"
	"github.com/pdiddy/legal-translator/internal/document"
	"github.com/pdiddy/legal-translator/internal/llm"
	"github.com/pdiddy/legal-translator/internal/termsource"
	"github.com/pdiddy/legal-translator/pkg/types"
)

var translateCmd = &cobra.Command{
	Use:   "translate <file>",
	Short: "Translate one document",
	Long: `Translate reads a plain-text or Markdown document, reuses the translation
memory where it can, sends the remaining paragraphs to the model, and writes
three files to the output directory:

  <name>.<lang>.txt              the translation
  <name>.<lang>.annotated.txt    the translation with <glossary>, <memory>
                                 and <reference_doc> markers
  <name>.<lang>.report.json      counts and per-paragraph details

Reference pairs take priority over the glossary. Pass them as a YAML or JSON
file with --pairs, or let the model extract them from a bilingual document
with --reference.`,
	Args: cobra.ExactArgs(1),
	RunE: runTranslate,
}

func init() {
	addOutputFlags(translateCmd.Flags())
	rootCmd.AddCommand(translateCmd)
}

// addOutputFlags registers the flags shared by translate and batch.
func addOutputFlags(fs *pflag.FlagSet) {
	fs.String("output-dir", "output", "directory for translations and reports")
	fs.String("pairs", "", "reference term pairs file (.yaml, .json)")
	fs.String("reference", "", "bilingual reference document to extract term pairs from")
	fs.String("report-format", batch.ReportJSON, "report format: json or yaml")
	fs.String("metrics-file", "", "write Prometheus metrics to this file after the run")
}

func runTranslate(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
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

	entry, err := runner.TranslateFile(ctx, args[0], opts, os.Stdout)
	if err != nil {
		return err
	}
	if err := ws.writeMetrics(stringFlag(cmd, "metrics-file")); err != nil {
		return err
	}
	if entry.Status == batch.StatusFailed {
		return fmt.Errorf("translating %s: %s", args[0], entry.Error)
	}

	fmt.Printf("translation: %s\nannotated:   %s\nreport:      %s\n",
		entry.OutputFile, entry.AnnotatedFile, entry.ReportFile)
	fmt.Printf("%d paragraphs, %d from memory, %d model calls, %d glossary matches\n",
		entry.Stats.ParagraphsTotal, entry.Stats.ReusedFromMemory,
		entry.Stats.ModelCalls, entry.Stats.GlossaryMatches)
	return nil
}

// newRunner wires the pipeline, job store and reference pairs for the
// translate and batch commands. The returned func closes the job store.
func newRunner(ctx context.Context, cmd *cobra.Command, ws *workspace) (*batch.Runner, batch.Options, func(), error) {
	opts := batch.Options{
		OutputDir:    stringFlag(cmd, "output-dir"),
		SourceLang:   ws.cfg.SourceLang,
		TargetLang:   ws.cfg.TargetLang,
		ReportFormat: stringFlag(cmd, "report-format"),
	}
	if opts.ReportFormat != batch.ReportJSON && opts.ReportFormat != batch.ReportYAML {
		return nil, opts, nil, fmt.Errorf("unknown report format %q", opts.ReportFormat)
	}

	pairs, err := referencePairs(ctx, cmd, ws.cfg)
	if err != nil {
		return nil, opts, nil, err
	}
	opts.ReferencePairs = pairs

	p, err := ws.pipeline(ctx, os.Stderr)
	if err != nil {
		return nil, opts, nil, err
	}
	store, err := openJobs(ws.cfg)
	if err != nil {
		return nil, opts, nil, err
	}
	closeJobs := func() { store.Close() }
	return &batch.Runner{Pipeline: p, Jobs: store}, opts, closeJobs, nil
}

// referencePairs loads pairs from --pairs, or extracts them from the
// --reference document with the configured model.
func referencePairs(ctx context.Context, cmd *cobra.Command, cfg types.Config) (map[string]string, error) {
	if path := stringFlag(cmd, "pairs"); path != "" {
		return termsource.LoadPairs(path)
	}
	path := stringFlag(cmd, "reference")
	if path == "" {
		return nil, nil
	}
	text, err := document.Read(path)
	if err != nil {
		return nil, err
	}
	backend, err := llm.NewBackend(ctx, cfg.AI)
	if err != nil {
		return nil, err
	}
	pairs, err := llm.ExtractReferencePairs(ctx, backend, text, cfg.SourceLang, cfg.TargetLang)
	if err != nil {
		return nil, err
	}
	fmt.Fprintf(os.Stderr, "extracted %d reference pairs from %s\n", len(pairs), path)
	return pairs, nil
}

func stringFlag(cmd *cobra.Command, name string) string {
	v, _ := cmd.Flags().GetString(name)
	return v
}

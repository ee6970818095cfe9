// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/legal-translator/internal/document"
	"github.com/pdiddy/legal-translator/internal/termsource"
	"github.com/pdiddy/legal-translator/pkg/types"
)

var termsCmd = &cobra.Command{
	Use:   "terms <file>",
	Short: "Extract candidate terms and resolve them through the term sources",
	Long: `Terms extracts candidate terms from a document (multi-word phrases,
capitalized runs and long words) and resolves each one through the term
sources in priority order: reference pairs, glossary, translation memory,
and finally a placeholder.

With --apply the document is printed with every resolved term replaced.`,
	Args: cobra.ExactArgs(1),
	RunE: runTerms,
}

func init() {
	termsCmd.Flags().Int("min-length", 4, "minimum term length in characters")
	termsCmd.Flags().String("pairs", "", "reference term pairs file (.yaml, .json)")
	termsCmd.Flags().String("reference", "", "bilingual reference document to extract term pairs from")
	termsCmd.Flags().Bool("all", false, "include terms that only the placeholder resolved")
	termsCmd.Flags().Bool("apply", false, "print the document with resolved terms replaced")
	termsCmd.Flags().Bool("json", false, "output results as JSON")

	rootCmd.AddCommand(termsCmd)
}

func runTerms(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	text, err := document.Read(args[0])
	if err != nil {
		return err
	}
	ws, err := openWorkspace()
	if err != nil {
		return err
	}
	pairs, err := referencePairs(ctx, cmd, ws.cfg)
	if err != nil {
		return err
	}

	minLen, _ := cmd.Flags().GetInt("min-length")
	chain := termsource.StandardChain(pairs, ws.glossary, ws.memory, ws.cfg.Memory.TermThreshold)
	resolved := chain.LookupAll(termsource.ExtractTerms(text, minLen), ws.cfg.SourceLang, ws.cfg.TargetLang)

	if apply, _ := cmd.Flags().GetBool("apply"); apply {
		fmt.Println(termsource.ApplyTermTranslations(text, resolved, true))
		return nil
	}

	if all, _ := cmd.Flags().GetBool("all"); !all {
		kept := resolved[:0]
		for _, t := range resolved {
			if t.SourceID != termsource.IDPlaceholder {
				kept = append(kept, t)
			}
		}
		resolved = kept
	}

	if jsonOutput, _ := cmd.Flags().GetBool("json"); jsonOutput {
		if resolved == nil {
			resolved = []types.TermTranslation{}
		}
		return encodeJSON(resolved)
	}

	if len(resolved) == 0 {
		fmt.Println("No terms resolved.")
		return nil
	}
	fmt.Fprintf(os.Stdout, "%-30s  %-30s  %-14s  %s\n", "Term", "Translation", "Source", "Score")
	fmt.Fprintln(os.Stdout, strings.Repeat("-", 86))
	for _, t := range resolved {
		fmt.Fprintf(os.Stdout, "%-30s  %-30s  %-14s  %.0f\n",
			preview(t.SourceTerm), preview(t.TranslatedTerm), t.SourceID, t.Confidence*100)
	}
	fmt.Fprintf(os.Stdout, "\n%d terms\n", len(resolved))
	return nil
}

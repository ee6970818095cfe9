// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/legal-translator/internal/exchange"
)

var glossaryCmd = &cobra.Command{
	Use:   "glossary",
	Short: "Inspect and export the glossary",
	Long: `Glossary works on the file given by --glossary (or glossary_path in the
config file). Use subcommands to look up a term or export the glossary as TBX.`,
}

// --- lookup subcommand ---

var glossaryLookupCmd = &cobra.Command{
	Use:   "lookup <term>",
	Short: "Show exact and fuzzy glossary matches for a term",
	Args:  cobra.ExactArgs(1),
	RunE:  runGlossaryLookup,
}

func runGlossaryLookup(cmd *cobra.Command, args []string) error {
	ws, err := openWorkspace()
	if err != nil {
		return err
	}
	if ws.glossary == nil {
		return fmt.Errorf("no glossary configured: pass --glossary")
	}
	limit, _ := cmd.Flags().GetInt("limit")
	threshold, _ := cmd.Flags().GetFloat64("threshold")

	term := args[0]
	exact := ws.glossary.ExactMatches(term)
	for _, e := range exact {
		fmt.Printf("exact  %s -> %s%s\n", e.Term, e.Translation, contextSuffix(e.Context))
	}

	fuzzy := ws.glossary.FuzzyMatches(term, limit, threshold)
	for _, m := range fuzzy {
		if strings.EqualFold(m.Entry.Term, strings.TrimSpace(term)) {
			continue
		}
		fmt.Printf("%5.1f  %s -> %s%s\n", m.Score, m.Entry.Term, m.Entry.Translation, contextSuffix(m.Entry.Context))
	}

	if len(exact) == 0 && len(fuzzy) == 0 {
		fmt.Println("No matches found.")
	}
	return nil
}

func contextSuffix(ctx string) string {
	if ctx == "" {
		return ""
	}
	return " (" + ctx + ")"
}

// --- export subcommand ---

var glossaryExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the glossary as TBX",
	RunE:  runGlossaryExport,
}

func runGlossaryExport(cmd *cobra.Command, args []string) error {
	ws, err := openWorkspace()
	if err != nil {
		return err
	}
	if ws.glossary == nil {
		return fmt.Errorf("no glossary configured: pass --glossary")
	}
	out := stringFlag(cmd, "output")
	if out == "" {
		return exchange.WriteTBX(os.Stdout, ws.glossary)
	}
	if err := exchange.ExportTBX(out, ws.glossary); err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "exported %d entries to %s\n", ws.glossary.Len(), out)
	return nil
}

func init() {
	glossaryLookupCmd.Flags().Int("limit", 5, "maximum fuzzy matches")
	glossaryLookupCmd.Flags().Float64("threshold", 80, "minimum fuzzy score (0-100)")

	glossaryExportCmd.Flags().String("output", "", "TBX file to write (default stdout)")

	glossaryCmd.AddCommand(glossaryLookupCmd, glossaryExportCmd)
	rootCmd.AddCommand(glossaryCmd)
}

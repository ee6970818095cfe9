// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/pdiddy/legal-translator/internal/exchange"
	"github.com/pdiddy/legal-translator/internal/memory"
)

var memoryCmd = &cobra.Command{
	Use:   "memory",
	Short: "Inspect and export the translation memory",
	Long: `Memory works on the JSON translation memory under --data-root (or the
file given by --memory). Use subcommands to summarize it, search it, or
export it as TMX.`,
}

// --- stats subcommand ---

var memoryStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Count memory records per language pair",
	RunE:  runMemoryStats,
}

func runMemoryStats(cmd *cobra.Command, args []string) error {
	ws, err := openWorkspace()
	if err != nil {
		return err
	}

	pairs := map[string]int{}
	long := 0
	for _, rec := range ws.memory.Records() {
		pairs[rec.SourceLang+" -> "+rec.TargetLang]++
		if rec.LongEntry {
			long++
		}
	}
	keys := make([]string, 0, len(pairs))
	for k := range pairs {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	fmt.Printf("store:   %s\nrecords: %d (%d long entries)\n", ws.memory.Path(), ws.memory.Len(), long)
	for _, k := range keys {
		fmt.Printf("  %-10s %d\n", k, pairs[k])
	}
	return nil
}

// --- similar subcommand ---

var memorySimilarCmd = &cobra.Command{
	Use:   "similar <text>",
	Short: "Find memory records similar to a text",
	Long: `Similar scores every record of the configured language pair against the
text with an order-independent word overlap and prints the best matches.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runMemorySimilar,
}

func runMemorySimilar(cmd *cobra.Command, args []string) error {
	ws, err := openWorkspace()
	if err != nil {
		return err
	}
	limit, _ := cmd.Flags().GetInt("limit")
	threshold, _ := cmd.Flags().GetFloat64("threshold")
	if threshold < 0 {
		threshold = ws.cfg.Memory.SimilarThreshold
	}

	text := strings.Join(args, " ")
	hits := ws.memory.SimilarScored(text, ws.cfg.SourceLang, ws.cfg.TargetLang, limit, threshold)

	if jsonOutput, _ := cmd.Flags().GetBool("json"); jsonOutput {
		if hits == nil {
			hits = []memory.Scored{}
		}
		return encodeJSON(hits)
	}

	if len(hits) == 0 {
		fmt.Println("No similar records found.")
		return nil
	}
	for _, h := range hits {
		fmt.Printf("%5.1f  %s\n       %s\n", h.Score, preview(h.Record.SourceText), preview(h.Record.TranslatedText))
	}
	return nil
}

func preview(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	if r := []rune(s); len(r) > 70 {
		return string(r[:67]) + "..."
	}
	return s
}

// --- export subcommand ---

var memoryExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the memory for the configured language pair as TMX",
	RunE:  runMemoryExport,
}

func runMemoryExport(cmd *cobra.Command, args []string) error {
	ws, err := openWorkspace()
	if err != nil {
		return err
	}
	records := ws.memory.Records()
	src, tgt := ws.cfg.SourceLang, ws.cfg.TargetLang

	out := stringFlag(cmd, "output")
	if out == "" {
		return exchange.WriteTMX(os.Stdout, records, src, tgt, time.Now())
	}
	if err := exchange.ExportTMX(out, records, src, tgt, time.Now()); err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "exported %s -> %s memory to %s\n", src, tgt, out)
	return nil
}

func init() {
	memorySimilarCmd.Flags().Int("limit", 5, "maximum number of records")
	memorySimilarCmd.Flags().Float64("threshold", -1, "minimum score (0-100, default memory.similar_threshold)")
	memorySimilarCmd.Flags().Bool("json", false, "output results as JSON")

	memoryExportCmd.Flags().String("output", "", "TMX file to write (default stdout)")

	memoryCmd.AddCommand(memoryStatsCmd, memorySimilarCmd, memoryExportCmd)
	rootCmd.AddCommand(memoryCmd)
}

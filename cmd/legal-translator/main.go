// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the legal-translator CLI.
package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/legal-translator/internal/exchange"
	"github.com/pdiddy/legal-translator/internal/secrets"
)

// version is set at build time via ldflags.
var version = "dev"

// loadedSecrets holds API keys loaded from .secrets/ at startup.
var loadedSecrets map[string]string

// rootCmd is the base command for the legal-translator CLI.
var rootCmd = &cobra.Command{
	Use:   "legal-translator",
	Short: "Glossary- and memory-aware translation of Swiss legal documents",
	Long: `legal-translator translates legal documents between German, French,
Italian and English. Each paragraph is first looked up in the translation
memory; the rest goes to the configured model together with glossary terms
and similar past translations. Every run writes the translation, an
annotated copy marking where each term came from, and a JSON report.

The glossary and memory can be inspected and exported as TBX and TMX.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		verbose, _ := cmd.Flags().GetBool("verbose")
		logJSON, _ := cmd.Flags().GetBool("log-json")
		setupLogging(verbose, logJSON)

		exchange.ToolVersion = version

		s, err := secrets.Load(".secrets/")
		if err != nil {
			return err
		}
		loadedSecrets = s
		if len(s) > 0 {
			keys := make([]string, 0, len(s))
			for k := range s {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			slog.Debug("loaded secrets", "keys", keys)
		}
		return nil
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	pf := rootCmd.PersistentFlags()
	pf.String("config", "", "config file (default: ./legal-translator.yaml or ~/.config/legal-translator/legal-translator.yaml)")
	pf.Bool("verbose", false, "enable debug logging")
	pf.Bool("log-json", false, "write logs as JSON")
	pf.String("source-lang", "", "source language code (de, fr, it, en)")
	pf.String("target-lang", "", "target language code (de, fr, it, en)")
	pf.String("data-root", "", "directory for the memory store and job database")
	pf.String("glossary", "", "glossary file (.csv, .yaml)")
	pf.String("memory", "", "translation memory file (default <data-root>/memory.json)")
	pf.String("jobs-db", "", "SQLite job database (empty keeps jobs in memory)")
	pf.String("provider", "", "model provider: claude, openai, gemini, or dry-run")
	pf.String("model", "", "model identifier")

	bindFlags(map[string]string{
		"source_lang":   "source-lang",
		"target_lang":   "target-lang",
		"data_root":     "data-root",
		"glossary_path": "glossary",
		"memory_path":   "memory",
		"jobs_db":       "jobs-db",
		"ai.provider":   "provider",
		"ai.model":      "model",
	})
	setDefaults()
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("legal-translator")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "legal-translator"))
		}
	}

	viper.SetEnvPrefix("LEGAL_TRANSLATOR")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// setupLogging installs the default slog handler on stderr.
func setupLogging(verbose, asJSON bool) {
	opts := &slog.HandlerOptions{Level: slog.LevelInfo}
	if verbose {
		opts.Level = slog.LevelDebug
	}
	var h slog.Handler = slog.NewTextHandler(os.Stderr, opts)
	if asJSON {
		h = slog.NewJSONHandler(os.Stderr, opts)
	}
	slog.SetDefault(slog.New(h))
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/viper"

	"github.com/pdiddy/legal-translator/internal/glossary"
	"github.com/pdiddy/legal-translator/internal/jobs"
	"github.com/pdiddy/legal-translator/internal/llm"
	"github.com/pdiddy/legal-translator/internal/memory"
	"github.com/pdiddy/legal-translator/internal/metrics"
	"github.com/pdiddy/legal-translator/internal/pipeline"
	"github.com/pdiddy/legal-translator/internal/secrets"
	"github.com/pdiddy/legal-translator/pkg/types"
)

// bindFlags binds root persistent flags to config keys.
func bindFlags(keys map[string]string) {
	for key, flag := range keys {
		if err := viper.BindPFlag(key, rootCmd.PersistentFlags().Lookup(flag)); err != nil {
			panic(fmt.Sprintf("binding flag %s: %v", flag, err))
		}
	}
}

// setDefaults registers every config key so that environment variables
// reach viper.Unmarshal even when no config file sets them.
func setDefaults() {
	d := types.DefaultConfig()
	viper.SetDefault("source_lang", d.SourceLang)
	viper.SetDefault("target_lang", d.TargetLang)
	viper.SetDefault("data_root", d.DataRoot)
	viper.SetDefault("glossary_path", d.GlossaryPath)
	viper.SetDefault("memory_path", d.MemoryPath)
	viper.SetDefault("seed_memory_path", d.SeedMemoryPath)
	viper.SetDefault("jobs_db", d.JobsDB)

	viper.SetDefault("ai.provider", string(d.AI.Provider))
	viper.SetDefault("ai.model", d.AI.Model)
	viper.SetDefault("ai.api_key", d.AI.APIKey)
	viper.SetDefault("ai.base_url", d.AI.BaseURL)
	viper.SetDefault("ai.max_retries", d.AI.MaxRetries)
	viper.SetDefault("ai.max_tokens", d.AI.MaxTokens)
	viper.SetDefault("ai.timeout", d.AI.Timeout)

	viper.SetDefault("memory.max_entry_length", d.Memory.MaxEntryLength)
	viper.SetDefault("memory.similar_threshold", d.Memory.SimilarThreshold)
	viper.SetDefault("memory.similar_limit", d.Memory.SimilarLimit)
	viper.SetDefault("memory.document_reuse_threshold", d.Memory.DocumentReuseThreshold)
	viper.SetDefault("memory.term_threshold", d.Memory.TermThreshold)
}

// loadConfig builds the run configuration from flags, environment, config
// file and defaults, in that order of precedence. A missing API key falls
// back to .secrets/.
func loadConfig() (types.Config, error) {
	cfg := types.DefaultConfig()
	if err := viper.Unmarshal(&cfg); err != nil {
		return cfg, fmt.Errorf("reading configuration: %w", err)
	}
	switch cfg.AI.Provider {
	case types.ProviderClaude, types.ProviderOpenAI, types.ProviderGemini, types.ProviderDryRun:
	default:
		return cfg, fmt.Errorf("unknown AI provider %q", cfg.AI.Provider)
	}
	if cfg.SourceLang == "" || cfg.TargetLang == "" {
		return cfg, fmt.Errorf("source and target language are required")
	}
	cfg.AI.APIKey = secrets.APIKey(loadedSecrets, cfg.AI.Provider, cfg.AI.APIKey)
	return cfg, nil
}

// workspace holds the glossary, memory and metrics shared by one command.
type workspace struct {
	cfg      types.Config
	glossary *glossary.Glossary
	memory   *memory.Memory
	metrics  *metrics.Metrics
}

func openWorkspace() (*workspace, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	ws := &workspace{cfg: cfg, metrics: metrics.New()}

	if cfg.GlossaryPath != "" {
		ws.glossary, err = glossary.LoadFile(cfg.GlossaryPath, cfg.SourceLang, cfg.TargetLang)
		if err != nil {
			return nil, err
		}
		slog.Debug("glossary loaded", "path", cfg.GlossaryPath, "entries", ws.glossary.Len())
	}

	ws.memory, err = memory.Open(cfg.ResolvedMemoryPath(), memory.Options{
		SeedPath:       cfg.SeedMemoryPath,
		MaxEntryLength: cfg.Memory.MaxEntryLength,
	})
	if err != nil {
		return nil, err
	}
	ws.metrics.WatchMemory(ws.memory)
	slog.Debug("translation memory loaded", "path", ws.memory.Path(), "records", ws.memory.Len())
	return ws, nil
}

// pipeline builds a translation pipeline on the configured model backend.
func (ws *workspace) pipeline(ctx context.Context, progress io.Writer) (*pipeline.Pipeline, error) {
	tr, err := llm.New(ctx, ws.cfg.AI)
	if err != nil {
		return nil, err
	}
	return &pipeline.Pipeline{
		Translator: tr,
		Glossary:   ws.glossary,
		Memory:     ws.memory,
		Settings:   ws.cfg.Memory,
		Metrics:    ws.metrics,
		Progress:   progress,
	}, nil
}

// writeMetrics exports the run's counters when path is set.
func (ws *workspace) writeMetrics(path string) error {
	if path == "" {
		return nil
	}
	if err := ws.metrics.WriteTextfile(path); err != nil {
		return fmt.Errorf("writing metrics: %w", err)
	}
	return nil
}

// openJobs returns the SQLite job store, or an in-process store when no
// database is configured.
func openJobs(cfg types.Config) (jobs.Store, error) {
	if cfg.JobsDB == "" {
		return jobs.NewMemoryStore(), nil
	}
	return jobs.OpenSQLite(cfg.JobsDB)
}

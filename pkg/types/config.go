// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import (
	"path/filepath"
	"time"
)

// Provider identifies the LLM backend used for translation.
type Provider string

const (
	ProviderClaude Provider = "claude"
	ProviderOpenAI Provider = "openai"
	ProviderGemini Provider = "gemini"
	ProviderDryRun Provider = "dry-run"
)

// AIConfig holds shared settings for stages that call a Generative AI API.
type AIConfig struct {
	// Provider selects the backend: claude, openai, gemini, or dry-run.
	Provider Provider `json:"provider" yaml:"provider" mapstructure:"provider"`

	// Model is the AI model identifier (e.g. "claude-sonnet-4-5-20250929").
	Model string `json:"model" yaml:"model" mapstructure:"model"`

	// APIKey is the authentication key for the AI API.
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty" mapstructure:"api_key"`

	// BaseURL overrides the provider's API endpoint (proxies, tests).
	BaseURL string `json:"base_url,omitempty" yaml:"base_url,omitempty" mapstructure:"base_url"`

	// MaxRetries is the number of retry attempts for failed API calls (default 3).
	MaxRetries int `json:"max_retries" yaml:"max_retries" mapstructure:"max_retries"`

	// MaxTokens caps the length of one model response (default 2048).
	MaxTokens int `json:"max_tokens" yaml:"max_tokens" mapstructure:"max_tokens"`

	// Timeout is the per-request HTTP timeout (default 120s).
	Timeout time.Duration `json:"timeout" yaml:"timeout" mapstructure:"timeout"`
}

// MemoryConfig holds translation memory thresholds.
type MemoryConfig struct {
	// MaxEntryLength is the rune ceiling for a record unless the long-entry
	// exemption is requested (default 1000).
	MaxEntryLength int `json:"max_entry_length" yaml:"max_entry_length" mapstructure:"max_entry_length"`

	// SimilarThreshold is the minimum token-set score for memory suggestions
	// sent to the model (default 70).
	SimilarThreshold float64 `json:"similar_threshold" yaml:"similar_threshold" mapstructure:"similar_threshold"`

	// SimilarLimit caps the number of memory suggestions per paragraph (default 3).
	SimilarLimit int `json:"similar_limit" yaml:"similar_limit" mapstructure:"similar_limit"`

	// DocumentReuseThreshold is the minimum score for reusing a cached
	// whole-document translation instead of calling the model (default 98).
	DocumentReuseThreshold float64 `json:"document_reuse_threshold" yaml:"document_reuse_threshold" mapstructure:"document_reuse_threshold"`

	// TermThreshold is the similarity cut-off for the memory term source (default 85).
	TermThreshold float64 `json:"term_threshold" yaml:"term_threshold" mapstructure:"term_threshold"`
}

// Config is the application configuration. It is built once at startup and
// passed down to every component that needs it.
type Config struct {
	SourceLang string `json:"source_lang" yaml:"source_lang" mapstructure:"source_lang"`
	TargetLang string `json:"target_lang" yaml:"target_lang" mapstructure:"target_lang"`

	// DataRoot holds the shared memory store and job database (default ./data).
	DataRoot string `json:"data_root" yaml:"data_root" mapstructure:"data_root"`

	// GlossaryPath is an optional CSV or YAML glossary.
	GlossaryPath string `json:"glossary_path,omitempty" yaml:"glossary_path,omitempty" mapstructure:"glossary_path"`

	// MemoryPath is the JSON translation memory store (default <DataRoot>/memory.json).
	MemoryPath string `json:"memory_path,omitempty" yaml:"memory_path,omitempty" mapstructure:"memory_path"`

	// SeedMemoryPath is the read-only, version-controlled baseline merged into
	// a fresh store (default glossary/memory.json).
	SeedMemoryPath string `json:"seed_memory_path,omitempty" yaml:"seed_memory_path,omitempty" mapstructure:"seed_memory_path"`

	// JobsDB is the SQLite job database; empty keeps jobs in process memory.
	JobsDB string `json:"jobs_db,omitempty" yaml:"jobs_db,omitempty" mapstructure:"jobs_db"`

	AI     AIConfig     `json:"ai" yaml:"ai" mapstructure:"ai"`
	Memory MemoryConfig `json:"memory" yaml:"memory" mapstructure:"memory"`
}

// DefaultConfig returns the configuration used when nothing is overridden.
func DefaultConfig() Config {
	return Config{
		SourceLang:     "fr",
		TargetLang:     "en",
		DataRoot:       "data",
		SeedMemoryPath: filepath.Join("glossary", "memory.json"),
		AI: AIConfig{
			Provider:   ProviderClaude,
			Model:      "claude-sonnet-4-5-20250929",
			MaxRetries: 3,
			MaxTokens:  2048,
			Timeout:    120 * time.Second,
		},
		Memory: MemoryConfig{
			MaxEntryLength:         1000,
			SimilarThreshold:       70,
			SimilarLimit:           3,
			DocumentReuseThreshold: 98,
			TermThreshold:          85,
		},
	}
}

// ResolvedMemoryPath returns MemoryPath, defaulting to DataRoot/memory.json.
func (c Config) ResolvedMemoryPath() string {
	if c.MemoryPath != "" {
		return c.MemoryPath
	}
	return filepath.Join(c.DataRoot, "memory.json")
}

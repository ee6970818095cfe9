// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package secrets loads model API keys from a directory of plain-text files.
// Each file holds one secret: the filename is the key name and the trimmed
// contents are the value.
package secrets

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/pdiddy/legal-translator/pkg/types"
)

// Key file names, one per model provider.
const (
	AnthropicKey = "anthropic-api-key"
	OpenAIKey    = "openai-api-key"
	GeminiKey    = "gemini-api-key"
)

// Load reads all files in dir and returns a map of filename to trimmed contents.
// A missing directory is not an error; Load returns an empty map.
// Unreadable files are logged and skipped.
func Load(dir string) (map[string]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]string{}, nil
		}
		return nil, fmt.Errorf("reading secrets directory %s: %w", dir, err)
	}

	secrets := make(map[string]string)
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if strings.HasPrefix(name, ".") {
			continue
		}

		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			slog.Warn("could not read secret", "name", name, "error", err)
			continue
		}

		value := strings.TrimSpace(string(data))
		if value != "" {
			secrets[name] = value
		}
	}

	return secrets, nil
}

// KeyFor returns the key file name for a provider. Dry runs need no key.
func KeyFor(p types.Provider) string {
	switch p {
	case types.ProviderOpenAI:
		return OpenAIKey
	case types.ProviderGemini:
		return GeminiKey
	case types.ProviderDryRun:
		return ""
	default:
		return AnthropicKey
	}
}

// APIKey picks the key for provider from loaded secrets. An explicit key
// wins over the secrets directory.
func APIKey(loaded map[string]string, p types.Provider, explicit string) string {
	if explicit != "" {
		return explicit
	}
	name := KeyFor(p)
	if name == "" {
		return ""
	}
	return loaded[name]
}

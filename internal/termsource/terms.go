// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package termsource

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/legal-translator/pkg/types"
)

var (
	phrasePattern      = regexp.MustCompile(`[\p{L}\p{N}_]+(?:\s+[\p{L}\p{N}_]+){1,3}`)
	capitalizedPattern = regexp.MustCompile(`\p{Lu}\p{Ll}+(?:\s+\p{Lu}\p{Ll}+)*`)
	longWordPattern    = regexp.MustCompile(`[\p{L}\p{N}_]{6,}`)
)

// ExtractTerms returns candidate terms from text: runs of two to four words,
// capitalized word runs, and single words of six or more letters. Terms
// are lowercased, deduplicated, sorted, and at least minLen runes long.
func ExtractTerms(text string, minLen int) []string {
	lower := strings.ToLower(text)
	seen := map[string]bool{}

	for _, m := range phrasePattern.FindAllString(lower, -1) {
		seen[m] = true
	}
	for _, loc := range capitalizedPattern.FindAllStringIndex(text, -1) {
		if wordRuneBefore(text, loc[0]) || wordRuneAfter(text, loc[1]) {
			continue
		}
		seen[strings.ToLower(text[loc[0]:loc[1]])] = true
	}
	for _, m := range longWordPattern.FindAllString(lower, -1) {
		seen[m] = true
	}

	terms := make([]string, 0, len(seen))
	for t := range seen {
		if utf8.RuneCountInString(t) >= minLen {
			terms = append(terms, t)
		}
	}
	sort.Strings(terms)
	return terms
}

// ApplyTermTranslations replaces every case-insensitive occurrence of each
// source term with its translation, longest source term first. Placeholder
// results are skipped when skipPlaceholders is set.
func ApplyTermTranslations(text string, terms []types.TermTranslation, skipPlaceholders bool) string {
	var usable []types.TermTranslation
	for _, t := range terms {
		if t.SourceTerm == "" {
			continue
		}
		if skipPlaceholders && t.SourceID == IDPlaceholder {
			continue
		}
		usable = append(usable, t)
	}
	sort.SliceStable(usable, func(i, j int) bool {
		return utf8.RuneCountInString(usable[i].SourceTerm) > utf8.RuneCountInString(usable[j].SourceTerm)
	})

	for _, t := range usable {
		re := regexp.MustCompile("(?i)" + regexp.QuoteMeta(t.SourceTerm))
		text = re.ReplaceAllLiteralString(text, t.TranslatedTerm)
	}
	return text
}

// LoadPairs reads reference-document pairs from a JSON or YAML object of
// source term to target term. Keys are normalized as in NormalizePairs.
func LoadPairs(path string) (map[string]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading reference pairs: %w", err)
	}

	raw := map[string]string{}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		err = json.Unmarshal(data, &raw)
	default:
		err = yaml.Unmarshal(data, &raw)
	}
	if err != nil {
		return nil, fmt.Errorf("parsing reference pairs %s: %w", path, err)
	}
	return NormalizePairs(raw), nil
}

func isWordRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}

func wordRuneBefore(s string, i int) bool {
	if i == 0 {
		return false
	}
	r, _ := utf8.DecodeLastRuneInString(s[:i])
	return isWordRune(r)
}

func wordRuneAfter(s string, i int) bool {
	if i >= len(s) {
		return false
	}
	r, _ := utf8.DecodeRuneInString(s[i:])
	return isWordRune(r)
}

// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package memory

import (
	"errors"
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"
)

// DefaultMaxEntryLength is the length ceiling, in runes, applied when no
// explicit ceiling is configured.
const DefaultMaxEntryLength = 1000

const (
	maxPlaceholderRatio = 0.1
	minContentRatio     = 0.3
)

// Rejection reasons returned by Validate.
var (
	ErrEmptyText       = errors.New("empty source or translated text")
	ErrTooLong         = errors.New("text exceeds maximum entry length")
	ErrPlaceholderText = errors.New("source text dominated by placeholder characters")
	ErrSparseText      = errors.New("source text dominated by whitespace")
)

// Validate applies the staleness filter to a candidate record. With
// allowLong set only emptiness is checked; the length, placeholder and
// whitespace rules are skipped together.
func Validate(rec Record, maxLen int, allowLong bool) error {
	if strings.TrimSpace(rec.SourceText) == "" || strings.TrimSpace(rec.TranslatedText) == "" {
		return ErrEmptyText
	}
	if allowLong {
		return nil
	}
	if maxLen <= 0 {
		maxLen = DefaultMaxEntryLength
	}
	if n := utf8.RuneCountInString(rec.SourceText); n > maxLen {
		return fmt.Errorf("%w: source has %d runes, limit %d", ErrTooLong, n, maxLen)
	}
	if n := utf8.RuneCountInString(rec.TranslatedText); n > maxLen {
		return fmt.Errorf("%w: translation has %d runes, limit %d", ErrTooLong, n, maxLen)
	}

	placeholder, content := Ratios(rec.SourceText)
	if placeholder > maxPlaceholderRatio {
		return fmt.Errorf("%w: ratio %.2f", ErrPlaceholderText, placeholder)
	}
	if content < minContentRatio {
		return fmt.Errorf("%w: content ratio %.2f", ErrSparseText, content)
	}
	return nil
}

// Ratios returns the share of placeholder characters (underscores and
// checkbox glyphs) and the share of non-whitespace characters in s.
func Ratios(s string) (placeholder, content float64) {
	var total, ph, nonSpace int
	for _, r := range s {
		total++
		if isPlaceholder(r) {
			ph++
		}
		if !unicode.IsSpace(r) {
			nonSpace++
		}
	}
	if total == 0 {
		return 0, 0
	}
	return float64(ph) / float64(total), float64(nonSpace) / float64(total)
}

func isPlaceholder(r rune) bool {
	switch r {
	case '_', '☐', '☑', '☒', '□', '■':
		return true
	}
	return false
}

// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package textmatch finds case-insensitive literal occurrences of a phrase in
// text. Word boundaries are Unicode-aware: accented letters such as "é" or
// "ü" count as word characters, unlike the ASCII-only \b of package regexp.
package textmatch

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Span is a half-open byte range [Start, End) in a string.
type Span struct {
	Start int
	End   int
}

// Len returns the span width in bytes.
func (s Span) Len() int { return s.End - s.Start }

// Overlaps reports whether s and o share at least one byte.
func (s Span) Overlaps(o Span) bool {
	return s.Start < o.End && o.Start < s.End
}

// WholeWord returns the non-overlapping occurrences of needle in text,
// ignoring case, whose edges do not run into adjacent word characters. An
// edge of needle that is itself punctuation or space is not boundary-checked.
func WholeWord(text, needle string) []Span {
	if strings.TrimSpace(needle) == "" || text == "" {
		return nil
	}
	re, err := regexp.Compile("(?i)" + regexp.QuoteMeta(needle))
	if err != nil {
		return nil
	}

	first, _ := utf8.DecodeRuneInString(needle)
	last, _ := utf8.DecodeLastRuneInString(needle)
	checkLeft := isWordRune(first)
	checkRight := isWordRune(last)

	var spans []Span
	pos := 0
	for pos < len(text) {
		loc := re.FindStringIndex(text[pos:])
		if loc == nil || loc[0] == loc[1] {
			break
		}
		start, end := pos+loc[0], pos+loc[1]
		if (!checkLeft || !wordBefore(text, start)) && (!checkRight || !wordAfter(text, end)) {
			spans = append(spans, Span{Start: start, End: end})
			pos = end
			continue
		}
		_, size := utf8.DecodeRuneInString(text[start:])
		pos = start + size
	}
	return spans
}

// Literal returns the non-overlapping occurrences of needle in text,
// ignoring case, with no boundary checks.
func Literal(text, needle string) []Span {
	if needle == "" || text == "" {
		return nil
	}
	re, err := regexp.Compile("(?i)" + regexp.QuoteMeta(needle))
	if err != nil {
		return nil
	}
	var spans []Span
	for _, loc := range re.FindAllStringIndex(text, -1) {
		spans = append(spans, Span{Start: loc[0], End: loc[1]})
	}
	return spans
}

// Flexible returns the non-overlapping occurrences of needle in text,
// ignoring case, where any whitespace run in needle matches any non-empty
// whitespace run in text (including newlines).
func Flexible(text, needle string) []Span {
	words := strings.Fields(needle)
	if len(words) == 0 || text == "" {
		return nil
	}
	quoted := make([]string, len(words))
	for i, w := range words {
		quoted[i] = regexp.QuoteMeta(w)
	}
	re, err := regexp.Compile(`(?is)` + strings.Join(quoted, `\s+`))
	if err != nil {
		return nil
	}
	var spans []Span
	for _, loc := range re.FindAllStringIndex(text, -1) {
		spans = append(spans, Span{Start: loc[0], End: loc[1]})
	}
	return spans
}

func isWordRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.Is(unicode.Mn, r)
}

func wordBefore(text string, i int) bool {
	if i <= 0 {
		return false
	}
	r, _ := utf8.DecodeLastRuneInString(text[:i])
	return isWordRune(r)
}

func wordAfter(text string, i int) bool {
	if i >= len(text) {
		return false
	}
	r, _ := utf8.DecodeRuneInString(text[i:])
	return isWordRune(r)
}

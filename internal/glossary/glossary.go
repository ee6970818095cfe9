// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package glossary provides canonical term-to-translation lookup for one
// language pair. Entries are kept in load order; an index keyed by the
// lowercased, trimmed term allows duplicate terms, all of them searchable.
package glossary

import (
	"crypto/sha1"
	"encoding/hex"
	"sort"
	"strings"

	"github.com/pdiddy/legal-translator/internal/fuzzy"
	"github.com/pdiddy/legal-translator/internal/textmatch"
)

// Entry is one glossary row. Entries are immutable after load.
type Entry struct {
	Term        string `json:"term" yaml:"term"`
	Translation string `json:"translation" yaml:"translation"`
	Context     string `json:"context,omitempty" yaml:"context,omitempty"`
}

// Key returns the dedup key for the entry: its lowercased, trimmed term.
func (e Entry) Key() string {
	return normalizeKey(e.Term)
}

// Fingerprint returns a stable identifier for the entry, derived from the
// term, translation, and context.
func (e Entry) Fingerprint() string {
	raw := strings.ToLower(e.Term) + "::" + strings.ToLower(e.Translation) + "::" + e.Context
	sum := sha1.Sum([]byte(raw))
	return hex.EncodeToString(sum[:])
}

// Match is a transient lookup result.
type Match struct {
	Entry       Entry   `json:"entry" yaml:"entry"`
	Score       float64 `json:"score" yaml:"score"`
	MatchedText string  `json:"matched_text" yaml:"matched_text"`
}

// Glossary is an ordered set of entries for one language pair.
type Glossary struct {
	Name       string
	SourceLang string
	TargetLang string

	entries []Entry
	byTerm  map[string][]int
}

// New builds a glossary from rows. Rows with an empty term or translation
// are skipped.
func New(name, sourceLang, targetLang string, rows []Entry) *Glossary {
	g := &Glossary{
		Name:       name,
		SourceLang: sourceLang,
		TargetLang: targetLang,
		byTerm:     make(map[string][]int),
	}
	g.load(rows)
	return g
}

func (g *Glossary) load(rows []Entry) {
	for _, row := range rows {
		e := Entry{
			Term:        strings.TrimSpace(row.Term),
			Translation: strings.TrimSpace(row.Translation),
			Context:     strings.TrimSpace(row.Context),
		}
		if e.Term == "" || e.Translation == "" {
			continue
		}
		g.byTerm[e.Key()] = append(g.byTerm[e.Key()], len(g.entries))
		g.entries = append(g.entries, e)
	}
}

// Len returns the number of entries.
func (g *Glossary) Len() int {
	if g == nil {
		return 0
	}
	return len(g.entries)
}

// Entries returns all entries in load order.
func (g *Glossary) Entries() []Entry {
	if g == nil {
		return nil
	}
	out := make([]Entry, len(g.entries))
	copy(out, g.entries)
	return out
}

// ExactMatches returns every entry whose term equals term, ignoring case and
// surrounding whitespace. The first loaded entry comes first.
func (g *Glossary) ExactMatches(term string) []Entry {
	if g == nil {
		return nil
	}
	idx := g.byTerm[normalizeKey(term)]
	out := make([]Entry, 0, len(idx))
	for _, i := range idx {
		out = append(out, g.entries[i])
	}
	return out
}

// FuzzyMatches scores every entry's term against term and returns at most
// limit matches scoring at least threshold, best first. Ties keep load order.
func (g *Glossary) FuzzyMatches(term string, limit int, threshold float64) []Match {
	if g == nil || limit <= 0 {
		return nil
	}
	var matches []Match
	for _, e := range g.entries {
		score := fuzzy.Ratio(term, e.Term)
		if score < threshold {
			continue
		}
		matches = append(matches, Match{Entry: e, Score: score, MatchedText: e.Term})
	}
	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Score > matches[j].Score
	})
	if len(matches) > limit {
		matches = matches[:limit]
	}
	return matches
}

// MatchesInText returns a score-100 match for every entry whose term occurs
// in text as a whole word, ignoring case. It uses the same word-boundary
// rules as the highlighting passes, so a short term never matches inside a
// longer word.
func (g *Glossary) MatchesInText(text string) []Match {
	if g == nil {
		return nil
	}
	var matches []Match
	for _, e := range g.entries {
		spans := textmatch.WholeWord(text, e.Term)
		if len(spans) == 0 {
			continue
		}
		first := spans[0]
		matches = append(matches, Match{Entry: e, Score: 100, MatchedText: text[first.Start:first.End]})
	}
	return matches
}

func normalizeKey(term string) string {
	return strings.ToLower(strings.TrimSpace(term))
}

// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package termsource resolves a single term through a prioritized chain of
// terminology sources. The standard order is reference document, glossary,
// translation memory, then a placeholder fallback that always answers, so a
// chain lookup never reports "not found".
package termsource

import (
	"errors"
	"strings"

	"github.com/pdiddy/legal-translator/internal/glossary"
	"github.com/pdiddy/legal-translator/internal/memory"
	"github.com/pdiddy/legal-translator/pkg/types"
)

// Source identifiers reported in TermTranslation.SourceID.
const (
	IDReferenceDoc = "reference_doc"
	IDGlossary     = "glossary"
	IDMemory       = "memory"
	IDPlaceholder  = "placeholder"
)

// ErrNoFallback is returned by NewChain when the last source is not an
// always-matching fallback.
var ErrNoFallback = errors.New("term source chain must end with an always-matching fallback")

// Source is one terminology lookup strategy.
type Source interface {
	ID() string
	Enabled() bool
	Lookup(term, sourceLang, targetLang string) (types.TermTranslation, bool)
}

// Fallback is implemented by sources that answer every lookup.
type Fallback interface {
	Source
	AlwaysMatches() bool
}

// GlossaryLookup is the part of a glossary a GlossarySource needs.
type GlossaryLookup interface {
	ExactMatches(term string) []glossary.Entry
}

// MemoryLookup is the part of a translation memory a MemorySource needs.
type MemoryLookup interface {
	Similar(sourceText, sourceLang, targetLang string, limit int, threshold float64) []memory.Record
}

// ReferenceDocSource answers from source→target pairs extracted from a
// user-supplied reference document.
type ReferenceDocSource struct {
	pairs map[string]string
}

// NewReferenceDocSource normalizes the pair keys to lowercase.
func NewReferenceDocSource(pairs map[string]string) *ReferenceDocSource {
	return &ReferenceDocSource{pairs: NormalizePairs(pairs)}
}

func (s *ReferenceDocSource) ID() string    { return IDReferenceDoc }
func (s *ReferenceDocSource) Enabled() bool { return len(s.pairs) > 0 }

// Lookup matches term case-insensitively against the pair keys.
func (s *ReferenceDocSource) Lookup(term, _, _ string) (types.TermTranslation, bool) {
	target, ok := s.pairs[normalizeTerm(term)]
	if !ok {
		return types.TermTranslation{}, false
	}
	return types.TermTranslation{
		SourceTerm:     term,
		TranslatedTerm: target,
		SourceID:       IDReferenceDoc,
		Confidence:     1,
		Metadata:       map[string]any{"reference_doc": true},
	}, true
}

// GlossarySource answers from exact glossary matches. The first loaded
// entry wins.
type GlossarySource struct {
	glossary GlossaryLookup
}

func NewGlossarySource(g GlossaryLookup) *GlossarySource {
	return &GlossarySource{glossary: g}
}

func (s *GlossarySource) ID() string { return IDGlossary }

func (s *GlossarySource) Enabled() bool {
	if s.glossary == nil {
		return false
	}
	if g, ok := s.glossary.(*glossary.Glossary); ok && g == nil {
		return false
	}
	return true
}

func (s *GlossarySource) Lookup(term, _, _ string) (types.TermTranslation, bool) {
	matches := s.glossary.ExactMatches(term)
	if len(matches) == 0 {
		return types.TermTranslation{}, false
	}
	entry := matches[0]
	return types.TermTranslation{
		SourceTerm:     term,
		TranslatedTerm: entry.Translation,
		SourceID:       IDGlossary,
		Confidence:     1,
		Metadata:       map[string]any{"glossary_entry": entry.Term},
	}, true
}

// MemorySource answers with the best translation-memory record whose source
// text scores at least Threshold. Its confidence is Threshold/100.
type MemorySource struct {
	memory    MemoryLookup
	Threshold float64
}

func NewMemorySource(m MemoryLookup, threshold float64) *MemorySource {
	return &MemorySource{memory: m, Threshold: threshold}
}

func (s *MemorySource) ID() string { return IDMemory }

func (s *MemorySource) Enabled() bool {
	if s.memory == nil {
		return false
	}
	if m, ok := s.memory.(*memory.Memory); ok && m == nil {
		return false
	}
	return true
}

func (s *MemorySource) Lookup(term, sourceLang, targetLang string) (types.TermTranslation, bool) {
	similar := s.memory.Similar(term, sourceLang, targetLang, 1, s.Threshold)
	if len(similar) == 0 {
		return types.TermTranslation{}, false
	}
	return types.TermTranslation{
		SourceTerm:     term,
		TranslatedTerm: similar[0].TranslatedText,
		SourceID:       IDMemory,
		Confidence:     s.Threshold / 100,
		Metadata:       map[string]any{"similarity_threshold": s.Threshold},
	}, true
}

// PlaceholderSource answers every lookup with "[TERM]" at confidence 0.
type PlaceholderSource struct{}

func (PlaceholderSource) ID() string          { return IDPlaceholder }
func (PlaceholderSource) Enabled() bool       { return true }
func (PlaceholderSource) AlwaysMatches() bool { return true }

func (PlaceholderSource) Lookup(term, _, _ string) (types.TermTranslation, bool) {
	return types.TermTranslation{
		SourceTerm:     term,
		TranslatedTerm: "[" + strings.ToUpper(term) + "]",
		SourceID:       IDPlaceholder,
		Confidence:     0,
		Metadata:       map[string]any{"reason": "term_not_found"},
	}, true
}

// Chain checks its sources in order and returns the first answer.
type Chain struct {
	sources []Source
}

// NewChain builds a chain. The last source must implement Fallback and
// report AlwaysMatches; otherwise NewChain returns ErrNoFallback.
func NewChain(sources ...Source) (*Chain, error) {
	if len(sources) == 0 {
		return nil, ErrNoFallback
	}
	last, ok := sources[len(sources)-1].(Fallback)
	if !ok || !last.AlwaysMatches() || !last.Enabled() {
		return nil, ErrNoFallback
	}
	return &Chain{sources: sources}, nil
}

// StandardChain builds reference document > glossary > memory >
// placeholder. Nil or empty collaborators are kept in the chain but report
// themselves disabled.
func StandardChain(pairs map[string]string, g GlossaryLookup, m MemoryLookup, memoryThreshold float64) *Chain {
	c, _ := NewChain(
		NewReferenceDocSource(pairs),
		NewGlossarySource(g),
		NewMemorySource(m, memoryThreshold),
		PlaceholderSource{},
	)
	return c
}

// Sources returns the chain's sources in priority order.
func (c *Chain) Sources() []Source {
	out := make([]Source, len(c.sources))
	copy(out, c.sources)
	return out
}

// Lookup resolves term. Disabled sources are skipped.
func (c *Chain) Lookup(term, sourceLang, targetLang string) types.TermTranslation {
	for _, src := range c.sources {
		if !src.Enabled() {
			continue
		}
		if tt, ok := src.Lookup(term, sourceLang, targetLang); ok {
			return tt
		}
	}
	// NewChain guarantees an always-matching fallback.
	panic("termsource: chain exhausted without fallback")
}

// LookupAll resolves each term in order.
func (c *Chain) LookupAll(terms []string, sourceLang, targetLang string) []types.TermTranslation {
	out := make([]types.TermTranslation, 0, len(terms))
	for _, t := range terms {
		out = append(out, c.Lookup(t, sourceLang, targetLang))
	}
	return out
}

// NormalizePairs lowercases and trims reference pair keys and drops pairs
// with an empty key or target.
func NormalizePairs(pairs map[string]string) map[string]string {
	out := make(map[string]string, len(pairs))
	for k, v := range pairs {
		key := normalizeTerm(k)
		v = strings.TrimSpace(v)
		if key == "" || v == "" {
			continue
		}
		out[key] = v
	}
	return out
}

func normalizeTerm(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

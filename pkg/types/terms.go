// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines shared data structures for the translation pipeline:
// configuration, term lookups, and the provenance records collected while
// annotating translated text.
package types

// SourceKind identifies which terminology source claimed a span of output.
type SourceKind string

const (
	KindReferenceDoc        SourceKind = "reference_doc"
	KindGlossaryTranslation SourceKind = "glossary_translation_match"
	KindGlossaryReplacement SourceKind = "glossary_source_replacement"
	KindMemory              SourceKind = "memory"
	KindFullMemoryMatch     SourceKind = "full_memory_match"
)

// AppliedTerm records one span the enricher attributed to a terminology
// source. It is created during a single pass and never mutated.
type AppliedTerm struct {
	// Source is the glossary term, reference-document source term, or memory
	// source text that justified the span.
	Source string `json:"source" yaml:"source"`

	// Translation is the canonical target text for the span.
	Translation string `json:"translation" yaml:"translation"`

	// MatchedText is the text found in the translation before wrapping.
	MatchedText string `json:"matched_text" yaml:"matched_text"`

	// ReplacedWith is set when the span was rewritten (source replacement).
	ReplacedWith string `json:"replaced_with,omitempty" yaml:"replaced_with,omitempty"`

	Kind SourceKind `json:"type" yaml:"type"`

	// Context is the glossary context note, if any.
	Context string `json:"context,omitempty" yaml:"context,omitempty"`
}

// TermTranslation is the result of resolving one term through a term source.
type TermTranslation struct {
	SourceTerm     string         `json:"source_term" yaml:"source_term"`
	TranslatedTerm string         `json:"translated_term" yaml:"translated_term"`
	SourceID       string         `json:"source" yaml:"source"`
	Confidence     float64        `json:"confidence" yaml:"confidence"`
	Metadata       map[string]any `json:"metadata,omitempty" yaml:"metadata,omitempty"`
}

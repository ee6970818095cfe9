// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package report builds the per-run translation report: paragraph counts,
// model and memory usage, and the terms each terminology source applied.
package report

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"time"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/legal-translator/pkg/types"
)

// ParagraphLog describes how one paragraph was translated.
type ParagraphLog struct {
	Index             int      `json:"index" yaml:"index"`
	Length            int      `json:"length" yaml:"length"`
	SourcePreview     string   `json:"source_preview" yaml:"source_preview"`
	UsedMemory        bool     `json:"used_memory" yaml:"used_memory"`
	ModelCalled       bool     `json:"model_called" yaml:"model_called"`
	GlossaryTerms     []string `json:"glossary_terms" yaml:"glossary_terms"`
	MemorySuggestions []string `json:"memory_suggestions,omitempty" yaml:"memory_suggestions,omitempty"`
	OutputPreview     string   `json:"output_preview,omitempty" yaml:"output_preview,omitempty"`
}

// Stats are the counters collected while translating one document.
type Stats struct {
	ParagraphsTotal     int            `json:"paragraphs_total" yaml:"paragraphs_total"`
	EmptyParagraphs     int            `json:"empty_paragraphs" yaml:"empty_paragraphs"`
	ReusedFromMemory    int            `json:"reused_from_memory" yaml:"reused_from_memory"`
	ModelCalls          int            `json:"model_calls" yaml:"model_calls"`
	GlossaryMatches     int            `json:"glossary_matches" yaml:"glossary_matches"`
	GlossaryApplied     int            `json:"glossary_applied" yaml:"glossary_applied"`
	MemoryApplied       int            `json:"memory_applied" yaml:"memory_applied"`
	ReferenceDocApplied int            `json:"reference_doc_applied" yaml:"reference_doc_applied"`
	FullDocumentMemory  bool           `json:"full_document_memory" yaml:"full_document_memory"`
	Paragraphs          []ParagraphLog `json:"paragraphs" yaml:"paragraphs"`
}

// TermSources breaks the output down by where its text came from, so a
// reviewer can tell machine translation from protected terminology.
type TermSources struct {
	ReferenceDoc              int `json:"reference_doc" yaml:"reference_doc"`
	GlossaryTranslationMatch  int `json:"glossary_translation_match" yaml:"glossary_translation_match"`
	GlossarySourceReplacement int `json:"glossary_source_replacement" yaml:"glossary_source_replacement"`
	Memory                    int `json:"memory" yaml:"memory"`
	FullMemoryMatch           int `json:"full_memory_match" yaml:"full_memory_match"`
	ModelParagraphs           int `json:"model_paragraphs" yaml:"model_paragraphs"`
	MemoryParagraphs          int `json:"memory_paragraphs" yaml:"memory_paragraphs"`
}

// Report is the serializable record of one translation run.
type Report struct {
	InputFile                string              `json:"input_file" yaml:"input_file"`
	OutputFile               string              `json:"output_file,omitempty" yaml:"output_file,omitempty"`
	SourceLang               string              `json:"source_lang" yaml:"source_lang"`
	TargetLang               string              `json:"target_lang" yaml:"target_lang"`
	DurationSeconds          float64             `json:"duration_seconds" yaml:"duration_seconds"`
	Stats                    Stats               `json:"stats" yaml:"stats"`
	TermSources              TermSources         `json:"term_sources" yaml:"term_sources"`
	AppliedGlossaryTerms     []types.AppliedTerm `json:"applied_glossary_terms" yaml:"applied_glossary_terms"`
	AppliedMemoryTerms       []types.AppliedTerm `json:"applied_memory_terms" yaml:"applied_memory_terms"`
	AppliedReferenceDocTerms []types.AppliedTerm `json:"applied_reference_doc_terms" yaml:"applied_reference_doc_terms"`
	GeneratedAt              string              `json:"generated_at" yaml:"generated_at"`
}

// Input is everything Build aggregates.
type Input struct {
	InputFile    string
	OutputFile   string
	SourceLang   string
	TargetLang   string
	Duration     time.Duration
	Stats        Stats
	Glossary     []types.AppliedTerm
	Memory       []types.AppliedTerm
	ReferenceDoc []types.AppliedTerm
	GeneratedAt  time.Time
}

// Build aggregates in into a Report. It has no side effects; the applied
// term lists are copied.
func Build(in Input) Report {
	stats := in.Stats
	stats.Paragraphs = append([]ParagraphLog{}, in.Stats.Paragraphs...)
	stats.GlossaryApplied = len(in.Glossary)
	stats.MemoryApplied = len(in.Memory)
	stats.ReferenceDocApplied = len(in.ReferenceDoc)

	r := Report{
		InputFile:                in.InputFile,
		OutputFile:               in.OutputFile,
		SourceLang:               in.SourceLang,
		TargetLang:               in.TargetLang,
		DurationSeconds:          math.Round(in.Duration.Seconds()*1000) / 1000,
		Stats:                    stats,
		AppliedGlossaryTerms:     append([]types.AppliedTerm{}, in.Glossary...),
		AppliedMemoryTerms:       append([]types.AppliedTerm{}, in.Memory...),
		AppliedReferenceDocTerms: append([]types.AppliedTerm{}, in.ReferenceDoc...),
		GeneratedAt:              in.GeneratedAt.UTC().Format(time.RFC3339),
	}

	r.TermSources.ModelParagraphs = stats.ModelCalls
	r.TermSources.MemoryParagraphs = stats.ReusedFromMemory
	for _, list := range [][]types.AppliedTerm{in.ReferenceDoc, in.Glossary, in.Memory} {
		for _, at := range list {
			switch at.Kind {
			case types.KindReferenceDoc:
				r.TermSources.ReferenceDoc++
			case types.KindGlossaryTranslation:
				r.TermSources.GlossaryTranslationMatch++
			case types.KindGlossaryReplacement:
				r.TermSources.GlossarySourceReplacement++
			case types.KindMemory:
				r.TermSources.Memory++
			case types.KindFullMemoryMatch:
				r.TermSources.FullMemoryMatch++
			}
		}
	}
	return r
}

// WriteJSON writes r to path as indented JSON.
func WriteJSON(path string, r Report) error {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling JSON: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

// WriteYAML writes r to path as YAML.
func WriteYAML(path string, r Report) error {
	data, err := yaml.Marshal(r)
	if err != nil {
		return fmt.Errorf("marshaling YAML: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

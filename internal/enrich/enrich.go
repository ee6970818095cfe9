// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package enrich

import (
	"github.com/pdiddy/legal-translator/internal/memory"
	"github.com/pdiddy/legal-translator/pkg/types"
)

// Sources are the terminology collaborators for one enrichment run. Any of
// them may be nil or empty; the matching pass is then a no-op.
type Sources struct {
	ReferencePairs map[string]string
	Glossary       EntryLister
	Memory         RecordLister
	// UsedRecord is the whole-document memory record the translation was
	// taken from, if any.
	UsedRecord *memory.Record
	SourceLang string
	TargetLang string
}

// Result is the annotated text and the applied terms of each pass.
type Result struct {
	Text              string              `json:"text"`
	ReferenceDocTerms []types.AppliedTerm `json:"applied_reference_doc_terms"`
	GlossaryTerms     []types.AppliedTerm `json:"applied_glossary_terms"`
	MemoryTerms       []types.AppliedTerm `json:"applied_memory_terms"`
}

// Enrich runs the reference-document, glossary and memory passes in that
// order over text.
func Enrich(text string, src Sources) Result {
	a := NewAnnotator(text)
	res := Result{}
	if len(src.ReferencePairs) > 0 {
		res.ReferenceDocTerms = a.ApplyReferenceDoc(src.ReferencePairs)
	}
	if src.Glossary != nil {
		res.GlossaryTerms = a.ApplyGlossary(src.Glossary)
	}
	if src.Memory != nil || src.UsedRecord != nil {
		var records []memory.Record
		if src.Memory != nil {
			records = src.Memory.Records()
		}
		res.MemoryTerms = a.ApplyMemory(records, src.SourceLang, src.TargetLang, src.UsedRecord)
	}
	res.Text = a.Render()
	return res
}

// ApplyReferenceDocWithHighlighting runs only the reference-document pass.
func ApplyReferenceDocWithHighlighting(text string, pairs map[string]string) (string, []types.AppliedTerm) {
	a := NewAnnotator(text)
	applied := a.ApplyReferenceDoc(pairs)
	return a.Render(), applied
}

// ApplyGlossaryWithHighlighting runs only the glossary pass. Spans already
// wrapped in text are left alone.
func ApplyGlossaryWithHighlighting(text string, g EntryLister) (string, []types.AppliedTerm) {
	a := NewAnnotator(text)
	applied := a.ApplyGlossary(g)
	return a.Render(), applied
}

// ApplyMemoryWithHighlighting runs only the memory pass.
func ApplyMemoryWithHighlighting(text string, m RecordLister, sourceLang, targetLang string, used *memory.Record) (string, []types.AppliedTerm) {
	a := NewAnnotator(text)
	var records []memory.Record
	if m != nil {
		records = m.Records()
	}
	applied := a.ApplyMemory(records, sourceLang, targetLang, used)
	return a.Render(), applied
}

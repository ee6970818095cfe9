// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package enrich marks spans of translated text with the terminology source
// that produced or approved them. Passes run in priority order (reference
// document, glossary, memory) against one Annotator; a span claimed by an
// earlier pass is never wrapped again. Edits are recorded as offsets into the
// input text and applied in one render, from the end of the text backwards.
package enrich

import (
	"log/slog"
	"regexp"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/pdiddy/legal-translator/internal/glossary"
	"github.com/pdiddy/legal-translator/internal/memory"
	"github.com/pdiddy/legal-translator/internal/textmatch"
	"github.com/pdiddy/legal-translator/pkg/types"
)

// Marker tag names. A marked span renders as <tag>text</tag>.
const (
	MarkerReferenceDoc = "reference_doc"
	MarkerGlossary     = "glossary"
	MarkerMemory       = "memory"
)

const (
	// Memory translations shorter than this (in runes) are matched as whole
	// words at every occurrence; longer ones whitespace-flexibly, once.
	shortMemoryLen = 50
	minMemoryLen   = 3
	previewLen     = 100
)

var (
	existingMarkerPattern = regexp.MustCompile(`(?s)<(?:reference_doc|glossary|memory)>.*?</(?:reference_doc|glossary|memory)>`)
	markerTagPattern      = regexp.MustCompile(`</?(?:reference_doc|glossary|memory)>`)
)

// EntryLister exposes glossary entries in load order.
type EntryLister interface {
	Entries() []glossary.Entry
}

// RecordLister exposes translation-memory records.
type RecordLister interface {
	Records() []memory.Record
}

// Mark is one span the annotator will wrap.
type Mark struct {
	Span   textmatch.Span
	Marker string
	// Replacement, when set, replaces the spanned text inside the marker.
	Replacement string
}

// Annotator accumulates non-overlapping marks over a fixed input text.
type Annotator struct {
	text    string
	claimed intervalSet
	marks   []Mark
}

// NewAnnotator starts annotating text. Markers already present in text are
// kept and their spans count as claimed, so the one-shot helpers compose.
func NewAnnotator(text string) *Annotator {
	a := &Annotator{text: text}
	for _, loc := range existingMarkerPattern.FindAllStringIndex(text, -1) {
		a.claimed.claim(textmatch.Span{Start: loc[0], End: loc[1]})
	}
	return a
}

// Text returns the input text.
func (a *Annotator) Text() string { return a.text }

// Marks returns the recorded marks ordered by position.
func (a *Annotator) Marks() []Mark {
	out := make([]Mark, len(a.marks))
	copy(out, a.marks)
	sort.Slice(out, func(i, j int) bool { return out[i].Span.Start < out[j].Span.Start })
	return out
}

func (a *Annotator) mark(s textmatch.Span, marker, replacement string) bool {
	if !a.claimed.claim(s) {
		return false
	}
	a.marks = append(a.marks, Mark{Span: s, Marker: marker, Replacement: replacement})
	return true
}

// ApplyReferenceDoc wraps every non-overlapping, case-insensitive literal
// occurrence of each reference pair's target term. Longer targets are
// searched first.
func (a *Annotator) ApplyReferenceDoc(pairs map[string]string) []types.AppliedTerm {
	type pair struct{ source, target string }
	var ordered []pair
	for src, tgt := range pairs {
		if strings.TrimSpace(tgt) == "" {
			continue
		}
		ordered = append(ordered, pair{source: src, target: strings.TrimSpace(tgt)})
	}
	sort.Slice(ordered, func(i, j int) bool {
		li, lj := utf8.RuneCountInString(ordered[i].target), utf8.RuneCountInString(ordered[j].target)
		if li != lj {
			return li > lj
		}
		return ordered[i].source < ordered[j].source
	})

	var applied []types.AppliedTerm
	for _, p := range ordered {
		for _, s := range textmatch.Literal(a.text, p.target) {
			if !a.mark(s, MarkerReferenceDoc, "") {
				continue
			}
			applied = append(applied, types.AppliedTerm{
				Source:      p.source,
				Translation: p.target,
				MatchedText: a.text[s.Start:s.End],
				Kind:        types.KindReferenceDoc,
			})
		}
	}
	slog.Debug("reference document terms applied", "count", len(applied))
	return applied
}

// ApplyGlossary runs two strategies over the unclaimed text. First, each
// entry's translation is wrapped where it occurs as a whole word, longest
// translations first. Then each entry's source term still present in the
// text is replaced by its translation and wrapped, longest terms first;
// entries whose term equals their translation are skipped there.
func (a *Annotator) ApplyGlossary(g EntryLister) []types.AppliedTerm {
	if g == nil {
		return nil
	}
	entries := g.Entries()
	if len(entries) == 0 {
		return nil
	}

	byTranslation := make([]glossary.Entry, len(entries))
	copy(byTranslation, entries)
	sort.SliceStable(byTranslation, func(i, j int) bool {
		return utf8.RuneCountInString(byTranslation[i].Translation) > utf8.RuneCountInString(byTranslation[j].Translation)
	})

	var applied []types.AppliedTerm
	matches := 0
	for _, e := range byTranslation {
		if strings.TrimSpace(e.Translation) == "" {
			continue
		}
		for _, s := range textmatch.WholeWord(a.text, e.Translation) {
			if !a.mark(s, MarkerGlossary, "") {
				continue
			}
			matches++
			applied = append(applied, types.AppliedTerm{
				Source:      e.Term,
				Translation: e.Translation,
				MatchedText: a.text[s.Start:s.End],
				Kind:        types.KindGlossaryTranslation,
				Context:     e.Context,
			})
		}
	}

	byTerm := make([]glossary.Entry, len(entries))
	copy(byTerm, entries)
	sort.SliceStable(byTerm, func(i, j int) bool {
		return utf8.RuneCountInString(byTerm[i].Term) > utf8.RuneCountInString(byTerm[j].Term)
	})

	for _, e := range byTerm {
		if e.Term == "" || e.Translation == "" || strings.EqualFold(e.Term, e.Translation) {
			continue
		}
		for _, s := range textmatch.WholeWord(a.text, e.Term) {
			if !a.mark(s, MarkerGlossary, e.Translation) {
				continue
			}
			applied = append(applied, types.AppliedTerm{
				Source:       e.Term,
				Translation:  e.Translation,
				MatchedText:  a.text[s.Start:s.End],
				ReplacedWith: e.Translation,
				Kind:         types.KindGlossaryReplacement,
				Context:      e.Context,
			})
		}
	}
	slog.Debug("glossary terms applied", "translation_matches", matches, "source_replacements", len(applied)-matches)
	return applied
}

// ApplyMemory marks text attributable to translation memory. When used is
// the whole-document record the text came from, every paragraph is wrapped
// in one pass. Otherwise each record of the language pair is searched for,
// longest translation first: short translations at every whole-word
// occurrence, long ones at their first whitespace-flexible occurrence.
func (a *Annotator) ApplyMemory(records []memory.Record, sourceLang, targetLang string, used *memory.Record) []types.AppliedTerm {
	if used != nil && sameText(used.TranslatedText, StripMarkers(a.text)) {
		return a.applyFullMemory(*used)
	}

	var candidates []memory.Record
	for _, r := range records {
		if r.SourceLang != sourceLang || r.TargetLang != targetLang {
			continue
		}
		if utf8.RuneCountInString(strings.TrimSpace(r.TranslatedText)) < minMemoryLen {
			continue
		}
		candidates = append(candidates, r)
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		li := utf8.RuneCountInString(strings.TrimSpace(candidates[i].TranslatedText))
		lj := utf8.RuneCountInString(strings.TrimSpace(candidates[j].TranslatedText))
		if li != lj {
			return li > lj
		}
		return candidates[i].SourceText < candidates[j].SourceText
	})

	var applied []types.AppliedTerm
	for _, r := range candidates {
		translation := strings.TrimSpace(r.TranslatedText)
		short := utf8.RuneCountInString(translation) < shortMemoryLen

		var spans []textmatch.Span
		if short {
			spans = textmatch.WholeWord(a.text, translation)
		} else {
			spans = textmatch.Flexible(a.text, translation)
		}
		for _, s := range spans {
			if !a.mark(s, MarkerMemory, "") {
				continue
			}
			applied = append(applied, types.AppliedTerm{
				Source:      preview(r.SourceText),
				Translation: preview(translation),
				MatchedText: preview(a.text[s.Start:s.End]),
				Kind:        types.KindMemory,
			})
			if !short {
				break
			}
		}
	}
	slog.Debug("memory terms applied", "candidates", len(candidates), "count", len(applied))
	return applied
}

// applyFullMemory wraps each blank-line separated paragraph. Inside a
// paragraph that already holds higher-priority marks only the unclaimed
// stretches are wrapped.
func (a *Annotator) applyFullMemory(used memory.Record) []types.AppliedTerm {
	var applied []types.AppliedTerm
	for _, para := range paragraphSpans(a.text) {
		for _, gap := range a.claimed.gaps(para) {
			s := trimSpan(a.text, gap)
			if s.Len() == 0 || !a.mark(s, MarkerMemory, "") {
				continue
			}
			matched := a.text[s.Start:s.End]
			applied = append(applied, types.AppliedTerm{
				Source:      preview(used.SourceText),
				Translation: preview(matched),
				MatchedText: matched,
				Kind:        types.KindFullMemoryMatch,
			})
		}
	}
	slog.Debug("full memory match applied", "paragraphs", len(applied))
	return applied
}

// Render applies every mark to the input text, from the last mark to the
// first, and returns the annotated text.
func (a *Annotator) Render() string {
	if len(a.marks) == 0 {
		return a.text
	}
	marks := a.Marks()

	pieces := make([]string, 0, 2*len(marks)+1)
	cursor := len(a.text)
	for i := len(marks) - 1; i >= 0; i-- {
		m := marks[i]
		inner := a.text[m.Span.Start:m.Span.End]
		if m.Replacement != "" {
			inner = m.Replacement
		}
		pieces = append(pieces, a.text[m.Span.End:cursor], "<"+m.Marker+">"+inner+"</"+m.Marker+">")
		cursor = m.Span.Start
	}
	pieces = append(pieces, a.text[:cursor])

	var b strings.Builder
	for i := len(pieces) - 1; i >= 0; i-- {
		b.WriteString(pieces[i])
	}
	return b.String()
}

// StripMarkers removes every marker tag and keeps the wrapped text.
func StripMarkers(text string) string {
	return markerTagPattern.ReplaceAllString(text, "")
}

func paragraphSpans(text string) []textmatch.Span {
	var out []textmatch.Span
	start := 0
	for {
		i := strings.Index(text[start:], "\n\n")
		if i < 0 {
			out = append(out, textmatch.Span{Start: start, End: len(text)})
			return out
		}
		out = append(out, textmatch.Span{Start: start, End: start + i})
		start += i + 2
	}
}

func trimSpan(text string, s textmatch.Span) textmatch.Span {
	seg := text[s.Start:s.End]
	left := len(seg) - len(strings.TrimLeftFunc(seg, unicode.IsSpace))
	right := len(strings.TrimRightFunc(seg, unicode.IsSpace))
	if right <= left {
		return textmatch.Span{Start: s.Start, End: s.Start}
	}
	return textmatch.Span{Start: s.Start + left, End: s.Start + right}
}

func sameText(a, b string) bool {
	return strings.Join(strings.Fields(a), " ") == strings.Join(strings.Fields(b), " ")
}

func preview(s string) string {
	if utf8.RuneCountInString(s) <= previewLen {
		return s
	}
	return string([]rune(s)[:previewLen]) + "..."
}

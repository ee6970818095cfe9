// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package pipeline translates one document end to end. A whole-document
// memory hit short-circuits the model; otherwise paragraphs are translated
// one by one with glossary and memory context, written back to memory, and
// the joined result is annotated with provenance markers.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/pdiddy/legal-translator/internal/document"
	"github.com/pdiddy/legal-translator/internal/enrich"
	"github.com/pdiddy/legal-translator/internal/glossary"
	"github.com/pdiddy/legal-translator/internal/llm"
	"github.com/pdiddy/legal-translator/internal/memory"
	"github.com/pdiddy/legal-translator/internal/metrics"
	"github.com/pdiddy/legal-translator/internal/report"
	"github.com/pdiddy/legal-translator/internal/termsource"
	"github.com/pdiddy/legal-translator/pkg/types"
)

// ErrNoText is returned for documents without any non-blank paragraph.
var ErrNoText = errors.New("no text found to translate")

const (
	previewLen    = 120
	suggestionLen = 80
)

// Pipeline holds the collaborators shared by every document of a run.
// Translator and Memory are required; Glossary, Metrics and Progress may be
// nil.
type Pipeline struct {
	Translator llm.Translator
	Glossary   *glossary.Glossary
	Memory     *memory.Memory
	Settings   types.MemoryConfig
	Metrics    *metrics.Metrics
	// Progress receives one line per paragraph.
	Progress io.Writer
	// Now is the clock used for report timestamps; defaults to time.Now.
	Now func() time.Time
}

// Request is one document to translate.
type Request struct {
	Text           string
	SourceLang     string
	TargetLang     string
	ReferencePairs map[string]string
	InputFile      string
	OutputFile     string
}

// Outcome is the result of translating one document.
type Outcome struct {
	// Translation is the plain translated text.
	Translation string
	// Annotated is Translation with provenance markers.
	Annotated  string
	Enrichment enrich.Result
	// UsedRecord is the memory record reused for the whole document, if any.
	UsedRecord *memory.Record
	Report     report.Report
}

// Translate runs the full pipeline on req.Text.
func (p *Pipeline) Translate(ctx context.Context, req Request) (*Outcome, error) {
	if p.Translator == nil || p.Memory == nil {
		return nil, fmt.Errorf("pipeline needs a translator and a memory")
	}
	now := p.Now
	if now == nil {
		now = time.Now
	}
	start := now()

	paragraphs := document.Split(req.Text)
	whole := strings.TrimSpace(req.Text)
	if whole == "" {
		return nil, ErrNoText
	}

	var (
		translation string
		stats       report.Stats
		err         error
	)
	// Spans are attributed to memory only for records that predate this
	// document; the paragraphs written below would otherwise claim
	// everything the model produced.
	prior := recordSnapshot(p.Memory.Records())

	used := p.documentMatch(whole, req.SourceLang, req.TargetLang)
	if used != nil {
		translation = used.TranslatedText
		stats = fullDocumentStats(paragraphs)
		p.Metrics.MemoryReuse(metrics.LevelDocument)
	} else {
		var translated []string
		translated, stats, err = p.translateParagraphs(ctx, paragraphs, req.SourceLang, req.TargetLang)
		if err != nil {
			return nil, err
		}
		translation = document.Join(translated)
		if _, err := p.Memory.Record(whole, translation, req.SourceLang, req.TargetLang, true); err != nil {
			return nil, fmt.Errorf("recording document translation: %w", err)
		}
	}

	src := enrich.Sources{
		ReferencePairs: termsource.NormalizePairs(req.ReferencePairs),
		Memory:         prior,
		UsedRecord:     used,
		SourceLang:     req.SourceLang,
		TargetLang:     req.TargetLang,
	}
	if p.Glossary != nil {
		src.Glossary = p.Glossary
	}
	res := enrich.Enrich(translation, src)
	p.countApplied(res)

	rep := report.Build(report.Input{
		InputFile:    req.InputFile,
		OutputFile:   req.OutputFile,
		SourceLang:   req.SourceLang,
		TargetLang:   req.TargetLang,
		Duration:     now().Sub(start),
		Stats:        stats,
		Glossary:     res.GlossaryTerms,
		Memory:       res.MemoryTerms,
		ReferenceDoc: res.ReferenceDocTerms,
		GeneratedAt:  now(),
	})

	return &Outcome{
		Translation: translation,
		Annotated:   res.Text,
		Enrichment:  res,
		UsedRecord:  used,
		Report:      rep,
	}, nil
}

// documentMatch returns the exact memory record for the whole document, or
// failing that the best record at or above the reuse threshold.
func (p *Pipeline) documentMatch(text, sourceLang, targetLang string) *memory.Record {
	if rec := p.Memory.Get(text, sourceLang, targetLang); rec != nil {
		return rec
	}
	threshold := p.Settings.DocumentReuseThreshold
	if threshold <= 0 {
		return nil
	}
	hit, ok := p.Memory.Nearest(text, sourceLang, targetLang, threshold)
	if !ok {
		return nil
	}
	return &hit.Record
}

type recordSnapshot []memory.Record

func (r recordSnapshot) Records() []memory.Record { return r }

func fullDocumentStats(paragraphs []string) report.Stats {
	stats := report.Stats{
		ParagraphsTotal:    len(paragraphs),
		FullDocumentMemory: true,
		Paragraphs:         []report.ParagraphLog{},
	}
	for _, para := range paragraphs {
		if strings.TrimSpace(para) == "" {
			stats.EmptyParagraphs++
		} else {
			stats.ReusedFromMemory++
		}
	}
	return stats
}

func (p *Pipeline) translateParagraphs(ctx context.Context, paragraphs []string, sourceLang, targetLang string) ([]string, report.Stats, error) {
	stats := report.Stats{
		ParagraphsTotal: len(paragraphs),
		Paragraphs:      make([]report.ParagraphLog, 0, len(paragraphs)),
	}
	translated := make([]string, 0, len(paragraphs))

	for i, para := range paragraphs {
		idx := i + 1
		text := strings.TrimSpace(para)
		entry := report.ParagraphLog{
			Index:         idx,
			Length:        len([]rune(para)),
			SourcePreview: truncate(text, previewLen),
			GlossaryTerms: []string{},
		}
		if text == "" {
			stats.EmptyParagraphs++
			translated = append(translated, para)
			stats.Paragraphs = append(stats.Paragraphs, entry)
			p.progress("[%d/%d] empty\n", idx, len(paragraphs))
			continue
		}

		matches := p.Glossary.MatchesInText(text)
		stats.GlossaryMatches += len(matches)
		for _, m := range matches {
			entry.GlossaryTerms = append(entry.GlossaryTerms, m.Entry.Term)
		}

		var out string
		if hit := p.Memory.Get(text, sourceLang, targetLang); hit != nil {
			out = hit.TranslatedText
			stats.ReusedFromMemory++
			entry.UsedMemory = true
			p.Metrics.MemoryReuse(metrics.LevelParagraph)
			p.progress("[%d/%d] memory %d chars\n", idx, len(paragraphs), len([]rune(text)))
		} else {
			suggestions := p.Memory.Similar(text, sourceLang, targetLang, p.Settings.SimilarLimit, p.Settings.SimilarThreshold)
			callStart := time.Now()
			var err error
			out, err = p.Translator.Translate(ctx, llm.Request{
				Text:            text,
				SourceLang:      sourceLang,
				TargetLang:      targetLang,
				GlossaryMatches: matches,
				MemoryHits:      suggestions,
			})
			p.Metrics.ModelCall(time.Since(callStart), err)
			if err != nil {
				return nil, stats, fmt.Errorf("translating paragraph %d: %w", idx, err)
			}
			if _, err := p.Memory.Record(text, out, sourceLang, targetLang, false); err != nil {
				return nil, stats, fmt.Errorf("recording paragraph %d: %w", idx, err)
			}
			stats.ModelCalls++
			entry.ModelCalled = true
			entry.MemorySuggestions = make([]string, 0, len(suggestions))
			for _, s := range suggestions {
				entry.MemorySuggestions = append(entry.MemorySuggestions, truncate(s.SourceText, suggestionLen))
			}
			p.progress("[%d/%d] translated %d chars\n", idx, len(paragraphs), len([]rune(text)))
		}

		entry.OutputPreview = truncate(out, previewLen)
		translated = append(translated, out)
		stats.Paragraphs = append(stats.Paragraphs, entry)
	}
	return translated, stats, nil
}

func (p *Pipeline) countApplied(res enrich.Result) {
	if p.Metrics == nil {
		return
	}
	for _, list := range [][]types.AppliedTerm{res.ReferenceDocTerms, res.GlossaryTerms, res.MemoryTerms} {
		for _, at := range list {
			p.Metrics.AppliedTerms(string(at.Kind), 1)
		}
	}
}

func (p *Pipeline) progress(format string, args ...any) {
	if p.Progress != nil {
		fmt.Fprintf(p.Progress, format, args...)
	}
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package llm is the model-facing side of the pipeline. A Translator turns
// one paragraph plus its glossary and memory context into translated text.
// Network backends (Claude, OpenAI, Gemini) implement the smaller Completer
// contract and are wrapped by ModelTranslator, which owns the prompt and the
// retry policy.
package llm

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"text/template"
	"time"

	"github.com/pdiddy/legal-translator/internal/glossary"
	"github.com/pdiddy/legal-translator/internal/memory"
	"github.com/pdiddy/legal-translator/pkg/types"
)

var (
	// ErrEmptyResponse is returned when a backend answers with no text.
	ErrEmptyResponse = errors.New("model returned an empty response")
	// ErrMissingAPIKey is returned when a network backend has no key.
	ErrMissingAPIKey = errors.New("API key is required unless provider is dry-run")
)

// Request is one paragraph to translate with its terminology context.
type Request struct {
	Text            string
	SourceLang      string
	TargetLang      string
	GlossaryMatches []glossary.Match
	MemoryHits      []memory.Record
}

// Translator translates one paragraph.
type Translator interface {
	Translate(ctx context.Context, req Request) (string, error)
}

// TranslatorFunc adapts a function to Translator.
type TranslatorFunc func(ctx context.Context, req Request) (string, error)

func (f TranslatorFunc) Translate(ctx context.Context, req Request) (string, error) {
	return f(ctx, req)
}

// Completer sends a single prompt to a model and returns its text answer.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

var translatePromptTmpl = template.Must(template.New("translate").Parse(`You are a senior Swiss legal translator.
Use formal legal tone, preserve numbering, respect capitalization, and never add commentary.

Source language: {{.SourceLang}}
Target language: {{.TargetLang}}

Glossary hints:
{{- if .Glossary}}
{{- range .Glossary}}
- {{.Entry.Term}} -> {{.Entry.Translation}}{{if .Entry.Context}} ({{.Entry.Context}}){{end}}
{{- end}}
{{- else}}
- (none)
{{- end}}

Previous translations:
{{- if .Memory}}
{{- range .Memory}}
- {{.SourceText}} -> {{.TranslatedText}}
{{- end}}
{{- else}}
- (none)
{{- end}}

Paragraph to translate:
{{.Text}}

Return ONLY the translated paragraph text.
`))

// RenderPrompt builds the translation prompt for req.
func RenderPrompt(req Request) (string, error) {
	data := struct {
		SourceLang string
		TargetLang string
		Glossary   []glossary.Match
		Memory     []memory.Record
		Text       string
	}{
		SourceLang: req.SourceLang,
		TargetLang: req.TargetLang,
		Glossary:   req.GlossaryMatches,
		Memory:     req.MemoryHits,
		Text:       strings.TrimSpace(req.Text),
	}
	var buf bytes.Buffer
	if err := translatePromptTmpl.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// backoffBase controls the base duration for exponential backoff between
// failed completions. Tests override this to avoid real sleeps.
var backoffBase = time.Second

// ModelTranslator renders the prompt and calls a Completer, retrying
// failures with exponential backoff.
type ModelTranslator struct {
	Backend    Completer
	MaxRetries int
}

// Translate returns blank paragraphs unchanged and otherwise the trimmed
// model answer.
func (t *ModelTranslator) Translate(ctx context.Context, req Request) (string, error) {
	if strings.TrimSpace(req.Text) == "" {
		return req.Text, nil
	}
	prompt, err := RenderPrompt(req)
	if err != nil {
		return "", fmt.Errorf("rendering prompt: %w", err)
	}
	out, err := completeWithRetry(ctx, t.Backend, prompt, t.MaxRetries)
	if err != nil {
		return "", err
	}
	return out, nil
}

// completeWithRetry calls the backend until it returns non-empty text or
// maxRetries additional attempts have failed.
func completeWithRetry(ctx context.Context, backend Completer, prompt string, maxRetries int) (string, error) {
	if maxRetries < 0 {
		maxRetries = 0
	}
	var lastErr error
	for attempt := 0; attempt <= maxRetries; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(math.Pow(2, float64(attempt-1))) * backoffBase
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(backoff):
			}
		}

		out, err := backend.Complete(ctx, prompt)
		if err == nil {
			out = strings.TrimSpace(out)
			if out != "" {
				return out, nil
			}
			err = ErrEmptyResponse
		}
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		lastErr = err
	}
	return "", fmt.Errorf("after %d retries: %w", maxRetries, lastErr)
}

// DryRun translates without a network call, returning "[<target> draft]
// <text>". As a Completer it answers every prompt with an empty JSON object.
type DryRun struct{}

func (DryRun) Translate(_ context.Context, req Request) (string, error) {
	if strings.TrimSpace(req.Text) == "" {
		return req.Text, nil
	}
	return "[" + req.TargetLang + " draft] " + req.Text, nil
}

func (DryRun) Complete(context.Context, string) (string, error) {
	return "{}", nil
}

// NewBackend builds the Completer for cfg.Provider, guarded by a circuit
// breaker. The dry-run provider returns DryRun.
func NewBackend(ctx context.Context, cfg types.AIConfig) (Completer, error) {
	var (
		backend Completer
		err     error
	)
	switch cfg.Provider {
	case types.ProviderDryRun:
		return DryRun{}, nil
	case types.ProviderClaude, "":
		backend, err = NewClaudeBackend(cfg)
	case types.ProviderOpenAI:
		backend, err = NewOpenAIBackend(cfg)
	case types.ProviderGemini:
		backend, err = NewGeminiBackend(ctx, cfg)
	default:
		return nil, fmt.Errorf("unknown AI provider %q", cfg.Provider)
	}
	if err != nil {
		return nil, err
	}
	return NewBreaker(string(cfg.Provider), backend), nil
}

// New builds the Translator for cfg.
func New(ctx context.Context, cfg types.AIConfig) (Translator, error) {
	if cfg.Provider == types.ProviderDryRun {
		return DryRun{}, nil
	}
	backend, err := NewBackend(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return &ModelTranslator{Backend: backend, MaxRetries: cfg.MaxRetries}, nil
}

// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/legal-translator/internal/glossary"
	"github.com/pdiddy/legal-translator/internal/httputil"
	"github.com/pdiddy/legal-translator/internal/memory"
	"github.com/pdiddy/legal-translator/pkg/types"
)

func TestMain(m *testing.M) {
	// Override backoff to avoid real sleeps in retry tests.
	backoffBase = time.Millisecond
	httputil.RetryBaseDelay = time.Millisecond
	os.Exit(m.Run())
}

// failNTimes fails the first N calls, then answers with response.
type failNTimes struct {
	failures int
	calls    int
	response string
}

func (f *failNTimes) Complete(_ context.Context, _ string) (string, error) {
	f.calls++
	if f.calls <= f.failures {
		return "", fmt.Errorf("transient error (call %d)", f.calls)
	}
	return f.response, nil
}

// recorder captures the last prompt.
type recorder struct {
	prompt string
	answer string
}

func (r *recorder) Complete(_ context.Context, prompt string) (string, error) {
	r.prompt = prompt
	return r.answer, nil
}

func TestRenderPrompt(t *testing.T) {
	req := Request{
		Text:       "  Le bail est résilié.  ",
		SourceLang: "fr",
		TargetLang: "de",
		GlossaryMatches: []glossary.Match{
			{Entry: glossary.Entry{Term: "bail", Translation: "Mietvertrag", Context: "CO"}, Score: 100},
		},
		MemoryHits: []memory.Record{
			{SourceText: "Le bail prend fin.", TranslatedText: "Der Mietvertrag endet."},
		},
	}
	prompt, err := RenderPrompt(req)
	require.NoError(t, err)

	assert.Contains(t, prompt, "Source language: fr")
	assert.Contains(t, prompt, "Target language: de")
	assert.Contains(t, prompt, "- bail -> Mietvertrag (CO)")
	assert.Contains(t, prompt, "- Le bail prend fin. -> Der Mietvertrag endet.")
	assert.Contains(t, prompt, "Paragraph to translate:\nLe bail est résilié.\n")
}

func TestRenderPromptWithoutContext(t *testing.T) {
	prompt, err := RenderPrompt(Request{Text: "Article 1", SourceLang: "fr", TargetLang: "en"})
	require.NoError(t, err)
	assert.Equal(t, 2, strings.Count(prompt, "- (none)"))
}

func TestCompleteWithRetry(t *testing.T) {
	tests := []struct {
		name       string
		failures   int
		maxRetries int
		wantErr    bool
	}{
		{"succeeds first try", 0, 3, false},
		{"succeeds after 2 failures", 2, 3, false},
		{"fails after exhausting retries", 4, 3, true},
		{"succeeds on last retry", 3, 3, false},
		{"no retries", 1, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			backend := &failNTimes{failures: tt.failures, response: " Translated. "}
			out, err := completeWithRetry(context.Background(), backend, "prompt", tt.maxRetries)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "Translated.", out)
			assert.Equal(t, tt.failures+1, backend.calls)
		})
	}
}

func TestCompleteWithRetryEmptyResponse(t *testing.T) {
	backend := &failNTimes{response: "   "}
	_, err := completeWithRetry(context.Background(), backend, "prompt", 1)
	assert.ErrorIs(t, err, ErrEmptyResponse)
	assert.Equal(t, 2, backend.calls)
}

func TestCompleteWithRetryCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := completeWithRetry(ctx, &failNTimes{failures: 10}, "prompt", 3)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestModelTranslator(t *testing.T) {
	rec := &recorder{answer: "The lease is terminated."}
	tr := &ModelTranslator{Backend: rec, MaxRetries: 1}

	out, err := tr.Translate(context.Background(), Request{Text: "Le bail est résilié.", SourceLang: "fr", TargetLang: "en"})
	require.NoError(t, err)
	assert.Equal(t, "The lease is terminated.", out)
	assert.Contains(t, rec.prompt, "Le bail est résilié.")

	rec.prompt = ""
	out, err = tr.Translate(context.Background(), Request{Text: "  \n"})
	require.NoError(t, err)
	assert.Equal(t, "  \n", out)
	assert.Empty(t, rec.prompt, "blank paragraphs must not reach the model")
}

func TestDryRun(t *testing.T) {
	out, err := DryRun{}.Translate(context.Background(), Request{Text: "Article 1", TargetLang: "de"})
	require.NoError(t, err)
	assert.Equal(t, "[de draft] Article 1", out)

	pairs, err := ExtractReferencePairs(context.Background(), DryRun{}, "bail / Mietvertrag", "fr", "de")
	require.NoError(t, err)
	assert.Empty(t, pairs)
}

func TestTranslatorFunc(t *testing.T) {
	var tr Translator = TranslatorFunc(func(_ context.Context, req Request) (string, error) {
		return strings.ToUpper(req.Text), nil
	})
	out, err := tr.Translate(context.Background(), Request{Text: "abc"})
	require.NoError(t, err)
	assert.Equal(t, "ABC", out)
}

func TestClaudeBackend(t *testing.T) {
	var got claudeRequest
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "test-key", r.Header.Get("x-api-key"))
		assert.Equal(t, "2023-06-01", r.Header.Get("anthropic-version"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"content":[{"type":"text","text":"Der Mietvertrag."}]}`)
	}))
	defer ts.Close()

	old := claudeAPIURL
	claudeAPIURL = ts.URL
	defer func() { claudeAPIURL = old }()

	b, err := NewClaudeBackend(types.AIConfig{APIKey: "test-key", Model: "test-model", Timeout: 5 * time.Second})
	require.NoError(t, err)

	out, err := b.Complete(context.Background(), "hello")
	require.NoError(t, err)
	assert.Equal(t, "Der Mietvertrag.", out)
	assert.Equal(t, "test-model", got.Model)
	assert.Equal(t, defaultMaxTokens, got.MaxTokens)
	require.Len(t, got.Messages, 1)
	assert.Equal(t, "user", got.Messages[0].Role)
	assert.Equal(t, "hello", got.Messages[0].Content)
}

func TestClaudeBackendErrors(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantErr string
	}{
		{"server error", http.StatusInternalServerError, `{"error":"boom"}`, "returned 500"},
		{"no text blocks", http.StatusOK, `{"content":[]}`, "empty response"},
		{"bad json", http.StatusOK, `{`, "decoding"},
		{"overloaded after retries", httputil.StatusOverloaded, `{"type":"error"}`, "returned 529"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
				io.WriteString(w, tt.body)
			}))
			defer ts.Close()

			b := &ClaudeBackend{APIKey: "k", Model: "m", BaseURL: ts.URL}
			_, err := b.Complete(context.Background(), "hello")
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestOpenAIBackend(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "gpt-test", body["model"])
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"id":"c1","object":"chat.completion","choices":[{"index":0,"message":{"role":"assistant","content":"The lease."},"finish_reason":"stop"}]}`)
	}))
	defer ts.Close()

	b, err := NewOpenAIBackend(types.AIConfig{APIKey: "test-key", Model: "gpt-test", BaseURL: ts.URL + "/v1", Timeout: 5 * time.Second})
	require.NoError(t, err)

	out, err := b.Complete(context.Background(), "hello")
	require.NoError(t, err)
	assert.Equal(t, "The lease.", out)
}

func TestGeminiBackend(t *testing.T) {
	var path string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"candidates":[{"content":{"role":"model","parts":[{"text":"Il contratto."}]}}]}`)
	}))
	defer ts.Close()

	b, err := NewGeminiBackend(context.Background(), types.AIConfig{APIKey: "test-key", BaseURL: ts.URL + "/", Timeout: 5 * time.Second})
	require.NoError(t, err)

	out, err := b.Complete(context.Background(), "hello")
	require.NoError(t, err)
	assert.Equal(t, "Il contratto.", out)
	assert.Contains(t, path, defaultGeminiModel)
}

func TestNewBackend(t *testing.T) {
	tests := []struct {
		name    string
		cfg     types.AIConfig
		wantErr error
	}{
		{"dry run needs no key", types.AIConfig{Provider: types.ProviderDryRun}, nil},
		{"claude without key", types.AIConfig{Provider: types.ProviderClaude}, ErrMissingAPIKey},
		{"openai without key", types.AIConfig{Provider: types.ProviderOpenAI}, ErrMissingAPIKey},
		{"gemini without key", types.AIConfig{Provider: types.ProviderGemini}, ErrMissingAPIKey},
		{"claude with key", types.AIConfig{Provider: types.ProviderClaude, APIKey: "k"}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, err := NewBackend(context.Background(), tt.cfg)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.NotNil(t, b)
		})
	}

	_, err := NewBackend(context.Background(), types.AIConfig{Provider: "deepl", APIKey: "k"})
	assert.ErrorContains(t, err, "unknown AI provider")
}

func TestNew(t *testing.T) {
	tr, err := New(context.Background(), types.AIConfig{Provider: types.ProviderDryRun})
	require.NoError(t, err)
	assert.IsType(t, DryRun{}, tr)

	tr, err = New(context.Background(), types.AIConfig{Provider: types.ProviderClaude, APIKey: "k", MaxRetries: 2})
	require.NoError(t, err)
	mt, ok := tr.(*ModelTranslator)
	require.True(t, ok)
	assert.Equal(t, 2, mt.MaxRetries)
	assert.IsType(t, &Breaker{}, mt.Backend)
}

func TestBreakerOpensAfterConsecutiveFailures(t *testing.T) {
	backend := &failNTimes{failures: 100}
	b := NewBreaker("test", backend)

	for i := 0; i < int(breakerFailures); i++ {
		_, err := b.Complete(context.Background(), "p")
		require.Error(t, err)
	}
	assert.Equal(t, gobreaker.StateOpen, b.State())

	_, err := b.Complete(context.Background(), "p")
	assert.True(t, errors.Is(err, gobreaker.ErrOpenState))
	assert.Equal(t, int(breakerFailures), backend.calls, "open breaker must not call the backend")
}

func TestBreakerPassesThrough(t *testing.T) {
	b := NewBreaker("test", &recorder{answer: "ok"})
	out, err := b.Complete(context.Background(), "p")
	require.NoError(t, err)
	assert.Equal(t, "ok", out)
	assert.Equal(t, gobreaker.StateClosed, b.State())
}

func TestExtractReferencePairs(t *testing.T) {
	tests := []struct {
		name    string
		answer  string
		want    map[string]string
		wantErr bool
	}{
		{
			name:   "plain object",
			answer: `{"Bail": "Mietvertrag", "locataire": "Mieter"}`,
			want:   map[string]string{"bail": "Mietvertrag", "locataire": "Mieter"},
		},
		{
			name:   "fenced with prose",
			answer: "Here you go:\n```json\n{\"bailleur\": \" Vermieter \"}\n```",
			want:   map[string]string{"bailleur": "Vermieter"},
		},
		{
			name:   "empty values dropped",
			answer: `{"bail": "", " ": "x", "loyer": "Miete"}`,
			want:   map[string]string{"loyer": "Miete"},
		},
		{name: "no object", answer: "sorry", wantErr: true},
		{name: "not string values", answer: `{"a": 1}`, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := &recorder{answer: tt.answer}
			got, err := ExtractReferencePairs(context.Background(), rec, "Le bail / Der Mietvertrag", "fr", "de")
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Contains(t, rec.prompt, "Le bail / Der Mietvertrag")
		})
	}
}

func TestExtractReferencePairsEmptyText(t *testing.T) {
	rec := &recorder{answer: `{"x":"y"}`}
	got, err := ExtractReferencePairs(context.Background(), rec, "   ", "fr", "de")
	require.NoError(t, err)
	assert.Empty(t, got)
	assert.Empty(t, rec.prompt)
}

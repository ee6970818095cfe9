// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package termsource

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/legal-translator/internal/glossary"
	"github.com/pdiddy/legal-translator/internal/memory"
	"github.com/pdiddy/legal-translator/pkg/types"
)

type fakeMemory struct {
	records []memory.Record
}

func (f fakeMemory) Similar(text, src, tgt string, limit int, threshold float64) []memory.Record {
	var out []memory.Record
	for _, r := range f.records {
		if r.SourceText == text && r.SourceLang == src && r.TargetLang == tgt {
			out = append(out, r)
		}
	}
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}

func testChain(t *testing.T) *Chain {
	t.Helper()
	g := glossary.New("g", "fr", "en", []glossary.Entry{
		{Term: "bail", Translation: "lease"},
		{Term: "contrat", Translation: "contract"},
	})
	m := fakeMemory{records: []memory.Record{
		{SourceText: "clause pénale", TranslatedText: "penalty clause", SourceLang: "fr", TargetLang: "en"},
		{SourceText: "contrat", TranslatedText: "agreement", SourceLang: "fr", TargetLang: "en"},
	}}
	return StandardChain(map[string]string{"  Bail ": "Mietvertrag"}, g, m, 85)
}

func TestChain_Priority(t *testing.T) {
	c := testChain(t)

	tests := []struct {
		term       string
		want       string
		source     string
		confidence float64
	}{
		{"BAIL", "Mietvertrag", IDReferenceDoc, 1},
		{"contrat", "contract", IDGlossary, 1},
		{"clause pénale", "penalty clause", IDMemory, 0.85},
		{"usufruit", "[USUFRUIT]", IDPlaceholder, 0},
	}
	for _, tt := range tests {
		t.Run(tt.term, func(t *testing.T) {
			got := c.Lookup(tt.term, "fr", "en")
			assert.Equal(t, tt.want, got.TranslatedTerm)
			assert.Equal(t, tt.source, got.SourceID)
			assert.InDelta(t, tt.confidence, got.Confidence, 1e-9)
			assert.Equal(t, tt.term, got.SourceTerm)
		})
	}
}

func TestChain_SkipsDisabledSources(t *testing.T) {
	c := StandardChain(nil, nil, nil, 85)
	got := c.Lookup("bail", "fr", "en")
	assert.Equal(t, IDPlaceholder, got.SourceID)

	var nilGlossary *glossary.Glossary
	var nilMemory *memory.Memory
	c = StandardChain(map[string]string{}, nilGlossary, nilMemory, 85)
	for _, src := range c.Sources()[:3] {
		assert.False(t, src.Enabled(), src.ID())
	}
	assert.Equal(t, "[BAIL]", c.Lookup("bail", "fr", "en").TranslatedTerm)
}

func TestChain_Totality(t *testing.T) {
	c := testChain(t)
	for _, term := range []string{"", " ", "inconnu", "ÉTAT", "x y z"} {
		got := c.Lookup(term, "fr", "en")
		assert.NotEmpty(t, got.SourceID)
	}
	assert.Len(t, c.LookupAll([]string{"bail", "nope"}, "fr", "en"), 2)
}

func TestNewChain_RequiresFallback(t *testing.T) {
	_, err := NewChain()
	assert.ErrorIs(t, err, ErrNoFallback)

	_, err = NewChain(NewReferenceDocSource(map[string]string{"a": "b"}))
	assert.ErrorIs(t, err, ErrNoFallback)

	_, err = NewChain(PlaceholderSource{}, NewGlossarySource(nil))
	assert.ErrorIs(t, err, ErrNoFallback, "fallback must be last")

	c, err := NewChain(NewGlossarySource(nil), PlaceholderSource{})
	require.NoError(t, err)
	assert.Len(t, c.Sources(), 2)
}

func TestExtractTerms(t *testing.T) {
	terms := ExtractTerms("Le Conseil Fédéral approuve le contrat.", 4)

	assert.Contains(t, terms, "le conseil fédéral", "capitalized run")
	assert.Contains(t, terms, "approuve", "long single word")
	assert.Contains(t, terms, "le conseil fédéral approuve", "four-word phrase")
	assert.NotContains(t, terms, "le")

	for i := 1; i < len(terms); i++ {
		assert.Less(t, terms[i-1], terms[i], "sorted and deduplicated")
	}

	assert.Empty(t, ExtractTerms("", 4))
}

func TestApplyTermTranslations(t *testing.T) {
	terms := []types.TermTranslation{
		{SourceTerm: "contrat", TranslatedTerm: "contract", SourceID: IDGlossary},
		{SourceTerm: "contrat de bail", TranslatedTerm: "lease agreement", SourceID: IDReferenceDoc},
		{SourceTerm: "usufruit", TranslatedTerm: "[USUFRUIT]", SourceID: IDPlaceholder},
		{SourceTerm: "", TranslatedTerm: "ignored", SourceID: IDGlossary},
	}

	got := ApplyTermTranslations("Le Contrat de bail et le contrat. Usufruit.", terms, true)
	assert.Equal(t, "Le lease agreement et le contract. Usufruit.", got)

	got = ApplyTermTranslations("usufruit", terms, false)
	assert.Equal(t, "[USUFRUIT]", got)
}

func TestLoadPairs(t *testing.T) {
	dir := t.TempDir()

	jsonPath := filepath.Join(dir, "pairs.json")
	require.NoError(t, os.WriteFile(jsonPath, []byte(`{"Bail": "Mietvertrag", " ": "x", "contrat": ""}`), 0o644))
	pairs, err := LoadPairs(jsonPath)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"bail": "Mietvertrag"}, pairs)

	yamlPath := filepath.Join(dir, "pairs.yaml")
	require.NoError(t, os.WriteFile(yamlPath, []byte("Contrat: Vertrag\n"), 0o644))
	pairs, err = LoadPairs(yamlPath)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"contrat": "Vertrag"}, pairs)

	badPath := filepath.Join(dir, "bad.json")
	require.NoError(t, os.WriteFile(badPath, []byte(`[1,2]`), 0o644))
	_, err = LoadPairs(badPath)
	assert.Error(t, err)
}

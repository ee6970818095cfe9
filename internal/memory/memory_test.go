// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package memory

import (
	"encoding/json"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- test helpers ---

func openTemp(t *testing.T) *Memory {
	t.Helper()
	m, err := Open(filepath.Join(t.TempDir(), "data", "memory.json"), Options{})
	require.NoError(t, err)
	return m
}

func writeStore(t *testing.T, path string, records ...Record) {
	t.Helper()
	store := map[string]Record{}
	for _, r := range records {
		store[r.Key()] = r
	}
	data, err := json.Marshal(store)
	require.NoError(t, err)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, data, 0o644))
}

func randomText(rng *rand.Rand, n int) string {
	const alphabet = "abcdefghijklmnopqrstuvwxyzéèàçABCDEFGHIJ0123456789.,;"
	letters := []rune(alphabet)
	out := make([]rune, n)
	for i := range out {
		out[i] = letters[rng.Intn(len(letters))]
	}
	return string(out)
}

// --- tests ---

func TestKey(t *testing.T) {
	s := "Le contrat est valide."
	assert.Equal(t, Key("fr", "en", s), Key("fr", "en", "  "+s+"\n"))
	assert.NotEqual(t, Key("fr", "en", s), Key("fr", "de", s))
	assert.NotEqual(t, Key("fr", "en", s), Key("en", "fr", s))
	assert.Len(t, Key("fr", "en", s), 40)

	rec := Record{SourceText: s + " ", SourceLang: "fr", TargetLang: "en"}
	assert.Equal(t, Key("fr", "en", s), rec.Key())
}

func TestKey_InsertionOrderIndependent(t *testing.T) {
	recs := []Record{
		{SourceText: "Le contrat est valide.", TranslatedText: "The contract is valid.", SourceLang: "fr", TargetLang: "en"},
		{SourceText: "Le bail est résilié.", TranslatedText: "The lease is terminated.", SourceLang: "fr", TargetLang: "en"},
		{SourceText: "Der Vertrag ist gültig.", TranslatedText: "The contract is valid.", SourceLang: "de", TargetLang: "en"},
	}

	a := openTemp(t)
	b := openTemp(t)
	for _, r := range recs {
		_, err := a.Record(r.SourceText, r.TranslatedText, r.SourceLang, r.TargetLang, false)
		require.NoError(t, err)
	}
	for i := len(recs) - 1; i >= 0; i-- {
		r := recs[i]
		_, err := b.Record(r.SourceText, r.TranslatedText, r.SourceLang, r.TargetLang, false)
		require.NoError(t, err)
	}
	assert.Equal(t, a.Records(), b.Records())
}

func TestRecordGet_RoundTrip(t *testing.T) {
	m := openTemp(t)

	rec, err := m.Record("Le contrat est valide.", "The contract is valid.", "fr", "en", false)
	require.NoError(t, err)
	require.NotNil(t, rec)

	got := m.Get("Le contrat est valide.", "fr", "en")
	require.NotNil(t, got)
	assert.Equal(t, "The contract is valid.", got.TranslatedText)
	assert.Nil(t, m.Get("Le contrat est valide.", "fr", "de"))

	reopened, err := Open(m.Path(), Options{})
	require.NoError(t, err)
	assert.Equal(t, 1, reopened.Len())
	assert.Equal(t, "The contract is valid.", reopened.Get(" Le contrat est valide. ", "fr", "en").TranslatedText)
}

func TestRecord_Overwrites(t *testing.T) {
	m := openTemp(t)
	_, err := m.Record("Article premier", "Article one", "fr", "en", false)
	require.NoError(t, err)
	_, err = m.Record("Article premier ", "First article", "fr", "en", false)
	require.NoError(t, err)

	assert.Equal(t, 1, m.Len())
	assert.Equal(t, "First article", m.Get("Article premier", "fr", "en").TranslatedText)
}

func TestRecord_RejectsOverlongText(t *testing.T) {
	m := openTemp(t)
	rng := rand.New(rand.NewSource(7))
	long := randomText(rng, 1500)

	rec, err := m.Record(long, "translation", "fr", "en", false)
	require.NoError(t, err)
	assert.Nil(t, rec)
	assert.Equal(t, 0, m.Len())
	assert.Nil(t, m.Get(long, "fr", "en"))
}

func TestRecord_LongEntryExemption(t *testing.T) {
	m := openTemp(t)
	doc := strings.Repeat("Le contrat est valide. ", 80)

	rec, err := m.Record(doc, strings.Repeat("The contract is valid. ", 80), "fr", "en", true)
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.True(t, rec.LongEntry)

	reopened, err := Open(m.Path(), Options{})
	require.NoError(t, err)
	require.NotNil(t, reopened.Get(doc, "fr", "en"), "exempt record survives the load-time filter")

	short, err := m.Record("Le bail est résilié.\n\nLe loyer est dû.", "The lease is terminated.\n\nRent is due.", "fr", "en", true)
	require.NoError(t, err)
	assert.True(t, short.LongEntry, "every exempt write is a whole-document entry")

	_, err = m.Record("Bonjour", "Hello", "fr", "en", false)
	require.NoError(t, err)
	same, err := m.Record("Bonjour", "Hello", "fr", "en", true)
	require.NoError(t, err)
	assert.False(t, same.LongEntry, "a paragraph record keeps its flag when a one-paragraph document reuses the key")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name      string
		source    string
		target    string
		maxLen    int
		allowLong bool
		wantErr   error
	}{
		{"accepted", "Le contrat est valide.", "The contract is valid.", 1000, false, nil},
		{"empty source", "   ", "x", 1000, false, ErrEmptyText},
		{"empty target", "texte", "", 1000, false, ErrEmptyText},
		{"empty with exemption", "", "x", 1000, true, ErrEmptyText},
		{"at ceiling", strings.Repeat("a", 10), "b", 10, false, nil},
		{"over ceiling", strings.Repeat("a", 11), "b", 10, false, ErrTooLong},
		{"target over ceiling", "a", strings.Repeat("b", 11), 10, false, ErrTooLong},
		{"runes not bytes", strings.Repeat("é", 10), "b", 10, false, nil},
		{"placeholder at ratio", "_" + strings.Repeat("a", 9), "b", 1000, false, nil},
		{"placeholder over ratio", "__" + strings.Repeat("a", 8), "b", 1000, false, ErrPlaceholderText},
		{"checkbox glyphs", "☐ Oui ☐ Non", "b", 1000, false, ErrPlaceholderText},
		{"content at ratio", "abc" + strings.Repeat(" ", 7), "b", 1000, false, nil},
		{"content under ratio", "ab" + strings.Repeat(" ", 8), "b", 1000, false, ErrSparseText},
		{"exemption skips filters", "__________", "b", 5, true, nil},
		{"zero ceiling uses default", strings.Repeat("a", 1000), "b", 0, false, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(Record{SourceText: tt.source, TranslatedText: tt.target}, tt.maxLen, tt.allowLong)
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestValidate_Soundness(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	const maxLen = 60

	for i := 0; i < 500; i++ {
		n := 1 + rng.Intn(maxLen+10)
		runes := make([]rune, n)
		for j := range runes {
			switch p := rng.Float64(); {
			case p < 0.08:
				runes[j] = '_'
			case p < 0.12:
				runes[j] = '☐'
			case p < 0.5:
				runes[j] = ' '
			default:
				runes[j] = 'a' + rune(rng.Intn(26))
			}
		}
		src := string(runes)
		ph, content := Ratios(src)
		want := strings.TrimSpace(src) != "" && n <= maxLen && ph <= maxPlaceholderRatio && content >= minContentRatio

		err := Validate(Record{SourceText: src, TranslatedText: "t"}, maxLen, false)
		assert.Equal(t, want, err == nil, "source %q", src)
	}
}

func TestSimilar(t *testing.T) {
	m := openTemp(t)
	_, err := m.Record("Le contrat est valide.", "The contract is valid.", "fr", "en", false)
	require.NoError(t, err)
	_, err = m.Record("Le bail commercial est résilié.", "The commercial lease is terminated.", "fr", "en", false)
	require.NoError(t, err)
	_, err = m.Record("Le contrat est valide.", "Der Vertrag ist gültig.", "fr", "de", false)
	require.NoError(t, err)

	got := m.Similar("Le contrat est bien valide", "fr", "en", 5, 50)
	require.NotEmpty(t, got)
	assert.Equal(t, "The contract is valid.", got[0].TranslatedText)
	for _, r := range got {
		assert.Equal(t, "en", r.TargetLang)
	}

	assert.Empty(t, m.Similar("Le contrat est bien valide", "fr", "en", 0, 50))
	assert.Len(t, m.Similar("le", "fr", "en", 1, 0), 1)

	scored := m.SimilarScored("Le contrat est valide", "fr", "en", 5, 90)
	require.Len(t, scored, 1)
	assert.Equal(t, 100.0, scored[0].Score)
}

func TestSimilar_SkipsLongEntries(t *testing.T) {
	m := openTemp(t)
	_, err := m.Record("Le bail est résilié.", "The lease is terminated.", "fr", "en", false)
	require.NoError(t, err)
	_, err = m.Record("Le bail est résilié.\n\nLe loyer est dû.", "The lease is terminated.\n\nRent is due.", "fr", "en", true)
	require.NoError(t, err)

	got := m.Similar("Le bail est bien résilié.", "fr", "en", 5, 50)
	require.Len(t, got, 1)
	assert.Equal(t, "Le bail est résilié.", got[0].SourceText)

	assert.NotNil(t, m.Get("Le bail est résilié.\n\nLe loyer est dû.", "fr", "en"), "exact lookup still sees the document")
}

func TestNearest(t *testing.T) {
	m := openTemp(t)
	_, err := m.Record("Le bail est résilié.", "The lease is terminated.", "fr", "en", false)
	require.NoError(t, err)
	_, err = m.Record("Le bail est résilié.\n\nLe loyer est dû.", "The lease is terminated.\n\nRent is due.", "fr", "en", true)
	require.NoError(t, err)

	// A paragraph contained in the document is a token subset but must not
	// stand in for the whole document.
	hit, ok := m.Nearest("Le bail est résilié.\n\nLe loyer est dû!", "fr", "en", 98)
	require.True(t, ok)
	assert.Equal(t, "The lease is terminated.\n\nRent is due.", hit.Record.TranslatedText)
	assert.Equal(t, 100.0, hit.Score)

	_, ok = m.Nearest("Le bail est résilié.\n\nLe loyer est dû. Annexe 1.", "fr", "en", 98)
	assert.False(t, ok)

	_, ok = m.Nearest("Le bail est résilié.", "fr", "de", 0)
	assert.False(t, ok, "other language pairs are ignored")
}

func TestNearest_LongDocumentsOfOtherLengths(t *testing.T) {
	m := openTemp(t)
	rng := rand.New(rand.NewSource(7))
	for i := 0; i < 5; i++ {
		_, err := m.Record(randomText(rng, 14000+i*100), "translated", "fr", "en", true)
		require.NoError(t, err)
	}
	require.Equal(t, 5, m.Len())

	start := time.Now()
	_, ok := m.Nearest(randomText(rng, 13000), "fr", "en", 98)
	elapsed := time.Since(start)

	assert.False(t, ok)
	assert.Less(t, elapsed, time.Second, "records outside the length bound are never compared")
}

func TestOpen_CorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "memory.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	_, err := Open(path, Options{})
	require.ErrorIs(t, err, ErrInvalidMemoryFile)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "{not json", string(data), "a corrupt store is never reset")
}

func TestOpen_EmptyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "memory.json")
	require.NoError(t, os.WriteFile(path, nil, 0o644))

	m, err := Open(path, Options{})
	require.NoError(t, err)
	assert.Equal(t, 0, m.Len())
}

func TestOpen_SeedsMissingStore(t *testing.T) {
	dir := t.TempDir()
	seed := filepath.Join(dir, "glossary", "memory.json")
	writeStore(t, seed,
		Record{SourceText: "Le contrat est valide.", TranslatedText: "The contract is valid.", SourceLang: "fr", TargetLang: "en"},
		Record{SourceText: "☐ Oui ☐ Non", TranslatedText: "☐ Yes ☐ No", SourceLang: "fr", TargetLang: "en"},
	)

	path := filepath.Join(dir, "data", "memory.json")
	m, err := Open(path, Options{SeedPath: seed})
	require.NoError(t, err)
	assert.Equal(t, 1, m.Len(), "placeholder-dominated seed record is dropped")
	assert.NotNil(t, m.Get("Le contrat est valide.", "fr", "en"))

	_, err = os.Stat(path)
	assert.NoError(t, err, "store file is created")

	// An existing store is not re-seeded.
	writeStore(t, seed, Record{SourceText: "Nouveau", TranslatedText: "New", SourceLang: "fr", TargetLang: "en"})
	m, err = Open(path, Options{SeedPath: seed})
	require.NoError(t, err)
	assert.Nil(t, m.Get("Nouveau", "fr", "en"))
}

func TestOpen_CorruptSeed(t *testing.T) {
	dir := t.TempDir()
	seed := filepath.Join(dir, "seed.json")
	require.NoError(t, os.WriteFile(seed, []byte("[]"), 0o644))

	_, err := Open(filepath.Join(dir, "memory.json"), Options{SeedPath: seed})
	assert.ErrorIs(t, err, ErrInvalidMemoryFile)
}

func TestOpen_DropsStaleAndRewrites(t *testing.T) {
	path := filepath.Join(t.TempDir(), "memory.json")
	writeStore(t, path,
		Record{SourceText: "Bonjour", TranslatedText: "Hello", SourceLang: "fr", TargetLang: "en"},
		Record{SourceText: "________", TranslatedText: "________", SourceLang: "fr", TargetLang: "en"},
	)

	m, err := Open(path, Options{})
	require.NoError(t, err)
	assert.Equal(t, 1, m.Len())

	var onDisk map[string]Record
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(data, &onDisk))
	assert.Len(t, onDisk, 1)
}

func TestRecord_WriteFailure(t *testing.T) {
	if os.Getuid() == 0 {
		t.Skip("permission checks do not apply to root")
	}
	dir := t.TempDir()
	m, err := Open(filepath.Join(dir, "memory.json"), Options{})
	require.NoError(t, err)

	require.NoError(t, os.Chmod(dir, 0o500))
	t.Cleanup(func() { os.Chmod(dir, 0o755) })

	rec, err := m.Record("Bonjour", "Hello", "fr", "en", false)
	assert.Error(t, err)
	assert.Nil(t, rec)
	assert.Nil(t, m.Get("Bonjour", "fr", "en"))
}

func TestRecord_WriteFailureKeepsPreviousState(t *testing.T) {
	path := filepath.Join(t.TempDir(), "memory.json")
	m, err := Open(path, Options{})
	require.NoError(t, err)
	_, err = m.Record("Le bail est résilié.", "The lease is terminated.", "fr", "en", false)
	require.NoError(t, err)

	// A non-empty directory in place of the store makes the rename fail,
	// whatever the caller's privileges.
	require.NoError(t, os.Remove(path))
	require.NoError(t, os.MkdirAll(filepath.Join(path, "blocker"), 0o755))

	rec, err := m.Record("Bonjour", "Hello", "fr", "en", false)
	require.Error(t, err)
	assert.Nil(t, rec)
	assert.Nil(t, m.Get("Bonjour", "fr", "en"), "unsaved record is not served")

	_, err = m.Record("Le bail est résilié.", "The lease has ended.", "fr", "en", false)
	require.Error(t, err)
	prev := m.Get("Le bail est résilié.", "fr", "en")
	require.NotNil(t, prev)
	assert.Equal(t, "The lease is terminated.", prev.TranslatedText, "overwritten record is restored")
	assert.Equal(t, 1, m.Len())
}

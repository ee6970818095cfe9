// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package memory is a durable translation memory: a JSON file mapping a
// stable key to a (source text, translation, language pair) record, with
// exact and fuzzy lookup.
//
// Every write rewrites the whole file through a temp file and a rename.
// Writers in separate processes are not serialized; the last writer wins
// and an update may be lost, but a reader never sees a torn file.
package memory

import (
	"bytes"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/pdiddy/legal-translator/internal/fuzzy"
)

// ErrInvalidMemoryFile is returned when the store or seed file is not a
// valid JSON object of records.
var ErrInvalidMemoryFile = errors.New("invalid translation memory file")

// Record is one cached translation.
type Record struct {
	SourceText     string `json:"source_text" yaml:"source_text"`
	TranslatedText string `json:"translated_text" yaml:"translated_text"`
	SourceLang     string `json:"source_lang" yaml:"source_lang"`
	TargetLang     string `json:"target_lang" yaml:"target_lang"`
	// LongEntry marks a whole-document record written with the long-entry
	// exemption. The load-time filter keeps it and fuzzy suggestions skip it.
	LongEntry bool `json:"long_entry,omitempty" yaml:"long_entry,omitempty"`
}

// Key returns the record's identity key.
func (r Record) Key() string {
	return Key(r.SourceLang, r.TargetLang, r.SourceText)
}

// Key hashes the language pair and the trimmed source text.
func Key(sourceLang, targetLang, sourceText string) string {
	raw := sourceLang + ":" + targetLang + ":" + strings.TrimSpace(sourceText)
	sum := sha1.Sum([]byte(raw))
	return hex.EncodeToString(sum[:])
}

// Scored pairs a record with its similarity score.
type Scored struct {
	Record Record  `json:"record"`
	Score  float64 `json:"score"`
}

// Options configures Open.
type Options struct {
	// SeedPath is a read-only baseline merged in when the store file does
	// not exist yet. Empty disables seeding.
	SeedPath string
	// MaxEntryLength is the length ceiling in runes; 0 means the default.
	MaxEntryLength int
}

// Memory is a translation memory backed by one JSON file.
type Memory struct {
	path   string
	maxLen int

	mu      sync.RWMutex
	records map[string]Record
}

// Open loads the store at path. A missing file is created, seeded from
// opts.SeedPath when that file exists. Stale records are dropped and the
// cleaned store is written back. A corrupt store or seed returns an error
// wrapping ErrInvalidMemoryFile.
func Open(path string, opts Options) (*Memory, error) {
	m := &Memory{
		path:    path,
		maxLen:  opts.MaxEntryLength,
		records: make(map[string]Record),
	}
	if m.maxLen <= 0 {
		m.maxLen = DefaultMaxEntryLength
	}

	dirty := false
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("creating memory directory: %w", err)
		}
		dirty = true
		if opts.SeedPath != "" {
			seeded, err := readRecords(opts.SeedPath)
			if err != nil && !errors.Is(err, os.ErrNotExist) {
				return nil, err
			}
			for k, rec := range seeded {
				m.records[k] = rec
			}
			if len(seeded) > 0 {
				slog.Info("translation memory seeded", "seed", opts.SeedPath, "records", len(seeded))
			}
		}
	} else {
		loaded, err := readRecords(path)
		if err != nil {
			return nil, err
		}
		m.records = loaded
	}

	if dropped := m.dropStale(); dropped > 0 {
		slog.Info("stale translation memory records dropped", "path", path, "dropped", dropped)
		dirty = true
	}

	if dirty {
		if err := m.Save(); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func readRecords(path string) (map[string]Record, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading memory file %s: %w", path, err)
	}
	records := make(map[string]Record)
	if len(bytes.TrimSpace(data)) == 0 {
		return records, nil
	}
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidMemoryFile, path, err)
	}
	return records, nil
}

func (m *Memory) dropStale() int {
	dropped := 0
	for k, rec := range m.records {
		if err := Validate(rec, m.maxLen, rec.LongEntry); err != nil {
			slog.Debug("dropping stale memory record", "key", k, "reason", err)
			delete(m.records, k)
			dropped++
		}
	}
	return dropped
}

// Path returns the store file path.
func (m *Memory) Path() string { return m.path }

// Len returns the number of records.
func (m *Memory) Len() int {
	if m == nil {
		return 0
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.records)
}

// Records returns every record ordered by language pair, then source text.
func (m *Memory) Records() []Record {
	if m == nil {
		return nil
	}
	m.mu.RLock()
	out := make([]Record, 0, len(m.records))
	for _, rec := range m.records {
		out = append(out, rec)
	}
	m.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.SourceLang != b.SourceLang {
			return a.SourceLang < b.SourceLang
		}
		if a.TargetLang != b.TargetLang {
			return a.TargetLang < b.TargetLang
		}
		return a.SourceText < b.SourceText
	})
	return out
}

// Get returns the record for the exact trimmed source text and language
// pair, or nil.
func (m *Memory) Get(sourceText, sourceLang, targetLang string) *Record {
	m.mu.RLock()
	defer m.mu.RUnlock()
	rec, ok := m.records[Key(sourceLang, targetLang, sourceText)]
	if !ok {
		return nil
	}
	return &rec
}

// Similar returns up to limit records of the language pair whose source
// text scores at least threshold by token-set similarity, best first.
func (m *Memory) Similar(sourceText, sourceLang, targetLang string, limit int, threshold float64) []Record {
	scored := m.SimilarScored(sourceText, sourceLang, targetLang, limit, threshold)
	out := make([]Record, len(scored))
	for i, s := range scored {
		out[i] = s.Record
	}
	return out
}

// SimilarScored is Similar with the scores attached. Long entries are
// never suggested.
func (m *Memory) SimilarScored(sourceText, sourceLang, targetLang string, limit int, threshold float64) []Scored {
	if limit <= 0 {
		return nil
	}

	m.mu.RLock()
	var candidates []Scored
	for _, rec := range m.records {
		if rec.LongEntry || rec.SourceLang != sourceLang || rec.TargetLang != targetLang {
			continue
		}
		score := fuzzy.TokenSetRatio(sourceText, rec.SourceText)
		if score >= threshold {
			candidates = append(candidates, Scored{Record: rec, Score: score})
		}
	}
	m.mu.RUnlock()

	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].Score != candidates[j].Score {
			return candidates[i].Score > candidates[j].Score
		}
		return candidates[i].Record.SourceText < candidates[j].Record.SourceText
	})
	if len(candidates) > limit {
		candidates = candidates[:limit]
	}
	return candidates
}

// Nearest returns the record of the language pair whose whole source text
// is closest to sourceText by character-level ratio, if it scores at least
// threshold. Unlike Similar, a record holding only part of sourceText does
// not score high.
func (m *Memory) Nearest(sourceText, sourceLang, targetLang string, threshold float64) (Scored, bool) {
	query := fuzzy.Normalize(sourceText)
	queryLen := utf8.RuneCountInString(query)

	m.mu.RLock()
	defer m.mu.RUnlock()

	var best Scored
	found := false
	for _, rec := range m.records {
		if rec.SourceLang != sourceLang || rec.TargetLang != targetLang {
			continue
		}
		candidate := fuzzy.Normalize(rec.SourceText)
		if fuzzy.RatioBound(queryLen, utf8.RuneCountInString(candidate)) < threshold {
			continue
		}
		score := fuzzy.NormalizedRatio(query, candidate)
		if score < threshold {
			continue
		}
		if !found || score > best.Score || (score == best.Score && rec.SourceText < best.Record.SourceText) {
			best = Scored{Record: rec, Score: score}
			found = true
		}
	}
	return best, found
}

// Record validates and upserts a translation, then persists the store. A
// record that fails the staleness filter is logged and skipped: Record
// returns nil and no error. A failed write returns the error and leaves
// the in-memory store as it was.
func (m *Memory) Record(sourceText, translatedText, sourceLang, targetLang string, allowLong bool) (*Record, error) {
	rec := Record{
		SourceText:     sourceText,
		TranslatedText: translatedText,
		SourceLang:     sourceLang,
		TargetLang:     targetLang,
	}
	if err := Validate(rec, m.maxLen, allowLong); err != nil {
		slog.Warn("translation memory record rejected",
			"source_lang", sourceLang, "target_lang", targetLang,
			"source_chars", len([]rune(sourceText)), "reason", err)
		return nil, nil
	}
	fitsFilter := Validate(rec, m.maxLen, false) == nil

	key := rec.Key()
	m.mu.Lock()
	prev, had := m.records[key]
	// A single-paragraph document shares its key with the paragraph record;
	// the paragraph stays a suggestion.
	rec.LongEntry = allowLong && !(had && !prev.LongEntry && fitsFilter)
	m.records[key] = rec
	m.mu.Unlock()

	if err := m.Save(); err != nil {
		m.mu.Lock()
		if had {
			m.records[key] = prev
		} else {
			delete(m.records, key)
		}
		m.mu.Unlock()
		return nil, err
	}
	return &rec, nil
}

// Save writes the full store to disk atomically.
func (m *Memory) Save() error {
	m.mu.RLock()
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	err := enc.Encode(m.records)
	m.mu.RUnlock()
	if err != nil {
		return fmt.Errorf("encoding translation memory: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(m.path), ".memory-*.json")
	if err != nil {
		return fmt.Errorf("writing translation memory: %w", err)
	}
	tmpName := tmp.Name()
	if err := tmp.Chmod(0o644); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("writing translation memory: %w", err)
	}
	if _, err := tmp.Write(buf.Bytes()); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("writing translation memory: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("writing translation memory: %w", err)
	}
	if err := os.Rename(tmpName, m.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replacing translation memory %s: %w", m.path, err)
	}
	return nil
}

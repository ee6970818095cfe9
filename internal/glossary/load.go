// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package glossary

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"go.yaml.in/yaml/v3"
)

// ErrMissingHeaders is returned when a CSV glossary lacks the term or
// translation column.
var ErrMissingHeaders = errors.New("glossary CSV must include term and translation headers")

// LoadFile reads a glossary from path. The format is chosen by extension:
// .csv (header row with at least term and translation), .yaml or .yml (a
// list of {term, translation, context} mappings). The glossary is named
// after the file stem.
func LoadFile(path, sourceLang, targetLang string) (*Glossary, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening glossary %s: %w", path, err)
	}
	defer f.Close()

	var rows []Entry
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		rows, err = ReadYAML(f)
	default:
		rows, err = ReadCSV(f)
	}
	if err != nil {
		return nil, fmt.Errorf("reading glossary %s: %w", path, err)
	}

	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	g := New(name, sourceLang, targetLang, rows)
	if skipped := len(rows) - g.Len(); skipped > 0 {
		slog.Info("glossary rows skipped", "path", path, "skipped", skipped, "kept", g.Len())
	}
	return g, nil
}

// ReadCSV parses glossary rows from a CSV stream. A leading UTF-8 byte
// order mark is ignored. Header names are matched case-insensitively and
// extra columns are allowed.
func ReadCSV(r io.Reader) ([]Entry, error) {
	br := bufio.NewReader(r)
	if ch, _, err := br.ReadRune(); err == nil && ch != '\ufeff' {
		br.UnreadRune()
	}
	cr := csv.NewReader(br)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err == io.EOF {
		return nil, ErrMissingHeaders
	}
	if err != nil {
		return nil, fmt.Errorf("reading CSV header: %w", err)
	}

	cols := map[string]int{}
	for i, h := range header {
		cols[strings.ToLower(strings.TrimSpace(h))] = i
	}
	termCol, okTerm := cols["term"]
	transCol, okTrans := cols["translation"]
	if !okTerm || !okTrans {
		return nil, fmt.Errorf("%w, got %v", ErrMissingHeaders, header)
	}
	ctxCol, hasCtx := cols["context"]

	var rows []Entry
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading CSV row: %w", err)
		}
		e := Entry{Term: field(rec, termCol), Translation: field(rec, transCol)}
		if hasCtx {
			e.Context = field(rec, ctxCol)
		}
		rows = append(rows, e)
	}
	return rows, nil
}

// ReadYAML parses glossary rows from a YAML list.
func ReadYAML(r io.Reader) ([]Entry, error) {
	var rows []Entry
	if err := yaml.NewDecoder(r).Decode(&rows); err != nil && err != io.EOF {
		return nil, fmt.Errorf("decoding YAML glossary: %w", err)
	}
	return rows, nil
}

func field(rec []string, i int) string {
	if i >= len(rec) {
		return ""
	}
	return rec[i]
}

// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package document reads and writes plain-text and Markdown documents as
// paragraph lists. Paragraphs are separated by one blank line; extra blank
// lines survive a Split/Join round trip as empty paragraphs.
package document

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Separator joins paragraphs.
const Separator = "\n\n"

// Extensions are the file types Read accepts.
var Extensions = []string{".txt", ".md"}

// Supported reports whether path has a readable extension.
func Supported(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, e := range Extensions {
		if ext == e {
			return true
		}
	}
	return false
}

// Split normalizes line endings and splits text into paragraphs. A single
// trailing newline is not a paragraph.
func Split(text string) []string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.TrimSuffix(text, "\n")
	if text == "" {
		return nil
	}
	return strings.Split(text, Separator)
}

// Join is the inverse of Split.
func Join(paragraphs []string) string {
	return strings.Join(paragraphs, Separator)
}

// Read loads path and returns its full text.
func Read(path string) (string, error) {
	if !Supported(path) {
		return "", fmt.Errorf("unsupported document type %q (want %s)", filepath.Ext(path), strings.Join(Extensions, ", "))
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("reading document: %w", err)
	}
	return strings.TrimPrefix(string(data), "\ufeff"), nil
}

// Write stores text at path with a trailing newline, creating parent
// directories.
func Write(path, text string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}
	if !strings.HasSuffix(text, "\n") {
		text += "\n"
	}
	if err := os.WriteFile(path, []byte(text), 0o644); err != nil {
		return fmt.Errorf("writing document: %w", err)
	}
	return nil
}

// OutputPaths are the files written for one translated document.
type OutputPaths struct {
	Translation string
	Annotated   string
	Report      string
}

// OutputsFor derives output names from input: <stem>.<lang>.txt,
// <stem>.<lang>.annotated.txt and <stem>.<lang>.report.json in dir.
func OutputsFor(input, dir, targetLang string) OutputPaths {
	stem := strings.TrimSuffix(filepath.Base(input), filepath.Ext(input))
	base := filepath.Join(dir, stem+"."+targetLang)
	return OutputPaths{
		Translation: base + ".txt",
		Annotated:   base + ".annotated.txt",
		Report:      base + ".report.json",
	}
}

// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package exchange exports translation memory as TMX 1.4 and glossaries as
// TBX so they can be loaded into CAT tools.
package exchange

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/pdiddy/legal-translator/internal/glossary"
	"github.com/pdiddy/legal-translator/internal/memory"
)

const (
	toolName    = "Legal Translator"
	tmxTimeForm = "20060102T150405Z"
)

// ToolVersion is written into TMX headers.
var ToolVersion = "0.1.0"

var regions = map[string]string{
	"de": "de-CH",
	"fr": "fr-CH",
	"it": "it-CH",
	"en": "en-US",
}

// RegionCode maps a bare language code to the regional tag CAT tools
// expect. Unknown codes pass through.
func RegionCode(lang string) string {
	if code, ok := regions[lang]; ok {
		return code
	}
	return lang
}

type tmxDoc struct {
	XMLName xml.Name  `xml:"tmx"`
	Version string    `xml:"version,attr"`
	Header  tmxHeader `xml:"header"`
	Body    tmxBody   `xml:"body"`
}

type tmxHeader struct {
	CreationTool        string `xml:"creationtool,attr"`
	CreationToolVersion string `xml:"creationtoolversion,attr"`
	DataType            string `xml:"datatype,attr"`
	SegType             string `xml:"segtype,attr"`
	AdminLang           string `xml:"adminlang,attr"`
	SrcLang             string `xml:"srclang,attr"`
	OTmf                string `xml:"o-tmf,attr"`
	CreationDate        string `xml:"creationdate,attr"`
}

type tmxBody struct {
	Units []tmxUnit `xml:"tu"`
}

type tmxUnit struct {
	Variants []tmxVariant `xml:"tuv"`
}

type tmxVariant struct {
	Lang    string `xml:"xml:lang,attr"`
	Segment string `xml:"seg"`
}

// WriteTMX writes the records of the sourceLang/targetLang pair as a TMX
// 1.4 document. Records of other pairs are skipped.
func WriteTMX(w io.Writer, records []memory.Record, sourceLang, targetLang string, created time.Time) error {
	src, tgt := RegionCode(sourceLang), RegionCode(targetLang)
	doc := tmxDoc{
		Version: "1.4",
		Header: tmxHeader{
			CreationTool:        toolName,
			CreationToolVersion: ToolVersion,
			DataType:            "plaintext",
			SegType:             "sentence",
			AdminLang:           "en-US",
			SrcLang:             src,
			OTmf:                "none",
			CreationDate:        created.UTC().Format(tmxTimeForm),
		},
	}
	for _, r := range records {
		if r.SourceLang != sourceLang || r.TargetLang != targetLang {
			continue
		}
		doc.Body.Units = append(doc.Body.Units, tmxUnit{Variants: []tmxVariant{
			{Lang: src, Segment: r.SourceText},
			{Lang: tgt, Segment: r.TranslatedText},
		}})
	}
	return writeXML(w, doc)
}

type tbxDoc struct {
	XMLName xml.Name  `xml:"martif"`
	Type    string    `xml:"type,attr"`
	Lang    string    `xml:"xml:lang,attr"`
	Header  tbxHeader `xml:"martifHeader"`
	Entries []tbxTerm `xml:"text>body>termEntry"`
}

type tbxHeader struct {
	SourceDesc string `xml:"fileDesc>sourceDesc>p"`
}

type tbxTerm struct {
	ID      string       `xml:"id,attr"`
	LangSet []tbxLangSet `xml:"langSet"`
}

type tbxLangSet struct {
	Lang    string     `xml:"xml:lang,attr"`
	TermGrp tbxTermGrp `xml:"ntig>termGrp"`
}

type tbxTermGrp struct {
	Term    string      `xml:"term"`
	Descrip *tbxDescrip `xml:"descrip,omitempty"`
}

type tbxDescrip struct {
	Type string `xml:"type,attr"`
	Text string `xml:",chardata"`
}

// WriteTBX writes g as a TBX-Basic document. Each entry becomes a
// termEntry with id te-<fingerprint>; a context is attached to the target
// term.
func WriteTBX(w io.Writer, g *glossary.Glossary) error {
	if g == nil {
		return fmt.Errorf("no glossary to export")
	}
	src, tgt := RegionCode(g.SourceLang), RegionCode(g.TargetLang)
	doc := tbxDoc{
		Type:   "TBX",
		Lang:   src,
		Header: tbxHeader{SourceDesc: "Exported from Legal Translator glossary: " + g.Name},
	}
	for _, e := range g.Entries() {
		target := tbxLangSet{Lang: tgt, TermGrp: tbxTermGrp{Term: e.Translation}}
		if e.Context != "" {
			target.TermGrp.Descrip = &tbxDescrip{Type: "context", Text: e.Context}
		}
		doc.Entries = append(doc.Entries, tbxTerm{
			ID: "te-" + e.Fingerprint(),
			LangSet: []tbxLangSet{
				{Lang: src, TermGrp: tbxTermGrp{Term: e.Term}},
				target,
			},
		})
	}
	return writeXML(w, doc)
}

func writeXML(w io.Writer, doc any) error {
	data, err := xml.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding XML: %w", err)
	}
	if _, err := io.WriteString(w, xml.Header); err != nil {
		return err
	}
	if _, err := w.Write(data); err != nil {
		return err
	}
	_, err = io.WriteString(w, "\n")
	return err
}

// ExportTMX writes the memory's records for one language pair to path.
func ExportTMX(path string, records []memory.Record, sourceLang, targetLang string, created time.Time) error {
	var buf bytes.Buffer
	if err := WriteTMX(&buf, records, sourceLang, targetLang, created); err != nil {
		return err
	}
	return writeFile(path, buf.Bytes())
}

// ExportTBX writes g to path.
func ExportTBX(path string, g *glossary.Glossary) error {
	var buf bytes.Buffer
	if err := WriteTBX(&buf, g); err != nil {
		return err
	}
	return writeFile(path, buf.Bytes())
}

func writeFile(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating export directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}

// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"text/template"
)

// maxReferenceChars bounds the reference text sent in one prompt.
const maxReferenceChars = 12000

var pairsPromptTmpl = template.Must(template.New("pairs").Parse(`You are building a terminology list for a legal translator.
The document below is a bilingual reference document ({{.SourceLang}} and {{.TargetLang}}).
List every legal term or fixed expression that appears with its counterpart.

Return ONLY a JSON object mapping each {{.SourceLang}} term to its {{.TargetLang}} term, for example:
{"bail": "Mietvertrag"}

Reference document:
{{.Text}}
`))

// ExtractReferencePairs asks the model for term pairs found in a bilingual
// reference document. Keys are lowercased and trimmed; empty pairs are
// dropped.
func ExtractReferencePairs(ctx context.Context, backend Completer, text, sourceLang, targetLang string) (map[string]string, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return map[string]string{}, nil
	}
	if r := []rune(text); len(r) > maxReferenceChars {
		text = string(r[:maxReferenceChars])
	}

	var buf bytes.Buffer
	err := pairsPromptTmpl.Execute(&buf, struct {
		SourceLang, TargetLang, Text string
	}{sourceLang, targetLang, text})
	if err != nil {
		return nil, fmt.Errorf("rendering prompt: %w", err)
	}

	raw, err := backend.Complete(ctx, buf.String())
	if err != nil {
		return nil, fmt.Errorf("extracting reference pairs: %w", err)
	}
	return parsePairs(raw)
}

// parsePairs decodes the first JSON object in raw, tolerating code fences
// and prose around it.
func parsePairs(raw string) (map[string]string, error) {
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start < 0 || end < start {
		return nil, fmt.Errorf("no JSON object in model response")
	}
	var decoded map[string]string
	if err := json.Unmarshal([]byte(raw[start:end+1]), &decoded); err != nil {
		return nil, fmt.Errorf("parsing reference pairs: %w", err)
	}
	pairs := make(map[string]string, len(decoded))
	for k, v := range decoded {
		k = strings.ToLower(strings.TrimSpace(k))
		v = strings.TrimSpace(v)
		if k == "" || v == "" {
			continue
		}
		pairs[k] = v
	}
	return pairs, nil
}

// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package metrics

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixedSize int

func (f fixedSize) Len() int { return int(f) }

func TestCounters(t *testing.T) {
	m := New()
	m.ModelCall(2*time.Second, nil)
	m.ModelCall(time.Second, errors.New("boom"))
	m.ModelCall(time.Second, nil)
	m.MemoryReuse(LevelParagraph)
	m.MemoryReuse(LevelDocument)
	m.MemoryReuse(LevelParagraph)
	m.AppliedTerms("glossary_translation_match", 3)
	m.AppliedTerms("memory", 0)
	m.Document("ok")

	assert.Equal(t, 2.0, testutil.ToFloat64(m.modelCalls.WithLabelValues("ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.modelCalls.WithLabelValues("error")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.memoryReuse.WithLabelValues(LevelParagraph)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.memoryReuse.WithLabelValues(LevelDocument)))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.appliedTerms.WithLabelValues("glossary_translation_match")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.documents.WithLabelValues("ok")))
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ModelCall(time.Second, nil)
		m.MemoryReuse(LevelDocument)
		m.AppliedTerms("memory", 2)
		m.Document("failed")
		m.WatchMemory(fixedSize(1))
	})
	assert.Nil(t, m.Registry())
	assert.NoError(t, m.WriteTextfile(filepath.Join(t.TempDir(), "x.prom")))
}

func TestWriteTextfile(t *testing.T) {
	m := New()
	m.WatchMemory(fixedSize(42))
	m.Document("ok")

	path := filepath.Join(t.TempDir(), "legal_translator.prom")
	require.NoError(t, m.WriteTextfile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `legal_translator_documents_total{status="ok"} 1`)
	assert.Contains(t, string(data), "legal_translator_memory_records 42")
}

// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package metrics counts model calls, memory reuse and applied terminology.
// The CLI has no scrape endpoint, so the registry is written to a
// node_exporter textfile at the end of a run.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Reuse levels for MemoryReuse.
const (
	LevelDocument  = "document"
	LevelParagraph = "paragraph"
)

var memoryRecordsDesc = prometheus.NewDesc(
	"legal_translator_memory_records",
	"Records currently held in the translation memory",
	nil,
	nil,
)

// Sizer reports a collection size; *memory.Memory satisfies it.
type Sizer interface {
	Len() int
}

// MemoryCollector reads the memory size on each gather.
type MemoryCollector struct {
	mem Sizer
}

// Describe sends the metric descriptor to the channel.
func (c *MemoryCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- memoryRecordsDesc
}

// Collect emits the current record count as a gauge.
func (c *MemoryCollector) Collect(ch chan<- prometheus.Metric) {
	ch <- prometheus.MustNewConstMetric(memoryRecordsDesc, prometheus.GaugeValue, float64(c.mem.Len()))
}

// Metrics holds the counters of one process. A nil *Metrics is valid and
// records nothing.
type Metrics struct {
	registry     *prometheus.Registry
	modelCalls   *prometheus.CounterVec
	modelLatency prometheus.Histogram
	memoryReuse  *prometheus.CounterVec
	appliedTerms *prometheus.CounterVec
	documents    *prometheus.CounterVec
}

// New registers all counters on a fresh registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		modelCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "legal_translator_model_calls_total",
			Help: "Paragraph translations requested from the model, by outcome",
		}, []string{"outcome"}),
		modelLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "legal_translator_model_call_seconds",
			Help:    "Latency of paragraph translation calls",
			Buckets: prometheus.ExponentialBuckets(0.25, 2, 10),
		}),
		memoryReuse: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "legal_translator_memory_reuse_total",
			Help: "Translations taken from memory instead of the model",
		}, []string{"level"}),
		appliedTerms: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "legal_translator_applied_terms_total",
			Help: "Spans tagged by the provenance enricher, by source kind",
		}, []string{"kind"}),
		documents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "legal_translator_documents_total",
			Help: "Documents processed, by status",
		}, []string{"status"}),
	}
	m.registry.MustRegister(m.modelCalls, m.modelLatency, m.memoryReuse, m.appliedTerms, m.documents)
	return m
}

// Registry exposes the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// WatchMemory registers a collector reporting mem's size.
func (m *Metrics) WatchMemory(mem Sizer) {
	if m == nil || mem == nil {
		return
	}
	m.registry.MustRegister(&MemoryCollector{mem: mem})
}

// ModelCall records one model call and its latency.
func (m *Metrics) ModelCall(d time.Duration, err error) {
	if m == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.modelCalls.WithLabelValues(outcome).Inc()
	m.modelLatency.Observe(d.Seconds())
}

// MemoryReuse records a memory hit at level.
func (m *Metrics) MemoryReuse(level string) {
	if m == nil {
		return
	}
	m.memoryReuse.WithLabelValues(level).Inc()
}

// AppliedTerms adds n tagged spans of kind.
func (m *Metrics) AppliedTerms(kind string, n int) {
	if m == nil || n <= 0 {
		return
	}
	m.appliedTerms.WithLabelValues(kind).Add(float64(n))
}

// Document records a finished document with status "ok", "failed" or
// "skipped".
func (m *Metrics) Document(status string) {
	if m == nil {
		return
	}
	m.documents.WithLabelValues(status).Inc()
}

// WriteTextfile writes the registry in the Prometheus text format.
func (m *Metrics) WriteTextfile(path string) error {
	if m == nil {
		return nil
	}
	return prometheus.WriteToTextfile(path, m.registry)
}

// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package batch translates every document of a directory and writes a
// manifest describing the run. One failing document does not stop the
// batch; each document is tracked as a job.
package batch

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/pdiddy/legal-translator/internal/document"
	"github.com/pdiddy/legal-translator/internal/jobs"
	"github.com/pdiddy/legal-translator/internal/pipeline"
	"github.com/pdiddy/legal-translator/internal/report"
)

// ManifestFile is the manifest name inside the output directory.
const ManifestFile = "batch_manifest.json"

// File statuses in the manifest.
const (
	StatusSuccess = "success"
	StatusFailed  = "failed"
)

// FileEntry is the manifest record of one document.
type FileEntry struct {
	InputFile       string        `json:"input_file"`
	JobID           string        `json:"job_id,omitempty"`
	Status          string        `json:"status"`
	OutputFile      string        `json:"output_file,omitempty"`
	AnnotatedFile   string        `json:"annotated_file,omitempty"`
	ReportFile      string        `json:"report_file,omitempty"`
	DurationSeconds float64       `json:"duration_seconds,omitempty"`
	Stats           *report.Stats `json:"stats,omitempty"`
	Error           string        `json:"error,omitempty"`
}

// Summary holds counts from a batch run.
type Summary struct {
	DocumentsTotal   int `json:"documents_total"`
	DocumentsSuccess int `json:"documents_success"`
	DocumentsFailed  int `json:"documents_failed"`
	ModelCalls       int `json:"model_calls"`
	ReusedFromMemory int `json:"reused_from_memory"`
	GlossaryMatches  int `json:"glossary_matches"`
	ParagraphsTotal  int `json:"paragraphs_total"`
}

// HasFailures reports whether any document failed.
func (s Summary) HasFailures() bool {
	return s.DocumentsFailed > 0
}

// Manifest describes one batch run.
type Manifest struct {
	BatchID     string      `json:"batch_id"`
	OutputDir   string      `json:"output_dir"`
	SourceLang  string      `json:"source_lang"`
	TargetLang  string      `json:"target_lang"`
	Files       []FileEntry `json:"files"`
	Summary     Summary     `json:"summary"`
	GeneratedAt string      `json:"generated_at"`
}

// Report formats.
const (
	ReportJSON = "json"
	ReportYAML = "yaml"
)

// Options configure one batch run.
type Options struct {
	OutputDir      string
	SourceLang     string
	TargetLang     string
	ReferencePairs map[string]string
	// ReportFormat is ReportJSON (default) or ReportYAML.
	ReportFormat string
}

// Runner translates documents through a shared pipeline.
type Runner struct {
	Pipeline *pipeline.Pipeline
	// Jobs records one job per document; nil disables tracking.
	Jobs jobs.Store
	// Now defaults to time.Now.
	Now func() time.Time
}

// Discover lists the supported documents in dir, sorted by name.
func Discover(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading input directory %s: %w", dir, err)
	}
	var files []string
	for _, e := range entries {
		if e.IsDir() || !document.Supported(e.Name()) {
			continue
		}
		files = append(files, filepath.Join(dir, e.Name()))
	}
	sort.Strings(files)
	return files, nil
}

// Run translates files and writes the manifest to the output directory.
// Per-document progress goes to w. The returned error covers only
// failures of the batch itself (output directory, manifest, job store);
// document failures are recorded in the manifest.
func (r *Runner) Run(ctx context.Context, files []string, opts Options, w io.Writer) (Manifest, error) {
	now := r.Now
	if now == nil {
		now = time.Now
	}
	if err := os.MkdirAll(opts.OutputDir, 0o755); err != nil {
		return Manifest{}, fmt.Errorf("creating output directory: %w", err)
	}

	m := Manifest{
		BatchID:    uuid.NewString(),
		OutputDir:  opts.OutputDir,
		SourceLang: opts.SourceLang,
		TargetLang: opts.TargetLang,
		Files:      make([]FileEntry, 0, len(files)),
		Summary:    Summary{DocumentsTotal: len(files)},
	}

	for i, path := range files {
		if err := ctx.Err(); err != nil {
			return m, err
		}
		fmt.Fprintf(w, "[%d/%d] translating %s\n", i+1, len(files), filepath.Base(path))

		entry, err := r.runOne(ctx, m.BatchID, path, opts, now)
		if err != nil {
			return m, err
		}
		m.Files = append(m.Files, entry)
		r.logEntry(w, entry)

		if entry.Status == StatusFailed {
			m.Summary.DocumentsFailed++
			continue
		}
		m.Summary.DocumentsSuccess++
		m.Summary.ModelCalls += entry.Stats.ModelCalls
		m.Summary.ReusedFromMemory += entry.Stats.ReusedFromMemory
		m.Summary.GlossaryMatches += entry.Stats.GlossaryMatches
		m.Summary.ParagraphsTotal += entry.Stats.ParagraphsTotal
	}

	m.GeneratedAt = now().UTC().Format(time.RFC3339)
	if err := writeManifest(filepath.Join(opts.OutputDir, ManifestFile), m); err != nil {
		return m, err
	}
	return m, nil
}

// TranslateFile translates one document outside any batch. Like Run, it
// returns an error only for job-store failures; check entry.Status.
func (r *Runner) TranslateFile(ctx context.Context, path string, opts Options, w io.Writer) (FileEntry, error) {
	now := r.Now
	if now == nil {
		now = time.Now
	}
	if err := os.MkdirAll(opts.OutputDir, 0o755); err != nil {
		return FileEntry{}, fmt.Errorf("creating output directory: %w", err)
	}
	entry, err := r.runOne(ctx, "", path, opts, now)
	if err != nil {
		return entry, err
	}
	r.logEntry(w, entry)
	return entry, nil
}

func (r *Runner) logEntry(w io.Writer, entry FileEntry) {
	name := filepath.Base(entry.InputFile)
	if entry.Status == StatusFailed {
		fmt.Fprintf(w, "failed  %s: %s\n", name, entry.Error)
		r.Pipeline.Metrics.Document("failed")
		return
	}
	fmt.Fprintf(w, "translated %s (%d paragraphs, %d model calls)\n",
		name, entry.Stats.ParagraphsTotal, entry.Stats.ModelCalls)
	r.Pipeline.Metrics.Document("ok")
}

// runOne translates a single file. Only job-store errors are returned;
// translation and output errors mark the entry failed.
func (r *Runner) runOne(ctx context.Context, batchID, path string, opts Options, now func() time.Time) (FileEntry, error) {
	outputs := document.OutputsFor(path, opts.OutputDir, opts.TargetLang)
	if opts.ReportFormat == ReportYAML {
		outputs.Report = strings.TrimSuffix(outputs.Report, ".json") + ".yaml"
	}
	entry := FileEntry{InputFile: path, Status: StatusFailed}

	job, err := r.startJob(ctx, jobs.Job{
		BatchID:    batchID,
		InputFile:  path,
		OutputFile: outputs.Translation,
		SourceLang: opts.SourceLang,
		TargetLang: opts.TargetLang,
		Status:     jobs.StatusRunning,
	})
	if err != nil {
		return entry, err
	}
	entry.JobID = job.ID

	start := now()
	out, transErr := r.translate(ctx, path, outputs, opts)
	if transErr == nil {
		entry.Status = StatusSuccess
		entry.OutputFile = outputs.Translation
		entry.AnnotatedFile = outputs.Annotated
		entry.ReportFile = outputs.Report
		entry.DurationSeconds = out.Report.DurationSeconds
		stats := out.Report.Stats
		entry.Stats = &stats
		job.Status = jobs.StatusSucceeded
		job.Progress = 1
	} else {
		entry.Error = transErr.Error()
		entry.DurationSeconds = now().Sub(start).Seconds()
		job.Status = jobs.StatusFailed
		job.Error = transErr.Error()
	}

	if r.Jobs != nil {
		// The outcome is recorded even when ctx was cancelled mid-document.
		if _, err := r.Jobs.Update(context.WithoutCancel(ctx), job); err != nil {
			return entry, fmt.Errorf("updating job %s: %w", job.ID, err)
		}
	}
	return entry, nil
}

func (r *Runner) startJob(ctx context.Context, job jobs.Job) (jobs.Job, error) {
	if r.Jobs == nil {
		return job, nil
	}
	created, err := r.Jobs.Create(ctx, job)
	if err != nil {
		return job, fmt.Errorf("creating job for %s: %w", job.InputFile, err)
	}
	return created, nil
}

func (r *Runner) translate(ctx context.Context, path string, outputs document.OutputPaths, opts Options) (*pipeline.Outcome, error) {
	text, err := document.Read(path)
	if err != nil {
		return nil, err
	}
	out, err := r.Pipeline.Translate(ctx, pipeline.Request{
		Text:           text,
		SourceLang:     opts.SourceLang,
		TargetLang:     opts.TargetLang,
		ReferencePairs: opts.ReferencePairs,
		InputFile:      path,
		OutputFile:     outputs.Translation,
	})
	if err != nil {
		return nil, err
	}
	if err := document.Write(outputs.Translation, out.Translation); err != nil {
		return nil, err
	}
	if err := document.Write(outputs.Annotated, out.Annotated); err != nil {
		return nil, err
	}
	write := report.WriteJSON
	if opts.ReportFormat == ReportYAML {
		write = report.WriteYAML
	}
	if err := write(outputs.Report, out.Report); err != nil {
		return nil, fmt.Errorf("writing report: %w", err)
	}
	return out, nil
}

func writeManifest(path string, m Manifest) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("writing manifest: %w", err)
	}
	enc := json.NewEncoder(f)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(m); err != nil {
		f.Close()
		return fmt.Errorf("encoding manifest: %w", err)
	}
	return f.Close()
}

// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package jobs tracks translation jobs. Store is injected wherever job
// state is read or written; MemoryStore serves a single process and
// SQLiteStore persists jobs across runs.
package jobs

import (
	"context"
	"errors"
	"sort"
	"time"
)

// ErrNotFound is returned for unknown job IDs.
var ErrNotFound = errors.New("job not found")

// Status is the lifecycle state of a job.
type Status string

const (
	StatusPending   Status = "pending"
	StatusRunning   Status = "running"
	StatusSucceeded Status = "succeeded"
	StatusFailed    Status = "failed"
	StatusSkipped   Status = "skipped"
)

// Done reports whether s is terminal.
func (s Status) Done() bool {
	return s == StatusSucceeded || s == StatusFailed || s == StatusSkipped
}

// Job is one document translation.
type Job struct {
	ID         string    `json:"id" yaml:"id"`
	BatchID    string    `json:"batch_id,omitempty" yaml:"batch_id,omitempty"`
	InputFile  string    `json:"input_file" yaml:"input_file"`
	OutputFile string    `json:"output_file,omitempty" yaml:"output_file,omitempty"`
	SourceLang string    `json:"source_lang" yaml:"source_lang"`
	TargetLang string    `json:"target_lang" yaml:"target_lang"`
	Status     Status    `json:"status" yaml:"status"`
	Progress   float64   `json:"progress" yaml:"progress"`
	Error      string    `json:"error,omitempty" yaml:"error,omitempty"`
	CreatedAt  time.Time `json:"created_at" yaml:"created_at"`
	UpdatedAt  time.Time `json:"updated_at" yaml:"updated_at"`
}

// Filter narrows List. Zero fields match everything; Limit <= 0 means no
// limit.
type Filter struct {
	BatchID string
	Status  Status
	Limit   int
}

func (f Filter) match(j Job) bool {
	if f.BatchID != "" && j.BatchID != f.BatchID {
		return false
	}
	if f.Status != "" && j.Status != f.Status {
		return false
	}
	return true
}

// Store persists jobs. Create assigns an ID when the job has none and
// stamps both timestamps; Update replaces a stored job and stamps
// UpdatedAt. List returns the newest jobs first.
type Store interface {
	Create(ctx context.Context, job Job) (Job, error)
	Get(ctx context.Context, id string) (Job, error)
	Update(ctx context.Context, job Job) (Job, error)
	List(ctx context.Context, filter Filter) ([]Job, error)
	Close() error
}

// sortNewestFirst orders by CreatedAt descending, then ID.
func sortNewestFirst(list []Job) {
	sort.Slice(list, func(i, j int) bool {
		if !list[i].CreatedAt.Equal(list[j].CreatedAt) {
			return list[i].CreatedAt.After(list[j].CreatedAt)
		}
		return list[i].ID < list[j].ID
	})
}

// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package jobs

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
)

// SQLiteStore persists jobs in a SQLite database.
type SQLiteStore struct {
	db  *sql.DB
	now func() time.Time
}

// OpenSQLite opens or creates the job database at path and creates the
// schema if it does not exist.
func OpenSQLite(path string) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating jobs directory: %w", err)
	}
	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_foreign_keys=on&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	s := &SQLiteStore{db: db, now: time.Now}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return s, nil
}

// Close releases the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS jobs (
			id TEXT PRIMARY KEY,
			batch_id TEXT NOT NULL DEFAULT '',
			input_file TEXT NOT NULL,
			output_file TEXT NOT NULL DEFAULT '',
			source_lang TEXT NOT NULL,
			target_lang TEXT NOT NULL,
			status TEXT NOT NULL,
			progress REAL NOT NULL DEFAULT 0,
			error TEXT NOT NULL DEFAULT '',
			created_at TEXT NOT NULL,
			updated_at TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_jobs_batch_id ON jobs(batch_id)`,
		`CREATE INDEX IF NOT EXISTS idx_jobs_status ON jobs(status)`,
	}
	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

// timeLayout has fixed-width fractions so stored timestamps sort as text.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

const jobColumns = `id, batch_id, input_file, output_file, source_lang, target_lang,
	status, progress, error, created_at, updated_at`

func (s *SQLiteStore) Create(ctx context.Context, job Job) (Job, error) {
	if job.ID == "" {
		job.ID = uuid.NewString()
	}
	if job.Status == "" {
		job.Status = StatusPending
	}
	now := s.now().UTC()
	job.CreatedAt, job.UpdatedAt = now, now

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO jobs (`+jobColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		job.ID, job.BatchID, job.InputFile, job.OutputFile, job.SourceLang, job.TargetLang,
		string(job.Status), job.Progress, job.Error,
		job.CreatedAt.Format(timeLayout), job.UpdatedAt.Format(timeLayout),
	)
	if err != nil {
		return Job{}, fmt.Errorf("inserting job %s: %w", job.ID, err)
	}
	return job, nil
}

func (s *SQLiteStore) Get(ctx context.Context, id string) (Job, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+jobColumns+` FROM jobs WHERE id = ?`, id)
	job, err := scanJob(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Job{}, fmt.Errorf("%s: %w", id, ErrNotFound)
	}
	if err != nil {
		return Job{}, fmt.Errorf("reading job %s: %w", id, err)
	}
	return job, nil
}

func (s *SQLiteStore) Update(ctx context.Context, job Job) (Job, error) {
	old, err := s.Get(ctx, job.ID)
	if err != nil {
		return Job{}, err
	}
	job.CreatedAt = old.CreatedAt
	job.UpdatedAt = s.now().UTC()

	_, err = s.db.ExecContext(ctx,
		`UPDATE jobs SET batch_id = ?, input_file = ?, output_file = ?, source_lang = ?,
			target_lang = ?, status = ?, progress = ?, error = ?, updated_at = ?
		WHERE id = ?`,
		job.BatchID, job.InputFile, job.OutputFile, job.SourceLang, job.TargetLang,
		string(job.Status), job.Progress, job.Error, job.UpdatedAt.Format(timeLayout),
		job.ID,
	)
	if err != nil {
		return Job{}, fmt.Errorf("updating job %s: %w", job.ID, err)
	}
	return job, nil
}

func (s *SQLiteStore) List(ctx context.Context, filter Filter) ([]Job, error) {
	var (
		where []string
		args  []any
	)
	if filter.BatchID != "" {
		where = append(where, "batch_id = ?")
		args = append(args, filter.BatchID)
	}
	if filter.Status != "" {
		where = append(where, "status = ?")
		args = append(args, string(filter.Status))
	}
	query := `SELECT ` + jobColumns + ` FROM jobs`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY created_at DESC, id ASC"
	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing jobs: %w", err)
	}
	defer rows.Close()

	var out []Job
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning job: %w", err)
		}
		out = append(out, job)
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanJob(sc scanner) (Job, error) {
	var (
		job                  Job
		status               string
		createdAt, updatedAt string
	)
	err := sc.Scan(&job.ID, &job.BatchID, &job.InputFile, &job.OutputFile, &job.SourceLang,
		&job.TargetLang, &status, &job.Progress, &job.Error, &createdAt, &updatedAt)
	if err != nil {
		return Job{}, err
	}
	job.Status = Status(status)
	if job.CreatedAt, err = time.Parse(timeLayout, createdAt); err != nil {
		return Job{}, fmt.Errorf("parsing created_at: %w", err)
	}
	if job.UpdatedAt, err = time.Parse(timeLayout, updatedAt); err != nil {
		return Job{}, fmt.Errorf("parsing updated_at: %w", err)
	}
	return job, nil
}

// Package store is the SQLite run ledger: one row per run, per file result
// and per skipped line.
package store

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"csv-import/internal/model"

	_ "github.com/mattn/go-sqlite3"
	"github.com/pkg/errors"
)

// ErrNotFound is returned when a run does not exist.
var ErrNotFound = errors.New("run not found")

// Store is a ledger backed by a SQLite database. It is safe for concurrent
// use.
type Store struct {
	db *sql.DB
}

const schema = `
CREATE TABLE IF NOT EXISTS runs (
	id TEXT PRIMARY KEY,
	status TEXT NOT NULL,
	input_dir TEXT,
	files TEXT,
	lines_read INTEGER DEFAULT 0,
	inserted INTEGER DEFAULT 0,
	skipped INTEGER DEFAULT 0,
	failed_files INTEGER DEFAULT 0,
	started_at DATETIME,
	finished_at DATETIME
);
CREATE TABLE IF NOT EXISTS file_results (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	run_id TEXT NOT NULL,
	file TEXT NOT NULL,
	stage TEXT,
	lines_read INTEGER,
	inserted INTEGER,
	skipped INTEGER,
	error TEXT,
	elapsed_ms INTEGER,
	created_at DATETIME
);
CREATE TABLE IF NOT EXISTS row_errors (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	run_id TEXT NOT NULL,
	file TEXT NOT NULL,
	line INTEGER,
	error_message TEXT,
	created_at DATETIME
);
CREATE INDEX IF NOT EXISTS idx_file_results_run ON file_results(run_id);
CREATE INDEX IF NOT EXISTS idx_row_errors_run ON row_errors(run_id);
`

// Open opens (creating if needed) the ledger at path.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path+"?_busy_timeout=5000")
	if err != nil {
		return nil, errors.Wrapf(err, "opening ledger %s", path)
	}
	// Workers write concurrently; one connection keeps SQLite from
	// reporting "database is locked".
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, errors.Wrapf(err, "creating ledger tables in %s", path)
	}
	return &Store{db: db}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// StartRun stores a new run in the running state.
func (s *Store) StartRun(ctx context.Context, runID, inputDir string, files []string, startedAt time.Time) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO runs (id, status, input_dir, files, started_at) VALUES (?, ?, ?, ?, ?)`,
		runID, "running", inputDir, strings.Join(files, ","), startedAt.UTC())
	return errors.Wrap(err, "inserting run")
}

// RecordSkip records a line that was not imported.
func (s *Store) RecordSkip(ctx context.Context, runID, file string, line int64, reason string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO row_errors (run_id, file, line, error_message, created_at) VALUES (?, ?, ?, ?, ?)`,
		runID, file, line, reason, time.Now().UTC())
	return errors.Wrap(err, "inserting row error")
}

// RecordFile records the outcome of one file.
func (s *Store) RecordFile(ctx context.Context, runID string, r model.FileResult) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO file_results (run_id, file, stage, lines_read, inserted, skipped, error, elapsed_ms, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		runID, r.File, r.Stage, r.LinesRead, r.Inserted, r.Skipped, r.Error, r.Elapsed.Milliseconds(), time.Now().UTC())
	return errors.Wrap(err, "inserting file result")
}

// FinishRun stores the totals and final status of a run.
func (s *Store) FinishRun(ctx context.Context, sum model.RunSummary, status string) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE runs SET status = ?, lines_read = ?, inserted = ?, skipped = ?, failed_files = ?, finished_at = ? WHERE id = ?`,
		status, sum.TotalLines, sum.TotalInserted, sum.TotalSkipped, sum.FailedFiles, sum.FinishedAt.UTC(), sum.RunID)
	return errors.Wrap(err, "updating run")
}

// Run is a ledger row as served by the status API.
type Run struct {
	ID          string     `json:"id"`
	Status      string     `json:"status"`
	InputDir    string     `json:"input_dir"`
	Files       []string   `json:"files"`
	LinesRead   int64      `json:"lines_read"`
	Inserted    int64      `json:"inserted"`
	Skipped     int64      `json:"skipped"`
	FailedFiles int        `json:"failed_files"`
	StartedAt   time.Time  `json:"started_at"`
	FinishedAt  *time.Time `json:"finished_at,omitempty"`
}

// FileRow is one stored file result.
type FileRow struct {
	File      string `json:"file"`
	Stage     string `json:"stage"`
	LinesRead int64  `json:"lines_read"`
	Inserted  int64  `json:"inserted"`
	Skipped   int64  `json:"skipped"`
	Error     string `json:"error,omitempty"`
	ElapsedMS int64  `json:"elapsed_ms"`
}

// RowError is one stored skipped line.
type RowError struct {
	File      string    `json:"file"`
	Line      int64     `json:"line"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"created_at"`
}

const runColumns = `id, status, input_dir, files, lines_read, inserted, skipped, failed_files, started_at, finished_at`

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanRun(row scanner) (Run, error) {
	var r Run
	var files string
	var finished sql.NullTime
	if err := row.Scan(&r.ID, &r.Status, &r.InputDir, &files, &r.LinesRead, &r.Inserted, &r.Skipped,
		&r.FailedFiles, &r.StartedAt, &finished); err != nil {
		return Run{}, err
	}
	r.Files = []string{}
	if files != "" {
		r.Files = strings.Split(files, ",")
	}
	if finished.Valid {
		t := finished.Time
		r.FinishedAt = &t
	}
	return r, nil
}

// ListRuns returns every run, newest first.
func (s *Store) ListRuns(ctx context.Context) ([]Run, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+runColumns+` FROM runs ORDER BY started_at DESC`)
	if err != nil {
		return nil, errors.Wrap(err, "listing runs")
	}
	defer rows.Close()

	runs := []Run{}
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, errors.Wrap(err, "scanning run")
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// GetRun returns one run.
func (s *Store) GetRun(ctx context.Context, runID string) (Run, error) {
	r, err := scanRun(s.db.QueryRowContext(ctx, `SELECT `+runColumns+` FROM runs WHERE id = ?`, runID))
	if err == sql.ErrNoRows {
		return Run{}, ErrNotFound
	} else if err != nil {
		return Run{}, errors.Wrapf(err, "fetching run %s", runID)
	}
	return r, nil
}

// FileResults returns the per-file outcomes of a run in file name order.
func (s *Store) FileResults(ctx context.Context, runID string) ([]FileRow, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT file, stage, lines_read, inserted, skipped, error, elapsed_ms FROM file_results WHERE run_id = ? ORDER BY file`, runID)
	if err != nil {
		return nil, errors.Wrap(err, "listing file results")
	}
	defer rows.Close()

	out := []FileRow{}
	for rows.Next() {
		var f FileRow
		var errMsg sql.NullString
		if err := rows.Scan(&f.File, &f.Stage, &f.LinesRead, &f.Inserted, &f.Skipped, &errMsg, &f.ElapsedMS); err != nil {
			return nil, errors.Wrap(err, "scanning file result")
		}
		f.Error = errMsg.String
		out = append(out, f)
	}
	return out, rows.Err()
}

// RowErrors returns up to limit skipped lines of a run, ordered by file and
// line. limit <= 0 means no limit.
func (s *Store) RowErrors(ctx context.Context, runID string, limit int) ([]RowError, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT file, line, error_message, created_at FROM row_errors WHERE run_id = ? ORDER BY file, line LIMIT ?`, runID, limit)
	if err != nil {
		return nil, errors.Wrap(err, "listing row errors")
	}
	defer rows.Close()

	out := []RowError{}
	for rows.Next() {
		var e RowError
		if err := rows.Scan(&e.File, &e.Line, &e.Message, &e.CreatedAt); err != nil {
			return nil, errors.Wrap(err, "scanning row error")
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// Metrics returns the progress and throughput of a run from its file
// results. A run still in progress is measured up to now.
func (s *Store) Metrics(ctx context.Context, runID string) (model.RunMetrics, error) {
	run, err := s.GetRun(ctx, runID)
	if err != nil {
		return model.RunMetrics{}, err
	}
	files, err := s.FileResults(ctx, runID)
	if err != nil {
		return model.RunMetrics{}, err
	}

	m := model.RunMetrics{
		RunID:      run.ID,
		Status:     run.Status,
		StartTime:  run.StartedAt,
		EndTime:    run.FinishedAt,
		FilesTotal: len(run.Files),
		Files:      make([]model.FileMetrics, 0, len(files)),
	}
	for _, f := range files {
		m.Add(model.NewFileMetrics(f.File, f.Stage, f.LinesRead, f.Inserted, f.Skipped,
			time.Duration(f.ElapsedMS)*time.Millisecond, f.Error))
	}
	end := time.Now()
	if run.FinishedAt != nil {
		end = *run.FinishedAt
	}
	m.Finish(end.Sub(run.StartedAt))
	return m, nil
}

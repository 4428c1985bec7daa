package model

import (
	"sync"
	"time"
)

// AggregateStats accumulates per-file results across workers. Workers never
// touch it directly; the coordinator calls Add once per finished file.
type AggregateStats struct {
	mu          sync.Mutex
	files       int
	failedFiles int
	lines       int64
	inserted    int64
	skipped     int64
}

// Add folds one file's counts into the totals.
func (s *AggregateStats) Add(r FileResult) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.files++
	if r.Failed() {
		s.failedFiles++
	}
	s.lines += r.LinesRead
	s.inserted += r.Inserted
	s.skipped += r.Skipped
}

// Snapshot returns the current totals.
func (s *AggregateStats) Snapshot() StatsSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return StatsSnapshot{
		Files:         s.files,
		FailedFiles:   s.failedFiles,
		TotalLines:    s.lines,
		TotalInserted: s.inserted,
		TotalSkipped:  s.skipped,
	}
}

// StatsSnapshot is a point-in-time copy of AggregateStats.
type StatsSnapshot struct {
	Files         int   `json:"files"`
	FailedFiles   int   `json:"failed_files"`
	TotalLines    int64 `json:"total_lines"`
	TotalInserted int64 `json:"total_inserted"`
	TotalSkipped  int64 `json:"total_skipped"`
}

// RunSummary is the final report of one run.
type RunSummary struct {
	RunID      string        `json:"run_id"`
	InputDir   string        `json:"input_dir"`
	StartedAt  time.Time     `json:"started_at"`
	FinishedAt time.Time     `json:"finished_at"`
	Elapsed    time.Duration `json:"elapsed"`
	StatsSnapshot
	Results []FileResult `json:"results"`
}

// FileMetrics is the throughput view of one imported file.
type FileMetrics struct {
	File             string        `json:"file"`
	Stage            string        `json:"stage"`
	LinesRead        int64         `json:"lines_read"`
	Inserted         int64         `json:"inserted"`
	Skipped          int64         `json:"skipped"`
	Elapsed          time.Duration `json:"elapsed"`
	RecordsPerSecond float64       `json:"records_per_second"`
	SkipRate         float64       `json:"skip_rate"` // skipped / lines read
	LastError        string        `json:"last_error,omitempty"`
}

// NewFileMetrics derives the rates of one file outcome.
func NewFileMetrics(file, stage string, lines, inserted, skipped int64, elapsed time.Duration, lastErr string) FileMetrics {
	return FileMetrics{
		File:             file,
		Stage:            stage,
		LinesRead:        lines,
		Inserted:         inserted,
		Skipped:          skipped,
		Elapsed:          elapsed,
		RecordsPerSecond: perSecond(inserted, elapsed),
		SkipRate:         ratio(skipped, lines),
		LastError:        lastErr,
	}
}

// Metrics returns the throughput view of r.
func (r FileResult) Metrics() FileMetrics {
	return NewFileMetrics(r.File, r.Stage, r.LinesRead, r.Inserted, r.Skipped, r.Elapsed, r.Error)
}

// RunMetrics tracks the progress and throughput of a run, finished or not.
type RunMetrics struct {
	RunID     string        `json:"run_id"`
	Status    string        `json:"status"`
	StartTime time.Time     `json:"start_time"`
	EndTime   *time.Time    `json:"end_time,omitempty"`
	Duration  time.Duration `json:"duration"`

	FilesTotal      int     `json:"files_total"`
	FilesDone       int     `json:"files_done"`
	FailedFiles     int     `json:"failed_files"`
	PercentComplete float64 `json:"percent_complete"`

	TotalRecords     int64   `json:"total_records"`
	Inserted         int64   `json:"inserted"`
	Skipped          int64   `json:"skipped"`
	RecordsPerSecond float64 `json:"records_per_second"`
	SkipRate         float64 `json:"skip_rate"`

	Files []FileMetrics `json:"files"`
}

// Add folds one finished file into the run.
func (m *RunMetrics) Add(f FileMetrics) {
	m.Files = append(m.Files, f)
	m.FilesDone++
	if f.LastError != "" {
		m.FailedFiles++
	}
	m.TotalRecords += f.LinesRead
	m.Inserted += f.Inserted
	m.Skipped += f.Skipped
}

// Finish sets the duration and the derived rates.
func (m *RunMetrics) Finish(d time.Duration) {
	m.Duration = d
	m.RecordsPerSecond = perSecond(m.Inserted, d)
	m.SkipRate = ratio(m.Skipped, m.TotalRecords)
	m.PercentComplete = 100 * ratio(int64(m.FilesDone), int64(m.FilesTotal))
	if m.FilesTotal == 0 {
		m.PercentComplete = 100
	}
}

func perSecond(n int64, d time.Duration) float64 {
	if d <= 0 {
		return 0
	}
	return float64(n) / d.Seconds()
}

func ratio(part, whole int64) float64 {
	if whole <= 0 {
		return 0
	}
	return float64(part) / float64(whole)
}

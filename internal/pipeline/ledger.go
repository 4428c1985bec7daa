package pipeline

import (
	"context"
	"time"

	"csv-import/internal/model"
)

// Ledger records what a run did. Ledger errors are logged and never change
// the outcome of a run. Implementations must be safe for concurrent use.
type Ledger interface {
	StartRun(ctx context.Context, runID, inputDir string, files []string, startedAt time.Time) error
	RecordSkip(ctx context.Context, runID, file string, line int64, reason string) error
	RecordFile(ctx context.Context, runID string, r model.FileResult) error
	FinishRun(ctx context.Context, s model.RunSummary, status string) error
}

// Run statuses written to the ledger.
const (
	RunRunning     = "running"
	RunCompleted   = "completed"
	RunInterrupted = "interrupted"
)

type nopLedger struct{}

func (nopLedger) StartRun(context.Context, string, string, []string, time.Time) error { return nil }
func (nopLedger) RecordSkip(context.Context, string, string, int64, string) error       { return nil }
func (nopLedger) RecordFile(context.Context, string, model.FileResult) error            { return nil }
func (nopLedger) FinishRun(context.Context, model.RunSummary, string) error             { return nil }

package pipeline

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"csv-import/internal/logger"
	"csv-import/internal/model"
	"csv-import/internal/sink"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// Coordinator runs one import over every input file in Config.InputDir.
type Coordinator struct {
	Config    *model.Config
	Dialer    sink.Dialer
	Log       logger.Logger
	Ledger    Ledger     // optional
	Admission *Admission // optional
	Out       io.Writer  // console status lines, optional

	outMu sync.Mutex
}

// ------------------- Run -------------------

// Run discovers the input files, imports them on a bounded pool of file
// workers and returns the totals. The only errors returned are a failed
// directory listing, which happens before any worker starts, and ctx being
// done, in which case the summary covers the files that were dispatched.
func (c *Coordinator) Run(ctx context.Context) (model.RunSummary, error) {
	start := time.Now()
	log := c.Log
	if log == nil {
		log = logger.NopLogger
	}
	ledger := c.Ledger
	if ledger == nil {
		ledger = nopLedger{}
	}
	summary := model.RunSummary{
		RunID:     uuid.New().String(),
		InputDir:  c.Config.InputDir,
		StartedAt: start,
	}

	files, err := DiscoverFiles(c.Config.InputDir)
	if err != nil {
		return summary, err
	}
	pool := c.Config.PoolSize(len(files))
	log.Infof("run %s: %d files found in %s, %d workers", summary.RunID, len(files), c.Config.InputDir, pool)
	c.printf("🚀 Importing %d files from %s with %d workers\n", len(files), c.Config.InputDir, pool)
	// Ledger writes outlive cancellation so an interrupted run is still
	// recorded in full.
	ledgerCtx := context.WithoutCancel(ctx)
	if err := ledger.StartRun(ledgerCtx, summary.RunID, c.Config.InputDir, files, start); err != nil {
		log.Warnf("run %s: recording start: %v", summary.RunID, err)
	}

	worker := &FileWorker{Dialer: c.Dialer, Log: log, Ledger: ledger, RunID: summary.RunID}
	stats := &model.AggregateStats{}
	results := make([]model.FileResult, len(files))
	dispatched := make([]bool, len(files))
	var active atomic.Int64

	var g errgroup.Group
	if pool > 0 {
		g.SetLimit(pool)
	}
	var runErr error
	for i, name := range files {
		if runErr = ctx.Err(); runErr != nil {
			break
		}
		if runErr = c.Admission.Wait(ctx, func() int { return int(active.Load()) }); runErr != nil {
			break
		}

		item := model.WorkItem{
			Name:   name,
			Path:   filepath.Join(c.Config.InputDir, name),
			Config: c.Config,
		}
		dispatched[i] = true
		active.Add(1)
		g.Go(func() error {
			defer active.Add(-1)
			r := worker.Run(ctx, item)
			stats.Add(r)
			results[i] = r
			if err := ledger.RecordFile(ledgerCtx, summary.RunID, r); err != nil {
				log.Warnf("run %s: recording result of %s: %v", summary.RunID, r.File, err)
			}
			m := r.Metrics()
			c.printf("📄 %s: %d lines, %d imported, %d skipped (%.0f rec/s)\n", m.File, m.LinesRead, m.Inserted, m.Skipped, m.RecordsPerSecond)
			return nil
		})
	}
	_ = g.Wait()
	if runErr == nil {
		runErr = ctx.Err()
	}

	for i, ok := range dispatched {
		if ok {
			summary.Results = append(summary.Results, results[i])
		}
	}
	summary.StatsSnapshot = stats.Snapshot()
	summary.FinishedAt = time.Now()
	summary.Elapsed = summary.FinishedAt.Sub(start)

	status := RunCompleted
	if runErr != nil {
		status = RunInterrupted
		log.Warnf("run %s: interrupted after dispatching %d of %d files: %v", summary.RunID, len(summary.Results), len(files), runErr)
	}
	if err := ledger.FinishRun(ledgerCtx, summary, status); err != nil {
		log.Warnf("run %s: recording finish: %v", summary.RunID, err)
	}
	log.Infof("run %s %s in %.2f seconds: %d lines read, %d documents inserted, %d skipped",
		summary.RunID, status, summary.Elapsed.Seconds(), summary.TotalLines, summary.TotalInserted, summary.TotalSkipped)
	c.printf("🏁 Run %s %s in %v\n", summary.RunID, status, summary.Elapsed)
	return summary, runErr
}

func (c *Coordinator) printf(format string, v ...interface{}) {
	if c.Out == nil {
		return
	}
	c.outMu.Lock()
	defer c.outMu.Unlock()
	fmt.Fprintf(c.Out, format, v...)
}

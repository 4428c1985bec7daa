package pipeline

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"csv-import/internal/logger"
	"csv-import/internal/model"
	"csv-import/internal/sink"

	"github.com/stretchr/testify/require"
)

const testHeader = `"CNPJ";"RAZAO";"FANTASIA";"TEL1";"TEL2";"TEL3";"EMAIL1";"EMAIL2";"MUNICIPIO"`

// testEnv is a scratch input directory with a mapping file and a config
// pointing at both.
type testEnv struct {
	t   *testing.T
	cfg *model.Config
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	root := t.TempDir()
	input := filepath.Join(root, "files_csv")
	require.NoError(t, os.Mkdir(input, 0755))
	mappingPath := filepath.Join(root, "field_mapping.json")
	require.NoError(t, os.WriteFile(mappingPath, []byte(testMappingJSON), 0644))
	return &testEnv{t: t, cfg: &model.Config{
		InputDir:      input,
		MappingFile:   mappingPath,
		MaxWorkers:    8,
		ProgressEvery: DefaultProgressEvery,
	}}
}

func (e *testEnv) writeFile(name, content string) string {
	e.t.Helper()
	path := filepath.Join(e.cfg.InputDir, name)
	require.NoError(e.t, os.WriteFile(path, []byte(content), 0644))
	return path
}

// writeRows writes an input file with a header and n generated rows.
func (e *testEnv) writeRows(name string, n int) {
	e.t.Helper()
	var b strings.Builder
	b.WriteString(testHeader + "\n")
	for i := 0; i < n; i++ {
		fmt.Fprintf(&b, `"%s-%d";"Company %d";"";"81 9%04d";" ";"-";"c%d@example.com";"";"Recife"`+"\n", name, i, i, i, i)
	}
	e.writeFile(name, b.String())
}

func (e *testEnv) item(name string) model.WorkItem {
	return model.WorkItem{Name: name, Path: filepath.Join(e.cfg.InputDir, name), Config: e.cfg}
}

// bufLogger returns a logger writing into a buffer that is safe to read
// after the workers are done.
func bufLogger() (logger.Logger, *bytes.Buffer) {
	var buf bytes.Buffer
	return logger.NewVerboseLogger(&buf), &buf
}

func countLevel(log, level string) int {
	return strings.Count(log, "] ["+level+"] ")
}

// recordingLedger keeps everything in memory. Like a database/sql ledger it
// refuses writes under a done context.
type recordingLedger struct {
	mu       sync.Mutex
	started  []string
	skips    []string
	files    []model.FileResult
	finished []string
}

func (l *recordingLedger) StartRun(ctx context.Context, runID, _ string, _ []string, _ time.Time) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.started = append(l.started, runID)
	return nil
}

func (l *recordingLedger) RecordSkip(ctx context.Context, _, file string, line int64, reason string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.skips = append(l.skips, fmt.Sprintf("%s:%d", file, line))
	return nil
}

func (l *recordingLedger) RecordFile(ctx context.Context, _ string, r model.FileResult) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.files = append(l.files, r)
	return nil
}

func (l *recordingLedger) FinishRun(ctx context.Context, _ model.RunSummary, status string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.finished = append(l.finished, status)
	return nil
}

// peakDialer wraps a Memory and tracks how many sinks are open at once.
type peakDialer struct {
	mem  *sink.Memory
	open atomic.Int64
	peak atomic.Int64
	// hold keeps each sink open a little so that overlapping workers are
	// observable.
	hold time.Duration
}

func (d *peakDialer) Dial(ctx context.Context, cfg *model.Config) (sink.Sink, error) {
	s, err := d.mem.Dial(ctx, cfg)
	if err != nil {
		return nil, err
	}
	n := d.open.Add(1)
	for {
		p := d.peak.Load()
		if n <= p || d.peak.CompareAndSwap(p, n) {
			break
		}
	}
	time.Sleep(d.hold)
	return &peakSink{Sink: s, d: d}, nil
}

type peakSink struct {
	sink.Sink
	d *peakDialer
}

func (s *peakSink) Close(ctx context.Context) error {
	s.d.open.Add(-1)
	return s.Sink.Close(ctx)
}

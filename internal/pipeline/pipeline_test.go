package pipeline

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"csv-import/internal/model"
	"csv-import/internal/sink"
	"csv-import/internal/sysinfo"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsInputFile(t *testing.T) {
	for name, want := range map[string]bool{
		"pagina_0001.csv":  true,
		"pagina_9999.csv":  true,
		"pagina_001.csv":   false,
		"pagina_00001.csv": false,
		"pagina_00a1.csv":  false,
		"pagina_0001.CSV":  false,
		"pagina_0001.csvx": false,
		"Pagina_0001.csv":  false,
		"xpagina_0001.csv": false,
		"":                 false,
	} {
		assert.Equal(t, want, IsInputFile(name), name)
	}
}

func TestDiscoverFiles(t *testing.T) {
	env := newTestEnv(t)
	for _, name := range []string{"pagina_0010.csv", "pagina_0002.csv", "readme.txt", "pagina_2.csv", "pagina_0001.csv"} {
		env.writeFile(name, testHeader+"\n")
	}
	require.NoError(t, os.Mkdir(filepath.Join(env.cfg.InputDir, "pagina_0000.csv"), 0755))

	files, err := DiscoverFiles(env.cfg.InputDir)
	require.NoError(t, err)
	assert.Equal(t, []string{"pagina_0001.csv", "pagina_0002.csv", "pagina_0010.csv"}, files)

	_, err = DiscoverFiles(filepath.Join(env.cfg.InputDir, "missing"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestCoordinatorAggregatesConcurrentWorkers(t *testing.T) {
	env := newTestEnv(t)
	env.cfg.MaxWorkers = 0
	want := int64(0)
	for i := 1; i <= 12; i++ {
		n := i * 37
		env.writeRows(fmt.Sprintf("pagina_%04d.csv", i), n)
		want += int64(n)
	}
	env.writeFile("pagina_0013.csv", "")              // empty: fatal to file only
	env.writeFile("pagina_0014.csv", testHeader+"\n") // header only

	mem := sink.NewMemory()
	ledger := &recordingLedger{}
	var out bytes.Buffer
	c := &Coordinator{Config: env.cfg, Dialer: mem, Ledger: ledger, Out: &out}

	summary, err := c.Run(context.Background())
	require.NoError(t, err)
	assert.NotEmpty(t, summary.RunID)
	assert.Equal(t, 14, summary.Files)
	assert.Equal(t, 1, summary.FailedFiles)
	assert.Equal(t, want, summary.TotalInserted)
	assert.Equal(t, want, summary.TotalLines)
	assert.Zero(t, summary.TotalSkipped)
	assert.Equal(t, int(want), mem.Len())

	var sum int64
	require.Len(t, summary.Results, 14)
	for i, r := range summary.Results {
		assert.Equal(t, fmt.Sprintf("pagina_%04d.csv", i+1), r.File)
		sum += r.Inserted
	}
	assert.Equal(t, summary.TotalInserted, sum)

	assert.Equal(t, []string{summary.RunID}, ledger.started)
	assert.Len(t, ledger.files, 14)
	assert.Equal(t, []string{RunCompleted}, ledger.finished)
	assert.Contains(t, out.String(), "🏁 Run "+summary.RunID+" completed")
	assert.Contains(t, out.String(), "📄 pagina_0001.csv: 37 lines, 37 imported, 0 skipped (")
	assert.Contains(t, out.String(), " rec/s)\n")
}

func TestCoordinatorIsNotIdempotent(t *testing.T) {
	env := newTestEnv(t)
	env.writeRows("pagina_0001.csv", 20)
	env.writeRows("pagina_0002.csv", 30)

	mem := sink.NewMemory()
	c := &Coordinator{Config: env.cfg, Dialer: mem}

	first, err := c.Run(context.Background())
	require.NoError(t, err)
	second, err := c.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, int64(50), first.TotalInserted)
	assert.Equal(t, int64(50), second.TotalInserted)
	assert.NotEqual(t, first.RunID, second.RunID)
	assert.Equal(t, 100, mem.Len(), "inserts are not upserts: a second run doubles the documents")
}

func TestCoordinatorBoundsWorkers(t *testing.T) {
	env := newTestEnv(t)
	env.cfg.MaxWorkers = 2
	for i := 1; i <= 6; i++ {
		env.writeRows(fmt.Sprintf("pagina_%04d.csv", i), 3)
	}

	d := &peakDialer{mem: sink.NewMemory(), hold: 20 * time.Millisecond}
	summary, err := (&Coordinator{Config: env.cfg, Dialer: d}).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(18), summary.TotalInserted)
	assert.LessOrEqual(t, d.peak.Load(), int64(2))
	assert.Zero(t, d.open.Load())
}

func TestCoordinatorMemoryGateSerializesDispatch(t *testing.T) {
	env := newTestEnv(t)
	for i := 1; i <= 4; i++ {
		env.writeRows(fmt.Sprintf("pagina_%04d.csv", i), 2)
	}

	d := &peakDialer{mem: sink.NewMemory(), hold: 5 * time.Millisecond}
	c := &Coordinator{
		Config: env.cfg,
		Dialer: d,
		Admission: &Admission{
			LimitPercent: 70,
			Interval:     time.Millisecond,
			Probe:        sysinfo.Fixed(95),
		},
	}
	summary, err := c.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(8), summary.TotalInserted)
	assert.Equal(t, int64(1), d.peak.Load())
}

func TestCoordinatorMissingInputDir(t *testing.T) {
	env := newTestEnv(t)
	env.cfg.InputDir = filepath.Join(env.cfg.InputDir, "nope")
	mem := sink.NewMemory()
	ledger := &recordingLedger{}

	_, err := (&Coordinator{Config: env.cfg, Dialer: mem, Ledger: ledger}).Run(context.Background())
	assert.ErrorIs(t, err, os.ErrNotExist)
	assert.Empty(t, ledger.started)
	assert.Zero(t, mem.Len())
}

func TestCoordinatorNoFiles(t *testing.T) {
	env := newTestEnv(t)
	summary, err := (&Coordinator{Config: env.cfg, Dialer: sink.NewMemory()}).Run(context.Background())
	require.NoError(t, err)
	assert.Zero(t, summary.Files)
	assert.Empty(t, summary.Results)
}

func TestCoordinatorCancelled(t *testing.T) {
	env := newTestEnv(t)
	env.writeRows("pagina_0001.csv", 2)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	ledger := &recordingLedger{}

	summary, err := (&Coordinator{Config: env.cfg, Dialer: sink.NewMemory(), Ledger: ledger}).Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, summary.Results)
	assert.Equal(t, []string{RunInterrupted}, ledger.finished)
	assert.Equal(t, []string{summary.RunID}, ledger.started)
}

func TestCoordinatorCancelledMidRunRecordsLedger(t *testing.T) {
	env := newTestEnv(t)
	env.writeRows("pagina_0001.csv", 5)
	env.writeRows("pagina_0002.csv", 5)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	mem := sink.NewMemory()
	mem.Reject = func(doc model.Document) error {
		if v, _ := doc.Get("cnpj"); v == "pagina_0001.csv-0" {
			cancel()
			return errors.New("E11000 duplicate key")
		}
		return nil
	}
	ledger := &recordingLedger{}
	env.cfg.MaxWorkers = 1

	summary, err := (&Coordinator{Config: env.cfg, Dialer: mem, Ledger: ledger}).Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	require.NotEmpty(t, summary.Results)
	assert.Equal(t, []string{"pagina_0001.csv:1"}, ledger.skips)
	require.Len(t, ledger.files, len(summary.Results))
	assert.Equal(t, "pagina_0001.csv", ledger.files[0].File)
	assert.Equal(t, []string{summary.RunID}, ledger.started)
	assert.Equal(t, []string{RunInterrupted}, ledger.finished)
}

func TestAdmissionWait(t *testing.T) {
	busy := func() int { return 1 }
	idle := func() int { return 0 }
	ctx := context.Background()

	var nilGate *Admission
	assert.NoError(t, nilGate.Wait(ctx, busy))
	assert.NoError(t, (&Admission{LimitPercent: 0, Probe: sysinfo.Fixed(99)}).Wait(ctx, busy))
	assert.NoError(t, (&Admission{LimitPercent: 70, Probe: sysinfo.Fixed(50)}).Wait(ctx, busy))
	assert.NoError(t, (&Admission{LimitPercent: 70, Probe: sysinfo.Fixed(99)}).Wait(ctx, idle))

	cctx, cancel := context.WithTimeout(ctx, 20*time.Millisecond)
	defer cancel()
	err := (&Admission{LimitPercent: 70, Interval: time.Millisecond, Probe: sysinfo.Fixed(70)}).Wait(cctx, busy)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

package pipeline

import (
	"bufio"
	"context"
	"io"
	"os"
	"time"

	"csv-import/internal/logger"
	"csv-import/internal/model"
	"csv-import/internal/sink"

	"github.com/pkg/errors"
)

// DefaultProgressEvery is how many inserts pass between progress lines when
// the config does not say.
const DefaultProgressEvery = 1000

// ErrEmptyFile is reported for a file without even a header line.
var ErrEmptyFile = errors.New("empty file")

// FileWorker imports one file at a time. Each call to Run dials its own sink
// and loads its own mapping, so one FileWorker value may serve many
// goroutines.
type FileWorker struct {
	Dialer sink.Dialer
	Log    logger.Logger
	Ledger Ledger
	RunID  string
}

// Run drives item through Init, HeaderRead and RowLoop to Closed. Failures
// are reported in the result, never returned.
func (w *FileWorker) Run(ctx context.Context, item model.WorkItem) (res model.FileResult) {
	start := time.Now()
	log := w.Log
	if log == nil {
		log = logger.NopLogger
	}
	ledger := w.Ledger
	if ledger == nil {
		ledger = nopLedger{}
	}
	cfg := item.Config
	res.File = item.Name

	state := model.StateInit
	defer func() {
		res.LastState = state
		res.Stage = state.String()
		res.Elapsed = time.Since(start)
		if res.Err != nil {
			res.Error = res.Err.Error()
		}
		log.Debugf("file %s: %s -> %s", item.Name, state, model.StateClosed)
	}()

	// Init
	out, err := w.Dialer.Dial(ctx, cfg)
	if err != nil {
		res.Err = errors.Wrap(err, "dialing sink")
		log.Errorf("file %s: cannot connect to sink: %v", item.Name, err)
		return res
	}
	defer func() {
		if err := out.Close(context.WithoutCancel(ctx)); err != nil {
			log.Warnf("file %s: closing sink: %v", item.Name, err)
		}
	}()

	f, err := os.Open(item.Path)
	if err != nil {
		res.Err = errors.Wrapf(err, "opening %s", item.Path)
		log.Errorf("file %s: cannot open: %v", item.Name, err)
		return res
	}
	defer f.Close()

	mapping, err := LoadMapping(cfg.MappingFile)
	if err != nil {
		res.Err = err
		log.Errorf("file %s: cannot load field mapping: %v", item.Name, err)
		return res
	}

	// HeaderRead
	state = model.StateHeaderRead
	r := bufio.NewReader(f)
	if _, err := readLine(r); err == io.EOF {
		res.Err = ErrEmptyFile
		log.Warnf("file %s: empty file, skipping", item.Name)
		return res
	} else if err != nil {
		res.Err = errors.Wrapf(err, "reading header of %s", item.Name)
		log.Errorf("file %s: cannot read header: %v", item.Name, err)
		return res
	}

	line, err := readLine(r)
	if err == io.EOF {
		log.Infof("file %s: header only, nothing to import", item.Name)
		return res
	}

	// RowLoop
	state = model.StateRowLoop
	every := int64(cfg.ProgressEvery)
	if every <= 0 {
		every = DefaultProgressEvery
	}
	for ordinal := int64(1); ; ordinal++ {
		if err != nil {
			if err != io.EOF {
				res.Err = errors.Wrapf(err, "reading %s after line %d", item.Name, ordinal-1)
				log.Errorf("file %s: read error after line %d: %v", item.Name, ordinal-1, err)
			}
			break
		}
		if ctx.Err() != nil {
			res.Err = ctx.Err()
			log.Warnf("file %s: stopped at line %d: %v", item.Name, ordinal, ctx.Err())
			break
		}

		res.LinesRead++
		if rerr := w.importRow(ctx, out, mapping, line, ordinal); rerr != nil {
			res.Skipped++
			log.Errorf("file %s: line %d skipped: %v", item.Name, ordinal, rerr)
			if lerr := ledger.RecordSkip(context.WithoutCancel(ctx), w.RunID, item.Name, ordinal, rerr.Error()); lerr != nil {
				log.Warnf("file %s: recording skipped line %d: %v", item.Name, ordinal, lerr)
			}
		} else {
			res.Inserted++
			if res.Inserted%every == 0 {
				log.Infof("file %s: %d records imported", item.Name, res.Inserted)
			}
		}

		line, err = readLine(r)
	}

	log.Infof("file %s done: %d lines read, %d records imported, %d skipped",
		item.Name, res.LinesRead, res.Inserted, res.Skipped)
	return res
}

// importRow tokenizes, transforms and inserts a single line.
func (w *FileWorker) importRow(ctx context.Context, out sink.Sink, m *model.FieldMapping, line string, ordinal int64) error {
	row, err := Split(line, Delimiter)
	if err != nil {
		return errors.Wrapf(err, "line %d", ordinal)
	}
	doc, err := Transform(row, m, ordinal)
	if err != nil {
		return err
	}
	if err := out.InsertOne(ctx, doc); err != nil {
		return errors.Wrapf(err, "line %d", ordinal)
	}
	return nil
}

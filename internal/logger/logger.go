// Package logger provides the leveled, timestamped, append-only log used by
// the importer.
package logger

import (
	"fmt"
	"io"
	"sync"
	"time"
)

// TimestampFormat is the layout of the timestamp written at the start of each
// line.
const TimestampFormat = "2006-01-02 15:04:05"

// Ensure nopLogger implements interface.
var _ Logger = &nopLogger{}

// Logger represents an interface for a shared logger.
type Logger interface {
	Printf(format string, v ...interface{}) // same as Infof
	Debugf(format string, v ...interface{})
	Infof(format string, v ...interface{})
	Warnf(format string, v ...interface{})
	Errorf(format string, v ...interface{})
	// WithPrefix returns a Logger writing to the same destination with
	// prefix prepended to every message.
	WithPrefix(prefix string) Logger
}

const (
	LevelError = iota
	LevelWarn
	LevelInfo
	LevelDebug
)

// LevelName returns the label written for level.
func LevelName(level int) string {
	return [...]string{"ERROR", "WARNING", "INFO", "DEBUG"}[level]
}

// NopLogger represents a Logger that doesn't do anything.
var NopLogger Logger = &nopLogger{}

type nopLogger struct{}

func (n *nopLogger) Printf(format string, v ...interface{}) {}
func (n *nopLogger) Debugf(format string, v ...interface{}) {}
func (n *nopLogger) Infof(format string, v ...interface{})  {}
func (n *nopLogger) Warnf(format string, v ...interface{})  {}
func (n *nopLogger) Errorf(format string, v ...interface{}) {}

func (n *nopLogger) WithPrefix(prefix string) Logger {
	return n
}

// sink serializes whole lines onto w.
type sink struct {
	mu  sync.Mutex
	w   io.Writer
	now func() time.Time
}

func (s *sink) writeLine(level int, prefix, msg string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fmt.Fprintf(s.w, "[%s] [%s] %s%s\n", s.now().Format(TimestampFormat), LevelName(level), prefix, msg)
}

// standardLogger is the Logger implementation backed by an io.Writer.
type standardLogger struct {
	out       *sink
	verbosity int
	prefix    string
}

func newStandardLogger(w io.Writer, verbosity int) *standardLogger {
	return &standardLogger{
		out:       &sink{w: w, now: time.Now},
		verbosity: verbosity,
	}
}

// NewStandardLogger returns a Logger writing INFO and above to w.
func NewStandardLogger(w io.Writer) Logger {
	return newStandardLogger(w, LevelInfo)
}

// NewVerboseLogger returns a Logger writing every level to w.
func NewVerboseLogger(w io.Writer) Logger {
	return newStandardLogger(w, LevelDebug)
}

func (s *standardLogger) printf(level int, format string, v ...interface{}) {
	if level > s.verbosity {
		return
	}
	s.out.writeLine(level, s.prefix, fmt.Sprintf(format, v...))
}

func (s *standardLogger) Printf(format string, v ...interface{}) {
	s.printf(LevelInfo, format, v...)
}

func (s *standardLogger) Debugf(format string, v ...interface{}) {
	s.printf(LevelDebug, format, v...)
}

func (s *standardLogger) Infof(format string, v ...interface{}) {
	s.printf(LevelInfo, format, v...)
}

func (s *standardLogger) Warnf(format string, v ...interface{}) {
	s.printf(LevelWarn, format, v...)
}

func (s *standardLogger) Errorf(format string, v ...interface{}) {
	s.printf(LevelError, format, v...)
}

func (s *standardLogger) WithPrefix(prefix string) Logger {
	return &standardLogger{
		out:       s.out,
		verbosity: s.verbosity,
		prefix:    s.prefix + prefix,
	}
}

// FileLogger is a Logger that owns the file it appends to.
type FileLogger struct {
	Logger
	w *FileWriter
}

// Open opens (creating if needed) the log file at path in append mode and
// returns a Logger writing to it. Close must be called when the run ends.
func Open(path string, verbose bool) (*FileLogger, error) {
	w, err := NewFileWriter(path)
	if err != nil {
		return nil, err
	}
	verbosity := LevelInfo
	if verbose {
		verbosity = LevelDebug
	}
	return &FileLogger{Logger: newStandardLogger(w, verbosity), w: w}, nil
}

// Close closes the underlying file.
func (l *FileLogger) Close() error {
	return l.w.Close()
}

// Reopen reopens the log file by name, picking up a file moved away by log
// rotation.
func (l *FileLogger) Reopen() error {
	return l.w.Reopen()
}

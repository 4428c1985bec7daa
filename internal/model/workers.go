package model

import "time"

//go:generate stringer -type=WorkerState -trimprefix=State

// WorkerState is the lifecycle state of a file worker.
type WorkerState int

const (
	StateInit WorkerState = iota
	StateHeaderRead
	StateRowLoop
	StateClosed
)

// WorkItem is the unit handed to a file worker.
type WorkItem struct {
	Name   string  // base name, e.g. pagina_0001.csv
	Path   string  // full path on disk
	Config *Config // shared, read-only
}

// FileResult is what a worker publishes on its transition to StateClosed.
// LastState is the state the worker left for StateClosed: StateInit for a
// setup failure, StateHeaderRead for an empty or header-only file and
// StateRowLoop when rows were read.
type FileResult struct {
	File      string        `json:"file"`
	LastState WorkerState   `json:"-"`
	Stage     string        `json:"stage"`
	LinesRead int64         `json:"lines_read"`
	Inserted  int64         `json:"inserted"`
	Skipped   int64         `json:"skipped"`
	Err       error         `json:"-"`
	Error     string        `json:"error,omitempty"`
	Elapsed   time.Duration `json:"elapsed"`
}

// Failed reports whether the file was abandoned before its row loop finished
// normally.
func (r FileResult) Failed() bool {
	return r.Err != nil
}

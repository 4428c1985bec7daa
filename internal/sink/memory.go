package sink

import (
	"context"
	"sync"

	"csv-import/internal/model"

	"github.com/pkg/errors"
)

// ErrClosed is returned by a memory sink after Close.
var ErrClosed = errors.New("sink closed")

// Memory is an in-process document store. A single Memory can hand out any
// number of sinks through Dial; all of them append to the same collection.
// It backs dry runs and tests.
type Memory struct {
	mu     sync.Mutex
	docs   []model.Document
	dials  int
	closes int

	// Reject, when set, is consulted before each insert; a non-nil result
	// fails the insert.
	Reject func(doc model.Document) error
	// DialErr, when set, fails every Dial.
	DialErr error
}

// NewMemory returns an empty Memory.
func NewMemory() *Memory {
	return &Memory{}
}

// Dial implements Dialer.
func (m *Memory) Dial(ctx context.Context, cfg *model.Config) (Sink, error) {
	if m.DialErr != nil {
		return nil, m.DialErr
	}
	m.mu.Lock()
	m.dials++
	m.mu.Unlock()
	return &memorySink{m: m}, nil
}

// Documents returns a copy of everything inserted so far.
func (m *Memory) Documents() []model.Document {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]model.Document(nil), m.docs...)
}

// Len returns the number of inserted documents.
func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.docs)
}

// Open returns the number of sinks dialed and not yet closed.
func (m *Memory) Open() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.dials - m.closes
}

type memorySink struct {
	m      *Memory
	closed bool
}

func (s *memorySink) InsertOne(ctx context.Context, doc model.Document) error {
	if s.closed {
		return ErrClosed
	}
	if s.m.Reject != nil {
		if err := s.m.Reject(doc); err != nil {
			return err
		}
	}
	s.m.mu.Lock()
	s.m.docs = append(s.m.docs, doc)
	s.m.mu.Unlock()
	return nil
}

func (s *memorySink) Close(ctx context.Context) error {
	if s.closed {
		return nil
	}
	s.closed = true
	s.m.mu.Lock()
	s.m.closes++
	s.m.mu.Unlock()
	return nil
}

// Package sink defines the document destination used by file workers and its
// MongoDB and in-memory implementations.
package sink

import (
	"context"

	"csv-import/internal/model"
)

// Sink receives documents for one worker. Implementations are not required to
// be safe for concurrent use; every worker dials its own.
type Sink interface {
	InsertOne(ctx context.Context, doc model.Document) error
	Close(ctx context.Context) error
}

// Dialer opens a Sink for cfg.
type Dialer interface {
	Dial(ctx context.Context, cfg *model.Config) (Sink, error)
}

// DialerFunc adapts a function to Dialer.
type DialerFunc func(ctx context.Context, cfg *model.Config) (Sink, error)

// Dial calls f.
func (f DialerFunc) Dial(ctx context.Context, cfg *model.Config) (Sink, error) {
	return f(ctx, cfg)
}

// Package history persists the append-only RunRecord sequence. The store is a
// single-writer resource: concurrent appends from separate processes race and
// the last full write wins. That is an accepted limitation of the batch-job
// model, not something the store papers over.
package history

import (
	"context"

	"pdswatch/internal/probe"
)

type Store interface {
	// Load returns the persisted records in append order. A missing or
	// unparsable backing store yields an empty history, never an error.
	Load(ctx context.Context) ([]probe.RunRecord, error)
	// Append adds one record to the end of the history. Write failures
	// surface as a *StorageError and must not be swallowed.
	Append(ctx context.Context, record probe.RunRecord) error
}

// StorageError wraps a failure to persist the history. Losing a monitoring
// data point silently is worse than failing the run, so callers let it
// propagate.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return "history: " + e.Op + ": " + e.Err.Error()
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

package ingest

import (
	"context"
	"errors"
	"time"
)

// ErrTaskDone is returned by a task (or its Apply) when it should not run again.
// The orchestrator deregisters the task instead of rescheduling it
var ErrTaskDone = errors.New("task done")

// Apply commits a fetched result to the application state.
// It runs on the orchestrator loop, and only if the task is still registered
type Apply func(ctx context.Context) error

// Task is a single recurring background job
type Task interface {
	// Name returns the human-readable name of the task
	Name() string

	// Interval returns the delay between successful runs
	Interval() time.Duration

	// Backoff returns the fixed delay before retrying a failed fetch
	Backoff() time.Duration

	// Fetch is the task's main job. It does the (slow) I/O,
	// and returns the Apply that commits the result
	Fetch(context.Context) (Apply, error)
}

package ingest

import (
	"context"
	"time"

	"github.com/rs/xid"
)

// scheduledRun is a single scheduled task run
type scheduledRun struct {
	at     time.Time
	taskID xid.ID
}

// Less is utilized to sort scheduled runs by their due-time (earliest == first)
func (a scheduledRun) Less(b scheduledRun) bool {
	return a.at.Before(b.at)
}

// workerInfo is the work context for the task routine
type workerInfo struct {
	task   Task
	resCh  chan<- *workerResponse
	taskID xid.ID
}

// workerResponse is the task routine response
type workerResponse struct {
	error  error  // encountered error, if any
	apply  Apply  // the fetched result, if any
	taskID xid.ID // the task ID
}

// handleJob runs the task's fetch
func handleJob(
	ctx context.Context,
	info *workerInfo,
) {
	apply, err := info.task.Fetch(ctx)

	response := &workerResponse{
		error:  err,
		apply:  apply,
		taskID: info.taskID,
	}

	select {
	case <-ctx.Done():
	case info.resCh <- response:
	}
}

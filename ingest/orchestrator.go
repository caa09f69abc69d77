package ingest

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/rs/xid"
	"github.com/sig-0/iq"
)

var (
	errInvalidTask     = errors.New("invalid task")
	errInvalidInterval = errors.New("invalid interval")
)

// registration is a registered task, and the cancel func of its in-flight run
type registration struct {
	task Task

	cancelFn context.CancelFunc
	mux      sync.Mutex
	retired  bool
}

// setCancel stores the cancel func of the current run.
// It returns false if the registration was retired in the meantime
func (r *registration) setCancel(cancelFn context.CancelFunc) bool {
	r.mux.Lock()
	defer r.mux.Unlock()

	if r.retired {
		return false
	}

	r.cancelFn = cancelFn

	return true
}

// cancel releases the current run's context, if any
func (r *registration) cancel() {
	r.mux.Lock()
	defer r.mux.Unlock()

	r.cancelLocked()
}

func (r *registration) cancelLocked() {
	if r.cancelFn != nil {
		r.cancelFn()
		r.cancelFn = nil
	}
}

// retire aborts the current run, and blocks any later commit
func (r *registration) retire() {
	r.mux.Lock()
	defer r.mux.Unlock()

	r.retired = true
	r.cancelLocked()
}

// commit runs the apply, unless the registration was retired.
// Holding the lock keeps Deregister from returning mid-apply
func (r *registration) commit(ctx context.Context, apply Apply) (bool, error) {
	r.mux.Lock()
	defer r.mux.Unlock()

	if r.retired {
		return false, nil
	}

	return true, apply(ctx)
}

// Orchestrator is the main job scheduler for registered tasks.
// Tasks run on a fixed interval, and failed fetches are retried after the task's fixed backoff
type Orchestrator struct {
	logger *slog.Logger

	registeredTasks sync.Map // xid.ID -> *registration

	q             iq.Queue[scheduledRun]
	queryInterval time.Duration
	applyTimeout  time.Duration
	qMux          sync.Mutex
}

// New creates a new Orchestrator instance
func New(opts ...Option) *Orchestrator {
	o := &Orchestrator{
		logger:        slog.New(slog.NewTextHandler(io.Discard, nil)),
		q:             iq.NewQueue[scheduledRun](),
		queryInterval: time.Second,      // every second
		applyTimeout:  time.Second * 10, // per result
	}

	// Apply the options
	for _, opt := range opts {
		opt(o)
	}

	return o
}

// Register registers a new task with the orchestrator.
// The task is immediately queued up for execution
func (o *Orchestrator) Register(t Task) (xid.ID, error) {
	if t == nil || t.Name() == "" {
		return xid.NilID(), errInvalidTask
	}

	if t.Interval() <= 0 || t.Backoff() <= 0 {
		return xid.NilID(), errInvalidInterval
	}

	// Register the task
	id := xid.New()
	o.registeredTasks.Store(id, &registration{task: t})

	o.logger.Info(
		"registered new task",
		"name", t.Name(),
		"id", id.String(),
	)

	// Schedule the job
	o.scheduleRun(time.Now().UTC(), id)

	return id, nil
}

// Deregister removes the task, and cancels its in-flight run.
// A result that arrives after this call is discarded
func (o *Orchestrator) Deregister(id xid.ID) {
	raw, ok := o.registeredTasks.LoadAndDelete(id)
	if !ok {
		return
	}

	reg, _ := raw.(*registration)
	reg.retire()

	o.logger.Info(
		"deregistered task",
		"name", reg.task.Name(),
		"id", id.String(),
	)
}

// Registered returns true if the task is still registered
func (o *Orchestrator) Registered(id xid.ID) bool {
	_, ok := o.registeredTasks.Load(id)

	return ok
}

// Start starts the task orchestration service loop [BLOCKING]
func (o *Orchestrator) Start(ctx context.Context) error {
	collectorCh := make(chan *workerResponse, 100)

	// Start a listener for monitoring jobs
	ticker := time.NewTicker(o.queryInterval)
	defer ticker.Stop()

	// handleRuns spawns all runs that are executable (due)
	handleRuns := func() {
		for {
			select {
			case <-ctx.Done():
				return
			default:
				next := o.nextRun()
				if next == nil {
					return // nothing to schedule anymore
				}

				rawReg, ok := o.registeredTasks.Load(next.taskID)
				if !ok {
					// Task was deregistered while waiting in the queue
					continue
				}

				reg, _ := rawReg.(*registration)

				o.logger.Debug(
					"running task",
					"name", reg.task.Name(),
				)

				jobCtx, cancelFn := context.WithCancel(ctx)
				if !reg.setCancel(cancelFn) {
					cancelFn()

					continue
				}

				// Spawn worker
				info := &workerInfo{
					task:   reg.task,
					taskID: next.taskID,
					resCh:  collectorCh,
				}

				go handleJob(jobCtx, info)
			}
		}
	}

	// Initialize the first set of due jobs (on boot)
	handleRuns()

	for {
		select {
		case <-ctx.Done():
			o.logger.Info("orchestrator service shut down")

			return nil
		case <-ticker.C:
			handleRuns()
		case response := <-collectorCh:
			o.handleResponse(ctx, response)
		}
	}
}

// handleResponse applies a finished run and reschedules its task
func (o *Orchestrator) handleResponse(ctx context.Context, response *workerResponse) {
	now := time.Now().UTC()

	rawReg, ok := o.registeredTasks.Load(response.taskID)
	if !ok {
		o.logger.Debug(
			"discarding result of deregistered task",
			"id", response.taskID.String(),
		)

		return
	}

	reg, _ := rawReg.(*registration)

	// Release the finished run's context
	reg.cancel()

	t := reg.task

	err := response.error
	if err == nil && response.apply != nil {
		applyCtx, cancelFn := context.WithTimeout(ctx, o.applyTimeout)

		var committed bool

		committed, err = reg.commit(applyCtx, response.apply)

		cancelFn()

		if !committed {
			return
		}
	}

	switch {
	case errors.Is(err, ErrTaskDone):
		o.registeredTasks.Delete(response.taskID)
		reg.retire()

		o.logger.Info(
			"task done",
			"name", t.Name(),
			"id", response.taskID.String(),
		)
	case response.error != nil:
		o.logger.Error(
			"error encountered during task fetch",
			"name", t.Name(),
			"err", err,
		)

		// Retry the task after its fixed backoff
		o.scheduleRun(now.Add(t.Backoff()), response.taskID)
	case err != nil:
		o.logger.Error(
			"unable to apply task result",
			"name", t.Name(),
			"err", err,
		)

		o.scheduleRun(now.Add(t.Interval()), response.taskID)
	default:
		// Schedule the next run for this task
		o.scheduleRun(now.Add(t.Interval()), response.taskID)
	}
}

// scheduleRun schedules a new task run
func (o *Orchestrator) scheduleRun(at time.Time, taskID xid.ID) {
	o.qMux.Lock()
	defer o.qMux.Unlock()

	o.q.Push(scheduledRun{
		at:     at,
		taskID: taskID,
	})
}

// nextRun fetches the next due run, as of the moment of calling
func (o *Orchestrator) nextRun() *scheduledRun {
	o.qMux.Lock()
	defer o.qMux.Unlock()

	now := time.Now().UTC()

	// Check if anything needs to be scheduled
	if o.q.Len() == 0 {
		return nil // nothing to schedule, all jobs are running
	}

	// Check if the top element is due
	if o.q.Index(0).at.After(now) {
		return nil // nothing to schedule, earliest job is in the future
	}

	// Grab the next job
	return o.q.PopFront()
}

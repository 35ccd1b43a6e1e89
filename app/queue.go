package app

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/tiaanhavenga/DriveCatalogue/models"
)

// JobRunner executes one job's traversal. It must honor ctx at entry
// granularity, call report for every non-fatal scan error, and return the
// summary of a scan that ran to completion. A context error means the job
// was cancelled; any other error fails it.
type JobRunner func(ctx context.Context, root string, opts models.ScanOptions, report func(models.ScanError)) (*models.ScanSummary, error)

// Queue serializes scans: jobs run strictly one at a time, oldest first.
// A pending job absorbs later enqueues for the same root instead of
// queueing a duplicate. Finished jobs stay visible until cleared so the
// history can be inspected.
type Queue struct {
	mu      sync.Mutex
	pending []*models.ScanJob
	jobs    map[string]*models.ScanJob
	order   []string
	running string
	runCtx  context.Context
	cancel  context.CancelFunc
	closed  bool

	wake    chan struct{}
	done    chan struct{}
	stopped chan struct{}

	runner   JobRunner
	afterJob func(*models.ScanJob)
	log      *zap.SugaredLogger
}

// NewQueue starts the worker goroutine. afterJob, when not nil, is called
// with a copy of every job that reached a terminal state.
func NewQueue(runner JobRunner, afterJob func(*models.ScanJob), log *zap.SugaredLogger) *Queue {
	q := &Queue{
		jobs:     make(map[string]*models.ScanJob),
		wake:     make(chan struct{}, 1),
		done:     make(chan struct{}),
		stopped:  make(chan struct{}),
		runner:   runner,
		afterJob: afterJob,
		log:      log,
	}
	go q.worker()
	return q
}

// Enqueue appends a pending job for the root. When a pending job for the
// same root already exists, its options are updated in place and it keeps
// its queue position; the updated job is returned.
func (q *Queue) Enqueue(root string, opts models.ScanOptions) (*models.ScanJob, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return nil, ErrQueueClosed
	}

	for _, job := range q.pending {
		if job.Root == root && job.Status == models.JobPending {
			job.Options = opts
			q.log.Debugw("scan coalesced", "job", job.ID, "root", root)
			return job.Clone(), nil
		}
	}

	job := &models.ScanJob{
		ID:         uuid.NewString(),
		Root:       root,
		Options:    opts,
		Status:     models.JobPending,
		EnqueuedAt: time.Now(),
	}
	q.pending = append(q.pending, job)
	q.jobs[job.ID] = job
	q.order = append(q.order, job.ID)

	select {
	case q.wake <- struct{}{}:
	default:
	}
	return job.Clone(), nil
}

// Cancel requests cancellation. A pending job flips to cancelled without
// running; the running job's context is cancelled and the worker stops at
// the entry it is on. Cancelling a terminal job is a no-op.
func (q *Queue) Cancel(id string) error {
	q.mu.Lock()
	job, ok := q.jobs[id]
	if !ok {
		q.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrNoJob, id)
	}

	var done *models.ScanJob
	switch job.Status {
	case models.JobPending:
		job.Status = models.JobCancelled
		job.FinishedAt = time.Now()
		done = job.Clone()
	case models.JobRunning:
		if q.cancel != nil {
			q.cancel()
		}
	}
	q.mu.Unlock()

	if done != nil && q.afterJob != nil {
		q.afterJob(done)
	}
	return nil
}

// CancelRoot cancels every live job for the root.
func (q *Queue) CancelRoot(root string) {
	q.mu.Lock()
	var flipped []*models.ScanJob
	for _, job := range q.jobs {
		if job.Root != root {
			continue
		}
		switch job.Status {
		case models.JobPending:
			job.Status = models.JobCancelled
			job.FinishedAt = time.Now()
			flipped = append(flipped, job.Clone())
		case models.JobRunning:
			if q.cancel != nil {
				q.cancel()
			}
		}
	}
	q.mu.Unlock()

	if q.afterJob != nil {
		for _, job := range flipped {
			q.afterJob(job)
		}
	}
}

func (q *Queue) Job(id string) (*models.ScanJob, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	job, ok := q.jobs[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNoJob, id)
	}
	return job.Clone(), nil
}

// Jobs returns copies of every retained job, oldest first.
func (q *Queue) Jobs() []*models.ScanJob {
	q.mu.Lock()
	defer q.mu.Unlock()

	jobs := make([]*models.ScanJob, 0, len(q.order))
	for _, id := range q.order {
		jobs = append(jobs, q.jobs[id].Clone())
	}
	return jobs
}

// ClearFinished drops terminal jobs from the history and returns their IDs.
func (q *Queue) ClearFinished() []string {
	q.mu.Lock()
	defer q.mu.Unlock()

	var removed []string
	kept := q.order[:0]
	for _, id := range q.order {
		if q.jobs[id].Status.Terminal() {
			delete(q.jobs, id)
			removed = append(removed, id)
		} else {
			kept = append(kept, id)
		}
	}
	q.order = kept
	return removed
}

// Restore seeds the history from a snapshot. Jobs that were still in
// flight when the snapshot was taken come back as failed.
func (q *Queue) Restore(jobs []models.ScanJob) {
	q.mu.Lock()
	defer q.mu.Unlock()

	for i := range jobs {
		job := jobs[i].Clone()
		if !job.Status.Terminal() {
			job.Status = models.JobFailed
			job.Err = "interrupted by shutdown"
		}
		if _, ok := q.jobs[job.ID]; ok {
			continue
		}
		q.jobs[job.ID] = job
		q.order = append(q.order, job.ID)
	}
}

// Close stops the worker. The running job, if any, is cancelled at the
// entry it is on; the call returns once the worker has exited.
func (q *Queue) Close() {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		<-q.stopped
		return
	}
	q.closed = true
	if q.cancel != nil {
		q.cancel()
	}
	close(q.done)
	q.mu.Unlock()

	<-q.stopped
}

func (q *Queue) worker() {
	defer close(q.stopped)

	for {
		job := q.next()
		if job == nil {
			select {
			case <-q.wake:
				continue
			case <-q.done:
				return
			}
		}
		q.run(job)
	}
}

// next pops the oldest still-pending job and marks it running.
func (q *Queue) next() *models.ScanJob {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return nil
	}
	for len(q.pending) > 0 {
		job := q.pending[0]
		q.pending = q.pending[1:]
		if job.Status != models.JobPending {
			continue
		}
		job.Status = models.JobRunning
		job.StartedAt = time.Now()
		q.running = job.ID

		ctx, cancel := context.WithCancel(context.Background())
		q.runCtx = ctx
		q.cancel = cancel
		return job
	}
	return nil
}

func (q *Queue) run(job *models.ScanJob) {
	q.mu.Lock()
	ctx := q.runCtx
	id, root, opts := job.ID, job.Root, job.Options
	q.mu.Unlock()

	q.log.Infow("scan started", "job", id, "root", root)

	report := func(se models.ScanError) {
		q.mu.Lock()
		job.Errors = append(job.Errors, se)
		q.mu.Unlock()
	}

	summary, err := q.runner(ctx, root, opts, report)

	q.mu.Lock()
	job.FinishedAt = time.Now()
	job.Summary = summary
	q.running = ""
	if q.cancel != nil {
		q.cancel()
		q.cancel = nil
	}

	switch {
	case err == nil:
		job.Status = models.JobDone
	case errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded):
		job.Status = models.JobCancelled
	default:
		job.Status = models.JobFailed
		job.Err = err.Error()
	}
	done := job.Clone()
	q.mu.Unlock()

	switch done.Status {
	case models.JobDone:
		q.log.Infow("scan finished", "job", id, "root", root,
			"files", done.Summary.Files, "dirs", done.Summary.Dirs,
			"errors", len(done.Errors), "duration", done.Summary.Duration)
	case models.JobCancelled:
		q.log.Infow("scan cancelled", "job", id, "root", root)
	default:
		q.log.Errorw("scan failed", "job", id, "root", root, "err", done.Err)
	}

	if q.afterJob != nil {
		q.afterJob(done)
	}
}

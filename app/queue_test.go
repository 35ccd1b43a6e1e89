package app

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/tiaanhavenga/DriveCatalogue/models"
)

// blockingRunner coordinates with the test through channels: every run
// announces its root on started, then blocks until the test sends the
// error to return (nil means a clean one-file summary).
type blockingRunner struct {
	started chan string
	release chan error
}

func newBlockingRunner() *blockingRunner {
	return &blockingRunner{
		started: make(chan string, 16),
		release: make(chan error, 16),
	}
}

func (r *blockingRunner) run(ctx context.Context, root string, opts models.ScanOptions, report func(models.ScanError)) (*models.ScanSummary, error) {
	r.started <- root
	select {
	case err := <-r.release:
		if err != nil {
			return nil, err
		}
		return &models.ScanSummary{Files: 1}, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func waitStarted(t *testing.T, r *blockingRunner) string {
	t.Helper()
	select {
	case root := <-r.started:
		return root
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for a run to start")
		return ""
	}
}

func expectNoStart(t *testing.T, r *blockingRunner) {
	t.Helper()
	select {
	case root := <-r.started:
		t.Fatalf("unexpected run started for %s", root)
	case <-time.After(100 * time.Millisecond):
	}
}

func waitTerminal(t *testing.T, q *Queue, id string) *models.ScanJob {
	t.Helper()
	deadline := time.After(5 * time.Second)
	tick := time.NewTicker(5 * time.Millisecond)
	defer tick.Stop()
	for {
		select {
		case <-deadline:
			t.Fatal("timed out waiting for job to finish")
			return nil
		case <-tick.C:
			job, err := q.Job(id)
			if err != nil {
				t.Fatalf("job lookup failed: %v", err)
			}
			if job.Status.Terminal() {
				return job
			}
		}
	}
}

func TestQueueRunsJob(t *testing.T) {
	r := newBlockingRunner()
	finished := make(chan *models.ScanJob, 16)
	q := NewQueue(r.run, func(j *models.ScanJob) { finished <- j }, NopLogger())
	t.Cleanup(q.Close)

	job, err := q.Enqueue("main", models.DefaultScanOptions())
	if err != nil {
		t.Fatalf("Enqueue failed: %v", err)
	}
	if job.Status != models.JobPending && job.Status != models.JobRunning {
		t.Errorf("unexpected initial status %s", job.Status)
	}
	if job.EnqueuedAt.IsZero() {
		t.Error("expected enqueue time to be set")
	}

	if root := waitStarted(t, r); root != "main" {
		t.Errorf("expected run for main, got %s", root)
	}
	r.release <- nil

	done := waitTerminal(t, q, job.ID)
	if done.Status != models.JobDone {
		t.Errorf("expected done, got %s", done.Status)
	}
	if done.Summary == nil || done.Summary.Files != 1 {
		t.Errorf("expected the runner's summary, got %+v", done.Summary)
	}
	if done.StartedAt.IsZero() || done.FinishedAt.IsZero() {
		t.Error("expected start and finish times")
	}

	select {
	case j := <-finished:
		if j.ID != job.ID || j.Status != models.JobDone {
			t.Errorf("unexpected afterJob call: %+v", j)
		}
	case <-time.After(time.Second):
		t.Error("expected the afterJob callback")
	}
}

func TestQueueRunsOldestFirst(t *testing.T) {
	r := newBlockingRunner()
	q := NewQueue(r.run, nil, NopLogger())
	t.Cleanup(q.Close)

	for _, root := range []string{"first", "second", "third"} {
		if _, err := q.Enqueue(root, models.ScanOptions{}); err != nil {
			t.Fatalf("Enqueue failed: %v", err)
		}
	}

	for _, want := range []string{"first", "second", "third"} {
		if got := waitStarted(t, r); got != want {
			t.Errorf("expected %s to run, got %s", want, got)
		}
		r.release <- nil
	}
}

func TestQueueCoalescesPending(t *testing.T) {
	r := newBlockingRunner()
	q := NewQueue(r.run, nil, NopLogger())
	t.Cleanup(q.Close)

	// Hold the worker on an unrelated root so the next jobs stay pending.
	if _, err := q.Enqueue("busy", models.ScanOptions{}); err != nil {
		t.Fatalf("Enqueue failed: %v", err)
	}
	waitStarted(t, r)

	first, err := q.Enqueue("photos", models.ScanOptions{SkipHidden: true})
	if err != nil {
		t.Fatalf("Enqueue failed: %v", err)
	}
	second, err := q.Enqueue("photos", models.ScanOptions{FollowSymlinks: true})
	if err != nil {
		t.Fatalf("Enqueue failed: %v", err)
	}

	if second.ID != first.ID {
		t.Fatalf("expected the pending job to absorb the enqueue, got %s and %s", first.ID, second.ID)
	}
	if !second.Options.FollowSymlinks || second.Options.SkipHidden {
		t.Errorf("expected options replaced in place, got %+v", second.Options)
	}

	// Still exactly one photos job in the history.
	count := 0
	for _, j := range q.Jobs() {
		if j.Root == "photos" {
			count++
		}
	}
	if count != 1 {
		t.Errorf("expected 1 photos job, got %d", count)
	}

	r.release <- nil // busy
	if got := waitStarted(t, r); got != "photos" {
		t.Errorf("expected photos to run, got %s", got)
	}
	r.release <- nil
	waitTerminal(t, q, first.ID)
}

func TestQueueRunningJobIsNotCoalesced(t *testing.T) {
	r := newBlockingRunner()
	q := NewQueue(r.run, nil, NopLogger())
	t.Cleanup(q.Close)

	first, err := q.Enqueue("photos", models.ScanOptions{})
	if err != nil {
		t.Fatalf("Enqueue failed: %v", err)
	}
	waitStarted(t, r)

	// The first job is running now, so this must queue a fresh one.
	second, err := q.Enqueue("photos", models.ScanOptions{})
	if err != nil {
		t.Fatalf("Enqueue failed: %v", err)
	}
	if second.ID == first.ID {
		t.Fatal("expected a new job while the first is running")
	}

	r.release <- nil
	waitStarted(t, r)
	r.release <- nil
	waitTerminal(t, q, second.ID)
}

func TestQueueCancelPending(t *testing.T) {
	r := newBlockingRunner()
	finished := make(chan *models.ScanJob, 16)
	q := NewQueue(r.run, func(j *models.ScanJob) { finished <- j }, NopLogger())
	t.Cleanup(q.Close)

	if _, err := q.Enqueue("busy", models.ScanOptions{}); err != nil {
		t.Fatalf("Enqueue failed: %v", err)
	}
	waitStarted(t, r)

	job, err := q.Enqueue("photos", models.ScanOptions{})
	if err != nil {
		t.Fatalf("Enqueue failed: %v", err)
	}
	if err := q.Cancel(job.ID); err != nil {
		t.Fatalf("Cancel failed: %v", err)
	}

	got, err := q.Job(job.ID)
	if err != nil {
		t.Fatalf("Job failed: %v", err)
	}
	if got.Status != models.JobCancelled {
		t.Errorf("expected cancelled, got %s", got.Status)
	}
	if got.FinishedAt.IsZero() {
		t.Error("expected a finish time on the cancelled job")
	}

	// The cancelled job still reaches the afterJob hook.
	select {
	case j := <-finished:
		if j.ID != job.ID || j.Status != models.JobCancelled {
			t.Errorf("unexpected afterJob call: %+v", j)
		}
	case <-time.After(time.Second):
		t.Error("expected the afterJob callback for the cancelled job")
	}

	// And it never runs.
	r.release <- nil
	expectNoStart(t, r)
}

func TestQueueCancelRunning(t *testing.T) {
	r := newBlockingRunner()
	q := NewQueue(r.run, nil, NopLogger())
	t.Cleanup(q.Close)

	job, err := q.Enqueue("main", models.ScanOptions{})
	if err != nil {
		t.Fatalf("Enqueue failed: %v", err)
	}
	waitStarted(t, r)

	if err := q.Cancel(job.ID); err != nil {
		t.Fatalf("Cancel failed: %v", err)
	}

	done := waitTerminal(t, q, job.ID)
	if done.Status != models.JobCancelled {
		t.Errorf("expected cancelled, got %s", done.Status)
	}
	if done.Summary != nil {
		t.Error("expected no summary on a cancelled run")
	}
	if done.Err != "" {
		t.Errorf("cancelled is not failed, got error %q", done.Err)
	}
}

func TestQueueCancelUnknown(t *testing.T) {
	q := NewQueue(newBlockingRunner().run, nil, NopLogger())
	t.Cleanup(q.Close)

	if err := q.Cancel("nope"); !errors.Is(err, ErrNoJob) {
		t.Errorf("expected ErrNoJob, got %v", err)
	}
}

func TestQueueCancelTerminalIsNoop(t *testing.T) {
	r := newBlockingRunner()
	q := NewQueue(r.run, nil, NopLogger())
	t.Cleanup(q.Close)

	job, _ := q.Enqueue("main", models.ScanOptions{})
	waitStarted(t, r)
	r.release <- nil
	waitTerminal(t, q, job.ID)

	if err := q.Cancel(job.ID); err != nil {
		t.Errorf("cancelling a finished job should be a no-op, got %v", err)
	}
	got, _ := q.Job(job.ID)
	if got.Status != models.JobDone {
		t.Errorf("expected status untouched, got %s", got.Status)
	}
}

func TestQueueCancelRoot(t *testing.T) {
	r := newBlockingRunner()
	q := NewQueue(r.run, nil, NopLogger())
	t.Cleanup(q.Close)

	running, _ := q.Enqueue("photos", models.ScanOptions{})
	waitStarted(t, r)
	pending, _ := q.Enqueue("photos", models.ScanOptions{})
	other, _ := q.Enqueue("music", models.ScanOptions{})

	q.CancelRoot("photos")

	if done := waitTerminal(t, q, running.ID); done.Status != models.JobCancelled {
		t.Errorf("expected the running photos job cancelled, got %s", done.Status)
	}
	if got, _ := q.Job(pending.ID); got.Status != models.JobCancelled {
		t.Errorf("expected the pending photos job cancelled, got %s", got.Status)
	}

	// The other root is untouched and runs next.
	if got := waitStarted(t, r); got != "music" {
		t.Errorf("expected music to run, got %s", got)
	}
	r.release <- nil
	if done := waitTerminal(t, q, other.ID); done.Status != models.JobDone {
		t.Errorf("expected music done, got %s", done.Status)
	}
}

func TestQueueFailedJob(t *testing.T) {
	r := newBlockingRunner()
	q := NewQueue(r.run, nil, NopLogger())
	t.Cleanup(q.Close)

	job, _ := q.Enqueue("main", models.ScanOptions{})
	waitStarted(t, r)
	r.release <- errors.New("disk on fire")

	done := waitTerminal(t, q, job.ID)
	if done.Status != models.JobFailed {
		t.Errorf("expected failed, got %s", done.Status)
	}
	if done.Err != "disk on fire" {
		t.Errorf("expected the runner's error, got %q", done.Err)
	}
}

func TestQueueDoneWithErrors(t *testing.T) {
	// A runner that hits non-fatal errors but completes.
	runner := func(ctx context.Context, root string, opts models.ScanOptions, report func(models.ScanError)) (*models.ScanSummary, error) {
		report(models.ScanError{Path: "/a", Kind: models.ErrKindPermission, Msg: "denied"})
		report(models.ScanError{Path: "/b", Kind: models.ErrKindIO, Msg: "read error"})
		return &models.ScanSummary{Files: 5, Errors: 2}, nil
	}
	q := NewQueue(runner, nil, NopLogger())
	t.Cleanup(q.Close)

	job, _ := q.Enqueue("main", models.ScanOptions{})
	done := waitTerminal(t, q, job.ID)

	// Completed with errors is done, not failed.
	if done.Status != models.JobDone {
		t.Errorf("expected done, got %s", done.Status)
	}
	if len(done.Errors) != 2 {
		t.Errorf("expected 2 recorded errors, got %d", len(done.Errors))
	}
	if done.Err != "" {
		t.Errorf("expected no fatal error, got %q", done.Err)
	}
}

func TestQueueJobsOldestFirst(t *testing.T) {
	r := newBlockingRunner()
	q := NewQueue(r.run, nil, NopLogger())
	t.Cleanup(q.Close)

	q.Enqueue("busy", models.ScanOptions{})
	waitStarted(t, r)
	q.Enqueue("a", models.ScanOptions{})
	q.Enqueue("b", models.ScanOptions{})

	jobs := q.Jobs()
	if len(jobs) != 3 {
		t.Fatalf("expected 3 jobs, got %d", len(jobs))
	}
	for i, want := range []string{"busy", "a", "b"} {
		if jobs[i].Root != want {
			t.Errorf("expected jobs[%d] = %s, got %s", i, want, jobs[i].Root)
		}
	}

	t.Run("returned jobs are copies", func(t *testing.T) {
		jobs[1].Status = models.JobFailed
		jobs[1].Options.IgnorePatterns = append(jobs[1].Options.IgnorePatterns, "*.tmp")

		fresh := q.Jobs()
		if fresh[1].Status == models.JobFailed {
			t.Error("expected queue state isolated from returned copies")
		}
		if len(fresh[1].Options.IgnorePatterns) != 0 {
			t.Error("expected options isolated from returned copies")
		}
	})
}

func TestQueueClearFinished(t *testing.T) {
	r := newBlockingRunner()
	q := NewQueue(r.run, nil, NopLogger())
	t.Cleanup(q.Close)

	done1, _ := q.Enqueue("a", models.ScanOptions{})
	waitStarted(t, r)
	r.release <- nil
	waitTerminal(t, q, done1.ID)

	q.Enqueue("busy", models.ScanOptions{})
	waitStarted(t, r)
	live, _ := q.Enqueue("b", models.ScanOptions{})

	removed := q.ClearFinished()
	if len(removed) != 1 || removed[0] != done1.ID {
		t.Errorf("expected only the finished job cleared, got %v", removed)
	}
	if _, err := q.Job(done1.ID); !errors.Is(err, ErrNoJob) {
		t.Errorf("expected cleared job to be gone, got %v", err)
	}
	if _, err := q.Job(live.ID); err != nil {
		t.Errorf("expected the pending job to survive: %v", err)
	}
}

func TestQueueRestore(t *testing.T) {
	q := NewQueue(newBlockingRunner().run, nil, NopLogger())
	t.Cleanup(q.Close)

	q.Restore([]models.ScanJob{
		{ID: "done-1", Root: "a", Status: models.JobDone},
		{ID: "was-running", Root: "b", Status: models.JobRunning},
		{ID: "was-pending", Root: "c", Status: models.JobPending},
	})

	if job, _ := q.Job("done-1"); job.Status != models.JobDone {
		t.Errorf("expected done-1 kept as done, got %s", job.Status)
	}
	for _, id := range []string{"was-running", "was-pending"} {
		job, err := q.Job(id)
		if err != nil {
			t.Fatalf("Job failed: %v", err)
		}
		if job.Status != models.JobFailed {
			t.Errorf("expected %s restored as failed, got %s", id, job.Status)
		}
		if job.Err != "interrupted by shutdown" {
			t.Errorf("expected the interruption marker, got %q", job.Err)
		}
	}

	t.Run("duplicates are skipped", func(t *testing.T) {
		q.Restore([]models.ScanJob{{ID: "done-1", Root: "a", Status: models.JobFailed}})
		if job, _ := q.Job("done-1"); job.Status != models.JobDone {
			t.Error("expected the existing job to win over the snapshot duplicate")
		}
	})
}

func TestQueueClose(t *testing.T) {
	r := newBlockingRunner()
	q := NewQueue(r.run, nil, NopLogger())

	job, _ := q.Enqueue("main", models.ScanOptions{})
	waitStarted(t, r)

	q.Close()

	// The running job was cancelled on the way down.
	got, err := q.Job(job.ID)
	if err != nil {
		t.Fatalf("Job failed: %v", err)
	}
	if got.Status != models.JobCancelled {
		t.Errorf("expected cancelled on close, got %s", got.Status)
	}

	if _, err := q.Enqueue("main", models.ScanOptions{}); !errors.Is(err, ErrQueueClosed) {
		t.Errorf("expected ErrQueueClosed, got %v", err)
	}

	// Close is idempotent.
	q.Close()
}

func TestScanJobClone(t *testing.T) {
	job := &models.ScanJob{
		ID:      "j",
		Root:    "main",
		Options: models.ScanOptions{IgnorePatterns: []string{"*.tmp"}},
		Summary: &models.ScanSummary{Files: 1},
		Errors:  []models.ScanError{{Path: "/x", Kind: models.ErrKindIO, Msg: "boom"}},
	}

	c := job.Clone()
	c.Options.IgnorePatterns[0] = "changed"
	c.Summary.Files = 99
	c.Errors[0].Msg = "changed"

	if job.Options.IgnorePatterns[0] != "*.tmp" {
		t.Error("expected ignore patterns to be deep copied")
	}
	if job.Summary.Files != 1 {
		t.Error("expected the summary to be deep copied")
	}
	if job.Errors[0].Msg != "boom" {
		t.Error("expected errors to be deep copied")
	}
}

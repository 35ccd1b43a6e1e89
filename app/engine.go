package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"path/filepath"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/tiaanhavenga/DriveCatalogue/models"
)

const (
	dbFileName   = "catalogue.db"
	statsExts    = 15
	statsLargest = 10
	statsDirs    = 15
)

// Engine ties the catalogue together: the in-memory index, the scan
// queue, search, usage reporting, schedules and the sqlite store. One
// engine owns one data directory. All methods are safe for concurrent
// use.
type Engine struct {
	cfg   models.AppConfig
	log   *zap.SugaredLogger
	store *Store
	idx   *Index
	queue *Queue
	srch  *Searcher
	rep   *Reporter
	sched *Scheduler

	enrich Enricher

	closeOnce sync.Once
	closeErr  error
}

// NewEngine opens the store under cfg.DataDir, loads the persisted
// catalogue and starts the queue worker and the scheduler. Roots and
// schedules named in the config are installed on top of the persisted
// state.
func NewEngine(cfg models.AppConfig, log *zap.SugaredLogger) (*Engine, error) {
	if cfg.DataDir == "" {
		return nil, errors.New("data dir not configured")
	}

	store, err := OpenStore(filepath.Join(cfg.DataDir, dbFileName))
	if err != nil {
		return nil, err
	}

	e := &Engine{
		cfg:   cfg,
		log:   log,
		store: store,
		idx:   NewIndex(),
	}

	snap, err := store.LoadSnapshot(context.Background())
	if err != nil {
		store.Close()
		return nil, fmt.Errorf("failed to load catalogue: %w", err)
	}
	if skipped := e.idx.Import(snap.Roots, snap.Records); skipped > 0 {
		log.Warnw("orphaned records dropped on load", "count", skipped)
	}

	if cfg.Enrich.Enabled {
		e.enrich = NewCachingEnricher(CategoryEnricher{}, cfg.Enrich.CacheSize, cfg.Enrich.CacheTTL)
	}

	e.queue = NewQueue(e.runScan, e.jobFinished, log)
	e.queue.Restore(snap.Jobs)
	e.srch = NewSearcher(e.idx, cfg.Search.PageSize)
	e.rep = NewReporter(e.idx)
	e.sched = NewScheduler(e.scheduledScan, log)

	for alias, path := range cfg.Roots {
		if _, err := e.idx.Root(alias); err == nil {
			continue
		}
		if _, err := e.AddRoot(context.Background(), alias, path); err != nil {
			log.Warnw("configured root not added", "alias", alias, "path", path, "err", err)
		}
	}
	for alias, expr := range cfg.Schedules {
		if err := e.Schedule(alias, expr); err != nil {
			log.Warnw("configured schedule not set", "alias", alias, "err", err)
		}
	}
	e.sched.Start()

	for _, root := range e.idx.Roots() {
		e.updateRecordsMetric(root.Alias)
	}

	log.Infow("engine ready", "data_dir", cfg.DataDir,
		"roots", len(e.idx.Roots()), "records", e.idx.Count())
	return e, nil
}

// AddRoot registers a storage root under an alias. The path must exist
// and be a directory; it is normalized before registration. The new root
// has no records until it is scanned.
func (e *Engine) AddRoot(ctx context.Context, alias, path string) (models.Root, error) {
	if err := ValidateAlias(alias); err != nil {
		return models.Root{}, err
	}
	normalized, err := NormalizeRoot(path)
	if err != nil {
		return models.Root{}, err
	}

	root := models.Root{Alias: alias, Path: normalized, AddedAt: time.Now()}
	if err := e.idx.AddRoot(root); err != nil {
		return models.Root{}, err
	}
	if err := e.store.SaveRoot(ctx, root, nil); err != nil {
		e.idx.RemoveRoot(alias)
		return models.Root{}, fmt.Errorf("failed to persist root %s: %w", alias, err)
	}

	e.log.Infow("root added", "alias", alias, "path", normalized)
	return root, nil
}

// RemoveRoot drops the root, its records, its schedule and its jobs. A
// scan in flight for the root is cancelled.
func (e *Engine) RemoveRoot(ctx context.Context, alias string) error {
	if _, err := e.idx.Root(alias); err != nil {
		return err
	}

	e.queue.CancelRoot(alias)
	e.sched.Remove(alias)

	if err := e.idx.RemoveRoot(alias); err != nil {
		return err
	}
	if err := e.store.DeleteRoot(ctx, alias); err != nil {
		return fmt.Errorf("failed to delete root %s: %w", alias, err)
	}
	dropRootMetrics(alias)

	e.log.Infow("root removed", "alias", alias)
	return nil
}

func (e *Engine) Root(alias string) (models.Root, error) { return e.idx.Root(alias) }

func (e *Engine) Roots() []models.Root { return e.idx.Roots() }

// Logger exposes the engine's logger for layers built on top of it.
func (e *Engine) Logger() *zap.SugaredLogger { return e.log }

// EnqueueScan queues a scan of the root. A nil opts means the configured
// scan options. When a scan for the same root is already waiting, that
// job is updated instead of queueing a second one.
func (e *Engine) EnqueueScan(ctx context.Context, alias string, opts *models.ScanOptions) (*models.ScanJob, error) {
	if _, err := e.idx.Root(alias); err != nil {
		return nil, err
	}

	o := e.cfg.Scan
	if opts != nil {
		o = *opts
	}
	job, err := e.queue.Enqueue(alias, o)
	if err != nil {
		return nil, err
	}

	if err := e.store.SaveJob(ctx, job); err != nil {
		e.log.Errorw("failed to persist job", "job", job.ID, "err", err)
	}
	e.updateQueueDepth()
	return job, nil
}

// CancelScan requests cancellation of a job by ID.
func (e *Engine) CancelScan(id string) error { return e.queue.Cancel(id) }

func (e *Engine) Job(id string) (*models.ScanJob, error) { return e.queue.Job(id) }

// Jobs returns the retained job history, oldest first.
func (e *Engine) Jobs() []*models.ScanJob { return e.queue.Jobs() }

// ClearFinishedJobs drops terminal jobs from the history and the store.
func (e *Engine) ClearFinishedJobs(ctx context.Context) (int, error) {
	ids := e.queue.ClearFinished()
	if len(ids) == 0 {
		return 0, nil
	}
	if err := e.store.DeleteJobs(ctx, ids); err != nil {
		return len(ids), fmt.Errorf("failed to delete jobs: %w", err)
	}
	return len(ids), nil
}

// Search evaluates the query against the index.
func (e *Engine) Search(q models.Query) ([]models.FileRecord, error) {
	return e.srch.Search(q)
}

// Report builds the usage report for one root.
func (e *Engine) Report(alias string) (models.UsageReport, error) {
	return e.rep.Report(alias)
}

// Reports builds usage reports for every root, sorted by alias.
func (e *Engine) Reports() []models.UsageReport { return e.rep.Reports() }

// Stats summarizes one root: counts, bytes, heaviest extensions, largest
// files.
func (e *Engine) Stats(alias string) (models.CatalogStats, error) {
	return e.idx.Stats(alias, statsExts, statsLargest)
}

// DirSizes lists the root's heaviest directories, subtrees included.
func (e *Engine) DirSizes(alias string) ([]models.DirStat, error) {
	return e.idx.DirSizes(alias, statsDirs)
}

// Schedule installs or replaces a periodic rescan for the root.
func (e *Engine) Schedule(alias, expr string) error {
	if _, err := e.idx.Root(alias); err != nil {
		return err
	}
	return e.sched.Set(alias, expr)
}

func (e *Engine) Unschedule(alias string) error { return e.sched.Remove(alias) }

func (e *Engine) Schedules() []ScheduleInfo { return e.sched.List() }

// Snapshot captures the full catalogue state.
func (e *Engine) Snapshot() models.Snapshot {
	roots, records := e.idx.Export()
	jobs := e.queue.Jobs()
	js := make([]models.ScanJob, 0, len(jobs))
	for _, j := range jobs {
		js = append(js, *j)
	}
	return models.Snapshot{
		Roots:   roots,
		Records: records,
		Jobs:    js,
		SavedAt: time.Now(),
	}
}

// WriteSnapshot serializes the catalogue state as JSON.
func (e *Engine) WriteSnapshot(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(e.Snapshot())
}

// ExportCSV writes the records matching q to w as CSV and returns how
// many were written. A zero limit exports every match.
func (e *Engine) ExportCSV(w io.Writer, q models.Query) (int, error) {
	if q.Limit == 0 {
		q.Limit = math.MaxInt
	}
	records, err := e.srch.Search(q)
	if err != nil {
		return 0, err
	}
	if err := WriteCSV(w, records); err != nil {
		return 0, err
	}
	return len(records), nil
}

// ImportSnapshot replaces the catalogue state with a previously exported
// snapshot, in memory and in the store.
func (e *Engine) ImportSnapshot(ctx context.Context, r io.Reader) error {
	var snap models.Snapshot
	if err := json.NewDecoder(r).Decode(&snap); err != nil {
		return fmt.Errorf("failed to decode snapshot: %w", err)
	}

	if skipped := e.idx.Import(snap.Roots, snap.Records); skipped > 0 {
		e.log.Warnw("orphaned records dropped on import", "count", skipped)
	}
	e.queue.Restore(snap.Jobs)

	if err := e.store.SaveSnapshot(ctx, snap); err != nil {
		return fmt.Errorf("failed to persist snapshot: %w", err)
	}
	for _, root := range snap.Roots {
		e.updateRecordsMetric(root.Alias)
	}
	e.log.Infow("snapshot imported", "roots", len(snap.Roots), "records", len(snap.Records))
	return nil
}

// Backup writes a consistent copy of the store to dstPath.
func (e *Engine) Backup(ctx context.Context, dstPath string) error {
	return e.store.Backup(ctx, dstPath)
}

// Close stops the scheduler and the queue worker, flushes the catalogue
// to the store and closes it. The running scan, if any, is cancelled.
func (e *Engine) Close() error {
	e.closeOnce.Do(func() {
		e.sched.Stop()
		e.queue.Close()

		if err := e.store.SaveSnapshot(context.Background(), e.Snapshot()); err != nil {
			e.log.Errorw("failed to flush catalogue on close", "err", err)
		}
		e.closeErr = e.store.Close()
		e.log.Infow("engine closed")
	})
	return e.closeErr
}

// runScan is the queue's JobRunner: walk the root, enrich and upsert
// each record, then finalize the sweep. A cancelled traversal keeps
// everything it already indexed and leaves the previous records alone.
func (e *Engine) runScan(ctx context.Context, root string, opts models.ScanOptions, report func(models.ScanError)) (*models.ScanSummary, error) {
	rootModel, err := e.idx.Root(root)
	if err != nil {
		return nil, err
	}

	var summary *models.ScanSummary
	if audit := e.openScanLog(root); audit != nil {
		defer func() {
			audit.Finish(summary)
			if err := audit.Close(); err != nil {
				e.log.Warnw("failed to close scan log", "root", root, "err", err)
			}
		}()
		orig := report
		report = func(se models.ScanError) {
			audit.Error(se)
			orig(se)
		}
	}

	crawler := NewCrawler(rootModel, opts, e.log)
	events, err := crawler.Walk(ctx)
	if err != nil {
		return nil, err
	}

	if err := e.idx.BeginSweep(root); err != nil {
		return nil, err
	}

	for ev := range events {
		switch {
		case ev.Error != nil:
			report(*ev.Error)
		case ev.Record != nil:
			e.enrichRecord(ctx, ev.Record)
			if err := e.idx.Upsert(root, *ev.Record); err != nil {
				e.abortSweep(root)
				if cerr := ctx.Err(); cerr != nil {
					return nil, cerr
				}
				return nil, err
			}
		case ev.Summary != nil:
			summary = ev.Summary
		}
	}

	if summary == nil {
		// Cancelled mid-traversal: keep what was indexed, skip the sweep.
		e.abortSweep(root)
		e.persistRoot(root)
		e.updateRecordsMetric(root)
		if cerr := ctx.Err(); cerr != nil {
			return nil, cerr
		}
		return nil, errors.New("traversal ended early")
	}

	removed, err := e.idx.EndSweep(root)
	if err != nil {
		return summary, err
	}
	if removed > 0 {
		e.log.Infow("stale records removed", "root", root, "count", removed)
	}

	total, free, cerr := diskCapacity(rootModel.Path)
	if cerr != nil {
		total, free = 0, 0
	}
	e.idx.SetLastScan(root, time.Now(), total, free)

	e.persistRoot(root)
	e.updateRecordsMetric(root)
	return summary, nil
}

// openScanLog returns nil when audit logs are disabled or the file
// cannot be created; a scan never fails because of its log.
func (e *Engine) openScanLog(root string) *ScanLog {
	if !e.cfg.ScanLogs.Enabled {
		return nil
	}
	audit, err := NewScanLog(filepath.Join(e.cfg.DataDir, "scanlogs"), root, e.cfg.ScanLogs.RetentionDays)
	if err != nil {
		e.log.Warnw("scan log not created", "root", root, "err", err)
		return nil
	}
	return audit
}

func (e *Engine) enrichRecord(ctx context.Context, rec *models.FileRecord) {
	if e.enrich == nil {
		return
	}
	meta, err := e.enrich.Enrich(ctx, rec)
	switch {
	case err == nil:
		if len(meta) == 0 {
			return
		}
		if rec.Meta == nil {
			rec.Meta = make(map[string]string, len(meta))
		}
		for k, v := range meta {
			rec.Meta[k] = v
		}
	case errors.Is(err, ErrNotApplicable):
	default:
		e.log.Debugw("enrichment failed", "path", rec.Path, "err", err)
	}
}

func (e *Engine) abortSweep(root string) {
	if err := e.idx.AbortSweep(root); err != nil && !errors.Is(err, ErrUnknownRoot) {
		e.log.Warnw("failed to abort sweep", "root", root, "err", err)
	}
}

// persistRoot writes the root and its current records to the store.
func (e *Engine) persistRoot(root string) {
	rootModel, err := e.idx.Root(root)
	if err != nil {
		return
	}
	var records []models.FileRecord
	e.idx.ForEach([]string{root}, func(rec *models.FileRecord) {
		records = append(records, rec.Clone())
	})
	if err := e.store.SaveRoot(context.Background(), rootModel, records); err != nil {
		e.log.Errorw("failed to persist root", "root", root, "err", err)
	}
}

// jobFinished runs after every terminal job: persist it and update the
// metrics.
func (e *Engine) jobFinished(job *models.ScanJob) {
	if err := e.store.SaveJob(context.Background(), job); err != nil {
		e.log.Errorw("failed to persist job", "job", job.ID, "err", err)
	}
	observeScan(job)
	e.updateQueueDepth()
}

func (e *Engine) scheduledScan(root string) {
	if _, err := e.EnqueueScan(context.Background(), root, nil); err != nil {
		e.log.Warnw("scheduled scan not queued", "root", root, "err", err)
	}
}

func (e *Engine) updateQueueDepth() {
	live := 0
	for _, job := range e.queue.Jobs() {
		if !job.Status.Terminal() {
			live++
		}
	}
	queueDepth.Set(float64(live))
}

func (e *Engine) updateRecordsMetric(root string) {
	files, dirs, _, err := e.idx.Usage(root)
	if err != nil {
		return
	}
	setIndexedRecords(root, int(files+dirs))
}

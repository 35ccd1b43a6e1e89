package app

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// ScheduleInfo describes one periodic rescan.
type ScheduleInfo struct {
	Root string    `json:"root"`
	Expr string    `json:"expr"`
	Next time.Time `json:"next"`
	Prev time.Time `json:"prev,omitempty"`
}

type scheduleEntry struct {
	id   cron.EntryID
	expr string
}

// Scheduler drives periodic rescans. Each root carries at most one
// schedule; firing a schedule enqueues a scan through the supplied
// callback, so coalescing and sequencing stay with the queue.
type Scheduler struct {
	mu      sync.Mutex
	cron    *cron.Cron
	entries map[string]scheduleEntry
	enqueue func(root string)
	log     *zap.SugaredLogger
}

func NewScheduler(enqueue func(root string), log *zap.SugaredLogger) *Scheduler {
	parser := cron.NewParser(
		cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor,
	)
	return &Scheduler{
		cron: cron.New(
			cron.WithParser(parser),
			cron.WithChain(cron.Recover(cron.DefaultLogger)),
		),
		entries: make(map[string]scheduleEntry),
		enqueue: enqueue,
		log:     log,
	}
}

func (s *Scheduler) Start() { s.cron.Start() }

// Stop waits for a firing job to hand off before returning.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	select {
	case <-ctx.Done():
	case <-time.After(5 * time.Second):
		s.log.Warnw("scheduler stop timed out")
	}
}

// Set installs or replaces the schedule for a root. The expression uses
// the standard five cron fields or a descriptor such as @daily.
func (s *Scheduler) Set(root, expr string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if old, ok := s.entries[root]; ok {
		s.cron.Remove(old.id)
		delete(s.entries, root)
	}

	id, err := s.cron.AddFunc(expr, func() {
		s.log.Infow("schedule fired", "root", root)
		s.enqueue(root)
	})
	if err != nil {
		return fmt.Errorf("schedule %q for %s: %w", expr, root, err)
	}
	s.entries[root] = scheduleEntry{id: id, expr: expr}

	s.log.Infow("schedule set", "root", root, "expr", expr, "next", s.cron.Entry(id).Next)
	return nil
}

func (s *Scheduler) Remove(root string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.entries[root]
	if !ok {
		return fmt.Errorf("no schedule for %s", root)
	}
	s.cron.Remove(entry.id)
	delete(s.entries, root)
	return nil
}

// List returns every schedule sorted by root alias.
func (s *Scheduler) List() []ScheduleInfo {
	s.mu.Lock()
	defer s.mu.Unlock()

	infos := make([]ScheduleInfo, 0, len(s.entries))
	for root, entry := range s.entries {
		e := s.cron.Entry(entry.id)
		infos = append(infos, ScheduleInfo{
			Root: root,
			Expr: entry.expr,
			Next: e.Next,
			Prev: e.Prev,
		})
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].Root < infos[j].Root })
	return infos
}

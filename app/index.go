package app

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/tiaanhavenga/DriveCatalogue/models"
)

// Index is the in-memory metadata catalogue. One partition per root holds
// that root's records keyed by relative path. A RWMutex lets readers run
// while a scan is in flight: the crawler does its filesystem work outside
// the lock and touches the index one record at a time, so no read ever
// waits on disk I/O.
//
// Removal is tombstone based. BeginSweep opens a generation for a root;
// every record upserted afterwards is stamped with it. EndSweep deletes
// the records the scan did not touch, in one batch, which is the only
// point where deletions become visible. AbortSweep closes the sweep
// without deleting anything, so a cancelled scan keeps the previous view
// plus whatever it already committed.
type Index struct {
	mu    sync.RWMutex
	parts map[string]*partition
}

type partition struct {
	root     models.Root
	entries  map[string]*indexEntry
	gen      uint64
	sweeping bool
}

type indexEntry struct {
	rec models.FileRecord
	gen uint64
}

func NewIndex() *Index {
	return &Index{parts: make(map[string]*partition)}
}

func (ix *Index) AddRoot(root models.Root) error {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	if _, ok := ix.parts[root.Alias]; ok {
		return fmt.Errorf("%w: %s", ErrRootExists, root.Alias)
	}
	for _, p := range ix.parts {
		if p.root.Path == root.Path {
			return fmt.Errorf("%w: path %s already registered as %s", ErrRootExists, root.Path, p.root.Alias)
		}
	}

	ix.parts[root.Alias] = &partition{
		root:    root,
		entries: make(map[string]*indexEntry),
	}
	return nil
}

// RemoveRoot drops the partition and every record in it.
func (ix *Index) RemoveRoot(alias string) error {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	if _, ok := ix.parts[alias]; !ok {
		return fmt.Errorf("%w: %s", ErrUnknownRoot, alias)
	}
	delete(ix.parts, alias)
	return nil
}

func (ix *Index) Root(alias string) (models.Root, error) {
	ix.mu.RLock()
	defer ix.mu.RUnlock()

	p, ok := ix.parts[alias]
	if !ok {
		return models.Root{}, fmt.Errorf("%w: %s", ErrUnknownRoot, alias)
	}
	return p.root, nil
}

// Roots returns every registered root sorted by alias.
func (ix *Index) Roots() []models.Root {
	ix.mu.RLock()
	defer ix.mu.RUnlock()

	roots := make([]models.Root, 0, len(ix.parts))
	for _, p := range ix.parts {
		roots = append(roots, p.root)
	}
	sort.Slice(roots, func(i, j int) bool { return roots[i].Alias < roots[j].Alias })
	return roots
}

// SetLastScan records when a scan of the root completed and the volume
// capacity captured at that moment.
func (ix *Index) SetLastScan(alias string, at time.Time, capacity, free int64) error {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	p, ok := ix.parts[alias]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownRoot, alias)
	}
	p.root.LastScan = at
	p.root.ScannedCapacity = capacity
	p.root.ScannedFree = free
	return nil
}

// Upsert inserts or replaces one record. The stored copy shares nothing
// with the argument, so a reader sees either the whole old record or the
// whole new one.
func (ix *Index) Upsert(alias string, rec models.FileRecord) error {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	p, ok := ix.parts[alias]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownRoot, alias)
	}
	rec.Root = alias
	p.entries[rec.Path] = &indexEntry{rec: rec.Clone(), gen: p.gen}
	return nil
}

// Remove deletes one record. Removing a path that is not catalogued is
// not an error.
func (ix *Index) Remove(alias, relPath string) error {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	p, ok := ix.parts[alias]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownRoot, alias)
	}
	delete(p.entries, relPath)
	return nil
}

func (ix *Index) Get(alias, relPath string) (models.FileRecord, bool) {
	ix.mu.RLock()
	defer ix.mu.RUnlock()

	p, ok := ix.parts[alias]
	if !ok {
		return models.FileRecord{}, false
	}
	e, ok := p.entries[relPath]
	if !ok {
		return models.FileRecord{}, false
	}
	return e.rec.Clone(), true
}

func (ix *Index) BeginSweep(alias string) error {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	p, ok := ix.parts[alias]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownRoot, alias)
	}
	if p.sweeping {
		return fmt.Errorf("%w: %s", ErrSweepOpen, alias)
	}
	p.gen++
	p.sweeping = true
	return nil
}

// EndSweep finalizes the open sweep: every record not touched since
// BeginSweep is deleted in one batch. Returns how many were removed.
func (ix *Index) EndSweep(alias string) (int, error) {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	p, ok := ix.parts[alias]
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrUnknownRoot, alias)
	}
	if !p.sweeping {
		return 0, fmt.Errorf("%w: %s", ErrNoSweep, alias)
	}

	removed := 0
	for path, e := range p.entries {
		if e.gen != p.gen {
			delete(p.entries, path)
			removed++
		}
	}
	p.sweeping = false
	return removed, nil
}

// AbortSweep closes the open sweep without collecting tombstones.
func (ix *Index) AbortSweep(alias string) error {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	p, ok := ix.parts[alias]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownRoot, alias)
	}
	if !p.sweeping {
		return fmt.Errorf("%w: %s", ErrNoSweep, alias)
	}
	p.sweeping = false
	return nil
}

// ForEach calls fn for each record of the named roots (all roots when none
// are named) under the read lock. Aliases that are not registered
// contribute nothing. fn must not retain rec beyond the call without
// cloning it.
func (ix *Index) ForEach(roots []string, fn func(rec *models.FileRecord)) {
	ix.mu.RLock()
	defer ix.mu.RUnlock()

	if len(roots) == 0 {
		for _, p := range ix.parts {
			for _, e := range p.entries {
				fn(&e.rec)
			}
		}
		return
	}
	for _, alias := range roots {
		p, ok := ix.parts[alias]
		if !ok {
			continue
		}
		for _, e := range p.entries {
			fn(&e.rec)
		}
	}
}

// Usage sums one partition: file count, dir count, used bytes. Directory
// records count zero bytes.
func (ix *Index) Usage(alias string) (files, dirs, used int64, err error) {
	ix.mu.RLock()
	defer ix.mu.RUnlock()

	p, ok := ix.parts[alias]
	if !ok {
		return 0, 0, 0, fmt.Errorf("%w: %s", ErrUnknownRoot, alias)
	}
	for _, e := range p.entries {
		if e.rec.IsDir {
			dirs++
		} else {
			files++
			used += e.rec.Size
		}
	}
	return files, dirs, used, nil
}

// Count returns the number of records across all partitions.
func (ix *Index) Count() int64 {
	ix.mu.RLock()
	defer ix.mu.RUnlock()

	var n int64
	for _, p := range ix.parts {
		n += int64(len(p.entries))
	}
	return n
}

// Export returns the full catalogue state: roots sorted by alias, records
// sorted by root then path.
func (ix *Index) Export() ([]models.Root, []models.FileRecord) {
	ix.mu.RLock()
	defer ix.mu.RUnlock()

	roots := make([]models.Root, 0, len(ix.parts))
	var records []models.FileRecord
	for _, p := range ix.parts {
		roots = append(roots, p.root)
		for _, e := range p.entries {
			records = append(records, e.rec.Clone())
		}
	}
	sort.Slice(roots, func(i, j int) bool { return roots[i].Alias < roots[j].Alias })
	sort.Slice(records, func(i, j int) bool {
		if records[i].Root != records[j].Root {
			return records[i].Root < records[j].Root
		}
		return records[i].Path < records[j].Path
	})
	return roots, records
}

// Import replaces the whole catalogue state. Records pointing at a root
// that is not part of the snapshot are dropped; their count is returned.
func (ix *Index) Import(roots []models.Root, records []models.FileRecord) int {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	ix.parts = make(map[string]*partition, len(roots))
	for _, r := range roots {
		ix.parts[r.Alias] = &partition{
			root:    r,
			entries: make(map[string]*indexEntry),
		}
	}

	skipped := 0
	for _, rec := range records {
		p, ok := ix.parts[rec.Root]
		if !ok {
			skipped++
			continue
		}
		p.entries[rec.Path] = &indexEntry{rec: rec.Clone()}
	}
	return skipped
}

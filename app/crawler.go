package app

import (
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/tiaanhavenga/DriveCatalogue/models"
)

// Crawler walks one root breadth-first and reports what it finds as a
// lazy event sequence. Failures on individual entries become ScanError
// events and never stop the traversal; only the root directory itself
// being unreadable is fatal. One traversal runs at a time, driven by the
// queue worker.
type Crawler struct {
	alias string
	root  string
	opts  models.ScanOptions
	log   *zap.SugaredLogger
}

func NewCrawler(root models.Root, opts models.ScanOptions, log *zap.SugaredLogger) *Crawler {
	return &Crawler{
		alias: root.Alias,
		root:  root.Path,
		opts:  opts,
		log:   log,
	}
}

type dirItem struct {
	abs   string
	depth int
}

// Walk starts the traversal and returns its event channel. The channel
// closes when the traversal finishes or ctx is cancelled. A traversal
// that ran to completion ends with a Summary event; a cancelled one just
// stops. The root directory is read before the first event so an
// unreadable root fails fast instead of producing an empty scan.
func (c *Crawler) Walk(ctx context.Context) (<-chan models.ScanEvent, error) {
	rootEntries, err := os.ReadDir(c.root)
	if err != nil {
		return nil, fmt.Errorf("failed to read root %s: %w", c.root, err)
	}

	events := make(chan models.ScanEvent, 1024)
	go func() {
		defer close(events)
		c.run(ctx, rootEntries, events)
	}()
	return events, nil
}

func (c *Crawler) run(ctx context.Context, rootEntries []os.DirEntry, events chan<- models.ScanEvent) {
	start := time.Now()
	sum := &models.ScanSummary{}

	// Canonical paths of directories already descended into. Any symlink
	// cycle has to re-enter through a symlink, so only symlinked dirs and
	// the root need tracking.
	visited := make(map[string]bool)
	if c.opts.FollowSymlinks {
		if canon, err := filepath.EvalSymlinks(c.root); err == nil {
			visited[canon] = true
		}
	}

	var queue []dirItem
	if !c.processDir(ctx, c.root, 0, rootEntries, &queue, visited, sum, events) {
		return
	}

	for len(queue) > 0 {
		item := queue[0]
		queue = queue[1:]

		entries, err := os.ReadDir(item.abs)
		if err != nil {
			if !c.reportError(ctx, events, sum, item.abs, err) {
				return
			}
			continue
		}
		if !c.processDir(ctx, item.abs, item.depth, entries, &queue, visited, sum, events) {
			return
		}
	}

	sum.Duration = time.Since(start)
	c.send(ctx, events, models.ScanEvent{Summary: sum})
}

// processDir emits one event per entry and queues subdirectories.
// Returns false when the traversal was cancelled.
func (c *Crawler) processDir(
	ctx context.Context,
	dir string,
	depth int,
	entries []os.DirEntry,
	queue *[]dirItem,
	visited map[string]bool,
	sum *models.ScanSummary,
	events chan<- models.ScanEvent,
) bool {
	for _, entry := range entries {
		if ctx.Err() != nil {
			return false
		}

		name := entry.Name()
		abs := filepath.Join(dir, name)

		if c.opts.SkipHidden && strings.HasPrefix(name, ".") {
			continue
		}

		rel, err := RelPath(c.root, abs)
		if err != nil {
			if !c.reportError(ctx, events, sum, abs, err) {
				return false
			}
			continue
		}
		if c.ignored(name, rel) {
			continue
		}

		entryDepth := depth + 1
		isDir := entry.IsDir()
		var info os.FileInfo

		switch {
		case entry.Type()&os.ModeSymlink != 0:
			if !c.opts.FollowSymlinks {
				// The link itself gets catalogued as a file entry.
				info, err = entry.Info()
				if err != nil {
					if !c.reportError(ctx, events, sum, abs, err) {
						return false
					}
					continue
				}
				isDir = false
				break
			}
			info, err = os.Stat(abs)
			if err != nil {
				if !c.reportError(ctx, events, sum, abs, err) {
					return false
				}
				continue
			}
			isDir = info.IsDir()
			if isDir {
				canon, cerr := filepath.EvalSymlinks(abs)
				if cerr != nil {
					if !c.reportError(ctx, events, sum, abs, cerr) {
						return false
					}
					continue
				}
				if visited[canon] {
					if !c.reportCycle(ctx, events, sum, abs) {
						return false
					}
					continue
				}
				visited[canon] = true
			}
		default:
			info, err = entry.Info()
			if err != nil {
				if !c.reportError(ctx, events, sum, abs, err) {
					return false
				}
				continue
			}
		}

		rec := models.FileRecord{
			Root:    c.alias,
			Path:    rel,
			Name:    name,
			Dir:     path.Dir(rel),
			Size:    info.Size(),
			ModTime: info.ModTime(),
			IsDir:   isDir,
		}
		if !isDir {
			rec.Ext = SplitExt(name)
		}

		if !c.send(ctx, events, models.ScanEvent{Record: &rec}) {
			return false
		}

		if isDir {
			sum.Dirs++
			if c.opts.MaxDepth == 0 || entryDepth < c.opts.MaxDepth {
				*queue = append(*queue, dirItem{abs: abs, depth: entryDepth})
			}
		} else {
			sum.Files++
			sum.Bytes += rec.Size
		}
	}
	return true
}

func (c *Crawler) ignored(name, rel string) bool {
	for _, pattern := range c.opts.IgnorePatterns {
		if matched, _ := filepath.Match(pattern, name); matched {
			return true
		}
		if matched, _ := filepath.Match(pattern, rel); matched {
			return true
		}
	}
	return false
}

func (c *Crawler) reportError(ctx context.Context, events chan<- models.ScanEvent, sum *models.ScanSummary, path string, err error) bool {
	sum.Errors++
	se := classifyError(path, err)
	c.log.Warnw("scan error", "root", c.alias, "path", path, "kind", se.Kind, "err", err)
	return c.send(ctx, events, models.ScanEvent{Error: &se})
}

func (c *Crawler) reportCycle(ctx context.Context, events chan<- models.ScanEvent, sum *models.ScanSummary, path string) bool {
	sum.Errors++
	se := models.ScanError{Path: path, Kind: models.ErrKindCycle, Msg: "symlink cycle"}
	c.log.Warnw("scan error", "root", c.alias, "path", path, "kind", se.Kind)
	return c.send(ctx, events, models.ScanEvent{Error: &se})
}

func (c *Crawler) send(ctx context.Context, events chan<- models.ScanEvent, ev models.ScanEvent) bool {
	select {
	case events <- ev:
		return true
	case <-ctx.Done():
		return false
	}
}

package app

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/tiaanhavenga/DriveCatalogue/models"
)

// makeFile creates a file of the given size, creating parent directories
// as needed.
func makeFile(t *testing.T, path string, size int) {
	t.Helper()

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatalf("failed to create dir for %s: %v", path, err)
	}
	if err := os.WriteFile(path, bytes.Repeat([]byte("x"), size), 0644); err != nil {
		t.Fatalf("failed to create file %s: %v", path, err)
	}
}

// writeTestTree lays out the standard fixture: three top level folders,
// six files, 8000 bytes in total.
//
//	documents/report.pdf        1024
//	documents/notes.txt          512
//	documents/subfolder/nested.txt 64
//	images/photo.jpg            2048
//	images/screenshot.png        256
//	videos/movie.mp4            4096
func writeTestTree(t *testing.T, dir string) {
	t.Helper()

	files := []struct {
		path string
		size int
	}{
		{"documents/report.pdf", 1024},
		{"documents/notes.txt", 512},
		{"documents/subfolder/nested.txt", 64},
		{"images/photo.jpg", 2048},
		{"images/screenshot.png", 256},
		{"videos/movie.mp4", 4096},
	}
	for _, f := range files {
		makeFile(t, filepath.Join(dir, f.path), f.size)
	}
}

const (
	testTreeFiles = 6
	testTreeDirs  = 4
	testTreeBytes = 8000
)

// newTestRoot creates a temp directory holding the standard fixture tree
// and returns it as a registered root model.
func newTestRoot(t *testing.T, alias string) models.Root {
	t.Helper()

	dir := t.TempDir()
	writeTestTree(t, dir)
	resolved, err := NormalizeRoot(dir)
	if err != nil {
		t.Fatalf("failed to normalize root: %v", err)
	}
	return models.Root{Alias: alias, Path: resolved, AddedAt: time.Now()}
}

// newTestIndex returns an index with the given root registered.
func newTestIndex(t *testing.T, root models.Root) *Index {
	t.Helper()

	idx := NewIndex()
	if err := idx.AddRoot(root); err != nil {
		t.Fatalf("failed to add root: %v", err)
	}
	return idx
}

// crawlInto runs one full traversal of the root and commits it to the
// index through the sweep protocol, in the same order the engine does.
func crawlInto(t *testing.T, idx *Index, root models.Root, opts models.ScanOptions) (*models.ScanSummary, []models.ScanError) {
	t.Helper()

	crawler := NewCrawler(root, opts, NopLogger())
	events, err := crawler.Walk(context.Background())
	if err != nil {
		t.Fatalf("walk failed: %v", err)
	}

	if err := idx.BeginSweep(root.Alias); err != nil {
		t.Fatalf("begin sweep failed: %v", err)
	}

	var summary *models.ScanSummary
	var scanErrs []models.ScanError
	for ev := range events {
		switch {
		case ev.Error != nil:
			scanErrs = append(scanErrs, *ev.Error)
		case ev.Record != nil:
			if err := idx.Upsert(root.Alias, *ev.Record); err != nil {
				t.Fatalf("upsert failed: %v", err)
			}
		case ev.Summary != nil:
			summary = ev.Summary
		}
	}
	if summary == nil {
		t.Fatal("traversal ended without a summary")
	}

	if _, err := idx.EndSweep(root.Alias); err != nil {
		t.Fatalf("end sweep failed: %v", err)
	}
	return summary, scanErrs
}

// seedMediaIndex fills an index with a fixed media catalogue, no
// filesystem involved. Useful for search and stats tests that need
// varied extensions and sizes.
func seedMediaIndex(t *testing.T, idx *Index, alias string) []models.FileRecord {
	t.Helper()

	now := time.Now()
	records := []models.FileRecord{
		{Path: "movies", Name: "movies", Dir: ".", IsDir: true, ModTime: now},
		{Path: "movies/dune_2021.mkv", Name: "dune_2021.mkv", Dir: "movies", Ext: "mkv", Size: 6871947674, ModTime: now.AddDate(-2, 0, 0)},
		{Path: "movies/arrival.mkv", Name: "arrival.mkv", Dir: "movies", Ext: "mkv", Size: 4026531840, ModTime: now.AddDate(-5, 0, 0)},
		{Path: "music", Name: "music", Dir: ".", IsDir: true, ModTime: now},
		{Path: "music/kind_of_blue.flac", Name: "kind_of_blue.flac", Dir: "music", Ext: "flac", Size: 419430400, ModTime: now.AddDate(-1, 0, 0)},
		{Path: "music/nevermind.mp3", Name: "nevermind.mp3", Dir: "music", Ext: "mp3", Size: 78643200, ModTime: now.AddDate(-1, -6, 0)},
		{Path: "photos", Name: "photos", Dir: ".", IsDir: true, ModTime: now},
		{Path: "photos/beach_sunset.jpg", Name: "beach_sunset.jpg", Dir: "photos", Ext: "jpg", Size: 8388608, ModTime: now.AddDate(0, -2, 0)},
		{Path: "photos/mountain_view.jpg", Name: "mountain_view.jpg", Dir: "photos", Ext: "jpg", Size: 12582912, ModTime: now.AddDate(0, -1, 0)},
		{Path: "photos/winter_landscape.jpg", Name: "winter_landscape.jpg", Dir: "photos", Ext: "jpg", Size: 14680064, ModTime: now},
	}
	for i := range records {
		records[i].Root = alias
		if err := idx.Upsert(alias, records[i]); err != nil {
			t.Fatalf("failed to seed record %s: %v", records[i].Path, err)
		}
	}
	return records
}

// newTestEngine builds an engine over a throwaway data dir. Close runs
// automatically at test cleanup.
func newTestEngine(t *testing.T) *Engine {
	t.Helper()

	cfg := models.AppConfig{
		DataDir: t.TempDir(),
		Scan:    models.DefaultScanOptions(),
		Search:  models.SearchConfig{PageSize: 100},
		Enrich:  models.EnrichConfig{Enabled: true, CacheSize: 64, CacheTTL: time.Minute},
	}
	e, err := NewEngine(cfg, NopLogger())
	if err != nil {
		t.Fatalf("failed to create engine: %v", err)
	}
	t.Cleanup(func() { e.Close() })
	return e
}

// waitForJob polls until the job reaches a terminal status.
func waitForJob(t *testing.T, e *Engine, id string) *models.ScanJob {
	t.Helper()

	deadline := time.After(10 * time.Second)
	tick := time.NewTicker(10 * time.Millisecond)
	defer tick.Stop()
	for {
		select {
		case <-deadline:
			t.Fatal("timed out waiting for job")
			return nil
		case <-tick.C:
			job, err := e.Job(id)
			if err != nil {
				t.Fatalf("job lookup failed: %v", err)
			}
			if job.Status.Terminal() {
				return job
			}
		}
	}
}

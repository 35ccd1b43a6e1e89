package app

import (
	"errors"
	"testing"
	"time"

	"github.com/tiaanhavenga/DriveCatalogue/models"
)

func TestSearcherByName(t *testing.T) {
	idx := NewIndex()
	idx.AddRoot(models.Root{Alias: "media", Path: "/mnt/media"})
	seedMediaIndex(t, idx, "media")
	s := NewSearcher(idx, 100)

	tests := []struct {
		name          string
		query         string
		expectedCount int
		expectedNames []string
	}{
		{
			name:          "substring match",
			query:         "sunset",
			expectedCount: 1,
			expectedNames: []string{"beach_sunset.jpg"},
		},
		{
			name:          "substring is case insensitive",
			query:         "DUNE",
			expectedCount: 1,
			expectedNames: []string{"dune_2021.mkv"},
		},
		{
			name:          "glob by extension",
			query:         "*.mkv",
			expectedCount: 2,
			expectedNames: []string{"dune_2021.mkv", "arrival.mkv"},
		},
		{
			name:          "glob with question mark",
			query:         "nevermin?.mp3",
			expectedCount: 1,
			expectedNames: []string{"nevermind.mp3"},
		},
		{
			name:          "no match",
			query:         "nothinghere",
			expectedCount: 0,
		},
		{
			name:          "empty query matches everything",
			query:         "",
			expectedCount: 10,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			results, err := s.Search(models.Query{Name: tt.query})
			if err != nil {
				t.Fatalf("search failed: %v", err)
			}
			if len(results) != tt.expectedCount {
				t.Errorf("expected %d results, got %d", tt.expectedCount, len(results))
			}
			for _, expectedName := range tt.expectedNames {
				found := false
				for _, r := range results {
					if r.Name == expectedName {
						found = true
						break
					}
				}
				if !found {
					t.Errorf("expected to find %s in results", expectedName)
				}
			}
		})
	}
}

func TestSearcherFilters(t *testing.T) {
	idx := NewIndex()
	idx.AddRoot(models.Root{Alias: "media", Path: "/mnt/media"})
	seedMediaIndex(t, idx, "media")
	s := NewSearcher(idx, 100)

	tests := []struct {
		name          string
		query         models.Query
		expectedCount int
	}{
		{
			name:          "min size",
			query:         models.Query{MinSize: 1 << 30},
			expectedCount: 2, // the two mkv files
		},
		{
			name:          "max size",
			query:         models.Query{MaxSize: 20 << 20, OnlyFiles: true},
			expectedCount: 3, // the three jpg files
		},
		{
			name:          "size range",
			query:         models.Query{MinSize: 50 << 20, MaxSize: 500 << 20},
			expectedCount: 2, // flac and mp3
		},
		{
			name:          "ext filter",
			query:         models.Query{Exts: []string{"jpg"}},
			expectedCount: 3,
		},
		{
			name:          "ext filter tolerates dots and case",
			query:         models.Query{Exts: []string{".JPG", "Mp3"}},
			expectedCount: 4,
		},
		{
			name:          "only dirs",
			query:         models.Query{OnlyDirs: true},
			expectedCount: 3,
		},
		{
			name:          "only files",
			query:         models.Query{OnlyFiles: true},
			expectedCount: 7,
		},
		{
			name:          "modified after",
			query:         models.Query{OnlyFiles: true, ModifiedAfter: time.Now().AddDate(0, -3, 0)},
			expectedCount: 3, // the three photos
		},
		{
			name:          "modified before",
			query:         models.Query{OnlyFiles: true, ModifiedBefore: time.Now().AddDate(-3, 0, 0)},
			expectedCount: 1, // arrival.mkv
		},
		{
			name:          "unknown root matches nothing",
			query:         models.Query{Roots: []string{"nope"}},
			expectedCount: 0,
		},
		{
			name:          "conjunction of predicates",
			query:         models.Query{Name: "*.jpg", MinSize: 10 << 20},
			expectedCount: 2, // mountain_view, winter_landscape
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			results, err := s.Search(tt.query)
			if err != nil {
				t.Fatalf("search failed: %v", err)
			}
			if len(results) != tt.expectedCount {
				t.Errorf("expected %d results, got %d", tt.expectedCount, len(results))
				for _, r := range results {
					t.Logf("  - %s (%d bytes)", r.Path, r.Size)
				}
			}
		})
	}
}

func TestSearcherSizeAndExtConjunction(t *testing.T) {
	idx := NewIndex()
	idx.AddRoot(models.Root{Alias: "main", Path: "/mnt/main"})
	idx.Upsert("main", models.FileRecord{Path: "a.txt", Name: "a.txt", Dir: ".", Ext: "txt", Size: 100})
	idx.Upsert("main", models.FileRecord{Path: "b.mp4", Name: "b.mp4", Dir: ".", Ext: "mp4", Size: 2000})
	idx.Upsert("main", models.FileRecord{Path: "c.png", Name: "c.png", Dir: ".", Ext: "png", Size: 300})
	s := NewSearcher(idx, 100)

	// txt or png, at least 200 bytes: a.txt is too small, b.mp4 has the
	// wrong extension, only c.png passes both.
	results, err := s.Search(models.Query{Exts: []string{"txt", "png"}, MinSize: 200})
	if err != nil {
		t.Fatalf("search failed: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("expected exactly 1 result, got %d", len(results))
	}
	if results[0].Name != "c.png" {
		t.Errorf("expected c.png, got %s", results[0].Name)
	}
}

func TestSearcherOrdering(t *testing.T) {
	idx := NewIndex()
	idx.AddRoot(models.Root{Alias: "beta", Path: "/mnt/beta"})
	idx.AddRoot(models.Root{Alias: "alpha", Path: "/mnt/alpha"})
	idx.Upsert("beta", models.FileRecord{Path: "a.txt", Name: "a.txt", Size: 1})
	idx.Upsert("alpha", models.FileRecord{Path: "z.txt", Name: "z.txt", Size: 1})
	idx.Upsert("alpha", models.FileRecord{Path: "a.txt", Name: "a.txt", Size: 1})
	s := NewSearcher(idx, 100)

	results, err := s.Search(models.Query{})
	if err != nil {
		t.Fatalf("search failed: %v", err)
	}
	if len(results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(results))
	}

	// Root alias first, relative path second.
	expected := []struct{ root, path string }{
		{"alpha", "a.txt"},
		{"alpha", "z.txt"},
		{"beta", "a.txt"},
	}
	for i, want := range expected {
		if results[i].Root != want.root || results[i].Path != want.path {
			t.Errorf("result %d: expected %s/%s, got %s/%s",
				i, want.root, want.path, results[i].Root, results[i].Path)
		}
	}
}

func TestSearcherPagination(t *testing.T) {
	idx := NewIndex()
	idx.AddRoot(models.Root{Alias: "main", Path: "/mnt/main"})
	for _, name := range []string{"a.txt", "b.txt", "c.txt", "d.txt", "e.txt"} {
		idx.Upsert("main", models.FileRecord{Path: name, Name: name, Size: 1})
	}
	s := NewSearcher(idx, 2)

	t.Run("zero limit falls back to the page size", func(t *testing.T) {
		results, err := s.Search(models.Query{})
		if err != nil {
			t.Fatalf("search failed: %v", err)
		}
		if len(results) != 2 {
			t.Errorf("expected 2 results, got %d", len(results))
		}
	})

	t.Run("offset walks the ordered results", func(t *testing.T) {
		results, err := s.Search(models.Query{Offset: 2, Limit: 2})
		if err != nil {
			t.Fatalf("search failed: %v", err)
		}
		if len(results) != 2 {
			t.Fatalf("expected 2 results, got %d", len(results))
		}
		if results[0].Path != "c.txt" || results[1].Path != "d.txt" {
			t.Errorf("expected c.txt,d.txt, got %s,%s", results[0].Path, results[1].Path)
		}
	})

	t.Run("offset beyond the end", func(t *testing.T) {
		results, err := s.Search(models.Query{Offset: 99})
		if err != nil {
			t.Fatalf("search failed: %v", err)
		}
		if len(results) != 0 {
			t.Errorf("expected no results, got %d", len(results))
		}
	})

	t.Run("short tail", func(t *testing.T) {
		results, err := s.Search(models.Query{Offset: 4, Limit: 10})
		if err != nil {
			t.Fatalf("search failed: %v", err)
		}
		if len(results) != 1 || results[0].Path != "e.txt" {
			t.Errorf("expected just e.txt, got %v", results)
		}
	})
}

func TestSearcherInvalidQueries(t *testing.T) {
	idx := NewIndex()
	s := NewSearcher(idx, 100)

	tests := []struct {
		name  string
		query models.Query
		field string
	}{
		{"negative min size", models.Query{MinSize: -1}, "min_size"},
		{"negative max size", models.Query{MaxSize: -1}, "max_size"},
		{"inverted size range", models.Query{MinSize: 10, MaxSize: 5}, "min_size"},
		{"files and dirs both", models.Query{OnlyFiles: true, OnlyDirs: true}, "only_files"},
		{"negative offset", models.Query{Offset: -1}, "offset"},
		{"negative limit", models.Query{Limit: -1}, "limit"},
		{"malformed glob", models.Query{Name: "[unclosed"}, "name"},
		{
			"inverted time range",
			models.Query{ModifiedAfter: time.Now(), ModifiedBefore: time.Now().Add(-time.Hour)},
			"modified_after",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.Search(tt.query)
			var qe *models.QueryError
			if !errors.As(err, &qe) {
				t.Fatalf("expected a QueryError, got %v", err)
			}
			if qe.Field != tt.field {
				t.Errorf("expected field %s, got %s", tt.field, qe.Field)
			}
		})
	}
}

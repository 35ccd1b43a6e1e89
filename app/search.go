package app

import (
	"path/filepath"
	"sort"
	"strings"

	"github.com/tiaanhavenga/DriveCatalogue/models"
)

const defaultPageSize = 100

// Searcher evaluates queries against the index. Matching is a conjunction
// of the query's predicates; results come back ordered by root alias then
// relative path so pagination stays stable across calls.
type Searcher struct {
	idx      *Index
	pageSize int
}

func NewSearcher(idx *Index, pageSize int) *Searcher {
	if pageSize <= 0 {
		pageSize = defaultPageSize
	}
	return &Searcher{idx: idx, pageSize: pageSize}
}

func (s *Searcher) Search(q models.Query) ([]models.FileRecord, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}

	match := compileQuery(q)

	var results []models.FileRecord
	s.idx.ForEach(q.Roots, func(rec *models.FileRecord) {
		if match(rec) {
			results = append(results, rec.Clone())
		}
	})

	sort.Slice(results, func(i, j int) bool {
		if results[i].Root != results[j].Root {
			return results[i].Root < results[j].Root
		}
		return results[i].Path < results[j].Path
	})

	limit := q.Limit
	if limit <= 0 {
		limit = s.pageSize
	}
	if q.Offset >= len(results) {
		return nil, nil
	}
	results = results[q.Offset:]
	if len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}

// compileQuery folds the predicates into one match function so the
// per-record work inside the read lock stays cheap.
func compileQuery(q models.Query) func(*models.FileRecord) bool {
	namePattern := strings.ToLower(q.Name)
	nameGlob := q.HasGlob()

	var exts map[string]bool
	if len(q.Exts) > 0 {
		exts = make(map[string]bool, len(q.Exts))
		for _, e := range q.Exts {
			exts[strings.ToLower(strings.TrimPrefix(e, "."))] = true
		}
	}

	return func(rec *models.FileRecord) bool {
		if q.OnlyFiles && rec.IsDir {
			return false
		}
		if q.OnlyDirs && !rec.IsDir {
			return false
		}
		if q.MinSize > 0 && rec.Size < q.MinSize {
			return false
		}
		if q.MaxSize > 0 && rec.Size > q.MaxSize {
			return false
		}
		if exts != nil && !exts[rec.Ext] {
			return false
		}
		if !q.ModifiedAfter.IsZero() && rec.ModTime.Before(q.ModifiedAfter) {
			return false
		}
		if !q.ModifiedBefore.IsZero() && rec.ModTime.After(q.ModifiedBefore) {
			return false
		}
		if namePattern != "" {
			name := strings.ToLower(rec.Name)
			if nameGlob {
				if matched, _ := filepath.Match(namePattern, name); !matched {
					return false
				}
			} else if !strings.Contains(name, namePattern) {
				return false
			}
		}
		return true
	}
}

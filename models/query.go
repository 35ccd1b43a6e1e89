package models

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"
)

// Query describes one search over the catalogue. Predicates combine as a
// conjunction; a zero-valued field places no constraint. Name is matched
// case-insensitively against the base name: as a glob when it contains
// `*`, `?` or `[`, as a substring otherwise.
type Query struct {
	Name           string    `json:"name,omitempty"`
	MinSize        int64     `json:"min_size,omitempty"`
	MaxSize        int64     `json:"max_size,omitempty"`
	Exts           []string  `json:"exts,omitempty"`
	Roots          []string  `json:"roots,omitempty"`
	OnlyFiles      bool      `json:"only_files,omitempty"`
	OnlyDirs       bool      `json:"only_dirs,omitempty"`
	ModifiedAfter  time.Time `json:"modified_after,omitempty"`
	ModifiedBefore time.Time `json:"modified_before,omitempty"`
	Offset         int       `json:"offset,omitempty"`
	Limit          int       `json:"limit,omitempty"` // 0 = engine default
}

// QueryError reports an invalid query field.
type QueryError struct {
	Field  string
	Reason string
}

func (e *QueryError) Error() string {
	return fmt.Sprintf("invalid query: %s: %s", e.Field, e.Reason)
}

// HasGlob reports whether the name pattern should be evaluated as a glob.
func (q Query) HasGlob() bool {
	return strings.ContainsAny(q.Name, "*?[")
}

func (q Query) Validate() error {
	if q.MinSize < 0 {
		return &QueryError{Field: "min_size", Reason: "must not be negative"}
	}
	if q.MaxSize < 0 {
		return &QueryError{Field: "max_size", Reason: "must not be negative"}
	}
	if q.MinSize > 0 && q.MaxSize > 0 && q.MinSize > q.MaxSize {
		return &QueryError{Field: "min_size", Reason: "greater than max_size"}
	}
	if q.OnlyFiles && q.OnlyDirs {
		return &QueryError{Field: "only_files", Reason: "conflicts with only_dirs"}
	}
	if q.Offset < 0 {
		return &QueryError{Field: "offset", Reason: "must not be negative"}
	}
	if q.Limit < 0 {
		return &QueryError{Field: "limit", Reason: "must not be negative"}
	}
	if q.HasGlob() {
		if _, err := filepath.Match(strings.ToLower(q.Name), ""); err != nil {
			return &QueryError{Field: "name", Reason: "malformed pattern"}
		}
	}
	if !q.ModifiedAfter.IsZero() && !q.ModifiedBefore.IsZero() && q.ModifiedAfter.After(q.ModifiedBefore) {
		return &QueryError{Field: "modified_after", Reason: "later than modified_before"}
	}
	return nil
}

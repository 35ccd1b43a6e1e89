package models

import (
	"fmt"
	"time"
)

type JobStatus string

const (
	JobPending   JobStatus = "pending"
	JobRunning   JobStatus = "running"
	JobDone      JobStatus = "done"
	JobFailed    JobStatus = "failed"
	JobCancelled JobStatus = "cancelled"
)

// Terminal reports whether the status is final.
func (s JobStatus) Terminal() bool {
	return s == JobDone || s == JobFailed || s == JobCancelled
}

type ScanOptions struct {
	FollowSymlinks bool     `json:"follow_symlinks" mapstructure:"follow_symlinks"`
	SkipHidden     bool     `json:"skip_hidden" mapstructure:"skip_hidden"`
	IgnorePatterns []string `json:"ignore_patterns,omitempty" mapstructure:"ignore_patterns"`
	MaxDepth       int      `json:"max_depth,omitempty" mapstructure:"max_depth"` // 0 = unlimited
}

func DefaultScanOptions() ScanOptions {
	return ScanOptions{SkipHidden: true}
}

type ErrorKind string

const (
	ErrKindPermission ErrorKind = "permission-denied"
	ErrKindTooLong    ErrorKind = "path-too-long"
	ErrKindNotFound   ErrorKind = "not-found"
	ErrKindIO         ErrorKind = "io-error"
	ErrKindCycle      ErrorKind = "cycle-detected"
)

// ScanError is one non-fatal failure met while crawling. Errors are
// reported alongside records and never stop the traversal.
type ScanError struct {
	Path string    `json:"path"`
	Kind ErrorKind `json:"kind"`
	Msg  string    `json:"msg"`
}

func (e ScanError) Error() string {
	return fmt.Sprintf("%s: %s: %s", e.Kind, e.Path, e.Msg)
}

// ScanSummary carries the aggregate counts of one finished traversal.
type ScanSummary struct {
	Files    int64         `json:"files"`
	Dirs     int64         `json:"dirs"`
	Bytes    int64         `json:"bytes"`
	Errors   int64         `json:"errors"`
	Duration time.Duration `json:"duration"`
}

// ScanEvent is one element of the crawler's event sequence. Exactly one
// field is set: a record, a non-fatal error, or the final summary. The
// summary is the last event of a traversal that ran to completion; a
// cancelled traversal ends without one.
type ScanEvent struct {
	Record  *FileRecord
	Error   *ScanError
	Summary *ScanSummary
}

// ScanJob tracks one queued traversal of a root through its lifecycle.
// Err is set only when Status is failed; Errors collects the per-entry
// failures of a scan that otherwise ran through.
type ScanJob struct {
	ID         string       `json:"id"`
	Root       string       `json:"root"`
	Options    ScanOptions  `json:"options"`
	Status     JobStatus    `json:"status"`
	EnqueuedAt time.Time    `json:"enqueued_at"`
	StartedAt  time.Time    `json:"started_at"`
	FinishedAt time.Time    `json:"finished_at"`
	Summary    *ScanSummary `json:"summary,omitempty"`
	Errors     []ScanError  `json:"errors,omitempty"`
	Err        string       `json:"error,omitempty"`
}

// Clone returns a copy safe to hand out while the worker keeps mutating
// the original.
func (j *ScanJob) Clone() *ScanJob {
	c := *j
	if j.Summary != nil {
		s := *j.Summary
		c.Summary = &s
	}
	if j.Errors != nil {
		c.Errors = make([]ScanError, len(j.Errors))
		copy(c.Errors, j.Errors)
	}
	if j.Options.IgnorePatterns != nil {
		c.Options.IgnorePatterns = make([]string, len(j.Options.IgnorePatterns))
		copy(c.Options.IgnorePatterns, j.Options.IgnorePatterns)
	}
	return &c
}

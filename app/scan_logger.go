package app

import (
	"compress/gzip"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/tiaanhavenga/DriveCatalogue/models"
)

// ScanLog is a per-scan audit trail: one gzipped file per scan, named
// after the root and the start time, holding every traversal error and
// the final summary. Old logs for the same root are pruned on open.
type ScanLog struct {
	file    *os.File
	gz      *gzip.Writer
	logger  *log.Logger
	path    string
	started time.Time
}

// NewScanLog opens a fresh log file for one scan of root under dir.
func NewScanLog(dir, root string, retentionDays int) (*ScanLog, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create scan log dir: %w", err)
	}
	if retentionDays > 0 {
		pruneScanLogs(dir, root, retentionDays)
	}

	started := time.Now()
	name := fmt.Sprintf("%s_scan_%s.log.gz", root, started.Format("2006-01-02_15-04-05"))
	path := filepath.Join(dir, name)
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to create scan log: %w", err)
	}

	gz := gzip.NewWriter(file)
	sl := &ScanLog{
		file:    file,
		gz:      gz,
		logger:  log.New(gz, "", log.LstdFlags),
		path:    path,
		started: started,
	}
	sl.logger.Printf("scan of %s started", root)
	return sl, nil
}

// pruneScanLogs removes this root's logs older than the retention
// window. Failures are not worth surfacing to the scan itself.
func pruneScanLogs(dir, root string, retentionDays int) {
	cutoff := time.Now().AddDate(0, 0, -retentionDays)
	matches, err := filepath.Glob(filepath.Join(dir, root+"_scan_*.log.gz"))
	if err != nil {
		return
	}
	for _, path := range matches {
		info, err := os.Stat(path)
		if err != nil {
			continue
		}
		if info.ModTime().Before(cutoff) {
			os.Remove(path)
		}
	}
}

// Error records one traversal error.
func (sl *ScanLog) Error(se models.ScanError) {
	sl.logger.Printf("error [%s] %s: %s", se.Kind, se.Path, se.Msg)
}

// Finish records the outcome. A nil summary means the scan stopped
// before the traversal completed.
func (sl *ScanLog) Finish(summary *models.ScanSummary) {
	if summary == nil {
		sl.logger.Printf("scan stopped after %v without completing", time.Since(sl.started).Round(time.Millisecond))
		return
	}
	sl.logger.Printf("scan completed in %v: %d files, %d dirs, %d bytes, %d errors",
		summary.Duration.Round(time.Millisecond), summary.Files, summary.Dirs, summary.Bytes, summary.Errors)
}

func (sl *ScanLog) Close() error {
	if err := sl.gz.Close(); err != nil {
		sl.file.Close()
		return err
	}
	return sl.file.Close()
}

// Path returns the log file location.
func (sl *ScanLog) Path() string {
	return sl.path
}

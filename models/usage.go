package models

import "time"

// UsageReport combines catalogued usage with live volume capacity.
// UsedBytes reflects the catalogue as of the last completed scan; Free and
// Total come from the OS at the time the report is taken. Supported is
// false when the platform cannot answer the capacity question.
type UsageReport struct {
	Root       string    `json:"root"`
	Path       string    `json:"path"`
	UsedBytes  int64     `json:"used_bytes"`
	FreeBytes  int64     `json:"free_bytes"`
	TotalBytes int64     `json:"total_bytes"`
	Files      int64     `json:"files"`
	Dirs       int64     `json:"dirs"`
	LastScan   time.Time `json:"last_scan"`
	CapturedAt time.Time `json:"captured_at"`
	Supported  bool      `json:"supported"`
}

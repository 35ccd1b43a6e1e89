package models

import "time"

// Root is one registered storage location. Alias is the unique key used in
// queries and job bookkeeping; Path is the normalized absolute path.
// ScannedCapacity and ScannedFree are captured when a scan completes, so a
// report can show the volume state as of the catalogue, not only live.
type Root struct {
	Alias           string    `json:"alias" db:"alias"`
	Path            string    `json:"path" db:"path"`
	AddedAt         time.Time `json:"added_at" db:"added_at"`
	LastScan        time.Time `json:"last_scan" db:"last_scan"`
	ScannedCapacity int64     `json:"scanned_capacity,omitempty" db:"scanned_capacity"`
	ScannedFree     int64     `json:"scanned_free,omitempty" db:"scanned_free"`
}

package models

import "time"

// Snapshot is the full exportable state of the catalogue: roots, records
// and job history. A snapshot loaded at startup makes a rescan optional.
type Snapshot struct {
	Roots   []Root       `json:"roots"`
	Records []FileRecord `json:"records"`
	Jobs    []ScanJob    `json:"jobs"`
	SavedAt time.Time    `json:"saved_at"`
}

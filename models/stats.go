package models

import "time"

// ExtStat aggregates one extension's share of a root.
type ExtStat struct {
	Ext   string `json:"ext"`
	Count int64  `json:"count"`
	Bytes int64  `json:"bytes"`
}

// DirStat is one directory's cumulative weight: the bytes and file count
// of everything below it, however deep.
type DirStat struct {
	Path  string `json:"path"`
	Files int64  `json:"files"`
	Bytes int64  `json:"bytes"`
}

// SizeBucket counts the files whose size falls inside one labelled range.
type SizeBucket struct {
	Label string `json:"label"`
	Count int64  `json:"count"`
	Bytes int64  `json:"bytes"`
}

// YearStat groups files by modification year.
type YearStat struct {
	Year  int   `json:"year"`
	Count int64 `json:"count"`
	Bytes int64 `json:"bytes"`
}

// CatalogStats summarizes one root's catalogued contents.
type CatalogStats struct {
	Root       string       `json:"root"`
	Files      int64        `json:"files"`
	Dirs       int64        `json:"dirs"`
	Bytes      int64        `json:"bytes"`
	Extensions []ExtStat    `json:"extensions,omitempty"`
	Largest    []FileRecord `json:"largest,omitempty"`
	Recent     []FileRecord `json:"recent,omitempty"`
	SizeRanges []SizeBucket `json:"size_ranges,omitempty"`
	Years      []YearStat   `json:"years,omitempty"`
	LastScan   time.Time    `json:"last_scan"`
}

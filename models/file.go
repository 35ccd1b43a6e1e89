package models

import "time"

// FileRecord is one catalogued filesystem entry. Records are unique per
// (Root, Path) pair; Path is relative to the root and slash-separated.
type FileRecord struct {
	Root    string            `json:"root" db:"root"`
	Path    string            `json:"path" db:"path"`
	Name    string            `json:"name" db:"name"`
	Dir     string            `json:"dir" db:"dir"`
	Ext     string            `json:"ext" db:"ext"`
	Size    int64             `json:"size" db:"size"`
	ModTime time.Time         `json:"mod_time" db:"mod_time"`
	IsDir   bool              `json:"is_dir" db:"is_dir"`
	Meta    map[string]string `json:"meta,omitempty" db:"meta_json"`
}

// Clone returns a copy that shares nothing with the receiver.
func (f FileRecord) Clone() FileRecord {
	c := f
	if f.Meta != nil {
		c.Meta = make(map[string]string, len(f.Meta))
		for k, v := range f.Meta {
			c.Meta[k] = v
		}
	}
	return c
}

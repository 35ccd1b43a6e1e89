package app

import (
	"fmt"
	"path"
	"sort"

	"github.com/tiaanhavenga/DriveCatalogue/models"
)

// DirSizes rolls the partition up into per-directory totals. Every file
// counts toward each of its ancestor directories, so a directory's
// total covers its whole subtree. Catalogued directories with no files
// underneath still appear with zero totals. Results are ordered by
// bytes descending then path, capped at top when top > 0.
func (ix *Index) DirSizes(alias string, top int) ([]models.DirStat, error) {
	ix.mu.RLock()
	defer ix.mu.RUnlock()

	p, ok := ix.parts[alias]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownRoot, alias)
	}

	acc := make(map[string]*models.DirStat)
	for _, e := range p.entries {
		if e.rec.IsDir {
			if _, ok := acc[e.rec.Path]; !ok {
				acc[e.rec.Path] = &models.DirStat{Path: e.rec.Path}
			}
			continue
		}
		for dir := e.rec.Dir; dir != "" && dir != "." && dir != "/"; dir = path.Dir(dir) {
			ds, ok := acc[dir]
			if !ok {
				ds = &models.DirStat{Path: dir}
				acc[dir] = ds
			}
			ds.Files++
			ds.Bytes += e.rec.Size
		}
	}

	out := make([]models.DirStat, 0, len(acc))
	for _, ds := range acc {
		out = append(out, *ds)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Bytes != out[j].Bytes {
			return out[i].Bytes > out[j].Bytes
		}
		return out[i].Path < out[j].Path
	})
	if top > 0 && len(out) > top {
		out = out[:top]
	}
	return out, nil
}

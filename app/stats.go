package app

import (
	"fmt"
	"sort"

	"github.com/tiaanhavenga/DriveCatalogue/models"
)

// statsYears caps the modification-year breakdown.
const statsYears = 10

// sizeBuckets labels the file size distribution. Max is exclusive; the
// last bucket is open ended.
var sizeBuckets = []struct {
	label string
	max   int64
}{
	{"< 1 KB", 1 << 10},
	{"1 KB - 100 KB", 100 << 10},
	{"100 KB - 1 MB", 1 << 20},
	{"1 MB - 10 MB", 10 << 20},
	{"10 MB - 100 MB", 100 << 20},
	{"100 MB - 1 GB", 1 << 30},
	{"> 1 GB", 0},
}

// Stats builds the per-root summary in one pass over the partition:
// counts, bytes, the heaviest extensions by total size, the largest and
// most recently modified files, the size distribution and the
// modification-year breakdown. Empty size buckets are omitted.
func (ix *Index) Stats(alias string, topExts, topFiles int) (models.CatalogStats, error) {
	ix.mu.RLock()
	defer ix.mu.RUnlock()

	p, ok := ix.parts[alias]
	if !ok {
		return models.CatalogStats{}, fmt.Errorf("%w: %s", ErrUnknownRoot, alias)
	}

	stats := models.CatalogStats{Root: alias, LastScan: p.root.LastScan}
	byExt := make(map[string]*models.ExtStat)
	byYear := make(map[int]*models.YearStat)
	buckets := make([]models.SizeBucket, len(sizeBuckets))

	for _, e := range p.entries {
		if e.rec.IsDir {
			stats.Dirs++
			continue
		}
		stats.Files++
		stats.Bytes += e.rec.Size

		es, ok := byExt[e.rec.Ext]
		if !ok {
			es = &models.ExtStat{Ext: e.rec.Ext}
			byExt[e.rec.Ext] = es
		}
		es.Count++
		es.Bytes += e.rec.Size

		b := &buckets[bucketFor(e.rec.Size)]
		b.Count++
		b.Bytes += e.rec.Size

		if !e.rec.ModTime.IsZero() {
			year := e.rec.ModTime.Year()
			ys, ok := byYear[year]
			if !ok {
				ys = &models.YearStat{Year: year}
				byYear[year] = ys
			}
			ys.Count++
			ys.Bytes += e.rec.Size
		}

		if topFiles > 0 {
			stats.Largest = insertLargest(stats.Largest, e.rec, topFiles)
			stats.Recent = insertRecent(stats.Recent, e.rec, topFiles)
		}
	}

	for _, es := range byExt {
		stats.Extensions = append(stats.Extensions, *es)
	}
	sort.Slice(stats.Extensions, func(i, j int) bool {
		if stats.Extensions[i].Bytes != stats.Extensions[j].Bytes {
			return stats.Extensions[i].Bytes > stats.Extensions[j].Bytes
		}
		return stats.Extensions[i].Ext < stats.Extensions[j].Ext
	})
	if topExts > 0 && len(stats.Extensions) > topExts {
		stats.Extensions = stats.Extensions[:topExts]
	}

	for i, b := range buckets {
		if b.Count == 0 {
			continue
		}
		b.Label = sizeBuckets[i].label
		stats.SizeRanges = append(stats.SizeRanges, b)
	}

	for _, ys := range byYear {
		stats.Years = append(stats.Years, *ys)
	}
	sort.Slice(stats.Years, func(i, j int) bool { return stats.Years[i].Year > stats.Years[j].Year })
	if len(stats.Years) > statsYears {
		stats.Years = stats.Years[:statsYears]
	}

	return stats, nil
}

// bucketFor returns the index of the first bucket whose max exceeds
// size, falling through to the open-ended last bucket.
func bucketFor(size int64) int {
	for i, b := range sizeBuckets {
		if b.max > 0 && size < b.max {
			return i
		}
	}
	return len(sizeBuckets) - 1
}

// insertLargest keeps a size-descending slice of at most max records.
func insertLargest(largest []models.FileRecord, rec models.FileRecord, max int) []models.FileRecord {
	pos := sort.Search(len(largest), func(i int) bool { return largest[i].Size < rec.Size })
	return insertAt(largest, rec, pos, max)
}

// insertRecent keeps a mod-time-descending slice of at most max records.
func insertRecent(recent []models.FileRecord, rec models.FileRecord, max int) []models.FileRecord {
	pos := sort.Search(len(recent), func(i int) bool { return recent[i].ModTime.Before(rec.ModTime) })
	return insertAt(recent, rec, pos, max)
}

func insertAt(records []models.FileRecord, rec models.FileRecord, pos, max int) []models.FileRecord {
	if pos >= max {
		return records
	}
	records = append(records, models.FileRecord{})
	copy(records[pos+1:], records[pos:])
	records[pos] = rec.Clone()
	if len(records) > max {
		records = records[:max]
	}
	return records
}

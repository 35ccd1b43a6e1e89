package app

import (
	"time"

	"github.com/tiaanhavenga/DriveCatalogue/models"
)

// Reporter answers space questions: used bytes come from the catalogue as
// of the last completed scan, free and total from the OS at call time.
type Reporter struct {
	idx *Index
}

func NewReporter(idx *Index) *Reporter {
	return &Reporter{idx: idx}
}

func (r *Reporter) Report(alias string) (models.UsageReport, error) {
	root, err := r.idx.Root(alias)
	if err != nil {
		return models.UsageReport{}, err
	}
	files, dirs, used, err := r.idx.Usage(alias)
	if err != nil {
		return models.UsageReport{}, err
	}

	report := models.UsageReport{
		Root:       alias,
		Path:       root.Path,
		UsedBytes:  used,
		Files:      files,
		Dirs:       dirs,
		LastScan:   root.LastScan,
		CapturedAt: time.Now(),
	}

	if total, free, err := diskCapacity(root.Path); err == nil {
		report.TotalBytes = total
		report.FreeBytes = free
		report.Supported = true
	}
	return report, nil
}

// Reports builds a usage report for every registered root, sorted by
// alias. Roots removed mid-iteration are skipped.
func (r *Reporter) Reports() []models.UsageReport {
	var reports []models.UsageReport
	for _, root := range r.idx.Roots() {
		rep, err := r.Report(root.Alias)
		if err != nil {
			continue
		}
		reports = append(reports, rep)
	}
	return reports
}

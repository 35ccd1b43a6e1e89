package app

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/tiaanhavenga/DriveCatalogue/models"
)

var csvHeader = []string{"root", "path", "name", "dir", "ext", "size", "mod_time", "is_dir", "category"}

// WriteCSV writes records as CSV with a header row. Times are RFC3339;
// a record without a mod time gets an empty cell.
func WriteCSV(w io.Writer, records []models.FileRecord) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return err
	}
	for i := range records {
		rec := &records[i]
		modTime := ""
		if !rec.ModTime.IsZero() {
			modTime = rec.ModTime.Format(time.RFC3339)
		}
		row := []string{
			rec.Root,
			rec.Path,
			rec.Name,
			rec.Dir,
			rec.Ext,
			strconv.FormatInt(rec.Size, 10),
			modTime,
			strconv.FormatBool(rec.IsDir),
			rec.Meta["category"],
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("failed to write csv: %w", err)
	}
	return nil
}

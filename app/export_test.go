package app

import (
	"bytes"
	"encoding/csv"
	"testing"
	"time"

	"github.com/tiaanhavenga/DriveCatalogue/models"
)

func TestWriteCSV(t *testing.T) {
	mod := time.Date(2024, 6, 1, 12, 30, 0, 0, time.UTC)
	records := []models.FileRecord{
		{
			Root: "main", Path: "photos/sunset.jpg", Name: "sunset.jpg", Dir: "photos",
			Ext: "jpg", Size: 2048, ModTime: mod,
			Meta: map[string]string{"category": "image"},
		},
		{Root: "main", Path: "photos", Name: "photos", Dir: ".", IsDir: true},
	}

	var buf bytes.Buffer
	if err := WriteCSV(&buf, records); err != nil {
		t.Fatalf("WriteCSV failed: %v", err)
	}

	rows, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("failed to parse output: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("expected header plus 2 rows, got %d", len(rows))
	}

	want := [][]string{
		{"root", "path", "name", "dir", "ext", "size", "mod_time", "is_dir", "category"},
		{"main", "photos/sunset.jpg", "sunset.jpg", "photos", "jpg", "2048", "2024-06-01T12:30:00Z", "false", "image"},
		{"main", "photos", "photos", ".", "", "0", "", "true", ""},
	}
	for i, row := range want {
		for j, cell := range row {
			if rows[i][j] != cell {
				t.Errorf("row %d col %d: expected %q, got %q", i, j, cell, rows[i][j])
			}
		}
	}
}

func TestWriteCSVEmpty(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteCSV(&buf, nil); err != nil {
		t.Fatalf("WriteCSV failed: %v", err)
	}

	rows, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("failed to parse output: %v", err)
	}
	if len(rows) != 1 {
		t.Errorf("expected only the header, got %d rows", len(rows))
	}
}

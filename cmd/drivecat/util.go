package main

import (
	"os/exec"
	"path/filepath"
	"runtime"
)

// joinRecordPath turns a record's slash-relative path back into an
// absolute path under its root. "." is the root itself.
func joinRecordPath(rootPath, rel string) string {
	if rel == "." {
		return rootPath
	}
	return filepath.Join(rootPath, filepath.FromSlash(rel))
}

// colorPalette holds readable background colors for root badges.
var colorPalette = []string{
	"27",  // Blue
	"29",  // Green
	"124", // Red
	"130", // Orange
	"93",  // Purple
	"172", // Yellow
	"37",  // Cyan
	"64",  // Olive
	"166", // Dark Orange
	"97",  // Light Purple
}

// rootColor picks a deterministic color for a root alias.
func rootColor(alias string) string {
	hash := 0
	for _, char := range alias {
		hash += int(char)
	}
	return colorPalette[hash%len(colorPalette)]
}

// openFile opens the file with the default system application.
func openFile(filePath string) error {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "windows":
		cmd = exec.Command("cmd", "/c", "start", "", filePath)
	case "darwin":
		cmd = exec.Command("open", filePath)
	default: // linux, bsd, etc.
		cmd = exec.Command("xdg-open", filePath)
	}
	return cmd.Start()
}

package app

import (
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
)

func TestNormalizeRoot(t *testing.T) {
	dir := t.TempDir()

	t.Run("plain directory", func(t *testing.T) {
		got, err := NormalizeRoot(dir)
		if err != nil {
			t.Fatalf("NormalizeRoot failed: %v", err)
		}
		if !filepath.IsAbs(got) {
			t.Errorf("expected absolute path, got %s", got)
		}
	})

	t.Run("trailing separator is stripped", func(t *testing.T) {
		a, err := NormalizeRoot(dir)
		if err != nil {
			t.Fatalf("NormalizeRoot failed: %v", err)
		}
		b, err := NormalizeRoot(dir + string(filepath.Separator))
		if err != nil {
			t.Fatalf("NormalizeRoot failed: %v", err)
		}
		if a != b {
			t.Errorf("expected %s and %s to normalize equal", a, b)
		}
	})

	t.Run("symlinked spelling resolves to the target", func(t *testing.T) {
		if runtime.GOOS == "windows" {
			t.Skip("symlinks need privileges on windows")
		}
		link := filepath.Join(t.TempDir(), "link")
		if err := os.Symlink(dir, link); err != nil {
			t.Fatalf("failed to create symlink: %v", err)
		}

		direct, err := NormalizeRoot(dir)
		if err != nil {
			t.Fatalf("NormalizeRoot failed: %v", err)
		}
		viaLink, err := NormalizeRoot(link)
		if err != nil {
			t.Fatalf("NormalizeRoot failed: %v", err)
		}
		if direct != viaLink {
			t.Errorf("expected symlinked spelling to normalize to %s, got %s", direct, viaLink)
		}
	})

	t.Run("empty path", func(t *testing.T) {
		if _, err := NormalizeRoot("  "); !errors.Is(err, ErrInvalidRoot) {
			t.Errorf("expected ErrInvalidRoot, got %v", err)
		}
	})

	t.Run("missing path", func(t *testing.T) {
		if _, err := NormalizeRoot(filepath.Join(dir, "nope")); !errors.Is(err, ErrInvalidRoot) {
			t.Errorf("expected ErrInvalidRoot, got %v", err)
		}
	})

	t.Run("regular file is not a root", func(t *testing.T) {
		file := filepath.Join(dir, "file.txt")
		if err := os.WriteFile(file, []byte("x"), 0644); err != nil {
			t.Fatalf("failed to create file: %v", err)
		}
		if _, err := NormalizeRoot(file); !errors.Is(err, ErrInvalidRoot) {
			t.Errorf("expected ErrInvalidRoot, got %v", err)
		}
	})
}

func TestValidateAlias(t *testing.T) {
	tests := []struct {
		name    string
		alias   string
		wantErr bool
	}{
		{"simple", "photos", false},
		{"with dash and digits", "backup-2025", false},
		{"empty", "", true},
		{"whitespace only", "   ", true},
		{"slash", "foo/bar", true},
		{"backslash", `foo\bar`, true},
		{"too long", strings.Repeat("a", 65), true},
		{"max length", strings.Repeat("a", 64), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateAlias(tt.alias)
			if tt.wantErr && !errors.Is(err, ErrInvalidRoot) {
				t.Errorf("expected ErrInvalidRoot, got %v", err)
			}
			if !tt.wantErr && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

func TestRelPath(t *testing.T) {
	root := filepath.Join("/", "mnt", "data")

	tests := []struct {
		name     string
		abs      string
		expected string
	}{
		{"root itself", root, "."},
		{"direct child", filepath.Join(root, "a.txt"), "a.txt"},
		{"nested", filepath.Join(root, "x", "y", "z.txt"), "x/y/z.txt"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := RelPath(root, tt.abs)
			if err != nil {
				t.Fatalf("RelPath failed: %v", err)
			}
			if got != tt.expected {
				t.Errorf("RelPath(%q) = %q, expected %q", tt.abs, got, tt.expected)
			}
		})
	}
}

func TestSplitExt(t *testing.T) {
	tests := []struct {
		name     string
		expected string
	}{
		{"report.pdf", "pdf"},
		{"archive.tar.gz", "gz"},
		{"UPPER.JPG", "jpg"},
		{"noext", ""},
		{".hidden", ""},
		{".hidden.txt", "txt"},
		{"trailingdot.", ""},
	}

	for _, tt := range tests {
		if got := SplitExt(tt.name); got != tt.expected {
			t.Errorf("SplitExt(%q) = %q, expected %q", tt.name, got, tt.expected)
		}
	}
}

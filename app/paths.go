package app

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// NormalizeRoot resolves path to the canonical absolute directory it
// identifies: absolute, cleaned, symlinks on the root itself resolved,
// trailing separator stripped. Two spellings of the same directory
// normalize to equal strings.
func NormalizeRoot(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return "", fmt.Errorf("%w: path is empty", ErrInvalidRoot)
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %v", ErrInvalidRoot, path, err)
	}
	resolved, err := filepath.EvalSymlinks(abs)
	if err != nil {
		return "", fmt.Errorf("%w: failed to resolve %s: %v", ErrInvalidRoot, abs, err)
	}
	info, err := os.Stat(resolved)
	if err != nil {
		return "", fmt.Errorf("%w: failed to stat %s: %v", ErrInvalidRoot, resolved, err)
	}
	if !info.IsDir() {
		return "", fmt.Errorf("%w: %s is not a directory", ErrInvalidRoot, resolved)
	}
	return filepath.Clean(resolved), nil
}

// ValidateAlias rejects aliases that cannot serve as a stable key.
func ValidateAlias(alias string) error {
	if strings.TrimSpace(alias) == "" {
		return fmt.Errorf("%w: alias is empty", ErrInvalidRoot)
	}
	if len(alias) > 64 {
		return fmt.Errorf("%w: alias %q is too long (max 64)", ErrInvalidRoot, alias)
	}
	if strings.ContainsAny(alias, "/\\") {
		return fmt.Errorf("%w: alias %q contains a path separator", ErrInvalidRoot, alias)
	}
	return nil
}

// RelPath converts an absolute path inside root to the slash-separated
// relative form used as the index key. The root itself maps to ".".
func RelPath(root, abs string) (string, error) {
	rel, err := filepath.Rel(root, abs)
	if err != nil {
		return "", fmt.Errorf("failed to relativize %s against %s: %w", abs, root, err)
	}
	return filepath.ToSlash(rel), nil
}

// SplitExt returns the lowercased extension without the leading dot.
// Dotfiles and names without a dot have no extension.
func SplitExt(name string) string {
	ext := filepath.Ext(name)
	if ext == "" || ext == name {
		return ""
	}
	return strings.ToLower(strings.TrimPrefix(ext, "."))
}

package pathutil

import (
	"path/filepath"
	"strings"
)

// Normalize resolves path to a canonical absolute form. The engine itself
// does no normalisation; this runs once at the CLI boundary.
func Normalize(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}
	return filepath.Clean(abs), nil
}

// IsRoot reports whether path names a filesystem root or a volume root
// (C:\ style). The CLI refuses such targets without --force.
func IsRoot(path string) bool {
	clean := filepath.Clean(path)
	if clean == string(filepath.Separator) {
		return true
	}
	vol := filepath.VolumeName(clean)
	if vol == "" {
		return false
	}
	rest := strings.TrimPrefix(clean, vol)
	return rest == "" || rest == string(filepath.Separator)
}

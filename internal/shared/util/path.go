package util

import (
	"errors"
	"path/filepath"
	"strings"
)

// ErrOutsideRoot is returned when a path does not resolve to a file under root.
var ErrOutsideRoot = errors.New("path is outside the allowed root")

// ResolveWithin resolves path against root, following symlinks on both, and
// returns the real path only when it stays under root. Relative paths are
// taken from root. A path that cannot be resolved is reported the same way as
// one that escapes.
func ResolveWithin(root, path string) (string, error) {
	if strings.TrimSpace(root) == "" || strings.TrimSpace(path) == "" {
		return "", ErrOutsideRoot
	}
	rootAbs, err := filepath.Abs(root)
	if err != nil {
		return "", err
	}
	rootReal, err := filepath.EvalSymlinks(rootAbs)
	if err != nil {
		return "", err
	}
	if !filepath.IsAbs(path) {
		path = filepath.Join(rootReal, path)
	}
	real, err := filepath.EvalSymlinks(filepath.Clean(path))
	if err != nil {
		return "", ErrOutsideRoot
	}
	rel, err := filepath.Rel(rootReal, real)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", ErrOutsideRoot
	}
	return real, nil
}

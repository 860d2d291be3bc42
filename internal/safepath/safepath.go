// Package safepath validates untrusted filenames and canonical directory
// containment before any filesystem path is trusted.
package safepath

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

var (
	// ErrEmptyName rejects an empty filename.
	ErrEmptyName = errors.New("safepath: empty filename")

	// ErrPathSeparator rejects filenames carrying a path separator. Only
	// the two ASCII separators are treated as separators; Unicode
	// look-alike handling is an open hardening item.
	ErrPathSeparator = errors.New("safepath: filename contains a path separator")
)

// CheckFilename enforces single-segment filenames. Separator-bearing
// inputs (absolute paths, traversal sequences) are rejected before any
// filesystem lookup happens.
func CheckFilename(name string) error {
	if name == "" {
		return ErrEmptyName
	}
	if strings.ContainsAny(name, `/\`) {
		return fmt.Errorf("%w: %q", ErrPathSeparator, name)
	}
	return nil
}

// Canonical resolves symlinks and normalizes path to its definitive
// absolute form. The path must exist.
func Canonical(path string) (string, error) {
	resolved, err := filepath.EvalSymlinks(path)
	if err != nil {
		return "", err
	}
	return filepath.Abs(resolved)
}

// Contained reports whether target canonicalizes to dir or a descendant
// of dir. Both sides are symlink-resolved first, so a link pointing out
// of dir does not pass.
func Contained(dir string, target string) (bool, error) {
	canonDir, err := Canonical(dir)
	if err != nil {
		return false, err
	}
	canonTarget, err := Canonical(target)
	if err != nil {
		return false, err
	}
	return HasPathPrefix(canonTarget, canonDir), nil
}

// HasPathPrefix reports whether path equals prefix or lies below it. The
// comparison is separator-bounded: /a/models-extra is not inside
// /a/models.
func HasPathPrefix(path string, prefix string) bool {
	if path == prefix {
		return true
	}
	if !strings.HasSuffix(prefix, string(filepath.Separator)) {
		prefix += string(filepath.Separator)
	}
	return strings.HasPrefix(path, prefix)
}

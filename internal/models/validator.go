package models

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/murmur-dev/murmur/internal/safepath"
)

// RejectReason classifies why a persisted model selection was refused.
type RejectReason int

const (
	RejectEmpty RejectReason = iota + 1
	RejectPathSeparator
	RejectEscape
	RejectMissing
	RejectIsDirectory
)

func (r RejectReason) String() string {
	switch r {
	case RejectEmpty:
		return "empty filename"
	case RejectPathSeparator:
		return "filename contains a path separator"
	case RejectEscape:
		return "path escapes the models directory"
	case RejectMissing:
		return "file does not exist"
	case RejectIsDirectory:
		return "path is a directory"
	default:
		return "rejected"
	}
}

// SelectionError reports a rejected model selection. Callers discard the
// stored selection and fall back to the bundle default; that policy lives
// in the selection store, not here.
type SelectionError struct {
	Filename string
	Reason   RejectReason
}

func (e *SelectionError) Error() string {
	return fmt.Sprintf("models: selection %q rejected: %s", e.Filename, e.Reason)
}

// ValidateSelection checks a persisted filename against modelsDir and
// returns the canonical absolute path of the accepted model file. Checks
// run in order: empty, path separators (before any filesystem lookup),
// canonical containment, existence, not-a-directory.
func ValidateSelection(filename string, modelsDir string) (string, error) {
	if err := safepath.CheckFilename(filename); err != nil {
		reason := RejectPathSeparator
		if errors.Is(err, safepath.ErrEmptyName) {
			reason = RejectEmpty
		}
		return "", &SelectionError{Filename: filename, Reason: reason}
	}

	canonDir, err := safepath.Canonical(modelsDir)
	if err != nil {
		return "", &SelectionError{Filename: filename, Reason: RejectEscape}
	}

	joined := filepath.Join(modelsDir, filename)
	resolved, err := safepath.Canonical(joined)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", &SelectionError{Filename: filename, Reason: RejectMissing}
		}
		return "", &SelectionError{Filename: filename, Reason: RejectEscape}
	}
	if !safepath.HasPathPrefix(resolved, canonDir) {
		return "", &SelectionError{Filename: filename, Reason: RejectEscape}
	}

	info, err := os.Stat(resolved)
	if err != nil {
		return "", &SelectionError{Filename: filename, Reason: RejectMissing}
	}
	if info.IsDir() {
		return "", &SelectionError{Filename: filename, Reason: RejectIsDirectory}
	}
	return resolved, nil
}

// Package scratch manages sensitive per-session ephemeral files: hardened
// allocation, zero-fill erasure, and recursive secure removal.
package scratch

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

// eraseChunkSize bounds memory during zero-fill regardless of file size.
const eraseChunkSize = 256 * 1024

// File is one allocated scratch target inside a private session directory.
// The directory is owned by exactly one capture session and is destroyed
// with the session.
type File struct {
	Dir  string
	Path string
}

// Allocate creates a uniquely named owner-only session directory under
// parent and a hardened target file named name inside it. The file's
// permissions are tightened to owner read/write before any writer touches
// it; when hardening fails the partial directory is removed and an error
// is returned so no loosely permissioned sensitive file is left behind.
func Allocate(parent string, name string) (File, error) {
	if err := os.MkdirAll(parent, 0o700); err != nil {
		return File{}, fmt.Errorf("scratch: ensure parent %s: %w", parent, err)
	}

	dir := filepath.Join(parent, uuid.NewString())
	if err := os.Mkdir(dir, 0o700); err != nil {
		return File{}, fmt.Errorf("scratch: create session dir: %w", err)
	}

	path := filepath.Join(dir, name)
	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o600)
	if err != nil {
		_ = os.RemoveAll(dir)
		return File{}, fmt.Errorf("scratch: create %s: %w", path, err)
	}
	if err := f.Chmod(0o600); err != nil {
		_ = f.Close()
		_ = os.RemoveAll(dir)
		return File{}, fmt.Errorf("scratch: harden %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		_ = os.RemoveAll(dir)
		return File{}, fmt.Errorf("scratch: close %s: %w", path, err)
	}

	return File{Dir: dir, Path: path}, nil
}

// SecureRemove overwrites the file's current contents with zero bytes in
// bounded chunks, flushes to storage, then unlinks it. When the file
// cannot be opened for writing the erase is skipped best-effort and the
// removal still proceeds; the open failure is still reported so tree
// cleanup can surface it. Re-erasing an already zeroed or missing file is
// harmless.
func SecureRemove(path string) error {
	info, err := os.Lstat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("scratch: stat %s: %w", path, err)
	}

	var eraseErr error
	if info.Mode().IsRegular() && info.Size() > 0 {
		f, openErr := os.OpenFile(path, os.O_WRONLY, 0)
		if openErr != nil {
			eraseErr = fmt.Errorf("scratch: open for erase %s: %w", path, openErr)
		} else {
			if err := zeroFill(f, info.Size()); err != nil {
				eraseErr = fmt.Errorf("scratch: erase %s: %w", path, err)
			} else if err := f.Sync(); err != nil {
				eraseErr = fmt.Errorf("scratch: sync %s: %w", path, err)
			}
			_ = f.Close()
		}
	}

	if err := os.Remove(path); err != nil && eraseErr == nil {
		eraseErr = fmt.Errorf("scratch: remove %s: %w", path, err)
	}
	return eraseErr
}

// zeroFill writes length zero bytes from offset zero.
func zeroFill(f *os.File, length int64) error {
	if _, err := f.Seek(0, 0); err != nil {
		return err
	}
	zeros := make([]byte, eraseChunkSize)
	for remaining := length; remaining > 0; {
		chunk := int64(len(zeros))
		if remaining < chunk {
			chunk = remaining
		}
		if _, err := f.Write(zeros[:chunk]); err != nil {
			return err
		}
		remaining -= chunk
	}
	return nil
}

// CleanupError composes every failure encountered while destroying a
// scratch tree. Cause is the first failure; Failures counts all of them.
// Callers report it after the fact; it never reverses a transcription
// that already succeeded.
type CleanupError struct {
	Cause    error
	Failures int
}

func (e *CleanupError) Error() string {
	if e.Failures > 1 {
		return fmt.Sprintf("scratch: cleanup failed (%d failures, first: %v)", e.Failures, e.Cause)
	}
	return fmt.Sprintf("scratch: cleanup failed: %v", e.Cause)
}

func (e *CleanupError) Unwrap() error { return e.Cause }

// SecureRemoveTree applies SecureRemove depth-first to every regular file
// under dir, removing each directory after its contents. Individual
// failures are collected while the remaining entries are still attempted;
// one composed *CleanupError is returned when anything failed. A missing
// dir is a no-op.
func SecureRemoveTree(dir string) error {
	if _, err := os.Lstat(dir); errors.Is(err, fs.ErrNotExist) {
		return nil
	}

	var first error
	failures := 0
	record := func(err error) {
		if err == nil {
			return
		}
		failures++
		if first == nil {
			first = err
		}
	}

	var walk func(string)
	walk = func(p string) {
		entries, err := os.ReadDir(p)
		if err != nil {
			record(fmt.Errorf("scratch: read dir %s: %w", p, err))
			return
		}
		for _, entry := range entries {
			child := filepath.Join(p, entry.Name())
			switch {
			case entry.IsDir():
				walk(child)
			case entry.Type().IsRegular():
				record(SecureRemove(child))
			default:
				// sockets, symlinks and the like hold no recoverable
				// plaintext of their own; unlink without erase
				if err := os.Remove(child); err != nil {
					record(fmt.Errorf("scratch: remove %s: %w", child, err))
				}
			}
		}
		if err := os.Remove(p); err != nil {
			record(fmt.Errorf("scratch: remove dir %s: %w", p, err))
		}
	}
	walk(dir)

	if failures > 0 {
		return &CleanupError{Cause: first, Failures: failures}
	}
	return nil
}

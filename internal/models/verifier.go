package models

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/murmur-dev/murmur/internal/integrity"
)

// SizeError reports a downloaded file whose byte size differs from the
// catalog expectation.
type SizeError struct {
	Expected int64
	Actual   int64
}

func (e *SizeError) Error() string {
	return fmt.Sprintf("models: size mismatch (expected %d bytes, actual %d)", e.Expected, e.Actual)
}

// ChecksumError reports a downloaded file whose digest does not match the
// catalog's required SHA-256.
type ChecksumError struct {
	Expected string
	Actual   string
}

func (e *ChecksumError) Error() string {
	return fmt.Sprintf("models: checksum mismatch (expected %s, actual %s)", e.Expected, e.Actual)
}

// VerifyDownload gates a not-yet-installed model file against its catalog
// entry. The size check applies only when the entry declares a size, but
// the digest is always computed and compared regardless of the size
// outcome. Only full success permits installation.
func VerifyDownload(path string, entry CatalogEntry) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("models: stat download %s: %w", path, err)
	}

	var sizeErr error
	if entry.Size > 0 && info.Size() != entry.Size {
		sizeErr = &SizeError{Expected: entry.Size, Actual: info.Size()}
	}

	actual, err := integrity.HashFile(path)
	if err != nil {
		return fmt.Errorf("models: hash download %s: %w", path, err)
	}
	if sizeErr != nil {
		return sizeErr
	}
	if actual != entry.SHA256 {
		return &ChecksumError{Expected: entry.SHA256, Actual: actual}
	}
	return nil
}

// Install verifies the temporary download once more and moves it into the
// trusted models directory under its catalog filename. A file that fails
// verification never reaches the models directory.
func Install(path string, entry CatalogEntry, handle BundleRef) (string, error) {
	if err := VerifyDownload(path, entry); err != nil {
		return "", err
	}

	dest := filepath.Join(handle.ModelsDir(), entry.Filename)
	if err := os.Rename(path, dest); err == nil {
		return dest, nil
	}

	// rename can fail across filesystems; fall back to copy-then-rename
	// inside the models directory so the final move stays atomic
	tmp := dest + ".partial"
	if err := copyFile(path, tmp); err != nil {
		_ = os.Remove(tmp)
		return "", fmt.Errorf("models: stage install: %w", err)
	}
	if err := os.Rename(tmp, dest); err != nil {
		_ = os.Remove(tmp)
		return "", fmt.Errorf("models: finalize install: %w", err)
	}
	_ = os.Remove(path)
	return dest, nil
}

// copyFile streams src to dst so install cost stays flat for large models.
func copyFile(src string, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		return err
	}
	return out.Close()
}

// Package integrity computes and compares streaming SHA-256 digests for
// on-disk artifacts.
package integrity

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
)

// chunkSize bounds peak memory during digest computation regardless of
// file size; model files can exceed a gigabyte.
const chunkSize = 256 * 1024

// Mismatch reports a digest verification failure for one file. Actual is
// empty when the file could not be read at all.
type Mismatch struct {
	Path     string
	Expected string
	Actual   string
}

func (m *Mismatch) Error() string {
	if m.Actual == "" {
		return fmt.Sprintf("integrity: %s: unreadable (expected sha256 %s)", m.Path, m.Expected)
	}
	return fmt.Sprintf("integrity: %s: sha256 mismatch (expected %s, actual %s)", m.Path, m.Expected, m.Actual)
}

// HashFile streams the file at path in bounded chunks and returns its
// lowercase hex SHA-256 digest.
func HashFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("integrity: open %s: %w", path, err)
	}
	defer f.Close()

	h := sha256.New()
	buf := make([]byte, chunkSize)
	if _, err := io.CopyBuffer(h, f, buf); err != nil {
		return "", fmt.Errorf("integrity: read %s: %w", path, err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// VerifyFile compares the SHA-256 digest of path against expectedHex and
// returns a *Mismatch when the file is missing, unreadable, or its digest
// differs. The comparison is not constant-time: this gate defends artifact
// integrity, not secret equality.
func VerifyFile(path string, expectedHex string) error {
	actual, err := HashFile(path)
	if err != nil {
		return &Mismatch{Path: path, Expected: expectedHex}
	}
	if actual != expectedHex {
		return &Mismatch{Path: path, Expected: expectedHex, Actual: actual}
	}
	return nil
}

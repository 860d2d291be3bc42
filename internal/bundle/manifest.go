package bundle

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"regexp"
	"strings"
)

// ManifestName is the integrity manifest filename at the bundle root. The
// manifest is produced by the packaging step and consumed read-only.
const ManifestName = "murmur.sha256.json"

var digestPattern = regexp.MustCompile(`^[0-9a-f]{64}$`)

// Manifest maps forward-slash bundle-relative paths to lowercase hex
// SHA-256 digests. It is loaded once per resolution and never mutated.
type Manifest map[string]string

// Digest returns the expected digest for a bundle-relative path. A
// missing entry fails closed: integrity checking never inspects a file
// the manifest does not declare.
func (m Manifest) Digest(rel string) (string, error) {
	digest, ok := m[rel]
	if !ok {
		return "", fmt.Errorf("%w: no entry for %q", ErrManifestMissing, rel)
	}
	return digest, nil
}

// LoadManifest reads and validates the manifest at path.
func LoadManifest(path string) (Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrManifestMissing, path)
		}
		return nil, fmt.Errorf("%w: read %s: %v", ErrManifestCorrupt, path, err)
	}

	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrManifestCorrupt, path, err)
	}

	for rel, digest := range m {
		if strings.TrimSpace(rel) == "" || strings.Contains(rel, `\`) {
			return nil, fmt.Errorf("%w: invalid path entry %q", ErrManifestCorrupt, rel)
		}
		if !digestPattern.MatchString(digest) {
			return nil, fmt.Errorf("%w: entry %q has malformed digest %q", ErrManifestCorrupt, rel, digest)
		}
	}
	return m, nil
}

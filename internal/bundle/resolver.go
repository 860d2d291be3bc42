// Package bundle locates the distributed recognizer bundle and verifies
// its integrity manifest before any path from it is trusted.
package bundle

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/murmur-dev/murmur/internal/integrity"
	"github.com/murmur-dev/murmur/internal/safepath"
)

// Fixed bundle layout, produced by the packaging step.
const (
	// Subdir is the bundle directory under the configured root.
	Subdir = "bundle"

	// ExecutableRel is the recognizer binary path relative to the bundle.
	ExecutableRel = "bin/whisper-cli"

	// ModelsSubdir holds the model files.
	ModelsSubdir = "models"

	// DefaultModelName is the model shipped with the bundle.
	DefaultModelName = "ggml-base.en.bin"
)

// Resolve validates the bundle under root and returns a Handle. Checks
// run in a fixed order and the first failure aborts; any failure yields no
// handle at all.
func Resolve(root string) (Handle, error) {
	dir := filepath.Join(root, Subdir)
	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		return Handle{}, fmt.Errorf("%w: bundle directory %s", ErrFileMissing, dir)
	}

	executable := filepath.Join(dir, ExecutableRel)
	exeInfo, err := os.Stat(executable)
	if err != nil {
		return Handle{}, fmt.Errorf("%w: %s", ErrNotExecutable, executable)
	}
	if exeInfo.Mode()&0o100 == 0 {
		return Handle{}, fmt.Errorf("%w: %s lacks owner-execute permission", ErrNotExecutable, executable)
	}

	modelsDir := filepath.Join(dir, ModelsSubdir)
	defaultModel := filepath.Join(modelsDir, DefaultModelName)
	if _, err := os.Stat(defaultModel); err != nil {
		return Handle{}, fmt.Errorf("%w: default model %s", ErrFileMissing, defaultModel)
	}

	manifest, err := LoadManifest(filepath.Join(dir, ManifestName))
	if err != nil {
		return Handle{}, err
	}

	for _, target := range []string{executable, defaultModel} {
		rel, err := relativeToRoot(dir, target)
		if err != nil {
			return Handle{}, err
		}
		digest, err := manifest.Digest(rel)
		if err != nil {
			return Handle{}, err
		}
		if err := integrity.VerifyFile(target, digest); err != nil {
			return Handle{}, err
		}
	}

	return Handle{
		root:         dir,
		executable:   executable,
		modelsDir:    modelsDir,
		defaultModel: defaultModel,
	}, nil
}

// relativeToRoot canonicalizes target and root, requires the target to be
// a descendant of root, and returns the forward-slash relative path used
// as the manifest key.
func relativeToRoot(root string, target string) (string, error) {
	canonRoot, err := safepath.Canonical(root)
	if err != nil {
		return "", fmt.Errorf("%w: canonicalize root %s: %v", ErrPathResolution, root, err)
	}
	canonTarget, err := safepath.Canonical(target)
	if err != nil {
		return "", fmt.Errorf("%w: canonicalize %s: %v", ErrPathResolution, target, err)
	}
	if !safepath.HasPathPrefix(canonTarget, canonRoot) {
		return "", fmt.Errorf("%w: %s is outside %s", ErrPathResolution, canonTarget, canonRoot)
	}

	rel, err := filepath.Rel(canonRoot, canonTarget)
	if err != nil {
		return "", fmt.Errorf("%w: relativize %s: %v", ErrPathResolution, target, err)
	}
	return filepath.ToSlash(rel), nil
}

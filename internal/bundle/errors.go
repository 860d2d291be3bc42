package bundle

import "errors"

// Sentinel errors for bundle resolution. Resolution is fail-closed: any of
// these aborts startup verbatim; recognition cannot proceed without a
// verified bundle. Use errors.Is to classify.
var (
	// ErrManifestMissing indicates the integrity manifest file is absent,
	// or lacks an entry for a file resolution must verify.
	ErrManifestMissing = errors.New("bundle: integrity manifest missing")

	// ErrManifestCorrupt indicates the manifest exists but does not parse
	// as a flat path-to-digest mapping.
	ErrManifestCorrupt = errors.New("bundle: integrity manifest corrupt")

	// ErrPathResolution indicates a bundle file does not canonicalize to a
	// descendant of the bundle root.
	ErrPathResolution = errors.New("bundle: path resolves outside bundle root")

	// ErrFileMissing indicates a required bundle file or directory is absent.
	ErrFileMissing = errors.New("bundle: required file missing")

	// ErrNotExecutable indicates the recognizer binary is absent or lacks
	// the owner-execute permission bit.
	ErrNotExecutable = errors.New("bundle: recognizer is not executable")
)

package scratch

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAllocateHardensDirectoryAndFile(t *testing.T) {
	parent := filepath.Join(t.TempDir(), "sessions")

	f, err := Allocate(parent, "capture.wav")
	require.NoError(t, err)

	dirInfo, err := os.Stat(f.Dir)
	require.NoError(t, err)
	require.True(t, dirInfo.IsDir())
	require.Equal(t, os.FileMode(0o700), dirInfo.Mode().Perm())

	fileInfo, err := os.Stat(f.Path)
	require.NoError(t, err)
	require.Equal(t, os.FileMode(0o600), fileInfo.Mode().Perm())
	require.Equal(t, f.Dir, filepath.Dir(f.Path))
}

func TestAllocateSessionsDoNotCollide(t *testing.T) {
	parent := t.TempDir()

	a, err := Allocate(parent, "capture.wav")
	require.NoError(t, err)
	b, err := Allocate(parent, "capture.wav")
	require.NoError(t, err)

	require.NotEqual(t, a.Dir, b.Dir)
}

func TestSecureRemoveRemovesFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "audio.raw")
	content := strings.Repeat("sensitive", eraseChunkSize/4)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	require.NoError(t, SecureRemove(path))
	_, err := os.Stat(path)
	require.ErrorIs(t, err, os.ErrNotExist)
}

func TestSecureRemoveMissingIsNoop(t *testing.T) {
	require.NoError(t, SecureRemove(filepath.Join(t.TempDir(), "ghost")))
}

func TestSecureRemoveTreeDepthFirst(t *testing.T) {
	root := filepath.Join(t.TempDir(), "session")
	nested := filepath.Join(root, "partial")
	require.NoError(t, os.MkdirAll(nested, 0o700))
	require.NoError(t, os.WriteFile(filepath.Join(root, "capture.wav"), []byte("pcm"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(nested, "transcript.txt"), []byte("text"), 0o600))

	require.NoError(t, SecureRemoveTree(root))
	_, err := os.Stat(root)
	require.ErrorIs(t, err, os.ErrNotExist)
}

func TestSecureRemoveTreeMissingIsNoop(t *testing.T) {
	require.NoError(t, SecureRemoveTree(filepath.Join(t.TempDir(), "ghost")))
}

func TestSecureRemoveTreeAggregatesSingleFailure(t *testing.T) {
	if os.Geteuid() == 0 {
		t.Skip("permission failures cannot be forced as root")
	}

	root := filepath.Join(t.TempDir(), "session")
	require.NoError(t, os.MkdirAll(root, 0o700))

	var kept []string
	for _, name := range []string{"a.wav", "b.wav", "c.wav"} {
		path := filepath.Join(root, name)
		require.NoError(t, os.WriteFile(path, []byte("audio"), 0o600))
		kept = append(kept, path)
	}

	locked := filepath.Join(root, "locked.wav")
	require.NoError(t, os.WriteFile(locked, []byte("audio"), 0o600))
	require.NoError(t, os.Chmod(locked, 0o000))

	err := SecureRemoveTree(root)
	var cleanup *CleanupError
	require.ErrorAs(t, err, &cleanup)
	require.Equal(t, 1, cleanup.Failures)
	require.NotNil(t, cleanup.Cause)

	// erase failed but the unlink still went through along with the rest
	for _, path := range append(kept, locked) {
		_, statErr := os.Stat(path)
		require.ErrorIs(t, statErr, os.ErrNotExist, "expected %s to be removed", path)
	}
	_, statErr := os.Stat(root)
	require.ErrorIs(t, statErr, os.ErrNotExist)
}

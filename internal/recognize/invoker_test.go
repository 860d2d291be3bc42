package recognize

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/murmur-dev/murmur/internal/config"
	"github.com/stretchr/testify/require"
)

// writeFakeRecognizer installs a script that records its argv and prints
// canned output, standing in for the bundled recognizer binary.
func writeFakeRecognizer(t *testing.T, body string) (string, string) {
	t.Helper()
	dir := t.TempDir()
	argsFile := filepath.Join(dir, "args.log")
	path := filepath.Join(dir, "whisper-cli")
	script := "#!/usr/bin/env bash\nset -euo pipefail\nprintf '%s\\n' \"$*\" > " + argsFile + "\n" + body
	require.NoError(t, os.WriteFile(path, []byte(script), 0o755))
	return path, argsFile
}

func TestTranscribePlumbsArgsAndCleansOutput(t *testing.T) {
	exe, argsFile := writeFakeRecognizer(t, "printf ' hello \\n world \\n'\n")

	invoker := NewInvoker(config.RecognizerConfig{
		Language:  "en",
		Threads:   4,
		ExtraArgs: []string{"--best-of", "2"},
	}, nil)

	transcript, err := invoker.Transcribe(context.Background(), exe, "/bundle/models/m.bin", "/scratch/a.wav")
	require.NoError(t, err)
	require.Equal(t, "hello world", transcript)

	args, err := os.ReadFile(argsFile)
	require.NoError(t, err)
	require.Equal(t,
		"-m /bundle/models/m.bin -f /scratch/a.wav --no-timestamps -l en -t 4 --best-of 2\n",
		string(args))
}

func TestTranscribeOmitsOptionalArgs(t *testing.T) {
	exe, argsFile := writeFakeRecognizer(t, "echo ok\n")

	invoker := NewInvoker(config.RecognizerConfig{}, nil)
	_, err := invoker.Transcribe(context.Background(), exe, "m.bin", "a.wav")
	require.NoError(t, err)

	args, err := os.ReadFile(argsFile)
	require.NoError(t, err)
	require.Equal(t, "-m m.bin -f a.wav --no-timestamps\n", string(args))
}

func TestTranscribeSurfacesStderrOnFailure(t *testing.T) {
	exe, _ := writeFakeRecognizer(t, "echo 'model load failed' >&2\nexit 3\n")

	invoker := NewInvoker(config.RecognizerConfig{}, nil)
	_, err := invoker.Transcribe(context.Background(), exe, "m.bin", "a.wav")
	require.Error(t, err)
	require.Contains(t, err.Error(), "whisper-cli")
	require.Contains(t, err.Error(), "model load failed")
}

func TestTranscribeHonorsContextCancellation(t *testing.T) {
	exe, _ := writeFakeRecognizer(t, "sleep 5\n")

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	invoker := NewInvoker(config.RecognizerConfig{}, nil)
	_, err := invoker.Transcribe(ctx, exe, "m.bin", "a.wav")
	require.Error(t, err)
}

func TestCleanTranscript(t *testing.T) {
	require.Equal(t, "", cleanTranscript("  \n\t "))
	require.Equal(t, "one two", cleanTranscript("one\n\n  two\n"))
}

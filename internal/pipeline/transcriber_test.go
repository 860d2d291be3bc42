package pipeline

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/murmur-dev/murmur/internal/bundle"
	"github.com/murmur-dev/murmur/internal/config"
	"github.com/murmur-dev/murmur/internal/models"
	"github.com/murmur-dev/murmur/internal/record"
	"github.com/murmur-dev/murmur/internal/session"
	"github.com/murmur-dev/murmur/internal/settings"
)

type fakeSource struct {
	chunks chan []byte
	bytes  int64

	mu      sync.Mutex
	stopped bool
}

func newFakeSource() *fakeSource {
	return &fakeSource{chunks: make(chan []byte, 4)}
}

func (f *fakeSource) Chunks() <-chan []byte { return f.chunks }
func (f *fakeSource) BytesCaptured() int64  { return f.bytes }

func (f *fakeSource) Stop() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.stopped {
		f.stopped = true
		close(f.chunks)
	}
	return nil
}

type fakeInvoker struct {
	transcript string
	err        error

	gotExe   string
	gotModel string
	gotAudio string

	audioExisted bool
}

func (f *fakeInvoker) Transcribe(_ context.Context, exePath, modelPath, audioPath string) (string, error) {
	f.gotExe = exePath
	f.gotModel = modelPath
	f.gotAudio = audioPath
	_, statErr := os.Stat(audioPath)
	f.audioExisted = statErr == nil
	return f.transcript, f.err
}

func writeBundle(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	dir := filepath.Join(root, bundle.Subdir)

	exe := filepath.Join(dir, bundle.ExecutableRel)
	require.NoError(t, os.MkdirAll(filepath.Dir(exe), 0o755))
	require.NoError(t, os.WriteFile(exe, []byte("#!/bin/sh\nexit 0\n"), 0o755))

	model := filepath.Join(dir, bundle.ModelsSubdir, bundle.DefaultModelName)
	require.NoError(t, os.MkdirAll(filepath.Dir(model), 0o755))
	require.NoError(t, os.WriteFile(model, []byte("weights"), 0o644))

	entries := map[string]string{
		bundle.ExecutableRel: digestOf(t, exe),
	}
	entries[bundle.ModelsSubdir+"/"+bundle.DefaultModelName] = digestOf(t, model)
	data, err := json.Marshal(entries)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, bundle.ManifestName), data, 0o644))
	return root
}

func digestOf(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

func newTestTranscriber(t *testing.T, invoker Invoker, source record.Source) (*Transcriber, config.Config) {
	t.Helper()

	cfg := config.Default()
	cfg.Bundle.Root = writeBundle(t)
	cfg.Scratch.Dir = filepath.Join(t.TempDir(), "scratch")
	cfg.Session.StopTimeoutMS = 5000

	store := models.NewSelectionStore(settings.NewMemStore(), nil)
	tr := NewTranscriber(cfg, nil, store)
	tr.invoke = invoker
	tr.openCapture = func(context.Context) (record.Source, error) {
		return source, nil
	}
	return tr, cfg
}

func TestStartFailsClosedWhenBundleInvalid(t *testing.T) {
	cfg := config.Default()
	cfg.Bundle.Root = t.TempDir()
	cfg.Scratch.Dir = filepath.Join(t.TempDir(), "scratch")

	captureOpened := false
	store := models.NewSelectionStore(settings.NewMemStore(), nil)
	tr := NewTranscriber(cfg, nil, store)
	tr.openCapture = func(context.Context) (record.Source, error) {
		captureOpened = true
		return newFakeSource(), nil
	}

	err := tr.Start(context.Background())
	require.Error(t, err)
	require.ErrorIs(t, err, bundle.ErrFileMissing)
	require.False(t, captureOpened, "capture must not start when verification fails")

	// No scratch may be left behind either.
	entries, readErr := os.ReadDir(cfg.Scratch.Dir)
	if readErr == nil {
		require.Empty(t, entries)
	}
}

func TestStopAndTranscribeHappyPath(t *testing.T) {
	source := newFakeSource()
	invoker := &fakeInvoker{transcript: "hello world. i heard you"}
	tr, cfg := newTestTranscriber(t, invoker, source)

	require.NoError(t, tr.Start(context.Background()))

	source.bytes = 640
	source.chunks <- make([]byte, 640)

	result, err := tr.StopAndTranscribe(context.Background())
	require.NoError(t, err)
	require.NoError(t, result.CleanupErr)
	require.Equal(t, "Hello world. I heard you", result.Transcript)
	require.Equal(t, int64(640), result.BytesCaptured)
	require.Contains(t, result.ModelPath, bundle.DefaultModelName)

	require.True(t, invoker.audioExisted, "audio file must exist while the recognizer runs")
	require.Contains(t, invoker.gotExe, bundle.ExecutableRel)
	require.Equal(t, result.ModelPath, invoker.gotModel)

	// The scratch tree is erased after recognition.
	entries, readErr := os.ReadDir(cfg.Scratch.Dir)
	require.NoError(t, readErr)
	require.Empty(t, entries)
}

func TestStopAndTranscribeErasesScratchOnRecognizerError(t *testing.T) {
	source := newFakeSource()
	invoker := &fakeInvoker{err: errors.New("recognizer exploded")}
	tr, cfg := newTestTranscriber(t, invoker, source)

	require.NoError(t, tr.Start(context.Background()))

	_, err := tr.StopAndTranscribe(context.Background())
	require.Error(t, err)
	require.Contains(t, err.Error(), "recognizer exploded")

	entries, readErr := os.ReadDir(cfg.Scratch.Dir)
	require.NoError(t, readErr)
	require.Empty(t, entries)
}

func TestStopAndTranscribeKeepScratchForDebugging(t *testing.T) {
	source := newFakeSource()
	invoker := &fakeInvoker{transcript: "kept"}

	cfg := config.Default()
	cfg.Bundle.Root = writeBundle(t)
	cfg.Scratch.Dir = filepath.Join(t.TempDir(), "scratch")
	cfg.Debug.KeepScratch = true

	store := models.NewSelectionStore(settings.NewMemStore(), nil)
	tr := NewTranscriber(cfg, nil, store)
	tr.invoke = invoker
	tr.openCapture = func(context.Context) (record.Source, error) { return source, nil }

	require.NoError(t, tr.Start(context.Background()))
	result, err := tr.StopAndTranscribe(context.Background())
	require.NoError(t, err)
	require.NoError(t, result.CleanupErr)

	entries, readErr := os.ReadDir(cfg.Scratch.Dir)
	require.NoError(t, readErr)
	require.Len(t, entries, 1)
}

func TestCancelErasesScratch(t *testing.T) {
	source := newFakeSource()
	tr, cfg := newTestTranscriber(t, &fakeInvoker{}, source)

	require.NoError(t, tr.Start(context.Background()))
	require.NoError(t, tr.Cancel(context.Background()))

	entries, readErr := os.ReadDir(cfg.Scratch.Dir)
	require.NoError(t, readErr)
	require.Empty(t, entries)
}

func TestStopWithoutStartIsUnavailable(t *testing.T) {
	tr, _ := newTestTranscriber(t, &fakeInvoker{}, newFakeSource())

	_, err := tr.StopAndTranscribe(context.Background())
	require.ErrorIs(t, err, session.ErrPipelineUnavailable)
	require.NoError(t, tr.Cancel(context.Background()))
}

func TestStartTwiceFails(t *testing.T) {
	source := newFakeSource()
	tr, _ := newTestTranscriber(t, &fakeInvoker{}, source)

	require.NoError(t, tr.Start(context.Background()))
	err := tr.Start(context.Background())
	require.Error(t, err)
	require.Contains(t, err.Error(), "already started")

	require.NoError(t, tr.Cancel(context.Background()))
}

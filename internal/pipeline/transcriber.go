// Package pipeline owns one end-to-end capture, recognition, and cleanup instance.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/murmur-dev/murmur/internal/audio"
	"github.com/murmur-dev/murmur/internal/bundle"
	"github.com/murmur-dev/murmur/internal/config"
	"github.com/murmur-dev/murmur/internal/models"
	"github.com/murmur-dev/murmur/internal/record"
	"github.com/murmur-dev/murmur/internal/recognize"
	"github.com/murmur-dev/murmur/internal/scratch"
	"github.com/murmur-dev/murmur/internal/session"
	"github.com/murmur-dev/murmur/internal/transcript"
)

// Invoker runs the recognizer against a finished capture.
type Invoker interface {
	Transcribe(ctx context.Context, exePath string, modelPath string, audioPath string) (string, error)
}

// Transcriber implements session.Transcriber over the verified bundle,
// the persisted model selection, and an ephemeral scratch capture.
type Transcriber struct {
	cfg    config.Config
	logger *slog.Logger
	store  *models.SelectionStore
	invoke Invoker

	// openCapture is swapped out in tests.
	openCapture func(context.Context) (record.Source, error)

	mu        sync.Mutex
	started   bool
	file      scratch.File
	recorder  *record.Recorder
	exePath   string
	modelPath string
}

// NewTranscriber constructs a pipeline transcriber from runtime config.
func NewTranscriber(cfg config.Config, logger *slog.Logger, store *models.SelectionStore) *Transcriber {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	t := &Transcriber{
		cfg:    cfg,
		logger: logger,
		store:  store,
		invoke: recognize.NewInvoker(cfg.Recognizer, logger),
	}
	t.openCapture = t.pulseCapture
	return t
}

// pulseCapture resolves the configured input device and starts capture.
func (t *Transcriber) pulseCapture(ctx context.Context) (record.Source, error) {
	selection, err := audio.SelectDevice(ctx, t.cfg.Audio.Input, t.cfg.Audio.Fallback)
	if err != nil {
		return nil, err
	}
	if selection.Warning != "" {
		t.logger.Warn(selection.Warning)
	}
	return audio.StartCapture(ctx, selection.Device)
}

// Start verifies the bundle, resolves the active model, allocates the
// scratch capture file, and begins recording. Verification failures
// abort before any audio is captured.
func (t *Transcriber) Start(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.started {
		return fmt.Errorf("transcriber already started")
	}

	handle, err := bundle.Resolve(t.cfg.Bundle.Root)
	if err != nil {
		return fmt.Errorf("resolve bundle: %w", err)
	}
	modelPath := t.store.ResolvePath(handle)

	file, err := scratch.Allocate(t.cfg.Scratch.Dir, "capture.wav")
	if err != nil {
		return fmt.Errorf("allocate scratch capture: %w", err)
	}

	source, err := t.openCapture(ctx)
	if err != nil {
		_ = scratch.SecureRemoveTree(file.Dir)
		return err
	}

	recorder, err := record.Start(t.logger, source, file.Path)
	if err != nil {
		_ = source.Stop()
		_ = scratch.SecureRemoveTree(file.Dir)
		return err
	}

	t.file = file
	t.recorder = recorder
	t.exePath = handle.Executable()
	t.modelPath = modelPath
	t.started = true

	t.logger.Info("capture started", "scratch", file.Path, "model", modelPath)
	return nil
}

// StopAndTranscribe finalizes the capture, runs the recognizer, and
// erases the scratch tree. Cleanup failures ride along on the result
// without masking recognition output.
func (t *Transcriber) StopAndTranscribe(ctx context.Context) (session.StopResult, error) {
	t.mu.Lock()
	started := t.started
	file := t.file
	recorder := t.recorder
	exePath := t.exePath
	modelPath := t.modelPath
	t.mu.Unlock()

	if !started || recorder == nil {
		return session.StopResult{}, session.ErrPipelineUnavailable
	}
	defer t.reset()

	bytes, err := recorder.Finish()
	if err != nil {
		cleanupErr := t.cleanupScratch(file.Dir)
		return session.StopResult{BytesCaptured: bytes, CleanupErr: cleanupErr}, fmt.Errorf("finalize capture: %w", err)
	}

	timeout := time.Duration(t.cfg.Session.StopTimeoutMS) * time.Millisecond
	recognizeCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	raw, err := t.invoke.Transcribe(recognizeCtx, exePath, modelPath, file.Path)
	cleanupErr := t.cleanupScratch(file.Dir)
	result := session.StopResult{
		Transcript: transcript.Normalize(raw, transcript.Options{
			CapitalizeSentences: t.cfg.Output.CapitalizeSentences,
			TrailingSpace:       t.cfg.Output.TrailingSpace,
		}),
		ModelPath:     modelPath,
		BytesCaptured: bytes,
		CleanupErr:    cleanupErr,
	}
	if err != nil {
		return result, err
	}
	return result, nil
}

// Cancel aborts capture and erases the scratch tree.
func (t *Transcriber) Cancel(_ context.Context) error {
	t.mu.Lock()
	started := t.started
	file := t.file
	recorder := t.recorder
	t.mu.Unlock()

	if !started || recorder == nil {
		return nil
	}
	defer t.reset()

	_ = recorder.Abort()
	return t.cleanupScratch(file.Dir)
}

// cleanupScratch erases the session scratch tree unless debug retention is on.
func (t *Transcriber) cleanupScratch(dir string) error {
	if t.cfg.Debug.KeepScratch {
		t.logger.Warn("keeping scratch dir for debugging", "dir", dir)
		return nil
	}
	if err := scratch.SecureRemoveTree(dir); err != nil {
		t.logger.Error("scratch cleanup failed", "dir", dir, "error", err.Error())
		return err
	}
	return nil
}

func (t *Transcriber) reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.started = false
	t.file = scratch.File{}
	t.recorder = nil
	t.exePath = ""
	t.modelPath = ""
}

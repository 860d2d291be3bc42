// Package recognize invokes the bundled recognizer binary on captured audio.
package recognize

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/murmur-dev/murmur/internal/config"
)

// Invoker runs a verified recognizer executable against a WAV capture.
type Invoker struct {
	cfg    config.RecognizerConfig
	logger *slog.Logger
}

// NewInvoker constructs an invoker from recognizer config.
func NewInvoker(cfg config.RecognizerConfig, logger *slog.Logger) *Invoker {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Invoker{cfg: cfg, logger: logger}
}

// Transcribe runs the recognizer and returns the cleaned transcript. The
// executable and model paths must come from a resolved bundle; this
// function does not re-verify them.
func (i *Invoker) Transcribe(ctx context.Context, exePath string, modelPath string, audioPath string) (string, error) {
	args := i.buildArgs(modelPath, audioPath)

	started := time.Now()
	cmd := exec.CommandContext(ctx, exePath, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		detail := strings.TrimSpace(stderr.String())
		if detail != "" {
			return "", fmt.Errorf("recognizer %s: %w: %s", filepath.Base(exePath), err, detail)
		}
		return "", fmt.Errorf("recognizer %s: %w", filepath.Base(exePath), err)
	}

	transcript := cleanTranscript(stdout.String())
	i.logger.Info("recognition finished",
		"model", filepath.Base(modelPath),
		"duration_ms", time.Since(started).Milliseconds(),
		"chars", len(transcript),
	)
	return transcript, nil
}

// buildArgs assembles the recognizer argv from config and input paths.
func (i *Invoker) buildArgs(modelPath string, audioPath string) []string {
	args := []string{"-m", modelPath, "-f", audioPath, "--no-timestamps"}
	if lang := strings.TrimSpace(i.cfg.Language); lang != "" {
		args = append(args, "-l", lang)
	}
	if i.cfg.Threads > 0 {
		args = append(args, "-t", strconv.Itoa(i.cfg.Threads))
	}
	return append(args, i.cfg.ExtraArgs...)
}

// cleanTranscript collapses recognizer output lines into one spaced string.
func cleanTranscript(raw string) string {
	fields := strings.Fields(raw)
	return strings.Join(fields, " ")
}

// Package app hosts command execution: environment setup, session
// hosting, and forwarding to an already-running session over IPC.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/murmur-dev/murmur/internal/audio"
	"github.com/murmur-dev/murmur/internal/bundle"
	"github.com/murmur-dev/murmur/internal/config"
	"github.com/murmur-dev/murmur/internal/doctor"
	"github.com/murmur-dev/murmur/internal/ipc"
	"github.com/murmur-dev/murmur/internal/logging"
	"github.com/murmur-dev/murmur/internal/models"
	"github.com/murmur-dev/murmur/internal/output"
	"github.com/murmur-dev/murmur/internal/pipeline"
	"github.com/murmur-dev/murmur/internal/session"
	"github.com/murmur-dev/murmur/internal/settings"
)

// ErrChecksFailed marks a doctor run whose report, already printed, has
// at least one failing check.
var ErrChecksFailed = errors.New("one or more checks failed")

// Runner owns the process-wide collaborators every command needs. Setup
// must succeed before any command method runs.
type Runner struct {
	Stdout io.Writer
	Stderr io.Writer
	Logger *slog.Logger

	loaded     config.Loaded
	store      settings.Store
	logRuntime logging.Runtime
}

// Setup initializes logging, loads configuration, and opens the settings
// store. Config warnings are printed to stderr but never abort setup.
func (r *Runner) Setup(configPath string) error {
	logRuntime, err := logging.New()
	if err != nil {
		return fmt.Errorf("setup logging: %w", err)
	}
	r.logRuntime = logRuntime
	if r.Logger == nil {
		r.Logger = logRuntime.Logger
	}

	loaded, err := config.Load(configPath)
	if err != nil {
		r.Logger.Error("load config failed", "error", err.Error())
		return err
	}
	r.loaded = loaded
	for _, w := range loaded.Warnings {
		msg := w.Message
		if w.Line > 0 {
			msg = fmt.Sprintf("line %d: %s", w.Line, w.Message)
		}
		fmt.Fprintf(r.Stderr, "warning: %s\n", msg)
		r.Logger.Warn("config warning", "line", w.Line, "message", w.Message)
	}

	settingsPath, err := settings.DefaultPath()
	if err != nil {
		r.Logger.Warn("settings unavailable, selections will not persist", "error", err.Error())
		r.store = settings.NewMemStore()
	} else {
		r.store = settings.NewFileStore(settingsPath)
	}

	r.Logger.Info("command start", "config", loaded.Path, "log", logRuntime.Path)
	return nil
}

// Close releases resources acquired by Setup.
func (r *Runner) Close() {
	_ = r.logRuntime.Close()
}

// Config returns the loaded configuration snapshot.
func (r *Runner) Config() config.Loaded { return r.loaded }

// Doctor runs environment checks and prints the report.
func (r *Runner) Doctor(ctx context.Context) error {
	report := doctor.Run(r.loaded, r.store)
	fmt.Fprintln(r.Stdout, report.String())
	if !report.OK() {
		return ErrChecksFailed
	}
	return nil
}

// Verify resolves the bundle and prints the verified layout. Any
// integrity or layout failure surfaces as the resolver's error.
func (r *Runner) Verify(ctx context.Context) error {
	handle, err := bundle.Resolve(r.loaded.Config.Bundle.Root)
	if err != nil {
		return err
	}
	fmt.Fprintf(r.Stdout, "bundle verified at %s\n", handle.Root())
	fmt.Fprintf(r.Stdout, "  recognizer: %s\n", handle.Executable())
	fmt.Fprintf(r.Stdout, "  models:     %s\n", handle.ModelsDir())
	return nil
}

// ModelsList prints the selectable model table for the verified bundle.
func (r *Runner) ModelsList(ctx context.Context) error {
	handle, err := bundle.Resolve(r.loaded.Config.Bundle.Root)
	if err != nil {
		return err
	}

	selection := models.NewSelectionStore(r.store, r.Logger)
	opts, active := selection.Snapshot(handle)

	tw := tabwriter.NewWriter(r.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tFILE\tAVAILABLE\tACTIVE")
	for i, opt := range opts {
		availability := "no"
		if opt.Available {
			availability = "yes"
		}
		activeMark := ""
		if i == active {
			activeMark = "*"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
			opt.ID, opt.Name, opt.Filename, availability, activeMark)
	}
	return tw.Flush()
}

// ModelsUse persists id as the active model selection.
func (r *Runner) ModelsUse(ctx context.Context, id string) error {
	handle, err := bundle.Resolve(r.loaded.Config.Bundle.Root)
	if err != nil {
		return err
	}

	selection := models.NewSelectionStore(r.store, r.Logger)
	opts, _ := selection.Snapshot(handle)
	for _, opt := range opts {
		if opt.ID != id {
			continue
		}
		if !opt.Available {
			return fmt.Errorf("model %q is not installed (try: murmur models install <file> %s)", id, id)
		}
		if err := selection.Apply(handle, opt); err != nil {
			return err
		}
		fmt.Fprintf(r.Stdout, "active model set to %s\n", opt.Filename)
		return nil
	}
	return fmt.Errorf("unknown model %q (see: murmur models list)", id)
}

// ModelsInstall verifies a downloaded model file against the catalog and
// moves it into the bundle's models directory.
func (r *Runner) ModelsInstall(ctx context.Context, path string, id string) error {
	entry, ok := models.CatalogByID(id)
	if !ok {
		return fmt.Errorf("unknown model %q (see: murmur models list)", id)
	}

	handle, err := bundle.Resolve(r.loaded.Config.Bundle.Root)
	if err != nil {
		return err
	}

	dest, err := models.Install(path, entry, handle)
	if err != nil {
		return err
	}
	fmt.Fprintf(r.Stdout, "installed %s\n", dest)
	return nil
}

// Devices prints the available audio input sources.
func (r *Runner) Devices(ctx context.Context) error {
	devices, err := audio.ListDevices(ctx)
	if err != nil {
		return err
	}
	if len(devices) == 0 {
		return errors.New("no audio devices found")
	}

	for _, device := range devices {
		defaultMark := " "
		if device.Default {
			defaultMark = "*"
		}
		availability := "yes"
		if !device.Available {
			availability = "no"
		}
		muted := "no"
		if device.Muted {
			muted = "yes"
		}
		fmt.Fprintf(
			r.Stdout,
			"%s id=%s | description=%q | state=%s | available=%s | muted=%s\n",
			defaultMark,
			device.ID,
			device.Description,
			device.State,
			availability,
			muted,
		)
	}
	return nil
}

// Status prints the running session state, or "idle" when none exists.
func (r *Runner) Status(ctx context.Context) error {
	socketPath, err := ipc.RuntimeSocketPath()
	if err != nil {
		fmt.Fprintln(r.Stdout, "idle")
		return nil
	}

	resp, handled, err := tryForward(ctx, socketPath, "status")
	if handled {
		if err != nil {
			return err
		}
		r.printWarning(resp)
		if resp.State == "" {
			resp.State = "idle"
		}
		fmt.Fprintln(r.Stdout, resp.State)
		return nil
	}

	fmt.Fprintln(r.Stdout, "idle")
	return nil
}

// Stop forwards a stop request to the running session.
func (r *Runner) Stop(ctx context.Context) error { return r.forwardOrFail(ctx, "stop") }

// Cancel forwards a cancel request to the running session.
func (r *Runner) Cancel(ctx context.Context) error { return r.forwardOrFail(ctx, "cancel") }

func (r *Runner) forwardOrFail(ctx context.Context, command string) error {
	socketPath, err := ipc.RuntimeSocketPath()
	if err != nil {
		return err
	}

	resp, handled, err := tryForward(ctx, socketPath, command)
	if !handled {
		return errors.New("no active murmur session")
	}
	if err != nil {
		return err
	}
	r.printWarning(resp)
	if resp.Message != "" {
		fmt.Fprintln(r.Stdout, resp.Message)
	}
	return nil
}

// Toggle forwards to a running session when one exists; otherwise it
// becomes the session host, serving IPC until the session completes.
func (r *Runner) Toggle(ctx context.Context) error {
	socketPath, err := ipc.RuntimeSocketPath()
	if err != nil {
		return err
	}

	resp, handled, err := tryForward(ctx, socketPath, "toggle")
	if handled {
		if err != nil {
			return err
		}
		r.printWarning(resp)
		if resp.Message != "" {
			fmt.Fprintln(r.Stdout, resp.Message)
		}
		return nil
	}

	listener, err := ipc.Acquire(ctx, socketPath, 180*time.Millisecond, 8)
	if err != nil {
		if errors.Is(err, ipc.ErrAlreadyRunning) {
			resp, _, forwardErr := tryForward(ctx, socketPath, "toggle")
			if forwardErr != nil {
				return forwardErr
			}
			r.printWarning(resp)
			if resp.Message != "" {
				fmt.Fprintln(r.Stdout, resp.Message)
			}
			return nil
		}
		return err
	}
	defer func() {
		_ = listener.Close()
		_ = os.Remove(socketPath)
	}()

	cfg := r.loaded.Config
	selection := models.NewSelectionStore(r.store, r.Logger)
	transcriber := pipeline.NewTranscriber(cfg, r.Logger, selection)
	committer := output.NewCommitter(cfg, r.Logger)
	controller := session.NewController(r.Logger, transcriber, committer, selectionWarner{selection})

	serverCtx, serverCancel := context.WithCancel(ctx)
	defer serverCancel()

	serverErrCh := make(chan error, 1)
	go func() {
		serverErrCh <- ipc.Serve(serverCtx, listener, controller)
	}()

	result := controller.Run(ctx)
	serverCancel()
	if serverErr := <-serverErrCh; serverErr != nil {
		return fmt.Errorf("ipc server failed: %w", serverErr)
	}

	logSessionResult(r.Logger, result)

	if result.CleanupErr != nil {
		fmt.Fprintf(r.Stderr, "warning: %v\n", result.CleanupErr)
	}
	if result.Cancelled {
		fmt.Fprintln(r.Stdout, "cancelled")
		return nil
	}
	if result.Err != nil {
		return result.Err
	}
	if strings.TrimSpace(result.Transcript) != "" {
		fmt.Fprintln(r.Stdout, strings.TrimSpace(result.Transcript))
	}
	return nil
}

func (r *Runner) printWarning(resp ipc.Response) {
	if resp.Warning != "" {
		fmt.Fprintf(r.Stderr, "warning: %s\n", resp.Warning)
	}
}

// selectionWarner adapts the drainable selection warning to the session
// collaborator shape.
type selectionWarner struct {
	store *models.SelectionStore
}

func (w selectionWarner) Warning() string {
	msg, _ := w.store.Warning()
	return msg
}

func logSessionResult(logger *slog.Logger, result session.Result) {
	if logger == nil {
		return
	}
	fields := []any{
		"state", result.State,
		"cancelled", result.Cancelled,
		"started_at", result.StartedAt.Format(time.RFC3339Nano),
		"finished_at", result.FinishedAt.Format(time.RFC3339Nano),
		"duration_ms", result.FinishedAt.Sub(result.StartedAt).Milliseconds(),
		"model_path", result.ModelPath,
		"bytes_captured", result.BytesCaptured,
		"transcript_length", len(result.Transcript),
	}
	if result.CleanupErr != nil {
		fields = append(fields, "cleanup_error", result.CleanupErr.Error())
	}

	if result.Err != nil {
		logger.Error("session failed", append(fields, "error", result.Err.Error())...)
		return
	}
	logger.Info("session complete", fields...)
}

func tryForward(ctx context.Context, socketPath string, command string) (ipc.Response, bool, error) {
	resp, err := ipc.Send(ctx, socketPath, ipc.Request{Command: command}, 220*time.Millisecond)
	if err == nil {
		if resp.OK {
			return resp, true, nil
		}
		return resp, true, errors.New(resp.Error)
	}

	if isSocketMissing(err) {
		return ipc.Response{}, false, nil
	}
	if isConnectionRefused(err) {
		return ipc.Response{}, false, nil
	}

	return ipc.Response{}, true, fmt.Errorf("forward command %q: %w", command, err)
}

func isSocketMissing(err error) bool {
	if err == nil {
		return false
	}
	return errors.Is(err, os.ErrNotExist) ||
		strings.Contains(err.Error(), "no such file or directory")
}

func isConnectionRefused(err error) bool {
	if err == nil {
		return false
	}
	return errors.Is(err, syscall.ECONNREFUSED)
}

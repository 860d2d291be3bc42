// Package doctor runs runtime readiness diagnostics for config, the
// recognizer bundle, model selection, scratch space, and audio.
package doctor

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/murmur-dev/murmur/internal/audio"
	"github.com/murmur-dev/murmur/internal/bundle"
	"github.com/murmur-dev/murmur/internal/config"
	"github.com/murmur-dev/murmur/internal/models"
	"github.com/murmur-dev/murmur/internal/settings"
)

// Check is one doctor assertion result.
type Check struct {
	Name    string
	Pass    bool
	Message string
}

// Report is the full doctor output contract.
type Report struct {
	Checks []Check
}

// OK returns true when all checks pass.
func (r Report) OK() bool {
	for _, check := range r.Checks {
		if !check.Pass {
			return false
		}
	}
	return true
}

// String renders the report as user-facing text output.
func (r Report) String() string {
	var b strings.Builder
	for _, check := range r.Checks {
		status := "OK"
		if !check.Pass {
			status = "FAIL"
		}
		b.WriteString(fmt.Sprintf("[%s] %s: %s\n", status, check.Name, check.Message))
	}
	return strings.TrimSuffix(b.String(), "\n")
}

// Run executes environment/config/runtime checks for a loaded config.
// store backs the model-selection check and may be nil to skip it.
func Run(cfg config.Loaded, store settings.Store) Report {
	checks := []Check{}

	checks = append(checks, Check{
		Name:    "config",
		Pass:    true,
		Message: fmt.Sprintf("loaded %q", cfg.Path),
	})

	bundleCheck, handle := checkBundle(cfg.Config)
	checks = append(checks, bundleCheck)

	if bundleCheck.Pass && store != nil {
		checks = append(checks, checkModelSelection(store, handle))
	}

	checks = append(checks, checkScratch(cfg.Config))
	checks = append(checks, checkClipboard(cfg.Config))
	checks = append(checks, checkAudioSelection(cfg.Config))

	return Report{Checks: checks}
}

// checkBundle resolves and verifies the recognizer bundle. The resolver
// error is reported verbatim so users see exactly which check failed.
func checkBundle(cfg config.Config) (Check, bundle.Handle) {
	handle, err := bundle.Resolve(cfg.Bundle.Root)
	if err != nil {
		return Check{Name: "bundle", Pass: false, Message: err.Error()}, bundle.Handle{}
	}
	return Check{
		Name:    "bundle",
		Pass:    true,
		Message: fmt.Sprintf("verified bundle at %s", handle.Root()),
	}, handle
}

// checkModelSelection reports which model the recognizer would load.
func checkModelSelection(store settings.Store, handle bundle.Handle) Check {
	selection := models.NewSelectionStore(store, nil)
	path := selection.ResolvePath(handle)
	if warning, ok := selection.Warning(); ok {
		return Check{Name: "model", Pass: true, Message: warning}
	}
	return Check{
		Name:    "model",
		Pass:    true,
		Message: fmt.Sprintf("active model %s", filepath.Base(path)),
	}
}

// checkScratch probes that the scratch directory accepts owner-only files.
func checkScratch(cfg config.Config) Check {
	dir := cfg.Scratch.Dir
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return Check{Name: "scratch", Pass: false, Message: fmt.Sprintf("create %s: %v", dir, err)}
	}

	probe, err := os.CreateTemp(dir, "doctor-probe-*")
	if err != nil {
		return Check{Name: "scratch", Pass: false, Message: fmt.Sprintf("write probe in %s: %v", dir, err)}
	}
	name := probe.Name()
	_ = probe.Close()
	_ = os.Remove(name)

	return Check{Name: "scratch", Pass: true, Message: fmt.Sprintf("writable at %s", dir)}
}

// checkClipboard validates the configured clipboard dispatch command.
func checkClipboard(cfg config.Config) Check {
	if len(cfg.Clipboard.Argv) == 0 {
		return Check{Name: "clipboard_cmd", Pass: true, Message: "using built-in clipboard"}
	}
	return checkCommand(cfg.Clipboard.Argv, "clipboard_cmd")
}

// checkCommand validates that argv contains a runnable command.
func checkCommand(argv []string, name string) Check {
	if len(argv) == 0 {
		return Check{Name: name, Pass: false, Message: "command is empty"}
	}
	return checkBinary(argv[0], fmt.Sprintf("%s command is available", name))
}

// checkBinary validates that a binary exists in PATH.
func checkBinary(bin string, okMsg string) Check {
	path, err := exec.LookPath(bin)
	if err != nil {
		return Check{Name: bin, Pass: false, Message: fmt.Sprintf("binary not found in PATH: %s", bin)}
	}
	return Check{Name: bin, Pass: true, Message: fmt.Sprintf("found at %s (%s)", path, okMsg)}
}

// checkAudioSelection runs live device selection to surface selection/fallback issues.
func checkAudioSelection(cfg config.Config) Check {
	selection, err := audio.SelectDevice(context.Background(), cfg.Audio.Input, cfg.Audio.Fallback)
	if err != nil {
		return Check{Name: "audio.device", Pass: false, Message: err.Error()}
	}
	message := fmt.Sprintf("selected %q", selection.Device.ID)
	if selection.Warning != "" {
		message = message + " (" + selection.Warning + ")"
	}
	return Check{Name: "audio.device", Pass: true, Message: message}
}

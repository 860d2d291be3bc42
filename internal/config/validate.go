package config

import (
	"fmt"
	"path/filepath"
	"strings"
)

// Validate enforces config invariants and returns non-fatal warnings.
func Validate(cfg Config) ([]Warning, error) {
	warnings := make([]Warning, 0)

	if strings.TrimSpace(cfg.Bundle.Root) == "" {
		return nil, fmt.Errorf("bundle.root must not be empty")
	}
	if !filepath.IsAbs(cfg.Bundle.Root) {
		return nil, fmt.Errorf("bundle.root must be an absolute path")
	}
	if strings.TrimSpace(cfg.Audio.Input) == "" {
		return nil, fmt.Errorf("audio.input must not be empty")
	}
	if strings.TrimSpace(cfg.Recognizer.Language) == "" {
		return nil, fmt.Errorf("recognizer.language must not be empty")
	}
	if cfg.Recognizer.Threads < 0 {
		return nil, fmt.Errorf("recognizer.threads must be >= 0")
	}
	if strings.TrimSpace(cfg.Scratch.Dir) == "" {
		return nil, fmt.Errorf("scratch.dir must not be empty")
	}
	if !filepath.IsAbs(cfg.Scratch.Dir) {
		return nil, fmt.Errorf("scratch.dir must be an absolute path")
	}
	if cfg.Session.StopTimeoutMS <= 0 {
		return nil, fmt.Errorf("session.stop_timeout_ms must be > 0")
	}
	if len(cfg.Clipboard.Argv) == 0 {
		return nil, fmt.Errorf("clipboard_cmd must not be empty")
	}

	for _, arg := range cfg.Recognizer.ExtraArgs {
		if strings.TrimSpace(arg) == "" {
			warnings = append(warnings, Warning{Message: "recognizer.extra_args contains a blank argument"})
			break
		}
	}

	return warnings, nil
}

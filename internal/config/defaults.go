package config

import (
	"os"
	"path/filepath"
	"strings"
)

// Default returns the canonical runtime configuration used when no file is present.
func Default() Config {
	clipboard := "wl-copy --trim-newline"

	return Config{
		Bundle: BundleConfig{Root: defaultBundleRoot()},
		Audio: AudioConfig{
			Input:    "default",
			Fallback: "default",
		},
		Recognizer: RecognizerConfig{
			Language: "en",
			Threads:  0,
		},
		Scratch:   ScratchConfig{Dir: defaultScratchDir()},
		Session:   SessionConfig{StopTimeoutMS: 15000},
		Output:    OutputConfig{CapitalizeSentences: true},
		Clipboard: CommandConfig{Raw: clipboard, Argv: mustParseArgv(clipboard)},
		Debug:     DebugConfig{},
	}
}

// defaultBundleRoot prefers XDG_DATA_HOME, then ~/.local/share.
func defaultBundleRoot() string {
	if xdg := strings.TrimSpace(os.Getenv("XDG_DATA_HOME")); xdg != "" {
		return filepath.Join(xdg, "murmur")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), "murmur")
	}
	return filepath.Join(home, ".local", "share", "murmur")
}

// defaultScratchDir prefers XDG_RUNTIME_DIR, which is normally a
// tmpfs with owner-only permissions, then the system temp dir.
func defaultScratchDir() string {
	if runtime := strings.TrimSpace(os.Getenv("XDG_RUNTIME_DIR")); runtime != "" {
		return filepath.Join(runtime, "murmur")
	}
	return filepath.Join(os.TempDir(), "murmur")
}

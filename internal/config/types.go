// Package config resolves, parses, validates, and defaults murmur configuration.
package config

// Config is the fully materialized runtime configuration used by murmur.
type Config struct {
	Bundle     BundleConfig
	Audio      AudioConfig
	Recognizer RecognizerConfig
	Scratch    ScratchConfig
	Session    SessionConfig
	Output     OutputConfig
	Clipboard  CommandConfig
	Debug      DebugConfig
}

// AudioConfig controls preferred and fallback input-source selection.
type AudioConfig struct {
	Input    string
	Fallback string
}

// BundleConfig locates the verified recognizer bundle on disk.
type BundleConfig struct {
	Root string
}

// RecognizerConfig controls invocation of the bundled recognizer binary.
type RecognizerConfig struct {
	Language  string
	Threads   int
	ExtraArgs []string
}

// ScratchConfig controls where ephemeral capture files are allocated.
type ScratchConfig struct {
	Dir string
}

// SessionConfig controls session lifecycle timing.
type SessionConfig struct {
	StopTimeoutMS int
}

// OutputConfig controls transcript formatting before commit.
type OutputConfig struct {
	CapitalizeSentences bool
	TrailingSpace       bool
}

// CommandConfig stores a raw command string and its parsed argv form.
type CommandConfig struct {
	Raw  string
	Argv []string
}

// DebugConfig controls optional debug behavior.
type DebugConfig struct {
	KeepScratch bool
}

// Warning is a non-fatal parse/validation message.
type Warning struct {
	Line    int
	Message string
}

package config

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseValidConfig(t *testing.T) {
	input := `
{
  // local overrides
  "bundle": {"root": "/opt/murmur"},
  "recognizer": {
    "language": "de",
    "threads": 4,
    "extra_args": ["--no-timestamps"],
  },
  "session": {"stop_timeout_ms": 30000},
}
`

	cfg, _, err := Parse(input, Default())
	require.NoError(t, err)
	require.Equal(t, "/opt/murmur", cfg.Bundle.Root)
	require.Equal(t, "de", cfg.Recognizer.Language)
	require.Equal(t, 4, cfg.Recognizer.Threads)
	require.Equal(t, []string{"--no-timestamps"}, cfg.Recognizer.ExtraArgs)
	require.Equal(t, 30000, cfg.Session.StopTimeoutMS)
}

func TestParseEmptyContentReturnsDefaults(t *testing.T) {
	cfg, _, err := Parse("   \n\t  ", Default())
	require.NoError(t, err)
	require.Equal(t, Default(), cfg)
}

func TestParseRejectsNonObjectContent(t *testing.T) {
	_, _, err := Parse(`bundle.root = /opt/murmur`, Default())
	require.Error(t, err)
	require.Contains(t, err.Error(), "JSONC object")
}

func TestParseUnknownKeyFails(t *testing.T) {
	_, _, err := Parse(`{"bundel": {"root": "/opt/murmur"}}`, Default())
	require.Error(t, err)
	require.Contains(t, err.Error(), "unknown field")
}

func TestParseCommandArgvQuoted(t *testing.T) {
	cfg, _, err := Parse(`{"clipboard_cmd": "mycmd --name 'hello world'"}`, Default())
	require.NoError(t, err)
	require.Equal(t, "mycmd|--name|hello world", strings.Join(cfg.Clipboard.Argv, "|"))
}

func TestParseOverridesDoNotLeakIntoBase(t *testing.T) {
	base := Default()
	_, _, err := Parse(`{"recognizer": {"language": "fr"}}`, base)
	require.NoError(t, err)
	require.Equal(t, Default().Recognizer.Language, base.Recognizer.Language)
}

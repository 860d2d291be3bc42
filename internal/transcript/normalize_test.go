package transcript

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNormalizeCollapsesWhitespace(t *testing.T) {
	t.Parallel()

	got := Normalize("  hello \n\t world  ", Options{})
	require.Equal(t, "hello world", got)
}

func TestNormalizeEmptyInput(t *testing.T) {
	t.Parallel()

	require.Equal(t, "", Normalize("", Options{}))
	require.Equal(t, "", Normalize(" \n\t ", Options{TrailingSpace: true}))
}

func TestNormalizeCapitalizesSentences(t *testing.T) {
	t.Parallel()

	got := Normalize("hello world. this is dictation! is it working? yes", Options{CapitalizeSentences: true})
	require.Equal(t, "Hello world. This is dictation! Is it working? Yes", got)
}

func TestNormalizeTrailingSpace(t *testing.T) {
	t.Parallel()

	got := Normalize("hello world", Options{TrailingSpace: true})
	require.Equal(t, "hello world ", got)
}

func TestNormalizeDoesNotBreakDecimalsOrAbbreviations(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "decimal",
			in:   "the total is 3.5 units here",
			want: "The total is 3.5 units here",
		},
		{
			name: "honorific",
			in:   "ask dr. smith about it",
			want: "Ask dr. smith about it",
		},
		{
			name: "initialism",
			in:   "she moved to the u.s. last year",
			want: "She moved to the u.s. last year",
		},
		{
			name: "embedded period",
			in:   "visit example.com for details",
			want: "Visit example.com for details",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got := Normalize(tc.in, Options{CapitalizeSentences: true})
			require.Equal(t, tc.want, got)
		})
	}
}

func TestNormalizeCapitalizesPronounI(t *testing.T) {
	t.Parallel()

	got := Normalize("i think i'm ready and i'll go when i can", Options{CapitalizeSentences: true})
	require.Equal(t, "I think I'm ready and I'll go when I can", got)
}

func TestNormalizeLeavesDottedIAlone(t *testing.T) {
	t.Parallel()

	got := Normalize("use butter, i.e. the salted kind", Options{CapitalizeSentences: true})
	require.Contains(t, got, "i.e.")
}

func TestNormalizeWithoutCapitalization(t *testing.T) {
	t.Parallel()

	got := Normalize("hello world. i stay lowercase", Options{})
	require.Equal(t, "hello world. i stay lowercase", got)
}

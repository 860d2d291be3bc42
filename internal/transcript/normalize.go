// Package transcript normalizes raw recognizer output into clipboard-ready text.
package transcript

import (
	"regexp"
	"strings"
	"unicode"
)

// Options controls transcript formatting behavior.
type Options struct {
	CapitalizeSentences bool
	TrailingSpace       bool
}

// Normalize collapses whitespace and applies the configured casing rules.
// Empty or whitespace-only input normalizes to the empty string.
func Normalize(raw string, opts Options) string {
	text := strings.Join(strings.Fields(raw), " ")
	if text == "" {
		return ""
	}

	if opts.CapitalizeSentences {
		text = capitalizeSentenceStarts(text)
		text = capitalizePronounI(text)
	}

	if opts.TrailingSpace {
		return text + " "
	}
	return text
}

// nonTerminalAbbreviations are tokens whose trailing period does not end
// a sentence.
var nonTerminalAbbreviations = map[string]struct{}{
	"dr":   {},
	"mr":   {},
	"mrs":  {},
	"ms":   {},
	"prof": {},
	"sr":   {},
	"jr":   {},
	"e.g":  {},
	"i.e":  {},
	"cf":   {},
	"etc":  {},
	"vs":   {},
	"fig":  {},
	"sec":  {},
}

func capitalizeSentenceStarts(text string) string {
	runes := []rune(text)

	var out strings.Builder
	out.Grow(len(text))

	atSentenceStart := true
	for i, r := range runes {
		if atSentenceStart && unicode.IsLetter(r) {
			r = unicode.ToUpper(r)
			atSentenceStart = false
		} else if atSentenceStart && unicode.IsDigit(r) {
			atSentenceStart = false
		}
		out.WriteRune(r)

		switch r {
		case '.':
			if endsSentence(runes, i) {
				atSentenceStart = true
			}
		case '!', '?':
			atSentenceStart = true
		}
	}

	return out.String()
}

// endsSentence reports whether the period at idx terminates a sentence.
// Decimals, embedded periods (initialisms, domain names), and known
// abbreviations do not.
func endsSentence(runes []rune, idx int) bool {
	if idx > 0 && idx+1 < len(runes) &&
		unicode.IsDigit(runes[idx-1]) && unicode.IsDigit(runes[idx+1]) {
		return false
	}
	if idx+1 < len(runes) {
		next := runes[idx+1]
		if unicode.IsLetter(next) || unicode.IsDigit(next) || next == '.' {
			return false
		}
	}

	token := strings.ToLower(tokenBefore(runes, idx))
	if _, ok := nonTerminalAbbreviations[strings.Trim(token, ".")]; ok {
		return false
	}
	if looksLikeInitialism(token) {
		return false
	}
	return true
}

// tokenBefore extracts the word (letters and interior periods) ending at
// the period at idx.
func tokenBefore(runes []rune, idx int) string {
	start := idx - 1
	for start >= 0 {
		if r := runes[start]; unicode.IsLetter(r) || r == '.' {
			start--
			continue
		}
		break
	}
	return string(runes[start+1 : idx])
}

// looksLikeInitialism matches dotted single letters such as "u.s" in "u.s.".
func looksLikeInitialism(token string) bool {
	parts := strings.Split(token, ".")
	if len(parts) < 2 {
		return false
	}
	for _, part := range parts {
		r := []rune(part)
		if len(r) != 1 || !unicode.IsLetter(r[0]) {
			return false
		}
	}
	return true
}

var (
	pronounIContraction = regexp.MustCompile(`\bi('|’)(m|d|ll|ve|re|s)\b`)
	pronounIStandalone  = regexp.MustCompile(`\bi\b([^.a-z]|\.\s|\.$|$)`)
)

// capitalizePronounI uppercases the standalone pronoun and its common
// contractions while leaving dotted tokens like "i.e." alone.
func capitalizePronounI(text string) string {
	text = pronounIContraction.ReplaceAllStringFunc(text, func(match string) string {
		return "I" + match[1:]
	})
	return pronounIStandalone.ReplaceAllStringFunc(text, func(match string) string {
		return "I" + match[1:]
	})
}

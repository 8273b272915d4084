// Package textutil provides text normalization and windowing helpers shared by the screening stages.
package textutil

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

// Normalize applies NFKC normalization and strips control characters other than newlines and tabs.
// Fullwidth letters, ligatures and compatibility forms collapse to their canonical equivalents so that
// byte offsets computed on the normalized text are stable across the pipeline.
func Normalize(text string) string {
	normed := norm.NFKC.String(text)
	return strings.Map(func(r rune) rune {
		if r == '\n' || r == '\t' {
			return r
		}
		if unicode.IsControl(r) {
			return -1
		}
		return r
	}, normed)
}

// NormalizeName lowercases, NFKC-normalizes and trims a person name, collapsing inner whitespace.
func NormalizeName(name string) string {
	return strings.Join(strings.Fields(strings.ToLower(Normalize(name))), " ")
}

// IndexFold returns the byte offset of the first case-insensitive occurrence of needle in text, or -1.
func IndexFold(text, needle string) int {
	if needle == "" {
		return -1
	}
	re, err := regexp.Compile("(?i)" + regexp.QuoteMeta(needle))
	if err != nil {
		return -1
	}
	loc := re.FindStringIndex(text)
	if loc == nil {
		return -1
	}
	return loc[0]
}

// Window returns the slice of text spanning half of size on each side of [start, end), clipped to the
// text bounds and widened to rune boundaries. When start is negative the first size bytes are returned.
func Window(text string, start, end, size int) string {
	if size <= 0 || text == "" {
		return ""
	}
	if start < 0 || end < start || start > len(text) {
		return Prefix(text, size)
	}
	end = min(end, len(text))

	from := max(0, start-size/2)
	to := min(len(text), end+size/2)
	for from > 0 && !utf8.RuneStart(text[from]) {
		from--
	}
	for to < len(text) && !utf8.RuneStart(text[to]) {
		to++
	}
	return text[from:to]
}

// WindowAround locates needle case-insensitively and returns the surrounding window of the given size.
// If needle is empty or absent the document prefix of that size is returned.
func WindowAround(text, needle string, size int) string {
	start := IndexFold(text, needle)
	if start < 0 {
		return Prefix(text, size)
	}
	return Window(text, start, start+len(needle), size)
}

// Prefix returns at most size bytes from the start of text without splitting a rune.
func Prefix(text string, size int) string {
	if size <= 0 {
		return ""
	}
	if len(text) <= size {
		return text
	}
	cut := size
	for cut > 0 && !utf8.RuneStart(text[cut]) {
		cut--
	}
	return text[:cut]
}

// Words lowercases text and splits it on whitespace, trimming punctuation from each token.
// Tokens left empty after trimming are dropped.
func Words(text string) []string {
	fields := strings.Fields(strings.ToLower(text))
	words := make([]string, 0, len(fields))
	for _, f := range fields {
		w := strings.TrimFunc(f, func(r rune) bool {
			return unicode.IsPunct(r) || unicode.IsSymbol(r)
		})
		if w != "" {
			words = append(words, w)
		}
	}
	return words
}

// StripPunctuation removes every rune that is neither a letter, digit, underscore nor whitespace.
func StripPunctuation(text string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_' || unicode.IsSpace(r) {
			return r
		}
		return -1
	}, text)
}

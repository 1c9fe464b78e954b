package utils

import (
	"strings"
	"unicode/utf8"
)

const ellipsis = "..."

var newlineReplacer = strings.NewReplacer("\r\n", " ", "\r", " ", "\n", " ")

// PreviewText returns the first limit runes of s, followed by "..." when s was
// longer than limit.
func PreviewText(s string, limit int) string {
	if limit < 0 {
		limit = 0
	}
	if utf8.RuneCountInString(s) <= limit {
		return s
	}
	runes := []rune(s)
	return string(runes[:limit]) + ellipsis
}

// FlattenNewlines turns every line break (CRLF, CR or LF) into a single space.
func FlattenNewlines(s string) string {
	return newlineReplacer.Replace(s)
}

// ToValidUTF8 replaces invalid byte sequences with U+FFFD.
func ToValidUTF8(b []byte) string {
	return strings.ToValidUTF8(string(b), "\uFFFD")
}

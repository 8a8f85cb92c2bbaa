// Package sanitize holds the string cleanup shared by the contact form client
// and the contact endpoint.
//
// StripTags is display-layer cleanup only. Escape is what the server relies on.
package sanitize

import (
	"regexp"
	"strings"
	"unicode"
)

var tagPattern = regexp.MustCompile(`<[^>]*>?`)

// StripTags removes every angle-bracket tag from s, including an unterminated
// trailing one.
func StripTags(s string) string {
	return tagPattern.ReplaceAllString(s, "")
}

var escaper = strings.NewReplacer(
	"&", "&amp;",
	"\"", "&quot;",
	"'", "&#x27;",
	"<", "&lt;",
	">", "&gt;",
	"/", "&#x2F;",
	"\\", "&#x5C;",
	"`", "&#96;",
)

// Escape replaces characters with special meaning in HTML with entities.
func Escape(s string) string {
	return escaper.Replace(s)
}

// Trim removes leading and trailing whitespace, byte order marks included.
func Trim(s string) string {
	return strings.TrimFunc(s, func(r rune) bool {
		return unicode.IsSpace(r) || r == '\uFEFF'
	})
}

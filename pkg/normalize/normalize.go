// Package normalize canonicalizes text recovered from documents before
// keyword matching.
package normalize

import (
	"regexp"
	"strings"

	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// PDF extraction leaves these behind in place of ordinary spaces.
var spaceReplacer = strings.NewReplacer(
	"\u00a0", " ", // non-breaking space
	"\u2007", " ", // figure space
	"\u2009", " ", // thin space
	"\u200a", " ", // hair space
)

// RE2's \s is ASCII only, so the Unicode separators are listed explicitly.
var whitespace = regexp.MustCompile(`[\s\v\x{1C}-\x{1F}\x{85}\p{Z}]+`)

// Normalize applies NFKD decomposition, maps the PDF space artifacts to a
// plain space, collapses whitespace runs and trims the result.
// It is idempotent and never fails. Invalid UTF-8 becomes U+FFFD, which is
// not a word character, so the words on either side stay apart.
func Normalize(text string) string {
	if text == "" {
		return ""
	}

	text = strings.ToValidUTF8(text, "\uFFFD")

	if decomposed, _, err := transform.String(norm.NFKD, text); err == nil {
		text = decomposed
	}

	text = spaceReplacer.Replace(text)
	text = whitespace.ReplaceAllString(text, " ")

	return strings.TrimSpace(text)
}

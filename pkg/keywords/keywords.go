// Package keywords compiles a fixed keyword vocabulary into whole-word
// matchers and reports which keywords occur in a piece of text.
package keywords

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/xhad/projfilter/pkg/normalize"
)

// wordClass mirrors the word characters of a Unicode \w: letters, numbers
// and underscore. Combining marks are not word characters, so a decomposed
// accent still ends a word.
const wordClass = `\p{L}\p{N}_`

// Keyword is a lowercase keyword and its compiled whole-word pattern.
type Keyword struct {
	Text    string
	pattern *regexp.Regexp
}

// MatchString reports whether the keyword occurs as a whole word in text.
// text is expected to be normalized already.
func (k Keyword) MatchString(text string) bool {
	return k.pattern.MatchString(text)
}

// Matcher holds an ordered keyword list. It is immutable after New and safe
// for concurrent use.
type Matcher struct {
	keywords []Keyword
}

// New lowercases and trims every entry, drops empty and repeated entries and
// compiles one case-insensitive whole-word pattern per keyword, keeping the
// input order.
func New(raw []string) *Matcher {
	m := &Matcher{}
	seen := make(map[string]bool, len(raw))

	for _, entry := range raw {
		kw := strings.ToLower(strings.TrimSpace(entry))
		if kw == "" || seen[kw] {
			continue
		}
		seen[kw] = true
		m.keywords = append(m.keywords, Keyword{
			Text:    kw,
			pattern: compile(kw),
		})
	}

	return m
}

// compile builds the equivalent of \b<keyword>\b. A boundary before a word
// character needs a non-word character (or the start) on the other side and
// the reverse for a keyword that starts with punctuation.
func compile(kw string) *regexp.Regexp {
	first, _ := utf8.DecodeRuneInString(kw)
	last, _ := utf8.DecodeLastRuneInString(kw)

	var b strings.Builder
	b.WriteString(`(?i)`)
	if isWord(first) {
		b.WriteString(`(?:^|[^` + wordClass + `])`)
	} else {
		b.WriteString(`[` + wordClass + `]`)
	}
	b.WriteString(regexp.QuoteMeta(kw))
	if isWord(last) {
		b.WriteString(`(?:$|[^` + wordClass + `])`)
	} else {
		b.WriteString(`[` + wordClass + `]`)
	}

	return regexp.MustCompile(b.String())
}

func isWord(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsNumber(r)
}

// Find normalizes text and returns the keywords found in it, in keyword
// order and without duplicates. The result is never nil.
func (m *Matcher) Find(text string) []string {
	found := make([]string, 0)
	if m == nil {
		return found
	}

	normalized := normalize.Normalize(text)
	if normalized == "" {
		return found
	}

	for _, kw := range m.keywords {
		if kw.MatchString(normalized) {
			found = append(found, kw.Text)
		}
	}

	return found
}

// Len returns the number of loaded keywords.
func (m *Matcher) Len() int {
	if m == nil {
		return 0
	}
	return len(m.keywords)
}

// Keywords returns a copy of the keyword texts in match order.
func (m *Matcher) Keywords() []string {
	if m == nil {
		return nil
	}
	out := make([]string, len(m.keywords))
	for i, kw := range m.keywords {
		out[i] = kw.Text
	}
	return out
}

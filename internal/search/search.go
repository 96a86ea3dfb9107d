// Package search implements the language-aware full-text match used to
// filter collections by name.
//
// Text is tokenized the same way on both sides of a match:
//  1. NFKD decomposition and removal of combining marks ("Café" → "Cafe")
//  2. Language-specific lower casing (Turkish dotted I, etc.)
//  3. Splitting on every rune that is neither a letter nor a number
//  4. Light plural stemming for English ("invoices" → "invoice")
//
// A query matches when every query token equals some text token. Word order
// and repetition are ignored; substrings do not match.
package search

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Matcher tokenizes and matches text for one language.
// A Matcher is immutable and safe for concurrent use.
type Matcher struct {
	tag     language.Tag
	english bool
}

// NewMatcher creates a Matcher for the given language.
func NewMatcher(tag language.Tag) Matcher {
	base, _ := tag.Base()
	english, _ := language.English.Base()
	return Matcher{tag: tag, english: base == english}
}

// ParseLanguage parses a BCP 47 tag such as "en" or "tr-TR".
func ParseLanguage(s string) (language.Tag, error) {
	return language.Parse(s)
}

// Language returns the matcher's language tag.
func (m Matcher) Language() language.Tag {
	return m.tag
}

// Tokens returns the normalized tokens of s in order of appearance.
func (m Matcher) Tokens(s string) []string {
	// transform chains and casers are stateful; build them per call.
	strip := transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	stripped, _, err := transform.String(strip, s)
	if err != nil {
		stripped = s
	}
	lowered := cases.Lower(m.tag).String(stripped)

	fields := strings.FieldsFunc(lowered, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	})
	if m.english {
		for i, f := range fields {
			fields[i] = stemEnglish(f)
		}
	}
	return fields
}

// Match reports whether every token of query occurs among the tokens of
// text. A query without tokens matches nothing.
func (m Matcher) Match(text, query string) bool {
	queryTokens := m.Tokens(query)
	if len(queryTokens) == 0 {
		return false
	}

	have := make(map[string]struct{})
	for _, t := range m.Tokens(text) {
		have[t] = struct{}{}
	}
	for _, t := range queryTokens {
		if _, ok := have[t]; !ok {
			return false
		}
	}
	return true
}

// stemEnglish strips regular plural suffixes. It is applied to both sides
// of a match, so over-stemming only has to be consistent, not correct.
func stemEnglish(word string) string {
	switch {
	case len(word) > 4 && strings.HasSuffix(word, "ies"):
		return strings.TrimSuffix(word, "ies") + "y"
	case len(word) > 3 && strings.HasSuffix(word, "s") && !strings.HasSuffix(word, "ss"):
		return strings.TrimSuffix(word, "s")
	default:
		return word
	}
}

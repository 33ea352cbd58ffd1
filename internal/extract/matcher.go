// Package extract turns raw invoice text into typed candidate fields using
// ordered lists of matchers, one list per field.
package extract

import (
	"regexp"
	"strings"

	"github.com/ddmr2811/Facturas/internal/textnorm"
)

// Catalog exposes the identifier table data that extractors search for
// literally in the text.
type Catalog interface {
	Keys() []string
	ReferenceAddresses() []string
}

// Document is the text of one invoice as seen by the matchers
type Document struct {
	Raw    string
	Upper  string
	Folded string // upper-cased, accents removed

	Known Catalog
}

// NewDocument prepares text for matching. known may be nil.
func NewDocument(text string, known Catalog) *Document {
	return &Document{
		Raw:    text,
		Upper:  strings.ToUpper(text),
		Folded: textnorm.Fold(text),
		Known:  known,
	}
}

// Matcher tries to find one field value in a document
type Matcher interface {
	Match(doc *Document) (string, bool)
}

// MatcherFunc adapts a function to Matcher
type MatcherFunc func(doc *Document) (string, bool)

func (f MatcherFunc) Match(doc *Document) (string, bool) {
	return f(doc)
}

// Accept post-processes a raw capture. Returning false rejects the
// candidate so the next match is tried.
type Accept func(s string) (string, bool)

// View selects which rendering of the document a pattern runs on
type View int

const (
	ViewRaw View = iota
	ViewUpper
)

type patternMatcher struct {
	re     *regexp.Regexp
	view   View
	accept Accept
}

// Pattern runs re over the raw text and yields the first capture group (or
// the whole match when re has none). Every match is tried in order until
// accept takes one.
func Pattern(re *regexp.Regexp, accept Accept) Matcher {
	return &patternMatcher{re: re, view: ViewRaw, accept: accept}
}

// UpperPattern is Pattern over the upper-cased text
func UpperPattern(re *regexp.Regexp, accept Accept) Matcher {
	return &patternMatcher{re: re, view: ViewUpper, accept: accept}
}

func (m *patternMatcher) Match(doc *Document) (string, bool) {
	text := doc.Raw
	if m.view == ViewUpper {
		text = doc.Upper
	}
	for _, sm := range m.re.FindAllStringSubmatch(text, -1) {
		v := sm[0]
		if len(sm) > 1 {
			v = sm[1]
		}
		v = strings.TrimSpace(v)
		if m.accept != nil {
			var ok bool
			if v, ok = m.accept(v); !ok {
				continue
			}
		}
		if v != "" {
			return v, true
		}
	}
	return "", false
}

// First runs matchers in order and returns the first success
func First(doc *Document, matchers []Matcher) (string, bool) {
	for _, m := range matchers {
		if v, ok := m.Match(doc); ok {
			return v, true
		}
	}
	return "", false
}

// Upper upper-cases a candidate
func Upper(s string) (string, bool) {
	return strings.ToUpper(s), true
}

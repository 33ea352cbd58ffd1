// Package textnorm canonicalizes invoice text and address fragments into
// comparable keys.
package textnorm

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var (
	separatorRe  = regexp.MustCompile(`[.,/\\#-]`)
	whitespaceRe = regexp.MustCompile(`\s+`)
)

// NormalizeKey upper-cases s, turns the separators . , / \ # - into spaces,
// collapses whitespace and trims. "Avda. Reconquista 14-A" and
// "AVDA RECONQUISTA 14 A" give the same key.
func NormalizeKey(s string) string {
	s = strings.ToUpper(s)
	s = separatorRe.ReplaceAllString(s, " ")
	return CollapseSpaces(s)
}

// CollapseSpaces replaces runs of whitespace with a single space and trims
func CollapseSpaces(s string) string {
	return strings.TrimSpace(whitespaceRe.ReplaceAllString(s, " "))
}

// Fold upper-cases s and removes diacritics so that "eléctrica" and
// "ELECTRICA" compare equal.
func Fold(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, s)
	if err != nil {
		folded = s
	}
	return strings.ToUpper(folded)
}

package textnorm

import (
	"regexp"
	"strings"
)

var (
	postalCodeRe    = regexp.MustCompile(`,?\s*\b\d{5}\b.*$`)
	trailingPunctRe = regexp.MustCompile(`[\s,\-/]+$`)
)

// SuffixStripper cuts trailing city/region names and postal codes from an
// address: "BUENAVISTA 22 1 BAJO, TOLEDO, Toledo, 45005" becomes
// "BUENAVISTA 22 1 BAJO".
type SuffixStripper struct {
	cityRe *regexp.Regexp
}

// NewSuffixStripper builds a stripper for the given city/region names.
// Postal codes (five digits) are always stripped.
func NewSuffixStripper(cities []string) *SuffixStripper {
	var alts []string
	for _, c := range cities {
		c = strings.TrimSpace(c)
		if c == "" {
			continue
		}
		alts = append(alts, regexp.QuoteMeta(c))
	}
	s := &SuffixStripper{}
	if len(alts) > 0 {
		s.cityRe = regexp.MustCompile(`(?i),?\s*\b(?:` + strings.Join(alts, "|") + `)\b.*$`)
	}
	return s
}

// Strip returns addr without its city/postal suffix. The result may be
// empty when the whole string was a suffix.
func (s *SuffixStripper) Strip(addr string) string {
	if s != nil && s.cityRe != nil {
		addr = s.cityRe.ReplaceAllString(addr, "")
	}
	addr = postalCodeRe.ReplaceAllString(addr, "")
	addr = trailingPunctRe.ReplaceAllString(addr, "")
	return CollapseSpaces(addr)
}

// Package parse converts European-formatted money and date tokens.
package parse

import (
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

var plainNumberRe = regexp.MustCompile(`^\d+(?:\.\d+)?$`)

// Money parses a European money token. When both '.' and ',' appear, '.'
// is the thousands separator and ',' the decimal mark; a lone ',' is the
// decimal mark; a lone '.' is kept as is. The result is rounded to cents.
// Malformed or negative tokens are reported as not found.
func Money(s string) (decimal.Decimal, bool) {
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, "€")
	s = strings.TrimSpace(strings.TrimSuffix(strings.ToUpper(s), "EUR"))
	s = strings.ReplaceAll(s, " ", "")

	hasDot := strings.Contains(s, ".")
	hasComma := strings.Contains(s, ",")
	switch {
	case hasDot && hasComma:
		s = strings.ReplaceAll(s, ".", "")
		s = strings.ReplaceAll(s, ",", ".")
	case hasComma:
		s = strings.ReplaceAll(s, ",", ".")
	}

	if !plainNumberRe.MatchString(s) {
		return decimal.Zero, false
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, false
	}
	return d.Round(2), true
}

// FormatMoney renders d with two decimals and a decimal comma, "1234,56"
func FormatMoney(d decimal.Decimal) string {
	return strings.Replace(d.StringFixed(2), ".", ",", 1)
}
